package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"gorm.io/datatypes"

	"github.com/openassess/testing-service/internal/events"
	"github.com/openassess/testing-service/internal/models"
	"github.com/openassess/testing-service/internal/repositories"
	"github.com/openassess/testing-service/internal/validator"
)

// ImportExportService handles bulk question import and result export.
// Import rows fail independently: a bad row is collected as an error and the
// rest of the batch proceeds.
type ImportExportService interface {
	ImportQuestionsFromFile(ctx context.Context, file multipart.File, filename string, organizationID uint, creatorID string) (*models.ImportSummary, error)
	ImportQuestionsFromCSV(ctx context.Context, reader io.Reader, organizationID uint, creatorID string) (*models.ImportSummary, error)
	ImportQuestionsFromExcel(ctx context.Context, reader io.Reader, organizationID uint, creatorID string) (*models.ImportSummary, error)

	ExportQuestionsToCSV(ctx context.Context, questionIDs []uint) ([]byte, error)
	ExportTestResults(ctx context.Context, testID uint) ([]byte, error)
}

type importExportService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
	publisher events.EventPublisher
}

func NewImportExportService(repo repositories.Repository, logger *slog.Logger, v *validator.Validator, publisher events.EventPublisher) ImportExportService {
	return &importExportService{
		repo:      repo,
		logger:    logger,
		validator: v,
		publisher: publisher,
	}
}

var importRequiredColumns = []string{"question_type", "question_text", "correct_answer"}

var optionColumns = []string{"option_a", "option_b", "option_c", "option_d"}

// ===== IMPORT OPERATIONS =====

func (s *importExportService) ImportQuestionsFromFile(ctx context.Context, file multipart.File, filename string, organizationID uint, creatorID string) (*models.ImportSummary, error) {
	s.logger.Info("Starting file import", "filename", filename, "organization_id", organizationID)

	ext := strings.ToLower(filepath.Ext(filename))

	switch ext {
	case ".csv":
		return s.ImportQuestionsFromCSV(ctx, file, organizationID, creatorID)
	case ".xlsx", ".xls":
		return s.ImportQuestionsFromExcel(ctx, file, organizationID, creatorID)
	default:
		return nil, NewValidationError("file", "unsupported file format", ext)
	}
}

func (s *importExportService) ImportQuestionsFromCSV(ctx context.Context, reader io.Reader, organizationID uint, creatorID string) (*models.ImportSummary, error) {
	csvReader := csv.NewReader(reader)
	csvReader.TrimLeadingSpace = true

	records, err := csvReader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}

	return s.importRows(ctx, records, organizationID, creatorID)
}

func (s *importExportService) ImportQuestionsFromExcel(ctx context.Context, reader io.Reader, organizationID uint, creatorID string) (*models.ImportSummary, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, NewValidationError("file", "Excel file has no sheets", nil)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read Excel rows: %w", err)
	}

	return s.importRows(ctx, rows, organizationID, creatorID)
}

func (s *importExportService) importRows(ctx context.Context, rows [][]string, organizationID uint, creatorID string) (*models.ImportSummary, error) {
	started := time.Now()

	if len(rows) < 2 {
		return nil, NewValidationError("file", "file must have a header row and at least one data row", len(rows))
	}

	headerMap := make(map[string]int)
	for i, header := range rows[0] {
		headerMap[strings.ToLower(strings.TrimSpace(header))] = i
	}
	for _, col := range importRequiredColumns {
		if _, exists := headerMap[col]; !exists {
			return nil, NewValidationError("headers", fmt.Sprintf("missing required column: %s", col), col)
		}
	}

	if _, err := s.repo.Organization().GetByID(ctx, organizationID); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrOrganizationNotFound
		}
		return nil, fmt.Errorf("failed to get organization: %w", err)
	}

	summary := &models.ImportSummary{
		TotalRows: len(rows) - 1,
	}

	// Tag lookups are cached for this import call only, never across
	// requests, so a concurrent tag rename cannot leak stale ids in.
	tagCache := make(map[string]*models.Tag)

	for rowIndex, record := range rows[1:] {
		rowNum := rowIndex + 2
		summary.ProcessedRows++

		revision, tagNames, rowErrors := s.parseRow(record, headerMap, rowNum, creatorID)
		if len(rowErrors) > 0 {
			summary.Errors = append(summary.Errors, rowErrors...)
			summary.ErrorCount++
			continue
		}

		if err := s.validator.Question().ValidateRevision(revision); err != nil {
			summary.Errors = append(summary.Errors, models.ImportValidationError{
				Row: rowNum, Column: "content", Message: err.Error(),
			})
			summary.ErrorCount++
			continue
		}

		tags, err := s.resolveImportTags(ctx, organizationID, tagNames, tagCache)
		if err != nil {
			summary.Errors = append(summary.Errors, models.ImportValidationError{
				Row: rowNum, Column: "tags", Message: err.Error(),
			})
			summary.ErrorCount++
			continue
		}

		questionID, err := s.saveImportedQuestion(ctx, organizationID, revision, tags)
		if err != nil {
			summary.Errors = append(summary.Errors, models.ImportValidationError{
				Row: rowNum, Column: "", Message: err.Error(),
			})
			summary.ErrorCount++
			continue
		}

		summary.CreatedQuestions = append(summary.CreatedQuestions, questionID)
		summary.SuccessCount++
	}

	summary.ProcessingTime = time.Since(started)

	if s.publisher != nil {
		event := events.NewSessionEvent(events.EventImportCompleted, events.ImportCompletedEvent{
			OrganizationID: organizationID,
			Summary:        summary,
			ImportedBy:     creatorID,
		})
		if err := s.publisher.PublishSessionEvent(ctx, event); err != nil {
			s.logger.Error("Failed to publish import event", "error", err)
		}
	}

	s.logger.Info("Question import completed",
		"total_rows", summary.TotalRows,
		"success_count", summary.SuccessCount,
		"error_count", summary.ErrorCount)

	return summary, nil
}

// ===== EXPORT OPERATIONS =====

func (s *importExportService) ExportQuestionsToCSV(ctx context.Context, questionIDs []uint) ([]byte, error) {
	var buf strings.Builder
	writer := csv.NewWriter(&buf)

	headers := []string{
		"question_type", "question_text", "option_a", "option_b", "option_c", "option_d",
		"correct_answer", "is_mandatory", "tags", "solution",
	}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, questionID := range questionIDs {
		question, err := s.repo.Question().GetByID(ctx, questionID)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				continue
			}
			return nil, fmt.Errorf("failed to get question %d: %w", questionID, err)
		}
		if !question.Effective() || question.LastRevisionID == nil {
			continue
		}

		revision, err := s.repo.QuestionRevision().GetByID(ctx, *question.LastRevisionID)
		if err != nil {
			return nil, fmt.Errorf("failed to get revision for question %d: %w", questionID, err)
		}

		if err := writer.Write(revisionToCSVRow(question, revision)); err != nil {
			return nil, fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return []byte(buf.String()), nil
}

// ExportTestResults writes one spreadsheet row per session, scored with the
// same pass the candidate result endpoint uses.
func (s *importExportService) ExportTestResults(ctx context.Context, testID uint) ([]byte, error) {
	if _, err := s.repo.Test().GetByID(ctx, testID); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrTestNotFound
		}
		return nil, fmt.Errorf("failed to get test: %w", err)
	}

	associations, err := s.repo.Test().GetQuestionRevisions(ctx, testID)
	if err != nil {
		return nil, fmt.Errorf("failed to get test questions: %w", err)
	}

	sessions, _, err := s.repo.CandidateTest().ListByTest(ctx, testID, repositories.SessionFilters{})
	if err != nil {
		return nil, fmt.Errorf("failed to get sessions: %w", err)
	}

	f := excelize.NewFile()
	sheetName := "Results"

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to create Excel sheet: %w", err)
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	headers := []string{
		"Candidate UUID", "Started At", "Submitted At", "Is Submitted",
		"Correct", "Incorrect", "Mandatory Not Attempted", "Optional Not Attempted",
	}
	for i, header := range headers {
		cell := fmt.Sprintf("%c1", 'A'+i)
		f.SetCellValue(sheetName, cell, header)
	}

	for rowIndex, session := range sessions {
		answers, err := s.repo.CandidateTestAnswer().GetBySession(ctx, session.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to get answers for session %d: %w", session.ID, err)
		}
		result := scoreSession(associations, answers)

		submittedAt := ""
		if session.EndTime != nil {
			submittedAt = session.EndTime.Format("2006-01-02 15:04:05")
		}

		row := []interface{}{
			session.Candidate.Identity,
			session.StartTime.Format("2006-01-02 15:04:05"),
			submittedAt,
			session.IsSubmitted,
			result.CorrectAnswer,
			result.IncorrectAnswer,
			result.MandatoryNotAttempted,
			result.OptionalNotAttempted,
		}
		for colIndex, value := range row {
			cell := fmt.Sprintf("%c%d", 'A'+colIndex, rowIndex+2)
			f.SetCellValue(sheetName, cell, value)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write Excel file: %w", err)
	}

	return buf.Bytes(), nil
}

// ===== HELPER FUNCTIONS =====

func (s *importExportService) parseRow(record []string, headerMap map[string]int, rowNum int, creatorID string) (*models.QuestionRevision, []string, []models.ImportValidationError) {
	var rowErrors []models.ImportValidationError

	getColumn := func(name string) string {
		if index, exists := headerMap[name]; exists && index < len(record) {
			return strings.TrimSpace(record[index])
		}
		return ""
	}

	questionTypeStr := strings.ToLower(getColumn("question_type"))
	if questionTypeStr == "" {
		rowErrors = append(rowErrors, models.ImportValidationError{
			Row: rowNum, Column: "question_type", Message: "required field",
		})
		return nil, nil, rowErrors
	}
	questionType := models.QuestionType(questionTypeStr)

	questionText := getColumn("question_text")
	if questionText == "" {
		rowErrors = append(rowErrors, models.ImportValidationError{
			Row: rowNum, Column: "question_text", Message: "required field",
		})
		return nil, nil, rowErrors
	}

	var options []models.Option
	for i, colName := range optionColumns {
		optionText := getColumn(colName)
		if optionText != "" {
			options = append(options, models.Option{ID: i, Text: optionText})
		}
	}

	correctAnswer, answerErr := parseCorrectAnswer(questionType, getColumn("correct_answer"), len(options))
	if answerErr != "" {
		rowErrors = append(rowErrors, models.ImportValidationError{
			Row: rowNum, Column: "correct_answer", Message: answerErr, Value: getColumn("correct_answer"),
		})
		return nil, nil, rowErrors
	}

	isMandatory := true
	if v := strings.ToLower(getColumn("is_mandatory")); v == "false" || v == "no" || v == "0" {
		isMandatory = false
	}

	revision := &models.QuestionRevision{
		QuestionText:  questionText,
		QuestionType:  questionType,
		Options:       datatypes.NewJSONSlice(options),
		CorrectAnswer: correctAnswer,
		IsMandatory:   isMandatory,
		CreatedByID:   creatorID,
		IsActive:      true,
	}
	if solution := getColumn("solution"); solution != "" {
		revision.Solution = &solution
	}

	var tagNames []string
	if tagsStr := getColumn("tags"); tagsStr != "" {
		for _, name := range strings.Split(tagsStr, ",") {
			if trimmed := strings.TrimSpace(name); trimmed != "" {
				tagNames = append(tagNames, trimmed)
			}
		}
	}

	return revision, tagNames, rowErrors
}

// parseCorrectAnswer turns the spreadsheet answer notation into the stored
// JSON form: letters ("A,C") become option-id lists for choice questions,
// numerical answers stay integers, subjective answers stay text.
func parseCorrectAnswer(questionType models.QuestionType, value string, optionCount int) (datatypes.JSON, string) {
	switch questionType {
	case models.SingleChoice, models.MultiChoice:
		if value == "" {
			return nil, "required field"
		}
		var ids []int
		for _, part := range strings.Split(strings.ToUpper(value), ",") {
			part = strings.TrimSpace(part)
			if len(part) != 1 || part[0] < 'A' || part[0] > 'Z' {
				return nil, "must be option letters (e.g. A or A,C)"
			}
			id := int(part[0] - 'A')
			if id >= optionCount {
				return nil, fmt.Sprintf("option %s does not exist", part)
			}
			ids = append(ids, id)
		}
		if questionType == models.SingleChoice && len(ids) != 1 {
			return nil, "single-choice requires exactly one correct option"
		}
		data, _ := json.Marshal(ids)
		return data, ""

	case models.NumericalInteger:
		if _, err := strconv.ParseInt(value, 10, 64); err != nil {
			return nil, "must be an integer"
		}
		return datatypes.JSON(value), ""

	case models.Subjective:
		if value == "" {
			return nil, ""
		}
		data, _ := json.Marshal(value)
		return data, ""

	default:
		return nil, "unsupported question type"
	}
}

func (s *importExportService) resolveImportTags(ctx context.Context, organizationID uint, tagNames []string, tagCache map[string]*models.Tag) ([]models.Tag, error) {
	tags := make([]models.Tag, 0, len(tagNames))
	for _, name := range tagNames {
		if cached, ok := tagCache[name]; ok {
			tags = append(tags, *cached)
			continue
		}

		tag, err := s.repo.Tag().GetByName(ctx, organizationID, name)
		if err != nil {
			if !repositories.IsNotFoundError(err) {
				return nil, fmt.Errorf("failed to look up tag %q: %w", name, err)
			}
			tag = &models.Tag{Name: name, OrganizationID: organizationID, IsActive: true}
			if err := s.repo.Tag().Create(ctx, tag); err != nil {
				return nil, fmt.Errorf("failed to create tag %q: %w", name, err)
			}
		}

		tagCache[name] = tag
		tags = append(tags, *tag)
	}
	return tags, nil
}

func (s *importExportService) saveImportedQuestion(ctx context.Context, organizationID uint, revision *models.QuestionRevision, tags []models.Tag) (uint, error) {
	question := &models.Question{
		OrganizationID: organizationID,
		IsActive:       true,
	}

	err := s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		if err := tx.Question().Create(ctx, question); err != nil {
			return fmt.Errorf("failed to create question: %w", err)
		}
		revision.QuestionID = question.ID
		if err := tx.QuestionRevision().Create(ctx, revision); err != nil {
			return fmt.Errorf("failed to create revision: %w", err)
		}
		if err := tx.Question().SetLastRevision(ctx, question.ID, revision.ID); err != nil {
			return fmt.Errorf("failed to set last revision: %w", err)
		}
		if len(tags) > 0 {
			if err := tx.Question().ReplaceTags(ctx, question.ID, tags); err != nil {
				return fmt.Errorf("failed to set tags: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	return question.ID, nil
}

func revisionToCSVRow(question *models.Question, revision *models.QuestionRevision) []string {
	row := make([]string, 10)

	row[0] = string(revision.QuestionType)
	row[1] = revision.QuestionText

	for i, option := range revision.Options {
		if i < len(optionColumns) {
			row[2+i] = option.Text
		}
	}

	switch revision.QuestionType {
	case models.SingleChoice, models.MultiChoice:
		var ids []int
		if err := json.Unmarshal(revision.CorrectAnswer, &ids); err == nil {
			letters := make([]string, 0, len(ids))
			for _, id := range ids {
				if id >= 0 && id < 26 {
					letters = append(letters, string(rune('A'+id)))
				}
			}
			row[6] = strings.Join(letters, ",")
		}
	default:
		row[6] = strings.Trim(string(revision.CorrectAnswer), `"`)
	}

	row[7] = strconv.FormatBool(revision.IsMandatory)

	tagNames := make([]string, 0, len(question.Tags))
	for _, tag := range question.Tags {
		tagNames = append(tagNames, tag.Name)
	}
	row[8] = strings.Join(tagNames, ",")

	if revision.Solution != nil {
		row[9] = *revision.Solution
	}

	return row
}
