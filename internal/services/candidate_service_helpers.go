package services

import (
	"bytes"
	"encoding/json"
	"math/rand"
	"time"

	"gorm.io/datatypes"

	"github.com/openassess/testing-service/internal/models"
)

// buildQuestionOrder computes the question-revision id list snapshotted into
// a new session. Association order is the base; tag rules and the random
// subset draw narrow it; shuffle permutes it. Every call is an independent
// draw, so two sessions on the same test may legitimately differ.
func buildQuestionOrder(test *models.Test, associations []*models.TestQuestion) ([]uint, error) {
	base := make([]uint, 0, len(associations))
	for _, assoc := range associations {
		base = append(base, assoc.QuestionRevisionID)
	}

	order := base
	if test.RandomQuestions {
		if test.NoOfRandomQuestions == nil {
			return nil, ErrRandomPoolTooSmall
		}

		pool := base
		if len(test.RandomTagCount) > 0 {
			var err error
			pool, err = buildTagPool(test.RandomTagCount, associations)
			if err != nil {
				return nil, err
			}
		}

		k := *test.NoOfRandomQuestions
		if k > len(pool) {
			return nil, ErrRandomPoolTooSmall
		}
		order = sampleWithoutReplacement(pool, k)
	}

	if test.Shuffle {
		shuffled := make([]uint, len(order))
		copy(shuffled, order)
		rand.Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})
		order = shuffled
	}

	return order, nil
}

// buildTagPool draws each tag's configured count from the revisions whose
// question carries that tag, without replacement within the tag. The pool is
// the union of the per-tag draws; a revision tagged twice is only drawn once.
func buildTagPool(rules []models.TagRandomCount, associations []*models.TestQuestion) ([]uint, error) {
	byTag := make(map[uint][]uint)
	for _, assoc := range associations {
		for _, tag := range assoc.QuestionRevision.Question.Tags {
			byTag[tag.ID] = append(byTag[tag.ID], assoc.QuestionRevisionID)
		}
	}

	seen := make(map[uint]bool)
	var pool []uint
	for _, rule := range rules {
		tagPool := byTag[rule.TagID]
		if rule.Count > len(tagPool) {
			return nil, ErrRandomPoolTooSmall
		}
		for _, id := range sampleWithoutReplacement(tagPool, rule.Count) {
			if !seen[id] {
				seen[id] = true
				pool = append(pool, id)
			}
		}
	}

	return pool, nil
}

func sampleWithoutReplacement(pool []uint, k int) []uint {
	picked := make([]uint, 0, k)
	for _, idx := range rand.Perm(len(pool))[:k] {
		picked = append(picked, pool[idx])
	}
	return picked
}

// computeTimeLeft derives remaining seconds at evaluation time. Nil means
// unbounded. When both constraints exist the smaller remainder wins. The
// subtraction is deliberately not clamped at zero.
func computeTimeLeft(test *models.Test, session *models.CandidateTest, now time.Time) *int {
	var remainders []int

	if test.EndTime != nil {
		remainders = append(remainders, int(test.EndTime.Sub(now).Seconds()))
	}
	if test.TimeLimit != nil {
		elapsed := int(now.Sub(session.StartTime).Seconds())
		remainders = append(remainders, *test.TimeLimit*60-elapsed)
	}

	if len(remainders) == 0 {
		return nil
	}

	remaining := remainders[0]
	for _, r := range remainders[1:] {
		if r < remaining {
			remaining = r
		}
	}
	return &remaining
}

// scoreSession walks every revision associated with the test. An answer is
// correct iff its normalized option set equals the revision's correct-answer
// set exactly; anything attempted but not matching is incorrect; everything
// else counts against the mandatory/optional non-attempt buckets.
func scoreSession(associations []*models.TestQuestion, answers []*models.CandidateTestAnswer) *models.TestResult {
	byRevision := make(map[uint]*models.CandidateTestAnswer, len(answers))
	for _, answer := range answers {
		byRevision[answer.QuestionRevisionID] = answer
	}

	result := &models.TestResult{}
	for _, assoc := range associations {
		rev := assoc.QuestionRevision

		var attempted bool
		var submitted []string
		if answer, ok := byRevision[assoc.QuestionRevisionID]; ok {
			submitted, attempted = normalizeResponse(answer.Response)
		}

		if !attempted {
			if rev.IsMandatory {
				result.MandatoryNotAttempted++
			} else {
				result.OptionalNotAttempted++
			}
			continue
		}

		if tokenSetsEqual(submitted, normalizeAnswerKey(rev.CorrectAnswer)) {
			result.CorrectAnswer++
		} else {
			result.IncorrectAnswer++
		}
	}

	return result
}

// normalizeResponse flattens a free-form response into a list of answer
// tokens. Scalars wrap into a single-element list; empty strings, empty
// lists and missing values all mean "not attempted".
func normalizeResponse(raw datatypes.JSON) ([]string, bool) {
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, false
	}

	var values []json.RawMessage
	if err := json.Unmarshal(raw, &values); err != nil {
		// Scalar response.
		token, ok := scalarToken(json.RawMessage(raw))
		if !ok {
			return nil, false
		}
		return []string{token}, true
	}

	if len(values) == 0 {
		return nil, false
	}

	tokens := make([]string, 0, len(values))
	for _, value := range values {
		token, ok := scalarToken(value)
		if !ok {
			continue
		}
		tokens = append(tokens, token)
	}
	if len(tokens) == 0 {
		return nil, false
	}

	return tokens, true
}

// normalizeAnswerKey applies the same normalization to a revision's stored
// correct_answer so both sides compare as token sets.
func normalizeAnswerKey(raw datatypes.JSON) []string {
	tokens, _ := normalizeResponse(raw)
	return tokens
}

// scalarToken renders a JSON scalar as a comparable token. Numbers keep
// their literal form via json.Number, so 3 and "3" compare equal while
// 3 and 3.5 do not.
func scalarToken(raw json.RawMessage) (string, bool) {
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()

	var value interface{}
	if err := decoder.Decode(&value); err != nil {
		return "", false
	}

	switch v := value.(type) {
	case string:
		if v == "" {
			return "", false
		}
		return v, true
	case json.Number:
		return v.String(), true
	case bool:
		if v {
			return "true", true
		}
		return "false", true
	default:
		return "", false
	}
}

func tokenSetsEqual(a, b []string) bool {
	if len(b) == 0 {
		return false
	}

	setA := make(map[string]struct{}, len(a))
	for _, token := range a {
		setA[token] = struct{}{}
	}
	setB := make(map[string]struct{}, len(b))
	for _, token := range b {
		setB[token] = struct{}{}
	}

	if len(setA) != len(setB) {
		return false
	}
	for token := range setA {
		if _, ok := setB[token]; !ok {
			return false
		}
	}
	return true
}
