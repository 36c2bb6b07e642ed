package quiz

import "strings"

// QuestionResult is one line of the detailed breakdown
type QuestionResult struct {
	QuestionNumber  int
	SubmittedAnswer string
	CorrectAnswer   string
	IsCorrect       bool
}

type ScoreResult struct {
	CorrectCount int
	Total        int
	Details      []QuestionResult
}

func (r ScoreResult) IncorrectCount() int {
	return r.Total - r.CorrectCount
}

// Score compares submitted against canonical, walking canonical question
// numbers in ascending order. A question missing from submitted counts as an
// empty, incorrect answer. Score is pure.
func Score(submitted, canonical AnswerKey) ScoreResult {
	nums := canonical.Numbers()
	result := ScoreResult{
		Total:   len(nums),
		Details: make([]QuestionResult, 0, len(nums)),
	}

	for _, n := range nums {
		correct := strings.ToUpper(strings.TrimSpace(canonical[n]))
		given := strings.ToUpper(strings.TrimSpace(submitted[n]))
		isCorrect := given != "" && given == correct
		if isCorrect {
			result.CorrectCount++
		}
		result.Details = append(result.Details, QuestionResult{
			QuestionNumber:  n,
			SubmittedAnswer: given,
			CorrectAnswer:   correct,
			IsCorrect:       isCorrect,
		})
	}

	return result
}
