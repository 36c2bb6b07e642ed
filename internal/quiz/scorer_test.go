package quiz

import (
	"reflect"
	"testing"
)

func TestScore(t *testing.T) {
	got := Score(AnswerKey{1: "A", 2: "B"}, AnswerKey{1: "A", 2: "C"})

	if got.CorrectCount != 1 || got.Total != 2 {
		t.Fatalf("Score() = %d/%d, want 1/2", got.CorrectCount, got.Total)
	}
	want := []QuestionResult{
		{QuestionNumber: 1, SubmittedAnswer: "A", CorrectAnswer: "A", IsCorrect: true},
		{QuestionNumber: 2, SubmittedAnswer: "B", CorrectAnswer: "C", IsCorrect: false},
	}
	if !reflect.DeepEqual(got.Details, want) {
		t.Errorf("Details = %+v, want %+v", got.Details, want)
	}
	if got.IncorrectCount() != 1 {
		t.Errorf("IncorrectCount() = %d, want 1", got.IncorrectCount())
	}
}

func TestScore_OrderIsNumeric(t *testing.T) {
	canonical := AnswerKey{10: "A", 2: "B", 1: "C"}
	got := Score(AnswerKey{}, canonical)

	var order []int
	for _, d := range got.Details {
		order = append(order, d.QuestionNumber)
	}
	if !reflect.DeepEqual(order, []int{1, 2, 10}) {
		t.Errorf("order = %v, want [1 2 10]", order)
	}
}

func TestScore_MissingAndCase(t *testing.T) {
	got := Score(AnswerKey{1: "a", 3: "D"}, AnswerKey{1: "A", 2: "B"})

	if got.CorrectCount != 1 || got.Total != 2 {
		t.Fatalf("Score() = %d/%d, want 1/2", got.CorrectCount, got.Total)
	}
	if got.Details[1].SubmittedAnswer != "" || got.Details[1].IsCorrect {
		t.Errorf("missing answer should be empty and incorrect, got %+v", got.Details[1])
	}
}

func TestScore_EmptyCanonical(t *testing.T) {
	got := Score(AnswerKey{1: "A"}, AnswerKey{})

	if got.CorrectCount != 0 || got.Total != 0 || len(got.Details) != 0 {
		t.Errorf("Score() = %+v, want zero result", got)
	}
}

func TestScore_Idempotent(t *testing.T) {
	submitted := AnswerKey{1: "A", 2: "D", 3: "C"}
	canonical := AnswerKey{1: "A", 2: "B", 3: "C"}

	first := Score(submitted, canonical)
	second := Score(submitted, canonical)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("scores differ: %+v vs %+v", first, second)
	}
	if !reflect.DeepEqual(submitted, AnswerKey{1: "A", 2: "D", 3: "C"}) {
		t.Error("Score() mutated its input")
	}
}
