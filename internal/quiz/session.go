package quiz

import (
	"time"
)

type State string

const (
	StateNotStarted    State = "not_started"
	StateSelectingTest State = "selecting_test"
	StateInProgress    State = "in_progress"
	StateFinished      State = "finished"
	StateCancelled     State = "cancelled"
)

// Terminal reports whether no further transition is accepted
func (s State) Terminal() bool {
	return s == StateFinished || s == StateCancelled
}

// Mode only affects how an attempt is rendered
type Mode string

const (
	ModeInteractive Mode = "interactive"
	ModeText        Mode = "text"
)

type Direction string

const (
	DirectionPrev Direction = "prev"
	DirectionNext Direction = "next"
)

// Session is one participant's in-progress attempt. It is stored outside the
// engine and reattached on every event.
type Session struct {
	AttemptID       string         `json:"attempt_id"`
	ParticipantID   int64          `json:"participant_id"`
	State           State          `json:"state"`
	Mode            Mode           `json:"mode,omitempty"`
	TestID          uint           `json:"test_id,omitempty"`
	TestCode        string         `json:"test_code,omitempty"`
	TestTitle       string         `json:"test_title,omitempty"`
	QuestionCount   int            `json:"question_count,omitempty"`
	CurrentQuestion int            `json:"current_question,omitempty"`
	Answers         map[int]string `json:"answers,omitempty"`
	StartedAt       time.Time      `json:"started_at"`
	LastActivityAt  time.Time      `json:"last_activity_at"`
}

// Snapshot is what a transport needs to render the current question
type Snapshot struct {
	State           State
	Mode            Mode
	TestID          uint
	TestCode        string
	TestTitle       string
	CurrentQuestion int
	TotalQuestions  int
	AnsweredCount   int
	Selection       string
}

// CanFinish reports whether every question has an answer
func (s Snapshot) CanFinish() bool {
	return s.TotalQuestions > 0 && s.AnsweredCount == s.TotalQuestions
}

func (s *Session) Snapshot() Snapshot {
	return Snapshot{
		State:           s.State,
		Mode:            s.Mode,
		TestID:          s.TestID,
		TestCode:        s.TestCode,
		TestTitle:       s.TestTitle,
		CurrentQuestion: s.CurrentQuestion,
		TotalQuestions:  s.QuestionCount,
		AnsweredCount:   len(s.Answers),
		Selection:       s.Answers[s.CurrentQuestion],
	}
}

// Clone returns a deep copy so stores never share the answers map
func (s *Session) Clone() *Session {
	c := *s
	c.Answers = make(map[int]string, len(s.Answers))
	for k, v := range s.Answers {
		c.Answers[k] = v
	}
	return &c
}

func (s *Session) choose(question int, letter string) error {
	if question < 1 || question > s.QuestionCount {
		return invalidChoice("question %d out of range 1..%d", question, s.QuestionCount)
	}
	l, ok := NormalizeLetter(letter)
	if !ok {
		return invalidChoice("option %q is not one of %s", letter, Letters)
	}
	if s.Answers == nil {
		s.Answers = make(map[int]string)
	}
	s.Answers[question] = l
	return nil
}

func (s *Session) navigate(dir Direction) error {
	switch dir {
	case DirectionPrev:
		if s.CurrentQuestion > 1 {
			s.CurrentQuestion--
		}
	case DirectionNext:
		if s.CurrentQuestion < s.QuestionCount {
			s.CurrentQuestion++
		}
	default:
		return invalidChoice("unknown direction %q", dir)
	}
	return nil
}

func (s *Session) complete() bool {
	return len(s.Answers) == s.QuestionCount
}

// submittedKey composes the answers for questions 1..QuestionCount
func (s *Session) submittedKey() AnswerKey {
	key := make(AnswerKey, len(s.Answers))
	for i := 1; i <= s.QuestionCount; i++ {
		if l, ok := s.Answers[i]; ok {
			key[i] = l
		}
	}
	return key
}
