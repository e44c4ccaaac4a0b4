package app

import (
	"fmt"
	"slices"

	"github.com/shopspring/decimal"

	"quiz-master/internal/domain"
)

// Session is the value every quiz transition consumes and produces.
// Transitions never mutate the receiver; they return the next Session.
type Session struct {
	Questions        []domain.Question
	CurrentIndex     int
	Score            int
	RemainingSeconds int
	AnswerLog        []domain.AnswerRecord
	Phase            domain.Phase
}

// IdleSession is the zero state before a player starts a quiz.
func IdleSession() Session {
	return Session{Phase: domain.PhaseIdle}
}

// Begin enters the answering phase with a freshly fetched batch.
func Begin(questions []domain.Question, seconds int) (Session, error) {
	if len(questions) == 0 {
		return IdleSession(), domain.ErrEmptyBatch
	}
	if seconds <= 0 {
		return IdleSession(), fmt.Errorf("session duration must be positive, got %d", seconds)
	}
	return Session{
		Questions:        slices.Clone(questions),
		RemainingSeconds: seconds,
		AnswerLog:        []domain.AnswerRecord{},
		Phase:            domain.PhaseAnswering,
	}, nil
}

// Answer records the selected answer for the question at index.
// Only an answer for the current question is honored, so a repeated submission
// for an already answered question is rejected with ErrStaleAnswer.
func (s Session) Answer(index int, selected string) (Session, domain.AnswerRecord, error) {
	if s.Phase != domain.PhaseAnswering {
		return s, domain.AnswerRecord{}, domain.ErrNotAnswering
	}
	if index != s.CurrentIndex || index >= len(s.Questions) {
		return s, domain.AnswerRecord{}, domain.ErrStaleAnswer
	}

	q := s.Questions[index]
	rec := domain.AnswerRecord{
		QuestionPrompt: q.Prompt,
		Selected:       selected,
		Correct:        q.CorrectAnswer,
		WasCorrect:     selected == q.CorrectAnswer,
	}

	next := s
	next.AnswerLog = append(slices.Clone(s.AnswerLog), rec)
	if rec.WasCorrect {
		next.Score++
	}
	next.CurrentIndex++
	if next.CurrentIndex == len(next.Questions) {
		next.Phase = domain.PhaseFinished
	}
	return next, rec, nil
}

// Tick advances the countdown by one second. Reaching zero finishes the
// session regardless of how many questions are left.
func (s Session) Tick() Session {
	if s.Phase != domain.PhaseAnswering {
		return s
	}
	next := s
	if next.RemainingSeconds > 0 {
		next.RemainingSeconds--
	}
	if next.RemainingSeconds == 0 {
		next.Phase = domain.PhaseFinished
	}
	return next
}

// Current returns the question being answered, if any.
func (s Session) Current() (domain.CurrentQuestion, bool) {
	if s.Phase != domain.PhaseAnswering || s.CurrentIndex >= len(s.Questions) {
		return domain.CurrentQuestion{}, false
	}
	q := s.Questions[s.CurrentIndex]
	return domain.CurrentQuestion{
		Index:   s.CurrentIndex,
		Prompt:  q.Prompt,
		Options: q.Options(),
	}, true
}

// Result summarizes the session; Percent is rounded half up.
func (s Session) Result() domain.Result {
	r := domain.Result{
		Total:    len(s.Questions),
		Answered: s.CurrentIndex,
		Correct:  s.Score,
	}
	if r.Total > 0 {
		r.Percent = int(decimal.NewFromInt(int64(r.Correct)).
			Mul(decimal.NewFromInt(100)).
			Div(decimal.NewFromInt(int64(r.Total))).
			Round(0).
			IntPart())
	}
	return r
}

// validateResumable checks a stored session before it is resumed.
func (s Session) validateResumable() error {
	if len(s.Questions) == 0 {
		return fmt.Errorf("no questions")
	}
	for i, q := range s.Questions {
		if q.Prompt == "" || q.CorrectAnswer == "" || len(q.IncorrectAnswers) == 0 {
			return fmt.Errorf("question %d is incomplete", i)
		}
		for _, a := range q.IncorrectAnswers {
			if a == "" {
				return fmt.Errorf("question %d has an empty answer", i)
			}
		}
	}
	if s.CurrentIndex < 0 || s.CurrentIndex >= len(s.Questions) {
		return fmt.Errorf("current index %d out of range [0,%d)", s.CurrentIndex, len(s.Questions))
	}
	if len(s.AnswerLog) != s.CurrentIndex {
		return fmt.Errorf("answer log has %d records for index %d", len(s.AnswerLog), s.CurrentIndex)
	}
	correct := 0
	for _, rec := range s.AnswerLog {
		if rec.WasCorrect {
			correct++
		}
	}
	if correct != s.Score {
		return fmt.Errorf("score %d does not match %d correct answers", s.Score, correct)
	}
	if s.RemainingSeconds <= 0 {
		return fmt.Errorf("no time remaining")
	}
	return nil
}
