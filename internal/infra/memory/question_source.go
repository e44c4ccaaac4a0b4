package memory

import (
	"context"
	"fmt"
	"slices"

	"quiz-master/internal/domain"
)

// StaticSource serves questions from a fixed bank (useful for tests and offline play).
type StaticSource struct {
	questions []domain.Question
}

func NewStaticSource(questions []domain.Question) *StaticSource {
	return &StaticSource{questions: questions}
}

// FetchBatch returns up to count questions from the start of the bank.
func (s *StaticSource) FetchBatch(ctx context.Context, count int) ([]domain.Question, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrFetchFailed, err)
	}
	if count <= 0 {
		return nil, fmt.Errorf("%w: count must be positive, got %d", domain.ErrFetchFailed, count)
	}
	if len(s.questions) == 0 {
		return nil, domain.ErrEmptyBatch
	}
	n := min(count, len(s.questions))
	batch := make([]domain.Question, 0, n)
	for _, q := range s.questions[:n] {
		q.IncorrectAnswers = slices.Clone(q.IncorrectAnswers)
		batch = append(batch, q)
	}
	return batch, nil
}

// SampleQuestions is a small offline bank.
func SampleQuestions() []domain.Question {
	return []domain.Question{
		{
			Prompt:           "What is the capital of Australia?",
			CorrectAnswer:    "Canberra",
			IncorrectAnswers: []string{"Sydney", "Melbourne", "Perth"},
			Category:         "Geography",
			Difficulty:       "easy",
		},
		{
			Prompt:           "Which planet is known as the &quot;Red Planet&quot;?",
			CorrectAnswer:    "Mars",
			IncorrectAnswers: []string{"Venus", "Jupiter", "Mercury"},
			Category:         "Science &amp; Nature",
			Difficulty:       "easy",
		},
		{
			Prompt:           "How many bits are in a byte?",
			CorrectAnswer:    "8",
			IncorrectAnswers: []string{"4", "16", "32"},
			Category:         "Science: Computers",
			Difficulty:       "easy",
		},
		{
			Prompt:           "Who painted <i>The Starry Night</i>?",
			CorrectAnswer:    "Vincent van Gogh",
			IncorrectAnswers: []string{"Claude Monet", "Pablo Picasso", "Salvador Dal&iacute;"},
			Category:         "Art",
			Difficulty:       "easy",
		},
		{
			Prompt:           "What is the chemical symbol for gold?",
			CorrectAnswer:    "Au",
			IncorrectAnswers: []string{"Ag", "Gd", "Go"},
			Category:         "Science &amp; Nature",
			Difficulty:       "easy",
		},
		{
			Prompt:           "In which year did the first person walk on the Moon?",
			CorrectAnswer:    "1969",
			IncorrectAnswers: []string{"1965", "1972", "1959"},
			Category:         "History",
			Difficulty:       "medium",
		},
		{
			Prompt:           "Which language has the most native speakers?",
			CorrectAnswer:    "Mandarin Chinese",
			IncorrectAnswers: []string{"English", "Spanish", "Hindi"},
			Category:         "General Knowledge",
			Difficulty:       "medium",
		},
		{
			Prompt:           "What is the largest ocean on Earth?",
			CorrectAnswer:    "Pacific Ocean",
			IncorrectAnswers: []string{"Atlantic Ocean", "Indian Ocean", "Arctic Ocean"},
			Category:         "Geography",
			Difficulty:       "easy",
		},
		{
			Prompt:           "Which composer wrote the &quot;Moonlight Sonata&quot;?",
			CorrectAnswer:    "Ludwig van Beethoven",
			IncorrectAnswers: []string{"Wolfgang Amadeus Mozart", "Fr&eacute;d&eacute;ric Chopin", "Johann Sebastian Bach"},
			Category:         "Entertainment: Music",
			Difficulty:       "medium",
		},
		{
			Prompt:           "What is the hardest natural substance?",
			CorrectAnswer:    "Diamond",
			IncorrectAnswers: []string{"Quartz", "Corundum", "Topaz"},
			Category:         "Science &amp; Nature",
			Difficulty:       "easy",
		},
	}
}
