package opentdb

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quiz-master/internal/domain"
)

func TestClient_FetchBatch(t *testing.T) {
	type outputs struct {
		questions []domain.Question
		err       error
		query     string
	}

	tests := map[string]struct {
		status int
		body   string
		assert func(t *testing.T, out outputs)
	}{
		"should map results and keep markup verbatim": {
			status: http.StatusOK,
			body: `{"response_code":0,"results":[{"category":"Art","type":"multiple","difficulty":"easy",
				"question":"Who painted &quot;The Scream&quot;?","correct_answer":"Edvard Munch",
				"incorrect_answers":["Claude Monet","Pablo Picasso","Salvador Dal&iacute;"]}]}`,
			assert: func(t *testing.T, out outputs) {
				require.NoError(t, out.err)
				require.Equal(t, []domain.Question{{
					Prompt:           "Who painted &quot;The Scream&quot;?",
					CorrectAnswer:    "Edvard Munch",
					IncorrectAnswers: []string{"Claude Monet", "Pablo Picasso", "Salvador Dal&iacute;"},
					Category:         "Art",
					Difficulty:       "easy",
				}}, out.questions)
				assert.Equal(t, "amount=10&type=multiple", out.query)
			},
		},

		"should report an empty batch for response code 1": {
			status: http.StatusOK,
			body:   `{"response_code":1,"results":[]}`,
			assert: func(t *testing.T, out outputs) {
				require.ErrorIs(t, out.err, domain.ErrEmptyBatch)
				require.ErrorIs(t, out.err, domain.ErrFetchFailed)
			},
		},

		"should report an empty batch for zero results": {
			status: http.StatusOK,
			body:   `{"response_code":0,"results":[]}`,
			assert: func(t *testing.T, out outputs) {
				require.ErrorIs(t, out.err, domain.ErrEmptyBatch)
			},
		},

		"should fail on rate limiting": {
			status: http.StatusOK,
			body:   `{"response_code":5,"results":[]}`,
			assert: func(t *testing.T, out outputs) {
				require.ErrorIs(t, out.err, domain.ErrFetchFailed)
				require.NotErrorIs(t, out.err, domain.ErrEmptyBatch)
				assert.Contains(t, out.err.Error(), "rate limited")
			},
		},

		"should fail on malformed payload": {
			status: http.StatusOK,
			body:   `{"response_code":0,"results":[`,
			assert: func(t *testing.T, out outputs) {
				require.ErrorIs(t, out.err, domain.ErrFetchFailed)
			},
		},

		"should fail on a result without correct answer": {
			status: http.StatusOK,
			body:   `{"response_code":0,"results":[{"question":"?","correct_answer":"","incorrect_answers":["a","b","c"]}]}`,
			assert: func(t *testing.T, out outputs) {
				require.ErrorIs(t, out.err, domain.ErrFetchFailed)
			},
		},

		"should fail on server error": {
			status: http.StatusInternalServerError,
			body:   `oops`,
			assert: func(t *testing.T, out outputs) {
				require.ErrorIs(t, out.err, domain.ErrFetchFailed)
			},
		},
	}

	for name, tt := range tests {
		tt := tt
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			queries := make(chan string, 1)
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				queries <- r.URL.RawQuery
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			var out outputs
			c := NewClient(Config{BaseURL: srv.URL})
			out.questions, out.err = c.FetchBatch(context.Background(), 10)
			out.query = <-queries

			tt.assert(t, out)
		})
	}
}

func TestClient_FetchBatchOptions(t *testing.T) {
	queries := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		queries <- r.URL.RawQuery
		_, _ = w.Write([]byte(`{"response_code":1,"results":[]}`))
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL + "/", Category: 9, Difficulty: "hard"})
	_, err := c.FetchBatch(context.Background(), 5)
	require.ErrorIs(t, err, domain.ErrEmptyBatch)
	assert.Equal(t, "amount=5&category=9&difficulty=hard&type=multiple", <-queries)
}

func TestClient_FetchBatchNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewClient(Config{BaseURL: url}).FetchBatch(context.Background(), 10)
	require.True(t, errors.Is(err, domain.ErrFetchFailed), "got %v", err)

	_, err = NewClient(Config{BaseURL: url}).FetchBatch(context.Background(), 0)
	require.ErrorIs(t, err, domain.ErrFetchFailed)
}
