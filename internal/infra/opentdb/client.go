// Package opentdb fetches question batches from the Open Trivia Database.
package opentdb

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"quiz-master/internal/domain"
)

const (
	DefaultBaseURL = "https://opentdb.com"
	defaultTimeout = 10 * time.Second
)

// Response codes documented by the API.
const (
	codeSuccess          = 0
	codeNoResults        = 1
	codeInvalidParameter = 2
	codeTokenNotFound    = 3
	codeTokenEmpty       = 4
	codeRateLimit        = 5
)

var codeText = map[int]string{
	codeInvalidParameter: "invalid parameter",
	codeTokenNotFound:    "session token not found",
	codeTokenEmpty:       "session token exhausted",
	codeRateLimit:        "rate limited",
}

type Config struct {
	BaseURL    string
	HTTPClient *http.Client
	Timeout    time.Duration
	// Type is the question type; the quiz needs "multiple".
	Type       string
	Category   int
	Difficulty string
}

type Client struct {
	baseURL    string
	http       *http.Client
	kind       string
	category   int
	difficulty string
}

func NewClient(c Config) *Client {
	cl := &Client{
		baseURL:    strings.TrimRight(c.BaseURL, "/"),
		http:       c.HTTPClient,
		kind:       c.Type,
		category:   c.Category,
		difficulty: c.Difficulty,
	}
	if cl.baseURL == "" {
		cl.baseURL = DefaultBaseURL
	}
	if cl.kind == "" {
		cl.kind = "multiple"
	}
	if cl.http == nil {
		timeout := c.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		cl.http = &http.Client{Timeout: timeout}
	}
	return cl
}

type apiResponse struct {
	ResponseCode int           `json:"response_code"`
	Results      []apiQuestion `json:"results"`
}

type apiQuestion struct {
	Category         string   `json:"category"`
	Type             string   `json:"type"`
	Difficulty       string   `json:"difficulty"`
	Question         string   `json:"question"`
	CorrectAnswer    string   `json:"correct_answer"`
	IncorrectAnswers []string `json:"incorrect_answers"`
}

// FetchBatch requests count questions. Markup in prompts and answers is kept verbatim.
func (c *Client) FetchBatch(ctx context.Context, count int) ([]domain.Question, error) {
	if count <= 0 {
		return nil, fmt.Errorf("%w: count must be positive, got %d", domain.ErrFetchFailed, count)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url(count), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %w", domain.ErrFetchFailed, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: unexpected status %d", domain.ErrFetchFailed, resp.StatusCode)
	}

	var body apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: decode response: %w", domain.ErrFetchFailed, err)
	}

	switch body.ResponseCode {
	case codeSuccess:
	case codeNoResults:
		return nil, domain.ErrEmptyBatch
	default:
		text, ok := codeText[body.ResponseCode]
		if !ok {
			text = "unknown response code"
		}
		return nil, fmt.Errorf("%w: %s (code %d)", domain.ErrFetchFailed, text, body.ResponseCode)
	}

	if len(body.Results) == 0 {
		return nil, domain.ErrEmptyBatch
	}

	questions := make([]domain.Question, 0, len(body.Results))
	for i, r := range body.Results {
		q, err := r.toDomain()
		if err != nil {
			return nil, fmt.Errorf("%w: result %d: %w", domain.ErrFetchFailed, i, err)
		}
		questions = append(questions, q)
	}
	return questions, nil
}

func (c *Client) url(count int) string {
	q := url.Values{}
	q.Set("amount", strconv.Itoa(count))
	q.Set("type", c.kind)
	if c.category > 0 {
		q.Set("category", strconv.Itoa(c.category))
	}
	if c.difficulty != "" {
		q.Set("difficulty", c.difficulty)
	}
	return c.baseURL + "/api.php?" + q.Encode()
}

func (r apiQuestion) toDomain() (domain.Question, error) {
	if r.Question == "" {
		return domain.Question{}, fmt.Errorf("missing question text")
	}
	if r.CorrectAnswer == "" {
		return domain.Question{}, fmt.Errorf("missing correct answer")
	}
	if len(r.IncorrectAnswers) == 0 {
		return domain.Question{}, fmt.Errorf("missing incorrect answers")
	}
	for _, a := range r.IncorrectAnswers {
		if a == "" {
			return domain.Question{}, fmt.Errorf("empty incorrect answer")
		}
	}
	return domain.Question{
		Prompt:           r.Question,
		CorrectAnswer:    r.CorrectAnswer,
		IncorrectAnswers: r.IncorrectAnswers,
		Category:         r.Category,
		Difficulty:       r.Difficulty,
	}, nil
}
