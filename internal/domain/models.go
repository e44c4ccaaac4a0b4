package domain

import "sort"

// Phase is the discrete stage of a quiz session.
type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhaseLoading   Phase = "loading"
	PhaseAnswering Phase = "answering"
	PhaseFinished  Phase = "finished"
)

// Question models an MCQ question with exactly one correct answer.
// Prompt and answers may carry HTML markup/entities from the source.
type Question struct {
	Prompt           string   `json:"prompt"`
	CorrectAnswer    string   `json:"correctAnswer"`
	IncorrectAnswers []string `json:"incorrectAnswers"`
	Category         string   `json:"category,omitempty"`
	Difficulty       string   `json:"difficulty,omitempty"`
}

// Options returns every answer of the question in lexical order.
// The position of the correct answer is a function of the answer strings only.
func (q Question) Options() []string {
	opts := make([]string, 0, len(q.IncorrectAnswers)+1)
	opts = append(opts, q.IncorrectAnswers...)
	opts = append(opts, q.CorrectAnswer)
	sort.Strings(opts)
	return opts
}

// AnswerRecord is appended once per answered question and never mutated.
type AnswerRecord struct {
	QuestionPrompt string `json:"questionPrompt"`
	Selected       string `json:"selected"`
	Correct        string `json:"correct"`
	WasCorrect     bool   `json:"wasCorrect"`
}

// Player is the identity a session is played under.
type Player struct {
	DisplayName string `json:"displayName"`
	AvatarRef   string `json:"avatarRef"`
}

// LeaderboardEntry is a ranked historical result.
type LeaderboardEntry struct {
	Name          string `json:"name"`
	AvatarRef     string `json:"avatarRef"`
	Score         int    `json:"score"`
	TimeRemaining int    `json:"timeRemaining"`
	Date          string `json:"date"`
}

// Result summarizes a finished session.
type Result struct {
	Total    int `json:"total"`
	Answered int `json:"answered"`
	Correct  int `json:"correct"`
	Percent  int `json:"percent"`
}

// CurrentQuestion is the presentation view of the question being answered.
type CurrentQuestion struct {
	Index   int      `json:"index"`
	Prompt  string   `json:"prompt"`
	Options []string `json:"options"`
}

// State is a read-only view of a game, pushed to presentation layers.
type State struct {
	Phase            Phase              `json:"phase"`
	Player           *Player            `json:"player,omitempty"`
	Total            int                `json:"total"`
	CurrentIndex     int                `json:"currentIndex"`
	Score            int                `json:"score"`
	RemainingSeconds int                `json:"remainingSeconds"`
	Question         *CurrentQuestion   `json:"question,omitempty"`
	AnswerLog        []AnswerRecord     `json:"answerLog"`
	Result           *Result            `json:"result,omitempty"`
	Leaderboard      []LeaderboardEntry `json:"leaderboard"`
	Notice           string             `json:"notice,omitempty"`
}
