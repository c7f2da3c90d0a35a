package game

import "quizrush/internal/domain"

// Broadcaster delivers outbound events. The engine never reaches into
// transport internals; the WS hub implements this.
type Broadcaster interface {
	EmitToSession(code, event string, payload any)
	EmitToConnection(connID, event string, payload any)
}

// Outbound event names.
const (
	EventSessionCreated  = "session-created"
	EventPlayerJoined    = "player-joined"
	EventWordCloudStart  = "wordcloud-started"
	EventWordCloudUpdate = "wordcloud-update"
	EventWordAck         = "word-ack"
	EventQuestionStarted = "question-started"
	EventAnswerReceived  = "answer-received"
	EventAnswerFeedback  = "answer-feedback"
	EventExplanation     = "explanation"
	EventQuestionResults = "question-results"
	EventFinalResults    = "final-results"
	EventError           = "error"
)

// SessionView is the host's catch-up snapshot, sent on create and reuse.
type SessionView struct {
	Code           string       `json:"code"`
	QuizID         string       `json:"quizId"`
	Title          string       `json:"title"`
	Phase          domain.Phase `json:"phase"`
	QuestionIndex  int          `json:"questionIndex"`
	TotalQuestions int          `json:"totalQuestions"`
	PlayerCount    int          `json:"playerCount"`
	Reused         bool         `json:"reused"`
	Restarted      bool         `json:"restarted,omitempty"`
}

// PlayerJoined announces a (re)joined player to the whole room.
type PlayerJoined struct {
	Nickname    string `json:"nickname"`
	Color       string `json:"color"`
	PlayerCount int    `json:"playerCount"`
}

// WordCloudView is the ranked, anonymized word cloud payload.
type WordCloudView struct {
	Words []domain.WordEntry `json:"words"`
	Total int                `json:"total"`
}

// QuestionView is the sanitized question payload; correctness flags are
// stripped before anything leaves the engine.
type QuestionView struct {
	Question QuestionInfo   `json:"question"`
	Answers  []AnswerOption `json:"answers"`
	Index    int            `json:"index"`
	Total    int            `json:"total"`
}

type QuestionInfo struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Hint      string `json:"hint"`
	Image     string `json:"image"`
	Points    int    `json:"points"`
	TimeLimit int    `json:"timeLimit"`
	Index     int    `json:"index"`
	Total     int    `json:"total"`
}

type AnswerOption struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// AnswerProgress reports running answered/total counts during a question.
type AnswerProgress struct {
	AnsweredCount int `json:"answeredCount"`
	TotalPlayers  int `json:"totalPlayers"`
}

// AnswerFeedback is the private result sent to the answering player.
type AnswerFeedback struct {
	Correct bool `json:"correct"`
	Score   int  `json:"score"`
	Rank    int  `json:"rank"`
}

// ExplanationView reveals the correct answers after a question closes.
type ExplanationView struct {
	CorrectAnswers []string `json:"correctAnswers"`
	Hint           string   `json:"hint"`
	Part1          string   `json:"part1"`
	Part2          string   `json:"part2"`
}

// QuestionResults carries the percent distribution and the top-5
// leaderboard snapshot computed at the explanation-to-results transition.
type QuestionResults struct {
	CorrectAnswerIDs []string                  `json:"correctAnswerIds"`
	Distribution     []domain.DistributionItem `json:"distribution"`
	Leaderboard      []domain.LeaderboardEntry `json:"leaderboard"`
}

// ErrorPayload is reported to the originating connection only.
type ErrorPayload struct {
	Message string `json:"message"`
}
