package http

import "encoding/json"

// Inbound message kinds form a closed set; anything else is answered with an
// error event rather than a runtime lookup miss.
const (
	msgCreateSession  = "create-session"
	msgRestartSession = "restart-session"
	msgJoin           = "join"
	msgStart          = "start"
	msgContinue       = "continue"
	msgSubmitWord     = "submit-word"
	msgSubmitAnswer   = "submit-answer"
	msgAdvance        = "advance"
)

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type createSessionPayload struct {
	QuizID string `json:"quizId"`
}

type restartSessionPayload struct {
	Identifier string `json:"identifier"`
}

type joinPayload struct {
	Code     string `json:"code"`
	Nickname string `json:"nickname"`
}

type codePayload struct {
	Code string `json:"code"`
}

type wordPayload struct {
	Code string `json:"code"`
	Word string `json:"word"`
}

type answerPayload struct {
	Code       string   `json:"code"`
	QuestionID string   `json:"questionId"`
	AnswerIDs  []string `json:"answerIds"`
}
