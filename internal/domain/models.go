package domain

// Answer is one selectable option of a question.
type Answer struct {
	ID      string `json:"id"`
	Text    string `json:"text"`
	Correct bool   `json:"isCorrect"`
}

// Question models one quiz question. More than one answer may be correct;
// a submission scores only when it matches the correct set exactly.
type Question struct {
	ID               string   `json:"id"`
	Text             string   `json:"text"`
	Hint             string   `json:"hint"`
	ExplanationPart1 string   `json:"explanationPart1"`
	ExplanationPart2 string   `json:"explanationPart2"`
	Image            string   `json:"image"`
	TimeLimit        int      `json:"timeLimit"` // seconds, defaults to 20 if zero
	Points           int      `json:"points"`    // defaults to 1000 if zero
	Answers          []Answer `json:"answers"`
}

// CorrectAnswerIDs returns the ids of the answers flagged correct.
func (q Question) CorrectAnswerIDs() []string {
	var ids []string
	for _, a := range q.Answers {
		if a.Correct {
			ids = append(ids, a.ID)
		}
	}
	return ids
}

// Quiz is an immutable snapshot of quiz content. Sessions never mutate it.
type Quiz struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Questions []Question `json:"questions"`
}

// AnswerRecord is one entry of a player's append-only answer history.
type AnswerRecord struct {
	QuestionID string   `json:"questionId"`
	AnswerIDs  []string `json:"answerIds"`
	Correct    bool     `json:"correct"`
	Score      int      `json:"score"`
	Elapsed    float64  `json:"time"` // seconds from question start to submission
}

// Player is one identity within a session. Disconnected players are kept
// (marked, not removed) so score and nickname survive a reconnect.
type Player struct {
	Nickname  string
	Color     string
	Score     int
	Answers   []AnswerRecord
	Connected bool
}

// HasAnswered reports whether the player already answered the given question.
func (p *Player) HasAnswered(questionID string) bool {
	for _, a := range p.Answers {
		if a.QuestionID == questionID {
			return true
		}
	}
	return false
}

// LeaderboardEntry is a score snapshot for one player.
type LeaderboardEntry struct {
	Nickname string `json:"nickname"`
	Score    int    `json:"score"`
}

// PlayerStats is the per-player summary handed to the export collaborator.
type PlayerStats struct {
	Nickname        string  `json:"nickname"`
	Score           int     `json:"score"`
	Accuracy        int     `json:"accuracy"` // percent correct of total questions
	AvgResponseTime float64 `json:"avgResponseTime"`
}

// FinalResults is the terminal outcome of a match.
type FinalResults struct {
	Leaderboard []LeaderboardEntry `json:"leaderboard"`
	Stats       []PlayerStats      `json:"stats"`
}

// DistributionItem counts how many players selected one answer of the
// current question. Percent is filled when results are computed.
type DistributionItem struct {
	AnswerID string `json:"answerId"`
	Text     string `json:"text"`
	Count    int    `json:"count"`
	Percent  int    `json:"percent"`
}

// WordEntry is one ranked word of the word cloud view. Weight is a
// presentational magnitude; higher count always means higher weight.
type WordEntry struct {
	Text   string `json:"text"`
	Count  int    `json:"count"`
	Weight int    `json:"weight"`
}

// WordRejectReason explains why a word submission was refused.
type WordRejectReason string

const (
	WordRejectNotWordCloud WordRejectReason = "not_wordcloud"
	WordRejectLimitReached WordRejectReason = "limit_reached"
	WordRejectProfane      WordRejectReason = "profane"
	WordRejectInvalid      WordRejectReason = "invalid"
)
