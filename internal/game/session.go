package game

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"quizrush/internal/domain"
)

// palette is the fixed set of player colors, assigned round-robin at join
// time. The class names are consumed as-is by the presentation layer.
var palette = []string{"bg-accent-red", "bg-accent-blue", "bg-accent-green", "bg-accent-yellow"}

// Settings are process-wide policy knobs for live sessions.
type Settings struct {
	// TimeLimit is the question deadline used when a question carries none.
	TimeLimit time.Duration
	// HostGracePeriod bounds how long a session survives without its host.
	HostGracePeriod time.Duration
	// WordLimit caps accepted word-cloud submissions per player per match.
	WordLimit int
	// Denylist rejects matching word submissions as profane.
	Denylist []string
}

func (s Settings) withDefaults() Settings {
	if s.TimeLimit <= 0 {
		s.TimeLimit = defaultTimeLimit
	}
	if s.HostGracePeriod <= 0 {
		s.HostGracePeriod = 45 * time.Second
	}
	if s.WordLimit <= 0 {
		s.WordLimit = 5
	}
	return s
}

// Session is one live match: a host, a set of players, and the phase state
// machine. All mutation is serialized under mu; sessions are independent of
// each other. The quiz snapshot is read-only for the session's lifetime.
type Session struct {
	code      string
	quiz      domain.Quiz
	createdAt time.Time

	mu            sync.Mutex
	phase         domain.Phase
	current       int
	questionStart time.Time
	timeLimit     time.Duration
	answered      int
	players       map[string]*domain.Player // connection id -> player
	distribution  []domain.DistributionItem
	leaderboard   []domain.LeaderboardEntry
	final         *domain.FinalResults
	words         *wordBank
	hostConn      string
	hostGone      bool
	hostGoneAt    time.Time

	timer     deadline
	clock     func() time.Time
	broadcast Broadcaster
	logger    *zap.Logger
	settings  Settings
	onDestroy func(code string)
}

func newSession(code string, quiz domain.Quiz, b Broadcaster, logger *zap.Logger, settings Settings, onDestroy func(code string)) *Session {
	return &Session{
		code:      code,
		quiz:      quiz,
		createdAt: time.Now(),
		phase:     domain.PhaseLobby,
		players:   make(map[string]*domain.Player),
		words:     newWordBank(),
		clock:     time.Now,
		broadcast: b,
		logger:    logger,
		settings:  settings.withDefaults(),
		onDestroy: onDestroy,
	}
}

// Code returns the session's immutable join code.
func (s *Session) Code() string { return s.code }

// QuizID returns the id of the quiz snapshot the session was created from.
func (s *Session) QuizID() string { return s.quiz.ID }

// Phase returns the current phase.
func (s *Session) Phase() domain.Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// PlayerCount returns the number of players, connected or not.
func (s *Session) PlayerCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.players)
}

// View builds the host catch-up snapshot.
func (s *Session) View(reused, restarted bool) SessionView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SessionView{
		Code:           s.code,
		QuizID:         s.quiz.ID,
		Title:          s.quiz.Title,
		Phase:          s.phase,
		QuestionIndex:  s.current,
		TotalQuestions: len(s.quiz.Questions),
		PlayerCount:    len(s.players),
		Reused:         reused,
		Restarted:      restarted,
	}
}

// SetHost binds the most recent host connection, superseding any prior
// binding, and cancels a pending host-absence destruction. If a question is
// live, its deadline is re-armed with the remaining time so the grace timer
// never leaves a question without a deadline.
func (s *Session) SetHost(connID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.hostConn = connID
	if !s.hostGone {
		return
	}
	s.hostGone = false
	s.timer.Cancel()
	if s.phase == domain.PhaseQuestion {
		remaining := s.timeLimit - s.clock().Sub(s.questionStart)
		if remaining < 0 {
			remaining = 0
		}
		s.armQuestionDeadlineLocked(remaining)
	}
	s.logger.Info("host reconnected", zap.String("code", s.code))
}

// Join resolves the connection to an existing player by nickname (reconnect)
// or creates a new player. Once the match has advanced past the word cloud,
// only recognized nicknames may join. The joining connection is caught up
// with the current phase payload.
func (s *Session) Join(connID, nickname string) (*domain.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	nickname = strings.TrimSpace(nickname)
	if nickname == "" {
		nickname = "Player"
	}

	player := s.findByNicknameLocked(nickname)
	if player != nil && player.Connected && s.players[connID] != player {
		// A live connection owns its nickname; only a disconnected player
		// can be resumed. A second live "Alice" gets a suffix instead.
		player = nil
	}
	if player == nil && s.phase != domain.PhaseLobby && s.phase != domain.PhaseWordCloud {
		return nil, domain.ErrGameAlreadyStarted
	}

	if player != nil {
		for id, p := range s.players {
			if p == player {
				delete(s.players, id)
				break
			}
		}
		player.Connected = true
		s.players[connID] = player
	} else {
		player = &domain.Player{
			Nickname:  s.assignNicknameLocked(nickname),
			Color:     palette[len(s.players)%len(palette)],
			Connected: true,
		}
		s.players[connID] = player
	}

	s.broadcast.EmitToSession(s.code, EventPlayerJoined, PlayerJoined{
		Nickname:    player.Nickname,
		Color:       player.Color,
		PlayerCount: len(s.players),
	})
	s.broadcast.EmitToConnection(connID, EventWordCloudUpdate, s.wordCloudViewLocked())
	s.catchUpLocked(connID)
	return player, nil
}

// CatchUp replays the current phase payload to one connection. Used when a
// host re-opens an already running session.
func (s *Session) CatchUp(connID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.broadcast.EmitToConnection(connID, EventWordCloudUpdate, s.wordCloudViewLocked())
	s.catchUpLocked(connID)
}

func (s *Session) catchUpLocked(connID string) {
	switch s.phase {
	case domain.PhaseWordCloud:
		s.broadcast.EmitToConnection(connID, EventWordCloudStart, s.wordCloudViewLocked())
	case domain.PhaseQuestion:
		s.broadcast.EmitToConnection(connID, EventQuestionStarted, s.questionViewLocked())
	case domain.PhaseExplanation:
		s.broadcast.EmitToConnection(connID, EventExplanation, s.explanationViewLocked())
	case domain.PhaseResults:
		s.broadcast.EmitToConnection(connID, EventQuestionResults, QuestionResults{
			CorrectAnswerIDs: s.quiz.Questions[s.current].CorrectAnswerIDs(),
			Distribution:     s.distribution,
			Leaderboard:      s.leaderboard,
		})
	case domain.PhaseFinal:
		if s.final != nil {
			s.broadcast.EmitToConnection(connID, EventFinalResults, *s.final)
		}
	}
}

// StartWordCloud executes lobby -> wordcloud. Host only; a no-op without at
// least one connected player. Resets the word bank for the match.
func (s *Session) StartWordCloud(connID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if connID != s.hostConn || s.connectedCountLocked() == 0 {
		return
	}
	if !s.transitionLocked(domain.PhaseWordCloud) {
		return
	}
	s.words = newWordBank()
	s.broadcast.EmitToSession(s.code, EventWordCloudStart, s.wordCloudViewLocked())
}

// ContinueToQuestion executes wordcloud -> question and arms the deadline.
func (s *Session) ContinueToQuestion(connID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if connID != s.hostConn || s.phase != domain.PhaseWordCloud {
		return
	}
	s.startQuestionLocked()
}

func (s *Session) startQuestionLocked() {
	if !s.transitionLocked(domain.PhaseQuestion) {
		return
	}
	q := s.quiz.Questions[s.current]
	s.questionStart = s.clock()
	s.timeLimit = questionTimeLimit(q, s.settings.TimeLimit)
	s.answered = 0
	s.distribution = make([]domain.DistributionItem, 0, len(q.Answers))
	for _, a := range q.Answers {
		s.distribution = append(s.distribution, domain.DistributionItem{AnswerID: a.ID, Text: a.Text})
	}

	s.broadcast.EmitToSession(s.code, EventQuestionStarted, s.questionViewLocked())
	s.armQuestionDeadlineLocked(s.timeLimit)
}

func (s *Session) armQuestionDeadlineLocked(delay time.Duration) {
	idx := s.current
	s.timer.Arm(delay, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		// First writer wins: if all players already answered, the phase has
		// moved on and this firing is a no-op.
		if s.phase != domain.PhaseQuestion || s.current != idx {
			return
		}
		s.endQuestionLocked()
	})
}

// SubmitWord records one word-cloud submission and acknowledges it to the
// originating connection.
func (s *Session) SubmitWord(connID, word string) WordResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	player, ok := s.players[connID]
	if !ok {
		result := WordResult{OK: false, Reason: domain.WordRejectInvalid}
		s.broadcast.EmitToConnection(connID, EventWordAck, result)
		return result
	}
	if s.phase != domain.PhaseWordCloud {
		result := WordResult{OK: false, Reason: domain.WordRejectNotWordCloud}
		s.broadcast.EmitToConnection(connID, EventWordAck, result)
		return result
	}

	result := s.words.add(player.Nickname, word, s.settings.WordLimit, s.settings.Denylist)
	s.broadcast.EmitToConnection(connID, EventWordAck, result)
	if result.OK {
		s.broadcast.EmitToSession(s.code, EventWordCloudUpdate, s.wordCloudViewLocked())
	}
	return result
}

// SubmitAnswer evaluates one answer set for the active question. A second
// submission by the same player, a stale question id, or a submission
// outside the question phase all leave the session unchanged.
func (s *Session) SubmitAnswer(connID, questionID string, answerIDs []string) (AnswerFeedback, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != domain.PhaseQuestion {
		return AnswerFeedback{}, false
	}
	q := s.quiz.Questions[s.current]
	if q.ID != questionID {
		return AnswerFeedback{}, false
	}
	player, ok := s.players[connID]
	if !ok || player.HasAnswered(q.ID) {
		return AnswerFeedback{}, false
	}

	selected := filterSelection(q, answerIDs)
	correct := isExactMatch(q, selected)
	elapsed := s.clock().Sub(s.questionStart)
	score := scoreAnswer(q, correct, elapsed, s.timeLimit)

	player.Score += score
	player.Answers = append(player.Answers, domain.AnswerRecord{
		QuestionID: q.ID,
		AnswerIDs:  selected,
		Correct:    correct,
		Score:      score,
		Elapsed:    elapsed.Seconds(),
	})

	s.answered++
	for _, id := range selected {
		for i := range s.distribution {
			if s.distribution[i].AnswerID == id {
				s.distribution[i].Count++
			}
		}
	}

	feedback := AnswerFeedback{Correct: correct, Score: score, Rank: s.rankLocked(player.Nickname)}
	s.broadcast.EmitToConnection(connID, EventAnswerFeedback, feedback)
	s.broadcast.EmitToSession(s.code, EventAnswerReceived, AnswerProgress{
		AnsweredCount: s.answered,
		TotalPlayers:  s.connectedCountLocked(),
	})

	if connected := s.connectedCountLocked(); connected > 0 && s.answered >= connected {
		s.endQuestionLocked()
	}
	return feedback, true
}

// endQuestionLocked executes question -> explanation exactly once, whichever
// of {all answered, deadline fired} comes first.
func (s *Session) endQuestionLocked() {
	if !s.transitionLocked(domain.PhaseExplanation) {
		return
	}
	s.timer.Cancel()
	s.broadcast.EmitToSession(s.code, EventExplanation, s.explanationViewLocked())
	if s.hostGone {
		s.armHostAbsenceLocked()
	}
}

// Advance is the host's pacing control: explanation -> results, then
// results -> question while questions remain, or results -> final.
// Requests inconsistent with the current phase are silent no-ops so
// duplicate client retries stay harmless.
func (s *Session) Advance(connID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if connID != s.hostConn {
		return
	}

	switch s.phase {
	case domain.PhaseExplanation:
		if !s.transitionLocked(domain.PhaseResults) {
			return
		}
		denominator := s.connectedCountLocked()
		if denominator == 0 {
			denominator = 1
		}
		for i := range s.distribution {
			s.distribution[i].Percent = int(math.Round(float64(s.distribution[i].Count) / float64(denominator) * 100))
		}
		s.leaderboard = s.topLeaderboardLocked(5)
		s.broadcast.EmitToSession(s.code, EventQuestionResults, QuestionResults{
			CorrectAnswerIDs: s.quiz.Questions[s.current].CorrectAnswerIDs(),
			Distribution:     s.distribution,
			Leaderboard:      s.leaderboard,
		})
	case domain.PhaseResults:
		if s.current+1 < len(s.quiz.Questions) {
			s.current++
			s.startQuestionLocked()
			return
		}
		if !s.transitionLocked(domain.PhaseFinal) {
			return
		}
		s.final = &domain.FinalResults{
			Leaderboard: s.topLeaderboardLocked(len(s.players)),
			Stats:       s.statsLocked(),
		}
		s.broadcast.EmitToSession(s.code, EventFinalResults, *s.final)
	}
}

// Disconnect marks a disconnecting player or, for the host, arms the
// grace-period destruction. Returns whether the connection belonged to this
// session.
func (s *Session) Disconnect(connID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if connID == s.hostConn && s.hostConn != "" {
		s.hostGone = true
		s.hostGoneAt = s.clock()
		s.armHostAbsenceLocked()
		return true
	}

	if player, ok := s.players[connID]; ok {
		player.Connected = false
		return true
	}
	return false
}

// transitionLocked moves the session to target when the phase machine
// allows it; illegal requests leave the session untouched.
func (s *Session) transitionLocked(target domain.Phase) bool {
	if !s.phase.CanTransitionTo(target) {
		s.logger.Debug("ignoring illegal transition",
			zap.String("code", s.code),
			zap.String("from", s.phase.String()),
			zap.String("to", target.String()))
		return false
	}
	s.phase = target
	return true
}

// armHostAbsenceLocked schedules destruction unless the host returns. The
// grace window is measured from the disconnect, so re-arming after a
// question deadline fires keeps the original cutoff.
func (s *Session) armHostAbsenceLocked() {
	remaining := s.settings.HostGracePeriod - s.clock().Sub(s.hostGoneAt)
	if remaining < 0 {
		remaining = 0
	}
	s.timer.Arm(remaining, func() {
		s.mu.Lock()
		if !s.hostGone {
			s.mu.Unlock()
			return
		}
		s.mu.Unlock()
		s.logger.Info("host absent, destroying session", zap.String("code", s.code))
		s.broadcast.EmitToSession(s.code, EventError, ErrorPayload{Message: "session closed: host absent"})
		if s.onDestroy != nil {
			s.onDestroy(s.code)
		}
	})
}

// FinalResults returns the terminal stats once the match has ended.
func (s *Session) FinalResults() (domain.FinalResults, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.final == nil {
		return domain.FinalResults{}, domain.ErrResultsNotReady
	}
	return *s.final, nil
}

// Close cancels any pending deadline. Called by the registry on removal.
func (s *Session) Close() {
	s.timer.Cancel()
}

func (s *Session) findByNicknameLocked(nickname string) *domain.Player {
	for _, p := range s.players {
		if p.Nickname == nickname {
			return p
		}
	}
	return nil
}

// assignNicknameLocked de-duplicates a requested nickname with a numeric
// suffix: "Alice", "Alice 2", "Alice 3", ...
func (s *Session) assignNicknameLocked(nickname string) string {
	taken := make(map[string]bool, len(s.players))
	for _, p := range s.players {
		taken[p.Nickname] = true
	}
	if !taken[nickname] {
		return nickname
	}
	for counter := 2; ; counter++ {
		candidate := fmt.Sprintf("%s %d", nickname, counter)
		if !taken[candidate] {
			return candidate
		}
	}
}

func (s *Session) connectedCountLocked() int {
	count := 0
	for _, p := range s.players {
		if p.Connected {
			count++
		}
	}
	return count
}

func (s *Session) topLeaderboardLocked(n int) []domain.LeaderboardEntry {
	entries := make([]domain.LeaderboardEntry, 0, len(s.players))
	for _, p := range s.players {
		entries = append(entries, domain.LeaderboardEntry{Nickname: p.Nickname, Score: p.Score})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return entries[i].Nickname < entries[j].Nickname
	})
	if n < len(entries) {
		entries = entries[:n]
	}
	return entries
}

func (s *Session) rankLocked(nickname string) int {
	for i, entry := range s.topLeaderboardLocked(len(s.players)) {
		if entry.Nickname == nickname {
			return i + 1
		}
	}
	return 0
}

func (s *Session) statsLocked() []domain.PlayerStats {
	totalQuestions := len(s.quiz.Questions)
	if totalQuestions == 0 {
		totalQuestions = 1
	}
	stats := make([]domain.PlayerStats, 0, len(s.players))
	for _, p := range s.players {
		correct := 0
		var totalTime float64
		for _, a := range p.Answers {
			if a.Correct {
				correct++
			}
			totalTime += a.Elapsed
		}
		avg := 0.0
		if len(p.Answers) > 0 {
			avg = math.Round(totalTime/float64(len(p.Answers))*100) / 100
		}
		stats = append(stats, domain.PlayerStats{
			Nickname:        p.Nickname,
			Score:           p.Score,
			Accuracy:        int(math.Round(float64(correct) / float64(totalQuestions) * 100)),
			AvgResponseTime: avg,
		})
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Score != stats[j].Score {
			return stats[i].Score > stats[j].Score
		}
		return stats[i].Nickname < stats[j].Nickname
	})
	return stats
}

func (s *Session) wordCloudViewLocked() WordCloudView {
	return WordCloudView{Words: s.words.view(), Total: s.words.total}
}

func (s *Session) questionViewLocked() QuestionView {
	q := s.quiz.Questions[s.current]
	answers := make([]AnswerOption, 0, len(q.Answers))
	for _, a := range q.Answers {
		answers = append(answers, AnswerOption{ID: a.ID, Text: a.Text})
	}
	points := q.Points
	if points == 0 {
		points = defaultPoints
	}
	return QuestionView{
		Question: QuestionInfo{
			ID:        q.ID,
			Text:      q.Text,
			Hint:      q.Hint,
			Image:     q.Image,
			Points:    points,
			TimeLimit: int(s.timeLimit / time.Second),
			Index:     s.current,
			Total:     len(s.quiz.Questions),
		},
		Answers: answers,
		Index:   s.current,
		Total:   len(s.quiz.Questions),
	}
}

func (s *Session) explanationViewLocked() ExplanationView {
	q := s.quiz.Questions[s.current]
	var correct []string
	for _, a := range q.Answers {
		if a.Correct {
			correct = append(correct, a.Text)
		}
	}
	return ExplanationView{
		CorrectAnswers: correct,
		Hint:           q.Hint,
		Part1:          q.ExplanationPart1,
		Part2:          q.ExplanationPart2,
	}
}
