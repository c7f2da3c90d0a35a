package game

import (
	"sort"
	"strings"

	"quizrush/internal/domain"
)

// wordBank accumulates anonymized word submissions during the wordcloud
// phase. It stores per-word totals and each player's contribution count
// (keyed by nickname, which survives reconnects), never raw submissions.
type wordBank struct {
	words    map[string]*wordEntry
	byPlayer map[string]int // nickname -> accepted words this match
	total    int
}

type wordEntry struct {
	text     string
	count    int
	byPlayer map[string]int
}

func newWordBank() *wordBank {
	return &wordBank{
		words:    make(map[string]*wordEntry),
		byPlayer: make(map[string]int),
	}
}

// WordResult acknowledges a word submission to the originating connection.
type WordResult struct {
	OK     bool                    `json:"ok"`
	Reason domain.WordRejectReason `json:"reason,omitempty"`
	Total  int                     `json:"total"`
}

// add normalizes and records one word from one player, enforcing the
// per-player cap and the denylist.
func (b *wordBank) add(nickname, raw string, limit int, denylist []string) WordResult {
	word := normalizeWord(raw)
	if word == "" {
		return WordResult{OK: false, Reason: domain.WordRejectInvalid, Total: b.total}
	}
	if b.byPlayer[nickname] >= limit {
		return WordResult{OK: false, Reason: domain.WordRejectLimitReached, Total: b.total}
	}
	for _, banned := range denylist {
		if word == normalizeWord(banned) {
			return WordResult{OK: false, Reason: domain.WordRejectProfane, Total: b.total}
		}
	}

	entry, ok := b.words[word]
	if !ok {
		entry = &wordEntry{text: word, byPlayer: make(map[string]int)}
		b.words[word] = entry
	}
	entry.count++
	entry.byPlayer[nickname]++
	b.byPlayer[nickname]++
	b.total++
	return WordResult{OK: true, Total: b.total}
}

// view produces the ranked word list. Weight maps relative frequency onto
// 1..5 buckets; the only guarantee is that a higher count never yields a
// lower weight.
func (b *wordBank) view() []domain.WordEntry {
	maxCount := 0
	for _, e := range b.words {
		if e.count > maxCount {
			maxCount = e.count
		}
	}

	entries := make([]domain.WordEntry, 0, len(b.words))
	for _, e := range b.words {
		entries = append(entries, domain.WordEntry{
			Text:   e.text,
			Count:  e.count,
			Weight: 1 + (e.count*4)/maxCount,
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Count != entries[j].Count {
			return entries[i].Count > entries[j].Count
		}
		return entries[i].Text < entries[j].Text
	})
	return entries
}

func normalizeWord(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}
