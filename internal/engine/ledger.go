package engine

import "sort"

// Ledger tracks the selected option and reveal state per question index.
// Unanswered indices have no entry at all. Once an index is revealed, its
// selection is locked for the rest of the session.
type Ledger struct {
	answers  map[int]string
	revealed map[int]struct{}
}

func NewLedger() *Ledger {
	return &Ledger{
		answers:  make(map[int]string),
		revealed: make(map[int]struct{}),
	}
}

// Select records or overwrites the chosen option for an index. It reports
// false, without recording anything, if the index is already revealed.
func (l *Ledger) Select(index int, option string) bool {
	if _, ok := l.revealed[index]; ok {
		return false
	}
	l.answers[index] = option
	return true
}

// Reveal marks an index revealed. Idempotent.
func (l *Ledger) Reveal(index int) {
	l.revealed[index] = struct{}{}
}

// RevealAll marks every index of a set of the given size revealed.
func (l *Ledger) RevealAll(total int) {
	for i := 0; i < total; i++ {
		l.revealed[i] = struct{}{}
	}
}

// Revealed reports whether the correct answer has been shown for an index.
func (l *Ledger) Revealed(index int) bool {
	_, ok := l.revealed[index]
	return ok
}

// Answer returns the recorded option for an index, if any.
func (l *Ledger) Answer(index int) (string, bool) {
	opt, ok := l.answers[index]
	return opt, ok
}

// AnsweredCount returns the number of answered indices.
func (l *Ledger) AnsweredCount() int {
	return len(l.answers)
}

// Answers returns a copy of the index-to-option mapping.
func (l *Ledger) Answers() map[int]string {
	snapshot := make(map[int]string, len(l.answers))
	for i, opt := range l.answers {
		snapshot[i] = opt
	}
	return snapshot
}

// RevealedIndices returns the revealed indices in ascending order.
func (l *Ledger) RevealedIndices() []int {
	indices := make([]int, 0, len(l.revealed))
	for i := range l.revealed {
		indices = append(indices, i)
	}
	sort.Ints(indices)
	return indices
}
