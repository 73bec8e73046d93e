package pager

// Reveal shows a local list in batches, growing as the cursor nears the end.
type Reveal struct {
	batch int
	shown int
}

// NewReveal shows the first batch.
func NewReveal(batch int) *Reveal {
	if batch < 1 {
		batch = 1
	}
	return &Reveal{batch: batch, shown: batch}
}

// Shown is the number of visible items out of total.
func (r *Reveal) Shown(total int) int {
	if r.shown > total {
		return total
	}
	return r.shown
}

// More reveals another batch if any items are hidden.
func (r *Reveal) More(total int) bool {
	if r.shown >= total {
		return false
	}
	r.shown += r.batch
	return true
}

// Reset goes back to the first batch.
func (r *Reveal) Reset() {
	r.shown = r.batch
}
