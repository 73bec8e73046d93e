package pager

import "sync"

// Controller owns one Fixed and one Append pager over the same listing and
// keeps only the active mode's collection.
type Controller struct {
	mu     sync.Mutex
	mode   Mode
	fixed  *Fixed
	append *Append
}

// NewController starts in table mode.
func NewController(fetch FetchFunc, maxPages int) *Controller {
	return &Controller{
		mode:   ModeTable,
		fixed:  NewFixed(fetch, maxPages),
		append: NewAppend(fetch),
	}
}

// Mode returns the active mode.
func (c *Controller) Mode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// SetMode switches modes and discards the collection of the mode being left.
// It reports whether the mode changed.
func (c *Controller) SetMode(m Mode) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if m == c.mode {
		return false
	}
	if c.mode == ModeTable {
		c.fixed.Reset()
	} else {
		c.append.Reset()
	}
	c.mode = m
	return true
}

// Toggle flips between table and infinite mode.
func (c *Controller) Toggle() Mode {
	next := ModeInfinite
	if c.Mode() == ModeInfinite {
		next = ModeTable
	}
	c.SetMode(next)
	return next
}

// Fixed returns the table-mode pager.
func (c *Controller) Fixed() *Fixed { return c.fixed }

// Append returns the infinite-mode pager.
func (c *Controller) Append() *Append { return c.append }

// Reset discards both collections.
func (c *Controller) Reset() {
	c.fixed.Reset()
	c.append.Reset()
}
