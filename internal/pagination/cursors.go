package pagination

import "sync"

// Cursors remembers the current page per named view.
type Cursors struct {
	mu    sync.Mutex
	pages map[string]int
}

// NewCursors returns cursors with every view on page 1.
func NewCursors() *Cursors {
	return &Cursors{pages: map[string]int{}}
}

// Get returns the stored page for view, defaulting to 1.
func (c *Cursors) Get(view string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if p, ok := c.pages[view]; ok {
		return p
	}
	return 1
}

// Set stores page for view.
func (c *Cursors) Set(view string, page int) {
	if page < 1 {
		page = 1
	}
	c.mu.Lock()
	c.pages[view] = page
	c.mu.Unlock()
}

// Clamp pulls the stored page for view back inside the new range and returns it.
func (c *Cursors) Clamp(view string, total int) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	page, ok := c.pages[view]
	if !ok {
		page = 1
	}
	page = ClampPage(page, total, PageSize)
	c.pages[view] = page
	return page
}

// Reset moves view back to page 1, as a changed filter does.
func (c *Cursors) Reset(view string) {
	c.mu.Lock()
	delete(c.pages, view)
	c.mu.Unlock()
}
