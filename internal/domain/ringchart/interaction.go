package ringchart

import "sync"

// PointerEvents delivers pointer activity over a chart surface.
// Each registration returns a function that detaches the handler.
type PointerEvents interface {
	OnPointerMove(fn func(Point)) (cancel func())
	OnPointerLeave(fn func()) (cancel func())
}

// Tooltip shows details for the hovered segment.
type Tooltip interface {
	Show(seg Segment, at Point)
	Hide()
}

// Unsubscribe detaches an interaction binding. Calling it more than once is safe.
type Unsubscribe func()

// Binding wires a chart to an event source, the surface it draws on and a tooltip.
type Binding struct {
	Events  PointerEvents
	Surface Surface
	Tooltip Tooltip // optional
}

// BindInteraction makes the chart react to pointer movement: the wedge under
// the pointer is highlighted and reported to the tooltip. Before a different
// wedge is highlighted the chart is fully re-rendered, so at most one wedge is
// ever popped out.
// PRE: b.Events and b.Surface are non-nil; Render has been called at least once
// POST: Handlers are attached until the returned Unsubscribe is called
func (c *Chart) BindInteraction(b Binding) Unsubscribe {
	h := &hoverState{chart: c, surface: b.Surface, tooltip: b.Tooltip}
	cancelMove := b.Events.OnPointerMove(h.move)
	cancelLeave := b.Events.OnPointerLeave(h.leave)

	var once sync.Once
	return func() {
		once.Do(func() {
			cancelMove()
			cancelLeave()
		})
	}
}

// hoverState tracks which segment is currently popped out.
type hoverState struct {
	chart   *Chart
	surface Surface
	tooltip Tooltip

	mu      sync.Mutex
	current string // category of the highlighted segment, empty when none
}

func (h *hoverState) move(p Point) {
	h.mu.Lock()
	defer h.mu.Unlock()

	seg, ok := h.chart.HitTest(p)
	if !ok {
		if h.current != "" {
			h.chart.Rerender(h.surface)
			h.current = ""
		}
		if h.tooltip != nil {
			h.tooltip.Hide()
		}
		return
	}

	if seg.Category != h.current {
		if h.current != "" {
			h.chart.Rerender(h.surface)
		}
		h.chart.Highlight(seg, h.surface)
		h.current = seg.Category
	}
	if h.tooltip != nil {
		h.tooltip.Show(seg, p)
	}
}

func (h *hoverState) leave() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.chart.Rerender(h.surface)
	h.current = ""
	if h.tooltip != nil {
		h.tooltip.Hide()
	}
}

// PointerFeed is a synchronous in-process PointerEvents source.
// Move and Leave dispatch to the registered handlers on the calling goroutine.
type PointerFeed struct {
	mu     sync.Mutex
	nextID int
	moves  map[int]func(Point)
	leaves map[int]func()
}

// NewPointerFeed creates an empty feed.
func NewPointerFeed() *PointerFeed {
	return &PointerFeed{
		moves:  make(map[int]func(Point)),
		leaves: make(map[int]func()),
	}
}

// OnPointerMove registers a move handler.
func (f *PointerFeed) OnPointerMove(fn func(Point)) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.nextID
	f.nextID++
	f.moves[id] = fn
	return func() {
		f.mu.Lock()
		delete(f.moves, id)
		f.mu.Unlock()
	}
}

// OnPointerLeave registers a leave handler.
func (f *PointerFeed) OnPointerLeave(fn func()) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.nextID
	f.nextID++
	f.leaves[id] = fn
	return func() {
		f.mu.Lock()
		delete(f.leaves, id)
		f.mu.Unlock()
	}
}

// Move dispatches a pointer move to every registered handler.
// PRE: p is in canvas-buffer coordinates
// POST: All move handlers have run
func (f *PointerFeed) Move(p Point) {
	f.mu.Lock()
	handlers := make([]func(Point), 0, len(f.moves))
	for _, fn := range f.moves {
		handlers = append(handlers, fn)
	}
	f.mu.Unlock()
	for _, fn := range handlers {
		fn(p)
	}
}

// Leave dispatches a pointer leave to every registered handler.
func (f *PointerFeed) Leave() {
	f.mu.Lock()
	handlers := make([]func(), 0, len(f.leaves))
	for _, fn := range f.leaves {
		handlers = append(handlers, fn)
	}
	f.mu.Unlock()
	for _, fn := range handlers {
		fn()
	}
}

// Handlers returns the number of attached move and leave handlers.
func (f *PointerFeed) Handlers() (moves, leaves int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.moves), len(f.leaves)
}
