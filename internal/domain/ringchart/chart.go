package ringchart

import "sync"

// Options controls the presentation of a chart.
type Options struct {
	Padding              float64 // gap between the disc and the surface edge
	StrokeWidth          float64 // separator between wedges
	HighlightStrokeWidth float64
	HighlightDelta       float64 // how far a highlighted wedge pops out
	Background           string  // stroke colour used to separate wedges
	EmptyColor           string
	EmptyLabel           string
	LabelColor           string
	LabelFontSize        float64
}

// DefaultOptions returns the dashboard's chart styling.
func DefaultOptions() Options {
	return Options{
		Padding:              10,
		StrokeWidth:          2,
		HighlightStrokeWidth: 3,
		HighlightDelta:       5,
		Background:           "#ffffff",
		EmptyColor:           "#e0e0e0",
		EmptyLabel:           "No Data",
		LabelColor:           "#7f8c8d",
		LabelFontSize:        14,
	}
}

// Chart renders a dataset as proportional wedges and resolves points to wedges.
// The segment cache is replaced wholesale on every render.
type Chart struct {
	opts Options

	mu       sync.RWMutex
	segments []Segment
	dataset  Dataset
	rendered bool
}

// New creates a chart with the given options.
func New(opts Options) *Chart {
	return &Chart{opts: opts}
}

// Render draws the dataset onto the surface and refreshes the segment cache.
// PRE: ds has been validated
// POST: Surface shows the wedges (or the empty state); cache holds the new segments.
// A nil or zero-area surface is a no-op.
func (c *Chart) Render(ds Dataset, surface Surface) {
	if surface == nil {
		return
	}
	width, height := surface.Size()
	if width <= 0 || height <= 0 {
		return
	}
	center, radius := chartGeometry(width, height, c.opts.Padding)
	if radius <= 0 {
		return
	}

	if cl, ok := surface.(Clearer); ok {
		cl.Clear()
	}
	segments := Layout(ds, center, radius)
	if len(segments) == 0 {
		surface.FillDisc(Disc{Center: center, Radius: radius, Fill: c.opts.EmptyColor})
		surface.FillLabel(Label{
			Center:   center,
			Text:     c.opts.EmptyLabel,
			Color:    c.opts.LabelColor,
			FontSize: c.opts.LabelFontSize,
		})
	}
	for _, s := range segments {
		surface.FillWedge(Wedge{
			Center:      s.Center,
			Radius:      s.Radius,
			StartAngle:  s.StartAngle,
			EndAngle:    s.EndAngle,
			Fill:        s.Color,
			Stroke:      c.opts.Background,
			StrokeWidth: c.opts.StrokeWidth,
		})
	}

	c.mu.Lock()
	c.segments = segments
	c.dataset = ds
	c.rendered = true
	c.mu.Unlock()
}

// Rerender draws the most recently rendered dataset again.
// PRE: none
// POST: Same as Render with the last dataset; no-op if nothing was rendered yet
func (c *Chart) Rerender(surface Surface) {
	c.mu.RLock()
	ds, ok := c.dataset, c.rendered
	c.mu.RUnlock()
	if ok {
		c.Render(ds, surface)
	}
}

// HitTest returns the cached segment under p.
// PRE: p is in canvas-buffer coordinates
// POST: Returns the first matching segment in cache order, or false if none matches
func (c *Chart) HitTest(p Point) (Segment, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, s := range c.segments {
		if s.contains(p) {
			return s, true
		}
	}
	return Segment{}, false
}

// Highlight redraws one segment popped out with a thicker outline.
// Other wedges and the cache are left untouched; a full Render restores the normal state.
// PRE: seg came from this chart's cache
// POST: Surface shows seg at Radius+HighlightDelta
func (c *Chart) Highlight(seg Segment, surface Surface) {
	if surface == nil {
		return
	}
	if width, height := surface.Size(); width <= 0 || height <= 0 {
		return
	}
	surface.FillWedge(Wedge{
		Center:      seg.Center,
		Radius:      seg.Radius + c.opts.HighlightDelta,
		StartAngle:  seg.StartAngle,
		EndAngle:    seg.EndAngle,
		Fill:        seg.Color,
		Stroke:      c.opts.Background,
		StrokeWidth: c.opts.HighlightStrokeWidth,
	})
}

// Segments returns a copy of the segment cache in render order.
func (c *Chart) Segments() []Segment {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Segment, len(c.segments))
	copy(out, c.segments)
	return out
}
