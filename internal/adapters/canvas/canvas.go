// Package canvas draws ring charts into PNG or SVG images with go-chart's renderers.
package canvas

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"society/internal/domain/ringchart"
)

// Output formats.
const (
	FormatPNG = "png"
	FormatSVG = "svg"
)

// ErrUnknownFormat is returned for formats other than png and svg.
var ErrUnknownFormat = errors.New("canvas format must be png or svg")

// Canvas is a ringchart.Surface backed by a go-chart renderer.
// Draw calls are kept as a display list and replayed on Save, so Clear really
// discards earlier drawing in both formats.
type Canvas struct {
	format     string
	width      int
	height     int
	background drawing.Color
	ops        []func(chart.Renderer)
}

var (
	_ ringchart.Surface = (*Canvas)(nil)
	_ ringchart.Clearer = (*Canvas)(nil)
)

// New creates a blank canvas painted with background.
// PRE: format is png or svg
// POST: Returns a canvas of width x height; non-positive sizes yield a surface the chart ignores
func New(format string, width, height int, background string) (*Canvas, error) {
	if format != FormatPNG && format != FormatSVG {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	c := &Canvas{format: format, width: width, height: height, background: Color(background)}
	c.Clear()
	return c, nil
}

// Color parses "#rrggbb" or "#rgb"; the leading hash is optional.
func Color(hex string) drawing.Color {
	return drawing.ColorFromHex(strings.TrimPrefix(hex, "#"))
}

// ContentType returns the MIME type Save writes.
func (c *Canvas) ContentType() string {
	if c.format == FormatSVG {
		return "image/svg+xml"
	}
	return "image/png"
}

// Size returns the pixel size of the canvas.
func (c *Canvas) Size() (int, int) { return c.width, c.height }

// Clear drops everything drawn so far and repaints the background.
func (c *Canvas) Clear() {
	w, h, bg := c.width, c.height, c.background
	c.ops = []func(chart.Renderer){func(r chart.Renderer) {
		r.SetFillColor(bg)
		r.MoveTo(0, 0)
		r.LineTo(w, 0)
		r.LineTo(w, h)
		r.LineTo(0, h)
		r.Close()
		r.Fill()
	}}
}

// FillWedge draws a filled sector with an outline.
// Sweeps wider than half a turn are split so no single SVG arc is ambiguous.
func (c *Canvas) FillWedge(w ringchart.Wedge) {
	fill, stroke := Color(w.Fill), Color(w.Stroke)
	c.ops = append(c.ops, func(r chart.Renderer) {
		r.SetFillColor(fill)
		r.SetStrokeColor(stroke)
		r.SetStrokeWidth(w.StrokeWidth)
		sector(r, w.Center, w.Radius, w.StartAngle, w.EndAngle)
		r.FillStroke()
	})
}

// FillDisc draws a filled circle without outline.
func (c *Canvas) FillDisc(d ringchart.Disc) {
	fill := Color(d.Fill)
	c.ops = append(c.ops, func(r chart.Renderer) {
		r.SetFillColor(fill)
		r.SetStrokeColor(fill)
		r.SetStrokeWidth(0)
		// two half discs; a single full-turn arc degenerates in SVG
		sector(r, d.Center, d.Radius, ringchart.StartAngle, ringchart.StartAngle+math.Pi)
		r.Fill()
		sector(r, d.Center, d.Radius, ringchart.StartAngle+math.Pi, ringchart.StartAngle+2*math.Pi)
		r.Fill()
	})
}

// FillLabel draws text centred on l.Center.
func (c *Canvas) FillLabel(l ringchart.Label) {
	color := Color(l.Color)
	c.ops = append(c.ops, func(r chart.Renderer) {
		r.SetFontColor(color)
		r.SetFontSize(l.FontSize)
		box := r.MeasureText(l.Text)
		x := int(math.Round(l.Center.X)) - box.Width()/2
		y := int(math.Round(l.Center.Y)) + box.Height()/2
		r.Text(l.Text, x, y)
	})
}

// Save replays the display list into a fresh renderer and encodes it to w.
// PRE: width and height are positive
// POST: w holds a complete PNG or SVG document
func (c *Canvas) Save(w io.Writer) error {
	if c.width <= 0 || c.height <= 0 {
		return fmt.Errorf("canvas size %dx%d is empty", c.width, c.height)
	}
	var provider chart.RendererProvider = chart.PNG
	if c.format == FormatSVG {
		provider = chart.SVG
	}
	r, err := provider(c.width, c.height)
	if err != nil {
		return fmt.Errorf("create %s renderer: %w", c.format, err)
	}
	font, err := chart.GetDefaultFont()
	if err != nil {
		return fmt.Errorf("load default font: %w", err)
	}
	r.SetFont(font)

	for _, op := range c.ops {
		op(r)
	}
	return r.Save(w)
}

// sector traces center -> arc -> center, splitting the arc into pieces of at most π.
func sector(r chart.Renderer, center ringchart.Point, radius, start, end float64) {
	cx, cy := int(math.Round(center.X)), int(math.Round(center.Y))
	r.MoveTo(cx, cy)
	for a := start; a < end; a += math.Pi {
		delta := math.Min(math.Pi, end-a)
		r.ArcTo(cx, cy, radius, radius, a, delta)
	}
	r.LineTo(cx, cy)
	r.Close()
}
