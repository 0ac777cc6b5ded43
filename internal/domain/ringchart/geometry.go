package ringchart

import "math"

const fullTurn = 2 * math.Pi

// StartAngle is 12 o'clock in screen coordinates.
const StartAngle = -math.Pi / 2

// sweepEpsilon absorbs float drift when a single segment spans the whole circle.
const sweepEpsilon = 1e-9

// Layout computes segments for a dataset without drawing anything.
// Categories keep their declared order; zero counts are skipped.
// PRE: ds has been validated
// POST: Segments are contiguous and cover [StartAngle, StartAngle+2π) exactly when total > 0;
// returns nil when total == 0
func Layout(ds Dataset, center Point, radius float64) []Segment {
	total := ds.Total()
	if total <= 0 {
		return nil
	}

	last := -1
	for i, c := range ds.Counts {
		if c.Count > 0 {
			last = i
		}
	}

	segments := make([]Segment, 0, len(ds.Counts))
	start := StartAngle
	for i, c := range ds.Counts {
		if c.Count <= 0 {
			continue
		}
		end := start + c.Count/total*fullTurn
		if i == last {
			end = StartAngle + fullTurn
		}
		segments = append(segments, Segment{
			Category:   c.Category,
			Value:      c.Count,
			Percentage: roundPercent(c.Count, total),
			StartAngle: start,
			EndAngle:   end,
			Color:      ds.Colors[c.Category],
			Center:     center,
			Radius:     radius,
		})
		start = end
	}
	return segments
}

// roundPercent returns value/total as a percentage rounded to one decimal.
func roundPercent(value, total float64) float64 {
	return math.Round(value/total*1000) / 10
}

// normalizeAngle shifts a screen angle so 12 o'clock is 0 and wraps it into [0, 2π).
func normalizeAngle(a float64) float64 {
	a = math.Mod(a+math.Pi/2, fullTurn)
	if a < 0 {
		a += fullTurn
	}
	if a >= fullTurn {
		a = 0
	}
	return a
}

// contains reports whether point p lies inside the segment's wedge.
func (s Segment) contains(p Point) bool {
	dx := p.X - s.Center.X
	dy := p.Y - s.Center.Y
	if math.IsNaN(dx) || math.IsNaN(dy) || math.Hypot(dx, dy) > s.Radius {
		return false
	}
	if s.Sweep() >= fullTurn-sweepEpsilon {
		return true
	}

	angle := normalizeAngle(math.Atan2(dy, dx))
	start := normalizeAngle(s.StartAngle)
	end := normalizeAngle(s.EndAngle)
	if start > end {
		return angle >= start || angle <= end
	}
	return angle >= start && angle <= end
}

// chartGeometry places the chart in the middle of a width x height surface.
func chartGeometry(width, height int, padding float64) (Point, float64) {
	center := Point{X: float64(width) / 2, Y: float64(height) / 2}
	radius := math.Min(float64(width), float64(height))/2 - padding
	return center, radius
}

// Rect is an on-screen rectangle in client (CSS) pixels.
type Rect struct {
	Left, Top, Width, Height float64
}

// ClientToBuffer converts a pointer position in client coordinates into
// canvas-buffer coordinates, undoing any CSS scaling of the element.
// PRE: rect is the element's bounding box in client coordinates
// POST: Returns the buffer position; a zero-size rect yields the offset within rect unscaled
func ClientToBuffer(client Point, rect Rect, bufferWidth, bufferHeight int) Point {
	x := client.X - rect.Left
	y := client.Y - rect.Top
	if rect.Width > 0 {
		x *= float64(bufferWidth) / rect.Width
	}
	if rect.Height > 0 {
		y *= float64(bufferHeight) / rect.Height
	}
	return Point{X: x, Y: y}
}
