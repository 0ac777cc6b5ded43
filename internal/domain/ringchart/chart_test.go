package ringchart_test

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"society/internal/domain/ringchart"
)

const tolerance = 1e-9

var testColors = map[string]string{
	"books":    "#2980b9",
	"ebooks":   "#8e44ad",
	"projects": "#27ae60",
	"users":    "#e74c3c",
}

// recordingSurface captures draw calls for assertions.
type recordingSurface struct {
	width, height int
	wedges        []ringchart.Wedge
	discs         []ringchart.Disc
	labels        []ringchart.Label
}

// Size returns the configured surface size.
func (r *recordingSurface) Size() (int, int) { return r.width, r.height }

// FillWedge records a wedge.
func (r *recordingSurface) FillWedge(w ringchart.Wedge) { r.wedges = append(r.wedges, w) }

// FillDisc records a disc.
func (r *recordingSurface) FillDisc(d ringchart.Disc) { r.discs = append(r.discs, d) }

// FillLabel records a label.
func (r *recordingSurface) FillLabel(l ringchart.Label) { r.labels = append(r.labels, l) }

func (r *recordingSurface) reset() {
	r.wedges, r.discs, r.labels = nil, nil, nil
}

func newSurface() *recordingSurface {
	return &recordingSurface{width: 220, height: 220}
}

func mustDataset(t *testing.T, counts ...ringchart.CategoryCount) ringchart.Dataset {
	t.Helper()
	ds, err := ringchart.NewDataset(testColors, counts...)
	if err != nil {
		t.Fatalf("NewDataset: %v", err)
	}
	return ds
}

func pointAt(s ringchart.Segment, angle, dist float64) ringchart.Point {
	return ringchart.Point{
		X: s.Center.X + dist*math.Cos(angle),
		Y: s.Center.Y + dist*math.Sin(angle),
	}
}

// TestNewDataset_Validation covers the dataset invariants.
func TestNewDataset_Validation(t *testing.T) {
	tests := []struct {
		name    string
		counts  []ringchart.CategoryCount
		wantErr error
	}{
		{"valid", []ringchart.CategoryCount{{"books", 1}, {"users", 0}}, nil},
		{"negative count", []ringchart.CategoryCount{{"books", -1}}, ringchart.ErrNegativeCount},
		{"duplicate", []ringchart.CategoryCount{{"books", 1}, {"books", 2}}, ringchart.ErrDuplicateCategory},
		{"missing color", []ringchart.CategoryCount{{"posters", 1}}, ringchart.ErrMissingColor},
		{"empty name", []ringchart.CategoryCount{{"", 1}}, ringchart.ErrEmptyCategory},
		{"NaN count", []ringchart.CategoryCount{{"books", math.NaN()}}, ringchart.ErrInvalidCount},
		{"infinite count", []ringchart.CategoryCount{{"books", math.Inf(1)}, {"projects", 1}}, ringchart.ErrInvalidCount},
		{"total overflows", []ringchart.CategoryCount{{"books", 1e308}, {"projects", 1e308}}, ringchart.ErrInvalidCount},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ringchart.NewDataset(testColors, tt.counts...)
			if tt.wantErr == nil && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("err=%v, want %v", err, tt.wantErr)
			}
		})
	}
}

// TestRender_PartitionIsContiguous verifies wedges cover the full circle without gaps.
func TestRender_PartitionIsContiguous(t *testing.T) {
	ds := mustDataset(t,
		ringchart.CategoryCount{Category: "books", Count: 7},
		ringchart.CategoryCount{Category: "ebooks", Count: 3},
		ringchart.CategoryCount{Category: "projects", Count: 11},
		ringchart.CategoryCount{Category: "users", Count: 13},
	)
	chart := ringchart.New(ringchart.DefaultOptions())
	chart.Render(ds, newSurface())

	segs := chart.Segments()
	if len(segs) != 4 {
		t.Fatalf("segments=%d, want 4", len(segs))
	}
	sum := 0.0
	for i, s := range segs {
		sum += s.Sweep()
		if i > 0 && segs[i-1].EndAngle != s.StartAngle {
			t.Errorf("segment %d starts at %v, previous ends at %v", i, s.StartAngle, segs[i-1].EndAngle)
		}
	}
	if math.Abs(sum-2*math.Pi) > tolerance {
		t.Errorf("total sweep=%v, want 2π", sum)
	}
	if segs[0].StartAngle != -math.Pi/2 {
		t.Errorf("first start=%v, want -π/2", segs[0].StartAngle)
	}
	if math.Abs(segs[3].EndAngle-3*math.Pi/2) > tolerance {
		t.Errorf("last end=%v, want 3π/2", segs[3].EndAngle)
	}
}

// TestRender_Percentages verifies one-decimal rounding and that percentages add up to ~100.
func TestRender_Percentages(t *testing.T) {
	ds := mustDataset(t,
		ringchart.CategoryCount{Category: "books", Count: 1},
		ringchart.CategoryCount{Category: "ebooks", Count: 1},
		ringchart.CategoryCount{Category: "projects", Count: 1},
	)
	chart := ringchart.New(ringchart.DefaultOptions())
	chart.Render(ds, newSurface())

	sum := 0.0
	for _, s := range chart.Segments() {
		if s.Percentage != 33.3 {
			t.Errorf("%s percentage=%v, want 33.3", s.Category, s.Percentage)
		}
		want := math.Round(s.Value/ds.Total()*1000) / 10
		if s.Percentage != want {
			t.Errorf("%s percentage=%v, want %v", s.Category, s.Percentage, want)
		}
		sum += s.Percentage
	}
	if math.Abs(sum-100) > 0.15 {
		t.Errorf("percentage sum=%v, want ~100", sum)
	}
}

// TestRender_StableOrderSkipsZero verifies declared order is kept and zero categories are dropped.
func TestRender_StableOrderSkipsZero(t *testing.T) {
	ds := mustDataset(t,
		ringchart.CategoryCount{Category: "books", Count: 10},
		ringchart.CategoryCount{Category: "ebooks", Count: 0},
		ringchart.CategoryCount{Category: "projects", Count: 20},
		ringchart.CategoryCount{Category: "users", Count: 5},
	)
	surface := newSurface()
	chart := ringchart.New(ringchart.DefaultOptions())
	chart.Render(ds, surface)

	segs := chart.Segments()
	want := []string{"books", "projects", "users"}
	if len(segs) != len(want) {
		t.Fatalf("segments=%d, want %d", len(segs), len(want))
	}
	for i, s := range segs {
		if s.Category != want[i] {
			t.Errorf("segment %d=%s, want %s", i, s.Category, want[i])
		}
		if s.Color != testColors[s.Category] {
			t.Errorf("%s color=%s, want %s", s.Category, s.Color, testColors[s.Category])
		}
	}
	if segs[0].StartAngle != -math.Pi/2 {
		t.Errorf("books start=%v, want -π/2", segs[0].StartAngle)
	}
	if len(surface.wedges) != 3 {
		t.Errorf("wedges drawn=%d, want 3", len(surface.wedges))
	}
	for _, w := range surface.wedges {
		if w.StrokeWidth != 2 || w.Stroke != "#ffffff" {
			t.Errorf("wedge stroke=%s/%v, want #ffffff/2", w.Stroke, w.StrokeWidth)
		}
	}
}

// TestRender_EmptyStateIsIdempotent verifies a zero total draws the placeholder and clears the cache.
func TestRender_EmptyStateIsIdempotent(t *testing.T) {
	chart := ringchart.New(ringchart.DefaultOptions())
	surface := newSurface()

	chart.Render(mustDataset(t, ringchart.CategoryCount{Category: "books", Count: 4}), surface)
	if len(chart.Segments()) != 1 {
		t.Fatalf("expected one segment before emptying")
	}

	empty := mustDataset(t,
		ringchart.CategoryCount{Category: "books", Count: 0},
		ringchart.CategoryCount{Category: "users", Count: 0},
	)
	for i := 0; i < 3; i++ {
		surface.reset()
		chart.Render(empty, surface)
		if len(chart.Segments()) != 0 {
			t.Fatalf("render %d: segments=%d, want 0", i, len(chart.Segments()))
		}
		if len(surface.discs) != 1 || surface.discs[0].Fill != "#e0e0e0" {
			t.Fatalf("render %d: discs=%+v, want one empty disc", i, surface.discs)
		}
		if len(surface.labels) != 1 || surface.labels[0].Text != "No Data" {
			t.Fatalf("render %d: labels=%+v, want No Data", i, surface.labels)
		}
		if len(surface.wedges) != 0 {
			t.Fatalf("render %d: wedges=%d, want 0", i, len(surface.wedges))
		}
		if _, ok := chart.HitTest(ringchart.Point{X: 110, Y: 110}); ok {
			t.Fatalf("render %d: hit test should miss on empty chart", i)
		}
	}
}

// TestRender_ZeroSizeSurfaceIsNoop verifies degenerate surfaces leave everything untouched.
func TestRender_ZeroSizeSurfaceIsNoop(t *testing.T) {
	chart := ringchart.New(ringchart.DefaultOptions())
	ds := mustDataset(t, ringchart.CategoryCount{Category: "books", Count: 4})
	chart.Render(ds, newSurface())

	for _, s := range []*recordingSurface{{width: 0, height: 100}, {width: 100, height: 0}, {width: 8, height: 8}} {
		chart.Render(mustDataset(t, ringchart.CategoryCount{Category: "users", Count: 1}), s)
		if len(s.wedges)+len(s.discs)+len(s.labels) != 0 {
			t.Errorf("surface %dx%d was drawn on", s.width, s.height)
		}
	}
	chart.Render(ds, nil)

	segs := chart.Segments()
	if len(segs) != 1 || segs[0].Category != "books" {
		t.Fatalf("cache changed by no-op render: %+v", segs)
	}
}

// TestHitTest_MidpointHitsOwnSegment verifies every segment's midpoint resolves back to it.
func TestHitTest_MidpointHitsOwnSegment(t *testing.T) {
	ds := mustDataset(t,
		ringchart.CategoryCount{Category: "books", Count: 2},
		ringchart.CategoryCount{Category: "ebooks", Count: 9},
		ringchart.CategoryCount{Category: "projects", Count: 1},
		ringchart.CategoryCount{Category: "users", Count: 30},
	)
	chart := ringchart.New(ringchart.DefaultOptions())
	chart.Render(ds, newSurface())

	for _, s := range chart.Segments() {
		got, ok := chart.HitTest(pointAt(s, s.MidAngle(), s.Radius/2))
		if !ok {
			t.Errorf("%s: midpoint missed", s.Category)
			continue
		}
		if got.Category != s.Category {
			t.Errorf("%s: midpoint hit %s", s.Category, got.Category)
		}
	}
}

// TestHitTest_OutsideRadiusMisses verifies points beyond the disc never match.
func TestHitTest_OutsideRadiusMisses(t *testing.T) {
	ds := mustDataset(t,
		ringchart.CategoryCount{Category: "books", Count: 3},
		ringchart.CategoryCount{Category: "users", Count: 5},
	)
	chart := ringchart.New(ringchart.DefaultOptions())
	chart.Render(ds, newSurface())
	s := chart.Segments()[0]

	for deg := 0; deg < 360; deg += 15 {
		angle := float64(deg) * math.Pi / 180
		if got, ok := chart.HitTest(pointAt(s, angle, s.Radius+1)); ok {
			t.Errorf("angle %d°: unexpected hit on %s", deg, got.Category)
		}
	}
}

// TestHitTest_QuarterScenario checks the books/projects/users example layout.
func TestHitTest_QuarterScenario(t *testing.T) {
	ds := mustDataset(t,
		ringchart.CategoryCount{Category: "books", Count: 1},
		ringchart.CategoryCount{Category: "projects", Count: 1},
		ringchart.CategoryCount{Category: "users", Count: 2},
	)
	chart := ringchart.New(ringchart.DefaultOptions())
	chart.Render(ds, newSurface())
	segs := chart.Segments()

	want := []struct {
		category   string
		start, end float64
		pct        float64
	}{
		{"books", -math.Pi / 2, 0, 25},
		{"projects", 0, math.Pi / 2, 25},
		{"users", math.Pi / 2, 3 * math.Pi / 2, 50},
	}
	for i, w := range want {
		s := segs[i]
		if s.Category != w.category || math.Abs(s.StartAngle-w.start) > tolerance || math.Abs(s.EndAngle-w.end) > tolerance || s.Percentage != w.pct {
			t.Errorf("segment %d=%+v, want %s [%v,%v) %v%%", i, s, w.category, w.start, w.end, w.pct)
		}
	}

	got, ok := chart.HitTest(pointAt(segs[0], -math.Pi/4, segs[0].Radius/2))
	if !ok || got.Category != "books" {
		t.Fatalf("point at -π/4 hit %q (ok=%v), want books", got.Category, ok)
	}
	// 9 o'clock falls inside users, the segment that closes the circle.
	got, ok = chart.HitTest(pointAt(segs[0], math.Pi, segs[0].Radius/2))
	if !ok || got.Category != "users" {
		t.Fatalf("point at π hit %q (ok=%v), want users", got.Category, ok)
	}
}

// TestHitTest_SingleCategoryCoversDisc verifies a full-circle segment matches every angle.
func TestHitTest_SingleCategoryCoversDisc(t *testing.T) {
	ds := mustDataset(t,
		ringchart.CategoryCount{Category: "books", Count: 0},
		ringchart.CategoryCount{Category: "users", Count: 12},
	)
	chart := ringchart.New(ringchart.DefaultOptions())
	chart.Render(ds, newSurface())
	s := chart.Segments()[0]
	if s.Percentage != 100 {
		t.Fatalf("percentage=%v, want 100", s.Percentage)
	}
	for deg := 0; deg < 360; deg += 30 {
		angle := float64(deg) * math.Pi / 180
		if _, ok := chart.HitTest(pointAt(s, angle, s.Radius/3)); !ok {
			t.Errorf("angle %d°: expected hit", deg)
		}
	}
}

// TestHitTest_NaNPointMisses verifies points without a position never match, even a full circle.
func TestHitTest_NaNPointMisses(t *testing.T) {
	for _, counts := range [][]ringchart.CategoryCount{
		{{Category: "users", Count: 4}},
		{{Category: "books", Count: 1}, {Category: "users", Count: 3}},
	} {
		chart := ringchart.New(ringchart.DefaultOptions())
		chart.Render(mustDataset(t, counts...), newSurface())
		for _, p := range []ringchart.Point{
			{X: math.NaN(), Y: 100},
			{X: 100, Y: math.NaN()},
			{X: math.NaN(), Y: math.NaN()},
		} {
			if seg, ok := chart.HitTest(p); ok {
				t.Errorf("%d categories, point %v: hit %s", len(counts), p, seg.Category)
			}
		}
	}
}

// TestLayout_RandomDatasetsRoundTrip checks partition, percentages and hit-testing over seeded random data.
func TestLayout_RandomDatasetsRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(20261019))
	categories := []string{"books", "ebooks", "projects", "users"}

	for i := 0; i < 500; i++ {
		counts := make([]ringchart.CategoryCount, 0, len(categories))
		for _, c := range categories {
			n := 0.0
			if rng.Intn(4) > 0 {
				n = float64(1 + rng.Intn(1000))
			}
			counts = append(counts, ringchart.CategoryCount{Category: c, Count: n})
		}
		ds := mustDataset(t, counts...)
		chart := ringchart.New(ringchart.DefaultOptions())
		chart.Render(ds, newSurface())
		segs := chart.Segments()

		if ds.Total() == 0 {
			if len(segs) != 0 {
				t.Fatalf("dataset %d: %d segments for an empty dataset", i, len(segs))
			}
			continue
		}
		if len(segs) == 0 {
			t.Fatalf("dataset %d %v: no segments", i, counts)
		}

		prev := ringchart.StartAngle
		pctSum := 0.0
		for _, s := range segs {
			if math.Abs(s.StartAngle-prev) > tolerance {
				t.Fatalf("dataset %d %v: %s starts at %v, previous ended at %v", i, counts, s.Category, s.StartAngle, prev)
			}
			if s.Sweep() <= 0 {
				t.Fatalf("dataset %d %v: %s has sweep %v", i, counts, s.Category, s.Sweep())
			}
			prev = s.EndAngle
			pctSum += s.Percentage

			got, ok := chart.HitTest(pointAt(s, s.MidAngle(), s.Radius/2))
			if !ok || got.Category != s.Category {
				t.Fatalf("dataset %d %v: midpoint of %s hit %q (ok=%v)", i, counts, s.Category, got.Category, ok)
			}
			if _, ok := chart.HitTest(pointAt(s, s.MidAngle(), s.Radius+1)); ok {
				t.Fatalf("dataset %d %v: point beyond %s radius hit", i, counts, s.Category)
			}
		}
		if math.Abs(prev-(ringchart.StartAngle+2*math.Pi)) > tolerance {
			t.Fatalf("dataset %d %v: sweeps end at %v, want full turn", i, counts, prev)
		}
		if maxDrift := 0.05*float64(len(segs)) + tolerance; math.Abs(pctSum-100) > maxDrift {
			t.Fatalf("dataset %d %v: percentages sum to %v", i, counts, pctSum)
		}
	}
}

// TestHighlight_PopsOutWithoutTouchingCache verifies highlight only draws one larger wedge.
func TestHighlight_PopsOutWithoutTouchingCache(t *testing.T) {
	ds := mustDataset(t,
		ringchart.CategoryCount{Category: "books", Count: 1},
		ringchart.CategoryCount{Category: "users", Count: 1},
	)
	surface := newSurface()
	chart := ringchart.New(ringchart.DefaultOptions())
	chart.Render(ds, surface)
	before := chart.Segments()
	surface.reset()

	chart.Highlight(before[1], surface)

	if len(surface.wedges) != 1 {
		t.Fatalf("wedges=%d, want 1", len(surface.wedges))
	}
	w := surface.wedges[0]
	if w.Radius != before[1].Radius+5 || w.StrokeWidth != 3 || w.Fill != testColors["users"] {
		t.Errorf("highlight wedge=%+v", w)
	}
	after := chart.Segments()
	if len(after) != len(before) || after[1] != before[1] {
		t.Errorf("segment cache changed by highlight")
	}
}

// TestClientToBuffer_UndoesScaling verifies CSS scaling is removed from pointer positions.
func TestClientToBuffer_UndoesScaling(t *testing.T) {
	rect := ringchart.Rect{Left: 100, Top: 50, Width: 200, Height: 100}
	got := ringchart.ClientToBuffer(ringchart.Point{X: 150, Y: 75}, rect, 400, 200)
	if got.X != 100 || got.Y != 50 {
		t.Fatalf("got %+v, want {100 50}", got)
	}
	got = ringchart.ClientToBuffer(ringchart.Point{X: 110, Y: 60}, ringchart.Rect{Left: 100, Top: 50}, 400, 200)
	if got.X != 10 || got.Y != 10 {
		t.Fatalf("zero rect: got %+v, want {10 10}", got)
	}
}

type clearingSurface struct {
	*recordingSurface
	clears int
}

func (c *clearingSurface) Clear() {
	c.clears++
	c.reset()
}

// TestRender_ClearsSurfaceFirst verifies a re-render wipes the popped-out highlight.
func TestRender_ClearsSurfaceFirst(t *testing.T) {
	surface := &clearingSurface{recordingSurface: newSurface()}
	chart := ringchart.New(ringchart.DefaultOptions())
	chart.Render(mustDataset(t,
		ringchart.CategoryCount{Category: "books", Count: 1},
		ringchart.CategoryCount{Category: "users", Count: 1},
	), surface)

	chart.Highlight(chart.Segments()[0], surface)
	chart.Rerender(surface)

	if surface.clears != 2 {
		t.Errorf("clears = %d, want 2", surface.clears)
	}
	if len(surface.wedges) != 2 {
		t.Fatalf("wedges = %d, want 2 after clear", len(surface.wedges))
	}
	for _, w := range surface.wedges {
		if w.StrokeWidth != 2 {
			t.Errorf("stale highlight left on surface: %+v", w)
		}
	}
}
