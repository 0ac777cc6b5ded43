package web

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"society/internal/adapters/canvas"
	"society/internal/adapters/http/perf"
	"society/internal/adapters/spreadsheet"
	"society/internal/application/listutil"
	"society/internal/application/orchestrators"
	"society/internal/application/projections"
	"society/internal/domain/content"
	"society/internal/domain/digest"
	"society/internal/domain/ringchart"
)

// Chart buffer sizes accepted by the chart endpoints.
const (
	defaultChartSize = 320
	maxChartSize     = 2000
	exportChartSize  = 320
)

// segmentHeader names the hovered category on a chart replayed with hx/hy.
const segmentHeader = "X-Chart-Segment"

// segmentView is the legend and tooltip payload for one wedge.
type segmentView struct {
	Category   string  `json:"category"`
	Label      string  `json:"label"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
	Color      string  `json:"color"`
	StartAngle float64 `json:"start_angle"`
	EndAngle   float64 `json:"end_angle"`
}

func newSegmentView(s ringchart.Segment) segmentView {
	return segmentView{
		Category:   s.Category,
		Label:      content.Label(s.Category),
		Count:      int(s.Value),
		Percentage: s.Percentage,
		Color:      s.Color,
		StartAngle: s.StartAngle,
		EndAngle:   s.EndAngle,
	}
}

// hitResponse is returned by /api/dashboard/hit.
type hitResponse struct {
	Hit     bool         `json:"hit"`
	Segment *segmentView `json:"segment,omitempty"`
	X       float64      `json:"x"`
	Y       float64      `json:"y"`
}

// dashboardPageData feeds dashboard.html.
type dashboardPageData struct {
	Stats       projections.DashboardStats
	Segments    []segmentView
	ChartWidth  int
	ChartHeight int
	Recent      []digest.Record
	DigestTo    string
	Sent        bool
}

// categoryPageData feeds category.html.
type categoryPageData struct {
	Result   projections.GetCategoryItemsResult
	Color    string
	PrevPage int
	NextPage int
}

// handleDashboard renders the admin dashboard page.
// Route: GET /dashboard
func handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	ctx := r.Context()

	ds, err := projections.QueryGetDashboardDataset(ctx, datasetDeps())
	if err != nil {
		internalError(w, err)
		return
	}
	_, ch, err := drawChart(ds, canvas.FormatPNG, defaultChartSize, defaultChartSize)
	if err != nil {
		internalError(w, err)
		return
	}

	recent, err := stores.DigestStore.ListRecent(ctx, 5)
	if err != nil {
		internalError(w, err)
		return
	}

	data := dashboardPageData{
		Stats:       projections.StatsFromDataset(ds, time.Now()),
		ChartWidth:  defaultChartSize,
		ChartHeight: defaultChartSize,
		Recent:      recent,
		DigestTo:    strings.Join(digestRecipients, ", "),
		Sent:        r.URL.Query().Get("sent") == "1",
	}
	for _, s := range ch.Segments() {
		data.Segments = append(data.Segments, newSegmentView(s))
	}
	renderTemplate(w, r, "dashboard.html", data)
}

// handleDashboardCategory lists the items behind one wedge.
// Route: GET /dashboard/category?category=books&page=2
func handleDashboardCategory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	q := r.URL.Query()
	result, err := projections.QueryGetCategoryItems(r.Context(), projections.GetCategoryItemsQuery{
		Category: q.Get("category"),
		Page:     listutil.ParsePageParams(q),
	}, projections.GetCategoryItemsDeps{
		ContentStore: stores.ContentStore,
		MemberStore:  stores.MemberStore,
	})
	if errors.Is(err, content.ErrInvalidCategory) {
		http.Error(w, "unknown category", http.StatusNotFound)
		return
	}
	if err != nil {
		internalError(w, err)
		return
	}

	data := categoryPageData{Result: result, Color: content.CategoryColors[result.Category]}
	if result.Page.HasPrev() {
		data.PrevPage = result.Page.Page - 1
	}
	if result.Page.HasNext() {
		data.NextPage = result.Page.Page + 1
	}
	renderTemplate(w, r, "category.html", data)
}

// handleDashboardChart streams the ring chart as PNG or SVG.
// With hx and hy the pointer position is replayed so the hovered wedge comes back popped out.
// Route: GET /api/dashboard/chart?format=png&w=320&h=320&hx=200&hy=90
func handleDashboardChart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	q := r.URL.Query()
	format := q.Get("format")
	if format == "" {
		format = canvas.FormatPNG
	}
	width, height, err := chartSize(q, "w", "h")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	hover, hasHover, err := pointParam(q, "hx", "hy")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	ds, err := projections.QueryGetDashboardDataset(r.Context(), datasetDeps())
	if err != nil {
		internalError(w, err)
		return
	}

	start := time.Now()
	cv, ch, err := drawChart(ds, format, width, height)
	if errors.Is(err, canvas.ErrUnknownFormat) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err != nil {
		internalError(w, err)
		return
	}
	if hasHover {
		tip := &headerTooltip{header: w.Header()}
		feed := ringchart.NewPointerFeed()
		unbind := ch.BindInteraction(ringchart.Binding{Events: feed, Surface: cv, Tooltip: tip})
		feed.Move(hover)
		unbind()
	}

	var buf bytes.Buffer
	if err := cv.Save(&buf); err != nil {
		internalError(w, err)
		return
	}
	recordRender(format, width, height, start)

	w.Header().Set("Content-Type", cv.ContentType())
	w.Header().Set("Cache-Control", "no-store")
	w.Write(buf.Bytes())
}

// handleDashboardHit resolves a pointer position over the displayed chart to a wedge.
// x and y are relative to the image element; cw and ch are its displayed size and
// w and h the size of the chart buffer it shows.
// Route: GET /api/dashboard/hit?x=150&y=40&cw=160&ch=160&w=320&h=320
func handleDashboardHit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	q := r.URL.Query()
	client, ok, err := pointParam(q, "x", "y")
	if err != nil || !ok {
		http.Error(w, "x and y are required numbers", http.StatusBadRequest)
		return
	}
	width, height, err := chartSize(q, "w", "h")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	rect := ringchart.Rect{Width: float64(width), Height: float64(height)}
	if displayed, ok, err := pointParam(q, "cw", "ch"); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	} else if ok {
		if displayed.X <= 0 || displayed.Y <= 0 {
			http.Error(w, "cw and ch must be positive", http.StatusBadRequest)
			return
		}
		rect.Width, rect.Height = displayed.X, displayed.Y
	}

	ds, err := projections.QueryGetDashboardDataset(r.Context(), datasetDeps())
	if err != nil {
		internalError(w, err)
		return
	}
	_, ch, err := drawChart(ds, canvas.FormatPNG, width, height)
	if err != nil {
		internalError(w, err)
		return
	}

	p := ringchart.ClientToBuffer(client, rect, width, height)
	resp := hitResponse{X: p.X, Y: p.Y}
	if seg, ok := ch.HitTest(p); ok {
		v := newSegmentView(seg)
		resp.Hit = true
		resp.Segment = &v
	}
	writeJSON(w, resp)
}

// handleDashboardSegments returns the wedges in render order.
// Route: GET /api/dashboard/segments?w=320&h=320
func handleDashboardSegments(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	width, height, err := chartSize(r.URL.Query(), "w", "h")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	ds, err := projections.QueryGetDashboardDataset(r.Context(), datasetDeps())
	if err != nil {
		internalError(w, err)
		return
	}
	_, ch, err := drawChart(ds, canvas.FormatPNG, width, height)
	if err != nil {
		internalError(w, err)
		return
	}

	out := []segmentView{}
	for _, s := range ch.Segments() {
		out = append(out, newSegmentView(s))
	}
	writeJSON(w, map[string]any{
		"total":    int(ds.Total()),
		"segments": out,
	})
}

// handleDashboardExport downloads the dashboard statistics with the chart embedded.
// Route: GET /api/dashboard/export.xlsx
func handleDashboardExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	ds, err := projections.QueryGetDashboardDataset(r.Context(), datasetDeps())
	if err != nil {
		internalError(w, err)
		return
	}
	now := time.Now()

	start := time.Now()
	cv, _, err := drawChart(ds, canvas.FormatPNG, exportChartSize, exportChartSize)
	if err != nil {
		internalError(w, err)
		return
	}
	var png bytes.Buffer
	if err := cv.Save(&png); err != nil {
		internalError(w, err)
		return
	}
	recordRender(canvas.FormatPNG, exportChartSize, exportChartSize, start)

	var out bytes.Buffer
	if err := spreadsheet.WriteDashboardStats(&out, projections.StatsFromDataset(ds, now), png.Bytes()); err != nil {
		internalError(w, err)
		return
	}
	w.Header().Set("Content-Type", spreadsheet.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="dashboard-%s.xlsx"`, now.Format("2006-01-02")))
	w.Write(out.Bytes())
}

// handleDashboardDigest emails the dashboard summary now.
// Route: POST /dashboard/digest (form: to, subject)
func handleDashboardDigest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	if emailSender == nil {
		http.Error(w, "email is not configured", http.StatusServiceUnavailable)
		return
	}

	to := digestRecipients
	if v := strings.TrimSpace(r.FormValue("to")); v != "" {
		to = strings.Split(v, ",")
	}
	_, err := orchestrators.ExecuteSendDashboardDigest(r.Context(), orchestrators.SendDashboardDigestInput{
		Recipients: to,
		Subject:    strings.TrimSpace(r.FormValue("subject")),
		Trigger:    digest.TriggerManual,
	}, DigestDeps())
	if errors.Is(err, digest.ErrNoRecipients) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err != nil {
		internalError(w, err)
		return
	}
	http.Redirect(w, r, "/dashboard?sent=1", http.StatusSeeOther)
}

// handleAdminPerf returns aggregated request, query and render timings.
// Route: GET /api/admin/perf?minutes=60
func handleAdminPerf(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	if perfCollector == nil {
		http.Error(w, "perf collection disabled", http.StatusNotFound)
		return
	}
	minutes := 60
	if n, err := strconv.Atoi(r.URL.Query().Get("minutes")); err == nil && n > 0 && n <= 24*60 {
		minutes = n
	}
	since := time.Now().Add(-time.Duration(minutes) * time.Minute)
	writeJSON(w, perfCollector.Snapshot(since, 10))
}

// drawChart renders ds onto a fresh canvas with the dashboard styling.
func drawChart(ds ringchart.Dataset, format string, width, height int) (*canvas.Canvas, *ringchart.Chart, error) {
	opts := ringchart.DefaultOptions()
	cv, err := canvas.New(format, width, height, opts.Background)
	if err != nil {
		return nil, nil, err
	}
	ch := ringchart.New(opts)
	ch.Render(ds, cv)
	return cv, ch, nil
}

func recordRender(format string, width, height int, start time.Time) {
	if perfCollector == nil {
		return
	}
	perfCollector.Record(perf.Entry{
		Kind:       perf.KindRender,
		Path:       fmt.Sprintf("%s %dx%d", format, width, height),
		DurationMs: float64(time.Since(start).Microseconds()) / 1000.0,
		Timestamp:  start,
	})
}

// chartSize reads a buffer size; missing values fall back to defaultChartSize.
func chartSize(q url.Values, wKey, hKey string) (int, int, error) {
	size := func(key string) (int, error) {
		v := q.Get(key)
		if v == "" {
			return defaultChartSize, nil
		}
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > maxChartSize {
			return 0, fmt.Errorf("%s must be between 1 and %d", key, maxChartSize)
		}
		return n, nil
	}
	width, err := size(wKey)
	if err != nil {
		return 0, 0, err
	}
	height, err := size(hKey)
	if err != nil {
		return 0, 0, err
	}
	return width, height, nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// pointParam reads a coordinate pair. Both values must be present or both absent.
func pointParam(q url.Values, xKey, yKey string) (ringchart.Point, bool, error) {
	xs, ys := q.Get(xKey), q.Get(yKey)
	if xs == "" && ys == "" {
		return ringchart.Point{}, false, nil
	}
	x, errX := strconv.ParseFloat(xs, 64)
	y, errY := strconv.ParseFloat(ys, 64)
	if errX != nil || errY != nil || !finite(x) || !finite(y) {
		return ringchart.Point{}, false, fmt.Errorf("%s and %s must both be finite numbers", xKey, yKey)
	}
	return ringchart.Point{X: x, Y: y}, true, nil
}

// headerTooltip reports the hovered category in a response header.
type headerTooltip struct {
	header http.Header
}

func (t *headerTooltip) Show(seg ringchart.Segment, _ ringchart.Point) {
	t.header.Set(segmentHeader, seg.Category)
}

func (t *headerTooltip) Hide() {
	t.header.Del(segmentHeader)
}

var _ ringchart.Tooltip = (*headerTooltip)(nil)
