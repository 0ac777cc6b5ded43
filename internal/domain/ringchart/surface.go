package ringchart

// Surface is a 2D drawing target with a fixed pixel size.
// Angles are radians in screen coordinates: 0 points right and angles grow clockwise.
type Surface interface {
	Size() (width, height int)
	FillWedge(w Wedge)
	FillDisc(d Disc)
	FillLabel(l Label)
}

// Clearer is implemented by surfaces that can be wiped back to their background.
// Render clears such surfaces first so a previous highlight leaves no rim behind.
type Clearer interface {
	Clear()
}

// Wedge is a filled circular sector outlined with a stroke.
type Wedge struct {
	Center      Point
	Radius      float64
	StartAngle  float64
	EndAngle    float64
	Fill        string
	Stroke      string
	StrokeWidth float64
}

// Disc is a filled circle without outline.
type Disc struct {
	Center Point
	Radius float64
	Fill   string
}

// Label is a line of text centred on a point.
type Label struct {
	Center   Point
	Text     string
	Color    string
	FontSize float64
}
