package mapper

import (
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"svg2emblem/internal/converter/models"
)

func convert(t *testing.T, markup string) Result {
	t.Helper()
	return New(DefaultOptions(), nil).ConvertWithReport(markup)
}

func single(t *testing.T, markup string) models.Primitive {
	t.Helper()
	res := convert(t, markup)
	require.Len(t, res.Primitives, 1, "log: %v", res.Log)
	return res.Primitives[0]
}

func TestConvert_LineFixture(t *testing.T) {
	p := single(t, `<svg><line x1="178.204" y1="166.592" x2="271.297" y2="251.77" stroke-width="10"/></svg>`)

	assert.Equal(t, models.AssetStroke, p.Asset)
	assert.InDelta(t, 224, p.Left, 1)
	assert.InDelta(t, 209, p.Top, 1)
	assert.Equal(t, 10.0, p.Width)
	assert.InDelta(t, 126.18, p.Height, 0.01)
	assert.InDelta(t, -47.54, p.Angle, 0.01)
	assert.Equal(t, "#000000", p.Fill)
	assert.Equal(t, 1.0, p.Opacity)
	assert.True(t, p.Selectable)
}

func TestConvert_EllipseFixture(t *testing.T) {
	res := convert(t, `<svg><ellipse cx="193.708" cy="119.802" rx="49.792" ry="68.958" fill="#ED1C24" opacity="0.47"
		transform="matrix(-0.5441 -0.839 0.839 -0.5441 198.5936 347.5117)"/></svg>`)
	require.Len(t, res.Primitives, 1)
	assert.Zero(t, res.Warnings)

	p := res.Primitives[0]
	assert.Equal(t, models.AssetCircle, p.Asset)
	assert.InDelta(t, 194, p.Left, 0.5)
	assert.InDelta(t, 120, p.Top, 0.5)
	assert.InDelta(t, 138, p.Width, 0.5)
	assert.InDelta(t, 100, p.Height, 0.5)
	assert.InDelta(t, -33, p.Angle, 0.1)
	assert.Equal(t, 0.47, p.Opacity)
	assert.Equal(t, "#ED1C24", p.Fill)
}

func TestConvert_PathWithoutDataIsDropped(t *testing.T) {
	res := convert(t, `<svg><path/></svg>`)
	assert.Empty(t, res.Primitives)
	assert.NotNil(t, res.Primitives)
	assert.GreaterOrEqual(t, res.Warnings, 1)
}

func TestConvert_UnreadableMarkup(t *testing.T) {
	for _, markup := range []string{"", "not svg at all", "<svg><rect", "<html/>"} {
		res := convert(t, markup)
		assert.Empty(t, res.Primitives, markup)
		assert.NotNil(t, res.Primitives, markup)
		assert.Equal(t, 1, res.Warnings, markup)
	}
}

func TestConvert_IsIdempotent(t *testing.T) {
	markup := `<svg>
  <g transform="translate(10 10)">
    <path d="M0 0 C10 20 30 20 40 0 S70 -20 80 0" fill="#123456"/>
    <polygon points="0,0 30,0 15,20"/>
  </g>
  <rect x="1" y="1" width="5" height="5" transform="rotate(15)"/>
</svg>`
	c := New(DefaultOptions(), nil)
	first := c.ConvertWithReport(markup)
	second := c.ConvertWithReport(markup)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("second conversion differs (-first +second):\n%s", diff)
	}
	assert.Len(t, first.Primitives, 3)
}

func TestConvert_PathBoundingBox(t *testing.T) {
	p := single(t, `<svg><path d="M10 10 L50 30 L20 80" fill="none"/></svg>`)

	assert.Equal(t, models.AssetSquare, p.Asset)
	assert.Equal(t, 40.0, p.Width)
	assert.Equal(t, 70.0, p.Height)
	assert.Equal(t, 30.0, p.Left)
	assert.Equal(t, 45.0, p.Top)
	assert.InDelta(t, -math.Atan(7)*180/math.Pi, p.Angle, 1e-9)
	assert.Equal(t, "#000000", p.Fill)
}

func TestConvert_PathClampKeepsCentreAndRatio(t *testing.T) {
	p := single(t, `<svg><path d="M0 0 L512 0 L512 200 Z"/></svg>`)

	assert.Equal(t, 256.0, p.Width)
	assert.InDelta(t, 100, p.Height, 1e-9)
	assert.Equal(t, 256.0, p.Left)
	assert.Equal(t, 100.0, p.Top)
	assert.Equal(t, 0.0, p.Angle)
}

func TestConvert_RoundPathIsCircle(t *testing.T) {
	p := single(t, `<svg><path d="M0 0 A10 10 0 0 1 20 0 A10 10 0 0 1 0 0" transform="translate(100 100)"/></svg>`)

	assert.Equal(t, models.AssetCircle, p.Asset)
	assert.InDelta(t, 20, p.Width, 1e-6)
	assert.InDelta(t, 20, p.Height, 1e-6)
	assert.InDelta(t, 110, p.Left, 1e-6)
	assert.InDelta(t, 100, p.Top, 1e-6)
}

func TestConvert_CircleTolerance(t *testing.T) {
	markup := `<svg><path d="M0 0 H12 V10 H0 Z"/></svg>`

	assert.Equal(t, models.AssetSquare, single(t, markup).Asset)

	res := New(Options{CircleTolerance: 0.25}, nil).ConvertWithReport(markup)
	require.Len(t, res.Primitives, 1)
	assert.Equal(t, models.AssetCircle, res.Primitives[0].Asset)
}

func TestConvert_LineAngleFollowsDirection(t *testing.T) {
	lines := [][4]float64{
		{0, 0, 10, 10},
		{10, 0, 0, 10},
		{0, 10, 10, 0},
		{3, 7, -20, -1},
		{0, 0, 30, 0},
	}
	for _, l := range lines {
		markup := fmt.Sprintf(`<svg><line x1="%v" y1="%v" x2="%v" y2="%v"/></svg>`, l[0], l[1], l[2], l[3])
		p := single(t, markup)

		dx, dy := l[2]-l[0], l[3]-l[1]
		rad := p.Angle * math.Pi / 180
		// (-sin, cos) угла параллелен отрезку
		cross := -math.Sin(rad)*dy - math.Cos(rad)*dx
		assert.InDelta(t, 0, cross, 1e-9, markup)
		assert.InDelta(t, math.Hypot(dx, dy), p.Height, 1e-9, markup)
	}
}

func TestConvert_VerticalAndDegenerateLines(t *testing.T) {
	p := single(t, `<svg><line x1="5" y1="0" x2="5" y2="10" stroke="red"/></svg>`)
	assert.Equal(t, 0.0, p.Angle)
	assert.Equal(t, "red", p.Fill)

	p = single(t, `<svg><line x1="5" y1="5" x2="5" y2="5"/></svg>`)
	assert.Equal(t, 0.0, p.Angle)
	assert.Equal(t, 0.0, p.Height)
}

func TestConvert_LineRequiresCoordinates(t *testing.T) {
	res := convert(t, `<svg><line x1="0" y1="0" x2="abc" y2="3"/><line x1="0" y1="0" x2="1"/></svg>`)
	assert.Empty(t, res.Primitives)
	assert.Equal(t, 2, res.Warnings)
}

func TestConvert_NonFiniteGeometryIsDropped(t *testing.T) {
	res := convert(t, `<svg>
		<rect x="0" y="0" width="4" height="4"/>
		<path d="M0 0 L10 10" transform="scale()"/>
		<path d="M0 0 L10 10" transform="rotate(a)"/>
		<rect x="1e400" y="0" width="4" height="4"/>
	</svg>`)

	require.Len(t, res.Primitives, 1, "log: %v", res.Log)
	assert.Equal(t, 2.0, res.Primitives[0].Left)
	assert.Contains(t, res.Log, "WARN: Failed to process item: path: non-finite geometry: left=NaN")
	assert.Equal(t, 3, countPrefix(res.Log, "WARN: Failed to process item: "))
}

func TestCheckFinite(t *testing.T) {
	assert.NoError(t, checkFinite(models.Primitive{Width: 1, Height: 1, Opacity: 1}))
	assert.ErrorIs(t, checkFinite(models.Primitive{Top: math.Inf(-1)}), ErrNonFinite)
	assert.ErrorIs(t, checkFinite(models.Primitive{Angle: math.NaN()}), ErrNonFinite)
}

func TestConvert_NegativeSizesAreDropped(t *testing.T) {
	for _, markup := range []string{
		`<svg><rect x="0" y="0" width="-10" height="4"/></svg>`,
		`<svg><rect x="0" y="0" width="10" height="-4"/></svg>`,
		`<svg><ellipse cx="0" cy="0" rx="-5" ry="3"/></svg>`,
		`<svg><ellipse cx="0" cy="0" rx="5" ry="-3"/></svg>`,
		`<svg><line x1="0" y1="0" x2="5" y2="5" stroke-width="-3"/></svg>`,
	} {
		res := convert(t, markup)
		assert.Empty(t, res.Primitives, markup)
		assert.Equal(t, 1, res.Warnings, markup)
		assert.Equal(t, 1, countPrefix(res.Log, "WARN: Failed to process item: "), markup)
	}

	p := single(t, `<svg><rect x="0" y="0" width="0" height="0"/></svg>`)
	assert.Zero(t, p.Width)
}

func countPrefix(lines []string, prefix string) int {
	n := 0
	for _, line := range lines {
		if strings.HasPrefix(line, prefix) {
			n++
		}
	}
	return n
}

func TestConvert_RectAngleFromTransform(t *testing.T) {
	p := single(t, `<svg><rect x="10" y="20" width="30" height="40" transform="rotate(30)"/></svg>`)
	assert.Equal(t, models.AssetSquare, p.Asset)
	assert.Equal(t, 25.0, p.Left)
	assert.Equal(t, 40.0, p.Top)
	assert.Equal(t, -30.0, p.Angle)

	for _, deg := range []float64{0, -15, -40, -89} {
		rad := deg * math.Pi / 180
		markup := fmt.Sprintf(`<svg><rect x="0" y="0" width="1" height="1" transform="matrix(%v,%v,%v,%v,0,0)"/></svg>`,
			math.Cos(rad), math.Sin(rad), -math.Sin(rad), math.Cos(rad))
		assert.InDelta(t, deg, single(t, markup).Angle, 1e-3, "rotation %v", deg)
	}
}

func TestConvert_RectUnsupportedAngleTransform(t *testing.T) {
	res := convert(t, `<svg><rect x="0" y="0" width="4" height="4" transform="rotate(10) translate(5 5)"/></svg>`)
	require.Len(t, res.Primitives, 1)
	assert.Equal(t, -10.0, res.Primitives[0].Angle)
	assert.Contains(t, res.Log, "WARN: Unsupported transformation for rect angle: translate")
}

func TestConvert_EllipseRotate(t *testing.T) {
	p := single(t, `<svg><ellipse cx="1" cy="2" rx="3" ry="4" transform="rotate(25)"/></svg>`)
	assert.Equal(t, -25.0, p.Angle)
	assert.Equal(t, 8.0, p.Width)
	assert.Equal(t, 6.0, p.Height)
}

func TestConvert_Polygon(t *testing.T) {
	p := single(t, `<svg><polygon points="0,0 10,0 5,10" fill="#00ff00" opacity="0.5"/></svg>`)
	assert.Equal(t, models.AssetTriangle, p.Asset)
	assert.Equal(t, 10.0, p.Width)
	assert.Equal(t, 10.0, p.Height)
	assert.Equal(t, 5.0, p.Left)
	assert.Equal(t, 5.0, p.Top)
	assert.InDelta(t, -math.Atan2(10, 5)*180/math.Pi, p.Angle, 1e-9)
	assert.Equal(t, 0.5, p.Opacity)

	p = single(t, `<svg><polygon points="0 0 10 0 10 10 0 10 0 5" transform="translate(10,10)"/></svg>`)
	assert.Equal(t, models.AssetTriangle, p.Asset)
	assert.Equal(t, 15.0, p.Left)
	assert.Equal(t, 15.0, p.Top)
}

func TestConvert_PolygonNeedsThreePoints(t *testing.T) {
	res := convert(t, `<svg><polygon points="0,0 10,0"/><polygon/></svg>`)
	assert.Empty(t, res.Primitives)
	assert.Equal(t, 2, res.Warnings)
}

func TestConvert_UseMatchesInlinedElement(t *testing.T) {
	used := convert(t, `<svg>
  <defs><rect id="r" x="1" y="2" width="10" height="20" fill="#0000ff"/></defs>
  <use href="#r" fill="#ff0000" opacity="0.3"/>
</svg>`)
	inlined := convert(t, `<svg><rect x="1" y="2" width="10" height="20" fill="#ff0000" opacity="0.3"/></svg>`)

	if diff := cmp.Diff(inlined.Primitives, used.Primitives); diff != "" {
		t.Errorf("use expansion differs from inlined rect (-inlined +use):\n%s", diff)
	}
}

func TestConvert_PaintDefaults(t *testing.T) {
	p := single(t, `<svg><rect x="0" y="0" width="1" height="1" fill="none" opacity="7"/></svg>`)
	assert.Equal(t, "#000000", p.Fill)
	assert.Equal(t, 1.0, p.Opacity)

	p = single(t, `<svg><rect x="0" y="0" width="1" height="1" opacity="-1"/></svg>`)
	assert.Equal(t, 0.0, p.Opacity)
}

func TestConvert_UnsupportedElementsSkipped(t *testing.T) {
	res := convert(t, `<svg><text>hello</text><circle r="3"/><rect x="0" y="0" width="1" height="1"/></svg>`)
	require.Len(t, res.Primitives, 1)
	assert.Contains(t, res.Log, "WARN: Skipped unsupported object text")
	assert.Contains(t, res.Log, "WARN: Skipped unsupported object circle")
}

func TestConvert_TooManyItemsWarnsWithoutTruncating(t *testing.T) {
	var b strings.Builder
	b.WriteString("<svg>")
	for i := 0; i < 41; i++ {
		fmt.Fprintf(&b, `<rect x="%d" y="0" width="2" height="2"/>`, i)
	}
	b.WriteString("</svg>")

	res := convert(t, b.String())
	assert.Len(t, res.Primitives, 41)
	assert.Equal(t, 1, res.Warnings)
	assert.Contains(t, res.Log, "WARN: Too many objects in the SVG. Max is 40, found 41")
	assert.Equal(t, "Conversion complete. Total items processed: 41", res.Log[len(res.Log)-1])
}

func TestConvert_LogsProgressToSink(t *testing.T) {
	var got []string
	c := New(DefaultOptions(), func(msg string) { got = append(got, msg) })

	prims := c.Convert(`<svg><g><rect x="0" y="0" width="1" height="1"/></g></svg>`)
	require.Len(t, prims, 1)

	require.NotEmpty(t, got)
	assert.Equal(t, "Parsing SVG text...", got[0])
	assert.Contains(t, got, "SVG parsed successfully.")
	assert.Contains(t, got, "Flattening group element.")
}

func TestConvert_RecoversFromPanics(t *testing.T) {
	calls := 0
	c := New(DefaultOptions(), func(string) {
		calls++
		if calls == 1 {
			panic("boom")
		}
	})

	res := c.ConvertWithReport(`<svg><rect x="0" y="0" width="1" height="1"/></svg>`)
	assert.Empty(t, res.Primitives)
	assert.NotNil(t, res.Primitives)
	assert.Contains(t, res.Log, "WARN: Conversion aborted: boom")
}
