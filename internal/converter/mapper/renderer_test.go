package mapper

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"svg2emblem/internal/converter/models"
	"svg2emblem/internal/converter/parser"
)

func samplePrimitives() []models.Primitive {
	return []models.Primitive{
		{Asset: models.AssetSquare, Left: 50, Top: 60, Width: 10, Height: 20, Angle: -30, Fill: "#ED1C24", Opacity: 0.5, Selectable: true},
		{Asset: models.AssetCircle, Left: 160, Top: 160, Width: 40, Height: 40, Fill: "navy", Opacity: 1, Selectable: true},
		{Asset: models.AssetTriangle, Left: 250, Top: 100, Width: 30, Height: 30, Angle: 90, Fill: "#0f0", Opacity: 1, Selectable: true},
	}
}

func TestRenderer_Render(t *testing.T) {
	out, err := NewRenderer().Render(samplePrimitives())
	require.NoError(t, err)

	assert.Contains(t, out, `transform="translate(50,60) rotate(-30) scale(5,10)"`)
	assert.Contains(t, out, `fill:#ed1c24;fill-opacity:0.5`)
	assert.Contains(t, out, `fill:#000080;fill-opacity:1`)
	assert.Contains(t, out, `fill:#00ff00;fill-opacity:1`)

	root, err := parser.ParseSVG(out)
	require.NoError(t, err)
	assert.Equal(t, "320", root.Attrs["width"])
	require.Len(t, root.Children, 3)

	var shapes []string
	for _, g := range root.Children {
		assert.Equal(t, models.KindGroup, g.Kind)
		require.Len(t, g.Children, 1)
		shapes = append(shapes, g.Children[0].Tag)
	}
	assert.Equal(t, []string{"rect", "ellipse", "polygon"}, shapes)
}

func TestRenderer_CanvasGrowsToFit(t *testing.T) {
	w, h := NewRenderer().canvasSize([]models.Primitive{
		{Asset: models.AssetSquare, Left: 400, Top: 10, Width: 60, Height: 80},
	})
	assert.Equal(t, 450, w)
	assert.Equal(t, CanvasSize, h)
}

func TestRenderer_RejectsBrokenGeometry(t *testing.T) {
	_, err := NewRenderer().Render([]models.Primitive{{Asset: models.AssetSquare, Width: math.NaN()}})
	assert.Error(t, err)

	err = NewRenderer().RenderPNG(&bytes.Buffer{}, []models.Primitive{{Asset: models.AssetSquare, Width: -1}})
	assert.Error(t, err)
}

func TestRenderer_RenderPNG(t *testing.T) {
	prims := []models.Primitive{
		{Asset: models.AssetSquare, Left: 100, Top: 100, Width: 50, Height: 50, Fill: "#ff0000", Opacity: 1},
		{Asset: models.AssetCircle, Left: 200, Top: 200, Width: 40, Height: 40, Fill: "blue", Opacity: 1},
	}

	var buf bytes.Buffer
	require.NoError(t, NewRenderer().RenderPNG(&buf, prims))

	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, CanvasSize, CanvasSize), img.Bounds())

	assertPixel(t, img, 100, 100, color.NRGBA{R: 0xff, A: 0xff})
	assertPixel(t, img, 200, 200, color.NRGBA{B: 0xff, A: 0xff})
	assertPixel(t, img, 5, 5, color.NRGBA{})
}

func TestRenderer_CanvasIsCapped(t *testing.T) {
	w, h := NewRenderer().canvasSize([]models.Primitive{
		{Asset: models.AssetStroke, Left: 5e8, Top: 5e8, Width: 1, Height: 1e9},
	})
	assert.Equal(t, MaxCanvasSize, w)
	assert.Equal(t, MaxCanvasSize, h)
}

func TestRenderer_RenderPNGClipsHugeShapes(t *testing.T) {
	prims := []models.Primitive{
		{Asset: models.AssetSquare, Left: 0, Top: 160, Width: 2e9, Height: 20, Fill: "#00ff00", Opacity: 1},
		{Asset: models.AssetCircle, Left: -5e8, Top: -5e8, Width: 10, Height: 10, Opacity: 1},
	}

	var buf bytes.Buffer
	require.NoError(t, NewRenderer().RenderPNG(&buf, prims))

	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, MaxCanvasSize, MaxCanvasSize), img.Bounds())

	assertPixel(t, img, 640, 160, color.NRGBA{G: 0xff, A: 0xff})
	assertPixel(t, img, 5, 160, color.NRGBA{G: 0xff, A: 0xff})
	assertPixel(t, img, 640, 10, color.NRGBA{})
}

func TestRenderer_RenderPNGRejectsNaNBeforeSizing(t *testing.T) {
	err := NewRenderer().RenderPNG(&bytes.Buffer{}, []models.Primitive{
		{Asset: models.AssetSquare, Left: 10, Top: 10, Width: math.NaN(), Height: 1},
	})
	assert.ErrorContains(t, err, "non-finite")
}

func TestClipToCanvas(t *testing.T) {
	square := []models.Point{{X: -10, Y: -10}, {X: 10, Y: -10}, {X: 10, Y: 10}, {X: -10, Y: 10}}

	got := clipToCanvas(square, 100, 100)
	require.Len(t, got, 4)
	for _, pt := range got {
		assert.True(t, pt.X >= 0 && pt.X <= 10, "x=%v", pt.X)
		assert.True(t, pt.Y >= 0 && pt.Y <= 10, "y=%v", pt.Y)
	}

	assert.Empty(t, clipToCanvas(square, -1, 100))

	inside := []models.Point{{X: 1, Y: 1}, {X: 5, Y: 1}, {X: 3, Y: 4}}
	assert.Equal(t, inside, clipToCanvas(inside, 10, 10))
}

func assertPixel(t *testing.T, img image.Image, x, y int, want color.NRGBA) {
	t.Helper()
	got := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
	assert.Equal(t, want, got, "pixel at %d,%d", x, y)
}

func TestOutline(t *testing.T) {
	pts := outline(models.Primitive{Asset: models.AssetSquare, Left: 10, Top: 10, Width: 4, Height: 2, Angle: 90})
	require.Len(t, pts, 4)
	// после поворота на четверть оборота бокс 2 в ширину и 4 в высоту
	assert.InDelta(t, 11, pts[0].X, 1e-9)
	assert.InDelta(t, 8, pts[0].Y, 1e-9)

	assert.Len(t, outline(models.Primitive{Asset: models.AssetCircle, Width: 1, Height: 1}), 48)
	assert.Len(t, outline(models.Primitive{Asset: models.AssetTriangle, Width: 1, Height: 1}), 3)
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		in   string
		want color.NRGBA
	}{
		{"#ED1C24", color.NRGBA{R: 0xed, G: 0x1c, B: 0x24, A: 0xff}},
		{"#0f0", color.NRGBA{G: 0xff, A: 0xff}},
		{" Red ", color.NRGBA{R: 0xff, A: 0xff}},
		{"#12345", color.NRGBA{A: 0xff}},
		{"#zzzzzz", color.NRGBA{A: 0xff}},
		{"url(#grad)", color.NRGBA{A: 0xff}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, parseColor(tt.in), tt.in)
	}
}
