package mapper

import (
	"bytes"
	"fmt"
	"image/color"
	"math"
	"strconv"
	"strings"

	svg "github.com/ajstarks/svgo"
	"golang.org/x/image/colornames"

	"svg2emblem/internal/converter/models"
)

// ============================================================
// Renderer
// ============================================================

// CanvasSize - сторона холста редактора эмблем. Превью растёт, чтобы
// примитив не обрезался, но не больше MaxCanvasSize; дальше всё обрезается.
const (
	CanvasSize    = 320
	MaxCanvasSize = 4 * CanvasSize
)

// Renderer рисует примитивы в превью так же, как редактор эмблем
// расставляет ассеты: центр в (left, top), поворот на angle.
type Renderer struct{}

func NewRenderer() *Renderer {
	return &Renderer{}
}

// Render собирает SVG из примитивов по порядку.
func (r *Renderer) Render(primitives []models.Primitive) (string, error) {
	if err := validPrimitives(primitives); err != nil {
		return "", err
	}
	width, height := r.canvasSize(primitives)

	var buf bytes.Buffer
	canvas := svg.New(&buf)
	canvas.Start(width, height, fmt.Sprintf(`viewBox="0 0 %d %d"`, width, height))

	for _, p := range primitives {
		// Фигуры рисуются единичного размера и масштабируются до бокса примитива.
		canvas.Gtransform(fmt.Sprintf("translate(%s,%s) rotate(%s) scale(%s,%s)",
			formatFloat(p.Left), formatFloat(p.Top), formatFloat(p.Angle),
			formatFloat(p.Width/2), formatFloat(p.Height/2)))

		style := paintStyle(p)
		switch p.Asset {
		case models.AssetCircle:
			canvas.Ellipse(0, 0, 1, 1, style)
		case models.AssetTriangle:
			canvas.Polygon([]int{0, 1, -1}, []int{-1, 1, 1}, style)
		default:
			canvas.Rect(-1, -1, 2, 2, style)
		}
		canvas.Gend()
	}

	canvas.End()
	return buf.String(), nil
}

// ============================================================
// Sizing & geometry
// ============================================================

func (r *Renderer) canvasSize(primitives []models.Primitive) (int, int) {
	maxX, maxY := float64(CanvasSize), float64(CanvasSize)
	for _, p := range primitives {
		// радиус круга, в который влезает повёрнутый бокс
		reach := math.Hypot(p.Width, p.Height) / 2
		maxX = math.Max(maxX, p.Left+reach)
		maxY = math.Max(maxY, p.Top+reach)
	}
	maxX = math.Min(maxX, MaxCanvasSize)
	maxY = math.Min(maxY, MaxCanvasSize)
	return int(math.Ceil(maxX)), int(math.Ceil(maxY))
}

// clipToCanvas обрезает выпуклый контур по прямоугольнику [0,w]x[0,h].
func clipToCanvas(points []models.Point, w, h float64) []models.Point {
	x := func(p models.Point) float64 { return p.X }
	y := func(p models.Point) float64 { return p.Y }

	points = clipEdge(points, x, 0, false)
	points = clipEdge(points, x, w, true)
	points = clipEdge(points, y, 0, false)
	return clipEdge(points, y, h, true)
}

// clipEdge оставляет часть замкнутого многоугольника по одну сторону от
// прямой, параллельной оси: coord(p) <= limit при below, иначе >= limit.
func clipEdge(points []models.Point, coord func(models.Point) float64, limit float64, below bool) []models.Point {
	inside := func(p models.Point) bool {
		if below {
			return coord(p) <= limit
		}
		return coord(p) >= limit
	}

	var out []models.Point
	for i, cur := range points {
		prev := points[(i+len(points)-1)%len(points)]
		if inside(cur) != inside(prev) {
			t := (limit - coord(prev)) / (coord(cur) - coord(prev))
			out = append(out, models.Point{
				X: prev.X + t*(cur.X-prev.X),
				Y: prev.Y + t*(cur.Y-prev.Y),
			})
		}
		if inside(cur) {
			out = append(out, cur)
		}
	}
	return out
}

// outline возвращает фигуру p как замкнутый многоугольник в координатах холста.
func outline(p models.Primitive) []models.Point {
	var unit []models.Point
	switch p.Asset {
	case models.AssetCircle:
		const segments = 48
		unit = make([]models.Point, segments)
		for i := range unit {
			a := 2 * math.Pi * float64(i) / segments
			unit[i] = models.Point{X: math.Cos(a), Y: math.Sin(a)}
		}
	case models.AssetTriangle:
		unit = []models.Point{{X: 0, Y: -1}, {X: 1, Y: 1}, {X: -1, Y: 1}}
	default:
		unit = []models.Point{{X: -1, Y: -1}, {X: 1, Y: -1}, {X: 1, Y: 1}, {X: -1, Y: 1}}
	}

	rad := p.Angle * math.Pi / 180
	sin, cos := math.Sin(rad), math.Cos(rad)
	halfW, halfH := p.Width/2, p.Height/2

	points := make([]models.Point, len(unit))
	for i, u := range unit {
		dx, dy := u.X*halfW, u.Y*halfH
		points[i] = models.Point{
			X: p.Left + dx*cos - dy*sin,
			Y: p.Top + dx*sin + dy*cos,
		}
	}
	return points
}

func validPrimitives(primitives []models.Primitive) error {
	for i, p := range primitives {
		if err := validPrimitive(p); err != nil {
			return fmt.Errorf("primitive %d: %w", i, err)
		}
	}
	return nil
}

func validPrimitive(p models.Primitive) error {
	for _, v := range []float64{p.Left, p.Top, p.Width, p.Height, p.Angle, p.Opacity} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("non-finite geometry")
		}
	}
	if p.Width < 0 || p.Height < 0 {
		return fmt.Errorf("negative size %sx%s", formatFloat(p.Width), formatFloat(p.Height))
	}
	return nil
}

// ============================================================
// Colours
// ============================================================

// parseColor понимает #rgb, #rrggbb и имена цветов SVG. Остальное - чёрный.
func parseColor(s string) color.NRGBA {
	black := color.NRGBA{A: 0xff}
	s = strings.ToLower(strings.TrimSpace(s))

	if c, ok := colornames.Map[s]; ok {
		return color.NRGBA{R: c.R, G: c.G, B: c.B, A: 0xff}
	}

	hex, ok := strings.CutPrefix(s, "#")
	if !ok {
		return black
	}
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return black
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return black
	}
	return color.NRGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}
}

func paintStyle(p models.Primitive) string {
	c := parseColor(p.Fill)
	return fmt.Sprintf("fill:#%02x%02x%02x;fill-opacity:%s", c.R, c.G, c.B, formatFloat(clamp(p.Opacity, 0, 1)))
}

// ============================================================
// Formatting helpers
// ============================================================

func clamp(val, min, max float64) float64 {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}

func formatFloat(val float64) string {
	return strconv.FormatFloat(val, 'f', -1, 64)
}
