package mapper

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"svg2emblem/internal/converter/diag"
	"svg2emblem/internal/converter/models"
	"svg2emblem/internal/converter/parser"
)

// ============================================================
// Primitive Mapper
// ============================================================

var (
	ErrMissingAttribute = errors.New("missing or non-numeric attribute")
	ErrNoPoints         = errors.New("element produced no points")
	ErrTooFewPoints     = errors.New("polygon needs at least 3 points")
	ErrNegativeSize     = errors.New("negative size")
	ErrNonFinite        = errors.New("non-finite geometry")
)

const defaultFill = "#000000"

// mapElement превращает элемент в примитив. ok ложно для типов без
// примитива; err задан, если элемент некорректен.
func (c *Converter) mapElement(el *models.Element, log *diag.Log) (p models.Primitive, ok bool, err error) {
	switch el.Kind {
	case models.KindPath:
		p, err = c.mapPath(el, log)
	case models.KindLine:
		p, err = mapLine(el)
	case models.KindRect:
		p, err = mapRect(el, log)
	case models.KindEllipse:
		p, err = mapEllipse(el, log)
	case models.KindPolygon:
		p, err = c.mapPolygon(el, log)
	default:
		return models.Primitive{}, false, nil
	}
	if err == nil {
		err = checkFinite(p)
	}
	if err != nil {
		return models.Primitive{}, true, fmt.Errorf("%s: %w", el.Tag, err)
	}
	return p, true, nil
}

func (c *Converter) mapPath(el *models.Element, log *diag.Log) (models.Primitive, error) {
	log.Info("Processing path element.")

	d, _ := el.Attr("d")
	points, err := parser.ParsePath(d, parser.ParseTransform(el.Transform()), log)
	if err != nil {
		return models.Primitive{}, err
	}
	if len(points) == 0 {
		return models.Primitive{}, ErrNoPoints
	}

	p := c.outlinePrimitive(points)
	if math.Abs(p.Width/p.Height-1) <= c.opts.CircleTolerance {
		p.Asset = models.AssetCircle
	} else {
		p.Asset = models.AssetSquare
	}
	applyPaint(&p, el)
	return p, nil
}

func (c *Converter) mapPolygon(el *models.Element, log *diag.Log) (models.Primitive, error) {
	raw, ok := el.Attr("points")
	if !ok {
		return models.Primitive{}, fmt.Errorf("%w: points", ErrMissingAttribute)
	}
	points, err := parser.ParsePoints(raw)
	if err != nil {
		return models.Primitive{}, err
	}
	if len(points) < 3 {
		return models.Primitive{}, fmt.Errorf("%w, got %d", ErrTooFewPoints, len(points))
	}

	chain := parser.ParseTransform(el.Transform())
	parser.ReportUnsupported(chain, log)
	for i, pt := range points {
		points[i] = parser.ApplyTransform(pt, chain, nil)
	}

	p := c.outlinePrimitive(points)
	p.Asset = models.AssetTriangle
	applyPaint(&p, el)
	return p, nil
}

// mapLine превращает line в Stroke высотой с длину отрезка. Угол равен
// -sign(dx)*sign(dy)*asin(|dx|/length), у вертикальной линии он 0.
func mapLine(el *models.Element) (models.Primitive, error) {
	v, err := numbers(el, "x1", "y1", "x2", "y2")
	if err != nil {
		return models.Primitive{}, err
	}
	x1, y1, x2, y2 := v[0], v[1], v[2], v[3]
	dx, dy := x2-x1, y2-y1
	length := math.Hypot(dx, dy)

	width := 1.0
	if raw, ok := el.Attr("stroke-width"); ok {
		if w, ok := parser.ParseNumber(raw); ok {
			width = w
		}
	}
	if width < 0 {
		return models.Primitive{}, fmt.Errorf("%w: stroke-width=%s", ErrNegativeSize, formatFloat(width))
	}

	var angle float64
	if dx != 0 {
		angle = -sign(dx) * sign(dy) * asinDeg(math.Abs(dx)/length)
	}

	stroke, _ := el.Attr("stroke")
	return models.Primitive{
		Asset:      models.AssetStroke,
		Left:       (x1 + x2) / 2,
		Top:        (y1 + y2) / 2,
		Fill:       colorOrDefault(stroke),
		Width:      width,
		Height:     length,
		Angle:      angle,
		Opacity:    opacity(el),
		Selectable: true,
	}, nil
}

func mapRect(el *models.Element, log *diag.Log) (models.Primitive, error) {
	v, err := numbers(el, "x", "y", "width", "height")
	if err != nil {
		return models.Primitive{}, err
	}
	x, y, w, h := v[0], v[1], v[2], v[3]
	if w < 0 || h < 0 {
		return models.Primitive{}, fmt.Errorf("%w: %sx%s", ErrNegativeSize, formatFloat(w), formatFloat(h))
	}

	p := models.Primitive{
		Asset:  models.AssetSquare,
		Left:   x + w/2,
		Top:    y + h/2,
		Width:  w,
		Height: h,
		Angle:  transformAngle(el, log, func(a, c float64) float64 { return a }),
	}
	applyPaint(&p, el)
	return p, nil
}

// mapEllipse меняет оси местами: ширина ассета берётся из радиуса ry.
func mapEllipse(el *models.Element, log *diag.Log) (models.Primitive, error) {
	v, err := numbers(el, "cx", "cy", "rx", "ry")
	if err != nil {
		return models.Primitive{}, err
	}
	cx, cy, rx, ry := v[0], v[1], v[2], v[3]
	if rx < 0 || ry < 0 {
		return models.Primitive{}, fmt.Errorf("%w: rx=%s ry=%s", ErrNegativeSize, formatFloat(rx), formatFloat(ry))
	}

	p := models.Primitive{
		Asset:  models.AssetCircle,
		Left:   cx,
		Top:    cy,
		Width:  2 * ry,
		Height: 2 * rx,
		Angle:  transformAngle(el, log, func(a, c float64) float64 { return c }),
	}
	applyPaint(&p, el)
	return p, nil
}

// ============================================================
// Shared helpers
// ============================================================

// outlinePrimitive строит геометрию примитива по bounding box точек.
// Слишком большие боксы уменьшаются до MaxSize с сохранением пропорций,
// центр остаётся от исходного бокса.
func (c *Converter) outlinePrimitive(points []models.Point) models.Primitive {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, pt := range points {
		minX = math.Min(minX, pt.X)
		maxX = math.Max(maxX, pt.X)
		minY = math.Min(minY, pt.Y)
		maxY = math.Max(maxY, pt.Y)
	}

	width, height := maxX-minX, maxY-minY
	if largest := math.Max(width, height); largest > c.opts.MaxSize {
		k := c.opts.MaxSize / largest
		width *= k
		height *= k
	}

	return models.Primitive{
		Left:   minX + (maxX-minX)/2,
		Top:    minY + (maxY-minY)/2,
		Width:  width,
		Height: height,
		Angle:  headingAngle(points[0], points[len(points)-1]),
	}
}

// headingAngle - угол наклона от первой точки к последней с обратным знаком,
// 0 при одинаковом x.
func headingAngle(first, last models.Point) float64 {
	if first.X == last.X {
		return 0
	}
	return -math.Atan((last.Y-first.Y)/(last.X-first.X)) * 180 / math.Pi
}

// transformAngle вычисляет поворот rect или ellipse по transform. axis
// выбирает компоненту матрицы, которую сравниваем с осью x. О функциях без
// поворота сообщаем, угол они не меняют.
func transformAngle(el *models.Element, log *diag.Log, axis func(a, c float64) float64) float64 {
	var angle float64
	for _, op := range parser.ParseTransform(el.Transform()) {
		switch op.Func {
		case "matrix":
			if len(op.Args) != 6 || hasNaN(op.Args) {
				log.Warn("Ignoring malformed matrix transform on %s", el.Tag)
				continue
			}
			a, c, d := op.Args[0], op.Args[2], op.Args[3]
			angle = -sign(a) * sign(d) * acosDeg(math.Abs(axis(a, c)))
		case "rotate":
			if len(op.Args) == 0 || math.IsNaN(op.Args[0]) {
				log.Warn("Ignoring malformed rotate transform on %s", el.Tag)
				continue
			}
			angle = -op.Args[0]
		default:
			log.Warn("Unsupported transformation for %s angle: %s", el.Tag, op.Func)
		}
	}
	return angle
}

func applyPaint(p *models.Primitive, el *models.Element) {
	fill, _ := el.Attr("fill")
	p.Fill = colorOrDefault(fill)
	p.Opacity = opacity(el)
	p.Selectable = true
}

func colorOrDefault(v string) string {
	v = strings.TrimSpace(v)
	if v == "" || v == "none" {
		return defaultFill
	}
	return v
}

// opacity читает атрибут opacity: 1, если его нет или он не число, иначе
// значение в пределах [0, 1].
func opacity(el *models.Element) float64 {
	raw, ok := el.Attr("opacity")
	if !ok {
		return 1
	}
	v, ok := parser.ParseNumber(raw)
	if !ok {
		return 1
	}
	return math.Max(0, math.Min(1, v))
}

// numbers читает атрибуты как числа; ошибка на первом отсутствующем или
// нечисловом.
func numbers(el *models.Element, keys ...string) ([]float64, error) {
	out := make([]float64, len(keys))
	for i, key := range keys {
		raw, ok := el.Attr(key)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingAttribute, key)
		}
		v, ok := parser.ParseNumber(raw)
		if !ok {
			return nil, fmt.Errorf("%w: %s=%q", ErrMissingAttribute, key, raw)
		}
		out[i] = v
	}
	return out, nil
}

func sign(v float64) float64 {
	if v < 0 {
		return -1
	}
	return 1
}

func asinDeg(v float64) float64 {
	return math.Asin(math.Max(-1, math.Min(1, v))) * 180 / math.Pi
}

func acosDeg(v float64) float64 {
	return math.Acos(math.Max(-1, math.Min(1, v))) * 180 / math.Pi
}

// checkFinite отбрасывает примитивы с переполненной геометрией или после
// сломанного transform.
func checkFinite(p models.Primitive) error {
	fields := []struct {
		name string
		v    float64
	}{
		{"left", p.Left}, {"top", p.Top},
		{"width", p.Width}, {"height", p.Height},
		{"angle", p.Angle}, {"opacity", p.Opacity},
	}
	for _, f := range fields {
		if math.IsNaN(f.v) || math.IsInf(f.v, 0) {
			return fmt.Errorf("%w: %s=%s", ErrNonFinite, f.name, formatFloat(f.v))
		}
	}
	return nil
}

func hasNaN(vals []float64) bool {
	for _, v := range vals {
		if math.IsNaN(v) {
			return true
		}
	}
	return false
}
