package parser

import (
	"errors"
	"math"
	"regexp"
	"strings"

	"svg2emblem/internal/converter/diag"
	"svg2emblem/internal/converter/models"
)

// ============================================================
// Path Parser
// ============================================================

// CurveSteps задаёт число отрезков, на которые разбивается кривая или дуга;
// каждый сегмент даёт CurveSteps+1 точек.
const CurveSteps = 20

var (
	ErrNoPathData = errors.New("no path data")
	ErrNoCommands = errors.New("no path commands found")
)

// Команду начинает любая буква, кроме экспоненты; о неизвестных буквах
// сообщаем и пропускаем их.
var pathCommandRe = regexp.MustCompile(`([A-DF-Za-df-z])([^A-DF-Za-df-z]*)`)

// argCounts - размер группы аргументов для каждой команды.
var argCounts = map[byte]int{
	'M': 2, 'L': 2, 'T': 2,
	'H': 1, 'V': 1,
	'C': 6,
	'S': 4, 'Q': 4,
	'A': 7,
	'Z': 0,
}

type curveKind int

const (
	curveNone curveKind = iota
	curveCubic
	curveQuad
)

// pathState - состояние интерпретатора. Всё, кроме выданных точек, хранится
// в непреобразованных координатах.
type pathState struct {
	chain  models.TransformChain
	points []models.Point

	cur   models.Point
	start models.Point

	lastCtrl models.Point
	lastKind curveKind
}

// ParsePath парсит SVG path в список точек, пропуская каждую через chain.
// ErrNoPathData и ErrNoCommands возвращаются, когда интерпретировать нечего,
// в том числе если все команды неподдерживаемые. Путь, команды которого
// ничего не рисуют, даёт пустой срез без ошибки.
func ParsePath(d string, chain models.TransformChain, log *diag.Log) ([]models.Point, error) {
	if strings.TrimSpace(d) == "" {
		return nil, ErrNoPathData
	}

	matches := pathCommandRe.FindAllStringSubmatch(d, -1)
	if len(matches) == 0 {
		return nil, ErrNoCommands
	}

	ReportUnsupported(chain, log)
	s := &pathState{chain: chain}
	supported := false

	for _, match := range matches {
		letter := match[1][0]
		cmd := upper(letter)
		relative := letter != cmd

		size, ok := argCounts[cmd]
		if !ok {
			log.Warn("Unsupported path command: %c", letter)
			continue
		}
		supported = true

		if cmd == 'Z' {
			s.closePath()
			continue
		}

		args := scanNumbers(match[2])
		for i := 0; i+size <= len(args); i += size {
			group := args[i : i+size]
			if hasNaN(group) {
				continue
			}
			s.exec(cmd, relative, i == 0, group)
		}
	}

	if !supported {
		return nil, ErrNoCommands
	}
	return s.points, nil
}

func (s *pathState) exec(cmd byte, relative, first bool, a []float64) {
	var base models.Point
	if relative {
		base = s.cur
	}
	abs := func(x, y float64) models.Point {
		return models.Point{X: base.X + x, Y: base.Y + y}
	}

	switch cmd {
	case 'M':
		p := abs(a[0], a[1])
		// Пары после первой - неявные L.
		if first {
			s.start = p
		}
		s.lineTo(p)
		s.lastKind = curveNone

	case 'L':
		s.lineTo(abs(a[0], a[1]))
		s.lastKind = curveNone

	case 'H':
		x := a[0]
		if relative {
			x += s.cur.X
		}
		s.lineTo(models.Point{X: x, Y: s.cur.Y})
		s.lastKind = curveNone

	case 'V':
		y := a[0]
		if relative {
			y += s.cur.Y
		}
		s.lineTo(models.Point{X: s.cur.X, Y: y})
		s.lastKind = curveNone

	case 'C':
		s.cubicTo(abs(a[0], a[1]), abs(a[2], a[3]), abs(a[4], a[5]))

	case 'S':
		s.cubicTo(s.reflect(curveCubic), abs(a[0], a[1]), abs(a[2], a[3]))

	case 'Q':
		s.quadTo(abs(a[0], a[1]), abs(a[2], a[3]))

	case 'T':
		s.quadTo(s.reflect(curveQuad), abs(a[0], a[1]))

	case 'A':
		s.arcTo(a[0], a[1], a[2], a[3] != 0, a[4] != 0, abs(a[5], a[6]))
		s.lastKind = curveNone
	}
}

func (s *pathState) emit(p models.Point) {
	s.points = append(s.points, ApplyTransform(p, s.chain, nil))
}

func (s *pathState) lineTo(p models.Point) {
	s.emit(p)
	s.cur = p
}

func (s *pathState) closePath() {
	s.lastKind = curveNone
	if len(s.points) == 0 {
		return
	}
	s.emit(s.start)
	s.cur = s.start
}

// reflect возвращает неявную первую контрольную точку гладкой кривой:
// отражение предыдущей контрольной точки через текущую, если прошлый сегмент
// той же кривой, иначе саму текущую точку.
func (s *pathState) reflect(kind curveKind) models.Point {
	if s.lastKind != kind {
		return s.cur
	}
	return models.Point{
		X: 2*s.cur.X - s.lastCtrl.X,
		Y: 2*s.cur.Y - s.lastCtrl.Y,
	}
}

func (s *pathState) cubicTo(c1, c2, end models.Point) {
	p0 := s.cur
	for j := 0; j <= CurveSteps; j++ {
		t := float64(j) / CurveSteps
		mt := 1 - t
		s.emit(models.Point{
			X: mt*mt*mt*p0.X + 3*mt*mt*t*c1.X + 3*mt*t*t*c2.X + t*t*t*end.X,
			Y: mt*mt*mt*p0.Y + 3*mt*mt*t*c1.Y + 3*mt*t*t*c2.Y + t*t*t*end.Y,
		})
	}
	s.cur = end
	s.lastCtrl = c2
	s.lastKind = curveCubic
}

func (s *pathState) quadTo(c, end models.Point) {
	p0 := s.cur
	for j := 0; j <= CurveSteps; j++ {
		t := float64(j) / CurveSteps
		mt := 1 - t
		s.emit(models.Point{
			X: mt*mt*p0.X + 2*mt*t*c.X + t*t*end.X,
			Y: mt*mt*p0.Y + 2*mt*t*c.Y + t*t*end.Y,
		})
	}
	s.cur = end
	s.lastCtrl = c
	s.lastKind = curveQuad
}

// arcTo разбивает эллиптическую дугу на отрезки, переводя её из формы с
// конечными точками в форму с центром (SVG implementation notes).
func (s *pathState) arcTo(rx, ry, rotation float64, largeArc, sweep bool, end models.Point) {
	p0 := s.cur
	if p0 == end {
		return
	}
	rx, ry = math.Abs(rx), math.Abs(ry)
	if rx == 0 || ry == 0 {
		s.lineTo(end)
		return
	}

	phi := rotation * math.Pi / 180
	cosPhi, sinPhi := math.Cos(phi), math.Sin(phi)

	hx := (p0.X - end.X) / 2
	hy := (p0.Y - end.Y) / 2
	x1p := cosPhi*hx + sinPhi*hy
	y1p := -sinPhi*hx + cosPhi*hy

	// Слишком маленькие радиусы равномерно увеличиваем до хорды.
	lambda := (x1p*x1p)/(rx*rx) + (y1p*y1p)/(ry*ry)
	if lambda > 1 {
		rx *= math.Sqrt(lambda)
		ry *= math.Sqrt(lambda)
	}

	rx2, ry2 := rx*rx, ry*ry
	x1p2, y1p2 := x1p*x1p, y1p*y1p

	sign := 1.0
	if largeArc == sweep {
		sign = -1
	}
	radicand := (rx2*ry2 - rx2*y1p2 - ry2*x1p2) / (rx2*y1p2 + ry2*x1p2)
	coeff := sign * math.Sqrt(math.Max(0, radicand))

	cxp := coeff * (rx * y1p / ry)
	cyp := coeff * -(ry * x1p / rx)

	cx := cosPhi*cxp - sinPhi*cyp + (p0.X+end.X)/2
	cy := sinPhi*cxp + cosPhi*cyp + (p0.Y+end.Y)/2

	ux, uy := (x1p-cxp)/rx, (y1p-cyp)/ry
	vx, vy := (-x1p-cxp)/rx, (-y1p-cyp)/ry

	startSign := 1.0
	if uy < 0 {
		startSign = -1
	}
	start := startSign * acosDeg(ux/math.Hypot(ux, uy))

	extentSign := 1.0
	if ux*vy-uy*vx < 0 {
		extentSign = -1
	}
	extent := extentSign * acosDeg((ux*vx+uy*vy)/math.Sqrt((ux*ux+uy*uy)*(vx*vx+vy*vy)))

	if !sweep && extent > 0 {
		extent -= 360
	} else if sweep && extent < 0 {
		extent += 360
	}
	extent = math.Mod(extent, 360)
	start = math.Mod(start, 360)

	for j := 0; j <= CurveSteps; j++ {
		rad := (start + extent*float64(j)/CurveSteps) * math.Pi / 180
		cos, sin := math.Cos(rad), math.Sin(rad)
		s.emit(models.Point{
			X: cx + rx*cos*cosPhi - ry*sin*sinPhi,
			Y: cy + rx*cos*sinPhi + ry*sin*cosPhi,
		})
	}
	s.cur = end
}

// acosDeg - acos в градусах, аргумент ограничен [-1, 1].
func acosDeg(v float64) float64 {
	return math.Acos(math.Max(-1, math.Min(1, v))) * 180 / math.Pi
}

func upper(c byte) byte {
	if 'a' <= c && c <= 'z' {
		return c - ('a' - 'A')
	}
	return c
}

func hasNaN(vals []float64) bool {
	for _, v := range vals {
		if math.IsNaN(v) {
			return true
		}
	}
	return false
}
