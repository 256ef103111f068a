package parser

import (
	"math"
	"regexp"

	"svg2emblem/internal/converter/diag"
	"svg2emblem/internal/converter/models"
)

// ============================================================
// Transform Engine
// ============================================================

var transformCallRe = regexp.MustCompile(`([A-Za-z]+)\s*\(([^()]*)\)`)

// ParseTransform разбивает атрибут transform на вызовы функций по порядку.
// Аргументы разделяются пробелами и/или запятыми. Неизвестные функции
// сохраняются, о них сообщает ApplyTransform.
func ParseTransform(raw string) models.TransformChain {
	matches := transformCallRe.FindAllStringSubmatch(raw, -1)
	if len(matches) == 0 {
		return nil
	}

	chain := make(models.TransformChain, 0, len(matches))
	for _, m := range matches {
		chain = append(chain, models.TransformOp{
			Func: m[1],
			Args: scanNumbers(m[2]),
		})
	}
	return chain
}

// ApplyTransform применяет chain к p, начиная с первого вызова.
func ApplyTransform(p models.Point, chain models.TransformChain, log *diag.Log) models.Point {
	x, y := p.X, p.Y

	for _, op := range chain {
		args := op.Args
		switch op.Func {
		case "translate":
			x += argOr(args, 0, 0)
			y += argOr(args, 1, 0)

		case "scale":
			sx := argOr(args, 0, math.NaN())
			x *= sx
			y *= argOr(args, 1, sx)

		case "rotate":
			rad := argOr(args, 0, math.NaN()) * math.Pi / 180
			cos, sin := math.Cos(rad), math.Sin(rad)
			x, y = x*cos-y*sin, x*sin+y*cos

			// Форма с центром поворачивает ещё раз вокруг (cx, cy) поверх
			// поворота вокруг начала координат.
			if len(args) == 3 {
				cx, cy := args[1], args[2]
				x -= cx
				y -= cy
				x, y = x*cos-y*sin+cx, x*sin+y*cos+cy
			}

		case "matrix":
			if len(args) == 6 {
				a, b, c, d, e, f := args[0], args[1], args[2], args[3], args[4], args[5]
				x, y = a*x+c*y+e, b*x+d*y+f
			}

		case "skewX":
			x += math.Tan(argOr(args, 0, math.NaN())*math.Pi/180) * y

		case "skewY":
			y += math.Tan(argOr(args, 0, math.NaN())*math.Pi/180) * x

		default:
			log.Warn("Unsupported transformation: %s", op.Func)
		}
	}

	return models.Point{X: x, Y: y}
}

var supportedTransforms = map[string]bool{
	"translate": true,
	"scale":     true,
	"rotate":    true,
	"matrix":    true,
	"skewX":     true,
	"skewY":     true,
}

// ReportUnsupported предупреждает один раз о каждой неизвестной функции.
// При преобразовании многих точек вызывается заранее, а в ApplyTransform
// передаётся nil log.
func ReportUnsupported(chain models.TransformChain, log *diag.Log) {
	seen := make(map[string]bool)
	for _, op := range chain {
		if supportedTransforms[op.Func] || seen[op.Func] {
			continue
		}
		seen[op.Func] = true
		log.Warn("Unsupported transformation: %s", op.Func)
	}
}

// argOr возвращает args[i] или def, если аргумента нет или он NaN.
func argOr(args []float64, i int, def float64) float64 {
	if i < len(args) && !math.IsNaN(args[i]) {
		return args[i]
	}
	return def
}
