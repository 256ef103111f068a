package parser

import (
	"fmt"
	"math"
	"strings"

	"github.com/tdewolff/parse/v2/strconv"

	"svg2emblem/internal/converter/models"
)

// ============================================================
// Number scanning
// ============================================================

// ParseNumber читает число в начале s, пропуская пробелы и хвост
// ("12px" -> 12).
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return math.NaN(), false
	}
	f, n := strconv.ParseFloat([]byte(s))
	if n == 0 {
		return math.NaN(), false
	}
	return f, true
}

// scanNumbers делит s по пробелам и запятым. Поле может содержать несколько
// чисел без разделителей ("10-20", "1.5.5"); поле, которое не начинается с
// числа, даёт один NaN.
func scanNumbers(s string) []float64 {
	fields := strings.FieldsFunc(s, isSeparator)
	out := make([]float64, 0, len(fields))
	for _, field := range fields {
		b := []byte(field)
		for len(b) > 0 {
			f, n := strconv.ParseFloat(b)
			if n == 0 {
				out = append(out, math.NaN())
				break
			}
			out = append(out, f)
			b = b[n:]
		}
	}
	return out
}

func isSeparator(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r', '\f', ',':
		return true
	}
	return false
}

// ParsePoints парсит атрибут points у polygon/polyline в пары координат.
// Лишняя непарная координата в конце отбрасывается.
func ParsePoints(s string) ([]models.Point, error) {
	nums := scanNumbers(s)
	pts := make([]models.Point, 0, len(nums)/2)
	for i := 0; i+1 < len(nums); i += 2 {
		x, y := nums[i], nums[i+1]
		if math.IsNaN(x) || math.IsNaN(y) {
			return nil, fmt.Errorf("invalid coordinate pair at index %d", i/2)
		}
		pts = append(pts, models.Point{X: x, Y: y})
	}
	return pts, nil
}
