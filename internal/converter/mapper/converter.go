package mapper

import (
	"encoding/json"

	"svg2emblem/internal/converter/diag"
	"svg2emblem/internal/converter/models"
	"svg2emblem/internal/converter/parser"
	"svg2emblem/internal/converter/resolver"
)

// ============================================================
// Converter
// ============================================================

// Options задаёт ограничения конвертации. Нулевые поля берутся из DefaultOptions.
type Options struct {
	// MaxItems - число примитивов, выше которого пишется предупреждение.
	// Результат не обрезается.
	MaxItems int
	// MaxSize - наибольшая ширина или высота path и polygon.
	MaxSize float64
	// CircleTolerance - допустимое отклонение пропорций path от 1, при котором
	// он считается кругом.
	CircleTolerance float64
}

func DefaultOptions() Options {
	return Options{
		MaxItems:        40,
		MaxSize:         256,
		CircleTolerance: 0.15,
	}
}

type Converter struct {
	opts Options
	sink diag.Sink
}

// Result - результат конвертации вместе с её сообщениями.
type Result struct {
	Primitives []models.Primitive `json:"primitives"`
	Log        []string           `json:"log"`
	Warnings   int                `json:"warnings"`
}

// New создаёт конвертер, пишущий в sink; nil sink выбрасывает сообщения.
// Converter не хранит состояния между вызовами и может использоваться
// совместно.
func New(opts Options, sink diag.Sink) *Converter {
	def := DefaultOptions()
	if opts.MaxItems <= 0 {
		opts.MaxItems = def.MaxItems
	}
	if opts.MaxSize <= 0 {
		opts.MaxSize = def.MaxSize
	}
	if opts.CircleTolerance <= 0 {
		opts.CircleTolerance = def.CircleTolerance
	}
	return &Converter{opts: opts, sink: sink}
}

// Convert SVG → примитивы эмблемы в порядке документа. Не падает:
// нечитаемый SVG даёт пустой срез.
func (c *Converter) Convert(markup string) []models.Primitive {
	return c.ConvertWithReport(markup).Primitives
}

// ConvertWithReport - Convert, который также возвращает все сообщения.
func (c *Converter) ConvertWithReport(markup string) (res Result) {
	log := diag.New(c.sink)

	defer func() {
		if r := recover(); r != nil {
			log.Warn("Conversion aborted: %v", r)
			res.Primitives = nil
		}
		if res.Primitives == nil {
			res.Primitives = []models.Primitive{}
		}
		res.Log = log.Entries()
		res.Warnings = log.Warnings()
	}()

	res.Primitives = c.convert(markup, log)
	return res
}

func (c *Converter) convert(markup string, log *diag.Log) []models.Primitive {
	log.Info("Parsing SVG text...")
	root, err := parser.ParseSVG(markup)
	if err != nil {
		log.Warn("Error parsing SVG: %v", err)
		return nil
	}
	log.Info("SVG parsed successfully.")

	var out []models.Primitive
	for _, el := range resolver.Resolve(root, log) {
		p, ok, err := c.mapElement(el, log)
		switch {
		case !ok:
			log.Warn("Skipped unsupported object %s", el.Tag)
		case err != nil:
			log.Warn("Failed to process item: %v", err)
		default:
			out = append(out, p)
			if data, err := json.Marshal(p); err == nil {
				log.Info("Processed item: %s", data)
			}
		}
	}

	if len(out) > c.opts.MaxItems {
		log.Warn("Too many objects in the SVG. Max is %d, found %d", c.opts.MaxItems, len(out))
	}
	log.Info("Conversion complete. Total items processed: %d", len(out))
	return out
}
