package models

import "strings"

// ============================================================
// Geometry primitives
// ============================================================

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// ============================================================
// SVG Elements
// ============================================================

// Kind - тип элемента, определяется один раз по имени тега.
type Kind int

const (
	KindUnknown Kind = iota
	KindPath
	KindLine
	KindRect
	KindEllipse
	KindPolygon
	KindGroup
	KindDefs
	KindUse
)

var kindTags = map[string]Kind{
	"path":    KindPath,
	"line":    KindLine,
	"rect":    KindRect,
	"ellipse": KindEllipse,
	"polygon": KindPolygon,
	"g":       KindGroup,
	"defs":    KindDefs,
	"use":     KindUse,
}

// KindOf возвращает Kind для локального имени тега.
func KindOf(tag string) Kind {
	if k, ok := kindTags[tag]; ok {
		return k
	}
	return KindUnknown
}

func (k Kind) String() string {
	for tag, kind := range kindTags {
		if kind == k {
			return tag
		}
	}
	return "unknown"
}

// Element - узел дерева SVG.
//
// Inherited хранит transform внешних групп, начиная с самой внешней.
// Построенные элементы не изменяются, resolver возвращает копии.
type Element struct {
	Kind      Kind
	Tag       string
	Attrs     map[string]string
	Children  []*Element
	Inherited string
}

// Attr возвращает значение атрибута и признак его наличия.
func (e *Element) Attr(key string) (string, bool) {
	if e == nil || e.Attrs == nil {
		return "", false
	}
	v, ok := e.Attrs[key]
	return v, ok
}

// Transform склеивает унаследованные transform групп с собственным
// атрибутом transform элемента, группы первыми.
func (e *Element) Transform() string {
	own, _ := e.Attr("transform")
	if e.Inherited == "" {
		return own
	}
	return strings.TrimSpace(e.Inherited + " " + own)
}

// ============================================================
// Transforms
// ============================================================

// TransformOp - один вызов функции из transform, например rotate(30 5 5).
type TransformOp struct {
	Func string
	Args []float64
}

// TransformChain применяется слева направо.
type TransformChain []TransformOp

// ============================================================
// Emblem output
// ============================================================

type Asset string

const (
	AssetSquare   Asset = "Square"
	AssetCircle   Asset = "Circle"
	AssetTriangle Asset = "Triangle"
	AssetStroke   Asset = "Stroke"
)

// Primitive - одна фигура в модели ассетов редактора эмблем.
// Left/Top - центр фигуры, Angle в градусах.
type Primitive struct {
	Asset      Asset   `json:"asset"`
	Left       float64 `json:"left"`
	Top        float64 `json:"top"`
	Fill       string  `json:"fill"`
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
	Angle      float64 `json:"angle"`
	Opacity    float64 `json:"opacity"`
	Selectable bool    `json:"selectable"`
}

// Emblem - сохранённый результат конвертации.
type Emblem struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	Source     string      `json:"-"`
	Primitives []Primitive `json:"primitives"`
	Log        []string    `json:"log"`
	Warnings   int         `json:"warnings"`
	CreatedAt  string      `json:"created_at"`
}
