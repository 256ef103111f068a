package parser

import (
	"errors"
	"fmt"
	"strings"

	"github.com/beevik/etree"
	"golang.org/x/net/html/charset"

	"svg2emblem/internal/converter/models"
)

// ============================================================
// Parser
// ============================================================

var (
	ErrParserError = errors.New("parser error")
	ErrNoSVGRoot   = errors.New("no <svg> element")
)

// ParseSVG парсит SVG в дерево элементов с корнем <svg>. Ключи атрибутов
// сохраняют префикс пространства имён ("xlink:href").
func ParseSVG(markup string) (*models.Element, error) {
	doc := etree.NewDocument()
	doc.ReadSettings.CharsetReader = charset.NewReaderLabel

	if err := doc.ReadFromString(markup); err != nil {
		return nil, fmt.Errorf("read svg: %w", err)
	}

	// Браузеры сообщают об ошибках прямо в документе.
	if pe := doc.FindElement("//parsererror"); pe != nil {
		return nil, fmt.Errorf("%w: %s", ErrParserError, strings.TrimSpace(pe.Text()))
	}

	root := doc.Root()
	if root == nil {
		return nil, ErrNoSVGRoot
	}
	if root.Tag != "svg" {
		root = doc.FindElement("//svg")
		if root == nil {
			return nil, ErrNoSVGRoot
		}
	}

	return buildElement(root), nil
}

func buildElement(el *etree.Element) *models.Element {
	out := &models.Element{
		Kind:  models.KindOf(el.Tag),
		Tag:   el.Tag,
		Attrs: make(map[string]string, len(el.Attr)),
	}
	for _, a := range el.Attr {
		out.Attrs[a.FullKey()] = a.Value
	}

	children := el.ChildElements()
	if len(children) > 0 {
		out.Children = make([]*models.Element, 0, len(children))
		for _, child := range children {
			out.Children = append(out.Children, buildElement(child))
		}
	}
	return out
}
