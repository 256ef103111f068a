// Package resolver разворачивает дерево SVG в упорядоченный список
// рисуемых элементов. Группы раскрываются с передачей transform вниз, defs
// индексируются по id, а ссылки use заменяются копиями.
//
// Входное дерево не изменяется.
package resolver

import (
	"strings"

	"github.com/jinzhu/copier"

	"svg2emblem/internal/converter/diag"
	"svg2emblem/internal/converter/models"
)

// ============================================================
// Resolver
// ============================================================

type Resolver struct {
	defs map[string]*models.Element
	log  *diag.Log

	// id ссылок use, которые сейчас раскрываются
	expanding map[string]bool
}

// Resolve разворачивает потомков root в порядке документа.
func Resolve(root *models.Element, log *diag.Log) []*models.Element {
	r := &Resolver{
		defs:      make(map[string]*models.Element),
		log:       log,
		expanding: make(map[string]bool),
	}
	r.indexDefs(root)

	var out []*models.Element
	for _, child := range root.Children {
		out = append(out, r.resolve(child, "")...)
	}
	return out
}

// indexDefs регистрирует прямых потомков с id у всех <defs> дерева, чтобы
// <use> мог стоять раньше определения.
func (r *Resolver) indexDefs(el *models.Element) {
	for _, child := range el.Children {
		if child.Kind != models.KindDefs {
			r.indexDefs(child)
			continue
		}
		for _, def := range child.Children {
			id, ok := def.Attr("id")
			if !ok || id == "" {
				r.log.Warn("Dropping <%s> in defs without an id", def.Tag)
				continue
			}
			r.defs[id] = def
		}
	}
}

func (r *Resolver) resolve(el *models.Element, inherited string) []*models.Element {
	switch el.Kind {
	case models.KindGroup:
		r.log.Info("Flattening group element.")
		groupTransform := joinTransforms(inherited, attr(el, "transform"))
		var out []*models.Element
		for _, child := range el.Children {
			out = append(out, r.resolve(child, groupTransform)...)
		}
		return out

	case models.KindDefs:
		return nil

	case models.KindUse:
		return r.expandUse(el, inherited)
	}

	return []*models.Element{withInherited(el, inherited)}
}

func (r *Resolver) expandUse(use *models.Element, inherited string) []*models.Element {
	href, ok := use.Attr("href")
	if !ok {
		href, ok = use.Attr("xlink:href")
	}
	if !ok || !strings.HasPrefix(href, "#") {
		r.log.Warn("Skipping use - unsupported reference %q", href)
		return nil
	}

	id := strings.TrimPrefix(href, "#")
	def, ok := r.defs[id]
	if !ok {
		r.log.Warn("Skipping use - no definition with id %q", id)
		return nil
	}
	if r.expanding[id] {
		r.log.Warn("Skipping use - circular reference to %q", id)
		return nil
	}

	var clone models.Element
	if err := copier.CopyWithOption(&clone, def, copier.Option{DeepCopy: true}); err != nil {
		r.log.Warn("Skipping use - unable to copy %q: %v", id, err)
		return nil
	}

	attrs := make(map[string]string, len(def.Attrs)+len(use.Attrs))
	for k, v := range def.Attrs {
		attrs[k] = v
	}
	for k, v := range use.Attrs {
		if k == "href" || k == "xlink:href" {
			continue
		}
		attrs[k] = v
	}
	clone.Attrs = attrs

	r.expanding[id] = true
	defer delete(r.expanding, id)

	return r.resolve(&clone, inherited)
}

// withInherited возвращает сам el, если наследовать нечего, иначе
// поверхностную копию с унаследованными transform.
func withInherited(el *models.Element, inherited string) *models.Element {
	if inherited == "" {
		return el
	}
	cp := *el
	cp.Inherited = joinTransforms(inherited, el.Inherited)
	return &cp
}

func joinTransforms(outer, inner string) string {
	outer, inner = strings.TrimSpace(outer), strings.TrimSpace(inner)
	switch {
	case outer == "":
		return inner
	case inner == "":
		return outer
	}
	return outer + " " + inner
}

func attr(el *models.Element, key string) string {
	v, _ := el.Attr(key)
	return v
}
