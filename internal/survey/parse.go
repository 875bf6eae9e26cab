package survey

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/solatis/surveylogic/internal/types"
)

/*
 * Survey JSON decoding.
 *
 * Accepts the common survey JSON layout:
 *
 *   {"title": "...", "pages": [{"name": "p1", "visibleIf": "...",
 *     "elements": [{"type": "text", "name": "q1"},
 *                  {"type": "panel", "name": "pn", "elements": [...]}]}]}
 *
 * "questions" is accepted as a legacy alias of "elements". A survey without
 * "pages" but with top-level elements gets one implicit page named "page1".
 *
 * An element is a panel, and its "elements" are decoded as children, when its
 * type is "panel" or a registered descendant of it. Everything else is a
 * question.
 *
 * Every JSON key is kept verbatim as an element property, so any property name
 * a rule type points at is readable without a schema.
 */

// Decoder builds documents, resolving container types against a class registry.
type Decoder struct {
	registry types.ClassRegistry
}

// NewDecoder creates a decoder. A nil registry recognizes only "panel" itself.
func NewDecoder(registry types.ClassRegistry) *Decoder {
	return &Decoder{registry: registry}
}

// Parse decodes a survey JSON document with the default class hierarchy.
func Parse(data []byte) (*Document, error) {
	return NewDecoder(DefaultRegistry()).Parse(data)
}

// ParseReader decodes a survey JSON document from r with the default class hierarchy.
func ParseReader(r io.Reader) (*Document, error) {
	return NewDecoder(DefaultRegistry()).ParseReader(r)
}

// ParseFile decodes the survey JSON file at path with the default class hierarchy.
func ParseFile(path string) (*Document, error) {
	return NewDecoder(DefaultRegistry()).ParseFile(path)
}

// FromMap builds a document from already-decoded JSON with the default class hierarchy.
func FromMap(raw map[string]any) (*Document, error) {
	return NewDecoder(DefaultRegistry()).FromMap(raw)
}

// Parse decodes a survey JSON document.
func (d *Decoder) Parse(data []byte) (*Document, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrInvalidSurvey, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%w: document must be a JSON object", types.ErrInvalidSurvey)
	}
	return d.FromMap(raw)
}

// ParseReader decodes a survey JSON document from r.
func (d *Decoder) ParseReader(r io.Reader) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read survey: %w", err)
	}
	return d.Parse(data)
}

// ParseFile decodes the survey JSON file at path.
func (d *Decoder) ParseFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read survey file: %w", err)
	}
	return d.Parse(data)
}

// FromMap builds a document from already-decoded JSON.
func (d *Decoder) FromMap(raw map[string]any) (*Document, error) {
	doc := &Document{props: make(map[string]any, len(raw))}
	for k, v := range raw {
		if k == "pages" || k == "elements" || k == "questions" {
			continue
		}
		doc.props[k] = v
	}

	if rawPages, ok := raw["pages"]; ok {
		pages, ok := rawPages.([]any)
		if !ok {
			return nil, fmt.Errorf("%w: pages must be an array", types.ErrInvalidSurvey)
		}
		for i, rp := range pages {
			obj, ok := rp.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("%w: pages[%d] must be an object", types.ErrInvalidSurvey, i)
			}
			page, err := d.buildContainer(KindPage, "page", obj, fmt.Sprintf("pages[%d]", i))
			if err != nil {
				return nil, err
			}
			doc.pages = append(doc.pages, page)
		}
		return doc, nil
	}

	if _, ok := childList(raw); ok {
		page, err := d.buildContainer(KindPage, "page", map[string]any{
			"name":     "page1",
			"elements": raw[childKey(raw)],
		}, "survey")
		if err != nil {
			return nil, err
		}
		doc.pages = append(doc.pages, page)
	}

	return doc, nil
}

func (d *Decoder) buildContainer(kind, typeName string, obj map[string]any, where string) (*Element, error) {
	el := &Element{kind: kind, typeName: typeName, props: make(map[string]any, len(obj))}
	for k, v := range obj {
		if k == "elements" || k == "questions" {
			continue
		}
		el.props[k] = v
	}
	el.props["type"] = typeName

	children, ok := childList(obj)
	if !ok {
		if v, present := obj[childKey(obj)]; present && v != nil {
			return nil, fmt.Errorf("%w: %s.%s must be an array", types.ErrInvalidSurvey, where, childKey(obj))
		}
		return el, nil
	}

	for i, rc := range children {
		childWhere := fmt.Sprintf("%s.%s[%d]", where, childKey(obj), i)
		co, ok := rc.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: %s must be an object", types.ErrInvalidSurvey, childWhere)
		}
		child, err := d.buildElement(co, childWhere)
		if err != nil {
			return nil, err
		}
		el.children = append(el.children, child)
	}
	return el, nil
}

func (d *Decoder) buildElement(obj map[string]any, where string) (*Element, error) {
	typeName, _ := obj["type"].(string)
	if typeName == "" {
		return nil, fmt.Errorf("%w: %s has no type", types.ErrInvalidSurvey, where)
	}
	if d.isPanel(typeName) {
		return d.buildContainer(KindPanel, typeName, obj, where)
	}

	el := &Element{kind: KindQuestion, typeName: typeName, props: make(map[string]any, len(obj))}
	for k, v := range obj {
		el.props[k] = v
	}
	return el, nil
}

// isPanel reports whether typeName is "panel" or descends from it.
func (d *Decoder) isPanel(typeName string) bool {
	seen := make(map[string]bool)
	for name := typeName; name != "" && !seen[name]; {
		if name == "panel" {
			return true
		}
		if d.registry == nil {
			return false
		}
		seen[name] = true
		info, ok := d.registry.FindClass(name)
		if !ok {
			return false
		}
		name = info.ParentName
	}
	return false
}

// childKey returns "elements" unless only the legacy "questions" key is present.
func childKey(obj map[string]any) string {
	if _, ok := obj["elements"]; !ok {
		if _, ok := obj["questions"]; ok {
			return "questions"
		}
	}
	return "elements"
}

func childList(obj map[string]any) ([]any, bool) {
	list, ok := obj[childKey(obj)].([]any)
	return list, ok
}
