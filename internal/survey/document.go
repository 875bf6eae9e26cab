package survey

import "github.com/solatis/surveylogic/internal/types"

// Element kinds. A page is a top-level container, a panel a nested one.
const (
	KindPage     = "page"
	KindPanel    = "panel"
	KindQuestion = "question"
)

// Element is a page, panel or question with its raw properties.
type Element struct {
	kind     string
	typeName string
	props    map[string]any
	children []*Element
}

// NewPage creates an empty page.
func NewPage(name string) *Element {
	return newElement(KindPage, "page", name)
}

// NewPanel creates an empty panel.
func NewPanel(name string) *Element {
	return newElement(KindPanel, "panel", name)
}

// NewQuestion creates a question of the given class (e.g. "text", "checkbox").
func NewQuestion(typeName, name string) *Element {
	return newElement(KindQuestion, typeName, name)
}

func newElement(kind, typeName, name string) *Element {
	props := map[string]any{"type": typeName}
	if name != "" {
		props["name"] = name
	}
	return &Element{kind: kind, typeName: typeName, props: props}
}

// Type implements types.Element.
func (e *Element) Type() string {
	if e == nil {
		return ""
	}
	return e.typeName
}

// Property implements types.Element.
func (e *Element) Property(name string) any {
	if e == nil {
		return nil
	}
	return e.props[name]
}

// SetProperty sets a raw property. The "type" property is fixed at creation.
// Returns e for chaining.
func (e *Element) SetProperty(name string, value any) *Element {
	if name == "type" {
		return e
	}
	if value == nil {
		delete(e.props, name)
		return e
	}
	e.props[name] = value
	return e
}

// Name returns the element's name property.
func (e *Element) Name() string {
	name, _ := e.Property("name").(string)
	return name
}

// Kind returns KindPage, KindPanel or KindQuestion.
func (e *Element) Kind() string {
	return e.kind
}

// Add appends children to a page or panel. Questions ignore it.
func (e *Element) Add(children ...*Element) *Element {
	if e.kind == KindQuestion {
		return e
	}
	for _, c := range children {
		if c != nil {
			e.children = append(e.children, c)
		}
	}
	return e
}

// Elements returns direct children in document order.
func (e *Element) Elements() []*Element {
	return e.children
}

// Document is an in-memory survey.
type Document struct {
	props map[string]any
	pages []*Element
}

// NewDocument creates a survey with the given pages.
func NewDocument(pages ...*Element) *Document {
	d := &Document{props: make(map[string]any)}
	d.AddPage(pages...)
	return d
}

// AddPage appends pages. Non-page elements are ignored.
func (d *Document) AddPage(pages ...*Element) {
	for _, p := range pages {
		if p != nil && p.kind == KindPage {
			d.pages = append(d.pages, p)
		}
	}
}

// Title returns the survey title, "" when unset.
func (d *Document) Title() string {
	if d == nil {
		return ""
	}
	title, _ := d.props["title"].(string)
	return title
}

// Pages implements types.Survey.
func (d *Document) Pages() []types.Element {
	if d == nil {
		return nil
	}
	out := make([]types.Element, 0, len(d.pages))
	for _, p := range d.pages {
		out = append(out, p)
	}
	return out
}

// AllQuestions implements types.Survey. Depth-first over pages and nested panels.
func (d *Document) AllQuestions() []types.Element {
	return d.collect(KindQuestion)
}

// AllPanels implements types.Survey. Depth-first over pages and nested panels.
func (d *Document) AllPanels() []types.Element {
	return d.collect(KindPanel)
}

// FindElement returns the first page, panel or question with the given name.
func (d *Document) FindElement(name string) (*Element, bool) {
	if d == nil {
		return nil, false
	}
	var found *Element
	for _, p := range d.pages {
		walk(p, func(e *Element) bool {
			if e.Name() == name {
				found = e
				return false
			}
			return true
		})
		if found != nil {
			return found, true
		}
	}
	return nil, false
}

func (d *Document) collect(kind string) []types.Element {
	if d == nil {
		return nil
	}
	var out []types.Element
	for _, p := range d.pages {
		for _, child := range p.children {
			walk(child, func(e *Element) bool {
				if e.kind == kind {
					out = append(out, e)
				}
				return true
			})
		}
	}
	return out
}

// walk visits e and its descendants depth-first until fn returns false.
func walk(e *Element, fn func(*Element) bool) bool {
	if !fn(e) {
		return false
	}
	for _, c := range e.children {
		if !walk(c, fn) {
			return false
		}
	}
	return true
}
