// Package survey provides an in-memory survey document model and the class
// registry used to resolve element type ancestry.
package survey

import (
	"sort"

	"github.com/solatis/surveylogic/internal/types"
)

// Registry maps class names to their declared parent class.
// Not safe for concurrent mutation; register classes before sharing.
type Registry struct {
	parents map[string]string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{parents: make(map[string]string)}
}

// DefaultRegistry returns a registry preloaded with the standard element hierarchy.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	for _, c := range defaultClasses {
		r.Register(c.Name, c.ParentName)
	}
	return r
}

// defaultClasses lists built-in element classes, parents before children.
var defaultClasses = []types.ClassInfo{
	{Name: "panelbase"},
	{Name: "page", ParentName: "panelbase"},
	{Name: "panel", ParentName: "panelbase"},

	{Name: "question"},
	{Name: "text", ParentName: "question"},
	{Name: "comment", ParentName: "question"},
	{Name: "boolean", ParentName: "question"},
	{Name: "rating", ParentName: "question"},
	{Name: "expression", ParentName: "question"},
	{Name: "file", ParentName: "question"},
	{Name: "multipletext", ParentName: "question"},
	{Name: "paneldynamic", ParentName: "question"},
	{Name: "signaturepad", ParentName: "question"},

	{Name: "nonvalue", ParentName: "question"},
	{Name: "html", ParentName: "nonvalue"},
	{Name: "image", ParentName: "nonvalue"},

	{Name: "selectbase", ParentName: "question"},
	{Name: "dropdown", ParentName: "selectbase"},
	{Name: "checkboxbase", ParentName: "selectbase"},
	{Name: "checkbox", ParentName: "checkboxbase"},
	{Name: "radiogroup", ParentName: "checkboxbase"},
	{Name: "imagepicker", ParentName: "checkboxbase"},
	{Name: "ranking", ParentName: "checkbox"},
	{Name: "tagbox", ParentName: "checkbox"},

	{Name: "matrixbase", ParentName: "question"},
	{Name: "matrix", ParentName: "matrixbase"},
	{Name: "matrixdropdownbase", ParentName: "matrixbase"},
	{Name: "matrixdropdown", ParentName: "matrixdropdownbase"},
	{Name: "matrixdynamic", ParentName: "matrixdropdownbase"},
}

// Register adds or replaces a class. Empty parent marks a hierarchy root.
func (r *Registry) Register(name, parent string) {
	r.parents[name] = parent
}

// FindClass implements types.ClassRegistry.
func (r *Registry) FindClass(name string) (types.ClassInfo, bool) {
	parent, ok := r.parents[name]
	if !ok {
		return types.ClassInfo{}, false
	}
	return types.ClassInfo{Name: name, ParentName: parent}, true
}

// Classes returns all registered classes sorted by name.
func (r *Registry) Classes() []types.ClassInfo {
	classes := make([]types.ClassInfo, 0, len(r.parents))
	for name, parent := range r.parents {
		classes = append(classes, types.ClassInfo{Name: name, ParentName: parent})
	}
	sort.Slice(classes, func(i, j int) bool {
		return classes[i].Name < classes[j].Name
	})
	return classes
}
