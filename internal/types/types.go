// Package types provides domain models shared across surveylogic components.
//
// The interfaces here are the engine's inbound boundary: the survey document it
// reads from and the class-metadata registry it walks for type ancestry. Both are
// read-only from the engine's point of view and are injected, never global.
package types

// Mode is the editing-interaction state exposed to the host UI.
type Mode string

const (
	ModeView       Mode = "view"
	ModeSelectType Mode = "select_type"
	ModeNew        Mode = "new"
	ModeEdit       Mode = "edit"
)

// Modes lists every valid mode in declaration order.
var Modes = []Mode{ModeView, ModeSelectType, ModeNew, ModeEdit}

// Valid reports whether m is one of the four defined states.
func (m Mode) Valid() bool {
	switch m {
	case ModeView, ModeSelectType, ModeNew, ModeEdit:
		return true
	default:
		return false
	}
}

// RootClass is the sentinel type at the top of every class hierarchy.
const RootClass = "base"

// Element is one node of a survey document: a page, a question or a panel.
type Element interface {
	// Type returns the element's declared class name (e.g. "text", "page").
	Type() string
	// Property returns the named property value, nil when unset.
	Property(name string) any
}

// Survey is the read-only view of a survey document the engine scans.
// Questions and panels are flattened across pages in document order.
type Survey interface {
	Pages() []Element
	AllQuestions() []Element
	AllPanels() []Element
}

// ClassInfo is the class-metadata entry for one registered type.
type ClassInfo struct {
	Name       string
	ParentName string // empty for classes without a declared parent
}

// ClassRegistry resolves type names to their class metadata.
type ClassRegistry interface {
	FindClass(name string) (ClassInfo, bool)
}

// RuleTypeDescriptor describes one known kind of visibility rule.
// Pure data: applicability predicates are injected separately, keyed by Name.
type RuleTypeDescriptor struct {
	Name            string `mapstructure:"name"`
	ElementCategory string `mapstructure:"element_category"`
	PropertyName    string `mapstructure:"property_name"`
}
