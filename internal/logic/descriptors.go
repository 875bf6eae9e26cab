// internal/logic/descriptors.go
package logic

import "github.com/solatis/surveylogic/internal/types"

/*
 * Reference rule-type table.
 *
 * Descriptors are plain data (name, element category, property name). The
 * applicability predicates live in a separate map keyed by descriptor name so
 * the table can come from configuration while predicates stay in code.
 *
 * Reference table order is significant: it fixes RuleType order in the engine
 * and therefore item order within one element.
 */

// Reference descriptor names.
const (
	PageVisibility     = "page_visibility"
	QuestionVisibility = "question_visibility"
	PanelVisibility    = "panel_visibility"
)

// VisibleIfProperty is the property holding a visibility expression.
const VisibleIfProperty = "visibleIf"

// ApplicabilityFunc decides whether a rule type is currently relevant for a survey.
// Nil surveys must be tolerated.
type ApplicabilityFunc func(survey types.Survey) bool

// DefaultDescriptors returns the reference rule-type table.
// Returns a fresh slice; callers may modify it.
func DefaultDescriptors() []types.RuleTypeDescriptor {
	return []types.RuleTypeDescriptor{
		{Name: PageVisibility, ElementCategory: "page", PropertyName: VisibleIfProperty},
		{Name: QuestionVisibility, ElementCategory: "question", PropertyName: VisibleIfProperty},
		{Name: PanelVisibility, ElementCategory: "panel", PropertyName: VisibleIfProperty},
	}
}

// DefaultChecks returns the applicability predicates for the reference table.
// Page rules need more than one page; question and panel rules need at least one
// element of their kind.
func DefaultChecks() map[string]ApplicabilityFunc {
	return map[string]ApplicabilityFunc{
		PageVisibility: func(s types.Survey) bool {
			return s != nil && len(s.Pages()) > 1
		},
		QuestionVisibility: func(s types.Survey) bool {
			return s != nil && len(s.AllQuestions()) > 0
		},
		PanelVisibility: func(s types.Survey) bool {
			return s != nil && len(s.AllPanels()) > 0
		},
	}
}

// ValidateDescriptors checks required fields and name uniqueness.
func ValidateDescriptors(descriptors []types.RuleTypeDescriptor) error {
	seen := make(map[string]bool, len(descriptors))
	for _, d := range descriptors {
		if d.Name == "" || d.ElementCategory == "" || d.PropertyName == "" {
			return types.ErrIncompleteRuleType
		}
		if seen[d.Name] {
			return types.ErrDuplicateRuleType
		}
		seen[d.Name] = true
	}
	return nil
}
