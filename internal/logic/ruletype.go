// internal/logic/ruletype.go
package logic

import "github.com/solatis/surveylogic/internal/types"

// RuleType binds one descriptor to the engine's current survey.
// Visible is evaluated on every call, never cached, so it tracks the survey's shape.
type RuleType struct {
	descriptor types.RuleTypeDescriptor
	check      ApplicabilityFunc
	survey     types.Survey
}

func newRuleType(d types.RuleTypeDescriptor, check ApplicabilityFunc, survey types.Survey) *RuleType {
	return &RuleType{descriptor: d, check: check, survey: survey}
}

// Name returns the descriptor name, the rule type's identity.
func (rt *RuleType) Name() string {
	return rt.descriptor.Name
}

// DisplayText returns the host-facing label. Currently the name.
func (rt *RuleType) DisplayText() string {
	return rt.Name()
}

// ElementCategory returns the class an element must descend from to match.
func (rt *RuleType) ElementCategory() string {
	return rt.descriptor.ElementCategory
}

// PropertyName returns the element property holding the rule expression.
func (rt *RuleType) PropertyName() string {
	return rt.descriptor.PropertyName
}

// Descriptor returns a copy of the underlying descriptor.
func (rt *RuleType) Descriptor() types.RuleTypeDescriptor {
	return rt.descriptor
}

// Survey returns the currently bound survey (may be nil).
func (rt *RuleType) Survey() types.Survey {
	return rt.survey
}

// Visible reports whether the rule type applies to the bound survey.
// True when no applicability check is registered.
func (rt *RuleType) Visible() bool {
	if rt.check == nil {
		return true
	}
	return rt.check(rt.survey)
}

func (rt *RuleType) bind(survey types.Survey) {
	rt.survey = survey
}
