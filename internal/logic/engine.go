// internal/logic/engine.go
package logic

import (
	"fmt"
	"slices"

	"github.com/solatis/surveylogic/internal/types"
	"go.uber.org/zap"
)

/*
 * Logic engine: rule-item discovery and editing-mode state machine.
 *
 * Update flow:
 *   1. Optionally rebind the survey (every RuleType follows the new survey)
 *   2. Enumerate pages, then all questions, then all panels (document order)
 *   3. For each element and each RuleType in declared order: match when the
 *      element's class ancestry contains the category and the rule property
 *      is non-empty
 *   4. Replace the item collection and derive the mode in one step
 *   5. Bump the version and notify listeners with the new snapshot
 *
 * Rebuilds are full re-derivations.
 *
 * The engine is single-threaded: no locks, no goroutines. It never watches the
 * survey; hosts call Update after every document change. Callers that share an
 * engine across goroutines serialize access themselves (see internal/core/api).
 */

// Item pairs one rule type with one element carrying a non-empty rule property.
// Comparable: two items are equal when both members are identical.
type Item struct {
	RuleType *RuleType
	Element  types.Element
}

// Expression returns the raw rule property value.
func (i Item) Expression() any {
	return i.Element.Property(i.RuleType.PropertyName())
}

// ElementName returns the element's "name" property, or "" when absent.
func (i Item) ElementName() string {
	name, _ := i.Element.Property("name").(string)
	return name
}

// Snapshot is the published engine state after one atomic replacement.
type Snapshot struct {
	Version uint64
	Items   []Item
	Mode    types.Mode
}

// Listener receives snapshots synchronously after each state change.
type Listener func(Snapshot)

// Options configures an Engine. Zero value selects the reference table.
type Options struct {
	// Descriptors overrides the reference rule-type table when non-nil.
	Descriptors []types.RuleTypeDescriptor
	// Checks overrides the applicability predicates when non-nil.
	// Descriptors without an entry are always visible.
	Checks map[string]ApplicabilityFunc
	Logger *zap.Logger
}

type subscription struct {
	id int
	fn Listener
}

// Engine owns the rule types, the published item collection and the mode.
type Engine struct {
	registry  types.ClassRegistry
	survey    types.Survey
	ruleTypes []*RuleType
	items     []Item
	mode      types.Mode
	version   uint64
	listeners []subscription
	nextSubID int
	logger    *zap.Logger
}

// NewEngine creates an engine bound to survey and runs the first Update,
// which sets the initial mode. A nil survey behaves as an empty one.
func NewEngine(survey types.Survey, registry types.ClassRegistry, opts Options) *Engine {
	descriptors := opts.Descriptors
	if descriptors == nil {
		descriptors = DefaultDescriptors()
	}
	checks := opts.Checks
	if checks == nil {
		checks = DefaultChecks()
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	e := &Engine{
		registry:  registry,
		survey:    survey,
		ruleTypes: make([]*RuleType, 0, len(descriptors)),
		mode:      types.ModeView,
		logger:    logger,
	}
	for _, d := range descriptors {
		e.ruleTypes = append(e.ruleTypes, newRuleType(d, checks[d.Name], survey))
	}

	e.Update(nil)
	return e
}

// RuleTypes returns the rule types in declared order.
func (e *Engine) RuleTypes() []*RuleType {
	return slices.Clone(e.ruleTypes)
}

// VisibleRuleTypes returns the rule types whose applicability check passes
// for the bound survey, in declared order.
func (e *Engine) VisibleRuleTypes() []*RuleType {
	visible := make([]*RuleType, 0, len(e.ruleTypes))
	for _, rt := range e.ruleTypes {
		if rt.Visible() {
			visible = append(visible, rt)
		}
	}
	return visible
}

// LookupType returns the rule type with the given name.
// Returns nil, false when no rule type matches.
func (e *Engine) LookupType(name string) (*RuleType, bool) {
	for _, rt := range e.ruleTypes {
		if rt.Name() == name {
			return rt, true
		}
	}
	return nil, false
}

// Survey returns the bound survey (may be nil).
func (e *Engine) Survey() types.Survey {
	return e.survey
}

// Items returns the item collection from the last Update.
func (e *Engine) Items() []Item {
	return slices.Clone(e.items)
}

// Mode returns the current editing mode.
func (e *Engine) Mode() types.Mode {
	return e.mode
}

// Version returns a counter incremented on every published change.
// Hosts that poll compare versions instead of subscribing.
func (e *Engine) Version() uint64 {
	return e.version
}

// SetMode switches the editing mode.
// Values outside the four defined states leave the mode unchanged and return
// ErrInvalidMode. New and edit are not checked against the item collection.
func (e *Engine) SetMode(mode types.Mode) error {
	if !mode.Valid() {
		e.logger.Debug("rejected mode assignment",
			zap.String("requested", string(mode)),
			zap.String("current", string(e.mode)))
		return fmt.Errorf("%w: %q", types.ErrInvalidMode, mode)
	}
	if mode == e.mode {
		return nil
	}
	e.mode = mode
	e.publish()
	return nil
}

// Update rescans the survey and republishes items and mode.
// A non-nil survey replaces the bound one first; nil rescans the current survey.
func (e *Engine) Update(survey types.Survey) {
	if survey != nil {
		e.survey = survey
		for _, rt := range e.ruleTypes {
			rt.bind(survey)
		}
	}

	items := e.scan(e.survey)

	e.items = items
	e.mode = modeFor(items)
	e.publish()

	e.logger.Debug("logic items rebuilt",
		zap.Int("items", len(items)),
		zap.String("mode", string(e.mode)),
		zap.Uint64("version", e.version))
}

// Preview returns the snapshot Update(survey) would publish, without changing
// engine state or notifying listeners. A nil survey previews the bound one.
func (e *Engine) Preview(survey types.Survey) Snapshot {
	if survey == nil {
		survey = e.survey
	}
	items := e.scan(survey)
	return Snapshot{
		Version: e.version + 1,
		Items:   items,
		Mode:    modeFor(items),
	}
}

// Registry returns the class registry used for ancestry resolution.
func (e *Engine) Registry() types.ClassRegistry {
	return e.registry
}

// Subscribe registers a listener and returns a function that removes it.
// Listeners run synchronously in registration order and must not call Update
// or SetMode.
func (e *Engine) Subscribe(fn Listener) (unsubscribe func()) {
	id := e.nextSubID
	e.nextSubID++
	e.listeners = append(e.listeners, subscription{id: id, fn: fn})

	return func() {
		e.listeners = slices.DeleteFunc(e.listeners, func(s subscription) bool {
			return s.id == id
		})
	}
}

// Snapshot returns the current state as one consistent value.
func (e *Engine) Snapshot() Snapshot {
	return Snapshot{
		Version: e.version,
		Items:   slices.Clone(e.items),
		Mode:    e.mode,
	}
}

// publish bumps the version and notifies listeners.
func (e *Engine) publish() {
	e.version++
	if len(e.listeners) == 0 {
		return
	}
	snap := e.Snapshot()
	for _, s := range slices.Clone(e.listeners) {
		s.fn(snap)
	}
}

// scan matches every element of survey against every rule type.
// Order: element order (pages, questions, panels), then rule type order.
func (e *Engine) scan(survey types.Survey) []Item {
	var items []Item
	for _, el := range allElements(survey) {
		ancestry := ResolveAncestry(e.registry, el.Type())
		for _, rt := range e.ruleTypes {
			if !slices.Contains(ancestry, rt.ElementCategory()) {
				continue
			}
			if types.IsValueEmpty(el.Property(rt.PropertyName())) {
				continue
			}
			items = append(items, Item{RuleType: rt, Element: el})
		}
	}
	return items
}

// modeFor derives the mode an Update publishes for items.
func modeFor(items []Item) types.Mode {
	if len(items) == 0 {
		return types.ModeSelectType
	}
	return types.ModeView
}

// allElements concatenates pages, questions and panels, skipping nil entries.
func allElements(survey types.Survey) []types.Element {
	if survey == nil {
		return nil
	}

	var elements []types.Element
	for _, group := range [][]types.Element{
		survey.Pages(),
		survey.AllQuestions(),
		survey.AllPanels(),
	} {
		for _, el := range group {
			if el != nil {
				elements = append(elements, el)
			}
		}
	}
	return elements
}
