package types

import "errors"

// Sentinel errors for surveylogic operations.
var (
	// ErrInvalidMode indicates a mode assignment outside view/select_type/new/edit.
	// The engine keeps its current mode when returning it.
	ErrInvalidMode = errors.New("invalid logic mode")

	// ErrInvalidSurvey indicates a survey document that could not be decoded.
	ErrInvalidSurvey = errors.New("invalid survey document")

	// ErrDuplicateRuleType indicates two descriptors share a name.
	ErrDuplicateRuleType = errors.New("duplicate rule type name")

	// ErrIncompleteRuleType indicates a descriptor missing a required field.
	ErrIncompleteRuleType = errors.New("rule type requires name, element_category and property_name")

	// ErrScanNotFound indicates a scan ID with no stored record.
	ErrScanNotFound = errors.New("scan not found")
)
