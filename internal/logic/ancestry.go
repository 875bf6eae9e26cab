// internal/logic/ancestry.go
package logic

import "github.com/solatis/surveylogic/internal/types"

/*
 * Class-ancestry resolution.
 *
 * An element matches a rule category when its own type or any ancestor type
 * equals the category, so a "checkbox" question matches "question" rules.
 *
 * Walk: start with the element's type, then follow ParentName through the
 * registry. Stops at the root sentinel, at a class without parent, or at an
 * unregistered class. None of these are errors: the ancestry collected so far
 * is the answer. A repeated name also stops the walk, which keeps a
 * misconfigured registry from looping forever.
 */

// ResolveAncestry returns typeName followed by its ancestors, nearest first.
// Returns nil for an empty type name.
func ResolveAncestry(registry types.ClassRegistry, typeName string) []string {
	if typeName == "" {
		return nil
	}

	chain := []string{typeName}
	if registry == nil {
		return chain
	}

	seen := map[string]bool{typeName: true}
	current := typeName
	for current != "" && current != types.RootClass {
		info, ok := registry.FindClass(current)
		if !ok {
			break
		}
		current = info.ParentName
		if current == "" || seen[current] {
			break
		}
		seen[current] = true
		chain = append(chain, current)
	}

	return chain
}

// IsKindOf reports whether typeName equals category or descends from it.
func IsKindOf(registry types.ClassRegistry, typeName, category string) bool {
	for _, t := range ResolveAncestry(registry, typeName) {
		if t == category {
			return true
		}
	}
	return false
}
