package engine

import (
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/railops/phaseline/internal/core/order"
	"github.com/railops/phaseline/internal/core/phase"
)

// PassesConditions evaluates a conjunction of typed predicates against
// an item and its current phase. An empty list passes. Conditions with
// an unrecognized field pass vacuously; validation keeps such
// conditions out of the registry, this only covers data predating the
// current field set.
func PassesConditions(conditions []phase.Condition, item order.Item, currentPhase string) bool {
	for _, c := range conditions {
		if !passes(c, item, currentPhase) {
			return false
		}
	}
	return true
}

func passes(c phase.Condition, item order.Item, currentPhase string) bool {
	switch c.Field {
	case phase.FieldItemTag:
		matched := hasMatchingTag(item.Tags, c.Value)
		if c.Operator == phase.OpExcludes {
			return !matched
		}
		return matched

	case phase.FieldItemType:
		return compare(item.Type, c.Value, c.Operator)

	case phase.FieldTTRPhase:
		return compare(currentPhase, c.Value, c.Operator)

	case phase.FieldTimetablePhase:
		return compare(item.TimetablePhase, c.Value, c.Operator)
	}

	return true
}

func compare(have, want string, op phase.ConditionOperator) bool {
	equal := have == want
	if op == phase.OpNotEquals {
		return !equal
	}
	return equal
}

// hasMatchingTag matches case-insensitively. Values containing glob
// metacharacters are matched as doublestar patterns against each tag.
func hasMatchingTag(tags []string, value string) bool {
	if isPattern(value) {
		pattern := strings.ToLower(value)
		for _, tag := range tags {
			if ok, err := doublestar.Match(pattern, strings.ToLower(tag)); err == nil && ok {
				return true
			}
		}
		return false
	}

	for _, tag := range tags {
		if strings.EqualFold(tag, value) {
			return true
		}
	}
	return false
}

func isPattern(value string) bool {
	return strings.ContainsAny(value, "*?[")
}
