package phase

import "strings"

// Tag derivation for task deduplication. The engine never stores
// structured dedup keys outside of task tags, so these strings are part
// of the public contract and must stay stable.

// TemplateTag returns the tag identifying tasks instantiated from a
// blueprint.
func TemplateTag(blueprintID string) string {
	return "tpl:" + slug(blueprintID)
}

// PhaseTag returns the tag identifying tasks created for a phase.
func PhaseTag(phaseID string) string {
	return "phase:" + slug(phaseID)
}

// PhaseBucketTag returns the tag identifying the dedup bucket a task
// belongs to within a phase.
func PhaseBucketTag(phaseID, bucketKey string) string {
	return "phase:" + slug(phaseID) + ":bucket:" + slug(bucketKey)
}

// slug lowercases and replaces whitespace so tags stay single-token.
func slug(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.Join(strings.Fields(s), "-")
}
