package randid

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

var idPattern = regexp.MustCompile(`^[a-z0-9]*$`)

func TestGenerate(t *testing.T) {
	for _, length := range []int{0, 1, 4, 6, 12} {
		id := Generate(length)
		assert.Len(t, id, length)
		assert.True(t, idPattern.MatchString(id), "Generate(%d) = %q, want lowercase alphanumeric", length, id)
	}

	assert.Empty(t, Generate(-1))
}

func TestGenerate_Uniqueness(t *testing.T) {
	seen := make(map[string]bool)
	for range 100 {
		seen[Generate(8)] = true
	}

	// 36^8 possible ids; collisions across 100 draws mean broken randomness.
	assert.GreaterOrEqual(t, len(seen), 99)
}
