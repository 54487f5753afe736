package utils

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateCertificateID(t *testing.T) {
	pattern := regexp.MustCompile(`^CRT-\d{6}-\d{6}$`)

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id, err := GenerateCertificateID()
		require.NoError(t, err)
		assert.Regexp(t, pattern, id)
		seen[id] = true
	}
	// Collisions over 100 draws would indicate a broken generator.
	assert.Greater(t, len(seen), 99)
}

func TestGenerateEtag(t *testing.T) {
	first, err := GenerateEtag()
	require.NoError(t, err)
	second, err := GenerateEtag()
	require.NoError(t, err)

	assert.Len(t, first, 40)
	assert.Regexp(t, `^[0-9a-f]{40}$`, first)
	assert.NotEqual(t, first, second)
}
