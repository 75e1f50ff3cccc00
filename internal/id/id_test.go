package id

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_Uniqueness(t *testing.T) {
	ids := make(map[string]bool)
	count := 1000

	for i := 0; i < count; i++ {
		id, err := Generate("test")
		require.NoError(t, err)
		assert.False(t, ids[id], "ID should be unique: %s", id)
		ids[id] = true
	}

	assert.Len(t, ids, count)
}

func TestNewMediaID_Format(t *testing.T) {
	id, err := NewMediaID()
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(id, MediaPrefix+"-"), "got %q", id)
	// Prefix, hyphen, and the default 21 character NanoID.
	assert.Len(t, id, len(MediaPrefix)+1+21)
}
