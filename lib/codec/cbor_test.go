package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeterministic(t *testing.T) {
	v := map[string]int{"b": 2, "a": 1, "c": 3}

	first, err := Marshal(v)
	require.NoError(t, err)

	for range 10 {
		again, err := Marshal(v)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestDecodeIntoAny(t *testing.T) {
	data, err := Marshal(map[string]any{"foo": "bar"})
	require.NoError(t, err)

	var got any
	require.NoError(t, Unmarshal(data, &got))

	m, ok := got.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "bar", m["foo"])
}
