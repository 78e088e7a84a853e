package id

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewProducesSetIdentifier(t *testing.T) {
	a := New()
	require.True(t, a.IsSet())
	require.NotEmpty(t, a.String())
}

func TestClearedIdentifiersAreEqual(t *testing.T) {
	var a, b Identifier
	require.True(t, a.Equal(b))
	require.False(t, a.IsSet())
}

func TestSetAndClearedAreNeverEqual(t *testing.T) {
	a := New()
	var b Identifier
	require.False(t, a.Equal(b))
	require.False(t, b.Equal(a))
}

func TestEqualCompareSameBits(t *testing.T) {
	a := New()
	b, err := Parse(a.String())
	require.NoError(t, err)
	require.True(t, a.Equal(b))
}

func TestCloneAndClear(t *testing.T) {
	a := New()
	clone := a.Clone()
	require.True(t, a.Equal(clone))

	cleared := a.Clear()
	require.False(t, cleared.IsSet())
	require.False(t, a.Equal(cleared))
}

func TestParseRejectsInvalidString(t *testing.T) {
	_, err := Parse("not-a-uuid")
	require.Error(t, err)
}
