package util

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGetenvStr(t *testing.T) {
	t.Setenv("X_STR", "valor")
	require.Equal(t, "valor", GetenvStr("X_STR", "def"))
	require.Equal(t, "def", GetenvStr("X_STR_MISSING", "def"))
}

func TestGetenvInt(t *testing.T) {
	t.Setenv("X_INT", "8")
	require.Equal(t, 8, GetenvInt("X_INT", 2))

	t.Setenv("X_BAD", "-3")
	require.Equal(t, 2, GetenvInt("X_BAD", 2))

	t.Setenv("X_NAN", "nope")
	require.Equal(t, 2, GetenvInt("X_NAN", 2))
	require.Equal(t, 5, GetenvInt("X_INT_MISSING", 5))
}
