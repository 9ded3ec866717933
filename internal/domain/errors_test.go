package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKindErrors(t *testing.T) {
	err := Invalidf("bad value '%s'", "x")
	require.Equal(t, "bad value 'x'", err.Error())
	require.ErrorIs(t, err, ErrInvalid)
	require.True(t, IsRowError(err))

	wrapped := fmt.Errorf("row 3: %w", IdentityConflictf("partner %d", 7))
	require.ErrorIs(t, wrapped, ErrIdentityConflict)
	require.True(t, IsRowError(wrapped))

	require.ErrorIs(t, NotFoundf("x"), ErrNotFound)
	require.ErrorIs(t, Conflictf("x"), ErrConflict)
	require.False(t, IsRowError(Conflictf("x")))
	require.False(t, IsRowError(errors.New("connection refused")))
}
