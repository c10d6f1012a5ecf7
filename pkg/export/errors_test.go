package export

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExitCodeMapping(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{nil, 0},
		{ErrConnection, 2},
		{ErrDiskSpace, 3},
		{ErrMemory, 3},
		{ErrFileSystem, 3},
		{ErrDataCorruption, 5},
		{ErrExport, 5},
		{ErrTimeout, 5},
		{ErrConfiguration, 6},
		{ErrAuthentication, 6},
		{ErrSecurity, 6},
		{ErrQuery, 7},
		{ErrPagination, 7},
		{errors.New("unclassified"), 1},
	}
	for _, c := range cases {
		require.Equal(t, c.code, ExitCode(c.err), "error %v", c.err)
	}
}

func TestExitCodeUnwrapsWrappedErrors(t *testing.T) {
	err := fmt.Errorf("%w: creating output file: permission denied", ErrFileSystem)
	require.Equal(t, 3, ExitCode(err))
}

func TestAggregateErrorRequiresNonEmptyList(t *testing.T) {
	require.Nil(t, NewAggregateError(nil))
	require.Nil(t, NewAggregateError([]error{}))

	err := NewAggregateError([]error{errors.New("a"), errors.New("b")})
	require.Error(t, err)
	require.Equal(t, "a; b", err.Error())
}

func TestAggregateErrorUnwrapsToMembers(t *testing.T) {
	err := NewAggregateError([]error{fmt.Errorf("%w: node:X", ErrPagination)})
	require.ErrorIs(t, err, ErrPagination)
	require.Equal(t, 7, ExitCode(err))
}
