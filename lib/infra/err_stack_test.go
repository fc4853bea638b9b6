package infra

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

var errSentinel = errors.New("sentinel")

func TestNewErrorStack(t *testing.T) {
	err := NewErrorStack("something broken")
	require.Error(t, err)
	require.Equal(t, "something broken", err.Error())
	require.True(t, strings.Contains(fmt.Sprintf("%+v", err), "TestNewErrorStack"))
}

func TestWrapErrorStack(t *testing.T) {
	require.NoError(t, WrapErrorStack(nil))
	require.NoError(t, WrapErrorStackWithMessage(nil, "ignored"))

	err := WrapErrorStackWithMessage(errSentinel, "op failed")
	require.Error(t, err)
	require.ErrorIs(t, err, errSentinel)
	require.Equal(t, "op failed: sentinel", err.Error())

	err = WrapErrorStack(errSentinel)
	require.ErrorIs(t, err, errSentinel)
	require.Equal(t, "sentinel", err.Error())
}

func TestErrorStackFormat(t *testing.T) {
	err := NewErrorStack("boom")
	require.Equal(t, "boom", fmt.Sprintf("%s", err))
	verbose := fmt.Sprintf("%+v", err)
	require.True(t, strings.HasPrefix(verbose, "boom"))
	require.True(t, strings.Contains(verbose, "err_stack_test.go") || strings.Contains(verbose, "infra"))
}
