package transform

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestApplyRunsInOrder(t *testing.T) {
	Register("t.order", "a", func(b []byte) ([]byte, error) { return append(b, 'a'), nil })
	Register("t.order", "b", func(b []byte) ([]byte, error) { return append(b, 'b'), nil })

	out, err := Apply("t.order", []byte("x"), []string{"a", "b"})
	require.NoError(t, err)
	require.True(t, bytes.Equal([]byte("xab"), out))

	out, err = Apply("t.order", []byte("x"), []string{"b", "a"})
	require.NoError(t, err)
	require.True(t, bytes.Equal([]byte("xba"), out))
}

func TestResolveUnknown(t *testing.T) {
	_, err := Resolve("t.missing", []string{"a"})
	require.Error(t, err)

	Register("t.known", "a", func(b []byte) ([]byte, error) { return b, nil })
	_, err = Resolve("t.known", []string{"nope"})
	require.Error(t, err)
}

func TestApplyStopsOnError(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	Register("t.err", "fail", func(b []byte) ([]byte, error) { return nil, boom })
	Register("t.err", "count", func(b []byte) ([]byte, error) { calls++; return b, nil })

	_, err := Apply("t.err", []byte("x"), []string{"fail", "count"})
	require.ErrorIs(t, err, boom)
	require.Zero(t, calls)
}

func TestRegisterGuards(t *testing.T) {
	require.Panics(t, func() { Register("", "a", func(b []byte) ([]byte, error) { return b, nil }) })
	require.Panics(t, func() { Register("t.dup", "", func(b []byte) ([]byte, error) { return b, nil }) })
	require.Panics(t, func() { Register("t.dup", "a", nil) })

	Register("t.dup", "a", func(b []byte) ([]byte, error) { return b, nil })
	require.Panics(t, func() { Register("t.dup", "a", func(b []byte) ([]byte, error) { return b, nil }) })
}
