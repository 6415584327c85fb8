package member

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAllowAll(t *testing.T) {
	c, err := New("allow_all", nil)
	require.NoError(t, err)
	ok, err := c.Allowed(context.Background(), "anyone")
	require.NoError(t, err)
	require.True(t, ok)
}

func TestDefaultType(t *testing.T) {
	c, err := New("", nil)
	require.NoError(t, err)
	ok, err := c.Allowed(context.Background(), "anyone")
	require.NoError(t, err)
	require.True(t, ok)
}

func TestStaticChecker(t *testing.T) {
	c, err := New("static", map[string]interface{}{"users": []string{"u1", " u2 "}})
	require.NoError(t, err)

	ok, err := c.Allowed(context.Background(), "u1")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = c.Allowed(context.Background(), "u2")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = c.Allowed(context.Background(), "u3")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestUnknownType(t *testing.T) {
	_, err := New("ldap", nil)
	require.Error(t, err)
}
