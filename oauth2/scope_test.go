package oauth2_test

import (
	"testing"

	"github.com/jrsteele09/go-oauth2-core/oauth2"
	"github.com/stretchr/testify/require"
)

func TestParseScope_DedupesAndKeepsOrder(t *testing.T) {
	scope := oauth2.ParseScope("read write read  admin")
	require.Equal(t, oauth2.Scope{"read", "write", "admin"}, scope)
}

func TestParseScope_Empty(t *testing.T) {
	require.Empty(t, oauth2.ParseScope(""))
	require.Empty(t, oauth2.ParseScope("   "))
}

func TestScope_Has(t *testing.T) {
	scope := oauth2.ParseScope("read write")
	require.True(t, scope.Has("read"))
	require.False(t, scope.Has("admin"))
}

// Merging never drops a token the scope already holds.
func TestScope_MergeIsMonotonic(t *testing.T) {
	base := oauth2.ParseScope("read")

	merged := base.Merge(oauth2.ParseScope("read write"))
	require.Equal(t, oauth2.Scope{"read", "write"}, merged)

	merged = merged.Merge(oauth2.ParseScope("admin"))
	require.Equal(t, oauth2.Scope{"read", "write", "admin"}, merged)

	// A narrower grant leaves the scope untouched.
	merged = merged.Merge(oauth2.ParseScope("read"))
	require.Equal(t, oauth2.Scope{"read", "write", "admin"}, merged)
}

func TestScope_String(t *testing.T) {
	require.Equal(t, "read write", oauth2.ParseScope("read write").String())
	require.Equal(t, "", oauth2.Scope{}.String())
}
