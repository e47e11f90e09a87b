package pattern

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestUserMatcher_Local ports original_source/src/pattern/user.rs's
// test_username_match (a Username pattern matching a mention's username)
// and additionally exercises the Local leaf, which that mention's domain
// suffix decides: a remote acct like "thegx@instance.test" is not local,
// a bare "thegx" is.
func TestUserMatcher_Local(t *testing.T) {
	username := "thegx"
	usernamePattern := UserPattern{Username: &StringPattern{Word: &username}}
	matcher, err := usernamePattern.Compile()
	require.NoError(t, err)

	remote := NewUserMatcherInputFromAcct("thegx@instance.test")
	assert.True(t, matcher.IsMatch(remote))

	local := NewUserMatcherInputFromAcct("thegx")
	assert.True(t, matcher.IsMatch(local))

	isLocal := true
	localPattern := UserPattern{Local: &isLocal}
	localMatcher, err := localPattern.Compile()
	require.NoError(t, err)

	assert.True(t, localMatcher.IsMatch(local))
	assert.False(t, localMatcher.IsMatch(remote))
}
