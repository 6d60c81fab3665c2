package models

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserPassword(t *testing.T) {
	u := &User{}
	require.NoError(t, u.SetPassword("s3cret!"))
	assert.True(t, strings.HasPrefix(u.PasswordHash, "$2"))
	assert.False(t, u.IsLegacyHash())
	assert.True(t, u.CheckPassword("s3cret!"))
	assert.False(t, u.CheckPassword("wrong"))
}

func TestUserLegacyPassword(t *testing.T) {
	u := &User{PasswordHash: LegacyPasswordHash("0190a0c2-salt", "hunter2")}
	assert.True(t, u.IsLegacyHash())
	assert.Len(t, strings.SplitN(u.PasswordHash, ":", 2)[1], 64)
	assert.True(t, u.CheckPassword("hunter2"))
	assert.False(t, u.CheckPassword("hunter3"))

	for _, broken := range []string{":abcd", "salt:not-hex", "salt:"} {
		u.PasswordHash = broken
		assert.False(t, u.CheckPassword("hunter2"), broken)
	}
}

func TestUserPublicOmitsHash(t *testing.T) {
	u := &User{Username: "ada", Email: "ada@example.com", Role: "author", PasswordHash: "x"}
	u.ID = "u1"
	pub := u.Public()
	assert.Equal(t, "u1", pub.ID)
	assert.Equal(t, "author", pub.Role)

	author := u.AuthorProfile()
	assert.Equal(t, "ada", author.Username)
}

func TestBaseModelAssignsID(t *testing.T) {
	m := &BaseModel{}
	require.NoError(t, m.BeforeCreate(nil))
	assert.Len(t, m.ID, 36)

	m.ID = "fixed"
	require.NoError(t, m.BeforeCreate(nil))
	assert.Equal(t, "fixed", m.ID)
}
