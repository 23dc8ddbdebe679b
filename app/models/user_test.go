package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeUsername(t *testing.T) {
	assert.Equal(t, "maria", NormalizeUsername("  Maria "))
	assert.Equal(t, "joao_store", NormalizeUsername("JOAO_STORE"))
	assert.Equal(t, "", NormalizeUsername("   "))
}

func TestNewUserDefaults(t *testing.T) {
	u := NewUser(" Maria ", "")

	assert.Equal(t, "maria", u.Username)
	assert.Equal(t, "maria", u.DisplayName)
	assert.Equal(t, "free", u.Plan)
	assert.Equal(t, PlanStatusActive, u.PlanStatus)
}

func TestNewUserKeepsDisplayName(t *testing.T) {
	u := NewUser("maria", "Loja da Maria")
	assert.Equal(t, "Loja da Maria", u.DisplayName)
}

func TestUserValidateRejectsColonUsername(t *testing.T) {
	u := NewUser("maria:pro", "")
	assert.Error(t, u.Validate())
}

func TestUserValidateRejectsShortUsername(t *testing.T) {
	u := NewUser("m", "")
	assert.Error(t, u.Validate())
}

func TestUserValidateRejectsBadEmail(t *testing.T) {
	u := NewUser("maria", "")
	u.Email = "not-an-email"
	assert.Error(t, u.Validate())

	u.Email = "maria@example.com"
	assert.NoError(t, u.Validate())
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("s3cret")
	require.NoError(t, err)
	require.NotEmpty(t, hash)

	assert.True(t, CheckPasswordHash("s3cret", hash))
	assert.False(t, CheckPasswordHash("wrong", hash))
}

func TestHasPassword(t *testing.T) {
	u := NewUser("maria", "")
	assert.False(t, u.HasPassword())

	hash, err := HashPassword("s3cret")
	require.NoError(t, err)
	u.PasswordHash = hash
	assert.True(t, u.HasPassword())
}
