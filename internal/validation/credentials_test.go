package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidatePassword(t *testing.T) {
	cases := []struct {
		name     string
		password string
		wantErr  string
	}{
		{"valid", "Password123!abc", ""},
		{"too short", "Pw1!short", "at least 12 characters"},
		{"too long", strings.Repeat("Aa1!", 40), "not exceed 128"},
		{"no uppercase", "password123!abc", "uppercase"},
		{"no lowercase", "PASSWORD123!ABC", "lowercase"},
		{"no digit", "Password!!!!abcd", "digit"},
		{"no special", "Password1234abcd", "special character"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidatePassword(tc.password)
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tc.wantErr)
		})
	}
}

func TestValidateUsername(t *testing.T) {
	cases := []struct {
		name     string
		username string
		wantErr  bool
	}{
		{"valid", "romeiro_f", false},
		{"valid with hyphen", "dev-user2", false},
		{"too short", "ab", true},
		{"too long", strings.Repeat("a", 31), true},
		{"illegal characters", "user name!", true},
		{"leading underscore", "_user", true},
		{"trailing hyphen", "user-", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateUsername(tc.username)
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateEmail(t *testing.T) {
	assert.NoError(t, ValidateEmail("dev@example.com"))
	assert.NoError(t, ValidateEmail("first.last+tag@sub.example.co"))
	assert.Error(t, ValidateEmail("not-an-email"))
	assert.Error(t, ValidateEmail("missing@tld"))
	assert.Error(t, ValidateEmail(strings.Repeat("a", 250)+"@x.com"))
}
