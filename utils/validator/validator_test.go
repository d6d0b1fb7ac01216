package validator

import (
	"errors"
	"testing"

	"fap-client/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validProfile() domain.Profile {
	return domain.Profile{
		Username:    "jdoe",
		Email:       "j@x.com",
		Password:    "secret12",
		City:        "Berlin",
		ZipCode:     "10115",
		Street:      "Main",
		HouseNumber: "1",
		Mobile:      "+49 170 0000000",
	}
}

func TestValidator_Profile(t *testing.T) {
	v := New()

	tests := []struct {
		name   string
		mutate func(p *domain.Profile)
		field  string
	}{
		{name: "valid", mutate: func(*domain.Profile) {}},
		{name: "short username", mutate: func(p *domain.Profile) { p.Username = "jd" }, field: "username"},
		{name: "bad email", mutate: func(p *domain.Profile) { p.Email = "not-an-email" }, field: "email"},
		{name: "password without digit", mutate: func(p *domain.Profile) { p.Password = "abcdefgh" }, field: "password"},
		{name: "missing city", mutate: func(p *domain.Profile) { p.City = "" }, field: "city"},
		{name: "missing mobile", mutate: func(p *domain.Profile) { p.Mobile = "" }, field: "mobile"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validProfile()
			tt.mutate(&p)

			err := v.Validate(p)
			if tt.field == "" {
				assert.NoError(t, err)
				return
			}
			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Contains(t, verr.Errors, tt.field)
		})
	}
}

func TestIsPassword(t *testing.T) {
	assert.True(t, IsPassword("abc12345"))
	assert.True(t, IsPassword("Pa$$w0rd!"))
	assert.False(t, IsPassword("abc1234"), "too short")
	assert.False(t, IsPassword("12345678"), "no letter")
	assert.False(t, IsPassword("abcdefgh"), "no digit")
	assert.False(t, IsPassword("abc 12345"), "space not allowed")
}

func TestValidator_IsEmail(t *testing.T) {
	v := New()
	assert.True(t, v.IsEmail("a.b@x.com"))
	assert.False(t, v.IsEmail("a.b"))
	assert.False(t, v.IsEmail(""))
}

func TestValidationError_ErrorIsSorted(t *testing.T) {
	err := &ValidationError{Errors: map[string]string{"username": "u bad", "email": "e bad"}}
	assert.Equal(t, "validation failed: e bad, u bad", err.Error())
}
