package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlag(t *testing.T) {
	tests := []struct {
		raw     string
		want    bool
		wantErr bool
	}{
		{"", false, false},
		{"1", true, false},
		{"on", true, false},
		{"TRUE", true, false},
		{" yes ", true, false},
		{"0", false, false},
		{"off", false, false},
		{"no", false, false},
		{"false", false, false},
		{"maybe", false, true},
		{"2", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseFlag(tt.raw)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidFlag)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPasswordPolicy_Check(t *testing.T) {
	t.Run("default policy only checks length", func(t *testing.T) {
		p := DefaultPasswordPolicy()
		assert.Empty(t, p.Check("abcdefgh"))
		assert.Len(t, p.Check("abc"), 1)
	})

	t.Run("length counts characters not bytes", func(t *testing.T) {
		p := PasswordPolicy{MinLength: 8}
		assert.Empty(t, p.Check("árvíztűrő"))
	})

	t.Run("strict policy", func(t *testing.T) {
		p := PasswordPolicy{MinLength: 8, RequireMixedCase: true, RequireNumbers: true, RequireSymbols: true}
		assert.Empty(t, p.Check("Str0ng!Pass1"))
		assert.Len(t, p.Check("lowercaseonly"), 3)
	})

	t.Run("rejects input bcrypt would truncate", func(t *testing.T) {
		p := DefaultPasswordPolicy()
		msgs := p.Check(strings.Repeat("a", 73))
		require.Len(t, msgs, 1)
		assert.Contains(t, msgs[0], "72")
	})
}

func TestValidator_StructMessages(t *testing.T) {
	v := NewValidator(DefaultPasswordPolicy())
	verr := newValidationError(nil)

	v.Struct(UserInput{Name: strings.Repeat("n", 256), Email: "", IsAdmin: "nope"}, verr)

	assert.Equal(t, "A(z) név nem lehet hosszabb 255 karakternél.", verr.First("name"))
	assert.Equal(t, "A(z) e-mail cím megadása kötelező.", verr.First("email"))
	assert.Equal(t, "A(z) admin jogosultság értéke igaz vagy hamis kell legyen.", verr.First("is_admin"))
	assert.False(t, verr.Has("password"))
}

func TestValidator_NameLengthCountsRunes(t *testing.T) {
	v := NewValidator(DefaultPasswordPolicy())
	verr := newValidationError(nil)

	v.Struct(UserInput{Name: strings.Repeat("ő", 255), Email: "a@example.com"}, verr)

	assert.False(t, verr.Has("name"))
}

func TestValidator_Password(t *testing.T) {
	v := NewValidator(DefaultPasswordPolicy())

	t.Run("required when creating", func(t *testing.T) {
		verr := newValidationError(nil)
		v.Password("", "", true, verr)
		assert.Equal(t, "A(z) jelszó megadása kötelező.", verr.First("password"))
	})

	t.Run("optional when updating", func(t *testing.T) {
		verr := newValidationError(nil)
		v.Password("", "", false, verr)
		assert.NoError(t, verr.errOrNil())
	})

	t.Run("confirmation must match", func(t *testing.T) {
		verr := newValidationError(nil)
		v.Password("Str0ng!Pass1", "Str0ng!Pass2", true, verr)
		assert.Equal(t, "A(z) jelszó megerősítése nem egyezik.", verr.First("password"))
	})
}

func TestValidationError_Error(t *testing.T) {
	verr := newValidationError(nil)
	verr.Add("name", "x")
	verr.Add("email", "y")

	assert.Equal(t, "validation failed: email, name", verr.Error())
}
