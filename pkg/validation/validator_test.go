package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"RewardCardPlatform/pkg/errors"
)

func TestValidator(t *testing.T) {
	v := NewValidator()

	tests := []struct {
		name    string
		err     error
		wantErr bool
		details string
	}{
		{"required ok", v.ValidateRequired("Kiss Anna", "name"), false, ""},
		{"required blank", v.ValidateRequired("   ", "name"), true, "name is required"},
		{"enum ok", v.ValidateEnum("gold", []string{"basic", "gold"}, "cardType"), false, ""},
		{"enum unknown", v.ValidateEnum("silver", []string{"basic", "gold"}, "cardType"), true, "cardType must be one of basic, gold"},
		{"enum empty", v.ValidateEnum("", []string{"basic"}, "cardType"), true, "cardType is required"},
		{"length counts runes", v.ValidateStringLength("Műszakvezető", "role", 1, 12), false, ""},
		{"too long", v.ValidateStringLength("abcdef", "name", 1, 5), true, "name must not exceed 5 characters, got: 6"},
		{"too short", v.ValidateStringLength("", "name", 1, 0), true, "name must be at least 1 characters, got: 0"},
		{"identifier ok", v.ValidateIdentifier("a1b2c3d4", "cardId", 64), false, ""},
		{"identifier whitespace", v.ValidateIdentifier("a1 b2", "cardId", 64), true, "cardId contains whitespace"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !tt.wantErr {
				assert.NoError(t, tt.err)
				return
			}
			require.Error(t, tt.err)
			assert.True(t, errors.IsCode(tt.err, errors.ErrValidation))
			e, ok := errors.As(tt.err)
			require.True(t, ok)
			assert.Equal(t, tt.details, e.Details)
		})
	}
}
