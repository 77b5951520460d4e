package security_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tripleaaa123/amongusfr/internal/security"
)

func TestValidateJoinCode(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"valid uppercase", "AB12", "AB12", false},
		{"lowercase normalized", "ab12", "AB12", false},
		{"surrounding spaces", "  AB12  ", "AB12", false},
		{"digits only", "1234", "1234", false},
		{"empty", "", "", true},
		{"too short", "AB1", "", true},
		{"too long", "AB123", "", true},
		{"punctuation", "AB-1", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := security.ValidateJoinCode(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidateNickname(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"simple", "Alice", "Alice", false},
		{"with spaces", "Alice B", "Alice B", false},
		{"trimmed", "  Alice  ", "Alice", false},
		{"unicode letters", "Héloïse", "Héloïse", false},
		{"apostrophe", "O'Brien", "O'Brien", false},
		{"digits and dots", "player.2", "player.2", false},
		{"empty", "", "", true},
		{"whitespace only", "   ", "", true},
		{"too long", strings.Repeat("a", 51), "", true},
		{"angle brackets", "<script>", "", true},
		{"shell metacharacters", "a;b|c", "", true},
		{"control characters", "a\x00b", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := security.ValidateNickname(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
