package security

import (
	"fmt"
	"regexp"
	"strings"
)

// Input length constraints
const (
	MaxNicknameLength = 50
	MinNameLength     = 1
	JoinCodeLength    = 4
)

var (
	// Join codes are 4 uppercase alphanumerics, same alphabet for player and
	// accessory codes (they live in separate lookup fields, so they cannot
	// be confused with each other).
	joinCodeRegex = regexp.MustCompile(`^[A-Z0-9]{4}$`)
	// Nickname validation - Unicode letters, digits, spaces, apostrophes,
	// hyphens, underscores, dots
	nameRegex = regexp.MustCompile(`^[\p{L}\p{N}\s'\-_.]+$`)
	// Dangerous characters that could be used for injection attacks
	dangerousCharsRegex = regexp.MustCompile(`[<>{}[\]\\;|&$()` + "`" + `]`)
)

// ValidateJoinCode normalizes and validates a player or accessory join code.
func ValidateJoinCode(code string) (string, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return "", fmt.Errorf("code cannot be empty")
	}
	if !joinCodeRegex.MatchString(code) {
		return "", fmt.Errorf("invalid code format (expected %d uppercase letters/digits)", JoinCodeLength)
	}
	return code, nil
}

// ValidateNickname validates a player display name with length and character
// constraints. Returns the sanitized name.
func ValidateNickname(name string) (string, error) {
	name = strings.TrimSpace(name)

	if name == "" {
		return "", fmt.Errorf("nickname cannot be empty")
	}
	if len(name) < MinNameLength {
		return "", fmt.Errorf("nickname too short (min %d characters)", MinNameLength)
	}
	if len(name) > MaxNicknameLength {
		return "", fmt.Errorf("nickname too long (max %d characters)", MaxNicknameLength)
	}
	if !nameRegex.MatchString(name) {
		return "", fmt.Errorf("nickname contains invalid characters (allowed: letters, numbers, spaces, apostrophes, hyphens, underscores, dots)")
	}
	if dangerousCharsRegex.MatchString(name) {
		return "", fmt.Errorf("nickname contains potentially dangerous characters")
	}
	for _, r := range name {
		if r < 32 || r == 127 {
			return "", fmt.Errorf("nickname contains control characters")
		}
	}

	return name, nil
}
