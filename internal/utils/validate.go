package utils

import (
	"regexp"
	"strings"
)

// PasswordSymbols lists the characters that satisfy the symbol rule.
const PasswordSymbols = "#?!@$ %^&*-"

// PasswordMinLen is the minimum password length.
const PasswordMinLen = 6

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]{2,}$`)

// ValidEmail reports whether s looks like local@domain.tld.
func ValidEmail(s string) bool {
	return emailPattern.MatchString(s)
}

// ValidPassword reports whether s has at least PasswordMinLen characters and
// contains an ASCII uppercase letter, lowercase letter, digit and one of
// PasswordSymbols.
func ValidPassword(s string) bool {
	if len([]rune(s)) < PasswordMinLen || strings.ContainsAny(s, "\n\r") {
		return false
	}
	var upper, lower, digit, symbol bool
	for _, r := range s {
		switch {
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= '0' && r <= '9':
			digit = true
		case strings.ContainsRune(PasswordSymbols, r):
			symbol = true
		}
	}
	return upper && lower && digit && symbol
}
