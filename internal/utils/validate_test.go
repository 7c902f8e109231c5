package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidPassword(t *testing.T) {
	cases := map[string]bool{
		"Abc123!x":  true,
		"aB3 xyz":   true,
		"Ab1-":      false, // too short
		"abc123!x":  false, // no uppercase
		"ABC123!X":  false, // no lowercase
		"Abcdef!x":  false, // no digit
		"Abc123xyz": false, // no symbol
		"Abc123_x":  false, // underscore is not in the symbol set
		"":          false,
	}
	for in, want := range cases {
		assert.Equal(t, want, ValidPassword(in), "password %q", in)
	}
}

func TestValidEmail(t *testing.T) {
	cases := map[string]bool{
		"a@b.co":           true,
		"jane.doe@mail.io": true,
		"a@b.c":            false,
		"a b@c.com":        false,
		"no-at.com":        false,
		"a@@b.com":         false,
		"":                 false,
	}
	for in, want := range cases {
		assert.Equal(t, want, ValidEmail(in), "email %q", in)
	}
}
