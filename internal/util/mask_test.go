package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaskEmail(t *testing.T) {
	tests := map[string]string{
		"max@firma.de":       "m…@firma.de",
		"  x@y.z ":           "x@y.z",
		"Jörg.M@kunde.de":    "J…@kunde.de",
		"":                   "",
		"nodomain":           "***",
		"@firma.de":          "***",
		"a\"b@c\"@example.de": "a…@example.de",
	}
	for in, want := range tests {
		assert.Equal(t, want, MaskEmail(in), in)
	}
}
