package shared

import (
	"bytes"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestNormalizeISRC(t *testing.T) {
	tc := []struct {
		name string
		isrc string
		want string
	}{
		{name: "already normalized", isrc: "USRC17607839", want: "USRC17607839"},
		{name: "lower case", isrc: "usrc17607839", want: "USRC17607839"},
		{name: "display form with hyphens", isrc: "US-RC1-76-07839", want: "USRC17607839"},
		{name: "surrounding whitespace", isrc: "  GBAYE0601498 ", want: "GBAYE0601498"},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeISRC(tt.isrc); got != tt.want {
				t.Errorf("NormalizeISRC() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestValidISRC(t *testing.T) {
	tc := []struct {
		isrc string
		want bool
	}{
		{"USRC17607839", true},
		{"GBAYE0601498", true},
		{"ZZZZZZZZZZZZ", false},
		{"USRC1760783", false},
		{"USRC176078390", false},
		{"usrc17607839", false},
		{"", false},
	}

	for _, tt := range tc {
		t.Run(tt.isrc, func(t *testing.T) {
			if got := ValidISRC(tt.isrc); got != tt.want {
				t.Errorf("ValidISRC(%q) = %v, want %v", tt.isrc, got, tt.want)
			}
		})
	}
}

func TestLogger(t *testing.T) {
	t.Run("ParseLogLevel", func(t *testing.T) {
		if got := ParseLogLevel("DEBUG"); got != log.DebugLevel {
			t.Errorf("expected debug level, got %v", got)
		}
		if got := ParseLogLevel("bogus"); got != log.InfoLevel {
			t.Errorf("expected info level fallback, got %v", got)
		}
	})

	t.Run("WithLogger adds fields", func(t *testing.T) {
		var buf bytes.Buffer
		logger := WithLogger(NewLogger(&buf), "component", "catalog")
		logger.Info("hello")

		if !strings.Contains(buf.String(), "component=catalog") {
			t.Errorf("expected child logger fields in output, got %q", buf.String())
		}
	})
}
