package textutil

import (
	"regexp"
	"strings"
	"testing"
	"unicode"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"already clean", "Test File", "Test File"},
		{"leading and trailing", "  \n Test File \t", "Test File"},
		{"inner runs", "This   is\n\na\ttest", "This is a test"},
		{"empty", "", ""},
		{"only whitespace", " \r\n\t ", ""},
		{"unicode kept", "  Ünïcødé   text ", "Ünïcødé text"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.input))
		})
	}
}

func TestNormalizeSafe(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Test / File", "Test File"},
		{"  Fake_artist-1.0, v2 ", "Fake_artist-1.0, v2"},
		{"a<b>c:d\"e", "abcde"},
		{"日本語 title", "title"},
		{"tab\tseparated", "tabseparated"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeSafe(tt.input), "input %q", tt.input)
	}
}

func TestJoin(t *testing.T) {
	assert.Equal(t, "Test_File", Join(" Test   File ", false, "_"))
	assert.Equal(t, "Test-File", Join("Test / File", true, "-"))
	assert.Equal(t, "a b", Join("a\n\nb", false, " "))
}

func TestNormalizeProperties(t *testing.T) {
	inputs := []string{
		"x", "  x  y  ", "\t\ta\n\n\nb\r\n", "mixed   nbsp", "Tag1 / Tag2 > Tag3",
		"Üñí  cödé", "!!@@##", strings.Repeat(" ab ", 20),
	}
	allowed := regexp.MustCompile(`^[0-9a-zA-Z\-.,_ ]*$`)

	for _, in := range inputs {
		out := Normalize(in)
		assert.Equal(t, strings.TrimSpace(out), out, "no surrounding whitespace for %q", in)

		prevSpace := false
		for _, r := range out {
			space := unicode.IsSpace(r)
			assert.False(t, space && prevSpace, "double whitespace in %q", out)
			prevSpace = space
		}

		assert.Regexp(t, allowed, NormalizeSafe(in))
	}
}
