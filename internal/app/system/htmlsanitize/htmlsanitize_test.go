package htmlsanitize_test

import (
	"strings"
	"testing"

	"github.com/dalemusser/circlehub/internal/app/system/htmlsanitize"
)

func TestSanitize_Empty(t *testing.T) {
	if got := htmlsanitize.Sanitize("   "); got != "" {
		t.Errorf("expected empty string, got %q", got)
	}
}

func TestSanitize_PlainText(t *testing.T) {
	in := "新歓バーベキュー 持ち物: 飲み物"
	if got := htmlsanitize.Sanitize(in); got != in {
		t.Errorf("expected plain text unchanged, got %q", got)
	}
}

func TestSanitize_RemovesScript(t *testing.T) {
	got := htmlsanitize.Sanitize("<p>Hello</p><script>alert('xss')</script>")
	if got != "<p>Hello</p>" {
		t.Errorf("expected script removed, got %q", got)
	}
}

func TestSanitize_RemovesOnclick(t *testing.T) {
	got := htmlsanitize.Sanitize(`<b onclick="alert(1)">hi</b>`)
	if strings.Contains(got, "onclick") {
		t.Errorf("expected onclick removed, got %q", got)
	}
}

func TestSanitize_RemovesJavascriptHref(t *testing.T) {
	got := htmlsanitize.Sanitize(`<a href="javascript:alert(1)">x</a>`)
	if strings.Contains(got, "javascript:") {
		t.Errorf("expected javascript: href removed, got %q", got)
	}
}

func TestStripTags(t *testing.T) {
	got := htmlsanitize.StripTags("<em>Brass</em> Band")
	if got != "Brass Band" {
		t.Errorf("StripTags: got %q, want %q", got, "Brass Band")
	}
}

func TestStripTags_KeepsAmpersand(t *testing.T) {
	got := htmlsanitize.StripTags("Rock & Roll <script>x()</script>")
	if got != "Rock & Roll " {
		t.Errorf("StripTags: got %q, want %q", got, "Rock & Roll ")
	}
}
