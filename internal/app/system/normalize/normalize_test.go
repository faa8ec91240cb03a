package normalize

import "testing"

func TestName(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Tennis Club", "Tennis Club"},
		{"  Tennis   Club  ", "Tennis Club"},
		{"", ""},
		{"   ", ""},
		{"UPPER case", "UPPER case"},
		{"軽音 サークル", "軽音 サークル"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := Name(tt.input); got != tt.want {
				t.Errorf("Name(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNameCI_FoldsCase(t *testing.T) {
	if NameCI("  Brass  Band ") != NameCI("brass band") {
		t.Errorf("NameCI should fold case and whitespace: %q vs %q", NameCI("  Brass  Band "), NameCI("brass band"))
	}
}

func TestInvitationCode(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"ab12cd", "AB12CD"},
		{"  AB12CD  ", "AB12CD"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := InvitationCode(tt.input); got != tt.want {
				t.Errorf("InvitationCode(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestRole(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"admin", "admin"},
		{"ADMIN", "admin"},
		{"  Member  ", "member"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := Role(tt.input); got != tt.want {
				t.Errorf("Role(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestText_KeepsLineBreaks(t *testing.T) {
	in := "  line one\nline two  "
	want := "line one\nline two"
	if got := Text(in); got != want {
		t.Errorf("Text(%q) = %q, want %q", in, got, want)
	}
}
