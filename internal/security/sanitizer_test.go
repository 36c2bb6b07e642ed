package security

import (
	"strings"
	"testing"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"Plain", "  Ali   Valiyev ", "Ali Valiyev"},
		{"Tags stripped", "<b>Ali</b> <script>x</script>Valiyev", "Ali Valiyev"},
		{"Ampersand kept", "Tom & Jerry", "Tom & Jerry"},
		{"Null bytes", "Ali\x00 Valiyev", "Ali Valiyev"},
		{"Unicode", "Сардор Каримов", "Сардор Каримов"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeName(tt.input); got != tt.want {
				t.Errorf("SanitizeName(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSanitizeString_LongMultibyte(t *testing.T) {
	input := strings.Repeat("ж", 600)

	got := SanitizeString(input)
	if len(got) > 1000 {
		t.Errorf("len = %d, want <= 1000", len(got))
	}
	if !strings.HasPrefix(input, got) || strings.ContainsRune(got, '�') {
		t.Error("truncation split a character")
	}
}

func TestEscapeHTML(t *testing.T) {
	if got := EscapeHTML("<b>A&B</b>"); got != "&lt;b&gt;A&amp;B&lt;/b&gt;" {
		t.Errorf("EscapeHTML() = %q", got)
	}
}

func TestNormalizeChannelUsername(t *testing.T) {
	tests := []struct {
		input  string
		want   string
		wantOK bool
	}{
		{"@my_channel", "@my_channel", true},
		{"my_channel", "@my_channel", true},
		{"https://t.me/my_channel", "@my_channel", true},
		{"t.me/my_channel/", "@my_channel", true},
		{"  @MyChannel  ", "@MyChannel", true},
		{"@ab", "", false},
		{"@bad name", "", false},
		{"https://example.com/my_channel", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		got, ok := NormalizeChannelUsername(tt.input)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("NormalizeChannelUsername(%q) = (%q, %v), want (%q, %v)", tt.input, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestValidateFile(t *testing.T) {
	if !ValidateFileType("Keys.XLSX", AllowedKeyFileTypes) {
		t.Error("xlsx should be allowed")
	}
	if ValidateFileType("keys.xls", AllowedKeyFileTypes) {
		t.Error("legacy xls cannot be read and should be rejected")
	}
	if ValidateFileType("keys.csv", AllowedKeyFileTypes) {
		t.Error("csv should be rejected")
	}
	if ValidateFileSize(0, 100) || ValidateFileSize(101, 100) || !ValidateFileSize(100, 100) {
		t.Error("ValidateFileSize() bounds are wrong")
	}
}
