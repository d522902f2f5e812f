package voice

import "testing"

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"091 23 45 67", "+37491234567"},
		{"091-234-567", "+37491234567"},
		{"+374 91 234567", "+37491234567"},
		{"0037491234567", "+37491234567"},
		{"37491234567", "+37491234567"},
		{"91234567", "+37491234567"},
		{"77123456", "+37477123456"},
		{"+7 915 123 45 67", "+79151234567"},
		{"12345", "12345"},
		{"", ""},
		{"нет", "нет"},
	}
	for _, tt := range tests {
		if got := NormalizePhone(tt.in); got != tt.want {
			t.Errorf("NormalizePhone(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
