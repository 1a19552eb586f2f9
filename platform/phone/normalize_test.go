package phone

import "testing"

func TestNormalizeE164(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		region string
		want   string
	}{
		{"national french mobile", "06 12 34 56 78", "FR", "+33612345678"},
		{"already e164", "+33612345678", "FR", "+33612345678"},
		{"default region fallback", "06 12 34 56 78", "", "+33612345678"},
		{"unparseable kept trimmed", "  call me maybe  ", "FR", "call me maybe"},
		{"empty input", "   ", "FR", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeE164(tt.input, tt.region); got != tt.want {
				t.Errorf("NormalizeE164(%q, %q) = %q, want %q", tt.input, tt.region, got, tt.want)
			}
		})
	}
}
