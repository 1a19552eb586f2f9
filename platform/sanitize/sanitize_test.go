package sanitize

import "testing"

func TestStripHTML(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"plain text", "plain text"},
		{"<b>bold</b> claim", "bold claim"},
		{"&lt;script&gt;alert(1)&lt;/script&gt;", "alert(1)"},
		{"  padded  ", "padded"},
	}
	for _, tc := range cases {
		if got := StripHTML(tc.in); got != tc.want {
			t.Errorf("StripHTML(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestTextPtr(t *testing.T) {
	if TextPtr(nil) != nil {
		t.Fatal("nil in should be nil out")
	}
	in := "<i>reason</i>"
	got := TextPtr(&in)
	if got == nil || *got != "reason" {
		t.Fatalf("TextPtr = %v", got)
	}
}
