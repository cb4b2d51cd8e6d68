package naming

import "testing"

func TestExported(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"mimeType", "MimeType"},
		{"tool_input", "ToolInput"},
		{"x-forwarded-for", "XForwardedFor"},
		{"Point", "Point"},
		{"a b c", "ABC"},
		{"2dPoint", "N2dPoint"},
		{"", ""},
		{"---", ""},
	}
	for _, c := range cases {
		if got := Exported(c.in); got != c.want {
			t.Fatalf("Exported(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
