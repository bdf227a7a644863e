package textutil

import "testing"

func TestDecodeEntities(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"Tom &amp; Jerry", "Tom & Jerry"},
		{"&lt;b&gt;", "<b>"},
		{"Ingenier&#237;a", "Ingeniería"},
		{"caf&#xE9;", "café"},
		{"it&#x2019;s", "it’s"},
		{"&quot;hi&quot; &apos;x&apos;", `"hi" 'x'`},
		{"&bogus; stays", "&bogus; stays"},
		{"&notanentity;", "&notanentity;"},
		{"R&D &copy2024", "R&D &copy2024"},
		{"Terms &amp conditions", "Terms &amp conditions"},
		{"&copy; 2024", "© 2024"},
		{"&semi;", ";"},
		{"&#;", "&#;"},
		{"plain text", "plain text"},
	}
	for _, c := range cases {
		if got := DecodeEntities(c.in); got != c.want {
			t.Errorf("DecodeEntities(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestDecodeEntitiesIdempotentWithoutEntities(t *testing.T) {
	inputs := []string{"", "hello world", "Madrid, España", "a < b > c", "50% off"}
	for _, in := range inputs {
		once := DecodeEntities(in)
		if once != in {
			t.Errorf("DecodeEntities(%q) = %q, want unchanged", in, once)
		}
		if twice := DecodeEntities(once); twice != once {
			t.Errorf("DecodeEntities not idempotent on %q: %q", in, twice)
		}
	}
}

func TestStripHTML(t *testing.T) {
	in := "<p>Senior&nbsp;<b>Go</b> developer</p>\n\n<ul><li>Remote</li></ul>"
	got := StripHTML(&in)
	if got == nil {
		t.Fatal("StripHTML returned nil for non-nil input")
	}
	want := "Senior Go developer Remote"
	if *got != want {
		t.Errorf("StripHTML = %q, want %q", *got, want)
	}
}

func TestStripHTMLDecodesEncodedMarkup(t *testing.T) {
	in := "&lt;p&gt;Hello &amp; welcome&lt;/p&gt;"
	got := StripHTML(&in)
	if *got != "Hello & welcome" {
		t.Errorf("StripHTML = %q, want %q", *got, "Hello & welcome")
	}
}

func TestStripHTMLNil(t *testing.T) {
	if StripHTML(nil) != nil {
		t.Error("StripHTML(nil) should return nil")
	}
}
