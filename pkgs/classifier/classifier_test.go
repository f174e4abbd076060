package classifier

import "testing"

func TestOfASCII(t *testing.T) {
	cases := []struct {
		r    rune
		want Flags
	}{
		{' ', Space},
		{'\t', Space},
		{'{', Punctuator},
		{'}', Punctuator},
		{';', Punctuator},
		{'a', Argument},
		{'Z', Argument},
		{'0', Argument},
		{'_', Argument},
		{'"', Argument},
		{'(', Argument},
		{')', Argument},
		{0x00, Forbidden},
		{0x01, Forbidden},
		{0x7F, Forbidden},
	}
	for _, c := range cases {
		if got := Of(c.r); got != c.want {
			t.Errorf("Of(%q) = %#x, want %#x", c.r, got, c.want)
		}
	}
}

func TestOfBidi(t *testing.T) {
	for _, r := range bidiScalars {
		if Of(r)&Bidi == 0 {
			t.Errorf("Of(%U) missing Bidi flag", r)
		}
	}
}

func TestOfNewlinesAreNotArgumentOrSpace(t *testing.T) {
	for _, r := range newlineScalars {
		f := Of(r)
		if f&Argument != 0 {
			t.Errorf("Of(%U) = %#x, newline wrongly classed ARGUMENT", r, f)
		}
		if f&Space != 0 {
			t.Errorf("Of(%U) = %#x, newline wrongly classed SPACE", r, f)
		}
	}
}

func TestNewlineLen(t *testing.T) {
	cases := []struct {
		r    rune
		w    int
		rest []byte
		want int
	}{
		{'\r', 1, []byte("\n"), 2},
		{'\r', 1, []byte("x"), 1},
		{'\n', 1, nil, 1},
		{0x2029, 3, nil, 3},
		{'a', 1, nil, 0},
	}
	for _, c := range cases {
		if got := NewlineLen(c.r, c.w, c.rest); got != c.want {
			t.Errorf("NewlineLen(%q, %d, %q) = %d, want %d", c.r, c.w, c.rest, got, c.want)
		}
	}
}

func TestForbiddenSurrogate(t *testing.T) {
	if Of(0xD800)&Forbidden == 0 {
		t.Error("surrogate half not classed FORBIDDEN")
	}
}
