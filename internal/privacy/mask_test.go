package privacy

import "testing"

func TestMask(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"+61412345678", "*********678"},
		{"0412345678", "*******678"},
		{"john@example.com", "*************com"},
		{"abcd", "*bcd"},
		{"abc", "***"},
		{"12", "***"},
		{"x", "***"},
		{"", "***"},
	}
	for _, c := range cases {
		if got := Mask(c.in); got != c.want {
			t.Fatalf("Mask(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestMaskPreservesLength(t *testing.T) {
	for _, in := range []string{"abcd", "+61412345678", "a much longer contact value"} {
		if got := Mask(in); len([]rune(got)) != len([]rune(in)) {
			t.Fatalf("Mask(%q) = %q, length changed", in, got)
		}
	}
}

func TestMaskIsDeterministic(t *testing.T) {
	if Mask("0412345678") != Mask("0412345678") {
		t.Fatalf("Mask is not deterministic")
	}
}
