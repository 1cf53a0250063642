package strutil

import "testing"

func TestVercmp(t *testing.T) {
	for _, tt := range []struct{ a, b string; want int }{
		{"1.0", "1.0", 0},
		{"1.0", "2.0", -1},
		{"2.0", "1.0", 1},
		{"1.0.1", "1.0", 1},
		{"1.0", "1.0.1", -1},
		{"1.0a", "1.0", 1},     // a present trailing segment beats a missing one
		{"1.0", "1.0a", -1},
		{"5.5p1", "5.5p1", 0},
		{"5.5p1", "5.5p2", -1},
		{"5.5p10", "5.5p1", 1},
		{"10xyz", "10.1xyz", -1},
		{"xyz10", "xyz10", 0},
		{"xyz10", "xyz10.1", -1},
		{"xyz.4", "xyz.4", 0},
		{"xyz.4", "8", -1},
		{"8", "xyz.4", 1},
		{"00800", "800", 0}, // leading zeros stripped before magnitude compare
	} {
		if got := Vercmp(tt.a, tt.b); got != tt.want {
			t.Errorf("Vercmp(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestVercmpAntisymmetric(t *testing.T) {
	pairs := [][2]string{
		{"1.2.3", "1.2.4"},
		{"2.0", "1.99"},
		{"1.0-r1", "1.0-r2"},
		{"a", "b"},
		{"1.0", "1.0"},
	}
	for _, p := range pairs {
		a, b := p[0], p[1]
		if Vercmp(a, b) != -Vercmp(b, a) {
			t.Errorf("Vercmp(%q,%q)=%d, Vercmp(%q,%q)=%d, want negation", a, b, Vercmp(a, b), b, a, Vercmp(b, a))
		}
		if Vercmp(a, a) != 0 {
			t.Errorf("Vercmp(%q,%q) = %d, want 0", a, a, Vercmp(a, a))
		}
	}
}
