package regdesc

import "testing"

func TestParseBitRange(t *testing.T) {
	for _, tc := range []struct {
		in       string
		expected BitRange
		width    int
		mask     uint64
		str      string
	}{
		{"0", BitRange{0, 0}, 1, 0x1, "0"},
		{"31:0", BitRange{31, 0}, 32, 0xffffffff, "31:0"},
		{" 9 : 8 ", BitRange{9, 8}, 2, 0x3, "9:8"},
		{"63:0", BitRange{63, 0}, 64, ^uint64(0), "63:0"},
		{"7:7", BitRange{7, 7}, 1, 0x1, "7"},
	} {
		b, err := ParseBitRange(tc.in)
		if err != nil {
			t.Fatalf("%q: %v", tc.in, err)
		}
		if b != tc.expected {
			t.Errorf("%q: expected %v; got %v", tc.in, tc.expected, b)
		}
		if b.Width() != tc.width {
			t.Errorf("%q: expected width %d; got %d", tc.in, tc.width, b.Width())
		}
		if b.Mask() != tc.mask {
			t.Errorf("%q: expected mask %#x; got %#x", tc.in, tc.mask, b.Mask())
		}
		if b.String() != tc.str {
			t.Errorf("%q: expected %q; got %q", tc.in, tc.str, b.String())
		}
	}

	for _, in := range []string{"", "a", "3:x", "2:5", "64", "-1", "64:0"} {
		if _, err := ParseBitRange(in); err == nil {
			t.Errorf("%q: expected error", in)
		}
	}
}

func TestBitRangeOverlaps(t *testing.T) {
	a := BitRange{7, 4}
	for _, tc := range []struct {
		b        BitRange
		expected bool
	}{
		{BitRange{3, 0}, false},
		{BitRange{4, 4}, true},
		{BitRange{9, 7}, true},
		{BitRange{8, 8}, false},
		{BitRange{31, 0}, true},
	} {
		if got := a.Overlaps(tc.b); got != tc.expected {
			t.Errorf("%v overlaps %v: expected %v; got %v", a, tc.b, tc.expected, got)
		}
		if got := tc.b.Overlaps(a); got != tc.expected {
			t.Errorf("%v overlaps %v: expected %v; got %v", tc.b, a, tc.expected, got)
		}
	}
	if s := a.Shift(4); s != (BitRange{11, 8}) {
		t.Errorf("expected 11:8; got %v", s)
	}
}

func TestAccess(t *testing.T) {
	for _, tc := range []struct {
		in          string
		hw          bool
		read, write bool
	}{
		{"rw", false, true, true},
		{"RO", false, true, false},
		{"wo", false, false, true},
		{"rw1c", false, true, true},
		{"hro", true, true, false},
		{"hrw", true, true, true},
		{"hwo", true, false, true},
	} {
		parse := ParseSwAccess
		if tc.hw {
			parse = ParseHwAccess
		}
		a, err := parse(tc.in)
		if err != nil {
			t.Fatalf("%q: %v", tc.in, err)
		}
		if !a.IsSet() || a.CanRead() != tc.read || a.CanWrite() != tc.write {
			t.Errorf("%q: expected read %v write %v; got %v %v", tc.in, tc.read, tc.write, a.CanRead(), a.CanWrite())
		}
	}

	if a, err := ParseSwAccess(""); err != nil || a.IsSet() {
		t.Errorf("empty access: expected unset; got %q %v", a, err)
	}
	if _, err := ParseSwAccess("hro"); err == nil {
		t.Error("hro is not a software access mode")
	}
	if _, err := ParseHwAccess("rw"); err == nil {
		t.Error("rw is not a hardware access mode")
	}
}
