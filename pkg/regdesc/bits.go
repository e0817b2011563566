package regdesc

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// BitRange is an inclusive range of bits, Msb >= Lsb.
type BitRange struct {
	Msb int
	Lsb int
}

// ParseBitRange parses a bit range written either as "msb:lsb" or as a
// single bit index.
func ParseBitRange(s string) (BitRange, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return BitRange{}, errors.New("empty bit range")
	}
	msbs, lsbs := s, s
	if i := strings.IndexByte(s, ':'); i >= 0 {
		msbs, lsbs = s[:i], s[i+1:]
	}
	msb, err := strconv.Atoi(strings.TrimSpace(msbs))
	if err != nil {
		return BitRange{}, errors.Errorf("invalid bit range %q", s)
	}
	lsb, err := strconv.Atoi(strings.TrimSpace(lsbs))
	if err != nil {
		return BitRange{}, errors.Errorf("invalid bit range %q", s)
	}
	if msb < 0 || lsb < 0 || msb > 63 {
		return BitRange{}, errors.Errorf("invalid bit range %q: out of range", s)
	}
	if msb < lsb {
		return BitRange{}, errors.Errorf("invalid bit range %q: msb < lsb", s)
	}
	return BitRange{Msb: msb, Lsb: lsb}, nil
}

// Width returns the number of bits in the range.
func (b BitRange) Width() int {
	return b.Msb - b.Lsb + 1
}

// Mask returns the mask of the range, not shifted.
func (b BitRange) Mask() uint64 {
	if b.Width() >= 64 {
		return ^uint64(0)
	}
	return (uint64(1) << uint(b.Width())) - 1
}

// Shift returns the range moved up by n bits.
func (b BitRange) Shift(n int) BitRange {
	return BitRange{Msb: b.Msb + n, Lsb: b.Lsb + n}
}

// Overlaps reports whether b and c share at least one bit.
func (b BitRange) Overlaps(c BitRange) bool {
	return b.Lsb <= c.Msb && c.Lsb <= b.Msb
}

func (b BitRange) String() string {
	if b.Msb == b.Lsb {
		return strconv.Itoa(b.Lsb)
	}
	return fmt.Sprintf("%d:%d", b.Msb, b.Lsb)
}

// Access is a software or hardware access mode, as spelled in the
// description (e.g. "rw", "ro", "rw1c", "hro", "hrw").
type Access string

var swAccessModes = map[Access]struct{ read, write bool }{
	"ro":    {true, false},
	"rc":    {true, false},
	"rw":    {true, true},
	"r0w1c": {true, true},
	"rw1s":  {true, true},
	"rw1c":  {true, true},
	"rw0c":  {true, true},
	"wo":    {false, true},
	"none":  {false, false},
}

var hwAccessModes = map[Access]struct{ read, write bool }{
	"hro":  {true, false},
	"hrw":  {true, true},
	"hwo":  {false, true},
	"none": {false, false},
}

// ParseSwAccess validates a software access mode, the empty string
// means the mode was not specified.
func ParseSwAccess(s string) (Access, error) {
	a := Access(strings.ToLower(strings.TrimSpace(s)))
	if a == "" {
		return a, nil
	}
	if _, ok := swAccessModes[a]; !ok {
		return "", errors.Errorf("unknown swaccess %q", s)
	}
	return a, nil
}

// ParseHwAccess validates a hardware access mode.
func ParseHwAccess(s string) (Access, error) {
	a := Access(strings.ToLower(strings.TrimSpace(s)))
	if a == "" {
		return a, nil
	}
	if _, ok := hwAccessModes[a]; !ok {
		return "", errors.Errorf("unknown hwaccess %q", s)
	}
	return a, nil
}

// IsSet reports whether the access mode was specified.
func (a Access) IsSet() bool {
	return a != ""
}

// CanRead reports whether the access mode allows reads.
func (a Access) CanRead() bool {
	if m, ok := swAccessModes[a]; ok {
		return m.read
	}
	return hwAccessModes[a].read
}

// CanWrite reports whether the access mode allows writes.
func (a Access) CanWrite() bool {
	if m, ok := swAccessModes[a]; ok {
		return m.write
	}
	return hwAccessModes[a].write
}
