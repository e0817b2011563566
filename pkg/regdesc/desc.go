// Package regdesc contains the register description model, the canonical
// source from which register maps and their per-language constant sets are
// derived, and the decoders that read it from HJSON, YAML and Starlark files.
package regdesc

// DefaultRegWidth is the register width used when a description omits regwidth.
const DefaultRegWidth = 32

// ValidRegWidth reports whether w is a supported register width.
func ValidRegWidth(w int) bool {
	switch w {
	case 8, 16, 32, 64:
		return true
	}
	return false
}

// Block describes a memory-mapped peripheral: its name, the width of its
// registers and the ordered list of entries that make up its register space.
type Block struct {
	Name     string
	RegWidth int
	Params   []Param
	Entries  []Entry

	// Copyright and License are the copyright and licence lines found in
	// the leading comments of the source, they are reproduced in generated
	// output.
	Copyright []string
	License   []string

	// Source is the name of the file the block was decoded from.
	Source string
}

// Param is a named integer parameter of the block (regtool's param_list).
type Param struct {
	Name    string
	Desc    string
	Default uint64
}

// EntryKind identifies what an Entry in the registers list is.
type EntryKind uint8

const (
	RegisterEntry EntryKind = iota
	MultiregEntry
	SkipToEntry
	ReservedEntry
)

func (k EntryKind) String() string {
	switch k {
	case RegisterEntry:
		return "register"
	case MultiregEntry:
		return "multireg"
	case SkipToEntry:
		return "skipto"
	case ReservedEntry:
		return "reserved"
	}
	return "unknown"
}

// Entry is one element of the registers list of a block.
type Entry struct {
	Kind EntryKind

	// Register is set for RegisterEntry.
	Register *Register
	// Multireg is set for MultiregEntry.
	Multireg *Multireg
	// Offset is the target byte offset of a SkipToEntry.
	Offset uint64
	// Words is the number of registers left unused by a ReservedEntry.
	Words int
}

// Register is a single register.
type Register struct {
	Name      string
	Desc      string
	SwAccess  Access
	HwAccess  Access
	ResVal    uint64
	HasResVal bool
	Fields    []*Field
}

// Multireg is a register template replicated Count times. Count is the
// number of field instances, not the number of physical registers: narrow
// fields are packed several to a register unless Compact is false.
type Multireg struct {
	Register
	Count   int
	CName   string
	Compact bool
}

// Field is a sub-range of bits inside a register.
type Field struct {
	Name      string
	Desc      string
	Bits      BitRange
	SwAccess  Access
	ResVal    uint64
	HasResVal bool
	Enum      []EnumValue
}

// EnumValue is a named value of a field.
type EnumValue struct {
	Name  string
	Desc  string
	Value uint64
}

// RegBytes returns the register width of the block in bytes, which is also
// the stride between consecutive registers.
func (b *Block) RegBytes() uint64 {
	return uint64(b.RegWidth / 8)
}
