// Package regmap builds the register map table of a peripheral from its
// description: it assigns byte offsets, expands multiregs into physical
// registers, packs narrow fields, validates the result and exposes the
// ordered set of symbolic constants that generated code is made of.
//
// A Map is immutable once built and can be shared between goroutines.
package regmap

import (
	"sort"
	"strings"

	"github.com/derekparker/trie"

	"github.com/go-regtool/regtool/pkg/regdesc"
)

// Register is a physical register of the map.
type Register struct {
	Name     string
	Desc     string
	Offset   uint64
	SwAccess regdesc.Access
	HwAccess regdesc.Access
	ResVal   uint64
	Fields   []*Field

	// Group is the multireg this register was expanded from, nil for
	// plain registers. Index is the position of the register in the group.
	Group *Group
	Index int
}

// Field is a field of a physical register. Fields of packed multiregs are
// numbered: the k-th instance of field "commit" is "COMMIT_k".
type Field struct {
	Name     string
	Desc     string
	Bits     regdesc.BitRange
	SwAccess regdesc.Access
	ResVal   uint64
	Enum     []regdesc.EnumValue
}

// Group is a multireg after expansion.
type Group struct {
	Name string
	Desc string
	// Count is the number of field instances declared by the description.
	Count int
	// FieldsPerReg is the number of field instances packed in each register.
	FieldsPerReg int
	// Fields are the template fields the instances are derived from.
	Fields    []*regdesc.Field
	Registers []*Register
}

// Stride returns the distance in bytes between consecutive registers of
// the group, 0 for groups of a single register.
func (g *Group) Stride() uint64 {
	if len(g.Registers) < 2 {
		return 0
	}
	return g.Registers[1].Offset - g.Registers[0].Offset
}

// ItemKind identifies a section of the map in emission order.
type ItemKind uint8

const (
	ParamItem ItemKind = iota
	RegWidthItem
	GroupItem
	RegisterItem
)

// Item is one section of generated output: a comment and the symbols
// that follow it.
type Item struct {
	Kind     ItemKind
	Comment  string
	Group    *Group
	Register *Register
	Symbols  []Symbol
}

// Map is the register map table of a block.
type Map struct {
	Name      string
	RegWidth  int
	Params    []regdesc.Param
	Copyright []string
	License   []string
	Source    string

	regs     []*Register
	groups   []*Group
	items    []Item
	symbols  []Symbol
	size     uint64
	byName   map[string]*Register
	byOffset map[uint64]*Register
	groupsBy map[string]*Group
	symsBy   map[string]int
	symIndex *trie.Trie
}

// Prefix returns the prefix of fully qualified symbol names, for example
// "TAGGER_REG_".
func (m *Map) Prefix() string {
	return strings.ToUpper(m.Name) + "_"
}

// RegBytes returns the register width in bytes.
func (m *Map) RegBytes() uint64 {
	return uint64(m.RegWidth / 8)
}

// Size returns the size of the register space in bytes, up to the end of
// the last register.
func (m *Map) Size() uint64 {
	return m.size
}

// Registers returns all registers in offset order.
func (m *Map) Registers() []*Register {
	return append([]*Register(nil), m.regs...)
}

// Groups returns all multireg groups in declaration order.
func (m *Map) Groups() []*Group {
	return append([]*Group(nil), m.groups...)
}

// Items returns the sections of the map in emission order.
func (m *Map) Items() []Item {
	return append([]Item(nil), m.items...)
}

// Register returns the register called name.
func (m *Map) Register(name string) (*Register, bool) {
	r, ok := m.byName[strings.ToUpper(name)]
	return r, ok
}

// Offset returns the byte offset of the register called name.
func (m *Map) Offset(name string) (uint64, bool) {
	r, ok := m.Register(name)
	if !ok {
		return 0, false
	}
	return r.Offset, true
}

// RegisterAt returns the register located at offset.
func (m *Map) RegisterAt(offset uint64) (*Register, bool) {
	r, ok := m.byOffset[offset]
	return r, ok
}

// Group returns the multireg group called name.
func (m *Map) Group(name string) (*Group, bool) {
	g, ok := m.groupsBy[strings.ToUpper(name)]
	return g, ok
}

// Symbols returns every symbol of the map in emission order.
func (m *Map) Symbols() []Symbol {
	return append([]Symbol(nil), m.symbols...)
}

// Symbol looks up a symbol by name, with or without the block prefix.
func (m *Map) Symbol(name string) (Symbol, bool) {
	name = strings.TrimPrefix(strings.ToUpper(name), m.Prefix())
	i, ok := m.symsBy[name]
	if !ok {
		return Symbol{}, false
	}
	return m.symbols[i], true
}

// SymbolsWithPrefix returns, in emission order, the symbols whose name
// starts with prefix. Prefix may start with the whole block prefix, a
// partial block prefix is matched against the short names like any other.
func (m *Map) SymbolsWithPrefix(prefix string) []Symbol {
	prefix = strings.TrimPrefix(strings.ToUpper(prefix), m.Prefix())
	if prefix == "" {
		return m.Symbols()
	}
	names := m.symIndex.PrefixSearch(prefix)
	idx := make([]int, 0, len(names))
	for _, name := range names {
		idx = append(idx, m.symsBy[name])
	}
	sort.Ints(idx)
	r := make([]Symbol, len(idx))
	for i := range idx {
		r[i] = m.symbols[idx[i]]
	}
	return r
}
