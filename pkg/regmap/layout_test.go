package regmap

import (
	"strings"
	"testing"

	"github.com/go-regtool/regtool/pkg/regdesc"
)

func field(name, bits string) *regdesc.Field {
	b, err := regdesc.ParseBitRange(bits)
	if err != nil {
		panic(err)
	}
	return &regdesc.Field{Name: name, Bits: b, SwAccess: "rw"}
}

func reg(name string, fields ...*regdesc.Field) regdesc.Entry {
	return regdesc.Entry{Kind: regdesc.RegisterEntry, Register: &regdesc.Register{Name: name, Desc: name + " register", SwAccess: "rw", Fields: fields}}
}

func multi(name string, count int, compact bool, fields ...*regdesc.Field) regdesc.Entry {
	return regdesc.Entry{Kind: regdesc.MultiregEntry, Multireg: &regdesc.Multireg{
		Register: regdesc.Register{Name: name, Desc: name + " registers", SwAccess: "rw", Fields: fields},
		Count:    count,
		Compact:  compact,
	}}
}

func skipto(off uint64) regdesc.Entry {
	return regdesc.Entry{Kind: regdesc.SkipToEntry, Offset: off}
}

func reserved(n int) regdesc.Entry {
	return regdesc.Entry{Kind: regdesc.ReservedEntry, Words: n}
}

func block(width int, entries ...regdesc.Entry) *regdesc.Block {
	return &regdesc.Block{Name: "blk", RegWidth: width, Source: "blk.hjson", Entries: entries}
}

func mustBuild(t *testing.T, b *regdesc.Block) *Map {
	t.Helper()
	m, err := Build(b)
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func checkOffsets(t *testing.T, m *Map, expected map[string]uint64) {
	t.Helper()
	for name, off := range expected {
		got, ok := m.Offset(name)
		if !ok {
			t.Errorf("register %s not found", name)
			continue
		}
		if got != off {
			t.Errorf("%s: expected offset %#x; got %#x", name, off, got)
		}
	}
	if len(m.Registers()) != len(expected) {
		t.Errorf("expected %d registers; got %d", len(expected), len(m.Registers()))
	}
}

func TestLayoutSequential(t *testing.T) {
	for _, tc := range []struct {
		width  int
		second uint64
	}{
		{8, 1}, {16, 2}, {32, 4}, {64, 8},
	} {
		m := mustBuild(t, block(tc.width, reg("A", field("x", "0")), reg("B", field("y", "0"))))
		checkOffsets(t, m, map[string]uint64{"A": 0, "B": tc.second})
		if m.Size() != 2*tc.second {
			t.Errorf("width %d: expected size %d; got %d", tc.width, 2*tc.second, m.Size())
		}
	}
}

func TestLayoutSkipToReserved(t *testing.T) {
	m := mustBuild(t, block(32,
		reg("A", field("x", "0")),
		reserved(2),
		reg("B", field("y", "0")),
		skipto(0x40),
		reg("C", field("z", "0")),
	))
	checkOffsets(t, m, map[string]uint64{"A": 0, "B": 0xc, "C": 0x40})
	if r, ok := m.RegisterAt(0xc); !ok || r.Name != "B" {
		t.Errorf("expected B at 0xc; got %v", r)
	}
	if _, ok := m.RegisterAt(0x4); ok {
		t.Error("expected no register in the reserved space")
	}
}

func TestMultiregExpansion(t *testing.T) {
	m := mustBuild(t, block(32,
		reg("CTRL", field("en", "0")),
		multi("ADDR", 3, true, field("addr", "31:0")),
		multi("ONE", 1, true, field("v", "31:0")),
	))
	checkOffsets(t, m, map[string]uint64{"CTRL": 0, "ADDR_0": 4, "ADDR_1": 8, "ADDR_2": 0xc, "ONE": 0x10})

	g, ok := m.Group("addr")
	if !ok {
		t.Fatal("group ADDR not found")
	}
	if g.Count != 3 || g.FieldsPerReg != 1 || len(g.Registers) != 3 || g.Stride() != 4 {
		t.Errorf("unexpected group %+v", g)
	}
	for i, r := range g.Registers {
		if r.Group != g || r.Index != i {
			t.Errorf("%s: group back reference not set", r.Name)
		}
	}
	one, _ := m.Group("ONE")
	if one.Stride() != 0 {
		t.Errorf("expected zero stride for single register group; got %d", one.Stride())
	}
}

func TestMultiregPacking(t *testing.T) {
	for _, tc := range []struct {
		name      string
		width     int
		count     int
		bits      string
		compact   bool
		fpr       int
		nregs     int
		lastField string
		lastBits  string
	}{
		{"single bits", 32, 1, "0", true, 32, 1, "F_0", "0"},
		{"nibbles", 32, 10, "3:0", true, 8, 2, "F_9", "7:4"},
		{"bytes fill", 32, 8, "7:0", true, 4, 2, "F_7", "31:24"},
		{"not compact", 32, 3, "3:0", false, 1, 3, "F", "3:0"},
		{"odd width", 32, 4, "4:0", true, 6, 1, "F_3", "19:15"},
		{"offset field", 32, 2, "4:1", true, 1, 2, "F", "4:1"},
		{"wide", 64, 5, "15:0", true, 4, 2, "F_4", "15:0"},
	} {
		m := mustBuild(t, block(tc.width, multi("G", tc.count, tc.compact, field("f", tc.bits))))
		g, _ := m.Group("G")
		if g.FieldsPerReg != tc.fpr {
			t.Errorf("%s: expected %d fields per register; got %d", tc.name, tc.fpr, g.FieldsPerReg)
		}
		if len(g.Registers) != tc.nregs {
			t.Fatalf("%s: expected %d registers; got %d", tc.name, tc.nregs, len(g.Registers))
		}
		last := g.Registers[len(g.Registers)-1]
		f := last.Fields[len(last.Fields)-1]
		if f.Name != tc.lastField || f.Bits.String() != tc.lastBits {
			t.Errorf("%s: expected last field %s at %s; got %s at %s", tc.name, tc.lastField, tc.lastBits, f.Name, f.Bits)
		}
		if s, ok := m.Symbol("G_MULTIREG_COUNT"); !ok || s.Value != uint64(tc.nregs) {
			t.Errorf("%s: expected MULTIREG_COUNT %d; got %v", tc.name, tc.nregs, s)
		}
		total := 0
		for _, r := range g.Registers {
			total += len(r.Fields)
			for i, a := range r.Fields {
				for _, b := range r.Fields[:i] {
					if a.Bits.Overlaps(b.Bits) {
						t.Errorf("%s: %s overlaps %s in %s", tc.name, a.Name, b.Name, r.Name)
					}
				}
			}
		}
		if tc.fpr > 1 && total != tc.count {
			t.Errorf("%s: expected %d packed fields; got %d", tc.name, tc.count, total)
		}
	}
}

func TestMultiregSeveralFields(t *testing.T) {
	m := mustBuild(t, block(32, multi("CFG", 2, true, field("mode", "1:0"), field("en", "4"))))
	g, _ := m.Group("CFG")
	if g.FieldsPerReg != 1 || len(g.Registers) != 2 {
		t.Fatalf("expected no packing with several fields; got %d per register, %d registers", g.FieldsPerReg, len(g.Registers))
	}
	if r := g.Registers[1]; len(r.Fields) != 2 || r.Fields[0].Name != "MODE" || r.Fields[1].Name != "EN" {
		t.Errorf("unexpected fields in %s", r.Name)
	}
}

func TestValidation(t *testing.T) {
	for _, tc := range []struct {
		name string
		b    *regdesc.Block
		msgs []string
	}{
		{"regwidth", block(12, reg("A", field("x", "0"))), []string{"regwidth: 12 is not one of 8, 16, 32 or 64"}},
		{"no name", &regdesc.Block{RegWidth: 32, Entries: []regdesc.Entry{reg("A", field("x", "0"))}}, []string{"name: block name is empty"}},
		{"duplicate register", block(32, reg("A", field("x", "0")), reg("a", field("y", "0"))), []string{"A: register name already used at 0x0"}},
		{"skipto unaligned", block(32, reg("A", field("x", "0")), skipto(6)), []string{"registers[1]: skipto 0x6 is not aligned to 4 bytes"}},
		{"skipto backwards", block(32, reg("A", field("x", "0")), reg("B", field("x", "0")), skipto(4)), []string{"registers[2]: skipto 0x4 overlaps registers below 0x8"}},
		{"reserved", block(32, reserved(0)), []string{"registers[0]: reserved count must be positive"}},
		{"count", block(32, multi("M", 0, true, field("x", "0"))), []string{"M: count must be at least 1, not 0"}},
		{"bits exceed width", block(16, reg("A", field("x", "16"))), []string{"A.X: bits 16 exceed the 16 bit register"}},
		{"overlap", block(32, reg("A", field("x", "3:0"), field("y", "5:3"))), []string{"A.Y: bits 5:3 overlap field X (3:0)"}},
		{"duplicate field", block(32, reg("A", field("x", "0"), field("X", "1"))), []string{"A.X: field name already used in register"}},
		{"enum", block(32, reg("A", &regdesc.Field{Name: "m", Bits: regdesc.BitRange{Msb: 1, Lsb: 0}, Enum: []regdesc.EnumValue{{Name: "BIG", Value: 4}}})), []string{"A.M: value BIG (0x4) does not fit in 2 bits"}},
		{"duplicate group", block(32, multi("M", 2, false, field("x", "0")), multi("M", 1, false, field("x", "0"))), []string{"M: multireg name already used"}},
		{"symbol clash", block(32, reg("A_B", field("c", "1:0")), reg("A", field("b_c", "1:0"))), []string{"A_B_C_MASK: symbol defined twice (as mask and mask)"}},
		{"field too wide", block(32, multi("M", 2, false, field("x", "39:0"))), []string{"M.X: 1 fields of 40 bits do not fit in a 32 bit register"}},
		{
			"register names",
			block(32, reg("my reg", field("a-b", "0"))),
			[]string{`MY REG: register name "my reg" is not a valid identifier`, `MY REG: field name "a-b" is not a valid identifier`},
		},
		{"multireg name", block(32, multi("2M", 2, true, field("x", "0"))), []string{`2M: register name "2M" is not a valid identifier`}},
		{"enum name", block(32, reg("A", &regdesc.Field{Name: "m", Bits: regdesc.BitRange{Msb: 1, Lsb: 0}, Enum: []regdesc.EnumValue{{Name: "on/off", Value: 1}}})), []string{`A.M: enum value name "on/off" is not a valid identifier`}},
		{"block name", &regdesc.Block{Name: "my-blk", RegWidth: 32, Entries: []regdesc.Entry{reg("A", field("x", "0"))}}, []string{`name: "my-blk" is not a valid identifier`}},
		{"reserved overflow", block(32, reg("A", field("x", "0")), reserved(1<<62), reg("B", field("x", "0"))), []string{"registers[1]: reserving 4611686018427387904 registers at 0x4 overflows the address space"}},
		{"last word", block(32, skipto(^uint64(0)-3), reg("A", field("x", "0"))), []string{"registers[1]: 1 registers at 0xfffffffffffffffc overflow the address space"}},
		{"multireg overflow", block(32, skipto(^uint64(0)-7), multi("M", 4, false, field("x", "0"))), []string{"registers[1]: 4 registers at 0xfffffffffffffff8 overflow the address space"}},
		{
			"several problems",
			block(32, reg("A", field("x", "40:33")), reserved(-1), reg("A", field("x", "0"))),
			[]string{"3 problems:", "A.X: bits 40:33 exceed", "registers[1]: reserved count", "A: register name already used"},
		},
	} {
		m, err := Build(tc.b)
		if err == nil {
			t.Errorf("%s: expected error", tc.name)
			continue
		}
		if m != nil {
			t.Errorf("%s: expected no map on error", tc.name)
		}
		verr, ok := err.(*ValidationError)
		if !ok {
			t.Errorf("%s: expected *ValidationError; got %T", tc.name, err)
			continue
		}
		if len(verr.Problems) == 0 {
			t.Errorf("%s: no problems reported", tc.name)
		}
		for _, msg := range tc.msgs {
			if !strings.Contains(err.Error(), msg) {
				t.Errorf("%s: expected error containing %q; got %q", tc.name, msg, err)
			}
		}
	}
}

func TestParamValidation(t *testing.T) {
	b := block(32, reg("A", field("x", "0")))
	b.Params = []regdesc.Param{{Name: "Depth", Default: 4}, {Name: "DEPTH", Default: 8}, {Name: "reg_width"}, {Name: "tx depth"}}
	_, err := Build(b)
	if err == nil {
		t.Fatal("expected error")
	}
	for _, msg := range []string{"parameter DEPTH defined twice", "parameter REG_WIDTH defined twice", `parameter name "tx depth" is not a valid identifier`} {
		if !strings.Contains(err.Error(), msg) {
			t.Errorf("expected error containing %q; got %q", msg, err)
		}
	}
}
