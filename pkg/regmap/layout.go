package regmap

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/derekparker/trie"

	"github.com/go-regtool/regtool/pkg/logflags"
	"github.com/go-regtool/regtool/pkg/regdesc"
)

// Problem is a single validation failure.
type Problem struct {
	// Where is the register, field or entry the problem was found in.
	Where string
	Msg   string
}

func (p Problem) String() string {
	return p.Where + ": " + p.Msg
}

// ValidationError lists every problem found while building a map. A
// ValidationError means no map was built.
type ValidationError struct {
	Source   string
	Problems []Problem
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	if e.Source != "" {
		b.WriteString(e.Source)
		b.WriteString(": ")
	}
	if len(e.Problems) == 1 {
		b.WriteString(e.Problems[0].String())
		return b.String()
	}
	fmt.Fprintf(&b, "%d problems:", len(e.Problems))
	for _, p := range e.Problems {
		b.WriteString("\n\t")
		b.WriteString(p.String())
	}
	return b.String()
}

// identRegexp matches names that are valid both as C and as Go identifiers.
var identRegexp = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

type layouter struct {
	b        *regdesc.Block
	m        *Map
	log      logflags.Logger
	problems []Problem
	// entries records groups and registers in declaration order.
	entries []interface{}
}

func (l *layouter) problemf(where, format string, args ...interface{}) {
	l.problems = append(l.problems, Problem{Where: where, Msg: fmt.Sprintf(format, args...)})
}

// Build lays out and validates the register map of b.
func Build(b *regdesc.Block) (*Map, error) {
	l := &layouter{
		b:   b,
		log: logflags.LayoutLogger().WithField("block", b.Name),
		m: &Map{
			Name:      b.Name,
			RegWidth:  b.RegWidth,
			Params:    b.Params,
			Copyright: b.Copyright,
			License:   b.License,
			Source:    b.Source,
			byName:    map[string]*Register{},
			byOffset:  map[uint64]*Register{},
			groupsBy:  map[string]*Group{},
			symsBy:    map[string]int{},
		},
	}

	if !regdesc.ValidRegWidth(b.RegWidth) {
		// The stride between registers derives from the width.
		l.problemf("regwidth", "%d is not one of 8, 16, 32 or 64", b.RegWidth)
		return nil, &ValidationError{Source: b.Source, Problems: l.problems}
	}
	if strings.TrimSpace(b.Name) == "" {
		l.problemf("name", "block name is empty")
	} else if !identRegexp.MatchString(b.Name) {
		l.problemf("name", "%q is not a valid identifier", b.Name)
	}

	l.layout()
	l.checkParams()
	if len(l.problems) == 0 {
		l.m.buildItems(l.entries)
		l.checkSymbols()
	}
	if len(l.problems) > 0 {
		return nil, &ValidationError{Source: b.Source, Problems: l.problems}
	}

	m := l.m
	m.symIndex = trie.New()
	for i, s := range m.symbols {
		m.symsBy[s.Name] = i
		m.symIndex.Add(s.Name, i)
	}
	l.log.Debugf("%d registers, %d groups, %d symbols, %#x bytes", len(m.regs), len(m.groups), len(m.symbols), m.size)
	return m, nil
}

func (l *layouter) layout() {
	stride := l.b.RegBytes()
	cursor := uint64(0)
	defer func() { l.m.size = cursor }()
	for i, e := range l.b.Entries {
		where := fmt.Sprintf("registers[%d]", i)
		switch e.Kind {
		case regdesc.SkipToEntry:
			switch {
			case e.Offset%stride != 0:
				l.problemf(where, "skipto %#x is not aligned to %d bytes", e.Offset, stride)
			case e.Offset < cursor:
				l.problemf(where, "skipto %#x overlaps registers below %#x", e.Offset, cursor)
			default:
				l.log.Debugf("skipping from %#x to %#x", cursor, e.Offset)
				cursor = e.Offset
			}
		case regdesc.ReservedEntry:
			if e.Words <= 0 {
				l.problemf(where, "reserved count must be positive")
				continue
			}
			if uint64(e.Words) > (math.MaxUint64-cursor)/stride {
				l.problemf(where, "reserving %d registers at %#x overflows the address space", e.Words, cursor)
				return
			}
			cursor += uint64(e.Words) * stride
		case regdesc.RegisterEntry:
			if !l.fits(where, cursor, 1) {
				return
			}
			l.checkNames(e.Register)
			r := l.register(e.Register, strings.ToUpper(e.Register.Name), cursor)
			for _, f := range e.Register.Fields {
				r.Fields = append(r.Fields, copyField(f, strings.ToUpper(f.Name), 0))
			}
			l.checkRegister(r)
			l.entries = append(l.entries, r)
			cursor += stride
		case regdesc.MultiregEntry:
			var ok bool
			if cursor, ok = l.multireg(where, e.Multireg, cursor); !ok {
				return
			}
		}
	}
}

// fits reports whether n registers starting at cursor end below 2^64.
func (l *layouter) fits(where string, cursor uint64, n int) bool {
	stride := l.b.RegBytes()
	if uint64(n) > (math.MaxUint64-cursor)/stride {
		l.problemf(where, "%d registers at %#x overflow the address space", n, cursor)
		return false
	}
	return true
}

// checkNames reports the register, field and enum names of d that cannot
// be used in generated identifiers.
func (l *layouter) checkNames(d *regdesc.Register) {
	name := strings.ToUpper(d.Name)
	if !identRegexp.MatchString(d.Name) {
		l.problemf(name, "register name %q is not a valid identifier", d.Name)
	}
	for _, f := range d.Fields {
		if !identRegexp.MatchString(f.Name) {
			l.problemf(name, "field name %q is not a valid identifier", f.Name)
		}
		for _, e := range f.Enum {
			if !identRegexp.MatchString(e.Name) {
				l.problemf(name+"."+strings.ToUpper(f.Name), "enum value name %q is not a valid identifier", e.Name)
			}
		}
	}
}

func (l *layouter) register(d *regdesc.Register, name string, offset uint64) *Register {
	r := &Register{
		Name:     name,
		Desc:     d.Desc,
		Offset:   offset,
		SwAccess: d.SwAccess,
		HwAccess: d.HwAccess,
		ResVal:   d.ResVal,
	}
	if prev, dup := l.m.byName[name]; dup {
		l.problemf(name, "register name already used at %#x", prev.Offset)
	} else {
		l.m.byName[name] = r
	}
	if prev, dup := l.m.byOffset[offset]; dup {
		l.problemf(name, "offset %#x overlaps register %s", offset, prev.Name)
	} else {
		l.m.byOffset[offset] = r
	}
	l.m.regs = append(l.m.regs, r)
	return r
}

func copyField(f *regdesc.Field, name string, shift int) *Field {
	return &Field{
		Name:     name,
		Desc:     f.Desc,
		Bits:     f.Bits.Shift(shift),
		SwAccess: f.SwAccess,
		ResVal:   f.ResVal,
		Enum:     f.Enum,
	}
}

// multireg expands mr into physical registers starting at cursor and
// returns the offset following the last one. It returns false when the
// registers do not fit in the address space.
func (l *layouter) multireg(where string, mr *regdesc.Multireg, cursor uint64) (uint64, bool) {
	name := strings.ToUpper(mr.Name)
	if mr.Count < 1 {
		l.problemf(name, "count must be at least 1, not %d", mr.Count)
		return cursor, true
	}
	stride := l.b.RegBytes()
	if stride == 0 {
		l.problemf(name, "stride must be positive")
		return cursor, true
	}
	l.checkNames(&mr.Register)

	fpr := 1
	if mr.Compact && len(mr.Fields) == 1 && mr.Fields[0].Bits.Lsb == 0 {
		if w := mr.Fields[0].Bits.Width(); w <= l.b.RegWidth {
			fpr = l.b.RegWidth / w
		}
	}
	for _, f := range mr.Fields {
		if f.Bits.Width()*fpr > l.b.RegWidth {
			l.problemf(name+"."+strings.ToUpper(f.Name), "%d fields of %d bits do not fit in a %d bit register", fpr, f.Bits.Width(), l.b.RegWidth)
		}
	}
	nregs := (mr.Count + fpr - 1) / fpr
	if !l.fits(where, cursor, nregs) {
		return cursor, false
	}

	g := &Group{
		Name:         name,
		Desc:         mr.Desc,
		Count:        mr.Count,
		FieldsPerReg: fpr,
		Fields:       mr.Fields,
	}
	if _, dup := l.m.groupsBy[name]; dup {
		l.problemf(name, "multireg name already used")
	} else {
		l.m.groupsBy[name] = g
	}
	l.m.groups = append(l.m.groups, g)
	l.entries = append(l.entries, g)
	l.log.Debugf("%s: %d instances, %d per register, %d registers at %#x", name, mr.Count, fpr, nregs, cursor)

	for i := 0; i < nregs; i++ {
		rname := name
		if nregs > 1 {
			rname = fmt.Sprintf("%s_%d", name, i)
		}
		r := l.register(&mr.Register, rname, cursor)
		r.Group = g
		r.Index = i
		if fpr > 1 {
			tf := mr.Fields[0]
			for j := 0; j < fpr; j++ {
				k := i*fpr + j
				if k >= mr.Count {
					break
				}
				r.Fields = append(r.Fields, copyField(tf, fmt.Sprintf("%s_%d", strings.ToUpper(tf.Name), k), j*tf.Bits.Width()))
			}
		} else {
			for _, tf := range mr.Fields {
				r.Fields = append(r.Fields, copyField(tf, strings.ToUpper(tf.Name), 0))
			}
		}
		l.checkRegister(r)
		g.Registers = append(g.Registers, r)
		l.entries = append(l.entries, r)
		cursor += stride
	}
	return cursor, true
}

func (l *layouter) checkRegister(r *Register) {
	if r.Offset%l.b.RegBytes() != 0 {
		l.problemf(r.Name, "offset %#x is not aligned to %d bytes", r.Offset, l.b.RegBytes())
	}
	seen := map[string]bool{}
	for i, f := range r.Fields {
		where := r.Name + "." + f.Name
		if seen[f.Name] {
			l.problemf(where, "field name already used in register")
		}
		seen[f.Name] = true
		if f.Bits.Msb >= l.b.RegWidth {
			l.problemf(where, "bits %s exceed the %d bit register", f.Bits, l.b.RegWidth)
		}
		for _, g := range r.Fields[:i] {
			if f.Bits.Overlaps(g.Bits) {
				l.problemf(where, "bits %s overlap field %s (%s)", f.Bits, g.Name, g.Bits)
			}
		}
		for _, e := range f.Enum {
			if e.Value > f.Bits.Mask() {
				l.problemf(where, "value %s (%#x) does not fit in %d bits", e.Name, e.Value, f.Bits.Width())
			}
		}
	}
}

func (l *layouter) checkParams() {
	seen := map[string]bool{}
	for _, p := range l.b.Params {
		name := strings.ToUpper(p.Name)
		if !identRegexp.MatchString(p.Name) {
			l.problemf("param_list", "parameter name %q is not a valid identifier", p.Name)
		}
		if seen[name] || name == "REG_WIDTH" {
			l.problemf("param_list", "parameter %s defined twice", name)
		}
		seen[name] = true
	}
}

// checkSymbols makes sure no two symbols share a name, which happens when
// register and field names concatenate to the same identifier.
func (l *layouter) checkSymbols() {
	seen := map[string]SymbolKind{}
	for _, s := range l.m.symbols {
		if k, dup := seen[s.Name]; dup {
			l.problemf(s.Name, "symbol defined twice (as %s and %s)", k, s.Kind)
		}
		seen[s.Name] = s.Kind
	}
}
