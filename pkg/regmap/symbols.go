package regmap

import (
	"fmt"
	"strings"
)

// SymbolKind says what a symbol's value means.
type SymbolKind uint8

const (
	ParamSymbol SymbolKind = iota
	RegWidthSymbol
	FieldWidthSymbol
	FieldsPerRegSymbol
	MultiregCountSymbol
	RegOffsetSymbol
	BitSymbol
	MaskSymbol
	FieldOffsetSymbol
	EnumValueSymbol
)

var symbolKindNames = [...]string{
	ParamSymbol:         "param",
	RegWidthSymbol:      "reg-width",
	FieldWidthSymbol:    "field-width",
	FieldsPerRegSymbol:  "fields-per-reg",
	MultiregCountSymbol: "multireg-count",
	RegOffsetSymbol:     "reg-offset",
	BitSymbol:           "bit",
	MaskSymbol:          "mask",
	FieldOffsetSymbol:   "field-offset",
	EnumValueSymbol:     "value",
}

func (k SymbolKind) String() string {
	if int(k) < len(symbolKindNames) {
		return symbolKindNames[k]
	}
	return fmt.Sprintf("SymbolKind(%d)", k)
}

// Symbol is a named constant of the map. Name does not include the block
// prefix, see Map.Prefix.
type Symbol struct {
	Name  string
	Value uint64
	Kind  SymbolKind
}

// Hex reports whether the value is conventionally written in hexadecimal.
func (s Symbol) Hex() bool {
	switch s.Kind {
	case RegOffsetSymbol, MaskSymbol, EnumValueSymbol:
		return true
	}
	return false
}

// FormatValue formats the value the way generated code writes it.
func (s Symbol) FormatValue() string {
	if s.Hex() {
		return fmt.Sprintf("0x%x", s.Value)
	}
	return fmt.Sprintf("%d", s.Value)
}

func (s Symbol) String() string {
	return fmt.Sprintf("%s = %s", s.Name, s.FormatValue())
}

func symbolName(parts ...string) string {
	return strings.ToUpper(strings.Join(parts, "_"))
}

// buildItems computes the emission sections of m and their symbols from
// the layout order recorded in entries.
func (m *Map) buildItems(entries []interface{}) {
	for _, p := range m.Params {
		m.items = append(m.items, Item{
			Kind:    ParamItem,
			Comment: p.Desc,
			Symbols: []Symbol{{Name: symbolName("PARAM", p.Name), Value: p.Default, Kind: ParamSymbol}},
		})
	}
	m.items = append(m.items, Item{
		Kind:    RegWidthItem,
		Comment: "Register width",
		Symbols: []Symbol{{Name: "PARAM_REG_WIDTH", Value: uint64(m.RegWidth), Kind: RegWidthSymbol}},
	})

	for _, e := range entries {
		switch e := e.(type) {
		case *Group:
			it := Item{Kind: GroupItem, Comment: e.Desc + " (common parameters)", Group: e}
			for _, f := range e.Fields {
				it.Symbols = append(it.Symbols,
					Symbol{Name: symbolName(e.Name, f.Name, "FIELD_WIDTH"), Value: uint64(f.Bits.Width()), Kind: FieldWidthSymbol},
					Symbol{Name: symbolName(e.Name, f.Name, "FIELDS_PER_REG"), Value: uint64(e.FieldsPerReg), Kind: FieldsPerRegSymbol})
			}
			it.Symbols = append(it.Symbols, Symbol{Name: symbolName(e.Name, "MULTIREG_COUNT"), Value: uint64(len(e.Registers)), Kind: MultiregCountSymbol})
			m.items = append(m.items, it)
		case *Register:
			m.items = append(m.items, Item{Kind: RegisterItem, Comment: e.Desc, Register: e, Symbols: m.registerSymbols(e)})
		}
	}

	for _, it := range m.items {
		m.symbols = append(m.symbols, it.Symbols...)
	}
}

func (m *Map) registerSymbols(r *Register) []Symbol {
	syms := []Symbol{{Name: symbolName(r.Name, "REG_OFFSET"), Value: r.Offset, Kind: RegOffsetSymbol}}
	for _, f := range r.Fields {
		switch {
		case f.Bits.Width() == 1:
			syms = append(syms, Symbol{Name: symbolName(r.Name, f.Name, "BIT"), Value: uint64(f.Bits.Lsb), Kind: BitSymbol})
		case len(r.Fields) == 1 && f.Bits.Lsb == 0 && f.Bits.Width() == m.RegWidth:
			// the field is the whole register, the offset says it all
		default:
			syms = append(syms,
				Symbol{Name: symbolName(r.Name, f.Name, "MASK"), Value: f.Bits.Mask(), Kind: MaskSymbol},
				Symbol{Name: symbolName(r.Name, f.Name, "OFFSET"), Value: uint64(f.Bits.Lsb), Kind: FieldOffsetSymbol})
		}
		for _, e := range f.Enum {
			syms = append(syms, Symbol{Name: symbolName(r.Name, f.Name, "VALUE", e.Name), Value: e.Value, Kind: EnumValueSymbol})
		}
	}
	return syms
}
