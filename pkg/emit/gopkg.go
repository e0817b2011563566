package emit

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/tools/imports"

	"github.com/go-regtool/regtool/pkg/regmap"
)

// GoPackage emits a Go source file declaring the symbols of the map as
// untyped constants, without the block prefix, together with a table of
// registers and offset/name lookups. Offsets are uint32 unless the
// register space extends past 4GiB.
type GoPackage struct {
	Package string
}

func (GoPackage) Name() string { return "go" }

func (g GoPackage) FileName(m *regmap.Map) string { return g.pkg(m) + ".go" }

func (g GoPackage) pkg(m *regmap.Map) string {
	if g.Package != "" {
		return g.Package
	}
	return strings.ToLower(strings.NewReplacer("_", "", "-", "").Replace(m.Name))
}

func (g GoPackage) Emit(w io.Writer, m *regmap.Map) error {
	buf := bytes.NewBuffer([]byte{})
	pkg := g.pkg(m)

	source := m.Source
	if source == "" {
		source = m.Name
	}
	fmt.Fprintf(buf, "// Code generated by regtool from %s. DO NOT EDIT.\n\n", source)
	for _, line := range m.Copyright {
		fmt.Fprintf(buf, "// %s\n", line)
	}
	for _, line := range m.License {
		fmt.Fprintf(buf, "// %s\n", line)
	}
	if len(m.Copyright)+len(m.License) > 0 {
		fmt.Fprintf(buf, "\n")
	}
	fmt.Fprintf(buf, "// Package %s holds the register map of the %s peripheral.\n", pkg, m.Name)
	fmt.Fprintf(buf, "package %s\n\n", pkg)

	for _, it := range m.Items() {
		for _, line := range commentLines(it.Comment) {
			fmt.Fprintf(buf, "// %s\n", line)
		}
		fmt.Fprintf(buf, "const (\n")
		for _, s := range it.Symbols {
			fmt.Fprintf(buf, "%s = %s\n", s.Name, s.FormatValue())
		}
		fmt.Fprintf(buf, ")\n\n")
	}

	regs := m.Registers()
	offsetType := "uint32"
	if m.Size() > 1<<32 {
		offsetType = "uint64"
	}
	fmt.Fprintf(buf, "// Register is a register of the %s block.\n", m.Name)
	fmt.Fprintf(buf, "type Register struct {\nName string\nOffset %s\n}\n\n", offsetType)
	fmt.Fprintf(buf, "// Registers lists the registers of the block in offset order.\n")
	fmt.Fprintf(buf, "var Registers = []Register{\n")
	for _, r := range regs {
		fmt.Fprintf(buf, "{%q, %s_REG_OFFSET},\n", r.Name, r.Name)
	}
	fmt.Fprintf(buf, "}\n\n")

	fmt.Fprintf(buf, "// RegisterName returns the name of the register at offset, or the\n// empty string if there is none.\n")
	fmt.Fprintf(buf, "func RegisterName(offset %s) string {\nswitch offset {\n", offsetType)
	for _, r := range regs {
		fmt.Fprintf(buf, "case %s_REG_OFFSET:\nreturn %q\n", r.Name, r.Name)
	}
	fmt.Fprintf(buf, "}\nreturn \"\"\n}\n\n")

	fmt.Fprintf(buf, "// NameToOffset maps register names to their offsets.\n")
	fmt.Fprintf(buf, "var NameToOffset = func() map[string]%s {\n", offsetType)
	fmt.Fprintf(buf, "r := make(map[string]%s, len(Registers))\n", offsetType)
	fmt.Fprintf(buf, "for _, reg := range Registers {\nr[reg.Name] = reg.Offset\n}\n")
	fmt.Fprintf(buf, "return r\n}()\n")

	src, err := imports.Process(pkg+".go", buf.Bytes(), &imports.Options{
		FormatOnly: true,
		Comments:   true,
		TabIndent:  true,
		TabWidth:   8,
	})
	if err != nil {
		return errors.Wrap(err, "formatting generated Go code")
	}
	_, err = w.Write(src)
	return err
}
