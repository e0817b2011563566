package emit

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v2"

	"github.com/go-regtool/regtool/pkg/regmap"
	"github.com/go-regtool/regtool/pkg/version"
)

// YAMLDump emits the laid out register map, including the access modes
// and reset values that the language emitters leave out, for review.
type YAMLDump struct{}

func (YAMLDump) Name() string { return "yaml" }

func (YAMLDump) FileName(m *regmap.Map) string { return baseName(m) + ".map.yml" }

type dumpMap struct {
	Name      string         `yaml:"name"`
	Generator string         `yaml:"generator"`
	Source    string         `yaml:"source,omitempty"`
	RegWidth  int            `yaml:"regwidth"`
	Size      string         `yaml:"size"`
	Registers []dumpRegister `yaml:"registers"`
	Symbols   yaml.MapSlice  `yaml:"symbols"`
}

type dumpRegister struct {
	Name     string      `yaml:"name"`
	Offset   string      `yaml:"offset"`
	Group    string      `yaml:"multireg,omitempty"`
	SwAccess string      `yaml:"swaccess,omitempty"`
	HwAccess string      `yaml:"hwaccess,omitempty"`
	ResVal   string      `yaml:"resval"`
	Fields   []dumpField `yaml:"fields"`
}

type dumpField struct {
	Name     string `yaml:"name"`
	Bits     string `yaml:"bits"`
	SwAccess string `yaml:"swaccess,omitempty"`
	ResVal   string `yaml:"resval"`
}

func (YAMLDump) Emit(w io.Writer, m *regmap.Map) error {
	d := dumpMap{
		Name:      m.Name,
		Generator: "regtool " + version.RegtoolVersion.Short(),
		Source:    m.Source,
		RegWidth:  m.RegWidth,
		Size:      fmt.Sprintf("%#x", m.Size()),
	}
	for _, r := range m.Registers() {
		dr := dumpRegister{
			Name:     r.Name,
			Offset:   fmt.Sprintf("%#x", r.Offset),
			SwAccess: string(r.SwAccess),
			HwAccess: string(r.HwAccess),
			ResVal:   fmt.Sprintf("%#x", r.ResVal),
		}
		if r.Group != nil {
			dr.Group = r.Group.Name
		}
		for _, f := range r.Fields {
			dr.Fields = append(dr.Fields, dumpField{
				Name:     f.Name,
				Bits:     f.Bits.String(),
				SwAccess: string(f.SwAccess),
				ResVal:   fmt.Sprintf("%#x", f.ResVal),
			})
		}
		d.Registers = append(d.Registers, dr)
	}
	for _, s := range m.Symbols() {
		d.Symbols = append(d.Symbols, yaml.MapItem{Key: m.Prefix() + s.Name, Value: s.FormatValue()})
	}
	out, err := yaml.Marshal(d)
	if err != nil {
		return err
	}
	_, err = w.Write(out)
	return err
}
