package tagger

import (
	"bytes"
	"go/format"
	"io/ioutil"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/go-regtool/regtool/pkg/emit"
	"github.com/go-regtool/regtool/pkg/regdesc"
	"github.com/go-regtool/regtool/pkg/regmap"
)

func defaultMap(t *testing.T) *regmap.Map {
	t.Helper()
	b, err := Description(DefaultParams)
	if err != nil {
		t.Fatal(err)
	}
	m, err := regmap.Build(b)
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func readFile(t *testing.T, path string) []byte {
	t.Helper()
	buf, err := ioutil.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return buf
}

func TestCHeaderMatchesCheckedIn(t *testing.T) {
	out, err := emit.Render(emit.CHeader{}, defaultMap(t))
	if err != nil {
		t.Fatal(err)
	}
	expected := readFile(t, filepath.Join("..", "..", "include", "tagger_regs.h"))
	if !bytes.Equal(out, expected) {
		t.Fatalf("include/tagger_regs.h is out of date, run go generate ./pkg/tagger\nexpected:\n%s\ngot:\n%s", expected, out)
	}
}

func TestGoPackageMatchesCheckedIn(t *testing.T) {
	out, err := emit.Render(emit.GoPackage{}, defaultMap(t))
	if err != nil {
		t.Fatal(err)
	}
	expected, err := format.Source(readFile(t, filepath.Join("taggerreg", "taggerreg.go")))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(out, expected) {
		t.Fatalf("taggerreg/taggerreg.go is out of date, run go generate ./pkg/tagger\nexpected:\n%s\ngot:\n%s", expected, out)
	}
}

func TestHJSONMatchesCheckedIn(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteHJSON(&buf, DefaultParams); err != nil {
		t.Fatal(err)
	}
	expected := readFile(t, filepath.Join("..", "..", "data", SourceName))
	if buf.String() != string(expected) {
		t.Fatalf("data/%s is out of date\nexpected:\n%s\ngot:\n%s", SourceName, expected, buf.String())
	}
}

func TestHJSONDecodesToDescription(t *testing.T) {
	p := Params{RegWidth: 32, MaxPartition: 16, PatidLen: 8}
	var buf bytes.Buffer
	if err := WriteHJSON(&buf, p); err != nil {
		t.Fatal(err)
	}
	decoded, err := regdesc.Decode(buf.Bytes(), regdesc.HJSON, SourceName, nil)
	if err != nil {
		t.Fatal(err)
	}
	expected, err := Description(p)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(decoded, expected) {
		t.Fatalf("decoded description differs\nexpected: %#v\ngot: %#v", expected, decoded)
	}
}

func TestDescriptionFormatsAgree(t *testing.T) {
	expected := defaultMap(t).Symbols()

	for _, tc := range []struct {
		path   string
		params map[string]string
	}{
		{filepath.Join("..", "..", "data", "tagger_regs.hjson"), nil},
		{filepath.Join("..", "..", "data", "tagger_regs.star"), nil},
		{filepath.Join("..", "..", "data", "tagger_regs.star"), map[string]string{"RegWidth": "32", "MaxPartition": "8", "PatidLen": "4"}},
		{filepath.Join("testdata", "tagger_regs.yml"), nil},
	} {
		b, err := regdesc.Load(tc.path, tc.params)
		if err != nil {
			t.Fatalf("%s: %v", tc.path, err)
		}
		m, err := regmap.Build(b)
		if err != nil {
			t.Fatalf("%s: %v", tc.path, err)
		}
		if !reflect.DeepEqual(m.Symbols(), expected) {
			t.Fatalf("%s: symbols differ\nexpected: %v\ngot: %v", tc.path, expected, m.Symbols())
		}
		if len(b.Copyright) != 1 || len(b.License) != 1 {
			t.Fatalf("%s: copyright/license not found: %q %q", tc.path, b.Copyright, b.License)
		}
	}
}

func TestStarlarkMatchesParams(t *testing.T) {
	p := Params{RegWidth: 32, MaxPartition: 16, PatidLen: 8}
	b, err := regdesc.Load(filepath.Join("..", "..", "data", "tagger_regs.star"), map[string]string{
		"MaxPartition": "16",
		"PatidLen":     "8",
	})
	if err != nil {
		t.Fatal(err)
	}
	m, err := regmap.Build(b)
	if err != nil {
		t.Fatal(err)
	}
	d, err := Description(p)
	if err != nil {
		t.Fatal(err)
	}
	expected, err := regmap.Build(d)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(m.Symbols(), expected.Symbols()) {
		t.Fatalf("symbols differ\nexpected: %v\ngot: %v", expected.Symbols(), m.Symbols())
	}
}

func TestParams(t *testing.T) {
	for _, tc := range []struct {
		p                 Params
		patidRegs, confRegs int
	}{
		{DefaultParams, 1, 1},
		{Params{RegWidth: 32, MaxPartition: 16, PatidLen: 8}, 4, 1},
		{Params{RegWidth: 32, MaxPartition: 17, PatidLen: 8}, 5, 2},
		{Params{RegWidth: 32, MaxPartition: 8, PatidLen: 32}, 8, 1},
		{Params{RegWidth: 64, MaxPartition: 64, PatidLen: 16}, 16, 2},
	} {
		if err := tc.p.Validate(); err != nil {
			t.Fatalf("%+v: %v", tc.p, err)
		}
		if n := tc.p.NumPatidRegs(); n != tc.patidRegs {
			t.Errorf("%+v: expected %d PATID registers; got %d", tc.p, tc.patidRegs, n)
		}
		if n := tc.p.NumConfRegs(); n != tc.confRegs {
			t.Errorf("%+v: expected %d ADDR_CONF registers; got %d", tc.p, tc.confRegs, n)
		}
	}

	// Every width Validate accepts must lay out.
	for _, w := range []int{8, 16, 32, 64} {
		p := Params{RegWidth: w, MaxPartition: 8, PatidLen: 4}
		b, err := Description(p)
		if err != nil {
			t.Fatalf("%+v: %v", p, err)
		}
		if _, err := regmap.Build(b); err != nil {
			t.Errorf("%+v: %v", p, err)
		}
	}

	for _, p := range []Params{
		{RegWidth: 0, MaxPartition: 8, PatidLen: 4},
		{RegWidth: 12, MaxPartition: 8, PatidLen: 4},
		{RegWidth: 24, MaxPartition: 8, PatidLen: 4},
		{RegWidth: 128, MaxPartition: 8, PatidLen: 4},
		{RegWidth: 32, MaxPartition: 0, PatidLen: 4},
		{RegWidth: 32, MaxPartition: 8, PatidLen: 0},
		{RegWidth: 32, MaxPartition: 8, PatidLen: 33},
	} {
		if _, err := Description(p); err == nil {
			t.Errorf("%+v: expected error", p)
		}
	}
}

func TestScaledLayout(t *testing.T) {
	b, err := Description(Params{RegWidth: 32, MaxPartition: 16, PatidLen: 8})
	if err != nil {
		t.Fatal(err)
	}
	m, err := regmap.Build(b)
	if err != nil {
		t.Fatal(err)
	}
	for _, tc := range []struct {
		name   string
		offset uint64
	}{
		{"PAT_COMMIT", 0x0},
		{"PAT_ADDR_0", 0x4},
		{"PAT_ADDR_15", 0x40},
		{"PATID_0", 0x44},
		{"PATID_3", 0x50},
		{"ADDR_CONF", 0x54},
	} {
		off, ok := m.Offset(tc.name)
		if !ok {
			t.Fatalf("register %s not found", tc.name)
		}
		if off != tc.offset {
			t.Errorf("%s: expected offset %#x; got %#x", tc.name, tc.offset, off)
		}
	}
}
