package regdesc

import (
	"bufio"
	"bytes"
	"fmt"
	"io/ioutil"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/hjson/hjson-go/v4"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"

	"github.com/go-regtool/regtool/pkg/logflags"
)

// Format is the syntax of a description source.
type Format int

const (
	HJSON Format = iota
	YAML
	Starlark
)

func (f Format) String() string {
	switch f {
	case HJSON:
		return "hjson"
	case YAML:
		return "yaml"
	case Starlark:
		return "starlark"
	}
	return "unknown"
}

// FormatOf returns the description format implied by the extension of path.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".hjson", ".json":
		return HJSON, nil
	case ".yml", ".yaml":
		return YAML, nil
	case ".star", ".starlark":
		return Starlark, nil
	}
	return 0, errors.Errorf("%s: unknown description format", path)
}

// Load reads and decodes the description stored at path. Params are only
// used by Starlark descriptions, where they are visible as the params dict.
func Load(path string, params map[string]string) (*Block, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	src, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Decode(src, format, filepath.Base(path), params)
}

// Decode decodes a description from src. Name is used in error messages
// and recorded as the Source of the returned block.
func Decode(src []byte, format Format, name string, params map[string]string) (*Block, error) {
	d := &decoder{source: name, log: logflags.DescLogger()}
	var tree interface{}
	var commentPrefix string
	switch format {
	case HJSON:
		if err := hjson.Unmarshal(src, &tree); err != nil {
			return nil, errors.Wrapf(err, "%s", name)
		}
		commentPrefix = "//"
	case YAML:
		if err := yaml.Unmarshal(src, &tree); err != nil {
			return nil, errors.Wrapf(err, "%s", name)
		}
		commentPrefix = "#"
	case Starlark:
		v, err := execStarlark(name, src, params)
		if err != nil {
			return nil, err
		}
		tree = v
		commentPrefix = "#"
	default:
		return nil, errors.Errorf("%s: unknown description format %v", name, format)
	}
	d.log.Debugf("decoding %s description %s", format, name)

	b, err := d.block(normalize(tree))
	if err != nil {
		return nil, err
	}
	b.Copyright, b.License = scanHeaderComments(src, commentPrefix)
	b.Source = name
	return b, nil
}

// normalize converts the maps produced by the different decoders into
// map[string]interface{}.
func normalize(v interface{}) interface{} {
	switch v := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(v))
		for k, e := range v {
			out[k] = normalize(e)
		}
		return out
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(v))
		for k, e := range v {
			out[fmt.Sprint(k)] = normalize(e)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(v))
		for i := range v {
			out[i] = normalize(v[i])
		}
		return out
	}
	return v
}

// scanHeaderComments collects copyright and SPDX licence lines from the
// comment lines at the top of src.
func scanHeaderComments(src []byte, prefix string) (copyright, license []string) {
	s := bufio.NewScanner(bytes.NewReader(src))
	for s.Scan() {
		line := strings.TrimSpace(s.Text())
		if line == "" {
			continue
		}
		if !strings.HasPrefix(line, prefix) {
			break
		}
		text := strings.TrimSpace(strings.TrimPrefix(line, prefix))
		switch {
		case strings.Contains(text, "Copyright"):
			copyright = append(copyright, text)
		case strings.HasPrefix(text, "SPDX-License-Identifier"):
			license = append(license, text)
		}
	}
	return copyright, license
}

type decoder struct {
	source string
	log    logflags.Logger
}

func (d *decoder) errorf(path, format string, args ...interface{}) error {
	return errors.Errorf("%s: %s: %s", d.source, path, fmt.Sprintf(format, args...))
}

func (d *decoder) wrap(err error, path string) error {
	return errors.Wrapf(err, "%s: %s", d.source, path)
}

func (d *decoder) unknownKeys(path string, m map[string]interface{}, known ...string) {
	var extra []string
	for k := range m {
		found := false
		for _, kk := range known {
			if k == kk {
				found = true
				break
			}
		}
		if !found {
			extra = append(extra, k)
		}
	}
	if len(extra) > 0 {
		sort.Strings(extra)
		d.log.Debugf("%s: %s: ignoring keys %s", d.source, path, strings.Join(extra, ", "))
	}
}

func (d *decoder) block(tree interface{}) (*Block, error) {
	m, ok := tree.(map[string]interface{})
	if !ok {
		return nil, errors.Errorf("%s: top level value must be an object", d.source)
	}
	d.unknownKeys("block", m, "name", "regwidth", "param_list", "registers",
		"clock_primary", "reset_primary", "bus_interfaces", "bus_device", "clocking")

	b := &Block{RegWidth: DefaultRegWidth}
	var err error
	if b.Name, err = d.str(m, "name", "name", true); err != nil {
		return nil, err
	}
	if v, ok := m["regwidth"]; ok {
		w, err := toUint(v)
		if err != nil {
			return nil, d.wrap(err, "regwidth")
		}
		b.RegWidth = int(w)
	}

	if v, ok := m["param_list"]; ok {
		list, ok := v.([]interface{})
		if !ok {
			return nil, d.errorf("param_list", "must be a list")
		}
		for i, pv := range list {
			path := fmt.Sprintf("param_list[%d]", i)
			pm, ok := pv.(map[string]interface{})
			if !ok {
				return nil, d.errorf(path, "must be an object")
			}
			var p Param
			if p.Name, err = d.str(pm, "name", path+".name", true); err != nil {
				return nil, err
			}
			if p.Desc, err = d.str(pm, "desc", path+".desc", false); err != nil {
				return nil, err
			}
			if p.Default, _, err = d.uint(pm, "default", path+".default"); err != nil {
				return nil, err
			}
			b.Params = append(b.Params, p)
		}
	}

	regs, ok := m["registers"].([]interface{})
	if !ok {
		return nil, d.errorf("registers", "missing or not a list")
	}
	for i, rv := range regs {
		path := fmt.Sprintf("registers[%d]", i)
		e, err := d.entry(rv, path)
		if err != nil {
			return nil, err
		}
		b.Entries = append(b.Entries, e)
	}
	return b, nil
}

func (d *decoder) entry(v interface{}, path string) (Entry, error) {
	m, ok := v.(map[string]interface{})
	if !ok {
		return Entry{}, d.errorf(path, "must be an object")
	}
	if mv, ok := m["multireg"]; ok {
		mm, ok := mv.(map[string]interface{})
		if !ok {
			return Entry{}, d.errorf(path+".multireg", "must be an object")
		}
		mr, err := d.multireg(mm, path+".multireg")
		if err != nil {
			return Entry{}, err
		}
		return Entry{Kind: MultiregEntry, Multireg: mr}, nil
	}
	if sv, ok := m["skipto"]; ok {
		off, err := toUint(sv)
		if err != nil {
			return Entry{}, d.wrap(err, path+".skipto")
		}
		return Entry{Kind: SkipToEntry, Offset: off}, nil
	}
	if rv, ok := m["reserved"]; ok {
		n, err := toUint(rv)
		if err != nil {
			return Entry{}, d.wrap(err, path+".reserved")
		}
		return Entry{Kind: ReservedEntry, Words: int(n)}, nil
	}
	if _, ok := m["window"]; ok {
		return Entry{}, d.errorf(path, "windows are not supported")
	}
	r, err := d.register(m, path)
	if err != nil {
		return Entry{}, err
	}
	return Entry{Kind: RegisterEntry, Register: r}, nil
}

func (d *decoder) multireg(m map[string]interface{}, path string) (*Multireg, error) {
	r, err := d.register(m, path, "count", "cname", "compact")
	if err != nil {
		return nil, err
	}
	mr := &Multireg{Register: *r, Compact: true}
	count, ok, err := d.uint(m, "count", path+".count")
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, d.errorf(path+".count", "missing")
	}
	mr.Count = int(count)
	if mr.CName, err = d.str(m, "cname", path+".cname", false); err != nil {
		return nil, err
	}
	if cv, ok := m["compact"]; ok {
		c, err := toBool(cv)
		if err != nil {
			return nil, d.wrap(err, path+".compact")
		}
		mr.Compact = c
	}
	return mr, nil
}

func (d *decoder) register(m map[string]interface{}, path string, extraKeys ...string) (*Register, error) {
	known := append([]string{"name", "desc", "swaccess", "hwaccess", "resval", "fields",
		"hwqe", "hwext", "hwre", "tags", "regwen", "shadowed"}, extraKeys...)
	d.unknownKeys(path, m, known...)

	r := &Register{}
	var err error
	if r.Name, err = d.str(m, "name", path+".name", true); err != nil {
		return nil, err
	}
	if r.Desc, err = d.str(m, "desc", path+".desc", false); err != nil {
		return nil, err
	}
	if r.SwAccess, err = d.access(m, "swaccess", path, ParseSwAccess); err != nil {
		return nil, err
	}
	if r.HwAccess, err = d.access(m, "hwaccess", path, ParseHwAccess); err != nil {
		return nil, err
	}
	if r.ResVal, r.HasResVal, err = d.uint(m, "resval", path+".resval"); err != nil {
		return nil, err
	}

	fields, ok := m["fields"].([]interface{})
	if !ok || len(fields) == 0 {
		return nil, d.errorf(path+".fields", "missing or empty")
	}
	for i, fv := range fields {
		fpath := fmt.Sprintf("%s.fields[%d]", path, i)
		fm, ok := fv.(map[string]interface{})
		if !ok {
			return nil, d.errorf(fpath, "must be an object")
		}
		f, err := d.field(fm, fpath, r, len(fields) == 1)
		if err != nil {
			return nil, err
		}
		r.Fields = append(r.Fields, f)
	}
	return r, nil
}

func (d *decoder) field(m map[string]interface{}, path string, r *Register, only bool) (*Field, error) {
	d.unknownKeys(path, m, "name", "desc", "bits", "swaccess", "hwaccess", "resval", "enum", "tags", "hwqe")

	f := &Field{}
	var err error
	if f.Name, err = d.str(m, "name", path+".name", false); err != nil {
		return nil, err
	}
	if f.Name == "" {
		if !only {
			return nil, d.errorf(path+".name", "missing")
		}
		f.Name = r.Name
	}
	if f.Desc, err = d.str(m, "desc", path+".desc", false); err != nil {
		return nil, err
	}
	bits, ok := m["bits"]
	if !ok {
		return nil, d.errorf(path+".bits", "missing")
	}
	if f.Bits, err = ParseBitRange(scalarString(bits)); err != nil {
		return nil, d.wrap(err, path+".bits")
	}
	if f.SwAccess, err = d.access(m, "swaccess", path, ParseSwAccess); err != nil {
		return nil, err
	}
	if !f.SwAccess.IsSet() {
		f.SwAccess = r.SwAccess
	}
	if f.ResVal, f.HasResVal, err = d.uint(m, "resval", path+".resval"); err != nil {
		return nil, err
	}
	if !f.HasResVal && r.HasResVal {
		f.ResVal = (r.ResVal >> uint(f.Bits.Lsb)) & f.Bits.Mask()
		f.HasResVal = true
	}

	if ev, ok := m["enum"]; ok {
		list, ok := ev.([]interface{})
		if !ok {
			return nil, d.errorf(path+".enum", "must be a list")
		}
		for i, v := range list {
			epath := fmt.Sprintf("%s.enum[%d]", path, i)
			em, ok := v.(map[string]interface{})
			if !ok {
				return nil, d.errorf(epath, "must be an object")
			}
			var e EnumValue
			if e.Name, err = d.str(em, "name", epath+".name", true); err != nil {
				return nil, err
			}
			if e.Desc, err = d.str(em, "desc", epath+".desc", false); err != nil {
				return nil, err
			}
			if e.Value, ok, err = d.uint(em, "value", epath+".value"); err != nil {
				return nil, err
			}
			if !ok {
				return nil, d.errorf(epath+".value", "missing")
			}
			f.Enum = append(f.Enum, e)
		}
	}
	return f, nil
}

func (d *decoder) str(m map[string]interface{}, key, path string, required bool) (string, error) {
	v, ok := m[key]
	if !ok || v == nil {
		if required {
			return "", d.errorf(path, "missing")
		}
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", d.errorf(path, "must be a string")
	}
	if required && strings.TrimSpace(s) == "" {
		return "", d.errorf(path, "empty")
	}
	return s, nil
}

func (d *decoder) uint(m map[string]interface{}, key, path string) (uint64, bool, error) {
	v, ok := m[key]
	if !ok || v == nil {
		return 0, false, nil
	}
	n, err := toUint(v)
	if err != nil {
		return 0, false, d.wrap(err, path)
	}
	return n, true, nil
}

func (d *decoder) access(m map[string]interface{}, key, path string, parse func(string) (Access, error)) (Access, error) {
	s, err := d.str(m, key, path+"."+key, false)
	if err != nil {
		return "", err
	}
	a, err := parse(s)
	if err != nil {
		return "", d.wrap(err, path+"."+key)
	}
	return a, nil
}

// toUint converts a decoded scalar into an unsigned integer. Descriptions
// write most numbers as strings ("32", "0x28"), decoders produce float64,
// int or int64 for the rest.
func toUint(v interface{}) (uint64, error) {
	switch v := v.(type) {
	case string:
		n, err := strconv.ParseUint(strings.TrimSpace(v), 0, 64)
		if err != nil {
			return 0, errors.Errorf("invalid number %q", v)
		}
		return n, nil
	case float64:
		if v < 0 || v != float64(uint64(v)) {
			return 0, errors.Errorf("invalid number %v", v)
		}
		return uint64(v), nil
	case int:
		if v < 0 {
			return 0, errors.Errorf("invalid number %d", v)
		}
		return uint64(v), nil
	case int64:
		if v < 0 {
			return 0, errors.Errorf("invalid number %d", v)
		}
		return uint64(v), nil
	case uint64:
		return v, nil
	}
	return 0, errors.Errorf("invalid number %v", v)
}

func toBool(v interface{}) (bool, error) {
	switch v := v.(type) {
	case bool:
		return v, nil
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return false, errors.Errorf("invalid boolean %q", v)
		}
		return b, nil
	}
	return false, errors.Errorf("invalid boolean %v", v)
}

func scalarString(v interface{}) string {
	switch v := v.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return fmt.Sprint(v)
}
