// Package emit renders register maps as source code in the supported
// target languages and writes the result to disk atomically.
package emit

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/renameio/v2"
	"github.com/pkg/errors"

	"github.com/go-regtool/regtool/pkg/logflags"
	"github.com/go-regtool/regtool/pkg/regmap"
)

// Emitter renders a register map in one target language.
type Emitter interface {
	// Name is the language name used on the command line.
	Name() string
	// FileName returns the name of the file the map is rendered into.
	FileName(m *regmap.Map) string
	Emit(w io.Writer, m *regmap.Map) error
}

// Options configure the emitters returned by Lookup.
type Options struct {
	// GoPackage is the package clause of generated Go code, derived from
	// the block name when empty.
	GoPackage string
}

// Languages returns the names of the supported languages.
func Languages() []string {
	r := []string{"c", "go", "yaml"}
	sort.Strings(r)
	return r
}

// Lookup returns the emitter for lang.
func Lookup(lang string, opts Options) (Emitter, error) {
	switch strings.ToLower(strings.TrimSpace(lang)) {
	case "c", "h":
		return CHeader{}, nil
	case "go", "golang":
		return GoPackage{Package: opts.GoPackage}, nil
	case "yaml", "yml":
		return YAMLDump{}, nil
	}
	return nil, errors.Errorf("unknown language %q (supported: %s)", lang, strings.Join(Languages(), ", "))
}

// Render returns the output of e for m.
func Render(e Emitter, m *regmap.Map) ([]byte, error) {
	var buf bytes.Buffer
	if err := e.Emit(&buf, m); err != nil {
		return nil, errors.Wrapf(err, "rendering %s output for %s", e.Name(), m.Name)
	}
	return buf.Bytes(), nil
}

// Generate renders m with every emitter and writes the results in dir.
// Every output is rendered and staged in a temporary file next to its
// target first, the targets are replaced only once all of them are
// staged. Each replacement is atomic but the set of them is not: a rename
// failing half way leaves the earlier files replaced. It returns the paths
// written.
func Generate(m *regmap.Map, dir string, emitters ...Emitter) ([]string, error) {
	log := logflags.EmitLogger()
	type output struct {
		path string
		data []byte
	}
	outputs := make([]output, 0, len(emitters))
	for _, e := range emitters {
		data, err := Render(e, m)
		if err != nil {
			return nil, err
		}
		outputs = append(outputs, output{filepath.Join(dir, e.FileName(m)), data})
	}

	pending := make([]*renameio.PendingFile, 0, len(outputs))
	defer func() {
		for _, f := range pending {
			f.Cleanup()
		}
	}()
	for _, o := range outputs {
		if fi, err := os.Lstat(o.path); err == nil && !fi.Mode().IsRegular() {
			return nil, errors.Errorf("writing %s: not a regular file", o.path)
		}
		f, err := renameio.NewPendingFile(o.path, renameio.WithTempDir(dir), renameio.WithPermissions(0644), renameio.WithExistingPermissions())
		if err != nil {
			return nil, errors.Wrapf(err, "writing %s", o.path)
		}
		pending = append(pending, f)
		if _, err := f.Write(o.data); err != nil {
			return nil, errors.Wrapf(err, "writing %s", o.path)
		}
	}

	paths := make([]string, 0, len(outputs))
	for i, o := range outputs {
		if err := pending[i].CloseAtomicallyReplace(); err != nil {
			return paths, errors.Wrapf(err, "writing %s", o.path)
		}
		log.Debugf("wrote %s (%d bytes)", o.path, len(o.data))
		paths = append(paths, o.path)
	}
	return paths, nil
}

// WriteFile renders m with e and atomically replaces path with the result.
// On error the file at path is left untouched.
func WriteFile(path string, e Emitter, m *regmap.Map) error {
	data, err := Render(e, m)
	if err != nil {
		return err
	}
	if err := renameio.WriteFile(path, data, 0644); err != nil {
		return errors.Wrapf(err, "writing %s", path)
	}
	logflags.EmitLogger().Debugf("wrote %s (%d bytes)", path, len(data))
	return nil
}

// baseName is the source file name of m without its extension, the
// block name when m was not decoded from a file.
func baseName(m *regmap.Map) string {
	if m.Source == "" {
		return m.Name
	}
	return strings.TrimSuffix(filepath.Base(m.Source), filepath.Ext(m.Source))
}

// commentLines splits a description into trimmed, non empty lines.
func commentLines(s string) []string {
	var r []string
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			r = append(r, line)
		}
	}
	return r
}
