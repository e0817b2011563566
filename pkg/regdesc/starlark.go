package regdesc

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/pkg/errors"
	"go.starlark.net/starlark"

	"github.com/go-regtool/regtool/pkg/logflags"
)

const (
	// blockGlobal is the global a Starlark description must define.
	blockGlobal = "block"
	// paramsGlobal is the predeclared dict holding the generator parameters.
	paramsGlobal = "params"
)

// MaxStarlarkSteps bounds the execution of a Starlark description.
var MaxStarlarkSteps uint64 = 1 << 20

// execStarlark runs a Starlark description and returns the value of its
// block global converted to plain Go values.
func execStarlark(name string, src []byte, params map[string]string) (interface{}, error) {
	thread := &starlark.Thread{
		Name: name,
		Print: func(_ *starlark.Thread, msg string) {
			logflags.DescLogger().Infof("%s: %s", name, msg)
		},
	}
	thread.SetMaxExecutionSteps(MaxStarlarkSteps)

	globals, err := starlark.ExecFile(thread, name, src, starlarkPredeclared(params))
	if err != nil {
		if evalErr, ok := err.(*starlark.EvalError); ok {
			return nil, errors.Errorf("%s", evalErr.Backtrace())
		}
		return nil, err
	}
	v, ok := globals[blockGlobal]
	if !ok {
		return nil, errors.Errorf("%s: no %q global defined", name, blockGlobal)
	}
	return starlarkToGo(v, blockGlobal)
}

func starlarkPredeclared(params map[string]string) starlark.StringDict {
	p := starlark.NewDict(len(params))
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		var v starlark.Value = starlark.String(params[k])
		if n, err := strconv.ParseInt(params[k], 0, 64); err == nil {
			v = starlark.MakeInt64(n)
		}
		p.SetKey(starlark.String(k), v)
	}
	p.Freeze()

	return starlark.StringDict{
		paramsGlobal: p,
		"ceil_div": starlark.NewBuiltin("ceil_div", func(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
			var a, d int
			if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 2, &a, &d); err != nil {
				return starlark.None, err
			}
			if d <= 0 {
				return starlark.None, fmt.Errorf("%s: divisor must be positive", b.Name())
			}
			return starlark.MakeInt((a + d - 1) / d), nil
		}),
		"param": starlark.NewBuiltin("param", func(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
			var key string
			var def starlark.Value = starlark.None
			if err := starlark.UnpackArgs(b.Name(), args, kwargs, "key", &key, "default?", &def); err != nil {
				return starlark.None, err
			}
			v, found, err := p.Get(starlark.String(key))
			if err != nil {
				return starlark.None, err
			}
			if !found {
				if def == starlark.None {
					return starlark.None, fmt.Errorf("%s: parameter %q not set", b.Name(), key)
				}
				return def, nil
			}
			return v, nil
		}),
	}
}

// starlarkToGo converts a Starlark value into the nil, bool, int64, string,
// []interface{} and map[string]interface{} values the decoder understands.
func starlarkToGo(v starlark.Value, path string) (interface{}, error) {
	switch v := v.(type) {
	case starlark.NoneType:
		return nil, nil
	case starlark.Bool:
		return bool(v), nil
	case starlark.Int:
		n, ok := v.Int64()
		if !ok {
			return nil, errors.Errorf("%s: integer %s out of range", path, v)
		}
		return n, nil
	case starlark.String:
		return string(v), nil
	case *starlark.List:
		out := make([]interface{}, v.Len())
		for i := 0; i < v.Len(); i++ {
			e, err := starlarkToGo(v.Index(i), fmt.Sprintf("%s[%d]", path, i))
			if err != nil {
				return nil, err
			}
			out[i] = e
		}
		return out, nil
	case starlark.Tuple:
		out := make([]interface{}, len(v))
		for i := range v {
			e, err := starlarkToGo(v[i], fmt.Sprintf("%s[%d]", path, i))
			if err != nil {
				return nil, err
			}
			out[i] = e
		}
		return out, nil
	case *starlark.Dict:
		out := make(map[string]interface{}, v.Len())
		for _, kv := range v.Items() {
			k, ok := kv[0].(starlark.String)
			if !ok {
				return nil, errors.Errorf("%s: dict key %s is not a string", path, kv[0])
			}
			e, err := starlarkToGo(kv[1], path+"."+string(k))
			if err != nil {
				return nil, err
			}
			out[string(k)] = e
		}
		return out, nil
	}
	return nil, errors.Errorf("%s: unsupported value of type %s", path, v.Type())
}
