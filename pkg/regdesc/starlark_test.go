package regdesc

import (
	"strings"
	"testing"
)

const counterStar = `
n = param("Counters", 2)
print("expanding", n, "counters")
block = {
    "name": "counters",
    "regwidth": param("RegWidth", 32),
    "registers": [
        {"name": "CNT_%d" % i, "desc": "counter", "fields": [{"bits": "15:0", "name": "value"}]}
        for i in range(n)
    ] + [
        {"multireg": {"name": "FLAGS", "count": ceil_div(n * 3, 2), "fields": [{"bits": "0"}]}},
    ],
}
`

func TestStarlarkParams(t *testing.T) {
	b, err := Decode([]byte(counterStar), Starlark, "counters.star", map[string]string{"Counters": "4", "RegWidth": "0x10"})
	if err != nil {
		t.Fatal(err)
	}
	if b.RegWidth != 16 {
		t.Errorf("expected regwidth 16; got %d", b.RegWidth)
	}
	if len(b.Entries) != 5 {
		t.Fatalf("expected 5 entries; got %d", len(b.Entries))
	}
	if name := b.Entries[3].Register.Name; name != "CNT_3" {
		t.Errorf("expected CNT_3; got %s", name)
	}
	if count := b.Entries[4].Multireg.Count; count != 6 {
		t.Errorf("expected ceil_div(12, 2) = 6 flags; got %d", count)
	}

	b, err = Decode([]byte(counterStar), Starlark, "counters.star", nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(b.Entries) != 3 || b.RegWidth != 32 {
		t.Errorf("expected defaults to apply; got %d entries regwidth %d", len(b.Entries), b.RegWidth)
	}
}

func TestStarlarkErrors(t *testing.T) {
	for _, tc := range []struct {
		name string
		src  string
		msg  string
	}{
		{"no block", `x = 1`, `no "block" global defined`},
		{"missing param", `block = {"name": param("Name")}`, `parameter "Name" not set`},
		{"syntax", `block = {`, "counters.star"},
		{"runtime", `block = 1 // 0`, "division by zero"},
		{"zero divisor", `block = ceil_div(3, 0)`, "divisor must be positive"},
		{"non string key", `block = {1: 2}`, "dict key 1 is not a string"},
		{"unsupported value", `block = {"name": 1.5}`, "unsupported value of type float"},
		{"endless", "def f():\n    for i in range(1 << 30):\n        pass\nf()\nblock = {}\n", "too many steps"},
	} {
		_, err := Decode([]byte(tc.src), Starlark, "counters.star", nil)
		if err == nil {
			t.Errorf("%s: expected error", tc.name)
			continue
		}
		if !strings.Contains(err.Error(), tc.msg) {
			t.Errorf("%s: expected error containing %q; got %q", tc.name, tc.msg, err)
		}
	}
}

func TestStarlarkParamsFrozen(t *testing.T) {
	_, err := Decode([]byte(`params["x"] = 1`+"\nblock = {}\n"), Starlark, "frozen.star", map[string]string{"y": "z"})
	if err == nil || !strings.Contains(err.Error(), "frozen") {
		t.Fatalf("expected frozen params error; got %v", err)
	}
}
