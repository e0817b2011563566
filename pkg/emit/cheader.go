package emit

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/go-regtool/regtool/pkg/regmap"
)

// CHeader emits a C header of #define constants.
type CHeader struct{}

func (CHeader) Name() string { return "c" }

func (CHeader) FileName(m *regmap.Map) string { return baseName(m) + ".h" }

func (CHeader) Emit(w io.Writer, m *regmap.Map) error {
	bw := bufio.NewWriter(w)
	prefix := m.Prefix()
	guard := "_" + strings.ToUpper(m.Name) + "_REG_DEFS_"

	fmt.Fprintf(bw, "// Generated register defines for %s\n\n", m.Name)
	if len(m.Copyright) > 0 {
		fmt.Fprintf(bw, "// Copyright information found in source file:\n")
		for _, line := range m.Copyright {
			fmt.Fprintf(bw, "// %s\n", line)
		}
		fmt.Fprintf(bw, "\n")
	}
	if len(m.License) > 0 {
		fmt.Fprintf(bw, "// Licensing information found in source file:\n// \n")
		for _, line := range m.License {
			fmt.Fprintf(bw, "// %s\n", line)
		}
		fmt.Fprintf(bw, "\n")
	}

	fmt.Fprintf(bw, "#ifndef %s\n#define %s\n\n", guard, guard)
	fmt.Fprintf(bw, "#ifdef __cplusplus\nextern \"C\" {\n#endif\n")
	for _, it := range m.Items() {
		for _, line := range commentLines(it.Comment) {
			fmt.Fprintf(bw, "// %s\n", line)
		}
		for _, s := range it.Symbols {
			fmt.Fprintf(bw, "#define %s%s %s\n", prefix, s.Name, s.FormatValue())
		}
		fmt.Fprintf(bw, "\n")
	}
	fmt.Fprintf(bw, "#ifdef __cplusplus\n}  // extern \"C\"\n#endif\n")
	fmt.Fprintf(bw, "#endif  // %s\n", guard)
	fmt.Fprintf(bw, "// End generated register defines for %s", m.Name)
	return bw.Flush()
}
