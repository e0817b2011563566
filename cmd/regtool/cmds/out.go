package cmds

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
)

// terminalWriter returns w wrapped for ANSI escapes and true if w is a
// terminal, w unchanged and false otherwise.
func terminalWriter(w io.Writer) (io.Writer, bool) {
	f, ok := w.(*os.File)
	if !ok {
		return w, false
	}
	if !isatty.IsTerminal(f.Fd()) && !isatty.IsCygwinTerminal(f.Fd()) {
		return w, false
	}
	return colorable.NewColorable(f), true
}

func printDiagnostic(w io.Writer, c *color.Color, label string, err error) {
	w, tty := terminalWriter(w)
	if tty {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	c.Fprint(w, label)
	fmt.Fprintf(w, " %v\n", err)
}

func printError(w io.Writer, err error) {
	printDiagnostic(w, color.New(color.FgRed, color.Bold), "error:", err)
}

func printWarning(w io.Writer, err error) {
	printDiagnostic(w, color.New(color.FgYellow), "warning:", err)
}
