package main

import (
	"os"

	"github.com/go-regtool/regtool/cmd/regtool/cmds"
)

func main() {
	os.Exit(cmds.Execute(cmds.New()))
}
