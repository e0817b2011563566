package cmds

import (
	"bytes"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/google/renameio/v2"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/go-regtool/regtool/pkg/config"
	"github.com/go-regtool/regtool/pkg/emit"
	"github.com/go-regtool/regtool/pkg/logflags"
	"github.com/go-regtool/regtool/pkg/regdesc"
	"github.com/go-regtool/regtool/pkg/regmap"
	"github.com/go-regtool/regtool/pkg/tagger"
	"github.com/go-regtool/regtool/pkg/version"
)

var (
	// log is whether to log debug statements.
	log bool
	// logOutput is a comma separated list of components that should produce debug output.
	logOutput string
	// logDest is the file path or file descriptor where logs should go.
	logDest string
	// configPath is the config file to use instead of the default one.
	configPath string

	// langs are the languages generated by gen.
	langs []string
	// outDir is the directory gen writes to.
	outDir string
	// goPackage is the package clause of generated Go code.
	goPackage string
	// params are the KEY=VALUE description parameters.
	params []string

	// symbolPrefix restricts the symbols printed.
	symbolPrefix string
	// fullNames prints symbols with the block prefix.
	fullNames bool

	taggerParams tagger.Params
	taggerOutput string

	verbose bool

	// rootCommand is the root of the command tree.
	rootCommand *cobra.Command

	conf *config.Config
)

const regtoolCommandLongDesc = `regtool generates register map tables for memory mapped peripherals.

A peripheral is described once, in HJSON, YAML or Starlark, as a list of
registers and multiregs. regtool assigns their offsets, expands and packs
multiregs, validates the result and emits the constants firmware and drivers
use to address the registers, as a C header, a Go package or a YAML dump.

The description format is chosen from the file extension: .hjson (or .json),
.yml (or .yaml) and .star.`

// New returns an initialized command tree.
func New() *cobra.Command {
	conf = &config.Config{}
	taggerParams = tagger.DefaultParams

	// Main regtool root command.
	rootCommand = &cobra.Command{
		Use:           "regtool",
		Short:         "regtool generates register map tables for peripherals.",
		Long:          regtoolCommandLongDesc,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := logflags.Setup(log, logOutput, logDest); err != nil {
				return err
			}
			return loadConfig(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			logflags.Close()
		},
	}

	rootCommand.PersistentFlags().BoolVarP(&log, "log", "", false, "Enable logging.")
	rootCommand.PersistentFlags().StringVarP(&logOutput, "log-output", "", "", `Comma separated list of components that should produce debug output (see 'regtool help log')`)
	rootCommand.PersistentFlags().StringVarP(&logDest, "log-dest", "", "", "Writes logs to the specified file or file descriptor (see 'regtool help log').")
	rootCommand.PersistentFlags().StringVar(&configPath, "config", "", "Configuration file, $XDG_CONFIG_HOME/regtool/config.yml by default.")

	// 'gen' subcommand.
	genCommand := &cobra.Command{
		Use:   "gen [flags] description...",
		Short: "Generates register definitions from descriptions.",
		Long: `Generates register definitions from one or more descriptions.

Every description is laid out and validated first. If any of them is
invalid nothing is written. Each output file is replaced atomically.

Parameters given with --param are visible to Starlark descriptions through
the params dict and the param() builtin:

	regtool gen --lang c,go --param MaxPartition=16 tagger_regs.star
`,
		Args: cobra.MinimumNArgs(1),
		RunE: genCmd,
	}
	genCommand.Flags().StringSliceVarP(&langs, "lang", "l", nil, "Languages to generate ("+strings.Join(emit.Languages(), ", ")+").")
	genCommand.Flags().StringVarP(&outDir, "out-dir", "o", "", "Directory the generated files are written to.")
	genCommand.Flags().StringVar(&goPackage, "package", "", "Package clause of generated Go code.")
	addParamFlag(genCommand.Flags())
	rootCommand.AddCommand(genCommand)

	// 'check' subcommand.
	checkCommand := &cobra.Command{
		Use:   "check description...",
		Short: "Validates descriptions.",
		Long: `Lays out and validates descriptions without generating anything.
Every problem found is reported.`,
		Args: cobra.MinimumNArgs(1),
		RunE: checkCmd,
	}
	addParamFlag(checkCommand.Flags())
	rootCommand.AddCommand(checkCommand)

	// 'symbols' subcommand.
	symbolsCommand := &cobra.Command{
		Use:   "symbols description",
		Short: "Prints the symbols of a register map.",
		Long: `Prints the symbols of a register map in emission order, one NAME = VALUE per
line. Offsets, masks and enum values are printed in hexadecimal.`,
		Args: cobra.ExactArgs(1),
		RunE: symbolsCmd,
	}
	symbolsCommand.Flags().StringVarP(&symbolPrefix, "prefix", "p", "", "Only print symbols starting with prefix.")
	symbolsCommand.Flags().BoolVar(&fullNames, "full", false, "Print names with the block prefix.")
	addParamFlag(symbolsCommand.Flags())
	rootCommand.AddCommand(symbolsCommand)

	// 'lookup' subcommand.
	lookupCommand := &cobra.Command{
		Use:   "lookup description name|offset",
		Short: "Resolves a register name or offset.",
		Long: `Prints the offset of a register given its name, the register at an offset,
or the value of a symbol.

	regtool lookup tagger_regs.hjson PATID
	regtool lookup tagger_regs.hjson 0x28
	regtool lookup tagger_regs.hjson TAGGER_REG_PAT_ADDR_MULTIREG_COUNT
`,
		Args: cobra.ExactArgs(2),
		RunE: lookupCmd,
	}
	addParamFlag(lookupCommand.Flags())
	rootCommand.AddCommand(lookupCommand)

	// 'tagger' subcommand.
	taggerCommand := &cobra.Command{
		Use:   "tagger",
		Short: "Writes the description of the tagger peripheral.",
		Long: `Writes the HJSON description of the tagger register block for the given
hardware parameters. The number of PATID and ADDR_CONF registers is derived
from them.`,
		Args: cobra.NoArgs,
		RunE: taggerCmd,
	}
	taggerCommand.Flags().IntVar(&taggerParams.RegWidth, "reg-width", tagger.DefaultParams.RegWidth, "Register width in bits.")
	taggerCommand.Flags().IntVar(&taggerParams.MaxPartition, "max-partition", tagger.DefaultParams.MaxPartition, "Number of partitions.")
	taggerCommand.Flags().IntVar(&taggerParams.PatidLen, "patid-len", tagger.DefaultParams.PatidLen, "Width of a partition ID in bits.")
	taggerCommand.Flags().StringVarP(&taggerOutput, "output", "o", "", "Output file, standard output if empty.")
	rootCommand.AddCommand(taggerCommand)

	// 'config' subcommand.
	rootCommand.AddCommand(&cobra.Command{
		Use:   "config",
		Short: "Prints the configuration in effect.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprint(cmd.OutOrStdout(), conf)
			return nil
		},
	})

	// 'version' subcommand.
	versionCommand := &cobra.Command{
		Use:   "version",
		Short: "Prints version.",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "regtool\n%s\n", version.RegtoolVersion)
			if verbose {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\n", version.BuildInfo())
			}
		},
	}
	versionCommand.Flags().BoolVarP(&verbose, "verbose", "v", false, "Print the modules regtool was built with.")
	rootCommand.AddCommand(versionCommand)

	rootCommand.AddCommand(&cobra.Command{
		Use:   "log",
		Short: "Help about logging flags.",
		Long: `Logging can be enabled by specifying the --log flag and using the
--log-output flag to select which components should produce logs.

The argument of --log-output must be a comma separated list of component
names selected from this list:


	desc		Log description decoding and Starlark print output
	layout		Log offset assignment and multireg packing
	emit		Log generated files

Additionally --log-dest can be used to specify where the logs should be
written.
If the argument is a number it will be interpreted as a file descriptor,
otherwise as a file path.

`,
	})

	rootCommand.DisableAutoGenTag = true

	return rootCommand
}

func addParamFlag(fs *pflag.FlagSet) {
	fs.StringArrayVar(&params, "param", nil, "Description parameters KEY=VALUE, may be repeated.")
}

func loadConfig(cmd *cobra.Command) error {
	c, err := config.LoadConfig(configPath)
	if err != nil {
		if configPath != "" {
			return err
		}
		printWarning(cmd.ErrOrStderr(), err)
	}
	conf = c
	if conf.StarlarkMaxSteps != nil {
		regdesc.MaxStarlarkSteps = *conf.StarlarkMaxSteps
	}
	return nil
}

func parseParams() (map[string]string, error) {
	r := map[string]string{}
	for _, p := range params {
		m, err := config.ParseParams(p)
		if err != nil {
			return nil, err
		}
		for k, v := range m {
			r[k] = v
		}
	}
	return conf.MergeParams(r), nil
}

func loadMaps(paths []string) ([]*regmap.Map, error) {
	p, err := parseParams()
	if err != nil {
		return nil, err
	}
	maps := make([]*regmap.Map, 0, len(paths))
	for _, path := range paths {
		b, err := regdesc.Load(path, p)
		if err != nil {
			return nil, err
		}
		m, err := regmap.Build(b)
		if err != nil {
			return nil, err
		}
		maps = append(maps, m)
	}
	return maps, nil
}

func genCmd(cmd *cobra.Command, args []string) error {
	if !cmd.Flags().Changed("lang") {
		langs = conf.GetLanguages()
	}
	if outDir == "" {
		outDir = conf.OutDir
	}
	if outDir == "" {
		outDir = "."
	}
	if goPackage == "" {
		goPackage = conf.GoPackage
	}

	emitters := make([]emit.Emitter, 0, len(langs))
	for _, lang := range langs {
		e, err := emit.Lookup(lang, emit.Options{GoPackage: goPackage})
		if err != nil {
			return err
		}
		emitters = append(emitters, e)
	}

	maps, err := loadMaps(args)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return err
	}
	for _, m := range maps {
		paths, err := emit.Generate(m, outDir, emitters...)
		if err != nil {
			return err
		}
		for _, p := range paths {
			fmt.Fprintln(cmd.OutOrStdout(), p)
		}
	}
	return nil
}

func checkCmd(cmd *cobra.Command, args []string) error {
	p, err := parseParams()
	if err != nil {
		return err
	}
	failed := 0
	for _, path := range args {
		b, err := regdesc.Load(path, p)
		if err == nil {
			var m *regmap.Map
			m, err = regmap.Build(b)
			if err == nil {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: ok, %d registers, %d symbols, %#x bytes\n", path, len(m.Registers()), len(m.Symbols()), m.Size())
				continue
			}
		}
		failed++
		printError(cmd.ErrOrStderr(), err)
	}
	if failed > 0 {
		return errors.Errorf("%d of %d descriptions invalid", failed, len(args))
	}
	return nil
}

func symbolsCmd(cmd *cobra.Command, args []string) error {
	maps, err := loadMaps(args)
	if err != nil {
		return err
	}
	m := maps[0]
	syms := m.Symbols()
	if symbolPrefix != "" {
		syms = m.SymbolsWithPrefix(symbolPrefix)
	}
	for _, s := range syms {
		name := s.Name
		if fullNames {
			name = m.Prefix() + name
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n", name, s.FormatValue())
	}
	return nil
}

func lookupCmd(cmd *cobra.Command, args []string) error {
	maps, err := loadMaps(args[:1])
	if err != nil {
		return err
	}
	m, key := maps[0], args[1]
	out := cmd.OutOrStdout()

	if off, err := strconv.ParseUint(key, 0, 64); err == nil {
		r, ok := m.RegisterAt(off)
		if !ok {
			return errors.Errorf("no register at offset %#x", off)
		}
		fmt.Fprintln(out, r.Name)
		return nil
	}
	if r, ok := m.Register(strings.TrimPrefix(strings.ToUpper(key), m.Prefix())); ok {
		fmt.Fprintf(out, "%#x\n", r.Offset)
		return nil
	}
	if s, ok := m.Symbol(key); ok {
		fmt.Fprintln(out, s.FormatValue())
		return nil
	}
	return errors.Errorf("no register or symbol named %s", key)
}

func taggerCmd(cmd *cobra.Command, args []string) error {
	var buf bytes.Buffer
	if err := tagger.WriteHJSON(&buf, taggerParams); err != nil {
		return err
	}
	if taggerOutput == "" {
		_, err := cmd.OutOrStdout().Write(buf.Bytes())
		return err
	}
	if err := renameio.WriteFile(taggerOutput, buf.Bytes(), 0644); err != nil {
		return errors.Wrapf(err, "writing %s", taggerOutput)
	}
	logflags.EmitLogger().Debugf("wrote %s (%d bytes)", taggerOutput, buf.Len())
	return nil
}

// Execute runs the command tree and returns the exit status of regtool.
func Execute(root *cobra.Command) int {
	if err := root.Execute(); err != nil {
		printError(root.ErrOrStderr(), err)
		return 1
	}
	return 0
}
