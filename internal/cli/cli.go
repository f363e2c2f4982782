// Package cli implements the command-line interface for cci-extract.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/pflag"

	"github.com/eunmann/cci-extract/pkg/logging"
)

const usage = `usage: cci-extract <command> [options] <path>
commands:
  info     print slices, sector count and compression ratio
  extract  decode every sector into a disc image
  map      export the sector layout as Parquet
paths may be local files or s3:// URIs`

// Environment fallbacks for the global flags.
const (
	envDebug = "CCI_EXTRACT_DEBUG"
	envHuman = "CCI_EXTRACT_HUMAN"
	envMmap  = "CCI_EXTRACT_MMAP"
	envTmp   = "CCI_EXTRACT_TMP"
)

// Run executes the CLI with the given arguments.
func Run(args []string) error {
	return run(context.Background(), args, os.Stdout)
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	if len(args) == 0 {
		return errors.New(usage)
	}

	switch args[0] {
	case "info":
		return runInfo(ctx, args[1:], stdout)
	case "extract":
		return runExtract(ctx, args[1:], stdout)
	case "map":
		return runMap(ctx, args[1:], stdout)
	case "help", "-h", "--help":
		fmt.Fprintln(stdout, usage)
		return nil
	default:
		return fmt.Errorf("unknown command: %s", args[0])
	}
}

// globals are the flags shared by every command.
type globals struct {
	debug bool
	human bool
	mmap  bool
	tmp   string
}

func addGlobalFlags(fs *pflag.FlagSet) {
	fs.Bool("debug", false, "enable debug logging (env "+envDebug+")")
	fs.Bool("human", false, "human-friendly console logs (env "+envHuman+")")
	fs.Bool("mmap", false, "read slices through memory mappings (env "+envMmap+")")
	fs.String("tmp", "", "directory for temporary files and S3 downloads (env "+envTmp+")")
}

// resolveGlobals applies flag > environment > default precedence.
func resolveGlobals(fs *pflag.FlagSet) (globals, error) {
	var g globals
	var err error
	if g.debug, err = resolveBool(fs, "debug", envDebug); err != nil {
		return g, err
	}
	if g.human, err = resolveBool(fs, "human", envHuman); err != nil {
		return g, err
	}
	if g.mmap, err = resolveBool(fs, "mmap", envMmap); err != nil {
		return g, err
	}
	g.tmp, err = resolveString(fs, "tmp", envTmp)
	return g, err
}

func resolveBool(fs *pflag.FlagSet, name, env string) (bool, error) {
	if fs.Changed(name) {
		return fs.GetBool(name)
	}
	if v, ok := os.LookupEnv(env); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return false, fmt.Errorf("invalid %s %q: %w", env, v, err)
		}
		return b, nil
	}
	return fs.GetBool(name)
}

func resolveString(fs *pflag.FlagSet, name, env string) (string, error) {
	if fs.Changed(name) {
		return fs.GetString(name)
	}
	if v := os.Getenv(env); v != "" {
		return v, nil
	}
	return fs.GetString(name)
}

// parseCommand parses args for one command, configures logging and returns
// the single positional path.
func parseCommand(fs *pflag.FlagSet, args []string) (globals, string, error) {
	addGlobalFlags(fs)
	if err := fs.Parse(args); err != nil {
		return globals{}, "", err
	}

	g, err := resolveGlobals(fs)
	if err != nil {
		return g, "", err
	}
	logging.Init(g.debug, g.human)

	if fs.NArg() != 1 {
		return g, "", fmt.Errorf("%s: exactly one container path is required", fs.Name())
	}
	return g, fs.Arg(0), nil
}
