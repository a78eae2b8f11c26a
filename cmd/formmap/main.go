package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"sort"
	"syscall"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/goliatone/go-formmap/internal/config"
	"github.com/goliatone/go-formmap/internal/loader"
	"github.com/goliatone/go-formmap/internal/logging"
	"github.com/goliatone/go-formmap/pkg/schema"
)

var (
	version   = "dev"
	buildTime = "unknown"
	gitCommit = "unknown"
)

// errInvalid marks a command that ran but found problems, e.g. a schema with
// validation errors. main exits with status 1 without printing it again.
var errInvalid = errors.New("invalid input")

type command struct {
	name    string
	usage   string
	summary string
	run     func(ctx context.Context, env *env, fs *pflag.FlagSet) error
	flags   func(fs *pflag.FlagSet)
}

// env carries what every command needs once flags are parsed.
type env struct {
	cfg    *config.Config
	logger *zap.Logger
	loader *loader.Loader
	stdout io.Writer
	stderr io.Writer
}

func commands() map[string]command {
	list := []command{
		validateCommand(),
		convertCommand(),
		pathsCommand(),
		importCommand(),
		reconcileCommand(),
		prefillCommand(),
		mapCommand(),
	}
	out := make(map[string]command, len(list))
	for _, c := range list {
		out[c.name] = c
	}
	return out
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, errInvalid) {
			fmt.Fprintf(os.Stderr, "formmap: %v\n", err)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		printUsage(stderr)
		return errors.New("missing command")
	}

	switch args[0] {
	case "-h", "--help", "help":
		printUsage(stdout)
		return nil
	case "-v", "--version", "version":
		printVersion(stdout)
		return nil
	}

	cmd, ok := commands()[args[0]]
	if !ok {
		printUsage(stderr)
		return fmt.Errorf("unknown command %q", args[0])
	}

	fs := pflag.NewFlagSet(cmd.name, pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: formmap %s %s\n\n%s\n\nFlags:\n", cmd.name, cmd.usage, cmd.summary)
		fs.PrintDefaults()
	}
	config.RegisterFlags(fs)
	if cmd.flags != nil {
		cmd.flags(fs)
	}
	if err := fs.Parse(args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	cfg, err := config.Load(fs)
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.LogLevel, cfg.Dev)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	e := &env{
		cfg:    cfg,
		logger: logger.Named(cmd.name),
		loader: loader.New(schema.NewLoaderOptions(schema.WithHTTPFallback(cfg.Timeout))),
		stdout: stdout,
		stderr: stderr,
	}
	return cmd.run(ctx, e, fs)
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: formmap <command> [flags] [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	cmds := commands()
	names := make([]string, 0, len(cmds))
	for name := range cmds {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %-15s %s\n", name, cmds[name].summary)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'formmap <command> --help' for command flags.")
}

func printVersion(w io.Writer) {
	fmt.Fprintf(w, "formmap\n")
	fmt.Fprintf(w, "Version: %s\n", version)
	fmt.Fprintf(w, "Build Time: %s\n", buildTime)
	fmt.Fprintf(w, "Git Commit: %s\n", gitCommit)
	fmt.Fprintf(w, "Built with: %s\n", runtime.Version())
}
