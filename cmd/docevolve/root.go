package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"

	"github.com/aretw0/docevolve"
	"github.com/aretw0/docevolve/internal/config"
	"github.com/aretw0/docevolve/pkg/policy"
)

var (
	verbose      bool
	rootFlag     string
	outputFormat string

	cfg *config.Config
	out *printer
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "docevolve",
	Short: "Track and evolve documents as systems evolve",
	Long: `docevolve keeps a full version history of individual text files.
Every recorded version is a complete snapshot with a SHA-256 hash, a timestamp
and free-form metadata, stored in a single state file under .doc_evolve/.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return err
		}

		level, _ := config.ParseLevel(cfg.LogLevel)
		if verbose {
			level = slog.LevelDebug
		}

		opts := &slog.HandlerOptions{
			Level: level,
		}
		logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), opts))
		slog.SetDefault(logger)

		out, err = newPrinter(cmd.OutOrStdout(), outputFormat, cfg.Color)
		return err
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fatal("Error", err)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&rootFlag, "root", "r", "", "Root path (default: nearest ancestor holding .doc_evolve, else the current directory)")
	rootCmd.PersistentFlags().StringVar(&outputFormat, "format", formatText, "Output format: text, json or yaml")
}

// resolveRoot picks the store root: --root, DOC_EVOLVE_ROOT, the nearest
// initialized ancestor, then the current directory.
func resolveRoot() (string, error) {
	if rootFlag != "" {
		return rootFlag, nil
	}
	if cfg != nil && cfg.Root != "" {
		return cfg.Root, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get CWD: %w", err)
	}
	if found, err := docevolve.FindRoot(cwd); err == nil {
		slog.Debug("found store root", "root", found)
		return found, nil
	}
	return cwd, nil
}

func storeOptions() []docevolve.Option {
	opts := []docevolve.Option{docevolve.WithLogger(slog.Default())}
	if cfg != nil {
		opts = append(opts,
			docevolve.WithStateFile(cfg.StateFile),
			docevolve.WithVerify(cfg.Verify),
			docevolve.WithLockTimeout(cfg.LockTimeout),
		)
	}
	return opts
}

// openStore opens the store of the resolved root. Read-only commands pass
// write=false; the others hold the state lock until release is called.
func openStore(ctx context.Context, write bool) (store *docevolve.Store, release func(), err error) {
	root, err := resolveRoot()
	if err != nil {
		return nil, nil, err
	}

	release = func() {}
	if write {
		release, err = docevolve.Lock(ctx, root, storeOptions()...)
		if err != nil {
			return nil, nil, err
		}
	}

	store, err = docevolve.Open(ctx, root, storeOptions()...)
	if err != nil {
		release()
		return nil, nil, err
	}
	return store, release, nil
}

// checkPolicy asks the policy gate whether the write command may run.
func checkPolicy(cmd *cobra.Command, store *docevolve.Store) error {
	pcfg, err := policy.LoadConfig()
	if err != nil {
		return err
	}
	gate := policy.NewGate(pcfg)
	if !gate.Enforcing() {
		return nil
	}

	ctx := policy.Context{
		"source": "cli",
		"intent": cmd.Name(),
		"repo":   filepath.Base(store.Root()),
	}
	if err := gate.Check(ctx); err != nil {
		return err
	}
	slog.Debug("policy allowed", "intent", cmd.Name())
	return nil
}

// expandArgs expands glob patterns relative to the current directory.
// Patterns without matches are kept as is so they fail as missing files.
func expandArgs(args []string) ([]string, error) {
	var files []string
	for _, arg := range args {
		if !strings.ContainsAny(arg, "*?[{") {
			files = append(files, arg)
			continue
		}
		matches, err := doublestar.FilepathGlob(arg, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", arg, err)
		}
		if len(matches) == 0 {
			files = append(files, arg)
			continue
		}
		files = append(files, matches...)
	}
	return files, nil
}

// documentName accepts either a document name or a path to a tracked file.
func documentName(store *docevolve.Store, arg string) string {
	if _, ok := store.Document(arg); ok {
		return arg
	}
	if name, _, err := store.ResolveName(arg); err == nil {
		if _, ok := store.Document(name); ok {
			return name
		}
	}
	return arg
}

// versionMetadata builds the metadata of a recorded version from -m/-a.
func versionMetadata(message, author string) docevolve.Metadata {
	md := docevolve.Metadata{}
	if message != "" {
		md["message"] = message
	}
	if author == "" && cfg != nil {
		author = cfg.Author
	}
	if author != "" {
		md["author"] = author
	}
	return md
}
