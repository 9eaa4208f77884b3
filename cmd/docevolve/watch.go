package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/aretw0/docevolve/pkg/adapters/watch"
)

var (
	watchSchedule string
	watchIgnore   []string
	watchDebounce time.Duration
	watchAuthor   string
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Record new versions as tracked documents change",
	Long: `Watch every tracked document and record a version (message "auto: watch")
whenever its content changes. Runs until interrupted.

The state lock is held while watching: other writing commands wait for it.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		store, release, err := openStore(ctx, true)
		if err != nil {
			return err
		}
		defer release()

		if err := checkPolicy(cmd, store); err != nil {
			return err
		}

		schedule := watchSchedule
		ignore := watchIgnore
		author := watchAuthor
		if cfg != nil {
			if schedule == "" {
				schedule = cfg.WatchSchedule
			}
			if len(ignore) == 0 {
				ignore = cfg.WatchIgnore
			}
			if author == "" {
				author = cfg.Author
			}
		}

		w, err := watch.New(store, watch.Config{
			Author:   author,
			Debounce: watchDebounce,
			Ignore:   ignore,
			Schedule: schedule,
			Logger:   slog.Default(),
		})
		if err != nil {
			return err
		}

		out.heading("Watching %d documents (Ctrl+C to stop)", len(w.Paths()))
		if err := w.Run(ctx); err != nil && ctx.Err() == nil {
			return err
		}

		st := w.State().(watch.WatcherState)
		out.line("Recorded %d versions.", st.Updates)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().StringVar(&watchSchedule, "schedule", "", "Cron spec for periodic full reconciles (e.g. \"@every 5m\")")
	watchCmd.Flags().StringSliceVar(&watchIgnore, "ignore", nil, "Glob patterns of documents to leave alone")
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", watch.DefaultDebounce, "Quiet window before a change is recorded")
	watchCmd.Flags().StringVarP(&watchAuthor, "author", "a", "", "Author name (default: $DOC_EVOLVE_AUTHOR)")
}
