package main

import (
	"github.com/spf13/cobra"

	"github.com/aretw0/docevolve"
	"github.com/aretw0/docevolve/pkg/core"
)

type statusReport struct {
	Root      string                     `json:"root" yaml:"root"`
	Documents []docevolve.DocumentStatus `json:"documents" yaml:"documents"`
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show system status",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, release, err := openStore(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer release()

		statuses, err := store.Status(cmd.Context())
		if err != nil {
			return err
		}

		if out.structured() {
			return out.encode(statusReport{Root: store.Root(), Documents: statuses})
		}

		if len(statuses) == 0 {
			out.line("No documents tracked.")
			return nil
		}

		var changed, missing []string
		for _, st := range statuses {
			switch st.State {
			case core.StateModified:
				changed = append(changed, st.Name)
			case core.StateMissing:
				missing = append(missing, st.Name)
			}
		}

		out.heading("Document Evolution System Status")
		out.line("Root: %s", store.Root())
		out.line("Tracked documents: %d", len(statuses))

		if len(changed) > 0 {
			out.line("")
			out.notice("Documents with uncommitted changes (%d):", len(changed))
			for _, name := range changed {
				out.line("  - %s", name)
			}
		} else {
			out.line("")
			out.success("No uncommitted changes.")
		}

		if len(missing) > 0 {
			out.line("")
			out.notice("Missing documents (%d):", len(missing))
			for _, name := range missing {
				out.line("  - %s", name)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
