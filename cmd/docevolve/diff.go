package main

import (
	"github.com/spf13/cobra"
)

var diffCmd = &cobra.Command{
	Use:   "diff <name> <v1> <v2>",
	Short: "Compare document versions",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		v1, err := parseVersion(args[1])
		if err != nil {
			return err
		}
		v2, err := parseVersion(args[2])
		if err != nil {
			return err
		}

		store, release, err := openStore(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer release()

		diff, err := store.DiffVersions(documentName(store, args[0]), v1, v2)
		if err != nil {
			return err
		}

		if out.structured() {
			return out.encode(diff)
		}

		out.heading("Comparing versions %d and %d of %s:", v1, v2, args[0])
		out.line("  Version %d: %d lines", v1, diff.LinesV1)
		out.line("  Version %d: %d lines", v2, diff.LinesV2)
		out.line("  Changed: %t", diff.Changed)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(diffCmd)
}
