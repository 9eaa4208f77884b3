package main

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/aretw0/docevolve"
)

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Initialize document evolution system",
	Long:  `Create the .doc_evolve/ directory under path (default: the current directory).`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "."
		if len(args) == 1 {
			path = args[0]
		} else if rootFlag != "" {
			path = rootFlag
		}

		store, err := docevolve.Open(cmd.Context(), path, storeOptions()...)
		if err != nil {
			return err
		}

		out.success("Initialized document evolution system in %s", path)
		out.line("Evolution data stored in: %s", filepath.Join(store.Root(), docevolve.DefaultSystemDir))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
