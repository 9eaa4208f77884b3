package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var restoreOutput string

var restoreCmd = &cobra.Command{
	Use:   "restore <name> <version>",
	Short: "Restore a document version",
	Long: `Write the content of a recorded version to the document's path, or to
--output. The history itself is not modified.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		number, err := parseVersion(args[1])
		if err != nil {
			return err
		}

		store, release, err := openStore(cmd.Context(), true)
		if err != nil {
			return err
		}
		defer release()

		if err := checkPolicy(cmd, store); err != nil {
			return err
		}

		name := documentName(store, args[0])
		v, err := store.RestoreVersion(cmd.Context(), name, number, restoreOutput)
		if err != nil {
			return err
		}

		target := restoreOutput
		if target == "" {
			target = args[0]
		}
		out.success("Restored version %d of %s to %s", number, args[0], target)
		out.hash("Hash: ", v.Hash)
		return nil
	},
}

// parseVersion parses a version number argument.
func parseVersion(arg string) (int, error) {
	n, err := strconv.Atoi(arg)
	if err != nil {
		return 0, fmt.Errorf("invalid version %q: must be an integer", arg)
	}
	return n, nil
}

func init() {
	rootCmd.AddCommand(restoreCmd)
	restoreCmd.Flags().StringVarP(&restoreOutput, "output", "o", "", "Output file (default: overwrite original)")
}
