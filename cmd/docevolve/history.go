package main

import (
	"github.com/spf13/cobra"
)

// shortHash is the number of hash characters shown in text output.
const shortHash = 16

var historyCmd = &cobra.Command{
	Use:   "history <name>",
	Short: "Show document version history",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, release, err := openStore(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer release()

		name := documentName(store, args[0])
		history := store.History(name)

		if out.structured() {
			return out.encode(history)
		}

		if len(history) == 0 {
			out.notice("No history found for: %s", args[0])
			return nil
		}

		out.heading("Version history for %s:", name)
		for _, s := range history {
			out.line("")
			out.heading("Version %d:", s.Number)
			out.line("  Timestamp: %s", s.Timestamp)
			h := s.Hash
			if len(h) > shortHash {
				h = h[:shortHash]
			}
			out.hash("  Hash: ", h+"...")
			if msg := s.Metadata["message"]; msg != "" {
				out.line("  Message: %s", msg)
			}
			if author := s.Metadata["author"]; author != "" {
				out.line("  Author: %s", author)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)
}
