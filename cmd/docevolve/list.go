package main

import (
	"github.com/spf13/cobra"
)

type listEntry struct {
	Name        string `json:"name" yaml:"name"`
	Versions    int    `json:"versions" yaml:"versions"`
	LastUpdated string `json:"last_updated,omitempty" yaml:"last_updated,omitempty"`
	Message     string `json:"message,omitempty" yaml:"message,omitempty"`
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List tracked documents",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, release, err := openStore(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer release()

		entries := []listEntry{}
		for _, name := range store.ListDocuments() {
			doc, _ := store.Document(name)
			e := listEntry{Name: name, Versions: doc.CurrentVersion}
			if latest, ok := doc.Latest(); ok {
				e.LastUpdated = latest.Timestamp
				e.Message = latest.Metadata["message"]
			}
			entries = append(entries, e)
		}

		if out.structured() {
			return out.encode(entries)
		}

		if len(entries) == 0 {
			out.line("No documents tracked yet.")
			return nil
		}

		out.heading("Tracked documents (%d):", len(entries))
		for _, e := range entries {
			out.line("  %s", e.Name)
			out.line("    Versions: %d", e.Versions)
			if e.LastUpdated != "" {
				out.line("    Last updated: %s", e.LastUpdated)
			}
			if e.Message != "" {
				out.line("    Message: %s", e.Message)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}
