package main

import (
	"github.com/spf13/cobra"
)

var (
	versionMessage string
	versionAuthor  string
)

// trackCmd represents the track command
var trackCmd = &cobra.Command{
	Use:   "track <file>...",
	Short: "Start tracking a document",
	Long: `Record the current content of each file as a new version.
Files whose content did not change since their latest version are left as is.
Glob patterns (e.g. "docs/**/*.md") are expanded.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		files, err := expandArgs(args)
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

		md := versionMetadata(versionMessage, versionAuthor)
		for _, file := range files {
			doc, err := store.TrackDocument(cmd.Context(), file, md)
			if err != nil {
				return err
			}
			latest, _ := doc.Latest()
			out.success("Tracking document: %s", doc.Name)
			out.line("Version: %d", latest.Number)
			out.hash("Hash: ", latest.Hash)
		}
		return nil
	},
}

// updateCmd represents the update command
var updateCmd = &cobra.Command{
	Use:   "update <file>...",
	Short: "Update a tracked document",
	Long: `Record a new version of each file if its content changed.
An untracked file is tracked first.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		files, err := expandArgs(args)
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

		md := versionMetadata(versionMessage, versionAuthor)
		for _, file := range files {
			v, err := store.UpdateDocument(cmd.Context(), file, md)
			if err != nil {
				return err
			}
			if v == nil {
				out.notice("No changes detected in: %s", file)
				continue
			}
			out.success("Updated document: %s", file)
			out.line("New version: %d", v.Number)
			out.hash("Hash: ", v.Hash)
		}
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{trackCmd, updateCmd} {
		rootCmd.AddCommand(c)
		c.Flags().StringVarP(&versionMessage, "message", "m", "", "Version message")
		c.Flags().StringVarP(&versionAuthor, "author", "a", "", "Author name (default: $DOC_EVOLVE_AUTHOR)")
	}
}
