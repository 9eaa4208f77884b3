package main

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/aretw0/docevolve"
	"github.com/aretw0/docevolve/pkg/discovery"
	"github.com/aretw0/docevolve/pkg/policy"
)

var (
	discoverIndex    string
	discoverDocs     string
	discoverManifest string
	discoverPattern  string
	discoverNoTrack  bool
)

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Generate documents from a memory index and track them",
	Long: `Read the CSV memory index, write one placeholder document per new entry,
rebuild the documents manifest and track every new document.
Relative paths are resolved against the store root.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, release, err := openStore(cmd.Context(), true)
		if err != nil {
			return err
		}
		defer release()

		if err := checkPolicy(cmd, store); err != nil {
			return err
		}

		root := store.Root()
		resolve := func(flag, fallback string) string {
			p := flag
			if p == "" {
				p = fallback
			}
			if filepath.IsAbs(p) {
				return p
			}
			return filepath.Join(root, p)
		}

		var index, docs, manifest string
		if cfg != nil {
			index, docs, manifest = cfg.IndexPath, cfg.DocsDir, cfg.ManifestPath
		}
		docsDir := resolve(discoverDocs, docs)

		pcfg, err := policy.LoadConfig()
		if err != nil {
			return err
		}

		syncer := &discovery.Syncer{
			Gate: policy.NewGate(pcfg),
			Detector: &discovery.Detector{
				IndexPath: resolve(discoverIndex, index),
				DocsDir:   docsDir,
				StatePath: filepath.Join(root, docevolve.DefaultSystemDir, "discovery.json"),
			},
			Manifest: &discovery.ManifestBuilder{
				DocsDir: docsDir,
				Path:    resolve(discoverManifest, manifest),
				RelTo:   root,
				Pattern: discoverPattern,
			},
			Logger: slog.Default(),
		}
		if !discoverNoTrack {
			syncer.Tracker = store
		}

		res, err := syncer.Run(cmd.Context())
		if err != nil {
			return err
		}

		if out.structured() {
			return out.encode(res)
		}

		if res.Blocked {
			return fmt.Errorf("%w: %s", policy.ErrDenied, res.Reason)
		}
		if len(res.Changes) == 0 {
			out.line("No new index entries.")
		} else {
			out.heading("Discovered %d new entries:", len(res.Changes))
			for _, c := range res.Changes {
				out.line("  - %s (%s)", c.ID, c.TenantID)
			}
		}
		for _, name := range res.Tracked {
			out.success("Tracking document: %s", name)
		}
		if res.Manifest != nil {
			out.line("Manifest: %d documents", len(res.Manifest.Docs))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(discoverCmd)
	discoverCmd.Flags().StringVar(&discoverIndex, "index", "", "CSV memory index (default: $DOC_EVOLVE_INDEX_PATH)")
	discoverCmd.Flags().StringVar(&discoverDocs, "docs", "", "Directory receiving generated documents (default: $DOC_EVOLVE_DOCS_DIR)")
	discoverCmd.Flags().StringVar(&discoverManifest, "manifest", "", "Manifest file (default: $DOC_EVOLVE_MANIFEST_PATH)")
	discoverCmd.Flags().StringVar(&discoverPattern, "pattern", discovery.DefaultManifestPattern, "Glob of documents listed in the manifest")
	discoverCmd.Flags().BoolVar(&discoverNoTrack, "no-track", false, "Generate documents without tracking them")
}
