package main

import (
	"os"

	"github.com/spf13/cobra"

	"templatecheck/internal/importer"
	"templatecheck/internal/model"
)

func newBatchCmd() *cobra.Command {
	var (
		templateID string
		workers    int
	)

	cmd := &cobra.Command{
		Use:   "batch DIR|FILE...",
		Short: "Validate many spreadsheets concurrently, printing one JSON event per line",
		Long: `Validate every .xlsx, .xls and .csv file of a directory (or the given files)
and stream progress events as JSON lines. Exits with status 2 when any file
is invalid or cannot be checked.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig()
			if err != nil {
				return err
			}
			logger := newLogger(cfg)
			defer func() { _ = logger.Sync() }()

			items, err := batchItems(args)
			if err != nil {
				return err
			}
			chk, err := newChecker(cfg, logger)
			if err != nil {
				return err
			}

			events := importer.NewCoordinator(chk).Run(cmd.Context(), items, importer.Options{
				TemplateID: model.TemplateID(templateID),
				Workers:    workers,
			})

			clean := true
			for ev := range events {
				if err := writeJSON(cmd.OutOrStdout(), ev); err != nil {
					return err
				}
				if s, ok := ev.Data.(importer.Summary); ok && (s.Invalid > 0 || s.Failed > 0) {
					clean = false
				}
			}
			if !clean {
				return errInvalid
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&templateID, "template", "t", "", "Template id for every file; detected per file when empty")
	cmd.Flags().IntVarP(&workers, "workers", "w", importer.DefaultWorkers, "Files checked concurrently")
	return cmd
}

// batchItems expands a single directory argument, otherwise treats every
// argument as a file.
func batchItems(args []string) ([]importer.Item, error) {
	if len(args) == 1 {
		st, err := os.Stat(args[0])
		if err != nil {
			return nil, err
		}
		if st.IsDir() {
			return importer.DirItems(args[0])
		}
	}
	items := make([]importer.Item, 0, len(args))
	for _, p := range args {
		items = append(items, importer.FileItem(p))
	}
	return items, nil
}
