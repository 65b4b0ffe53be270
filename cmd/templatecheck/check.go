package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"templatecheck/internal/checker"
	"templatecheck/internal/classifier"
	"templatecheck/internal/config"
	"templatecheck/internal/exporter"
	"templatecheck/internal/model"
	"templatecheck/internal/server"
	"templatecheck/internal/templates"
	"templatecheck/internal/validator"
)

func newDetectCmd() *cobra.Command {
	var ranking string

	cmd := &cobra.Command{
		Use:   "detect FILE",
		Short: "Print the template a spreadsheet was built from",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig()
			if err != nil {
				return err
			}
			if ranking != "" {
				cfg.Classifier.Ranking = ranking
			}
			chk, err := newChecker(cfg, zap.NewNop())
			if err != nil {
				return err
			}

			upload, err := readUpload(args[0])
			if err != nil {
				return err
			}
			result, err := chk.Detect(cmd.Context(), upload)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), result)
		},
	}

	cmd.Flags().StringVar(&ranking, "ranking", "", "Content ranking: first_match or best_score")
	return cmd
}

func newValidateCmd() *cobra.Command {
	var (
		templateID string
		xlsxPath   string
	)

	cmd := &cobra.Command{
		Use:   "validate FILE",
		Short: "Validate a spreadsheet against its template",
		Long: `Validate a spreadsheet against a reference template. Without --template the
template is detected first. Exits with status 2 when the file does not match.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig()
			if err != nil {
				return err
			}
			logger := newLogger(cfg)
			defer func() { _ = logger.Sync() }()

			chk, err := newChecker(cfg, logger)
			if err != nil {
				return err
			}
			upload, err := readUpload(args[0])
			if err != nil {
				return err
			}

			result, err := chk.Check(cmd.Context(), upload, checker.CheckOptions{
				TemplateID: model.TemplateID(templateID),
			})
			if err != nil {
				return err
			}
			if err := writeJSON(cmd.OutOrStdout(), result); err != nil {
				return err
			}
			if xlsxPath != "" {
				if err := writeReportXLSX(xlsxPath, result); err != nil {
					return err
				}
			}
			fmt.Fprintln(cmd.ErrOrStderr(), result.Report.Summary())
			if !result.Report.IsValid {
				return errInvalid
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&templateID, "template", "t", "", "Template id (simplified, standard, detailed); detected when empty")
	cmd.Flags().StringVar(&xlsxPath, "xlsx", "", "Also write the report as an Excel workbook to this path")
	return cmd
}

func newTemplatesCmd() *cobra.Command {
	var structure bool

	cmd := &cobra.Command{
		Use:   "templates",
		Short: "List the registered reference templates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !structure {
				return writeJSON(cmd.OutOrStdout(), templates.List())
			}

			cfg, _, err := loadConfig()
			if err != nil {
				return err
			}
			registry := templates.NewRegistry(server.NewAssetSource(cfg.Templates), newLogger(cfg))

			type entry struct {
				model.TemplateDefinition
				Structure *model.ParsedWorkbook `json:"structure"`
			}
			out := []entry{}
			for _, d := range registry.List() {
				wb, err := registry.LoadReferenceStructure(cmd.Context(), d.ID)
				if err != nil {
					return err
				}
				out = append(out, entry{TemplateDefinition: d, Structure: wb})
			}
			return writeJSON(cmd.OutOrStdout(), out)
		},
	}

	cmd.Flags().BoolVar(&structure, "structure", false, "Include the parsed sheet and column structure")
	return cmd
}

func newInitConfigCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init-config [PATH]",
		Short: "Write a config.toml with the default settings",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.DefaultPath()
			if len(args) == 1 {
				path = args[0]
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
			if err := config.SaveConfig(config.DefaultConfig(), path); err != nil {
				return fmt.Errorf("failed to write config: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")
	return cmd
}

func newChecker(cfg *config.AppConfig, logger *zap.Logger) (*checker.Checker, error) {
	ranking, err := classifier.ParseRanking(cfg.Classifier.Ranking)
	if err != nil {
		return nil, err
	}
	registry := templates.NewRegistry(server.NewAssetSource(cfg.Templates), logger)
	chk := checker.New(
		classifier.New(classifier.WithRanking(ranking)),
		validator.New(registry, logger),
		checker.WithLogger(logger),
	)
	return chk, nil
}

func readUpload(path string) (checker.Upload, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return checker.Upload{}, fmt.Errorf("file not found: %s", path)
		}
		return checker.Upload{}, err
	}
	return checker.Upload{
		FileName: filepath.Base(path),
		Data:     data,
	}, nil
}

func writeReportXLSX(path string, result *checker.CheckResult) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	return exporter.Write(f, result.Report, exporter.ExportOptions{
		Classification: &result.Classification,
		UploadMode:     result.UploadMode,
	})
}
