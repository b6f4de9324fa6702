package bookrag

import (
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/bookrag/bookrag/internal/bootstrap"
	"github.com/bookrag/bookrag/internal/eval"
)

func newEvalCommand(rt *runtime) *cobra.Command {
	var (
		datasetPath string
		outDir      string
		runID       string
		upload      bool
	)
	cmd := &cobra.Command{
		Use:   "eval",
		Short: "Run every dataset question through the pipeline and grade the answers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			examples, err := eval.ReadDatasetFile(datasetPath)
			if err != nil {
				return err
			}
			if runID == "" {
				runID = time.Now().UTC().Format("20060102T150405Z")
			}

			store, err := bootstrap.ObjectStore(ctx, rt.cfg.ObjectStore)
			if err != nil {
				return err
			}
			if upload && store == nil {
				return fmt.Errorf("--upload requires BOOKRAG_OBJECTSTORE_ENDPOINT and BOOKRAG_OBJECTSTORE_BUCKET")
			}

			models := bootstrap.NewModels(rt.cfg.AI)
			answerModel, err := models.Model(rt.cfg.AI.Model)
			if err != nil {
				return err
			}
			judgeModel, err := models.Model(rt.cfg.AI.JudgeModel)
			if err != nil {
				return err
			}
			service, err := bootstrap.NewService(ctx, rt.cfg, answerModel, store, rt.logger)
			if err != nil {
				return err
			}
			defer func() { _ = service.Close() }()

			runner := &eval.Runner{
				Target: service.Pipeline,
				Judge:  &eval.Judge{Model: judgeModel},
				Logger: rt.logger,
			}
			report, runErr := runner.Run(ctx, runID, examples)
			files, err := saveReport(cmd.OutOrStdout(), outDir, report, len(examples), runErr)
			if err != nil {
				return err
			}
			if runErr != nil {
				return fmt.Errorf("eval run %s stopped after %d of %d example(s): %w", runID, len(report.Rows), len(examples), runErr)
			}

			if !upload {
				return nil
			}
			infos, err := eval.Publish(ctx, store, report, files)
			if err != nil {
				return err
			}
			for _, info := range infos {
				rt.logger.InfoContext(ctx, "eval_report_uploaded", slog.String("key", info.Key), slog.Int64("size", info.Size))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&datasetPath, "dataset", "", "JSONL file of {question, answer} pairs")
	cmd.Flags().StringVar(&outDir, "out", "eval-results", "directory receiving <run id>/results.{csv,parquet}")
	cmd.Flags().StringVar(&runID, "run-id", "", "run identifier; defaults to the current UTC time")
	cmd.Flags().BoolVar(&upload, "upload", false, "upload the report files to the object store")
	_ = cmd.MarkFlagRequired("dataset")
	return cmd
}

// saveReport writes whatever rows were graded, including those of a run that
// was cancelled part way.
func saveReport(out io.Writer, outDir string, report eval.Report, total int, runErr error) (eval.Files, error) {
	if runErr != nil && len(report.Rows) == 0 {
		return eval.Files{}, nil
	}
	files, err := eval.WriteFiles(filepath.Join(outDir, report.RunID), report)
	if err != nil {
		if runErr != nil {
			return eval.Files{}, fmt.Errorf("%w (saving partial report: %v)", runErr, err)
		}
		return eval.Files{}, err
	}
	label := "run"
	if runErr != nil {
		label = "partial run"
	}
	_, _ = fmt.Fprintf(out, "%s %s: %d of %d example(s), accuracy %.2f, relevance %.2f\n",
		label, report.RunID, len(report.Rows), total, report.Accuracy(), report.RelevanceRate())
	_, _ = fmt.Fprintf(out, "results: %s, %s\n", files.CSV, files.Parquet)
	return files, nil
}
