package bookrag

import (
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/bookrag/bookrag/internal/bootstrap"
	"github.com/bookrag/bookrag/internal/datagen"
	"github.com/bookrag/bookrag/internal/storage"
)

func newGenerateCommand(rt *runtime) *cobra.Command {
	var (
		name        string
		books       int
		seedPath    string
		catalogPath string
		outDir      string
		randSeed    int64
		upload      bool
	)
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a synthetic bookstore dataset with a randomized schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if books <= 0 {
				return fmt.Errorf("--books must be positive")
			}
			catalog := datagen.DefaultCatalog()
			if catalogPath != "" {
				loaded, err := datagen.LoadCatalog(catalogPath)
				if err != nil {
					return err
				}
				catalog = loaded
			}
			seedRows, err := datagen.LoadSeed(seedPath)
			if err != nil {
				return err
			}
			model, err := bootstrap.NewModels(rt.cfg.AI).Model(rt.cfg.AI.SummaryModel)
			if err != nil {
				return err
			}

			generator := datagen.NewGenerator(catalog, model, randSeed, rt.logger)
			dataset, err := generator.Generate(cmd.Context(), name, books, seedRows)
			if err != nil {
				return err
			}
			path, err := datagen.WriteCSV(outDir, dataset)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "wrote %d book(s) to %s\n", len(dataset.Rows), path)

			if !upload {
				return nil
			}
			store, err := bootstrap.ObjectStore(cmd.Context(), rt.cfg.ObjectStore)
			if err != nil {
				return err
			}
			if store == nil {
				return fmt.Errorf("--upload requires BOOKRAG_OBJECTSTORE_ENDPOINT and BOOKRAG_OBJECTSTORE_BUCKET")
			}
			key, err := storage.BuildDatasetKey(name, time.Now().UTC())
			if err != nil {
				return err
			}
			info, err := storage.UploadFile(cmd.Context(), store, key, path, storage.PutOptions{
				ContentType: "text/csv",
				Metadata: map[string]string{
					"bookstore": name,
					"books":     strconv.Itoa(len(dataset.Rows)),
					"rand-seed": strconv.FormatInt(randSeed, 10),
				},
			})
			if err != nil {
				return fmt.Errorf("upload dataset: %w", err)
			}
			rt.logger.InfoContext(cmd.Context(), "dataset_uploaded",
				slog.String("key", info.Key),
				slog.Int64("size", info.Size),
			)
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "uploaded %s\n", info.Key)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "bookstore name, also used for the output file name")
	cmd.Flags().IntVar(&books, "books", 50, "number of books to generate")
	cmd.Flags().StringVar(&seedPath, "seed-file", "", "seed CSV of real book records")
	cmd.Flags().StringVar(&catalogPath, "catalog", "", "field catalog YAML; defaults to the embedded catalog")
	cmd.Flags().StringVar(&outDir, "out", "data", "output directory")
	cmd.Flags().Int64Var(&randSeed, "rand-seed", 1, "random seed for schema and alias selection")
	cmd.Flags().BoolVar(&upload, "upload", false, "upload the generated CSV to the object store")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("seed-file")
	return cmd
}
