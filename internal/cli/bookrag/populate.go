package bookrag

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/spf13/cobra"

	"github.com/bookrag/bookrag/internal/populate"
)

func newPopulateCommand(rt *runtime) *cobra.Command {
	var tables map[string]string
	cmd := &cobra.Command{
		Use:   "populate",
		Short: "Insert bookstore CSV files into their tables",
		Long: `populate inserts every row of each CSV into its table. It appends
unconditionally, so running it twice duplicates the rows.`,
		Example: "  bookrag populate --table book_store_one=data/bookstore1.csv --table book_store_two=data/bookstore2.csv",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if len(tables) == 0 {
				return fmt.Errorf("at least one --table name=path is required")
			}
			db, err := rt.postgres(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			names := make([]string, 0, len(tables))
			for name := range tables {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				count, err := populate.LoadFile(cmd.Context(), db, name, tables[name])
				if err != nil {
					return fmt.Errorf("populate %s: %w", name, err)
				}
				rt.logger.InfoContext(cmd.Context(), "table_populated",
					slog.String("table", name),
					slog.String("path", tables[name]),
					slog.Int("rows", count),
				)
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "inserted %d row(s) into %s\n", count, name)
			}
			return nil
		},
	}
	cmd.Flags().StringToStringVar(&tables, "table", nil, "table=csv path pair, repeatable")
	return cmd
}
