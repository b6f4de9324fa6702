package bookrag

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/bookrag/bookrag/internal/migrations"
)

func newMigrateCommand(rt *runtime) *cobra.Command {
	var (
		direction string
		steps     int
	)
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back the bookstore table migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if direction != "up" && direction != "down" && direction != "status" {
				return fmt.Errorf("invalid direction: %s", direction)
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			db, err := rt.postgres(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			runner := migrations.NewRunner(migrations.WithLogger(rt.logger))
			switch direction {
			case "status":
				items, err := runner.Status(ctx, db)
				if err != nil {
					return fmt.Errorf("migration status failed: %w", err)
				}
				for _, item := range items {
					state := "pending"
					if item.Applied {
						state = "applied"
					}
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%06d %s %s\n", item.Version, item.Name, state)
				}
				return nil
			case "up":
				applied, err := runner.Up(ctx, db, steps)
				if err != nil {
					return fmt.Errorf("migration up failed: %w", err)
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "applied %d migration(s)\n", applied)
				return nil
			}
			rolledBack, err := runner.Down(ctx, db, steps)
			if err != nil {
				return fmt.Errorf("migration down failed: %w", err)
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "rolled back %d migration(s)\n", rolledBack)
			return nil
		},
	}
	cmd.Flags().StringVar(&direction, "direction", "up", "migration direction: up|down|status")
	cmd.Flags().IntVar(&steps, "steps", 0, "number of migration steps; 0 means all for up, 1 for down")
	return cmd
}
