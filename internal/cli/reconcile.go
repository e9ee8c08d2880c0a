package cli

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/anchalk04/smart-parking/internal/app"
	"github.com/anchalk04/smart-parking/internal/clock"
	"github.com/anchalk04/smart-parking/internal/domain"
	"github.com/anchalk04/smart-parking/internal/storage/postgres"
)

func newReconcileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Inspect and release orphaned slot holds",
	}
	cmd.AddCommand(newReconcileListCmd(), newReconcileReleaseCmd())
	return cmd
}

func newReconcileListCmd() *cobra.Command {
	var all bool

	c := &cobra.Command{
		Use:   "list",
		Short: "List orphaned holds",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv()
			if err != nil {
				return err
			}
			defer e.Close()

			pool, err := e.openDB(cmd.Context())
			if err != nil {
				return err
			}
			defer pool.Close()

			svc := app.NewReconcileService(postgres.NewOrphanedHoldRepository(pool), clock.NewSystem())
			holds, err := svc.List(cmd.Context(), all)
			if err != nil {
				return err
			}
			return printHolds(cmd.OutOrStdout(), holds)
		},
	}
	c.Flags().BoolVar(&all, "all", false, "include resolved holds")
	return c
}

func newReconcileReleaseCmd() *cobra.Command {
	var id int64

	c := &cobra.Command{
		Use:   "release",
		Short: "Return an orphaned slot to available",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv()
			if err != nil {
				return err
			}
			defer e.Close()

			pool, err := e.openDB(cmd.Context())
			if err != nil {
				return err
			}
			defer pool.Close()

			svc := app.NewReconcileService(postgres.NewOrphanedHoldRepository(pool), clock.NewSystem())
			res, err := svc.Release(cmd.Context(), id)
			if err != nil {
				return err
			}
			if res.Released {
				e.log.Info("orphaned hold released", "hold_id", res.Hold.ID, "slot_id", res.Hold.SlotID)
				fmt.Fprintf(cmd.OutOrStdout(), "released slot %s (hold %d)\n", res.Hold.SlotID, res.Hold.ID)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "hold %d resolved; slot %s was not reserved\n", res.Hold.ID, res.Hold.SlotID)
			return nil
		},
	}
	c.Flags().Int64Var(&id, "id", 0, "orphaned hold id")
	_ = c.MarkFlagRequired("id")
	return c
}

func printHolds(out io.Writer, holds []domain.OrphanedHold) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSLOT\tUSER\tDETECTED\tRESOLVED\tCAUSE")
	for _, h := range holds {
		resolved := "-"
		if h.ResolvedAt != nil {
			resolved = h.ResolvedAt.Format(time.RFC3339)
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n", h.ID, h.SlotID, h.UserID, h.DetectedAt.Format(time.RFC3339), resolved, h.Cause)
	}
	return w.Flush()
}
