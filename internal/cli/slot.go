package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/anchalk04/smart-parking/internal/app"
	"github.com/anchalk04/smart-parking/internal/domain"
	"github.com/anchalk04/smart-parking/internal/storage/postgres"
)

func newSlotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "slot",
		Short: "Manage parking slots",
	}
	cmd.AddCommand(newSlotAddCmd(), newSlotListCmd())
	return cmd
}

func newSlotAddCmd() *cobra.Command {
	var name, zone, rate string

	c := &cobra.Command{
		Use:   "add",
		Short: "Create an available slot",
		RunE: func(cmd *cobra.Command, args []string) error {
			pricing, err := decimal.NewFromString(rate)
			if err != nil {
				return fmt.Errorf("--rate: %w", err)
			}

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

			svc := app.NewSlotService(postgres.NewSlotRepository(pool))
			slot, err := svc.CreateSlot(cmd.Context(), app.CreateSlotInput{Name: name, Zone: zone, PricingRate: pricing})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created slot %q (%s)\n", slot.Name, slot.ID)
			return nil
		},
	}

	c.Flags().StringVar(&name, "name", "", "slot name")
	c.Flags().StringVar(&zone, "zone", "", "zone")
	c.Flags().StringVar(&rate, "rate", "", "hourly pricing rate, e.g. 10.00")
	_ = c.MarkFlagRequired("name")
	_ = c.MarkFlagRequired("zone")
	_ = c.MarkFlagRequired("rate")
	return c
}

func newSlotListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List available slots",
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

			slots, err := app.NewSlotService(postgres.NewSlotRepository(pool)).ListAvailable(cmd.Context())
			if err != nil {
				return err
			}
			return printSlots(cmd.OutOrStdout(), slots)
		},
	}
}

func printSlots(out io.Writer, slots []domain.Slot) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tZONE\tRATE\tSTATUS")
	for _, s := range slots {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", s.ID, s.Name, s.Zone, s.PricingRate.StringFixed(2), s.Status)
	}
	return w.Flush()
}
