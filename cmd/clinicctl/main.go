package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/hackgods/clinic-scheduling/internal/appointment"
	"github.com/hackgods/clinic-scheduling/internal/config"
	"github.com/hackgods/clinic-scheduling/internal/db"
	"github.com/hackgods/clinic-scheduling/internal/finance"
	"github.com/hackgods/clinic-scheduling/internal/schedule"
	"github.com/hackgods/clinic-scheduling/pkg/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "clinicctl",
		Short:        "Inspect and maintain the stored clinic schedule",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(gridCmd())
	rootCmd.AddCommand(slotsCmd())
	rootCmd.AddCommand(reportCmd())
	rootCmd.AddCommand(summaryCmd())
	rootCmd.AddCommand(exportCmd())
	rootCmd.AddCommand(importCmd())
	return rootCmd
}

// openStore is swapped in tests.
var openStore = db.OpenStore

// withService opens the configured store, loads the schedule and hands a
// service over it to fn. A memory store would start from the defaults on
// every run and drop whatever the command writes, so only postgres is
// accepted.
func withService(ctx context.Context, fn func(svc *appointment.Service) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.StoreBackend != config.BackendPostgres {
		return fmt.Errorf("clinicctl needs STORE_BACKEND=%s, got %q", config.BackendPostgres, cfg.StoreBackend)
	}

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	svc := appointment.NewService(appointment.Deps{
		Store:  store.Snapshots,
		Events: store.Events,
		Logger: logging.New("warn"),
	}, appointment.OptionsFromConfig(cfg))
	if err := svc.Load(ctx); err != nil {
		return err
	}
	return fn(svc)
}

func parseDate(raw string, loc *time.Location, fallback time.Time) (time.Time, error) {
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseInLocation("2006-01-02", raw, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("date must be YYYY-MM-DD: %w", err)
	}
	return d, nil
}

func gridCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "grid",
		Short: "Print the month view around a date",
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, _ := cmd.Flags().GetString("date")
			return withService(cmd.Context(), func(svc *appointment.Service) error {
				ref, err := parseDate(raw, svc.Location(), svc.Now())
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintln(out, ref.Format("January 2006"))
				fmt.Fprintln(out, " Su  Mo  Tu  We  Th  Fr  Sa")
				for i, cell := range svc.Grid(ref) {
					mark := " "
					switch {
					case cell.IsToday:
						mark = "*"
					case !cell.InDisplayedMonth:
						mark = "."
					}
					fmt.Fprintf(out, "%s%2d ", mark, cell.Date.Day())
					if i%7 == 6 {
						fmt.Fprintln(out)
					}
				}
				return nil
			})
		},
	}
	cmd.Flags().String("date", "", "Any day of the month to show (YYYY-MM-DD, default today)")
	return cmd
}

func slotsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "slots <professional-id>",
		Short: "List the open slots of a professional on a day",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, _ := cmd.Flags().GetString("date")
			return withService(cmd.Context(), func(svc *appointment.Service) error {
				day, err := parseDate(raw, svc.Location(), svc.Now())
				if err != nil {
					return err
				}
				slots, err := svc.AvailableSlots(cmd.Context(), args[0], day)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if len(slots) == 0 {
					fmt.Fprintln(out, "no open slots")
					return nil
				}
				for _, s := range slots {
					fmt.Fprintln(out, s.In(svc.Location()).Format("15:04"))
				}
				return nil
			})
		},
	}
	cmd.Flags().String("date", "", "Day to check (YYYY-MM-DD, default today)")
	return cmd
}

func reportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print the financial report of a month or a day",
		RunE: func(cmd *cobra.Command, args []string) error {
			month, _ := cmd.Flags().GetString("month")
			date, _ := cmd.Flags().GetString("date")
			share, _ := cmd.Flags().GetFloat64("share")

			return withService(cmd.Context(), func(svc *appointment.Service) error {
				now := svc.Now()
				period := finance.Monthly(now.Year(), now.Month())
				switch {
				case date != "":
					d, err := time.Parse("2006-01-02", date)
					if err != nil {
						return fmt.Errorf("date must be YYYY-MM-DD: %w", err)
					}
					period = finance.Daily(d.Year(), d.Month(), d.Day())
				case month != "":
					m, err := time.Parse("2006-01", month)
					if err != nil {
						return fmt.Errorf("month must be YYYY-MM: %w", err)
					}
					period = finance.Monthly(m.Year(), m.Month())
				}
				if share < 0 {
					share = svc.ClinicSharePercent()
				}

				rows, err := svc.FinancialReport(period, share)
				if err != nil {
					return err
				}

				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintf(w, "Period %s, clinic share %.0f%%\n\n", period, share)
				fmt.Fprintln(w, "PROFESSIONAL\tSPECIALTY\tCOMPLETED\tREVENUE\tAVG TICKET\tCLINIC SHARE")
				for _, r := range rows {
					fmt.Fprintf(w, "%s\t%s\t%d\t%.2f\t%.2f\t%.2f\n",
						r.Name, r.Specialty, r.CompletedCount, r.TotalRevenue, r.AverageTicket, r.ClinicShare)
				}
				t := finance.Sum(rows)
				fmt.Fprintf(w, "TOTAL\t\t%d\t%.2f\t\t%.2f\n", t.CompletedCount, t.TotalRevenue, t.ClinicShare)
				fmt.Fprintf(w, "\nProfessionals receive %.2f\n", t.ProfessionalShare)
				return w.Flush()
			})
		},
	}
	cmd.Flags().String("month", "", "Month to report (YYYY-MM, default current month)")
	cmd.Flags().String("date", "", "Single day to report (YYYY-MM-DD), overrides --month")
	cmd.Flags().Float64("share", -1, "Clinic share percentage (default CLINIC_SHARE_PERCENT)")
	return cmd
}

func summaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Count appointments by status and professional",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd.Context(), func(svc *appointment.Service) error {
				sum := svc.Summary()

				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintf(w, "Total appointments\t%d\n\n", sum.Total)
				for _, s := range sum.ByStatus {
					fmt.Fprintf(w, "%s\t%d\n", s.Status, s.Count)
				}
				fmt.Fprintln(w)
				for _, p := range sum.PerProfessional {
					fmt.Fprintf(w, "%s\t%d\n", p.Name, p.Count)
				}
				return w.Flush()
			})
		},
	}
}

func exportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export",
		Short: "Write the stored schedule document to stdout",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd.Context(), func(svc *appointment.Service) error {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(schedule.Encode(svc.Snapshot()))
			})
		},
	}
}

func importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Replace the stored schedule with a document file",
		Long: "Replace the stored schedule with a document file. Run it while no " +
			"api-server is writing to the same store, or the server's next save wins.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			next, err := schedule.Unmarshal(data)
			if err != nil {
				return err
			}
			if err := next.Validate(); err != nil {
				return err
			}

			return withService(cmd.Context(), func(svc *appointment.Service) error {
				if err := svc.Replace(cmd.Context(), next, "clinicctl"); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "imported %d professionals, %d patients, %d appointments\n",
					len(next.Professionals), len(next.Patients), len(next.Appointments))
				return nil
			})
		},
	}
}
