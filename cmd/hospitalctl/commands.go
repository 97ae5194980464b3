package main

import (
	"context"
	"fmt"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jwalitptl/hospital-api/internal/model"
	"github.com/jwalitptl/hospital-api/internal/repository"
	"github.com/jwalitptl/hospital-api/internal/service/availability"
	"github.com/jwalitptl/hospital-api/internal/service/stats"
)

type env struct {
	store        repository.Store
	availability *availability.Service
	stats        *stats.Service
	loc          *time.Location
	now          func() time.Time
}

type opener func(ctx context.Context) (*env, func(), error)

// operator is the actor the CLI acts as. It has direct database access, so
// it is treated as an administrator.
var operator = model.Actor{Role: model.RoleAdmin}

func newRootCmd(open opener) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "hospitalctl",
		Short:         "Operator tooling for the hospital scheduling service",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(statsCmd(open))
	rootCmd.AddCommand(availabilityCmd(open))
	rootCmd.AddCommand(outboxCmd(open))
	return rootCmd
}

func statsCmd(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print the dashboard figures",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, closeFn, err := open(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			dash, err := e.stats.Dashboard(cmd.Context(), operator)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "doctors\t%d\n", dash.Doctors)
			fmt.Fprintf(w, "patients\t%d\n", dash.Patients)
			fmt.Fprintf(w, "departments\t%d\n", dash.Departments)
			fmt.Fprintf(w, "treatments\t%d\n", dash.Treatments)
			fmt.Fprintf(w, "appointments\t%d\n", dash.Appointments)
			fmt.Fprintf(w, "booked\t%d\n", dash.Booked)
			fmt.Fprintf(w, "completed\t%d\n", dash.Completed)
			fmt.Fprintf(w, "cancelled\t%d\n", dash.Cancelled)

			statuses := make([]string, 0, len(dash.ByStatus))
			for s := range dash.ByStatus {
				statuses = append(statuses, string(s))
			}
			sort.Strings(statuses)
			for _, s := range statuses {
				fmt.Fprintf(w, "  %s\t%d\n", s, dash.ByStatus[model.AppointmentStatus(s)])
			}
			return w.Flush()
		},
	}
}

func availabilityCmd(open opener) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "availability",
		Short: "Print the concrete availability windows of a doctor",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rawDoctor, _ := cmd.Flags().GetString("doctor")
			rawFrom, _ := cmd.Flags().GetString("from")
			days, _ := cmd.Flags().GetInt("days")

			doctorID, err := uuid.Parse(rawDoctor)
			if err != nil {
				return fmt.Errorf("invalid --doctor %q: %w", rawDoctor, err)
			}
			if days < 0 {
				return fmt.Errorf("--days must not be negative")
			}

			e, closeFn, err := open(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			from := model.DateOf(e.now().In(e.loc))
			if rawFrom != "" {
				if from, err = model.ParseDate(rawFrom); err != nil {
					return err
				}
			}

			windows, err := e.availability.Windows(cmd.Context(), e.store, doctorID, from, days)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(windows) == 0 {
				fmt.Fprintln(out, "no availability")
				return nil
			}
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "DATE\tSTART\tEND")
			for _, win := range windows {
				fmt.Fprintf(w, "%s\t%s\t%s\n", win.Date, win.StartTime, win.EndTime)
			}
			return w.Flush()
		},
	}
	cmd.Flags().String("doctor", "", "Doctor ID")
	cmd.Flags().String("from", "", "First date (YYYY-MM-DD), defaults to today")
	cmd.Flags().Int("days", 0, "Number of days to expand, defaults to the configured horizon")
	_ = cmd.MarkFlagRequired("doctor")
	return cmd
}

func outboxCmd(open opener) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "outbox",
		Short: "Inspect and repair the event outbox",
	}

	requeueCmd := &cobra.Command{
		Use:   "requeue",
		Short: "Move FAILED events back to PENDING",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, closeFn, err := open(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			n, err := e.store.Outbox().RequeueFailed(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Requeued %d event(s).\n", n)
			return nil
		},
	}
	cmd.AddCommand(requeueCmd)
	return cmd
}
