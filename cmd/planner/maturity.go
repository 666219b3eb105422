package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"planner/internal/core"
	"planner/internal/services"
)

func maturityCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "maturity",
		Aliases: []string{"maturities"},
		Short:   "Track bills with a due date",
	}
	cmd.AddCommand(addMaturityCmd(a))
	cmd.AddCommand(toggleMaturityCmd(a))
	cmd.AddCommand(payMaturityCmd(a))
	cmd.AddCommand(deleteMaturityCmd(a))
	cmd.AddCommand(listMaturitiesCmd(a))
	return cmd
}

func addMaturityCmd(a *app) *cobra.Command {
	var typ, date string

	cmd := &cobra.Command{
		Use:   "add <amount> <service>",
		Short: "Add a pending maturity",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			fields, err := services.MaturityInput{
				Service: strings.Join(args[1:], " "),
				Amount:  args[0],
				Type:    typ,
				Date:    date,
			}.Fields(a.today())
			if err != nil {
				return err
			}
			return a.withSession(cmd, func(s *session) error {
				m, status := s.planner.AddMaturity(cmd.Context(), fields)
				if err := checkStatus("ledger", status); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added %s %s due %s (%s)\n",
					m.ID, m.Service, a.format.Date(m.Date), a.format.Currency(m.Amount))
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&typ, "type", "t", "", "need, want, savings or debt (default: need)")
	cmd.Flags().StringVarP(&date, "date", "d", "", "due date as YYYY-MM-DD (default: today)")
	return cmd
}

func toggleMaturityCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <id>",
		Short: "Flip a maturity between pending and paid",
		Long:  "Flip a maturity between pending and paid. No expense is recorded; use pay for that.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(cmd, func(s *session) error {
				if err := checkStatus("maturity "+args[0], s.planner.ToggleMaturityStatus(cmd.Context(), args[0])); err != nil {
					return err
				}
				m, _ := findMaturity(s.planner.Ledger(), args[0])
				fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", m.Service, m.Status)
				return nil
			})
		},
	}
}

func payMaturityCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "pay <id>",
		Short: "Mark a maturity paid and record it as an expense",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(cmd, func(s *session) error {
				e, status, err := s.planner.PayMaturity(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if err := checkStatus("maturity "+args[0], status); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Paid %s, recorded expense %s (%s)\n",
					e.Description, e.ID, a.format.Currency(e.Amount))
				return nil
			})
		},
	}
}

func deleteMaturityCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Delete a maturity",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(cmd, func(s *session) error {
				if err := checkStatus("maturity "+args[0], s.planner.DeleteMaturity(cmd.Context(), args[0])); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
				return nil
			})
		},
	}
}

func listMaturitiesCmd(a *app) *cobra.Command {
	var day string

	cmd := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List the month's maturities",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var on core.Date
			if day != "" {
				d, err := core.ParseDate(day)
				if err != nil {
					return fmt.Errorf("--on %q: %w", day, err)
				}
				on = d
			}
			return a.withSession(cmd, func(s *session) error {
				l := s.planner.Ledger()
				items := l.Maturities
				if !on.IsEmpty() {
					items = s.planner.MaturitiesOn(on)
				}
				out := cmd.OutOrStdout()
				if len(items) == 0 {
					fmt.Fprintf(out, "No maturities in %s.\n", a.format.Month(l.Month))
					return nil
				}
				w := newTable(out)
				fmt.Fprintln(w, "ID\tVENCIMIENTO\tSERVICIO\tTIPO\tMONTO\tESTADO")
				for _, m := range items {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
						m.ID,
						a.format.Date(m.Date),
						m.Service,
						typeLabel(m.Type),
						a.format.Amount(m.Amount),
						m.Status)
				}
				return w.Flush()
			})
		},
	}
	cmd.Flags().StringVar(&day, "on", "", "only maturities due on this date, YYYY-MM-DD")
	return cmd
}

func findMaturity(l core.Ledger, id string) (core.Maturity, bool) {
	for _, m := range l.Maturities {
		if m.ID == id {
			return m, true
		}
	}
	return core.Maturity{}, false
}
