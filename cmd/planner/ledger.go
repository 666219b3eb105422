package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"planner/internal/core"
	"planner/internal/services"
)

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func summaryCmd(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Show budget against spending for the month",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withSession(cmd, func(s *session) error {
				sum := s.planner.Summary()
				out := cmd.OutOrStdout()
				if asJSON {
					enc := json.NewEncoder(out)
					enc.SetIndent("", "  ")
					return enc.Encode(sum)
				}
				a.printSummary(out, sum)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the summary as JSON")
	return cmd
}

func (a *app) printSummary(out io.Writer, sum core.Summary) {
	f := a.format
	fmt.Fprintf(out, "%s\n\n", f.Month(sum.Month))

	w := newTable(out)
	fmt.Fprintf(w, "Ingreso\t%s\n", f.Currency(sum.Income))
	fmt.Fprintf(w, "Presupuestado\t%s\n", f.Currency(sum.Totals.TotalBudgeted))
	fmt.Fprintf(w, "Gastado (%s)\t%s\n", sum.FilterType, f.Currency(sum.Totals.TotalSpentFiltered))
	fmt.Fprintf(w, "Diferencia\t%s\n", f.Currency(sum.Totals.Difference))
	fmt.Fprintf(w, "Por asignar\t%s\n", f.Currency(sum.Remaining))
	w.Flush()

	fmt.Fprintln(out)
	w = newTable(out)
	fmt.Fprintln(w, "CATEGORÍA\tPLANIFICADO\tREAL\t%\tESTADO")
	for _, st := range sum.Categories {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			st.Category.Name,
			f.Currency(st.Planned),
			f.Currency(st.Real),
			f.Percent(st.Percentage),
			st.Status.Label())
	}
	w.Flush()

	fmt.Fprintln(out)
	w = newTable(out)
	fmt.Fprintln(w, "TIPO\tMONTO\t%")
	for _, share := range sum.TypeDistribution {
		fmt.Fprintf(w, "%s\t%s\t%s\n", share.Type.Label, f.Currency(share.Amount), f.Percent(share.Percentage))
	}
	w.Flush()

	fmt.Fprintf(out, "\nVencimientos: %s pendiente, %s pagado\n",
		f.Currency(sum.Maturities.Pending), f.Currency(sum.Maturities.Paid))
}

func incomeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "income <amount>",
		Short: "Set the month's income",
		Long:  "Set the month's income. Anything that is not a positive number is stored as zero.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(cmd, func(s *session) error {
				if err := checkStatus("ledger", s.planner.UpdateIncome(cmd.Context(), args[0])); err != nil {
					return err
				}
				l := s.planner.Ledger()
				fmt.Fprintf(cmd.OutOrStdout(), "Ingreso de %s: %s\n", a.format.Month(l.Month), a.format.Currency(l.Income))
				return nil
			})
		},
	}
}

func budgetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "budget <category-id> <amount>",
		Short: "Set the planned amount for a category",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(cmd, func(s *session) error {
				cat, ok := s.catalog.Lookup(args[0])
				if !ok {
					return fmt.Errorf("unknown category %q", args[0])
				}
				if err := checkStatus("ledger", s.planner.UpdateBudget(cmd.Context(), cat.ID, args[1])); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", cat.Name, a.format.Currency(s.planner.Ledger().Budget(cat.ID)))
				return nil
			})
		},
	}
}

func filterCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "filter <all|need|want|savings|debt>",
		Short: "Restrict spending totals to one expense type",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := services.ParseFilter(args[0])
			if err != nil {
				return err
			}
			return a.withSession(cmd, func(s *session) error {
				if err := checkStatus("ledger", s.planner.SetFilterType(cmd.Context(), filter)); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Filtro: %s\n", filter)
				return nil
			})
		},
	}
}

func monthsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "months",
		Short: "List months with a saved ledger",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withSession(cmd, func(s *session) error {
				months, err := s.repo.Months(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(months) == 0 {
					fmt.Fprintln(out, "No saved months yet.")
					return nil
				}
				w := newTable(out)
				for _, m := range months {
					fmt.Fprintf(w, "%s\t%s\n", m, a.format.Month(m))
				}
				return w.Flush()
			})
		},
	}
}
