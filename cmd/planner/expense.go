package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"planner/internal/core"
	"planner/internal/services"
)

func expenseCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "expense",
		Aliases: []string{"expenses"},
		Short:   "Record, edit and list expenses",
	}
	cmd.AddCommand(addExpenseCmd(a))
	cmd.AddCommand(editExpenseCmd(a))
	cmd.AddCommand(deleteExpenseCmd(a))
	cmd.AddCommand(listExpensesCmd(a))
	return cmd
}

type expenseFlags struct {
	category string
	typ      string
	date     string
}

func (f *expenseFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.category, "category", "c", "", "category id (default: other)")
	cmd.Flags().StringVarP(&f.typ, "type", "t", "", "need, want, savings or debt (default: need)")
	cmd.Flags().StringVarP(&f.date, "date", "d", "", "date as YYYY-MM-DD (default: today)")
}

func addExpenseCmd(a *app) *cobra.Command {
	var flags expenseFlags

	cmd := &cobra.Command{
		Use:   "add <amount> <description>",
		Short: "Record an expense",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			fields, err := services.ExpenseInput{
				Amount:      args[0],
				Description: strings.Join(args[1:], " "),
				CategoryID:  flags.category,
				Type:        flags.typ,
				Date:        flags.date,
			}.Fields(a.today())
			if err != nil {
				return err
			}
			return a.withSession(cmd, func(s *session) error {
				if _, ok := s.catalog.Lookup(fields.CategoryID); !ok {
					return fmt.Errorf("unknown category %q", fields.CategoryID)
				}
				e, status := s.planner.AddExpense(cmd.Context(), fields)
				if err := checkStatus("ledger", status); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added %s %s (%s)\n", e.ID, e.Description, a.format.Currency(e.Amount))
				return nil
			})
		},
	}
	flags.register(cmd)
	return cmd
}

func editExpenseCmd(a *app) *cobra.Command {
	var (
		flags       expenseFlags
		amount      string
		description string
	)

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change fields of an expense",
		Long:  "Change fields of an expense. Fields without a flag keep their current value.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(cmd, func(s *session) error {
				current, ok := findExpense(s.planner.Ledger(), args[0])
				if !ok {
					return fmt.Errorf("expense %q not found", args[0])
				}

				in := services.ExpenseInput{
					Amount:      current.Amount.String(),
					Description: current.Description,
					CategoryID:  current.CategoryID,
					Type:        string(current.Type),
					Date:        current.Date.String(),
				}
				changed := cmd.Flags().Changed
				if changed("amount") {
					in.Amount = amount
				}
				if changed("description") {
					in.Description = description
				}
				if changed("category") {
					in.CategoryID = flags.category
				}
				if changed("type") {
					in.Type = flags.typ
				}
				if changed("date") {
					in.Date = flags.date
				}

				fields, err := in.Fields(a.today())
				if err != nil {
					return err
				}
				if err := checkStatus("expense "+args[0], s.planner.EditExpense(cmd.Context(), args[0], fields)); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Updated %s\n", args[0])
				return nil
			})
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVarP(&amount, "amount", "a", "", "new amount")
	cmd.Flags().StringVar(&description, "description", "", "new description")
	return cmd
}

func deleteExpenseCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Delete an expense",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(cmd, func(s *session) error {
				if err := checkStatus("expense "+args[0], s.planner.DeleteExpense(cmd.Context(), args[0])); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
				return nil
			})
		},
	}
}

func listExpensesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List the month's expenses, newest first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withSession(cmd, func(s *session) error {
				l := s.planner.Ledger()
				out := cmd.OutOrStdout()
				if len(l.Expenses) == 0 {
					fmt.Fprintf(out, "No expenses in %s.\n", a.format.Month(l.Month))
					return nil
				}
				w := newTable(out)
				fmt.Fprintln(w, "ID\tFECHA\tDESCRIPCIÓN\tCATEGORÍA\tTIPO\tMONTO")
				for _, e := range l.Expenses {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
						e.ID,
						a.format.Date(e.Date),
						e.Description,
						categoryName(s, e.CategoryID),
						typeLabel(e.Type),
						a.format.Amount(e.Amount))
				}
				return w.Flush()
			})
		},
	}
}

func findExpense(l core.Ledger, id string) (core.Expense, bool) {
	for _, e := range l.Expenses {
		if e.ID == id {
			return e, true
		}
	}
	return core.Expense{}, false
}

func categoryName(s *session, id string) string {
	if cat, ok := s.catalog.Lookup(id); ok {
		return cat.Name
	}
	return id
}

func typeLabel(id core.ExpenseTypeID) string {
	if t, ok := core.LookupExpenseType(id); ok {
		return t.Label
	}
	return string(id)
}
