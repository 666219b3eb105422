package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"planner/internal/services"
)

func categoryCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "category",
		Aliases: []string{"categories"},
		Short:   "Manage spending categories",
	}
	cmd.AddCommand(addCategoryCmd(a))
	cmd.AddCommand(listCategoriesCmd(a))
	return cmd
}

func addCategoryCmd(a *app) *cobra.Command {
	var colorFlag string

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a category available to every month",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, color, err := services.CategoryInput(args[0], colorFlag)
			if err != nil {
				return err
			}
			return a.withSession(cmd, func(s *session) error {
				cat, status := s.planner.AddCategory(cmd.Context(), name, color)
				if err := checkStatus("catalog", status); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added category %s (%s)\n", cat.Name, cat.ID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&colorFlag, "color", "", "colour token (default: category-other)")
	return cmd
}

func listCategoriesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List categories with the month's budget",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withSession(cmd, func(s *session) error {
				l := s.planner.Ledger()
				w := newTable(cmd.OutOrStdout())
				fmt.Fprintln(w, "ID\tNOMBRE\tCOLOR\tPLANIFICADO")
				for _, cat := range s.planner.Categories() {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", cat.ID, cat.Name, cat.Color, a.format.Currency(l.Budget(cat.ID)))
				}
				return w.Flush()
			})
		},
	}
}
