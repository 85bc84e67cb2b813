package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func (c *cli) categoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.requireSession(); err != nil {
				return err
			}
			idx, err := c.app.Workspace.Categories.Index(cmd.Context())
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(idx.Categories()))
			for _, cat := range idx.Categories() {
				scope := "personal"
				if cat.IsGlobal() {
					scope = "global"
				}
				rows = append(rows, []string{strconv.FormatInt(cat.ID, 10), cat.Name, scope})
			}
			if len(rows) == 0 {
				fmt.Fprintln(c.out, mutedStyle.Render("No categories"))
				return nil
			}
			renderTable(c.out, []string{"ID", "NAME", "SCOPE"}, rows, nil)
			return nil
		},
	}
}

func (c *cli) summaryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Show expense summaries",
	}

	var from, to string
	byCategory := &cobra.Command{
		Use:   "category",
		Short: "Expenses by category (default: last 30 days)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.requireSession(); err != nil {
				return err
			}
			fromDate, err := flagDate(from)
			if err != nil {
				return invalidFlag("from", "Invalid date")
			}
			toDate, err := flagDate(to)
			if err != nil {
				return invalidFlag("to", "Invalid date")
			}
			view, err := c.app.Summary.ByCategory(cmd.Context(), fromDate, toDate)
			if err != nil {
				return err
			}
			fmt.Fprintln(c.out, headerStyle.Render(fmt.Sprintf("Expenses %s to %s", view.From, view.To)))
			renderSlices(c.out, view.Slices, view.Total)
			return nil
		},
	}
	byCategory.Flags().StringVar(&from, "from", "", "Start date (YYYY-MM-DD)")
	byCategory.Flags().StringVar(&to, "to", "", "End date (YYYY-MM-DD)")

	var year int
	monthly := &cobra.Command{
		Use:   "monthly",
		Short: "Expenses per month of a year (default: current year)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.requireSession(); err != nil {
				return err
			}
			view, err := c.app.Summary.Monthly(cmd.Context(), year)
			if err != nil {
				return err
			}
			fmt.Fprintln(c.out, headerStyle.Render(fmt.Sprintf("Expenses in %d", view.Year)))
			renderSlices(c.out, view.Bars, view.Total)
			return nil
		},
	}
	monthly.Flags().IntVar(&year, "year", 0, "Year")

	cmd.AddCommand(byCategory, monthly)
	return cmd
}
