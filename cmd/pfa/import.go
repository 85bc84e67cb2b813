package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"pfa/internal/models"
	"pfa/internal/staging"
)

func (c *cli) importCmd() *cobra.Command {
	var (
		category string
		date     string
		dryRun   bool
	)
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Extract transactions from a receipt image or PDF and add them",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.requireSession(); err != nil {
				return err
			}
			ctx := cmd.Context()

			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("opening receipt: %w", err)
			}
			defer func() { _ = f.Close() }()

			flow := c.app.Import
			if err := flow.Upload(ctx, filepath.Base(args[0]), f); err != nil {
				return err
			}
			c.flushNotices()
			view := flow.View()
			if view.State == staging.StateEmpty {
				return nil
			}
			renderDrafts(c.out, view.Staged)
			if dryRun {
				return nil
			}

			if err := flow.ApplyStaged(); err != nil {
				return err
			}
			if date != "" {
				d, err := flagDate(date)
				if err != nil {
					return err
				}
				day := d.String()
				for i, row := range flow.View().Rows {
					if row.Date != "" {
						continue
					}
					if err := flow.EditRow(i, models.DraftPatch{Date: &day}); err != nil {
						return err
					}
				}
			}
			if category != "" {
				id, err := c.resolveCategory(ctx, category)
				if err != nil {
					return err
				}
				for i, row := range flow.View().Rows {
					if row.CategoryID != nil || row.Type != models.TxnTypeExpense {
						continue
					}
					if err := flow.EditRow(i, models.DraftPatch{CategoryID: id}); err != nil {
						return err
					}
				}
			}
			if err := flow.SubmitAll(ctx); err != nil {
				return err
			}
			c.flushNotices()
			return nil
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "Category id or name for items without one")
	cmd.Flags().StringVar(&date, "date", "", "Date (YYYY-MM-DD) for items the receipt has none for")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show the extracted items without adding them")
	return cmd
}
