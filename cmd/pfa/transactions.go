package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	apperrors "pfa/internal/errors"
	"pfa/internal/models"
	"pfa/internal/workspace"
)

// queryFlags are the list query flags shared by list, edit and delete.
type queryFlags struct {
	from, to, typ, category string
	page, limit             int
	filters                 bool
}

func (q *queryFlags) register(fs *pflag.FlagSet, filters bool) {
	q.filters = filters
	if filters {
		fs.StringVar(&q.from, "from", "", "Start date (YYYY-MM-DD)")
		fs.StringVar(&q.to, "to", "", "End date (YYYY-MM-DD)")
		fs.StringVar(&q.typ, "type", "all", "all, expense or income")
		fs.StringVar(&q.category, "category", "all", "Category id or \"all\"")
	}
	fs.IntVar(&q.page, "page", 1, "Page number")
	fs.IntVar(&q.limit, "limit", 0, "Rows per page (5, 10, 20, 50 or 100)")
}

// change turns the flags the user set into one list change.
func (q *queryFlags) change(fs *pflag.FlagSet) (workspace.Change, error) {
	var ch workspace.Change
	fields := apperrors.FieldErrors{}

	if q.filters && (fs.Changed("from") || fs.Changed("to")) {
		ch.SetRange = true
		var err error
		if ch.From, err = flagDate(q.from); err != nil {
			fields["from"] = "Invalid date"
		}
		if ch.To, err = flagDate(q.to); err != nil {
			fields["to"] = "Invalid date"
		}
	}
	if q.filters && fs.Changed("type") {
		ch.SetType = true
		if q.typ != "all" {
			t := models.TxnType(q.typ)
			ch.Type = &t
		}
	}
	if q.filters && fs.Changed("category") {
		ch.SetCategory = true
		if q.category != "all" {
			id, err := models.ParseCategoryID(q.category)
			if err != nil {
				fields["category"] = "Invalid"
			}
			ch.CategoryID = id
		}
	}
	if len(fields) > 0 {
		return ch, apperrors.Invalid(fields)
	}
	if fs.Changed("limit") {
		ch.Limit = &q.limit
	}
	if fs.Changed("page") {
		ch.Page = &q.page
	}
	return ch, nil
}

func flagDate(s string) (*models.Date, error) {
	if s == "" {
		return nil, nil
	}
	d, err := models.ParseDate(s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// loadPage applies the query flags and fetches the page.
func (c *cli) loadPage(ctx context.Context, q *queryFlags, fs *pflag.FlagSet) error {
	if err := c.requireSession(); err != nil {
		return err
	}
	ch, err := q.change(fs)
	if err != nil {
		return err
	}
	return c.app.Workspace.List.Apply(ctx, ch)
}

func (c *cli) listCmd() *cobra.Command {
	var q queryFlags
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List transactions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.loadPage(cmd.Context(), &q, cmd.Flags()); err != nil {
				return err
			}
			renderList(c.out, c.app.Workspace.View(cmd.Context()))
			return nil
		},
	}
	q.register(cmd.Flags(), true)
	return cmd
}

// formFlags are the transaction fields settable from the command line.
type formFlags struct {
	typ, date, category, amount, description string
}

func (f *formFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&f.typ, "type", string(models.TxnTypeExpense), "expense or income")
	fs.StringVar(&f.date, "date", "", "Date (YYYY-MM-DD, default today)")
	fs.StringVar(&f.category, "category", "", "Category id or name")
	fs.StringVar(&f.amount, "amount", "", "Amount in rupees")
	fs.StringVar(&f.description, "description", "", "Description")
}

// apply overwrites the fields of form the user set.
func (f *formFlags) apply(ctx context.Context, c *cli, fs *pflag.FlagSet, form *models.TransactionForm) error {
	if fs.Changed("type") {
		form.Type = models.TxnType(f.typ)
	}
	if fs.Changed("date") {
		form.Date = f.date
	}
	if fs.Changed("amount") {
		form.Amount = f.amount
	}
	if fs.Changed("description") {
		form.Description = f.description
	}
	if fs.Changed("category") {
		id, err := c.resolveCategory(ctx, f.category)
		if err != nil {
			return err
		}
		form.CategoryID = id
	}
	return nil
}

// resolveCategory accepts a category id or a case-insensitive name. An
// empty value clears the category.
func (c *cli) resolveCategory(ctx context.Context, s string) (*int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if id, err := strconv.ParseInt(s, 10, 64); err == nil {
		return &id, nil
	}
	idx, err := c.app.Workspace.Categories.Index(ctx)
	if err != nil {
		return nil, err
	}
	if id, ok := idx.IDByName(s); ok {
		return &id, nil
	}
	for _, cat := range idx.Categories() {
		if strings.EqualFold(cat.Name, s) {
			id := cat.ID
			return &id, nil
		}
	}
	return nil, apperrors.Invalid(apperrors.FieldErrors{"category_id": fmt.Sprintf("Unknown category %q", s)})
}

func (c *cli) addCmd() *cobra.Command {
	var f formFlags
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a transaction",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.requireSession(); err != nil {
				return err
			}
			ctx := cmd.Context()
			form := models.NewTransactionForm()
			if err := f.apply(ctx, c, cmd.Flags(), &form); err != nil {
				return err
			}
			dialog := c.app.Workspace.Dialog
			if err := dialog.OpenCreate(); err != nil {
				return err
			}
			if err := dialog.Submit(ctx, form); err != nil {
				return err
			}
			c.flushNotices()
			return nil
		},
	}
	f.register(cmd.Flags())
	return cmd
}

func (c *cli) editCmd() *cobra.Command {
	var (
		q queryFlags
		f formFlags
	)
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit a transaction on the given page",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			t, err := c.findOnPage(ctx, &q, cmd, args[0])
			if err != nil {
				return err
			}
			idx, _ := c.app.Workspace.Categories.Index(ctx)
			dialog := c.app.Workspace.Dialog
			if err := dialog.OpenEdit(t, idx); err != nil {
				return err
			}
			form := dialog.View().Form
			if err := f.apply(ctx, c, cmd.Flags(), &form); err != nil {
				_ = dialog.Cancel()
				return err
			}
			if err := dialog.Submit(ctx, form); err != nil {
				return err
			}
			c.flushNotices()
			return nil
		},
	}
	q.register(cmd.Flags(), false)
	f.register(cmd.Flags())
	return cmd
}

func (c *cli) deleteCmd() *cobra.Command {
	var (
		q   queryFlags
		yes bool
	)
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a transaction on the given page",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			t, err := c.findOnPage(ctx, &q, cmd, args[0])
			if err != nil {
				return err
			}
			dialog := c.app.Workspace.Dialog
			if err := dialog.RequestDelete(t); err != nil {
				return err
			}
			if !yes {
				answer, err := c.prompt(fmt.Sprintf("Delete transaction %d (%s, %s)? [y/N] ", t.ID, t.Date, workspace.DisplayAmount(t)))
				if err != nil {
					return err
				}
				if a := strings.ToLower(strings.TrimSpace(answer)); a != "y" && a != "yes" {
					fmt.Fprintln(c.out, mutedStyle.Render("Cancelled"))
					return dialog.Cancel()
				}
			}
			if err := dialog.ConfirmDelete(ctx); err != nil {
				return err
			}
			c.flushNotices()
			return nil
		},
	}
	q.register(cmd.Flags(), false)
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	return cmd
}

// findOnPage loads the page named by the flags and returns transaction
// arg from it.
func (c *cli) findOnPage(ctx context.Context, q *queryFlags, cmd *cobra.Command, arg string) (models.Transaction, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return models.Transaction{}, apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid transaction id")
	}
	if err := c.loadPage(ctx, q, cmd.Flags()); err != nil {
		return models.Transaction{}, err
	}
	t, ok := c.app.Workspace.Find(id)
	if !ok {
		return models.Transaction{}, apperrors.WithMessage(apperrors.ErrNotFound,
			fmt.Sprintf("Transaction %d is not on page %d, pass --page", id, c.app.Workspace.List.Query().Page))
	}
	return t, nil
}
