package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	apperrors "pfa/internal/errors"
	"pfa/internal/gateway"
	"pfa/internal/models"
	"pfa/internal/summary"
	"pfa/internal/workspace"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#89b4fa"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#a6e3a1"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#f38ba8"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#7f849c"))
	cellStyle    = lipgloss.NewStyle().PaddingRight(2)
)

const barWidth = 30

// renderTable prints rows under headers with columns padded to fit.
// colour, when set, picks the style of a body cell.
func renderTable(w io.Writer, headers []string, rows [][]string, colour func(row, col int) lipgloss.Style) {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, r := range rows {
		for i, cell := range r {
			widths[i] = max(widths[i], lipgloss.Width(cell))
		}
	}

	line := func(cells []string, style func(col int) lipgloss.Style) string {
		parts := make([]string, len(cells))
		for i, cell := range cells {
			parts[i] = style(i).Inherit(cellStyle).Width(widths[i] + 2).Render(cell)
		}
		return strings.TrimRight(lipgloss.JoinHorizontal(lipgloss.Top, parts...), " ")
	}

	fmt.Fprintln(w, line(headers, func(int) lipgloss.Style { return headerStyle }))
	for ri, r := range rows {
		fmt.Fprintln(w, line(r, func(col int) lipgloss.Style {
			if colour == nil {
				return lipgloss.NewStyle()
			}
			return colour(ri, col)
		}))
	}
}

func renderList(w io.Writer, v workspace.ListView) {
	if len(v.Rows) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("No transactions"))
		return
	}
	rows := make([][]string, len(v.Rows))
	for i, r := range v.Rows {
		rows[i] = []string{strconv.FormatInt(r.ID, 10), r.Date, string(r.Type), r.Category, r.Description, r.Amount}
	}
	renderTable(w, []string{"ID", "DATE", "TYPE", "CATEGORY", "DESCRIPTION", "AMOUNT"}, rows, func(row, col int) lipgloss.Style {
		if col != 5 {
			return lipgloss.NewStyle()
		}
		if v.Rows[row].Type == models.TxnTypeExpense {
			return errorStyle
		}
		return successStyle
	})

	b := v.Bounds
	fmt.Fprintln(w, mutedStyle.Render(fmt.Sprintf("Page %d of %d, %d total", b.Page, b.TotalPages, b.Total)))
	fmt.Fprintln(w, mutedStyle.Render(fmt.Sprintf("Income %s  Expense %s  Net %s", v.Totals.Income, v.Totals.Expense, v.Totals.Net)))
}

func renderDrafts(w io.Writer, drafts []models.ReceiptDraftRow) {
	rows := make([][]string, len(drafts))
	for i, d := range drafts {
		rows[i] = []string{strconv.Itoa(i + 1), d.Date, d.Description, d.Amount}
	}
	renderTable(w, []string{"#", "DATE", "DESCRIPTION", "AMOUNT"}, rows, nil)
}

// renderSlices prints one bar per slice, scaled to the largest value.
func renderSlices(w io.Writer, slices []summary.Slice, total string) {
	peak := decimal.Zero
	for _, s := range slices {
		if s.Value.GreaterThan(peak) {
			peak = s.Value
		}
	}
	rows := make([][]string, len(slices))
	for i, s := range slices {
		n := 0
		if peak.IsPositive() {
			n = int(s.Value.Mul(decimal.NewFromInt(barWidth)).Div(peak).Round(0).IntPart())
		}
		bar := lipgloss.NewStyle().Foreground(lipgloss.Color(s.Color)).Render(strings.Repeat("█", n))
		rows[i] = []string{s.Label, s.Amount, s.Share.StringFixed(1) + "%", bar}
	}
	renderTable(w, []string{"LABEL", "AMOUNT", "SHARE", ""}, rows, nil)
	fmt.Fprintln(w, headerStyle.Render("Total "+total))
}

func printNotice(w io.Writer, n workspace.Notice) {
	style := mutedStyle
	switch n.Level {
	case workspace.LevelSuccess:
		style = successStyle
	case workspace.LevelError:
		style = errorStyle
	}
	fmt.Fprintln(w, style.Render(n.Message))
}

func invalidFlag(name, msg string) error {
	return apperrors.Invalid(apperrors.FieldErrors{name: msg})
}

// printError reports err on w. Session problems point at pfa login; field
// errors are listed one per line.
func printError(w io.Writer, err error) {
	var appErr *apperrors.AppError
	switch {
	case gateway.IsCanceled(err):
		fmt.Fprintln(w, mutedStyle.Render("cancelled"))
	case !errors.As(err, &appErr):
		fmt.Fprintln(w, errorStyle.Render(err.Error()))
	case appErr.Code == apperrors.ErrNotLoggedIn.Code:
		fmt.Fprintln(w, errorStyle.Render("not logged in, run pfa login"))
	case appErr.Kind == apperrors.KindUnauthorized:
		fmt.Fprintln(w, errorStyle.Render("session expired, run pfa login"))
	default:
		fmt.Fprintln(w, errorStyle.Render(appErr.Message))
		for _, f := range appErr.Fields.Fields() {
			fmt.Fprintln(w, errorStyle.Render(fmt.Sprintf("  %s: %s", f, appErr.Fields[f])))
		}
	}
}
