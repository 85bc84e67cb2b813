// Package summary builds the expense charts: spending by category over a
// date range and spending per month of a year.
package summary

import (
	"context"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"

	apperrors "pfa/internal/errors"
	"pfa/internal/models"
	"pfa/internal/money"
)

// DefaultWindowDays is the length of the default category range, ending today.
const DefaultWindowDays = 30

// YearSpan is how many years either side of the current one are offered.
const YearSpan = 4

// Palette colors chart segments in order, wrapping around.
var Palette = []string{
	"#6366F1", "#22C55E", "#F59E0B", "#EF4444",
	"#06B6D4", "#8B5CF6", "#84CC16", "#EC4899",
	"#14B8A6", "#F97316", "#10B981", "#EAB308",
}

// API is the part of the gateway the summary views use.
type API interface {
	CategorySummary(ctx context.Context, from, to *models.Date) (models.CategorySummary, error)
	MonthlySummary(ctx context.Context, year int) (models.MonthlySummary, error)
}

// Slice is one chart segment or bar.
type Slice struct {
	Label  string          `json:"label"`
	Value  decimal.Decimal `json:"value"`
	Amount string          `json:"amount"`
	Share  decimal.Decimal `json:"share"`
	Color  string          `json:"color"`
}

// CategoryView is the "expenses by category" chart.
type CategoryView struct {
	From   models.Date `json:"from"`
	To     models.Date `json:"to"`
	Slices []Slice     `json:"slices"`
	Total  string      `json:"total"`
}

// MonthlyView is the "monthly expense" chart.
type MonthlyView struct {
	Year        int             `json:"year"`
	Bars        []Slice         `json:"bars"`
	Total       string          `json:"total"`
	YearOptions []models.Option `json:"year_options"`
}

// Service fetches summaries and shapes them for display.
type Service struct {
	api   API
	today func() models.Date
}

// NewService returns a Service backed by api.
func NewService(api API) *Service {
	return &Service{api: api, today: models.Today}
}

// DefaultRange returns the last DefaultWindowDays days ending on today.
func DefaultRange(today models.Date) (models.Date, models.Date) {
	return today.AddDays(-DefaultWindowDays), today
}

// ByCategory returns expense totals per category between from and to. A
// nil bound takes its value from DefaultRange.
func (s *Service) ByCategory(ctx context.Context, from, to *models.Date) (CategoryView, error) {
	defFrom, defTo := DefaultRange(s.today())
	if from == nil {
		from = &defFrom
	}
	if to == nil {
		to = &defTo
	}
	if from.After(*to) {
		return CategoryView{}, apperrors.Invalid(apperrors.FieldErrors{"from": "Must be on or before the end date"})
	}

	out, err := s.api.CategorySummary(ctx, from, to)
	if err != nil {
		return CategoryView{}, err
	}
	slices, total, err := buildSlices(out.Labels, out.Values)
	if err != nil {
		return CategoryView{}, err
	}
	return CategoryView{From: *from, To: *to, Slices: slices, Total: money.FormatINR(total)}, nil
}

// Monthly returns expense totals for each month of year. Zero means the
// current year.
func (s *Service) Monthly(ctx context.Context, year int) (MonthlyView, error) {
	current := s.today().Year()
	if year == 0 {
		year = current
	}
	if year < 1 {
		return MonthlyView{}, apperrors.Invalid(apperrors.FieldErrors{"year": "Invalid"})
	}

	out, err := s.api.MonthlySummary(ctx, year)
	if err != nil {
		return MonthlyView{}, err
	}
	bars, total, err := buildSlices(out.Labels, out.Values)
	if err != nil {
		return MonthlyView{}, err
	}
	return MonthlyView{
		Year:        year,
		Bars:        bars,
		Total:       money.FormatINR(total),
		YearOptions: YearOptions(current),
	}, nil
}

// YearOptions returns current-YearSpan through current+YearSpan.
func YearOptions(current int) []models.Option {
	out := make([]models.Option, 0, 2*YearSpan+1)
	for y := current - YearSpan; y <= current+YearSpan; y++ {
		v := strconv.Itoa(y)
		out = append(out, models.Option{Value: v, Label: v})
	}
	return out
}

func buildSlices(labels []string, values []float64) ([]Slice, decimal.Decimal, error) {
	if len(labels) != len(values) {
		return nil, decimal.Zero, apperrors.Wrap(apperrors.ErrBadResponse,
			fmt.Errorf("summary has %d labels and %d values", len(labels), len(values)))
	}

	amounts := make([]decimal.Decimal, len(values))
	total := decimal.Zero
	for i, v := range values {
		amounts[i] = decimal.NewFromFloat(v).Round(2)
		total = total.Add(amounts[i])
	}

	slices := make([]Slice, len(labels))
	for i, label := range labels {
		share := decimal.Zero
		if total.IsPositive() {
			share = amounts[i].Div(total).Mul(decimal.NewFromInt(100)).Round(1)
		}
		slices[i] = Slice{
			Label:  label,
			Value:  amounts[i],
			Amount: money.FormatINR(amounts[i]),
			Share:  share,
			Color:  Palette[i%len(Palette)],
		}
	}
	return slices, total, nil
}
