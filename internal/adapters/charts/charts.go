// Package charts renders report rows to PNG files with gonum/plot.
package charts

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/text"
	"gonum.org/v1/plot/vg"

	"bank_reviews/internal/domain"
)

const (
	NameSentimentByBank    = "sentiment_by_bank"
	NamePainPoints         = "pain_points"
	NameRatingDistribution = "rating_distribution"
	NameBankRanking        = "bank_ranking"
	NameMonthlyTrends      = "monthly_trends"
)

type Renderer struct {
	dir           string
	width, height vg.Length
}

func New(dir string) *Renderer {
	return &Renderer{dir: dir, width: 10 * vg.Inch, height: 6 * vg.Inch}
}

func (r *Renderer) SentimentByBank(rows []domain.SentimentCount) (string, error) {
	const title = "Sentiment Distribution by Bank"
	if len(rows) == 0 {
		return r.save(NameSentimentByBank, empty(title))
	}
	v := map[[2]string]float64{}
	var banks, labels []string
	for _, row := range rows {
		banks, labels = appendUnique(banks, row.Bank), appendUnique(labels, row.Label)
		v[[2]string{row.Bank, row.Label}] = float64(row.Count)
	}
	p, err := grouped(title, "Reviews", banks, labels, func(bank, label string) float64 {
		return v[[2]string{bank, label}]
	})
	if err != nil {
		return "", err
	}
	return r.save(NameSentimentByBank, p)
}

func (r *Renderer) PainPoints(rows []domain.ThemeCount) (string, error) {
	const title = "Top Pain Points by Bank"
	if len(rows) == 0 {
		return r.save(NamePainPoints, empty(title))
	}
	v := map[[2]string]float64{}
	var themes, banks []string
	for _, row := range rows {
		themes, banks = appendUnique(themes, row.Theme), appendUnique(banks, row.Bank)
		v[[2]string{row.Theme, row.Bank}] = float64(row.Count)
	}
	sort.Strings(themes)
	p, err := grouped(title, "Negative reviews", themes, banks, func(theme, bank string) float64 {
		return v[[2]string{theme, bank}]
	})
	if err != nil {
		return "", err
	}
	p.X.Tick.Label.Rotation = math.Pi / 8
	p.X.Tick.Label.XAlign = text.XRight
	p.X.Tick.Label.YAlign = text.YCenter
	return r.save(NamePainPoints, p)
}

func (r *Renderer) RatingDistribution(rows []domain.RatingCount) (string, error) {
	const title = "Rating Distribution by Bank"
	if len(rows) == 0 {
		return r.save(NameRatingDistribution, empty(title))
	}
	v := map[[2]string]float64{}
	var banks []string
	for _, row := range rows {
		banks = appendUnique(banks, row.Bank)
		v[[2]string{strconv.Itoa(row.Rating), row.Bank}] = float64(row.Count)
	}
	stars := []string{"1", "2", "3", "4", "5"}
	p, err := grouped(title, "Reviews", stars, banks, func(star, bank string) float64 {
		return v[[2]string{star, bank}]
	})
	if err != nil {
		return "", err
	}
	p.X.Label.Text = "Stars"
	return r.save(NameRatingDistribution, p)
}

func (r *Renderer) BankRanking(rows []domain.BankRank) (string, error) {
	const title = "Bank Performance Comparison"
	if len(rows) == 0 {
		return r.save(NameBankRanking, empty(title))
	}
	banks := make([]string, len(rows))
	ratings := make(plotter.Values, len(rows))
	positive := make(plotter.Values, len(rows))
	for i, row := range rows {
		banks[i] = row.Bank
		ratings[i] = row.AvgRating
		positive[i] = row.PositivePercentage / 20 // 100% maps onto 5 stars
	}
	p := plot.New()
	p.Title.Text = title
	p.Y.Label.Text = "Average rating (positive % / 20)"
	p.Y.Min, p.Y.Max = 0, 5
	if err := addBars(p, []string{"Avg rating", "Positive %"}, []plotter.Values{ratings, positive}); err != nil {
		return "", err
	}
	p.NominalX(banks...)
	return r.save(NameBankRanking, p)
}

func (r *Renderer) MonthlyTrend(rows []domain.MonthlyPoint) (string, error) {
	const title = "Monthly Positive Sentiment"
	if len(rows) == 0 {
		return r.save(NameMonthlyTrends, empty(title))
	}
	var months, banks []string
	v := map[[2]string]float64{}
	for _, row := range rows {
		months, banks = appendUnique(months, row.Month), appendUnique(banks, row.Bank)
		v[[2]string{row.Bank, row.Month}] = row.PositivePercentage
	}
	sort.Strings(months)

	p := plot.New()
	p.Title.Text = title
	p.Y.Label.Text = "Positive reviews (%)"
	p.Y.Min, p.Y.Max = 0, 100
	p.Legend.Top = true
	for i, bank := range banks {
		var pts plotter.XYs
		for x, m := range months {
			if y, ok := v[[2]string{bank, m}]; ok {
				pts = append(pts, plotter.XY{X: float64(x), Y: y})
			}
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return "", fmt.Errorf("trend %s: %w", bank, err)
		}
		line.Color = plotutil.Color(i)
		line.Width = vg.Points(2)
		p.Add(line)
		p.Legend.Add(bank, line)
	}
	p.NominalX(months...)
	return r.save(NameMonthlyTrends, p)
}

// grouped draws one bar group per category with a bar per series.
func grouped(title, ylabel string, categories, series []string, value func(cat, ser string) float64) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = title
	p.Y.Label.Text = ylabel
	vals := make([]plotter.Values, len(series))
	for s, ser := range series {
		vals[s] = make(plotter.Values, len(categories))
		for c, cat := range categories {
			vals[s][c] = value(cat, ser)
		}
	}
	if err := addBars(p, series, vals); err != nil {
		return nil, err
	}
	p.NominalX(categories...)
	return p, nil
}

func addBars(p *plot.Plot, names []string, vals []plotter.Values) error {
	w := vg.Points(60 / float64(max(len(names), 1)))
	for i, vs := range vals {
		bars, err := plotter.NewBarChart(vs, w)
		if err != nil {
			return fmt.Errorf("bars %s: %w", names[i], err)
		}
		bars.Color = plotutil.Color(i)
		bars.LineStyle.Width = 0
		bars.Offset = w * vg.Length(float64(i)-float64(len(vals)-1)/2)
		p.Add(bars)
		p.Legend.Add(names[i], bars)
	}
	p.Legend.Top = true
	return nil
}

func empty(title string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title + " (no data)"
	p.X.Min, p.X.Max = 0, 1
	p.Y.Min, p.Y.Max = 0, 1
	p.HideAxes()
	return p
}

func (r *Renderer) save(name string, p *plot.Plot) (string, error) {
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(r.dir, name+".png")
	if err := p.Save(r.width, r.height, path); err != nil {
		return "", fmt.Errorf("save %s: %w", name, err)
	}
	return path, nil
}

func appendUnique(xs []string, x string) []string {
	for _, v := range xs {
		if v == x {
			return xs
		}
	}
	return append(xs, x)
}
