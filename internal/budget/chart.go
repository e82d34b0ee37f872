package budget

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/dvloznov/nett/internal/domain"
	"github.com/wcharczuk/go-chart/v2"
)

// ErrNotEnoughData is returned when fewer than two periods are charted.
var ErrNotEnoughData = errors.New("at least two periods are needed for a chart")

// RenderChart draws spent against limit per period as a PNG.
func RenderChart(w io.Writer, title string, periods []domain.BudgetPeriod) error {
	if len(periods) < 2 {
		return ErrNotEnoughData
	}

	xs := make([]time.Time, len(periods))
	spent := make([]float64, len(periods))
	limit := make([]float64, len(periods))
	for i, p := range periods {
		xs[i] = p.Start
		spent[i] = p.Spent.InexactFloat64()
		limit[i] = p.Limit.InexactFloat64()
	}

	graph := chart.Chart{
		Title:  title,
		Width:  1000,
		Height: 500,
		Background: chart.Style{
			Padding: chart.Box{
				Top:    50,
				Left:   30,
				Right:  30,
				Bottom: 30,
			},
			FillColor: chart.ColorWhite,
		},
		XAxis: chart.XAxis{
			ValueFormatter: chart.TimeValueFormatterWithFormat("2006-01-02"),
		},
		YAxis: chart.YAxis{
			ValueFormatter: func(v interface{}) string {
				return fmt.Sprintf("$%.0f", v.(float64))
			},
		},
		Series: []chart.Series{
			chart.TimeSeries{
				Name:    "Spent",
				XValues: xs,
				YValues: spent,
				Style: chart.Style{
					StrokeColor: chart.ColorRed,
					StrokeWidth: 2,
				},
			},
			chart.TimeSeries{
				Name:    "Limit",
				XValues: xs,
				YValues: limit,
				Style: chart.Style{
					StrokeColor:     chart.ColorGreen,
					StrokeWidth:     2,
					StrokeDashArray: []float64{5.0, 5.0},
				},
			},
		},
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	if err := graph.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("RenderChart: %w", err)
	}
	return nil
}
