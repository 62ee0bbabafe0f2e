package report

import (
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"

	"EquityScope/internal/analyzer"
	"EquityScope/internal/model"
)

// overlaySeries reports whether an indicator series belongs on the price
// chart. Oscillators live on their own scale and are left out.
func overlaySeries(name string) bool {
	return strings.HasPrefix(name, "sma_") || strings.HasPrefix(name, "bb_")
}

// WriteChart renders a candlestick chart with moving-average and Bollinger
// overlays to a standalone HTML file.
func WriteChart(path string, prices *model.PriceSeries, tech *analyzer.TechnicalResult) error {
	kline := charts.NewKLine()

	xAxis := make([]string, 0, prices.Len())
	yAxis := make([]opts.KlineData, 0, prices.Len())
	for _, b := range prices.Bars {
		xAxis = append(xAxis, b.Time.Format("2006-01-02"))
		yAxis = append(yAxis, opts.KlineData{Value: [4]float64{b.Open, b.Close, b.Low, b.High}})
	}

	kline.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Width: "1200px",
			Theme: types.ThemeVintage,
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    prices.Symbol,
			Subtitle: "Daily prices with moving-average and Bollinger overlays",
		}),
		charts.WithXAxisOpts(opts.XAxis{
			SplitNumber: 20,
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Scale: opts.Bool(true),
		}),
		charts.WithDataZoomOpts(opts.DataZoom{
			Start:      50,
			End:        100,
			XAxisIndex: []int{0},
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
	)
	kline.SetXAxis(xAxis).AddSeries("price", yAxis)

	for _, s := range tech.Series {
		if !overlaySeries(s.Name) {
			continue
		}
		line := charts.NewLine()
		data := make([]opts.LineData, len(s.Values))
		for i, v := range s.Values {
			if math.IsNaN(v) {
				// echarts renders "-" as a gap, which keeps warm-up
				// prefixes out of the plot.
				data[i] = opts.LineData{Value: "-"}
			} else {
				data[i] = opts.LineData{Value: v}
			}
		}
		line.SetXAxis(xAxis).AddSeries(s.Name, data)
		kline.Overlap(line)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create chart file: %w", err)
	}
	defer f.Close()

	if err := kline.Render(f); err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	return nil
}
