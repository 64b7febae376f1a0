package export

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/7ipolito/goals-vision/internal/catalog"
)

// RenderProgressChart renders an HTML line chart of a player's agility and
// coordination scores across their conclusive analyses.
func RenderProgressChart(w io.Writer, player *catalog.Player, analyses []*catalog.Analysis) error {
	var (
		labels       []string
		agility      []opts.LineData
		coordination []opts.LineData
	)
	for _, a := range analyses {
		if !a.Conclusive() {
			continue
		}
		labels = append(labels, a.CreatedAt.Format("2006-01-02 15:04"))
		agility = append(agility, opts.LineData{Value: a.AgilityScore})
		coordination = append(coordination, opts.LineData{Value: a.CoordinationScore})
	}

	subtitle := fmt.Sprintf("%d analyses", len(labels))
	if len(labels) == 0 {
		subtitle = "no conclusive analyses yet"
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: player.Name + " progress", Width: "900px", Height: "480px"}),
		charts.WithTitleOpts(opts.Title{Title: player.Name, Subtitle: subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "bottom"}),
		charts.WithYAxisOpts(opts.YAxis{Min: 0, Max: 100, Name: "score"}),
	)
	line.SetXAxis(labels).
		AddSeries("agility", agility).
		AddSeries("coordination", coordination).
		SetSeriesOptions(charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true)}))

	return line.Render(w)
}
