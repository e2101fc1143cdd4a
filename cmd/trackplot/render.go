package main

import (
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/banshee-data/tracksight/internal/storage"
	"github.com/banshee-data/tracksight/internal/tracking"
)

var errNoData = errors.New("nothing to plot")

// renderTrajectories draws each entity's retained history in the XY plane
// with its last position marked, plus every predicted aim point.
func renderTrajectories(states []tracking.EntityState, sels []storage.Selection, title, path string) error {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("Trajectories - %s", title)
	p.X.Label.Text = "X"
	p.Y.Label.Text = "Y"
	p.Add(plotter.NewGrid())

	drawn := 0
	for i, st := range states {
		if len(st.Samples) == 0 {
			continue
		}
		pts := make(plotter.XYs, len(st.Samples))
		for j, s := range st.Samples {
			pts[j] = plotter.XY{X: s.X, Y: s.Y}
		}
		c := plotutil.Color(i)

		label := fmt.Sprintf("%s (%s)", st.ID, st.Classification)
		if len(pts) > 1 {
			line, err := plotter.NewLine(pts)
			if err != nil {
				return fmt.Errorf("entity %s: %w", st.ID, err)
			}
			line.Color = c
			line.Width = vg.Points(1)
			p.Add(line)
			p.Legend.Add(label, line)
		}

		last, err := plotter.NewScatter(pts[len(pts)-1:])
		if err != nil {
			return fmt.Errorf("entity %s: %w", st.ID, err)
		}
		last.GlyphStyle.Color = c
		last.GlyphStyle.Radius = vg.Points(3)
		last.GlyphStyle.Shape = draw.CircleGlyph{}
		p.Add(last)
		if len(pts) == 1 {
			p.Legend.Add(label, last)
		}
		drawn++
	}
	if drawn == 0 {
		return errNoData
	}

	if len(sels) > 0 {
		aims := make(plotter.XYs, len(sels))
		for i, s := range sels {
			aims[i] = plotter.XY{X: s.Predicted.X, Y: s.Predicted.Y}
		}
		sc, err := plotter.NewScatter(aims)
		if err != nil {
			return fmt.Errorf("predicted points: %w", err)
		}
		sc.GlyphStyle.Shape = draw.CrossGlyph{}
		sc.GlyphStyle.Radius = vg.Points(2)
		p.Add(sc)
		p.Legend.Add("predicted aim", sc)
	}

	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10

	return p.Save(10*vg.Inch, 8*vg.Inch, path)
}

// renderSelections writes an HTML page with the angular offset and
// confidence of each selection over time, and how often each entity won.
func renderSelections(w io.Writer, sels []storage.Selection, session storage.Session) error {
	if len(sels) == 0 {
		return errNoData
	}

	xs := make([]string, len(sels))
	offsets := make([]opts.LineData, len(sels))
	confidences := make([]opts.LineData, len(sels))
	wins := make(map[string]int)
	for i, s := range sels {
		xs[i] = fmt.Sprintf("%.3f", s.Timestamp)
		offsets[i] = opts.LineData{Value: s.AngularOffset, Name: s.EntityID}
		confidences[i] = opts.LineData{Value: s.Confidence, Name: s.EntityID}
		wins[s.EntityID]++
	}
	subtitle := fmt.Sprintf("session=%s selections=%d", session.ID, len(sels))

	offsetChart := charts.NewLine()
	offsetChart.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Selections", Width: "1200px", Height: "400px"}),
		charts.WithTitleOpts(opts.Title{Title: "Angular offset", Subtitle: subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "t (s)"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "deg"}),
	)
	offsetChart.SetXAxis(xs).AddSeries("offset", offsets)

	confChart := charts.NewLine()
	confChart.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "1200px", Height: "400px"}),
		charts.WithTitleOpts(opts.Title{Title: "Confidence"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "t (s)"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "confidence", Min: 0, Max: 1}),
	)
	confChart.SetXAxis(xs).AddSeries("confidence", confidences)

	ids := make([]string, 0, len(wins))
	for id := range wins {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	counts := make([]opts.BarData, len(ids))
	for i, id := range ids {
		counts[i] = opts.BarData{Value: wins[id]}
	}
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "1200px", Height: "400px"}),
		charts.WithTitleOpts(opts.Title{Title: "Selections per entity"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(ids).
		AddSeries("selections", counts,
			charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}),
		)

	page := components.NewPage()
	page.AddCharts(offsetChart, confChart, bar)
	return page.Render(w)
}
