package heatmap

import (
	"fmt"
	"io"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// AssetsHost serves the echarts javascript for RenderHTML pages. Point it
// at a local mirror for offline use.
var AssetsHost = "https://go-echarts.github.io/go-echarts-assets/assets/"

var viridis = []string{"#440154", "#482777", "#3e4989", "#31688e", "#26828e", "#1f9e89", "#35b779", "#6ece58", "#b5de2b", "#fde725"}

// grid adapts a Heatmap to plotter.GridXYZ. Plot rows run bottom-up, so
// board row 0 is drawn at the top.
type grid struct {
	h      *Heatmap
	height int
	width  int
}

func newGrid(h *Heatmap) grid {
	height, width := h.Dims()
	return grid{h: h, height: height, width: width}
}

func (g grid) Dims() (c, r int) { return g.width, g.height }
func (g grid) Z(c, r int) float64 { return g.h.At(g.height-1-r, c) }
func (g grid) X(c int) float64 { return float64(c) }
func (g grid) Y(r int) float64 { return float64(r) }
func (g grid) Min() float64 { return 0 }
func (g grid) Max() float64 { return max(g.h.Max(), 1e-9) }
func (g grid) cellLabel(r int) string { return strconv.Itoa(g.height - 1 - r) }

func (h *Heatmap) plot(title string) *plot.Plot {
	g := newGrid(h)
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Column"
	p.Y.Label.Text = "Row (0 at top)"

	hm := plotter.NewHeatMap(g, palette.Heat(12, 1))
	p.Add(hm)

	ticks := make([]plot.Tick, g.height)
	for r := range ticks {
		ticks[r] = plot.Tick{Value: g.Y(r), Label: g.cellLabel(r)}
	}
	p.Y.Tick.Marker = plot.ConstantTicks(ticks)
	return p
}

// SavePNG writes the heatmap as a PNG file.
func (h *Heatmap) SavePNG(path, title string) error {
	if err := h.plot(title).Save(8*vg.Inch, 8*vg.Inch, path); err != nil {
		opsf("failed to save %s: %v", path, err)
		return fmt.Errorf("save heatmap png: %w", err)
	}
	return nil
}

// WritePNG encodes the heatmap as PNG to w.
func (h *Heatmap) WritePNG(w io.Writer, title string) error {
	wt, err := h.plot(title).WriterTo(8*vg.Inch, 8*vg.Inch, "png")
	if err != nil {
		return fmt.Errorf("encode heatmap png: %w", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("write heatmap png: %w", err)
	}
	return nil
}

// RenderHTML writes a self-contained echarts page showing the heatmap.
func (h *Heatmap) RenderHTML(w io.Writer, title string) error {
	height, width := h.Dims()

	cols := make([]string, width)
	for c := range cols {
		cols[c] = strconv.Itoa(c)
	}
	rows := make([]string, height)
	for r := range rows {
		rows[r] = strconv.Itoa(r)
	}

	data := make([]opts.HeatMapData, 0, height*width)
	for r := 0; r < height; r++ {
		for c := 0; c < width; c++ {
			data = append(data, opts.HeatMapData{Value: [3]interface{}{c, r, h.At(r, c)}})
		}
	}

	hm := charts.NewHeatMap()
	hm.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Theme: "dark", Width: "900px", Height: "900px", AssetsHost: AssetsHost}),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: fmt.Sprintf("%dx%d total=%d", height, width, h.total)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Type: "category", Name: "Column", Data: cols}),
		charts.WithYAxisOpts(opts.YAxis{Type: "category", Name: "Row", Data: rows, Inverse: opts.Bool(true)}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Show:       opts.Bool(true),
			Calculable: opts.Bool(true),
			Min:        0,
			Max:        float32(max(h.Max(), 1e-9)),
			InRange:    &opts.VisualMapInRange{Color: viridis},
		}),
	)
	hm.SetXAxis(cols).AddSeries("occupancy", data)

	if err := hm.Render(w); err != nil {
		opsf("failed to render heatmap chart: %v", err)
		return fmt.Errorf("render heatmap chart: %w", err)
	}
	return nil
}
