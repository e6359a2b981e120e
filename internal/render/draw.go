package render

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/fogleman/gg"

	"github.com/espresso-charts/studio/internal/palette"
	"github.com/espresso-charts/studio/internal/pipeline"
	"github.com/espresso-charts/studio/internal/week"
)

// newCanvas builds a canvas at the mapped pixel size filled with the
// face color.
func (r *Renderer) newCanvas(params week.Params) *gg.Context {
	w, h := canvasSize(params)
	dc := gg.NewContext(w, h)
	dc.SetHexColor(paramString(params, "face_color", "#F5F0E6"))
	dc.Clear()
	return dc
}

// pts converts a point size to pixels at the configured DPI.
func pts(params week.Params, size float64) float64 {
	dpi := paramFloat(params, "dpi", 200)
	return size * dpi / 72
}

// columns splits chart data into one label column (the first non-numeric
// column in name order) and the numeric series, also in name order.
func columns(data map[string][]any) (labels []string, series []namedSeries) {
	names := make([]string, 0, len(data))
	for name := range data {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if values, ok := floatValues(data[name]); ok {
			series = append(series, namedSeries{name: name, values: values})
			continue
		}
		if labels == nil {
			labels = stringValues(data[name])
		}
	}
	return labels, series
}

type namedSeries struct {
	name   string
	values []float64
}

func floatValues(values []any) ([]float64, bool) {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		switch n := v.(type) {
		case float64:
			out = append(out, n)
		case int:
			out = append(out, float64(n))
		default:
			return nil, false
		}
	}
	return out, len(out) > 0
}

func stringValues(values []any) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		out = append(out, fmt.Sprint(v))
	}
	return out
}

// formatValue renders one numeric label using the chart's format verb
// and divisor.
func formatValue(params week.Params, v float64) string {
	divisor := paramFloat(params, "num_divisor", 1)
	if divisor == 0 {
		divisor = 1
	}
	format := paramString(params, "num_format", "%.0f")
	return fmt.Sprintf(format, v/divisor)
}

// drawHeadings draws the primary serif heading and the secondary line.
// primaryKey and secondaryOther reflect the renderer's own keyword
// convention for the type, so the bar chart reads its big heading from
// txt_subtitle.
func (r *Renderer) drawHeadings(dc *gg.Context, params week.Params, primaryKey, secondaryKey, positionKey string) {
	w := float64(dc.Width())
	h := float64(dc.Height())
	y := paramFloat(params, positionKey, 0.95)
	primary := paramString(params, primaryKey, "")
	secondary := paramString(params, secondaryKey, "")

	if primary != "" {
		dc.SetFontFace(r.face(true, pts(params, paramFloat(params, "suptitle_size", 26))))
		dc.SetHexColor(paramString(params, "suptitle_color", "#4B2E1A"))
		dc.DrawStringWrapped(primary, w/2, (1-y)*h, 0.5, 0, w*0.86, 1.3, gg.AlignCenter)
	}
	if secondary != "" {
		dc.SetFontFace(r.face(false, pts(params, paramFloat(params, "subtitle_size", 14))))
		dc.SetHexColor(paramString(params, "subtitle_color", "#4B2E1A"))
		dc.DrawStringWrapped(secondary, w/2, (1-y)*h+pts(params, paramFloat(params, "suptitle_size", 26))*1.8, 0.5, 0, w*0.86, 1.3, gg.AlignCenter)
	}
}

// drawSourceLabel draws the bottom attribution line.
func (r *Renderer) drawSourceLabel(dc *gg.Context, params week.Params) {
	label := paramString(params, "txt_label", "")
	if label == "" {
		return
	}
	w := float64(dc.Width())
	h := float64(dc.Height())
	dc.SetFontFace(r.face(false, pts(params, paramFloat(params, "label_size", 12))))
	dc.SetHexColor(paramString(params, "txt_label_color", "#857052"))
	dc.DrawStringAnchored(label, w/2, h*0.97, 0.5, 0.5)
}

func (r *Renderer) renderCover(req pipeline.RenderRequest) error {
	dc := r.newCanvas(req.Params)
	r.drawCover(dc, req.Params, 1)
	return savePNG(dc, req.OutputPath)
}

// drawCover draws the typography card. Progress below 1 fades the card
// in by overlaying the face color.
func (r *Renderer) drawCover(dc *gg.Context, params week.Params, progress float64) {
	w := float64(dc.Width())
	h := float64(dc.Height())

	suptitle := paramString(params, "txt_suptitle", "")
	dc.SetFontFace(r.face(true, pts(params, paramFloat(params, "suptitle_size", 42))))
	dc.SetHexColor(paramString(params, "suptitle_color", "#4B2E1A"))
	supY := paramFloat(params, "suptitle_y", 0.6)
	dc.DrawStringWrapped(suptitle, w/2, (1-supY)*h, 0.5, 0.5, w*0.84, 1.25, gg.AlignCenter)

	if paramBool(params, "show_accent_line", true) {
		lineY := (1 - paramFloat(params, "accent_line_y", 0.48)) * h
		length := paramFloat(params, "accent_line_length", 0.15) * w
		dc.SetHexColor(paramString(params, "accent_line_color", "#3F5B83"))
		dc.SetLineWidth(paramFloat(params, "accent_line_width", 4))
		dc.DrawLine(w/2-length/2, lineY, w/2+length/2, lineY)
		dc.Stroke()
	}

	subtitle := paramString(params, "txt_subtitle", "")
	dc.SetFontFace(r.face(false, pts(params, paramFloat(params, "subtitle_size", 18))))
	dc.SetHexColor(paramString(params, "subtitle_color", "#4B2E1A"))
	subY := paramFloat(params, "subtitle_y", 0.38)
	dc.DrawStringWrapped(subtitle, w/2, (1-subY)*h, 0.5, 0.5, w*0.8, 1.3, gg.AlignCenter)

	label := paramString(params, "txt_label", "")
	if label != "" {
		dc.SetFontFace(r.face(false, pts(params, paramFloat(params, "label_size", 11))))
		dc.SetHexColor(paramString(params, "txt_label_color", "#857052"))
		dc.DrawStringAnchored(label, w/2, (1-paramFloat(params, "label_y", 0.06))*h, 0.5, 0.5)
	}

	fadeOverlay(dc, params, progress)
}

func (r *Renderer) renderBar(req pipeline.RenderRequest) error {
	dc := r.newCanvas(req.Params)
	if err := r.drawBar(dc, req.Data, req.Params, 1); err != nil {
		return err
	}
	return savePNG(dc, req.OutputPath)
}

// drawBar draws the horizontal bar chart. The bar renderer's primary
// heading keyword is txt_subtitle; see the mapper's rename table.
func (r *Renderer) drawBar(dc *gg.Context, data map[string][]any, params week.Params, progress float64) error {
	labels, series := columns(data)
	if len(series) == 0 {
		return fmt.Errorf("bar chart has no numeric column")
	}
	values := series[0].values

	r.drawHeadings(dc, params, "txt_subtitle", "txt_suptitle", "suptitle_y_custom")
	r.drawSourceLabel(dc, params)

	w := float64(dc.Width())
	h := float64(dc.Height())
	plotLeft, plotRight := w*0.24, w*0.86
	plotTop, plotBottom := h*0.28, h*0.88

	maxVal := 0.0
	for _, v := range values {
		if math.Abs(v) > maxVal {
			maxVal = math.Abs(v)
		}
	}
	if maxVal == 0 {
		maxVal = 1
	}

	rows := len(values)
	rowHeight := (plotBottom - plotTop) / float64(rows)
	barHeight := paramFloat(params, "bar_height", rowHeight*0.62)
	barColor := paramString(params, "bar_color", "#CDAF7B")
	labelFace := r.face(false, pts(params, paramFloat(params, "label_size", 12)))

	for i, v := range values {
		top := plotTop + float64(i)*rowHeight + (rowHeight-barHeight)/2
		width := (plotRight - plotLeft) * math.Abs(v) / maxVal * progress
		dc.SetHexColor(barColor)
		dc.DrawRectangle(plotLeft, top, width, barHeight)
		dc.Fill()

		dc.SetFontFace(labelFace)
		dc.SetHexColor(paramString(params, "tick_label_color", "#3C3325"))
		if i < len(labels) {
			dc.DrawStringAnchored(labels[i], plotLeft-w*0.02, top+barHeight/2, 1, 0.5)
		}
		dc.SetHexColor(paramString(params, "value_label_color", "#4B2E1A"))
		dc.DrawStringAnchored(formatValue(params, v), plotLeft+width+w*0.015, top+barHeight/2, 0, 0.5)
	}
	return nil
}

func (r *Renderer) renderLine(req pipeline.RenderRequest) error {
	dc := r.newCanvas(req.Params)
	if err := r.drawLine(dc, req.Data, req.Params, 1); err != nil {
		return err
	}
	return savePNG(dc, req.OutputPath)
}

func (r *Renderer) drawLine(dc *gg.Context, data map[string][]any, params week.Params, progress float64) error {
	labels, series := columns(data)
	if len(series) == 0 {
		return fmt.Errorf("line chart has no numeric column")
	}

	r.drawHeadings(dc, params, "txt_suptitle", "txt_subtitle", "suptitle_y")
	r.drawSourceLabel(dc, params)

	w := float64(dc.Width())
	h := float64(dc.Height())
	plotLeft, plotRight := w*0.12, w*0.9
	plotTop, plotBottom := h*0.3, h*0.85

	minVal, maxVal := math.Inf(1), math.Inf(-1)
	for _, s := range series {
		for _, v := range s.values {
			minVal = math.Min(minVal, v)
			maxVal = math.Max(maxVal, v)
		}
	}
	if minVal == maxVal {
		minVal, maxVal = minVal-1, maxVal+1
	}

	colors := seriesColors(params, len(series))
	lineWidth := paramFloat(params, "line_width", 2)

	for si, s := range series {
		n := len(s.values)
		if n < 2 {
			continue
		}
		visible := progress * float64(n-1)
		dc.SetHexColor(colors[si])
		dc.SetLineWidth(lineWidth)
		for i := 1; i < n; i++ {
			if float64(i) > visible+1e-9 {
				break
			}
			x0 := plotLeft + (plotRight-plotLeft)*float64(i-1)/float64(n-1)
			x1 := plotLeft + (plotRight-plotLeft)*float64(i)/float64(n-1)
			y0 := plotBottom - (plotBottom-plotTop)*(s.values[i-1]-minVal)/(maxVal-minVal)
			y1 := plotBottom - (plotBottom-plotTop)*(s.values[i]-minVal)/(maxVal-minVal)
			dc.DrawLine(x0, y0, x1, y1)
		}
		dc.Stroke()
	}

	if len(labels) > 1 {
		dc.SetFontFace(r.face(false, pts(params, paramFloat(params, "x_tick_size", 10))))
		dc.SetHexColor(paramString(params, "tick_color", "#4B2E1A"))
		n := len(labels)
		for i, label := range labels {
			x := plotLeft + (plotRight-plotLeft)*float64(i)/float64(n-1)
			dc.DrawStringAnchored(label, x, plotBottom+h*0.02, 0.5, 0)
		}
	}
	return nil
}

func (r *Renderer) renderStem(req pipeline.RenderRequest) error {
	dc := r.newCanvas(req.Params)
	if err := r.drawStem(dc, req.Data, req.Params, 1); err != nil {
		return err
	}
	return savePNG(dc, req.OutputPath)
}

func (r *Renderer) drawStem(dc *gg.Context, data map[string][]any, params week.Params, progress float64) error {
	labels, series := columns(data)
	if len(series) == 0 {
		return fmt.Errorf("stem chart has no numeric column")
	}

	r.drawHeadings(dc, params, "txt_suptitle", "txt_subtitle", "suptitle_y")
	r.drawSourceLabel(dc, params)

	w := float64(dc.Width())
	h := float64(dc.Height())
	plotLeft, plotRight := w*0.12, w*0.9
	plotTop, plotBottom := h*0.32, h*0.85

	maxVal := 0.0
	for _, s := range series {
		for _, v := range s.values {
			maxVal = math.Max(maxVal, math.Abs(v))
		}
	}
	if maxVal == 0 {
		maxVal = 1
	}

	seriesColor := []string{
		paramString(params, "color_a", "#9D8561"),
		paramString(params, "color_b", "#4B2E1A"),
	}
	markerSize := paramFloat(params, "marker_size", 4)
	stemWidth := paramFloat(params, "line_width", 0.8) * 2

	dc.SetHexColor(paramString(params, "x_axis_line_color", "#857052"))
	dc.SetLineWidth(1)
	dc.DrawLine(plotLeft, plotBottom, plotRight, plotBottom)
	dc.Stroke()

	for si, s := range series {
		if si >= len(seriesColor) {
			break
		}
		n := len(s.values)
		offset := (float64(si) - float64(min(len(series), 2)-1)/2) * w * 0.012
		for i, v := range s.values {
			x := plotLeft + (plotRight-plotLeft)*(float64(i)+0.5)/float64(n) + offset
			full := (plotBottom - plotTop) * math.Abs(v) / maxVal
			top := plotBottom - full*progress
			dc.SetHexColor(seriesColor[si])
			dc.SetLineWidth(stemWidth)
			dc.DrawLine(x, plotBottom, x, top)
			dc.Stroke()
			dc.DrawCircle(x, top, markerSize)
			dc.Fill()
		}
	}

	if len(labels) > 0 {
		dc.SetFontFace(r.face(false, pts(params, paramFloat(params, "label_size", 12))))
		dc.SetHexColor(paramString(params, "tick_label_color", "#3C3325"))
		n := len(labels)
		for i, label := range labels {
			x := plotLeft + (plotRight-plotLeft)*(float64(i)+0.5)/float64(n)
			dc.DrawStringAnchored(label, x, plotBottom+h*0.02, 0.5, 0)
		}
	}
	return nil
}

func (r *Renderer) renderDonut(req pipeline.RenderRequest) error {
	dc := r.newCanvas(req.Params)
	if err := r.drawDonut(dc, req.Data, req.Params, 1); err != nil {
		return err
	}
	return savePNG(dc, req.OutputPath)
}

func (r *Renderer) drawDonut(dc *gg.Context, data map[string][]any, params week.Params, progress float64) error {
	labels, series := columns(data)
	if len(series) == 0 {
		return fmt.Errorf("donut chart has no numeric column")
	}
	values := series[0].values

	r.drawHeadings(dc, params, "txt_suptitle", "txt_subtitle", "suptitle_y")
	r.drawSourceLabel(dc, params)

	w := float64(dc.Width())
	h := float64(dc.Height())
	cx, cy := w/2, h*0.58
	maxRadius := math.Min(w, h*0.6) / 2 * 0.8
	outer := maxRadius * paramFloat(params, "radius_outer", 0.9)
	inner := outer * (1 - paramFloat(params, "wedge_width", 0.3))

	total := 0.0
	for _, v := range values {
		total += math.Abs(v)
	}
	if total == 0 {
		return fmt.Errorf("donut chart values sum to zero")
	}

	colors := seriesColors(params, len(values))
	sweepLimit := 2 * math.Pi * progress
	angle := -math.Pi / 2
	labelFace := r.face(false, pts(params, paramFloat(params, "label_size", 10)))

	for i, v := range values {
		span := 2 * math.Pi * math.Abs(v) / total
		start := angle
		end := angle + span
		angle = end
		if start-(-math.Pi/2) >= sweepLimit {
			break
		}
		if end-(-math.Pi/2) > sweepLimit {
			end = -math.Pi/2 + sweepLimit
		}
		dc.SetHexColor(colors[i])
		dc.NewSubPath()
		dc.DrawArc(cx, cy, outer, start, end)
		dc.DrawArc(cx, cy, inner, end, start)
		dc.ClosePath()
		dc.Fill()

		if progress >= 1 && i < len(labels) {
			mid := (start + end) / 2
			lx := cx + math.Cos(mid)*outer*paramFloat(params, "labeldistance", 1.12)
			ly := cy + math.Sin(mid)*outer*paramFloat(params, "labeldistance", 1.12)
			dc.SetFontFace(labelFace)
			dc.SetHexColor(paramString(params, "txt_label_color", "#4B2E1A"))
			dc.DrawStringAnchored(labels[i], lx, ly, 0.5, 0.5)
		}
	}

	if center := paramString(params, "center_text", ""); center != "" {
		dc.SetFontFace(r.face(false, pts(params, paramFloat(params, "center_text_size", 12))))
		dc.SetHexColor(paramString(params, "center_text_color", "#4B2E1A"))
		dc.DrawStringWrapped(center, cx, cy, 0.5, 0.5, inner*1.6, 1.3, gg.AlignCenter)
	}
	return nil
}

// seriesColors returns per-series colors: an explicit colors parameter
// first, then the house palette.
func seriesColors(params week.Params, n int) []string {
	out := make([]string, n)
	var explicit []string
	if raw, ok := params["colors"].([]any); ok {
		explicit = stringValues(raw)
	} else if raw, ok := params["line_colors"].([]any); ok {
		explicit = stringValues(raw)
	}
	for i := 0; i < n; i++ {
		switch {
		case i < len(explicit):
			out[i] = explicit[i]
		default:
			out[i] = palette.CoffeePalette[i%len(palette.CoffeePalette)]
		}
	}
	return out
}

// fadeOverlay dims the canvas toward the face color for early frames.
func fadeOverlay(dc *gg.Context, params week.Params, progress float64) {
	if progress >= 1 {
		return
	}
	fr, fg, fb := parseHex(paramString(params, "face_color", "#F5F0E6"))
	dc.SetRGBA(fr, fg, fb, 1-clamp01(progress))
	dc.DrawRectangle(0, 0, float64(dc.Width()), float64(dc.Height()))
	dc.Fill()
}

func parseHex(s string) (float64, float64, float64) {
	s = strings.TrimPrefix(s, "#")
	if len(s) != 6 {
		return 0.96, 0.94, 0.9
	}
	var ri, gi, bi int
	if _, err := fmt.Sscanf(s, "%02x%02x%02x", &ri, &gi, &bi); err != nil {
		return 0.96, 0.94, 0.9
	}
	return float64(ri) / 255, float64(gi) / 255, float64(bi) / 255
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

func savePNG(dc *gg.Context, path string) error {
	if err := dc.SavePNG(path); err != nil {
		return fmt.Errorf("render: save %s: %w", path, err)
	}
	return nil
}
