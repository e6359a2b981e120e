// internal/mapper/mapper.go
//
// Translates the config's semantic parameter names into the keyword set
// each chart renderer actually accepts. The renderers do not share one
// heading convention: for line, stem, and donut charts the visually
// primary heading is the renderer's txt_suptitle, but the bar renderer
// swaps the two heading keywords, and positions its heading through
// suptitle_y_custom instead of suptitle_y. That inherited inconsistency
// lives in exactly one table here so it is visible and pinned by tests.

package mapper

import (
	"fmt"

	"github.com/espresso-charts/studio/internal/week"
)

// UnsupportedChartType reports a type tag with no rename table.
type UnsupportedChartType struct {
	Tag string
}

func (e *UnsupportedChartType) Error() string {
	return fmt.Sprintf("mapper: unsupported chart type %q", e.Tag)
}

// renameTables maps config keys to renderer keywords per chart type.
// Keys not listed pass through unchanged. Animated variants reuse their
// static type's table; only numeric position defaults differ, and those
// are the resolver's concern.
var renameTables = map[week.ChartType]map[string]string{
	week.ChartBar: {
		// Historical swap: the bar renderer displays txt_subtitle as the
		// big serif heading and txt_suptitle as the secondary line.
		"txt_suptitle": "txt_subtitle",
		"txt_subtitle": "txt_suptitle",
		"suptitle_y":   "suptitle_y_custom",
		"label_color":  "txt_label_color",
	},
	week.ChartLine: {
		"txt_suptitle": "txt_suptitle",
		"txt_subtitle": "txt_subtitle",
		"label_color":  "txt_label_color",
	},
	week.ChartStem: {
		"txt_suptitle": "txt_suptitle",
		"txt_subtitle": "txt_subtitle",
		"label_color":  "axis_label_color",
	},
	week.ChartDonut: {
		"txt_suptitle": "txt_suptitle",
		"txt_subtitle": "txt_subtitle",
		"label_color":  "txt_label_color",
	},
}

// coverRenames is the cover tile's table; the cover renderer keeps the
// semantic names.
var coverRenames = map[string]string{
	"txt_suptitle": "txt_suptitle",
	"txt_subtitle": "txt_subtitle",
	"label_color":  "txt_label_color",
}

// MapChart translates one resolved static-chart parameter set into the
// renderer keyword space for its type.
func MapChart(t week.ChartType, resolved week.Params) (week.Params, error) {
	table, ok := renameTables[t]
	if !ok {
		return nil, &UnsupportedChartType{Tag: string(t)}
	}
	return applyTable(table, resolved), nil
}

// MapCover translates a resolved cover parameter set.
func MapCover(resolved week.Params) week.Params {
	return applyTable(coverRenames, resolved)
}

// MapAnimation translates one resolved animated-entry parameter set. The
// cover animation uses the cover table; chart animations reuse the static
// table of their chart type unchanged.
func MapAnimation(t week.AnimationType, resolved week.Params) (week.Params, error) {
	if t == week.AnimateCover {
		return MapCover(resolved), nil
	}
	staticType, ok := t.ChartType()
	if !ok {
		return nil, &UnsupportedChartType{Tag: string(t)}
	}
	return MapChart(staticType, resolved)
}

// HeadingPositionKey returns the renderer keyword that carries a chart's
// vertical heading position. Only the bar renderer deviates.
func HeadingPositionKey(t week.ChartType) string {
	if t == week.ChartBar {
		return "suptitle_y_custom"
	}
	return "suptitle_y"
}

// applyTable renames mapped keys and passes everything else through.
// Pass-through keys are written first so a renamed key deterministically
// wins if both it and its target name appear in the input.
func applyTable(table map[string]string, in week.Params) week.Params {
	out := make(week.Params, len(in))
	for key, value := range in {
		if _, mapped := table[key]; mapped {
			continue
		}
		out[key] = value
	}
	for key, renamed := range table {
		if value, ok := in[key]; ok {
			out[renamed] = value
		}
	}
	return out
}
