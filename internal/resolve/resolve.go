// internal/resolve/resolve.go
//
// Default resolution for render units. Every function here is pure:
// built-in defaults, then the week's defaults block, then the unit's own
// parameters, specific-over-general, with color tokens resolved last.
// Sub-objects (voiceover, audio mix) merge exactly one level deep.

package resolve

import (
	"strings"

	"github.com/espresso-charts/studio/internal/palette"
	"github.com/espresso-charts/studio/internal/week"
)

// Built-in fallbacks for the week-level defaults block itself.
const (
	builtinFaceColor    = "cream"
	builtinDPI          = 200
	builtinPxWidth      = 1080
	builtinPxHeight     = 1350
	builtinSuptitleFont = "DejaVu Serif"
	builtinSubtitleFont = "DejaVu Sans"
)

// commonBuiltins apply to every static chart type.
var commonBuiltins = week.Params{
	"suptitle_size":  26.0,
	"subtitle_size":  14.0,
	"label_size":     12.0,
	"suptitle_color": "espresso",
	"subtitle_color": "espresso",
	"label_color":    "mocha",
	"num_format":     "%.0f",
	"num_divisor":    1.0,
}

// chartBuiltins carry the per-type defaults inherited from the house
// chart library's keyword defaults.
var chartBuiltins = map[week.ChartType]week.Params{
	week.ChartBar: {
		"bar_color":           "sand",
		"suptitle_y_custom":   0.93,
		"subtitle_pad_custom": 40.0,
	},
	week.ChartLine: {
		"suptitle_y": 0.98,
		"subtitle_y": 0.94,
		"line_width": 2.0,
	},
	week.ChartStem: {
		"suptitle_y":  0.955,
		"marker_size": 4.0,
		"line_width":  0.8,
		"color_a":     "latte",
		"color_b":     "espresso",
	},
	week.ChartDonut: {
		"suptitle_y":   0.98,
		"label_size":   10.0,
		"radius_outer": 0.9,
		"radius_inner": 0.65,
		"wedge_width":  0.3,
		"num_format":   "%.0f%%",
	},
}

// coverBuiltins are the typography-card defaults.
var coverBuiltins = week.Params{
	"suptitle_size":      42.0,
	"subtitle_size":      18.0,
	"label_size":         11.0,
	"suptitle_y":         0.60,
	"subtitle_y":         0.38,
	"label_y":            0.06,
	"suptitle_color":     "espresso",
	"subtitle_color":     "espresso",
	"label_color":        "mocha",
	"show_accent_line":   true,
	"accent_line_color":  "blue",
	"accent_line_width":  4.0,
	"accent_line_y":      0.48,
	"accent_line_length": 0.15,
}

// animationBuiltins layer on top of the static counterpart's defaults.
// Vertical positions sit at least 0.05 under the static default so
// headings stay inside the reel safe zone.
var animationBuiltins = map[week.AnimationType]week.Params{
	week.AnimateCover: {
		"duration":   4.0,
		"suptitle_y": 0.60,
	},
	week.AnimateBar: {
		"duration":          8.0,
		"hold_frames":       120.0,
		"suptitle_y_custom": 0.85,
	},
	week.AnimateLine: {
		"duration":    8.0,
		"hold_frames": 120.0,
		"suptitle_y":  0.90,
	},
	week.AnimateStem: {
		"duration":    8.0,
		"hold_frames": 120.0,
		"suptitle_y":  0.88,
	},
	week.AnimateDonut: {
		"duration":    8.0,
		"hold_frames": 120.0,
		"suptitle_y":  0.90,
	},
}

// StaticVerticalDefault returns the vertical heading position key and
// built-in value for a static chart type. The timing validator compares
// animated placements against these.
func StaticVerticalDefault(t week.ChartType) (string, float64) {
	if t == week.ChartBar {
		v, _ := chartBuiltins[t].Float("suptitle_y_custom")
		return "suptitle_y_custom", v
	}
	v, _ := chartBuiltins[t].Float("suptitle_y")
	return "suptitle_y", v
}

// Chart resolves the full parameter set for one static chart.
func Chart(defaults week.Defaults, chart week.Chart) week.Params {
	resolved := layer(commonBuiltins, chartBuiltins[chart.Type], weekParams(defaults), chart.Params)
	return applyPalette(resolved)
}

// Cover resolves the full parameter set for a story's cover tile.
func Cover(defaults week.Defaults, cover week.Params) week.Params {
	resolved := layer(coverBuiltins, weekParams(defaults), cover)
	return applyPalette(resolved)
}

// Animation resolves the full parameter set for one animated reel entry.
// Chart animations inherit their static type's defaults first, then the
// animation builtins, then the entry's own params.
func Animation(defaults week.Defaults, entry week.AnimatedChart) week.Params {
	var base week.Params
	if entry.Type == week.AnimateCover {
		base = layer(coverBuiltins, animationBuiltins[entry.Type])
	} else {
		staticType, _ := entry.Type.ChartType()
		base = layer(commonBuiltins, chartBuiltins[staticType], animationBuiltins[entry.Type])
	}
	resolved := layer(base, weekParams(defaults), entry.Params)
	return applyPalette(resolved)
}

// Voiceover merges a story-level override onto the week defaults, one
// field at a time. Nil override fields inherit.
func Voiceover(defaults week.VoiceoverDefaults, override *week.VoiceoverOverride) week.VoiceoverDefaults {
	out := defaults
	if override == nil {
		return out
	}
	if override.VoiceName != nil {
		out.VoiceName = *override.VoiceName
	}
	if override.ModelName != nil {
		out.ModelName = *override.ModelName
	}
	if override.Stability != nil {
		out.Stability = *override.Stability
	}
	if override.Speed != nil {
		out.Speed = *override.Speed
	}
	return out
}

// AudioMix merges a story-level override onto the week defaults.
func AudioMix(defaults week.AudioMixDefaults, override *week.AudioMixOverride) week.AudioMixDefaults {
	out := defaults
	if override == nil {
		return out
	}
	if override.VoiceDelay != nil {
		out.VoiceDelay = *override.VoiceDelay
	}
	if override.VoiceVolume != nil {
		out.VoiceVolume = *override.VoiceVolume
	}
	if override.MusicVolume != nil {
		out.MusicVolume = *override.MusicVolume
	}
	if override.FadeIn != nil {
		out.FadeIn = *override.FadeIn
	}
	if override.FadeOut != nil {
		out.FadeOut = *override.FadeOut
	}
	return out
}

// weekParams projects the week defaults block onto parameter keys,
// substituting built-in values for anything left unset.
func weekParams(defaults week.Defaults) week.Params {
	p := week.Params{
		"face_color":    builtinFaceColor,
		"dpi":           float64(builtinDPI),
		"px_width":      float64(builtinPxWidth),
		"px_height":     float64(builtinPxHeight),
		"suptitle_font": builtinSuptitleFont,
		"subtitle_font": builtinSubtitleFont,
	}
	if defaults.FaceColor != "" {
		p["face_color"] = defaults.FaceColor
	}
	if defaults.DPI > 0 {
		p["dpi"] = float64(defaults.DPI)
	}
	if defaults.PxWidth > 0 {
		p["px_width"] = float64(defaults.PxWidth)
	}
	if defaults.PxHeight > 0 {
		p["px_height"] = float64(defaults.PxHeight)
	}
	if defaults.SuptitleFont != "" {
		p["suptitle_font"] = defaults.SuptitleFont
	}
	if defaults.SubtitleFont != "" {
		p["subtitle_font"] = defaults.SubtitleFont
	}
	return p
}

// layer merges parameter maps left to right, later maps winning.
func layer(layers ...week.Params) week.Params {
	out := week.Params{}
	for _, l := range layers {
		for k, v := range l {
			out[k] = v
		}
	}
	return out
}

// applyPalette resolves brand tokens on every color-valued key. Token
// resolution is idempotent, so resolving a resolved set is a no-op.
func applyPalette(p week.Params) week.Params {
	for key, value := range p {
		if !strings.HasSuffix(key, "_color") && key != "colors" {
			continue
		}
		switch v := value.(type) {
		case string:
			p[key] = palette.Resolve(v)
		case []any:
			resolved := make([]any, len(v))
			for i, item := range v {
				if s, ok := item.(string); ok {
					resolved[i] = palette.Resolve(s)
				} else {
					resolved[i] = item
				}
			}
			p[key] = resolved
		}
	}
	return p
}
