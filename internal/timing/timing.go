// internal/timing/timing.go
//
// Reel timing arithmetic and its invariants. Everything here is derived
// from config content alone so violations surface before any rendering
// or speech synthesis is paid for. The validator never auto-corrects:
// the right fix (trim the script, stretch the animation, longer music)
// is an editorial call that belongs to whoever edits the JSON.

package timing

import (
	"fmt"
	"strings"

	"github.com/espresso-charts/studio/internal/resolve"
	"github.com/espresso-charts/studio/internal/week"
)

const (
	// CoverHoldSeconds is the fixed time the reel lingers on the cover.
	CoverHoldSeconds = 4.0
	// FramesPerSecond is the encode rate used for hold-frame math.
	FramesPerSecond = 24.0
	// WordsPerSecond is the narration pace behind voiceover estimates.
	WordsPerSecond = 2.5
	// MarginSeconds is the slack the reel must keep over the voiceover.
	MarginSeconds = 3.0
	// CoverSafeZoneMaxY is the highest allowed cover heading position;
	// anything above it collides with platform UI overlays.
	CoverSafeZoneMaxY = 0.65
	// SafeZoneClearance is how far below the static default an animated
	// chart heading must sit.
	SafeZoneClearance = 0.05
)

const floatSlack = 1e-9

// Estimate carries the derived durations for one reel.
type Estimate struct {
	VoiceoverSeconds float64 `json:"voiceover_seconds"`
	ReelSeconds      float64 `json:"reel_seconds"`
}

// TimingViolation reports a reel that ends too soon after the voiceover.
// Both computed values ride along so a caller can decide whether to raise
// duration or hold_frames.
type TimingViolation struct {
	ReelSeconds      float64
	VoiceoverSeconds float64
}

func (e *TimingViolation) Error() string {
	return fmt.Sprintf("timing: reel runs %.2fs but voiceover needs %.2fs plus a %.1fs margin",
		e.ReelSeconds, e.VoiceoverSeconds, MarginSeconds)
}

// MusicDurationTooShort reports music that would end before the visuals.
type MusicDurationTooShort struct {
	MusicDurationMS int
	ReelSeconds     float64
}

func (e *MusicDurationTooShort) Error() string {
	return fmt.Sprintf("timing: music lasts %dms but the reel runs %.2fs",
		e.MusicDurationMS, e.ReelSeconds)
}

// UnsafeZonePlacement reports a heading positioned where platform UI
// overlays would obscure it.
type UnsafeZonePlacement struct {
	ChartType string
	Field     string
	Value     float64
	Limit     float64
}

func (e *UnsafeZonePlacement) Error() string {
	return fmt.Sprintf("timing: %s %s=%.3f is outside the safe zone (limit %.3f)",
		e.ChartType, e.Field, e.Value, e.Limit)
}

// Entry pairs a reel entry's type with its fully-resolved parameters.
type Entry struct {
	Type   week.AnimationType
	Params week.Params
}

// WordCount counts whitespace-separated words.
func WordCount(text string) int {
	return len(strings.Fields(text))
}

// EstimateVoiceover derives narration length from word count at the
// fixed reading pace.
func EstimateVoiceover(text string) float64 {
	return float64(WordCount(text)) / WordsPerSecond
}

// EstimateReel derives total reel length: cover hold, plus each chart
// animation's duration, plus the longest hold converted to seconds.
func EstimateReel(entries []Entry) float64 {
	total := CoverHoldSeconds
	maxHold := 0.0
	for _, entry := range entries {
		if entry.Type == week.AnimateCover {
			continue
		}
		if d, ok := entry.Params.Float("duration"); ok {
			total += d
		}
		if h, ok := entry.Params.Float("hold_frames"); ok && h > maxHold {
			maxHold = h
		}
	}
	return total + maxHold/FramesPerSecond
}

// Validate checks every timing invariant for one reel. Entries must be
// the reel's animated charts in order, with resolved parameters. On
// violation the estimate is still returned alongside the error.
func Validate(reel week.Reel, entries []Entry) (Estimate, error) {
	est := Estimate{
		VoiceoverSeconds: EstimateVoiceover(reel.Voiceover),
		ReelSeconds:      EstimateReel(entries),
	}
	if est.ReelSeconds+floatSlack < est.VoiceoverSeconds+MarginSeconds {
		return est, &TimingViolation{
			ReelSeconds:      est.ReelSeconds,
			VoiceoverSeconds: est.VoiceoverSeconds,
		}
	}
	if float64(reel.Music.DurationMS)+floatSlack < est.ReelSeconds*1000 {
		return est, &MusicDurationTooShort{
			MusicDurationMS: reel.Music.DurationMS,
			ReelSeconds:     est.ReelSeconds,
		}
	}
	if err := validateSafeZone(entries); err != nil {
		return est, err
	}
	return est, nil
}

// validateSafeZone enforces heading placement: cover headings at or
// below CoverSafeZoneMaxY (boundary inclusive), chart-animation headings
// at least SafeZoneClearance below their static default.
func validateSafeZone(entries []Entry) error {
	for _, entry := range entries {
		if entry.Type == week.AnimateCover {
			y, ok := entry.Params.Float("suptitle_y")
			if !ok {
				continue
			}
			if y > CoverSafeZoneMaxY+floatSlack {
				return &UnsafeZonePlacement{
					ChartType: string(entry.Type),
					Field:     "suptitle_y",
					Value:     y,
					Limit:     CoverSafeZoneMaxY,
				}
			}
			continue
		}
		staticType, ok := entry.Type.ChartType()
		if !ok {
			continue
		}
		key, staticDefault := resolve.StaticVerticalDefault(staticType)
		y, ok := entry.Params.Float(key)
		if !ok {
			continue
		}
		limit := staticDefault - SafeZoneClearance
		if y > limit+floatSlack {
			return &UnsafeZonePlacement{
				ChartType: string(entry.Type),
				Field:     key,
				Value:     y,
				Limit:     limit,
			}
		}
	}
	return nil
}
