// internal/mix/mix.go
// Package mix shells out to ffmpeg and ffprobe for everything that touches
// video or audio containers: probing durations, encoding rendered frame
// sequences, joining reel segments, and overlaying voiceover plus looped
// background music in a single filter-graph pass.
package mix

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"

	"github.com/espresso-charts/studio/internal/week"
)

// commandRunner executes an external tool and returns its combined output.
// Tests swap this out to assert on the exact argument lists.
type commandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

func defaultCommandRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf
	err := cmd.Run()
	return buf.Bytes(), err
}

// FFmpeg wraps the ffmpeg and ffprobe binaries. The zero value is not
// usable, construct it with New.
type FFmpeg struct {
	ffmpegPath  string
	ffprobePath string
	run         commandRunner
}

// Option adjusts an FFmpeg wrapper at construction time.
type Option func(*FFmpeg)

// WithRunner replaces the process launcher, used by tests.
func WithRunner(run commandRunner) Option {
	return func(f *FFmpeg) { f.run = run }
}

// New returns an FFmpeg wrapper using the given binary paths. Empty paths
// fall back to "ffmpeg" and "ffprobe" on PATH.
func New(ffmpegPath, ffprobePath string, opts ...Option) *FFmpeg {
	f := &FFmpeg{
		ffmpegPath:  ffmpegPath,
		ffprobePath: ffprobePath,
		run:         defaultCommandRunner,
	}
	if f.ffmpegPath == "" {
		f.ffmpegPath = "ffmpeg"
	}
	if f.ffprobePath == "" {
		f.ffprobePath = "ffprobe"
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Duration probes any audio or video file and returns its length in seconds.
func (f *FFmpeg) Duration(ctx context.Context, path string) (float64, error) {
	out, err := f.run(ctx, f.ffprobePath,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		path,
	)
	if err != nil {
		return 0, fmt.Errorf("mix: ffprobe failed on %s: %w", path, err)
	}
	var probe struct {
		Format struct {
			Duration string `json:"duration"`
		} `json:"format"`
	}
	if err := json.Unmarshal(out, &probe); err != nil {
		return 0, fmt.Errorf("mix: parse ffprobe output for %s: %w", path, err)
	}
	seconds, err := strconv.ParseFloat(probe.Format.Duration, 64)
	if err != nil {
		return 0, fmt.Errorf("mix: ffprobe reported no duration for %s: %w", path, err)
	}
	return seconds, nil
}

// EncodeFrames turns a numbered PNG sequence into an H.264 MP4 at the
// given frame rate. framePattern is a printf-style path such as
// frames/frame_%05d.png.
func (f *FFmpeg) EncodeFrames(ctx context.Context, framePattern string, fps float64, outPath string) error {
	_, err := f.run(ctx, f.ffmpegPath,
		"-y",
		"-framerate", formatFloat(fps),
		"-i", framePattern,
		"-c:v", "libx264",
		"-pix_fmt", "yuv420p",
		"-crf", "18",
		outPath,
	)
	if err != nil {
		return fmt.Errorf("mix: encode frames %s: %w", framePattern, err)
	}
	return nil
}

// Concatenate joins two or more MP4 segments into one file. All inputs are
// expected to share resolution, frame rate, and codec, so the fast path is
// a stream copy. When that fails the inputs are re-encoded instead.
func (f *FFmpeg) Concatenate(ctx context.Context, inputs []string, outPath string) error {
	if len(inputs) < 2 {
		return fmt.Errorf("mix: need at least 2 segments to concatenate, got %d", len(inputs))
	}
	for _, in := range inputs {
		if _, err := os.Stat(in); err != nil {
			return fmt.Errorf("mix: concat input missing: %w", err)
		}
	}

	listFile, err := writeConcatList(inputs)
	if err != nil {
		return err
	}
	defer os.Remove(listFile)

	_, err = f.run(ctx, f.ffmpegPath,
		"-y",
		"-f", "concat",
		"-safe", "0",
		"-i", listFile,
		"-c", "copy",
		outPath,
	)
	if err == nil {
		return nil
	}

	// Stream copy can reject segments with slightly different codec
	// parameters. Re-encode as the fallback.
	_, err = f.run(ctx, f.ffmpegPath,
		"-y",
		"-f", "concat",
		"-safe", "0",
		"-i", listFile,
		"-vcodec", "libx264",
		"-pix_fmt", "yuv420p",
		"-crf", "18",
		outPath,
	)
	if err != nil {
		return fmt.Errorf("mix: concatenate %d segments: %w", len(inputs), err)
	}
	return nil
}

// voiceFadeOut is the fixed fade applied to the tail of the voiceover so
// the narration never ends on a hard cut.
const voiceFadeOut = 0.3

// AddAudio overlays a voiceover track and looped background music onto a
// video in a single ffmpeg pass. Either audio path may be empty, but not
// both. The music is trimmed to the video length and faded per the mix
// settings; the voiceover is delayed, faded out, and padded so amix sees
// two streams of equal length.
func (f *FFmpeg) AddAudio(ctx context.Context, videoPath, voicePath, musicPath, outPath string, mix week.AudioMixDefaults) error {
	if voicePath == "" && musicPath == "" {
		return fmt.Errorf("mix: add audio to %s: no voiceover or music given", videoPath)
	}

	videoDur, err := f.Duration(ctx, videoPath)
	if err != nil {
		return err
	}

	args := []string{"-y", "-i", videoPath}
	var filters []string
	var mixLabels []string
	inputIdx := 1

	if voicePath != "" {
		voiceDur, err := f.Duration(ctx, voicePath)
		if err != nil {
			return err
		}
		args = append(args, "-i", voicePath)
		chain := fmt.Sprintf("volume=%s", formatFloat(mix.VoiceVolume))
		if mix.VoiceDelay > 0 {
			ms := int(mix.VoiceDelay * 1000)
			chain += fmt.Sprintf(",adelay=%d|%d", ms, ms)
		}
		fadeStart := mix.VoiceDelay + voiceDur - voiceFadeOut
		chain += fmt.Sprintf(",afade=t=out:st=%.2f:d=%s", fadeStart, formatFloat(voiceFadeOut))
		filters = append(filters, fmt.Sprintf("[%d:a]%s,apad=whole_dur=%.2f[vo]", inputIdx, chain, videoDur))
		mixLabels = append(mixLabels, "[vo]")
		inputIdx++
	}

	if musicPath != "" {
		args = append(args, "-stream_loop", "-1", "-i", musicPath)
		chain := fmt.Sprintf("volume=%s", formatFloat(mix.MusicVolume))
		if mix.FadeIn > 0 {
			chain += fmt.Sprintf(",afade=t=in:st=0:d=%s", formatFloat(mix.FadeIn))
		}
		if mix.FadeOut > 0 {
			chain += fmt.Sprintf(",afade=t=out:st=%.2f:d=%s", videoDur-mix.FadeOut, formatFloat(mix.FadeOut))
		}
		filters = append(filters, fmt.Sprintf("[%d:a]%s,atrim=0:%.2f,asetpts=PTS-STARTPTS[music]", inputIdx, chain, videoDur))
		mixLabels = append(mixLabels, "[music]")
	}

	if len(mixLabels) == 2 {
		filters = append(filters, "[vo][music]amix=inputs=2:duration=first:dropout_transition=0[aout]")
	} else {
		// Single stream, relabel its chain output directly.
		last := filters[len(filters)-1]
		filters[len(filters)-1] = last[:len(last)-len(mixLabels[0])] + "[aout]"
	}

	filterComplex := ""
	for i, part := range filters {
		if i > 0 {
			filterComplex += ";"
		}
		filterComplex += part
	}

	args = append(args,
		"-filter_complex", filterComplex,
		"-map", "0:v", "-map", "[aout]",
		"-c:v", "copy", "-c:a", "aac", "-b:a", "192k",
		"-shortest", outPath,
	)
	if _, err := f.run(ctx, f.ffmpegPath, args...); err != nil {
		return fmt.Errorf("mix: add audio to %s: %w", videoPath, err)
	}
	return nil
}

func writeConcatList(inputs []string) (string, error) {
	tmp, err := os.CreateTemp("", "espresso-concat-*.txt")
	if err != nil {
		return "", fmt.Errorf("mix: create concat list: %w", err)
	}
	for _, in := range inputs {
		abs, err := filepath.Abs(in)
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
			return "", fmt.Errorf("mix: resolve concat input: %w", err)
		}
		if _, err := fmt.Fprintf(tmp, "file '%s'\n", abs); err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
			return "", fmt.Errorf("mix: write concat list: %w", err)
		}
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("mix: close concat list: %w", err)
	}
	return tmp.Name(), nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
