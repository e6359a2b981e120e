package render

import (
	"context"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/espresso-charts/studio/internal/pipeline"
	"github.com/espresso-charts/studio/internal/week"
)

func testParams(extra week.Params) week.Params {
	params := week.Params{
		"px_width":   540.0,
		"px_height":  675.0,
		"dpi":        100.0,
		"face_color": "#F5F0E6",
	}
	for k, v := range extra {
		params[k] = v
	}
	return params
}

func decodeSize(t *testing.T, path string) (int, int) {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open rendered file: %v", err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decode rendered file: %v", err)
	}
	bounds := img.Bounds()
	return bounds.Dx(), bounds.Dy()
}

func TestRenderCoverProducesCanvasSizedPNG(t *testing.T) {
	r := New(nil)
	out := filepath.Join(t.TempDir(), "cover.png")
	err := r.renderCover(pipeline.RenderRequest{
		Params: testParams(week.Params{
			"txt_suptitle": "The Buffett\nIndicator",
			"txt_subtitle": "Market cap vs GDP",
			"txt_label":    "Source: FRED",
		}),
		OutputPath: out,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if w, h := decodeSize(t, out); w != 540 || h != 675 {
		t.Fatalf("unexpected canvas size %dx%d", w, h)
	}
}

func TestRenderBarRequiresNumericColumn(t *testing.T) {
	r := New(nil)
	err := r.renderBar(pipeline.RenderRequest{
		Data:       map[string][]any{"dim": {"a", "b"}},
		Params:     testParams(nil),
		OutputPath: filepath.Join(t.TempDir(), "bar.png"),
	})
	if err == nil || !strings.Contains(err.Error(), "no numeric column") {
		t.Fatalf("expected numeric column error, got %v", err)
	}
}

func TestRenderStaticChartTypes(t *testing.T) {
	r := New(nil)
	dir := t.TempDir()
	data := map[string][]any{
		"label": {"a", "b", "c"},
		"value": {1.0, 2.0, 3.0},
	}
	renders := map[string]func(pipeline.RenderRequest) error{
		"bar.png":   r.renderBar,
		"line.png":  r.renderLine,
		"stem.png":  r.renderStem,
		"donut.png": r.renderDonut,
	}
	for name, fn := range renders {
		out := filepath.Join(dir, name)
		err := fn(pipeline.RenderRequest{
			Data: data,
			Params: testParams(week.Params{
				"txt_suptitle": "Primary",
				"txt_subtitle": "Secondary",
			}),
			OutputPath: out,
		})
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", name, err)
		}
		if info, err := os.Stat(out); err != nil || info.Size() == 0 {
			t.Fatalf("%s: expected non-empty output, err=%v", name, err)
		}
	}
}

type captureEncoder struct {
	pattern string
	fps     float64
	out     string
	frames  int
}

func (c *captureEncoder) EncodeFrames(_ context.Context, pattern string, fps float64, outPath string) error {
	c.pattern = pattern
	c.fps = fps
	c.out = outPath
	dir := filepath.Dir(pattern)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	c.frames = len(entries)
	return nil
}

func TestRenderAnimationWritesFramesAndEncodes(t *testing.T) {
	enc := &captureEncoder{}
	r := New(enc)
	out := filepath.Join(t.TempDir(), "segment.mp4")
	err := r.renderAnimation(context.Background(), week.AnimateBar, pipeline.RenderRequest{
		Data: map[string][]any{"label": {"a", "b"}, "value": {1.0, 2.0}},
		Params: testParams(week.Params{
			"duration":    0.5,
			"fps":         4.0,
			"hold_frames": 3.0,
		}),
		OutputPath: out,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// 4 fps * 0.5s = 2 animation frames plus 3 hold frames.
	if enc.frames != 5 {
		t.Fatalf("expected 5 frames, got %d", enc.frames)
	}
	if enc.fps != 4.0 || enc.out != out {
		t.Fatalf("encoder got fps=%v out=%q", enc.fps, enc.out)
	}
}

func TestRenderAnimationWithoutEncoderFails(t *testing.T) {
	r := New(nil)
	err := r.renderAnimation(context.Background(), week.AnimateCover, pipeline.RenderRequest{
		Params:     testParams(nil),
		OutputPath: "ignored.mp4",
	})
	if err == nil || !strings.Contains(err.Error(), "no frame encoder") {
		t.Fatalf("expected encoder error, got %v", err)
	}
}

func TestRegisterInstallsAllTags(t *testing.T) {
	registry := pipeline.NewRegistry()
	if err := New(&captureEncoder{}).Register(registry); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	tags := strings.Join(registry.Tags(), ",")
	for _, want := range []string{"cover", "bar", "donut", "cover_animate", "stem_animate"} {
		if !strings.Contains(tags, want) {
			t.Fatalf("registry missing %s: %s", want, tags)
		}
	}
}
