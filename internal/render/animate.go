package render

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fogleman/gg"

	"github.com/espresso-charts/studio/internal/pipeline"
	"github.com/espresso-charts/studio/internal/week"
)

// renderAnimation renders a frame sequence for one animated entry and
// hands it to the encoder. Frames ramp a 0-1 progress value through the
// static drawing path, then the final frame repeats for hold_frames.
func (r *Renderer) renderAnimation(ctx context.Context, tag week.AnimationType, req pipeline.RenderRequest) error {
	if r.encoder == nil {
		return fmt.Errorf("render: no frame encoder configured for %s", tag)
	}
	fps := paramFloat(req.Params, "fps", 24)
	if fps <= 0 {
		fps = 24
	}
	duration := paramFloat(req.Params, "duration", 8)
	hold := int(paramFloat(req.Params, "hold_frames", 0))
	animFrames := int(fps * duration)
	if animFrames < 1 {
		animFrames = 1
	}

	framesDir, err := os.MkdirTemp("", "espresso-frames-")
	if err != nil {
		return fmt.Errorf("render: frames dir: %w", err)
	}
	defer os.RemoveAll(framesDir)

	total := animFrames + hold
	for i := 0; i < total; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		progress := 1.0
		if i < animFrames && animFrames > 1 {
			progress = easeOut(float64(i) / float64(animFrames-1))
		}
		dc := r.newCanvas(req.Params)
		if err := r.drawFrame(dc, tag, req, progress); err != nil {
			return err
		}
		framePath := filepath.Join(framesDir, fmt.Sprintf("frame_%05d.png", i))
		if err := dc.SavePNG(framePath); err != nil {
			return fmt.Errorf("render: save frame %d: %w", i, err)
		}
	}
	pattern := filepath.Join(framesDir, "frame_%05d.png")
	if err := r.encoder.EncodeFrames(ctx, pattern, fps, req.OutputPath); err != nil {
		return fmt.Errorf("render: encode %s: %w", tag, err)
	}
	return nil
}

func (r *Renderer) drawFrame(dc *gg.Context, tag week.AnimationType, req pipeline.RenderRequest, progress float64) error {
	switch tag {
	case week.AnimateCover:
		r.drawCover(dc, req.Params, progress)
		return nil
	case week.AnimateBar:
		return r.drawBar(dc, req.Data, req.Params, progress)
	case week.AnimateLine:
		return r.drawLine(dc, req.Data, req.Params, progress)
	case week.AnimateStem:
		return r.drawStem(dc, req.Data, req.Params, progress)
	case week.AnimateDonut:
		return r.drawDonut(dc, req.Data, req.Params, progress)
	}
	return fmt.Errorf("render: no frame drawer for %s", tag)
}

// easeOut softens the end of the reveal so bars and sweeps settle
// instead of snapping.
func easeOut(t float64) float64 {
	t = clamp01(t)
	return 1 - (1-t)*(1-t)
}
