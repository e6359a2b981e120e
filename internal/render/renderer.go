// internal/render/renderer.go
//
// The in-process plotting capability. Each chart type draws onto a gg
// canvas using the mapped renderer keywords; animated variants render a
// frame sequence and hand it to an external encoder. Heading keyword
// quirks (the bar renderer's swapped headings) are reproduced here
// because the parameter mapper targets this keyword space.

package render

import (
	"context"
	"fmt"
	"os"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"

	"github.com/espresso-charts/studio/internal/pipeline"
	"github.com/espresso-charts/studio/internal/week"
)

// FrameEncoder turns a rendered frame sequence into a video file. The
// pattern is a printf-style path such as frames/frame_%04d.png.
type FrameEncoder interface {
	EncodeFrames(ctx context.Context, framePattern string, fps float64, outPath string) error
}

// Renderer draws covers, charts, and reel segments.
type Renderer struct {
	suptitleFont *truetype.Font
	subtitleFont *truetype.Font
	encoder      FrameEncoder
	faces        map[faceKey]font.Face
}

type faceKey struct {
	suptitle bool
	size     float64
}

// Option customizes the renderer.
type Option func(*Renderer)

// WithFonts loads the given TTF files for headings and body text.
// Missing or unreadable files fall back to a built-in bitmap face so
// headless runs and tests still produce output.
func WithFonts(suptitlePath, subtitlePath string) Option {
	return func(r *Renderer) {
		r.suptitleFont = loadFont(suptitlePath)
		r.subtitleFont = loadFont(subtitlePath)
	}
}

// New builds a renderer. The encoder is only needed for animated
// entries; a nil encoder makes animation rendering fail with a clear
// error instead of panicking.
func New(encoder FrameEncoder, opts ...Option) *Renderer {
	r := &Renderer{
		encoder: encoder,
		faces:   map[faceKey]font.Face{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register installs every renderer under its pipeline tag.
func (r *Renderer) Register(registry *pipeline.Registry) error {
	static := map[string]func(pipeline.RenderRequest) error{
		"cover":                 r.renderCover,
		string(week.ChartBar):   r.renderBar,
		string(week.ChartLine):  r.renderLine,
		string(week.ChartStem):  r.renderStem,
		string(week.ChartDonut): r.renderDonut,
	}
	for tag, fn := range static {
		fn := fn
		err := registry.Register(tag, func(_ context.Context, req pipeline.RenderRequest) error {
			return fn(req)
		})
		if err != nil {
			return err
		}
	}
	animated := []week.AnimationType{
		week.AnimateCover, week.AnimateBar, week.AnimateLine, week.AnimateStem, week.AnimateDonut,
	}
	for _, tag := range animated {
		tag := tag
		err := registry.Register(string(tag), func(ctx context.Context, req pipeline.RenderRequest) error {
			return r.renderAnimation(ctx, tag, req)
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// face returns a cached font face at the requested point size.
func (r *Renderer) face(suptitle bool, size float64) font.Face {
	if size <= 0 {
		size = 12
	}
	key := faceKey{suptitle: suptitle, size: size}
	if f, ok := r.faces[key]; ok {
		return f
	}
	ttf := r.subtitleFont
	if suptitle {
		ttf = r.suptitleFont
	}
	var f font.Face
	if ttf != nil {
		f = truetype.NewFace(ttf, &truetype.Options{Size: size})
	} else {
		f = basicfont.Face7x13
	}
	r.faces[key] = f
	return f
}

func loadFont(path string) *truetype.Font {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	ttf, err := freetypeParse(data)
	if err != nil {
		return nil
	}
	return ttf
}

func freetypeParse(data []byte) (*truetype.Font, error) {
	ttf, err := truetype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("render: parse font: %w", err)
	}
	return ttf, nil
}

// canvasSize reads the mapped pixel dimensions, falling back to the
// Instagram 4:5 canvas.
func canvasSize(params week.Params) (int, int) {
	w, okW := params.Float("px_width")
	h, okH := params.Float("px_height")
	if !okW || w <= 0 {
		w = 1080
	}
	if !okH || h <= 0 {
		h = 1350
	}
	return int(w), int(h)
}

func paramString(params week.Params, key, fallback string) string {
	if s, ok := params.String(key); ok && s != "" {
		return s
	}
	return fallback
}

func paramFloat(params week.Params, key string, fallback float64) float64 {
	if v, ok := params.Float(key); ok {
		return v
	}
	return fallback
}

func paramBool(params week.Params, key string, fallback bool) bool {
	if v, ok := params[key]; ok {
		if b, isBool := v.(bool); isBool {
			return b
		}
	}
	return fallback
}
