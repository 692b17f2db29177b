package imagemin

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"strings"

	"github.com/specialistvlad/assetgrid/internal/ctxlog"
	"github.com/specialistvlad/assetgrid/internal/pipeline"
	"github.com/specialistvlad/assetgrid/internal/registry"
	tdminify "github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/svg"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Options defines the settings of an `imagemin` stage.
type Options struct {
	// OptimizationLevel ranges from 0 (store) to 7, mirroring optipng.
	OptimizationLevel int `stage:"optimization_level"`
	// Quality is the JPEG quality, 1 to 100. Zero leaves JPEGs untouched
	// since re-encoding them is lossy.
	Quality int `stage:"quality"`
}

// Stage recompresses PNG images, minifies SVG and re-encodes JPEG when a
// quality is set. An image whose
// recompressed form is not smaller is kept byte for byte.
type Stage struct {
	opts Options
	svg  *tdminify.M
}

func newStage(opts *Options) (*Stage, error) {
	if opts.OptimizationLevel < 0 || opts.OptimizationLevel > 7 {
		return nil, fmt.Errorf("optimization_level must be between 0 and 7, got %d", opts.OptimizationLevel)
	}
	if opts.Quality < 0 || opts.Quality > 100 {
		return nil, fmt.Errorf("quality must be between 1 and 100, got %d", opts.Quality)
	}
	m := tdminify.New()
	m.AddFunc("image/svg+xml", svg.Minify)
	return &Stage{opts: *opts, svg: m}, nil
}

// Name implements pipeline.Stage.
func (s *Stage) Name() string { return "imagemin" }

// Transform implements pipeline.Stage.
func (s *Stage) Transform(ctx context.Context, in []*pipeline.Asset) ([]*pipeline.Asset, error) {
	logger := ctxlog.FromContext(ctx)
	return pipeline.EachAsset(s.Name(), func(_ context.Context, a *pipeline.Asset) ([]*pipeline.Asset, error) {
		data, err := s.compress(strings.ToLower(a.Ext()), a.Data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", a.Path, err)
		}
		if data == nil || len(data) >= len(a.Data) {
			return []*pipeline.Asset{a}, nil
		}
		logger.Debug("Image compressed.", "path", a.Path, "before", len(a.Data), "after", len(data))
		return []*pipeline.Asset{a.Derive(a.Path, data)}, nil
	}).Transform(ctx, in)
}

// compress returns nil for formats it does not handle.
func (s *Stage) compress(ext string, data []byte) ([]byte, error) {
	switch ext {
	case ".jpg", ".jpeg":
		if s.opts.Quality == 0 {
			return nil, nil
		}
		img, err := jpeg.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: s.opts.Quality}); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case ".png":
		if s.opts.OptimizationLevel == 0 {
			return nil, nil
		}
		img, err := png.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		return encodePNG(img, s.pngLevel())
	case ".svg":
		return s.svg.Bytes("image/svg+xml", data)
	default:
		return nil, nil
	}
}

func (s *Stage) pngLevel() png.CompressionLevel {
	switch {
	case s.opts.OptimizationLevel >= 3:
		return png.BestCompression
	case s.opts.OptimizationLevel == 1:
		return png.BestSpeed
	default:
		return png.DefaultCompression
	}
}

func encodePNG(img image.Image, level png.CompressionLevel) ([]byte, error) {
	var buf bytes.Buffer
	enc := &png.Encoder{CompressionLevel: level}
	if err := enc.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Register registers the stage with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterStage("imagemin", &registry.RegisteredStage{
		NewOptions: func() any { return &Options{OptimizationLevel: 3} },
		New: func(_ registry.Env, opts any) (pipeline.Stage, error) {
			return newStage(opts.(*Options))
		},
	})
}
