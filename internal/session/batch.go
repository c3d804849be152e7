package session

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ironsheep/image-ascii-mcp/internal/ascii"
	"github.com/ironsheep/image-ascii-mcp/internal/config"
	"github.com/ironsheep/image-ascii-mcp/internal/imaging"
	"github.com/ironsheep/image-ascii-mcp/internal/logging"
)

// FileResult is the outcome of converting one file in a batch.
type FileResult struct {
	Path   string
	Result *Result
}

// ConvertFiles loads and converts every path with the same settings, running
// at most limit conversions at a time (limit <= 0 means GOMAXPROCS). Results
// are returned in the order of paths.
//
// The first failure cancels the remaining work and is returned; results for
// files that finished before it are still populated.
func ConvertFiles(
	ctx context.Context,
	cache *imaging.ImageCache,
	paths []string,
	settings config.Settings,
	limit int,
) ([]FileResult, error) {
	warnings, err := settings.Normalize()
	if err != nil {
		return nil, fmt.Errorf("settings: %w", err)
	}

	logger := logging.FromContext(ctx)
	for _, w := range warnings {
		logger.Warn("settings adjusted", logging.FieldWarning, w)
	}

	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}

	results := make([]FileResult, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, path := range paths {
		results[i].Path = path
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			res, err := convertFile(cache, path, settings)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			res.Warnings = warnings
			results[i].Result = res

			rows, cols := res.Artifact.Dimensions()
			logger.Debug("converted file",
				logging.FieldPath, path,
				logging.FieldRows, rows,
				logging.FieldCols, cols,
				logging.FieldElapsed, res.Elapsed)
			return nil
		})
	}

	return results, g.Wait()
}

// convertFile runs the whole pipeline on private buffers so calls can proceed
// in parallel.
func convertFile(cache *imaging.ImageCache, path string, settings config.Settings) (*Result, error) {
	start := time.Now()

	img, err := cache.Load(path)
	if err != nil {
		return nil, err
	}

	buf := imaging.Prepare(img, settings.MaxWidth)
	buf = imaging.AdjustBrightnessContrast(buf, settings.Brightness, settings.Contrast)

	art, err := ascii.Convert(buf, settings.ConverterConfig())
	if err != nil {
		return nil, err
	}

	return &Result{
		Artifact: art,
		Settings: settings,
		Elapsed:  time.Since(start),
	}, nil
}
