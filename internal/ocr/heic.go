package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// heicConverters maps a converter name to the argv that turns in into out.
var heicConverters = map[string]func(in, out string) (string, []string){
	"heif-convert": func(in, out string) (string, []string) { return "heif-convert", []string{in, out} },
	"magick":       func(in, out string) (string, []string) { return "magick", []string{in, out} },
	"sips": func(in, out string) (string, []string) {
		return "sips", []string{"-s", "format", "png", in, "--out", out}
	},
}

// convertHEICtoPNG converts a HEIC/HEIF file to PNG.
// With cacheDir and hashHex set, the PNG is kept at {cacheDir}/{hashHex}.png and reused,
// and cleanup is nil. Otherwise the PNG lives in a temp dir that cleanup removes.
func convertHEICtoPNG(
	ctx context.Context,
	r Runner,
	logger *slog.Logger,
	converter string,
	in string,
	cacheDir string,
	hashHex string,
) (string, []string, func(), error) {
	build, ok := heicConverters[converter]
	if !ok {
		return "", nil, nil, fmt.Errorf("HEIC not supported: set HEIC_CONVERTER to one of: heif-convert | magick | sips")
	}

	useCache := cacheDir != "" && hashHex != ""
	cached := filepath.Join(cacheDir, hashHex+".png")
	if useCache {
		if st, err := os.Stat(cached); err == nil && !st.IsDir() {
			logger.Debug("ocr.heic.cache_hit", "cache", cached)
			return cached, nil, nil, nil
		}
		if err := os.MkdirAll(cacheDir, 0o755); err != nil {
			return "", nil, nil, err
		}
	}

	tmpDir, err := os.MkdirTemp("", "ct-heic-*")
	if err != nil {
		return "", nil, nil, err
	}
	cleanup := func() { _ = os.RemoveAll(tmpDir) }
	out := filepath.Join(tmpDir, "page.png")

	name, args := build(in, out)
	if _, errb, err := r.Run(ctx, name, logger, args...); err != nil {
		return "", []string{string(errb)}, cleanup, fmt.Errorf("%s failed: %w", name, err)
	}
	if _, err := os.Stat(out); err != nil {
		return "", nil, cleanup, fmt.Errorf("HEIC conversion produced no output: %v", err)
	}
	if !useCache {
		return out, nil, cleanup, nil
	}

	// rename may fail across devices; fall back to copy
	if err := os.Rename(out, cached); err != nil {
		data, rerr := os.ReadFile(out)
		if rerr != nil {
			return "", nil, cleanup, rerr
		}
		if werr := os.WriteFile(cached, data, 0o644); werr != nil {
			return "", nil, cleanup, werr
		}
	}
	cleanup()
	logger.Debug("ocr.heic.cached", "cache", cached)
	return cached, nil, nil, nil
}
