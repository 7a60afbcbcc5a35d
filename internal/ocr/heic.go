package ocr

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/joseph-ayodele/fnol-triage/internal/common"
)

// Supported HEIC converters for Config.HeicConverter.
const (
	HeicConverterHeifConvert = "heif-convert"
	HeicConverterMagick      = "magick"
	HeicConverterSips        = "sips"
)

func isHEIC(ext string) bool { return ext == "heic" || ext == "heif" }

// convertHEIC converts a HEIC/HEIF photo to PNG so tesseract can read it.
// With an artifact cache dir and a content hash in ctx the PNG is kept at
//
//	{cacheDir}/{hashHex}.png
//
// and reused. Otherwise it lives in a temp dir that cleanup removes.
func (e *Extractor) convertHEIC(ctx context.Context, in string) (out string, warnings []string, cleanup func(), err error) {
	cleanup = func() {}
	hashHex, _ := common.ContentHashFromContext(ctx)
	cacheDir := e.cfg.ArtifactCacheDir
	useCache := cacheDir != "" && hashHex != ""

	if useCache {
		cached := filepath.Join(cacheDir, hashHex+".png")
		if st, err := os.Stat(cached); err == nil && !st.IsDir() {
			e.logger.Debug("ocr.heic.cache.hit", "cache", cached)
			return cached, nil, cleanup, nil
		}
		if err := os.MkdirAll(cacheDir, 0o755); err != nil {
			return "", nil, cleanup, err
		}
	}

	tmpDir, err := os.MkdirTemp("", "fnol-heic-*")
	if err != nil {
		return "", nil, cleanup, err
	}
	cleanup = func() { _ = os.RemoveAll(tmpDir) }
	out = filepath.Join(tmpDir, "page.png")

	var args []string
	switch e.cfg.HeicConverter {
	case HeicConverterHeifConvert, HeicConverterMagick:
		args = []string{in, out}
	case HeicConverterSips:
		args = []string{"-s", "format", "png", in, "--out", out}
	default:
		return "", nil, cleanup, fmt.Errorf("%w: HEIC needs a converter (heif-convert | magick | sips)", common.ErrUnsupportedFormat)
	}
	if _, errb, err := e.runner.Run(ctx, e.cfg.HeicConverter, args...); err != nil {
		return "", []string{string(errb)}, cleanup, fmt.Errorf("%s failed: %w", e.cfg.HeicConverter, err)
	}
	if _, err := os.Stat(out); err != nil {
		return "", nil, cleanup, fmt.Errorf("HEIC conversion produced no output: %w", err)
	}
	if !useCache {
		return out, nil, cleanup, nil
	}

	cached := filepath.Join(cacheDir, hashHex+".png")
	if err := os.Rename(out, cached); err != nil {
		// cross-device: copy instead
		if err := copyFile(out, cached); err != nil {
			return "", nil, cleanup, err
		}
	}
	cleanup()
	e.logger.Debug("ocr.heic.cached", "cache", cached)
	return cached, nil, func() {}, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
