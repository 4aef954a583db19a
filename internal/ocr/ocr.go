package ocr

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/joseph-ayodele/capture-tracker/internal/common"
	"github.com/joseph-ayodele/capture-tracker/internal/entity"
)

// DefaultLanguages is the fixed multilingual recognition set.
const DefaultLanguages = "eng+fra+deu+spa"

// accurateOEM selects the LSTM engine; there is no fast mode.
const accurateOEM = 1

type Config struct {
	Tesseract string // binary name or absolute path; if empty -> "tesseract"
	Languages string // tesseract -l value, default DefaultLanguages

	TessdataDir   string
	HeicConverter string // "heif-convert" | "magick" | "sips"

	PSM int // page segmentation mode; 0 leaves tesseract's default

	ArtifactCacheDir string
}

// Result is what one recognition pass yields.
type Result struct {
	Text       string
	Elements   []entity.TextElement
	Confidence float64 // mean element confidence, 0 when there are none
	Language   string
	Width      int
	Height     int
	Duration   time.Duration
	Warnings   []string
}

// Recognizer turns image bytes into positioned text.
type Recognizer interface {
	Recognize(ctx context.Context, img []byte) (Result, error)
}

type Extractor struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

type Option func(*Extractor)

// WithRunner swaps the command runner, mainly for tests.
func WithRunner(r Runner) Option {
	return func(e *Extractor) {
		if r != nil {
			e.runner = r
		}
	}
}

func NewExtractor(cfg Config, logger *slog.Logger, opts ...Option) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.Languages == "" {
		cfg.Languages = DefaultLanguages
	}
	if cfg.ArtifactCacheDir == "" {
		cfg.ArtifactCacheDir = "./tmp"
	}
	e := &Extractor{cfg: cfg, runner: execRunner{}, logger: logger}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Recognize runs a single accurate OCR pass over img. Any failure wraps common.ErrOCRFailed.
func (e *Extractor) Recognize(ctx context.Context, img []byte) (Result, error) {
	start := time.Now()
	if len(img) == 0 {
		return Result{}, fmt.Errorf("%w: empty image", common.ErrOCRFailed)
	}

	tmpDir, err := os.MkdirTemp("", "ct-ocr-*")
	if err != nil {
		return Result{}, fmt.Errorf("%w: temp dir: %v", common.ErrOCRFailed, err)
	}
	defer func() { _ = os.RemoveAll(tmpDir) }()

	sum := sha256.Sum256(img)
	hashHex := hex.EncodeToString(sum[:])

	var warns []string
	path := filepath.Join(tmpDir, "capture")
	if err := os.WriteFile(path, img, 0o600); err != nil {
		return Result{}, fmt.Errorf("%w: write image: %v", common.ErrOCRFailed, err)
	}

	if isHEIC(img) {
		out, w, cleanup, err := convertHEICtoPNG(ctx, e.runner, e.logger, e.cfg.HeicConverter, path, e.cfg.ArtifactCacheDir, hashHex)
		warns = append(warns, w...)
		if cleanup != nil {
			defer cleanup()
		}
		if err != nil {
			e.logger.Error("ocr.heic.failed", "hash", hashHex, "error", err)
			return Result{Warnings: warns}, fmt.Errorf("%w: %v", common.ErrOCRFailed, err)
		}
		path = out
		converted, err := os.ReadFile(out)
		if err != nil {
			return Result{Warnings: warns}, fmt.Errorf("%w: read converted image: %v", common.ErrOCRFailed, err)
		}
		img = converted
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(img))
	if err != nil || cfg.Width <= 0 || cfg.Height <= 0 {
		e.logger.Warn("ocr.decode.failed", "hash", hashHex, "error", err)
		return Result{Warnings: warns}, fmt.Errorf("%w: undecodable image: %v", common.ErrOCRFailed, err)
	}
	e.logger.Debug("ocr.start", "format", format, "width", cfg.Width, "height", cfg.Height, "langs", e.cfg.Languages)

	tsv, w, err := e.tesseractTSV(ctx, path)
	warns = append(warns, w...)
	if err != nil {
		return Result{Warnings: warns}, fmt.Errorf("%w: %v", common.ErrOCRFailed, err)
	}

	elements, text := elementsFromTSV(tsv, cfg.Width, cfg.Height)
	res := Result{
		Text:       Normalize(text),
		Elements:   elements,
		Confidence: meanConfidence(elements),
		Language:   e.cfg.Languages,
		Width:      cfg.Width,
		Height:     cfg.Height,
		Duration:   time.Since(start),
		Warnings:   warns,
	}
	e.logger.Info("ocr.ok",
		"elements", len(res.Elements),
		"chars", len(res.Text),
		"confidence", res.Confidence,
		"duration_ms", res.Duration.Milliseconds(),
	)
	return res, nil
}

func (e *Extractor) tesseractTSV(ctx context.Context, path string) ([]byte, []string, error) {
	// tesseract <file> stdout -l <langs> --oem 1 [--psm N] tsv
	args := []string{path, "stdout", "-l", e.cfg.Languages, "--oem", fmt.Sprintf("%d", accurateOEM)}
	if e.cfg.PSM > 0 {
		args = append(args, "--psm", fmt.Sprintf("%d", e.cfg.PSM))
	}
	if e.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", e.cfg.TessdataDir)
	}
	args = append(args, "tsv")

	out, errb, err := e.runner.Run(ctx, e.cfg.Tesseract, e.logger, args...)
	if err != nil {
		return nil, []string{string(errb)}, fmt.Errorf("tesseract TSV: %w", err)
	}
	return out, nil, nil
}

// isHEIC sniffs the ISO-BMFF ftyp brand.
func isHEIC(b []byte) bool {
	if len(b) < 12 || string(b[4:8]) != "ftyp" {
		return false
	}
	switch string(b[8:12]) {
	case "heic", "heix", "hevc", "hevx", "mif1", "msf1", "heim", "heis":
		return true
	}
	return false
}
