package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"time"

	"github.com/joseph-ayodele/capture-tracker/internal/common"
	"github.com/joseph-ayodele/capture-tracker/internal/ocr"
	"github.com/joseph-ayodele/capture-tracker/internal/structured"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if len(os.Args) != 2 {
		logger.Error("usage", "cmd", "runocr <image-file>")
		os.Exit(2)
	}
	img, err := os.ReadFile(os.Args[1])
	if err != nil {
		logger.Error("read image", "path", os.Args[1], "error", err)
		os.Exit(2)
	}

	cfg := common.LoadConfig()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	x := ocr.NewExtractor(ocr.Config{
		Tesseract:        cfg.OCR.Tesseract,
		Languages:        cfg.OCR.Languages,
		TessdataDir:      cfg.OCR.TessdataDir,
		HeicConverter:    cfg.OCR.HeicConverter,
		ArtifactCacheDir: cfg.OCR.ArtifactCacheDir,
	}, logger)

	start := time.Now()
	res, err := x.Recognize(ctx, img)
	dur := time.Since(start)
	if err != nil {
		logger.Error("ocr failed", "error", err, "duration_ms", dur.Milliseconds())
		os.Exit(1)
	}
	logger.Info("ocr ok",
		"elements", len(res.Elements),
		"confidence", res.Confidence,
		"bytes", len(res.Text),
		"duration_ms", dur.Milliseconds(),
	)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(map[string]any{
		"text":       res.Text,
		"confidence": res.Confidence,
		"language":   res.Language,
		"elements":   res.Elements,
		"structured": structured.Detect(res.Elements, res.Text),
	}); err != nil {
		logger.Error("encode", "error", err)
		os.Exit(1)
	}
}
