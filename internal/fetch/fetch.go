// Package fetch downloads raw dataset payloads into the input directory.
package fetch

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/openfueldata/cardata/internal/util"
)

// FileName derives the on-disk name for a dataset payload from its catalog
// name.
func FileName(datasetName string) string {
	return strings.ReplaceAll(datasetName, " ", "_") + ".csv"
}

// Download GETs a dataset URL and writes the payload under inputDir,
// returning the saved path.
//
// Network errors are logged and reported as an empty path with a nil error:
// the pipeline skips the dataset and carries on, the same contract as the
// catalog fetch. Filesystem errors are real errors.
func Download(ctx context.Context, client *http.Client, logger *slog.Logger, inputDir, datasetName, url string) (string, error) {
	l := logger.With(slog.String("dataset", datasetName))

	body, err := util.Get(ctx, client, url)
	if err != nil {
		l.Error("Download failed, dataset skipped.", "url", url, "error", err)
		return "", nil
	}

	if err := os.MkdirAll(inputDir, 0o755); err != nil {
		return "", fmt.Errorf("create input dir %s: %w", inputDir, err)
	}
	path := filepath.Join(inputDir, FileName(datasetName))
	if err := os.WriteFile(path, body, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	l.Info("Dataset downloaded.", slog.String("path", path), slog.Int("bytes", len(body)))
	return path, nil
}

// ExtractZipCSV returns the name and contents of the data CSV member of a zip
// payload. StatCan bulk zips carry the data file plus a *_MetaData.csv
// member, which is skipped.
func ExtractZipCSV(payload []byte) (string, []byte, error) {
	zr, err := zip.NewReader(bytes.NewReader(payload), int64(len(payload)))
	if err != nil {
		return "", nil, fmt.Errorf("open zip: %w", err)
	}
	for _, f := range zr.File {
		lower := strings.ToLower(f.Name)
		if !strings.HasSuffix(lower, ".csv") || strings.Contains(lower, "metadata") {
			continue
		}
		in, err := f.Open()
		if err != nil {
			return "", nil, fmt.Errorf("open zip member %s: %w", f.Name, err)
		}
		data, err := io.ReadAll(in)
		in.Close()
		if err != nil {
			return "", nil, fmt.Errorf("read zip member %s: %w", f.Name, err)
		}
		return f.Name, data, nil
	}
	return "", nil, fmt.Errorf("no data csv member found in zip")
}
