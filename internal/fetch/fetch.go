// Package fetch resolves a source document reference to a local file.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/local/pdfsplit/internal/storage"
)

// Resolve materializes ref as a file under dir and returns its path.
// Supports:
// - file://path or absolute/relative filesystem paths (used in place)
// - http(s):// URLs (downloaded into dir)
// - s3://bucket/key (downloaded into dir via AWS SDK v2)
// Downloaded copies live inside dir and share its lifetime; the caller
// owns dir cleanup.
func Resolve(ctx context.Context, ref, dir, password string) (string, error) {
	switch {
	case strings.HasPrefix(ref, "s3://"):
		return downloadS3(ctx, ref, dir, password)
	case strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://"):
		return downloadHTTP(ctx, ref, dir)
	case strings.HasPrefix(ref, "file://"):
		return checkLocal(strings.TrimPrefix(ref, "file://"))
	default:
		return checkLocal(ref)
	}
}

func checkLocal(path string) (string, error) {
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("source file: %w", err)
	}
	return path, nil
}

func downloadHTTP(ctx context.Context, url, dir string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		return "", fmt.Errorf("http %d", resp.StatusCode)
	}
	f, err := os.CreateTemp(dir, "pdfdl-*.pdf")
	if err != nil {
		return "", err
	}
	defer f.Close()
	if _, err := io.Copy(f, resp.Body); err != nil {
		return "", err
	}
	return f.Name(), nil
}

func downloadS3(ctx context.Context, s3url, dir, password string) (string, error) {
	bucket, key, err := storage.ParseRef(s3url)
	if err != nil {
		return "", err
	}
	cli, err := storage.NewS3Client(ctx, bucket)
	if err != nil {
		return "", err
	}
	data, err := cli.Download(ctx, key, password)
	if err != nil {
		return "", err
	}
	f, err := os.CreateTemp(dir, "s3pdf-*.pdf")
	if err != nil {
		return "", err
	}
	defer f.Close()
	if _, err := f.Write(data); err != nil {
		return "", err
	}
	log.Info().Str("bucket", bucket).Str("key", key).Str("file", filepath.Base(f.Name())).Msg("downloaded s3 pdf")
	return f.Name(), nil
}
