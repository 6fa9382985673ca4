package dictionary

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/czcorpus/cnc-gokit/fs"
	"github.com/rs/zerolog/log"
)

const userAgent = "lexdict-cli"

// EnsureSource checks if the dataset exists at destPath.
// If not, it downloads url next to destPath and renames the finished file into place,
// so an interrupted transfer never shows up as a cached copy.
// An existing file is trusted as is. The returned flag tells whether a download happened.
func EnsureSource(ctx context.Context, client *http.Client, url, destPath string) (bool, error) {
	if fs.PathExists(destPath) {
		isFile, err := fs.IsFile(destPath)
		if err != nil {
			return false, fmt.Errorf("failed to inspect cached source %s: %w", destPath, err)
		}
		if !isFile {
			return false, fmt.Errorf("cached source %s is not a regular file", destPath)
		}
		log.Debug().Str("path", destPath).Msg("using cached source dataset")
		return false, nil
	}

	if client == nil {
		client = http.DefaultClient
	}
	log.Info().Str("url", url).Str("path", destPath).Msg("source dataset not cached, downloading")

	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return false, fmt.Errorf("failed to create cache directory: %w", err)
	}
	if err := download(ctx, client, url, destPath); err != nil {
		return false, err
	}
	return true, nil
}

func download(ctx context.Context, client *http.Client, url, destPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return &RetrievalError{URL: url, Err: err}
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := client.Do(req)
	if err != nil {
		return &RetrievalError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &RetrievalError{URL: url, Err: fmt.Errorf("download failed: %s", resp.Status)}
	}

	tmp, err := os.CreateTemp(filepath.Dir(destPath), filepath.Base(destPath)+".part-*")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	written, err := io.Copy(tmp, resp.Body)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmp.Name())
		return &RetrievalError{URL: url, Err: err}
	}
	if err := os.Rename(tmp.Name(), destPath); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to move download into place: %w", err)
	}
	log.Info().Str("path", destPath).Int64("bytes", written).Msg("source dataset downloaded")
	return nil
}
