// scraper/downloader.go
package scraper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"

	"github.com/gewnthar/rfiarchive/utils"
	"go.uber.org/zap"
)

// Download saves the file at fileURL into dir and returns its local path. A file that
// is already present is not downloaded again.
func (f *Fetcher) Download(ctx context.Context, fileURL, dir string) (string, error) {
	u, err := url.Parse(fileURL)
	if err != nil {
		return "", fmt.Errorf("invalid file URL %s: %w", fileURL, err)
	}
	name := path.Base(u.Path)
	if name == "" || name == "." || name == "/" {
		return "", fmt.Errorf("no file name in URL %s", fileURL)
	}
	localPath := filepath.Join(dir, name)
	if _, err := os.Stat(localPath); err == nil {
		f.logger.Debug("already downloaded", zap.String("path", localPath))
		return localPath, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to make GET request to %s: %w", fileURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to download file from %s: received status code %d", fileURL, resp.StatusCode)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	// Write next to the target and rename so a cut download never looks like a scan.
	partPath := localPath + ".part"
	outFile, err := os.Create(partPath)
	if err != nil {
		return "", fmt.Errorf("failed to create local file %s: %w", partPath, err)
	}
	if _, err := io.Copy(outFile, resp.Body); err != nil {
		outFile.Close()
		os.Remove(partPath)
		return "", fmt.Errorf("failed to copy downloaded content to %s: %w", partPath, err)
	}
	if err := outFile.Close(); err != nil {
		os.Remove(partPath)
		return "", fmt.Errorf("failed to close %s: %w", partPath, err)
	}
	if err := os.Rename(partPath, localPath); err != nil {
		return "", fmt.Errorf("failed to move %s into place: %w", localPath, err)
	}

	f.logger.Info("downloaded scan", zap.String("url", fileURL), zap.String("path", localPath))
	return localPath, nil
}

// FetchAll downloads every selected scan linked from indexURL into dir. It keeps going
// past failed downloads and returns them joined.
func (f *Fetcher) FetchAll(ctx context.Context, indexURL, dir string, selection []string) ([]string, error) {
	scans, err := f.ListRemoteScans(ctx, indexURL)
	if err != nil {
		return nil, err
	}

	var (
		paths []string
		errs  []error
	)
	for _, s := range scans {
		if err := ctx.Err(); err != nil {
			return paths, err
		}
		u, err := url.Parse(s)
		if err != nil || !utils.Selected(utils.ScanFileName(u.Path), selection) {
			continue
		}
		p, err := f.Download(ctx, s, dir)
		if err != nil {
			f.logger.Warn("download failed", zap.String("url", s), zap.Error(err))
			errs = append(errs, err)
			continue
		}
		paths = append(paths, p)
	}
	return paths, errors.Join(errs...)
}
