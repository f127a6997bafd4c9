// scraper/index.go
package scraper

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/gewnthar/rfiarchive/utils"
	"go.uber.org/zap"
)

// ListRemoteScans scrapes the anchors of an HTTP directory listing and returns the
// absolute URLs of the scan files it links to, in page order.
func (f *Fetcher) ListRemoteScans(ctx context.Context, indexURL string) ([]string, error) {
	base, err := url.Parse(indexURL)
	if err != nil {
		return nil, fmt.Errorf("invalid index URL %s: %w", indexURL, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, indexURL, nil)
	if err != nil {
		return nil, err
	}
	res, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to get URL %s: %w", indexURL, err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to get URL %s: status code %d", indexURL, res.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(res.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML from %s: %w", indexURL, err)
	}

	seen := map[string]bool{}
	var scans []string
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" || strings.HasPrefix(href, "?") || strings.HasPrefix(href, "#") {
			return
		}
		ref, err := url.Parse(href)
		if err != nil {
			f.logger.Debug("skipping unparsable link", zap.String("href", href), zap.Error(err))
			return
		}
		abs := base.ResolveReference(ref)
		if !utils.IsScanFile(path.Base(abs.Path)) || seen[abs.String()] {
			return
		}
		seen[abs.String()] = true
		scans = append(scans, abs.String())
	})

	f.logger.Info("listed remote scans", zap.String("index", indexURL), zap.Int("scans", len(scans)))
	return scans, nil
}
