// Package catalog fetches dataset metadata from the open.canada.ca CKAN API.
package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/openfueldata/cardata/internal/util"

	"golang.org/x/net/html"
)

// Dataset is one downloadable resource from the catalog.
type Dataset struct {
	Name string
	URL  string
}

// packageShowResponse mirrors the slice of the CKAN package_show payload we
// care about. Language is a list; the first entry decides the resource
// language.
type packageShowResponse struct {
	Result struct {
		Resources []struct {
			Name     string   `json:"name"`
			URL      string   `json:"url"`
			Language []string `json:"language"`
		} `json:"resources"`
	} `json:"result"`
}

// Fetch queries the catalog endpoint and returns the English-language
// resources.
//
// Error contract, matching the run command's exit behavior: a bad status or a
// non-JSON response is returned as an error and aborts the run; transport
// failures (timeout, connection refused) are logged and yield an empty result
// with a nil error, leaving the caller to notice it got nothing.
func Fetch(ctx context.Context, client *http.Client, catalogURL string, logger *slog.Logger) ([]Dataset, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, catalogURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create catalog request: %w", err)
	}
	req.Header.Set("User-Agent", util.RandomUserAgent())

	resp, err := client.Do(req)
	if err != nil {
		logger.Error("Catalog request failed, no datasets discovered.", "url", catalogURL, "error", err)
		return nil, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("catalog %s: unexpected status %s (check the url is still valid)", catalogURL, resp.Status)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.Contains(ct, "application/json") {
		return nil, fmt.Errorf("catalog %s: non-JSON response (content type %q)", catalogURL, ct)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read catalog response: %w", err)
	}

	var payload packageShowResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode catalog response: %w", err)
	}

	var datasets []Dataset
	for _, res := range payload.Result.Resources {
		if len(res.Language) == 0 || res.Language[0] != "en" {
			continue
		}
		datasets = append(datasets, Dataset{Name: res.Name, URL: res.URL})
	}
	logger.Info("Catalog fetched.", "resources", len(payload.Result.Resources), "english", len(datasets))
	return datasets, nil
}

// ScrapeListing is the fallback discovery path: pull every .csv link off a
// plain HTML listing page. Dataset names are derived from the link basename.
func ScrapeListing(ctx context.Context, client *http.Client, pageURL string, logger *slog.Logger) ([]Dataset, error) {
	body, err := util.Get(ctx, client, pageURL)
	if err != nil {
		return nil, fmt.Errorf("fetch listing: %w", err)
	}

	root, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse listing %s: %w", pageURL, err)
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("parse listing url %s: %w", pageURL, err)
	}

	var datasets []Dataset
	for _, href := range util.ParseLinks(root, ".csv") {
		ref, err := base.Parse(href)
		if err != nil {
			logger.Warn("Skipping unparseable link.", "href", href, "error", err)
			continue
		}
		name := ref.Path
		if i := strings.LastIndex(name, "/"); i >= 0 {
			name = name[i+1:]
		}
		name = strings.TrimSuffix(name, ".csv")
		datasets = append(datasets, Dataset{Name: name, URL: ref.String()})
	}
	logger.Info("Listing scraped.", "url", pageURL, "links", len(datasets))
	return datasets, nil
}
