package fetcher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"lcscraper/pkg/config"
	errs "lcscraper/pkg/errors"
	"lcscraper/pkg/logger"
	"lcscraper/pkg/models"
	"lcscraper/pkg/ratelimit"
)

// HTTPSession fetches problem pages over HTTP. When a render endpoint is
// configured, pages are requested through it so that client-side rendered
// content arrives as HTML.
type HTTPSession struct {
	cfg     config.ScraperConfig
	limiter *ratelimit.RequestLimiter
	logger  logger.Logger

	client *http.Client
	resets int
}

// NewHTTPSession creates a session with a fresh client and cookie jar
func NewHTTPSession(cfg config.ScraperConfig, limiter *ratelimit.RequestLimiter, log logger.Logger) (*HTTPSession, error) {
	if log == nil {
		log = logger.GetLogger()
	}
	s := &HTTPSession{cfg: cfg, limiter: limiter, logger: log}
	client, err := s.newClient()
	if err != nil {
		return nil, err
	}
	s.client = client
	return s, nil
}

func (s *HTTPSession) newClient() (*http.Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}
	return &http.Client{Jar: jar}, nil
}

// Resets returns how many times the session has been rebuilt
func (s *HTTPSession) Resets() int {
	return s.resets
}

// Fetch loads the page at url and extracts its tag labels. The whole attempt
// is bounded by the configured wait timeout.
func (s *HTTPSession) Fetch(ctx context.Context, item models.CatalogItem, url string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.WaitTimeout)
	defer cancel()

	s.logger.InfoWithFields("Fetching tags", map[string]interface{}{
		"num": item.ID,
		"url": url,
	})

	doc, err := s.load(ctx, url)
	if err != nil {
		return nil, err
	}

	if step := s.dismissTutorial(doc); step == Handled {
		s.logger.Debug("Dismissed dynamic layout tutorial")
	}

	tags := extractTags(doc, s.cfg.TagSelector)
	if len(tags) == 0 {
		return nil, errs.New(errs.ErrorTypeTransientFetch, fmt.Sprintf("no tag elements matched %q", s.cfg.TagSelector))
	}
	return tags, nil
}

// Reset drops the client and its cookies and builds fresh ones
func (s *HTTPSession) Reset(ctx context.Context) error {
	if s.client != nil {
		s.client.CloseIdleConnections()
	}
	client, err := s.newClient()
	if err != nil {
		return err
	}
	s.client = client
	s.resets++

	s.logger.InfoWithFields("Session reset", map[string]interface{}{
		"resets": s.resets,
	})
	return nil
}

// Close releases idle connections
func (s *HTTPSession) Close() error {
	if s.client != nil {
		s.client.CloseIdleConnections()
	}
	return nil
}

type renderRequest struct {
	URL string `json:"url"`
}

func (s *HTTPSession) load(ctx context.Context, url string) (*goquery.Document, error) {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, errs.Wrap(errs.ErrorTypeTransientFetch, err, "request limiter")
		}
	}

	req, err := s.newRequest(ctx, url)
	if err != nil {
		return nil, errs.Wrap(errs.ErrorTypeTransientFetch, err, "failed to create request")
	}

	start := time.Now()
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, errs.Wrap(errs.ErrorTypeTransientFetch, err, "page load failed")
	}
	defer resp.Body.Close()
	logger.LogRequest(s.logger, req.Method, req.URL.String(), resp.StatusCode, time.Since(start))

	if resp.StatusCode != http.StatusOK {
		return nil, errs.Wrap(errs.ErrorTypeTransientFetch,
			errs.FromStatusCode(resp.StatusCode, "unexpected page status"), "page load failed")
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, errs.Wrap(errs.ErrorTypeTransientFetch, err, "failed to parse page")
	}
	return doc, nil
}

func (s *HTTPSession) newRequest(ctx context.Context, url string) (*http.Request, error) {
	var req *http.Request
	var err error

	if s.cfg.RenderURL != "" {
		body, merr := json.Marshal(renderRequest{URL: url})
		if merr != nil {
			return nil, merr
		}
		req, err = http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.RenderURL, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
	} else {
		req, err = http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
	}

	req.Header.Set("User-Agent", s.cfg.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	return req, nil
}

// dismissTutorial removes the layout tutorial overlay if the page shows one
func (s *HTTPSession) dismissTutorial(doc *goquery.Document) StepResult {
	if s.cfg.TutorialMarker == "" {
		return NotPresent
	}

	overlay := doc.Find("button, div[role=dialog]").FilterFunction(func(_ int, sel *goquery.Selection) bool {
		return strings.Contains(sel.Text(), s.cfg.TutorialMarker)
	})
	if overlay.Length() == 0 {
		return NotPresent
	}
	overlay.Remove()
	return Handled
}

// extractTags returns the trimmed, de-duplicated text of every element
// matching selector, in document order.
func extractTags(doc *goquery.Document, selector string) []string {
	seen := make(map[string]bool)
	var tags []string

	doc.Find(selector).Each(func(_ int, sel *goquery.Selection) {
		tag := strings.TrimSpace(sel.Text())
		if tag == "" || seen[tag] {
			return
		}
		seen[tag] = true
		tags = append(tags, tag)
	})
	return tags
}
