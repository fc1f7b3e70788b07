package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"time"

	"lcscraper/pkg/config"
	errs "lcscraper/pkg/errors"
	"lcscraper/pkg/logger"
	"lcscraper/pkg/models"
	"lcscraper/pkg/ratelimit"
	"lcscraper/pkg/retry"
)

// minRequestRate is the floor the limiter is slowed down to on 429 responses
const minRequestRate = 0.1

const allQuestionsQuery = `
query allQuestions {
    allQuestions {
        questionFrontendId
        title
        titleSlug
        difficulty
        isPaidOnly
        topicTags {
            name
        }
    }
}`

// Client fetches the problem catalog from the remote API
type Client struct {
	httpClient    *http.Client
	headers       map[string]string
	algorithmsURL string
	graphqlURL    string
	attempts      int
	limiter       *ratelimit.RequestLimiter
	backoff       retry.BackoffStrategy
	wait          retry.WaitFunc
	logger        logger.Logger
}

// NewClient creates a catalog client from the configuration
func NewClient(cfg *config.Config, limiter *ratelimit.RequestLimiter, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}
	if limiter == nil {
		limiter = ratelimit.NewRequestLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.BurstSize)
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Catalog.Timeout,
		},
		headers: map[string]string{
			"User-Agent":      cfg.Scraper.UserAgent,
			"Referer":         "https://leetcode.com/",
			"Accept":          "application/json",
			"Accept-Language": "en-US,en;q=0.9",
		},
		algorithmsURL: cfg.Catalog.AlgorithmsURL,
		graphqlURL:    cfg.Catalog.GraphQLURL,
		attempts:      cfg.Retry.HTTPAttempts,
		limiter:       limiter,
		backoff:       retry.NewErrorTypeBackoff(),
		wait:          retry.Wait,
		logger:        log,
	}
}

// WithWait replaces the function used to sleep between retries
func (c *Client) WithWait(wait retry.WaitFunc) *Client {
	c.wait = wait
	return c
}

type algorithmsResponse struct {
	StatStatusPairs []struct {
		Stat struct {
			Title              string `json:"question__title"`
			TitleSlug          string `json:"question__title_slug"`
			FrontendQuestionID int    `json:"frontend_question_id"`
		} `json:"stat"`
		Difficulty struct {
			Level int `json:"level"`
		} `json:"difficulty"`
		PaidOnly bool `json:"paid_only"`
	} `json:"stat_status_pairs"`
}

// ListAlgorithms returns the algorithms problem list sorted ascending by
// frontend id. Paid problems are dropped unless includePaid is set.
func (c *Client) ListAlgorithms(ctx context.Context, includePaid bool) ([]models.CatalogItem, error) {
	var resp algorithmsResponse
	err := retry.Do(func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.algorithmsURL, nil)
		if err != nil {
			return errs.Wrap(errs.ErrorTypeUnknown, err, "failed to create request")
		}
		return c.doJSON(req, &resp)
	}, c.retryConfig(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to list algorithms: %w", err)
	}

	items := make([]models.CatalogItem, 0, len(resp.StatStatusPairs))
	for _, pair := range resp.StatStatusPairs {
		if pair.PaidOnly && !includePaid {
			continue
		}
		difficulty, err := models.DifficultyFromLevel(pair.Difficulty.Level)
		if err != nil {
			c.logger.WarnWithFields("Skipping problem with unknown difficulty", map[string]interface{}{
				"slug":  pair.Stat.TitleSlug,
				"level": pair.Difficulty.Level,
			})
			continue
		}
		items = append(items, models.CatalogItem{
			ID:         pair.Stat.FrontendQuestionID,
			Title:      pair.Stat.Title,
			Slug:       pair.Stat.TitleSlug,
			Difficulty: difficulty,
			PaidOnly:   pair.PaidOnly,
			Tags:       []string{},
		})
	}

	sort.SliceStable(items, func(i, j int) bool { return items[i].ID < items[j].ID })

	c.logger.InfoWithFields("Algorithms list fetched", map[string]interface{}{
		"listed": len(resp.StatStatusPairs),
		"kept":   len(items),
	})
	return items, nil
}

type graphQLRequest struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables,omitempty"`
}

type allQuestionsResponse struct {
	Data struct {
		AllQuestions []struct {
			QuestionFrontendID string `json:"questionFrontendId"`
			Title              string `json:"title"`
			TitleSlug          string `json:"titleSlug"`
			Difficulty         string `json:"difficulty"`
			IsPaidOnly         bool   `json:"isPaidOnly"`
			TopicTags          []struct {
				Name string `json:"name"`
			} `json:"topicTags"`
		} `json:"allQuestions"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// AllQuestions returns the full catalog, paid problems included, with topic tags
func (c *Client) AllQuestions(ctx context.Context) ([]models.CatalogItem, error) {
	payload, err := json.Marshal(graphQLRequest{Query: allQuestionsQuery})
	if err != nil {
		return nil, fmt.Errorf("error marshalling graphql request: %w", err)
	}

	resp, err := retry.DoWithResult(func() (allQuestionsResponse, error) {
		var out allQuestionsResponse
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.graphqlURL, bytes.NewReader(payload))
		if err != nil {
			return out, errs.Wrap(errs.ErrorTypeUnknown, err, "failed to create request")
		}
		req.Header.Set("Content-Type", "application/json")
		err = c.doJSON(req, &out)
		return out, err
	}, c.retryConfig(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch catalog: %w", err)
	}
	if len(resp.Errors) > 0 {
		return nil, errs.New(errs.ErrorTypeParsing, "graphql error: "+resp.Errors[0].Message)
	}

	items := make([]models.CatalogItem, 0, len(resp.Data.AllQuestions))
	for _, q := range resp.Data.AllQuestions {
		id, err := strconv.Atoi(q.QuestionFrontendID)
		if err != nil {
			c.logger.DebugWithFields("Skipping problem with non-numeric frontend id", map[string]interface{}{
				"slug": q.TitleSlug,
				"id":   q.QuestionFrontendID,
			})
			continue
		}
		difficulty, err := models.ParseDifficulty(q.Difficulty)
		if err != nil {
			c.logger.WarnWithFields("Skipping problem with unknown difficulty", map[string]interface{}{
				"slug":       q.TitleSlug,
				"difficulty": q.Difficulty,
			})
			continue
		}

		tags := make([]string, 0, len(q.TopicTags))
		for _, tag := range q.TopicTags {
			tags = append(tags, tag.Name)
		}

		items = append(items, models.CatalogItem{
			ID:         id,
			Title:      q.Title,
			Slug:       q.TitleSlug,
			Difficulty: difficulty,
			PaidOnly:   q.IsPaidOnly,
			Tags:       tags,
		})
	}

	c.logger.InfoWithFields("Catalog fetched", map[string]interface{}{
		"questions": len(items),
	})
	return items, nil
}

func (c *Client) retryConfig(ctx context.Context) *retry.Config {
	return &retry.Config{
		MaxAttempts: c.attempts,
		Backoff:     c.backoff,
		RetryIf:     retry.DefaultRetryIf,
		Context:     ctx,
		Logger:      c.logger,
		Wait:        c.wait,
		OnRetry: func(attempt int, err error, delay time.Duration) {
			if errs.IsType(err, errs.ErrorTypeRateLimit) {
				rate := c.limiter.Slow(minRequestRate)
				c.logger.WarnWithFields("Rate limited, slowing down requests", map[string]interface{}{
					"requests_per_second": rate,
				})
			}
		},
	}
}

// doJSON performs req and decodes a 200 response into target
func (c *Client) doJSON(req *http.Request, target interface{}) error {
	if err := c.limiter.Wait(req.Context()); err != nil {
		return err
	}

	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if req.Context().Err() != nil {
			return req.Context().Err()
		}
		return errs.Wrap(errs.ErrorTypeNetwork, err, "request failed")
	}
	defer resp.Body.Close()
	logger.LogRequest(c.logger, req.Method, req.URL.String(), resp.StatusCode, time.Since(start))

	if resp.StatusCode != http.StatusOK {
		return errs.FromStatusCode(resp.StatusCode, fmt.Sprintf("unexpected status from %s", req.URL.Path))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errs.Wrap(errs.ErrorTypeNetwork, err, "failed to read response body")
	}

	if err := json.Unmarshal(body, target); err != nil {
		preview := string(body)
		if len(preview) > 200 {
			preview = preview[:200] + "..."
		}
		c.logger.ErrorWithFields("failed to parse JSON response", map[string]interface{}{
			"url":          req.URL.String(),
			"body_preview": preview,
		})
		return errs.Wrap(errs.ErrorTypeParsing, err, "failed to parse JSON")
	}

	return nil
}
