// Package serper queries the Serper.dev search API for organic results
// scoped to a single site.
package serper

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/paragraf-ai/lovdata-assistant/internal/core/domain"
	"github.com/paragraf-ai/lovdata-assistant/internal/infrastructure/resilience"
	"github.com/paragraf-ai/lovdata-assistant/internal/infrastructure/transport"
)

const defaultBaseURL = "https://google.serper.dev"

type Client struct {
	baseURL    string
	apiKey     string
	location   string
	httpClient *http.Client
	executor   *resilience.Executor
}

func New(baseURL, apiKey, location string, executor *resilience.Executor) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if location == "" {
		location = "no"
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		location:   location,
		httpClient: &http.Client{Timeout: 8 * time.Second},
		executor:   executor,
	}
}

type searchRequest struct {
	Query   string `json:"q"`
	Country string `json:"gl,omitempty"`
	Num     int    `json:"num,omitempty"`
}

type searchResponse struct {
	Organic []struct {
		Title   string `json:"title"`
		Link    string `json:"link"`
		Snippet string `json:"snippet"`
		Date    string `json:"date"`
	} `json:"organic"`
}

// SearchSite runs a free-text query restricted to one site.
func (c *Client) SearchSite(ctx context.Context, query, site string, limit int) ([]domain.OrganicResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("serper query is required")
	}
	if limit <= 0 {
		limit = 5
	}
	scoped := query
	if site != "" {
		scoped = fmt.Sprintf("site:%s %s", site, query)
	}

	request := searchRequest{Query: scoped, Country: c.location, Num: limit}
	var response searchResponse
	call := func(callCtx context.Context) error {
		return transport.PostJSON(callCtx, c.httpClient, c.baseURL+"/search", c.headers(), request, &response, "serper search")
	}

	var err error
	if c.executor != nil {
		err = c.executor.Execute(ctx, "serper.search", call, transport.ClassifyError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return nil, err
	}

	results := make([]domain.OrganicResult, 0, len(response.Organic))
	for _, item := range response.Organic {
		results = append(results, domain.OrganicResult{
			Title:   item.Title,
			Link:    item.Link,
			Snippet: item.Snippet,
			Date:    item.Date,
		})
		if len(results) == limit {
			break
		}
	}
	return results, nil
}

func (c *Client) headers() map[string]string {
	return map[string]string{"X-API-KEY": c.apiKey}
}
