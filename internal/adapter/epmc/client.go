// Package epmc is a rate-limited client for the Europe PMC RESTful API.
//
// Europe PMC allows 10 requests/second or 500 requests/minute across the
// whole deployment; the limiter enforces the per-second cap and the
// consumer job loop adds its own pause between full-text fetches.
package epmc

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/litscan/litscan/internal/adapter/observability"
	"github.com/litscan/litscan/internal/domain"
)

// Client talks to the Europe PMC REST API.
type Client struct {
	BaseURL  string
	HTTP     *http.Client
	PageSize int
	limiter  *rate.Limiter
}

// New constructs a Client for the given base URL.
func New(baseURL string, pageSize int) *Client {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	if pageSize <= 0 {
		pageSize = 500
	}
	return &Client{
		BaseURL:  baseURL,
		HTTP:     &http.Client{Timeout: 60 * time.Second},
		PageSize: pageSize,
		limiter:  rate.NewLimiter(rate.Limit(10), 10),
	}
}

type searchResult struct {
	PMCID        string `xml:"pmcid"`
	CitedByCount *int   `xml:"citedByCount"`
}

type searchResponse struct {
	NextCursorMark string         `xml:"nextCursorMark"`
	Results        []searchResult `xml:"resultList>result"`
}

// Search returns one page of articles mentioning the identifier and the
// cursor for the next page ("" when exhausted). Transport and parse failures
// are logged and yield an empty page, ending pagination.
func (c *Client) Search(ctx domain.Context, identifier, queryFilter string, since *time.Time, cursor string) ([]domain.SearchHit, string, error) {
	if cursor == "" {
		cursor = "*"
	}
	query := fmt.Sprintf(`("%s"`, identifier)
	if queryFilter != "" {
		query += " AND " + queryFilter
	}
	query += " AND IN_EPMC:Y AND OPEN_ACCESS:Y AND NOT SRC:PPR"
	if since != nil {
		query += fmt.Sprintf(" AND (FIRST_PDATE:[%s TO %s])",
			since.Format("2006-01-02"), time.Now().UTC().Format("2006-01-02"))
	}
	query += ")"

	u := fmt.Sprintf("%ssearch?query=%s&pageSize=%d&cursorMark=%s&sort=%s",
		c.BaseURL, url.QueryEscape(query), c.PageSize, url.QueryEscape(cursor), url.QueryEscape("P_PDATE_D asc"))

	body, err := c.get(ctx, u, "search")
	if err != nil {
		slog.Warn("literature search failed", slog.String("identifier", identifier), slog.Any("error", err))
		return nil, "", nil
	}

	var resp searchResponse
	if err := xml.Unmarshal(body, &resp); err != nil {
		slog.Warn("literature search response unparseable", slog.String("identifier", identifier), slog.Any("error", err))
		return nil, "", nil
	}

	hits := make([]domain.SearchHit, 0, len(resp.Results))
	for _, r := range resp.Results {
		if r.PMCID == "" || r.CitedByCount == nil {
			continue
		}
		hits = append(hits, domain.SearchHit{PMCID: r.PMCID, CitedBy: *r.CitedByCount})
	}
	return hits, resp.NextCursorMark, nil
}

// FullText fetches an article's full-text XML. Unavailable or broken
// responses come back as nil; the caller skips the article.
func (c *Client) FullText(ctx domain.Context, pmcid string) ([]byte, error) {
	body, err := c.get(ctx, c.BaseURL+pmcid+"/fullTextXML", "fulltext")
	if err != nil {
		slog.Warn("full text fetch failed", slog.String("pmcid", pmcid), slog.Any("error", err))
		return nil, nil
	}
	return body, nil
}

type statusUpdateRequest struct {
	IDs []statusUpdateID `json:"ids"`
}

type statusUpdateID struct {
	Src   string `json:"src"`
	ExtID string `json:"extId"`
}

type statusUpdateResponse struct {
	ArticlesWithStatusUpdate []struct {
		ExtID         string   `json:"extId"`
		StatusUpdates []string `json:"statusUpdates"`
	} `json:"articlesWithStatusUpdate"`
}

// RetractedArticles asks the status-update-search module which of the given
// pmcids have been retracted.
func (c *Client) RetractedArticles(ctx domain.Context, pmcids []string) ([]string, error) {
	req := statusUpdateRequest{IDs: make([]statusUpdateID, 0, len(pmcids))}
	for _, pmcid := range pmcids {
		req.IDs = append(req.IDs, statusUpdateID{Src: "PMC", ExtID: pmcid})
	}
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("op=epmc.status_update: %w", err)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	observability.LiteratureRequestsTotal.WithLabelValues("status").Inc()
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"status-update-search", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("op=epmc.status_update: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	resp, err := c.HTTP.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("op=epmc.status_update: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("op=epmc.status_update: unexpected status %d", resp.StatusCode)
	}

	var decoded statusUpdateResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("op=epmc.status_update: %w", err)
	}
	var retracted []string
	for _, item := range decoded.ArticlesWithStatusUpdate {
		for _, status := range item.StatusUpdates {
			if status == "RETRACTED" {
				retracted = append(retracted, item.ExtID)
				break
			}
		}
	}
	return retracted, nil
}

func (c *Client) get(ctx domain.Context, u, operation string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	observability.LiteratureRequestsTotal.WithLabelValues(operation).Inc()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
