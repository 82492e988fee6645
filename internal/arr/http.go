package arr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// HTTPDoer describes the HTTP client used to reach an application.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Gate is consulted before every metered (mutating) call. Implementations
// return an error to defer the call; nil admits it.
type Gate interface {
	Reserve(ctx context.Context) error
}

const (
	apiKeyHeader = "X-Api-Key"

	listPageSize = 200
	maxListPages = 10
)

// HTTPClient implements Client against a real *arr HTTP API.
type HTTPClient struct {
	instance string
	kind     AppKind
	profile  appProfile
	baseURL  string
	apiKey   string
	gate     Gate
	doer     HTTPDoer
}

// NewHTTPClient builds a client for one configured instance. A nil doer
// falls back to a default client with a request timeout; a nil gate leaves
// mutating calls unmetered.
func NewHTTPClient(instance string, kind AppKind, baseURL, apiKey string, gate Gate, doer HTTPDoer) (*HTTPClient, error) {
	profile, err := profileFor(kind)
	if err != nil {
		return nil, err
	}
	if doer == nil {
		doer = &http.Client{Timeout: 30 * time.Second}
	}
	return &HTTPClient{
		instance: instance,
		kind:     kind,
		profile:  profile,
		baseURL:  baseURL,
		apiKey:   apiKey,
		gate:     gate,
		doer:     doer,
	}, nil
}

// ListMissing returns wanted items without a file on disk.
func (c *HTTPClient) ListMissing(ctx context.Context, monitoredOnly bool) (ListResult, error) {
	return c.listWanted(ctx, "wanted/missing", monitoredOnly)
}

// ListUpgradable returns items below their quality cutoff.
func (c *HTTPClient) ListUpgradable(ctx context.Context, monitoredOnly bool) (ListResult, error) {
	return c.listWanted(ctx, "wanted/cutoff", monitoredOnly)
}

func (c *HTTPClient) listWanted(ctx context.Context, path string, monitoredOnly bool) (ListResult, error) {
	var result ListResult
	for page := 1; page <= maxListPages; page++ {
		query := url.Values{}
		query.Set("page", strconv.Itoa(page))
		query.Set("pageSize", strconv.Itoa(listPageSize))
		query.Set("sortKey", c.profile.missingSort)
		query.Set("sortDirection", "ascending")
		if monitoredOnly {
			query.Set("monitored", "true")
		}

		var envelope struct {
			Page         int               `json:"page"`
			TotalRecords int               `json:"totalRecords"`
			Records      []json.RawMessage `json:"records"`
		}
		if err := c.get(ctx, path, query, &envelope); err != nil {
			return ListResult{}, err
		}

		for _, raw := range envelope.Records {
			item, ok := decodeItem(raw)
			if !ok {
				result.Skipped++
				continue
			}
			if monitoredOnly && !item.Monitored {
				continue
			}
			result.Items = append(result.Items, item)
		}

		seen := page * listPageSize
		if len(envelope.Records) == 0 || seen >= envelope.TotalRecords {
			break
		}
	}
	return result, nil
}

// TriggerSearch submits one search command covering the given item ids and
// returns the remote command id. The call is metered.
func (c *HTTPClient) TriggerSearch(ctx context.Context, itemIDs []int64) (int64, error) {
	if len(itemIDs) == 0 {
		return 0, Wrap(ErrMalformed, c.instance, "trigger search", "no item ids", nil)
	}
	if err := c.reserve(ctx); err != nil {
		return 0, err
	}

	body := map[string]any{"name": c.profile.searchCommand}
	body[c.profile.searchIDsField] = itemIDs
	var resp struct {
		ID int64 `json:"id"`
	}
	if err := c.post(ctx, "command", body, &resp); err != nil {
		return 0, err
	}
	if resp.ID == 0 {
		return 0, Wrap(ErrMalformed, c.instance, "trigger search", "command id missing from response", nil)
	}
	return resp.ID, nil
}

// PollCommand reports the remote state of a previously triggered command.
func (c *HTTPClient) PollCommand(ctx context.Context, commandID int64) (CommandStatus, error) {
	var resp struct {
		Status string `json:"status"`
	}
	if err := c.get(ctx, "command/"+strconv.FormatInt(commandID, 10), nil, &resp); err != nil {
		return "", err
	}
	return CommandStatus(resp.Status), nil
}

// RefreshMetadata asks the application to rescan one library entity.
// The call is metered.
func (c *HTTPClient) RefreshMetadata(ctx context.Context, entityID int64) error {
	if err := c.reserve(ctx); err != nil {
		return err
	}
	body := map[string]any{"name": c.profile.refreshCommand}
	if c.profile.refreshIDField == "movieIds" {
		body[c.profile.refreshIDField] = []int64{entityID}
	} else {
		body[c.profile.refreshIDField] = entityID
	}
	return c.post(ctx, "command", body, nil)
}

// ListQueue returns the application's current download queue.
func (c *HTTPClient) ListQueue(ctx context.Context) ([]Download, error) {
	query := url.Values{}
	query.Set("page", "1")
	query.Set("pageSize", "1000")

	var envelope struct {
		Records []struct {
			ID         int64   `json:"id"`
			Title      string  `json:"title"`
			Size       float64 `json:"size"`
			SizeLeft   float64 `json:"sizeleft"`
			Status     string  `json:"status"`
			Protocol   string  `json:"protocol"`
			Indexer    string  `json:"indexer"`
			DownloadID string  `json:"downloadId"`
			IsPrivate  bool    `json:"isPrivate"`
		} `json:"records"`
	}
	if err := c.get(ctx, "queue", query, &envelope); err != nil {
		return nil, err
	}

	downloads := make([]Download, 0, len(envelope.Records))
	for _, record := range envelope.Records {
		hash := record.DownloadID
		if hash == "" {
			hash = strconv.FormatInt(record.ID, 10)
		}
		downloads = append(downloads, Download{
			ID:        record.ID,
			Hash:      hash,
			Title:     record.Title,
			Size:      int64(record.Size),
			SizeLeft:  int64(record.SizeLeft),
			Status:    record.Status,
			Protocol:  record.Protocol,
			Indexer:   record.Indexer,
			IsPrivate: record.IsPrivate,
		})
	}
	return downloads, nil
}

// RemoveDownload deletes a queue record, optionally instructing the
// download client to drop the payload too. The call is metered.
func (c *HTTPClient) RemoveDownload(ctx context.Context, queueID int64, removeFromClient bool) error {
	if err := c.reserve(ctx); err != nil {
		return err
	}
	query := url.Values{}
	query.Set("removeFromClient", strconv.FormatBool(removeFromClient))
	query.Set("blocklist", "true")
	return c.do(ctx, http.MethodDelete, "queue/"+strconv.FormatInt(queueID, 10), query, nil, nil)
}

func (c *HTTPClient) reserve(ctx context.Context) error {
	if c.gate == nil {
		return nil
	}
	return c.gate.Reserve(ctx)
}

func (c *HTTPClient) get(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, query, nil, out)
}

func (c *HTTPClient) post(ctx context.Context, path string, body any, out any) error {
	return c.do(ctx, http.MethodPost, path, nil, body, out)
}

func (c *HTTPClient) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	endpoint := c.baseURL + c.profile.apiBase + "/" + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return Wrap(ErrMalformed, c.instance, path, "encode request body", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return Wrap(ErrConnection, c.instance, path, "build request", err)
	}
	req.Header.Set(apiKeyHeader, c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.doer.Do(req)
	if err != nil {
		return Wrap(ErrConnection, c.instance, path, "request failed", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return Wrap(ErrAuth, c.instance, path, fmt.Sprintf("status %d", resp.StatusCode), nil)
	case resp.StatusCode == http.StatusNotFound:
		return Wrap(ErrNotFound, c.instance, path, "status 404", nil)
	case resp.StatusCode >= http.StatusInternalServerError:
		return Wrap(ErrConnection, c.instance, path, fmt.Sprintf("status %d", resp.StatusCode), nil)
	case resp.StatusCode >= http.StatusMultipleChoices:
		return Wrap(ErrMalformed, c.instance, path, fmt.Sprintf("unexpected status %d", resp.StatusCode), nil)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return Wrap(ErrMalformed, c.instance, path, "decode response", err)
	}
	return nil
}

func decodeItem(raw json.RawMessage) (Item, bool) {
	var record struct {
		ID              int64  `json:"id"`
		Title           string `json:"title"`
		Monitored       *bool  `json:"monitored"`
		AirDateUTC      string `json:"airDateUtc"`
		ReleaseDate     string `json:"releaseDate"`
		DigitalRelease  string `json:"digitalRelease"`
		PhysicalRelease string `json:"physicalRelease"`
	}
	if err := json.Unmarshal(raw, &record); err != nil || record.ID == 0 {
		return Item{}, false
	}

	monitored := true
	if record.Monitored != nil {
		monitored = *record.Monitored
	}

	item := Item{ID: record.ID, Title: record.Title, Monitored: monitored}
	for _, value := range []string{record.AirDateUTC, record.DigitalRelease, record.PhysicalRelease, record.ReleaseDate} {
		if value == "" {
			continue
		}
		if ts, err := time.Parse(time.RFC3339, value); err == nil {
			item.ReleaseDate = ts
			break
		}
		if ts, err := time.Parse("2006-01-02", value); err == nil {
			item.ReleaseDate = ts
			break
		}
	}
	return item, true
}
