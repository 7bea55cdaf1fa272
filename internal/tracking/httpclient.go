package tracking

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/wonny/evlq/internal/contracts"
	"github.com/wonny/evlq/internal/fingerprint"
	"github.com/wonny/evlq/internal/payload"
	"github.com/wonny/evlq/pkg/httputil"
)

// Response is a tracked HTTP response with its body already read
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte

	// Payload is the body decoded as JSON, or the raw text when it is not JSON
	Payload payload.Value
	Record  *contracts.FetchRecord
}

// HTTPClient performs HTTP calls for one source and records each request
type HTTPClient struct {
	tracker  *Tracker
	client   *httputil.Client
	sourceID string
}

// NewHTTPClient creates a tracked client for sourceID.
// Rate limiting and retries are configured on client.
func NewHTTPClient(t *Tracker, client *httputil.Client, sourceID string) *HTTPClient {
	return &HTTPClient{tracker: t, client: client, sourceID: sourceID}
}

// Get performs a tracked GET request
func (c *HTTPClient) Get(ctx context.Context, url string) (*Response, error) {
	return c.do(ctx, url, func() (*http.Response, error) {
		return c.client.Get(ctx, url)
	})
}

// PostJSON performs a tracked POST request with a JSON body
func (c *HTTPClient) PostJSON(ctx context.Context, url string, body interface{}) (*Response, error) {
	return c.do(ctx, url, func() (*http.Response, error) {
		return c.client.PostJSON(ctx, url, body)
	})
}

// do records one FetchRecord for the request.
// Any status is recorded as returned; only 200 counts as success.
// Transport errors are recorded as status 0 and returned.
func (c *HTTPClient) do(ctx context.Context, url string, call func() (*http.Response, error)) (*Response, error) {
	start := c.tracker.now()

	resp, err := call()
	if err != nil {
		return nil, c.fail(ctx, url, start, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, c.fail(ctx, url, start, fmt.Errorf("read response body: %w", err))
	}

	finished := c.tracker.now()
	elapsedMS := float64(finished.Sub(start)) / float64(time.Millisecond)
	content := decodeBody(body)

	var rec *contracts.FetchRecord
	if resp.StatusCode == http.StatusOK {
		rec = c.tracker.successRecord(c.sourceID, url, finished, elapsedMS, resp.StatusCode, content)
	} else {
		rec = statusRecord(c.sourceID, url, finished, elapsedMS, resp.StatusCode, content)
	}
	c.tracker.finish(ctx, rec)

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
		Payload:    content,
		Record:     rec,
	}, nil
}

func (c *HTTPClient) fail(ctx context.Context, url string, start time.Time, err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}

	finished := c.tracker.now()
	elapsedMS := float64(finished.Sub(start)) / float64(time.Millisecond)
	c.tracker.finish(ctx, failureRecord(c.sourceID, url, finished, elapsedMS, 0, err.Error()))
	return err
}

// statusRecord is a non-200 response: a failure that still has a body to fingerprint
func statusRecord(sourceID, url string, at time.Time, elapsedMS float64, status int, content payload.Value) *contracts.FetchRecord {
	rec := failureRecord(sourceID, url, at, elapsedMS, status, fmt.Sprintf("unexpected status %d", status))

	fp := fingerprint.Of(content)
	rec.ContentHash = fp.ContentHash
	rec.DataSizeBytes = fp.DataSizeBytes
	rec.RowCount = fp.RowCount
	return rec
}

func decodeBody(body []byte) payload.Value {
	if v, err := payload.Decode(body); err == nil {
		return v
	}
	return payload.String(string(body))
}
