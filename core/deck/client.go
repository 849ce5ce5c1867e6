package deck

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"
)

// maxErrorBody bounds how much of an error response body is kept around
// for diagnostics.
const maxErrorBody = 512

// Client defines the interface for fetching the remote board hierarchy.
type Client interface {
	// Snapshot fetches the full board hierarchy: the boards listing plus
	// the stacks (with embedded cards) of every live board.
	Snapshot(ctx context.Context) (*Snapshot, error)
	// Attachments fetches the attachment list of a single card.
	Attachments(ctx context.Context, boardID, stackID, cardID int64) ([]AttachmentData, error)
}

// NewClient creates a Deck API client based on the configuration.
func NewClient(cfg Config) Client {
	timeout := cfg.TimeoutSeconds
	if timeout <= 0 {
		timeout = 30
	}
	timeoutDuration := time.Duration(timeout) * time.Second

	// Strict transport timeouts so a stuck server never blocks a poll
	// cycle beyond the configured budget.
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   timeoutDuration,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   timeoutDuration,
		ExpectContinueTimeout: 1 * time.Second,
		ResponseHeaderTimeout: timeoutDuration,
	}

	return &httpClient{
		base:     cfg.BaseURL(),
		username: cfg.Username,
		password: cfg.Password,
		http: &http.Client{
			Transport: transport,
			Timeout:   timeoutDuration,
		},
	}
}

type httpClient struct {
	base     string
	username string
	password string
	http     *http.Client
	sf       singleflight.Group
}

// Snapshot fetches boards?details=1 and then the stacks of every board not
// marked deleted. Concurrent callers (poll tick plus a forced refresh) are
// coalesced into a single round of requests.
func (c *httpClient) Snapshot(ctx context.Context) (*Snapshot, error) {
	result, err, _ := c.sf.Do("snapshot", func() (any, error) {
		var boards []BoardData
		if err := c.get(ctx, "boards?details=1", &boards); err != nil {
			return nil, err
		}

		for i := range boards {
			if boards[i].DeletedAt != 0 {
				continue
			}
			binding := fmt.Sprintf("boards/%d/stacks", boards[i].ID)
			if err := c.get(ctx, binding, &boards[i].Stacks); err != nil {
				return nil, err
			}
		}

		return &Snapshot{Boards: boards}, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*Snapshot), nil
}

func (c *httpClient) Attachments(ctx context.Context, boardID, stackID, cardID int64) ([]AttachmentData, error) {
	binding := fmt.Sprintf("boards/%d/stacks/%d/cards/%d/attachments", boardID, stackID, cardID)
	var attachments []AttachmentData
	if err := c.get(ctx, binding, &attachments); err != nil {
		return nil, err
	}
	return attachments, nil
}

// get issues an authenticated GET against the API and decodes the JSON body
// into out. Failures are classified into RequestError reasons.
func (c *httpClient) get(ctx context.Context, binding string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+binding, nil)
	if err != nil {
		return &RequestError{Reason: ReasonResponse, Body: err.Error()}
	}
	req.SetBasicAuth(c.username, c.password)
	req.Header.Set("OCS-APIRequest", "true")
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		var ue *url.Error
		if errors.As(err, &ue) && ue.Timeout() {
			return &RequestError{Reason: ReasonTimeout, Body: err.Error()}
		}
		return &RequestError{Reason: ReasonConnection, Body: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &RequestError{Reason: ReasonResponse, Status: resp.StatusCode, Body: readErrorBody(resp.Body)}
	}

	// A non-JSON content type usually means the request got redirected to
	// an error or login page.
	if !strings.Contains(resp.Header.Get("Content-Type"), "application/json") {
		return &RequestError{Reason: ReasonResponse, Status: resp.StatusCode, Body: "unexpected content type " + resp.Header.Get("Content-Type")}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &RequestError{Reason: ReasonResponse, Status: resp.StatusCode, Body: "invalid json: " + err.Error()}
	}

	return nil
}

func readErrorBody(r io.Reader) string {
	body, err := io.ReadAll(io.LimitReader(r, maxErrorBody))
	if err != nil {
		return ""
	}
	return string(body)
}
