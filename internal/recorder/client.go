package recorder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/naevatec/ov2-ha-recorder-sub001/internal/auth"
	"github.com/naevatec/ov2-ha-recorder-sub001/internal/log"
)

const (
	defaultClientTimeout = 5 * time.Second
	defaultDialTimeout   = 3 * time.Second
	maxErrBody           = 8 * 1024
)

// newHTTPClient returns a hardened client mirroring the controller's own
// dial/timeout defaults, scaled down for short-lived recorder requests.
func newHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = defaultClientTimeout
	}
	dialTimeout := timeout
	if dialTimeout > defaultDialTimeout {
		dialTimeout = defaultDialTimeout
	}
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			DialContext:         (&net.Dialer{Timeout: dialTimeout, KeepAlive: 30 * time.Second}).DialContext,
			ForceAttemptHTTP2:   true,
			MaxIdleConns:        16,
			MaxIdleConnsPerHost: 4,
			IdleConnTimeout:     30 * time.Second,
		},
	}
}

// ControllerClient is the recorder's REST client onto the session
// controller (§4.2/§6).
type ControllerClient struct {
	baseURL string
	creds   auth.Credentials
	http    *http.Client
	logger  zerolog.Logger
}

// NewControllerClient builds a client pointed at baseURL (e.g.
// "http://controller:8080").
func NewControllerClient(baseURL string, creds auth.Credentials, timeout time.Duration) *ControllerClient {
	return &ControllerClient{
		baseURL: baseURL,
		creds:   creds,
		http:    newHTTPClient(timeout),
		logger:  log.WithComponent("recorder-client"),
	}
}

// Register performs the fire-and-forget registration call in §4.5's Init
// phase. It does not log; it returns the error, and the coordinator logs
// it and proceeds.
func (c *ControllerClient) Register(ctx context.Context, sessionID, clientID, clientHost string) error {
	body := map[string]any{
		"sessionId":  sessionID,
		"clientId":   clientID,
		"clientHost": clientHost,
	}
	return c.doJSON(ctx, http.MethodPost, "/api/sessions", body, nil)
}

// Heartbeat sends the periodic liveness ping (§4.10), including lastChunk
// only when it changed since the previous send.
func (c *ControllerClient) Heartbeat(ctx context.Context, sessionID, lastChunk string) error {
	body := map[string]any{}
	if lastChunk != "" {
		body["lastChunk"] = lastChunk
	}
	return c.doJSON(ctx, http.MethodPut, fmt.Sprintf("/api/sessions/%s/heartbeat", sessionID), body, nil)
}

// UpdateStatus pushes a status transition.
func (c *ControllerClient) UpdateStatus(ctx context.Context, sessionID, status string) error {
	body := map[string]any{"status": status}
	return c.doJSON(ctx, http.MethodPut, fmt.Sprintf("/api/sessions/%s/status", sessionID), body, nil)
}

// UpdateRecordingPath reports the final artifact location.
func (c *ControllerClient) UpdateRecordingPath(ctx context.Context, sessionID, path string) error {
	body := map[string]any{"recordingPath": path}
	return c.doJSON(ctx, http.MethodPut, fmt.Sprintf("/api/sessions/%s/recording-path", sessionID), body, nil)
}

// Deregister issues the graceful-shutdown DELETE (§4.10), expected to
// complete within a short, caller-supplied deadline.
func (c *ControllerClient) Deregister(ctx context.Context, sessionID string) error {
	return c.doJSON(ctx, http.MethodDelete, fmt.Sprintf("/api/sessions/%s", sessionID), nil, nil)
}

func (c *ControllerClient) doJSON(ctx context.Context, method, path string, body any, out any) error {
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.SetBasicAuth(c.creds.Username, c.creds.Password)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		limited := &limitedBody{r: resp.Body, limit: maxErrBody}
		var buf bytes.Buffer
		_, _ = buf.ReadFrom(limited)
		return fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, buf.String())
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response from %s %s: %w", method, path, err)
		}
	}
	return nil
}

// limitedBody caps how much of a response body is read, protecting
// against unbounded error bodies from a misbehaving peer.
type limitedBody struct {
	r     io.Reader
	limit int
	read  int
}

func (l *limitedBody) Read(p []byte) (int, error) {
	if l.read >= l.limit {
		return 0, io.EOF
	}
	if len(p) > l.limit-l.read {
		p = p[:l.limit-l.read]
	}
	n, err := l.r.Read(p)
	l.read += n
	return n, err
}
