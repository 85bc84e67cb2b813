// Package gateway provides the HTTP client for the remote finance API.
// Every call is a single attempt; failures come back as *AppError.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	apperrors "pfa/internal/errors"
)

// maxErrorBody caps how much of an error response is read.
const maxErrorBody = 1 << 20

// Session is what the client needs from the signed-in session.
type Session interface {
	TokenHolder
	UserID() (int64, error)
}

// Client communicates with the remote finance API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	session    Session
}

// New creates a client with its own http.Client using timeout.
func New(baseURL string, session Session, timeout time.Duration) *Client {
	return NewWithHTTPClient(baseURL, session, &http.Client{Timeout: timeout})
}

// NewWithHTTPClient creates a client on top of httpClient. The client's
// transport is wrapped so that authorization is handled in one place.
func NewWithHTTPClient(baseURL string, session Session, httpClient *http.Client) *Client {
	base := httpClient.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	hc := *httpClient
	hc.Transport = &authTransport{base: base, tokens: session}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &hc,
		session:    session,
	}
}

func (c *Client) userID() (int64, error) {
	return c.session.UserID()
}

// newRequest builds a request for path with an optional query and body.
func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body io.Reader, contentType string) (*http.Request, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternal, fmt.Errorf("creating request: %w", err))
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// doJSON sends in (if non-nil) as a JSON body and decodes the response into
// out (if non-nil).
func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, in, out any) error {
	var body io.Reader
	contentType := ""
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return apperrors.Wrap(apperrors.ErrInternal, fmt.Errorf("marshaling request: %w", err))
		}
		body = bytes.NewReader(data)
		contentType = "application/json"
	}
	req, err := c.newRequest(ctx, method, path, query, body, contentType)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrTransport, fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err))
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return responseError(resp, isPublic(req))
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperrors.Wrap(apperrors.ErrBadResponse, fmt.Errorf("decoding %s %s response: %w", req.Method, req.URL.Path, err))
	}
	return nil
}

// errorBody covers the error shapes the API produces: FastAPI's
// {"detail": "..."} and {"detail": [{"loc": [...], "msg": "..."}]}, and the
// {"error": {"message": "..."}} envelope.
type errorBody struct {
	Detail json.RawMessage `json:"detail"`
	Error  *struct {
		Message string `json:"message"`
	} `json:"error"`
	Message string `json:"message"`
}

type validationIssue struct {
	Loc []any  `json:"loc"`
	Msg string `json:"msg"`
}

// responseError maps a non-2xx response to an AppError. A 401 on a
// credentialed request is reported as an expired session; the transport has
// already cleared the token by then.
func responseError(resp *http.Response, public bool) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	msg, fields := extractMessage(raw)
	status := resp.StatusCode

	var appErr *apperrors.AppError
	switch {
	case status == http.StatusUnauthorized && !public:
		appErr = apperrors.WithStatus(apperrors.ErrUnauthorized, status, apperrors.ErrUnauthorized.Message)
	case status == http.StatusNotFound:
		appErr = apperrors.WithStatus(apperrors.ErrNotFound, status, orDefault(msg, apperrors.ErrNotFound.Message))
	case status >= 500:
		appErr = apperrors.WithStatus(apperrors.ErrServer, status, orDefault(msg, apperrors.ErrServer.Message))
	default:
		appErr = apperrors.WithStatus(apperrors.ErrRequest, status, orDefault(msg, apperrors.ErrRequest.Message))
	}
	appErr.Fields = fields
	appErr.Internal = fmt.Errorf("%s %s: status %d", resp.Request.Method, resp.Request.URL.Path, status)
	return appErr
}

func extractMessage(raw []byte) (string, apperrors.FieldErrors) {
	var body errorBody
	if len(raw) == 0 || json.Unmarshal(raw, &body) != nil {
		return "", nil
	}

	if len(body.Detail) > 0 {
		var text string
		if err := json.Unmarshal(body.Detail, &text); err == nil {
			return text, nil
		}
		var issues []validationIssue
		if err := json.Unmarshal(body.Detail, &issues); err == nil && len(issues) > 0 {
			return joinIssues(issues)
		}
	}
	if body.Error != nil && body.Error.Message != "" {
		return body.Error.Message, nil
	}
	return body.Message, nil
}

func joinIssues(issues []validationIssue) (string, apperrors.FieldErrors) {
	fields := apperrors.FieldErrors{}
	parts := make([]string, 0, len(issues))
	for _, issue := range issues {
		name := ""
		if n := len(issue.Loc); n > 0 {
			name = fmt.Sprint(issue.Loc[n-1])
		}
		if name != "" {
			fields[name] = issue.Msg
			parts = append(parts, name+": "+issue.Msg)
		} else {
			parts = append(parts, issue.Msg)
		}
	}
	if len(fields) == 0 {
		fields = nil
	}
	return strings.Join(parts, "; "), fields
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

// IsCanceled reports whether err came from a canceled or expired context.
func IsCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
