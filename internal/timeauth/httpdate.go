package timeauth

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// HTTPDateAuthority reads the RFC 7231 Date header of an HTTPS HEAD
// response. Any well-run web server stamps its responses with its own clock,
// so the status code is irrelevant; only the header matters.
type HTTPDateAuthority struct {
	Host       string
	HTTPClient HTTPDoer
}

// NewHTTPDateAuthority creates an authority querying https://host.
func NewHTTPDateAuthority(host string, client HTTPDoer) *HTTPDateAuthority {
	return &HTTPDateAuthority{Host: host, HTTPClient: client}
}

func (h *HTTPDateAuthority) Name() string {
	return h.Host
}

func (h *HTTPDateAuthority) Now(ctx context.Context) (time.Time, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, "https://"+h.Host, nil)
	if err != nil {
		return time.Time{}, err
	}

	resp, err := h.HTTPClient.Do(req)
	if err != nil {
		return time.Time{}, err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	date := resp.Header.Get("Date")
	if date == "" {
		return time.Time{}, fmt.Errorf("%s: %w", h.Host, ErrNoTimestamp)
	}

	t, err := http.ParseTime(date)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s: invalid Date header %q: %w", h.Host, date, err)
	}

	return t.UTC(), nil
}
