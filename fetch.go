package warmup

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	flatresult "github.com/edge-optimizer/warmup-engine/pkg/flat-result"
)

// timedResponse is the outcome of one outbound warmup fetch.
// The body has been read in full and closed.
type timedResponse struct {
	statusCode    int
	statusMessage string
	header        http.Header
	bodyBytes     int64
	// headersAt is when the response headers arrived, doneAt when the body did.
	headersAt  time.Time
	doneAt     time.Time
	redirects  int
	protocol   string
	tlsVersion string
}

func newClient(timeout time.Duration, maxRedirects int) *http.Client {
	return &http.Client{
		Transport: http.DefaultTransport.(*http.Transport).Clone(),
		Timeout:   timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) > maxRedirects {
				return fmt.Errorf("stopped after %d redirects", maxRedirects)
			}
			return nil
		},
	}
}

// fetch issues the warmup GET. The request is bound to ctx, so a caller
// going away releases the connection.
func (e *Engine) fetch(ctx context.Context, req WarmupRequest) (*timedResponse, error) {
	outReq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.TargetURL, nil)
	if err != nil {
		return nil, err
	}
	for name, value := range req.Headers {
		outReq.Header.Set(name, value)
	}

	res, err := e.client.Do(outReq)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	headersAt := e.now()

	n, err := io.Copy(io.Discard, res.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	return &timedResponse{
		statusCode:    res.StatusCode,
		statusMessage: statusText(res),
		header:        res.Header,
		bodyBytes:     n,
		headersAt:     headersAt,
		doneAt:        e.now(),
		redirects:     redirectCount(res),
		protocol:      protocolVersion(res.Proto),
		tlsVersion:    tlsVersion(res),
	}, nil
}

// statusText is the reason phrase sent by the origin, e.g. "OK" from "200 OK".
func statusText(res *http.Response) string {
	return strings.TrimSpace(strings.TrimPrefix(res.Status, strconv.Itoa(res.StatusCode)))
}

// redirectCount walks back the chain of responses that led to res.
func redirectCount(res *http.Response) int {
	n := 0
	for r := res.Request; r != nil && r.Response != nil; r = r.Response.Request {
		n++
	}
	return n
}

func protocolVersion(proto string) string {
	switch proto {
	case "HTTP/2.0":
		return "HTTP/2"
	case "HTTP/3.0":
		return "HTTP/3"
	}
	return proto
}

var tlsVersionNames = map[uint16]string{
	tls.VersionTLS10: "TLSv1.0",
	tls.VersionTLS11: "TLSv1.1",
	tls.VersionTLS12: "TLSv1.2",
	tls.VersionTLS13: "TLSv1.3",
}

// tlsVersion names the negotiated version of the final connection.
// An empty string means it could not be observed.
func tlsVersion(res *http.Response) string {
	if res.TLS != nil {
		if name, ok := tlsVersionNames[res.TLS.Version]; ok {
			return name
		}
		return fmt.Sprintf("unknown: 0x%04x", res.TLS.Version)
	}
	if res.Request != nil && res.Request.URL.Scheme != "https" {
		return flatresult.NotHTTPS
	}
	return ""
}
