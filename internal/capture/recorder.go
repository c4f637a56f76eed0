// Package capture records the HTTP exchanges of an API session as a HAR
// (HTTP Archive) document. The Recorder sits underneath the OAuth1 signing
// transport, so every entry shows the request exactly as it went on the wire.
// Credentials in the Authorization header are redacted.
package capture

import (
	"bytes"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/chromedp/cdproto/har"
)

// exchange holds one request and, unless the round trip failed, its response.
type exchange struct {
	startedAt time.Time
	elapsed   time.Duration

	method      string
	url         string
	proto       string
	reqHeader   http.Header
	reqBody     []byte
	contentType string

	status     int
	statusText string
	respProto  string
	respHeader http.Header
	respBody   []byte

	err error
}

// Recorder is an http.RoundTripper that keeps a copy of every exchange it
// forwards. It is safe for concurrent use.
type Recorder struct {
	base http.RoundTripper
	now  func() time.Time

	mu        sync.Mutex
	exchanges []exchange
}

// NewRecorder wraps base, which defaults to http.DefaultTransport.
func NewRecorder(base http.RoundTripper) *Recorder {
	if base == nil {
		base = http.DefaultTransport
	}
	return &Recorder{base: base, now: time.Now}
}

// Client returns an http.Client that sends through the Recorder.
func (r *Recorder) Client() *http.Client {
	return &http.Client{Transport: r}
}

// RoundTrip implements http.RoundTripper.
func (r *Recorder) RoundTrip(req *http.Request) (*http.Response, error) {
	ex := exchange{
		method:      req.Method,
		url:         req.URL.String(),
		proto:       req.Proto,
		reqHeader:   req.Header.Clone(),
		contentType: req.Header.Get("Content-Type"),
	}

	if req.Body != nil && req.Body != http.NoBody {
		body, err := io.ReadAll(req.Body)
		req.Body.Close()
		if err != nil {
			return nil, err
		}
		ex.reqBody = body

		// A RoundTripper must not modify the caller's request.
		req = req.Clone(req.Context())
		req.Body = io.NopCloser(bytes.NewReader(body))
		req.GetBody = func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(body)), nil
		}
	}

	ex.startedAt = r.now()
	resp, err := r.base.RoundTrip(req)
	ex.elapsed = r.now().Sub(ex.startedAt)

	if err != nil {
		ex.err = err
		r.add(ex)
		return nil, err
	}

	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		ex.err = err
		r.add(ex)
		return nil, err
	}
	resp.Body = io.NopCloser(bytes.NewReader(body))

	ex.status = resp.StatusCode
	ex.statusText = http.StatusText(resp.StatusCode)
	ex.respProto = resp.Proto
	ex.respHeader = resp.Header.Clone()
	ex.respBody = body

	r.add(ex)
	return resp, nil
}

func (r *Recorder) add(ex exchange) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.exchanges = append(r.exchanges, ex)
}

// Len reports how many exchanges have been recorded.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.exchanges)
}

// HAR assembles the recorded exchanges, in the order they completed.
func (r *Recorder) HAR() har.HAR {
	r.mu.Lock()
	exchanges := make([]exchange, len(r.exchanges))
	copy(exchanges, r.exchanges)
	r.mu.Unlock()

	return assembleHAR(exchanges)
}
