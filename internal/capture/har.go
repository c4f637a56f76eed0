package capture

import (
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/chromedp/cdproto/har"
)

const redacted = "[REDACTED]"

// sensitiveHeaders never appear in a HAR with their real value.
var sensitiveHeaders = map[string]bool{
	"Authorization": true,
	"Cookie":        true,
	"Set-Cookie":    true,
}

// assembleHAR constructs a har.HAR from recorded exchanges.
func assembleHAR(exchanges []exchange) har.HAR {
	h := har.HAR{
		Log: &har.Log{
			Version: "1.2",
			Creator: &har.Creator{
				Name:    "figshare",
				Version: "0.1.0",
			},
			Pages:   []*har.Page{},
			Entries: make([]*har.Entry, 0, len(exchanges)),
		},
	}

	for _, ex := range exchanges {
		entry := buildEntry(ex)
		h.Log.Entries = append(h.Log.Entries, &entry)
	}

	return h
}

func buildEntry(ex exchange) har.Entry {
	entry := har.Entry{
		StartedDateTime: ex.startedAt.Format(time.RFC3339Nano),
		Time:            milliseconds(ex.elapsed),
		Request: &har.Request{
			Method:      ex.method,
			URL:         ex.url,
			HTTPVersion: ex.proto,
			Headers:     headersToHAR(ex.reqHeader),
			QueryString: queryToHAR(ex.url),
			Cookies:     []*har.Cookie{},
			HeadersSize: -1,
			BodySize:    int64(len(ex.reqBody)),
		},
		Response: &har.Response{
			Status:      int64(ex.status),
			StatusText:  ex.statusText,
			HTTPVersion: ex.respProto,
			Headers:     headersToHAR(ex.respHeader),
			Cookies:     []*har.Cookie{},
			Content: &har.Content{
				Size:     int64(len(ex.respBody)),
				MimeType: ex.respHeader.Get("Content-Type"),
				Text:     string(ex.respBody),
			},
			RedirectURL: ex.respHeader.Get("Location"),
			HeadersSize: -1,
			BodySize:    int64(len(ex.respBody)),
		},
		Cache: &har.Cache{},
		// Only the total round trip is observable from a RoundTripper; it is
		// attributed to wait.
		Timings: &har.Timings{
			Blocked: -1,
			DNS:     -1,
			Connect: -1,
			Ssl:     -1,
			Send:    0,
			Wait:    milliseconds(ex.elapsed),
			Receive: 0,
		},
	}

	if ex.reqBody != nil {
		entry.Request.PostData = &har.PostData{
			MimeType: ex.contentType,
			Text:     string(ex.reqBody),
		}
	}

	if ex.err != nil {
		entry.Response.BodySize = -1
		entry.Comment = ex.err.Error()
	}

	return entry
}

func milliseconds(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

// headersToHAR flattens headers into name/value pairs sorted by name, with
// credentials replaced.
func headersToHAR(headers http.Header) []*har.NameValuePair {
	names := make([]string, 0, len(headers))
	for name := range headers {
		names = append(names, name)
	}
	sort.Strings(names)

	pairs := make([]*har.NameValuePair, 0, len(headers))
	for _, name := range names {
		for _, value := range headers[name] {
			if sensitiveHeaders[http.CanonicalHeaderKey(name)] {
				value = redacted
			}
			pairs = append(pairs, &har.NameValuePair{Name: name, Value: value})
		}
	}
	return pairs
}

func queryToHAR(rawURL string) []*har.NameValuePair {
	pairs := []*har.NameValuePair{}

	u, err := url.Parse(rawURL)
	if err != nil {
		return pairs
	}

	query := u.Query()
	names := make([]string, 0, len(query))
	for name := range query {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		for _, value := range query[name] {
			pairs = append(pairs, &har.NameValuePair{Name: name, Value: value})
		}
	}
	return pairs
}
