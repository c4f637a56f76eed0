// Package figshare provides an OAuth1-signed client for the figshare v1 API
// that creates a draft article, attaches a file, links and tags, and reads the
// article back.
//
// An Uploader is a small state machine. CreateArticle moves it from StateNew
// to StateCreated; every other operation needs the article id obtained there
// and returns ErrNoArticle without touching the network if it is missing.
package figshare

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/dghubble/oauth1"
	"github.com/sirupsen/logrus"

	"github.com/tomasbasham/figshare/internal/credentials"
)

// DefaultBaseURL is the figshare v1 API root.
const DefaultBaseURL = "http://api.figshare.com/v1"

// Uploader performs the article workflow for one draft article. It is not
// safe for concurrent use.
type Uploader struct {
	client  *http.Client
	base    *http.Client
	baseURL string
	logger  logrus.FieldLogger
	quiet   bool

	state     State
	articleID int64
}

// Option configures an Uploader.
type Option func(*Uploader)

// WithBaseURL sets a custom API root (for testing).
func WithBaseURL(url string) Option {
	return func(u *Uploader) {
		u.baseURL = strings.TrimRight(url, "/")
	}
}

// WithHTTPClient sets the client whose transport carries the signed requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(u *Uploader) {
		u.base = hc
	}
}

// WithLogger sets the logger used for per-response diagnostics.
func WithLogger(l logrus.FieldLogger) Option {
	return func(u *Uploader) {
		u.logger = l
	}
}

// WithQuiet suppresses per-response diagnostics.
func WithQuiet(quiet bool) Option {
	return func(u *Uploader) {
		u.quiet = quiet
	}
}

// New creates an Uploader that signs every request with creds.
func New(creds *credentials.Credentials, opts ...Option) (*Uploader, error) {
	if creds == nil {
		return nil, fmt.Errorf("figshare: credentials are required")
	}
	if err := creds.Validate(); err != nil {
		return nil, err
	}

	u := &Uploader{
		base:    &http.Client{},
		baseURL: DefaultBaseURL,
		logger:  logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(u)
	}

	config := oauth1.NewConfig(creds.ClientKey, creds.ClientSecret)
	token := oauth1.NewToken(creds.TokenKey, creds.TokenSecret)

	// The oauth1 transport wraps whatever transport the base client carries.
	ctx := context.WithValue(context.Background(), oauth1.HTTPClient, u.base)
	u.client = config.Client(ctx, token)

	return u, nil
}

// NewFromFile loads credentials from path and creates an Uploader.
func NewFromFile(path string, opts ...Option) (*Uploader, error) {
	creds, err := credentials.Load(path)
	if err != nil {
		return nil, err
	}
	return New(creds, opts...)
}

// State reports whether an article has been created.
func (u *Uploader) State() State {
	return u.state
}

// ArticleID returns the id stored by the last CreateArticle call.
func (u *Uploader) ArticleID() (int64, bool) {
	return u.articleID, u.state == StateCreated
}

// CreateArticle creates a new draft article and stores its id. The draft is
// not listed in the figshare dashboard until a file has been uploaded.
func (u *Uploader) CreateArticle(ctx context.Context, title, description, definedType string) (*Response, error) {
	body, err := json.Marshal(map[string]string{
		"title":        title,
		"description":  description,
		"defined_type": definedType,
	})
	if err != nil {
		return nil, err
	}

	resp, err := u.do(ctx, opCreateArticle, http.MethodPost, "/my_data/articles", bytes.NewReader(body), "application/json")
	if err != nil {
		return nil, err
	}

	id, err := articleIDFrom(resp.Body)
	if err != nil {
		return resp, err
	}

	u.articleID = id
	u.state = StateCreated
	u.log(resp)

	return resp, nil
}

// UploadFileName returns the name under which UploadFile stores a file for
// an article with the given title.
func UploadFileName(title string) string {
	return strings.ReplaceAll(title, " ", "_") + ".txt"
}

// UploadContent returns the text UploadFile stores for title and description.
func UploadContent(title, description string) string {
	return title + "\n" + description
}

// UploadFile attaches a small text file built from title and description to
// the current article.
func (u *Uploader) UploadFile(ctx context.Context, title, description string) (*Response, error) {
	id, err := u.requireArticle()
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("filedata", UploadFileName(title))
	if err != nil {
		return nil, fmt.Errorf("figshare: building upload: %w", err)
	}
	if _, err := io.WriteString(part, UploadContent(title, description)); err != nil {
		return nil, fmt.Errorf("figshare: building upload: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("figshare: building upload: %w", err)
	}

	resp, err := u.do(ctx, opUploadFile, http.MethodPut, articlePath(id, "files"), &buf, mw.FormDataContentType())
	if err != nil {
		return nil, err
	}
	u.log(resp)

	return resp, nil
}

// AddLinks attaches each link with its own request. It stops at the first
// failure; links added before it stay attached.
func (u *Uploader) AddLinks(ctx context.Context, links []string) ([]*Response, error) {
	return u.putEach(ctx, opAddLink, "links", "link", links)
}

// AddTags attaches each tag with its own request. It stops at the first
// failure; tags added before it stay attached.
func (u *Uploader) AddTags(ctx context.Context, tags []string) ([]*Response, error) {
	return u.putEach(ctx, opAddTag, "tags", "tag_name", tags)
}

// ArticleInfo fetches the full article representation. An id of zero means
// the article created by this Uploader.
func (u *Uploader) ArticleInfo(ctx context.Context, id int64) (*Response, error) {
	if id == 0 {
		stored, err := u.requireArticle()
		if err != nil {
			return nil, err
		}
		id = stored
	}

	resp, err := u.do(ctx, opArticleInfo, http.MethodGet, articlePath(id, ""), nil, "")
	if err != nil {
		return nil, err
	}
	u.log(resp)

	return resp, nil
}

func (u *Uploader) putEach(ctx context.Context, op, collection, field string, values []string) ([]*Response, error) {
	id, err := u.requireArticle()
	if err != nil {
		return nil, err
	}

	responses := make([]*Response, 0, len(values))
	for _, value := range values {
		body, err := json.Marshal(map[string]string{field: value})
		if err != nil {
			return responses, err
		}

		resp, err := u.do(ctx, op, http.MethodPut, articlePath(id, collection), bytes.NewReader(body), "application/json")
		if err != nil {
			return responses, fmt.Errorf("%s %q: %w", op, value, err)
		}
		u.log(resp)
		responses = append(responses, resp)
	}

	return responses, nil
}

func (u *Uploader) requireArticle() (int64, error) {
	if u.state != StateCreated {
		return 0, ErrNoArticle
	}
	return u.articleID, nil
}

// do sends one signed request and decodes the JSON object it returns.
func (u *Uploader) do(ctx context.Context, op, method, path string, body io.Reader, contentType string) (*Response, error) {
	url := u.baseURL + path

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := u.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", ErrNetwork, err)
	}

	if resp.StatusCode >= 400 {
		return nil, &APIError{
			Operation:  op,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(raw)),
		}
	}

	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidResponse, op, err)
	}
	if decoded == nil {
		return nil, fmt.Errorf("%w: %s: body is not a JSON object", ErrInvalidResponse, op)
	}

	return &Response{
		Operation:  op,
		Method:     method,
		URL:        url,
		StatusCode: resp.StatusCode,
		Body:       decoded,
	}, nil
}

func (u *Uploader) log(resp *Response) {
	if u.quiet {
		return
	}
	entry := u.logger.WithFields(logrus.Fields{
		"operation": resp.Operation,
		"status":    resp.StatusCode,
	})
	if u.state == StateCreated {
		entry = entry.WithField("article_id", u.articleID)
	}
	entry.Info("figshare response")
	entry.WithField("body", resp.Body).Debug("figshare response body")
}

func articlePath(id int64, collection string) string {
	if collection == "" {
		return fmt.Sprintf("/my_data/articles/%d", id)
	}
	return fmt.Sprintf("/my_data/articles/%d/%s", id, collection)
}

// articleIDFrom extracts "article_id" from a create response. figshare sends
// it as a number; a numeric string is accepted too.
func articleIDFrom(body map[string]any) (int64, error) {
	v, ok := body["article_id"]
	if !ok || v == nil {
		return 0, fmt.Errorf("%w: article_id", ErrMissingField)
	}

	switch id := v.(type) {
	case float64:
		// float64(math.MaxInt64) rounds up to 2^63, which int64 cannot hold.
		if id <= 0 || id != math.Trunc(id) || id >= math.MaxInt64 {
			return 0, fmt.Errorf("%w: article_id %v is not a positive integer", ErrInvalidResponse, id)
		}
		return int64(id), nil
	case string:
		n, err := strconv.ParseInt(id, 10, 64)
		if err != nil || n <= 0 {
			return 0, fmt.Errorf("%w: article_id %q is not a positive integer", ErrInvalidResponse, id)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("%w: article_id has type %T", ErrInvalidResponse, v)
	}
}
