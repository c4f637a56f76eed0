package figshare

// State is the lifecycle position of an Uploader.
type State int

const (
	// StateNew is the state before an article has been created. Only
	// CreateArticle, and ArticleInfo with an explicit id, are allowed.
	StateNew State = iota

	// StateCreated is reached once figshare has allocated an article id.
	StateCreated
)

func (s State) String() string {
	switch s {
	case StateNew:
		return "new"
	case StateCreated:
		return "created"
	default:
		return "unknown"
	}
}

// DefaultDefinedType is used when an Article does not name one.
const DefaultDefinedType = "dataset"

// Article describes everything Publish sends to figshare for one draft.
type Article struct {
	Title       string   `json:"title" yaml:"title" mapstructure:"title"`
	Description string   `json:"description" yaml:"description" mapstructure:"description"`
	DefinedType string   `json:"defined_type" yaml:"defined_type" mapstructure:"defined_type"`
	Links       []string `json:"links,omitempty" yaml:"links,omitempty" mapstructure:"links"`
	Tags        []string `json:"tags,omitempty" yaml:"tags,omitempty" mapstructure:"tags"`
}

// Response is the outcome of a single API call.
type Response struct {
	// Operation names the Uploader method that issued the request, e.g.
	// "create_article" or "add_tag".
	Operation  string         `json:"operation" yaml:"operation"`
	Method     string         `json:"method" yaml:"method"`
	URL        string         `json:"url" yaml:"url"`
	StatusCode int            `json:"status_code" yaml:"status_code"`
	Body       map[string]any `json:"body" yaml:"body"`
}

// Report collects every response of a Publish run. On failure it holds the
// responses gathered before the failing call, plus the failing call's own
// response when its body decoded. That only happens for a create response
// without a usable article id; HTTP error statuses and transport failures
// leave nothing to record.
type Report struct {
	ArticleID int64          `json:"article_id" yaml:"article_id"`
	Responses []*Response    `json:"responses" yaml:"responses"`
	Article   map[string]any `json:"article,omitempty" yaml:"article,omitempty"`
}

const (
	opCreateArticle = "create_article"
	opUploadFile    = "upload_file"
	opAddLink       = "add_link"
	opAddTag        = "add_tag"
	opArticleInfo   = "article_info"
)
