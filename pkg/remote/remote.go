// Package remote fetches skill sources into scratch directories.
//
// Sources are local paths, direct HTTP(S) file URLs, or GitHub URLs using the
// /blob/<ref>/<path> or /tree/<ref>/<path> forms.
package remote

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/oauth2"

	"github.com/jingkaihe/skillchef/pkg/logger"
	"github.com/jingkaihe/skillchef/pkg/store"
)

// Kind is the type of a skill source.
type Kind string

const (
	KindLocal  Kind = store.RemoteLocal
	KindHTTP   Kind = store.RemoteHTTP
	KindGitHub Kind = store.RemoteGitHub
)

const (
	defaultTimeout    = 30 * time.Second
	defaultAttempts   = 3
	defaultBackoff    = 250 * time.Millisecond
	defaultGitHubAPI  = "https://api.github.com"
	fetchedSkillDir   = "skill"
	scratchDirPattern = "skillchef-"
)

var (
	githubBlobRE = regexp.MustCompile(`github\.com/(?P<owner>[^/]+)/(?P<repo>[^/]+)/blob/(?P<ref>[^/]+)/(?P<path>.+)`)
	githubTreeRE = regexp.MustCompile(`github\.com/(?P<owner>[^/]+)/(?P<repo>[^/]+)/tree/(?P<ref>[^/]+)/(?P<path>.+)`)
)

// ErrUnsupportedSource is returned when a source cannot be classified.
var ErrUnsupportedSource = errors.New("unsupported source")

// FetchError reports that remote content could not be retrieved.
type FetchError struct {
	Source string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("failed to fetch %s: %v", e.Source, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

func fetchErr(source string, err error) error {
	var fe *FetchError
	if errors.As(err, &fe) {
		return err
	}
	return &FetchError{Source: source, Err: err}
}

// Fetched is a fetched skill in a scratch directory.
type Fetched struct {
	// Dir holds the fetched files.
	Dir  string
	Kind Kind

	root string
	once sync.Once
	err  error
}

// NewFetched wraps a scratch directory that already holds a fetched skill.
// Cleanup removes dir.
func NewFetched(dir string, kind Kind) *Fetched {
	return &Fetched{Dir: dir, Kind: kind, root: dir}
}

// Cleanup removes the scratch directory. It is safe to call more than once.
func (f *Fetched) Cleanup() error {
	f.once.Do(func() {
		f.err = os.RemoveAll(f.root)
	})
	return f.err
}

// GitHubSource is a parsed GitHub skill URL.
type GitHubSource struct {
	Owner string
	Repo  string
	Ref   string
	Path  string
}

// ParseGitHub parses /blob/ and /tree/ GitHub URLs.
func ParseGitHub(source string) (GitHubSource, bool) {
	for _, re := range []*regexp.Regexp{githubBlobRE, githubTreeRE} {
		m := re.FindStringSubmatch(source)
		if m == nil {
			continue
		}
		return GitHubSource{
			Owner: m[re.SubexpIndex("owner")],
			Repo:  m[re.SubexpIndex("repo")],
			Ref:   m[re.SubexpIndex("ref")],
			Path:  strings.TrimSuffix(m[re.SubexpIndex("path")], "/"),
		}, true
	}
	return GitHubSource{}, false
}

// Classify returns the kind of source. Existing local paths win over URLs.
func Classify(source string) (Kind, error) {
	if _, err := os.Stat(source); err == nil {
		return KindLocal, nil
	}

	u, err := url.Parse(source)
	if err != nil {
		return "", errors.Wrapf(ErrUnsupportedSource, "cannot classify source %s", source)
	}

	if strings.Contains(u.Hostname(), "github.com") {
		if _, ok := ParseGitHub(source); !ok {
			return "", errors.Wrap(ErrUnsupportedSource, "GitHub source must use /blob/.../SKILL.md or /tree/.../<skill-dir>")
		}
		return KindGitHub, nil
	}

	if u.Scheme == "http" || u.Scheme == "https" {
		if strings.HasSuffix(u.Path, "/") || path.Base(u.Path) == "." || path.Base(u.Path) == "/" {
			return "", errors.Wrap(ErrUnsupportedSource, "HTTP source must be a direct file URL")
		}
		return KindHTTP, nil
	}

	return "", errors.Wrapf(ErrUnsupportedSource, "cannot classify source %s", source)
}

// Client fetches skill sources.
type Client struct {
	http      *http.Client
	github    *http.Client
	githubAPI string
	attempts  uint
	backoff   time.Duration
	tempDir   string
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient sets the client used for plain HTTP sources and, unless a
// token is configured, for GitHub.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.http = c
		cl.github = c
	}
}

// WithGitHubToken authenticates GitHub API requests.
func WithGitHubToken(ctx context.Context, token string) Option {
	return func(cl *Client) {
		if token == "" {
			return
		}
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		ctx = context.WithValue(ctx, oauth2.HTTPClient, cl.http)
		gh := oauth2.NewClient(ctx, ts)
		gh.Timeout = cl.http.Timeout
		cl.github = gh
	}
}

// WithGitHubAPI overrides the GitHub API base URL.
func WithGitHubAPI(base string) Option {
	return func(cl *Client) {
		cl.githubAPI = strings.TrimSuffix(base, "/")
	}
}

// WithRetry sets the number of attempts and the initial backoff of requests.
func WithRetry(attempts uint, backoff time.Duration) Option {
	return func(cl *Client) {
		cl.attempts = attempts
		cl.backoff = backoff
	}
}

// WithTempDir sets where scratch directories are created.
func WithTempDir(dir string) Option {
	return func(cl *Client) {
		cl.tempDir = dir
	}
}

// NewClient creates a Client. Options are applied in order.
func NewClient(opts ...Option) *Client {
	hc := &http.Client{Timeout: defaultTimeout}
	c := &Client{
		http:      hc,
		github:    hc,
		githubAPI: defaultGitHubAPI,
		attempts:  defaultAttempts,
		backoff:   defaultBackoff,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// TokenFromEnv returns GITHUB_TOKEN or GH_TOKEN.
func TokenFromEnv() string {
	if t := os.Getenv("GITHUB_TOKEN"); t != "" {
		return t
	}
	return os.Getenv("GH_TOKEN")
}

// Fetch downloads source into a new scratch directory. The caller must call
// Cleanup on the result. Transport failures are returned as *FetchError.
func (c *Client) Fetch(ctx context.Context, source string) (*Fetched, error) {
	kind, err := Classify(source)
	if err != nil {
		return nil, err
	}

	root, err := os.MkdirTemp(c.tempDir, scratchDirPattern)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create scratch directory")
	}
	fetched := &Fetched{
		Dir:  filepath.Join(root, fetchedSkillDir),
		Kind: kind,
		root: root,
	}

	log := logger.G(ctx).WithField("source", source).WithField("kind", kind)
	log.Debug("fetching skill")

	switch kind {
	case KindLocal:
		err = fetchLocal(source, fetched.Dir)
	case KindGitHub:
		err = c.fetchGitHub(ctx, source, fetched.Dir)
	default:
		err = c.fetchHTTP(ctx, source, fetched.Dir)
	}
	if err != nil {
		fetched.Cleanup()
		return nil, fetchErr(source, err)
	}

	log.WithField("dir", fetched.Dir).Debug("fetched skill")
	return fetched, nil
}
