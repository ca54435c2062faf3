package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/avast/retry-go/v4"
	"github.com/pkg/errors"

	"github.com/jingkaihe/skillchef/pkg/logger"
	"github.com/jingkaihe/skillchef/pkg/skills"
)

// StatusError is returned for non-2xx responses.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: %d %s", e.URL, e.StatusCode, http.StatusText(e.StatusCode))
}

func retryable(err error) bool {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode == http.StatusTooManyRequests || se.StatusCode >= 500
	}
	return true
}

type response struct {
	body        []byte
	contentType string
}

func (c *Client) get(ctx context.Context, hc *http.Client, rawURL string, header http.Header) (*response, error) {
	var resp *response
	err := retry.Do(
		func() error {
			r, err := c.getOnce(ctx, hc, rawURL, header)
			if err != nil {
				return err
			}
			resp = r
			return nil
		},
		retry.RetryIf(retryable),
		retry.Attempts(c.attempts),
		retry.Delay(c.backoff),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.Context(ctx),
		retry.OnRetry(func(n uint, err error) {
			logger.G(ctx).WithError(err).WithField("url", rawURL).WithField("attempt", n+1).Warn("retrying request")
		}),
	)
	if err != nil {
		return nil, &FetchError{Source: rawURL, Err: err}
	}
	return resp, nil
}

func (c *Client) getOnce(ctx context.Context, hc *http.Client, rawURL string, header http.Header) (*response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, retry.Unrecoverable(err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	res, err := hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		io.Copy(io.Discard, res.Body)
		return nil, &StatusError{URL: rawURL, StatusCode: res.StatusCode}
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read response from %s", rawURL)
	}
	return &response{body: body, contentType: res.Header.Get("Content-Type")}, nil
}

func (c *Client) fetchHTTP(ctx context.Context, source, dest string) error {
	u, err := url.Parse(source)
	if err != nil {
		return errors.Wrapf(err, "invalid URL %s", source)
	}
	name := path.Base(u.Path)
	if name == "." || name == "/" || name == "" {
		name = skills.FileName
	}

	resp, err := c.get(ctx, c.http, source, nil)
	if err != nil {
		return err
	}

	body := resp.body
	if strings.Contains(resp.contentType, "text/html") {
		body = []byte(convertHTMLToMarkdown(ctx, string(body)))
	}
	return writeFetchedFile(filepath.Join(dest, name), body)
}

// convertHTMLToMarkdown turns an HTML page served in place of a markdown
// file into markdown. Conversion failures keep the raw HTML.
func convertHTMLToMarkdown(ctx context.Context, htmlContent string) string {
	converter := md.NewConverter("", true, nil)
	markdown, err := converter.ConvertString(htmlContent)
	if err != nil {
		logger.G(ctx).WithError(err).Warn("failed to convert HTML to markdown, keeping raw HTML")
		return htmlContent
	}
	return markdown
}

func writeFetchedFile(dst string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return errors.Wrap(err, "failed to create scratch directory")
	}
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		return errors.Wrapf(err, "failed to write %s", dst)
	}
	return nil
}

var githubHeader = http.Header{"Accept": []string{"application/vnd.github.v3+json"}}

type contentItem struct {
	Type        string `json:"type"`
	Name        string `json:"name"`
	DownloadURL string `json:"download_url"`
	URL         string `json:"url"`
}

func (c *Client) contentsURL(gh GitHubSource) string {
	return fmt.Sprintf("%s/repos/%s/%s/contents/%s?ref=%s",
		c.githubAPI, gh.Owner, gh.Repo, escapePath(gh.Path), url.QueryEscape(gh.Ref))
}

func escapePath(p string) string {
	parts := strings.Split(p, "/")
	for i, part := range parts {
		parts[i] = url.PathEscape(part)
	}
	return strings.Join(parts, "/")
}

func (c *Client) fetchGitHub(ctx context.Context, source, dest string) error {
	gh, ok := ParseGitHub(source)
	if !ok {
		return errors.Wrap(ErrUnsupportedSource, "cannot parse GitHub URL")
	}
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return errors.Wrap(err, "failed to create scratch directory")
	}
	return c.downloadGitHubPath(ctx, c.contentsURL(gh), dest)
}

func (c *Client) downloadGitHubPath(ctx context.Context, apiURL, dest string) error {
	resp, err := c.get(ctx, c.github, apiURL, githubHeader)
	if err != nil {
		return err
	}

	trimmed := strings.TrimSpace(string(resp.body))
	switch {
	case strings.HasPrefix(trimmed, "{"):
		var item contentItem
		if err := json.Unmarshal(resp.body, &item); err != nil {
			return errors.Wrapf(err, "invalid JSON response from %s", apiURL)
		}
		if item.Type != "file" {
			return errors.Errorf("unexpected GitHub API response format for %s", apiURL)
		}
		if strings.TrimSpace(item.DownloadURL) == "" || strings.TrimSpace(item.Name) == "" {
			return errors.Errorf("GitHub API file response missing required fields for %s", apiURL)
		}
		return c.downloadRaw(ctx, item, dest)

	case strings.HasPrefix(trimmed, "["):
		var items []contentItem
		if err := json.Unmarshal(resp.body, &items); err != nil {
			return errors.Wrapf(err, "invalid JSON response from %s", apiURL)
		}
		for _, item := range items {
			switch item.Type {
			case "file":
				if err := c.downloadRaw(ctx, item, dest); err != nil {
					return err
				}
			case "dir":
				name, err := safeName(item.Name)
				if err != nil {
					return err
				}
				sub := filepath.Join(dest, name)
				if err := os.MkdirAll(sub, 0o755); err != nil {
					return errors.Wrap(err, "failed to create scratch directory")
				}
				if err := c.downloadGitHubPath(ctx, item.URL, sub); err != nil {
					return err
				}
			}
		}
		return nil
	}

	return errors.Errorf("unexpected GitHub API response format for %s", apiURL)
}

func (c *Client) downloadRaw(ctx context.Context, item contentItem, dest string) error {
	name, err := safeName(item.Name)
	if err != nil {
		return err
	}
	resp, err := c.get(ctx, c.github, item.DownloadURL, nil)
	if err != nil {
		return err
	}
	return writeFetchedFile(filepath.Join(dest, name), resp.body)
}

func safeName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return "", errors.Errorf("invalid file name %q in GitHub response", name)
	}
	return name, nil
}
