package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/jingkaihe/skillchef/pkg/logger"
	"github.com/jingkaihe/skillchef/pkg/store"
)

// SourceMetadata describes where source came from. GitHub sources are resolved
// to a commit SHA when the API allows it; failures only drop the SHA.
func (c *Client) SourceMetadata(ctx context.Context, source string, kind Kind) store.Source {
	switch kind {
	case KindGitHub:
		gh, ok := ParseGitHub(source)
		if !ok {
			return store.Source{}
		}
		sha := c.resolveCommit(ctx, gh)
		resolved := sha
		if resolved == "" {
			resolved = gh.Ref
		}
		return store.Source{
			Repo:         gh.Owner + "/" + gh.Repo,
			Path:         gh.Path,
			RefRequested: gh.Ref,
			RefResolved:  resolved,
			CommitSHA:    sha,
		}
	case KindHTTP:
		u, err := url.Parse(source)
		if err != nil {
			return store.Source{}
		}
		return store.Source{Path: u.Path}
	default:
		abs, err := filepath.Abs(source)
		if err != nil {
			abs = source
		}
		return store.Source{Path: abs}
	}
}

func (c *Client) resolveCommit(ctx context.Context, gh GitHubSource) string {
	apiURL := fmt.Sprintf("%s/repos/%s/%s/commits/%s", c.githubAPI, gh.Owner, gh.Repo, url.PathEscape(gh.Ref))
	log := logger.G(ctx).WithField("repo", gh.Owner+"/"+gh.Repo).WithField("ref", gh.Ref)

	resp, err := c.get(ctx, c.github, apiURL, githubHeader)
	if err != nil {
		log.WithError(err).Warn("could not resolve GitHub commit")
		return ""
	}

	var payload struct {
		SHA string `json:"sha"`
	}
	if err := json.Unmarshal(resp.body, &payload); err != nil {
		log.WithError(err).Warn("could not resolve GitHub commit")
		return ""
	}
	return strings.TrimSpace(payload.SHA)
}
