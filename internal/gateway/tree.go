package gateway

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/google/go-github/v84/github"
	"github.com/shurcooL/githubv4"

	"github.com/naka-gawa/skills-radar/internal/domain"
)

// treeQuery lists one directory of a repository through GraphQL.
type treeQuery struct {
	Repository struct {
		Object *treeObject `graphql:"object(expression: $expression)"`
	} `graphql:"repository(owner: $owner, name: $name)"`
}

// treeObject is null when the expression names nothing.
type treeObject struct {
	Typename string `graphql:"__typename"`
	Tree     struct {
		Entries []struct {
			Name string
			Path string
			Type string
		}
	} `graphql:"... on Tree"`
}

// ListDir lists the entries of a directory on a branch; dir "" is the
// repository root. Entries are sorted by name. A missing directory yields
// ErrNotFound. GraphQL is used when the gateway is authenticated, the
// contents API otherwise.
func (g *GitHubGateway) ListDir(ctx context.Context, repo, branch, dir string) ([]domain.DirEntry, error) {
	owner, name, ok := domain.SplitRepo(repo)
	if !ok {
		return nil, fmt.Errorf("invalid repository %q: %w", repo, ErrNotFound)
	}
	dir = strings.Trim(dir, "/")

	var entries []domain.DirEntry
	var err error
	if g.graphqlClient != nil {
		entries, err = g.listDirGraphQL(ctx, owner, name, branch, dir)
	} else {
		entries, err = g.listDirREST(ctx, owner, name, branch, dir)
	}
	if err != nil {
		return nil, err
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name < entries[j].Name
	})
	return entries, nil
}

func (g *GitHubGateway) listDirREST(ctx context.Context, owner, name, branch, dir string) ([]domain.DirEntry, error) {
	opts := &github.RepositoryContentGetOptions{Ref: branch}
	file, contents, _, err := g.restClient.Repositories.GetContents(ctx, owner, name, dir, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s/%s:%s: %w", owner, name, dir, g.classify(err))
	}
	if file != nil {
		return nil, fmt.Errorf("%s is a file, not a directory: %w", dir, ErrNotFound)
	}
	entries := make([]domain.DirEntry, 0, len(contents))
	for _, c := range contents {
		entries = append(entries, domain.DirEntry{
			Name: c.GetName(),
			Path: c.GetPath(),
			Dir:  c.GetType() == "dir",
		})
	}
	return entries, nil
}

func (g *GitHubGateway) listDirGraphQL(ctx context.Context, owner, name, branch, dir string) ([]domain.DirEntry, error) {
	variables := map[string]interface{}{
		"owner":      githubv4.String(owner),
		"name":       githubv4.String(name),
		"expression": githubv4.String(branch + ":" + dir),
	}
	var q treeQuery
	if err := g.graphqlClient.Query(ctx, &q, variables); err != nil {
		return nil, fmt.Errorf("failed to execute GraphQL query for tree of %s/%s: %w", owner, name, g.classifyGraphQL(err))
	}
	obj := q.Repository.Object
	if obj == nil || obj.Typename != "Tree" {
		return nil, fmt.Errorf("%s:%s is not a directory: %w", branch, dir, ErrNotFound)
	}
	entries := make([]domain.DirEntry, 0, len(obj.Tree.Entries))
	for _, e := range obj.Tree.Entries {
		p := e.Path
		if p == "" {
			p = path.Join(dir, e.Name)
		}
		entries = append(entries, domain.DirEntry{
			Name: e.Name,
			Path: p,
			Dir:  e.Type == "tree",
		})
	}
	return entries, nil
}
