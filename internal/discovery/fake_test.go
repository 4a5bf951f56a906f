package discovery

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/naka-gawa/skills-radar/internal/domain"
	"github.com/naka-gawa/skills-radar/internal/gateway"
	"github.com/naka-gawa/skills-radar/internal/logging"
)

// fakeHost is an in-memory source code host. Directory listings are derived
// from the stored file paths.
type fakeHost struct {
	mu        sync.Mutex
	files     map[string]map[string]string // "repo@branch" -> path -> content
	canonical map[string]string
	metaErr   error
	fetchErr  error
	listErr   error

	metaCalls  int
	fetchCalls []string
	listCalls  []string
}

func newFakeHost() *fakeHost {
	return &fakeHost{
		files:     make(map[string]map[string]string),
		canonical: make(map[string]string),
	}
}

func (h *fakeHost) put(repo, branch, path, content string) *fakeHost {
	key := repo + "@" + branch
	if h.files[key] == nil {
		h.files[key] = make(map[string]string)
	}
	h.files[key][path] = content
	return h
}

func skillDoc(name string) string {
	return fmt.Sprintf("---\nname: %s\ndescription: The %s skill.\n---\n# %s\n", name, name, name)
}

func (h *fakeHost) CanonicalName(_ context.Context, repo string) (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.metaCalls++
	if h.metaErr != nil {
		return "", h.metaErr
	}
	if c, ok := h.canonical[repo]; ok {
		return c, nil
	}
	return repo, nil
}

func (h *fakeHost) FetchFile(_ context.Context, repo, branch, path string) ([]byte, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.fetchCalls = append(h.fetchCalls, repo+"@"+branch+":"+path)
	if h.fetchErr != nil {
		return nil, h.fetchErr
	}
	content, ok := h.files[repo+"@"+branch][path]
	if !ok {
		return nil, gateway.ErrNotFound
	}
	return []byte(content), nil
}

func (h *fakeHost) ListDir(_ context.Context, repo, branch, dir string) ([]domain.DirEntry, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.listCalls = append(h.listCalls, repo+"@"+branch+":"+dir)
	if h.listErr != nil {
		return nil, h.listErr
	}
	tree, ok := h.files[repo+"@"+branch]
	if !ok {
		return nil, gateway.ErrNotFound
	}
	prefix := ""
	if dir != "" {
		prefix = dir + "/"
	}
	seen := make(map[string]domain.DirEntry)
	for p := range tree {
		if !strings.HasPrefix(p, prefix) {
			continue
		}
		rest := strings.TrimPrefix(p, prefix)
		name, _, nested := strings.Cut(rest, "/")
		seen[name] = domain.DirEntry{Name: name, Path: prefix + name, Dir: nested}
	}
	if len(seen) == 0 && dir != "" {
		return nil, gateway.ErrNotFound
	}
	entries := make([]domain.DirEntry, 0, len(seen))
	for _, e := range seen {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

func (h *fakeHost) listCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.listCalls)
}

func (h *fakeHost) fetchCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.fetchCalls)
}

func newTestLocator(h *fakeHost) *Locator {
	logger := logging.Discard()
	branches := []string{"main", "master"}
	resolver := NewRedirectResolver(h, logger, nil)
	index := NewIndexCache(h, h, IndexOptions{Branches: branches, Depth: 2, Concurrency: 2}, logger)
	return NewLocator(resolver, h, index, Options{Branches: branches}, logger, nil)
}
