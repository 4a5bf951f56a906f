// Package store persists crawler state on the local filesystem: catalog
// snapshots, the feed baseline, sync progress and the skill document cache.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/naka-gawa/skills-radar/internal/domain"
	"github.com/naka-gawa/skills-radar/internal/frontmatter"
)

// File names inside the data directory.
const (
	SkillsFile      = "skills.json"
	FeedFile        = "feed.json"
	FeedXMLFile     = "feed.xml"
	ProgressFile    = "sync_progress.json"
	DocumentsDir    = "skills-md"
	DocumentFile    = "SKILL.md"
	DescriptionFile = "description_en.txt"

	SkillsIndexFile   = "skills_index.json"
	FirstSeenFile     = "skills_first_seen.json"
	CategoryIndexFile = "skills_category_index.json"
	// ManualSkillsFile lists hand-curated skills that are merged into the index.
	ManualSkillsFile = "manual_skills.json"
)

// ErrInvalidRef is returned for refs that cannot be mapped to a safe cache path.
var ErrInvalidRef = errors.New("invalid skill reference")

// Store reads and writes files below one data directory.
type Store struct {
	dir string
}

// New opens the data directory, creating it when needed.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the data directory.
func (s *Store) Dir() string {
	return s.dir
}

// DocumentDir returns data/skills-md/<owner>/<repo>/<skillId> for ref.
func (s *Store) DocumentDir(ref domain.SkillRef) (string, error) {
	owner, repo, ok := domain.SplitRepo(ref.Source)
	if !ok {
		return "", fmt.Errorf("%w: source %q", ErrInvalidRef, ref.Source)
	}
	for _, seg := range []string{owner, repo, ref.SkillID} {
		if !safeSegment(seg) {
			return "", fmt.Errorf("%w: %q", ErrInvalidRef, ref.Key())
		}
	}
	return filepath.Join(s.dir, DocumentsDir, owner, repo, ref.SkillID), nil
}

// HasDocument reports whether the document of ref is cached.
func (s *Store) HasDocument(ref domain.SkillRef) bool {
	dir, err := s.DocumentDir(ref)
	if err != nil {
		return false
	}
	_, err = os.Stat(filepath.Join(dir, DocumentFile))
	return err == nil
}

// WriteDocument caches the document of ref and its extracted description.
// An empty description removes any previously cached one. Writing the same
// content twice is harmless.
func (s *Store) WriteDocument(ref domain.SkillRef, content []byte, description string) error {
	dir, err := s.DocumentDir(ref)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create document directory: %w", err)
	}
	if err := writeAtomic(filepath.Join(dir, DocumentFile), content); err != nil {
		return err
	}
	descPath := filepath.Join(dir, DescriptionFile)
	if description == "" {
		if err := os.Remove(descPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to remove stale description: %w", err)
		}
		return nil
	}
	return writeAtomic(descPath, []byte(description+"\n"))
}

// ReadDocument returns the cached document of ref.
func (s *Store) ReadDocument(ref domain.SkillRef) ([]byte, error) {
	dir, err := s.DocumentDir(ref)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(filepath.Join(dir, DocumentFile))
}

// Description returns the cached one-line description of ref. It prefers
// description_en.txt and falls back to extracting it from the document.
func (s *Store) Description(ref domain.SkillRef) (string, bool) {
	dir, err := s.DocumentDir(ref)
	if err != nil {
		return "", false
	}
	if b, err := os.ReadFile(filepath.Join(dir, DescriptionFile)); err == nil {
		if d := strings.TrimSpace(string(b)); d != "" {
			return d, true
		}
	}
	content, err := os.ReadFile(filepath.Join(dir, DocumentFile))
	if err != nil {
		return "", false
	}
	d := frontmatter.Description(content)
	return d, d != ""
}

// DescriptionPath returns the path of the cached description file of ref,
// relative to the data directory and slash separated.
func (s *Store) DescriptionPath(ref domain.SkillRef) (string, bool) {
	dir, err := s.DocumentDir(ref)
	if err != nil {
		return "", false
	}
	if _, err := os.Stat(filepath.Join(dir, DescriptionFile)); err != nil {
		return "", false
	}
	owner, repo, _ := domain.SplitRepo(ref.Source)
	return strings.Join([]string{DocumentsDir, owner, repo, ref.SkillID, DescriptionFile}, "/"), true
}

// LoadProgress returns the stored sync progress, or zero counters when none exists.
func (s *Store) LoadProgress() (domain.SyncProgress, error) {
	var p domain.SyncProgress
	_, err := s.readJSON(ProgressFile, &p)
	return p, err
}

// SaveProgress replaces the stored sync progress.
func (s *Store) SaveProgress(p domain.SyncProgress) error {
	return s.writeJSON(ProgressFile, p)
}

// LoadSkills returns the stored catalog snapshot, or nil when none exists.
func (s *Store) LoadSkills() (*domain.SkillsData, error) {
	var d domain.SkillsData
	ok, err := s.readJSON(SkillsFile, &d)
	if !ok || err != nil {
		return nil, err
	}
	return &d, nil
}

// SaveSkills replaces the stored catalog snapshot.
func (s *Store) SaveSkills(d *domain.SkillsData) error {
	return s.writeJSON(SkillsFile, d)
}

// LoadFeed returns the previous feed snapshot, or nil when none exists.
func (s *Store) LoadFeed() (*domain.FeedSnapshot, error) {
	var f domain.FeedSnapshot
	ok, err := s.readJSON(FeedFile, &f)
	if !ok || err != nil {
		return nil, err
	}
	return &f, nil
}

// SaveFeed replaces the feed snapshot.
func (s *Store) SaveFeed(f *domain.FeedSnapshot) error {
	return s.writeJSON(FeedFile, f)
}

// LoadFirstSeen returns the first-seen record, or nil when none exists.
func (s *Store) LoadFirstSeen() (*domain.FirstSeen, error) {
	var f domain.FirstSeen
	ok, err := s.readJSON(FirstSeenFile, &f)
	if !ok || err != nil {
		return nil, err
	}
	return &f, nil
}

// SaveFirstSeen replaces the first-seen record.
func (s *Store) SaveFirstSeen(f *domain.FirstSeen) error {
	return s.writeJSON(FirstSeenFile, f)
}

// SaveSkillsIndex replaces the skills index.
func (s *Store) SaveSkillsIndex(idx *domain.SkillsIndex) error {
	return s.writeJSON(SkillsIndexFile, idx)
}

// SaveCategoryIndex replaces the category index.
func (s *Store) SaveCategoryIndex(idx *domain.CategoryIndex) error {
	return s.writeJSON(CategoryIndexFile, idx)
}

// LoadManualSkills returns the hand-curated skills, or nil when the file
// does not exist.
func (s *Store) LoadManualSkills() ([]domain.SkillRecord, error) {
	var records []domain.SkillRecord
	_, err := s.readJSON(ManualSkillsFile, &records)
	return records, err
}

// WriteFile atomically replaces name inside the data directory.
func (s *Store) WriteFile(name string, data []byte) error {
	return writeAtomic(filepath.Join(s.dir, name), data)
}

func (s *Store) readJSON(name string, v any) (bool, error) {
	b, err := os.ReadFile(filepath.Join(s.dir, name))
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read %s: %w", name, err)
	}
	if err := json.Unmarshal(b, v); err != nil {
		return false, fmt.Errorf("failed to decode %s: %w", name, err)
	}
	return true, nil
}

func (s *Store) writeJSON(name string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", name, err)
	}
	return s.WriteFile(name, append(b, '\n'))
}

// writeAtomic writes to a temporary sibling and renames it over path, so
// readers never observe a partially written file.
func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	name := tmp.Name()
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		os.Remove(name)
		return fmt.Errorf("failed to set file mode: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(name)
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(name)
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(name, path); err != nil {
		os.Remove(name)
		return fmt.Errorf("failed to save %s: %w", filepath.Base(path), err)
	}
	return nil
}

func safeSegment(s string) bool {
	return s != "" && s != "." && s != ".." && !strings.ContainsAny(s, `/\`) && !strings.ContainsRune(s, 0)
}
