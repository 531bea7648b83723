package golds

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"

	"github.com/AndreyAkinshin/goldtest/pkg/gold"
)

// Catalog walks the records of one golds root.
type Catalog struct {
	store  *gold.Store
	codec  *gold.Codec
	logger *slog.Logger
}

// Option configures a Catalog.
type Option func(*Catalog)

// WithCodec sets the codec used to decode and re-encode golds.
func WithCodec(c *gold.Codec) Option {
	return func(cat *Catalog) {
		if c != nil {
			cat.codec = c
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(cat *Catalog) {
		if l != nil {
			cat.logger = l
		}
	}
}

// New creates a Catalog over store.
func New(store *gold.Store, opts ...Option) *Catalog {
	c := &Catalog{
		store:  store,
		codec:  gold.NewCodec(),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Root returns the golds root of the catalog.
func (c *Catalog) Root() string {
	return c.store.Root()
}

// ParsePath splits a slash-separated gold path into its key. The first
// segment is the class and the file name the assertion name; everything in
// between belongs to the test, so nested assertion names are attributed to
// the test.
func ParsePath(rel string) (gold.Key, error) {
	if !strings.HasSuffix(rel, gold.FileExtension) {
		return gold.Key{}, fmt.Errorf("%s: not a gold file", rel)
	}
	segs := strings.Split(strings.TrimSuffix(rel, gold.FileExtension), "/")
	if len(segs) < 3 {
		return gold.Key{}, fmt.Errorf("%s: expected <class>/<test>/<name>%s", rel, gold.FileExtension)
	}
	key := gold.Key{
		Class: segs[0],
		Test:  strings.Join(segs[1:len(segs)-1], "/"),
		Sub:   segs[len(segs)-1],
	}
	if err := key.Validate(); err != nil {
		return gold.Key{}, fmt.Errorf("%s: %w", rel, err)
	}
	return key, nil
}

// Records returns every well-placed gold file, sorted by path. Files that do
// not follow the layout are skipped and logged.
func (c *Catalog) Records() ([]Record, error) {
	files, err := c.store.Files()
	if err != nil {
		return nil, err
	}

	records := make([]Record, 0, len(files))
	for _, f := range files {
		key, err := ParsePath(f)
		if err != nil {
			c.logger.Warn("skipping misplaced gold file", "path", f, "error", err)
			continue
		}
		records = append(records, Record{Key: key, Path: f})
	}
	return records, nil
}

// Groups returns the records grouped by class and test, sorted.
func (c *Catalog) Groups() ([]Group, error) {
	records, err := c.Records()
	if err != nil {
		return nil, err
	}
	return GroupRecords(records), nil
}

// GroupRecords groups records by class and test.
func GroupRecords(records []Record) []Group {
	index := make(map[[2]string]int)
	var groups []Group
	for _, r := range records {
		id := [2]string{r.Key.Class, r.Key.Test}
		i, ok := index[id]
		if !ok {
			i = len(groups)
			index[id] = i
			groups = append(groups, Group{Class: r.Key.Class, Test: r.Key.Test})
		}
		groups[i].Subs = append(groups[i].Subs, r.Key.Sub)
	}

	sort.Slice(groups, func(i, j int) bool {
		if groups[i].Class != groups[j].Class {
			return groups[i].Class < groups[j].Class
		}
		return groups[i].Test < groups[j].Test
	})
	for _, g := range groups {
		sort.Strings(g.Subs)
	}
	return groups
}

// Lint decodes every gold file and reports the ones that are malformed,
// empty or not in canonical form. The returned error is reserved for
// failures to walk the root.
func (c *Catalog) Lint() ([]Issue, error) {
	files, err := c.store.Files()
	if err != nil {
		return nil, err
	}

	var issues []Issue
	for _, f := range files {
		if err := c.lintFile(f); err != nil {
			issues = append(issues, Issue{Path: f, Err: err})
		}
	}
	c.logger.Debug("lint finished", "root", c.store.Root(), "files", len(files), "issues", len(issues))
	return issues, nil
}

func (c *Catalog) lintFile(rel string) error {
	if _, err := ParsePath(rel); err != nil {
		return err
	}
	text, err := c.store.ReadFile(rel)
	if err != nil {
		return err
	}
	if text == "" {
		return ErrEmpty
	}

	canonical, err := c.canonical(text)
	if err != nil {
		var parseErr *gold.ParseError
		if errors.As(err, &parseErr) {
			parseErr.Path = rel
		}
		return err
	}
	if canonical != text {
		return ErrNotCanonical
	}
	return nil
}

// canonical decodes text and encodes it again.
func (c *Catalog) canonical(text string) (string, error) {
	tree, err := c.codec.Decode(text)
	if err != nil {
		return "", err
	}
	return c.codec.Encode(tree)
}

// Fix rewrites the files of fixable issues in canonical form and returns the
// paths it rewrote.
func (c *Catalog) Fix(issues []Issue) ([]string, error) {
	var fixed []string
	for _, issue := range issues {
		if !issue.Fixable() {
			continue
		}
		text, err := c.store.ReadFile(issue.Path)
		if err != nil {
			return fixed, err
		}
		canonical, err := c.canonical(text)
		if err != nil {
			return fixed, err
		}
		if err := c.store.WriteFile(issue.Path, canonical); err != nil {
			return fixed, err
		}
		c.logger.Info("rewrote gold in canonical form", "path", issue.Path)
		fixed = append(fixed, issue.Path)
	}
	return fixed, nil
}
