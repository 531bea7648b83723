// Package gold captures the output of a test as a canonical gold file and
// compares later runs against it.
//
// Positions that legitimately vary between runs (timestamps, generated ids)
// are written as the wildcard literal "\*" and match any value. Wildcards do
// not have to be added by hand: running the tests with GOLDTEST_GEN=1 runs
// every test body twice, stores the first capture and then wildcards every
// scalar that changed in the second.
//
// Example usage in a Go test:
//
//	func TestUsers_Create(t *testing.T) {
//	    gold.Run(t, func(g *gold.T) {
//	        resp := createUser(t, "ada")
//	        g.Check("response", resp)
//	    })
//	}
//
// The gold above lives in testdata/golds/Users/Create/response.json.
package gold

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path"
	"sort"
	"strings"
	"testing"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
)

// DefaultRoot is the golds root used by Run, relative to the package under test.
const DefaultRoot = "testdata/golds"

// DefaultTest is the test name used when the test function has no "_Name" suffix.
const DefaultTest = "default"

// TableSource dumps database tables as ordered rows. pkg/dbsnap implements it.
type TableSource interface {
	Dump(ctx context.Context, tables ...string) (map[string][]map[string]any, error)
}

type runConfig struct {
	root     string
	fs       billy.Filesystem
	mode     *Mode
	generate *bool
	env      string
	codec    *Codec
	logger   *slog.Logger
	class    string
	test     string
}

// Option configures Run.
type Option func(*runConfig)

// WithRoot sets the golds root directory.
func WithRoot(dir string) Option {
	return func(c *runConfig) { c.root = dir }
}

// WithFilesystem stores golds on fs instead of the local disk.
func WithFilesystem(fs billy.Filesystem) Option {
	return func(c *runConfig) { c.fs = fs }
}

// WithMode runs the test body once in the given mode.
func WithMode(mode Mode) Option {
	return func(c *runConfig) { c.mode = &mode }
}

// WithGeneration overrides the environment switch.
func WithGeneration(enabled bool) Option {
	return func(c *runConfig) { c.generate = &enabled }
}

// WithGenerationEnv reads the generation switch from another variable.
func WithGenerationEnv(name string) Option {
	return func(c *runConfig) { c.env = name }
}

// WithCodec sets the codec.
func WithCodec(codec *Codec) Option {
	return func(c *runConfig) { c.codec = codec }
}

// WithLogger sets the logger used by the workflow.
func WithLogger(logger *slog.Logger) Option {
	return func(c *runConfig) { c.logger = logger }
}

// WithName overrides the class and test derived from the test name.
func WithName(class, test string) Option {
	return func(c *runConfig) {
		c.class = class
		c.test = test
	}
}

func (c *runConfig) passes() []Mode {
	if c.mode != nil {
		return []Mode{*c.mode}
	}
	if c.generate != nil {
		return Passes(*c.generate)
	}
	return Passes(GenerationEnabled(os.Getenv(c.env)))
}

func (c *runConfig) store() *Store {
	if c.fs != nil {
		return NewStore(c.fs)
	}
	return NewStore(osfs.New(c.root))
}

// T binds one pass of a test body to its gold records.
type T struct {
	tb       testing.TB
	mode     Mode
	env      string
	class    string
	test     string
	workflow *Workflow
}

// Run executes fn once per pass: once in verification mode, or twice
// (capture, then reconcile) when generation is enabled. Each pass gets its own
// *T, so tests using t.Parallel do not share any mode state.
func Run(tb testing.TB, fn func(g *T), opts ...Option) {
	tb.Helper()

	cfg := &runConfig{root: DefaultRoot, env: GenerationEnv}
	for _, opt := range opts {
		opt(cfg)
	}

	class, test := cfg.class, cfg.test
	if class == "" || test == "" {
		derivedClass, derivedTest := NameFromTest(tb.Name())
		if class == "" {
			class = derivedClass
		}
		if test == "" {
			test = derivedTest
		}
	}

	workflow := NewWorkflow(cfg.store(), cfg.codec, cfg.logger)
	for _, mode := range cfg.passes() {
		fn(&T{tb: tb, mode: mode, env: cfg.env, class: class, test: test, workflow: workflow})
		if tb.Failed() {
			return
		}
	}
}

// NameFromTest derives the class and test of a gold from a testing name.
// "TestParser_Simple/empty" yields ("Parser", "Simple/empty"); without an
// underscore the test is DefaultTest.
func NameFromTest(name string) (class, test string) {
	segments := strings.Split(name, "/")
	top := strings.TrimPrefix(segments[0], "Test")
	class, test, found := strings.Cut(top, "_")
	if class == "" {
		class = segments[0]
	}
	if !found || test == "" {
		test = DefaultTest
	}
	parts := append([]string{test}, segments[1:]...)
	return class, path.Join(parts...)
}

// Mode returns the mode of the current pass.
func (g *T) Mode() Mode {
	return g.mode
}

// Key returns the key of the named assertion.
func (g *T) Key(sub string) Key {
	return Key{Class: g.class, Test: g.test, Sub: sub}
}

// Workflow returns the session shared by all passes.
func (g *T) Workflow() *Workflow {
	return g.workflow
}

// Check asserts actual against the gold named sub. A difference fails the
// test with the annotated report; a missing or corrupt gold stops it.
func (g *T) Check(sub string, actual any) {
	g.tb.Helper()
	g.check(g.Key(sub), actual)
}

func (g *T) check(key Key, actual any) {
	g.tb.Helper()
	err := g.workflow.Assert(g.mode, key, actual)
	if err == nil {
		return
	}
	var missing *MissingGoldError
	if errors.As(err, &missing) && missing.Env == "" {
		missing.Env = g.env
	}
	if IsFatal(err) {
		g.tb.Fatalf("%v", err)
		return
	}
	g.tb.Errorf("\n%v", err)
}

// CheckOutput asserts actual against the gold named "output".
func (g *T) CheckOutput(actual any) {
	g.tb.Helper()
	g.Check("output", actual)
}

// Load returns a decoded gold, typically a hand-written input fixture.
func (g *T) Load(sub string) any {
	g.tb.Helper()
	v, err := g.workflow.Load(g.Key(sub))
	if err != nil {
		g.tb.Fatalf("%v", err)
	}
	return v
}

// Diff renders the difference between two values, or "" when they match.
func (g *T) Diff(expected, actual any) string {
	g.tb.Helper()
	report, err := g.workflow.Codec().Diff(expected, actual)
	if err != nil {
		g.tb.Fatalf("%v", err)
	}
	return report.String()
}

// CheckTables dumps tables from src and checks every table against the gold
// <sub>/<table>. With no tables listed, every table src returns is checked.
func (g *T) CheckTables(ctx context.Context, sub string, src TableSource, tables ...string) {
	g.tb.Helper()
	data, err := src.Dump(ctx, tables...)
	if err != nil {
		g.tb.Fatalf("gold: dump tables: %v", err)
	}
	names := make([]string, 0, len(data))
	for name := range data {
		names = append(names, name)
	}
	sort.Strings(names)
	key := g.Key(sub)
	for _, name := range names {
		g.check(key.Child(name), data[name])
	}
}
