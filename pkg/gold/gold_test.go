package gold

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingTB captures failures instead of reporting them.
type recordingTB struct {
	testing.TB
	name   string
	errors []string
	fatals []string
}

func (r *recordingTB) Helper()      {}
func (r *recordingTB) Name() string { return r.name }
func (r *recordingTB) Failed() bool { return len(r.errors)+len(r.fatals) > 0 }

func (r *recordingTB) Errorf(format string, args ...any) {
	r.errors = append(r.errors, fmt.Sprintf(format, args...))
}

func (r *recordingTB) Fatalf(format string, args ...any) {
	r.fatals = append(r.fatals, fmt.Sprintf(format, args...))
}

func TestNameFromTest(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in        string
		wantClass string
		wantTest  string
	}{
		{"TestParser_Simple", "Parser", "Simple"},
		{"TestParser", "Parser", DefaultTest},
		{"TestParser_Simple/empty_input", "Parser", "Simple/empty_input"},
		{"TestParser/case", "Parser", DefaultTest + "/case"},
		{"TestDB_Rows_Ordered", "DB", "Rows_Ordered"},
		{"Test", "Test", DefaultTest},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			class, test := NameFromTest(tt.in)
			assert.Equal(t, tt.wantClass, class)
			assert.Equal(t, tt.wantTest, test)
		})
	}
}

func TestRun_GenerateThenVerify(t *testing.T) {
	t.Parallel()

	fs := memfs.New()
	calls := 0
	body := func(g *T) {
		calls++
		g.CheckOutput(map[string]any{"id": fmt.Sprintf("run-%d", calls), "name": "ada"})
	}

	gen := &recordingTB{name: "TestUsers_Create"}
	Run(gen, body, WithFilesystem(fs), WithGeneration(true))
	require.False(t, gen.Failed(), "errors=%v fatals=%v", gen.errors, gen.fatals)
	assert.Equal(t, 2, calls)

	text, err := NewStore(fs).Read(Key{Class: "Users", Test: "Create", Sub: "output"})
	require.NoError(t, err)
	assert.Equal(t, "{\n    \"id\": \"\\*\",\n    \"name\": \"ada\"\n}\n", text)

	verify := &recordingTB{name: "TestUsers_Create"}
	Run(verify, body, WithFilesystem(fs), WithGeneration(false))
	assert.False(t, verify.Failed(), "errors=%v fatals=%v", verify.errors, verify.fatals)
	assert.Equal(t, 3, calls)
}

func TestRun_MismatchReported(t *testing.T) {
	t.Parallel()

	fs := memfs.New()
	require.NoError(t, NewStore(fs).Write(Key{"Users", "Create", "output"}, "{\n    \"a\": 1\n}\n"))

	rec := &recordingTB{name: "TestUsers_Create"}
	Run(rec, func(g *T) {
		g.CheckOutput(map[string]any{"a": 2})
	}, WithFilesystem(fs), WithMode(ModeVerify))

	require.Len(t, rec.errors, 1)
	assert.Empty(t, rec.fatals)
	assert.Contains(t, rec.errors[0], "Difference found in")
	assert.Contains(t, rec.errors[0], "exp:    \"a\": 1")
	assert.Contains(t, rec.errors[0], "got:    \"a\": 2")
}

func TestRun_MissingGoldIsFatal(t *testing.T) {
	t.Parallel()

	rec := &recordingTB{name: "TestUsers_Create"}
	Run(rec, func(g *T) {
		g.Check("response", "text")
	}, WithFilesystem(memfs.New()), WithGeneration(false))

	require.Len(t, rec.fatals, 1)
	assert.Contains(t, rec.fatals[0], "missing gold file")
}

func TestRun_WithGenerationEnv(t *testing.T) {
	t.Setenv("SHOP_REGEN", "1")
	t.Setenv(GenerationEnv, "")

	var modes []Mode
	Run(&recordingTB{name: "TestA_b"}, func(g *T) {
		modes = append(modes, g.Mode())
	}, WithFilesystem(memfs.New()), WithGenerationEnv("SHOP_REGEN"))
	assert.Equal(t, []Mode{ModeCapture, ModeReconcile}, modes)

	rec := &recordingTB{name: "TestUsers_Create"}
	Run(rec, func(g *T) {
		g.Check("response", "text")
	}, WithFilesystem(memfs.New()), WithGenerationEnv("SHOP_REGEN"), WithMode(ModeVerify))
	require.Len(t, rec.fatals, 1)
	assert.Contains(t, rec.fatals[0], "run with SHOP_REGEN=1")
}

func TestRun_StopsAfterFailedPass(t *testing.T) {
	t.Parallel()

	passes := 0
	rec := &recordingTB{name: "TestUsers_Create"}
	Run(rec, func(g *T) {
		passes++
		g.Check("bad", map[string]any{"x": nanValue()})
	}, WithFilesystem(memfs.New()), WithGeneration(true))

	assert.Equal(t, 1, passes)
	assert.Len(t, rec.fatals, 1)
}

func TestRun_PassModes(t *testing.T) {
	t.Parallel()

	var modes []Mode
	Run(&recordingTB{name: "TestA_b"}, func(g *T) {
		modes = append(modes, g.Mode())
	}, WithFilesystem(memfs.New()), WithGeneration(true))
	assert.Equal(t, []Mode{ModeCapture, ModeReconcile}, modes)
}

func TestRun_WithName(t *testing.T) {
	t.Parallel()

	var key Key
	Run(&recordingTB{name: "TestIgnored"}, func(g *T) {
		key = g.Key("out")
	}, WithFilesystem(memfs.New()), WithName("Custom", "case"))
	assert.Equal(t, "Custom/case/out.json", key.Path())
}

func TestT_Load(t *testing.T) {
	t.Parallel()

	fs := memfs.New()
	require.NoError(t, NewStore(fs).Write(Key{"Calc", "Sum", "input"}, "[1, 2, 3]"))

	var loaded any
	rec := &recordingTB{name: "TestCalc_Sum"}
	Run(rec, func(g *T) {
		loaded = g.Load("input")
	}, WithFilesystem(fs), WithMode(ModeVerify))

	assert.Empty(t, rec.fatals)
	assert.Len(t, loaded, 3)
}

func TestT_Diff(t *testing.T) {
	t.Parallel()

	Run(&recordingTB{name: "TestA_b"}, func(g *T) {
		assert.Empty(t, g.Diff(map[string]any{"a": Wildcard}, map[string]any{"a": 1}))
		assert.Contains(t, g.Diff(1, 2), "exp:1")
	}, WithFilesystem(memfs.New()))
}

type fakeTables map[string][]map[string]any

func (f fakeTables) Dump(_ context.Context, tables ...string) (map[string][]map[string]any, error) {
	if len(tables) == 0 {
		return f, nil
	}
	out := make(map[string][]map[string]any)
	for _, name := range tables {
		rows, ok := f[name]
		if !ok {
			return nil, errors.New("no such table: " + name)
		}
		out[name] = rows
	}
	return out, nil
}

func TestT_CheckTables(t *testing.T) {
	t.Parallel()

	fs := memfs.New()
	src := fakeTables{
		"users":  {{"id": 1, "name": "ada"}},
		"orders": {},
	}

	rec := &recordingTB{name: "TestShop_Checkout"}
	Run(rec, func(g *T) {
		g.CheckTables(context.Background(), "db", src)
	}, WithFilesystem(fs), WithMode(ModeCapture))
	require.False(t, rec.Failed())

	files, err := NewStore(fs).Files()
	require.NoError(t, err)
	assert.Equal(t, []string{"Shop/Checkout/db/orders.json", "Shop/Checkout/db/users.json"}, files)

	rec = &recordingTB{name: "TestShop_Checkout"}
	Run(rec, func(g *T) {
		g.CheckTables(context.Background(), "db", src, "missing")
	}, WithFilesystem(fs), WithMode(ModeVerify))
	require.Len(t, rec.fatals, 1)
	assert.Contains(t, rec.fatals[0], "no such table")
}
