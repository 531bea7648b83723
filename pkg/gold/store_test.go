package gold

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKey_Path(t *testing.T) {
	t.Parallel()

	k := Key{Class: "Parser", Test: "Simple/empty", Sub: "output"}
	assert.Equal(t, "Parser/Simple/empty/output.json", k.Path())
	assert.Equal(t, "Parser/Simple/empty/tables/users.json", k.Child("tables").Child("users").Path())
}

func TestKey_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		key     Key
		wantErr bool
	}{
		{"valid", Key{"A", "b", "c"}, false},
		{"nested", Key{"A", "b/c", "d/e"}, false},
		{"missing class", Key{"", "b", "c"}, true},
		{"missing sub", Key{"A", "b", ""}, true},
		{"parent segment", Key{"A", "..", "c"}, true},
		{"escaping sub", Key{"A", "b", "../../etc"}, true},
		{"empty segment", Key{"A", "b//c", "d"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.key.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestStore_WriteRead(t *testing.T) {
	t.Parallel()

	s := NewStore(memfs.New())
	k := Key{Class: "Users", Test: "Create", Sub: "response"}

	assert.False(t, s.Exists(k))
	require.NoError(t, s.Write(k, "{}\n"))
	assert.True(t, s.Exists(k))

	text, err := s.Read(k)
	require.NoError(t, err)
	assert.Equal(t, "{}\n", text)

	require.NoError(t, s.Write(k, "[]\n"))
	text, err = s.Read(k)
	require.NoError(t, err)
	assert.Equal(t, "[]\n", text)
}

func TestStore_ReadMissing(t *testing.T) {
	t.Parallel()

	fs := memfs.New()
	s := NewStore(fs)
	k := Key{Class: "Users", Test: "Create", Sub: "response"}

	_, err := s.Read(k)
	var missing *MissingGoldError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, s.Location(k), missing.Path)

	require.NoError(t, util.WriteFile(fs, k.Path(), nil, 0o644))
	_, err = s.Read(k)
	assert.True(t, errors.As(err, &missing), "empty file counts as missing")
	assert.False(t, s.Exists(k))
}

func TestStore_Files(t *testing.T) {
	t.Parallel()

	fs := memfs.New()
	s := NewStore(fs)
	require.NoError(t, s.Write(Key{"B", "t", "x"}, "1"))
	require.NoError(t, s.Write(Key{"A", "t/sub", "y"}, "2"))
	require.NoError(t, util.WriteFile(fs, "A/notes.txt", []byte("ignored"), 0o644))

	files, err := s.Files()
	require.NoError(t, err)
	assert.Equal(t, []string{"A/t/sub/y.json", "B/t/x.json"}, files)

	text, err := s.ReadFile(files[1])
	require.NoError(t, err)
	assert.Equal(t, "1", text)
}

func TestStore_FilesMissingRoot(t *testing.T) {
	t.Parallel()

	s := NewDirStore(filepath.Join(t.TempDir(), "does-not-exist"))
	files, err := s.Files()
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestStore_DirStore(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	s := NewDirStore(root)
	k := Key{Class: "C", Test: "t", Sub: "s"}
	require.NoError(t, s.Write(k, "text"))

	assert.Equal(t, filepath.Join(root, "C", "t", "s.json"), s.Location(k))
	assert.FileExists(t, s.Location(k))
}
