package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yasakei/xos/internal/shared/errs"
)

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a", "b", "file.txt")

	require.NoError(t, WriteFileAtomic(path, []byte("one")))
	require.NoError(t, WriteFileAtomic(path, []byte("two")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "two", string(data))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files must not be left behind")
}

func TestWriteFileAtomicConcurrent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "race.txt")

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, WriteFileAtomic(path, []byte(fmt.Sprintf("writer-%02d", i))))
		}(i)
	}
	wg.Wait()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "writer-"), "file must hold one complete write, got %q", data)
	assert.Len(t, data, len("writer-00"))
}

func TestCreateExclusive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users", "alice.json")

	require.NoError(t, CreateExclusive(path, []byte("{}")))

	err := CreateExclusive(path, []byte("{}"))
	require.Error(t, err)
	assert.Equal(t, errs.Conflict, errs.KindOf(err))
}

func TestReadFile(t *testing.T) {
	dir := t.TempDir()

	_, err := ReadFile(filepath.Join(dir, "missing"))
	assert.ErrorIs(t, err, errs.ErrNotFound)

	_, err = ReadFile(dir)
	assert.ErrorIs(t, err, errs.ErrInvalidPath)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "x"), []byte("x"), FilePerm))
	data, err := ReadFile(filepath.Join(dir, "x"))
	require.NoError(t, err)
	assert.Equal(t, "x", string(data))
}

func TestMoveAndRemove(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.txt")
	dst := filepath.Join(dir, "nested", "dst.txt")

	err := Move(src, dst)
	assert.ErrorIs(t, err, errs.ErrNotFound)

	require.NoError(t, os.WriteFile(src, []byte("x"), FilePerm))
	require.NoError(t, Move(src, dst))

	ok, err := Exists(dst)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, RemoveAll(filepath.Join(dir, "nested")))
	require.NoError(t, RemoveAll(filepath.Join(dir, "nested")), "removing a missing path is not an error")

	ok, err = Exists(dst)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMoveIntoItself(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "Docs")
	require.NoError(t, os.MkdirAll(dir, DirPerm))

	err := Move(dir, filepath.Join(dir, "sub"))
	assert.ErrorIs(t, err, errs.ErrInvalidPath)
	assert.DirExists(t, dir)

	require.NoError(t, Move(dir, dir), "moving onto itself is a no-op")
	require.NoError(t, Move(dir, dir+string(filepath.Separator)))
	assert.DirExists(t, dir)
}

func TestJSONRecords(t *testing.T) {
	type record struct {
		Username string   `json:"username"`
		Themes   []string `json:"customThemes"`
	}
	path := filepath.Join(t.TempDir(), "alice.json")

	require.NoError(t, CreateJSON(path, record{Username: "alice", Themes: []string{"neon"}}))
	assert.ErrorIs(t, CreateJSON(path, record{}), errs.ErrConflict)

	var got record
	require.NoError(t, ReadJSON(path, &got))
	assert.Equal(t, "alice", got.Username)
	assert.Equal(t, []string{"neon"}, got.Themes)

	require.NoError(t, os.WriteFile(path, []byte("{not json"), FilePerm))
	err := ReadJSON(path, &got)
	assert.Equal(t, errs.IOError, errs.KindOf(err))
}

func TestCopyFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "wall.png")
	require.NoError(t, os.WriteFile(src, []byte{0x89, 'P', 'N', 'G'}, FilePerm))

	dst := filepath.Join(dir, "home", ".wallpapers", "wall.png")
	require.NoError(t, CopyFile(src, dst))

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, data)

	assert.ErrorIs(t, CopyFile(filepath.Join(dir, "nope"), dst), errs.ErrNotFound)
}
