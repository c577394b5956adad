package imagery

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
}

func TestIsSupportedImage(t *testing.T) {
	t.Parallel()

	assert.True(t, IsSupportedImage("photo.jpg"))
	assert.True(t, IsSupportedImage("photo.JPEG"))
	assert.True(t, IsSupportedImage("a/b/pic.webp"))
	assert.False(t, IsSupportedImage("model.onnx"))
	assert.False(t, IsSupportedImage("notes.txt"))
	assert.False(t, IsSupportedImage("noextension"))
}

func TestFindImages(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	touch(t, filepath.Join(dir, "b.png"))
	touch(t, filepath.Join(dir, "a.jpg"))
	touch(t, filepath.Join(dir, "skip.txt"))
	touch(t, filepath.Join(dir, "nested", "c.BMP"))

	images, err := FindImages(dir)
	require.NoError(t, err)

	want := []string{
		filepath.Join(dir, "a.jpg"),
		filepath.Join(dir, "b.png"),
		filepath.Join(dir, "nested", "c.BMP"),
	}
	assert.Equal(t, want, images)
}

func TestExpandInputs(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	touch(t, filepath.Join(dir, "photos", "a.jpg"))
	touch(t, filepath.Join(dir, "photos", "b.png"))
	touch(t, filepath.Join(dir, "single.webp"))
	touch(t, filepath.Join(dir, "notes.txt"))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "empty"), 0o755))

	images, unresolved := ExpandInputs([]string{
		filepath.Join(dir, "photos"),
		filepath.Join(dir, "single.webp"),
		filepath.Join(dir, "notes.txt"),
		filepath.Join(dir, "empty"),
		filepath.Join(dir, "missing.jpg"),
	})

	assert.Equal(t, []string{
		filepath.Join(dir, "photos", "a.jpg"),
		filepath.Join(dir, "photos", "b.png"),
		filepath.Join(dir, "single.webp"),
	}, images)
	assert.Equal(t, []string{
		filepath.Join(dir, "notes.txt"),
		filepath.Join(dir, "empty"),
		filepath.Join(dir, "missing.jpg"),
	}, unresolved)
}

func TestFindImagesMissingRoot(t *testing.T) {
	t.Parallel()

	_, err := FindImages(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}
