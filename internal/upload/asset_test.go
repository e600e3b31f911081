package upload

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeFiles(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		fpath := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(fpath), 0o700))
		require.NoError(t, os.WriteFile(fpath, []byte(name), 0o600))
	}
}

// TestResolveLocalImageOnly verifies a manifest without animation resolves only the image.
func TestResolveLocalImageOnly(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "0.png")

	src, err := ResolveLocal(dir, Asset{Index: "0"}, &Manifest{Image: "0.png"})
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "0.png"), src.Image)
	require.Empty(t, src.Animation)
	require.False(t, src.HasAnimation())
}

// TestResolveLocalWithAnimation verifies both media are joined onto the manifest directory.
func TestResolveLocalWithAnimation(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "0.png", "media/0.mp4")

	src, err := ResolveLocal(dir, Asset{Index: "0"},
		&Manifest{Image: "0.png", Animation: "media/0.mp4", HasAnimation: true})
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "0.png"), src.Image)
	require.Equal(t, filepath.Join(dir, "media", "0.mp4"), src.Animation)
	require.True(t, src.HasAnimation())
}

// TestResolveLocalAnimationMissing verifies a declared animation must exist on disk.
func TestResolveLocalAnimationMissing(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "0.png")

	_, err := ResolveLocal(dir, Asset{Index: "0"},
		&Manifest{Image: "0.png", Animation: "0.mp4", HasAnimation: true})
	require.True(t, IsCode(err, ErrCodeAnimationMissing))
	require.Equal(t, "missing file for the animation_url specified in 0.json", err.Error())
}

// TestResolveLocalAnimationIsDirectory verifies a directory does not count as media.
func TestResolveLocalAnimationIsDirectory(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "0.png")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "0.mp4"), 0o700))

	_, err := ResolveLocal(dir, Asset{Index: "0"},
		&Manifest{Image: "0.png", Animation: "0.mp4", HasAnimation: true})
	require.True(t, IsCode(err, ErrCodeAnimationMissing))
}

// TestResolveLocalImageMissing verifies the image must exist on disk.
func TestResolveLocalImageMissing(t *testing.T) {
	dir := t.TempDir()

	for _, m := range []*Manifest{{Image: "0.png"}, {}} {
		_, err := ResolveLocal(dir, Asset{Index: "0"}, m)
		require.True(t, IsCode(err, ErrCodeImageMissing))
		require.True(t, IsValidationError(err))
	}
}

// TestResolveHosted verifies hosted media are validated as absolute URLs.
func TestResolveHosted(t *testing.T) {
	src, err := ResolveHosted(Asset{Index: "0"}, &Manifest{
		Image:        "https://arweave.net/abc?ext=png",
		Animation:    "ipfs://bafy/0.mp4",
		HasAnimation: true,
	})
	require.NoError(t, err)
	require.Equal(t, "https://arweave.net/abc?ext=png", src.Image)
	require.Equal(t, "ipfs://bafy/0.mp4", src.Animation)

	src, err = ResolveHosted(Asset{Index: "0"}, &Manifest{Image: "data:image/png;base64,AAAA"})
	require.NoError(t, err)
	require.False(t, src.HasAnimation())

	src, err = ResolveHosted(Asset{Index: "0"}, &Manifest{
		Image:        "https://arweave.net/abc",
		HasAnimation: true,
	})
	require.NoError(t, err)
	require.False(t, src.HasAnimation())
}

// TestResolveHostedInvalidImage verifies relative or malformed image URLs are rejected.
func TestResolveHostedInvalidImage(t *testing.T) {
	for _, image := range []string{"", "0.png", "/abs/0.png", " https://arweave.net/abc", "http//x"} {
		_, err := ResolveHosted(Asset{Index: "7"}, &Manifest{Image: image})
		require.True(t, IsCode(err, ErrCodeInvalidImageURL), image)
		require.Equal(t, "invalid image specified in 7.json", err.Error())
	}
}

// TestResolveHostedInvalidAnimation verifies a non-empty animation must be an absolute URL.
func TestResolveHostedInvalidAnimation(t *testing.T) {
	_, err := ResolveHosted(Asset{Index: "7"}, &Manifest{
		Image:        "https://arweave.net/abc",
		Animation:    "0.mp4",
		HasAnimation: true,
	})
	require.True(t, IsCode(err, ErrCodeInvalidAnimationURL))
}
