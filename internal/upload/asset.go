package upload

import (
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// Sources are the resolved locations of an asset's media.
// Animation is empty when the request carries no animation.
type Sources struct {
	Image     string
	Animation string
}

// HasAnimation reports whether an animation asset is part of the request.
func (s Sources) HasAnimation() bool {
	return s.Animation != ""
}

// ResolveLocal resolves media paths relative to the manifest directory.
//
// The image must be an existing regular file. A declared animation must
// also be an existing regular file, otherwise ANIMATION_MISSING is returned.
func ResolveLocal(dir string, asset Asset, m *Manifest) (Sources, error) {
	src := Sources{Image: filepath.Join(dir, m.Image)}
	if m.Image == "" || !isRegularFile(src.Image) {
		return Sources{}, newErrorf(ErrCodeImageMissing,
			"missing file for the image specified in %s.json", asset.Index)
	}

	if !m.HasAnimation {
		return src, nil
	}

	src.Animation = filepath.Join(dir, m.Animation)
	if !isRegularFile(src.Animation) {
		return Sources{}, newErrorf(ErrCodeAnimationMissing,
			"missing file for the animation_url specified in %s.json", asset.Index)
	}

	return src, nil
}

// ResolveHosted validates the media URLs already embedded in the manifest.
//
// An empty animation is treated as absent.
func ResolveHosted(asset Asset, m *Manifest) (Sources, error) {
	if m.Image == "" || !isValidURL(m.Image) {
		return Sources{}, newErrorf(ErrCodeInvalidImageURL,
			"invalid image specified in %s.json", asset.Index)
	}

	if m.Animation != "" && !isValidURL(m.Animation) {
		return Sources{}, newErrorf(ErrCodeInvalidAnimationURL,
			"invalid animation_url specified in %s.json", asset.Index)
	}

	return Sources{Image: m.Image, Animation: m.Animation}, nil
}

// isValidURL reports whether raw is an absolute URL with a scheme and
// either a host or an opaque part, like `https://x/y` or `data:...`.
func isValidURL(raw string) bool {
	if strings.TrimSpace(raw) != raw {
		return false
	}

	parsed, err := url.Parse(raw)
	if err != nil || parsed.Scheme == "" {
		return false
	}

	return parsed.Host != "" || parsed.Opaque != ""
}

func isRegularFile(fpath string) bool {
	fi, err := os.Lstat(fpath)
	if err != nil {
		return false
	}
	return fi.Mode().IsRegular()
}
