package upload

import (
	"bytes"
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	errors "github.com/Laisky/errors/v2"

	"github.com/Laisky/nft-uploader/library/storage"
)

const manifestFieldImage = "image"

// Manifest is a parsed NFT metadata document.
//
// Only image and animation are interpreted, every other field is carried
// verbatim in Raw.
type Manifest struct {
	// Image is the local filename or absolute URL of the image asset.
	Image string
	// Animation is the local filename or absolute URL of the animation asset.
	Animation string
	// HasAnimation reports whether the manifest declares an animation field at all.
	HasAnimation bool
	// Raw is the compacted JSON document.
	Raw []byte
}

// Asset names the unit of work, the manifest's base filename without `.json`.
type Asset struct {
	Index string
}

// ManifestLocation splits a `--file` argument into the manifest directory,
// the asset and the manifest filename to read.
//
// A bare index is normalized into `${index}.json`.
func ManifestLocation(file string) (dir string, asset Asset, filename string) {
	dir = filepath.Dir(file)
	base := filepath.Base(file)
	asset.Index = strings.TrimSuffix(base, filepath.Ext(base))

	filename = asset.Index
	if !strings.Contains(filename, "json") {
		filename += ".json"
	}

	return dir, asset, filename
}

// LoadManifest reads dir/filename and parses it as a JSON object.
// It returns a NOT_FOUND error when the file is absent and PARSE_ERROR
// when the content is not a JSON object.
func LoadManifest(dir, filename string) (*Manifest, error) {
	fpath := filepath.Join(dir, filename)
	cnt, err := os.ReadFile(fpath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, wrapError(ErrCodeNotFound, err, "manifest not found: "+fpath)
		}
		return nil, errors.Wrapf(err, "read manifest %q", fpath)
	}

	return ParseManifest(cnt)
}

// ParseManifest parses raw JSON into a Manifest.
func ParseManifest(cnt []byte) (*Manifest, error) {
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(cnt, &fields); err != nil {
		return nil, wrapError(ErrCodeParseError, err, "parse manifest")
	}
	if fields == nil {
		return nil, NewError(ErrCodeParseError, "manifest must be a json object")
	}

	m := new(Manifest)
	var err error
	if m.Image, _, err = stringField(fields, manifestFieldImage); err != nil {
		return nil, err
	}

	for _, key := range storage.AnimationFields {
		var ok bool
		if m.Animation, ok, err = stringField(fields, key); err != nil {
			return nil, err
		}
		if ok {
			m.HasAnimation = true
			break
		}
	}

	buf := new(bytes.Buffer)
	if err = json.Compact(buf, cnt); err != nil {
		return nil, wrapError(ErrCodeParseError, err, "compact manifest")
	}
	m.Raw = buf.Bytes()

	return m, nil
}

// stringField decodes an optional string field.
// A JSON null counts as absent.
func stringField(fields map[string]json.RawMessage, key string) (val string, ok bool, err error) {
	raw, exists := fields[key]
	if !exists || string(raw) == "null" {
		return "", false, nil
	}

	if err = json.Unmarshal(raw, &val); err != nil {
		return "", false, wrapError(ErrCodeParseError, err,
			"manifest field "+key+" must be a string")
	}

	return val, true, nil
}
