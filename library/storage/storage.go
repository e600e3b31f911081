// Package storage contains helpers shared by the storage backends.
package storage

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/Laisky/errors/v2"
	"github.com/gabriel-vasile/mimetype"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// DefaultContentType is used when a media type cannot be detected.
const DefaultContentType = "application/octet-stream"

// ContentTypeJSON is the content type of uploaded manifests.
const ContentTypeJSON = "application/json"

// Media is a local file loaded for upload.
type Media struct {
	Name        string
	ContentType string
	Data        []byte
}

// ReadMedia loads the file at fpath and sniffs its content type.
func ReadMedia(fpath string) (*Media, error) {
	cnt, err := os.ReadFile(fpath)
	if err != nil {
		return nil, errors.Wrapf(err, "read media %q", fpath)
	}

	return &Media{
		Name:        filepath.Base(fpath),
		ContentType: ContentType(cnt),
		Data:        cnt,
	}, nil
}

// ContentType detects the mime type of cnt.
func ContentType(cnt []byte) string {
	if len(cnt) == 0 {
		return DefaultContentType
	}

	mt := mimetype.Detect(cnt)
	if mt == nil || mt.String() == "" {
		return DefaultContentType
	}

	// drop parameters like `; charset=utf-8`
	ct, _, _ := strings.Cut(mt.String(), ";")
	return ct
}

// Ext returns the extension of fpath without its leading dot.
func Ext(fpath string) string {
	return strings.TrimPrefix(filepath.Ext(fpath), ".")
}

// JoinLink joins a gateway base URL and path parts with single slashes.
func JoinLink(base string, parts ...string) string {
	link := strings.TrimRight(base, "/")
	for _, p := range parts {
		p = strings.Trim(p, "/")
		if p == "" {
			continue
		}
		link += "/" + p
	}

	return link
}

// MultipartFile encodes data as a single file field of a multipart form.
// It returns the body and its content type header.
func MultipartFile(field, filename string, data []byte) (*bytes.Buffer, string, error) {
	body := new(bytes.Buffer)
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile(field, filename)
	if err != nil {
		return nil, "", errors.Wrap(err, "create form file")
	}
	if _, err = io.Copy(part, bytes.NewReader(data)); err != nil {
		return nil, "", errors.Wrap(err, "write form file")
	}
	if err = writer.Close(); err != nil {
		return nil, "", errors.Wrap(err, "close multipart writer")
	}

	return body, writer.FormDataContentType(), nil
}

// AnimationFields are the manifest keys naming the animation asset, in
// order of precedence. A JSON null counts as absent.
var AnimationFields = []string{"animation_url", "animation"}

// AnimationKey returns the animation key declared by raw, or
// `animation_url` when none is declared.
func AnimationKey(raw []byte) string {
	for _, key := range AnimationFields {
		if v := gjson.GetBytes(raw, key); v.Exists() && v.Type != gjson.Null {
			return key
		}
	}

	return AnimationFields[0]
}

// RewriteManifest points the manifest's media fields at the uploaded links.
//
// image and animation are the local paths that were uploaded. `image`, the
// declared animation key and every `properties.files[].uri` equal to one of
// the local basenames are replaced in place, other bytes are kept as is.
// An empty animationLink leaves animation fields untouched. raw is never modified.
func RewriteManifest(raw []byte, image, animation, imageLink, animationLink string) ([]byte, error) {
	if !gjson.ValidBytes(raw) || !gjson.ParseBytes(raw).IsObject() {
		return nil, errors.New("parse manifest: manifest must be a json object")
	}

	cnt := append([]byte(nil), raw...)
	set := func(path, value string) (err error) {
		if cnt, err = sjson.SetBytes(cnt, path, value); err != nil {
			return errors.Wrapf(err, "set %q", path)
		}
		return nil
	}

	replace := map[string]string{}
	if imageLink != "" {
		if err := set("image", imageLink); err != nil {
			return nil, err
		}
		replace[filepath.Base(image)] = imageLink
	}
	if animation != "" && animationLink != "" {
		if err := set(AnimationKey(raw), animationLink); err != nil {
			return nil, err
		}
		replace[filepath.Base(animation)] = animationLink
	}

	files := gjson.GetBytes(raw, "properties.files")
	if !files.IsArray() {
		return cnt, nil
	}
	for i, file := range files.Array() {
		uri := file.Get("uri")
		if uri.Type != gjson.String {
			continue
		}
		if link, ok := replace[uri.String()]; ok {
			if err := set(fmt.Sprintf("properties.files.%d.uri", i), link); err != nil {
				return nil, err
			}
		}
	}

	return cnt, nil
}
