package arweave

import (
	"strings"

	"github.com/Laisky/errors/v2"
	"github.com/everFinance/goar/types"
)

type uploadOption struct {
	contentType string
	tags        []types.Tag
}

// UploadOption is an option of Uploader.Upload
type UploadOption func(*uploadOption) error

func (o *uploadOption) apply(opts ...UploadOption) (*uploadOption, error) {
	// fill default
	o.contentType = "application/octet-stream"

	// apply opts
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}

	return o, nil
}

// WithContentType set content type of the uploaded data
func WithContentType(contentType string) UploadOption {
	return func(o *uploadOption) error {
		contentType = strings.TrimSpace(contentType)
		if contentType == "" {
			return errors.New("content type should not be empty")
		}

		o.contentType = contentType
		return nil
	}
}

// WithTag attach an extra tag to the transaction.
// tags with empty value are skipped.
func WithTag(name, value string) UploadOption {
	return func(o *uploadOption) error {
		if name == "" {
			return errors.New("tag name should not be empty")
		}
		if value == "" {
			return nil
		}

		o.tags = append(o.tags, types.Tag{Name: name, Value: value})
		return nil
	}
}
