// Package aws uploads NFT media and manifests to an S3 bucket.
package aws

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/Laisky/errors/v2"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/Laisky/nft-uploader/library/storage"
)

// ObjectPutter writes one object. *minio.Client implements it.
type ObjectPutter interface {
	PutObject(ctx context.Context, bucketName, objectName string,
		reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// NewClient creates an S3 client using credentials from the AWS environment
// variables or the shared credentials file.
func NewClient(endpoint, region string) (*minio.Client, error) {
	cli, err := minio.New(endpoint, &minio.Options{
		Creds: credentials.NewChainCredentials([]credentials.Provider{
			&credentials.EnvAWS{},
			&credentials.FileAWSCredentials{},
		}),
		Secure: true,
		Region: region,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "new s3 client for %q", endpoint)
	}

	return cli, nil
}

// Uploader s3 uploader
type Uploader struct {
	putter ObjectPutter
}

// NewUploader create a new s3 uploader
func NewUploader(putter ObjectPutter) *Uploader {
	return &Uploader{putter: putter}
}

// Upload uploads media under `assets/` and then the rewritten manifest next
// to the image name with a `.json` extension.
func (u *Uploader) Upload(ctx context.Context,
	bucket, image, animation string, manifest []byte,
) (link, imageLink, animationLink string, err error) {
	if strings.TrimSpace(bucket) == "" {
		return "", "", "", errors.New("aws s3 bucket is required")
	}

	if imageLink, err = u.uploadMedia(ctx, bucket, image); err != nil {
		return "", "", "", errors.Wrap(err, "upload image")
	}
	if animation != "" {
		if animationLink, err = u.uploadMedia(ctx, bucket, animation); err != nil {
			return "", "", "", errors.Wrap(err, "upload animation")
		}
	}

	updated, err := storage.RewriteManifest(manifest, image, animation, imageLink, animationLink)
	if err != nil {
		return "", "", "", errors.WithStack(err)
	}

	base := filepath.Base(image)
	metadataKey := strings.TrimSuffix(base, filepath.Ext(base)) + ".json"
	if link, err = u.put(ctx, bucket, metadataKey, updated, storage.ContentTypeJSON); err != nil {
		return "", "", "", errors.Wrap(err, "upload manifest")
	}

	return link, imageLink, animationLink, nil
}

func (u *Uploader) uploadMedia(ctx context.Context, bucket, fpath string) (string, error) {
	media, err := storage.ReadMedia(fpath)
	if err != nil {
		return "", errors.WithStack(err)
	}

	return u.put(ctx, bucket, "assets/"+media.Name, media.Data, media.ContentType)
}

func (u *Uploader) put(ctx context.Context,
	bucket, key string, data []byte, contentType string) (string, error) {
	_, err := u.putter.PutObject(ctx, bucket, key,
		bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType},
	)
	if err != nil {
		return "", errors.Wrapf(err, "put object %q", key)
	}

	return ObjectURL(bucket, key), nil
}

// ObjectURL returns the virtual-hosted public url of key.
// key is escaped as a single path segment, `/` included.
func ObjectURL(bucket, key string) string {
	escaped := strings.ReplaceAll(url.QueryEscape(key), "+", "%20")
	return fmt.Sprintf("https://%s.s3.amazonaws.com/%s", bucket, escaped)
}
