// Package nftstorage stores NFT media and manifests on NFT.Storage.
package nftstorage

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/Laisky/errors/v2"
	gutils "github.com/Laisky/go-utils/v6"
	logSDK "github.com/Laisky/go-utils/v6/log"

	"github.com/Laisky/nft-uploader/library/storage"
)

// UploadResponse is the response of `/upload`.
type UploadResponse struct {
	OK    bool `json:"ok"`
	Value struct {
		Cid string `json:"cid"`
	} `json:"value"`
	Error *struct {
		Name    string `json:"name"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Client NFT.Storage API client
type Client struct {
	apiKey  string
	api     string
	gateway string
	httpcli *http.Client
	logger  logSDK.Logger
}

// NewClient create a new NFT.Storage client, apiKey is required.
func NewClient(apiKey, api, gateway string, httpcli *http.Client, logger logSDK.Logger) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("nft.storage api key is required")
	}

	return &Client{
		apiKey:  apiKey,
		api:     strings.TrimRight(api, "/"),
		gateway: gateway,
		httpcli: httpcli,
		logger:  logger,
	}, nil
}

// Link returns the gateway url of cid.
func (c *Client) Link(cid string) string {
	return storage.JoinLink(c.gateway, "ipfs", cid)
}

// Upload stores the media and then the manifest rewritten to reference them.
func (c *Client) Upload(ctx context.Context,
	image, animation string, manifest []byte,
) (link, imageLink, animationLink string, err error) {
	if imageLink, err = c.UploadMedia(ctx, image); err != nil {
		return "", "", "", errors.Wrap(err, "upload image")
	}
	if animation != "" {
		if animationLink, err = c.UploadMedia(ctx, animation); err != nil {
			return "", "", "", errors.Wrap(err, "upload animation")
		}
	}

	updated, err := storage.RewriteManifest(manifest, image, animation, imageLink, animationLink)
	if err != nil {
		return "", "", "", errors.WithStack(err)
	}

	cid, err := c.StoreBlob(ctx, updated, storage.ContentTypeJSON)
	if err != nil {
		return "", "", "", errors.Wrap(err, "upload manifest")
	}

	return c.Link(cid), imageLink, animationLink, nil
}

// UploadMedia stores a single media file, returns its link
func (c *Client) UploadMedia(ctx context.Context, fpath string) (string, error) {
	media, err := storage.ReadMedia(fpath)
	if err != nil {
		return "", errors.WithStack(err)
	}

	cid, err := c.StoreBlob(ctx, media.Data, media.ContentType)
	if err != nil {
		return "", errors.Wrapf(err, "store %q", media.Name)
	}

	return c.Link(cid), nil
}

// UploadMetadata stores a manifest whose media are already hosted.
func (c *Client) UploadMetadata(ctx context.Context, manifest []byte) (string, error) {
	cid, err := c.StoreBlob(ctx, manifest, storage.ContentTypeJSON)
	if err != nil {
		return "", errors.Wrap(err, "upload manifest")
	}

	return c.Link(cid), nil
}

// StoreBlob stores data as a single blob, returns its CID
func (c *Client) StoreBlob(ctx context.Context, data []byte, contentType string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.api+"/upload", bytes.NewReader(data))
	if err != nil {
		return "", errors.Wrap(err, "new request")
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", contentType)

	resp, err := c.httpcli.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "do request")
	}
	defer gutils.CloseWithLog(resp.Body, c.logger)

	cnt, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errors.Wrap(err, "read response body")
	}

	respData := new(UploadResponse)
	if err = json.Unmarshal(cnt, respData); err != nil {
		if resp.StatusCode != http.StatusOK {
			return "", errors.Errorf("[%d] %s", resp.StatusCode, string(cnt))
		}
		return "", errors.Wrap(err, "unmarshal response")
	}
	if resp.StatusCode != http.StatusOK || !respData.OK {
		if respData.Error != nil {
			return "", errors.Errorf("[%d] %s: %s",
				resp.StatusCode, respData.Error.Name, respData.Error.Message)
		}
		return "", errors.Errorf("[%d] %s", resp.StatusCode, string(cnt))
	}
	if respData.Value.Cid == "" {
		return "", errors.New("upload response missing cid")
	}

	return respData.Value.Cid, nil
}
