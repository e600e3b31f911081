// Package ipfs uploads NFT media and manifests through an IPFS HTTP API.
package ipfs

import (
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

// Credentials authenticate against the IPFS API with HTTP basic auth.
type Credentials struct {
	ProjectID string
	SecretKey string
}

// ParseCredentials parses `projectId:secretKey`.
func ParseCredentials(raw string) (Credentials, error) {
	projectID, secret, ok := strings.Cut(strings.TrimSpace(raw), ":")
	if !ok || projectID == "" || secret == "" {
		return Credentials{}, errors.New("ipfs credentials should be `projectId:secretKey`")
	}

	return Credentials{ProjectID: projectID, SecretKey: secret}, nil
}

// AddResponse is one object of the streamed `/api/v0/add` response.
type AddResponse struct {
	Name string `json:"Name"`
	Hash string `json:"Hash"`
	Size string `json:"Size"`
}

// Client IPFS HTTP API client
type Client struct {
	api     string
	gateway string
	httpcli *http.Client
	logger  logSDK.Logger
}

// NewClient create a new IPFS client.
// api is the API base url like `https://ipfs.infura.io:5001`,
// gateway is used to build links.
func NewClient(api, gateway string, httpcli *http.Client, logger logSDK.Logger) *Client {
	return &Client{
		api:     strings.TrimRight(api, "/"),
		gateway: gateway,
		httpcli: httpcli,
		logger:  logger,
	}
}

// Upload uploads the media and then the manifest rewritten to reference them.
func (c *Client) Upload(ctx context.Context,
	creds Credentials, image, animation string, manifest []byte,
) (link, imageLink, animationLink string, err error) {
	if imageLink, err = c.addFile(ctx, creds, image); err != nil {
		return "", "", "", errors.Wrap(err, "upload image")
	}
	if animation != "" {
		if animationLink, err = c.addFile(ctx, creds, animation); err != nil {
			return "", "", "", errors.Wrap(err, "upload animation")
		}
	}

	updated, err := storage.RewriteManifest(manifest, image, animation, imageLink, animationLink)
	if err != nil {
		return "", "", "", errors.WithStack(err)
	}

	cid, err := c.Add(ctx, creds, "metadata.json", updated)
	if err != nil {
		return "", "", "", errors.Wrap(err, "upload manifest")
	}

	return c.Link(cid), imageLink, animationLink, nil
}

// Link returns the gateway url of cid.
func (c *Client) Link(cid string) string {
	return storage.JoinLink(c.gateway, "ipfs", cid)
}

func (c *Client) addFile(ctx context.Context, creds Credentials, fpath string) (string, error) {
	media, err := storage.ReadMedia(fpath)
	if err != nil {
		return "", errors.WithStack(err)
	}

	cid, err := c.Add(ctx, creds, media.Name, media.Data)
	if err != nil {
		return "", errors.WithStack(err)
	}

	return c.Link(cid), nil
}

// Add adds and pins data, returns its CID
func (c *Client) Add(ctx context.Context, creds Credentials, name string, data []byte) (string, error) {
	body, contentType, err := storage.MultipartFile("file", name, data)
	if err != nil {
		return "", errors.WithStack(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.api+"/api/v0/add?pin=true", body)
	if err != nil {
		return "", errors.Wrap(err, "new request")
	}
	req.Header.Set("Content-Type", contentType)
	req.SetBasicAuth(creds.ProjectID, creds.SecretKey)

	resp, err := c.httpcli.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "do request")
	}
	defer gutils.CloseWithLog(resp.Body, c.logger)

	if resp.StatusCode != http.StatusOK {
		cnt, _ := io.ReadAll(resp.Body)
		return "", errors.Errorf("add failed: [%d]%s", resp.StatusCode, string(cnt))
	}

	// the API streams one object per added entry, the last one is the root
	dec := json.NewDecoder(resp.Body)
	var last AddResponse
	for {
		var chunk AddResponse
		if err := dec.Decode(&chunk); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return "", errors.Wrap(err, "decode add response")
		}
		last = chunk
	}

	if last.Hash == "" {
		return "", errors.New("add response missing hash")
	}

	return last.Hash, nil
}
