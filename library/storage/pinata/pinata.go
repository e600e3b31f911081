// Package pinata pins NFT media and manifests with the Pinata API.
package pinata

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Laisky/errors/v2"
	gutils "github.com/Laisky/go-utils/v6"
	logSDK "github.com/Laisky/go-utils/v6/log"
	"github.com/golang-jwt/jwt/v5"

	"github.com/Laisky/nft-uploader/library/storage"
)

// DefaultGateway is used when no gateway override is given.
const DefaultGateway = "https://ipfs.io"

// PinResponse is the response of `/pinning/pinFileToIPFS`.
type PinResponse struct {
	IpfsHash  string `json:"IpfsHash"`
	PinSize   int64  `json:"PinSize"`
	Timestamp string `json:"Timestamp"`
}

// Client pinata API client
type Client struct {
	api            string
	defaultGateway string
	httpcli        *http.Client
	logger         logSDK.Logger
	now            func() time.Time
}

// NewClient create a new pinata client.
// defaultGateway is used when Upload gets no gateway, empty means DefaultGateway.
func NewClient(api, defaultGateway string, httpcli *http.Client, logger logSDK.Logger) *Client {
	if defaultGateway == "" {
		defaultGateway = DefaultGateway
	}

	return &Client{
		api:            strings.TrimRight(api, "/"),
		defaultGateway: defaultGateway,
		httpcli:        httpcli,
		logger:         logger,
		now:            time.Now,
	}
}

// Upload pins the media and then the manifest rewritten to reference them.
// gateway overrides the client's default gateway when not empty.
func (c *Client) Upload(ctx context.Context,
	image, animation string, manifest []byte, token, gateway string,
) (link, imageLink, animationLink string, err error) {
	if err = c.checkToken(token); err != nil {
		return "", "", "", errors.WithStack(err)
	}
	if gateway == "" {
		gateway = c.defaultGateway
	}

	if imageLink, err = c.pinFile(ctx, token, gateway, image); err != nil {
		return "", "", "", errors.Wrap(err, "upload image")
	}
	if animation != "" {
		if animationLink, err = c.pinFile(ctx, token, gateway, animation); err != nil {
			return "", "", "", errors.Wrap(err, "upload animation")
		}
	}

	updated, err := storage.RewriteManifest(manifest, image, animation, imageLink, animationLink)
	if err != nil {
		return "", "", "", errors.WithStack(err)
	}

	hash, err := c.Pin(ctx, token, "metadata.json", updated)
	if err != nil {
		return "", "", "", errors.Wrap(err, "upload manifest")
	}

	return storage.JoinLink(gateway, "ipfs", hash), imageLink, animationLink, nil
}

// checkToken rejects missing or expired JWTs before any request is sent.
// The signature is not verified, pinata does that.
func (c *Client) checkToken(token string) error {
	if strings.TrimSpace(token) == "" {
		return errors.New("pinata jwt is required")
	}

	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return errors.Wrap(err, "parse pinata jwt")
	}
	if claims.ExpiresAt != nil && !claims.ExpiresAt.After(c.now()) {
		return errors.Errorf("pinata jwt expired at %s", claims.ExpiresAt.Format(time.RFC3339))
	}

	return nil
}

func (c *Client) pinFile(ctx context.Context, token, gateway, fpath string) (string, error) {
	media, err := storage.ReadMedia(fpath)
	if err != nil {
		return "", errors.WithStack(err)
	}

	hash, err := c.Pin(ctx, token, media.Name, media.Data)
	if err != nil {
		return "", errors.WithStack(err)
	}

	return storage.JoinLink(gateway, "ipfs", hash), nil
}

// Pin pins data as a file, returns its IPFS hash
func (c *Client) Pin(ctx context.Context, token, name string, data []byte) (string, error) {
	body, contentType, err := storage.MultipartFile("file", name, data)
	if err != nil {
		return "", errors.WithStack(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.api+"/pinning/pinFileToIPFS", body)
	if err != nil {
		return "", errors.Wrap(err, "new request")
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpcli.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "do request")
	}
	defer gutils.CloseWithLog(resp.Body, c.logger)

	cnt, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errors.Wrap(err, "read response body")
	}
	if resp.StatusCode != http.StatusOK {
		return "", errors.Errorf("pin failed: [%d]%s", resp.StatusCode, string(cnt))
	}

	pinResp := new(PinResponse)
	if err = json.Unmarshal(cnt, pinResp); err != nil {
		return "", errors.Wrap(err, "unmarshal response")
	}
	if pinResp.IpfsHash == "" {
		return "", errors.New("pin response missing IpfsHash")
	}

	return pinResp.IpfsHash, nil
}
