package upload

import (
	"context"

	errors "github.com/Laisky/errors/v2"
	"github.com/blocto/solana-go-sdk/types"

	"github.com/Laisky/nft-uploader/library/storage/ipfs"
	"github.com/Laisky/nft-uploader/library/wallet"
)

// The interfaces below are the native contracts of each storage client.
// The backends in this file normalize them into Backend.

// ArweaveUploader uploads an image and its manifest in arweave transactions.
type ArweaveUploader interface {
	UploadNFT(ctx context.Context, owner types.Account, program *wallet.Program,
		image string, manifest []byte, index string) (link, imageLink string, err error)
}

// AwsUploader uploads media and manifest into a bucket.
type AwsUploader interface {
	Upload(ctx context.Context, bucket, image, animation string,
		manifest []byte) (link, imageLink, animationLink string, err error)
}

// IpfsUploader adds media and manifest through an authenticated IPFS API.
type IpfsUploader interface {
	Upload(ctx context.Context, creds ipfs.Credentials, image, animation string,
		manifest []byte) (link, imageLink, animationLink string, err error)
}

// PinataUploader pins media and manifest with a JWT and optional gateway.
type PinataUploader interface {
	Upload(ctx context.Context, image, animation string, manifest []byte,
		token, gateway string) (link, imageLink, animationLink string, err error)
}

// NftStorageClient is the NFT.Storage client contract.
type NftStorageClient interface {
	Upload(ctx context.Context, image, animation string,
		manifest []byte) (link, imageLink, animationLink string, err error)
	UploadMedia(ctx context.Context, fpath string) (string, error)
	UploadMetadata(ctx context.Context, manifest []byte) (link string, err error)
}

// Lazy builds a dependency at call time, so missing credentials
// surface as a backend failure of the command that needs them.
type Lazy[T any] func(ctx context.Context) (T, error)

// ArweaveBackend uploads with the command's wallet and chain program.
type ArweaveBackend struct {
	owner    types.Account
	program  Lazy[*wallet.Program]
	uploader Lazy[ArweaveUploader]
}

// NewArweaveBackend creates the arweave backend.
func NewArweaveBackend(owner types.Account,
	program Lazy[*wallet.Program], uploader Lazy[ArweaveUploader]) *ArweaveBackend {
	return &ArweaveBackend{owner: owner, program: program, uploader: uploader}
}

// Upload implements Backend. The animation slot is always empty.
func (b *ArweaveBackend) Upload(ctx context.Context, req Request) (Result, error) {
	program, err := b.program(ctx)
	if err != nil {
		return Result{}, errors.Wrap(err, "load chain program")
	}
	uploader, err := b.uploader(ctx)
	if err != nil {
		return Result{}, errors.Wrap(err, "new arweave uploader")
	}

	link, imageLink, err := uploader.UploadNFT(ctx, b.owner, program,
		req.Sources.Image, req.Manifest.Raw, req.Asset.Index)
	if err != nil {
		return Result{}, errors.WithStack(err)
	}

	return Result{Link: link, ImageLink: imageLink}, nil
}

// AwsBackend uploads into one bucket.
type AwsBackend struct {
	uploader Lazy[AwsUploader]
	bucket   string
}

// NewAwsBackend creates the s3 backend.
func NewAwsBackend(uploader Lazy[AwsUploader], bucket string) *AwsBackend {
	return &AwsBackend{uploader: uploader, bucket: bucket}
}

// Upload implements Backend.
func (b *AwsBackend) Upload(ctx context.Context, req Request) (Result, error) {
	uploader, err := b.uploader(ctx)
	if err != nil {
		return Result{}, errors.Wrap(err, "new s3 uploader")
	}

	return resultOf(uploader.Upload(ctx, b.bucket,
		req.Sources.Image, req.Sources.Animation, req.Manifest.Raw))
}

// IpfsBackend uploads with `projectId:secretKey` credentials.
type IpfsBackend struct {
	uploader    IpfsUploader
	credentials string
}

// NewIpfsBackend creates the ipfs backend.
func NewIpfsBackend(uploader IpfsUploader, credentials string) *IpfsBackend {
	return &IpfsBackend{uploader: uploader, credentials: credentials}
}

// Upload implements Backend.
func (b *IpfsBackend) Upload(ctx context.Context, req Request) (Result, error) {
	creds, err := ipfs.ParseCredentials(b.credentials)
	if err != nil {
		return Result{}, errors.WithStack(err)
	}

	return resultOf(b.uploader.Upload(ctx, creds,
		req.Sources.Image, req.Sources.Animation, req.Manifest.Raw))
}

// PinataBackend uploads with a JWT and an optional gateway override.
type PinataBackend struct {
	uploader PinataUploader
	token    string
	gateway  string
}

// NewPinataBackend creates the pinata backend.
func NewPinataBackend(uploader PinataUploader, token, gateway string) *PinataBackend {
	return &PinataBackend{uploader: uploader, token: token, gateway: gateway}
}

// Upload implements Backend.
func (b *PinataBackend) Upload(ctx context.Context, req Request) (Result, error) {
	return resultOf(b.uploader.Upload(ctx,
		req.Sources.Image, req.Sources.Animation, req.Manifest.Raw, b.token, b.gateway))
}

// NftStorageBackend implements every upload operation.
type NftStorageBackend struct {
	client Lazy[NftStorageClient]
}

// NewNftStorageBackend creates the NFT.Storage backend.
// client is built per call from the api key.
func NewNftStorageBackend(client Lazy[NftStorageClient]) *NftStorageBackend {
	return &NftStorageBackend{client: client}
}

// Upload implements Backend.
func (b *NftStorageBackend) Upload(ctx context.Context, req Request) (Result, error) {
	cli, err := b.client(ctx)
	if err != nil {
		return Result{}, errors.Wrap(err, "new nft.storage client")
	}

	return resultOf(cli.Upload(ctx,
		req.Sources.Image, req.Sources.Animation, req.Manifest.Raw))
}

// UploadMedia implements MediaUploader.
func (b *NftStorageBackend) UploadMedia(ctx context.Context, fpath string) (string, error) {
	cli, err := b.client(ctx)
	if err != nil {
		return "", errors.Wrap(err, "new nft.storage client")
	}

	return cli.UploadMedia(ctx, fpath)
}

// UploadMetadata implements MetadataUploader.
// The media links are the hosted URLs the manifest already declares.
func (b *NftStorageBackend) UploadMetadata(ctx context.Context, m *Manifest) (Result, error) {
	cli, err := b.client(ctx)
	if err != nil {
		return Result{}, errors.Wrap(err, "new nft.storage client")
	}

	link, err := cli.UploadMetadata(ctx, m.Raw)
	return resultOf(link, m.Image, m.Animation, err)
}

func resultOf(link, imageLink, animationLink string, err error) (Result, error) {
	if err != nil {
		return Result{}, errors.WithStack(err)
	}

	return Result{Link: link, ImageLink: imageLink, AnimationLink: animationLink}, nil
}
