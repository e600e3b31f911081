// Package arweave uploads NFT media and manifests as Arweave data transactions.
package arweave

import (
	"context"

	"github.com/Laisky/errors/v2"
	"github.com/blocto/solana-go-sdk/types"
	"github.com/everFinance/goar"
	artypes "github.com/everFinance/goar/types"

	"github.com/Laisky/nft-uploader/library/storage"
	"github.com/Laisky/nft-uploader/library/wallet"
)

// DataSender signs and posts a data transaction.
// *goar.Wallet implements it.
type DataSender interface {
	SendData(data []byte, tags []artypes.Tag) (artypes.Transaction, error)
}

// Uploader arweave uploader
type Uploader struct {
	sender  DataSender
	gateway string
}

// NewUploader create a new arweave uploader from a JWK wallet file.
// node is the arweave node used to post transactions, gateway is used to build links.
func NewUploader(walletPath, node, gateway string) (*Uploader, error) {
	if walletPath == "" {
		return nil, errors.New("arweave wallet file is required")
	}

	w, err := goar.NewWalletFromPath(walletPath, node)
	if err != nil {
		return nil, errors.Wrapf(err, "load arweave wallet %q", walletPath)
	}

	return NewUploaderWithSender(w, gateway), nil
}

// NewUploaderWithSender create a new arweave uploader over sender
func NewUploaderWithSender(sender DataSender, gateway string) *Uploader {
	return &Uploader{sender: sender, gateway: gateway}
}

// Upload upload data to arweave, returns the transaction id
func (u *Uploader) Upload(ctx context.Context,
	data []byte, opts ...UploadOption) (txID string, err error) {
	opt, err := new(uploadOption).apply(opts...)
	if err != nil {
		return "", err
	}

	if err = ctx.Err(); err != nil {
		return "", errors.Wrap(err, "upload to arweave")
	}

	tags := append([]artypes.Tag{
		{Name: "Content-Type", Value: opt.contentType},
	}, opt.tags...)

	tx, err := u.sender.SendData(data, tags)
	if err != nil {
		return "", errors.Wrap(err, "send data to arweave")
	}
	if tx.ID == "" {
		return "", errors.New("arweave returned empty transaction id")
	}

	return tx.ID, nil
}

// UploadNFT uploads the image and then the manifest rewritten to reference it.
//
// Animation is not part of an arweave upload, only link and imageLink are returned.
func (u *Uploader) UploadNFT(ctx context.Context,
	owner types.Account,
	program *wallet.Program,
	image string,
	manifest []byte,
	index string,
) (link, imageLink string, err error) {
	if program == nil {
		return "", "", errors.New("chain program is not loaded")
	}

	media, err := storage.ReadMedia(image)
	if err != nil {
		return "", "", errors.WithStack(err)
	}

	ownerTags := []UploadOption{
		WithTag("Solana-Wallet", owner.PublicKey.ToBase58()),
		WithTag("Solana-Env", program.Env),
		WithTag("Candy-Program", program.ID),
		WithTag("Asset-Index", index),
	}

	imageTx, err := u.Upload(ctx, media.Data,
		append(ownerTags, WithContentType(media.ContentType))...)
	if err != nil {
		return "", "", errors.Wrap(err, "upload image")
	}

	imageLink = storage.JoinLink(u.gateway, imageTx)
	if ext := storage.Ext(image); ext != "" {
		imageLink += "?ext=" + ext
	}

	updated, err := storage.RewriteManifest(manifest, image, "", imageLink, "")
	if err != nil {
		return "", "", errors.WithStack(err)
	}

	manifestTx, err := u.Upload(ctx, updated,
		append(ownerTags, WithContentType(storage.ContentTypeJSON))...)
	if err != nil {
		return "", "", errors.Wrap(err, "upload manifest")
	}

	return storage.JoinLink(u.gateway, manifestTx), imageLink, nil
}
