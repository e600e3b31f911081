package cmd

import (
	"context"

	"github.com/Laisky/errors/v2"
	gutils "github.com/Laisky/go-utils/v6"
	logSDK "github.com/Laisky/go-utils/v6/log"
	"github.com/blocto/solana-go-sdk/types"

	"github.com/Laisky/nft-uploader/internal/upload"
	"github.com/Laisky/nft-uploader/library/config"
	"github.com/Laisky/nft-uploader/library/storage/arweave"
	"github.com/Laisky/nft-uploader/library/storage/aws"
	"github.com/Laisky/nft-uploader/library/storage/ipfs"
	"github.com/Laisky/nft-uploader/library/storage/nftstorage"
	"github.com/Laisky/nft-uploader/library/storage/pinata"
	"github.com/Laisky/nft-uploader/library/wallet"
)

// buildRegistry binds every storage type to a backend configured from
// opts and settings. Credentials are only checked when a backend is called.
func buildRegistry(opts options, settings config.Settings,
	owner types.Account, logger logSDK.Logger) (*upload.Registry, error) {
	httpcli, err := gutils.NewHTTPClient(
		gutils.WithHTTPClientTimeout(settings.HTTPTimeout),
	)
	if err != nil {
		return nil, errors.Wrap(err, "new http client")
	}

	registry := upload.NewRegistry()

	registry.Register(upload.StorageArweave, upload.NewArweaveBackend(owner,
		func(ctx context.Context) (*wallet.Program, error) {
			rpcCli, endpoint, err := wallet.NewRPCClient(opts.Env, opts.RPCURL)
			if err != nil {
				return nil, errors.WithStack(err)
			}
			return wallet.LoadProgram(ctx, rpcCli, wallet.CandyMachineV2ProgramID, opts.Env, endpoint)
		},
		func(ctx context.Context) (upload.ArweaveUploader, error) {
			up, err := arweave.NewUploader(opts.ArweaveWallet,
				settings.Arweave.Node, settings.Arweave.Gateway)
			if err != nil {
				return nil, errors.WithStack(err)
			}
			return up, nil
		},
	))

	registry.Register(upload.StorageAws, upload.NewAwsBackend(
		func(ctx context.Context) (upload.AwsUploader, error) {
			cli, err := aws.NewClient(settings.Aws.Endpoint, settings.Aws.Region)
			if err != nil {
				return nil, errors.WithStack(err)
			}
			return aws.NewUploader(cli), nil
		},
		opts.AwsS3Bucket,
	))

	registry.Register(upload.StorageIpfs, upload.NewIpfsBackend(
		ipfs.NewClient(settings.Ipfs.API, settings.Ipfs.Gateway, httpcli, logger.Named("ipfs")),
		opts.IpfsCredentials,
	))

	registry.Register(upload.StoragePinata, upload.NewPinataBackend(
		pinata.NewClient(settings.Pinata.API, settings.Pinata.Gateway, httpcli, logger.Named("pinata")),
		opts.PinataJWT,
		opts.PinataGateway,
	))

	registry.Register(upload.StorageNftStorage, upload.NewNftStorageBackend(
		func(ctx context.Context) (upload.NftStorageClient, error) {
			cli, err := nftstorage.NewClient(opts.NftStorageKey,
				settings.NftStorage.API, settings.NftStorage.Gateway, httpcli, logger.Named("nft_storage"))
			if err != nil {
				return nil, errors.WithStack(err)
			}
			return cli, nil
		},
	))

	return registry, nil
}
