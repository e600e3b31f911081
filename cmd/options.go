package cmd

import (
	"strings"

	"github.com/Laisky/errors/v2"
	gconfig "github.com/Laisky/go-config/v2"
	"github.com/spf13/cobra"

	"github.com/Laisky/nft-uploader/library/config"
)

// options are the flag values of one upload command.
type options struct {
	Keypair         string
	Env             string
	RPCURL          string
	File            string
	Storage         string
	NftStorageKey   string
	IpfsCredentials string
	PinataJWT       string
	PinataGateway   string
	AwsS3Bucket     string
	ArweaveWallet   string
}

// addStorageFlags registers the flags shared by every upload command.
func addStorageFlags(cmd *cobra.Command, fileUsage string) error {
	cmd.Flags().StringP("file", "f", "", fileUsage)
	cmd.Flags().StringP("storage", "s", "", "storage type, `arweave/aws/ipfs/pinata/nft-storage`")
	cmd.Flags().String("nft-storage-key", "", "Optional: NFT storage key")
	cmd.Flags().String("ipfs-credentials", "", "Optional: IPFS credentials, `projectId:secretKey`")
	cmd.Flags().String("pinata-jwt", "", "Optional: Pinata JWT")
	cmd.Flags().String("pinata-gateway", "", "Optional: Pinata Gateway")
	cmd.Flags().String("aws-s3-bucket", "", "Optional: AWS S3 Bucket")
	cmd.Flags().String("arweave-wallet", "", "Optional: Arweave JWK wallet file")

	for _, name := range []string{"file", "storage"} {
		if err := cmd.MarkFlagRequired(name); err != nil {
			return errors.Wrapf(err, "mark %s required", name)
		}
	}

	return nil
}

// loadOptions reads flag values through get.
// The arweave wallet flag falls back to `settings.arweave.wallet_file`.
func loadOptions(get config.Getter, settings config.Settings) options {
	str := func(key string) string {
		v, _ := get(key).(string)
		return strings.TrimSpace(v)
	}

	opts := options{
		Keypair:         str("keypair"),
		Env:             str("env"),
		RPCURL:          str("rpc-url"),
		File:            str("file"),
		Storage:         str("storage"),
		NftStorageKey:   str("nft-storage-key"),
		IpfsCredentials: str("ipfs-credentials"),
		PinataJWT:       str("pinata-jwt"),
		PinataGateway:   str("pinata-gateway"),
		AwsS3Bucket:     str("aws-s3-bucket"),
		ArweaveWallet:   str("arweave-wallet"),
	}
	if opts.Env == "" {
		opts.Env = "devnet"
	}
	if opts.ArweaveWallet == "" {
		opts.ArweaveWallet = settings.Arweave.WalletFile
	}

	return opts
}

func loadOptionsFromConfig(settings config.Settings) options {
	return loadOptions(func(key string) any {
		return gconfig.S.Get(key)
	}, settings)
}
