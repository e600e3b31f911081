package cmd

import (
	"context"

	"github.com/Laisky/errors/v2"
	gcmd "github.com/Laisky/go-utils/v6/cmd"
	logSDK "github.com/Laisky/go-utils/v6/log"
	"github.com/Laisky/zap"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/Laisky/nft-uploader/internal/upload"
	"github.com/Laisky/nft-uploader/library/config"
	"github.com/Laisky/nft-uploader/library/log"
	"github.com/Laisky/nft-uploader/library/wallet"
)

// uploadFunc is one dispatcher operation bound to a command.
type uploadFunc func(d *upload.Dispatcher, ctx context.Context, file, storage string) (*upload.Report, error)

var uploadCMD = &cobra.Command{
	Use:   "upload-to-storage",
	Short: "upload an asset manifest with its local media",
	Long: `upload the anchor json file with its local image and optional animation.
image and animation_url are file names relative to the manifest directory`,
	Args: gcmd.NoExtraArgs,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return initialize(cmd.Context(), cmd)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runUpload(cmd.Context(), "upload", (*upload.Dispatcher).UploadToStorage)
	},
}

var uploadMediaCMD = &cobra.Command{
	Use:   "upload-media-to-storage",
	Short: "upload a single media file",
	Args:  gcmd.NoExtraArgs,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return initialize(cmd.Context(), cmd)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runUpload(cmd.Context(), "upload_media", (*upload.Dispatcher).UploadMediaToStorage)
	},
}

var uploadMetadataCMD = &cobra.Command{
	Use:   "upload-metadata-to-storage",
	Short: "upload a manifest whose media are already hosted",
	Long: `upload the anchor json file only.
image and animation_url must be absolute URLs`,
	Args: gcmd.NoExtraArgs,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return initialize(cmd.Context(), cmd)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runUpload(cmd.Context(), "upload_metadata", (*upload.Dispatcher).UploadMetadataToStorage)
	},
}

func init() {
	for cmd, usage := range map[*cobra.Command]string{
		uploadCMD:         "Anchor json file, like `assets/0.json`",
		uploadMediaCMD:    "Media file path",
		uploadMetadataCMD: "Anchor json file, like `assets/0.json`",
	} {
		if err := addStorageFlags(cmd, usage); err != nil {
			log.Logger.Panic("add storage flags", zap.String("cmd", cmd.Use), zap.Error(err))
		}
		rootCMD.AddCommand(cmd)
	}
}

func runUpload(ctx context.Context, name string, op uploadFunc) error {
	if ctx == nil {
		ctx = context.Background()
	}

	settings := config.LoadSettingsFromConfig()
	opts := loadOptionsFromConfig(settings)
	logger := log.Logger.Named(name).With(zap.String("run_id", uuid.NewString()))

	owner, err := wallet.LoadKeypair(opts.Keypair)
	if err != nil {
		return errors.Wrap(err, "load keypair")
	}
	logger.Debug("load keypair", zap.String("wallet", owner.PublicKey.ToBase58()))

	registry, err := buildRegistry(opts, settings, owner, logger)
	if err != nil {
		return errors.Wrap(err, "build registry")
	}

	dispatcher, err := upload.NewDispatcher(registry, logger)
	if err != nil {
		return errors.Wrap(err, "new dispatcher")
	}

	_, err = op(dispatcher, ctx, opts.File, opts.Storage)
	return handleUploadError(logger, err)
}

// handleUploadError logs backend failures and returns every other error.
func handleUploadError(logger logSDK.Logger, err error) error {
	if err == nil {
		return nil
	}

	if upload.IsInvocationError(err) {
		logger.Error("error uploading", zap.Error(err))
		return nil
	}

	return err
}
