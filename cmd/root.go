// Package cmd command line
package cmd

import (
	"context"
	"fmt"

	"github.com/Laisky/errors/v2"
	gconfig "github.com/Laisky/go-config/v2"
	gcmd "github.com/Laisky/go-utils/v6/cmd"
	glog "github.com/Laisky/go-utils/v6/log"
	"github.com/Laisky/zap"
	"github.com/spf13/cobra"

	"github.com/Laisky/nft-uploader/library/config"
	"github.com/Laisky/nft-uploader/library/log"
)

var rootCMD = &cobra.Command{
	Use:           "nft-uploader",
	Short:         "nft-uploader",
	Long:          `upload NFT media and metadata to arweave, s3, ipfs, pinata or nft.storage`,
	Args:          gcmd.NoExtraArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func initialize(ctx context.Context, cmd *cobra.Command) error {
	if err := gconfig.S.BindPFlags(cmd.Flags()); err != nil {
		return errors.Wrap(err, "bind pflags")
	}

	if err := setupSettings(ctx); err != nil {
		return errors.Wrap(err, "setup settings")
	}
	if err := setupLogger(ctx); err != nil {
		return errors.Wrap(err, "setup logger")
	}

	return nil
}

func setupSettings(ctx context.Context) error {
	// mode
	if gconfig.S.GetBool("debug") {
		fmt.Println("run in debug mode")
		gconfig.S.Set("log-level", "debug")
	}

	// load configuration
	if err := config.LoadFromFile(gconfig.S.GetString("config")); err != nil {
		return errors.WithStack(err)
	}

	return validateStartupConfig()
}

func setupLogger(ctx context.Context) error {
	lvl := gconfig.S.GetString("log-level")
	if err := log.Logger.ChangeLevel(glog.Level(lvl)); err != nil {
		return errors.Wrapf(err, "change log level to %q", lvl)
	}

	log.Logger.Debug("set log level", zap.String("level", lvl))
	return nil
}

func init() {
	rootCMD.PersistentFlags().Bool("debug", false, "run in debug mode")
	rootCMD.PersistentFlags().StringP("config", "c", "", "optional config file path")
	rootCMD.PersistentFlags().StringP("keypair", "k", "", "Solana wallet location")
	rootCMD.PersistentFlags().StringP("env", "e", "devnet", "Solana cluster env name, `devnet/testnet/mainnet-beta`")
	rootCMD.PersistentFlags().StringP("rpc-url", "r", "", "Optional: Custom RPC url")
	rootCMD.PersistentFlags().StringP("log-level", "l", "info", "`debug/info/warn/error`")
	if err := rootCMD.MarkPersistentFlagRequired("keypair"); err != nil {
		log.Logger.Panic("mark keypair required", zap.Error(err))
	}
}

// Execute execute root command
func Execute() {
	if err := rootCMD.Execute(); err != nil {
		log.Logger.Fatal("run", zap.Error(err))
	}
}
