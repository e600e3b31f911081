// Package config loads the optional configuration file.
package config

import (
	"path/filepath"

	"github.com/Laisky/errors/v2"
	gconfig "github.com/Laisky/go-config/v2"
	"github.com/Laisky/zap"

	"github.com/Laisky/nft-uploader/library/log"
)

// LoadFromFile loads settings from cfgPath, an empty path keeps the defaults.
func LoadFromFile(cfgPath string) error {
	if cfgPath == "" {
		return nil
	}

	gconfig.S.Set("cfg_dir", filepath.Dir(cfgPath))
	if err := gconfig.S.LoadFromFile(cfgPath); err != nil {
		return errors.Wrapf(err, "load configuration %q", cfgPath)
	}

	log.Logger.Info("load configuration",
		zap.String("config", cfgPath))
	return nil
}
