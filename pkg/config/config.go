// Package config loads the settings shared by the api facade and the CLI.
//
// Values come from, in increasing priority: built-in defaults, a config file
// (YAML, JSON or TOML; ~/.hive-tx.yaml when no path is given), and HIVETX_*
// environment variables such as HIVETX_CHAIN_ID.
package config

import (
	"time"
	"unicode/utf8"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/suffix-labs/hive-tx-go/pkg/crypto"
	"github.com/suffix-labs/hive-tx-go/pkg/hiveerr"
	"github.com/suffix-labs/hive-tx-go/pkg/log"
	"github.com/suffix-labs/hive-tx-go/pkg/memo"
	"github.com/suffix-labs/hive-tx-go/pkg/serializer"
	"github.com/suffix-labs/hive-tx-go/pkg/tx"
)

// EnvPrefix prefixes environment overrides.
const EnvPrefix = "HIVETX"

// FileName is the config file searched for in the home directory.
const FileName = ".hive-tx"

var logger = log.New("config")

// Config holds the chain and encoding settings.
type Config struct {
	ChainID       string        `mapstructure:"chain_id"`
	AddressPrefix string        `mapstructure:"address_prefix"`
	MemoMarker    string        `mapstructure:"memo_marker"`
	ExpireTime    time.Duration `mapstructure:"expire_time"`
	AssetEncoding string        `mapstructure:"asset_encoding"`
	Debug         bool          `mapstructure:"debug"`
}

// Default returns the main network settings.
func Default() Config {
	return Config{
		ChainID:       tx.MainnetChainID.String(),
		AddressPrefix: crypto.DefaultAddressPrefix,
		MemoMarker:    memo.DefaultMarker,
		ExpireTime:    tx.DefaultExpireTime,
		AssetEncoding: serializer.AssetLegacy.String(),
	}
}

// Load reads path, or the home directory config file when path is empty,
// applies environment overrides and validates the result. A missing home
// config file is not an error; a missing explicit path is.
func Load(path string) (Config, error) {
	v := viper.New()
	def := Default()
	v.SetDefault("chain_id", def.ChainID)
	v.SetDefault("address_prefix", def.AddressPrefix)
	v.SetDefault("memo_marker", def.MemoMarker)
	v.SetDefault("expire_time", def.ExpireTime)
	v.SetDefault("asset_encoding", def.AssetEncoding)
	v.SetDefault("debug", def.Debug)

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			return Config{}, errors.Wrap(err, "failed to find home directory")
		}
		v.AddConfigPath(home)
		v.SetConfigName(FileName)
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || path != "" {
			return Config{}, errors.Wrap(err, "failed to read config")
		}
	} else {
		logger.WithField("file", v.ConfigFileUsed()).Debug("using config file")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, errors.Wrap(err, "failed to decode config")
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks every field.
func (c Config) Validate() error {
	if _, err := c.Chain(); err != nil {
		return errors.Wrap(err, "chain_id")
	}
	if c.AddressPrefix == "" {
		return hiveerr.Malformed("address_prefix is empty")
	}
	if utf8.RuneCountInString(c.MemoMarker) != 1 {
		return hiveerr.Malformed("memo_marker must be one character, got %q", c.MemoMarker)
	}
	if c.ExpireTime <= 0 || c.ExpireTime > tx.MaxExpireTime {
		return hiveerr.OutOfRange("expire_time %s outside (0, %s]", c.ExpireTime, tx.MaxExpireTime)
	}
	if _, err := c.Encoding(); err != nil {
		return errors.Wrap(err, "asset_encoding")
	}
	return nil
}

// Chain parses ChainID.
func (c Config) Chain() (tx.ChainID, error) {
	return tx.ParseChainID(c.ChainID)
}

// Encoding parses AssetEncoding.
func (c Config) Encoding() (serializer.AssetEncoding, error) {
	return serializer.ParseAssetEncoding(c.AssetEncoding)
}
