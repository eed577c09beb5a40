package common

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/dominant-strategies/go-blocktree/common/constants"
	"github.com/dominant-strategies/go-blocktree/log"
)

// InitConfig initializes the viper config instance ensuring that environment variables
// take precedence over config file parameters.
// Environment variables are prefixed with the application name and use
// underscores for dashes (e.g. GO_BLOCKTREE_LOG_LEVEL).
// It panics if the config file exists but cannot be read.
func InitConfig() {
	// read in config file and merge with defaults
	log.Infof("Loading config from file: %s", viper.ConfigFileUsed())
	err := viper.ReadInConfig()
	if err != nil {
		// if error is type ConfigFileNotFoundError or fs.PathError, ignore error
		if _, ok := err.(*fs.PathError); ok || errors.Is(err, viper.ConfigFileNotFoundError{}) {
			log.Warnf("Config file not found: %s", viper.ConfigFileUsed())
		} else {
			log.Errorf("Error reading config file: %s", err)
			// config file was found but another error was produced. Cannot continue
			panic(err)
		}
	}

	log.Infof("Loading config from environment variables with prefix: '%s_'", constants.ENV_PREFIX)
	viper.SetEnvPrefix(constants.ENV_PREFIX)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

// SaveConfig writes the current config parameters to the config file in use.
//
// If the config file does not exist, it is created along with its directory.
// If it exists, a backup copy ending with .bak is made before it is
// overwritten.
func SaveConfig() error {
	configFile := viper.ConfigFileUsed()
	log.Debugf("saving/updating config file: %s", configFile)
	if _, err := os.Stat(configFile); err == nil {
		// config file exists, create backup copy
		if err := os.Rename(configFile, configFile+".bak"); err != nil {
			return err
		}
	} else if os.IsNotExist(err) {
		if err := os.MkdirAll(filepath.Dir(configFile), 0755); err != nil {
			return err
		}
	} else {
		return err
	}
	return viper.WriteConfigAs(configFile)
}
