package utils

import (
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/dominant-strategies/go-blocktree/node"
	"github.com/dominant-strategies/go-blocktree/params"
)

// MakeChainConfig returns the parameters of the configured network.
func MakeChainConfig() (*params.ChainConfig, error) {
	return params.ChainConfigByName(viper.GetString(NetworkFlag.Name))
}

// MakeNodeConfig builds the node settings from flags, environment and config
// file. Each network keeps its database in its own directory.
func MakeNodeConfig(chainConfig *params.ChainConfig) *node.Config {
	return &node.Config{
		DataDir:            filepath.Join(viper.GetString(DataDirFlag.Name), chainConfig.Name),
		DBEngine:           viper.GetString(DBEngineFlag.Name),
		DatabaseCache:      viper.GetInt(DBCacheFlag.Name),
		DatabaseHandles:    viper.GetInt(DBHandlesFlag.Name),
		PayloadCache:       viper.GetInt(PayloadCacheFlag.Name),
		StabilityThreshold: viper.GetUint64(StabilityThresholdFlag.Name),
		OrphanPoolSize:     viper.GetInt(OrphanPoolFlag.Name),
		OrphanTTL:          viper.GetDuration(OrphanTTLFlag.Name),
	}
}

// defaultConfig maps every flag of groups to its current value, falling
// back to the flag's default.
func defaultConfig(groups [][]Flag) map[string]interface{} {
	settings := make(map[string]interface{})
	for _, group := range groups {
		for _, flag := range group {
			value := flag.GetValue()
			if viper.IsSet(flag.GetName()) {
				value = viper.Get(flag.GetName())
			}
			if d, ok := value.(time.Duration); ok {
				value = d.String()
			}
			settings[flag.GetName()] = value
		}
	}
	return settings
}

// WriteDefaultConfigFile writes the settings of every config file flag to
// fileName in configDir. The file must not exist yet.
func WriteDefaultConfigFile(configDir string, fileName string) error {
	data, err := toml.Marshal(defaultConfig(Flags))
	if err != nil {
		return errors.Wrap(err, "encode config")
	}
	path := filepath.Join(configDir, fileName)
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return errors.Wrap(err, "create config file")
	}
	if _, err := file.Write(data); err != nil {
		file.Close()
		return errors.Wrap(err, "write config file")
	}
	return file.Close()
}
