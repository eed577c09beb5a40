package main

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/dominant-strategies/go-blocktree/cmd/utils"
	"github.com/dominant-strategies/go-blocktree/common/constants"
	"github.com/dominant-strategies/go-blocktree/log"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "creates the default config file",
	Long: `creates the default config file in the location specified by the --config-dir flag.
The default config file will contain all the default values for the flags.
Any flags passed in the command line here will also overwrite the default values in the config file.`,
	RunE:                       runConfig,
	SilenceUsage:               true,
	SuggestionsMinimumDistance: 2,
	Example:                    `go-blocktree config --network dogecoin --stability-threshold 240`,
}

func init() {
	rootCmd.AddCommand(configCmd)

	for _, flagGroup := range utils.Flags[1:] {
		for _, flag := range flagGroup {
			utils.CreateAndBindFlag(flag, configCmd)
		}
	}
}

func runConfig(cmd *cobra.Command, args []string) error {
	configDir := filepath.Clean(cmd.Flag(utils.ConfigDirFlag.Name).Value.String())
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return errors.Wrapf(err, "create config directory %s", configDir)
	}
	path := filepath.Join(configDir, constants.CONFIG_FILE_NAME)
	if _, err := os.Stat(path); err == nil {
		return errors.Errorf("config file %s already exists, delete it to initialize a new one", path)
	}
	if err := utils.WriteDefaultConfigFile(configDir, constants.CONFIG_FILE_NAME); err != nil {
		return err
	}
	log.Global.WithField("path", path).Info("Initialized new config file")
	return nil
}
