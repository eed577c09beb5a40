package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dominant-strategies/go-blocktree/cmd/utils"
	"github.com/dominant-strategies/go-blocktree/common"
	"github.com/dominant-strategies/go-blocktree/common/constants"
	"github.com/dominant-strategies/go-blocktree/log"
)

var rootCmd = &cobra.Command{
	Use:               constants.APP_NAME,
	Short:             "validates bitcoin and dogecoin block headers and tracks the unstable block tree",
	PersistentPreRunE: rootCmdPreRun,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	for _, flag := range utils.GlobalFlags {
		utils.CreateAndBindFlag(flag, rootCmd)
	}
}

func rootCmdPreRun(cmd *cobra.Command, args []string) error {
	// set logger immediately after parsing cobra flags
	logLevel := cmd.Flag(utils.LogLevelFlag.Name).Value.String()
	dataDir := cmd.Flag(utils.DataDirFlag.Name).Value.String()
	log.SetGlobalLogger(filepath.Join(dataDir, constants.LOG_FILE_NAME), logLevel)
	// set config path to read config file
	configDir := cmd.Flag(utils.ConfigDirFlag.Name).Value.String()
	viper.SetConfigFile(filepath.Join(configDir, constants.CONFIG_FILE_NAME))
	viper.SetConfigType(constants.CONFIG_FILE_TYPE)
	// load config from file and environment variables
	common.InitConfig()
	// bind cobra flags to viper instance
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("error binding flags: %s", err)
	}

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return err
	}

	if viper.GetBool(utils.SaveConfigFlag.Name) {
		if err := common.SaveConfig(); err != nil {
			log.Global.WithField("error", err).Error("error saving config file. Skipping...")
		} else {
			log.Global.Debug("config file saved successfully")
		}
	}
	log.Global.WithField("options", viper.AllSettings()).Debug("config options loaded")
	return nil
}
