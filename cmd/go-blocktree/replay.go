package main

import (
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/dominant-strategies/go-blocktree/cmd/utils"
	"github.com/dominant-strategies/go-blocktree/log"
	"github.com/dominant-strategies/go-blocktree/metrics_config"
	"github.com/dominant-strategies/go-blocktree/node"
)

var replayCmd = &cobra.Command{
	Use:   "replay <file>",
	Short: "feeds a file of hex encoded blocks to the node",
	Long: `replay reads one hex encoded block per line and validates it against the
stable and unstable chains of the configured network. Files ending in .gz are
decompressed. On a fresh data directory the first block is the anchor of the
stable chain, at the height given by --anchor-height.`,
	Args:                       cobra.ExactArgs(1),
	RunE:                       runReplay,
	SilenceUsage:               true,
	SuggestionsMinimumDistance: 2,
	Example:                    `go-blocktree replay --network regtest blocks.hex.gz`,
}

func init() {
	rootCmd.AddCommand(replayCmd)

	for _, group := range [][]utils.Flag{utils.NodeFlags, utils.MetricsFlags, utils.ReplayFlags} {
		for _, flag := range group {
			utils.CreateAndBindFlag(flag, replayCmd)
		}
	}
}

// openNode opens the node of the configured network.
func openNode() (*node.Node, error) {
	chainConfig, err := utils.MakeChainConfig()
	if err != nil {
		return nil, err
	}
	conf := utils.MakeNodeConfig(chainConfig)
	log.Global.WithFields(log.Fields{
		"network": chainConfig.Name,
		"datadir": conf.DataDir,
	}).Info("Opening node")
	return node.New(conf, chainConfig, log.Global)
}

func runReplay(cmd *cobra.Command, args []string) error {
	if viper.GetBool(utils.MetricsEnabledFlag.Name) {
		log.Global.Info("Starting metrics")
		metrics_config.EnableMetrics()
		go func() {
			if err := metrics_config.StartProcessMetrics(viper.GetString(utils.MetricsAddrFlag.Name), log.Global); err != nil {
				log.Global.WithField("err", err).Error("Metrics server stopped")
			}
		}()
	}

	anchorHeight := viper.GetUint64(utils.AnchorHeightFlag.Name)
	if anchorHeight > uint64(^uint32(0)) {
		return errors.Errorf("anchor height %d out of range", anchorHeight)
	}

	n, err := openNode()
	if err != nil {
		return err
	}
	stats, importErr := utils.ImportFile(n, args[0], utils.ImportOptions{
		AnchorHeight: uint32(anchorHeight),
		StopOnError:  viper.GetBool(utils.StopOnErrorFlag.Name),
	})
	if err := n.Close(); err != nil {
		log.Global.WithField("err", err).Error("Failed to close node")
	}
	if stats != nil {
		enc := yaml.NewEncoder(os.Stdout)
		defer enc.Close()
		if err := enc.Encode(stats); err != nil {
			return err
		}
	}
	return importErr
}
