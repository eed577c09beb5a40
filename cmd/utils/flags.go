package utils

import (
	"fmt"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dominant-strategies/go-blocktree/common/constants"
	"github.com/dominant-strategies/go-blocktree/log"
	"github.com/dominant-strategies/go-blocktree/metrics_config"
	"github.com/dominant-strategies/go-blocktree/node"
	"github.com/dominant-strategies/go-blocktree/params"
)

var GlobalFlags = []Flag{
	ConfigDirFlag,
	DataDirFlag,
	LogLevelFlag,
	SaveConfigFlag,
	NetworkFlag,
}

var NodeFlags = []Flag{
	DBEngineFlag,
	DBCacheFlag,
	DBHandlesFlag,
	PayloadCacheFlag,
	StabilityThresholdFlag,
	OrphanPoolFlag,
	OrphanTTLFlag,
}

var MetricsFlags = []Flag{
	MetricsEnabledFlag,
	MetricsAddrFlag,
}

var ReplayFlags = []Flag{
	AnchorHeightFlag,
	StopOnErrorFlag,
}

// Flags groups every flag a config file may hold.
var Flags = [][]Flag{
	GlobalFlags,
	NodeFlags,
	MetricsFlags,
}

var (
	// ****************************************
	// **                                    **
	// **         GLOBAL FLAGS               **
	// **                                    **
	// ****************************************
	ConfigDirFlag = Flag{
		Name:         "config-dir",
		Abbreviation: "c",
		Value:        xdg.ConfigHome + "/" + constants.APP_NAME + "/",
		Usage:        "config directory" + generateEnvDoc("config-dir"),
	}

	DataDirFlag = Flag{
		Name:         "data-dir",
		Abbreviation: "d",
		Value:        xdg.DataHome + "/" + constants.APP_NAME + "/",
		Usage:        "data directory" + generateEnvDoc("data-dir"),
	}

	LogLevelFlag = Flag{
		Name:         "log-level",
		Abbreviation: "l",
		Value:        "info",
		Usage:        "log level (trace, debug, info, warn, error, fatal, panic)" + generateEnvDoc("log-level"),
	}

	SaveConfigFlag = Flag{
		Name:         "save-config",
		Abbreviation: "S",
		Value:        false,
		Usage:        "save/update config file with current config parameters" + generateEnvDoc("save-config"),
	}

	NetworkFlag = Flag{
		Name:         "network",
		Abbreviation: "n",
		Value:        "bitcoin",
		Usage:        "network to follow (" + strings.Join(params.NetworkNames(), ", ") + ")" + generateEnvDoc("network"),
	}

	// ****************************************
	// **                                    **
	// **         NODE FLAGS                 **
	// **                                    **
	// ****************************************
	DBEngineFlag = Flag{
		Name:  "db-engine",
		Value: "",
		Usage: "backing database implementation to use ('leveldb' or 'pebble')" + generateEnvDoc("db-engine"),
	}

	DBCacheFlag = Flag{
		Name:  "db-cache",
		Value: node.DefaultConfig.DatabaseCache,
		Usage: "megabytes of memory allocated to the database read cache" + generateEnvDoc("db-cache"),
	}

	DBHandlesFlag = Flag{
		Name:  "db-handles",
		Value: node.DefaultConfig.DatabaseHandles,
		Usage: "number of open files allowed to the database" + generateEnvDoc("db-handles"),
	}

	PayloadCacheFlag = Flag{
		Name:  "payload-cache",
		Value: node.DefaultConfig.PayloadCache,
		Usage: "megabytes of memory allocated to unstable block payloads" + generateEnvDoc("payload-cache"),
	}

	StabilityThresholdFlag = Flag{
		Name:         "stability-threshold",
		Abbreviation: "t",
		Value:        uint64(node.DefaultConfig.StabilityThreshold),
		Usage:        "confirmations a block needs to become stable" + generateEnvDoc("stability-threshold"),
	}

	OrphanPoolFlag = Flag{
		Name:  "orphan-pool",
		Value: node.DefaultConfig.OrphanPoolSize,
		Usage: "blocks kept while their parent is unknown" + generateEnvDoc("orphan-pool"),
	}

	OrphanTTLFlag = Flag{
		Name:  "orphan-ttl",
		Value: node.DefaultConfig.OrphanTTL,
		Usage: "how long an orphan block waits for its parent" + generateEnvDoc("orphan-ttl"),
	}

	// ****************************************
	// **                                    **
	// **         METRICS FLAGS              **
	// **                                    **
	// ****************************************
	MetricsEnabledFlag = Flag{
		Name:  "metrics",
		Value: false,
		Usage: "enable prometheus metrics" + generateEnvDoc("metrics"),
	}

	MetricsAddrFlag = Flag{
		Name:  "metrics-addr",
		Value: metrics_config.DefaultAddress,
		Usage: "address the metrics endpoint listens on" + generateEnvDoc("metrics-addr"),
	}

	// ****************************************
	// **                                    **
	// **         REPLAY FLAGS               **
	// **                                    **
	// ****************************************
	AnchorHeightFlag = Flag{
		Name:  "anchor-height",
		Value: uint64(0),
		Usage: "height of the first block of a fresh database" + generateEnvDoc("anchor-height"),
	}

	StopOnErrorFlag = Flag{
		Name:  "stop-on-error",
		Value: false,
		Usage: "stop at the first rejected block instead of skipping it" + generateEnvDoc("stop-on-error"),
	}
)

func CreateAndBindFlag(flag Flag, cmd *cobra.Command) {
	switch val := flag.Value.(type) {
	case string:
		cmd.PersistentFlags().StringP(flag.GetName(), flag.GetAbbreviation(), val, flag.GetUsage())
	case bool:
		cmd.PersistentFlags().BoolP(flag.GetName(), flag.GetAbbreviation(), val, flag.GetUsage())
	case []string:
		cmd.PersistentFlags().StringSliceP(flag.GetName(), flag.GetAbbreviation(), val, flag.GetUsage())
	case time.Duration:
		cmd.PersistentFlags().DurationP(flag.GetName(), flag.GetAbbreviation(), val, flag.GetUsage())
	case int:
		cmd.PersistentFlags().IntP(flag.GetName(), flag.GetAbbreviation(), val, flag.GetUsage())
	case int64:
		cmd.PersistentFlags().Int64P(flag.GetName(), flag.GetAbbreviation(), val, flag.GetUsage())
	case uint64:
		cmd.PersistentFlags().Uint64P(flag.GetName(), flag.GetAbbreviation(), val, flag.GetUsage())
	default:
		log.Error("Flag type not supported: " + flag.GetName() + ", " + fmt.Sprintf("%T", val))
	}
	viper.BindPFlag(flag.GetName(), cmd.PersistentFlags().Lookup(flag.GetName()))
}

// helper function that given a cobra flag name, returns the corresponding
// help legend for the equivalent environment variable
func generateEnvDoc(flag string) string {
	envVar := constants.ENV_PREFIX + "_" + strings.ReplaceAll(strings.ToUpper(flag), "-", "_")
	return fmt.Sprintf(" [%s]", envVar)
}
