package constants

const (
	APP_NAME = "go-blocktree"
	// prefix used to read config parameters from environment variables
	ENV_PREFIX = "GO_BLOCKTREE"
	// config file name
	CONFIG_FILE_NAME = "config.toml"
	// config file type
	CONFIG_FILE_TYPE = "toml"
	// log file written next to the data directory
	LOG_FILE_NAME = "blocktree.log"
)
