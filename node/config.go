package node

import (
	"path/filepath"
	"time"
)

const (
	// DefaultStabilityThreshold is the number of confirmations, weighted by
	// difficulty on retargeting networks, a block needs to become stable.
	DefaultStabilityThreshold = 144

	datadirChainData = "chaindata"
)

// Config holds the settings used to open a node's storage and its unstable
// blocks.
type Config struct {
	// DataDir is the directory holding the database. It is created if it
	// does not exist.
	DataDir string

	// DBEngine selects the database backend, "leveldb" or "pebble". Empty
	// keeps the engine of an existing database and defaults to leveldb.
	DBEngine string

	DatabaseCache   int // Megabytes of database read cache
	DatabaseHandles int // Open files allowed to the database
	PayloadCache    int // Megabytes of encoded block payloads kept in memory

	StabilityThreshold uint64

	OrphanPoolSize int           // Blocks kept while their parent is unknown
	OrphanTTL      time.Duration // How long an orphan waits for its parent
}

// DefaultConfig contains reasonable default settings.
var DefaultConfig = Config{
	DatabaseCache:      128,
	DatabaseHandles:    256,
	PayloadCache:       32,
	StabilityThreshold: DefaultStabilityThreshold,
	OrphanPoolSize:     1024,
	OrphanTTL:          10 * time.Minute,
}

// ResolvePath resolves path in the data directory.
func (c *Config) ResolvePath(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.DataDir, path)
}
