// Copyright 2018 The go-ethereum Authors
// This file is part of the go-ethereum library.
//
// The go-ethereum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ethereum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ethereum library. If not, see <http://www.gnu.org/licenses/>.

package rawdb

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/olekukonko/tablewriter"

	"github.com/dominant-strategies/go-blocktree/common"
	"github.com/dominant-strategies/go-blocktree/ethdb"
	"github.com/dominant-strategies/go-blocktree/ethdb/leveldb"
	"github.com/dominant-strategies/go-blocktree/log"
)

// NewMemoryDatabase creates an ephemeral in-memory key-value database.
func NewMemoryDatabase(logger *log.Logger) ethdb.Database {
	return leveldb.NewMemory(logger)
}

// NewLevelDBDatabase creates a persistent key-value database backed by leveldb.
func NewLevelDBDatabase(file string, cache int, handles int, namespace string, readonly bool, logger *log.Logger) (ethdb.Database, error) {
	db, err := leveldb.New(file, cache, handles, namespace, readonly, logger)
	if err != nil {
		return nil, err
	}
	logger.Info("Using LevelDB as the backing database")
	return db, nil
}

const (
	dbPebble  = "pebble"
	dbLeveldb = "leveldb"
)

// hasPreexistingDb checks the given data directory whether a database is already
// instantiated at that location, and if so, returns the type of database (or the
// empty string).
func hasPreexistingDb(path string) string {
	if _, err := os.Stat(filepath.Join(path, "CURRENT")); err != nil {
		return "" // No pre-existing db
	}
	if matches, err := filepath.Glob(filepath.Join(path, "OPTIONS*")); len(matches) > 0 || err != nil {
		if err != nil {
			panic(err) // only possible if the pattern is malformed
		}
		return dbPebble
	}
	return dbLeveldb
}

// OpenOptions contains the options to apply when opening a database.
type OpenOptions struct {
	Type      string // "leveldb" | "pebble"
	Directory string // the datadir
	Namespace string // the namespace for database relevant metrics
	Cache     int    // the capacity(in megabytes) of the data caching
	Handles   int    // number of files to be open simultaneously
	ReadOnly  bool
}

// Open opens a disk-based key-value database, e.g. leveldb or pebble.
//
//	                      type == null          type != null
//	                   +----------------------------------------
//	db is non-existent |  leveldb default  |  specified type
//	db is existent     |  from db          |  specified type (if compatible)
func Open(o OpenOptions, logger *log.Logger) (ethdb.Database, error) {
	existingDb := hasPreexistingDb(o.Directory)
	if len(existingDb) != 0 && len(o.Type) != 0 && o.Type != existingDb {
		return nil, fmt.Errorf("db.engine choice was %v but found pre-existing %v database in specified data directory", o.Type, existingDb)
	}
	if o.Type == dbPebble || existingDb == dbPebble {
		if PebbleEnabled {
			logger.Info("Using pebble as the backing database")
			return NewPebbleDBDatabase(o.Directory, o.Cache, o.Handles, o.Namespace, o.ReadOnly, logger)
		}
		return nil, errors.New("db.engine 'pebble' not supported on this platform")
	}
	if len(o.Type) != 0 && o.Type != dbLeveldb {
		return nil, fmt.Errorf("unknown db.engine %v", o.Type)
	}
	// Use leveldb, either as default (no explicit choice), or pre-existing, or chosen explicitly
	return NewLevelDBDatabase(o.Directory, o.Cache, o.Handles, o.Namespace, o.ReadOnly, logger)
}

type counter uint64

func (c counter) String() string {
	return fmt.Sprintf("%d", c)
}

// stat stores sizes and count for a parameter
type stat struct {
	size  common.StorageSize
	count counter
}

// Add size to the stat and increase the counter by 1
func (s *stat) Add(size common.StorageSize) {
	s.size += size
	s.count++
}

func (s *stat) Size() string {
	return s.size.String()
}

func (s *stat) Count() string {
	return s.count.String()
}

// InspectDatabase traverses the entire database and writes a table with the
// size of all different categories of data to out.
func InspectDatabase(db ethdb.Database, keyPrefix, keyStart []byte, out io.Writer, logger *log.Logger) error {
	it := db.NewIterator(keyPrefix, keyStart)
	defer it.Release()

	var (
		count  int64
		start  = time.Now()
		logged = time.Now()

		// Key-value store statistics
		headers         stat
		numHashPairings stat
		hashNumPairings stat
		blocks          stat
		trees           stat

		// Meta- and unaccounted data
		metadata    stat
		unaccounted stat

		// Totals
		total common.StorageSize
	)
	for it.Next() {
		var (
			key  = it.Key()
			size = common.StorageSize(len(key) + len(it.Value()))
		)
		total += size
		switch {
		case bytes.HasPrefix(key, headerPrefix) && len(key) == (len(headerPrefix)+4+chainhash.HashSize):
			headers.Add(size)
		case bytes.HasPrefix(key, headerPrefix) && len(key) == (len(headerPrefix)+4+len(headerHashSuffix)) && bytes.HasSuffix(key, headerHashSuffix):
			numHashPairings.Add(size)
		case bytes.HasPrefix(key, headerNumberPrefix) && len(key) == (len(headerNumberPrefix)+chainhash.HashSize):
			hashNumPairings.Add(size)
		case bytes.HasPrefix(key, blockPrefix) && len(key) == (len(blockPrefix)+chainhash.HashSize):
			blocks.Add(size)
		case bytes.Equal(key, blockTreeKey):
			trees.Add(size)
		case bytes.Equal(key, databaseVersionKey), bytes.Equal(key, networkKey), bytes.Equal(key, headHeaderKey):
			metadata.Add(size)
		default:
			unaccounted.Add(size)
		}
		count++
		if count%1000 == 0 && time.Since(logged) > 8*time.Second {
			logger.WithFields(log.Fields{
				"count":   count,
				"elapsed": common.PrettyDuration(time.Since(start)),
			}).Info("Inspecting database")
			logged = time.Now()
		}
	}
	if err := it.Error(); err != nil {
		return err
	}
	// Display the database statistic.
	stats := [][]string{
		{"Stable chain", "Headers", headers.Size(), headers.Count()},
		{"Stable chain", "Block number->hash", numHashPairings.Size(), numHashPairings.Count()},
		{"Stable chain", "Block hash->number", hashNumPairings.Size(), hashNumPairings.Count()},
		{"Unstable blocks", "Block payloads", blocks.Size(), blocks.Count()},
		{"Unstable blocks", "Block tree", trees.Size(), trees.Count()},
		{"Key-Value store", "Singleton metadata", metadata.Size(), metadata.Count()},
	}
	table := tablewriter.NewWriter(out)
	table.SetHeader([]string{"Database", "Category", "Size", "Items"})
	table.SetFooter([]string{"", "Total", total.String(), " "})
	table.AppendBulk(stats)
	table.Render()

	if unaccounted.size > 0 {
		logger.WithFields(log.Fields{
			"size":  unaccounted.size,
			"count": unaccounted.count,
		}).Warn("Database contains unaccounted data")
	}
	return nil
}
