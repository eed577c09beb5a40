// Copyright 2020 The go-ethereum Authors
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
	"math"
	"time"

	"github.com/dominant-strategies/go-blocktree/common"
	"github.com/dominant-strategies/go-blocktree/ethdb"
	"github.com/dominant-strategies/go-blocktree/log"
)

// reindexChunk is the number of canonical mappings read per iteration.
const reindexChunk = 4096

// ReindexHeaderNumbers rebuilds the hash->number mappings of the canonical
// chain from the number->hash ones, starting at from. It returns the number of
// mappings written.
func ReindexHeaderNumbers(db ethdb.Database, from uint32) uint32 {
	var (
		batch   = db.NewBatch()
		start   = time.Now()
		logged  = start.Add(-7 * time.Second) // Reindexing is fast, don't double log
		written uint32
	)
	for {
		numbers, hashes := ReadAllCanonicalHashes(db, from, math.MaxUint32, reindexChunk)
		for i, number := range numbers {
			WriteHeaderNumber(batch, hashes[i], number)
			written++
			// If enough data was accumulated in memory, dump to disk
			if batch.ValueSize() > ethdb.IdealBatchSize {
				if err := batch.Write(); err != nil {
					db.Logger().WithField("err", err).Fatal("Failed to write data to db")
				}
				batch.Reset()
			}
		}
		// If we've spent too much time already, notify the user of what we're doing
		if time.Since(logged) > 8*time.Second && len(numbers) > 0 {
			db.Logger().WithFields(log.Fields{
				"number":  numbers[len(numbers)-1],
				"elapsed": common.PrettyDuration(time.Since(start)),
			}).Info("Reindexing stable headers")
			logged = time.Now()
		}
		if len(numbers) < reindexChunk {
			break
		}
		from = numbers[len(numbers)-1] + 1
	}
	if err := batch.Write(); err != nil {
		db.Logger().WithField("err", err).Fatal("Failed to write data to db")
	}
	batch.Reset()

	db.Logger().WithFields(log.Fields{
		"headers": written,
		"elapsed": common.PrettyDuration(time.Since(start)),
	}).Info("Reindexed stable headers")
	return written
}
