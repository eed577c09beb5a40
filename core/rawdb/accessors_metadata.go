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
	"errors"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/dominant-strategies/go-blocktree/ethdb"
	"github.com/dominant-strategies/go-blocktree/log"
)

// DatabaseVersion is the version of the schema written by this package.
const DatabaseVersion = 1

// versionField is the protobuf field number of the encoded version.
const versionField protowire.Number = 1

var errVersionEncoding = errors.New("malformed database version")

// ReadDatabaseVersion retrieves the version number of the database.
func ReadDatabaseVersion(db ethdb.KeyValueReader) *uint64 {
	enc, _ := db.Get(databaseVersionKey)
	if len(enc) == 0 {
		return nil
	}
	version, err := decodeVersion(enc)
	if err != nil {
		db.Logger().WithField("err", err).Fatal("Failed to decode database version")
	}
	return &version
}

// WriteDatabaseVersion stores the version number of the database
func WriteDatabaseVersion(db ethdb.KeyValueWriter, version uint64) {
	data := protowire.AppendTag(nil, versionField, protowire.VarintType)
	data = protowire.AppendVarint(data, version)
	if err := db.Put(databaseVersionKey, data); err != nil {
		db.Logger().WithField("err", err).Fatal("Failed to store the database version")
	}
}

func decodeVersion(enc []byte) (uint64, error) {
	num, typ, n := protowire.ConsumeTag(enc)
	if n < 0 || num != versionField || typ != protowire.VarintType {
		return 0, errVersionEncoding
	}
	version, m := protowire.ConsumeVarint(enc[n:])
	if m < 0 || n+m != len(enc) {
		return 0, errVersionEncoding
	}
	return version, nil
}

// ReadNetwork retrieves the name of the network the database holds.
func ReadNetwork(db ethdb.KeyValueReader) string {
	data, _ := db.Get(networkKey)
	return string(data)
}

// WriteNetwork stores the name of the network the database holds.
func WriteNetwork(db ethdb.KeyValueWriter, name string) {
	if err := db.Put(networkKey, []byte(name)); err != nil {
		db.Logger().WithFields(log.Fields{
			"network": name,
			"err":     err,
		}).Fatal("Failed to store network name")
	}
}
