// Copyright 2014 The go-ethereum Authors
// This file is part of go-ethereum.
//
// go-ethereum is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// go-ethereum is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with go-ethereum. If not, see <http://www.gnu.org/licenses/>.

// Package utils contains internal helper functions for go-blocktree commands.
package utils

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/dominant-strategies/go-blocktree/common"
	"github.com/dominant-strategies/go-blocktree/core/types"
	"github.com/dominant-strategies/go-blocktree/log"
	"github.com/dominant-strategies/go-blocktree/node"
)

// maxBlockLine bounds a hex encoded block in an import file.
const maxBlockLine = 64 * 1024 * 1024

// progressInterval is how often a running import logs its progress.
var progressInterval = 8 * time.Second

// Fatalf formats a message to standard error and exits the program.
// The message is also printed to standard output if standard error
// is redirected to a different file.
func Fatalf(format string, args ...interface{}) {
	w := io.MultiWriter(os.Stdout, os.Stderr)
	if runtime.GOOS == "windows" {
		// The SameFile check below doesn't work on Windows.
		// stdout is unlikely to get redirected though, so just print there.
		w = os.Stdout
	} else {
		outf, _ := os.Stdout.Stat()
		errf, _ := os.Stderr.Stat()
		if outf != nil && errf != nil && os.SameFile(outf, errf) {
			w = os.Stderr
		}
	}
	fmt.Fprintf(w, "Fatal: "+format+"\n", args...)
	os.Exit(1)
}

// ImportOptions controls how blocks are imported.
type ImportOptions struct {
	// AnchorHeight is the height of the first block when the node has no
	// stable chain yet. That block is trusted without validation.
	AnchorHeight uint32

	// StopOnError aborts the import at the first rejected block.
	StopOnError bool

	// Now returns the time future timestamps are checked against.
	Now func() time.Time
}

// ImportStats summarizes an import. Orphans are counted as accepted once
// adopted, so Accepted may include blocks also counted in Orphaned.
type ImportStats struct {
	Blocks     int `yaml:"blocks"`
	Accepted   int `yaml:"accepted"`
	Rejected   int `yaml:"rejected"`
	Orphaned   int `yaml:"orphaned"`
	Stabilized int `yaml:"stabilized"`

	StableHeight   uint32 `yaml:"stable_height"`
	StableHead     string `yaml:"stable_head"`
	UnstableBlocks int    `yaml:"unstable_blocks"`
	Tips           int    `yaml:"tips"`
	Elapsed        string `yaml:"elapsed"`
}

// ImportFile imports the hex encoded blocks of fn, one per line. Files ending
// in .gz are decompressed.
func ImportFile(n *node.Node, fn string, opts ImportOptions) (*ImportStats, error) {
	fh, err := os.Open(fn)
	if err != nil {
		return nil, err
	}
	defer fh.Close()

	var reader io.Reader = fh
	if strings.HasSuffix(fn, ".gz") {
		gz, err := gzip.NewReader(reader)
		if err != nil {
			return nil, errors.Wrap(err, "open gzip stream")
		}
		defer gz.Close()
		reader = gz
	}
	return ImportBlocks(n, reader, opts)
}

// ImportBlocks feeds the hex encoded blocks of r, one per line, to n. Empty
// lines and lines starting with # are skipped. Rejected blocks are logged and
// counted unless opts.StopOnError is set.
func ImportBlocks(n *node.Node, r io.Reader, opts ImportOptions) (*ImportStats, error) {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	var (
		stats  ImportStats
		start  = time.Now()
		logged = time.Now()
		cfg    = n.ChainConfig()
	)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 1024*1024), maxBlockLine)
	for line := 0; scanner.Scan(); {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		stats.Blocks++

		block, err := types.DecodeBlockHex(text, cfg)
		if err == nil {
			err = importBlock(n, block, opts, &stats)
		}
		if err != nil {
			if errors.Is(err, node.ErrOrphanBlock) {
				stats.Orphaned++
			} else {
				stats.Rejected++
			}
			log.Global.WithFields(log.Fields{
				"line": line,
				"err":  err,
			}).Warn("Block not imported")
			if opts.StopOnError {
				return &stats, errors.Wrapf(err, "line %d", line)
			}
		}
		if time.Since(logged) > progressInterval {
			fields := log.Fields{
				"blocks":  stats.Blocks,
				"elapsed": common.PrettyDuration(time.Since(start)),
			}
			if hc := n.HeaderChain(); hc != nil {
				fields["stable"] = hc.Height()
			}
			log.Global.WithFields(fields).Info("Importing blocks")
			logged = time.Now()
		}
	}
	if err := scanner.Err(); err != nil {
		return &stats, errors.Wrap(err, "read blocks")
	}
	if hc := n.HeaderChain(); hc != nil {
		stats.StableHeight = hc.Height()
		stats.StableHead = hc.CurrentHeader().Hash().String()
		stats.UnstableBlocks = n.Blocks().Len()
		stats.Tips = len(n.Blocks().Tips())
	}
	stats.Elapsed = common.PrettyDuration(time.Since(start)).String()
	return &stats, nil
}

func importBlock(n *node.Node, block *types.Block, opts ImportOptions, stats *ImportStats) error {
	if !n.Initialized() {
		if err := n.Init(block, opts.AnchorHeight); err != nil {
			return err
		}
		log.Global.WithFields(log.Fields{
			"hash":   block.Hash(),
			"height": opts.AnchorHeight,
		}).Info("Initialized stable chain")
		stats.Accepted++
		return nil
	}
	result, err := n.ProcessBlock(block, opts.Now())
	if err != nil {
		return err
	}
	stats.Accepted += 1 + len(result.Adopted)
	stats.Stabilized += len(result.Stabilized)
	return nil
}
