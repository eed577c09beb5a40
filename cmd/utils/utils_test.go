package utils

import (
	"bytes"
	"compress/gzip"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dominant-strategies/go-blocktree/common/constants"
	"github.com/dominant-strategies/go-blocktree/core/types"
	"github.com/dominant-strategies/go-blocktree/internal/testutil"
	"github.com/dominant-strategies/go-blocktree/log"
	"github.com/dominant-strategies/go-blocktree/node"
	"github.com/dominant-strategies/go-blocktree/params"
)

func TestMain(m *testing.M) {
	log.Global = log.New(log.WithNullLogger())
	os.Exit(m.Run())
}

func TestCreateAndBindFlag(t *testing.T) {
	viper.Reset()
	cmd := &cobra.Command{}
	for _, group := range append(Flags, ReplayFlags) {
		for _, flag := range group {
			CreateAndBindFlag(flag, cmd)
		}
	}
	require.NoError(t, cmd.PersistentFlags().Parse([]string{
		"--network", "dogecoin",
		"-t", "6",
		"--orphan-ttl", "90s",
		"--db-cache", "64",
		"--anchor-height", "100",
	}))

	assert.Equal(t, "dogecoin", viper.GetString(NetworkFlag.Name))
	assert.Equal(t, uint64(6), viper.GetUint64(StabilityThresholdFlag.Name))
	assert.Equal(t, 90*time.Second, viper.GetDuration(OrphanTTLFlag.Name))
	assert.Equal(t, uint64(100), viper.GetUint64(AnchorHeightFlag.Name))
	assert.False(t, viper.GetBool(StopOnErrorFlag.Name))
	assert.Contains(t, StabilityThresholdFlag.Usage, "[GO_BLOCKTREE_STABILITY_THRESHOLD]")

	cfg, err := MakeChainConfig()
	require.NoError(t, err)
	require.Equal(t, params.DogecoinMainnetChainConfig, cfg)

	conf := MakeNodeConfig(cfg)
	assert.Equal(t, "dogecoin", filepath.Base(conf.DataDir))
	assert.Equal(t, 64, conf.DatabaseCache)
	assert.Equal(t, node.DefaultConfig.DatabaseHandles, conf.DatabaseHandles)
	assert.Equal(t, uint64(6), conf.StabilityThreshold)
	assert.Equal(t, 90*time.Second, conf.OrphanTTL)

	viper.Set(NetworkFlag.Name, "litecoin")
	_, err = MakeChainConfig()
	require.Error(t, err)
}

func TestWriteDefaultConfigFile(t *testing.T) {
	viper.Reset()
	viper.Set(StabilityThresholdFlag.Name, uint64(12))
	dir := t.TempDir()
	require.NoError(t, WriteDefaultConfigFile(dir, constants.CONFIG_FILE_NAME))
	require.Error(t, WriteDefaultConfigFile(dir, constants.CONFIG_FILE_NAME), "existing files are kept")

	viper.Reset()
	viper.SetConfigFile(filepath.Join(dir, constants.CONFIG_FILE_NAME))
	require.NoError(t, viper.ReadInConfig())
	assert.Equal(t, uint64(12), viper.GetUint64(StabilityThresholdFlag.Name))
	assert.Equal(t, "bitcoin", viper.GetString(NetworkFlag.Name))
	assert.Equal(t, node.DefaultConfig.OrphanTTL, viper.GetDuration(OrphanTTLFlag.Name))
	assert.False(t, viper.IsSet(AnchorHeightFlag.Name))
}

// blockLines returns a regtest chain above genesis as an import file.
func blockLines(t *testing.T, n int) (string, []*types.Block) {
	t.Helper()
	genesis := testutil.GenesisBlock(params.BitcoinRegtestChainConfig)
	chain := []*types.Block{genesis}
	var b strings.Builder
	b.WriteString("# regtest blocks\n")
	b.WriteString(hex.EncodeToString(genesis.Bytes()) + "\n")
	for i := 0; i < n; i++ {
		block := testutil.MinedBlock(chain[len(chain)-1].Header().Pure(), params.BitcoinRegtestChainConfig)
		chain = append(chain, block)
		b.WriteString(hex.EncodeToString(block.Bytes()) + "\n\n")
	}
	return b.String(), chain
}

func newTestNode(t *testing.T) *node.Node {
	conf := node.DefaultConfig
	conf.DataDir = t.TempDir()
	conf.DatabaseCache, conf.DatabaseHandles = 16, 16
	conf.StabilityThreshold = 2
	n, err := node.New(&conf, params.BitcoinRegtestChainConfig, nil)
	require.NoError(t, err)
	t.Cleanup(func() { n.Close() })
	return n
}

func TestImportBlocks(t *testing.T) {
	lines, chain := blockLines(t, 6)
	n := newTestNode(t)

	opts := ImportOptions{Now: func() time.Time { return testutil.MockCurrentTime }}
	stats, err := ImportBlocks(n, strings.NewReader(lines), opts)
	require.NoError(t, err)
	assert.Equal(t, 7, stats.Blocks)
	assert.Equal(t, 7, stats.Accepted)
	assert.Equal(t, 5, stats.Stabilized)
	assert.Equal(t, uint32(5), stats.StableHeight)
	assert.Equal(t, chain[5].Hash().String(), stats.StableHead)
	assert.Equal(t, 2, stats.UnstableBlocks)
	assert.Equal(t, 1, stats.Tips)

	// A second import only finds known or detached blocks.
	stats, err = ImportBlocks(n, strings.NewReader("zz\n"+hex.EncodeToString(chain[6].Bytes())+"\n"), opts)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Rejected)
	assert.Equal(t, 1, stats.Accepted)

	_, err = ImportBlocks(n, strings.NewReader("zz\n"), ImportOptions{StopOnError: true})
	require.Error(t, err)
}

func TestImportAdoptsOrphans(t *testing.T) {
	_, chain := blockLines(t, 3)
	var b strings.Builder
	for _, block := range []*types.Block{chain[0], chain[2], chain[1], chain[3]} {
		b.WriteString(hex.EncodeToString(block.Bytes()) + "\n")
	}

	n := newTestNode(t)
	stats, err := ImportBlocks(n, strings.NewReader(b.String()), ImportOptions{Now: func() time.Time { return testutil.MockCurrentTime }})
	require.NoError(t, err)
	assert.Equal(t, 4, stats.Blocks)
	assert.Equal(t, 1, stats.Orphaned)
	assert.Equal(t, 4, stats.Accepted)
	assert.Zero(t, stats.Rejected)
	assert.Zero(t, n.Orphans())
	assert.Equal(t, chain[3].Hash(), n.Blocks().MainChain().Tip().Hash())

	// Stable blocks sent again are rejected, not orphaned.
	stats, err = ImportBlocks(n, strings.NewReader(hex.EncodeToString(chain[1].Bytes())), ImportOptions{Now: func() time.Time { return testutil.MockCurrentTime }})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Rejected)
	assert.Zero(t, stats.Orphaned)
}

func TestImportLogsProgressBeforeInit(t *testing.T) {
	interval := progressInterval
	progressInterval = 0
	t.Cleanup(func() { progressInterval = interval })

	n := newTestNode(t)
	stats, err := ImportBlocks(n, strings.NewReader("zz\nzz\n"), ImportOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Rejected)
	assert.False(t, n.Initialized())
	assert.Zero(t, stats.StableHeight)
}

func TestImportGzipFile(t *testing.T) {
	lines, chain := blockLines(t, 3)

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	_, err := gz.Write([]byte(lines))
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	fn := filepath.Join(t.TempDir(), "blocks.hex.gz")
	require.NoError(t, os.WriteFile(fn, buf.Bytes(), 0644))

	n := newTestNode(t)
	stats, err := ImportFile(n, fn, ImportOptions{Now: func() time.Time { return testutil.MockCurrentTime }})
	require.NoError(t, err)
	assert.Equal(t, 4, stats.Accepted)
	assert.Equal(t, chain[2].Hash().String(), stats.StableHead)

	_, err = ImportFile(n, filepath.Join(t.TempDir(), "missing"), ImportOptions{})
	require.Error(t, err)
}
