package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/dominant-strategies/go-blocktree/cmd/utils"
	"github.com/dominant-strategies/go-blocktree/core/rawdb"
	"github.com/dominant-strategies/go-blocktree/log"
)

var inspectCmd = &cobra.Command{
	Use:          "inspect",
	Short:        "prints the size of every category of data in the database",
	RunE:         runInspect,
	SilenceUsage: true,
}

var tipsCmd = &cobra.Command{
	Use:          "tips",
	Short:        "prints the stable head and the tips of the unstable blocks",
	RunE:         runTips,
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(tipsCmd)

	for _, cmd := range []*cobra.Command{inspectCmd, tipsCmd} {
		for _, flag := range utils.NodeFlags {
			utils.CreateAndBindFlag(flag, cmd)
		}
	}
}

func runInspect(cmd *cobra.Command, args []string) error {
	n, err := openNode()
	if err != nil {
		return err
	}
	defer n.Close()
	return rawdb.InspectDatabase(n.Database(), nil, nil, os.Stdout, log.Global)
}
