package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/dominant-strategies/go-blocktree/core/unstable"
)

func runTips(cmd *cobra.Command, args []string) error {
	n, err := openNode()
	if err != nil {
		return err
	}
	defer n.Close()

	if !n.Initialized() {
		fmt.Println("No blocks imported yet")
		return nil
	}
	hc, blocks := n.HeaderChain(), n.Blocks()
	fmt.Printf("Stable head: %v (height %d, first %d)\n", hc.CurrentHeader().Hash(), hc.Height(), hc.InitialHeight())
	fmt.Printf("Unstable blocks: %d, orphans: %d, stability threshold: %d\n", blocks.Len()-1, n.Orphans(), blocks.StabilityThreshold())

	mainChain := blocks.MainChain()
	tips := blocks.Tips()
	sort.Slice(tips, func(i, j int) bool {
		if tips[i].Height != tips[j].Height {
			return tips[i].Height > tips[j].Height
		}
		return tips[i].Work.Cmp(tips[j].Work) > 0
	})
	rows := make([][]string, 0, len(tips))
	for _, tip := range tips {
		rows = append(rows, tipRow(tip, mainChain.Tip().Hash() == tip.Hash))
	}
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Tip", "Height", "Work", "Main"})
	table.AppendBulk(rows)
	table.Render()
	return nil
}

func tipRow(tip unstable.Tip, onMain bool) []string {
	mark := ""
	if onMain {
		mark = "*"
	}
	return []string{tip.Hash.String(), fmt.Sprint(tip.Height), tip.Work.String(), mark}
}
