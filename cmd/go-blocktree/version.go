package main

import (
	"os"
	"runtime"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/dominant-strategies/go-blocktree/params"
)

type versionInfo struct {
	Version   string   `yaml:"version"`
	GitCommit string   `yaml:"git_commit,omitempty"`
	GitDate   string   `yaml:"git_date,omitempty"`
	GoVersion string   `yaml:"go_version"`
	Platform  string   `yaml:"platform"`
	Networks  []string `yaml:"networks"`
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "prints the version and the supported networks",
	RunE: func(cmd *cobra.Command, args []string) error {
		return yaml.NewEncoder(os.Stdout).Encode(versionInfo{
			Version:   params.VersionWithCommit(gitCommit, gitDate),
			GitCommit: gitCommit,
			GitDate:   gitDate,
			GoVersion: runtime.Version(),
			Platform:  runtime.GOOS + "/" + runtime.GOARCH,
			Networks:  params.NetworkNames(),
		})
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
