package cmd

import (
	"github.com/praetorian-inc/pulsar/internal/message"
	"github.com/praetorian-inc/pulsar/version"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of Pulsar",
	Long:  `All software has versions. This is Pulsar's`,
	Run: func(cmd *cobra.Command, args []string) {
		message.Info("%s", version.FullVersion())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
