package cmd

import (
	"fmt"
	"os"

	"github.com/praetorian-inc/pulsar/internal/logs"
	"github.com/praetorian-inc/pulsar/internal/message"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var (
	cfgFile   string
	outputDir string
	quiet     bool
	noColor   bool
	verbose   bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "pulsar",
	Short: "Pulsar is a CLI tool for extracting credentials from cloud services.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logs.Init(verbose)
		message.SetQuiet(quiet)
		message.SetNoColor(noColor)
		if !quiet {
			message.Banner()
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.pulsar.yaml)")
	rootCmd.PersistentFlags().StringVarP(&outputDir, "output", "o", "pulsar-output", "directory for exported files and reports")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress banner and status messages")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		// Search config in home directory with name ".pulsar" (without extension).
		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".pulsar")
	}

	viper.AutomaticEnv() // read in environment variables that match

	// Config file and environment values fill in flags the user did not set.
	rootCmd.PersistentFlags().VisitAll(func(flag *pflag.Flag) {
		if !flag.Changed && viper.IsSet(flag.Name) {
			_ = rootCmd.PersistentFlags().Set(flag.Name, viper.GetString(flag.Name))
		}
	})

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}
