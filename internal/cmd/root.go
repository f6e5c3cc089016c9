// Package cmd wires the CLI surface: flag parsing, config resolution,
// and pipeline assembly for the capture and replay commands.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	noColor bool
)

// rootCmd is the base command when called without subcommands.
var rootCmd = &cobra.Command{
	Use:   "devinsight",
	Short: "DevInsight — Android logcat capture and analysis",
	Long: `DevInsight captures adb logcat output, filters and parses it in real
time, and persists it to size-rotated JSON files. Captured sessions can be
replayed, followed live, indexed into SQLite, and streamed to a web
dashboard.`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.devinsight.yaml)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colorized output")
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigName(".devinsight")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("devinsight")
	viper.AutomaticEnv()
	_ = viper.ReadInConfig()
}
