package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/huntgrid/huntkit/internal/config"
)

var cfgFile string
var debugLogging bool
var logger *zap.SugaredLogger
var resultsDir string
var settings *config.Store

var rootCmd = &cobra.Command{
	Use:   "huntkit",
	Short: "Security-investigation toolkit: Log Analytics queries and domain reputation checks",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// init config
		if cfgFile != "" {
			viper.SetConfigFile(cfgFile)
		} else {
			viper.AddConfigPath("$HOME")
			viper.SetConfigName(".huntkit")
			viper.SetConfigType("yaml")
		}

		_ = viper.ReadInConfig()
		settings = config.NewStore(viper.GetViper())

		if resultsDir == "" {
			resultsDir = viper.GetString("results_dir")
		}
		if resultsDir == "" {
			resultsDir = "./results"
		}
		if err := os.MkdirAll(resultsDir, 0o755); err != nil {
			return fmt.Errorf("failed to create results directory: %s", err.Error())
		}
		if abs, err := filepath.Abs(resultsDir); err == nil {
			resultsDir = abs
		}

		// init logger
		var l *zap.Logger
		if debugLogging {
			l, _ = zap.NewDevelopment()
		} else {
			l, _ = zap.NewProduction()
		}
		logger = l.Sugar()
		logger.Debugf("results_dir=%s config=%s", resultsDir, viper.ConfigFileUsed())

		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		printCLIError(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.huntkit.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debugLogging, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&resultsDir, "results-dir", "", "directory for saved query results (default from config)")

	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(domainCmd)
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(versionCmd)
}
