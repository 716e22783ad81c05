// Copyright (C) 2024, BitKoop. All rights reserved.
// See the file LICENSE for licensing terms.
package cmd

import (
	"fmt"
	"os"
	"os/user"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/bitkoop-network/miner-cli/cmd/configcmd"
	"github.com/bitkoop-network/miner-cli/cmd/couponcmd"
	"github.com/bitkoop-network/miner-cli/cmd/validatorscmd"
	"github.com/bitkoop-network/miner-cli/pkg/application"
	"github.com/bitkoop-network/miner-cli/pkg/cobrautils"
	"github.com/bitkoop-network/miner-cli/pkg/config"
	"github.com/bitkoop-network/miner-cli/pkg/constants"
	"github.com/bitkoop-network/miner-cli/pkg/models"
	"github.com/bitkoop-network/miner-cli/pkg/ux"
)

var (
	app *application.BitKoop

	baseDir     string
	logLevel    string
	networkName string
	cfgFile     string

	Version = ""

	// rootCmd represents the base command when called without any subcommands
	rootCmd = &cobra.Command{
		Use: constants.AppName,
		Long: `BitKoop Miner CLI broadcasts signed coupon actions to the subnet's
validators. It discovers validators from the metagraph, checks them for
protocol compatibility, and submits each action to every eligible
validator concurrently.`,
		PersistentPreRunE: setupEnv,
		Version:           Version,
	}
)

func setupEnv(*cobra.Command, []string) error {
	network, err := models.NetworkFromString(networkName)
	if err != nil {
		return err
	}

	logDir := filepath.Join(baseDir, constants.LogDirName)
	if err := os.MkdirAll(logDir, os.ModePerm); err != nil {
		return fmt.Errorf("failed creating log directory: %w", err)
	}

	level, err := zapcore.ParseLevel(logLevel)
	if err != nil {
		return fmt.Errorf("invalid log level configured: %s", logLevel)
	}
	logCfg := zap.NewProductionConfig()
	logCfg.Level = zap.NewAtomicLevelAt(level)
	logCfg.OutputPaths = []string{filepath.Join(logDir, constants.AppName+".log")}
	logCfg.ErrorOutputPaths = logCfg.OutputPaths
	log, err := logCfg.Build()
	if err != nil {
		return fmt.Errorf("failed setting up logging: %w", err)
	}

	// create the user facing logger as a global var
	ux.NewUserLog(log, os.Stdout)

	conf := config.New(log)
	if cfgFile == "" {
		cfgFile = filepath.Join(baseDir, "config.json")
	}
	conf.SetConfig(cfgFile)

	app.Setup(baseDir, log, conf, network)
	return nil
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	cobrautils.HandleErrors(rootCmd.Execute())
}

func init() {
	app = application.New()

	usr, err := user.Current()
	if err != nil {
		// no logger here yet
		fmt.Printf("unable to get system user %s\n", err)
		os.Exit(1)
	}
	baseDir = filepath.Join(usr.HomeDir, constants.BaseDirName)
	if err := os.MkdirAll(baseDir, os.ModePerm); err != nil {
		fmt.Printf("failed creating the basedir %s: %s\n", baseDir, err)
		os.Exit(1)
	}

	cobrautils.ConfigureRootCmd(rootCmd)
	rootCmd.CompletionOptions.HiddenDefaultCmd = true

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "error", "log level for the application")
	rootCmd.PersistentFlags().StringVar(&networkName, "network", "finney", "network to operate on (finney or test)")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path")

	rootCmd.AddCommand(couponcmd.NewCmd(app))
	rootCmd.AddCommand(validatorscmd.NewCmd(app))
	rootCmd.AddCommand(configcmd.NewCmd(app))
}
