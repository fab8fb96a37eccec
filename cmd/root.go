package cmd

import (
	"fmt"
	"os"

	"github.com/ValentinKolb/dMux/cmd/bench"
	"github.com/ValentinKolb/dMux/cmd/engine"
	"github.com/ValentinKolb/dMux/cmd/exec"
	"github.com/ValentinKolb/dMux/cmd/util"
	"github.com/ValentinKolb/dMux/rpc/transport/resources"
	"github.com/spf13/cobra"
)

const (
	Version = "0.3.0"
)

var (

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "dmux",
		Short: "multiplexed request/response transport for DB clients",
		Long: fmt.Sprintf(`dMux (v%s)

A multiplexed request/response transport written in Go. Many concurrent
callers share one connection to the engine, responses are matched to their
requests by callback ID and may arrive in any order.`, Version),
		SilenceUsage: true,
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of dMux",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("dMux v%s (%s)\n", Version, resources.DetectCapabilities())
		},
	}
	configCmd = &cobra.Command{
		Use:   "config",
		Short: "Print the resolved client configuration as yaml",
		Long:  `Print the client configuration that results from defaults, the --config file, DMUX_* environment variables and flags. The output can be used as a --config file.`,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			return util.BindCommandFlags(cmd)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			config, err := util.GetClientConfig()
			if err != nil {
				return err
			}
			out, err := config.YAML()
			if err != nil {
				return err
			}
			fmt.Print(out)
			return nil
		},
	}
)

func init() {
	// initialize viper
	cobra.OnInitialize(util.InitConfig)

	// Add Commands
	RootCmd.AddCommand(engine.EngineCmd)
	RootCmd.AddCommand(exec.ExecCmd)
	RootCmd.AddCommand(bench.BenchCmd)
	RootCmd.AddCommand(configCmd)
	RootCmd.AddCommand(versionCmd)

	util.SetupClientFlags(configCmd)

	// Add Flags
	key := "serializer"
	RootCmd.PersistentFlags().String(key, "proto", util.WrapString("serializer to use (proto, json, gob)"))
	key = "log-level"
	RootCmd.PersistentFlags().String(key, "info", util.WrapString("LogLevel is the level at which logs will be output (debug, info, warn, error)"))
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
