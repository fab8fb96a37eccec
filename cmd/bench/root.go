package bench

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/ValentinKolb/dMux/cmd/util"
	"github.com/VictoriaMetrics/metrics"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// BenchCmd runs a concurrent load against the engine over one multiplexed connection
	BenchCmd = &cobra.Command{
		Use:               "bench",
		Short:             "Load testing tool for dMux engines",
		Long:              `Runs a set of scenarios against the engine. Every scenario issues the configured number of requests from concurrent workers sharing a single connection and reports throughput and latency percentiles.`,
		PersistentPreRunE: processBenchConfig,
		RunE:              run,
	}

	benchKeyPrefix        = "__bench"
	benchLargeValueSizeKB = 100
	benchWorkers          = 32
	benchRequests         = 100000
	benchKeySpread        = 1000
	benchBatchSize        = 16
	benchSkip             = make([]string, 0)
)

func init() {
	util.SetupClientFlags(BenchCmd)

	key := "skip"
	BenchCmd.Flags().String(key, "", util.WrapString("Scenarios to skip (comma separated - e.g. set,get)"))
	key = "workers"
	BenchCmd.Flags().Int(key, benchWorkers, util.WrapString("Number of concurrent workers sharing the connection"))
	key = "requests"
	BenchCmd.Flags().Int(key, benchRequests, util.WrapString("Number of requests per scenario"))
	key = "large-value-size"
	BenchCmd.Flags().Int(key, benchLargeValueSizeKB, util.WrapString("How large the value for the set-large scenario should be (in KB)"))
	key = "keys"
	BenchCmd.Flags().Int(key, benchKeySpread, util.WrapString("How many different keys to use"))
	key = "batch-size"
	BenchCmd.Flags().Int(key, benchBatchSize, util.WrapString("Number of commands flushed together in the batch scenario"))
	key = "csv"
	BenchCmd.Flags().String(key, "", util.WrapString("Optional path to save benchmark results as CSV"))
	key = "metrics"
	BenchCmd.Flags().Bool(key, false, util.WrapString("Print the transport metrics in Prometheus text format after the run"))
}

func processBenchConfig(cmd *cobra.Command, _ []string) error {
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}

	benchLargeValueSizeKB = viper.GetInt("large-value-size")
	benchKeySpread = max(viper.GetInt("keys"), 1)
	benchWorkers = max(viper.GetInt("workers"), 1)
	benchRequests = max(viper.GetInt("requests"), 1)
	benchBatchSize = max(viper.GetInt("batch-size"), 1)
	benchSkip = strings.Split(viper.GetString("skip"), ",")

	return util.InitLogging()
}

func run(cmd *cobra.Command, _ []string) error {
	config, err := util.GetClientConfig()
	if err != nil {
		return err
	}

	fmt.Println("Load testing tool for dMux engines")
	fmt.Println()
	fmt.Println("Configuration:")
	fmt.Println(config.String())
	fmt.Printf("Workers: %d, Requests per scenario: %d\n", benchWorkers, benchRequests)
	fmt.Println()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	c, closeClient, err := util.Connect(ctx, config)
	if err != nil {
		return err
	}
	defer closeClient()

	fmt.Println("starting scenarios...")
	fmt.Println()
	printHeader()

	results := make([]result, 0)
	for _, s := range scenarios() {
		if shouldSkip(s.name) {
			printSkipped(s.name)
			continue
		}
		r, err := runScenario(ctx, c, s)
		if err != nil {
			return fmt.Errorf("scenario %s failed: %w", s.name, err)
		}
		results = append(results, r)
		printResult(r)
	}

	if csvPath := viper.GetString("csv"); csvPath != "" {
		fmt.Printf("\nExporting results to CSV: %s\n", csvPath)
		if err := writeResultsToCSV(csvPath, results, config); err != nil {
			return fmt.Errorf("failed to export results to CSV: %v", err)
		}
		fmt.Println("Export complete")
	}

	if viper.GetBool("metrics") {
		fmt.Println()
		metrics.WritePrometheus(os.Stdout, false)
	}

	return nil
}

func shouldSkip(name string) bool {
	for _, skip := range benchSkip {
		if strings.TrimSpace(skip) == name {
			return true
		}
	}
	return false
}
