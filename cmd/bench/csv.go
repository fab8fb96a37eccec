package bench

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/ValentinKolb/dMux/rpc/common"
	"github.com/spf13/viper"
)

// writeResultsToCSV writes benchmark results to a CSV file
func writeResultsToCSV(csvPath string, results []result, config *common.ClientConfig) error {
	file, err := os.Create(csvPath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %v", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{
		"Scenario", "Requests", "Errors", "RequestsPerSec", "MeanNs", "P50Ns", "P99Ns", "P999Ns", "MaxNs",
		"Endpoint", "Transport", "Serializer", "TimeoutSec", "ThreadPoolSize",
		"Workers", "BatchSize", "LargeValueSizeKB", "Keys Count",
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %v", err)
	}

	for _, r := range results {
		ps := r.latency.Percentiles(percentiles)
		row := []string{
			r.name,
			strconv.FormatInt(r.requests, 10),
			strconv.FormatInt(r.errors, 10),
			formatFloat(r.RequestsPerSec()),
			formatFloat(r.latency.Mean()),
			formatFloat(ps[0]),
			formatFloat(ps[1]),
			formatFloat(ps[2]),
			strconv.FormatInt(r.latency.Max(), 10),
			config.Endpoint,
			string(config.Transport.Resolve(config.Endpoint)),
			viper.GetString("serializer"),
			strconv.Itoa(config.TimeoutSecond),
			strconv.Itoa(config.ThreadPoolSize),
			strconv.Itoa(benchWorkers),
			strconv.Itoa(benchBatchSize),
			strconv.Itoa(benchLargeValueSizeKB),
			strconv.Itoa(benchKeySpread),
		}

		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write row for scenario %s: %v", r.name, err)
		}
	}

	return nil
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', 0, 64)
}
