package main

import (
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/zeehio/aves/pkg/calc"
	"github.com/zeehio/aves/pkg/config"
	"github.com/zeehio/aves/pkg/sample"
	"github.com/zeehio/aves/pkg/storage"
)

func envOr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

// explore loads a finished capture and prints a per-column
// summary, the quick sanity check before a capture goes into a
// real analysis pipeline.
func main() {
	_ = godotenv.Load()

	file := flag.String("file", "", "capture file to load")
	configPath := flag.String("config", envOr("AVES_CONFIG", "config.yaml"),
		"configuration the capture was recorded with")
	trim := flag.Float64("trim", 0.05,
		"fraction trimmed from each end for the trimmed mean")
	flag.Parse()

	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	if *file == "" {
		logger.Fatal("no capture file given, use -file")
	}
	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.WithError(err).Fatal("cannot load configuration")
	}
	records, err := storage.ReadCapture(*file, cfg.Output.Columns)
	if err != nil {
		logger.WithError(err).Fatal("cannot load capture")
	}
	if len(records) == 0 {
		logger.Fatal("capture holds no records")
	}

	fmt.Printf("%s: %d records", *file, len(records))
	if span := records[len(records)-1].At.Sub(records[0].At); span > 0 {
		fmt.Printf(" spanning %s", span)
	}
	fmt.Println()

	w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	fmt.Fprintln(w, "column\tcount\tmin\tmax\tmean\ttrimmed")
	for _, name := range cfg.Output.Columns {
		if name == sample.TimeComputer {
			continue
		}
		values := make([]float64, 0, len(records))
		for _, rec := range records {
			values = append(values, rec.Values[name])
		}
		fmt.Fprintf(w, "%s\t%d\t%g\t%g\t%g\t%g\n",
			name, len(values),
			calc.Min(values), calc.Max(values),
			calc.Mean(values), calc.TrimmedMean(values, *trim))
	}
	w.Flush()
}
