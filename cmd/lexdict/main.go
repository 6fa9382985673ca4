package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/czcorpus/cnc-gokit/logging"
	"github.com/rs/zerolog/log"

	"github.com/japaniel/lexdict/pkg/config"
	"github.com/japaniel/lexdict/pkg/metrics"
	"github.com/japaniel/lexdict/pkg/pipeline"
)

var (
	version   string
	buildDate string
	gitCommit string
)

func main() {
	confPath := flag.String("config", "", "Path to a TOML configuration file (built-in defaults when empty)")
	showVersion := flag.Bool("version", false, "Print version information and exit")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "lexdict - builds a searchable SQLite dictionary from a Lexique word list\n\nUsage:\n\t%s [options]\n",
			filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
	flag.Parse()
	if *showVersion {
		fmt.Printf("lexdict %s\nbuild date: %s\nlast commit: %s\n", version, buildDate, gitCommit)
		return
	}

	conf, err := config.Load(*confPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	logging.SetupLogging(conf.Logging)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	report, err := pipeline.Run(ctx, conf, pipeline.Options{
		HTTPClient: &http.Client{Timeout: conf.HTTPTimeout()},
	})
	if conf.MetricsTextfile != "" {
		if mErr := metrics.WriteTextfile(conf.MetricsTextfile); mErr != nil {
			log.Error().Err(mErr).Str("path", conf.MetricsTextfile).Msg("failed to write metrics")
		}
	}
	if err != nil {
		log.Fatal().Err(err).Str("db", conf.DBPath).Msg("dictionary build failed")
	}

	if report.Skipped {
		fmt.Printf("Store %s already contains language %s, nothing loaded.\n", conf.DBPath, report.Language)
		return
	}
	fmt.Printf("Build complete: %d words (%s) loaded into %s, %d indexed in %s.\n",
		report.Inserted, report.Language, conf.DBPath, report.Indexed, report.Duration.Round(time.Millisecond))
}
