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
	"github.com/czcorpus/cnc-gokit/uniresp"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/japaniel/lexdict/pkg/config"
	"github.com/japaniel/lexdict/pkg/db"
	"github.com/japaniel/lexdict/pkg/lookup"
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
		fmt.Fprintf(os.Stderr, "lexdict-api - read-only lookup service over a built dictionary\n\nUsage:\n\t%s [options]\n",
			filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
	flag.Parse()
	if *showVersion {
		fmt.Printf("lexdict-api %s\nbuild date: %s\nlast commit: %s\n", version, buildDate, gitCommit)
		return
	}

	conf, err := config.Load(*confPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	logging.SetupLogging(conf.Logging)
	log.Info().Str("version", version).Msg("Starting lexdict-api")

	conn, err := db.Open(conf.DBPath, true)
	if err != nil {
		log.Fatal().Err(err).Str("db", conf.DBPath).Msg("failed to open dictionary store")
	}
	defer conn.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if !conf.Logging.Level.IsDebugMode() {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(logging.GinMiddleware())
	engine.Use(uniresp.AlwaysJSONContentType())
	engine.NoMethod(uniresp.NoMethodHandler)
	engine.NoRoute(uniresp.NotFoundHandler)

	lookup.NewActions(conn, conf.API.DefaultLimit, conf.API.MaxLimit).Routes(engine)
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	log.Info().Msgf("starting to listen at %s:%d", conf.API.ListenAddress, conf.API.ListenPort)
	srv := &http.Server{
		Handler:      engine,
		Addr:         fmt.Sprintf("%s:%d", conf.API.ListenAddress, conf.API.ListenPort),
		WriteTimeout: time.Duration(conf.API.WriteTimeoutSecs) * time.Second,
		ReadTimeout:  time.Duration(conf.API.ReadTimeoutSecs) * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Send()
			stop()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutdown request received")

	ctxShutDown, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctxShutDown); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}
}
