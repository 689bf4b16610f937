package main

import (
	"context"
	"database/sql"
	"flag"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/zeehio/aves/pkg/acquire"
	"github.com/zeehio/aves/pkg/client"
	"github.com/zeehio/aves/pkg/config"
	"github.com/zeehio/aves/pkg/connection"
	"github.com/zeehio/aves/pkg/middleware"
	"github.com/zeehio/aves/pkg/observe"
	"github.com/zeehio/aves/pkg/server"
	"github.com/zeehio/aves/pkg/storage"
	"github.com/zeehio/aves/pkg/window"
)

func envOr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func newLogger(level string) *logrus.Logger {
	logger := logrus.New()
	if level == "off" || level == "none" {
		logger.SetOutput(io.Discard)
		return logger
	}
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		parsed = logrus.InfoLevel
	}
	logger.SetLevel(parsed)
	logger.SetOutput(os.Stdout)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	return logger
}

func main() {
	// .env keeps port names and secrets out of shell history
	_ = godotenv.Load()

	port := flag.String("port", envOr("AVES_PORT", "COM5"),
		"serial port to read from, or an existing capture file to replay")
	configPath := flag.String("config", envOr("AVES_CONFIG", "config.yaml"),
		"device columns, output selection and live view settings")
	outfile := flag.String("outfile", "",
		"capture file name (default data/<timestamp>.txt)")
	noSave := flag.Bool("no-save", false,
		"skip saving acquired data to a file")
	maxTime := flag.Int("time", 0,
		"duration of the experiment in seconds (0 = unlimited)")
	maxSamples := flag.Int("samples", 0,
		"number of records to acquire (0 = unlimited)")
	every := flag.Int("every", 10,
		"new samples to collect before refreshing viewers")
	winSize := flag.Int("window", 200,
		"records kept for the live view (0 = unlimited)")
	listen := flag.String("listen", "",
		"live view listen address, e.g. :8080 (empty = no live view)")
	logLevel := flag.String("log", envOr("AVES_LOG_LEVEL", "info"),
		"log level (trace..error, off)")
	flag.Parse()

	logger := newLogger(*logLevel)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.WithError(err).Fatal("cannot start acquisition")
	}

	win := window.New(*winSize)
	stall := acquire.NewStallDetector(cfg.Timeout())

	var writer storage.RecordWriter
	if *noSave {
		logger.Info("persistence disabled, acquired data will not be saved")
	} else {
		path := *outfile
		if path == "" {
			path = storage.DefaultCapturePath(time.Now())
		}
		fileWriter, err := storage.NewFileWriter(path, cfg.Output.Columns)
		if err != nil {
			logger.WithError(err).Fatal("cannot open capture file")
		}
		writer = fileWriter
		logger.WithField("file", path).Info("writing capture")

		if pg := cfg.Output.Postgres; pg != nil {
			db, err := sql.Open("postgres", pg.DSN)
			if err != nil {
				logger.WithError(err).Fatal("cannot open postgres sink")
			}
			writer = storage.MultiWriter(fileWriter, storage.NewPostgresSink(db, pg.Table))
			logger.WithField("table", pg.Table).Info("mirroring capture to postgres")
		}
	}

	ctx, stop := signal.NotifyContext(
		context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var obs observe.Observer = observe.Nop{}
	var pub *acquire.Publisher
	if *listen != "" {
		reg := prometheus.NewRegistry()
		obs = observe.NewProm(reg)
		subs := client.NewConsumers()
		pub = acquire.NewPublisher(acquire.PublisherConfig{
			Window:     win,
			Stall:      stall,
			Subs:       subs,
			Interval:   cfg.Refresh(),
			MinSamples: *every,
			Columns:    cfg.ColumnNames(),
			Logger:     logger,
			Observer:   obs,
		})
		go pub.Run(ctx)

		viewers := server.NewViewerServer(server.Config{
			Context:   ctx,
			Publisher: pub,
			Subs:      subs,
			Logger:    logger,
			Metrics:   reg,
			Meta: server.Meta{
				Columns:   cfg.ColumnNames(),
				RefreshMs: int(cfg.Refresh() / time.Millisecond),
				Window:    *winSize,
			},
		})
		var auth middleware.Authorizer
		if cfg.Live.Secret != "" {
			jwtAuth := middleware.NewAuthJWT(cfg.Live.Secret)
			auth = jwtAuth
			if token, err := jwtAuth.Issue(); err == nil {
				logger.WithField("token", token).Info("viewer access token")
			}
		}
		httpServer := &http.Server{Addr: *listen, Handler: viewers.Routes(auth)}
		go func() {
			logger.WithField("addr", *listen).Info("live view listening")
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.WithError(err).Error("live view server stopped")
			}
		}()
		defer httpServer.Close()
	}

	provider := connection.SerialProvider(cfg.Input.Baudrate)
	if st, statErr := os.Stat(*port); statErr == nil && st.Mode().IsRegular() {
		logger.WithField("file", *port).Info("replaying capture instead of a device")
		provider = connection.FileProvider()
	}
	manager := connection.NewManager(ctx, provider)
	producer, err := manager.Open(*port)
	if err != nil {
		logger.WithError(err).Fatal("cannot open input stream")
	}
	// closing the stream is what unblocks the scanner goroutine
	// when a signal arrives mid-read
	go func() {
		<-ctx.Done()
		manager.Close(*port)
	}()
	defer manager.Close(*port)

	session := acquire.NewSession(acquire.SessionConfig{
		Columns:     cfg.Input.Columns,
		Window:      win,
		Writer:      writer,
		Stall:       stall,
		Publisher:   pub,
		Logger:      logger,
		Observer:    obs,
		MaxDuration: time.Duration(*maxTime) * time.Second,
		MaxSamples:  *maxSamples,
		SkipFirst:   cfg.Input.SkipFirst,
	})
	if err := session.Run(ctx, producer); err != nil {
		logger.WithError(err).Fatal("acquisition failed")
	}
	logger.Info("capture finished")
}
