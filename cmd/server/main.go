package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"eventreg/bot"
	"eventreg/impl/admission"
	"eventreg/impl/auth"
	"eventreg/impl/core"
	"eventreg/internal/attachments"
	"eventreg/internal/config"
	"eventreg/internal/database"
	"eventreg/internal/http-server/api"
	"eventreg/internal/outbox"
	"eventreg/internal/storage"
	"eventreg/internal/storage/memory"
	"eventreg/internal/storage/mysql"
	"eventreg/lib/logger"
	"eventreg/lib/sl"
)

const logFileName = "eventreg.log"

// store is what the core and the outbox dispatcher need from persistence.
type store interface {
	storage.Store
	storage.EventSource
}

func main() {
	configPath := flag.String("conf", "config.yml", "path to config file")
	logPath := flag.String("log", "/var/log/", "path to log file directory")
	flag.Parse()

	conf := config.MustLoad(*configPath)
	lg := logger.SetupLogger(conf.Env, filepath.Join(*logPath, logFileName))
	lg.Info("starting eventreg", slog.String("config", *configPath), slog.String("env", conf.Env))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mongo := database.NewMongoClient(conf)
	if mongo != nil {
		lg.With(
			slog.String("host", conf.Mongo.Host),
			slog.String("database", conf.Mongo.Database),
		).Info("mongo client initialized")
	}

	var tgBot *bot.TgBot
	if conf.Telegram.Enabled && mongo != nil {
		var err error
		tgBot, err = bot.NewTgBot(conf.Telegram.ApiKey, mongo, lg)
		if err != nil {
			lg.Error("telegram bot", sl.Err(err))
		} else {
			level, ok := logger.ParseLevel(conf.Telegram.AlertLevel)
			if !ok {
				level = slog.LevelError
			}
			lg = slog.New(logger.NewTelegramHandler(lg.Handler(), tgBot, bot.Sanitize, level))
			lg.Info("telegram bot initialized", slog.String("alert_level", level.String()))
		}
	}

	var db store
	if conf.MySql.Enabled {
		sqlClient, err := mysql.NewSQLClient(conf)
		if err != nil {
			lg.Error("mysql client", sl.Err(err))
			os.Exit(1)
		}
		defer sqlClient.Close()
		db = sqlClient
		lg.With(
			slog.String("host", conf.MySql.HostName),
			slog.String("database", conf.MySql.Database),
		).Info("mysql storage initialized")
	} else {
		db = memory.New()
		lg.Warn("mysql disabled, using in-memory storage")
	}

	handler := core.New(db, lg, core.Options{
		Admission: admission.Options{
			ReleaseOnPendingReject: conf.Admission.ReleaseOnPendingReject,
		},
	})

	if mongo != nil {
		handler.SetAuthService(auth.New(mongo, conf.StaticUsers))
		handler.SetDirectory(mongo)
	} else {
		handler.SetAuthService(auth.New(nil, conf.StaticUsers))
	}

	files, err := attachments.NewDisk(conf.Uploads.Dir, conf.Uploads.MaxSizeMB)
	if err != nil {
		lg.Error("attachment store", sl.Err(err))
		os.Exit(1)
	}
	handler.SetAttachmentStore(files)

	if tgBot != nil {
		tgBot.SetReviews(handler)
		go func() {
			if err := tgBot.Start(); err != nil {
				lg.Error("telegram bot", sl.Err(err))
			}
		}()
	}

	var dispatcher *outbox.Dispatcher
	if conf.Kafka.Enabled {
		producer := outbox.NewKafkaProducer(conf.Kafka.Brokers)
		defer func() {
			_ = producer.Close()
		}()
		dispatcher = outbox.NewDispatcher(db, producer, conf.Kafka.Topic,
			time.Duration(conf.Kafka.PollIntervalSec)*time.Second, conf.Kafka.BatchSize, lg)
		go dispatcher.Start(ctx)
		lg.Info("outbox dispatcher started", slog.String("topic", conf.Kafka.Topic))
	}

	server, err := api.New(conf, lg, handler)
	if err != nil {
		lg.Error("server start", sl.Err(err))
		os.Exit(1)
	}

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := server.Serve(); err != nil {
			lg.Error("server error", sl.Err(err))
			shutdownCh <- syscall.SIGTERM
		}
	}()

	sig := <-shutdownCh
	lg.Info("shutting down", slog.String("signal", sig.String()))
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}
	if tgBot != nil {
		tgBot.Stop()
	}
	if dispatcher != nil {
		dispatcher.Wait()
	}
}
