package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"

	"ferry/internal/config"
	"ferry/internal/daemon"
	"ferry/internal/ipc"
	"ferry/internal/logging"
	"ferry/internal/notifications"
	"ferry/internal/records"
)

func main() {
	configPath := flag.String("config", "", "path to the configuration file")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, _, _, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		log.Fatalf("prepare directories: %v", err)
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	store, err := records.Open(cfg)
	if err != nil {
		logger.Error("open record store", logging.Error(err))
		return
	}

	notificationLog, err := notifications.OpenLog(cfg)
	if err != nil {
		logger.Warn("open notification log; push-only notifications", logging.Error(err))
		notificationLog = nil
	} else {
		defer notificationLog.Close()
	}
	notifier := notifications.NewService(cfg, logger, notificationLog)

	mgr, monitor := buildManager(cfg, store, logger, notifier)

	d, err := daemon.New(cfg, store, logger, mgr, monitor, notifier)
	if err != nil {
		logger.Error("create daemon", logging.Error(err))
		return
	}
	defer d.Close()

	ipcServer, err := ipc.NewServer(ctx, cfg.Paths.SocketPath, d, logger)
	if err != nil {
		logger.Error("start IPC server", logging.Error(err))
		return
	}
	defer ipcServer.Close()
	ipcServer.Serve()

	if err := d.Start(ctx); err != nil {
		logger.Warn("daemon start", logging.Error(err))
	}

	<-ctx.Done()
	logger.Info("ferryd shutting down")
}
