// Package main provides the entry point for the proxy server. It wires
// the bootstrap config, logging, the config pool store and its hot-reload
// watcher, the session table and active-config cell, the auto-switch
// controller, the forwarder and the front-door router together, then
// blocks serving until an interrupt signal arrives.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/llmproxy/claude-proxy-router/internal/activeconfig"
	"github.com/llmproxy/claude-proxy-router/internal/autoswitch"
	"github.com/llmproxy/claude-proxy-router/internal/config"
	"github.com/llmproxy/claude-proxy-router/internal/forwarder"
	"github.com/llmproxy/claude-proxy-router/internal/logging"
	"github.com/llmproxy/claude-proxy-router/internal/router"
	"github.com/llmproxy/claude-proxy-router/internal/session"
	"github.com/llmproxy/claude-proxy-router/internal/store"
	_ "github.com/llmproxy/claude-proxy-router/internal/translate/all"
	"github.com/llmproxy/claude-proxy-router/internal/watcher"
)

var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

func main() {
	fmt.Printf("claude-proxy-router Version: %s, Commit: %s, BuiltAt: %s\n", Version, Commit, BuildDate)

	var configPath string
	var poolPath string
	flag.StringVar(&configPath, "config", "", "Bootstrap config file path")
	flag.StringVar(&poolPath, "pool", "", "Config/group pool YAML file path")
	flag.Parse()

	var configFilePath string
	if configPath != "" {
		configFilePath = configPath
	} else {
		wd, err := os.Getwd()
		if err != nil {
			log.Fatalf("failed to get working directory: %v", err)
		}
		configFilePath = filepath.Join(wd, "config.yaml")
	}

	cfg, err := config.LoadConfig(configFilePath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	handles := logging.Setup(cfg.LogDir, cfg.Debug)
	defer handles.Close()

	log.Infof("claude-proxy-router Version: %s, Commit: %s, BuiltAt: %s", Version, Commit, BuildDate)

	if poolPath == "" {
		wd, err := os.Getwd()
		if err != nil {
			log.Fatalf("failed to get working directory: %v", err)
		}
		poolPath = filepath.Join(wd, "pool.yaml")
	}

	poolStore, err := store.Load(poolPath)
	if err != nil {
		log.Fatalf("failed to load config pool: %v", err)
	}

	poolWatcher, err := watcher.New(poolPath, poolStore)
	if err != nil {
		log.Fatalf("failed to create config pool watcher: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := poolWatcher.Start(ctx); err != nil {
		log.Fatalf("failed to start config pool watcher: %v", err)
	}
	defer func() {
		if err := poolWatcher.Stop(); err != nil {
			log.Errorf("failed to stop config pool watcher: %v", err)
		}
	}()

	active := activeconfig.New()
	bootstrapCfg, err := poolStore.Bootstrap()
	if err != nil {
		log.Fatalf("failed to pick a starting active config: %v", err)
	}
	active.Set(bootstrapCfg.ID)
	log.Infof("starting active config: id=%d name=%s", bootstrapCfg.ID, bootstrapCfg.Name)

	sessions := session.NewTable()
	switcher := autoswitch.New(poolStore)
	fwd := forwarder.New(time.Duration(cfg.RequestTimeoutMs)*time.Millisecond, time.Duration(cfg.StreamIdleTimeoutSecs)*time.Second)

	srv := router.New(cfg, poolStore, sessions, active, switcher, fwd)

	sessionMaxAge := time.Duration(cfg.SessionMaxAgeSecs) * time.Second
	go runSessionGC(ctx, sessions, sessionMaxAge)

	go func() {
		if err := srv.Start(); err != nil {
			log.Fatalf("router stopped: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Info("shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		log.Errorf("error during shutdown: %v", err)
	}
}

// runSessionGC periodically sweeps stale session bindings, the
// ticker-driven equivalent of cleanup_stale_sessions (§4.6).
func runSessionGC(ctx context.Context, sessions *session.Table, maxAge time.Duration) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := sessions.CleanupStaleSessions(maxAge); n > 0 {
				log.Debugf("session gc: removed %d stale bindings", n)
			}
		}
	}
}
