// Command novasqld is the daemon entrypoint: it loads the yaml config
// already read by internal.LoadConfig, opens a database, wires the
// execution engine to a catalog registry, serves the admin HTTP/
// websocket stats surface, and runs a cron-scheduled checkpoint --
// the real daemon the teacher's cmd/server/main.go (a bare SQL-wire
// listener) never grew into.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/tuannm99/novasql/internal"
	"github.com/tuannm99/novasql/internal/admin"
	"github.com/tuannm99/novasql/internal/catalog"
	"github.com/tuannm99/novasql/internal/engine"
	"github.com/tuannm99/novasql/internal/execution"
	"github.com/tuannm99/novasql/internal/storage"
)

func main() {
	var cfgPath string
	var adminAddrFlag string
	flag.StringVar(&cfgPath, "config", "novasql.yaml", "Path to novasql yaml config")
	flag.StringVar(&adminAddrFlag, "admin-addr", "", "Address for the admin stats/checkpoint HTTP surface (overrides config)")
	flag.Parse()

	cfg, err := internal.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	workdir := cfg.Storage.File
	if workdir == "" {
		workdir = "./data"
	}
	if err := os.MkdirAll(workdir, storage.FileMode0755); err != nil {
		log.Fatalf("create data dir: %v", err)
	}

	adminAddr := adminAddrFlag
	if adminAddr == "" {
		adminAddr = cfg.Admin.Addr
	}
	if adminAddr == "" {
		adminAddr = "127.0.0.1:6544"
	}

	db := engine.NewDatabase(workdir)
	defer func() { _ = db.Close() }()

	reg := catalog.NewRegistry(db)
	_ = execution.NewExecutionEngine(db, reg) // available to SQL-wire sessions that adopt the plan-based path

	collector := admin.NewCollector(db, reg)
	adminSrv := admin.NewServer(collector)

	httpSrv := &http.Server{
		Addr:    adminAddr,
		Handler: adminSrv.Handler(),
	}

	checkpointInterval := cfg.Admin.CheckpointIntervalSeconds
	if checkpointInterval <= 0 {
		checkpointInterval = 60
	}

	c := cron.New()
	spec := fmt.Sprintf("@every %ds", checkpointInterval)
	if _, err := c.AddFunc(spec, func() {
		if err := collector.Checkpoint(); err != nil {
			log.Printf("novasqld: scheduled checkpoint failed: %v", err)
		}
	}); err != nil {
		log.Fatalf("schedule checkpoint: %v", err)
	}
	c.Start()
	defer c.Stop()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Printf("novasqld: admin surface listening on %s (workdir=%s)", adminAddr, workdir)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("novasqld: admin server error: %v", err)
		}
	}()

	<-ctx.Done()
	log.Printf("novasqld: shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = httpSrv.Shutdown(shutdownCtx)
}
