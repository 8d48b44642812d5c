package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"docchat/internal/retention"
	"docchat/pkg/api"
	"docchat/pkg/banner"
	"docchat/pkg/config"
	"docchat/pkg/gateway"
	"docchat/pkg/logger"
	"docchat/pkg/security"
	"docchat/pkg/state"
	"docchat/pkg/store"
	"docchat/pkg/threads"
	"docchat/pkg/validation"
)

// build metadata - set via ldflags during build/release
var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	_ = godotenv.Load(".env")
	addrVal, dbVal, cfgVal, gwVal, setFlags := config.ParseCommandFlags()

	// Resolve config path (file flag wins over env)
	cfgPath := config.ResolveConfigPath(cfgVal, setFlags["config"])

	cfg, fileLoaded, envUsed, err := config.LoadEffective(cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logger.InitWithLevel(cfg.Logging.Level)

	// Flags win over config/env when explicitly provided by the user.
	addr := addrVal
	if !setFlags["addr"] {
		addr = cfg.Addr()
	}
	dbPath := dbVal
	if !setFlags["db"] && cfg.Storage.DBPath != "" {
		dbPath = cfg.Storage.DBPath
	}
	gatewayURL := gwVal
	if !setFlags["gateway"] && cfg.Gateway.BaseURL != "" {
		gatewayURL = cfg.Gateway.BaseURL
	}

	validation.SetRules(validation.Rules{MaxContentLen: cfg.Validation.MaxContentLen})

	if err := state.EnsureStateDirs(dbPath); err != nil {
		log.Fatalf("failed to prepare state dirs under %s: %v", dbPath, err)
	}
	kv, err := store.OpenPebble(filepath.Join(dbPath, "store"))
	if err != nil {
		log.Fatalf("failed to open pebble at %s: %v", dbPath, err)
	}

	st := threads.New(kv)
	active, ids, err := st.Bootstrap()
	if err != nil {
		log.Fatalf("thread store bootstrap failed: %v", err)
	}
	logger.Info("thread_store_ready", "active", active, "threads", len(ids))

	gw := gateway.New(gatewayURL, nil)

	ctx, cancel := context.WithCancel(context.Background())
	stopRetention, err := retention.Start(ctx, cfg, st)
	if err != nil {
		log.Fatalf("failed to start retention: %v", err)
	}

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		s := <-sigc
		logger.Info("signal_received", "signal", s.String())
		stopRetention()
		cancel()
		if err := kv.Close(); err != nil {
			logger.Error("store_close_failed", "error", err)
		}
		os.Exit(0)
	}()

	// Determine config sources summary (flags/env/config)
	var srcs []string
	if len(setFlags) > 0 {
		srcs = append(srcs, "flags")
	}
	if envUsed {
		srcs = append(srcs, "env")
	}
	if fileLoaded {
		srcs = append(srcs, "config")
	}
	verStr := version
	if commit != "none" {
		verStr = verStr + " (" + commit + ")"
	}
	if buildDate != "unknown" {
		verStr = verStr + " @ " + buildDate
	}
	banner.Print(cfg, addr, dbPath, strings.Join(srcs, ", "), verStr)

	mux := http.NewServeMux()
	mux.Handle("/", api.NewRouter(st, gw))
	mux.Handle("/docs/", httpSwagger.Handler(httpSwagger.URL("/openapi.yaml")))
	mux.Handle("/openapi.yaml", http.FileServer(http.Dir("./docs")))
	mux.Handle("/metrics", promhttp.Handler())

	secCfg := security.SecConfig{
		AllowedOrigins: cfg.Security.CORS.AllowedOrigins,
		RPS:            cfg.Security.RateLimit.RPS,
		Burst:          cfg.Security.RateLimit.Burst,
		FrontendKeys:   map[string]struct{}{},
		AllowUnauth:    cfg.Security.APIKeys.AllowUnauth,
	}
	for _, k := range cfg.Security.APIKeys.Frontend {
		secCfg.FrontendKeys[k] = struct{}{}
	}
	wrapped := security.Middleware(secCfg)(mux)

	cert := cfg.Server.TLS.CertFile
	key := cfg.Server.TLS.KeyFile
	var errServe error
	if cert != "" && key != "" {
		errServe = http.ListenAndServeTLS(addr, cert, key, wrapped)
	} else {
		errServe = http.ListenAndServe(addr, wrapped)
	}
	if errServe != nil {
		log.Fatal(errServe)
	}
}
