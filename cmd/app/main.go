package main

import (
    "context"
    "fmt"
    "net/http"
    "os"
    "os/signal"
    "syscall"

    "github.com/joho/godotenv"
    "github.com/rs/zerolog/log"

    cfgpkg "github.com/local/pdfsplit/internal/config"
    logpkg "github.com/local/pdfsplit/internal/logger"
    "github.com/local/pdfsplit/internal/metrics"
    "github.com/local/pdfsplit/internal/orchestrator"
    "github.com/local/pdfsplit/internal/render"
    "github.com/local/pdfsplit/internal/statuscheck"
    "github.com/local/pdfsplit/internal/store"
)

func main() {
    _ = godotenv.Load()
    cfg := cfgpkg.FromEnv()

    // Init logging
    _ = logpkg.Init(logpkg.Options{
        Level: cfg.Logging.Level,
        Pretty: cfg.Logging.Pretty,
        File: cfg.Logging.File,
        MaxSizeMB: cfg.Logging.MaxSizeMB,
        MaxBackups: cfg.Logging.MaxBackups,
        MaxAgeDays: cfg.Logging.MaxAgeDays,
        Compress: cfg.Logging.Compress,
        SendToAxiom: cfg.Axiom.Send && cfg.Axiom.APIKey != "",
        AxiomAPIKey: cfg.Axiom.APIKey,
        AxiomOrgID: cfg.Axiom.OrgID,
        AxiomDataset: cfg.Axiom.Dataset,
        AxiomFlush: cfg.Axiom.FlushInterval,
    })
    defer logpkg.Close()

    metrics.Init()

    // Status store
    rs, err := store.NewRedisStatus(cfg.Status.RedisURL, cfg.Status.TTL)
    if err != nil {
        log.Fatal().Err(err).Msg("failed to init redis status store")
    }
    defer rs.Close()

    // Rendering capability is probed once at startup; jpg requests fail
    // with a reportable error when the backend is missing.
    renderer := render.Detect()

    svc := orchestrator.New(orchestrator.Dependencies{
        Status:   rs,
        Renderer: renderer,
    }, render.Options{DPI: cfg.Render.DPI, Quality: cfg.Render.Quality})

    mux := http.NewServeMux()
    orchestrator.NewHTTP(svc, cfg.Server.MaxUploadMB).RegisterRoutes(mux)
    mux.Handle("/metrics", metrics.Handler())

    checker := statuscheck.New(statuscheck.Options{Redis: rs, S3Bucket: cfg.S3.Bucket, Renderer: renderer})
    mux.HandleFunc("/status", checker.Handler())

    srv := &http.Server{Addr: ":"+cfg.Server.Port, Handler: mux}

    go func(){
        log.Info().Msgf("HTTP server listening on :%s", cfg.Server.Port)
        if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
            log.Fatal().Err(err).Msg("http server error")
        }
    }()

    // Graceful shutdown
    stop := make(chan os.Signal, 1)
    signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
    <-stop
    ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
    defer cancel()
    _ = srv.Shutdown(ctx)
    fmt.Println("shutdown complete")
}
