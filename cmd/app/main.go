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

    "github.com/cleilsonalvino/lotespdf/internal/api"
    "github.com/cleilsonalvino/lotespdf/internal/batch"
    "github.com/cleilsonalvino/lotespdf/internal/blob"
    "github.com/cleilsonalvino/lotespdf/internal/compose"
    cfgpkg "github.com/cleilsonalvino/lotespdf/internal/config"
    "github.com/cleilsonalvino/lotespdf/internal/limiter"
    logpkg "github.com/cleilsonalvino/lotespdf/internal/logger"
    "github.com/cleilsonalvino/lotespdf/internal/metrics"
    "github.com/cleilsonalvino/lotespdf/internal/normalize"
    "github.com/cleilsonalvino/lotespdf/internal/statuscheck"
    "github.com/cleilsonalvino/lotespdf/internal/store"
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

    ctx := context.Background()

    // Payload storage
    var blobs blob.Store
    switch cfg.Blob.Backend {
    case "s3":
        s3s, err := blob.NewS3Store(ctx, cfg.Blob.S3Bucket, cfg.Blob.S3Prefix, cfg.Blob.EncryptionPassword)
        if err != nil { log.Fatal().Err(err).Msg("failed to init s3 blob store") }
        blobs = s3s
    default:
        fs, err := blob.NewFileStore(cfg.Store.DataDir + "/blobs")
        if err != nil { log.Fatal().Err(err).Msg("failed to init file blob store") }
        blobs = fs
    }

    // Batch persistence
    var persister batch.Persister
    var redisPinger statuscheck.RedisPinger
    switch cfg.Store.Backend {
    case "redis":
        rp, err := store.NewRedisPersister(cfg.Store.RedisURL)
        if err != nil { log.Fatal().Err(err).Msg("failed to init redis persister") }
        defer rp.Close()
        persister = rp
        redisPinger = rp
    default:
        fm, err := store.NewFileManifest(cfg.Store.DataDir)
        if err != nil { log.Fatal().Err(err).Msg("failed to init file manifest") }
        persister = fm
    }

    batches := batch.NewStore(persister, blobs)
    if err := batches.Load(ctx); err != nil {
        log.Fatal().Err(err).Msg("failed to load batch set")
    }
    metrics.SetBatchCount(len(batches.List()))

    statusOpts := statuscheck.Options{Redis: redisPinger, DataDir: cfg.Store.DataDir}
    if cfg.Blob.Backend == "s3" {
        statusOpts.S3Bucket = cfg.Blob.S3Bucket
    } else {
        statusOpts.BlobRoot = cfg.Store.DataDir + "/blobs"
    }
    checker := statuscheck.New(statusOpts)

    handler := api.New(api.Dependencies{
        Store:      batches,
        Normalizer: normalize.New(cfg.Ingest.MaxW, cfg.Ingest.MaxH, cfg.Ingest.JPEGQuality),
        Compositor: compose.New(blobs),
        Ingest:     cfg.Ingest,
        Render:     cfg.Render,
        Limits:     limiter.New(limiter.Options{MaxInflight: cfg.Render.MaxInflight}),
        Status:     checker,
    })
    mux := http.NewServeMux()
    handler.RegisterRoutes(mux)

    srv := &http.Server{Addr: ":" + cfg.Server.Port, Handler: mux}

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
    sctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
    defer cancel()
    _ = srv.Shutdown(sctx)
    fmt.Println("shutdown complete")
}
