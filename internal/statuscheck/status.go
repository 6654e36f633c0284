package statuscheck

import (
    "context"
    "errors"
    "os"
    "time"

    awscfg "github.com/aws/aws-sdk-go-v2/config"
    "github.com/aws/aws-sdk-go-v2/service/s3"
)

// RedisPinger models the minimal Redis capability we need for status checks.
type RedisPinger interface {
    Ping(ctx context.Context) error
}

// Checker aggregates readiness checks for the manifest store and the
// blob backend.
type Checker struct {
    redis    RedisPinger
    dataDir  string
    blobRoot string
    s3Bucket string
}

// Options configures the Checker. Redis and S3Bucket are set only when
// the corresponding backend is selected; the file paths otherwise.
type Options struct {
    Redis    RedisPinger
    DataDir  string
    BlobRoot string
    S3Bucket string
}

// Status represents the readiness of a subsystem.
type Status struct {
    OK      bool   `json:"ok"`
    Message string `json:"message"`
}

// Summary bundles the subsystem statuses.
type Summary struct {
    Store Status `json:"store"`
    Blobs Status `json:"blobs"`
}

// New creates a new Checker with the provided options.
func New(opts Options) *Checker {
    return &Checker{
        redis:    opts.Redis,
        dataDir:  opts.DataDir,
        blobRoot: opts.BlobRoot,
        s3Bucket: opts.S3Bucket,
    }
}

// Summary returns the current readiness snapshot.
func (c *Checker) Summary(ctx context.Context) Summary {
    return Summary{
        Store: c.checkStore(ctx),
        Blobs: c.checkBlobs(ctx),
    }
}

// Healthy reports whether every subsystem is ready.
func (s Summary) Healthy() bool {
    return s.Store.OK && s.Blobs.OK
}

func (c *Checker) checkStore(ctx context.Context) Status {
    if c.redis != nil {
        ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
        defer cancel()
        if err := c.redis.Ping(ctx); err != nil {
            return Status{OK: false, Message: trimError(err)}
        }
        return Status{OK: true, Message: "Connected"}
    }
    return checkDir(c.dataDir)
}

func (c *Checker) checkBlobs(ctx context.Context) Status {
    if c.s3Bucket != "" {
        ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
        defer cancel()
        cfg, err := awscfg.LoadDefaultConfig(ctx)
        if err != nil {
            return Status{OK: false, Message: trimError(err)}
        }
        cli := s3.NewFromConfig(cfg)
        if _, err := cli.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: &c.s3Bucket}); err != nil {
            return Status{OK: false, Message: trimError(err)}
        }
        return Status{OK: true, Message: "Connected"}
    }
    return checkDir(c.blobRoot)
}

func checkDir(dir string) Status {
    if dir == "" {
        return Status{OK: false, Message: "Directory not configured"}
    }
    info, err := os.Stat(dir)
    if err != nil {
        return Status{OK: false, Message: trimError(err)}
    }
    if !info.IsDir() {
        return Status{OK: false, Message: "Not a directory"}
    }
    return Status{OK: true, Message: "Writable"}
}

func trimError(err error) string {
    if err == nil {
        return ""
    }
    var netErr interface{ Timeout() bool }
    if errors.As(err, &netErr) && netErr.Timeout() {
        return "timeout"
    }
    msg := err.Error()
    if len(msg) > 120 {
        return msg[:120]
    }
    return msg
}
