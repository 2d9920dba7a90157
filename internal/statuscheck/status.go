package statuscheck

import (
    "context"
    "encoding/json"
    "net/http"
    "time"

    awscfg "github.com/aws/aws-sdk-go-v2/config"
    "github.com/aws/aws-sdk-go-v2/service/s3"

    "github.com/local/pdfsplit/internal/render"
)

// RedisPinger models the minimal Redis capability we need for status checks.
type RedisPinger interface {
    Ping(ctx context.Context) error
}

// Checker aggregates readiness checks for the subsystems this service
// depends on.
type Checker struct {
    redis    RedisPinger
    s3Bucket string
    renderer render.Renderer
}

// Options configures the Checker.
type Options struct {
    Redis    RedisPinger
    S3Bucket string
    Renderer render.Renderer
}

// Status represents the readiness of a subsystem.
type Status struct {
    OK      bool   `json:"ok"`
    Message string `json:"message"`
}

// Summary bundles all subsystem statuses.
type Summary struct {
    Redis    Status `json:"redis"`
    S3       Status `json:"s3"`
    Renderer Status `json:"renderer"`
}

// New creates a new Checker with the provided options.
func New(opts Options) *Checker {
    return &Checker{redis: opts.Redis, s3Bucket: opts.S3Bucket, renderer: opts.Renderer}
}

// Run executes all checks and returns the summary.
func (c *Checker) Run(ctx context.Context) Summary {
    return Summary{
        Redis:    c.checkRedis(ctx),
        S3:       c.checkS3(ctx),
        Renderer: c.checkRenderer(),
    }
}

// Handler serves the summary as JSON.
func (c *Checker) Handler() http.HandlerFunc {
    return func(w http.ResponseWriter, r *http.Request) {
        ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
        defer cancel()
        w.Header().Set("Content-Type", "application/json")
        _ = json.NewEncoder(w).Encode(c.Run(ctx))
    }
}

func (c *Checker) checkRedis(ctx context.Context) Status {
    if c.redis == nil {
        return Status{OK: false, Message: "not configured"}
    }
    if err := c.redis.Ping(ctx); err != nil {
        return Status{OK: false, Message: err.Error()}
    }
    return Status{OK: true, Message: "connected"}
}

func (c *Checker) checkS3(ctx context.Context) Status {
    if c.s3Bucket == "" {
        return Status{OK: false, Message: "not configured"}
    }
    cfg, err := awscfg.LoadDefaultConfig(ctx)
    if err != nil {
        return Status{OK: false, Message: err.Error()}
    }
    cli := s3.NewFromConfig(cfg)
    if _, err := cli.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: &c.s3Bucket}); err != nil {
        return Status{OK: false, Message: err.Error()}
    }
    return Status{OK: true, Message: "bucket reachable"}
}

func (c *Checker) checkRenderer() Status {
    if c.renderer == nil || !c.renderer.Available() {
        return Status{OK: false, Message: "MuPDF backend unavailable; jpg mode disabled"}
    }
    return Status{OK: true, Message: "ready"}
}
