package store

import (
    "context"
    "encoding/json"
    "fmt"
    "strconv"
    "time"

    redis "github.com/redis/go-redis/v9"
)

// Request lifecycle states. Failed is reachable from Validated (name
// count mismatch) and Processing (any unit-generation error).
const (
    StateIdle       = "idle"
    StateValidated  = "validated"
    StateProcessing = "processing"
    StatePackaged   = "packaged"
    StateDelivered  = "delivered"
    StateFailed     = "failed"
)

type Status struct {
    State    string                 `json:"state"`
    Progress int                    `json:"progress"`
    Message  string                 `json:"message"`
    Start    *time.Time             `json:"start_time,omitempty"`
    End      *time.Time             `json:"end_time,omitempty"`
    Metadata map[string]interface{} `json:"metadata,omitempty"`
}

type RedisStatus struct {
    client *redis.Client
    keyNS  string
    ttl    time.Duration
}

func NewRedisStatus(redisURL string, ttl time.Duration) (*RedisStatus, error) {
    opt, err := redis.ParseURL(redisURL)
    if err != nil { return nil, err }
    c := redis.NewClient(opt)
    if err := c.Ping(context.Background()).Err(); err != nil { return nil, err }
    return &RedisStatus{client: c, keyNS: "req", ttl: ttl}, nil
}

func (s *RedisStatus) key(id string) string { return fmt.Sprintf("%s:%s:status", s.keyNS, id) }

func (s *RedisStatus) Set(ctx context.Context, id string, st Status) error {
    m := map[string]interface{}{
        "state":    st.State,
        "progress": st.Progress,
        "message":  st.Message,
    }
    if st.Start != nil { m["start"] = st.Start.Format(time.RFC3339Nano) }
    if st.End != nil { m["end"] = st.End.Format(time.RFC3339Nano) }
    if st.Metadata != nil {
        b, _ := json.Marshal(st.Metadata)
        m["metadata"] = string(b)
    }
    if err := s.client.HSet(ctx, s.key(id), m).Err(); err != nil {
        return err
    }
    if s.ttl > 0 {
        return s.client.Expire(ctx, s.key(id), s.ttl).Err()
    }
    return nil
}

func (s *RedisStatus) Get(ctx context.Context, id string) (Status, bool, error) {
    res, err := s.client.HGetAll(ctx, s.key(id)).Result()
    if err != nil { return Status{}, false, err }
    if len(res) == 0 { return Status{}, false, nil }
    st := Status{}
    st.State = res["state"]
    st.Message = res["message"]
    if p, ok := res["progress"]; ok && p != "" {
        // ignore parse error; default 0
        if pi, err := strconv.Atoi(p); err == nil { st.Progress = pi }
    }
    if v, ok := res["start"]; ok && v != "" {
        if ts, err := time.Parse(time.RFC3339Nano, v); err == nil { st.Start = &ts }
    }
    if v, ok := res["end"]; ok && v != "" {
        if ts, err := time.Parse(time.RFC3339Nano, v); err == nil { st.End = &ts }
    }
    if v, ok := res["metadata"]; ok && v != "" {
        _ = json.Unmarshal([]byte(v), &st.Metadata)
    }
    return st, true, nil
}

func (s *RedisStatus) Ping(ctx context.Context) error {
    return s.client.Ping(ctx).Err()
}

func (s *RedisStatus) Close() error { return s.client.Close() }
