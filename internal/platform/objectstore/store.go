package objectstore

import (
	"context"
	"fmt"
	"time"

	"github.com/gosimple/slug"
)

// ObjectInfo describes one stored object, as returned by List and Stat.
type ObjectInfo struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"last_modified"`
}

// Store is the blob half of the platform: one JSON object per entity,
// addressed by bucket+key, read by clients through presigned URLs. Put
// overwrites, so re-running a write against the same key is safe.
type Store interface {
	Put(ctx context.Context, bucket, key string, data []byte) error
	Get(ctx context.Context, bucket, key string) ([]byte, error)
	Stat(ctx context.Context, bucket, key string) (ObjectInfo, error)
	List(ctx context.Context, bucket, prefix string) ([]ObjectInfo, error)
	Presign(ctx context.Context, bucket, key string, ttl time.Duration) (string, error)
	EnsureBucket(ctx context.Context, bucket string) error
}

// Object keys are derived once per entity at creation time and reused on
// every content edit. The one exception is attempt submissions, which
// rotate to a fresh key per upload (kept blobs form the submission trail).

func TemplateKey(id, name string) string {
	if s := slug.Make(name); s != "" {
		return s + ".json"
	}
	return "template-" + id + ".json"
}

func AssignmentKey(id string) string {
	return "assignment-" + id + ".json"
}

func AttemptKey(id string) string {
	return "attempt-" + id + ".json"
}

func AttemptSubmissionKey(id string, at time.Time) string {
	return fmt.Sprintf("attempt-%s-%d.json", id, at.UnixNano())
}
