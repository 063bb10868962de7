package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"codecrate/internal/common"
	"codecrate/internal/domain/model"
	"codecrate/internal/platform/logger"
	"codecrate/internal/platform/objectstore"
	"codecrate/internal/platform/queue"
)

// RepairScheduler queues follow-up repairs for records left with an
// incomplete content link. Backed by the Redis repair queue in production.
type RepairScheduler interface {
	Enqueue(ctx context.Context, task queue.RepairTask) error
}

// ContentLinker is the slice of a metadata repository the coordinator
// drives: back-filling the object key and presigned URL on a row that
// already exists.
type ContentLinker interface {
	UpdateContentLink(ctx context.Context, id, objectKey, bucketURL string) error
}

// ContentCoordinator keeps one entity kind's metadata rows and blobs
// consistent. The two stores fail independently, so every write follows a
// fixed order: the metadata row is inserted first (by the owning service),
// then Attach writes the blob, presigns it, and back-fills the link. A
// failure after the insert leaves a row with an empty link, which is a
// reported, retryable state, never data loss.
type ContentCoordinator struct {
	blobs      objectstore.Store
	meta       ContentLinker
	kind       string
	bucket     string
	presignTTL time.Duration
	log        *logger.Logger
}

func NewContentCoordinator(blobs objectstore.Store, meta ContentLinker, kind, bucket string, presignTTL time.Duration, log *logger.Logger) *ContentCoordinator {
	return &ContentCoordinator{
		blobs:      blobs,
		meta:       meta,
		kind:       kind,
		bucket:     bucket,
		presignTTL: presignTTL,
		log:        log.WithKind(kind),
	}
}

// Attach serializes the tree, writes it under key, presigns the object and
// back-fills the row's link columns. It is the second half of every create,
// the whole of an edit (same key, overwrite), and the full-content repair
// path. Re-running it with the same key is safe: puts overwrite.
func (c *ContentCoordinator) Attach(ctx context.Context, id, key string, tree model.FileTree) (string, error) {
	data, err := json.Marshal(tree)
	if err != nil {
		return "", fmt.Errorf("serialize %s %s: %v: %w", c.kind, id, err, common.ErrInvalidContent)
	}

	if err := c.blobs.Put(ctx, c.bucket, key, data); err != nil {
		return "", c.partial(id, key, err)
	}
	return c.relink(ctx, id, key)
}

// Reattach repairs a record without fresh content: it requires the blob to
// already exist at key, then re-presigns and back-fills the link. Used when
// the put landed but the presign or link update did not.
func (c *ContentCoordinator) Reattach(ctx context.Context, id, key string) (string, error) {
	if _, err := c.blobs.Stat(ctx, c.bucket, key); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return "", fmt.Errorf("no stored content for %s %s, resubmit files to repair: %w", c.kind, id, common.ErrNotFound)
		}
		return "", c.partial(id, key, err)
	}
	return c.relink(ctx, id, key)
}

func (c *ContentCoordinator) relink(ctx context.Context, id, key string) (string, error) {
	url, err := c.blobs.Presign(ctx, c.bucket, key, c.presignTTL)
	if err != nil {
		return "", c.partial(id, key, err)
	}
	if err := c.meta.UpdateContentLink(ctx, id, key, url); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return "", err
		}
		return "", c.partial(id, key, err)
	}
	return url, nil
}

// Fetch loads the blob at key and issues a fresh presigned URL. The URL
// stored on the row is never trusted: it may be past its TTL, so every
// fetch re-presigns.
func (c *ContentCoordinator) Fetch(ctx context.Context, key string) (model.FileTree, string, error) {
	var tree model.FileTree

	data, err := c.blobs.Get(ctx, c.bucket, key)
	if err != nil {
		return tree, "", fmt.Errorf("fetch %s content at %q: %w", c.kind, key, err)
	}
	if err := json.Unmarshal(data, &tree); err != nil {
		return tree, "", fmt.Errorf("decode %s content at %q: %v: %w", c.kind, key, err, common.ErrInvalidContent)
	}

	url, err := c.blobs.Presign(ctx, c.bucket, key, c.presignTTL)
	if err != nil {
		return tree, "", fmt.Errorf("presign %s content at %q: %w", c.kind, key, err)
	}
	return tree, url, nil
}

// Objects lists the kind's bucket. Surfaced for the template browse API.
func (c *ContentCoordinator) Objects(ctx context.Context, prefix string) ([]objectstore.ObjectInfo, error) {
	objects, err := c.blobs.List(ctx, c.bucket, prefix)
	if err != nil {
		return nil, fmt.Errorf("list %s objects: %w", c.kind, err)
	}
	return objects, nil
}

func (c *ContentCoordinator) partial(id, key string, cause error) error {
	c.log.Warn("content write incomplete", "id", id, "object_key", key, "err", cause)
	return &common.PartialWriteError{Kind: c.kind, ID: id, ObjectKey: key, Cause: cause}
}
