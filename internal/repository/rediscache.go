package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/brus83/proactive-it-support-hub-sub001/pkg/models"
)

// CachedWorkflowStore is a cache-aside decorator over a WorkflowStore.
// Workflow definitions are read-mostly and their steps immutable once an
// execution references them, so cached reads never serve a stale step
// sequence. Cache failures degrade to the underlying store.
type CachedWorkflowStore struct {
	WorkflowStore

	rdb *redis.Client
	ttl time.Duration
	log *logrus.Logger
}

// NewCachedWorkflowStore wraps next with a redis cache.
func NewCachedWorkflowStore(next WorkflowStore, rdb *redis.Client, ttl time.Duration, log *logrus.Logger) *CachedWorkflowStore {
	return &CachedWorkflowStore{WorkflowStore: next, rdb: rdb, ttl: ttl, log: log}
}

// Get fetches the workflow by id, serving from cache when possible.
func (c *CachedWorkflowStore) Get(ctx context.Context, id string) (*models.Workflow, error) {
	return c.cached(ctx, "workflow:id:"+id, func() (*models.Workflow, error) {
		return c.WorkflowStore.Get(ctx, id)
	})
}

// GetActiveByCategory resolves the category binding, serving from cache
// when possible.
func (c *CachedWorkflowStore) GetActiveByCategory(ctx context.Context, categoryID string) (*models.Workflow, error) {
	return c.cached(ctx, "workflow:category:"+categoryID, func() (*models.Workflow, error) {
		return c.WorkflowStore.GetActiveByCategory(ctx, categoryID)
	})
}

// Deactivate drops the cached entries alongside the write so lookups stop
// returning the workflow as soon as the store does.
func (c *CachedWorkflowStore) Deactivate(ctx context.Context, id string) error {
	workflow, err := c.WorkflowStore.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := c.WorkflowStore.Deactivate(ctx, id); err != nil {
		return err
	}
	keys := []string{"workflow:id:" + id}
	if workflow.CategoryID != nil {
		keys = append(keys, "workflow:category:"+*workflow.CategoryID)
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		c.log.WithError(err).Warn("workflow cache invalidation failed")
	}
	return nil
}

func (c *CachedWorkflowStore) cached(ctx context.Context, key string, load func() (*models.Workflow, error)) (*models.Workflow, error) {
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if err == nil {
		var w models.Workflow
		if err := json.Unmarshal(raw, &w); err == nil {
			return &w, nil
		}
		c.log.WithField("key", key).Warn("discarding undecodable workflow cache entry")
	} else if !errors.Is(err, redis.Nil) {
		c.log.WithError(err).Warn("workflow cache read failed")
	}

	workflow, err := load()
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(workflow); err == nil {
		if err := c.rdb.Set(ctx, key, raw, c.ttl).Err(); err != nil {
			c.log.WithError(err).Warn("workflow cache write failed")
		}
	}
	return workflow, nil
}
