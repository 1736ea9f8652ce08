package storage

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"taskboard-api/domain"
)

// Cache wraps a task store with a Redis-backed cache for owner list reads.
// Every mutation evicts the owner's cached list before returning, so a List
// that follows a mutation always reflects the table's current state. Point
// reads bypass the cache; ownership decisions must see fresh records.
type Cache struct {
	base  domain.TaskStorage
	redis *redis.Client
	ttl   time.Duration
}

// NewCache creates a caching wrapper using the provided Redis client and TTL.
func NewCache(base domain.TaskStorage, client *redis.Client, ttl time.Duration) *Cache {
	if base == nil {
		panic("storage.NewCache: base storage is nil")
	}
	if ttl < 0 {
		ttl = 0
	}
	return &Cache{base: base, redis: client, ttl: ttl}
}

func (c *Cache) GetTask(ctx context.Context, id string) (*domain.Task, error) {
	return c.base.GetTask(ctx, id)
}

func (c *Cache) ListTasks(ctx context.Context, ownerID string) ([]domain.Task, error) {
	if tasks, ok := c.loadFromCache(ctx, ownerID); ok {
		return tasks, nil
	}
	tasks, err := c.base.ListTasks(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	c.store(ctx, ownerID, tasks)
	return tasks, nil
}

func (c *Cache) InsertTask(ctx context.Context, t domain.Task) error {
	if err := c.base.InsertTask(ctx, t); err != nil {
		return err
	}
	c.evict(ctx, t.OwnerID)
	return nil
}

func (c *Cache) SaveTask(ctx context.Context, t domain.Task) error {
	if err := c.base.SaveTask(ctx, t); err != nil {
		return err
	}
	c.evict(ctx, t.OwnerID)
	return nil
}

func (c *Cache) DeleteTask(ctx context.Context, ownerID, id string) error {
	if err := c.base.DeleteTask(ctx, ownerID, id); err != nil {
		return err
	}
	c.evict(ctx, ownerID)
	return nil
}

func (c *Cache) loadFromCache(ctx context.Context, ownerID string) ([]domain.Task, bool) {
	if c.redis == nil {
		return nil, false
	}
	data, err := c.redis.Get(ctx, tasksCacheKey(ownerID)).Bytes()
	if err != nil {
		if err != redis.Nil {
			// On redis errors fall back to the backing storage without failing.
			_ = c.redis.Del(ctx, tasksCacheKey(ownerID)).Err()
		}
		return nil, false
	}
	var tasks []domain.Task
	if err := json.Unmarshal(data, &tasks); err != nil {
		_ = c.redis.Del(ctx, tasksCacheKey(ownerID)).Err()
		return nil, false
	}
	// OwnerID is excluded from the task wire form; everything under this key
	// belongs to the same owner.
	for i := range tasks {
		tasks[i].OwnerID = ownerID
	}
	return tasks, true
}

func (c *Cache) store(ctx context.Context, ownerID string, tasks []domain.Task) {
	if c.redis == nil || c.ttl == 0 {
		return
	}
	data, err := json.Marshal(tasks)
	if err != nil {
		return
	}
	_ = c.redis.Set(ctx, tasksCacheKey(ownerID), data, c.ttl).Err()
}

func (c *Cache) evict(ctx context.Context, ownerID string) {
	if c.redis == nil {
		return
	}
	if err := c.redis.Del(ctx, tasksCacheKey(ownerID)).Err(); err != nil {
		// The table write already succeeded; until the TTL expires a stale
		// list may be served, so make the window visible.
		log.WithField("owner", ownerID).WithError(err).Warn("task list cache eviction failed")
	}
}

func tasksCacheKey(ownerID string) string {
	return "tasks:" + ownerID
}
