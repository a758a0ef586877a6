package utils

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"

	"outreachflow/config"
	"outreachflow/models"
)

// AccountCache is the best-effort accounts-by-id lookup used by token
// resolution. Lookups go local map, then redis, then the database; every
// layer is allowed to miss.
type AccountCache struct {
	DB *gorm.DB

	redis *redis.Client
	ttl   time.Duration

	mu    sync.RWMutex
	local map[uint]*models.Account
}

func NewAccountCache(db *gorm.DB, redisCfg config.RedisConfig) *AccountCache {
	c := &AccountCache{
		DB:    db,
		ttl:   10 * time.Minute,
		local: make(map[uint]*models.Account),
	}
	if redisCfg.Enabled {
		c.redis = redis.NewClient(&redis.Options{
			Addr:     redisCfg.Address,
			Password: redisCfg.Password,
			DB:       redisCfg.DB,
		})
	}
	return c
}

// AccountByID implements the AccountLookup collaborator
func (c *AccountCache) AccountByID(id uint) (*models.Account, bool) {
	c.mu.RLock()
	if account, ok := c.local[id]; ok {
		c.mu.RUnlock()
		return account, true
	}
	c.mu.RUnlock()

	if account, ok := c.fromRedis(id); ok {
		c.store(id, account)
		return account, true
	}

	if c.DB == nil {
		return nil, false
	}
	var account models.Account
	if err := c.DB.First(&account, id).Error; err != nil {
		return nil, false
	}
	c.store(id, &account)
	c.toRedis(id, &account)
	return &account, true
}

// Put seeds the cache, used when accounts arrive with a contact payload
func (c *AccountCache) Put(account *models.Account) {
	if account == nil || account.ID == 0 {
		return
	}
	c.store(account.ID, account)
	c.toRedis(account.ID, account)
}

func (c *AccountCache) store(id uint, account *models.Account) {
	c.mu.Lock()
	c.local[id] = account
	c.mu.Unlock()
}

func (c *AccountCache) fromRedis(id uint) (*models.Account, bool) {
	if c.redis == nil {
		return nil, false
	}
	data, err := c.redis.Get(context.Background(), accountKey(id)).Bytes()
	if err != nil {
		return nil, false
	}
	var account models.Account
	if err := json.Unmarshal(data, &account); err != nil {
		return nil, false
	}
	return &account, true
}

func (c *AccountCache) toRedis(id uint, account *models.Account) {
	if c.redis == nil {
		return
	}
	data, err := json.Marshal(account)
	if err != nil {
		return
	}
	// Best effort; a failed cache write is not an error
	c.redis.Set(context.Background(), accountKey(id), data, c.ttl)
}

func accountKey(id uint) string {
	return fmt.Sprintf("account:%d", id)
}
