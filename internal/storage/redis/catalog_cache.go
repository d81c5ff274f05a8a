package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/shop/internal/domain"
)

const defaultTTL = 5 * time.Minute

// CatalogCache — read-through кеш каталога поверх CatalogService.
// Промах и любая ошибка Redis прозрачно уходят в нижележащий каталог:
// кеш ускоряет чтение, но никогда не ломает резолв товара.
type CatalogCache struct {
	next    domain.CatalogService
	client  *redis.Client
	logger  *log.Entry
	baseTTL time.Duration
}

// NewCatalogCache оборачивает каталог Redis-кешем с базовым TTL 5 минут.
func NewCatalogCache(next domain.CatalogService, client *redis.Client, logger *log.Entry) *CatalogCache {
	if logger == nil {
		logger = log.WithField("component", "catalog-cache")
	}
	return &CatalogCache{
		next:    next,
		client:  client,
		logger:  logger,
		baseTTL: defaultTTL,
	}
}

// Resolve возвращает товар из кеша либо из каталога с записью в кеш.
func (c *CatalogCache) Resolve(ctx context.Context, productID string) (domain.Product, error) {
	key := cacheKey(productID)

	data, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		var product domain.Product
		if err := json.Unmarshal(data, &product); err == nil {
			return product, nil
		}
		// Битая запись: удаляем и идём в каталог.
		c.invalidate(ctx, key)
	} else if !errors.Is(err, redis.Nil) {
		c.logger.WithError(err).WithField("product_id", productID).Warn("redis get failed, falling through to catalog")
	}

	product, err := c.next.Resolve(ctx, productID)
	if err != nil {
		return domain.Product{}, err
	}

	c.store(ctx, key, product)
	return product, nil
}

// Invalidate удаляет товар из кеша, например после изменения цены или остатка.
func (c *CatalogCache) Invalidate(ctx context.Context, productID string) {
	c.invalidate(ctx, cacheKey(productID))
}

func (c *CatalogCache) store(ctx context.Context, key string, product domain.Product) {
	data, err := json.Marshal(product)
	if err != nil {
		c.logger.WithError(err).Warn("marshal product for cache failed")
		return
	}

	// Jitter размазывает истечение ключей, прогретых одной волной.
	ttl := c.baseTTL + time.Duration(rand.Intn(30))*time.Second
	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		c.logger.WithError(err).Warn("redis set failed")
	}
}

func (c *CatalogCache) invalidate(ctx context.Context, key string) {
	if err := c.client.Del(ctx, key).Err(); err != nil {
		c.logger.WithError(err).Warn("redis delete failed")
	}
}

func cacheKey(productID string) string {
	return fmt.Sprintf("product:%s", productID)
}

var _ domain.CatalogService = (*CatalogCache)(nil)
