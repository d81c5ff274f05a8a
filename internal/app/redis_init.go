package app

import (
	goredis "github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/shop/internal/domain"
	redisstore "github.com/vladislavdragonenkov/shop/internal/storage/redis"
)

// initCatalogCache оборачивает каталог Redis-кешем если addr не пустой.
// Возвращает клиент (для закрытия при остановке) и итоговый каталог.
func initCatalogCache(addr string, next domain.CatalogService, logger *log.Entry) (*goredis.Client, domain.CatalogService) {
	if addr == "" {
		return nil, next
	}

	client := goredis.NewClient(&goredis.Options{Addr: addr})
	logger.WithField("addr", addr).Info("redis catalog cache enabled")

	return client, redisstore.NewCatalogCache(next, client, logger)
}

// closeRedis закрывает Redis клиент если он не nil.
func closeRedis(client *goredis.Client, logger *log.Entry) {
	if client == nil {
		return
	}

	if err := client.Close(); err != nil {
		logger.WithError(err).Warn("failed to close redis client")
	}
}
