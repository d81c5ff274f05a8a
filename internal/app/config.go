package app

import "os"

// Config описывает настройки запуска приложения.
type Config struct {
	// HTTPAddr — адрес основного HTTP API.
	HTTPAddr string
	// MetricsAddr — адрес служебного сервера с метриками и health-check.
	MetricsAddr string
	// PostgresDSN — если пустой, используется in-memory хранилище.
	PostgresDSN string
	// KafkaBrokers — список брокеров через запятую; пустой отключает публикацию.
	KafkaBrokers string
	// RedisAddr — адрес Redis для кеша каталога; пустой отключает кеш.
	RedisAddr string
}

// DefaultConfig возвращает базовые адреса для HTTP API и метрик.
func DefaultConfig() Config {
	return Config{
		HTTPAddr:    ":8080",
		MetricsAddr: ":9090",
	}
}

// LoadConfig формирует конфигурацию из переменных окружения,
// оставляя значения по умолчанию там, где переменная не задана.
func LoadConfig() Config {
	cfg := DefaultConfig()
	if v := os.Getenv("SHOP_HTTP_ADDR"); v != "" {
		cfg.HTTPAddr = v
	}
	if v := os.Getenv("SHOP_METRICS_ADDR"); v != "" {
		cfg.MetricsAddr = v
	}
	cfg.PostgresDSN = os.Getenv("SHOP_POSTGRES_DSN")
	cfg.KafkaBrokers = os.Getenv("SHOP_KAFKA_BROKERS")
	cfg.RedisAddr = os.Getenv("SHOP_REDIS_ADDR")
	return cfg
}
