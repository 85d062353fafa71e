package redis

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"
)

// RedisClient estructura para manejar conexiones con Redis
type RedisClient struct {
	client *redis.Client
}

// NewRedisClient crea una nueva instancia del cliente Redis y verifica la conexión
func NewRedisClient(ctx context.Context, addr, password string, db int) (*RedisClient, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if _, err := rdb.Ping(ctx).Result(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("error conectando a Redis en %s: %w", addr, err)
	}

	log.Println("✅ Conexión exitosa a Redis")

	return &RedisClient{client: rdb}, nil
}

func panelKey(viewerID string) string {
	return fmt.Sprintf("quiz:viewer:%s:filter-collapsed", viewerID)
}

// PanelCollapsed lee el flag del panel de filtros de un visitante.
// Si no existe la clave el panel está abierto.
func (r *RedisClient) PanelCollapsed(ctx context.Context, viewerID string) (bool, error) {
	value, err := r.client.Get(ctx, panelKey(viewerID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("error obteniendo estado del panel: %w", err)
	}
	return value == "true", nil
}

// SetPanelCollapsed guarda el flag del panel de filtros
func (r *RedisClient) SetPanelCollapsed(ctx context.Context, viewerID string, collapsed bool) error {
	value := "false"
	if collapsed {
		value = "true"
	}
	if err := r.client.Set(ctx, panelKey(viewerID), value, 0).Err(); err != nil {
		return fmt.Errorf("error guardando estado del panel: %w", err)
	}
	return nil
}

// Close cierra la conexión con Redis
func (r *RedisClient) Close() error {
	return r.client.Close()
}

// HealthCheck verifica que Redis esté funcionando
func (r *RedisClient) HealthCheck(ctx context.Context) error {
	if _, err := r.client.Ping(ctx).Result(); err != nil {
		return fmt.Errorf("redis health check failed: %w", err)
	}
	return nil
}
