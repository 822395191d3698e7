package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cypher-catalog/internal/common/database"
	"cypher-catalog/internal/models"
)

// SchemaCache stores schema contexts keyed by their table limit.
type SchemaCache interface {
	Get(ctx context.Context, limit int) (models.SchemaContext, bool, error)
	Set(ctx context.Context, limit int, schema models.SchemaContext) error
}

const schemaCacheKeyPrefix = "catalog:schema-context:"

// RedisSchemaCache keeps schema contexts in Redis for ttl.
type RedisSchemaCache struct {
	client *database.RedisClient
	ttl    time.Duration
}

func NewRedisSchemaCache(client *database.RedisClient, ttl time.Duration) *RedisSchemaCache {
	return &RedisSchemaCache{client: client, ttl: ttl}
}

func schemaCacheKey(limit int) string {
	return fmt.Sprintf("%s%d", schemaCacheKeyPrefix, limit)
}

func (c *RedisSchemaCache) Get(ctx context.Context, limit int) (models.SchemaContext, bool, error) {
	var schema models.SchemaContext
	err := c.client.GetJSON(ctx, schemaCacheKey(limit), &schema)
	if errors.Is(err, database.ErrCacheMiss) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return schema, true, nil
}

func (c *RedisSchemaCache) Set(ctx context.Context, limit int, schema models.SchemaContext) error {
	return c.client.SetJSON(ctx, schemaCacheKey(limit), schema, c.ttl)
}
