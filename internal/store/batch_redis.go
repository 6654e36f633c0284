package store

import (
	"context"
	"encoding/json"
	"fmt"

	redis "github.com/redis/go-redis/v9"

	"github.com/cleilsonalvino/lotespdf/internal/batch"
)

const manifestKey = "lotes:manifest"

// RedisPersister keeps the whole batch set under one key, mirroring the
// single-slot manifest of the file backend.
type RedisPersister struct {
	client *redis.Client
}

func NewRedisPersister(redisURL string) (*RedisPersister, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	c := redis.NewClient(opt)
	if err := c.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &RedisPersister{client: c}, nil
}

func (p *RedisPersister) Close() error { return p.client.Close() }

// Ping reports whether the backing Redis is reachable.
func (p *RedisPersister) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}

func (p *RedisPersister) Save(ctx context.Context, batches []batch.Batch) error {
	data, err := json.Marshal(toWire(batches))
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	return p.client.Set(ctx, manifestKey, data, 0).Err()
}

func (p *RedisPersister) Load(ctx context.Context) ([]batch.Batch, error) {
	data, err := p.client.Get(ctx, manifestKey).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var persisted []persistedBatch
	if err := json.Unmarshal(data, &persisted); err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}
	return fromWire(persisted), nil
}
