// Package cache provides a Redis-backed season cache. Seasons discovered
// during fixture recovery are remembered per league so later bulk passes can
// try them without re-probing the provider.
package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Config holds Redis connection settings
type Config struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// RedisCache stores per-league season history in Redis sets
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache connects to Redis and verifies the connection with a ping
func NewRedisCache(cfg Config) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisCache{
		client: client,
		ttl:    30 * 24 * time.Hour,
	}, nil
}

func seasonKey(leagueID int) string {
	return "goal:seasons:" + strconv.Itoa(leagueID)
}

// Seasons returns the remembered seasons for a league. A missing key yields
// an empty slice, not an error.
func (c *RedisCache) Seasons(ctx context.Context, leagueID int) ([]int, error) {
	members, err := c.client.SMembers(ctx, seasonKey(leagueID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read season cache: %w", err)
	}

	seasons := make([]int, 0, len(members))
	for _, m := range members {
		season, err := strconv.Atoi(m)
		if err != nil {
			log.Debug().Str("member", m).Int("league_id", leagueID).Msg("Skipping malformed season cache entry")
			continue
		}
		seasons = append(seasons, season)
	}
	return seasons, nil
}

// AddSeasons remembers seasons for a league and refreshes the key's TTL
func (c *RedisCache) AddSeasons(ctx context.Context, leagueID int, seasons []int) error {
	key := seasonKey(leagueID)
	members := make([]interface{}, 0, len(seasons))
	for _, s := range seasons {
		if s == 0 {
			continue
		}
		members = append(members, strconv.Itoa(s))
	}
	if len(members) == 0 {
		return nil
	}

	pipe := c.client.Pipeline()
	pipe.SAdd(ctx, key, members...)
	pipe.Expire(ctx, key, c.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to update season cache: %w", err)
	}
	return nil
}

// Close closes the underlying Redis connection
func (c *RedisCache) Close() error {
	return c.client.Close()
}
