package business

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// ErrTenantNotFound is returned when no tenant matches a lookup.
var ErrTenantNotFound = errors.New("business: tenant not found")

// Store provides persistence for tenant configurations.
type Store struct {
	redis *redis.Client
}

// NewStore creates a new tenant config store.
func NewStore(redisClient *redis.Client) *Store {
	return &Store{redis: redisClient}
}

func (s *Store) key(tenantID string) string {
	return fmt.Sprintf("tenant:config:%s", tenantID)
}

func (s *Store) instanceKey(instanceName string) string {
	return fmt.Sprintf("tenant:instance:%s", instanceName)
}

const activeSetKey = "tenant:active"

// Get retrieves tenant config, returning default if not found.
func (s *Store) Get(ctx context.Context, tenantID string) (*Config, error) {
	data, err := s.redis.Get(ctx, s.key(tenantID)).Bytes()
	if err == redis.Nil {
		return DefaultConfig(tenantID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("business: get config: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("business: unmarshal config: %w", err)
	}

	return &cfg, nil
}

// Set saves tenant config and maintains the instance-name index plus the
// active-tenant set used for webhook routing.
func (s *Store) Set(ctx context.Context, cfg *Config) error {
	data, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("business: marshal config: %w", err)
	}

	if err := s.redis.Set(ctx, s.key(cfg.TenantID), data, 0).Err(); err != nil {
		return fmt.Errorf("business: set config: %w", err)
	}

	if cfg.WhatsApp != nil && cfg.WhatsApp.InstanceName != "" {
		if cfg.WhatsApp.Active {
			if err := s.redis.Set(ctx, s.instanceKey(cfg.WhatsApp.InstanceName), cfg.TenantID, 0).Err(); err != nil {
				return fmt.Errorf("business: index instance: %w", err)
			}
		} else {
			if err := s.redis.Del(ctx, s.instanceKey(cfg.WhatsApp.InstanceName)).Err(); err != nil {
				return fmt.Errorf("business: unindex instance: %w", err)
			}
		}
	}

	active := (cfg.WhatsApp != nil && cfg.WhatsApp.Active) || (cfg.Telegram != nil && cfg.Telegram.Active)
	if active {
		if err := s.redis.SAdd(ctx, activeSetKey, cfg.TenantID).Err(); err != nil {
			return fmt.Errorf("business: mark active: %w", err)
		}
	} else {
		if err := s.redis.SRem(ctx, activeSetKey, cfg.TenantID).Err(); err != nil {
			return fmt.Errorf("business: unmark active: %w", err)
		}
	}

	return nil
}

// FindByInstance resolves a tenant config from a WhatsApp instance name.
func (s *Store) FindByInstance(ctx context.Context, instanceName string) (*Config, error) {
	tenantID, err := s.redis.Get(ctx, s.instanceKey(instanceName)).Result()
	if err == redis.Nil {
		return nil, ErrTenantNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("business: find by instance: %w", err)
	}
	return s.Get(ctx, tenantID)
}

// AllActive returns every tenant with an active channel integration.
func (s *Store) AllActive(ctx context.Context) ([]*Config, error) {
	ids, err := s.redis.SMembers(ctx, activeSetKey).Result()
	if err != nil {
		return nil, fmt.Errorf("business: list active: %w", err)
	}
	out := make([]*Config, 0, len(ids))
	for _, id := range ids {
		cfg, err := s.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, cfg)
	}
	return out, nil
}

// FirstActive returns an arbitrary tenant with an active channel integration.
// Mirrors the fallback the webhook uses when no instance name matches.
func (s *Store) FirstActive(ctx context.Context) (*Config, error) {
	ids, err := s.redis.SMembers(ctx, activeSetKey).Result()
	if err != nil {
		return nil, fmt.Errorf("business: list active: %w", err)
	}
	if len(ids) == 0 {
		return nil, ErrTenantNotFound
	}
	return s.Get(ctx, ids[0])
}
