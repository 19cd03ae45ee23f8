package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"clinica-dental-backend/internal/domain/repository"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ErrRoleNotFound is returned when a role id has no row.
var ErrRoleNotFound = errors.New("role not found")

const (
	// RedisRoleNamesKey holds a hash of role id -> role name.
	RedisRoleNamesKey = "roles:names"

	redisRoleTimeout = 2 * time.Second
)

// RoleCacheService resolves role names through a Redis hash, falling back to
// the roles table. Roles are immutable once seeded, so entries only expire by
// TTL. A nil Redis client disables caching.
type RoleCacheService struct {
	db          *gorm.DB
	redisClient *redis.Client
	log         *logrus.Logger
	roleRepo    repository.RoleRepository
	ttl         time.Duration
}

func NewRoleCacheService(db *gorm.DB, redisClient *redis.Client, log *logrus.Logger, roleRepo repository.RoleRepository, ttl time.Duration) *RoleCacheService {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &RoleCacheService{
		db:          db,
		redisClient: redisClient,
		log:         log,
		roleRepo:    roleRepo,
		ttl:         ttl,
	}
}

// SyncOnStartup loads every role into Redis in a single transaction pipeline.
// Should be called before accepting traffic.
func (s *RoleCacheService) SyncOnStartup(ctx context.Context) error {
	if s.redisClient == nil {
		return nil
	}

	roles, err := s.roleRepo.FindAll(ctx, s.db)
	if err != nil {
		return fmt.Errorf("load roles: %w", err)
	}
	if len(roles) == 0 {
		s.log.Warn("No roles found, role cache left empty")
		return nil
	}

	values := make(map[string]interface{}, len(roles))
	for _, role := range roles {
		values[strconv.Itoa(role.ID)] = role.RoleName
	}

	pipe := s.redisClient.TxPipeline()
	pipe.Del(ctx, RedisRoleNamesKey)
	pipe.HSet(ctx, RedisRoleNamesKey, values)
	pipe.Expire(ctx, RedisRoleNamesKey, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("cache roles: %w", err)
	}

	s.log.Infof("Role cache synced: %d roles", len(roles))
	return nil
}

// RoleName implements RoleNameResolver. Cache errors are logged and the
// database is used instead.
func (s *RoleCacheService) RoleName(ctx context.Context, db *gorm.DB, roleID int) (string, error) {
	field := strconv.Itoa(roleID)

	if s.redisClient != nil {
		rctx, cancel := context.WithTimeout(ctx, redisRoleTimeout)
		name, err := s.redisClient.HGet(rctx, RedisRoleNamesKey, field).Result()
		cancel()
		if err == nil && name != "" {
			return name, nil
		}
		if err != nil && !errors.Is(err, redis.Nil) {
			s.log.Warnf("Failed to read role %d from cache: %+v", roleID, err)
		}
	}

	role, err := s.roleRepo.FindByID(ctx, db, roleID)
	if err != nil {
		return "", fmt.Errorf("find role %d: %w", roleID, err)
	}
	if role == nil {
		return "", fmt.Errorf("%w: id %d", ErrRoleNotFound, roleID)
	}

	if s.redisClient != nil {
		rctx, cancel := context.WithTimeout(ctx, redisRoleTimeout)
		defer cancel()
		pipe := s.redisClient.TxPipeline()
		pipe.HSet(rctx, RedisRoleNamesKey, field, role.RoleName)
		pipe.Expire(rctx, RedisRoleNamesKey, s.ttl)
		if _, err := pipe.Exec(rctx); err != nil {
			s.log.Warnf("Failed to cache role %d: %+v", roleID, err)
		}
	}

	return role.RoleName, nil
}
