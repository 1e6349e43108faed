// db/redis.go
package db

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	logger "github.com/asinfra/adconsole/logging"
	"github.com/asinfra/adconsole/model"
)

var (
	RedisClient   *redis.Client
	encryptionKey []byte
)

// ErrRedisDisabled is returned by every operation when Redis was never
// initialized. Callers treat cache misses and disabled caching the same way.
var ErrRedisDisabled = fmt.Errorf("redis not initialized")

func ready() error {
	if RedisClient == nil {
		return ErrRedisDisabled
	}
	return nil
}

func InitRedis() error {
	RedisClient = redis.NewClient(&redis.Options{
		Addr:         viper.GetString("redis.addr"),
		Password:     viper.GetString("redis.password"),
		DB:           viper.GetInt("redis.db"),
		DialTimeout:  viper.GetDuration("redis.dialTimeout"),
		ReadTimeout:  viper.GetDuration("redis.readTimeout"),
		WriteTimeout: viper.GetDuration("redis.writeTimeout"),
		PoolSize:     viper.GetInt("redis.poolSize"),
		PoolTimeout:  viper.GetDuration("redis.poolTimeout"),
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := RedisClient.Ping(ctx).Result()
	if err != nil {
		RedisClient.Close()
		RedisClient = nil
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}

	encryptionKey = []byte(viper.GetString("redis.encryptionKey"))
	if len(encryptionKey) != 32 {
		RedisClient.Close()
		RedisClient = nil
		return fmt.Errorf("invalid encryption key length: must be 32 bytes")
	}

	logger.Info("Successfully connected to Redis")
	return nil
}

func CloseRedis() {
	if RedisClient != nil {
		if err := RedisClient.Close(); err != nil {
			logger.Error("Error closing Redis connection", zap.Error(err))
		}
	}
}

func encrypt(plaintext []byte) ([]byte, error) {
	block, err := aes.NewCipher(encryptionKey)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err = io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

func decrypt(ciphertext []byte) ([]byte, error) {
	block, err := aes.NewCipher(encryptionKey)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	nonceSize := gcm.NonceSize()
	if len(ciphertext) < nonceSize {
		return nil, fmt.Errorf("ciphertext too short")
	}
	nonce, ciphertext := ciphertext[:nonceSize], ciphertext[nonceSize:]
	return gcm.Open(nil, nonce, ciphertext, nil)
}

// SaveSession persists a session encrypted at rest. The record expires with
// the session itself.
func SaveSession(ctx context.Context, session *model.Session) error {
	if err := ready(); err != nil {
		return err
	}
	sessionJSON, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	encryptedSession, err := encrypt(sessionJSON)
	if err != nil {
		return fmt.Errorf("failed to encrypt session: %w", err)
	}

	key := fmt.Sprintf("session:%s", session.ID)
	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		return fmt.Errorf("session already expired")
	}
	err = RedisClient.Set(ctx, key, base64.StdEncoding.EncodeToString(encryptedSession), ttl).Err()
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	logger.Debug("Session saved", zap.String("sessionID", session.ID))
	return nil
}

func GetSession(ctx context.Context, sessionID string) (*model.Session, error) {
	if err := ready(); err != nil {
		return nil, err
	}
	key := fmt.Sprintf("session:%s", sessionID)
	encryptedSessionStr, err := RedisClient.Get(ctx, key).Result()
	if err == redis.Nil {
		logger.Debug("Session not found", zap.String("sessionID", sessionID))
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	encryptedSession, err := base64.StdEncoding.DecodeString(encryptedSessionStr)
	if err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}

	sessionJSON, err := decrypt(encryptedSession)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt session: %w", err)
	}

	var session model.Session
	err = json.Unmarshal(sessionJSON, &session)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}

	return &session, nil
}

func DeleteSession(ctx context.Context, sessionID string) error {
	if err := ready(); err != nil {
		return err
	}
	key := fmt.Sprintf("session:%s", sessionID)
	err := RedisClient.Del(ctx, key).Err()
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	logger.Debug("Session deleted", zap.String("sessionID", sessionID))
	return nil
}

func CacheUser(ctx context.Context, user *model.User) error {
	if ready() != nil {
		return nil
	}
	userJSON, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to marshal user: %w", err)
	}

	key := fmt.Sprintf("user:%s", user.ID)
	defaultTTL := viper.GetDuration("redis.defaultCacheTTL")
	err = RedisClient.Set(ctx, key, userJSON, defaultTTL).Err()
	if err != nil {
		return fmt.Errorf("failed to cache user: %w", err)
	}

	logger.Debug("User cached successfully", zap.String("userID", user.ID))
	return nil
}

func GetCachedUser(ctx context.Context, userID string) (*model.User, error) {
	if ready() != nil {
		return nil, nil
	}
	key := fmt.Sprintf("user:%s", userID)
	userJSON, err := RedisClient.Get(ctx, key).Result()
	if err == redis.Nil {
		logger.Debug("User not found in cache", zap.String("userID", userID))
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to get user from cache: %w", err)
	}

	var user model.User
	err = json.Unmarshal([]byte(userJSON), &user)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal user: %w", err)
	}

	logger.Debug("User retrieved from cache", zap.String("userID", userID))
	return &user, nil
}

func DeleteCachedUser(ctx context.Context, userID string) error {
	if ready() != nil {
		return nil
	}
	key := fmt.Sprintf("user:%s", userID)
	err := RedisClient.Del(ctx, key).Err()
	if err != nil {
		return fmt.Errorf("failed to delete user from cache: %w", err)
	}
	logger.Debug("User deleted from cache", zap.String("userID", userID))
	return nil
}

func CacheGroup(ctx context.Context, group *model.Group) error {
	if ready() != nil {
		return nil
	}
	groupJSON, err := json.Marshal(group)
	if err != nil {
		return fmt.Errorf("failed to marshal group: %w", err)
	}

	key := fmt.Sprintf("group:%s", group.ID)
	defaultTTL := viper.GetDuration("redis.defaultCacheTTL")
	err = RedisClient.Set(ctx, key, groupJSON, defaultTTL).Err()
	if err != nil {
		return fmt.Errorf("failed to cache group: %w", err)
	}

	logger.Debug("Group cached successfully", zap.String("groupID", group.ID))
	return nil
}

func GetCachedGroup(ctx context.Context, groupID string) (*model.Group, error) {
	if ready() != nil {
		return nil, nil
	}
	key := fmt.Sprintf("group:%s", groupID)
	groupJSON, err := RedisClient.Get(ctx, key).Result()
	if err == redis.Nil {
		logger.Debug("Group not found in cache", zap.String("groupID", groupID))
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to get group from cache: %w", err)
	}

	var group model.Group
	err = json.Unmarshal([]byte(groupJSON), &group)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal group: %w", err)
	}

	logger.Debug("Group retrieved from cache", zap.String("groupID", groupID))
	return &group, nil
}

func DeleteCachedGroup(ctx context.Context, groupID string) error {
	if ready() != nil {
		return nil
	}
	key := fmt.Sprintf("group:%s", groupID)
	err := RedisClient.Del(ctx, key).Err()
	if err != nil {
		return fmt.Errorf("failed to delete group from cache: %w", err)
	}
	logger.Debug("Group deleted from cache", zap.String("groupID", groupID))
	return nil
}

func CacheDevice(ctx context.Context, device *model.Device) error {
	if ready() != nil {
		return nil
	}
	deviceJSON, err := json.Marshal(device)
	if err != nil {
		return fmt.Errorf("failed to marshal device: %w", err)
	}

	key := fmt.Sprintf("device:%s", device.ID)
	defaultTTL := viper.GetDuration("redis.defaultCacheTTL")
	err = RedisClient.Set(ctx, key, deviceJSON, defaultTTL).Err()
	if err != nil {
		return fmt.Errorf("failed to cache device: %w", err)
	}

	logger.Debug("Device cached successfully", zap.String("deviceID", device.ID))
	return nil
}

func GetCachedDevice(ctx context.Context, deviceID string) (*model.Device, error) {
	if ready() != nil {
		return nil, nil
	}
	key := fmt.Sprintf("device:%s", deviceID)
	deviceJSON, err := RedisClient.Get(ctx, key).Result()
	if err == redis.Nil {
		logger.Debug("Device not found in cache", zap.String("deviceID", deviceID))
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to get device from cache: %w", err)
	}

	var device model.Device
	err = json.Unmarshal([]byte(deviceJSON), &device)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal device: %w", err)
	}

	logger.Debug("Device retrieved from cache", zap.String("deviceID", deviceID))
	return &device, nil
}

func DeleteCachedDevice(ctx context.Context, deviceID string) error {
	if ready() != nil {
		return nil
	}
	key := fmt.Sprintf("device:%s", deviceID)
	err := RedisClient.Del(ctx, key).Err()
	if err != nil {
		return fmt.Errorf("failed to delete device from cache: %w", err)
	}
	logger.Debug("Device deleted from cache", zap.String("deviceID", deviceID))
	return nil
}

func RateLimit(ctx context.Context, key string, limit int, per time.Duration) (bool, error) {
	if ready() != nil {
		return true, nil
	}
	pipe := RedisClient.Pipeline()
	now := time.Now().UnixNano()
	key = fmt.Sprintf("ratelimit:%s", key)

	pipe.ZRemRangeByScore(ctx, key, "0", fmt.Sprintf("%d", now-(per.Nanoseconds())))
	pipe.ZAdd(ctx, key, redis.Z{Score: float64(now), Member: now})
	pipe.ZCard(ctx, key)
	pipe.Expire(ctx, key, per)

	cmds, err := pipe.Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to execute rate limit commands: %w", err)
	}

	count := cmds[2].(*redis.IntCmd).Val()
	allowed := count <= int64(limit)
	logger.Debug("Rate limit check",
		zap.String("key", key),
		zap.Int64("count", count),
		zap.Int("limit", limit),
		zap.Bool("allowed", allowed))
	return allowed, nil
}

func LockResource(ctx context.Context, resourceName string, ttl time.Duration) (bool, error) {
	if ready() != nil {
		return true, nil
	}
	key := fmt.Sprintf("lock:%s", resourceName)
	locked, err := RedisClient.SetNX(ctx, key, "locked", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire lock: %w", err)
	}
	logger.Debug("Lock acquisition attempt",
		zap.String("resource", resourceName),
		zap.Bool("locked", locked))
	return locked, nil
}

func UnlockResource(ctx context.Context, resourceName string) error {
	if ready() != nil {
		return nil
	}
	key := fmt.Sprintf("lock:%s", resourceName)
	err := RedisClient.Del(ctx, key).Err()
	if err != nil {
		return fmt.Errorf("failed to release lock: %w", err)
	}
	logger.Debug("Lock released", zap.String("resource", resourceName))
	return nil
}
