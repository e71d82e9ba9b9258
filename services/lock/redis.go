package locksvc

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/trezcool/masomo-lessons/core"
)

const retryInterval = 50 * time.Millisecond

// releaseScript deletes the key only if it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker is a core.Locker shared by every process using the same redis.
// Locks expire after ttl so a crashed holder cannot block a lesson forever.
type RedisLocker struct {
	client *redis.Client
	logger core.Logger
	prefix string
	ttl    time.Duration
	wait   time.Duration
}

var _ core.Locker = (*RedisLocker)(nil)

// ParseURL validates a redis connection URL.
func ParseURL(url string) (*redis.Options, error) {
	if url == "" {
		return nil, errors.New("redis URL is empty")
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, errors.Wrap(err, "invalid redis URL")
	}
	return opts, nil
}

// NewRedisClient connects to redis and pings it.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := ParseURL(url)
	if err != nil {
		return nil, err
	}
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	client := redis.NewClient(opts)
	if err = client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, "pinging redis")
	}
	return client, nil
}

func NewRedisLocker(client *redis.Client, logger core.Logger, conf *core.Config) *RedisLocker {
	return &RedisLocker{
		client: client,
		logger: logger,
		prefix: conf.AppName + ":lock:",
		ttl:    conf.Lock.TTL,
		wait:   conf.Lock.Wait,
	}
}

func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	if l.wait > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.wait)
		defer cancel()
	}

	rkey := l.prefix + key
	token := uuid.New().String()
	for {
		ok, err := l.client.SetNX(ctx, rkey, token, l.ttl).Result()
		if err != nil && ctx.Err() == nil {
			return nil, errors.Wrapf(err, "acquiring lock %s", key)
		}
		if ok {
			return func() { l.release(rkey, token) }, nil
		}

		select {
		case <-time.After(retryInterval):
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return nil, errors.Wrap(core.ErrLocked, key)
			}
			return nil, ctx.Err()
		}
	}
}

func (l *RedisLocker) release(rkey, token string) {
	// the caller's context may already be done
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := releaseScript.Run(ctx, l.client, []string{rkey}, token).Err(); err != nil {
		l.logger.Warn("releasing lock", err, map[string]interface{}{"key": rkey})
	}
}
