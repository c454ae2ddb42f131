package service

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// loginAttemptScript cuenta un intento y fija la ventana si la clave aún no tiene TTL.
// Devuelve el total de intentos dentro de la ventana vigente.
const loginAttemptScript = `
local n = redis.call("INCR", KEYS[1])
if redis.call("PTTL", KEYS[1]) < 0 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return n
`

const redisOpTimeout = 500 * time.Millisecond

type redisCounter interface {
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// redisLoginRateLimiter comparte el conteo de intentos entre réplicas con una
// ventana fija por email. Si Redis falla deja pasar el intento.
type redisLoginRateLimiter struct {
	logger *zap.Logger
	client redisCounter
	window time.Duration
	max    int
}

func NewRedisLoginRateLimiter(logger *zap.Logger, client *redis.Client, window time.Duration, max int) LoginRateLimiter {
	if client == nil {
		return nil
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if window <= 0 {
		window = time.Minute
	}
	if max <= 0 {
		max = 1
	}
	return &redisLoginRateLimiter{logger: logger, client: client, window: window, max: max}
}

func (l *redisLoginRateLimiter) Allow(key string) bool {
	redisKey, ok := loginAttemptKey(key)
	if !ok {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	n, err := l.client.Eval(ctx, loginAttemptScript, []string{redisKey}, l.window.Milliseconds()).Int()
	if err != nil {
		l.logger.Warn("login limiter unavailable", zap.Error(err))
		return true
	}
	return n <= l.max
}

// Reset olvida los intentos fallidos tras un login correcto.
func (l *redisLoginRateLimiter) Reset(key string) {
	redisKey, ok := loginAttemptKey(key)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()
	if err := l.client.Del(ctx, redisKey).Err(); err != nil {
		l.logger.Warn("login limiter reset failed", zap.Error(err))
	}
}

func loginAttemptKey(key string) (string, bool) {
	key = normalizeEmail(key)
	if key == "" {
		return "", false
	}
	return "pawadopt:login:" + key, true
}
