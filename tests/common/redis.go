package common

import "testing"

var redisSpec = containerSpec{
	name:     "Redis",
	image:    "redis:7-alpine",
	imageEnv: "HERITAGE_TEST_REDIS_IMAGE",
	port:     "6379",
	readyLog: "Ready to accept connections",
}

// RedisContainer is the shared Redis instance.
type RedisContainer struct {
	*Container
}

// StartRedis returns the process-wide Redis container. Callers isolate
// themselves by key prefix or by flushing their own keys.
func StartRedis(t *testing.T) *RedisContainer {
	t.Helper()
	return &RedisContainer{startShared(t, redisSpec)}
}

// Address returns host:port for a go-redis client.
func (c *RedisContainer) Address() string {
	return c.HostPort()
}
