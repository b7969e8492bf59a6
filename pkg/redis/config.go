package redis

import "time"

type Config struct {
	ConnectionURL  string        `env:"REDIS_URL,required" envDefault:"redis://localhost:6379/0"` // ConnectionURL in the format "redis://:password@localhost:6379/0"
	RetryAttempts  int           `env:"REDIS_RETRY_ATTEMPTS" envDefault:"3"`                      // RetryAttempts is the number of connection attempts.
	RetryInterval  time.Duration `env:"REDIS_RETRY_INTERVAL" envDefault:"5s"`                     // RetryInterval is the pause between connection attempts.
	ConnectTimeout time.Duration `env:"REDIS_CONNECT_TIMEOUT" envDefault:"30s"`                   // ConnectTimeout bounds the whole connection procedure.

	KeyPrefix     string `env:"REDIS_SESSION_KEY_PREFIX" envDefault:"session:"` // KeyPrefix is prepended to every session id.
	MutateRetries int    `env:"REDIS_SESSION_MUTATE_RETRIES" envDefault:"10"`   // MutateRetries bounds optimistic transaction retries.
	ScanBatchSize int    `env:"REDIS_SCAN_BATCH_SIZE" envDefault:"1000"`        // ScanBatchSize is the COUNT hint used when scanning keys.
}
