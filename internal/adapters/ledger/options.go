package ledger

import "time"

// Option applies a configuration option to the RedisLedger.
type Option func(*RedisLedger)

// WithKey sets the sorted-set key. The sequence counter lives at key+":seq".
func WithKey(key string) Option {
	return func(l *RedisLedger) {
		if key != "" {
			l.key = key
		}
	}
}

// WithMaxSize caps the number of remembered fingerprints. Zero or less
// disables trimming.
func WithMaxSize(n int) Option {
	return func(l *RedisLedger) {
		l.maxSize = n
	}
}

// WithTimeout bounds every Redis round trip.
func WithTimeout(d time.Duration) Option {
	return func(l *RedisLedger) {
		if d > 0 {
			l.timeout = d
		}
	}
}
