// Package repository defines the career profile store interface and errors.
package repository

import "github.com/loggers/logbook/pkg/logger"

// Option applies a configuration option to the ProfileStore.
type Option func(*ProfileStore)

// WithHistoryLimit bounds the missions kept on each profile. Zero or less
// keeps every mission.
func WithHistoryLimit(limit int) Option {
	return func(s *ProfileStore) {
		s.historyLimit = limit
	}
}

// WithLogger sets a custom logger for the store.
func WithLogger(l logger.Logger) Option {
	return func(s *ProfileStore) {
		if l != nil {
			s.logger = l
		}
	}
}
