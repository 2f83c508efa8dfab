// Package ratelimit bounds how many commands a single conversation can
// issue per minute.
package ratelimit

import (
	"sync"
	"time"
)

type Limiter struct {
	mu            sync.Mutex
	conversations map[string]*conversationInfo
	stopCleanup   chan struct{}
	shutdownOnce  sync.Once

	commandsPerMinute int
	cleanupInterval   time.Duration
}

type conversationInfo struct {
	lastCommand time.Time
	commands    int
}

// Config holds rate limiter configuration
type Config struct {
	CommandsPerMinute int
	CleanupInterval   time.Duration
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		CommandsPerMinute: 30,
		CleanupInterval:   5 * time.Minute,
	}
}

// NewLimiter creates a new rate limiter
func NewLimiter(config Config) *Limiter {
	if config.CommandsPerMinute <= 0 {
		config = DefaultConfig()
	}
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = 5 * time.Minute
	}

	rl := &Limiter{
		conversations:     make(map[string]*conversationInfo),
		stopCleanup:       make(chan struct{}),
		commandsPerMinute: config.CommandsPerMinute,
		cleanupInterval:   config.CleanupInterval,
	}
	go rl.startCleanup()
	return rl
}

// Allow checks whether a command from the given conversation should be
// processed.
func (rl *Limiter) Allow(conversationID string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	conv, exists := rl.conversations[conversationID]

	if !exists {
		rl.conversations[conversationID] = &conversationInfo{
			lastCommand: now,
			commands:    1,
		}
		return true
	}

	// Reset counter if more than 1 minute has passed
	if now.Sub(conv.lastCommand) > time.Minute {
		conv.commands = 1
		conv.lastCommand = now
		return true
	}

	conv.commands++
	conv.lastCommand = now

	return conv.commands <= rl.commandsPerMinute
}

func (rl *Limiter) startCleanup() {
	ticker := time.NewTicker(rl.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanupStaleEntries()
		case <-rl.stopCleanup:
			return
		}
	}
}

// cleanupStaleEntries removes conversations idle for over 10 minutes
func (rl *Limiter) cleanupStaleEntries() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := time.Now().Add(-10 * time.Minute)
	for id, conv := range rl.conversations {
		if conv.lastCommand.Before(cutoff) {
			delete(rl.conversations, id)
		}
	}
}

// ActiveConversations returns the number of currently tracked
// conversations.
func (rl *Limiter) ActiveConversations() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.conversations)
}

// Stop gracefully shuts down the cleanup goroutine
func (rl *Limiter) Stop() {
	rl.shutdownOnce.Do(func() {
		if rl.stopCleanup != nil {
			close(rl.stopCleanup)
		}
	})
}
