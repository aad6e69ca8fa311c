package http

import (
	"sync"
	"time"
)

const (
	writeRequestsPerMinute = 60
	limiterCleanupInterval = 5 * time.Minute
)

type clientWindow struct {
	count       int
	windowStart time.Time
}

// rateLimiter tracks mutating requests per client IP over one-minute
// windows. Idle clients are swept by a background goroutine.
type rateLimiter struct {
	mu       sync.Mutex
	clients  map[string]*clientWindow
	done     chan struct{}
	stopOnce sync.Once
}

func newRateLimiter() *rateLimiter {
	rl := &rateLimiter{
		clients: make(map[string]*clientWindow),
		done:    make(chan struct{}),
	}
	go rl.cleanupLoop()
	return rl
}

func (rl *rateLimiter) allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	cw, ok := rl.clients[ip]
	if !ok || now.Sub(cw.windowStart) >= time.Minute {
		rl.clients[ip] = &clientWindow{count: 1, windowStart: now}
		return true
	}
	if cw.count >= writeRequestsPerMinute {
		return false
	}
	cw.count++
	return true
}

func (rl *rateLimiter) cleanupLoop() {
	ticker := time.NewTicker(limiterCleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-rl.done:
			return
		case now := <-ticker.C:
			rl.mu.Lock()
			for ip, cw := range rl.clients {
				if now.Sub(cw.windowStart) >= limiterCleanupInterval {
					delete(rl.clients, ip)
				}
			}
			rl.mu.Unlock()
		}
	}
}

func (rl *rateLimiter) stop() {
	rl.stopOnce.Do(func() { close(rl.done) })
}
