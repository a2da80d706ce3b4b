package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"scalepos/internal/apierror"
)

type rateEntry struct {
	mu        sync.Mutex
	count     int
	windowEnd time.Time
}

var (
	loginMap   = make(map[string]*rateEntry)
	loginMapMu sync.Mutex

	apiMap   = make(map[string]*rateEntry)
	apiMapMu sync.Mutex

	purgeOnce sync.Once
)

// LoginRateLimiter caps login attempts per client IP to slow down
// credential stuffing. 20 attempts per minute.
func LoginRateLimiter() gin.HandlerFunc {
	purgeOnce.Do(startPurge)
	return limitBy(loginMap, &loginMapMu, 20, time.Minute)
}

// RateLimiter caps requests per client IP across the API.
func RateLimiter(limit int, window time.Duration) gin.HandlerFunc {
	purgeOnce.Do(startPurge)
	return limitBy(apiMap, &apiMapMu, limit, window)
}

func limitBy(m map[string]*rateEntry, mu *sync.Mutex, limit int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()

		mu.Lock()
		entry, ok := m[ip]
		if !ok {
			entry = &rateEntry{}
			m[ip] = entry
		}
		mu.Unlock()

		entry.mu.Lock()
		now := time.Now()
		if now.After(entry.windowEnd) {
			entry.count = 0
			entry.windowEnd = now.Add(window)
		}
		entry.count++
		over := entry.count > limit
		entry.mu.Unlock()

		if over {
			c.AbortWithStatusJSON(http.StatusTooManyRequests,
				apierror.NewCoded("rate_limited", "too many requests, slow down"))
			return
		}
		c.Next()
	}
}

func startPurge() {
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()

		for range ticker.C {
			now := time.Now()

			loginMapMu.Lock()
			purgedLogin := 0
			for ip, entry := range loginMap {
				entry.mu.Lock()
				if now.After(entry.windowEnd) {
					delete(loginMap, ip)
					purgedLogin++
				}
				entry.mu.Unlock()
			}
			loginMapMu.Unlock()

			apiMapMu.Lock()
			purgedAPI := 0
			for ip, entry := range apiMap {
				entry.mu.Lock()
				if now.After(entry.windowEnd) {
					delete(apiMap, ip)
					purgedAPI++
				}
				entry.mu.Unlock()
			}
			apiMapMu.Unlock()

			if purgedLogin > 0 || purgedAPI > 0 {
				log.Debug().
					Int("login_entries_purged", purgedLogin).
					Int("api_entries_purged", purgedAPI).
					Msg("rate limiter maps purged")
			}
		}
	}()
}
