package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/aanand-mishra/contact-manager/internal/utils/response"
)

// limiterIdleTTL is how long a client's bucket survives without requests.
const limiterIdleTTL = 3 * time.Minute

// RateLimit allows each client IP rps requests per second with the given
// burst, answering 429 once a client runs dry. rps <= 0 disables it.
func RateLimit(rps float64, burst int) gin.HandlerFunc {
	if rps <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	set := newLimiterSet(rps, burst, limiterIdleTTL, time.Now)

	return func(c *gin.Context) {
		if !set.get(c.ClientIP()).Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, response.Message(response.MsgTooManyRequests))
			return
		}
		c.Next()
	}
}

type visitor struct {
	lim  *rate.Limiter
	seen time.Time
}

// limiterSet holds one bucket per client. Buckets idle for longer than ttl
// are dropped by a sweep that runs at most once per ttl, so the map stays
// bounded by the clients seen in the last two ttl windows.
type limiterSet struct {
	rps   rate.Limit
	burst int
	ttl   time.Duration
	now   func() time.Time

	mu        sync.Mutex
	visitors  map[string]*visitor
	lastSweep time.Time
}

func newLimiterSet(rps float64, burst int, ttl time.Duration, now func() time.Time) *limiterSet {
	if burst < 1 {
		burst = 1
	}
	return &limiterSet{
		rps:       rate.Limit(rps),
		burst:     burst,
		ttl:       ttl,
		now:       now,
		visitors:  map[string]*visitor{},
		lastSweep: now(),
	}
}

func (s *limiterSet) get(ip string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if now.Sub(s.lastSweep) >= s.ttl {
		for k, v := range s.visitors {
			if now.Sub(v.seen) >= s.ttl {
				delete(s.visitors, k)
			}
		}
		s.lastSweep = now
	}

	v, ok := s.visitors[ip]
	if !ok {
		v = &visitor{lim: rate.NewLimiter(s.rps, s.burst)}
		s.visitors[ip] = v
	}
	v.seen = now
	return v.lim
}

func (s *limiterSet) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.visitors)
}
