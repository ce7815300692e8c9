package handlers

import (
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/time/rate"

	applog "nokshibox/internal/log"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// PerIP is a token bucket per client address. Idle entries are pruned
// inline once the table grows.
type PerIP struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	r        rate.Limit
	b        int
	idle     time.Duration
}

func NewPerIP(perMinute int) *PerIP {
	return &PerIP{
		visitors: make(map[string]*visitor),
		r:        rate.Limit(float64(perMinute) / 60),
		b:        perMinute,
		idle:     10 * time.Minute,
	}
}

func (p *PerIP) allow(ip string, now time.Time) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.visitors) > 1024 {
		for k, v := range p.visitors {
			if now.Sub(v.lastSeen) > p.idle {
				delete(p.visitors, k)
			}
		}
	}
	v, ok := p.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(p.r, p.b)}
		p.visitors[ip] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}

// Handler throttles only unsafe methods, so forms still render.
func (p *PerIP) Handler(action string, onLimit fiber.Handler) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Method() == fiber.MethodGet || c.Method() == fiber.MethodHead {
			return c.Next()
		}
		if !p.allow(c.IP(), time.Now()) {
			applog.Security(c, action, nil)
			return onLimit(c)
		}
		return c.Next()
	}
}
