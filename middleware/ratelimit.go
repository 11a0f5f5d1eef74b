package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/hlog"
	"golang.org/x/time/rate"

	"github.com/jrozner/roomboard/web/apperr"
)

const minIdle = time.Minute

type sender struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// SendLimiter throttles message sends per authenticated user. Users idle
// long enough for their bucket to refill are dropped, so the map only holds
// recently active senders.
type SendLimiter struct {
	mu        sync.Mutex
	senders   map[uint64]*sender
	limit     rate.Limit
	burst     int
	idle      time.Duration
	lastSweep time.Time
	now       func() time.Time
}

// NewSendLimiter allows perSecond sends per user with the given burst. A
// non-positive rate disables limiting.
func NewSendLimiter(perSecond float64, burst int) *SendLimiter {
	if burst < 1 {
		burst = 1
	}

	s := &SendLimiter{
		senders: make(map[uint64]*sender),
		limit:   rate.Limit(perSecond),
		burst:   burst,
		idle:    minIdle,
		now:     time.Now,
	}

	// a bucket untouched for burst/rate is full again, same as a new one
	if perSecond > 0 {
		refill := time.Duration(float64(burst) / perSecond * float64(time.Second))
		if refill > s.idle {
			s.idle = refill
		}
	}

	s.lastSweep = s.now()
	return s
}

func (s *SendLimiter) Allow(userID uint64) bool {
	if s.limit <= 0 {
		return true
	}

	s.mu.Lock()
	now := s.now()
	if now.Sub(s.lastSweep) >= s.idle {
		s.sweep(now)
	}

	entry, ok := s.senders[userID]
	if !ok {
		entry = &sender{limiter: rate.NewLimiter(s.limit, s.burst)}
		s.senders[userID] = entry
	}
	entry.lastSeen = now
	s.mu.Unlock()

	return entry.limiter.AllowN(now, 1)
}

// sweep must be called with mu held.
func (s *SendLimiter) sweep(now time.Time) {
	for userID, entry := range s.senders {
		if now.Sub(entry.lastSeen) >= s.idle {
			delete(s.senders, userID)
		}
	}

	s.lastSweep = now
}

func (s *SendLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := UserID(r.Context())
		if !s.Allow(userID) {
			hlog.FromRequest(r).Info().Uint64("user_id", userID).Msg("send rate limited")
			writeError(w, http.StatusTooManyRequests, apperr.CodeRateLimited, "Too many messages, slow down")
			return
		}

		next.ServeHTTP(w, r)
	})
}
