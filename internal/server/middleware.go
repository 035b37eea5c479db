package server

import (
	"context"
	"errors"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/taskr/internal/models"
	"github.com/desertthunder/taskr/internal/shared"
	"golang.org/x/time/rate"
)

// UserHeader carries the email address of the acting user.
const UserHeader = "X-User"

type userKey struct{}

// WithUser returns a copy of ctx carrying the acting user.
func WithUser(ctx context.Context, user models.UserID) context.Context {
	return context.WithValue(ctx, userKey{}, user)
}

// UserFrom returns the acting user stored by [RequireUser].
func UserFrom(ctx context.Context) (models.UserID, bool) {
	user, ok := ctx.Value(userKey{}).(models.UserID)
	return user, ok && user != ""
}

// UserResolver looks up an account by email. Satisfied by [repositories.UserRepository].
type UserResolver interface {
	GetByEmail(email string) (*models.User, error)
}

// RequireUser resolves the [UserHeader] to a user and stores its ID in the request context.
// Requests without a header, or naming an unknown user, are rejected with 401.
func RequireUser(users UserResolver) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			email := strings.TrimSpace(r.Header.Get(UserHeader))
			if email == "" {
				writeError(w, http.StatusUnauthorized, shared.ErrNotAuthenticated.Error())
				return
			}

			user, err := users.GetByEmail(email)
			if err != nil {
				if errors.Is(err, shared.ErrUserNotFound) {
					writeError(w, http.StatusUnauthorized, shared.ErrNotAuthenticated.Error())
					return
				}
				writeError(w, http.StatusInternalServerError, "internal error")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user.UserID())))
		})
	}
}

// statusRecorder captures the status code written by the wrapped handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// Logging logs one line per request with its method, path, status and duration.
func Logging(logger *log.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			logger.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", rec.status,
				"duration", time.Since(start),
			)
		})
	}
}

// Recover turns a panicking handler into a 500 response.
func Recover(logger *log.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if v := recover(); v != nil {
					logger.Error("handler panicked", "path", r.URL.Path, "panic", v)
					writeError(w, http.StatusInternalServerError, "internal error")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// IdleTTL is how long a client's bucket is kept after its last request.
const IdleTTL = 10 * time.Minute

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Limiter hands out a token bucket per client. Buckets idle for longer than [IdleTTL] are evicted.
type Limiter struct {
	mu        sync.Mutex
	clients   map[string]*bucket
	limit     rate.Limit
	burst     int
	now       func() time.Time
	lastSweep time.Time
}

// NewLimiter allows perSecond requests per client with the given burst.
func NewLimiter(perSecond float64, burst int) *Limiter {
	return &Limiter{
		clients: make(map[string]*bucket),
		limit:   rate.Limit(perSecond),
		burst:   max(burst, 1),
		now:     time.Now,
	}
}

// Allow reports whether client may make a request now. When it may not,
// the returned duration is how long until the next token is available.
func (l *Limiter) Allow(client string) (bool, time.Duration) {
	l.mu.Lock()
	now := l.now()
	l.sweep(now)
	b, ok := l.clients[client]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.clients[client] = b
	}
	b.lastSeen = now
	l.mu.Unlock()

	reservation := b.limiter.ReserveN(now, 1)
	if !reservation.OK() {
		return false, time.Second
	}
	if delay := reservation.DelayFrom(now); delay > 0 {
		reservation.CancelAt(now)
		return false, delay
	}
	return true, 0
}

// sweep drops idle buckets, at most once per [IdleTTL]. Callers hold l.mu.
func (l *Limiter) sweep(now time.Time) {
	if now.Sub(l.lastSweep) < IdleTTL {
		return
	}
	for client, b := range l.clients {
		if now.Sub(b.lastSeen) > IdleTTL {
			delete(l.clients, client)
		}
	}
	l.lastSweep = now
}

// RateLimit rejects clients that exceed the limiter with 429 and a Retry-After header.
// Clients are keyed by remote address: the limiter runs before the user is resolved,
// so request headers are not trusted here.
func RateLimit(l *Limiter) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			allowed, wait := l.Allow(clientKey(r))
			if !allowed {
				w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
