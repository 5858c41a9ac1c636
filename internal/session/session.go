package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"

	"github.com/acevedolabs/tienda-storefront/pkg/config"
	"github.com/acevedolabs/tienda-storefront/pkg/logger"
)

const (
	tokenSuffix   = "token"
	cartSuffix    = "cart"
	sessionPrefix = "session"
)

// cmdable is the slice of the redis API the session store uses, narrowed so
// tests can substitute an in-memory fake.
type cmdable interface {
	Ping(context.Context) *redis.StatusCmd
	Get(context.Context, string) *redis.StringCmd
	Set(context.Context, string, any, time.Duration) *redis.StatusCmd
	Del(context.Context, ...string) *redis.IntCmd
}

// AuthChangeFunc is notified after the bearer token is set or cleared.
// loggedIn is true on login, false on logout or expiry.
type AuthChangeFunc func(ctx context.Context, loggedIn bool)

// Store persists the session identifiers a browser would keep in local
// storage: the bearer token and the anonymous cart session id. Auth-state
// transitions are surfaced through registered callbacks so the cart store
// can be reloaded when ownership shifts.
type Store struct {
	store     cmdable
	raw       *redis.Client
	namespace string
	tokenTTL  time.Duration
	logger    *logger.Logger

	mu        sync.Mutex
	callbacks []AuthChangeFunc
}

// New bootstraps the Redis-backed session store and verifies connectivity.
func New(ctx context.Context, cfg config.RedisConfig, sess config.SessionConfig, logg *logger.Logger) (*Store, error) {
	if logg == nil {
		return nil, errors.New("session logger required")
	}
	opts, err := optionsFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	raw := redis.NewClient(opts)
	if err := raw.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	namespace := strings.TrimSpace(sess.Namespace)
	if namespace == "" {
		namespace = "tienda"
	}
	return &Store{
		store:     raw,
		raw:       raw,
		namespace: namespace,
		tokenTTL:  sess.TokenTTL,
		logger:    logg,
	}, nil
}

func optionsFromConfig(cfg config.RedisConfig) (*redis.Options, error) {
	if cfg.URL == "" && cfg.Address == "" {
		return nil, errors.New("redis url or address is required")
	}
	var opts *redis.Options
	if cfg.URL != "" {
		parsed, err := redis.ParseURL(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("parsing redis url: %w", err)
		}
		opts = parsed
	} else {
		opts = &redis.Options{
			Addr:     cfg.Address,
			Password: cfg.Password,
			DB:       cfg.DB,
		}
	}
	if opts.PoolSize == 0 {
		opts.PoolSize = cfg.PoolSize
	}
	if opts.MinIdleConns == 0 {
		opts.MinIdleConns = cfg.MinIdleConns
	}
	if opts.DialTimeout == 0 {
		opts.DialTimeout = cfg.DialTimeout
	}
	if opts.ReadTimeout == 0 {
		opts.ReadTimeout = cfg.ReadTimeout
	}
	if opts.WriteTimeout == 0 {
		opts.WriteTimeout = cfg.WriteTimeout
	}
	return opts, nil
}

// Token returns the stored bearer token, or "" when absent. A token whose
// JWT exp claim has passed is treated as logged-out and purged; the backend
// still validates signatures, this only keeps the client's view honest.
func (s *Store) Token(ctx context.Context) (string, error) {
	token, err := s.store.Get(ctx, s.tokenKey()).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading session token: %w", err)
	}
	if tokenExpired(token, time.Now()) {
		s.logger.Info(ctx, "stored token expired, clearing session")
		if err := s.store.Del(ctx, s.tokenKey()).Err(); err != nil {
			return "", fmt.Errorf("clearing session token: %w", err)
		}
		// Token is read mid-request, so a synchronous logout notification
		// would re-enter whatever caller triggered the read. Deliver it
		// from a fresh goroutine instead.
		go s.notify(context.WithoutCancel(ctx), false)
		return "", nil
	}
	return token, nil
}

// SetToken stores the bearer token and fires auth-change callbacks.
func (s *Store) SetToken(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return errors.New("token must not be empty")
	}
	if err := s.store.Set(ctx, s.tokenKey(), token, s.tokenTTL).Err(); err != nil {
		return fmt.Errorf("storing session token: %w", err)
	}
	s.notify(ctx, true)
	return nil
}

// ClearToken removes the bearer token and fires auth-change callbacks.
func (s *Store) ClearToken(ctx context.Context) error {
	if err := s.store.Del(ctx, s.tokenKey()).Err(); err != nil {
		return fmt.Errorf("clearing session token: %w", err)
	}
	s.notify(ctx, false)
	return nil
}

// SessionID returns the anonymous cart session id, or "" when absent.
func (s *Store) SessionID(ctx context.Context) (string, error) {
	id, err := s.store.Get(ctx, s.cartKey()).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading cart session id: %w", err)
	}
	return id, nil
}

// SetSessionID stores the anonymous cart session id. No TTL: the backend
// decides when an anonymous cart dies.
func (s *Store) SetSessionID(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return errors.New("session id must not be empty")
	}
	if err := s.store.Set(ctx, s.cartKey(), id, 0).Err(); err != nil {
		return fmt.Errorf("storing cart session id: %w", err)
	}
	return nil
}

// OnAuthChange registers a callback for login/logout transitions.
func (s *Store) OnAuthChange(fn AuthChangeFunc) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.callbacks = append(s.callbacks, fn)
}

// Close releases the underlying redis connection.
func (s *Store) Close() error {
	if s.raw == nil {
		return nil
	}
	return s.raw.Close()
}

func (s *Store) notify(ctx context.Context, loggedIn bool) {
	s.mu.Lock()
	callbacks := make([]AuthChangeFunc, len(s.callbacks))
	copy(callbacks, s.callbacks)
	s.mu.Unlock()
	for _, fn := range callbacks {
		fn(ctx, loggedIn)
	}
}

func (s *Store) tokenKey() string {
	return s.buildKey(sessionPrefix, tokenSuffix)
}

func (s *Store) cartKey() string {
	return s.buildKey(sessionPrefix, cartSuffix)
}

func (s *Store) buildKey(parts ...string) string {
	segments := append([]string{s.namespace}, parts...)
	return strings.Join(segments, ":")
}

// tokenExpired inspects the exp claim without verifying the signature.
// Opaque (non-JWT) tokens never expire client-side.
func tokenExpired(token string, now time.Time) bool {
	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return now.After(exp.Time)
}
