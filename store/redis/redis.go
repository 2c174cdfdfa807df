package redis

import (
	"context"
	"errors"
	"net"
	"sync/atomic"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/holidayextras/cache-wrapper/store"
)

var ErrNilClient = errors.New("redis store: nil client")

type Redis struct {
	rdb         goredis.UniversalClient
	closeClient bool
	ready       atomic.Bool
}

var _ store.Client = (*Redis)(nil)

type Config struct {
	Client      goredis.UniversalClient
	CloseClient bool // set true only if this store exclusively owns the client
}

// New wraps an existing client. The store starts not ready; call Connect.
func New(cfg Config) (*Redis, error) {
	if cfg.Client == nil {
		return nil, ErrNilClient
	}
	r := &Redis{rdb: cfg.Client, closeClient: cfg.CloseClient}
	r.rdb.AddHook(readinessHook{r: r})
	return r, nil
}

// Dial builds and owns a single node client from opts.
func Dial(opts *goredis.Options) (*Redis, error) {
	if opts == nil {
		return nil, ErrNilClient
	}
	return New(Config{Client: goredis.NewClient(opts), CloseClient: true})
}

// Connect pings the server; go-redis dials lazily so the ping is what
// proves the connection.
func (p *Redis) Connect(ctx context.Context) error {
	if err := p.rdb.Ping(ctx).Err(); err != nil {
		p.ready.Store(false)
		return err
	}
	p.ready.Store(true)
	return nil
}

func (p *Redis) IsReady() bool { return p.ready.Load() }

func (p *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := p.rdb.Get(ctx, key).Bytes()
	if err == goredis.Nil {
		return nil, false, nil // miss
	}
	if err != nil {
		return nil, false, err // transport/server error
	}
	return b, true, nil
}

func (p *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0 // KeepTTL is -1 in go-redis; non-positive means no expiry here
	}
	return p.rdb.Set(ctx, key, value, ttl).Err()
}

func (p *Redis) Del(ctx context.Context, key string) error {
	return p.rdb.Del(ctx, key).Err()
}

// Scan issues one SCAN round-trip. In cluster mode only the node serving the
// call is scanned.
func (p *Redis) Scan(ctx context.Context, cursor uint64, match string, count int64) ([]string, uint64, error) {
	return p.rdb.Scan(ctx, cursor, match, count).Result()
}

// Close releases the underlying redis client only when this store owns it.
// Safe to call multiple times; repeated calls become no-ops.
func (p *Redis) Close(context.Context) error {
	p.ready.Store(false)
	if p.closeClient {
		if err := p.rdb.Close(); err != nil && !errors.Is(err, goredis.ErrClosed) {
			return err
		}
	}
	return nil
}

// connectionLost reports whether err means the connection can no longer be
// trusted. Server replies and caller cancellations do not count.
func connectionLost(err error) bool {
	if err == nil || err == goredis.Nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var reply goredis.Error
	if errors.As(err, &reply) {
		return false
	}
	return true
}

// readinessHook clears readiness when a command or dial fails at the
// connection level, so the next operation is queued behind a reconnect.
type readinessHook struct{ r *Redis }

func (h readinessHook) DialHook(next goredis.DialHook) goredis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		conn, err := next(ctx, network, addr)
		if connectionLost(err) {
			h.r.ready.Store(false)
		}
		return conn, err
	}
}

func (h readinessHook) ProcessHook(next goredis.ProcessHook) goredis.ProcessHook {
	return func(ctx context.Context, cmd goredis.Cmder) error {
		err := next(ctx, cmd)
		if connectionLost(err) {
			h.r.ready.Store(false)
		}
		return err
	}
}

func (h readinessHook) ProcessPipelineHook(next goredis.ProcessPipelineHook) goredis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []goredis.Cmder) error {
		err := next(ctx, cmds)
		if connectionLost(err) {
			h.r.ready.Store(false)
		}
		return err
	}
}
