package cli

import (
	"encoding/base64"
	"fmt"
	"time"

	"github.com/aretw0/rewind/pkg/adapters/file"
	"github.com/aretw0/rewind/pkg/adapters/memory"
	"github.com/aretw0/rewind/pkg/adapters/redis"
	"github.com/aretw0/rewind/pkg/persistence/middleware"
	"github.com/aretw0/rewind/pkg/ports"
)

// StoreOptions selects and configures a trajectory backend.
type StoreOptions struct {
	Kind          string // memory | file | redis
	Dir           string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	TTL           time.Duration

	// EncryptionKey, when set, seals trajectories at rest (32 bytes, AES-256).
	EncryptionKey []byte
	// Redact lists field-name patterns masked before saving.
	Redact []string
}

// Backend bundles a store with its optional distributed locker and a release function.
type Backend struct {
	Store  ports.TrajectoryStore
	Locker ports.DistributedLocker
	Close  func() error
}

// OpenStore builds the trajectory backend named by opts.Kind, wrapped with the requested
// middleware (redaction first, then encryption).
func OpenStore(opts StoreOptions) (*Backend, error) {
	b, err := openBackend(opts)
	if err != nil {
		return nil, err
	}

	var mws []middleware.Middleware
	if len(opts.Redact) > 0 {
		mw, err := middleware.NewRedactionMiddleware(opts.Redact)
		if err != nil {
			return nil, err
		}
		mws = append(mws, mw)
	}
	if len(opts.EncryptionKey) > 0 {
		mw, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: opts.EncryptionKey})
		if err != nil {
			return nil, err
		}
		mws = append(mws, mw)
	}
	b.Store = middleware.Chain(b.Store, mws...)
	return b, nil
}

// DecodeKey parses a base64 (standard or URL) encoded encryption key.
func DecodeKey(s string) ([]byte, error) {
	if s == "" {
		return nil, nil
	}
	for _, enc := range []*base64.Encoding{base64.StdEncoding, base64.URLEncoding} {
		if key, err := enc.DecodeString(s); err == nil {
			return key, nil
		}
	}
	return nil, fmt.Errorf("encryption key is not valid base64")
}

func openBackend(opts StoreOptions) (*Backend, error) {
	nop := func() error { return nil }

	switch opts.Kind {
	case "", "memory":
		return &Backend{Store: memory.NewStore(), Close: nop}, nil
	case "file":
		return &Backend{Store: file.New(opts.Dir), Close: nop}, nil
	case "redis":
		if opts.RedisAddr == "" {
			return nil, fmt.Errorf("redis store requires an address")
		}
		var storeOpts []redis.Option
		if opts.TTL > 0 {
			storeOpts = append(storeOpts, redis.WithTTL(opts.TTL))
		}
		store := redis.New(opts.RedisAddr, opts.RedisPassword, opts.RedisDB, storeOpts...)
		return &Backend{
			Store:  store,
			Locker: redis.NewLocker(store.Client(), redis.DefaultPrefix),
			Close:  store.Close,
		}, nil
	default:
		return nil, fmt.Errorf("unknown store %q (want memory, file or redis)", opts.Kind)
	}
}
