package main

import (
	"log/slog"
	"os"

	"github.com/aretw0/rewind"
	"github.com/aretw0/rewind/internal/cli"
	"github.com/aretw0/rewind/pkg/session"
	"github.com/spf13/cobra"
)

func addStoreFlags(cmd *cobra.Command) {
	cmd.Flags().String("store", "memory", "Trajectory store: 'memory', 'file' or 'redis'")
	cmd.Flags().String("store-dir", "", "Directory of the file store (default .rewind/trajectories)")
	cmd.Flags().String("redis-addr", "localhost:6379", "Redis address for the redis store")
	cmd.Flags().String("redis-password", "", "Redis password")
	cmd.Flags().Int("redis-db", 0, "Redis database number")
	cmd.Flags().Duration("ttl", 0, "Expire idle trajectories after this duration (redis only)")
	cmd.Flags().String("encryption-key", "", "Base64 AES-256 key sealing trajectories at rest (default $REWIND_ENCRYPTION_KEY)")
}

// encryptionKey reads --encryption-key, falling back to the environment.
func encryptionKey(cmd *cobra.Command) ([]byte, error) {
	s, _ := cmd.Flags().GetString("encryption-key")
	if s == "" {
		s = os.Getenv("REWIND_ENCRYPTION_KEY")
	}
	return cli.DecodeKey(s)
}

// openSessions builds the trajectory backend selected by the store flags and a session
// manager stepping through engine.
func openSessions(cmd *cobra.Command, engine *rewind.Engine, logger *slog.Logger) (*session.Manager, func() error, error) {
	kind, _ := cmd.Flags().GetString("store")
	dir, _ := cmd.Flags().GetString("store-dir")
	addr, _ := cmd.Flags().GetString("redis-addr")
	password, _ := cmd.Flags().GetString("redis-password")
	db, _ := cmd.Flags().GetInt("redis-db")
	ttl, _ := cmd.Flags().GetDuration("ttl")
	key, err := encryptionKey(cmd)
	if err != nil {
		return nil, nil, err
	}

	backend, err := cli.OpenStore(cli.StoreOptions{
		Kind:          kind,
		Dir:           dir,
		RedisAddr:     addr,
		RedisPassword: password,
		RedisDB:       db,
		TTL:           ttl,
		EncryptionKey: key,
	})
	if err != nil {
		return nil, nil, err
	}

	opts := []session.Option{session.WithLogger(logger)}
	if backend.Locker != nil {
		opts = append(opts, session.WithLocker(backend.Locker))
	}
	logger.Info("Trajectory store ready", "store", kind)
	return session.NewManager(backend.Store, engine, opts...), backend.Close, nil
}
