package cli

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"civil-quiz/internal/app"
	"civil-quiz/internal/config"
	"civil-quiz/internal/infra/memory"
	"civil-quiz/internal/infra/objectstore"
	pgcatalog "civil-quiz/internal/infra/postgres"
	infraredis "civil-quiz/internal/infra/redis"
	"civil-quiz/internal/infra/remote"
	"civil-quiz/internal/infra/statefile"
	"civil-quiz/internal/logger"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// stack holds the configured backends shared by the commands.
type stack struct {
	cfg     config.Config
	log     *zap.Logger
	http    *http.Client
	redis   *redis.Client
	pool    *pgxpool.Pool
	closers []func()
}

func newStack(configPath string) (*stack, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	log, err := logger.New(cfg.Log.Level, cfg.Log.File)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	s := &stack{
		cfg:  cfg,
		log:  log,
		http: remote.NewHTTPClient(config.TTLDuration(cfg.HTTP.Timeout, 15*time.Second)),
	}
	s.closers = append(s.closers, func() { _ = log.Sync() })
	if cfg.Redis.Addr != "" {
		s.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		s.closers = append(s.closers, func() { _ = s.redis.Close() })
	}
	return s, nil
}

func (s *stack) close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

// identityKV returns the store behind the identity record.
func (s *stack) identityKV() (app.KV, error) {
	switch s.cfg.Identity.Backend {
	case "file":
		path := s.cfg.Identity.StatePath
		if path == "" {
			path = statefile.DefaultPath()
		}
		return statefile.New(path), nil
	case "memory":
		return memory.NewKVStore(), nil
	case "redis":
		if s.redis == nil {
			return nil, fmt.Errorf("identity backend redis needs redis.addr")
		}
		return infraredis.NewKVStore(s.redis, "quiz:kv:", config.TTLDuration(s.cfg.Identity.TTL, 0)), nil
	default:
		return nil, fmt.Errorf("unknown identity backend %q", s.cfg.Identity.Backend)
	}
}

// catalog builds the manifest source for catalog.source and puts a cache in
// front of question-set lookups. Manifests are always read fresh.
func (s *stack) catalog(ctx context.Context) (*app.Catalog, error) {
	var (
		manifests app.ManifestSource
		questions app.QuestionSource
	)
	switch s.cfg.Catalog.Source {
	case "http":
		base := s.cfg.Catalog.BaseURL
		if base == "" && s.cfg.Server.CatalogDir != "" {
			dir, err := filepath.Abs(s.cfg.Server.CatalogDir)
			if err != nil {
				return nil, err
			}
			base = "file://" + filepath.ToSlash(dir) + "/"
		}
		if base == "" {
			return nil, fmt.Errorf("catalog.base_url not configured")
		}
		c, err := remote.NewCatalog(s.http, base)
		if err != nil {
			return nil, err
		}
		manifests, questions = c, c
	case "postgres":
		pool, err := s.postgres(ctx)
		if err != nil {
			return nil, err
		}
		c := pgcatalog.NewCatalog(pool)
		manifests, questions = c, c
	case "minio":
		m := s.cfg.Catalog.Minio
		c, err := objectstore.NewCatalog(objectstore.Options{
			Endpoint:  m.Endpoint,
			AccessKey: m.AccessKey,
			SecretKey: m.SecretKey,
			Bucket:    m.Bucket,
			Prefix:    m.Prefix,
			UseSSL:    m.UseSSL,
			Region:    m.Region,
		})
		if err != nil {
			return nil, err
		}
		manifests, questions = c, c
	default:
		return nil, fmt.Errorf("unknown catalog source %q", s.cfg.Catalog.Source)
	}

	ttl := config.TTLDuration(s.cfg.Cache.TTL, 10*time.Minute)
	if s.redis != nil {
		questions = infraredis.NewQuestionCache(s.redis, questions, ttl, s.log)
	} else {
		questions = memory.NewQuestionCache(questions, ttl)
	}
	return app.NewCatalog(manifests, questions, s.log), nil
}

func (s *stack) postgres(ctx context.Context) (*pgxpool.Pool, error) {
	if s.pool != nil {
		return s.pool, nil
	}
	if s.cfg.Postgres.URL == "" {
		return nil, fmt.Errorf("postgres url not configured")
	}
	pool, err := pgxpool.Connect(ctx, s.cfg.Postgres.URL)
	if err != nil {
		return nil, err
	}
	s.pool = pool
	s.closers = append(s.closers, pool.Close)
	return pool, nil
}

func (s *stack) authClient() app.AuthClient {
	return remote.NewAuthClient(s.http, s.cfg.Auth.URL)
}

func (s *stack) reporter() *app.Reporter {
	var net app.Connectivity = app.StaticConnectivity(false)
	if !s.cfg.Sync.Offline && s.cfg.Sync.URL != "" {
		net = remote.NewProbe(s.cfg.Sync.URL, config.TTLDuration(s.cfg.Sync.ProbeTimeout, 3*time.Second))
	}
	return app.NewReporter(remote.NewScoreClient(s.http, s.cfg.Sync.URL), net, s.log)
}

func (s *stack) redirectDelay() time.Duration {
	return config.TTLDuration(s.cfg.Auth.RedirectDelay, time.Second)
}
