package database

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/gocql/gocql"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"nexusmart/internal/config"
)

// --- ScyllaDB ---

type ScyllaKeyspaceConfig struct {
	Hosts       []string
	Keyspace    string
	Username    string
	Password    string
	Timeout     time.Duration
	NumConns    int
	Consistency gocql.Consistency
}

// ScyllaManager keeps one session per keyspace and recreates sessions that
// stopped answering.
type ScyllaManager struct {
	sessions map[string]*gocql.Session // keyspace → session
	configs  map[string]ScyllaKeyspaceConfig
	mu       sync.Mutex
	logger   *zap.Logger
}

func NewScyllaManager(cfg *config.Config, logger *zap.Logger) *ScyllaManager {
	configs := make(map[string]ScyllaKeyspaceConfig)
	for _, ks := range []string{cfg.ScyllaCatalogKS, cfg.ScyllaUsersKS, cfg.ScyllaOrdersKS} {
		configs[ks] = ScyllaKeyspaceConfig{
			Hosts:       cfg.ScyllaHosts,
			Keyspace:    ks,
			Username:    cfg.ScyllaUsername,
			Password:    cfg.ScyllaPassword,
			Timeout:     cfg.ScyllaTimeout,
			NumConns:    cfg.ScyllaNumConns,
			Consistency: gocql.Quorum,
		}
	}
	return &ScyllaManager{
		sessions: make(map[string]*gocql.Session),
		configs:  configs,
		logger:   logger,
	}
}

func createScyllaCluster(c ScyllaKeyspaceConfig) *gocql.ClusterConfig {
	cluster := gocql.NewCluster(c.Hosts...)
	cluster.Keyspace = c.Keyspace
	cluster.Consistency = c.Consistency
	cluster.Timeout = c.Timeout
	cluster.NumConns = c.NumConns
	cluster.MaxWaitSchemaAgreement = 30 * time.Second
	cluster.ReconnectInterval = 1 * time.Second
	if c.Username != "" {
		cluster.Authenticator = gocql.PasswordAuthenticator{
			Username: c.Username,
			Password: c.Password,
		}
	}
	cluster.PoolConfig.HostSelectionPolicy = gocql.TokenAwareHostPolicy(gocql.RoundRobinHostPolicy())
	return cluster
}

// Session returns the session for keyspace, creating it on first use.
func (sm *ScyllaManager) Session(keyspace string) (*gocql.Session, error) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	c, ok := sm.configs[keyspace]
	if !ok {
		return nil, fmt.Errorf("keyspace %q not configured", keyspace)
	}

	if session, ok := sm.sessions[keyspace]; ok {
		if !session.Closed() {
			return session, nil
		}
		delete(sm.sessions, keyspace)
	}

	session, err := createScyllaCluster(c).CreateSession()
	if err != nil {
		return nil, errors.Wrapf(err, "create scylla session for %s", keyspace)
	}
	sm.sessions[keyspace] = session
	sm.logger.Info("✅ ScyllaDB session opened", zap.String("keyspace", keyspace))
	return session, nil
}

// Connect opens every configured keyspace up front so misconfiguration fails at boot.
func (sm *ScyllaManager) Connect() error {
	for ks := range sm.configs {
		if _, err := sm.Session(ks); err != nil {
			return err
		}
	}
	return nil
}

func (sm *ScyllaManager) Close() {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	for ks, session := range sm.sessions {
		session.Close()
		sm.logger.Info("🔌 ScyllaDB session closed", zap.String("keyspace", ks))
	}
	sm.sessions = make(map[string]*gocql.Session)
}

// --- Redis ---

func ConnectRedis(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisHost,
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 5,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, errors.Wrap(err, "redis ping")
	}
	return client, nil
}

// --- Elasticsearch ---

// ConnectElastic returns nil, nil when ELASTIC_URL is not set.
func ConnectElastic(cfg *config.Config) (*elasticsearch.Client, error) {
	if cfg.ElasticURL == "" {
		return nil, nil
	}
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{cfg.ElasticURL},
		Username:  cfg.ElasticUser,
		Password:  cfg.ElasticPassword,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create elasticsearch client")
	}
	res, err := client.Info()
	if err != nil {
		return nil, errors.Wrap(err, "elasticsearch info")
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("elasticsearch info: %s", res.Status())
	}
	return client, nil
}

// --- MinIO ---

// ConnectMinIO returns nil, nil when MINIO_ENDPOINT is not set. The bucket is
// created if missing.
func ConnectMinIO(ctx context.Context, cfg *config.Config) (*minio.Client, error) {
	if cfg.MinIOEndpoint == "" {
		return nil, nil
	}
	opts := &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinIOAccessKey, cfg.MinIOSecretKey, ""),
		Secure: cfg.MinIOUseSSL,
	}
	client, err := minio.New(cfg.MinIOEndpoint, opts)
	if err != nil {
		return nil, errors.Wrap(err, "create minio client")
	}
	exists, err := client.BucketExists(ctx, cfg.MinIOBucket)
	if err != nil {
		return nil, errors.Wrap(err, "check minio bucket")
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.MinIOBucket, minio.MakeBucketOptions{}); err != nil {
			return nil, errors.Wrap(err, "create minio bucket")
		}
	}
	return client, nil
}

// Ping runs a trivial query on every open session.
func (sm *ScyllaManager) Ping(ctx context.Context) error {
	for ks := range sm.configs {
		session, err := sm.Session(ks)
		if err != nil {
			return err
		}
		if err := session.Query("SELECT now() FROM system.local").WithContext(ctx).Exec(); err != nil {
			return errors.Wrapf(err, "ping keyspace %s", ks)
		}
	}
	return nil
}
