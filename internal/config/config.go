package config

import (
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
)

type Config struct {
	Port        string `envconfig:"PORT" default:"5000"`
	Env         string `envconfig:"APP_ENV" default:"development"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	FrontendURL string `envconfig:"FRONTEND_URL" default:"http://localhost:5173"`

	// memory | scylla
	StoreDriver string `envconfig:"STORE_DRIVER" default:"memory"`

	ScyllaHosts     []string      `envconfig:"SCYLLA_HOSTS" default:"127.0.0.1"`
	ScyllaUsername  string        `envconfig:"SCYLLA_USERNAME"`
	ScyllaPassword  string        `envconfig:"SCYLLA_PASSWORD"`
	ScyllaCatalogKS string        `envconfig:"SCYLLA_KS_PRODUCTS_KEYSPACE" default:"nexusmart_catalog"`
	ScyllaUsersKS   string        `envconfig:"SCYLLA_KS_USERS_KEYSPACE" default:"nexusmart_users"`
	ScyllaOrdersKS  string        `envconfig:"SCYLLA_KS_ORDERS_KEYSPACE" default:"nexusmart_orders"`
	ScyllaTimeout   time.Duration `envconfig:"SCYLLA_TIMEOUT" default:"5s"`
	ScyllaNumConns  int           `envconfig:"SCYLLA_NUM_CONNS" default:"20"`

	RedisHost     string `envconfig:"REDIS_HOST" default:"localhost:6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`

	ElasticURL      string `envconfig:"ELASTIC_URL"`
	ElasticUser     string `envconfig:"ELASTIC_USER"`
	ElasticPassword string `envconfig:"ELASTIC_PASSWORD"`
	ElasticIndex    string `envconfig:"ELASTIC_INDEX" default:"products"`

	MinIOEndpoint  string `envconfig:"MINIO_ENDPOINT"`
	MinIOAccessKey string `envconfig:"MINIO_ACCESS_KEY"`
	MinIOSecretKey string `envconfig:"MINIO_SECRET_KEY"`
	MinIOBucket    string `envconfig:"MINIO_BUCKET" default:"nexusmart-images"`
	MinIOUseSSL    bool   `envconfig:"MINIO_USE_SSL" default:"false"`

	KafkaBrokers    string `envconfig:"KAFKA_BROKERS"`
	KafkaOrderTopic string `envconfig:"KAFKA_ORDER_TOPIC" default:"order-events"`

	SMTPHost     string `envconfig:"SMTP_HOST"`
	SMTPPort     int    `envconfig:"SMTP_PORT" default:"587"`
	SMTPUsername string `envconfig:"SMTP_USERNAME"`
	SMTPPassword string `envconfig:"SMTP_PASSWORD"`
	MailFrom     string `envconfig:"MAIL_FROM" default:"noreply@nexusmart.in"`
	AdminEmail   string `envconfig:"ADMIN_EMAIL" default:"admin@nexusmart.in"`

	// Seeds a verified admin account at startup when set.
	AdminPassword string `envconfig:"ADMIN_PASSWORD"`

	JWTSecret     string        `envconfig:"JWT_SECRET" default:"super_secret"`
	JWTTTL        time.Duration `envconfig:"JWT_TTL" default:"168h"`
	SessionSecret string        `envconfig:"SESSION_SECRET" default:"nexusmart_session_secret"`
	CookieSecure  bool          `envconfig:"COOKIE_SECURE" default:"false"`

	UPIPayee     string `envconfig:"UPI_PAYEE" default:"nexusmart@fampay"`
	UPIPayeeName string `envconfig:"UPI_PAYEE_NAME" default:"NexusMart"`
}

func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// Load reads .env when present, then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Println("⚠️  No .env file found, falling back to process environment")
	} else {
		log.Println("✅ .env loaded")
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, errors.Wrap(err, "process env config")
	}
	if cfg.IsProduction() && cfg.JWTSecret == "super_secret" {
		return nil, errors.New("JWT_SECRET must be set in production")
	}
	return &cfg, nil
}
