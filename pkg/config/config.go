package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/docker/go-units"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	Auth         AuthConfig
	RateLimit    RateLimitConfig
	FeatureFlags FeatureFlagsConfig
	GCP          GCPConfig
	GCS          GCSConfig
	ObjectStore  ObjectStoreConfig
	PubSub       PubSubConfig
	GenAI        GenAIConfig
	Media        MediaConfig
	BigQuery     BigQueryConfig
	Cron         CronConfig
	Metrics      MetricsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.ObjectStore.validate(); err != nil {
		return nil, err
	}
	if err := cfg.Media.parseSizes(); err != nil {
		return nil, err
	}
	if err := cfg.GenAI.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"GENMEDIA_APP_ENV" required:"true"`
	Port         string `envconfig:"GENMEDIA_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"GENMEDIA_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"GENMEDIA_LOG_WARN_STACK" default:"false"`

	CORSOrigins []string `envconfig:"GENMEDIA_CORS_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"GENMEDIA_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"GENMEDIA_DB_DSN"`
	Driver string `envconfig:"GENMEDIA_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"GENMEDIA_DB_HOST"`
	Port     int    `envconfig:"GENMEDIA_DB_PORT" default:"5432"`
	User     string `envconfig:"GENMEDIA_DB_USER"`
	Password string `envconfig:"GENMEDIA_DB_PASSWORD"`
	Name     string `envconfig:"GENMEDIA_DB_NAME"`
	SSLMode  string `envconfig:"GENMEDIA_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"GENMEDIA_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"GENMEDIA_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"GENMEDIA_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"GENMEDIA_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL            string        `envconfig:"GENMEDIA_REDIS_URL"`
	Address        string        `envconfig:"GENMEDIA_REDIS_ADDR"`
	Password       string        `envconfig:"GENMEDIA_REDIS_PASSWORD"`
	DB             int           `envconfig:"GENMEDIA_REDIS_DB" default:"0"`
	PoolSize       int           `envconfig:"GENMEDIA_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns   int           `envconfig:"GENMEDIA_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout    time.Duration `envconfig:"GENMEDIA_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout    time.Duration `envconfig:"GENMEDIA_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout   time.Duration `envconfig:"GENMEDIA_REDIS_WRITE_TIMEOUT" default:"5s"`
	IdempotencyTTL time.Duration `envconfig:"GENMEDIA_REDIS_IDEMPOTENCY_TTL" default:"24h"`
	JobClaimTTL    time.Duration `envconfig:"GENMEDIA_REDIS_JOB_CLAIM_TTL" default:"1h"`
}

// AuthConfig describes how bearer tokens from the identity provider are verified.
type AuthConfig struct {
	Secret            string `envconfig:"GENMEDIA_AUTH_TOKEN_SECRET" required:"true"`
	Issuer            string `envconfig:"GENMEDIA_AUTH_TOKEN_ISSUER" required:"true"`
	Audience          string `envconfig:"GENMEDIA_AUTH_TOKEN_AUDIENCE"`
	ExpirationMinutes int    `envconfig:"GENMEDIA_AUTH_TOKEN_EXPIRATION_MINUTES" default:"60"`
}

type RateLimitConfig struct {
	GenerationWindow time.Duration `envconfig:"GENMEDIA_RATE_LIMIT_GENERATION_WINDOW" default:"1m"`
	GenerationLimit  int           `envconfig:"GENMEDIA_RATE_LIMIT_GENERATION_LIMIT" default:"10"`
}

type FeatureFlagsConfig struct {
	AutoMigrate   bool `envconfig:"GENMEDIA_AUTO_MIGRATE" default:"false"`
	PromptRewrite bool `envconfig:"GENMEDIA_FEATURE_PROMPT_REWRITE" default:"true"`
	AutoUpscale   bool `envconfig:"GENMEDIA_FEATURE_AUTO_UPSCALE" default:"true"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"GENMEDIA_GCP_PROJECT_ID" required:"true"`
	Location               string `envconfig:"GENMEDIA_GCP_LOCATION" default:"us-central1"`
	CredentialsJSON        string `envconfig:"GENMEDIA_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"GENMEDIA_GOOGLE_APPLICATION_CREDENTIALS"`
}

type GCSConfig struct {
	BucketName        string        `envconfig:"GENMEDIA_GCS_BUCKET_NAME" required:"true"`
	DownloadURLExpiry time.Duration `envconfig:"GENMEDIA_GCS_DOWNLOAD_URL_EXPIRY" default:"1h"`
	GenerationPrefix  string        `envconfig:"GENMEDIA_GCS_GENERATION_PREFIX" default:"generated"`
}

// ObjectStoreConfig selects the blob backend. MinIO is meant for local development.
type ObjectStoreConfig struct {
	Backend        string `envconfig:"GENMEDIA_OBJECT_STORE_BACKEND" default:"gcs"`
	MinIOEndpoint  string `envconfig:"GENMEDIA_MINIO_ENDPOINT"`
	MinIOAccessKey string `envconfig:"GENMEDIA_MINIO_ACCESS_KEY"`
	MinIOSecretKey string `envconfig:"GENMEDIA_MINIO_SECRET_KEY"`
	MinIOBucket    string `envconfig:"GENMEDIA_MINIO_BUCKET"`
	MinIORegion    string `envconfig:"GENMEDIA_MINIO_REGION" default:"us-east-1"`
	MinIOUseSSL    bool   `envconfig:"GENMEDIA_MINIO_USE_SSL" default:"false"`
}

func (o ObjectStoreConfig) IsMinIO() bool {
	return strings.EqualFold(o.Backend, ObjectStoreMinIO)
}

func (o ObjectStoreConfig) validate() error {
	switch strings.ToLower(strings.TrimSpace(o.Backend)) {
	case ObjectStoreGCS:
		return nil
	case ObjectStoreMinIO:
		missing := []string{}
		if o.MinIOEndpoint == "" {
			missing = append(missing, EnvMinIOEndpoint)
		}
		if o.MinIOBucket == "" {
			missing = append(missing, EnvMinIOBucket)
		}
		if len(missing) > 0 {
			return fmt.Errorf("minio object store requires %s", strings.Join(missing, ", "))
		}
		return nil
	default:
		return fmt.Errorf("unsupported object store backend %q", o.Backend)
	}
}

type PubSubConfig struct {
	GenerationTopic        string `envconfig:"GENMEDIA_PUBSUB_GENERATION_TOPIC" required:"true"`
	GenerationSubscription string `envconfig:"GENMEDIA_PUBSUB_GENERATION_SUBSCRIPTION" required:"true"`
	MaxOutstandingMessages int    `envconfig:"GENMEDIA_PUBSUB_MAX_OUTSTANDING" default:"4"`
}

// GenAIConfig configures the Vertex AI models and the job polling contract.
type GenAIConfig struct {
	Endpoint       string        `envconfig:"GENMEDIA_GENAI_ENDPOINT"`
	RewriteModel   string        `envconfig:"GENMEDIA_GENAI_REWRITE_MODEL" default:"gemini-2.5-flash"`
	TextModel      string        `envconfig:"GENMEDIA_GENAI_TEXT_MODEL" default:"gemini-2.5-pro"`
	UpscaleModel   string        `envconfig:"GENMEDIA_GENAI_UPSCALE_MODEL" default:"imagen-3.0-generate-002"`
	HTTPTimeout    time.Duration `envconfig:"GENMEDIA_GENAI_HTTP_TIMEOUT" default:"2m"`
	RetryAttempts  int           `envconfig:"GENMEDIA_GENAI_RETRY_ATTEMPTS" default:"3"`
	RetryBaseDelay time.Duration `envconfig:"GENMEDIA_GENAI_RETRY_BASE_DELAY" default:"1s"`
	RetryMaxDelay  time.Duration `envconfig:"GENMEDIA_GENAI_RETRY_MAX_DELAY" default:"10s"`
	PollInterval   time.Duration `envconfig:"GENMEDIA_GENAI_POLL_INTERVAL" default:"10s"`
	PollCeiling    time.Duration `envconfig:"GENMEDIA_GENAI_POLL_CEILING" default:"15m"`
}

func (g GenAIConfig) validate() error {
	if g.RetryAttempts < 1 {
		return fmt.Errorf("%s must be at least 1", EnvGenAIRetryAttempts)
	}
	if g.PollInterval <= 0 {
		return fmt.Errorf("%s must be positive", EnvGenAIPollInterval)
	}
	if g.PollCeiling < g.PollInterval {
		return fmt.Errorf("%s must not be shorter than %s", EnvGenAIPollCeiling, EnvGenAIPollInterval)
	}
	return nil
}

type MediaConfig struct {
	ThumbnailWidth     int    `envconfig:"GENMEDIA_MEDIA_THUMBNAIL_WIDTH" default:"480"`
	FFmpegPath         string `envconfig:"GENMEDIA_MEDIA_FFMPEG_PATH" default:"ffmpeg"`
	TempDir            string `envconfig:"GENMEDIA_MEDIA_TEMP_DIR"`
	MaxAssetUpload     string `envconfig:"GENMEDIA_MEDIA_MAX_ASSET_UPLOAD" default:"50MB"`
	MaxGuidelineUpload string `envconfig:"GENMEDIA_MEDIA_MAX_GUIDELINE_UPLOAD" default:"500MB"`
	GuidelineChunkSize string `envconfig:"GENMEDIA_MEDIA_GUIDELINE_CHUNK_SIZE" default:"50MiB"`

	MaxAssetUploadBytes int64 `ignored:"true"`
	MaxGuidelineBytes   int64 `ignored:"true"`
	GuidelineChunkBytes int64 `ignored:"true"`
}

func (m *MediaConfig) parseSizes() error {
	// Upload limits are decimal (500MB); the split chunk size is binary (50MiB).
	sizes := []struct {
		env   string
		raw   string
		parse func(string) (int64, error)
		bytes *int64
	}{
		{EnvMediaMaxAssetUpload, m.MaxAssetUpload, units.FromHumanSize, &m.MaxAssetUploadBytes},
		{EnvMediaMaxGuidelineUpload, m.MaxGuidelineUpload, units.FromHumanSize, &m.MaxGuidelineBytes},
		{EnvMediaGuidelineChunkSize, m.GuidelineChunkSize, units.RAMInBytes, &m.GuidelineChunkBytes},
	}
	for _, s := range sizes {
		n, err := s.parse(s.raw)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", s.env, err)
		}
		if n <= 0 {
			return fmt.Errorf("%s must be positive", s.env)
		}
		*s.bytes = n
	}
	return nil
}

// BigQueryConfig is optional; an empty dataset disables generation analytics.
type BigQueryConfig struct {
	Dataset         string `envconfig:"GENMEDIA_BIGQUERY_DATASET"`
	GenerationTable string `envconfig:"GENMEDIA_BIGQUERY_GENERATION_TABLE" default:"generation_events"`
}

func (b BigQueryConfig) Enabled() bool {
	return strings.TrimSpace(b.Dataset) != ""
}

type CronConfig struct {
	Interval      time.Duration `envconfig:"GENMEDIA_CRON_INTERVAL" default:"5m"`
	StuckJobGrace time.Duration `envconfig:"GENMEDIA_CRON_STUCK_JOB_GRACE" default:"5m"`
	BatchSize     int           `envconfig:"GENMEDIA_CRON_BATCH_SIZE" default:"200"`
}

type MetricsConfig struct {
	Addr string `envconfig:"GENMEDIA_METRICS_ADDR" default:":9090"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	values := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range discreteDBEnvVars {
		if values[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}

	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
