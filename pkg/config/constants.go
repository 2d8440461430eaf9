package config

const EnvPrefix = "GENMEDIA"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	ObjectStoreGCS   = "gcs"
	ObjectStoreMinIO = "minio"
)

const (
	EnvAppEnv   = "GENMEDIA_APP_ENV"
	EnvPort     = "GENMEDIA_APP_PORT"
	EnvLogLevel = "GENMEDIA_LOG_LEVEL"

	EnvDBDSN  = "GENMEDIA_DB_DSN"
	EnvDBHost = "GENMEDIA_DB_HOST"
	EnvDBUser = "GENMEDIA_DB_USER"
	EnvDBName = "GENMEDIA_DB_NAME"

	EnvRedisURL = "GENMEDIA_REDIS_URL"

	EnvAuthSecret = "GENMEDIA_AUTH_TOKEN_SECRET"
	EnvAuthIssuer = "GENMEDIA_AUTH_TOKEN_ISSUER"

	EnvGCPProjectID = "GENMEDIA_GCP_PROJECT_ID"
	EnvGCSBucket    = "GENMEDIA_GCS_BUCKET_NAME"

	EnvObjectStoreBackend = "GENMEDIA_OBJECT_STORE_BACKEND"
	EnvMinIOEndpoint      = "GENMEDIA_MINIO_ENDPOINT"
	EnvMinIOBucket        = "GENMEDIA_MINIO_BUCKET"

	EnvPubSubGenerationTopic = "GENMEDIA_PUBSUB_GENERATION_TOPIC"
	EnvPubSubGenerationSub   = "GENMEDIA_PUBSUB_GENERATION_SUBSCRIPTION"

	EnvGenAIRetryAttempts = "GENMEDIA_GENAI_RETRY_ATTEMPTS"
	EnvGenAIPollInterval  = "GENMEDIA_GENAI_POLL_INTERVAL"
	EnvGenAIPollCeiling   = "GENMEDIA_GENAI_POLL_CEILING"

	EnvMediaMaxAssetUpload     = "GENMEDIA_MEDIA_MAX_ASSET_UPLOAD"
	EnvMediaMaxGuidelineUpload = "GENMEDIA_MEDIA_MAX_GUIDELINE_UPLOAD"
	EnvMediaGuidelineChunkSize = "GENMEDIA_MEDIA_GUIDELINE_CHUNK_SIZE"
)

var discreteDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
