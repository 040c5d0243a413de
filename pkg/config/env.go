package config

// EnvPrefix namespaces every environment variable the service reads.
const EnvPrefix = "BETCHAT"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "production"
)

const (
	EnvAppEnv     = "BETCHAT_APP_ENV"
	EnvPort       = "BETCHAT_APP_PORT"
	EnvDBDSN      = "BETCHAT_DB_DSN"
	EnvDBHost     = "BETCHAT_DB_HOST"
	EnvDBUser     = "BETCHAT_DB_USER"
	EnvDBName     = "BETCHAT_DB_NAME"
	EnvRedisURL   = "BETCHAT_REDIS_URL"
	EnvJWTSecret  = "BETCHAT_JWT_SECRET"
	EnvJWTIssuer  = "BETCHAT_JWT_ISSUER"
	EnvJWTExpMins = "BETCHAT_JWT_EXPIRATION_MINUTES"

	EnvGCPProjectID    = "BETCHAT_GCP_PROJECT_ID"
	EnvPubSubRoomTopic = "BETCHAT_PUBSUB_ROOM_TOPIC"
	EnvPubSubRoomSub   = "BETCHAT_PUBSUB_ROOM_SUBSCRIPTION"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
