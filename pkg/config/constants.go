package config

const EnvPrefix = "CARTSIDE"

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

const (
	EnvAppEnv  = "CARTSIDE_APP_ENV"
	EnvPort    = "CARTSIDE_APP_PORT"
	EnvDBDSN   = "CARTSIDE_DB_DSN"
	EnvDBHost  = "CARTSIDE_DB_HOST"
	EnvDBUser  = "CARTSIDE_DB_USER"
	EnvDBName  = "CARTSIDE_DB_NAME"
	EnvRedisURL = "CARTSIDE_REDIS_URL"

	EnvJWTSecret  = "CARTSIDE_JWT_SECRET"
	EnvJWTIssuer  = "CARTSIDE_JWT_ISSUER"
	EnvJWTExpMins = "CARTSIDE_JWT_EXPIRATION_MINUTES"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
