package config

// EnvPrefix scopes every configuration variable for envconfig.
const EnvPrefix = "TIENDA"

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

// Environment variable names, exported so tests and tooling can set them
// without duplicating strings.
const (
	EnvAppEnv           = "TIENDA_APP_ENV"
	EnvLogLevel         = "TIENDA_LOG_LEVEL"
	EnvBackendBaseURL   = "TIENDA_BACKEND_BASE_URL"
	EnvBackendTimeout   = "TIENDA_BACKEND_TIMEOUT"
	EnvBackendStoreID   = "TIENDA_BACKEND_STORE_ID"
	EnvRedisURL         = "TIENDA_REDIS_URL"
	EnvRedisAddr        = "TIENDA_REDIS_ADDR"
	EnvSessionNamespace = "TIENDA_SESSION_NAMESPACE"
	EnvSessionTokenTTL  = "TIENDA_SESSION_TOKEN_TTL"
)
