package config

const EnvPrefix = "STOREFRONT"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"

	BrokerPubSub = "pubsub"
	BrokerKafka  = "kafka"
)

// Environment variable names referenced by validation errors and tests.
const (
	EnvAppEnv                       = "STOREFRONT_APP_ENV"
	EnvPort                         = "STOREFRONT_APP_PORT"
	EnvDBDSN                        = "STOREFRONT_DB_DSN"
	EnvDBDriver                     = "STOREFRONT_DB_DRIVER"
	EnvDBHost                       = "STOREFRONT_DB_HOST"
	EnvDBUser                       = "STOREFRONT_DB_USER"
	EnvDBName                       = "STOREFRONT_DB_NAME"
	EnvRedisURL                     = "STOREFRONT_REDIS_URL"
	EnvJWTSecret                    = "STOREFRONT_JWT_SECRET"
	EnvJWTIssuer                    = "STOREFRONT_JWT_ISSUER"
	EnvJWTExpMins                   = "STOREFRONT_JWT_EXPIRATION_MINUTES"
	EnvRefreshTokenTTLMinutes       = "STOREFRONT_REFRESH_TOKEN_TTL_MINUTES"
	EnvPricingTaxRate               = "STOREFRONT_PRICING_TAX_RATE"
	EnvPricingFlatShipping          = "STOREFRONT_PRICING_FLAT_SHIPPING"
	EnvPricingFreeShippingThreshold = "STOREFRONT_PRICING_FREE_SHIPPING_THRESHOLD"
	EnvEventsBroker                 = "STOREFRONT_EVENTS_BROKER"
	EnvKafkaBrokers                 = "STOREFRONT_KAFKA_BROKERS"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
