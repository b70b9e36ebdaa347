package config

const (
	EnvPrefix = "EVENTRA"

	AppEnvDev  = "development"
	AppEnvProd = "production"

	EnvAppEnv = "EVENTRA_APP_ENV"
	EnvPort   = "EVENTRA_APP_PORT"

	EnvDBDSN  = "EVENTRA_DB_DSN"
	EnvDBHost = "EVENTRA_DB_HOST"
	EnvDBUser = "EVENTRA_DB_USER"
	EnvDBName = "EVENTRA_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
