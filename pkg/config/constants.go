package config

const (
	EnvPrefix = "DATAMART"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "DATAMART_DB_DSN"
	EnvDBHost = "DATAMART_DB_HOST"
	EnvDBUser = "DATAMART_DB_USER"
	EnvDBName = "DATAMART_DB_NAME"
)

var requiredDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
