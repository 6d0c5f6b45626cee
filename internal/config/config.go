package config

type Config interface {
	EnvConfig
	CorsConfig
	OAuthConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetEnv() string
}

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() string
	GetAllowedHeaders() string
}

type mainConfig struct {
	EnvVars
	Cors
	OAuth
}

func New() Config {
	return mainConfig{}
}
