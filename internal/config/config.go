package config

type Config interface {
	EnvConfig
	CorsConfig
	TokenConfig
	SecurityConfig
	StoreConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetEnv() string
	GetLogLevel() string
}

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() string
	GetAllowedHeaders() string
}

type mainConfig struct {
	EnvVars
	Cors
	Token
	Security
	Stores
}

// New returns a Config backed by environment variables only.
func New() Config {
	return newMainConfig(values{})
}

// Load returns a Config backed by the YAML file at path, with environment
// variables taking precedence over file entries. An empty path behaves like New.
func Load(path string) (Config, error) {
	if path == "" {
		return New(), nil
	}
	file, err := readFile(path)
	if err != nil {
		return nil, err
	}
	return newMainConfig(values{file: file}), nil
}

func newMainConfig(v values) mainConfig {
	return mainConfig{
		EnvVars:  EnvVars{v},
		Cors:     Cors{v},
		Token:    Token{v},
		Security: Security{v},
		Stores:   Stores{v},
	}
}
