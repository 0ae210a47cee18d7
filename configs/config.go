package configs

// ServiceConfig is the root configuration, decoded from defaults.yaml.
type ServiceConfig struct {
	API        apiConfig        `yaml:"api"`
	Metrics    metricsConfig    `yaml:"metrics"`
	Repository repositoryConfig `yaml:"repository"`
	Database   DatabaseConfig   `yaml:"database"`
	Dataset    datasetConfig    `yaml:"dataset"`
	Auth       authConfig       `yaml:"auth"`
	Limiter    limiterConfig    `yaml:"limiter"`
	Tracing    tracingConfig    `yaml:"tracing"`
}

type apiConfig struct {
	Port int `yaml:"port"`
}

type metricsConfig struct {
	Port int `yaml:"port"`
}

// repositoryConfig selects the storage backend: "memory" loads the CSV
// dataset at boot, "database" opens the relational store.
type repositoryConfig struct {
	Backend string `yaml:"backend"`
}

type DatabaseConfig struct {
	Driver string       `yaml:"driver"`
	Mysql  MysqlConfig  `yaml:"mysql"`
	Sqlite SqliteConfig `yaml:"sqlite"`
}

type MysqlConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port" default:"3306"`
	User string `yaml:"user"`
	Pass string `yaml:"password"`
	Name string `yaml:"db_name"`
}

type SqliteConfig struct {
	Path string `yaml:"path"`
}

type datasetConfig struct {
	Path string `yaml:"path"`
}

type authConfig struct {
	// Secret signs session tokens. Overridable through CATALOG_AUTH_SECRET.
	Secret          string `yaml:"secret"`
	TokenTTLMinutes int    `yaml:"token_ttl_minutes"`
}

type limiterConfig struct {
	Limit int `yaml:"limit"`
	Burst int `yaml:"burst"`
}

type tracingConfig struct {
	OTLPEndpoint string `yaml:"otlp_endpoint"`
}
