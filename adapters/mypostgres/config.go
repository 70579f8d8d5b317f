package mypostgres

// Config is the PostgreSQL part of the service configuration.
type Config struct {
	DSN   string `yaml:"dsn"`
	Table string `yaml:"table"`
}
