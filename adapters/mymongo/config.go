package mymongo

// Config is the MongoDB part of the service configuration.
type Config struct {
	URI        string `yaml:"uri"`
	Database   string `yaml:"database"`
	Collection string `yaml:"collection"`
}
