package mybadger

// Config is the Badger part of the service configuration. An empty Path runs in memory.
type Config struct {
	Path string `yaml:"path"`
}
