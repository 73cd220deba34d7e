package observability

// DefaultListenAddr is the status surface bind address.
const DefaultListenAddr = "127.0.0.1:8089"

// Config captures the status surface settings.
type Config struct {
	ListenAddr  string `yaml:"listen" env:"LISTEN"`
	EnablePprof bool   `yaml:"pprof" env:"PPROF"`
}
