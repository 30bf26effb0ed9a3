package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the process configuration, parsed from the environment.
type Config struct {
	Port      string `env:"PORT" envDefault:"8080"`
	MongoURI  string `env:"MONGO_URI" envDefault:"mongodb://localhost:27017"`
	MongoDB   string `env:"MONGO_DB" envDefault:"crowddeck"`
	RedisURI  string `env:"REDIS_URI" envDefault:"localhost:6379"`
	JWTSecret string `env:"JWT_SECRET" envDefault:"change-me-in-production"`

	PresenterUsername string `env:"PRESENTER_USERNAME" envDefault:"admin"`
	PresenterPassword string `env:"PRESENTER_PASSWORD" envDefault:"admin"`

	SessionTTLHours int           `env:"SESSION_TTL_HOURS" envDefault:"24"`
	SweepInterval   time.Duration `env:"SWEEP_INTERVAL" envDefault:"5m"`

	// AnswerTolerance is the edit-distance similarity above which a typed
	// quiz answer counts as correct.
	AnswerTolerance float64 `env:"ANSWER_TOLERANCE" envDefault:"0.8"`

	// ThrottleLimit events per ThrottleWindow, per connection per event type.
	ThrottleLimit  int           `env:"THROTTLE_LIMIT" envDefault:"5"`
	ThrottleWindow time.Duration `env:"THROTTLE_WINDOW" envDefault:"1s"`

	CORSAllowedOrigins string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*"`
}

// Load parses the configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
