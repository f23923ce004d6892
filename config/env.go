package config

import (
	"strings"
	"time"

	"github.com/VinukaThejana/go-utils/logger"
	"github.com/spf13/viper"
)

// Env is structure containing env variables
type Env struct {
	DSN                      string        `mapstructure:"DATABASE_URL" validate:"required"`
	DevEnv                   string        `mapstructure:"DEV_ENV" validate:"required,oneof=DEV PROD TEST"`
	Port                     string        `mapstructure:"PORT" validate:"required,numeric"`
	RedisSessionURL          string        `mapstructure:"REDIS_SESSION_URL" validate:"required,uri"`
	RedisChallengeURL        string        `mapstructure:"REDIS_CHALLENGE_URL" validate:"required,uri"`
	RedisSystemURL           string        `mapstructure:"REDIS_SYSTEM_URL" validate:"required,uri"`
	RedisRatelimiterUsername string        `mapstructure:"REDIS_RATELIMITER_USERNAME"`
	RedisRatelimiterPassword string        `mapstructure:"REDIS_RATELIMITER_PASSWORD"`
	RedisRatelimiterHost     string        `mapstructure:"REDIS_RATELIMITER_HOST" validate:"required"`
	RedisRatelimiterPort     int           `mapstructure:"REDIS_RATELIMITER_PORT" validate:"required,number"`
	IDTokenPublicKey         string        `mapstructure:"ID_TOKEN_PUBLIC_KEY" validate:"required"`
	SessionSecret            string        `mapstructure:"SESSION_SECRET" validate:"required"`
	SessionTokenExpires      time.Duration `mapstructure:"SESSION_TOKEN_EXPIRED_IN" validate:"required"`
	ChallengeTTL             time.Duration `mapstructure:"CHALLENGE_TTL" validate:"required"`
	RPName                   string        `mapstructure:"RP_NAME" validate:"required"`
	AllowedOrigins           string        `mapstructure:"ALLOWED_ORIGINS" validate:"required"`
}

// Load is a function that is used to laod the env variables from the file and the enviroment
func (e *Env) Load(path ...string) {
	configPath := "."
	if len(path) > 0 {
		configPath = path[0]
	}

	viper.AddConfigPath(configPath)
	viper.SetConfigFile(configPath + "/.env")
	viper.AutomaticEnv()

	err := viper.ReadInConfig()
	if err != nil {
		logger.Error(err)
	}

	err = viper.Unmarshal(&e)
	if err != nil {
		logger.Errorf(err)
	}

	logger.Validatef(e)
}

// Origins is a function that returns the approved web and app origins as a list
func (e *Env) Origins() []string {
	var origins []string
	for _, origin := range strings.Split(e.AllowedOrigins, ",") {
		origin = strings.TrimSpace(origin)
		if origin != "" {
			origins = append(origins, origin)
		}
	}

	return origins
}

// WebOrigins is a function that returns the approved origins without the
// platform specific app origins
func (e *Env) WebOrigins() []string {
	var origins []string
	for _, origin := range e.Origins() {
		if strings.Contains(origin, "://") {
			origins = append(origins, origin)
		}
	}

	return origins
}
