package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Environment struct {
	Environment       string
	ServerAddress     string
	DatabaseURL       string
	MigrationsPath    string
	RedisAddress      string
	RedisUsername     string
	RedisPassword     string
	MQTTBrokerURL     string
	SecretKey         string
	AdminPasswordHash string
	SelfHostname      string
	UploadDir         string
	UseSpaces         bool
	SpacesEndpoint    string
	SpacesRegion      string
	SpacesBucket      string
	SpacesCDNURL      string
	SpacesAccessKey   string
	SpacesSecretKey   string
}

// AuthEnabled reports whether admin routes are JWT-guarded. Both the
// signing secret and a password hash must be configured.
func (e Environment) AuthEnabled() bool {
	return e.SecretKey != "" && e.AdminPasswordHash != ""
}

// LoadEnvironment reads and validates env vars. A .env file is optional.
func LoadEnvironment() Environment {
	_ = godotenv.Load()

	env := Environment{
		Environment:   os.Getenv("APP_ENV"),
		ServerAddress: os.Getenv("SERVER_ADDRESS"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),

		MigrationsPath: os.Getenv("MIGRATIONS_PATH"),

		RedisAddress:  os.Getenv("REDIS_ADDRESS"),
		RedisUsername: os.Getenv("REDIS_USERNAME"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		MQTTBrokerURL: os.Getenv("MQTT_BROKER_URL"),

		SecretKey:         os.Getenv("JWT_SECRET"),
		AdminPasswordHash: os.Getenv("ADMIN_PASSWORD_HASH"),

		SelfHostname: os.Getenv("SELF_HOSTNAME"),
		UploadDir:    os.Getenv("UPLOAD_DIR"),

		UseSpaces:       os.Getenv("USE_SPACES") == "true",
		SpacesEndpoint:  os.Getenv("SPACES_ENDPOINT"),
		SpacesRegion:    os.Getenv("SPACES_REGION"),
		SpacesBucket:    os.Getenv("SPACES_BUCKET"),
		SpacesCDNURL:    os.Getenv("SPACES_CDN_URL"),
		SpacesAccessKey: os.Getenv("SPACES_ACCESS_KEY"),
		SpacesSecretKey: os.Getenv("SPACES_SECRET_KEY"),
	}

	if env.DatabaseURL == "" {
		log.Fatal().Msg("DATABASE_URL is required")
	}
	if env.ServerAddress == "" {
		env.ServerAddress = ":5000"
	}
	if env.MigrationsPath == "" {
		env.MigrationsPath = "./migrations"
	}
	if env.UploadDir == "" {
		env.UploadDir = "./uploads"
	}
	if env.SelfHostname == "" {
		hostname, err := os.Hostname()
		if err == nil {
			env.SelfHostname = hostname
		}
	}

	return env
}
