package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	SMTP     SMTPConfig
	Peers    PeersConfig
}

type ServerConfig struct {
	Host string
	Port int
}

type PostgresConfig struct {
	User     string
	Password string
	Name     string
	Host     string
	Port     int
	SSLMode  string
}

func (c PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode,
	)
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// PeersConfig holds the base URLs of the other services in the fleet.
type PeersConfig struct {
	TrainURL  string
	TicketURL string
	MailURL   string
}

// New loads configuration from the environment, with a .env file as a
// fallback. defaultPort is the service's own listen port when SERVER_PORT
// is unset; each binary in the fleet has its own.
func New(defaultPort int) (*Config, error) {
	const op = "config.New"

	_ = godotenv.Load()

	serverPort := defaultPort
	if s := os.Getenv("SERVER_PORT"); s != "" {
		p, err := strconv.Atoi(s)
		if err != nil {
			return nil, fmt.Errorf("%s: invalid SERVER_PORT: %w", op, err)
		}
		serverPort = p
	}

	serverCfg := ServerConfig{
		Host: envDefault("SERVER_HOST", "localhost"),
		Port: serverPort,
	}

	postgresPort, err := envInt("POSTGRES_PORT", 5432)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	postgresUser := os.Getenv("POSTGRES_USER")
	if postgresUser == "" {
		return nil, fmt.Errorf("%s: missing POSTGRES_USER", op)
	}

	postgresPassword := os.Getenv("POSTGRES_PASSWORD")
	if postgresPassword == "" {
		return nil, fmt.Errorf("%s: missing POSTGRES_PASSWORD", op)
	}

	postgresDB := os.Getenv("POSTGRES_DB")
	if postgresDB == "" {
		return nil, fmt.Errorf("%s: missing POSTGRES_DB", op)
	}

	postgresCfg := PostgresConfig{
		User:     postgresUser,
		Password: postgresPassword,
		Name:     postgresDB,
		Host:     envDefault("POSTGRES_HOST", "localhost"),
		Port:     postgresPort,
		SSLMode:  envDefault("POSTGRES_SSLMODE", "disable"),
	}

	redisCfg := RedisConfig{
		Addr:     envDefault("REDIS_ADDR", "localhost:6379"),
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       0,
	}

	smtpPort, err := envInt("SMTP_PORT", 587)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	smtpCfg := SMTPConfig{
		Host:     envDefault("SMTP_HOST", "localhost"),
		Port:     smtpPort,
		Username: os.Getenv("SMTP_USERNAME"),
		Password: os.Getenv("SMTP_PASSWORD"),
		From:     envDefault("SMTP_FROM", "noreply@railgo.dev"),
	}

	peersCfg := PeersConfig{
		TrainURL:  envDefault("TRAIN_SERVICE_URL", "http://localhost:8082"),
		TicketURL: envDefault("TICKET_SERVICE_URL", "http://localhost:8083"),
		MailURL:   envDefault("MAIL_SERVICE_URL", "http://localhost:8084"),
	}

	return &Config{
		Server:   serverCfg,
		Postgres: postgresCfg,
		Redis:    redisCfg,
		SMTP:     smtpCfg,
		Peers:    peersCfg,
	}, nil
}

func envDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}
