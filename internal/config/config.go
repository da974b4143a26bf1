package config

import (
	"log"
	"strings"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

type Server struct {
	Port           string   `mapstructure:"port"`
	AllowedOrigins []string `mapstructure:"allowed-origins"`
}

type Database struct {
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"ssl-mode"`
	Schema   string `mapstructure:"schema"`
}

type Donation struct {
	ProcessingDelayMs        int    `mapstructure:"processing-delay-ms"`
	ResetDelayMs             int    `mapstructure:"reset-delay-ms"`
	SandboxProcessingDelayMs int    `mapstructure:"sandbox-processing-delay-ms"`
	CopiedDelayMs            int    `mapstructure:"copied-delay-ms"`
	PixKey                   string `mapstructure:"pix-key"`
	SessionTTLMs             int    `mapstructure:"session-ttl-ms"`
	ReaperIntervalMs         int    `mapstructure:"reaper-interval-ms"`
}

type Lookup struct {
	ViaCEPURL    string `mapstructure:"viacep-url"`
	NominatimURL string `mapstructure:"nominatim-url"`
	TimeoutMs    int    `mapstructure:"timeout-ms"`
	UserAgent    string `mapstructure:"user-agent"`
}

type Kafka struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

type Auth struct {
	JWTSecret string `mapstructure:"jwt-secret"`
}

type Metrics struct {
	URL          string `mapstructure:"url"`
	IntervalMs   int    `mapstructure:"interval-ms"`
	CommonLabels string `mapstructure:"common-labels"`
}

type Logs struct {
	URL   string `mapstructure:"url"`
	Level string `mapstructure:"level"`
}

type Config struct {
	Server   Server   `mapstructure:"server"`
	Database Database `mapstructure:"database"`
	Donation Donation `mapstructure:"donation"`
	Lookup   Lookup   `mapstructure:"lookup"`
	Kafka    Kafka    `mapstructure:"kafka"`
	Auth     Auth     `mapstructure:"auth"`
	Metrics  Metrics  `mapstructure:"metrics"`
	Logs     Logs     `mapstructure:"logs"`
}

var ErrMissingJWTSecret = errors.New("auth.jwt-secret is required (set AUTH_JWT_SECRET)")

func ms(v int) time.Duration {
	return time.Duration(v) * time.Millisecond
}

func (d Donation) ProcessingDelay() time.Duration        { return ms(d.ProcessingDelayMs) }
func (d Donation) ResetDelay() time.Duration             { return ms(d.ResetDelayMs) }
func (d Donation) SandboxProcessingDelay() time.Duration { return ms(d.SandboxProcessingDelayMs) }
func (d Donation) CopiedDelay() time.Duration            { return ms(d.CopiedDelayMs) }
func (d Donation) SessionTTL() time.Duration             { return ms(d.SessionTTLMs) }
func (d Donation) ReaperInterval() time.Duration         { return ms(d.ReaperIntervalMs) }
func (l Lookup) Timeout() time.Duration                  { return ms(l.TimeoutMs) }

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.allowed-origins", []string{"*"})

	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.name", "conecta_ongs")
	v.SetDefault("database.ssl-mode", "disable")
	v.SetDefault("database.schema", "public")

	v.SetDefault("donation.processing-delay-ms", 2000)
	v.SetDefault("donation.reset-delay-ms", 3000)
	v.SetDefault("donation.sandbox-processing-delay-ms", 3000)
	v.SetDefault("donation.copied-delay-ms", 2000)
	v.SetDefault("donation.pix-key", "merchantx@example.com")
	v.SetDefault("donation.session-ttl-ms", 30*60*1000)
	v.SetDefault("donation.reaper-interval-ms", 60*1000)

	v.SetDefault("lookup.viacep-url", "https://viacep.com.br")
	v.SetDefault("lookup.nominatim-url", "https://nominatim.openstreetmap.org")
	v.SetDefault("lookup.timeout-ms", 5000)
	v.SetDefault("lookup.user-agent", "conecta-ongs/1.0")

	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.topic", "donation.approved")

	// no usable default; declared so AUTH_JWT_SECRET is picked up
	v.SetDefault("auth.jwt-secret", "")

	v.SetDefault("metrics.interval-ms", 10000)
	v.SetDefault("logs.level", "info")
}

// LoadConfig reads config.yaml from path when present. Every key can be
// overridden from the environment, e.g. DATABASE_HOST for database.host.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, errors.Wrap(err, "read config")
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, errors.Wrap(err, "unmarshal config")
	}
	if strings.TrimSpace(config.Auth.JWTSecret) == "" {
		return nil, ErrMissingJWTSecret
	}

	return &config, nil
}

func MustLoadConfig(path string) *Config {
	config, err := LoadConfig(path)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	return config
}
