package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Teller   TellerConfig   `yaml:"teller"`
	Webhook  WebhookConfig  `yaml:"webhook"`
	GCP      GCPConfig      `yaml:"gcp"`
	Logger   LoggerConfig   `yaml:"logger"`
	Static   StaticConfig   `yaml:"static"`
}

type ServerConfig struct {
	Host        string `yaml:"host"`
	Port        string `yaml:"port"`
	Environment string `yaml:"environment"`
}

type DatabaseConfig struct {
	Host            string `yaml:"host"`
	Port            string `yaml:"port"`
	User            string `yaml:"user"`
	DBName          string `yaml:"name"`
	Password        string `yaml:"password"`
	SSLMode         string `yaml:"ssl_mode"`
	MaxOpenConns    int    `yaml:"max_open_conns"`
	MaxIdleConns    int    `yaml:"max_idle_conns"`
	ConnMaxLifetime string `yaml:"conn_max_lifetime"`
}

type TellerConfig struct {
	BaseURL       string `yaml:"base_url"`
	ApplicationID string `yaml:"application_id"`
	Environment   string `yaml:"environment"`
	Certificate   string `yaml:"certificate"`
	PrivateKey    string `yaml:"private_key"`
	Timeout       int    `yaml:"timeout"`
	MaxRetries    int    `yaml:"max_retries"`
}

type WebhookConfig struct {
	Secrets          []string `yaml:"secrets"`
	ToleranceSeconds int      `yaml:"tolerance_seconds"`
}

type GCPConfig struct {
	ProjectID             string `yaml:"project_id"`
	CertificateSecretName string `yaml:"certificate_secret_name"`
	PrivateKeySecretName  string `yaml:"private_key_secret_name"`
}

type LoggerConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

type StaticConfig struct {
	Dir string `yaml:"dir"`
}

// Load reads config.yaml (path overridable via CONFIG_PATH), then applies
// environment overrides so deploy platforms can inject settings without
// touching the file. A missing file is fine; env alone can carry sandbox.
func Load() (*Config, error) {
	_ = godotenv.Load()

	config := defaults()

	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "./config.yaml"
	}
	configData, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(configData, config); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	applyEnv(config)

	if config.Teller.ApplicationID == "" {
		return nil, fmt.Errorf("teller application id is required (TELLER_APPLICATION_ID)")
	}
	if config.Teller.Environment != "sandbox" {
		if config.Teller.Certificate == "" || config.Teller.PrivateKey == "" {
			if config.GCP.CertificateSecretName == "" || config.GCP.PrivateKeySecretName == "" || config.GCP.ProjectID == "" {
				return nil, fmt.Errorf("certificate and private key are required outside of sandbox")
			}
		}
	}

	return config, nil
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Host:        "0.0.0.0",
			Port:        "8001",
			Environment: "development",
		},
		Teller: TellerConfig{
			BaseURL:     "https://api.teller.io",
			Environment: "sandbox",
			Timeout:     15,
			MaxRetries:  2,
		},
		Webhook: WebhookConfig{
			ToleranceSeconds: 180,
		},
		Logger: LoggerConfig{
			Level: "info",
		},
		Static: StaticConfig{
			Dir: "./static",
		},
	}
}

func applyEnv(config *Config) {
	setIfPresent(&config.Server.Port, "PORT")
	setIfPresent(&config.Server.Environment, "APP_ENVIRONMENT")
	setIfPresent(&config.Teller.BaseURL, "TELLER_BASE_URL")
	setIfPresent(&config.Teller.ApplicationID, "TELLER_APPLICATION_ID")
	setIfPresent(&config.Teller.Environment, "TELLER_ENVIRONMENT")
	setIfPresent(&config.Teller.Certificate, "TELLER_CERTIFICATE")
	setIfPresent(&config.Teller.PrivateKey, "TELLER_PRIVATE_KEY")
	setIfPresent(&config.GCP.ProjectID, "GCP_PROJECT_ID")
	setIfPresent(&config.GCP.CertificateSecretName, "TELLER_SECRET_CERTIFICATE_NAME")
	setIfPresent(&config.GCP.PrivateKeySecretName, "TELLER_SECRET_PRIVATE_KEY_NAME")

	if secrets := os.Getenv("TELLER_WEBHOOK_SECRETS"); secrets != "" {
		config.Webhook.Secrets = config.Webhook.Secrets[:0]
		for _, s := range strings.Split(secrets, ",") {
			if s = strings.TrimSpace(s); s != "" {
				config.Webhook.Secrets = append(config.Webhook.Secrets, s)
			}
		}
	}
}

func setIfPresent(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
