package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Configuration struct {
	ApiPort string `json:"api_port"`
	LogPath string `json:"log_path"`

	Database string `json:"database"` // "sqlite3" ou "postgres"
	DbHost   string `json:"db_host"`
	DbPort   string `json:"db_port"`
	DbUser   string `json:"db_user"`
	DbName   string `json:"db_name"`
	DbPass   string `json:"db_pass"`
	DbPath   string `json:"db_path"`

	AutoMigrate bool `json:"auto_migrate"`

	// Origens liberadas no CORS. Vazio libera qualquer origem.
	CorsOrigins []string `json:"cors_origins"`

	// Plano atribuído às empresas recém-cadastradas.
	DefaultPlan string `json:"default_plan"`

	// Emails que recebem a capacidade de super-admin no boot.
	// A fonte de verdade é a coluna users.super_admin; esta lista só semeia.
	SuperAdmins []string `json:"super_admins"`

	Security struct {
		JwtSecret      string `json:"jwt_secret"`
		TokenTTLHours  int    `json:"token_ttl_hours"`
		BcryptCost     int    `json:"bcrypt_cost"`
		MinPasswordLen int    `json:"min_password_len"`
	} `json:"security"`

	AI struct {
		GroqApiKey     string `json:"groq_api_key"`
		GroqModel      string `json:"groq_model"`
		GroqBaseURL    string `json:"groq_base_url"`
		OpenAIApiKey   string `json:"openai_api_key"`
		OpenAIModel    string `json:"openai_model"`
		OpenAIBaseURL  string `json:"openai_base_url"`
		SystemPrompt   string `json:"system_prompt"`
		TimeoutSeconds int    `json:"timeout_seconds"`
	} `json:"ai"`

	Mail struct {
		Provider       string   `json:"provider"` // sendgrid | kafka | log
		SendGridApiKey string   `json:"sendgrid_api_key"`
		FromName       string   `json:"from_name"`
		FromMail       string   `json:"from_mail"`
		KafkaBrokers   []string `json:"kafka_brokers"`
		KafkaTopic     string   `json:"kafka_topic"`
		QueueSize      int      `json:"queue_size"`
		Workers        int      `json:"workers"`
		MaxAttempts    int      `json:"max_attempts"`
		TimeoutSeconds int      `json:"timeout_seconds"`
	} `json:"mail"`

	RateLimit struct {
		GeneratePerMinute int `json:"generate_per_minute"`
		GenerateBurst     int `json:"generate_burst"`
	} `json:"rate_limit"`
}

// Get carrega a configuração ou encerra o processo.
func Get(path string) Configuration {
	c, err := Load(path)
	if err != nil {
		log.Fatal(err)
	}
	return c
}

// Load lê o .env (se existir), o arquivo JSON (se existir) e aplica overrides de ambiente e defaults.
func Load(path string) (Configuration, error) {
	var c Configuration
	// omitido no arquivo, o schema é criado no boot
	c.AutoMigrate = true

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return c, fmt.Errorf("load .env: %w", err)
	}

	if path != "" {
		b, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := json.Unmarshal(b, &c); err != nil {
				return c, fmt.Errorf("parse %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist):
			// sem arquivo: segue só com env + defaults
		default:
			return c, fmt.Errorf("read %s: %w", path, err)
		}
	}

	applyEnv(&c)
	applyDefaults(&c)
	return c, nil
}

func applyEnv(c *Configuration) {
	setString(&c.ApiPort, "PORT")
	setString(&c.LogPath, "LOG_PATH")
	setString(&c.Database, "DATABASE")
	setString(&c.DbHost, "DB_HOST")
	setString(&c.DbPort, "DB_PORT")
	setString(&c.DbUser, "DB_USER")
	setString(&c.DbName, "DB_NAME")
	setString(&c.DbPass, "DB_PASS")
	setString(&c.DbPath, "DB_PATH")
	setString(&c.DefaultPlan, "DEFAULT_PLAN")
	setString(&c.Security.JwtSecret, "JWT_SECRET")
	setString(&c.AI.GroqApiKey, "GROQ_API_KEY")
	setString(&c.AI.GroqModel, "GROQ_MODEL")
	setString(&c.AI.OpenAIApiKey, "OPENAI_API_KEY")
	setString(&c.AI.OpenAIModel, "OPENAI_MODEL")
	setString(&c.Mail.Provider, "MAIL_PROVIDER")
	setString(&c.Mail.SendGridApiKey, "SENDGRID_API_KEY")
	setString(&c.Mail.FromMail, "MAIL_FROM")
	setString(&c.Mail.KafkaTopic, "KAFKA_TOPIC")

	if v := strings.TrimSpace(os.Getenv("KAFKA_BROKERS")); v != "" {
		c.Mail.KafkaBrokers = splitList(v)
	}
	if v := strings.TrimSpace(os.Getenv("CORS_ORIGINS")); v != "" {
		c.CorsOrigins = splitList(v)
	}
	if v := strings.TrimSpace(os.Getenv("SUPER_ADMINS")); v != "" {
		c.SuperAdmins = splitList(v)
	}
	if v := strings.TrimSpace(os.Getenv("AUTOMIGRATE")); v != "" {
		c.AutoMigrate, _ = strconv.ParseBool(v)
	}
}

func applyDefaults(c *Configuration) {
	if c.ApiPort == "" {
		c.ApiPort = "8080"
	}
	if c.LogPath == "" {
		c.LogPath = "logs/server.log"
	}
	if c.Database == "" {
		c.Database = "sqlite3"
	}
	if c.DbPath == "" {
		c.DbPath = "db/database.db"
	}
	if c.DefaultPlan == "" {
		c.DefaultPlan = "Gratuito"
	}
	if c.Security.JwtSecret == "" {
		c.Security.JwtSecret = "CHANGE_ME"
	}
	if c.Security.TokenTTLHours <= 0 {
		c.Security.TokenTTLHours = 24
	}
	if c.Security.BcryptCost <= 0 {
		c.Security.BcryptCost = 10
	}
	if c.Security.MinPasswordLen <= 0 {
		c.Security.MinPasswordLen = 6
	}
	if c.AI.GroqModel == "" {
		c.AI.GroqModel = "llama-3.3-70b-versatile"
	}
	if c.AI.GroqBaseURL == "" {
		c.AI.GroqBaseURL = "https://api.groq.com/openai/v1"
	}
	if c.AI.OpenAIModel == "" {
		c.AI.OpenAIModel = "gpt-4.1-mini"
	}
	if c.AI.OpenAIBaseURL == "" {
		c.AI.OpenAIBaseURL = "https://api.openai.com/v1"
	}
	if c.AI.SystemPrompt == "" {
		c.AI.SystemPrompt = "Você é um assistente pastoral. Escreva em português do Brasil, com fidelidade bíblica e linguagem clara."
	}
	if c.AI.TimeoutSeconds <= 0 {
		c.AI.TimeoutSeconds = 60
	}
	if c.Mail.Provider == "" {
		c.Mail.Provider = "log"
		if c.Mail.SendGridApiKey != "" {
			c.Mail.Provider = "sendgrid"
		}
	}
	if c.Mail.FromName == "" {
		c.Mail.FromName = "Pregador"
	}
	if c.Mail.FromMail == "" {
		c.Mail.FromMail = "no-reply@pregador.app"
	}
	if c.Mail.KafkaTopic == "" {
		c.Mail.KafkaTopic = "notifications.email"
	}
	if c.Mail.QueueSize <= 0 {
		c.Mail.QueueSize = 100
	}
	if c.Mail.Workers <= 0 {
		c.Mail.Workers = 2
	}
	if c.Mail.MaxAttempts <= 0 {
		c.Mail.MaxAttempts = 1
	}
	if c.Mail.TimeoutSeconds <= 0 {
		c.Mail.TimeoutSeconds = 10
	}
	if c.RateLimit.GeneratePerMinute <= 0 {
		c.RateLimit.GeneratePerMinute = 10
	}
	if c.RateLimit.GenerateBurst <= 0 {
		c.RateLimit.GenerateBurst = 3
	}
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
