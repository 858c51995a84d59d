package core

import (
	"log"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	ServerConfig struct {
		Host            string
		Addr            string
		DebugAddr       string
		ShutdownTimeout time.Duration

		// web session JWT
		JWTExpirationDelta        time.Duration
		JWTRefreshExpirationDelta time.Duration
	}

	DatabaseConfig struct {
		Engine        string
		Name          string
		Host          string
		Port          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		DisableTLS    bool
	}

	GoogleConfig struct {
		ClientID     string
		ClientSecret string
		// RedirectURL is the OAuth callback, e.g.
		// https://api.example.com/api/auth/google/callback.
		RedirectURL string
		// ServiceAccount is the raw JSON key used for Drive uploads.
		ServiceAccount string
		DriveFolderID  string
	}

	// IdentityConfig configures the identity directory's token issuance.
	IdentityConfig struct {
		SigningKey      string
		CustomTokenTTL  time.Duration
		IDTokenTTL      time.Duration
		RefreshTokenTTL time.Duration
	}

	OpenAIConfig struct {
		APIKey string
		Model  string
	}

	Config struct {
		AppName  string
		Env      string // DEV (default) | TEST | QA | PROD
		Build    string
		Debug    bool
		TestMode bool
		WorkDir  string

		SecretKey        string
		FrontendBaseURL  string
		DefaultFromEmail mail.Address
		ContactEmail     string
		SendgridAPIKey   string
		RollbarToken     string

		Server   ServerConfig
		Database DatabaseConfig
		Google   GoogleConfig
		Identity IdentityConfig
		OpenAI   OpenAIConfig
	}
)

func (c DatabaseConfig) Address() string {
	return c.Host + ":" + c.Port
}

// NewConfig loads the app configuration from defaults, an optional
// config/.env.<env> file and environment variables (prefixed with the env name).
func NewConfig() *Config {
	v := viper.New()
	v.SetTypeByDefaultValue(true)

	v.SetDefault("debug", true)
	v.SetDefault("appName", "Somo")
	v.SetDefault("build", "dev")
	v.SetDefault("secretKey", "k5h$8e(1l&3f-rb#ym@c470+vj*x!wqz92_ugd%ao6nits)p")
	v.SetDefault("frontendBaseURL", "http://localhost:3000")
	v.SetDefault("defaultFromEmail", "noreply@localhost")
	v.SetDefault("contactEmail", "support@localhost")

	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.addr", ":8000")
	v.SetDefault("server.debugAddr", ":8001")
	v.SetDefault("server.shutdownTimeout", 5*time.Second)
	v.SetDefault("server.jwtExpirationDelta", 7*24*time.Hour)
	v.SetDefault("server.jwtRefreshExpirationDelta", 4*time.Hour)

	v.SetDefault("database.engine", "postgres")
	v.SetDefault("database.name", "somo")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.disableTLS", true)

	v.SetDefault("identity.customTokenTTL", 5*time.Minute)
	v.SetDefault("identity.idTokenTTL", time.Hour)
	v.SetDefault("identity.refreshTokenTTL", 30*24*time.Hour)

	v.SetDefault("openai.model", "gpt-4o")

	env := strings.ToUpper(os.Getenv("ENV"))
	testMode := false
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		testMode = true
	}
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	wd := Getwd()

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(wd, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	return &Config{
		AppName:          v.GetString("appName"),
		Env:              env,
		Build:            v.GetString("build"),
		Debug:            v.GetBool("debug"),
		TestMode:         testMode,
		WorkDir:          wd,
		SecretKey:        v.GetString("secretKey"),
		FrontendBaseURL:  v.GetString("frontendBaseURL"),
		DefaultFromEmail: mail.Address{Name: v.GetString("appName"), Address: v.GetString("defaultFromEmail")},
		ContactEmail:     v.GetString("contactEmail"),
		SendgridAPIKey:   v.GetString("sendgridApiKey"),
		RollbarToken:     v.GetString("rollbarToken"),
		Server: ServerConfig{
			Host:                      v.GetString("server.host"),
			Addr:                      v.GetString("server.addr"),
			DebugAddr:                 v.GetString("server.debugAddr"),
			ShutdownTimeout:           v.GetDuration("server.shutdownTimeout"),
			JWTExpirationDelta:        v.GetDuration("server.jwtExpirationDelta"),
			JWTRefreshExpirationDelta: v.GetDuration("server.jwtRefreshExpirationDelta"),
		},
		Database: DatabaseConfig{
			Engine:        v.GetString("database.engine"),
			Name:          v.GetString("database.name"),
			Host:          v.GetString("database.host"),
			Port:          v.GetString("database.port"),
			User:          v.GetString("database.user"),
			Password:      v.GetString("database.password"),
			AdminUser:     v.GetString("database.adminUser"),
			AdminPassword: v.GetString("database.adminPassword"),
			DisableTLS:    v.GetBool("database.disableTLS"),
		},
		Google: GoogleConfig{
			ClientID:       v.GetString("google.clientId"),
			ClientSecret:   v.GetString("google.clientSecret"),
			RedirectURL:    v.GetString("google.redirectUrl"),
			ServiceAccount: v.GetString("google.serviceAccount"),
			DriveFolderID:  v.GetString("google.driveFolderId"),
		},
		Identity: IdentityConfig{
			SigningKey:      v.GetString("identity.signingKey"),
			CustomTokenTTL:  v.GetDuration("identity.customTokenTTL"),
			IDTokenTTL:      v.GetDuration("identity.idTokenTTL"),
			RefreshTokenTTL: v.GetDuration("identity.refreshTokenTTL"),
		},
		OpenAI: OpenAIConfig{
			APIKey: v.GetString("openai.apiKey"),
			Model:  v.GetString("openai.model"),
		},
	}
}
