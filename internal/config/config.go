package config

import (
	"log"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Port        string
	DBDSN       string
	MediaDir    string
	StaticDir   string
	TemplateDir string
	LogFile     string

	// Debug mounts /media and reloads templates on every render.
	Debug        bool
	AllowedHosts []string
	CookieSecure bool

	BcryptCost      int
	MaxUploadMB     int
	RateLimitPerMin int
	LoginLimit      int
	ResetRatePerMin int

	SMTPHost string
	SMTPPort int
	SMTPUser string
	SMTPPass string
	MailFrom string
}

func init() {
	viper.SetDefault("PORT", "8000")
	viper.SetDefault("DB_DSN", "nokshibox.db")
	viper.SetDefault("MEDIA_DIR", "./web/media")
	viper.SetDefault("STATIC_DIR", "./web/static")
	viper.SetDefault("TEMPLATE_DIR", "./web/templates")
	viper.SetDefault("LOG_FILE", "./nokshibox.log")
	viper.SetDefault("DEBUG", true)
	viper.SetDefault("ALLOWED_HOSTS", "localhost,127.0.0.1")
	viper.SetDefault("COOKIE_SECURE", false)
	viper.SetDefault("BCRYPT_COST", 12)
	viper.SetDefault("MAX_UPLOAD_MB", 8)
	viper.SetDefault("RATE_LIMIT_PER_MIN", 120)
	viper.SetDefault("LOGIN_LIMIT", 5)
	viper.SetDefault("RESET_RATE_PER_MIN", 6)
	viper.SetDefault("SMTP_PORT", 587)
	viper.SetDefault("MAIL_FROM", "noreply@nokshibox.local")
	viper.AutomaticEnv()
}

// Load reads .env (if present) and the process environment. Values bound to
// cobra flags through viper take precedence.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Printf("[config] no .env file, using environment")
	}

	cfg := Config{
		Port:            viper.GetString("PORT"),
		DBDSN:           viper.GetString("DB_DSN"),
		MediaDir:        viper.GetString("MEDIA_DIR"),
		StaticDir:       viper.GetString("STATIC_DIR"),
		TemplateDir:     viper.GetString("TEMPLATE_DIR"),
		LogFile:         viper.GetString("LOG_FILE"),
		Debug:           viper.GetBool("DEBUG"),
		AllowedHosts:    splitList(viper.GetString("ALLOWED_HOSTS")),
		CookieSecure:    viper.GetBool("COOKIE_SECURE"),
		BcryptCost:      viper.GetInt("BCRYPT_COST"),
		MaxUploadMB:     viper.GetInt("MAX_UPLOAD_MB"),
		RateLimitPerMin: viper.GetInt("RATE_LIMIT_PER_MIN"),
		LoginLimit:      viper.GetInt("LOGIN_LIMIT"),
		ResetRatePerMin: viper.GetInt("RESET_RATE_PER_MIN"),
		SMTPHost:        viper.GetString("SMTP_HOST"),
		SMTPPort:        viper.GetInt("SMTP_PORT"),
		SMTPUser:        viper.GetString("SMTP_USER"),
		SMTPPass:        viper.GetString("SMTP_PASS"),
		MailFrom:        viper.GetString("MAIL_FROM"),
	}
	log.Printf("[config] PORT=%s DB_DSN=%s MEDIA_DIR=%s DEBUG=%t ALLOWED_HOSTS=%v SMTP_HOST=%q",
		cfg.Port, cfg.DBDSN, cfg.MediaDir, cfg.Debug, cfg.AllowedHosts, cfg.SMTPHost)
	return cfg
}

// MaxBodyBytes is the request body cap; uploads dominate it.
func (c Config) MaxBodyBytes() int {
	mb := c.MaxUploadMB
	if mb <= 0 {
		mb = 8
	}
	return (mb + 1) << 20
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, strings.ToLower(p))
		}
	}
	return out
}
