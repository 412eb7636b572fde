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
		Address            string
		Host               string
		DebugHost          string // expvar & pprof; disabled when empty
		ShutdownTimeout    time.Duration
		JWTExpirationDelta time.Duration
		SignupTokenDelta   time.Duration
		DisableRequestLogs bool
	}

	SheetsConfig struct {
		Backend         string // google | memory
		Spreadsheet     string // URL or bare ID
		CredentialsFile string
		CredentialsJSON string
		RetryDelays     []time.Duration
	}

	// Subject is a quiz tab shown to users, in display order.
	Subject struct {
		Code  string `json:"code"`
		Label string `json:"label"`
	}

	QuizConfig struct {
		Subjects      []Subject
		SubmissionTTL time.Duration
	}

	RedisConfig struct {
		Address  string
		Password string
		DB       int
	}

	RabbitMQConfig struct {
		URL   string
		Queue string
	}

	Config struct {
		Env              string
		Build            string
		Debug            bool
		TestMode         bool
		AppName          string
		SecretKey        string
		DefaultFromEmail string
		AdminEmails      []string
		RollbarToken     string
		SendgridApiKey   string

		Server   ServerConfig
		Sheets   SheetsConfig
		Quiz     QuizConfig
		Redis    RedisConfig
		RabbitMQ RabbitMQConfig
	}
)

var defaultSubjects = []string{
	"biology:Биология",
	"physics:Физика",
	"chemistry:Химия",
	"math:Математика",
	"cs:Информатика",
}

// NewConfig reads the configuration of the current ENV from the environment
// and from the optional `config/.env.<env>` file.
func NewConfig() *Config {
	v := viper.New()

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", true)
	v.SetDefault("build", "dev")
	v.SetDefault("appName", "Shule")
	v.SetDefault("secretKey", "x9&d!1m$ku2q^7hz(vw3)e0rf+b@8pso*ln4c_ya5tg6j")
	v.SetDefault("defaultFromEmail", "Shule <noreply@localhost>")
	v.SetDefault("adminEmails", []string{})
	v.SetDefault("rollbarToken", "")
	v.SetDefault("sendgridApiKey", "")

	v.SetDefault("server.address", ":8000")
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.debugHost", ":4000")
	v.SetDefault("server.shutdownTimeout", 5*time.Second)
	v.SetDefault("server.jwtExpirationDelta", 24*time.Hour)
	v.SetDefault("server.signupTokenDelta", 30*time.Minute)
	v.SetDefault("server.disableRequestLogs", false)

	v.SetDefault("sheets.backend", "google")
	v.SetDefault("sheets.spreadsheet", "")
	v.SetDefault("sheets.credentialsFile", "")
	v.SetDefault("sheets.credentialsJSON", "")
	v.SetDefault("sheets.retryDelays", []string{"0s", "300ms", "800ms"})

	v.SetDefault("quiz.subjects", defaultSubjects)
	v.SetDefault("quiz.submissionTTL", 24*time.Hour)

	v.SetDefault("redis.address", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("rabbitmq.url", "")
	v.SetDefault("rabbitmq.queue", "shule.events")

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, QA, PROD
	if env == "" {
		env = "DEV"
	}
	if env == "TEST" {
		v.SetDefault("testMode", true)
	}
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join("config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	return &Config{
		Env:              env,
		Build:            v.GetString("build"),
		Debug:            v.GetBool("debug"),
		TestMode:         v.GetBool("testMode"),
		AppName:          v.GetString("appName"),
		SecretKey:        v.GetString("secretKey"),
		DefaultFromEmail: v.GetString("defaultFromEmail"),
		AdminEmails:      cleanList(v.GetStringSlice("adminEmails")),
		RollbarToken:     v.GetString("rollbarToken"),
		SendgridApiKey:   v.GetString("sendgridApiKey"),
		Server: ServerConfig{
			Address:            v.GetString("server.address"),
			Host:               v.GetString("server.host"),
			DebugHost:          v.GetString("server.debugHost"),
			ShutdownTimeout:    v.GetDuration("server.shutdownTimeout"),
			JWTExpirationDelta: v.GetDuration("server.jwtExpirationDelta"),
			SignupTokenDelta:   v.GetDuration("server.signupTokenDelta"),
			DisableRequestLogs: v.GetBool("server.disableRequestLogs"),
		},
		Sheets: SheetsConfig{
			Backend:         CleanString(v.GetString("sheets.backend"), true /* lower */),
			Spreadsheet:     v.GetString("sheets.spreadsheet"),
			CredentialsFile: v.GetString("sheets.credentialsFile"),
			CredentialsJSON: v.GetString("sheets.credentialsJSON"),
			RetryDelays:     ParseDurations(v.GetStringSlice("sheets.retryDelays")),
		},
		Quiz: QuizConfig{
			Subjects:      ParseSubjects(v.GetStringSlice("quiz.subjects")),
			SubmissionTTL: v.GetDuration("quiz.submissionTTL"),
		},
		Redis: RedisConfig{
			Address:  v.GetString("redis.address"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		RabbitMQ: RabbitMQConfig{
			URL:   v.GetString("rabbitmq.url"),
			Queue: v.GetString("rabbitmq.queue"),
		},
	}
}

// FromEmail parses DefaultFromEmail, falling back to a bare address.
func (c *Config) FromEmail() mail.Address {
	if addr, err := mail.ParseAddress(c.DefaultFromEmail); err == nil {
		return *addr
	}
	return mail.Address{Name: c.AppName, Address: c.DefaultFromEmail}
}

// ParseSubjects reads `code:label` entries. A missing label falls back to the code.
func ParseSubjects(entries []string) []Subject {
	subjects := make([]Subject, 0, len(entries))
	seen := make(map[string]bool, len(entries))
	for _, entry := range entries {
		parts := strings.SplitN(entry, ":", 2)
		code := CleanString(parts[0], true /* lower */)
		if code == "" || seen[code] {
			continue
		}
		label := code
		if len(parts) == 2 && CleanString(parts[1]) != "" {
			label = CleanString(parts[1])
		}
		seen[code] = true
		subjects = append(subjects, Subject{Code: code, Label: label})
	}
	return subjects
}

// ParseDurations skips entries that are not valid time.Duration strings.
func ParseDurations(entries []string) []time.Duration {
	delays := make([]time.Duration, 0, len(entries))
	for _, entry := range entries {
		d, err := time.ParseDuration(CleanString(entry))
		if err != nil || d < 0 {
			continue
		}
		delays = append(delays, d)
	}
	return delays
}

func cleanList(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item = CleanString(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
