package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/dmitrijs2005/candidates/internal/flagx"
	"github.com/joho/godotenv"
)

const envPrefix = "CANDIDATES_"

// parseEnv loads a dotenv file into the process environment and then reads
// CANDIDATES_* variables into config. The file is given by -env-file and
// defaults to ".env"; a missing default file is ignored. Variables already
// set in the environment win over the file. Malformed numbers panic, like
// malformed JSON does.
func parseEnv(config *Config) {
	envFile := flagx.EnvFileFlags()
	explicit := envFile != ""
	if !explicit {
		envFile = ".env"
	}

	if err := godotenv.Load(envFile); err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			panic(err)
		}
	}

	str := func(name string, dst *string) {
		if v, ok := os.LookupEnv(envPrefix + name); ok {
			*dst = v
		}
	}

	str("HTTP_ADDR", &config.HTTPAddr)
	str("DATABASE_DSN", &config.DatabaseDSN)
	str("SECRET_KEY", &config.SecretKey)
	str("SITE_URL", &config.SiteURL)
	str("LOG_LEVEL", &config.LogLevel)
	str("MAIL_FROM", &config.MailFrom)
	str("SMTP_HOST", &config.SMTPHost)
	str("SMTP_USER", &config.SMTPUser)
	str("SMTP_PASSWORD", &config.SMTPPassword)
	str("ROUND_NAME", &config.RoundName)
	str("DEADLINE", &config.Deadline)
	str("VIEW_PERMISSION", &config.ViewPermission)
	str("S3_ROOT_USER", &config.S3RootUser)
	str("S3_ROOT_PASSWORD", &config.S3RootPassword)
	str("S3_BUCKET", &config.S3Bucket)
	str("S3_REGION", &config.S3Region)
	str("S3_BASE_ENDPOINT", &config.S3BaseEndpoint)

	if v, ok := os.LookupEnv(envPrefix + "SESSION_VALIDITY"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			panic(err)
		}
		config.SessionValidityDuration = d
	}
	if v, ok := os.LookupEnv(envPrefix + "SMTP_PORT"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			panic(err)
		}
		config.SMTPPort = n
	}
	if v, ok := os.LookupEnv(envPrefix + "RATE_LIMIT_RPS"); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			panic(err)
		}
		config.RateLimitRPS = f
	}
	if v, ok := os.LookupEnv(envPrefix + "RATE_LIMIT_BURST"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			panic(err)
		}
		config.RateLimitBurst = n
	}
}
