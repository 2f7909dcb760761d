package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/candidates/internal/flagx"
	"github.com/dmitrijs2005/candidates/internal/timex"
)

// JsonConfig defines a configuration structure tailored for JSON unmarshalling.
// It uses timex.Duration for interval fields, which allows parsing both
// string values such as "1s" and integer nanoseconds.
//
// This struct is an intermediate DTO used only for reading JSON configuration
// files. After unmarshalling, the fields that are present are copied into the
// runtime Config.
type JsonConfig struct {
	HTTPAddr                string         `json:"http_addr"`
	DatabaseDSN             string         `json:"database_dsn"`
	SecretKey               string         `json:"secret_key"`
	SessionValidityDuration timex.Duration `json:"session_validity_duration"`
	SiteURL                 string         `json:"site_url"`
	LogLevel                string         `json:"log_level"`
	MailFrom                string         `json:"mail_from"`
	SMTPHost                string         `json:"smtp_host"`
	SMTPPort                int            `json:"smtp_port"`
	SMTPUser                string         `json:"smtp_user"`
	SMTPPassword            string         `json:"smtp_password"`
	RoundName               string         `json:"round_name"`
	Deadline                string         `json:"deadline"`
	ViewPermission          string         `json:"view_permission"`
	S3RootUser              string         `json:"s3_root_user"`
	S3RootPassword          string         `json:"s3_root_password"`
	S3Bucket                string         `json:"s3_bucket"`
	S3Region                string         `json:"s3_region"`
	S3BaseEndpoint          string         `json:"s3_base_endpoint"`
	RateLimitRPS            float64        `json:"rate_limit_rps"`
	RateLimitBurst          int            `json:"rate_limit_burst"`
}

// parseJson loads configuration values from a JSON file into the provided
// Config instance.
//
// The file path comes from the -c or -config command-line flags. If neither
// is set, no JSON file is loaded. If the file cannot be read or contains
// invalid JSON, the function panics.
//
// Only non-zero values overwrite config, so a partial file keeps whatever
// defaults and environment already provided.
func parseJson(config *Config) {

	// try flags
	jsonConfigFile := flagx.JsonConfigFlags()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	err = json.Unmarshal(file, c)
	if err != nil {
		panic(err)
	}

	setString(&config.HTTPAddr, c.HTTPAddr)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	if c.SessionValidityDuration.Duration != 0 {
		config.SessionValidityDuration = c.SessionValidityDuration.Duration
	}
	setString(&config.SiteURL, c.SiteURL)
	setString(&config.LogLevel, c.LogLevel)
	setString(&config.MailFrom, c.MailFrom)
	setString(&config.SMTPHost, c.SMTPHost)
	if c.SMTPPort != 0 {
		config.SMTPPort = c.SMTPPort
	}
	setString(&config.SMTPUser, c.SMTPUser)
	setString(&config.SMTPPassword, c.SMTPPassword)
	setString(&config.RoundName, c.RoundName)
	setString(&config.Deadline, c.Deadline)
	setString(&config.ViewPermission, c.ViewPermission)
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	if c.RateLimitRPS != 0 {
		config.RateLimitRPS = c.RateLimitRPS
	}
	if c.RateLimitBurst != 0 {
		config.RateLimitBurst = c.RateLimitBurst
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
