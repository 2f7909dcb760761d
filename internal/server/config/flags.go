package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/candidates/internal/flagx"
)

var flagNames = []string{
	"-a", "-d", "-s", "-t", "-u", "-p", "-b", "-g", "-e",
	"-site-url", "-log-level", "-mail-from",
	"-smtp-host", "-smtp-port", "-smtp-user", "-smtp-password",
	"-round", "-deadline", "-view-permission",
	"-rate-rps", "-rate-burst",
}

// parseFlags populates server Config fields from command-line flags.
//
// Supported flags:
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-d string   PostgreSQL DSN
//	-s string   secret key
//	-t int      session validity, minutes
//	-u string   S3 root user
//	-p string   S3 root password
//	-b string   S3 bucket name
//	-g string   S3 region
//	-e string   S3 base endpoint (e.g., "http://127.0.0.1:9000/")
//	-site-url, -log-level, -mail-from, -smtp-host, -smtp-port, -smtp-user,
//	-smtp-password, -round, -deadline, -view-permission, -rate-rps, -rate-burst
//
// Notes:
//   - The function first filters os.Args to only the flags it recognizes using
//     flagx.FilterArgs, avoiding collisions with other components.
//   - The session validity is accepted as an integer in minutes.
func parseFlags(config *Config) {
	// Filter args to include only the flags handled here.
	args := flagx.FilterArgs(os.Args[1:], flagNames)

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")

	sessionValidity := fs.Int("t", int(config.SessionValidityDuration.Minutes()), "session validity (in minutes)")

	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket, empty disables attachments")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")

	fs.StringVar(&config.SiteURL, "site-url", config.SiteURL, "absolute site URL used in e-mails")
	fs.StringVar(&config.LogLevel, "log-level", config.LogLevel, "debug or info")
	fs.StringVar(&config.MailFrom, "mail-from", config.MailFrom, "sender address")
	fs.StringVar(&config.SMTPHost, "smtp-host", config.SMTPHost, "SMTP relay host, empty logs mail instead")
	fs.IntVar(&config.SMTPPort, "smtp-port", config.SMTPPort, "SMTP relay port")
	fs.StringVar(&config.SMTPUser, "smtp-user", config.SMTPUser, "SMTP user")
	fs.StringVar(&config.SMTPPassword, "smtp-password", config.SMTPPassword, "SMTP password")

	fs.StringVar(&config.RoundName, "round", config.RoundName, "current round name, defaults to the deadline year")
	fs.StringVar(&config.Deadline, "deadline", config.Deadline, "submission deadline, YYYY-MM-DD")
	fs.StringVar(&config.ViewPermission, "view-permission", config.ViewPermission, "permission required for the listing")

	fs.Float64Var(&config.RateLimitRPS, "rate-rps", config.RateLimitRPS, "form posts per second per client")
	fs.IntVar(&config.RateLimitBurst, "rate-burst", config.RateLimitBurst, "form post burst per client")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.SessionValidityDuration = time.Duration(*sessionValidity) * time.Minute
}
