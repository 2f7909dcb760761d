// Command admin runs maintenance tasks against the candidates database.
//
// Usage:
//
//	admin migrate [server flags]
//	admin create-staff -username boss [-email ...] [-first-name ...] [-last-name ...] [server flags]
//
// Server flags (-d, -round, -deadline, ...) and CANDIDATES_* variables are
// read the same way the server reads them.
package main

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/dmitrijs2005/candidates/internal/common"
	"github.com/dmitrijs2005/candidates/internal/flagx"
	"github.com/dmitrijs2005/candidates/internal/logging"
	"github.com/dmitrijs2005/candidates/internal/server/config"
	"github.com/dmitrijs2005/candidates/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/candidates/internal/server/rounds"
	"github.com/dmitrijs2005/candidates/internal/server/services"
	"golang.org/x/term"
)

var staffFlagNames = []string{"-username", "-email", "-first-name", "-last-name"}

// readTermPassword is a test seam for term.ReadPassword.
var readTermPassword = term.ReadPassword

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: admin migrate|create-staff [flags]")
		os.Exit(2)
	}

	ctx := context.Background()
	cfg := config.LoadConfig()
	logger := logging.NewJSONLogger(os.Stderr, strings.EqualFold(cfg.LogLevel, "debug"))

	var err error
	switch os.Args[1] {
	case "migrate":
		err = migrate(ctx, cfg, logger)
	case "create-staff":
		err = createStaff(ctx, cfg, logger, os.Args[2:])
	default:
		err = fmt.Errorf("unknown command %q", os.Args[1])
	}
	if err != nil {
		log.Fatalf("%v", err)
	}
}

func migrate(ctx context.Context, cfg *config.Config, logger logging.Logger) error {
	db, err := repomanager.Open(ctx, cfg.DatabaseDSN)
	if err != nil {
		return fmt.Errorf("db init error: %w", err)
	}
	defer db.Close()

	if err := repomanager.NewPostgresRepositoryManager().RunMigrations(ctx, db); err != nil {
		return fmt.Errorf("migrations error: %w", err)
	}
	logger.Info(ctx, "migrations applied")
	return nil
}

func createStaff(ctx context.Context, cfg *config.Config, logger logging.Logger, args []string) error {
	fs := flag.NewFlagSet("create-staff", flag.ContinueOnError)
	req := services.StaffRequest{}
	fs.StringVar(&req.Username, "username", "", "login of the staff account")
	fs.StringVar(&req.Email, "email", "", "e-mail address")
	fs.StringVar(&req.FirstName, "first-name", "", "first name")
	fs.StringVar(&req.LastName, "last-name", "", "last name")
	if err := fs.Parse(flagx.FilterArgs(args, staffFlagNames)); err != nil {
		return err
	}
	if req.Username == "" {
		return errors.New("-username is required")
	}

	password, err := readPassword(os.Stdin, os.Stderr)
	if err != nil {
		return err
	}
	req.Password = password

	meta, err := rounds.NewStatic(cfg.RoundName, cfg.Deadline, cfg.ViewPermission)
	if err != nil {
		return err
	}

	db, err := repomanager.Open(ctx, cfg.DatabaseDSN)
	if err != nil {
		return fmt.Errorf("db init error: %w", err)
	}
	defer db.Close()

	s, err := services.NewStaffService(services.Deps{
		DB:     db,
		Repos:  repomanager.NewPostgresRepositoryManager(),
		Meta:   meta,
		Logger: logger,
	})
	if err != nil {
		return err
	}

	account, err := s.CreateStaff(ctx, req)
	if err != nil {
		return err
	}
	fmt.Printf("created staff account %s (id %d)\n", account.Username, account.ID)
	return nil
}

// readPassword prompts twice without echo on a terminal, or reads one line
// when input is piped.
func readPassword(in *os.File, prompt io.Writer) (string, error) {
	fd := int(in.Fd())
	if !term.IsTerminal(fd) {
		line, err := bufio.NewReader(in).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", err
		}
		return strings.TrimRight(line, "\r\n"), nil
	}

	return promptPassword(fd, prompt)
}

// promptPassword reads the password twice from the terminal and zeroes the
// raw buffers once they have been compared.
func promptPassword(fd int, prompt io.Writer) (string, error) {
	fmt.Fprint(prompt, "Password: ")
	first, err := readTermPassword(fd)
	fmt.Fprintln(prompt)
	defer common.WipeByteArray(first)
	if err != nil {
		return "", err
	}
	fmt.Fprint(prompt, "Password (again): ")
	second, err := readTermPassword(fd)
	fmt.Fprintln(prompt)
	defer common.WipeByteArray(second)
	if err != nil {
		return "", err
	}
	if !bytes.Equal(first, second) {
		return "", errors.New("passwords do not match")
	}
	return string(first), nil
}
