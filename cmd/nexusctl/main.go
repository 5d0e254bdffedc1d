package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"syscall"

	_ "github.com/lib/pq"
	"golang.org/x/term"

	"github.com/YahSeh/Nexus-terminal/internal/auth"
	"github.com/YahSeh/Nexus-terminal/internal/database"
	"github.com/YahSeh/Nexus-terminal/internal/trust"
)

const usage = `usage: nexusctl <command> [flags]

commands:
  create-user      provision an account and print its pairing code
  create-basecamp  provision a basecamp room
`

func main() {
	logger := log.New(os.Stderr, "", 0)

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "create-user":
		err = createUser(logger, os.Args[2:])
	case "create-basecamp":
		err = createBasecamp(logger, os.Args[2:])
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	if err != nil {
		logger.Fatalln(err)
	}
}

func openRepository(dsn string) (*database.PgNexusRepository, error) {
	db, err := database.NewPgNexusRepository(dsn)
	if err != nil {
		return nil, fmt.Errorf("db open: %w", err)
	}

	if err := db.Migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// promptSecret reads a secret from the terminal without echoing it.
func promptSecret(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	secret, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read secret: %w", err)
	}

	return strings.TrimSpace(string(secret)), nil
}

func createUser(logger *log.Logger, args []string) error {
	fs := flag.NewFlagSet("create-user", flag.ExitOnError)
	dsn := fs.String("dsn", "host=localhost user=postgres password=postgres dbname=postgres sslmode=disable", "postgres connection string")
	username := fs.String("username", "", "username for the new account")
	fs.Parse(args)

	if *username == "" {
		return fmt.Errorf("username is required")
	}

	password, err := promptSecret("password: ")
	if err != nil {
		return err
	}
	if password == "" {
		return fmt.Errorf("password cannot be empty")
	}

	confirm, err := promptSecret("confirm password: ")
	if err != nil {
		return err
	}
	if password != confirm {
		return fmt.Errorf("passwords do not match")
	}

	hash, err := auth.HashSecret(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	db, err := openRepository(*dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	cred, err := db.CreateCredential(database.CreateCredentialParams{
		Username: *username,
		Scheme:   database.SchemeArgon2,
		Secret:   hash,
	})
	if err != nil {
		return fmt.Errorf("create credential: %w", err)
	}

	trustStore := trust.NewStore(logger, db)
	code, err := trustStore.IssuePairingCode(cred.Username)
	if err != nil {
		return fmt.Errorf("issue pairing code: %w", err)
	}

	fmt.Printf("created user %q\n", cred.Username)
	fmt.Printf("pairing code (shown once, share it only with trusted partners): %s\n", code)

	return nil
}

func createBasecamp(logger *log.Logger, args []string) error {
	fs := flag.NewFlagSet("create-basecamp", flag.ExitOnError)
	dsn := fs.String("dsn", "host=localhost user=postgres password=postgres dbname=postgres sslmode=disable", "postgres connection string")
	id := fs.String("id", "", "basecamp identifier")
	name := fs.String("name", "", "basecamp display name")
	fs.Parse(args)

	if *id == "" || *name == "" {
		return fmt.Errorf("id and name are required")
	}

	code, err := promptSecret("basecamp code: ")
	if err != nil {
		return err
	}
	if code == "" {
		return fmt.Errorf("basecamp code cannot be empty")
	}

	hash, err := auth.HashSecret(code)
	if err != nil {
		return fmt.Errorf("hash basecamp code: %w", err)
	}

	db, err := openRepository(*dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	camp, err := db.CreateBasecamp(database.CreateBasecampParams{
		Id:         *id,
		Name:       *name,
		SecretHash: hash,
	})
	if err != nil {
		return fmt.Errorf("create basecamp: %w", err)
	}

	fmt.Printf("created basecamp %q (%s)\n", camp.Name, camp.Id)

	return nil
}
