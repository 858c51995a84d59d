package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/mwalimu/somo/client"
	"github.com/mwalimu/somo/core"
	"github.com/mwalimu/somo/core/auth"
)

var errHelp = errors.New("help provided")

type commandLine struct {
	conf   *core.Config
	logger core.Logger
	openDB func() (*sql.DB, error)
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  users                                - list users with their access")
	fmt.Println("  grantadmin -uid UID                  - grant a user the admin role")
	fmt.Println("  revokeadmin -uid UID                 - revoke a user's admin role")
	fmt.Println("  disable -uid UID                     - disable a user's account")
	fmt.Println("  enable -uid UID                      - re-enable a user's account")
	fmt.Println("  migrate up|down|status [ARGS]        - run database migrations")
	fmt.Println()
	fmt.Println("API commands need SOMO_SESSION_TOKEN set to an admin's session token")
	fmt.Println("and reach the API at SOMO_API_URL (default http://localhost:8000).")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	uidCmds := map[string]bool{"grantadmin": true, "revokeadmin": true, "disable": true, "enable": true}

	switch cmd := args[1]; {
	case cmd == "users":
		return cli.withBridge(func(ctx context.Context, cl *client.Client) error {
			return cli.listUsers(ctx, cl)
		})

	case uidCmds[cmd]:
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		uid := fs.String("uid", "", "The target account's UID.")
		if err := fs.Parse(args[2:]); err != nil {
			return err
		}
		if *uid == "" {
			fs.Usage()
			return errHelp
		}
		return cli.withBridge(func(ctx context.Context, cl *client.Client) error {
			return cli.updateAccess(ctx, cl, cmd, *uid)
		})

	case cmd == "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])

	default:
		cli.printUsage()
		return errHelp
	}
}

// withBridge establishes a directory session for the operator's web session,
// runs fn with the bridged client and signs out again.
func (cli *commandLine) withBridge(fn func(ctx context.Context, cl *client.Client) error) error {
	sessionToken := os.Getenv("SOMO_SESSION_TOKEN")
	if sessionToken == "" {
		return errors.New("SOMO_SESSION_TOKEN is not set")
	}
	apiURL := os.Getenv("SOMO_API_URL")
	if apiURL == "" {
		apiURL = "http://localhost:8000"
	}

	ctx := context.Background()
	cl := client.New(apiURL, sessionToken)

	bridge := auth.NewBridge(cl, cl, cli.logger)
	bridge.SessionChanged(ctx, true, "")
	if bridge.State() != auth.Bridged {
		return errors.New("could not establish a directory session; is the session token valid?")
	}
	defer bridge.SessionChanged(ctx, false, "")

	return fn(ctx, cl)
}
