package main

import (
	"database/sql"
	"fmt"
	"testing"

	"github.com/mwalimu/somo/core"
)

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
}

func setup(t *testing.T) *commandLine {
	t.Helper()
	return &commandLine{
		conf:   &core.Config{AppName: "Somo", Env: "TEST", TestMode: true},
		logger: &core.LoggerMock{},
		openDB: func() (*sql.DB, error) {
			// sql.Open does not connect; the mocked goose never uses it
			return sql.Open("postgres", "")
		},
	}
}

func Test_commandLine_usage(t *testing.T) {
	cli := setup(t)
	t.Setenv("SOMO_SESSION_TOKEN", "")

	tests := []cliTest{
		{name: "no command", args: []string{}, wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "grantadmin: no uid", args: []string{"grantadmin"}, wantErr: errHelp},
		{name: "disable: no uid", args: []string{"disable"}, wantErr: errHelp},
		{name: "migrate: no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{
			name: "grantadmin: no session token", args: []string{"grantadmin", "-uid", "uid-1"},
			wantErrStr: "SOMO_SESSION_TOKEN is not set",
		},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(args)
			if tt.wantErr != nil {
				if err != tt.wantErr {
					t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
				}
				return
			}
			if err == nil || err.Error() != tt.wantErrStr {
				t.Errorf("cli.run() error = %v, wantErrStr %s", err, tt.wantErrStr)
			}
		})
	}
}

func Test_commandLine_migrate(t *testing.T) {
	cli := setup(t)

	migrateFunc = func(db *sql.DB, command string, args ...string) error {
		switch command {
		case "up", "up-by-one", "down", "redo", "reset", "status", "version": // pass
		case "up-to", "down-to":
			if len(args) == 0 {
				return fmt.Errorf("%s requires a VERSION argument", command)
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		return nil
	}

	tests := []cliTest{
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: `"lol": no such command`},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to requires a VERSION argument"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-to", args: []string{"migrate", "up-to", "2"}},
		{name: "down", args: []string{"migrate", "down"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "version", args: []string{"migrate", "version"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(args)
			if tt.wantErr == nil && tt.wantErrStr == "" {
				if err != nil {
					t.Errorf("cli.run() unexpected error = %v", err)
				}
				return
			}
			if err == nil || err.Error() != tt.wantErrStr {
				t.Errorf("cli.run() error = %v, wantErrStr %s", err, tt.wantErrStr)
			}
		})
	}
}
