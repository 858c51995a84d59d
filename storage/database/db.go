package database

import (
	"database/sql"
	"fmt"
	"net/url"
	"time"

	_ "github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/trezcool/goose"

	"github.com/mwalimu/somo/core"
	appfs "github.com/mwalimu/somo/fs"
)

// Open connects to the app database as the app user.
func Open(conf *core.Config) (*sql.DB, error) {
	return sql.Open(conf.Database.Engine, dsn(conf.Database.Name, false, conf))
}

// CreateIfNotExist provisions the app user and database. It connects to the
// maintenance database as admin first, so it only works on a reachable
// Postgres with admin credentials configured.
func CreateIfNotExist(conf *core.Config) error {
	admin, err := sql.Open(conf.Database.Engine, dsn("postgres", true, conf))
	if err != nil {
		return errors.Wrap(err, "opening maintenance database")
	}
	defer func() { _ = admin.Close() }()

	if err = waitReady(admin); err != nil {
		return err
	}

	if usr := conf.Database.User; usr != "" {
		var exists bool
		q := "SELECT EXISTS(SELECT 1 FROM pg_roles WHERE rolname=$1)"
		if err = admin.QueryRow(q, usr).Scan(&exists); err != nil {
			return errors.Wrap(err, "checking app user")
		}
		if !exists {
			stmt := fmt.Sprintf("CREATE USER %s CREATEDB ENCRYPTED PASSWORD '%s'", usr, conf.Database.Password)
			if _, err = admin.Exec(stmt); err != nil {
				return errors.Wrap(err, "creating app user")
			}
		}
	}

	// the app user owns the database
	db, err := sql.Open(conf.Database.Engine, dsn("postgres", false, conf))
	if err != nil {
		return errors.Wrap(err, "opening maintenance database")
	}
	defer func() { _ = db.Close() }()

	var exists bool
	q := "SELECT EXISTS(SELECT 1 FROM pg_database WHERE datname=$1)"
	if err = db.QueryRow(q, conf.Database.Name).Scan(&exists); err != nil {
		return errors.Wrap(err, "checking database")
	}
	if !exists {
		if _, err = db.Exec("CREATE DATABASE " + conf.Database.Name); err != nil {
			return errors.Wrap(err, "creating database")
		}
	}
	return nil
}

// Migrate applies all pending migrations embedded in the binary.
func Migrate(db *sql.DB) error {
	return errors.Wrap(MigrateCmd(db, "up"), "migrating database")
}

// MigrateCmd runs an arbitrary goose command (up, down, status, ...) against
// the embedded migrations.
func MigrateCmd(db *sql.DB, command string, args ...string) error {
	return goose.RunFS(command, db, appfs.FS, "migrations", args...)
}

func dsn(dbName string, asAdmin bool, conf *core.Config) string {
	usr := url.UserPassword(conf.Database.User, conf.Database.Password)
	if asAdmin && conf.Database.AdminUser != "" {
		usr = url.UserPassword(conf.Database.AdminUser, conf.Database.AdminPassword)
	}

	sslMode := "require"
	if conf.Database.DisableTLS {
		sslMode = "disable"
	}
	q := url.Values{}
	q.Set("sslmode", sslMode)
	q.Set("timezone", "utc")

	u := url.URL{
		Scheme:   conf.Database.Engine,
		User:     usr,
		Host:     conf.Database.Address(),
		Path:     dbName,
		RawQuery: q.Encode(),
	}
	return u.String()
}

// waitReady pings with growing backoff until the database answers.
func waitReady(db *sql.DB) error {
	var err error
	for attempt := 1; attempt <= 30; attempt++ {
		if err = db.Ping(); err == nil {
			return nil
		}
		time.Sleep(time.Duration(attempt) * 100 * time.Millisecond)
	}
	return errors.Wrap(err, "database ping timeout")
}
