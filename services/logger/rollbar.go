// Package logsvc provides the rollbar-backed core.Logger used in deployed
// environments. Everything is also echoed to the wrapped standard logger.
package logsvc

import (
	"log"

	"github.com/rollbar/rollbar-go"
	"github.com/rollbar/rollbar-go/errors"

	"github.com/mwalimu/somo/core"
	"github.com/mwalimu/somo/core/user"
)

type RollbarLogger struct {
	std *log.Logger
}

var _ core.Logger = (*RollbarLogger)(nil)

func NewRollbarLogger(std *log.Logger, conf *core.Config) *RollbarLogger {
	rollbar.SetToken(conf.RollbarToken)
	rollbar.SetEnvironment(conf.Env)
	rollbar.SetServerHost(conf.Server.Host)
	rollbar.SetCodeVersion(conf.Build)
	rollbar.SetStackTracer(errors.StackTracer)
	return &RollbarLogger{std: std}
}

// Enable toggles reporting to rollbar; the standard logger always prints.
func (l *RollbarLogger) Enable(enabled bool) {
	rollbar.SetEnabled(enabled)
}

func (l *RollbarLogger) Debug(msg string, args ...interface{}) { l.report(rollbar.Debug, msg, args) }
func (l *RollbarLogger) Info(msg string, args ...interface{})  { l.report(rollbar.Info, msg, args) }
func (l *RollbarLogger) Warn(msg string, args ...interface{})  { l.report(rollbar.Warning, msg, args) }
func (l *RollbarLogger) Error(msg string, args ...interface{}) { l.report(rollbar.Error, msg, args) }

func (l *RollbarLogger) Fatal(msg string, args ...interface{}) {
	l.report(rollbar.Critical, msg, args)
	l.std.Fatal(msg)
}

// report tags the entry with the first user.User found in args (if any) and
// forwards the rest to rollbar at the given level.
func (l *RollbarLogger) report(send func(...interface{}), msg string, args []interface{}) {
	rollbar.ClearPerson()

	entry := make([]interface{}, 0, len(args)+1)
	entry = append(entry, msg)

	tagged := false
	for _, arg := range args {
		usr, ok := arg.(user.User)
		if !ok {
			entry = append(entry, arg)
			continue
		}
		if !tagged {
			rollbar.SetPerson(usr.ID, usr.Name, usr.Email)
			tagged = true
		}
	}
	send(entry...)

	l.std.Println(msg)
	for _, arg := range entry[1:] {
		l.std.Printf("%+v\n", arg)
	}
}
