package core

// Logger is any leveled logger that can ship errors to an error tracker.
// Extra args may include an error, a map of metadata or a user.User to tag
// the report with.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}
