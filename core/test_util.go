package core

// LoggerMock records log lines for assertions in tests.
type LoggerMock struct {
	Lines []string
}

var _ Logger = (*LoggerMock)(nil)

func (l *LoggerMock) log(msg string) { l.Lines = append(l.Lines, msg) }

func (l *LoggerMock) Debug(msg string, args ...interface{}) { l.log(msg) }
func (l *LoggerMock) Info(msg string, args ...interface{})  { l.log(msg) }
func (l *LoggerMock) Warn(msg string, args ...interface{})  { l.log(msg) }
func (l *LoggerMock) Error(msg string, args ...interface{}) { l.log(msg) }
func (l *LoggerMock) Fatal(msg string, args ...interface{}) { l.log(msg) }
