package core

// Person identifies the authenticated caller attached to log entries.
type Person struct {
	ID       string
	Username string
	Email    string
}

// Logger is any leveled logger.
// args may hold errors, extra data (map[string]interface{}) and at most one Person.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}
