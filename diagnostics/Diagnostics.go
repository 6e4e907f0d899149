// Package diagnostics implements the verbosity levels and structured
// logger that are passed explicitly to the training components.
package diagnostics

import (
	"encoding/json"
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Level is a diagnostics verbosity level. Apart from None, levels are
// not ordered: Loss, Policy and Init each enable their own detailed
// output, and every level other than None enables progress output.
type Level int

// Available diagnostics levels
const (
	None Level = iota
	Progress
	Loss
	Policy
	Init
)

var levelNames = map[Level]string{
	None:     "none",
	Progress: "progress",
	Loss:     "loss",
	Policy:   "policy",
	Init:     "init",
}

// ParseLevel returns the Level with the given name
func ParseLevel(name string) (Level, error) {
	name = strings.ToLower(name)
	for level, n := range levelNames {
		if n == name {
			return level, nil
		}
	}
	return None, fmt.Errorf("parseLevel: no such level %q", name)
}

// String implements the fmt.Stringer interface
func (l Level) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return fmt.Sprintf("Level(%d)", int(l))
}

// MarshalJSON implements the json.Marshaler interface
func (l Level) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.String())
}

// UnmarshalJSON implements the json.Unmarshaler interface
func (l *Level) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	level, err := ParseLevel(name)
	if err != nil {
		return err
	}
	*l = level
	return nil
}

// Diagnostics carries a verbosity level and a logger. Diagnostics
// output never changes the results of the components that produce it.
type Diagnostics struct {
	Level Level
	Log   *logrus.Entry
}

// New returns a new Diagnostics
func New(level Level, log *logrus.Entry) Diagnostics {
	return Diagnostics{Level: level, Log: log}
}

// Disabled returns Diagnostics which never log
func Disabled() Diagnostics {
	l := logrus.New()
	l.SetOutput(ioutil.Discard)
	return Diagnostics{Level: None, Log: logrus.NewEntry(l)}
}

// Progress returns whether per-iteration progress should be logged
func (d Diagnostics) Progress() bool {
	return d.Level != None && d.Log != nil
}

// Is returns whether the detailed output of level l should be logged
func (d Diagnostics) Is(l Level) bool {
	return d.Level == l && d.Log != nil
}

// With returns Diagnostics whose log entries carry the given fields
func (d Diagnostics) With(fields logrus.Fields) Diagnostics {
	if d.Log == nil {
		return d
	}
	return Diagnostics{Level: d.Level, Log: d.Log.WithFields(fields)}
}

// LogConfig stores the config for logging
type LogConfig struct {
	// Path of the log file, logs are written to stderr when empty
	Path string `json:"path"`
	// Format to log, either `text` or `json`
	Format string `json:"format"`
	// Level log level, one of panic|fatal|error|warn|warning|info|debug|trace
	Level string `json:"level"`
}

// NewLogger instantiates a logger based on the config. The returned
// io.Closer closes the log file, if any.
func NewLogger(c LogConfig) (*logrus.Entry, io.Closer, error) {
	l := logrus.New()
	if c.Format == "json" {
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	if c.Level != "" {
		level, err := logrus.ParseLevel(c.Level)
		if err != nil {
			return nil, nil, fmt.Errorf("newLogger: %w", err)
		}
		l.SetLevel(level)
	}

	var closer io.Closer = nopCloser{}
	if c.Path != "" {
		file, err := os.Create(c.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("newLogger: could not create log "+
				"file: %w", err)
		}
		l.SetOutput(file)
		closer = file
	}

	return logrus.NewEntry(l), closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
