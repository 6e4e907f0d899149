package diagnostics

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	for level, name := range levelNames {
		parsed, err := ParseLevel(name)
		require.NoError(t, err)
		require.Equal(t, level, parsed)
	}

	_, err := ParseLevel("debug")
	require.Error(t, err)
}

func TestLevelJSON(t *testing.T) {
	var c struct{ Verbosity Level }
	require.NoError(t, json.Unmarshal([]byte(`{"Verbosity":"policy"}`), &c))
	require.Equal(t, Policy, c.Verbosity)

	out, err := json.Marshal(c)
	require.NoError(t, err)
	require.JSONEq(t, `{"Verbosity":"policy"}`, string(out))
}

func TestLevels(t *testing.T) {
	d := New(Loss, logrus.NewEntry(logrus.New()))
	require.True(t, d.Progress())
	require.True(t, d.Is(Loss))
	require.False(t, d.Is(Policy))

	d = Disabled()
	require.False(t, d.Progress())
	require.NotNil(t, d.Log)
}

func TestNewLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.log")
	entry, closer, err := NewLogger(LogConfig{
		Path:   path,
		Format: "json",
		Level:  "info",
	})
	require.NoError(t, err)

	entry.WithField("iteration", 3).Info("trained")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &line))
	require.Equal(t, "trained", line["msg"])
	require.EqualValues(t, 3, line["iteration"])

	_, _, err = NewLogger(LogConfig{Level: "loud"})
	require.Error(t, err)
}

func TestWith(t *testing.T) {
	var buf bytes.Buffer
	l := logrus.New()
	l.SetOutput(&buf)
	l.SetFormatter(&logrus.JSONFormatter{})

	d := New(Policy, logrus.NewEntry(l)).With(logrus.Fields{"run": "abc"})
	require.True(t, d.Is(Policy))
	d.Log.Info("selected")

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	require.Equal(t, "abc", line["run"])

	empty := Diagnostics{Level: Loss}.With(logrus.Fields{"run": "abc"})
	require.Nil(t, empty.Log)
	require.False(t, empty.Progress())
}
