package visualizer

import (
	"bytes"
	"encoding/json"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func testLogger(buf *bytes.Buffer) *logrus.Entry {
	l := logrus.New()
	l.SetOutput(buf)
	l.SetFormatter(&logrus.JSONFormatter{})
	return logrus.NewEntry(l)
}

func TestNew(t *testing.T) {
	var buf bytes.Buffer

	v, err := New(Config{Type: None}, testLogger(&buf))
	require.NoError(t, err)
	require.IsType(t, none{}, v)

	v, err = New(Config{Type: Log}, testLogger(&buf))
	require.NoError(t, err)
	require.IsType(t, &logVisualizer{}, v)

	_, err = New(Config{Type: Chart}, testLogger(&buf))
	require.Error(t, err)

	_, err = New(Config{Type: "tensorboard"}, testLogger(&buf))
	require.Error(t, err)
}

func TestLogVisualizer(t *testing.T) {
	var buf bytes.Buffer
	v := NewLog(testLogger(&buf))

	v.LogLoss(0.5)
	v.LogReward([]float64{12})
	require.NoError(t, v.Close())

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	require.Equal(t, 0.5, entry["loss"])
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &entry))
	require.Equal(t, []interface{}{12.0}, entry["reward"])
}

func TestChartVisualizer(t *testing.T) {
	path := filepath.Join(t.TempDir(), "charts", "training.html")
	v := NewChart(path)

	for i := 0; i < 5; i++ {
		v.LogLoss(1 / float64(i+1))
		v.LogReward([]float64{float64(10 * i)})
	}
	require.NoError(t, v.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "Loss")
	require.Contains(t, string(data), "Average reward")
}

func TestTranspose(t *testing.T) {
	got := transpose([][]float64{{1, 2}, {3, 4}, {5, 6}})
	require.Equal(t, [][]float64{{1, 3, 5}, {2, 4, 6}}, got)
	require.Equal(t, []string{"reward 0", "reward 1"},
		rewardNames([][]float64{{1, 2}}))
	require.Equal(t, []string{"reward"}, rewardNames([][]float64{{1}}))
}

func TestHTTPVisualizerRoutes(t *testing.T) {
	var buf bytes.Buffer
	v := &httpVisualizer{log: testLogger(&buf)}
	router := v.setupRouter()

	v.LogLoss(2)
	v.LogLoss(1)
	v.LogReward([]float64{9})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/loss", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"loss":[2,1]}`, w.Body.String())

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/reward", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"reward":[[9]]}`, w.Body.String())

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "<html")
}

func TestHTTPVisualizerServe(t *testing.T) {
	var buf bytes.Buffer
	v, err := NewHTTP("127.0.0.1:0", testLogger(&buf))
	require.NoError(t, err)
	v.LogLoss(3)

	resp, err := http.Get("http://" + v.(*httpVisualizer).addr + "/loss")
	require.NoError(t, err)
	body, err := ioutil.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	require.JSONEq(t, `{"loss":[3]}`, string(body))

	require.NoError(t, v.Close())
}
