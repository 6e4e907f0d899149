package visualizer

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// DefaultAddr is the default address of the http visualizer
const DefaultAddr = "127.0.0.1:7075"

// httpVisualizer records the series and serves them over HTTP while
// training runs:
//
//		GET /loss	 {"loss": [...]}
//		GET /reward	 {"reward": [[...], ...]}
//		GET /		 HTML line charts of both series
type httpVisualizer struct {
	series
	log    *logrus.Entry
	router *gin.Engine
	server *http.Server
	addr   string
}

// NewHTTP returns a Visualizer which serves the recorded series at
// addr until closed
func NewHTTP(addr string, log *logrus.Entry) (Visualizer, error) {
	if addr == "" {
		addr = DefaultAddr
	}

	v := &httpVisualizer{log: log}
	v.router = v.setupRouter()

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("newHTTP: %w", err)
	}
	v.addr = listener.Addr().String()
	v.server = &http.Server{Handler: v.router}

	go func() {
		v.log.WithField("addr", v.addr).Info("visualizer server starting")
		err := v.server.Serve(listener)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			v.log.WithFields(logrus.Fields{
				"addr": v.addr,
				"err":  err,
			}).Error("visualizer server closed")
		}
	}()

	return v, nil
}

func (v *httpVisualizer) setupRouter() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/", v.handleChart)
	router.GET("/loss", v.handleLoss)
	router.GET("/reward", v.handleReward)
	return router
}

func (v *httpVisualizer) handleLoss(c *gin.Context) {
	losses, _ := v.snapshot()
	c.JSON(http.StatusOK, gin.H{"loss": losses})
}

func (v *httpVisualizer) handleReward(c *gin.Context) {
	_, rewards := v.snapshot()
	c.JSON(http.StatusOK, gin.H{"reward": rewards})
}

func (v *httpVisualizer) handleChart(c *gin.Context) {
	losses, rewards := v.snapshot()
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(http.StatusOK)
	if err := renderPage(c.Writer, losses, rewards); err != nil {
		v.log.WithField("err", err).Error("could not render charts")
	}
}

// Close stops the server
func (v *httpVisualizer) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := v.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("close: %w", err)
	}
	v.log.Info("visualizer server stopped")
	return nil
}
