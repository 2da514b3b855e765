// Package api 提供只读的 HTTP 接口，数据来自最近一次发布的报表。
// 它不访问 Tracker，Tracker 只属于轮询循环。
package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"netmon/logger"
	"netmon/monitor"
)

// ReportSource 返回最近一次报表，还没有时返回 nil
type ReportSource interface {
	Latest() *monitor.Report
}

// NewRouter 注册所有路由
func NewRouter(src ReportSource) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", HandleHealth())
	v1 := r.Group("/api/v1")
	{
		v1.GET("/throughput", HandleThroughput(src))
		v1.GET("/processes/:pid", HandleProcess(src))
	}
	return r
}

func HandleHealth() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

func HandleThroughput(src ReportSource) gin.HandlerFunc {
	return func(c *gin.Context) {
		report := src.Latest()
		if report == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no data yet"})
			return
		}
		c.JSON(http.StatusOK, report)
	}
}

func HandleProcess(src ReportSource) gin.HandlerFunc {
	return func(c *gin.Context) {
		pid, err := strconv.ParseUint(c.Param("pid"), 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid pid"})
			return
		}
		report := src.Latest()
		if report == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no data yet"})
			return
		}
		row, ok := report.Find(uint32(pid))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "pid not active"})
			return
		}
		c.JSON(http.StatusOK, row)
	}
}

// Serve 在 addr 上提供服务，ctx 取消后优雅关闭
func Serve(ctx context.Context, addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("api listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		// 等监听 goroutine 退出
		<-errCh
		return err
	}
}
