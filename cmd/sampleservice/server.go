package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"pgregory.net/rand"
)

// lockedRand serializes draws from one generator. Gin runs handlers on
// concurrent goroutines and rand.Rand is not safe for concurrent use.
type lockedRand struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func (l *lockedRand) Intn(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rng.Intn(n)
}

func (l *lockedRand) Float64() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rng.Float64()
}

// Server holds the handlers for the instrumented sample service. Every
// request synthesizes fresh data; nothing is stored between requests.
//
// The random source, sleep function, and failure rates are injectable so
// tests can run deterministic and instant. The defaults reproduce the
// documented behavior: up to 100ms of lookup jitter with a 10% chance of a
// 500ms slow query on /user/:id, up to 200ms of jitter with a 5% failure
// rate on /api/:resource.
type Server struct {
	log           *slog.Logger
	rng           *lockedRand
	sleep         func(time.Duration)
	name          string
	slowQueryRate float64
	failureRate   float64
}

func NewServer(log *slog.Logger, rng *rand.Rand, sleep func(time.Duration)) *Server {
	return &Server{
		log:           log,
		rng:           &lockedRand{rng: rng},
		sleep:         sleep,
		name:          "sample-service",
		slowQueryRate: 0.1,
		failureRate:   0.05,
	}
}

// Router builds the gin engine. Extra middleware (otelgin, when tracing is
// enabled) is installed ahead of the recovery handler.
func (s *Server) Router(middleware ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	for _, m := range middleware {
		r.Use(m)
	}
	r.Use(gin.CustomRecovery(s.recovered))

	r.GET("/", s.handleRoot)
	r.GET("/user/:id", s.handleUser)
	r.GET("/api/:resource", s.handleResource)
	r.POST("/api/process", s.handleProcess)
	r.GET("/error", s.handleError)
	r.GET("/slow", s.handleSlow)

	return r
}

// recovered converts any handler panic into a 500 JSON response. The
// process keeps serving; a single bad request never takes it down.
func (s *Server) recovered(c *gin.Context, err any) {
	msg := fmt.Sprint(err)
	s.log.Error("handler error", "path", c.Request.URL.Path, "error", msg)
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
		"error":   "Internal Server Error",
		"message": msg,
	})
}

func (s *Server) handleRoot(c *gin.Context) {
	s.log.Info("health check")
	c.JSON(http.StatusOK, gin.H{
		"service":   s.name,
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// handleUser simulates a database lookup with jittered latency and the
// occasional slow query.
func (s *Server) handleUser(c *gin.Context) {
	id := c.Param("id")
	delay := time.Duration(s.rng.Intn(100)) * time.Millisecond
	s.sleep(delay)

	slow := s.rng.Float64() < s.slowQueryRate
	if slow {
		s.sleep(500 * time.Millisecond)
		s.log.Warn("slow query", "user_id", id)
	}
	s.log.Info("user lookup", "user_id", id, "delay_ms", delay.Milliseconds(), "slow", slow)

	c.JSON(http.StatusOK, gin.H{
		"id":         id,
		"name":       "user-" + id,
		"email":      fmt.Sprintf("user%s@example.com", id),
		"created_at": time.Now().UTC().Format(time.RFC3339),
	})
}

// handleResource simulates a call to a flaky external API.
func (s *Server) handleResource(c *gin.Context) {
	resource := c.Param("resource")
	delay := time.Duration(s.rng.Intn(200)) * time.Millisecond
	s.sleep(delay)

	if s.rng.Float64() < s.failureRate {
		s.log.Error("external api failure", "resource", resource)
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":    "External API unavailable",
			"resource": resource,
		})
		return
	}
	s.log.Info("resource fetch", "resource", resource, "delay_ms", delay.Milliseconds())

	c.JSON(http.StatusOK, gin.H{
		"resource":  resource,
		"id":        uuid.NewString(),
		"data":      "data for " + resource,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// handleProcess sequentially "processes" each submitted item, 50ms apiece.
func (s *Server) handleProcess(c *gin.Context) {
	var req struct {
		Items []interface{} `json:"items"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Items == nil {
		s.log.Warn("rejected process request", "reason", "items missing or not an array")
		c.JSON(http.StatusBadRequest, gin.H{"error": "items must be an array"})
		return
	}

	results := make([]gin.H, 0, len(req.Items))
	for _, item := range req.Items {
		s.sleep(50 * time.Millisecond)
		results = append(results, gin.H{
			"item":      item,
			"processed": true,
			"id":        uuid.NewString(),
		})
	}
	s.log.Info("processed batch", "count", len(results))

	c.JSON(http.StatusOK, gin.H{
		"results": results,
		"count":   len(results),
	})
}

// handleError always fails. The panic is surfaced through the recovery
// handler as a 500, exercising the same path an unexpected bug would take.
func (s *Server) handleError(c *gin.Context) {
	s.log.Info("deliberate error requested")
	panic("This is a deliberate error for testing")
}

// handleSlow always takes 2 seconds, for exercising slow-trace views.
func (s *Server) handleSlow(c *gin.Context) {
	s.log.Info("slow request started")
	s.sleep(2000 * time.Millisecond)
	c.JSON(http.StatusOK, gin.H{
		"message":     "finally done",
		"duration_ms": 2000,
	})
}
