package server

import (
	"context"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"onboarding-retention/pkg/models"
)

// RunFunc recalcule un rapport complet depuis la source.
type RunFunc func(ctx context.Context) (*models.Report, error)

// Snapshot est le dernier rapport calculé.
type Snapshot struct {
	ID         string         `json:"id"`
	ComputedAt time.Time      `json:"computed_at"`
	Report     *models.Report `json:"report"`
}

// Server expose les tables dérivées en JSON pour le tableau de bord.
type Server struct {
	run      RunFunc
	gatherer prometheus.Gatherer
	now      func() time.Time

	mu       sync.RWMutex
	snapshot *Snapshot
}

func New(run RunFunc, gatherer prometheus.Gatherer) *Server {
	return &Server{run: run, gatherer: gatherer, now: time.Now}
}

// Refresh recalcule et remplace l'instantané. En cas d'erreur l'ancien est conservé.
func (s *Server) Refresh(ctx context.Context) (*Snapshot, error) {
	r, err := s.run(ctx)
	if err != nil {
		return nil, err
	}
	return s.Publish(r), nil
}

// Publish remplace l'instantané par un rapport déjà calculé.
func (s *Server) Publish(r *models.Report) *Snapshot {
	snap := &Snapshot{ID: uuid.NewString(), ComputedAt: s.now().UTC(), Report: r}
	s.mu.Lock()
	s.snapshot = snap
	s.mu.Unlock()
	return snap
}

func (s *Server) current() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot
}

// Router construit les routes gin.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Content-Type", "Accept"},
		MaxAge:          12 * time.Hour,
	}))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if s.gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))
	}

	api := r.Group("/api")
	api.GET("/report", s.withSnapshot(func(snap *Snapshot) any { return snap }))
	api.GET("/monthly", s.withSnapshot(func(snap *Snapshot) any { return snap.Report.Monthly }))
	api.GET("/latency", s.withSnapshot(func(snap *Snapshot) any {
		return gin.H{"baseline": snap.Report.Latency, "compare": snap.Report.CompareLatency}
	}))
	api.GET("/survival", s.withSnapshot(func(snap *Snapshot) any { return snap.Report.Survival }))
	api.GET("/focus", func(c *gin.Context) {
		snap := s.current()
		if snap == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no report computed yet"})
			return
		}
		if snap.Report.Focus == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "no focus month configured"})
			return
		}
		c.JSON(http.StatusOK, snap.Report.Focus)
	})
	api.POST("/refresh", func(c *gin.Context) {
		snap, err := s.Refresh(c.Request.Context())
		if err != nil {
			log.Printf("[ERROR] refresh failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": snap.ID, "computed_at": snap.ComputedAt})
	})
	return r
}

func (s *Server) withSnapshot(pick func(*Snapshot) any) gin.HandlerFunc {
	return func(c *gin.Context) {
		snap := s.current()
		if snap == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no report computed yet"})
			return
		}
		c.JSON(http.StatusOK, pick(snap))
	}
}

// ListenAndServe sert l'API jusqu'à l'annulation de ctx.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Router(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.Printf("[INFO] listening on %s", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	log.Printf("[INFO] shutting down server")
	return srv.Shutdown(shutdownCtx)
}
