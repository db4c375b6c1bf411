package api

import (
	"errors"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/naka-gawa/talentrank/internal/domain"
	"github.com/naka-gawa/talentrank/internal/usecase"
)

func (s *Server) analyze(c *gin.Context) {
	subject, err := domain.NewSubject(c.Param("username"))
	if err != nil {
		s.fail(c, err)
		return
	}
	force := false
	if v := c.Query("force_refresh"); v != "" {
		force, err = strconv.ParseBool(v)
		if err != nil {
			s.fail(c, domain.NewInvalidQueryError("force_refresh must be a boolean"))
			return
		}
	}

	out, err := s.service.Analyze(c.Request.Context(), subject, force)
	if err != nil {
		s.fail(c, err)
		return
	}
	switch {
	case out.Cached:
		c.Header(cacheHeader, "HIT")
	case out.Shared:
		c.Header(cacheHeader, "SHARED")
	default:
		c.Header(cacheHeader, "MISS")
	}
	if out.Degraded {
		c.Header("Warning", `199 - "analysis cache unavailable"`)
	}
	c.JSON(http.StatusOK, out.Record)
}

func (s *Server) search(c *gin.Context) {
	var p usecase.SearchParams
	p.Domain = c.Query("domain")
	p.Nation = c.Query("nation")
	if v, ok := c.GetQuery("min_rank"); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || math.IsInf(f, 0) {
			s.fail(c, domain.NewInvalidQueryError("min_rank must be a number"))
			return
		}
		p.MinRank = &f
	}
	if v, ok := c.GetQuery("limit"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			s.fail(c, domain.NewInvalidQueryError("limit must be an integer"))
			return
		}
		p.Limit = &n
	}
	if v, ok := c.GetQuery("offset"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			s.fail(c, domain.NewInvalidQueryError("offset must be an integer"))
			return
		}
		p.Offset = n
	}

	res, err := s.service.Search(c.Request.Context(), p)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) stats(c *gin.Context) {
	stats, err := s.service.Stats(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (s *Server) health(c *gin.Context) {
	if err := s.service.Health(c.Request.Context()); err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":    "unhealthy",
			"timestamp": s.now().UTC().Format(time.RFC3339),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": s.now().UTC().Format(time.RFC3339),
	})
}

// fail maps err onto a status code and writes the error body.
func (s *Server) fail(c *gin.Context, err error) {
	_ = c.Error(err)
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrInvalidQuery):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrSubjectNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrQuotaExhausted):
		status = http.StatusTooManyRequests
		c.Header("Retry-After", strconv.Itoa(s.retryAfter(err)))
	case errors.Is(err, domain.ErrUpstreamUnavailable), errors.Is(err, domain.ErrCacheUnavailable):
		status = http.StatusServiceUnavailable
	}
	c.AbortWithStatusJSON(status, gin.H{
		"error":      err.Error(),
		"path":       c.Request.URL.Path,
		"request_id": c.GetString(requestIDKey),
		"timestamp":  s.now().UTC().Format(time.RFC3339),
	})
}

// retryAfter returns the whole seconds until the quota resets, at least 1.
func (s *Server) retryAfter(err error) int {
	resetAt, ok := domain.ResetAtOf(err)
	if !ok && s.resetAt != nil {
		resetAt, ok = s.resetAt(), true
	}
	if !ok {
		return 60
	}
	secs := int(math.Ceil(resetAt.Sub(s.now()).Seconds()))
	if secs < 1 {
		secs = 1
	}
	return secs
}
