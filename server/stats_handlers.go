package main

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

func (s *Server) registerStatsRoutes(r *gin.Engine) {
	r.GET("/v1/stats", s.handleSystemStats)
	r.GET("/v1/stats/tag", s.handleTagStats)
	r.GET("/v1/info", s.handleInfo)
	r.GET("/v1/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})
}

// handleTagStats reports the current count for one tag. Unknown tags are
// not an error; they report zero.
func (s *Server) handleTagStats(c *gin.Context) {
	tag := strings.TrimSpace(c.Query("tag"))
	if tag == "" {
		tag = strings.TrimSpace(c.Query("url"))
	}
	if tag == "" || len(tag) > 200 {
		respondError(c, http.StatusBadRequest, "tag must be 1-200 characters", s.logger)
		return
	}

	count, err := s.store.GetCount(tag)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "failed to read visit count", s.logger)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"tag":         tag,
		"visit_count": count,
		"queried_at":  time.Now().Unix(),
	})
}

func (s *Server) handleSystemStats(c *gin.Context) {
	logger := requestLogger(c, s.logger)

	totalTags, err := s.store.CountSubjects()
	if err != nil {
		logger.Error().Err(err).Msg("failed to count subjects")
	}
	totalVisits, err := s.store.SumVisits()
	if err != nil {
		logger.Error().Err(err).Msg("failed to sum visits")
	}
	dayAgo := time.Now().Add(-24 * time.Hour).Unix()
	newToday, err := s.store.CountCreatedSince(dayAgo)
	if err != nil {
		logger.Error().Err(err).Msg("failed to count recent subjects")
	}

	c.JSON(http.StatusOK, gin.H{
		"total_tracked_tags": totalTags,
		"total_visits":       totalVisits,
		"new_badges_today":   newToday,
	})
}

func (s *Server) handleInfo(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"version":                 Version,
		"environment":             s.cfg.Environment,
		"identity_mode":           s.cfg.Identity.Mode,
		"rate_limit_window_hours": s.cfg.Visits.RateLimitWindowSeconds / 3600,
		"cleanup_retention_days":  s.cfg.Retention.Days,
	})
}
