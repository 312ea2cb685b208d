package main

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"visitbadge/pkg/badge"
	"visitbadge/pkg/config"
)

const (
	visitorCookieName   = "visitbadge_id"
	visitorCookieMaxAge = 365 * 24 * 60 * 60 // ~1 year
)

func (s *Server) registerBadgeRoutes(r *gin.Engine) {
	r.GET("/badge", s.handleBadge)
}

// handleBadge validates the request, registers the visit, and redirects to
// the external badge renderer with the current count baked in.
func (s *Server) handleBadge(c *gin.Context) {
	tag := c.Query("url")
	if tag == "" {
		tag = c.Query("tag")
	}
	params, err := badge.ParseParams(tag, c.Query("label"), c.Query("color"), c.Query("style"), c.Query("logo"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid parameters", s.logger)
		return
	}

	token, minted := s.identity.Resolve(s.clientSignal(c))

	outcome, err := s.coordinator.RegisterVisit(token, params.Tag, time.Now())
	if err != nil {
		if errors.Is(err, ErrThrottled) {
			respondError(c, http.StatusTooManyRequests,
				fmt.Sprintf("rate limit exceeded: maximum %d new badges per day", s.cfg.Visits.MaxNewBadgesPerDay),
				s.logger)
			return
		}
		respondError(c, http.StatusInternalServerError, "visit registration failed", s.logger)
		return
	}

	if minted {
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(visitorCookieName, token, visitorCookieMaxAge, "/", "", false, true)
	}

	setNoCacheHeaders(c)
	c.Redirect(http.StatusFound, params.ShieldsURL(outcome.Count))
}

// clientSignal extracts the raw identity input for the active provider:
// the client address in ip mode, the visitor cookie (possibly empty) in
// cookie mode.
func (s *Server) clientSignal(c *gin.Context) string {
	if s.cfg.Identity.Mode == config.ModeCookie {
		value, err := c.Cookie(visitorCookieName)
		if err != nil {
			return ""
		}
		return value
	}
	return c.ClientIP()
}
