package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/ernestobalbinse/HurriAid/internal/domain"
	"github.com/ernestobalbinse/HurriAid/internal/pipeline"
	"github.com/ernestobalbinse/HurriAid/internal/rumor"
	"github.com/gin-gonic/gin"
)

type assessRequest struct {
	ZIP     string `json:"zip"`
	Offline bool   `json:"offline"`
}

type rumorRequest struct {
	Text    string   `json:"text"`
	Claims  []string `json:"claims"`
	Offline bool     `json:"offline"`
}

type advisoryResponse struct {
	Advisory  domain.Advisory  `json:"advisory"`
	Freshness domain.Freshness `json:"freshness"`
	Area      [][2]float64     `json:"area"`
}

// handleAssess always answers 200 once the request parses; stage failures
// are reported in the assessment's errors map.
func (s *Server) handleAssess(c *gin.Context) {
	var req assessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	a := s.assessor.Assess(c.Request.Context(), pipeline.AssessRequest{ZIP: req.ZIP, Offline: req.Offline})
	c.JSON(http.StatusOK, a)
}

func (s *Server) handleAdvisory(c *gin.Context) {
	offline, ok := parseBoolQuery(c, "offline")
	if !ok {
		return
	}

	adv, err := s.assessor.LoadAdvisory(c.Request.Context(), offline)
	if err != nil {
		s.logger.Warn("advisory load failed", "offline", offline, "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, advisoryResponse{
		Advisory:  adv,
		Freshness: adv.Freshness(),
		Area:      adv.Area(),
	})
}

func (s *Server) handleRumorCheck(c *gin.Context) {
	var req rumorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	report, err := s.rumors.Check(c.Request.Context(), rumor.Request(req))
	if err != nil {
		status := rumorErrorStatus(err)
		if status != http.StatusServiceUnavailable {
			s.logger.Warn("rumor check failed", "error", err)
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, report)
}

func rumorErrorStatus(err error) int {
	switch {
	case errors.Is(err, domain.ErrOracleNotConfigured):
		return http.StatusServiceUnavailable
	case errors.Is(err, domain.ErrOracleTimeout):
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}

func parseBoolQuery(c *gin.Context, key string) (bool, bool) {
	raw := c.Query(key)
	if raw == "" {
		return false, true
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + key + " parameter"})
		return false, false
	}
	return v, true
}
