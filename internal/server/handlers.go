package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/valpere/leaftran/internal"
	"github.com/valpere/leaftran/internal/client"
	"github.com/valpere/leaftran/internal/docx"
	"github.com/valpere/leaftran/internal/store"
	"github.com/valpere/leaftran/internal/translation"
)

func (s *Server) healthz(c *gin.Context) {
	if p, ok := s.repo.(Pinger); ok {
		if err := p.Ping(c.Request.Context()); err != nil {
			c.Error(err)
			writeError(c, http.StatusServiceUnavailable, "storage unavailable")
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) listLeaflets(c *gin.Context) {
	leaflets, err := s.repo.ListLeaflets(c.Request.Context())
	s.metrics.leaflets.WithLabelValues("list", outcome(err)).Inc()
	if err != nil {
		c.Error(err)
		writeError(c, http.StatusInternalServerError, "Failed to load leaflets")
		return
	}
	c.JSON(http.StatusOK, gin.H{"leaflets": leaflets})
}

func (s *Server) saveLeaflet(c *gin.Context) {
	var l internal.Leaflet
	if err := c.ShouldBindJSON(&l); err != nil {
		writeError(c, http.StatusBadRequest, "Invalid leaflet: "+err.Error())
		return
	}
	l.ID = strings.TrimSpace(l.ID)
	if l.ID == "" {
		writeError(c, http.StatusBadRequest, "Leaflet id is required")
		return
	}
	if strings.TrimSpace(l.Name) == "" {
		l.Name = internal.DefaultLeafletName
	}
	if l.Date.IsZero() {
		l.Date = s.now().UTC().Truncate(time.Millisecond)
	}
	if len(l.Sections) == 0 {
		l.Sections = []internal.Section{{ID: 0}}
	}

	err := s.repo.SaveLeaflet(c.Request.Context(), l)
	s.metrics.leaflets.WithLabelValues("save", outcome(err)).Inc()
	if err != nil {
		c.Error(err)
		writeError(c, http.StatusInternalServerError, "Failed to save leaflet")
		return
	}
	c.JSON(http.StatusOK, l)
}

func (s *Server) deleteLeaflet(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		writeError(c, http.StatusBadRequest, "Leaflet id is required")
		return
	}

	err := s.repo.DeleteLeaflet(c.Request.Context(), id)
	s.metrics.leaflets.WithLabelValues("delete", outcome(err)).Inc()
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(c, http.StatusNotFound, "Leaflet not found")
	case err != nil:
		c.Error(err)
		writeError(c, http.StatusInternalServerError, "Failed to delete leaflet")
	default:
		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}

func (s *Server) translate(c *gin.Context) {
	var req client.TranslateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	start := time.Now()
	res, err := s.translator.Translate(c.Request.Context(), req.SourceLang, req.TargetLang, req.Text)
	switch {
	case errors.Is(err, translation.ErrEmptyText), errors.Is(err, translation.ErrInvalidLanguage):
		writeError(c, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		s.metrics.observeTranslation("failed", time.Since(start))
		c.Error(err)
		writeError(c, http.StatusInternalServerError, "Translation failed")
		return
	}

	if res.Cached {
		s.metrics.observeTranslation("cached", time.Since(start))
	} else {
		s.metrics.observeTranslation("translated", time.Since(start))
	}
	c.JSON(http.StatusOK, client.TranslateResponse{Translation: res.Text})
}

func (s *Server) document(c *gin.Context) {
	var req client.DocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	data, err := docx.Build(req.Content)
	s.metrics.documents.WithLabelValues(outcome(err)).Inc()
	if err != nil {
		c.Error(err)
		writeError(c, http.StatusInternalServerError, "Failed to generate document")
		return
	}
	c.Header("Content-Disposition", `attachment; filename="generated_document.docx"`)
	c.Data(http.StatusOK, docx.ContentType, data)
}
