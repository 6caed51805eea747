package handlers

import (
	"net/http"

	"nihongo/internal/content"
	"nihongo/internal/models"
)

// ContentHandler serves the bundled study content
type ContentHandler struct {
	catalog *content.Catalog
}

// NewContentHandler creates a new content handler
func NewContentHandler(catalog *content.Catalog) *ContentHandler {
	return &ContentHandler{catalog: catalog}
}

// Health reports that the service is up
func (h *ContentHandler) Health(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Levels lists the JLPT levels and whether each has content yet
func (h *ContentHandler) Levels(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, h.catalog.Levels())
}

// Modes lists the study modes available for a level
func (h *ContentHandler) Modes(w http.ResponseWriter, r *http.Request) {
	level, ok := parseLevel(w, r.PathValue("level"))
	if !ok {
		return
	}

	modes, err := h.catalog.Modes(level)
	if err != nil {
		respondWithServiceError(w, "Failed to list modes", err)
		return
	}
	respondWithJSON(w, http.StatusOK, modes)
}

// Content returns the raw content of one domain at one level
func (h *ContentHandler) Content(w http.ResponseWriter, r *http.Request) {
	level, ok := parseLevel(w, r.URL.Query().Get("level"))
	if !ok {
		return
	}

	var (
		body any
		err  error
	)
	switch domain := models.Domain(r.PathValue("domain")); domain {
	case models.DomainGrammar:
		body, err = h.catalog.GrammarLessons(level)
	case models.DomainListening:
		body, err = h.catalog.Listening(level)
	case models.DomainExam:
		body, err = h.catalog.SampleExam(level)
	default:
		body, err = h.catalog.Deck(domain, level)
	}
	if err != nil {
		respondWithServiceError(w, "Failed to load content", err)
		return
	}
	respondWithJSON(w, http.StatusOK, body)
}

// parseLevel defaults to N5 when the level is omitted
func parseLevel(w http.ResponseWriter, raw string) (models.Level, bool) {
	if raw == "" {
		return models.LevelN5, true
	}
	level, err := models.ParseLevel(raw)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Cấp độ không hợp lệ", "", err)
		return "", false
	}
	return level, true
}
