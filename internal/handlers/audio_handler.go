package handlers

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"nihongo/internal/audio"
	"nihongo/internal/content"
)

// AudioHandler serves listening-test audio, synthesizing missing files on demand
type AudioHandler struct {
	tts     *audio.TTSService
	catalog *content.Catalog
	logger  *zap.Logger
}

// NewAudioHandler creates a new audio handler
func NewAudioHandler(tts *audio.TTSService, catalog *content.Catalog, logger *zap.Logger) *AudioHandler {
	return &AudioHandler{tts: tts, catalog: catalog, logger: logger}
}

// Serve writes the requested .mp3 file
func (h *AudioHandler) Serve(w http.ResponseWriter, r *http.Request) {
	filename := r.PathValue("file")

	script := ""
	if question, ok := h.catalog.ListeningQuestion(filename); ok {
		script = question.Script
	}

	path, err := h.tts.Ensure(r.Context(), filename, script)
	if err != nil {
		if errors.Is(err, audio.ErrInvalidFilename) {
			respondWithError(w, http.StatusBadRequest, "Tên tệp không hợp lệ", "", err)
			return
		}
		if script == "" {
			respondWithError(w, http.StatusNotFound, ErrNotFound, "", err)
			return
		}
		respondWithError(w, http.StatusBadGateway, "Không thể tạo âm thanh", "Failed to synthesize audio", err)
		return
	}

	w.Header().Set("Content-Type", "audio/mpeg")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	http.ServeFile(w, r, path)
}
