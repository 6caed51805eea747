package audio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	googleTTSEndpoint = "https://translate.google.com/translate_tts"
	ttsRequestTimeout = 10 * time.Second
	ttsLanguage       = "ja"
)

var ErrInvalidFilename = errors.New("invalid audio filename")

// TTSService renders listening scripts to MP3 files using Google Translate's
// speech endpoint and serves them from a local directory
type TTSService struct {
	audioDir string
	endpoint string
	client   *http.Client
	logger   *zap.Logger
}

// NewTTSService creates a new TTS service
func NewTTSService(audioDir string, logger *zap.Logger) *TTSService {
	return &TTSService{
		audioDir: audioDir,
		endpoint: googleTTSEndpoint,
		client:   &http.Client{Timeout: ttsRequestTimeout},
		logger:   logger,
	}
}

// Path resolves a bare .mp3 filename inside the audio directory
func (s *TTSService) Path(filename string) (string, error) {
	if filename == "" || filename != filepath.Base(filename) || strings.HasPrefix(filename, ".") {
		return "", ErrInvalidFilename
	}
	if filepath.Ext(filename) != ".mp3" {
		return "", ErrInvalidFilename
	}
	return filepath.Join(s.audioDir, filename), nil
}

// Ensure returns the path of filename, synthesizing text into it first when
// the file does not exist yet
func (s *TTSService) Ensure(ctx context.Context, filename, text string) (string, error) {
	path, err := s.Path(filename)
	if err != nil {
		return "", err
	}

	if _, err := os.Stat(path); err == nil {
		return path, nil
	}
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("no script to synthesize for %s", filename)
	}

	if err := os.MkdirAll(s.audioDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create audio directory: %w", err)
	}
	if err := s.generate(ctx, text, path); err != nil {
		return "", fmt.Errorf("failed to generate audio: %w", err)
	}

	s.logger.Info("generated listening audio", zap.String("file", filename), zap.Int("chars", len([]rune(text))))
	return path, nil
}

// Warm pre-generates every missing file in scripts (filename to text) and
// returns how many were created. Failures are logged and skipped.
func (s *TTSService) Warm(ctx context.Context, scripts map[string]string) int {
	existing, err := s.ListFiles()
	if err != nil {
		s.logger.Warn("failed to list audio files", zap.Error(err))
	}
	onDisk := make(map[string]bool, len(existing))
	for _, name := range existing {
		onDisk[name] = true
	}

	created := 0
	for filename, text := range scripts {
		if _, err := s.Path(filename); err != nil {
			s.logger.Warn("skipping audio with invalid name", zap.String("file", filename))
			continue
		}
		if onDisk[filename] {
			continue
		}
		if _, err := s.Ensure(ctx, filename, text); err != nil {
			s.logger.Warn("failed to pre-generate audio", zap.String("file", filename), zap.Error(err))
			continue
		}
		created++
	}
	s.logger.Debug("audio cache warmed", zap.Int("onDisk", len(existing)), zap.Int("created", created))
	return created
}

func (s *TTSService) generate(ctx context.Context, text, outputPath string) error {
	params := url.Values{}
	params.Set("ie", "UTF-8")
	params.Set("q", text)
	params.Set("tl", ttsLanguage)
	params.Set("client", "tw-ob")
	params.Set("textlen", fmt.Sprintf("%d", len([]rune(text))))

	ctx, cancel := context.WithTimeout(ctx, ttsRequestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	// Google rejects requests without a browser user agent
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch audio: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	// Write to a temp file so a failed download never leaves a truncated mp3 behind
	tmp, err := os.CreateTemp(filepath.Dir(outputPath), ".tts-*")
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write audio file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write audio file: %w", err)
	}
	return os.Rename(tmp.Name(), outputPath)
}

// ListFiles returns the MP3 files currently on disk
func (s *TTSService) ListFiles() ([]string, error) {
	files, err := os.ReadDir(s.audioDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read audio directory: %w", err)
	}

	var audioFiles []string
	for _, file := range files {
		if !file.IsDir() && filepath.Ext(file.Name()) == ".mp3" {
			audioFiles = append(audioFiles, file.Name())
		}
	}
	return audioFiles, nil
}
