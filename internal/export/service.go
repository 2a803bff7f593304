package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// Service writes export files below one output directory.
type Service struct {
	dir    string
	now    func() time.Time
	logger *slog.Logger
}

func NewService(dir string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if dir == "" {
		dir = "results"
	}
	return &Service{dir: dir, now: time.Now, logger: logger}
}

// Dir is the output directory.
func (s *Service) Dir() string { return s.dir }

// CSV writes t to name and returns the file path.
func (s *Service) CSV(name string, t Table, delim rune) (string, error) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, t, delim); err != nil {
		return "", err
	}
	path, err := s.write(name, buf.Bytes())
	if err != nil {
		return "", err
	}
	s.logger.Info("export.csv.ok", "path", path, "rows", len(t.Rows))
	return path, nil
}

// XLSX writes the tables as one workbook.
func (s *Service) XLSX(name string, tables ...Table) (string, error) {
	start := time.Now()
	b, err := WriteTables(tables...)
	if err != nil {
		return "", err
	}
	path, err := s.write(name, b)
	if err != nil {
		return "", err
	}
	s.logger.Info("export.xlsx.ok", "path", path, "sheets", len(tables), "elapsed_ms", time.Since(start).Milliseconds())
	return path, nil
}

// Bytes writes raw bytes, e.g. a filled template.
func (s *Service) Bytes(name string, b []byte) (string, error) {
	path, err := s.write(name, b)
	if err != nil {
		return "", err
	}
	s.logger.Info("export.file.ok", "path", path, "bytes", len(b))
	return path, nil
}

// JSON saves v as {dir}/{prefix}_{yyyymmdd_hhmmss}.json.
func (s *Service) JSON(prefix string, v any) (string, error) {
	path, err := SaveJSON(s.dir, prefix, v, s.now())
	if err != nil {
		return "", err
	}
	s.logger.Info("export.json.ok", "path", path)
	return path, nil
}

// Stamped returns {prefix}_{yyyymmdd_hhmmss}{ext}.
func (s *Service) Stamped(prefix, ext string) string {
	return prefix + "_" + s.now().Format("20060102_150405") + ext
}

func (s *Service) write(name string, b []byte) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	path := filepath.Join(s.dir, name)
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}

// SaveJSON writes v indented to {dir}/{prefix}_{yyyymmdd_hhmmss}.json.
func SaveJSON(dir, prefix string, v any, at time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode json: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("%s_%s.json", prefix, at.Format("20060102_150405")))
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}
