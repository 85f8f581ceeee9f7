// Package report implements the collection node that receives bundled
// diagnostic reports from field instruments, and the client used by the
// daemon to send them.
package report

import (
	"archive/zip"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/et-diagnostics/vibrascope/internal/monitoring"
)

const (
	// AuthHeader carries the shared API token.
	AuthHeader = "X-ET-AUTH-TOKEN"
	// MaxUploadBytes bounds a single report upload.
	MaxUploadBytes = 16 << 20

	defaultAPIKey = "CHANGE_ME_IN_PROD"
)

var allowedExtensions = map[string]bool{
	".zip": true,
	".csv": true,
}

type Server struct {
	uploadDir string
	apiKey    string
	now       func() time.Time
}

// NewServer stores uploads under uploadDir. An empty apiKey falls back
// to the ET_API_KEY environment variable, then a placeholder that
// rejects everything but the placeholder itself.
func NewServer(uploadDir, apiKey string) (*Server, error) {
	if apiKey == "" {
		apiKey = os.Getenv("ET_API_KEY")
	}
	if apiKey == "" {
		apiKey = defaultAPIKey
		monitoring.Logf("report: no API key configured, uploads use the placeholder token")
	}
	if err := os.MkdirAll(uploadDir, 0o755); err != nil {
		return nil, err
	}
	return &Server{uploadDir: uploadDir, apiKey: apiKey, now: time.Now}, nil
}

func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/status", s.statusHandler)
	mux.HandleFunc("/api/v1/upload", s.uploadHandler)
	return mux
}

func writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

func (s *Server) statusHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "online",
		"server": "ET-Diagnostic-Node-v9",
	})
}

func (s *Server) uploadHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if r.Header.Get(AuthHeader) != s.apiKey {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadBytes)
	if err := r.ParseMultipartForm(MaxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "No file part")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "No file part")
		return
	}
	defer file.Close()

	if header.Filename == "" {
		writeError(w, http.StatusBadRequest, "No selected file")
		return
	}
	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !allowedExtensions[ext] {
		writeError(w, http.StatusBadRequest, "Invalid file type")
		return
	}

	now := s.now()
	dailyFolder := filepath.Join(s.uploadDir, now.Format("2006-01-02"))
	if err := os.MkdirAll(dailyFolder, 0o755); err != nil {
		writeError(w, http.StatusInternalServerError, "Storage failure")
		return
	}

	// The client controls the filename, keep only a sanitized base.
	stamp := now.Format("150405")
	savePath := filepath.Join(dailyFolder, fmt.Sprintf("%s_%s", stamp, sanitizeFilename(header.Filename)))

	out, err := os.Create(savePath)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Storage failure")
		return
	}
	if _, err := io.Copy(out, file); err != nil {
		out.Close()
		os.Remove(savePath)
		writeError(w, http.StatusBadRequest, "Upload truncated")
		return
	}
	if err := out.Close(); err != nil {
		os.Remove(savePath)
		writeError(w, http.StatusInternalServerError, "Storage failure")
		return
	}

	if ext == ".zip" {
		if err := verifyZip(savePath); err != nil {
			os.Remove(savePath)
			writeError(w, http.StatusBadRequest, "Invalid ZIP")
			return
		}
	}

	if desc := r.FormValue("description"); desc != "" {
		descPath := filepath.Join(dailyFolder, fmt.Sprintf("%s_desc.txt", stamp))
		if err := os.WriteFile(descPath, []byte(desc), 0o644); err != nil {
			monitoring.Logf("report: writing description sidecar failed: %v", err)
		}
	}

	monitoring.Logf("report: received %s", savePath)
	writeJSON(w, http.StatusCreated, map[string]string{"message": "Secure upload successful"})
}

// sanitizeFilename strips path components and replaces anything outside
// a conservative character set. An empty result gets a generated name.
func sanitizeFilename(name string) string {
	name = filepath.Base(filepath.Clean(strings.ReplaceAll(name, "\\", "/")))
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	out := strings.Trim(b.String(), ".")
	if out == "" || out == "_" {
		out = uuid.NewString() + ".bin"
	}
	return out
}

func verifyZip(path string) error {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return err
	}
	defer zr.Close()
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			return err
		}
		// Reading the member end to end checks its CRC.
		_, err = io.Copy(io.Discard, rc)
		rc.Close()
		if err != nil {
			return err
		}
	}
	return nil
}
