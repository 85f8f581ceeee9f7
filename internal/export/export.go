// Package export writes session logs as CSV and bundles them into zip
// reports ready for upload to the collection server.
package export

import (
	"archive/zip"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/et-diagnostics/vibrascope/internal/engine"
)

var csvHeader = []string{
	"timestamp_ns",
	"real_hz",
	"tilt_deg",
	"pitch_deg",
	"roll_deg",
	"vibration_rms",
	"velocity_rms",
	"zone",
	"severity",
	"shimmer",
	"dba",
	"lux",
	"light_source",
	"dominant_freq_hz",
	"spectral_entropy",
	"fault_status",
	"ttf_hours",
	"state",
}

// SessionWriter streams diagnostic results to a CSV file, one row per
// processed frame.
type SessionWriter struct {
	f    *os.File
	w    *csv.Writer
	rows int
}

// NewSessionWriter creates the CSV file and writes the header row.
func NewSessionWriter(path string) (*SessionWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		f.Close()
		return nil, err
	}
	return &SessionWriter{f: f, w: w}, nil
}

// Append writes one result row.
func (s *SessionWriter) Append(timestampNanos int64, res engine.Result) error {
	row := []string{
		strconv.FormatInt(timestampNanos, 10),
		fmtFloat(res.RealHz),
		fmtFloat(res.TiltDegrees),
		fmtFloat(res.Pitch),
		fmtFloat(res.Roll),
		fmtFloat(res.VibrationRMS),
		fmtFloat(res.VelocityRMS),
		string(res.Zone),
		strconv.Itoa(res.Severity),
		fmtFloat(res.Shimmer),
		fmtFloat(res.DBA),
		fmtFloat(res.Lux),
		res.LightSource,
		fmtFloat(res.DominantFreq),
		fmtFloat(res.SpectralEntropy),
		res.Fault.Status,
		fmtFloat(res.Fault.TTFHours),
		res.State.String(),
	}
	if err := s.w.Write(row); err != nil {
		return err
	}
	s.rows++
	return nil
}

// Rows returns the number of data rows written so far.
func (s *SessionWriter) Rows() int { return s.rows }

// Close flushes and closes the file.
func (s *SessionWriter) Close() error {
	s.w.Flush()
	if err := s.w.Error(); err != nil {
		s.f.Close()
		return err
	}
	return s.f.Close()
}

func fmtFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}

// BundleReport zips the given session files into dir under a timestamped
// report name and returns the archive path. Files keep their base names
// inside the archive.
func BundleReport(dir string, at time.Time, files ...string) (string, error) {
	if len(files) == 0 {
		return "", fmt.Errorf("export: nothing to bundle")
	}
	name := fmt.Sprintf("report_%s.zip", at.Format("20060102_150405"))
	path := filepath.Join(dir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	zw := zip.NewWriter(f)

	for _, src := range files {
		if err := addFile(zw, src); err != nil {
			zw.Close()
			f.Close()
			os.Remove(path)
			return "", fmt.Errorf("export: bundle %s: %w", src, err)
		}
	}

	if err := zw.Close(); err != nil {
		f.Close()
		os.Remove(path)
		return "", err
	}
	return path, f.Close()
}

func addFile(zw *zip.Writer, src string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	w, err := zw.Create(filepath.Base(src))
	if err != nil {
		return err
	}
	_, err = io.Copy(w, in)
	return err
}
