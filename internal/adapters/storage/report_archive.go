package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/emiliopalmerini/helix-console/internal/util"
)

// ReportArchive keeps exported batch reports as report_<batch>.xlsx files.
type ReportArchive struct {
	baseDir string
}

// NewReportArchive stores reports under <dataDir>/reports, where an empty
// dataDir means the XDG data directory.
func NewReportArchive(dataDir string) (*ReportArchive, error) {
	baseDir, err := util.DataDir(dataDir)
	if err != nil {
		return nil, err
	}

	reportsDir := filepath.Join(baseDir, "reports")
	if err := os.MkdirAll(reportsDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create reports directory: %w", err)
	}

	return &ReportArchive{baseDir: reportsDir}, nil
}

// Dir is the directory holding the archived files.
func (s *ReportArchive) Dir() string {
	return s.baseDir
}

// FileName is the download name of a batch report.
func FileName(batchID string) string {
	return "report_" + batchID + ".xlsx"
}

func (s *ReportArchive) Store(ctx context.Context, batchID string, data []byte) (string, error) {
	destPath, err := s.path(batchID)
	if err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp(s.baseDir, ".report-*")
	if err != nil {
		return "", fmt.Errorf("failed to create report file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("failed to write report: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to close report file: %w", err)
	}
	if err := os.Rename(tmp.Name(), destPath); err != nil {
		return "", fmt.Errorf("failed to move report into place: %w", err)
	}

	return destPath, nil
}

func (s *ReportArchive) Get(ctx context.Context, batchID string) ([]byte, error) {
	path, err := s.path(batchID)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read report: %w", err)
	}
	return data, nil
}

func (s *ReportArchive) Delete(ctx context.Context, batchID string) error {
	path, err := s.path(batchID)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete report: %w", err)
	}
	return nil
}

func (s *ReportArchive) Exists(ctx context.Context, batchID string) (bool, error) {
	path, err := s.path(batchID)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

// path rejects batch ids that would escape the archive directory.
func (s *ReportArchive) path(batchID string) (string, error) {
	if batchID == "" || strings.ContainsAny(batchID, `/\`) || batchID == "." || batchID == ".." {
		return "", fmt.Errorf("invalid batch id %q", batchID)
	}
	return filepath.Join(s.baseDir, FileName(batchID)), nil
}
