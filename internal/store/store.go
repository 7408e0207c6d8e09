// Package store persists scan history as one JSON document per scan under a
// project-scoped directory. History is append-only: records are never
// overwritten, and the single permitted in-place mutation is suppressing a
// finding inside the newest record.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/specguard/sentinel/internal/finding"
	"github.com/specguard/sentinel/pkg/shared/files"
)

var (
	// ErrNoScans is returned when the store holds no readable scan records.
	ErrNoScans = errors.New("no scans recorded")
	// ErrScanNotFound is returned when no record matches the requested scan id.
	ErrScanNotFound = errors.New("scan not found")
)

const recordPrefix = "scan_"

// Store owns the durable scan history of one project. Writes (save and
// suppress) are serialized by a mutex so concurrent scans against the same
// project cannot interleave the suppress read-modify-write.
type Store struct {
	dir    string
	logger hclog.Logger

	mu sync.Mutex
}

// New opens (creating if needed) the scan history directory for a project.
func New(dir string, logger hclog.Logger) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("store directory must not be empty")
	}
	if err := files.CreateFolderIfNotExists(dir); err != nil {
		return nil, fmt.Errorf("failed to prepare store directory: %w", err)
	}
	return &Store{dir: dir, logger: logger}, nil
}

// Dir returns the directory the store writes under.
func (s *Store) Dir() string {
	return s.dir
}

// recordName builds a filename whose lexicographic order matches scan time,
// newest-last, so reverse-sorting the directory yields newest-first.
func recordName(ts time.Time, scanID string) string {
	return fmt.Sprintf("%s%s_%s.json", recordPrefix, ts.UTC().Format("20060102T150405.000000000Z"), scanID)
}

// SaveScan serializes the full result to a new uniquely-named record and
// returns its path. Existing records are never overwritten.
func (s *Store) SaveScan(result *finding.ScanResult) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal scan %q: %w", result.ScanID, err)
	}

	path := filepath.Join(s.dir, recordName(result.Timestamp, result.ScanID))
	file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		return "", fmt.Errorf("failed to create scan record %q: %w", path, err)
	}
	defer file.Close()

	if _, err := file.Write(data); err != nil {
		return "", fmt.Errorf("failed to write scan record %q: %w", path, err)
	}

	s.logger.Debug("scan record written", "path", path, "scan_id", result.ScanID)
	return path, nil
}

// recordPaths lists scan record paths newest-first.
func (s *Store) recordPaths() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read store directory %q: %w", s.dir, err)
	}

	var paths []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, recordPrefix) || !strings.HasSuffix(name, ".json") {
			continue
		}
		paths = append(paths, filepath.Join(s.dir, name))
	}
	sort.Sort(sort.Reverse(sort.StringSlice(paths)))
	return paths, nil
}

func loadRecord(path string) (*finding.ScanResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scan record %q: %w", path, err)
	}
	var result finding.ScanResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to decode scan record %q: %w", path, err)
	}
	return &result, nil
}

// latestRecord returns the newest readable record and its path. Corrupt
// records are skipped with a warning so one bad file never hides history.
func (s *Store) latestRecord() (*finding.ScanResult, string, error) {
	paths, err := s.recordPaths()
	if err != nil {
		return nil, "", err
	}
	for _, path := range paths {
		result, err := loadRecord(path)
		if err != nil {
			s.logger.Warn("skipping unreadable scan record", "path", path, "error", err)
			continue
		}
		return result, path, nil
	}
	return nil, "", ErrNoScans
}

// LoadLatestFindings returns the filtered finding list of the most recent
// scan, or an empty list if no scan has been recorded yet.
func (s *Store) LoadLatestFindings() ([]finding.Finding, error) {
	result, _, err := s.latestRecord()
	if errors.Is(err, ErrNoScans) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return result.Findings, nil
}

// LoadLatestScan returns the most recent readable scan record, or ErrNoScans.
func (s *Store) LoadLatestScan() (*finding.ScanResult, error) {
	result, _, err := s.latestRecord()
	if err != nil {
		return nil, err
	}
	return result, nil
}

// LoadScan locates a historical scan by id, newest-first.
func (s *Store) LoadScan(scanID string) (*finding.ScanResult, error) {
	paths, err := s.recordPaths()
	if err != nil {
		return nil, err
	}
	suffix := fmt.Sprintf("_%s.json", scanID)
	for _, path := range paths {
		if !strings.HasSuffix(path, suffix) {
			continue
		}
		result, err := loadRecord(path)
		if err != nil {
			return nil, err
		}
		return result, nil
	}
	return nil, fmt.Errorf("scan %q: %w", scanID, ErrScanNotFound)
}

// listingRecord decodes only the metadata needed for a listing; finding
// bodies stay raw.
type listingRecord struct {
	ScanID    string            `json:"scan_id"`
	Timestamp time.Time         `json:"timestamp"`
	Trigger   finding.Trigger   `json:"trigger"`
	Findings  []json.RawMessage `json:"findings"`
}

// ListScans returns metadata for the limit most recent scans, newest first.
// A non-positive limit lists everything. Corrupt records are skipped.
func (s *Store) ListScans(limit int) ([]finding.ScanListing, error) {
	paths, err := s.recordPaths()
	if err != nil {
		return nil, err
	}

	var listings []finding.ScanListing
	for _, path := range paths {
		if limit > 0 && len(listings) >= limit {
			break
		}
		data, err := os.ReadFile(path)
		if err != nil {
			s.logger.Warn("skipping unreadable scan record", "path", path, "error", err)
			continue
		}
		var record listingRecord
		if err := json.Unmarshal(data, &record); err != nil {
			s.logger.Warn("skipping corrupt scan record", "path", path, "error", err)
			continue
		}
		listings = append(listings, finding.ScanListing{
			ScanID:       record.ScanID,
			Timestamp:    record.Timestamp,
			Trigger:      record.Trigger,
			FindingCount: len(record.Findings),
		})
	}
	return listings, nil
}

// SuppressFinding marks the finding with the given id, searched only within
// the latest scan's record, as a false positive with the given reason, and
// rewrites that record in place. The finding is updated in both the complete
// and the filtered list so the next scan's carry-forward and any reader of
// the visible list agree. Returns false if no such finding exists in the
// latest scan.
func (s *Store) SuppressFinding(findingID, reason string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, path, err := s.latestRecord()
	if errors.Is(err, ErrNoScans) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	found := false
	for i := range result.AllFindings {
		if result.AllFindings[i].ID == findingID {
			result.AllFindings[i].Status = finding.StatusFalsePositive
			result.AllFindings[i].SuppressionReason = reason
			found = true
			break
		}
	}
	if !found {
		return false, nil
	}
	for i := range result.Findings {
		if result.Findings[i].ID == findingID {
			result.Findings[i].Status = finding.StatusFalsePositive
			result.Findings[i].SuppressionReason = reason
			break
		}
	}

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return false, fmt.Errorf("failed to marshal scan %q: %w", result.ScanID, err)
	}
	if err := files.WriteJsonFile(path, data); err != nil {
		return false, fmt.Errorf("failed to rewrite scan record %q: %w", path, err)
	}

	s.logger.Info("finding suppressed", "finding_id", findingID, "scan_id", result.ScanID)
	return true, nil
}
