// Package dataset provides read access to the conference's flat-file stores.
//
// The sessions/speakers CSV export is the authoritative source for speaker and
// talk data. The mirrored JSON stores (speakers.json, schedule.json) are a
// secondary source and the target of the website refresh path.
//
// Concurrency model: records are read-many by the lookup tools and
// write-once by the refresh path. Refresh writes go to a temporary file which
// is renamed into place, so readers never observe a partial store; a flock
// lockfile serializes refreshes across processes.
package dataset

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gofrs/flock"

	"github.com/apiconf/ndu/internal/log"
)

var (
	// ErrUnavailable indicates a dataset file is missing or unparsable.
	ErrUnavailable = errors.New("dataset unavailable")

	// ErrNotFound indicates no record matched the requested key.
	ErrNotFound = errors.New("record not found")
)

// Record is one row of the flattened sessions/speakers CSV export. A talk
// with several speakers appears as several rows sharing a title.
type Record struct {
	Title             string
	Description       string
	Owner             string
	OwnerEmail        string
	SessionFormat     string
	Room              string
	ScheduledAt       string
	ScheduledDuration string
	SpeakerID         string
	FirstName         string
	LastName          string
	Email             string
	TagLine           string
	Bio               string
	Twitter           string
	LinkedIn          string
	CompanyWebsite    string
	ProfilePicture    string
}

// SpeakerName returns the speaker's full name with surrounding space trimmed.
func (r Record) SpeakerName() string {
	return strings.TrimSpace(r.FirstName + " " + r.LastName)
}

// Organizer is one row of the conference team CSV.
type Organizer struct {
	Name string
	Role string
}

// ScheduleSession is one talk in the JSON schedule store.
type ScheduleSession struct {
	ID           string   `json:"id,omitempty"`
	Title        string   `json:"title"`
	Description  string   `json:"description,omitempty"`
	Time         string   `json:"time,omitempty"`
	Room         string   `json:"room,omitempty"`
	Type         string   `json:"type,omitempty"`
	Level        string   `json:"level,omitempty"`
	Topics       []string `json:"topics,omitempty"`
	Speakers     []string `json:"speakers,omitempty"`
	SpeakerNames []string `json:"speaker_names,omitempty"`
	Source       string   `json:"source,omitempty"`
}

// ScheduleDay groups the sessions of one conference day.
type ScheduleDay struct {
	Day      string            `json:"day"`
	Date     string            `json:"date,omitempty"`
	Sessions []ScheduleSession `json:"sessions"`
}

// SpeakerEntry is one speaker in the JSON speaker store.
type SpeakerEntry struct {
	ID     string   `json:"id,omitempty"`
	Name   string   `json:"name"`
	Title  string   `json:"title,omitempty"`
	Bio    string   `json:"bio,omitempty"`
	Topics []string `json:"topics,omitempty"`
	Source string   `json:"source,omitempty"`
}

type speakersFile struct {
	Speakers []SpeakerEntry `json:"speakers"`
}

type scheduleFile struct {
	Days []ScheduleDay `json:"days"`
}

// Config holds the file locations for a Store.
type Config struct {
	SessionsCSV   string
	OrganizersCSV string
	SpeakersJSON  string
	ScheduleJSON  string
	Logger        log.Logger
}

// Store provides cached read access to the dataset files and the atomic
// write path used by refresh. Safe for concurrent use.
type Store struct {
	sessionsCSV   string
	organizersCSV string
	speakersJSON  string
	scheduleJSON  string
	logger        log.Logger

	mu      sync.RWMutex
	records []Record
	loaded  bool

	refreshLock *flock.Flock
}

// New creates a Store. Files are loaded lazily on first read so a missing
// optional file only fails the tools that need it.
func New(cfg Config) *Store {
	logger := cfg.Logger
	if logger == nil {
		logger = log.NewNop()
	}
	return &Store{
		sessionsCSV:   cfg.SessionsCSV,
		organizersCSV: cfg.OrganizersCSV,
		speakersJSON:  cfg.SpeakersJSON,
		scheduleJSON:  cfg.ScheduleJSON,
		logger:        logger,
		refreshLock:   flock.New(cfg.SpeakersJSON + ".lock"),
	}
}

// Records returns a snapshot of all CSV rows, loading the file on first call.
func (s *Store) Records() ([]Record, error) {
	s.mu.RLock()
	if s.loaded {
		defer s.mu.RUnlock()
		return s.records, nil
	}
	s.mu.RUnlock()

	return s.reload()
}

// Reload discards the cached CSV rows and re-reads the file.
func (s *Store) Reload() error {
	_, err := s.reload()
	return err
}

func (s *Store) reload() ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := readSessionsCSV(s.sessionsCSV)
	if err != nil {
		return nil, err
	}

	s.records = records
	s.loaded = true
	s.logger.Info("loaded session records", "count", len(records), "path", s.sessionsCSV)
	return records, nil
}

// FindByTitle returns the first record whose title matches exactly, ignoring
// case and surrounding whitespace. Returns ErrNotFound when nothing matches.
func (s *Store) FindByTitle(title string) (Record, error) {
	records, err := s.Records()
	if err != nil {
		return Record{}, err
	}

	want := strings.ToLower(strings.TrimSpace(title))
	for _, r := range records {
		if strings.ToLower(strings.TrimSpace(r.Title)) == want {
			return r, nil
		}
	}
	return Record{}, fmt.Errorf("%w: session %q", ErrNotFound, title)
}

// Organizers reads the conference team CSV. Rows missing a name or role are
// skipped, matching the export's trailing blank lines.
func (s *Store) Organizers() ([]Organizer, error) {
	f, err := os.Open(s.organizersCSV)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: reading organizer header: %v", ErrUnavailable, err)
	}
	cols := columnIndex(header)

	var organizers []Organizer
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: reading organizer row: %v", ErrUnavailable, err)
		}
		o := Organizer{
			Name: field(row, cols, "Name"),
			Role: field(row, cols, "Role & Where you work"),
		}
		if o.Name == "" || o.Role == "" {
			continue
		}
		organizers = append(organizers, o)
	}
	return organizers, nil
}

// ScheduleDays reads the JSON schedule store. A missing file yields an empty
// schedule, not an error, since the JSON mirror is a secondary source.
func (s *Store) ScheduleDays() ([]ScheduleDay, error) {
	var file scheduleFile
	if err := readJSON(s.scheduleJSON, &file); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.logger.Warn("schedule store missing, using empty schedule", "path", s.scheduleJSON)
			return nil, nil
		}
		return nil, err
	}
	return file.Days, nil
}

// SpeakerEntries reads the JSON speaker store, the secondary speaker source.
func (s *Store) SpeakerEntries() ([]SpeakerEntry, error) {
	var file speakersFile
	if err := readJSON(s.speakersJSON, &file); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	return file.Speakers, nil
}

// SaveSpeakers atomically replaces the JSON speaker store. The write is
// committed by rename, so concurrent readers see either the old or the new
// store, never a partial one.
func (s *Store) SaveSpeakers(speakers []SpeakerEntry) error {
	if err := s.refreshLock.Lock(); err != nil {
		return fmt.Errorf("locking refresh: %w", err)
	}
	defer func() {
		if err := s.refreshLock.Unlock(); err != nil {
			s.logger.Warn("releasing refresh lock", "error", err)
		}
	}()

	if err := writeJSONAtomic(s.speakersJSON, speakersFile{Speakers: speakers}); err != nil {
		return err
	}
	s.logger.Info("speaker store replaced", "count", len(speakers), "path", s.speakersJSON)
	return nil
}

// SaveSchedule atomically replaces the JSON schedule store. Independent of
// SaveSpeakers: a partial refresh may update one store and leave the other.
func (s *Store) SaveSchedule(days []ScheduleDay) error {
	if err := s.refreshLock.Lock(); err != nil {
		return fmt.Errorf("locking refresh: %w", err)
	}
	defer func() {
		if err := s.refreshLock.Unlock(); err != nil {
			s.logger.Warn("releasing refresh lock", "error", err)
		}
	}()

	if err := writeJSONAtomic(s.scheduleJSON, scheduleFile{Days: days}); err != nil {
		return err
	}
	total := 0
	for _, d := range days {
		total += len(d.Sessions)
	}
	s.logger.Info("schedule store replaced", "days", len(days), "sessions", total, "path", s.scheduleJSON)
	return nil
}

func readSessionsCSV(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: reading CSV header: %v", ErrUnavailable, err)
	}
	cols := columnIndex(header)

	var records []Record
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: reading CSV row: %v", ErrUnavailable, err)
		}

		records = append(records, Record{
			Title:             field(row, cols, "Title"),
			Description:       field(row, cols, "Description"),
			Owner:             field(row, cols, "Owner"),
			OwnerEmail:        field(row, cols, "Owner Email"),
			SessionFormat:     field(row, cols, "Session format"),
			Room:              field(row, cols, "Room"),
			ScheduledAt:       field(row, cols, "Scheduled At"),
			ScheduledDuration: field(row, cols, "Scheduled Duration"),
			SpeakerID:         field(row, cols, "Speaker Id"),
			FirstName:         field(row, cols, "FirstName"),
			LastName:          field(row, cols, "LastName"),
			Email:             field(row, cols, "Email"),
			TagLine:           field(row, cols, "TagLine"),
			Bio:               field(row, cols, "Bio"),
			Twitter:           field(row, cols, "X (Twitter)"),
			LinkedIn:          field(row, cols, "LinkedIn"),
			CompanyWebsite:    field(row, cols, "Company Website"),
			ProfilePicture:    field(row, cols, "Profile Picture"),
		})
	}
	return records, nil
}

// columnIndex maps trimmed header names to their positions.
func columnIndex(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(name)] = i
	}
	return cols
}

func field(row []string, cols map[string]int, name string) string {
	i, ok := cols[name]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func readJSON(path string, dst any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", os.ErrNotExist, path)
		}
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("%w: parsing %s: %v", ErrUnavailable, path, err)
	}
	return nil
}

// writeJSONAtomic writes to a temporary file in the target directory and
// renames it into place. Rename is the commit point.
func writeJSONAtomic(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing %s: %w", path, err)
	}
	return nil
}
