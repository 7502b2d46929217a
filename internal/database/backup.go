package database

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"agenda/internal/config"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
)

const (
	snapshotLayout = "20060102_150405"
	snapshotExt    = ".jsonl"
)

// snapshotSource writes every document of a collection to w, one per line.
type snapshotSource interface {
	Collections() []string
	DumpCollection(ctx context.Context, name string, w io.Writer) (int, error)
}

// Collections lists what a snapshot contains.
func (d *DB) Collections() []string {
	return []string{collectionProfessionals, collectionReservations}
}

// DumpCollection writes relaxed extended JSON lines.
func (d *DB) DumpCollection(ctx context.Context, name string, w io.Writer) (int, error) {
	cur, err := d.db.Collection(name).Find(ctx, bson.D{})
	if err != nil {
		return 0, err
	}
	defer cur.Close(ctx)

	n := 0
	for cur.Next(ctx) {
		line, err := bson.MarshalExtJSON(cur.Current, false, false)
		if err != nil {
			return n, err
		}
		if _, err := w.Write(append(line, '\n')); err != nil {
			return n, err
		}
		n++
	}
	return n, cur.Err()
}

// BackupService writes periodic snapshots of the collections into StoragePath.
type BackupService struct {
	source snapshotSource
	config config.BackupConfig
	logger zerolog.Logger
	now    func() time.Time
}

func NewBackupService(source snapshotSource, cfg config.BackupConfig, logger *zerolog.Logger) *BackupService {
	return &BackupService{
		source: source,
		config: cfg,
		logger: logger.With().Str("component", "backup").Logger(),
		now:    time.Now,
	}
}

// Start snapshots once immediately and then every IntervalHours until ctx ends.
func (s *BackupService) Start(ctx context.Context) {
	if !s.config.Enabled || s.config.IntervalHours <= 0 {
		s.logger.Info().Msg("snapshots disabled")
		return
	}

	interval := time.Duration(s.config.IntervalHours) * time.Hour
	s.logger.Info().Dur("interval", interval).Str("path", s.config.StoragePath).Msg("snapshot loop started")

	s.runOnce(ctx)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *BackupService) runOnce(ctx context.Context) {
	if _, err := s.PerformBackup(ctx); err != nil {
		s.logger.Error().Err(err).Msg("snapshot failed")
		return
	}
	if removed := s.CleanupOldBackups(); removed > 0 {
		s.logger.Info().Int("removed", removed).Msg("old snapshots pruned")
	}
}

// PerformBackup writes one <collection>_<timestamp>.jsonl file per collection
// and returns the paths written.
func (s *BackupService) PerformBackup(ctx context.Context) ([]string, error) {
	if err := os.MkdirAll(s.config.StoragePath, 0o755); err != nil {
		return nil, fmt.Errorf("create snapshot dir: %w", err)
	}

	stamp := s.now().Format(snapshotLayout)
	var written []string
	for _, name := range s.source.Collections() {
		path := filepath.Join(s.config.StoragePath, name+"_"+stamp+snapshotExt)
		count, err := s.dumpTo(ctx, name, path)
		if err != nil {
			return written, fmt.Errorf("snapshot %s: %w", name, err)
		}
		s.logger.Info().Str("path", path).Int("documents", count).Msg("collection written")
		written = append(written, path)
	}
	return written, nil
}

func (s *BackupService) dumpTo(ctx context.Context, name, path string) (int, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	count, err := s.source.DumpCollection(ctx, name, w)
	if err != nil {
		return count, err
	}
	return count, w.Flush()
}

// CleanupOldBackups removes snapshot files older than RetentionDays and
// returns how many were removed. Other files in the directory are left alone.
func (s *BackupService) CleanupOldBackups() int {
	if s.config.RetentionDays <= 0 {
		return 0
	}

	entries, err := os.ReadDir(s.config.StoragePath)
	if err != nil {
		s.logger.Error().Err(err).Msg("read snapshot dir")
		return 0
	}

	cutoff := s.now().AddDate(0, 0, -s.config.RetentionDays)
	removed := 0
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != snapshotExt {
			continue
		}
		info, err := e.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(s.config.StoragePath, e.Name())); err != nil {
			s.logger.Warn().Err(err).Str("file", e.Name()).Msg("remove snapshot")
			continue
		}
		removed++
	}
	return removed
}
