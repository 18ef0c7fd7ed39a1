package catalog

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"nrw/internal/fileutil"
	"nrw/internal/logging"
	"nrw/internal/scores"
	"nrw/internal/services"
)

// ApplyResult lists movie IDs whose rt_* fields changed, resolved outcomes
// that were refused because the record already had a score, and outcomes
// that matched no single record.
type ApplyResult struct {
	Changed   []string
	Skipped   []string
	Unmatched []string
}

// Apply merges resolved outcomes into doc. A record that already carries
// rt_score is left untouched unless force is set. Unresolved and skipped
// outcomes are ignored.
func Apply(doc *Document, outcomes []scores.Outcome, force bool) (ApplyResult, error) {
	var res ApplyResult
	if doc == nil {
		return res, errors.New("nil catalog document")
	}
	byID := make(map[string][]*Movie, doc.Len())
	for _, m := range doc.movies {
		if id := m.ID(); id != "" {
			byID[id] = append(byID[id], m)
		}
	}

	for _, outcome := range outcomes {
		if outcome.Status != scores.StatusResolved || !outcome.Result.HasCritic() {
			continue
		}
		m := doc.target(outcome, byID)
		if m == nil {
			res.Unmatched = append(res.Unmatched, outcome.MovieID)
			continue
		}
		if m.HasScore() && !force {
			res.Skipped = append(res.Skipped, outcome.MovieID)
			continue
		}
		changed, err := applyResult(m, outcome.Result)
		if err != nil {
			return res, fmt.Errorf("merge %s: %w", outcome.MovieID, err)
		}
		if changed {
			res.Changed = append(res.Changed, outcome.MovieID)
		}
	}
	return res, nil
}

// target finds the one record an outcome belongs to: the record at
// outcome.Index when its id and title agree, otherwise the only record
// carrying outcome.MovieID. Blank or duplicated ids never fan out.
func (d *Document) target(o scores.Outcome, byID map[string][]*Movie) *Movie {
	if o.Index >= 0 && o.Index < len(d.movies) {
		m := d.movies[o.Index]
		if m.ID() == o.MovieID && (o.Title == "" || m.Title() == o.Title) {
			return m
		}
	}
	if o.MovieID == "" {
		return nil
	}
	if matches := byID[o.MovieID]; len(matches) == 1 {
		return matches[0]
	}
	return nil
}

func applyResult(m *Movie, r scores.Result) (bool, error) {
	var url any
	if strings.TrimSpace(r.URL) != "" {
		url = r.URL
	}
	updates := []struct {
		name  string
		value any
		skip  bool
	}{
		{FieldScore, *r.CriticScore, false},
		{FieldAudienceScore, r.AudienceScore, r.AudienceScore == nil},
		{FieldSource, r.Source, false},
		{FieldURL, url, false},
		{FieldMethod, r.Method, false},
	}
	changed := false
	for _, u := range updates {
		if u.skip {
			continue
		}
		if ptr, ok := u.value.(*int); ok {
			u.value = *ptr
		}
		c, err := m.setValue(u.name, u.value)
		if err != nil {
			return changed, err
		}
		changed = changed || c
	}
	return changed, nil
}

// Writer persists a catalog with backup then temp file plus rename.
type Writer struct {
	Path       string
	BackupPath string
	Files      fileutil.AtomicWriter
	Logger     *slog.Logger
}

// NewWriter returns a writer for path with the conventional backup sibling.
func NewWriter(path string, logger *slog.Logger) *Writer {
	return &Writer{
		Path:       path,
		BackupPath: BackupPath(path),
		Logger:     logging.NewComponentLogger(logger, "catalog"),
	}
}

// BackupPath returns <dir>/<base>.backup.rt<ext> for a catalog path, for
// example output/data.backup.rt.json.
func BackupPath(path string) string {
	dir, file := filepath.Split(path)
	ext := filepath.Ext(file)
	base := strings.TrimSuffix(file, ext)
	return filepath.Join(dir, base+".backup.rt"+ext)
}

// Persist snapshots the current canonical file into the backup path and then
// atomically replaces the canonical file with doc. Any failure is a
// persistence error and leaves the canonical file as it was.
func (w *Writer) Persist(doc *Document) error {
	data, err := doc.Marshal()
	if err != nil {
		return services.Wrap(services.ErrPersistence, "catalog", "marshal", w.Path, err)
	}

	perm := os.FileMode(0o644)
	info, err := os.Stat(w.Path)
	switch {
	case err == nil:
		perm = info.Mode().Perm()
		if _, err := w.Files.CopyFile(w.Path, w.BackupPath); err != nil {
			return services.Wrap(services.ErrPersistence, "catalog", "backup", w.BackupPath, err)
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return services.Wrap(services.ErrPersistence, "catalog", "stat", w.Path, err)
	}

	if err := w.Files.WriteFile(w.Path, data, perm); err != nil {
		return services.Wrap(services.ErrPersistence, "catalog", "write", w.Path, err)
	}
	if w.Logger != nil {
		w.Logger.Info("catalog written",
			logging.String(logging.FieldEventType, "catalog_written"),
			logging.String("path", w.Path),
			logging.String("backup", w.BackupPath),
			logging.Int("bytes", len(data)))
	}
	return nil
}

// Commit applies outcomes and persists the document only when at least one
// record changed.
func (w *Writer) Commit(doc *Document, outcomes []scores.Outcome, force bool) (ApplyResult, error) {
	res, err := Apply(doc, outcomes, force)
	if err != nil {
		return res, services.Wrap(services.ErrPersistence, "catalog", "apply", w.Path, err)
	}
	if len(res.Changed) == 0 {
		if w.Logger != nil {
			w.Logger.Info("catalog unchanged; write skipped",
				logging.String(logging.FieldEventType, "catalog_unchanged"),
				logging.Int("refused", len(res.Skipped)),
				logging.Int("unmatched", len(res.Unmatched)))
		}
		return res, nil
	}
	if err := w.Persist(doc); err != nil {
		return res, err
	}
	return res, nil
}
