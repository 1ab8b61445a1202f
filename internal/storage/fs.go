package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/starford/tavla/internal/apperr"
	"github.com/starford/tavla/internal/checksum"
	"github.com/starford/tavla/internal/models"
)

// maxTemplateSize caps the template file at 1 MiB; anything bigger is a
// misconfiguration, not a board template.
const maxTemplateSize = 1 << 20

const boardExt = ".json"

// FS implements Store backed by a flat directory of JSON files, one per
// board id plus the template record.
type FS struct {
	root string // absolute path to the data directory
}

var _ Store = (*FS)(nil)

// NewFS creates an FS store rooted at the given directory.
// The directory must already exist.
func NewFS(root string) (*FS, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("storage: root is not a directory: %s", abs)
	}
	return &FS{root: abs}, nil
}

// Root returns the absolute data directory path.
func (f *FS) Root() string { return f.root }

// boardPath maps an id to its durable file. Ids are validated upstream, but
// reject separators here too so a bad caller cannot escape the data dir.
func (f *FS) boardPath(id string) (string, error) {
	if id == "" || strings.ContainsAny(id, `/\`) || id != filepath.Base(id) {
		return "", fmt.Errorf("%w: %q", apperr.ErrInvalidID, id)
	}
	return filepath.Join(f.root, id+boardExt), nil
}

// Exists reports whether a durable record for id is present.
func (f *FS) Exists(id string) (bool, error) {
	path, err := f.boardPath(id)
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("storage: stat %s: %w", id, err)
	}
	return true, nil
}

// Read loads and decodes the board stored under id.
func (f *FS) Read(id string) (*models.Board, error) {
	path, err := f.boardPath(id)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("storage: read %s: %w", id, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("storage: read %s: %w", id, err)
	}
	board, err := models.DecodeBoard(data)
	if err != nil {
		return nil, fmt.Errorf("storage: read %s: %w", id, err)
	}
	return board, nil
}

// Write atomically replaces the record for id: tmp file → fsync → rename.
// A concurrent Read never observes a partial write.
func (f *FS) Write(id string, board *models.Board) error {
	path, err := f.boardPath(id)
	if err != nil {
		return err
	}
	data, err := models.EncodeBoard(board)
	if err != nil {
		return fmt.Errorf("storage: write %s: %w", id, err)
	}
	return f.writeFile(path, data)
}

func (f *FS) writeFile(path string, data []byte) error {
	tmp, err := os.CreateTemp(f.root, ".tavla-tmp-*")
	if err != nil {
		return fmt.Errorf("storage: create temp: %w", err)
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("storage: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("storage: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("storage: close temp: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("storage: rename: %w", err)
	}
	success = true
	return nil
}

// Delete removes the record for id. Deletion is terminal: no tombstone.
func (f *FS) Delete(id string) error {
	path, err := f.boardPath(id)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("storage: delete %s: %w", id, apperr.ErrNotFound)
		}
		return fmt.Errorf("storage: delete %s: %w", id, err)
	}
	return nil
}

// List enumerates every *.json record except the template, sorted by id.
// Each entry's name comes from the document content, not the key.
func (f *FS) List() ([]models.BoardSummary, error) {
	entries, err := os.ReadDir(f.root)
	if err != nil {
		return nil, fmt.Errorf("storage: list: %w", err)
	}
	out := make([]models.BoardSummary, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, boardExt) {
			continue
		}
		id := strings.TrimSuffix(name, boardExt)
		if id == models.TemplateID {
			continue
		}
		data, err := os.ReadFile(filepath.Join(f.root, name))
		if err != nil {
			return nil, fmt.Errorf("storage: list read %s: %w", id, err)
		}
		board, err := models.DecodeBoard(data)
		if err != nil {
			return nil, fmt.Errorf("storage: list decode %s: %w", id, err)
		}
		info, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("storage: list stat %s: %w", id, err)
		}
		out = append(out, models.BoardSummary{
			ID:        id,
			Name:      board.Name,
			Checksum:  checksum.Sum(data),
			UpdatedAt: info.ModTime(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// ReadTemplate loads and decodes the template record.
func (f *FS) ReadTemplate() (*models.Template, error) {
	path := filepath.Join(f.root, models.TemplateID+boardExt)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", apperr.ErrTemplateMissing, path, err)
	}
	tmpl, err := models.DecodeTemplate(data)
	if err != nil {
		return nil, fmt.Errorf("storage: template: %w", err)
	}
	return tmpl, nil
}

// CheckRead verifies boot-time read access: the data directory is a
// directory and the template record is a readable file within the size cap.
func (f *FS) CheckRead() error {
	info, err := os.Stat(f.root)
	if err != nil {
		return fmt.Errorf("storage: read check: data dir %s not accessible: %w", f.root, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("storage: read check: %s is not a directory", f.root)
	}
	tmplPath := filepath.Join(f.root, models.TemplateID+boardExt)
	tinfo, err := os.Stat(tmplPath)
	if err != nil {
		return fmt.Errorf("storage: read check: %w: %v", apperr.ErrTemplateMissing, err)
	}
	if tinfo.IsDir() {
		return fmt.Errorf("storage: read check: %s is not a file", tmplPath)
	}
	if tinfo.Size() > maxTemplateSize {
		return fmt.Errorf("storage: read check: template %s exceeds %d bytes", tmplPath, maxTemplateSize)
	}
	return nil
}

// CheckWrite verifies boot-time write access by writing and removing a
// probe file inside the data directory.
func (f *FS) CheckWrite() error {
	probe := filepath.Join(f.root, ".write_test.tmp")
	if err := os.WriteFile(probe, []byte("ok"), 0o644); err != nil {
		return fmt.Errorf("storage: write check: cannot write %s: %w", probe, err)
	}
	if err := os.Remove(probe); err != nil {
		return fmt.Errorf("storage: write check: wrote %s but could not delete it: %w", probe, err)
	}
	return nil
}
