package host

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/jmylchreest/minimalistui/internal/model"
)

// LocalStore is an AssetStore on the local filesystem.
type LocalStore struct {
	root string
}

// NewLocalStore creates a store rooted at the host configuration directory.
func NewLocalStore(root string) *LocalStore {
	return &LocalStore{root: root}
}

// Root returns the configuration root.
func (s *LocalStore) Root() string { return s.root }

// Path joins elem and resolves it against the root unless it is absolute.
func (s *LocalStore) Path(elem ...string) string {
	p := filepath.Join(elem...)
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(s.root, p)
}

func (s *LocalStore) Exists(rel string) bool {
	_, err := os.Stat(s.Path(rel))
	return err == nil
}

func (s *LocalStore) MkdirAll(rel string) error {
	p := s.Path(rel)
	if err := os.MkdirAll(p, 0755); err != nil {
		return &model.FilesystemError{Op: "mkdir", Path: p, Err: err}
	}
	return nil
}

func (s *LocalStore) RemoveAll(rel string) error {
	p := s.Path(rel)
	if err := os.RemoveAll(p); err != nil {
		return &model.FilesystemError{Op: "remove", Path: p, Err: err}
	}
	return nil
}

// CopyFile copies srcPath from src to dstRel, creating parent directories
// and overwriting any existing file.
func (s *LocalStore) CopyFile(src fs.FS, srcPath, dstRel string) (CopyStats, error) {
	return s.copyFile(src, srcPath, s.Path(dstRel))
}

func (s *LocalStore) copyFile(src fs.FS, srcPath, dst string) (CopyStats, error) {
	data, err := fs.ReadFile(src, srcPath)
	if err != nil {
		return CopyStats{}, &model.FilesystemError{Op: "read", Path: srcPath, Err: err}
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return CopyStats{}, &model.FilesystemError{Op: "mkdir", Path: filepath.Dir(dst), Err: err}
	}
	if err := os.WriteFile(dst, data, 0644); err != nil {
		return CopyStats{}, &model.FilesystemError{Op: "copy", Path: dst, Err: err}
	}
	return CopyStats{Files: 1, Bytes: int64(len(data))}, nil
}

// CopyTree copies the directory srcDir of src into dstRel. Existing files are
// overwritten; files only present in the destination are kept.
func (s *LocalStore) CopyTree(src fs.FS, srcDir, dstRel string) (CopyStats, error) {
	var stats CopyStats
	dstRoot := s.Path(dstRel)

	err := fs.WalkDir(src, srcDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(filepath.FromSlash(srcDir), filepath.FromSlash(p))
		if err != nil {
			return err
		}
		dst := filepath.Join(dstRoot, rel)

		if d.IsDir() {
			if err := os.MkdirAll(dst, 0755); err != nil {
				return &model.FilesystemError{Op: "mkdir", Path: dst, Err: err}
			}
			return nil
		}

		st, err := s.copyFile(src, p, dst)
		if err != nil {
			return err
		}
		stats.Add(st)
		return nil
	})
	if err != nil {
		var fsErr *model.FilesystemError
		if !errors.As(err, &fsErr) {
			err = &model.FilesystemError{Op: "copy", Path: srcDir, Err: err}
		}
		return stats, err
	}
	return stats, nil
}

// FS returns the directory rel as a read-only filesystem.
func (s *LocalStore) FS(rel string) fs.FS {
	return os.DirFS(s.Path(rel))
}
