package utils

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/emersion/go-maildir"
)

//go:generate mockgen -destination=../mock/mockfilewriter.go -package=mock . FileManager

// FileManager is the filesystem seam used by the Maildir exporter and importer.
type FileManager interface {
	InitMaildir(path string) error
	MkdirAll(path string, perm fs.FileMode) error
	Exists(path string) (bool, error)
	Stat(name string) (fs.FileInfo, error)
	ReadDir(name string) ([]fs.DirEntry, error)
	ReadFile(name string) ([]byte, error)
	WriteFile(filename string, data []byte, perm fs.FileMode) error
	Rename(oldpath, newpath string) error
	Remove(name string) error
	Chtimes(name string, atime, mtime time.Time) error
}

type OSFileManager struct{}

// InitMaildir creates path with its new, cur and tmp subdirectories.
func (OSFileManager) InitMaildir(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return maildir.Dir(path).Init()
}

func (OSFileManager) MkdirAll(path string, perm fs.FileMode) error {
	return os.MkdirAll(path, perm)
}

func (OSFileManager) Exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}

func (OSFileManager) Stat(name string) (fs.FileInfo, error) {
	return os.Stat(name)
}

func (OSFileManager) ReadDir(name string) ([]fs.DirEntry, error) {
	return os.ReadDir(name)
}

func (OSFileManager) ReadFile(name string) ([]byte, error) {
	return os.ReadFile(name)
}

func (OSFileManager) WriteFile(filename string, data []byte, perm fs.FileMode) error {
	return os.WriteFile(filename, data, perm)
}

func (OSFileManager) Rename(oldpath, newpath string) error {
	return os.Rename(oldpath, newpath)
}

func (OSFileManager) Remove(name string) error {
	return os.Remove(name)
}

func (OSFileManager) Chtimes(name string, atime, mtime time.Time) error {
	return os.Chtimes(name, atime, mtime)
}
