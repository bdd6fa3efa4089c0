package resolver

import (
	"os"
	"path/filepath"
)

// OSFileSystem implements FS against the real filesystem.
type OSFileSystem struct {
	home string
}

// NewOSFileSystem returns an OSFileSystem. home, if non-empty, is used for
// the global `~/.node_modules` / `~/.node_libraries` fallback paths;
// pass "" to disable the fallback.
func NewOSFileSystem(home string) *OSFileSystem {
	return &OSFileSystem{home: home}
}

func (fs *OSFileSystem) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

func (fs *OSFileSystem) IsFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func (fs *OSFileSystem) IsDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func (fs *OSFileSystem) Readlink(path string) (string, bool) {
	target, err := os.Readlink(path)
	if err != nil {
		return "", false
	}
	return target, true
}

func (fs *OSFileSystem) HomeNodeModulesDirs() []string {
	if fs.home == "" {
		return nil
	}
	var dirs []string
	for _, name := range []string{".node_modules", ".node_libraries"} {
		dir := filepath.Join(fs.home, name)
		if fs.IsDir(dir) {
			dirs = append(dirs, dir)
		}
	}
	return dirs
}
