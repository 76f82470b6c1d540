package swaggerui

import (
	"archive/zip"
	"embed"
	"errors"
	"io/fs"
)

//go:embed static
var embedded embed.FS

// Viewer returns the embedded documentation viewer.
func Viewer() fs.FS {
	sub, err := fs.Sub(embedded, "static")
	if err != nil {
		panic(err)
	}
	return sub
}

// Overlay is a stack of file systems. Open returns the file from the
// first layer that has it; a layer reporting fs.ErrNotExist is skipped,
// any other error stops the lookup.
type Overlay []fs.FS

// Open implements fs.FS.
func (o Overlay) Open(name string) (fs.File, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrInvalid}
	}
	for _, layer := range o {
		if layer == nil {
			continue
		}
		f, err := layer.Open(name)
		if err == nil {
			return f, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}
	return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
}

// ArchiveFS opens a zip archive of viewer files. The returned closer
// releases the archive and must be called once the file system is no
// longer served.
func ArchiveFS(path string) (fs.FS, func() error, error) {
	rc, err := zip.OpenReader(path)
	if err != nil {
		return nil, nil, err
	}
	return rc, rc.Close, nil
}

// noDirFS hides directories so that only plain files are served.
type noDirFS struct {
	fs fs.FS
}

func (n noDirFS) Open(name string) (fs.File, error) {
	f, err := n.fs.Open(name)
	if err != nil {
		return nil, err
	}

	stat, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if stat.IsDir() {
		f.Close()
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
	}
	return f, nil
}
