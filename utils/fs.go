package utils

import (
	"encoding/json"
	"os"
	"path/filepath"

	"golang.org/x/xerrors"

	"github.com/spf13/afero"
)

type Fs struct {
	AppFs afero.Fs
}

func NewFs(appFs afero.Fs) Fs {
	return Fs{AppFs: appFs}
}

func (fs Fs) WriteJSON(filePath string, data interface{}) error {
	if dir := filepath.Dir(filePath); dir != "." {
		if err := fs.AppFs.MkdirAll(dir, os.ModePerm); err != nil {
			return xerrors.Errorf("unable to create a directory: %w", err)
		}
	}

	f, err := fs.AppFs.Create(filePath)
	if err != nil {
		return xerrors.Errorf("unable to open a file: %w", err)
	}
	defer f.Close()

	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return xerrors.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err = f.Write(b); err != nil {
		return xerrors.Errorf("failed to save a file: %w", err)
	}
	return nil
}

// ReadFile reads a regular file. ok is false when nothing exists at filePath.
func (fs Fs) ReadFile(filePath string) (b []byte, ok bool, err error) {
	info, err := fs.AppFs.Stat(filePath)
	if os.IsNotExist(err) {
		return nil, false, nil
	} else if err != nil {
		return nil, false, xerrors.Errorf("unable to stat %s: %w", filePath, err)
	}
	if info.IsDir() {
		return nil, false, nil
	}

	b, err = afero.ReadFile(fs.AppFs, filePath)
	if err != nil {
		return nil, true, xerrors.Errorf("unable to read %s: %w", filePath, err)
	}
	return b, true, nil
}
