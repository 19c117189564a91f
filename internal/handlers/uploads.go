package handlers

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

const maxUploadMemory = 32 << 20

var errMissingFile = errors.New("file is required")

// stageFormFile copies the named multipart file to a staging file under dir
// and returns its path. Callers own the staged file and must remove it on
// every code path once the upload attempt finished.
func stageFormFile(r *http.Request, field, dir string) (string, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return "", errMissingFile
		}
		return "", fmt.Errorf("read form file %s: %w", field, err)
	}
	defer file.Close()

	return stageFile(file, header, dir)
}

func stageFile(file multipart.File, header *multipart.FileHeader, dir string) (string, error) {
	staged, err := os.CreateTemp(dir, "videotube-upload-*"+filepath.Ext(header.Filename))
	if err != nil {
		return "", fmt.Errorf("create staging file: %w", err)
	}

	if _, err := io.Copy(staged, file); err != nil {
		staged.Close()
		os.Remove(staged.Name())
		return "", fmt.Errorf("stage uploaded file: %w", err)
	}

	if err := staged.Close(); err != nil {
		os.Remove(staged.Name())
		return "", fmt.Errorf("close staging file: %w", err)
	}

	return staged.Name(), nil
}

// mediaKey derives a unique object key for an uploaded file, keeping the
// staged file's extension.
func mediaKey(prefix, stagedPath string) string {
	return fmt.Sprintf("%s/%s%s", prefix, uuid.NewString(), filepath.Ext(stagedPath))
}

func removeStaged(path string) {
	if path == "" {
		return
	}
	_ = os.Remove(path)
}
