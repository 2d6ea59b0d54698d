package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ScreenshotStorage отвечает за файловое хранилище скриншотов-доказательств.
// Наружу отдаётся только opaque относительный путь; удаление по нему
// идемпотентно, чтобы purge-sweep можно было перезапускать безопасно.
type ScreenshotStorage struct {
	rootPath       string
	maxUploadBytes int64
}

// NewScreenshotStorage создаёт файловое хранилище.
func NewScreenshotStorage(rootPath string, maxUploadMB int64) (*ScreenshotStorage, error) {
	if err := os.MkdirAll(rootPath, 0o755); err != nil {
		return nil, fmt.Errorf("storage: не удалось создать каталог %s: %w", rootPath, err)
	}

	return &ScreenshotStorage{
		rootPath:       rootPath,
		maxUploadBytes: maxUploadMB * 1024 * 1024,
	}, nil
}

// MaxUploadBytes возвращает лимит размера загружаемого файла.
func (s *ScreenshotStorage) MaxUploadBytes() int64 {
	return s.maxUploadBytes
}

// Save сохраняет скриншот и возвращает относительный путь-ссылку.
func (s *ScreenshotStorage) Save(ctx context.Context, reporterID uuid.UUID, originalName string, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	safeName := sanitizeFilename(originalName)
	fileName := fmt.Sprintf("%d%s", time.Now().UnixNano(), filepath.Ext(safeName))

	reporterDir := filepath.Join(s.rootPath, reporterID.String())
	if err := os.MkdirAll(reporterDir, 0o755); err != nil {
		return "", fmt.Errorf("storage: не удалось создать каталог репортёра: %w", err)
	}

	targetPath := filepath.Join(reporterDir, fileName)
	tempPath := targetPath + ".tmp"

	f, err := os.Create(tempPath)
	if err != nil {
		return "", fmt.Errorf("storage: не удалось создать файл: %w", err)
	}
	defer f.Close()

	limitedReader := io.LimitedReader{R: r, N: s.maxUploadBytes + 1}
	written, err := io.Copy(f, &limitedReader)
	if err != nil {
		_ = os.Remove(tempPath)
		return "", fmt.Errorf("storage: ошибка записи файла: %w", err)
	}

	if written > s.maxUploadBytes {
		_ = os.Remove(tempPath)
		return "", fmt.Errorf("storage: размер файла превышает лимит %d байт", s.maxUploadBytes)
	}

	if err := f.Close(); err != nil {
		return "", fmt.Errorf("storage: ошибка закрытия файла: %w", err)
	}

	if err := os.Rename(tempPath, targetPath); err != nil {
		return "", fmt.Errorf("storage: не удалось переименовать файл: %w", err)
	}

	return filepath.Join(reporterID.String(), fileName), nil
}

// Delete удаляет скриншот по относительному пути. Отсутствующий файл
// не считается ошибкой.
func (s *ScreenshotStorage) Delete(ctx context.Context, relativePath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	target := filepath.Join(s.rootPath, relativePath)
	if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("storage: не удалось удалить файл: %w", err)
	}
	return nil
}

// sanitizeFilename удаляет потенциально опасные символы.
func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, "..", "")
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	if name == "" {
		name = "screenshot"
	}
	return name
}
