package media

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"storefront/pkg/logger"
	"storefront/pkg/metrics"

	"github.com/gabriel-vasile/mimetype"
	"github.com/oklog/ulid/v2"
)

// StoredFile - файл, записанный в публичную директорию.
// Name - только имя файла (basename), путь относительно корня статики
type StoredFile struct {
	Name         string
	OriginalName string
	Kind         Kind
	MimeType     string
	Size         int64
}

// FileInfo - файл публичной директории, используется очисткой осиротевших медиа
type FileInfo struct {
	Name    string
	ModTime time.Time
}

// Storage пишет загруженные файлы в локальную публичную директорию
type Storage struct {
	dir    string
	limits Limits
}

// NewStorage создает директорию, если её нет
func NewStorage(dir string, limits Limits) (*Storage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir %s: %w", dir, err)
	}
	return &Storage{dir: dir, limits: limits}, nil
}

func (s *Storage) Dir() string {
	return s.dir
}

// SaveAll проверяет все файлы и только потом пишет их на диск.
// Если запись одного из файлов не удалась, уже записанные удаляются
func (s *Storage) SaveAll(files []*multipart.FileHeader) ([]StoredFile, error) {
	kinds := make([]Kind, len(files))
	mimes := make([]string, len(files))

	for i, fh := range files {
		mimeType, err := detectMime(fh)
		if err != nil {
			return nil, err
		}
		kind, err := Validate(mimeType, fh.Size, s.limits)
		if err != nil {
			var uploadErr *UploadError
			if errors.As(err, &uploadErr) {
				uploadErr.FileName = fh.Filename
			}
			metrics.MediaFiles.WithLabelValues(kindLabel(mimeType), "rejected").Inc()
			return nil, err
		}
		kinds[i] = kind
		mimes[i] = normalizeMime(mimeType)
	}

	stored := make([]StoredFile, 0, len(files))
	for i, fh := range files {
		name := newFileName(fh.Filename, mimes[i])
		if err := s.write(fh, name); err != nil {
			s.Remove(storedNames(stored)...)
			return nil, err
		}

		metrics.MediaFiles.WithLabelValues(string(kinds[i]), "stored").Inc()
		stored = append(stored, StoredFile{
			Name:         name,
			OriginalName: fh.Filename,
			Kind:         kinds[i],
			MimeType:     mimes[i],
			Size:         fh.Size,
		})
	}

	return stored, nil
}

func (s *Storage) write(fh *multipart.FileHeader, name string) error {
	src, err := fh.Open()
	if err != nil {
		return fmt.Errorf("failed to open upload %s: %w", fh.Filename, err)
	}
	defer src.Close()

	dst, err := os.OpenFile(filepath.Join(s.dir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create file %s: %w", name, err)
	}

	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(filepath.Join(s.dir, name))
		return fmt.Errorf("failed to write file %s: %w", name, err)
	}

	if err := dst.Close(); err != nil {
		os.Remove(filepath.Join(s.dir, name))
		return fmt.Errorf("failed to close file %s: %w", name, err)
	}

	return nil
}

// Remove удаляет файлы по имени. Ошибки только логируются
func (s *Storage) Remove(names ...string) {
	for _, name := range names {
		path, ok := s.Resolve(name)
		if !ok {
			continue
		}
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			logger.Warn().Err(err).Str("file", name).Msg("failed to remove media file")
		}
	}
}

// Resolve возвращает путь файла в публичной директории.
// Имена с разделителями пути и ".." отклоняются
func (s *Storage) Resolve(name string) (string, bool) {
	if name == "" || name == "." || name == ".." || filepath.Base(name) != name || strings.ContainsAny(name, `/\`) {
		return "", false
	}
	return filepath.Join(s.dir, name), true
}

// Exists проверяет, что в публичной директории есть обычный файл с таким именем
func (s *Storage) Exists(name string) (string, bool) {
	path, ok := s.Resolve(name)
	if !ok {
		return "", false
	}
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return "", false
	}
	return path, true
}

// List перечисляет обычные файлы публичной директории
func (s *Storage) List() ([]FileInfo, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload dir: %w", err)
	}

	files := make([]FileInfo, 0, len(entries))
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, FileInfo{Name: entry.Name(), ModTime: info.ModTime()})
	}
	return files, nil
}

// detectMime берёт заявленный Content-Type части, а если его нет
// или это application/octet-stream, определяет тип по содержимому
func detectMime(fh *multipart.FileHeader) (string, error) {
	declared := fh.Header.Get("Content-Type")
	if declared != "" && normalizeMime(declared) != "application/octet-stream" {
		return declared, nil
	}

	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open upload %s: %w", fh.Filename, err)
	}
	defer src.Close()

	detected, err := mimetype.DetectReader(src)
	if err != nil {
		return "", fmt.Errorf("failed to detect mime type of %s: %w", fh.Filename, err)
	}
	return detected.String(), nil
}

// extensionsByMime - допустимые расширения для MIME типа, первое каноническое
var extensionsByMime = map[string][]string{
	"image/jpeg": {".jpg", ".jpeg"},
	"image/jpg":  {".jpg", ".jpeg"},
	"image/png":  {".png"},
	"image/webp": {".webp"},
	"video/mp4":  {".mp4", ".m4v"},
	"video/webm": {".webm"},
	"video/ogg":  {".ogv", ".ogg"},
}

// newFileName: ULID (время в мс + случайная часть) и расширение, согласованное с
// проверенным MIME типом. По расширению c.File выставляет Content-Type при раздаче
func newFileName(original, mimeType string) string {
	return strings.ToLower(ulid.Make().String()) + fileExtension(original, mimeType)
}

func fileExtension(original, mimeType string) string {
	ext := strings.ToLower(filepath.Ext(original))
	mimeType = normalizeMime(mimeType)

	if allowed, ok := extensionsByMime[mimeType]; ok {
		if contains(allowed, ext) {
			return ext
		}
		return allowed[0]
	}

	// Прочие типы из настроек: каноническое расширение mimetype
	if m := mimetype.Lookup(mimeType); m != nil {
		return m.Extension()
	}
	return ""
}

// IsGeneratedName сообщает, выдано ли имя этим хранилищем: ULID плюс расширение.
// Остальные файлы публичной директории (favicon, логотипы) хранилищу не принадлежат
func IsGeneratedName(name string) bool {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	_, err := ulid.ParseStrict(strings.ToUpper(base))
	return err == nil
}

func storedNames(files []StoredFile) []string {
	names := make([]string, len(files))
	for i, f := range files {
		names[i] = f.Name
	}
	return names
}

func kindLabel(mimeType string) string {
	if strings.HasPrefix(normalizeMime(mimeType), "video/") {
		return string(KindVideo)
	}
	return string(KindImage)
}
