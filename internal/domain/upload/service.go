package upload

import (
	"context"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

const (
	DefaultMaxFileSize = 10 * 1024 * 1024 // 10 MB
	DefaultBaseDir     = "./uploads"
	DefaultURLBase     = "/static/uploads"
)

// AllowedMimeTypes defines which file types are accepted
var AllowedMimeTypes = map[string]bool{
	"image/jpeg":      true,
	"image/png":       true,
	"image/gif":       true,
	"image/webp":      true,
	"application/pdf": true,
	"text/plain":      true,

	"application/msword":                      true,
	"application/vnd.oasis.opendocument.text": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
}

// Service moves uploaded attachments to local disk.
type Service struct {
	baseDir string // absolute path to uploads dir
	urlBase string // URL prefix for serving files
	maxSize int64
	now     func() time.Time
}

func NewService(baseDir, urlBase string, maxSize int64) (*Service, error) {
	if baseDir == "" {
		baseDir = DefaultBaseDir
	}
	if urlBase == "" {
		urlBase = DefaultURLBase
	}
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}

	abs, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("resolve upload directory: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create upload directory: %w", err)
	}

	return &Service{
		baseDir: abs,
		urlBase: strings.TrimRight(urlBase, "/"),
		maxSize: maxSize,
		now:     time.Now,
	}, nil
}

// Store saves the attachment and returns where it lives. A nil header means
// no file was attached and yields (nil, nil).
func (s *Service) Store(ctx context.Context, fileHeader *multipart.FileHeader) (*StoredFile, error) {
	if fileHeader == nil || fileHeader.Filename == "" {
		return nil, nil
	}
	if fileHeader.Size == 0 {
		return nil, ErrEmptyFile
	}
	if fileHeader.Size > s.maxSize {
		return nil, ErrFileTooLarge
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	file, err := fileHeader.Open()
	if err != nil {
		return nil, fmt.Errorf("open uploaded file: %w", err)
	}
	defer file.Close()

	mtype, err := mimetype.DetectReader(file)
	if err != nil {
		return nil, fmt.Errorf("detect file type: %w", err)
	}
	mimeType := baseType(mtype.String())
	if !AllowedMimeTypes[mimeType] {
		return nil, ErrInvalidMimeType
	}
	if claimed := baseType(mime.TypeByExtension(filepath.Ext(fileHeader.Filename))); claimed != "" && !AllowedMimeTypes[claimed] {
		return nil, ErrInvalidMimeType
	}

	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("rewind uploaded file: %w", err)
	}

	// uploads/YYYY/MM/DD/
	now := s.now()
	relDir := fmt.Sprintf("%d/%02d/%02d", now.Year(), now.Month(), now.Day())
	absDir := filepath.Join(s.baseDir, filepath.FromSlash(relDir))
	if err := os.MkdirAll(absDir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload directory: %w", err)
	}

	// The static handler picks Content-Type from the extension, so it must
	// come from the detected type and never from the client.
	filename := fmt.Sprintf("%s_%s%s", uuid.NewString(), sanitizeName(fileHeader.Filename), mtype.Extension())

	absPath := filepath.Join(absDir, filename)
	dst, err := os.OpenFile(absPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return nil, fmt.Errorf("create file: %w", err)
	}

	written, err := io.Copy(dst, io.LimitReader(file, s.maxSize+1))
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err == nil && written > s.maxSize {
		err = ErrFileTooLarge
	}
	if err != nil {
		_ = os.Remove(absPath)
		if err == ErrFileTooLarge {
			return nil, err
		}
		return nil, fmt.Errorf("write file: %w", err)
	}

	return &StoredFile{
		OriginalName: fileHeader.Filename,
		Path:         absPath,
		URL:          s.urlBase + "/" + relDir + "/" + filename,
		MimeType:     mimeType,
		Size:         written,
	}, nil
}

// Remove deletes a stored file. Paths outside the upload directory are refused.
func (s *Service) Remove(path string) error {
	rel, err := filepath.Rel(s.baseDir, path)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return fmt.Errorf("path %q is outside the upload directory", path)
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// BaseDir is the directory served under the public URL base.
func (s *Service) BaseDir() string {
	return s.baseDir
}

// baseType drops parameters such as charset from a media type.
func baseType(t string) string {
	return strings.ToLower(strings.TrimSpace(strings.Split(t, ";")[0]))
}

func sanitizeName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.TrimSuffix(name, filepath.Ext(name)) // extension is added separately
	name = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' {
			return r
		}
		return '_'
	}, name)
	if len(name) > 40 {
		name = name[:40]
	}
	if name == "" {
		return "file"
	}
	return name
}
