package validation

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/socialchef/transcriptor/internal/errors"
)

// MaxUploadSize is the largest accepted video, 50 MiB.
const MaxUploadSize int64 = 50 * 1024 * 1024

// AllowedExtensions lists the accepted video containers, without the dot.
var AllowedExtensions = []string{"mp4", "avi", "mov"}

// Upload is a video received from the browser.
type Upload struct {
	Filename string
	Size     int64
	Content  io.Reader
}

// AcceptAttribute renders AllowedExtensions for an <input type="file" accept>.
func AcceptAttribute() string {
	exts := make([]string, len(AllowedExtensions))
	for i, ext := range AllowedExtensions {
		exts[i] = "." + ext
	}
	return strings.Join(exts, ",")
}

// MaxUploadLabel is the human readable upload limit.
func MaxUploadLabel() string {
	return humanize.IBytes(uint64(MaxUploadSize))
}

// CheckSize rejects declared sizes above MaxUploadSize.
func CheckSize(size int64) error {
	if size > MaxUploadSize {
		return errors.NewTooLargeError(
			fmt.Sprintf("El archivo es demasiado grande (%s).", humanize.IBytes(uint64(size))),
			fmt.Sprintf("Por favor, sube un video de menos de %s.", MaxUploadLabel()),
		)
	}
	return nil
}

// CheckExtension rejects anything but the allowed containers (case-insensitive).
func CheckExtension(filename string) error {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	for _, allowed := range AllowedExtensions {
		if ext == allowed {
			return nil
		}
	}
	return errors.NewValidationError(
		fmt.Sprintf("Formato no soportado: %q.", filepath.Base(filename)),
		"UNSUPPORTED_FORMAT",
		fmt.Sprintf("Sube un video en formato %s.", strings.Join(AllowedExtensions, ", ")),
	)
}

// Validate checks an upload before anything is written to disk.
// Size is checked first so oversized files are rejected regardless of extension.
func Validate(u Upload) error {
	if err := CheckSize(u.Size); err != nil {
		return err
	}
	if err := CheckExtension(u.Filename); err != nil {
		return err
	}
	if u.Size == 0 {
		return errors.NewValidationError("El archivo está vacío.", "EMPTY_FILE", "Sube un video con contenido.")
	}
	return nil
}
