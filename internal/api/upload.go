package api

import (
	stderrors "errors"
	"net/http"

	"github.com/socialchef/transcriptor/internal/errors"
	"github.com/socialchef/transcriptor/internal/validation"
)

// uploadField is the multipart field carrying the video.
const uploadField = "video"

// readUpload pulls the video out of a multipart request. Sizes are checked
// before the form is parsed, and the form is kept entirely in memory so a
// rejected upload never touches the filesystem. The caller must call the
// returned cleanup func.
func (s *Server) readUpload(r *http.Request) (validation.Upload, func(), error) {
	noop := func() {}

	if r.ContentLength > s.maxBody {
		return validation.Upload{}, noop, validation.CheckSize(r.ContentLength)
	}

	if err := r.ParseMultipartForm(s.maxBody); err != nil {
		var maxErr *http.MaxBytesError
		if stderrors.As(err, &maxErr) {
			return validation.Upload{}, noop, errors.NewTooLargeError(
				"El archivo es demasiado grande.",
				"Por favor, sube un video de menos de "+validation.MaxUploadLabel()+".",
			)
		}
		return validation.Upload{}, noop, errors.NewValidationError(
			"No se pudo leer el formulario.", "INVALID_FORM", "Vuelve a seleccionar el video e inténtalo de nuevo.")
	}
	cleanup := func() {
		if r.MultipartForm != nil {
			r.MultipartForm.RemoveAll()
		}
	}

	file, header, err := r.FormFile(uploadField)
	if err != nil {
		return validation.Upload{}, cleanup, errors.NewValidationError(
			"No se recibió ningún video.", "MISSING_FILE", "Selecciona un video antes de enviar el formulario.")
	}

	upload := validation.Upload{
		Filename: header.Filename,
		Size:     header.Size,
		Content:  file,
	}
	closeAll := func() {
		file.Close()
		cleanup()
	}
	if err := validation.Validate(upload); err != nil {
		return validation.Upload{}, closeAll, err
	}
	return upload, closeAll, nil
}
