package routes

import (
	"errors"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/mbolis/gyp-site/app"
	"github.com/mbolis/gyp-site/httpx"
	"github.com/mbolis/gyp-site/log"
)

// MaxUploadSize is the largest accepted image.
const MaxUploadSize = 5 << 20

var uploadTypes = []string{"image/jpeg", "image/png", "image/gif", "image/webp"}

type uploadResponse struct {
	URL      string `json:"url"`
	FileName string `json:"fileName"`
}

// Upload stores one image from the multipart field "file" under a random
// name. The type is sniffed from the content, the client's header is ignored.
func Upload(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, MaxUploadSize+1<<20)
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			var tooBig *http.MaxBytesError
			if errors.As(err, &tooBig) {
				httpx.LogStatusMsg(w, r, http.StatusBadRequest, log.DebugLevel, "upload.size", "file is larger than 5MB")
				return
			}
			httpx.LogStatusMsg(w, r, http.StatusBadRequest, log.DebugLevel, "upload.parse", "a multipart form is required")
			return
		}
		defer r.MultipartForm.RemoveAll()

		file, header, err := r.FormFile("file")
		if err != nil {
			httpx.LogInvalid(w, r, "upload.file", map[string]string{"file": "is required"})
			return
		}
		defer file.Close()

		if header.Size > MaxUploadSize {
			httpx.LogStatusMsg(w, r, http.StatusBadRequest, log.DebugLevel, "upload.size", "file is larger than 5MB")
			return
		}

		mtype, err := mimetype.DetectReader(file)
		if err != nil {
			httpx.LogInternalError(w, r, "upload.detect", err)
			return
		}
		if !mimetype.EqualsAny(mtype.String(), uploadTypes...) {
			httpx.LogStatusMsg(w, r, http.StatusBadRequest, log.DebugLevel, "upload.type", "file type %s is not allowed, use JPEG, PNG, GIF or WEBP", mtype.String())
			return
		}
		if _, err := file.Seek(0, io.SeekStart); err != nil {
			httpx.LogInternalError(w, r, "upload.rewind", err)
			return
		}

		fileName := uuid.NewString() + mtype.Extension()
		if err := os.MkdirAll(app.UploadDir, 0o755); err != nil {
			httpx.LogInternalError(w, r, "upload.mkdir", err)
			return
		}
		if err := saveUpload(filepath.Join(app.UploadDir, fileName), file); err != nil {
			httpx.LogInternalError(w, r, "upload.write", err)
			return
		}

		created(w, r, uploadResponse{
			URL:      path.Join(uploadURLPrefix(app.PublicDir, app.UploadDir), fileName),
			FileName: fileName,
		})
	}
}

// saveUpload writes src to name. A partly written file is removed.
func saveUpload(name string, src io.Reader) error {
	dst, err := os.Create(name)
	if err != nil {
		return err
	}
	_, err = io.Copy(dst, src)
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(name)
		return err
	}
	return nil
}

// uploadURLPrefix is where the upload directory shows up under the public
// file server.
func uploadURLPrefix(publicDir, uploadDir string) string {
	rel, err := filepath.Rel(publicDir, uploadDir)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "/uploads"
	}
	return "/" + filepath.ToSlash(rel)
}
