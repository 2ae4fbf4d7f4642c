package server

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const maxUploadBytes = 10 << 20

type UploadResponse struct {
	Success  bool   `json:"success"`
	FilePath string `json:"filePath"`
}

// handleAdminUpload stores one image from the multipart field "image" in
// dir and returns its public path under /uploads/.
func handleAdminUpload(logger *slog.Logger, dir string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
		file, header, err := r.FormFile("image")
		if err != nil {
			var tooBig *http.MaxBytesError
			if errors.As(err, &tooBig) {
				writeError(w, http.StatusRequestEntityTooLarge, "image is too large")
				return
			}
			writeError(w, http.StatusBadRequest, "no image uploaded")
			return
		}
		defer file.Close()

		head := make([]byte, 512)
		n, err := io.ReadFull(file, head)
		if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
			writeError(w, http.StatusBadRequest, "could not read image")
			return
		}
		ctype := http.DetectContentType(head[:n])
		if !strings.HasPrefix(ctype, "image/") {
			writeError(w, http.StatusBadRequest, "only image files are allowed")
			return
		}

		name := "image-" + uuid.NewString() + uploadExt(header.Filename, ctype)
		dst, err := os.Create(filepath.Join(dir, name))
		if err != nil {
			logger.Error("creating upload", "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		defer dst.Close()

		if _, err := io.Copy(dst, io.MultiReader(bytes.NewReader(head[:n]), file)); err != nil {
			logger.Error("writing upload", "file", name, "error", err)
			os.Remove(dst.Name())
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		logger.Info("image uploaded", "file", name, "content_type", ctype, "bytes", header.Size)
		writeJSON(w, http.StatusOK, UploadResponse{Success: true, FilePath: path.Join("/uploads", name)})
	}
}

// uploadExt keeps the client's extension when it names an image type,
// otherwise derives one from the sniffed content type.
func uploadExt(filename, ctype string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if strings.HasPrefix(mime.TypeByExtension(ext), "image/") {
		return ext
	}
	if exts, err := mime.ExtensionsByType(ctype); err == nil && len(exts) > 0 {
		return exts[0]
	}
	return ""
}
