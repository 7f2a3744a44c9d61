package handlers

import (
	"log"
	"net/http"

	"github.com/MULLAZMUSH/victors-assembly-church/internal/middleware"
)

const maxUploadSize = 10 << 20 // 10 MB

// UploadFile accepts a multipart file and stores it in Cloudinary, returning
// the hosted URL. Used for profile pictures and post attachments.
func UploadFile(w http.ResponseWriter, r *http.Request) {
	if _, ok := middleware.UserIDFromContext(r.Context()); !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	if cloudinaryService == nil {
		respondError(w, http.StatusServiceUnavailable, "File uploads are not configured")
		return
	}

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	_, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Missing file")
		return
	}

	folder := r.FormValue("folder")
	if folder == "" {
		folder = "victors-assembly"
	}

	url, err := cloudinaryService.UploadFileFromHeader(r.Context(), header, folder)
	if err != nil {
		log.Printf("upload: cloudinary upload failed: %v", err)
		respondError(w, http.StatusInternalServerError, "Upload failed")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"url": url})
}
