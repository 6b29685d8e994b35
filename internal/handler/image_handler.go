package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/prn-tf/victoria-catalog/internal/auth"
	"github.com/prn-tf/victoria-catalog/internal/domain"
	"github.com/prn-tf/victoria-catalog/internal/service"
)

// imageFormField is the multipart field name an upload must use.
const imageFormField = "image"

// ImageHandler handles product image endpoints.
type ImageHandler struct {
	imageService  *service.ImageService
	maxUploadSize int64
	logger        zerolog.Logger
}

// NewImageHandler creates a new ImageHandler.
func NewImageHandler(imageService *service.ImageService, maxUploadSize int64, logger zerolog.Logger) *ImageHandler {
	return &ImageHandler{
		imageService:  imageService,
		maxUploadSize: maxUploadSize,
		logger:        logger.With().Str("handler", "image").Logger(),
	}
}

// imageResponse is the API shape of an image.
type imageResponse struct {
	ImageID      int64     `json:"image_id"`
	ProductID    int64     `json:"product_id"`
	FileName     string    `json:"file_name"`
	S3BucketPath string    `json:"s3_bucket_path"`
	DateCreated  time.Time `json:"date_created"`
}

func toImageResponse(i *domain.Image) imageResponse {
	return imageResponse{
		ImageID:      i.ImageID,
		ProductID:    i.ProductID,
		FileName:     i.FileName,
		S3BucketPath: i.S3BucketPath,
		DateCreated:  i.DateCreated,
	}
}

// Upload handles POST /v2/product/{productId}/image.
// The request must carry exactly one file under the "image" field.
func (h *ImageHandler) Upload(w http.ResponseWriter, r *http.Request) {
	principal, err := auth.RequirePrincipal(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}

	productID, ok := parseProductID(w, r)
	if !ok {
		return
	}

	// Missing or foreign products outrank any body error.
	if err := h.imageService.AuthorizeOwner(r.Context(), productID, principal.UserID); err != nil {
		respondError(w, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		respondError(w, domain.NewDomainError(domain.ErrNoImageProvided, "could not parse multipart body", ""))
		return
	}
	defer func() {
		_ = r.MultipartForm.RemoveAll()
	}()

	files := r.MultipartForm.File[imageFormField]
	switch {
	case len(files) == 0:
		respondError(w, domain.ErrNoImageProvided)
		return
	case len(files) > 1:
		respondError(w, domain.ErrTooManyImages)
		return
	}

	fileHeader := files[0]
	file, err := fileHeader.Open()
	if err != nil {
		respondError(w, domain.NewDomainError(domain.ErrNoImageProvided, "could not read uploaded file", ""))
		return
	}
	defer file.Close()

	output, err := h.imageService.Upload(r.Context(), service.UploadImageInput{
		ProductID:   productID,
		RequesterID: principal.UserID,
		FileName:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Size:        fileHeader.Size,
		Body:        file,
	})
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, toImageResponse(output.Image))
}

// List handles GET /v2/product/{productId}/image.
func (h *ImageHandler) List(w http.ResponseWriter, r *http.Request) {
	principal, err := auth.RequirePrincipal(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}

	productID, ok := parseProductID(w, r)
	if !ok {
		return
	}

	images, err := h.imageService.List(r.Context(), service.ListImagesInput{
		ProductID:   productID,
		RequesterID: principal.UserID,
	})
	if err != nil {
		respondError(w, err)
		return
	}

	responses := make([]imageResponse, 0, len(images))
	for _, image := range images {
		responses = append(responses, toImageResponse(image))
	}

	respondJSON(w, http.StatusOK, responses)
}

// Get handles GET /v2/product/{productId}/image/{imageId}.
func (h *ImageHandler) Get(w http.ResponseWriter, r *http.Request) {
	principal, err := auth.RequirePrincipal(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}

	productID, ok := parseProductID(w, r)
	if !ok {
		return
	}

	imageID, ok := parseImageID(w, r)
	if !ok {
		return
	}

	image, err := h.imageService.Get(r.Context(), service.GetImageInput{
		ProductID:   productID,
		ImageID:     imageID,
		RequesterID: principal.UserID,
	})
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, toImageResponse(image))
}

// Delete handles DELETE /v2/product/{productId}/image/{imageId}.
func (h *ImageHandler) Delete(w http.ResponseWriter, r *http.Request) {
	principal, err := auth.RequirePrincipal(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}

	productID, ok := parseProductID(w, r)
	if !ok {
		return
	}

	imageID, ok := parseImageID(w, r)
	if !ok {
		return
	}

	if err := h.imageService.Delete(r.Context(), service.DeleteImageInput{
		ProductID:   productID,
		ImageID:     imageID,
		RequesterID: principal.UserID,
	}); err != nil {
		respondError(w, err)
		return
	}

	respondNoContent(w)
}

// parseImageID parses the {imageId} path parameter.
func parseImageID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	imageID, err := strconv.ParseInt(chi.URLParam(r, "imageId"), 10, 64)
	if err != nil {
		respondError(w, domain.ErrImageNotFound)
		return 0, false
	}
	return imageID, true
}
