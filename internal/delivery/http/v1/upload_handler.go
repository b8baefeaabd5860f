package v1

import (
	"context"
	"io"
	"net/http"

	"zaanjob-backend/internal/delivery/http/response"
	"zaanjob-backend/internal/domain"
	"zaanjob-backend/pkg/apperror"

	"github.com/gin-gonic/gin"
)

// maxUploadBody caps the multipart body before the per-bucket limits apply.
const maxUploadBody = 11 << 20

type UploadHandler struct {
	storageUC domain.StorageUsecase
}

func NewUploadHandler(protected *gin.RouterGroup, storageUC domain.StorageUsecase) {
	handler := &UploadHandler{storageUC: storageUC}

	uploads := protected.Group("/uploads")
	{
		uploads.POST("/photo", handler.UploadPhoto)
		uploads.POST("/cv", handler.UploadCV)
	}
}

// UploadPhoto godoc
// @Summary      Upload a profile photo
// @Description  JPEG, PNG, GIF or WebP up to 5 MB. Stored as a resized JPEG.
// @Tags         uploads
// @Accept       multipart/form-data
// @Produce      json
// @Param        file  formData  file  true  "Image file"
// @Success      201  {object}  domain.UploadResult
// @Failure      400  {object}  response.ErrorBody
// @Failure      401  {object}  response.ErrorBody
// @Failure      429  {object}  response.ErrorBody
// @Router       /uploads/photo [post]
// @Security     BearerAuth
func (h *UploadHandler) UploadPhoto(c *gin.Context) {
	h.handle(c, h.storageUC.UploadPhoto)
}

// UploadCV godoc
// @Summary      Upload a CV
// @Description  PDF up to 10 MB
// @Tags         uploads
// @Accept       multipart/form-data
// @Produce      json
// @Param        file  formData  file  true  "PDF file"
// @Success      201  {object}  domain.UploadResult
// @Failure      400  {object}  response.ErrorBody
// @Failure      401  {object}  response.ErrorBody
// @Failure      429  {object}  response.ErrorBody
// @Router       /uploads/cv [post]
// @Security     BearerAuth
func (h *UploadHandler) UploadCV(c *gin.Context) {
	h.handle(c, h.storageUC.UploadCV)
}

type uploadFunc func(ctx context.Context, req domain.UploadRequest) (*domain.UploadResult, error)

func (h *UploadHandler) handle(c *gin.Context, upload uploadFunc) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBody)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.Error(apperror.Validation("A file is required in the \"file\" form field", nil))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.Error(apperror.Validation("Could not read uploaded file", nil))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		c.Error(apperror.Validation("Could not read uploaded file", nil))
		return
	}

	result, err := upload(c.Request.Context(), domain.UploadRequest{
		Filename: fileHeader.Filename,
		Data:     data,
		ClientIP: c.ClientIP(),
	})
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusCreated, result)
}
