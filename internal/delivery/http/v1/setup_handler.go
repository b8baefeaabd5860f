package v1

import (
	"net/http"

	"zaanjob-backend/internal/delivery/http/response"
	"zaanjob-backend/internal/domain"

	"github.com/gin-gonic/gin"
)

type SetupHandler struct {
	schemaUC  domain.SchemaUsecase
	storageUC domain.StorageUsecase
}

type SetupDBResponse struct {
	Success bool                   `json:"success"`
	Message string                 `json:"message"`
	Ready   []string               `json:"ready"`
	Steps   []domain.ProvisionStep `json:"steps"`
}

type SetupStorageResponse struct {
	Success bool                  `json:"success"`
	Message string                `json:"message"`
	Buckets []domain.BucketStatus `json:"buckets"`
}

type SchemaStatusResponse struct {
	Tables []domain.SchemaStatus `json:"tables"`
}

// NewSetupHandler registers the provisioning routes on a guarded group.
func NewSetupHandler(setup *gin.RouterGroup, schemaUC domain.SchemaUsecase, storageUC domain.StorageUsecase) {
	handler := &SetupHandler{schemaUC: schemaUC, storageUC: storageUC}

	setup.GET("/setup-db", handler.SetupDB)
	setup.GET("/setup-db/status", handler.SchemaStatus)
	setup.GET("/setup-storage", handler.SetupStorage)
}

// SetupDB godoc
// @Summary      Provision the database schema
// @Description  Idempotently create the extension, tables, indexes and row-level policies
// @Tags         setup
// @Produce      json
// @Param        X-Setup-Token  header    string  false  "Required when SETUP_TOKEN is set"
// @Success      200  {object}  SetupDBResponse
// @Failure      401  {object}  response.ErrorBody
// @Failure      500  {object}  response.ErrorBody
// @Router       /setup-db [get]
func (h *SetupHandler) SetupDB(c *gin.Context) {
	report, err := h.schemaUC.Provision(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, SetupDBResponse{
		Success: true,
		Message: "Database setup completed successfully",
		Ready:   report.Ready,
		Steps:   report.Steps,
	})
}

// SchemaStatus godoc
// @Summary      Inspect the schema
// @Description  Report which tables exist and their columns
// @Tags         setup
// @Produce      json
// @Success      200  {object}  SchemaStatusResponse
// @Failure      401  {object}  response.ErrorBody
// @Router       /setup-db/status [get]
func (h *SetupHandler) SchemaStatus(c *gin.Context) {
	tables, err := h.schemaUC.Status(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, SchemaStatusResponse{Tables: tables})
}

// SetupStorage godoc
// @Summary      Provision storage buckets
// @Description  Idempotently create the public photo and CV buckets
// @Tags         setup
// @Produce      json
// @Success      200  {object}  SetupStorageResponse
// @Failure      401  {object}  response.ErrorBody
// @Failure      500  {object}  response.ErrorBody
// @Router       /setup-storage [get]
func (h *SetupHandler) SetupStorage(c *gin.Context) {
	buckets, err := h.storageUC.SetupBuckets(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}

	ok := true
	for _, b := range buckets {
		if b.Error != "" {
			ok = false
		}
	}
	msg := "Storage setup completed successfully"
	if !ok {
		msg = "Storage setup completed with errors"
	}
	response.Success(c, http.StatusOK, SetupStorageResponse{Success: ok, Message: msg, Buckets: buckets})
}
