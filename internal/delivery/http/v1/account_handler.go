package v1

import (
	"net/http"

	"zaanjob-backend/internal/delivery/http/response"
	"zaanjob-backend/internal/domain"

	"github.com/gin-gonic/gin"
)

type AccountHandler struct {
	accountUC domain.AccountUsecase
}

type AccountResponse struct {
	Account *domain.Account `json:"account"`
}

func NewAccountHandler(protected *gin.RouterGroup, accountUC domain.AccountUsecase) {
	handler := &AccountHandler{accountUC: accountUC}
	protected.GET("/accounts/me", handler.Me)
}

// Me godoc
// @Summary      Current account
// @Description  The caller's mirrored account record
// @Tags         accounts
// @Produce      json
// @Success      200  {object}  AccountResponse
// @Failure      401  {object}  response.ErrorBody
// @Failure      404  {object}  response.ErrorBody
// @Router       /accounts/me [get]
// @Security     BearerAuth
func (h *AccountHandler) Me(c *gin.Context) {
	account, err := h.accountUC.GetCurrent(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, AccountResponse{Account: account})
}
