package handlers

import (
	"ridehive/internal/services"
	"ridehive/internal/utils"
	"ridehive/internal/validators"

	"github.com/gin-gonic/gin"
)

type WalletHandler struct {
	accountService services.AccountService
}

func NewWalletHandler(accountService services.AccountService) *WalletHandler {
	return &WalletHandler{
		accountService: accountService,
	}
}

// GetBalance returns the authenticated user's wallet balance
func (h *WalletHandler) GetBalance(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	account, err := h.accountService.GetBalance(c.Request.Context(), userID)
	if err != nil {
		utils.ServiceErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, "Balance retrieved successfully", account)
}

// TopUpWallet charges an external payment method and credits the wallet
func (h *WalletHandler) TopUpWallet(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var request validators.TopUpRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}

	account, err := h.accountService.TopUpWallet(c.Request.Context(), userID, &request)
	if err != nil {
		utils.ServiceErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, "Wallet topped up successfully", account)
}
