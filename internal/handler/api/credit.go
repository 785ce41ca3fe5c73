package api

import (
	"log/slog"
	"net/http"
	"strconv"

	"classcribe/internal/handler/dto/response"
	"classcribe/internal/handler/middleware"
	"classcribe/internal/usecase/queries"

	"github.com/gin-gonic/gin"
)

type CreditHandler struct {
	creditQueries queries.CreditQueries
}

func NewCreditHandler(creditQueries queries.CreditQueries) *CreditHandler {
	return &CreditHandler{creditQueries: creditQueries}
}

// Balance returns the authenticated user's current credit balance
// @Summary      Credit balance
// @Tags         credits
// @Produce      json
// @Success      200 {object} response.BalanceResponse
// @Failure      401 {object} map[string]string
// @Security     BearerAuth
// @Router       /credits/balance [get]
func (h *CreditHandler) Balance(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	balance, err := h.creditQueries.GetBalance(c.Request.Context(), userID)
	if err != nil {
		slog.Error("failed to read credit balance", "user_id", userID, "error", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read balance"})
		return
	}

	c.JSON(http.StatusOK, response.BalanceResponse{Balance: balance})
}

// Transactions returns the user's ledger history, newest first
// @Summary      Credit transactions
// @Tags         credits
// @Produce      json
// @Param        limit query int false "Maximum entries to return (default 50)"
// @Success      200 {array} response.TransactionResponse
// @Failure      401 {object} map[string]string
// @Security     BearerAuth
// @Router       /credits/transactions [get]
func (h *CreditHandler) Transactions(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	views, err := h.creditQueries.ListTransactions(c.Request.Context(), userID, limit)
	if err != nil {
		slog.Error("failed to list credit transactions", "user_id", userID, "error", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list transactions"})
		return
	}

	c.JSON(http.StatusOK, response.FromTransactionViews(views))
}
