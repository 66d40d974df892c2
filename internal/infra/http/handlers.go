package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"crossbank/internal/domain"
	"crossbank/internal/usecase"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

const sessionCookie = "payment_session"

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeErrorCode(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, errorResponse{Code: code, Message: message})
}

// writeError maps domain sentinels to the wire. Authentication-adjacent
// failures stay a uniform 403; the rest carry their own code.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrAuthentication), errors.Is(err, domain.ErrSignatureInvalid):
		writeErrorCode(c, http.StatusForbidden, "FORBIDDEN", "forbidden")
	case errors.Is(err, domain.ErrSessionInvalid):
		writeErrorCode(c, http.StatusForbidden, "SESSION_INVALID", "payment session is missing, expired or already used")
	case errors.Is(err, domain.ErrPolicyDenied):
		writeErrorCode(c, http.StatusForbidden, "POLICY_DENIED", "transfer rejected by policy")
	case errors.Is(err, domain.ErrMalformedPayload):
		writeErrorCode(c, http.StatusBadRequest, "MALFORMED_PAYLOAD", err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeErrorCode(c, http.StatusNotFound, "NOT_FOUND", "not found")
	case errors.Is(err, domain.ErrInsufficientFunds):
		writeErrorCode(c, http.StatusUnprocessableEntity, "INSUFFICIENT_FUNDS", "insufficient funds")
	case errors.Is(err, domain.ErrRemoteRejected):
		writeErrorCode(c, http.StatusBadGateway, "REMOTE_REJECTED", "counterpart rejected the transfer")
	case errors.Is(err, domain.ErrReconciliationGap):
		writeErrorCode(c, http.StatusInternalServerError, "RECONCILIATION_GAP", "transfer requires manual reconciliation")
	default:
		writeErrorCode(c, http.StatusInternalServerError, "INTERNAL", "internal error")
	}
}

func (s *Server) handleNoRoute(c *gin.Context) {
	writeErrorCode(c, http.StatusNotFound, "NOT_FOUND", "not found")
}

// handleReceiveTransactions is the clearing authority's intake: a signed
// transfer order from a member bank, validated, policy-checked and forwarded
// to the destination bank.
func (s *Server) handleReceiveTransactions(c *gin.Context) {
	from, body, ok := s.requireSigned(c)
	if !ok {
		return
	}
	if s.receiveTx == nil {
		writeErrorCode(c, http.StatusForbidden, "FORBIDDEN", "forbidden")
		return
	}
	var order domain.TransferOrder
	if err := json.Unmarshal(body, &order); err != nil {
		writeErrorCode(c, http.StatusBadRequest, "MALFORMED_PAYLOAD", "invalid transfer order")
		return
	}
	if err := s.receiveTx.Execute(c.Request.Context(), from, order); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "accepted"})
}

// handleReceiveCredit is the bank-side intake of an authority-forwarded
// order: credit the destination account.
func (s *Server) handleReceiveCredit(c *gin.Context) {
	_, body, ok := s.requireSigned(c)
	if !ok {
		return
	}
	if s.receiveCredit == nil {
		writeErrorCode(c, http.StatusForbidden, "FORBIDDEN", "forbidden")
		return
	}
	var order domain.TransferOrder
	if err := json.Unmarshal(body, &order); err != nil {
		writeErrorCode(c, http.StatusBadRequest, "MALFORMED_PAYLOAD", "invalid transfer order")
		return
	}
	if err := s.receiveCredit.Execute(c.Request.Context(), order); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "credited"})
}

// handleDirectPayment is the authority's merchant entry point. The request
// authenticates through the site signature inside the body, not the bsw
// header.
func (s *Server) handleDirectPayment(c *gin.Context) {
	if s.directPayment == nil {
		writeErrorCode(c, http.StatusNotFound, "NOT_FOUND", "not found")
		return
	}
	var req domain.PaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeErrorCode(c, http.StatusBadRequest, "MALFORMED_PAYLOAD", "invalid payment request")
		return
	}
	redirect, err := s.directPayment.Prepare(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"redirect_url": redirect})
}

// handlePaymentBegin receives the customer redirect from the authority, opens
// the payment session and sends the browser to the confirmation page. The
// cookie holds only the opaque session token.
func (s *Server) handlePaymentBegin(c *gin.Context) {
	if s.paymentFlow == nil {
		writeErrorCode(c, http.StatusNotFound, "NOT_FOUND", "not found")
		return
	}
	token, err := s.paymentFlow.Begin(c.Request.Context(), c.Param("data"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(sessionCookie, token, s.cfg.SessionTTLSeconds, "/", "", false, true)
	c.Redirect(http.StatusFound, "/pay")
}

func (s *Server) handlePaymentShow(c *gin.Context) {
	if s.paymentFlow == nil {
		writeErrorCode(c, http.StatusNotFound, "NOT_FOUND", "not found")
		return
	}
	token, err := c.Cookie(sessionCookie)
	if err != nil || token == "" {
		writeError(c, domain.ErrSessionInvalid)
		return
	}
	view, err := s.paymentFlow.Show(c.Request.Context(), token)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"amount":         view.Amount,
		"description":    view.Description,
		"recipient_name": view.RecipientName,
		"bank_name":      view.BankName,
		"bank_code":      view.BankCode,
		"hash":           view.Hash,
	})
}

type paymentCommitRequest struct {
	Hash            string `json:"hash"`
	SourceAccountID string `json:"source_account_id"`
}

func (s *Server) handlePaymentCommit(c *gin.Context) {
	if s.paymentFlow == nil {
		writeErrorCode(c, http.StatusNotFound, "NOT_FOUND", "not found")
		return
	}
	token, err := c.Cookie(sessionCookie)
	if err != nil || token == "" {
		writeError(c, domain.ErrSessionInvalid)
		return
	}
	var req paymentCommitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeErrorCode(c, http.StatusBadRequest, "MALFORMED_PAYLOAD", "invalid commit request")
		return
	}

	outcome, err := s.paymentFlow.Commit(c.Request.Context(), token, req.Hash, req.SourceAccountID)
	if outcome != nil {
		// The session is consumed either way; the cookie is done.
		c.SetSameSite(http.SameSiteStrictMode)
		c.SetCookie(sessionCookie, "", -1, "/", "", false, true)
		c.JSON(http.StatusOK, gin.H{
			"success":      outcome.Succeeded,
			"redirect_url": outcome.RedirectURL,
		})
		return
	}
	writeError(c, err)
}

type internalTransferRequest struct {
	SourceAccountID      string          `json:"source_account_id"`
	DestinationAccountID string          `json:"destination_account_id"`
	Amount               decimal.Decimal `json:"amount"`
	Description          string          `json:"description"`
}

func (s *Server) handleInternalTransfer(c *gin.Context) {
	if s.internalTransfer == nil {
		writeErrorCode(c, http.StatusNotFound, "NOT_FOUND", "not found")
		return
	}
	var req internalTransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeErrorCode(c, http.StatusBadRequest, "MALFORMED_PAYLOAD", "invalid transfer request")
		return
	}
	err := s.internalTransfer.Execute(c.Request.Context(), usecase.InternalTransferRequest{
		SourceAccountID:      req.SourceAccountID,
		DestinationAccountID: req.DestinationAccountID,
		Amount:               req.Amount,
		Description:          req.Description,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type globalTransferRequest struct {
	SourceAccountID        string          `json:"source_account_id"`
	DestinationBankName    string          `json:"destination_bank_name"`
	DestinationBankCountry string          `json:"destination_bank_country"`
	DestinationBankCode    string          `json:"destination_bank_code"`
	DestinationAccountID   string          `json:"destination_account_id"`
	RecipientName          string          `json:"recipient_name"`
	Amount                 decimal.Decimal `json:"amount"`
	Description            string          `json:"description"`
}

func (s *Server) handleGlobalTransfer(c *gin.Context) {
	if s.globalTransfer == nil {
		writeErrorCode(c, http.StatusNotFound, "NOT_FOUND", "not found")
		return
	}
	var req globalTransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeErrorCode(c, http.StatusBadRequest, "MALFORMED_PAYLOAD", "invalid transfer request")
		return
	}
	result, err := s.globalTransfer.Execute(c.Request.Context(), domain.GlobalTransferRequest{
		SourceAccountID:        req.SourceAccountID,
		DestinationBankName:    req.DestinationBankName,
		DestinationBankCountry: req.DestinationBankCountry,
		DestinationBankCode:    req.DestinationBankCode,
		DestinationAccountID:   req.DestinationAccountID,
		RecipientName:          req.RecipientName,
		Amount:                 req.Amount,
		Description:            req.Description,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInsufficientFunds):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"result": result, "code": "INSUFFICIENT_FUNDS"})
		case errors.Is(err, domain.ErrMalformedPayload):
			writeErrorCode(c, http.StatusBadRequest, "MALFORMED_PAYLOAD", err.Error())
		case errors.Is(err, domain.ErrNotFound):
			writeErrorCode(c, http.StatusNotFound, "NOT_FOUND", "source account not found")
		case errors.Is(err, domain.ErrReconciliationGap):
			writeErrorCode(c, http.StatusInternalServerError, "RECONCILIATION_GAP", "transfer requires manual reconciliation")
		default:
			c.JSON(http.StatusBadGateway, gin.H{"result": result, "code": "REMOTE_REJECTED"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": result})
}
