package payment

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/roofline/roofline-backend/internal/httpx"
)

// Handler exposes the payment-intent endpoint.
type Handler struct {
	Svc *Service
}

func NewHandler(svc *Service) *Handler { return &Handler{Svc: svc} }

type createIntentReq struct {
	LeaseID uint64 `json:"leaseId"`
	// Amount is deliberately accepted and then ignored: the
	// authoritative figure comes from the core service.
	Amount string `json:"amount"`
}

// CreateIntent handles POST /v1/payment-intents.  The end user's
// bearer token is forwarded to the core service, which decides
// whether this user may pay this lease.
func (h *Handler) CreateIntent(c echo.Context) error {
	header := c.Request().Header.Get("Authorization")
	if header == "" {
		return httpx.Fail(c, http.StatusUnauthorized, "authentication token is required")
	}
	if !strings.HasPrefix(header, "Bearer ") {
		return httpx.Fail(c, http.StatusUnauthorized, "malformed authorization header, expected 'Bearer <token>'")
	}
	bearer := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))

	var req createIntentReq
	if err := c.Bind(&req); err != nil {
		return httpx.Fail(c, http.StatusBadRequest, "invalid request body")
	}
	if req.LeaseID == 0 {
		return httpx.Fail(c, http.StatusBadRequest, "leaseId is required")
	}
	if req.Amount != "" {
		c.Logger().Infof("payment-intent: ignoring client-supplied amount %q for lease %d", req.Amount, req.LeaseID)
	}

	intent, err := h.Svc.CreateIntent(c.Request().Context(), CreateIntentInput{
		LeaseID:      req.LeaseID,
		ClientAmount: req.Amount,
		Bearer:       bearer,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrUpstreamUnavailable):
			return httpx.Fail(c, http.StatusBadGateway, "could not determine payable amount")
		case errors.Is(err, ErrProcessorRejected):
			return httpx.Fail(c, http.StatusBadGateway, "payment processor rejected the request")
		}
		c.Logger().Errorf("payment-intent: %v", err)
		return httpx.Fail(c, http.StatusInternalServerError, "payment intent creation failed")
	}
	return httpx.OK(c, http.StatusCreated, intent, "payment intent created")
}
