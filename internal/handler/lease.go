package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/roofline/roofline-backend/internal/httpx"
	"github.com/roofline/roofline-backend/internal/middleware"
	"github.com/roofline/roofline-backend/internal/model"
	"github.com/roofline/roofline-backend/internal/repository"
)

// LeaseStore is the slice of the lease repository the payable
// endpoint depends on.
type LeaseStore interface {
	GetByID(ctx context.Context, id uint64) (model.Lease, error)
}

// LeaseHandler serves the authoritative payable amount for a lease.
// The payment service calls this endpoint with the end user's bearer
// token instead of trusting any client-supplied amount.
type LeaseHandler struct {
	Leases LeaseStore
}

func NewLeaseHandler(leases LeaseStore) *LeaseHandler {
	return &LeaseHandler{Leases: leases}
}

type payableResp struct {
	LeaseID      uint64 `json:"leaseId"`
	TenantID     uint64 `json:"tenantId"`
	TotalPayable string `json:"totalPayable"` // decimal string, e.g. "660.00"
	Currency     string `json:"currency"`
}

// Payable returns rent plus late charges currently due on the lease.
// Tenants can only read their own lease; managers and owners can read
// any.
func (h *LeaseHandler) Payable(c echo.Context) error {
	p, ok := middleware.CurrentPrincipal(c)
	if !ok {
		return httpx.Fail(c, http.StatusUnauthorized, "authentication token is required")
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return httpx.Fail(c, http.StatusBadRequest, "invalid lease id")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	lease, err := h.Leases.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return httpx.Fail(c, http.StatusNotFound, "lease not found")
		}
		c.Logger().Errorf("payable: load lease: %v", err)
		return httpx.Fail(c, http.StatusInternalServerError, "could not load lease")
	}
	if p.Role == model.RoleTenant && lease.TenantID != p.UserID {
		return httpx.Fail(c, http.StatusForbidden, "not your lease")
	}

	return httpx.OK(c, http.StatusOK, payableResp{
		LeaseID:      lease.ID,
		TenantID:     lease.TenantID,
		TotalPayable: centsToDecimal(lease.TotalPayableCents()),
		Currency:     "USD",
	}, "")
}

// centsToDecimal renders integer cents as a two-digit decimal string.
func centsToDecimal(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}
