package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/splitnest/splitnest/internal/middleware"
	"github.com/splitnest/splitnest/internal/realtime"
	"github.com/splitnest/splitnest/internal/services"
	appErrors "github.com/splitnest/splitnest/pkg/errors"
	"github.com/splitnest/splitnest/pkg/response"
)

// ExpenseHandler exposes personal, shared and merged expense endpoints.
type ExpenseHandler struct {
	expenses *services.ExpenseService
	shared   *services.SharedExpenseService
	hub      *realtime.Hub
}

func NewExpenseHandler(expenses *services.ExpenseService, shared *services.SharedExpenseService, hub *realtime.Hub) *ExpenseHandler {
	return &ExpenseHandler{expenses: expenses, shared: shared, hub: hub}
}

type shareRequest struct {
	FriendLinkID string          `json:"friend_link_id" validate:"required"`
	Amount       decimal.Decimal `json:"amount" validate:"required"`
}

type createExpenseRequest struct {
	Title    string          `json:"title" validate:"required,max=200"`
	Amount   decimal.Decimal `json:"amount" validate:"required"`
	Date     string          `json:"date" validate:"omitempty"`
	Category string          `json:"category" validate:"omitempty,max=40"`
	Note     string          `json:"note" validate:"omitempty,max=500"`
	Shares   []shareRequest  `json:"shares" validate:"omitempty,dive"`
}

type updateExpenseRequest struct {
	Title    *string          `json:"title" validate:"omitempty,max=200"`
	Amount   *decimal.Decimal `json:"amount"`
	Date     *string          `json:"date"`
	Category *string          `json:"category" validate:"omitempty,max=40"`
	Note     *string          `json:"note" validate:"omitempty,max=500"`
}

// parseExpenseDate accepts both date-only and RFC 3339 timestamps.
func parseExpenseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, raw)
}

// GET /api/personal-expenses
func (h *ExpenseHandler) ListPersonal(c *gin.Context) {
	expenses, err := h.expenses.ListPersonal(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"expenses": expenses})
}

// POST /api/personal-expenses
func (h *ExpenseHandler) CreatePersonal(c *gin.Context) {
	var req createExpenseRequest
	if !bindAndValidate(c, &req) {
		return
	}

	date, err := parseExpenseDate(req.Date)
	if err != nil {
		response.Error(c, appErrors.NewBadRequest("date must be YYYY-MM-DD or RFC 3339"))
		return
	}

	expense, err := h.expenses.CreatePersonal(c.Request.Context(), middleware.UserID(c), services.CreatePersonalExpenseInput{
		Title:    req.Title,
		Amount:   req.Amount,
		Date:     date,
		Category: services.ResolveCategory(req.Category),
		Note:     req.Note,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, expense)
}

// PUT /api/personal-expenses/:id
func (h *ExpenseHandler) UpdatePersonal(c *gin.Context) {
	var req updateExpenseRequest
	if !bindAndValidate(c, &req) {
		return
	}

	input := services.UpdatePersonalExpenseInput{
		Title:  req.Title,
		Amount: req.Amount,
		Note:   req.Note,
	}
	if req.Date != nil {
		date, err := parseExpenseDate(*req.Date)
		if err != nil {
			response.Error(c, appErrors.NewBadRequest("date must be YYYY-MM-DD or RFC 3339"))
			return
		}
		input.Date = &date
	}
	if req.Category != nil {
		category := services.ResolveCategory(*req.Category)
		input.Category = &category
	}

	expense, err := h.expenses.UpdatePersonal(c.Request.Context(), middleware.UserID(c), c.Param("id"), input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, expense)
}

// DELETE /api/personal-expenses/:id
func (h *ExpenseHandler) RemovePersonal(c *gin.Context) {
	err := h.expenses.RemovePersonal(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

// GET /api/expenses
func (h *ExpenseHandler) ListMerged(c *gin.Context) {
	merged, err := h.expenses.ListMerged(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"expenses": merged})
}

// POST /api/expenses
//
// General creation endpoint: a request carrying shares becomes a shared
// expense, one without becomes a personal expense.
func (h *ExpenseHandler) Create(c *gin.Context) {
	var req createExpenseRequest
	if !bindAndValidate(c, &req) {
		return
	}

	date, err := parseExpenseDate(req.Date)
	if err != nil {
		response.Error(c, appErrors.NewBadRequest("date must be YYYY-MM-DD or RFC 3339"))
		return
	}

	userID := middleware.UserID(c)

	if len(req.Shares) == 0 {
		expense, err := h.expenses.CreatePersonal(c.Request.Context(), userID, services.CreatePersonalExpenseInput{
			Title:    req.Title,
			Amount:   req.Amount,
			Date:     date,
			Category: services.ResolveCategory(req.Category),
			Note:     req.Note,
		})
		if err != nil {
			response.Error(c, err)
			return
		}
		response.Success(c, http.StatusCreated, gin.H{"id": expense.ID, "kind": services.ExpenseKindPersonal})
		return
	}

	shares := make([]services.ShareInput, 0, len(req.Shares))
	for _, share := range req.Shares {
		shares = append(shares, services.ShareInput{
			FriendLinkID: share.FriendLinkID,
			Amount:       share.Amount,
		})
	}

	expense, err := h.shared.Create(c.Request.Context(), userID, services.CreateSharedExpenseInput{
		Title:  req.Title,
		Amount: req.Amount,
		Date:   date,
		Shares: shares,
		Note:   req.Note,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	h.hub.Broadcast(userID, realtime.Event{Type: "expense_added", Data: gin.H{
		"id":           expense.ID,
		"title":        expense.Title,
		"amount":       expense.Amount,
		"participants": expense.Participants,
	}})

	response.Success(c, http.StatusCreated, gin.H{"id": expense.ID, "kind": services.ExpenseKindShared})
}

// GET /api/expenses/shared
func (h *ExpenseHandler) ListShared(c *gin.Context) {
	expenses, err := h.shared.ListForUser(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"expenses": expenses})
}
