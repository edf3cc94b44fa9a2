package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/splitnest/splitnest/internal/middleware"
	"github.com/splitnest/splitnest/internal/models"
	"github.com/splitnest/splitnest/internal/services"
	"github.com/splitnest/splitnest/pkg/response"
)

// UserHandler exposes user lookup and search endpoints.
type UserHandler struct {
	users *services.UserService
}

func NewUserHandler(users *services.UserService) *UserHandler {
	return &UserHandler{users: users}
}

type searchRequest struct {
	Query string `json:"query" validate:"required,min=1,max=120"`
}

type phoneLookupRequest struct {
	Phone string `json:"phone" validate:"required"`
}

func publicUserPayload(user *models.User) gin.H {
	return gin.H{
		"id":    user.ID,
		"name":  user.Name,
		"phone": user.Phone,
		"email": user.Email,
	}
}

// POST /api/users/search
func (h *UserHandler) Search(c *gin.Context) {
	var req searchRequest
	if !bindAndValidate(c, &req) {
		return
	}

	users, err := h.users.Search(c.Request.Context(), req.Query, middleware.UserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	results := make([]gin.H, 0, len(users))
	for i := range users {
		results = append(results, publicUserPayload(&users[i]))
	}
	response.Success(c, http.StatusOK, gin.H{"users": results})
}

// POST /api/users/check
//
// Unauthenticated existence probe used by the invite flow before sending an
// invitation to a phone number.
func (h *UserHandler) Check(c *gin.Context) {
	var req phoneLookupRequest
	if !bindAndValidate(c, &req) {
		return
	}

	exists, err := h.users.Exists(c.Request.Context(), req.Phone)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"exists": exists})
}

// POST /api/users/by-phone
func (h *UserHandler) ByPhone(c *gin.Context) {
	var req phoneLookupRequest
	if !bindAndValidate(c, &req) {
		return
	}

	user, err := h.users.FindByPhone(c.Request.Context(), req.Phone)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, publicUserPayload(user))
}
