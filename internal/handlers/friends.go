package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/splitnest/splitnest/internal/middleware"
	"github.com/splitnest/splitnest/internal/models"
	"github.com/splitnest/splitnest/internal/realtime"
	"github.com/splitnest/splitnest/internal/services"
	"github.com/splitnest/splitnest/pkg/response"
)

// FriendHandler exposes the friend list, invitation and settlement endpoints.
type FriendHandler struct {
	friends     *services.FriendService
	settlements *services.SettlementService
	users       *services.UserService
	hub         *realtime.Hub
}

func NewFriendHandler(friends *services.FriendService, settlements *services.SettlementService, users *services.UserService, hub *realtime.Hub) *FriendHandler {
	return &FriendHandler{friends: friends, settlements: settlements, users: users, hub: hub}
}

type addFriendRequest struct {
	Name        string  `json:"name" validate:"required,max=120"`
	PhoneNumber string  `json:"phone_number" validate:"required,max=32"`
	Email       *string `json:"email" validate:"omitempty,email"`
}

type updateFriendRequest struct {
	Name        *string `json:"name" validate:"omitempty,max=120"`
	PhoneNumber *string `json:"phone_number" validate:"omitempty,max=32"`
	Email       *string `json:"email" validate:"omitempty,email"`
}

type inviteRequest struct {
	FriendName  string `json:"friend_name" validate:"required,max=120"`
	FriendPhone string `json:"friend_phone" validate:"required,max=32"`
}

type acceptRequest struct {
	InvitationID string `json:"invitation_id" validate:"required"`
}

func friendPayload(link *models.FriendLink) gin.H {
	return gin.H{
		"id":           link.ID,
		"name":         link.Name,
		"phone_number": link.PhoneNumber,
		"email":        link.Email,
		"status":       link.DisplayStatus(),
		"created_at":   link.CreatedAt,
	}
}

// GET /api/friends
func (h *FriendHandler) List(c *gin.Context) {
	links, err := h.friends.ListFriends(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	results := make([]gin.H, 0, len(links))
	for i := range links {
		results = append(results, friendPayload(&links[i]))
	}
	response.Success(c, http.StatusOK, gin.H{"friends": results})
}

// POST /api/friends
func (h *FriendHandler) Add(c *gin.Context) {
	var req addFriendRequest
	if !bindAndValidate(c, &req) {
		return
	}

	userID := middleware.UserID(c)
	link, err := h.friends.AddDirect(c.Request.Context(), userID, services.AddFriendInput{
		Name:        req.Name,
		PhoneNumber: req.PhoneNumber,
		Email:       req.Email,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	h.hub.Broadcast(userID, realtime.Event{Type: "friend_added", Data: friendPayload(link)})

	response.Success(c, http.StatusCreated, friendPayload(link))
}

// PUT /api/friends/:id
func (h *FriendHandler) Update(c *gin.Context) {
	var req updateFriendRequest
	if !bindAndValidate(c, &req) {
		return
	}

	link, err := h.friends.UpdateDirect(c.Request.Context(), middleware.UserID(c), c.Param("id"), services.UpdateFriendInput{
		Name:        req.Name,
		PhoneNumber: req.PhoneNumber,
		Email:       req.Email,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, friendPayload(link))
}

// DELETE /api/friends/:id
func (h *FriendHandler) Remove(c *gin.Context) {
	err := h.friends.RemoveDirect(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

// POST /api/friends/invite
func (h *FriendHandler) Invite(c *gin.Context) {
	var req inviteRequest
	if !bindAndValidate(c, &req) {
		return
	}

	inviter, err := h.users.GetByID(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	result, err := h.friends.CreateInvitation(c.Request.Context(), inviter, services.InviteInput{
		FriendName:  req.FriendName,
		FriendPhone: req.FriendPhone,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{
		"invitation_id":  result.Invitation.ID,
		"friend_link_id": result.FriendLink.ID,
	})
}

// GET /api/friends/pending
func (h *FriendHandler) Pending(c *gin.Context) {
	user, err := h.users.GetByID(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	invitations, err := h.friends.ListPendingInvitations(c.Request.Context(), user.Phone)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"invitations": invitations})
}

// POST /api/friends/accept
func (h *FriendHandler) Accept(c *gin.Context) {
	var req acceptRequest
	if !bindAndValidate(c, &req) {
		return
	}

	userID := middleware.UserID(c)
	acceptor, err := h.users.GetByID(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	result, err := h.settlements.Accept(c.Request.Context(), req.InvitationID, acceptor)
	if err != nil {
		response.Error(c, err)
		return
	}

	h.hub.Broadcast(userID, realtime.Event{Type: "invitation_accepted", Data: gin.H{
		"invitation_id": result.Invitation.ID,
		"inviter_id":    result.InviterID,
		"acceptor_id":   userID,
	}})

	response.Success(c, http.StatusOK, gin.H{"accepted": true})
}
