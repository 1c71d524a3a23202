package slot

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"miny/internal/api"
	"miny/internal/auth"
	"miny/internal/logger"

	"github.com/gin-gonic/gin"
)

// CapacityReleaser reopens claimed capacity on a slot owned by the caller.
type CapacityReleaser interface {
	RemovePartner(ctx context.Context, caller auth.Caller, slotID int) error
	RemoveParticipant(ctx context.Context, caller auth.Caller, slotID, participantID int) error
}

type Handler struct {
	service  Service
	releaser CapacityReleaser
}

func NewHandler(service Service, releaser CapacityReleaser) *Handler {
	return &Handler{service: service, releaser: releaser}
}

// CreateSlots godoc
// @Summary      Create slots
// @Description  Creates one slot per given day with the same time window and capacity.
// @Tags         slots
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request  body      CreateSlotsRequest  true  "Slot definition"
// @Success      201      {array}   Slot
// @Failure      400      {object}  api.ValidationErrorResponse
// @Failure      401      {object}  api.ErrorResponse
// @Failure      500      {object}  api.ErrorResponse
// @Router       /slots [post]
func (h *Handler) CreateSlots(c *gin.Context) {
	caller, ok := auth.CallerFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "User not authenticated"})
		return
	}

	var req CreateSlotsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid request body"})
		return
	}

	slots, err := h.service.Create(c.Request.Context(), caller, req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, slots)
}

// ListSlots godoc
// @Summary      List my slots
// @Description  Returns all slots of the authenticated host with their participants.
// @Tags         slots
// @Security     BearerAuth
// @Produce      json
// @Success      200  {array}   Slot
// @Failure      401  {object}  api.ErrorResponse
// @Failure      500  {object}  api.ErrorResponse
// @Router       /slots [get]
func (h *Handler) ListSlots(c *gin.Context) {
	caller, ok := auth.CallerFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "User not authenticated"})
		return
	}

	slots, err := h.service.ListMine(c.Request.Context(), caller)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, slots)
}

// GetSlot godoc
// @Summary      Get slot
// @Tags         slots
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      int  true  "Slot ID"
// @Success      200  {object}  Slot
// @Failure      400  {object}  api.ErrorResponse
// @Failure      403  {object}  api.ErrorResponse
// @Failure      404  {object}  api.ErrorResponse
// @Router       /slots/{id} [get]
func (h *Handler) GetSlot(c *gin.Context) {
	caller, ok := auth.CallerFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "User not authenticated"})
		return
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid slot ID"})
		return
	}

	slot, err := h.service.Get(c.Request.Context(), caller, id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, slot)
}

// Act godoc
// @Summary      Run a slot action
// @Description  Dispatches on "action": update, remove-partner, remove-participant or delete.
// @Tags         slots
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      int            true  "Slot ID"
// @Param        request  body      ActionRequest  true  "Action"
// @Success      200      {object}  Slot
// @Failure      400      {object}  api.ErrorResponse
// @Failure      403      {object}  api.ErrorResponse
// @Failure      404      {object}  api.ErrorResponse
// @Failure      409      {object}  api.ErrorResponse
// @Failure      500      {object}  api.ErrorResponse
// @Router       /slots/{id}/actions [post]
func (h *Handler) Act(c *gin.Context) {
	caller, ok := auth.CallerFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "User not authenticated"})
		return
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid slot ID"})
		return
	}

	var req ActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid request body"})
		return
	}

	ctx := c.Request.Context()

	switch req.Action {
	case ActionUpdate:
		slot, err := h.service.Update(ctx, caller, id, req.UpdateSlotRequest)
		if err != nil {
			h.respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, slot)

	case ActionRemovePartner:
		if err := h.releaser.RemovePartner(ctx, caller, id); err != nil {
			h.respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, api.MessageResponse{Message: "Partner removed"})

	case ActionRemoveParticipant:
		if req.ParticipantID <= 0 {
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "participant_id is required"})
			return
		}
		if err := h.releaser.RemoveParticipant(ctx, caller, id, req.ParticipantID); err != nil {
			h.respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, api.MessageResponse{Message: "Participant removed"})

	case ActionDelete:
		if err := h.service.Delete(ctx, caller, id); err != nil {
			h.respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, api.MessageResponse{Message: "Slot deleted"})

	default:
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "unsupported action"})
	}
}

func (h *Handler) respondError(c *gin.Context, err error) {
	var inputErr *InputError

	switch {
	case errors.As(err, &inputErr):
		api.RespondWithValidationErrors(c, inputErr.Fields)
	case errors.Is(err, ErrSlotNotFound):
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Slot not found"})
	case errors.Is(err, ErrParticipantNotFound):
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Participant not found"})
	case errors.Is(err, ErrForbidden):
		c.JSON(http.StatusForbidden, api.ErrorResponse{Error: "You can only manage your own slots"})
	case errors.Is(err, ErrVersionConflict):
		c.JSON(http.StatusConflict, api.ErrorResponse{Error: "Slot was changed in the meantime, reload and try again", Code: "version_conflict"})
	default:
		logger.WithError(err).Error("slot request failed", "path", c.FullPath())
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Internal server error"})
	}
}
