package claim

import (
	"errors"
	"net/http"
	"strconv"

	"miny/internal/api"
	"miny/internal/logger"
	"miny/internal/slot"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

type ClaimRequest struct {
	SlotID int    `json:"slot_id" binding:"required,min=1" example:"12"`
	Name   string `json:"name" binding:"required" example:"Ben"`
}

type ClaimResponse struct {
	Slot          slot.PublicSlot `json:"slot"`
	ClaimantName  string          `json:"claimant_name"`
	ParticipantID int             `json:"participant_id,omitempty"`
	AssignedLink  string          `json:"assigned_link"`
}

// GetPage godoc
// @Summary      Public host page
// @Description  Lists the open slots of a host from today on.
// @Tags         public
// @Produce      json
// @Param        slug        path      string  true   "Host slug"
// @Param        onlyRemote  query     bool    false  "Only remote slots"
// @Param        assigned    query     int     false  "Slot just claimed by the visitor"
// @Success      200         {object}  HostPage
// @Failure      404         {object}  api.ErrorResponse
// @Failure      500         {object}  api.ErrorResponse
// @Router       /u/{slug} [get]
func (h *Handler) GetPage(c *gin.Context) {
	remote := c.Query("onlyRemote")
	q := PageQuery{OnlyRemote: remote == "true" || remote == "on"}

	if raw := c.Query("assigned"); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid assigned slot ID"})
			return
		}
		q.AssignedID = id
	}

	page, err := h.service.Page(c.Request.Context(), c.Param("slug"), q)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, page)
}

// Claim godoc
// @Summary      Claim a slot
// @Description  Takes an individual slot or a place in a group slot of the host.
// @Tags         public
// @Accept       json
// @Produce      json
// @Param        slug     path      string        true  "Host slug"
// @Param        request  body      ClaimRequest  true  "Claim"
// @Success      201      {object}  ClaimResponse
// @Failure      400      {object}  api.ErrorResponse
// @Failure      404      {object}  api.ErrorResponse
// @Failure      409      {object}  api.ErrorResponse
// @Failure      429      {object}  api.ErrorResponse
// @Failure      500      {object}  api.ErrorResponse
// @Router       /u/{slug}/claim [post]
func (h *Handler) Claim(c *gin.Context) {
	var req ClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid request body"})
		return
	}

	slug := c.Param("slug")
	confirmed, err := h.service.ClaimOnPage(c.Request.Context(), slug, req.SlotID, req.Name)
	if err != nil {
		h.respondError(c, err)
		return
	}

	resp := ClaimResponse{
		Slot:         confirmed.Slot.Public(),
		ClaimantName: confirmed.ClaimantName,
		AssignedLink: "/u/" + slug + "?assigned=" + strconv.Itoa(confirmed.Slot.ID),
	}
	if confirmed.Participant != nil {
		resp.ParticipantID = confirmed.Participant.ID
	}

	c.JSON(http.StatusCreated, resp)
}

func (h *Handler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrInvalidName):
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Name must be 1 to 100 printable characters", Code: "invalid_name"})
	case errors.Is(err, ErrHostNotFound):
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Host not found"})
	case errors.Is(err, ErrSlotNotFound):
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Slot not found"})
	case errors.Is(err, ErrAlreadyClaimed):
		c.JSON(http.StatusConflict, api.ErrorResponse{Error: "Someone else was faster, please pick another slot", Code: "already_claimed"})
	case errors.Is(err, ErrGroupFull):
		c.JSON(http.StatusConflict, api.ErrorResponse{Error: "This group is already full", Code: "group_full"})
	default:
		logger.WithError(err).Error("claim request failed", "path", c.FullPath())
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Internal server error"})
	}
}
