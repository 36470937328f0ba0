package handlers

import (
	"shg-finance/internal/adapters/http/middleware"
	"shg-finance/internal/core/services"
	"shg-finance/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// SDGHandler handles SDG mapping and impact endpoints
type SDGHandler struct {
	sdgService *services.SDGService
}

// NewSDGHandler creates a new SDG handler
func NewSDGHandler(sdgService *services.SDGService) *SDGHandler {
	return &SDGHandler{sdgService: sdgService}
}

// ListMappings returns the keyword to goal table
// @Summary List SDG mappings
// @Tags SDG
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=[]models.SDGMapping}
// @Router /api/sdg/mappings [get]
func (h *SDGHandler) ListMappings(c *fiber.Ctx) error {
	mappings, err := h.sdgService.ListMappings(c.UserContext(), middleware.Principal(c))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "SDG mappings retrieved successfully", mappings)
}

// CreateMapping adds a keyword mapping (Admin only)
// @Summary Create SDG mapping
// @Tags SDG
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.CreateMappingInput true "Mapping"
// @Success 201 {object} response.Response{data=models.SDGMapping}
// @Failure 400 {object} response.Response
// @Router /api/sdg/mappings [post]
func (h *SDGHandler) CreateMapping(c *fiber.Ctx) error {
	var req services.CreateMappingInput
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	mapping, err := h.sdgService.CreateMapping(c.UserContext(), middleware.Principal(c), &req)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Created(c, "SDG mapping created successfully", mapping)
}

// ListImpacts returns a group's impact records
// @Summary Group SDG impacts
// @Tags SDG
// @Produce json
// @Security BearerAuth
// @Param groupId path int true "Group ID"
// @Success 200 {object} response.Response{data=[]models.SDGImpact}
// @Router /api/sdg/impact/{groupId} [get]
func (h *SDGHandler) ListImpacts(c *fiber.Ctx) error {
	groupID, err := paramID(c, "groupId")
	if err != nil {
		return response.FromError(c, err)
	}

	impacts, err := h.sdgService.ListImpacts(c.UserContext(), middleware.Principal(c), groupID)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "SDG impacts retrieved successfully", impacts)
}

// Summary totals a group's impact per goal
// @Summary Group SDG impact summary
// @Tags SDG
// @Produce json
// @Security BearerAuth
// @Param groupId path int true "Group ID"
// @Success 200 {object} response.Response{data=services.ImpactSummary}
// @Router /api/sdg/impact/{groupId}/summary [get]
func (h *SDGHandler) Summary(c *fiber.Ctx) error {
	groupID, err := paramID(c, "groupId")
	if err != nil {
		return response.FromError(c, err)
	}

	summary, err := h.sdgService.Summary(c.UserContext(), middleware.Principal(c), groupID)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "SDG summary retrieved successfully", summary)
}

// RecordImpact stores a manual impact record
// @Summary Record SDG impact
// @Tags SDG
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.RecordImpactInput true "Impact"
// @Success 201 {object} response.Response{data=models.SDGImpact}
// @Failure 400 {object} response.Response
// @Router /api/sdg/impact [post]
func (h *SDGHandler) RecordImpact(c *fiber.Ctx) error {
	var req services.RecordImpactInput
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	impact, err := h.sdgService.RecordImpact(c.UserContext(), middleware.Principal(c), &req)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Created(c, "SDG impact recorded successfully", impact)
}
