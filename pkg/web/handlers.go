package web

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/dukex/flowgate/pkg/models"
	"github.com/dukex/flowgate/pkg/services"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

type APIHandlers struct {
	flowService   *services.Flow
	schemaService *services.Schema
	validator     *validator.Validate
}

func NewAPIHandlers(
	flowService *services.Flow,
	schemaService *services.Schema,
	validator *validator.Validate,
) *APIHandlers {
	return &APIHandlers{
		flowService:   flowService,
		schemaService: schemaService,
		validator:     validator,
	}
}

func (h *APIHandlers) GetFlows(c fiber.Ctx) error {
	req, err := parseListFlowsRequest(c)
	if err != nil {
		return badRequest(c, "Invalid query parameters: "+err.Error())
	}

	page, err := h.flowService.List(c.Context(), *req)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(ListFlowsResponse{
		FlowListResult: page.FlowListResult,
		Pagination:     Pagination{Limit: page.Options.Limit, Offset: page.Options.Offset},
		Sorting:        Sorting{SortBy: page.Options.SortBy, SortOrder: page.Options.SortOrder},
	})
}

func parseListFlowsRequest(c fiber.Ctx) (*services.ListFlowsRequest, error) {
	req := &services.ListFlowsRequest{}

	if limitStr := c.Query("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil {
			return nil, err
		}

		req.Limit = limit
	}

	if offsetStr := c.Query("offset"); offsetStr != "" {
		offset, err := strconv.Atoi(offsetStr)
		if err != nil {
			return nil, err
		}

		req.Offset = offset
	}

	if statusStr := c.Query("status"); statusStr != "" {
		status := models.FlowStatus(statusStr)
		req.Status = &status
	}

	req.SortBy = c.Query("sort_by")
	req.SortOrder = c.Query("sort_order")

	return req, nil
}

func (h *APIHandlers) CreateFlow(c fiber.Ctx) error {
	var req CreateFlowRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	created, err := h.flowService.Create(c.Context(), services.CreateFlowRequest{
		Name:        req.Name,
		Description: req.Description,
		Environment: models.Environment(req.Environment),
	})
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *APIHandlers) GetFlow(c fiber.Ctx) error {
	flow, err := h.flowService.FetchByID(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(flow)
}

func (h *APIHandlers) DeleteFlow(c fiber.Ctx) error {
	if err := h.flowService.Delete(c.Context(), c.Params("id")); err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) UpdateGraph(c fiber.Ctx) error {
	var req UpdateGraphRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format: "+err.Error())
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	if req.Edges == nil {
		req.Edges = []*models.Edge{}
	}

	flow, err := h.flowService.UpdateGraph(c.Context(), c.Params("id"), req.Nodes, req.Edges)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(flow)
}

func (h *APIHandlers) PatchStart(c fiber.Ctx) error {
	patch := c.Body()
	if len(patch) > 0 && !json.Valid(patch) {
		return badRequest(c, "Invalid JSON format")
	}

	flow, issues, err := h.flowService.PatchStart(c.Context(), c.Params("id"), patch)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(StartConfigResponse{Flow: flow, Issues: issues})
}

func (h *APIHandlers) AddNode(c fiber.Ctx) error {
	var req AddNodeRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	node, err := h.flowService.AddNode(c.Context(), c.Params("id"), services.AddNodeRequest{
		Type:     models.NodeType(req.Type),
		Position: req.Position,
		Data:     req.Data,
	})
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(node)
}

func (h *APIHandlers) RemoveNode(c fiber.Ctx) error {
	flow, err := h.flowService.RemoveNode(c.Context(), c.Params("id"), c.Params("nodeId"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(flow)
}

func (h *APIHandlers) Connect(c fiber.Ctx) error {
	var req ConnectRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	edge, err := h.flowService.Connect(c.Context(), c.Params("id"), services.ConnectRequest{
		Source:       req.Source,
		Target:       req.Target,
		SourceHandle: req.SourceHandle,
	})
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(edge)
}

func (h *APIHandlers) ValidateFlow(c fiber.Ctx) error {
	result, err := h.flowService.Validate(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(result)
}

func (h *APIHandlers) ActivateFlow(c fiber.Ctx) error {
	flow, warnings, err := h.flowService.Activate(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(ActivationResponse{Flow: flow, Warnings: warnings})
}

func (h *APIHandlers) DeactivateFlow(c fiber.Ctx) error {
	var req DeactivateRequest

	if len(c.Body()) > 0 {
		if err := c.Bind().JSON(&req); err != nil {
			return badRequest(c, "Invalid JSON format")
		}
	}

	flow, err := h.flowService.Deactivate(c.Context(), c.Params("id"), req.Reason)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(flow)
}

// ValidateDefinition checks an unsaved flow without storing it.
func (h *APIHandlers) ValidateDefinition(c fiber.Ctx) error {
	var req ValidateFlowRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format: "+err.Error())
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	flow := &models.Flow{
		Nodes:       req.Nodes,
		Edges:       req.Edges,
		Environment: models.ParseEnvironment(req.Environment),
	}

	inputSchema := ""
	if len(req.InputSchema) > 0 {
		inputSchema = schemaText(req.InputSchema)
	}

	issues, err := h.flowService.ValidateDefinition(c.Context(), flow, inputSchema)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(ValidateFlowResponse{Valid: !models.HasErrors(issues), Issues: issues})
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	repositoryCheck, repOk := h.flowService.HealthCheck(c.Context())

	response := HealthResponse{
		Status:    "unhealthy",
		Message:   "Flowgate API is unhealthy",
		Checkers:  map[string]string{"repository": repositoryCheck},
		Timestamp: time.Now().UTC(),
	}
	httpStatus := http.StatusInternalServerError

	if repOk {
		response.Status = "healthy"
		response.Message = "Flowgate API is healthy"
		httpStatus = http.StatusOK
	}

	return c.Status(httpStatus).JSON(response)
}
