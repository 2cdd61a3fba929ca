package web

import (
	"github.com/dukex/flowgate/pkg/schema"
	"github.com/gofiber/fiber/v3"
)

// ValidateSchema reports on an inline schema. It never stores anything.
func (h *APIHandlers) ValidateSchema(c fiber.Ctx) error {
	var req SchemaRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if len(req.Schema) == 0 {
		return badRequest(c, "schema is required")
	}

	return c.JSON(schema.ValidateSchema(schemaText(req.Schema)))
}

func (h *APIHandlers) SampleSchema(c fiber.Ctx) error {
	var req SchemaRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	sample, err := h.schemaService.Sample(c.Context(), req.Ref, schemaText(req.Schema))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(SampleResponse{Sample: sample})
}

func (h *APIHandlers) IdempotencyKey(c fiber.Ctx) error {
	var req IdempotencyKeyRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	if req.Payload == nil && req.Ref == "" && len(req.Schema) == 0 {
		return badRequest(c, "payload or schema is required")
	}

	key, err := h.schemaService.IdempotencyKey(c.Context(), req.Ref, schemaText(req.Schema), req.Payload, req.Fields)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(IdempotencyKeyResponse{Key: key})
}

func (h *APIHandlers) CheckPayload(c fiber.Ctx) error {
	var req CheckPayloadRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	violations, err := h.schemaService.Check(c.Context(), req.Ref, schemaText(req.Schema), req.Payload)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(CheckPayloadResponse{Valid: len(violations) == 0, Violations: violations})
}

// PutSchema stores the raw request body under :ref.
func (h *APIHandlers) PutSchema(c fiber.Ctx) error {
	report, err := h.schemaService.Put(c.Context(), c.Params("ref"), string(c.Body()))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(report)
}

// GetSchema returns the stored schema text as is.
func (h *APIHandlers) GetSchema(c fiber.Ctx) error {
	text, err := h.schemaService.Get(c.Context(), c.Params("ref"))
	if err != nil {
		return handleServiceError(c, err)
	}

	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)

	return c.SendString(text)
}
