package web

import (
	"errors"

	"github.com/dukex/flowgate/pkg/models"
	"github.com/dukex/flowgate/pkg/persistence"
	"github.com/dukex/flowgate/pkg/schema"
	"github.com/dukex/flowgate/pkg/services"
	"github.com/gofiber/fiber/v3"
	"github.com/moogar0880/problems"
)

// IssuesProblem is a problem document listing the findings that caused it.
type IssuesProblem struct {
	*problems.Problem

	Issues []models.ValidationError `json:"issues"`
}

// ReportProblem is a problem document carrying a schema report.
type ReportProblem struct {
	*problems.Problem

	Report schema.Report `json:"report"`
}

func badRequest(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(400).
		WithInstance(c.Path()).
		WithType("validation_error").
		WithDetail(detail)

	return c.Status(fiber.StatusBadRequest).JSON(problem)
}

func notFound(c fiber.Ctx, problemType, detail string) error {
	problem := problems.NewStatusProblem(404).
		WithInstance(c.Path()).
		WithType(problemType).
		WithDetail(detail)

	return c.Status(fiber.StatusNotFound).JSON(problem)
}

// handleServiceError provides typed error handling for service layer errors.
func handleServiceError(c fiber.Ctx, err error) error {
	var flowInvalid *services.FlowInvalidError

	var schemaInvalid *services.SchemaInvalidError

	switch {
	case errors.As(err, &flowInvalid):
		problem := problems.NewStatusProblem(409).
			WithInstance(c.Path()).
			WithType("flow_invalid").
			WithDetail(err.Error())

		return c.Status(fiber.StatusConflict).JSON(IssuesProblem{Problem: problem, Issues: flowInvalid.Issues})

	case errors.As(err, &schemaInvalid):
		problem := problems.NewStatusProblem(400).
			WithInstance(c.Path()).
			WithType("schema_invalid").
			WithDetail(err.Error())

		return c.Status(fiber.StatusBadRequest).JSON(ReportProblem{Problem: problem, Report: schemaInvalid.Report})

	case services.IsValidationError(err):
		return badRequest(c, err.Error())

	case services.IsConflictError(err):
		problem := problems.NewStatusProblem(409).
			WithInstance(c.Path()).
			WithType("conflict").
			WithDetail(err.Error())

		return c.Status(fiber.StatusConflict).JSON(problem)

	case persistence.IsFlowNotFound(err):
		return notFound(c, "flow_not_found", "flow not found")

	case persistence.IsSchemaNotFound(err):
		return notFound(c, "schema_not_found", "schema not found")

	case services.IsNotFoundError(err):
		return notFound(c, "node_not_found", "node not found")

	default:
		problem := problems.NewStatusProblem(500).
			WithInstance(c.Path()).
			WithType("internal_error").
			WithError(err)

		return c.Status(fiber.StatusInternalServerError).JSON(problem)
	}
}
