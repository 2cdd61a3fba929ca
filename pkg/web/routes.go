package web

import "github.com/gofiber/fiber/v3"

// RegisterRoutes mounts every flowgate endpoint on router.
func RegisterRoutes(router fiber.Router, h *APIHandlers) {
	router.Post("/validate", h.ValidateDefinition)

	s := router.Group("/schemas")
	s.Post("/validate", h.ValidateSchema)
	s.Post("/sample", h.SampleSchema)
	s.Post("/idempotency-key", h.IdempotencyKey)
	s.Post("/check", h.CheckPayload)
	s.Put("/:ref", h.PutSchema)
	s.Get("/:ref", h.GetSchema)

	f := router.Group("/flows")
	f.Get("/", h.GetFlows)
	f.Post("/", h.CreateFlow)
	f.Get("/:id", h.GetFlow)
	f.Delete("/:id", h.DeleteFlow)
	f.Put("/:id/graph", h.UpdateGraph)
	f.Patch("/:id/start", h.PatchStart)
	f.Post("/:id/validate", h.ValidateFlow)
	f.Post("/:id/activate", h.ActivateFlow)
	f.Post("/:id/deactivate", h.DeactivateFlow)
	f.Post("/:id/nodes", h.AddNode)
	f.Delete("/:id/nodes/:nodeId", h.RemoveNode)
	f.Post("/:id/edges", h.Connect)

	router.Get("/health", h.HealthCheck)
}
