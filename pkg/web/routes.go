package web

import "github.com/gofiber/fiber/v3"

// RegisterRoutes mounts every API endpoint on router.
func RegisterRoutes(router fiber.Router, handlers *APIHandlers) {
	w := router.Group("/workflows")
	w.Get("/", handlers.GetWorkflows)
	w.Post("/", handlers.CreateWorkflow)
	w.Get("/:id", handlers.GetWorkflow)
	w.Patch("/:id", handlers.UpdateWorkflow)
	w.Delete("/:id", handlers.DeleteWorkflow)

	// Stored graph endpoints:
	w.Get("/:id/graph", handlers.GetGraph)
	w.Put("/:id/graph", handlers.SaveGraph)
	w.Post("/:id/graph/validate", handlers.ValidateGraph)
	w.Post("/:id/graph/import", handlers.ImportGraph)

	// Draft endpoints:
	d := w.Group("/:id/draft")
	d.Post("/", handlers.OpenDraft)
	d.Get("/", handlers.GetDraft)
	d.Delete("/", handlers.DiscardDraft)
	d.Post("/nodes", handlers.AddDraftNode)
	d.Patch("/nodes/:nodeId", handlers.UpdateDraftNode)
	d.Delete("/nodes/:nodeId", handlers.DeleteDraftNode)
	d.Post("/edges", handlers.AddDraftEdge)
	d.Patch("/edges/:edgeId", handlers.UpdateDraftEdge)
	d.Delete("/edges/:edgeId", handlers.DeleteDraftEdge)
	d.Put("/selection", handlers.SelectDraft)
	d.Post("/undo", handlers.UndoDraft)
	d.Post("/redo", handlers.RedoDraft)
	d.Post("/validate", handlers.ValidateDraft)
	d.Post("/save", handlers.SaveDraft)
	d.Post("/shortcut", handlers.DraftShortcut)

	r := router.Group("/roles")
	r.Get("/", handlers.GetRoles)
	r.Post("/", handlers.CreateRole)
	r.Delete("/:id", handlers.DeleteRole)

	docs := router.Group("/documents")
	docs.Get("/", handlers.GetDocuments)
	docs.Post("/", handlers.CreateDocument)
	docs.Get("/:id", handlers.GetDocument)
	docs.Put("/:id", handlers.UpdateDocument)
	docs.Get("/:id/versions", handlers.GetDocumentVersions)
	docs.Get("/:id/compare", handlers.CompareDocumentVersions)
	docs.Post("/:id/versions/:version/restore", handlers.RestoreDocumentVersion)

	router.Post("/diff", handlers.Diff)
	router.Get("/health", handlers.HealthCheck)
}
