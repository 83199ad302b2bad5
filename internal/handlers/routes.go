package handlers

import (
	"github.com/gofiber/fiber/v2"
)

// Routes bundles the handlers mounted under /api
type Routes struct {
	Models   *ModelHandler
	Sessions *SessionHandler
	Admin    fiber.Handler
}

// Register mounts the configurator routes on api
func Register(api fiber.Router, r Routes) {
	// Model routes (public GET, admin POST/DELETE)
	models := api.Group("/models")
	models.Get("/", r.Models.ListModels)
	models.Get("/:model", r.Models.GetModel)
	models.Get("/:model/revisions", r.Models.GetRevisions)
	models.Post("/:model/validate", r.Models.ValidateModel)

	// Admin-only model routes
	models.Post("/:model/rules", r.Admin, r.Models.SaveRule)
	models.Post("/:model", r.Admin, r.Models.SaveModel)
	models.Delete("/:model", r.Admin, r.Models.DeleteModel)

	// Viewer session routes
	sessions := api.Group("/sessions")
	sessions.Post("/", r.Sessions.CreateSession)
	sessions.Get("/:id", r.Sessions.GetSession)
	sessions.Get("/:id/scene.glb", r.Sessions.ExportScene)
	sessions.Post("/:id/selection", r.Sessions.SetSelection)
	sessions.Post("/:id/swap", r.Sessions.SwapDoor)
	sessions.Post("/:id/fit", r.Sessions.FitCamera)
	sessions.Delete("/:id", r.Sessions.DeleteSession)

	api.Post("/camera/fit", FitBox)
}
