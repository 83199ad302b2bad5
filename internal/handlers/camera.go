package handlers

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/jam-build-configurator/internal/services"
	"github.com/localnerve/jam-build-configurator/internal/types"
	"github.com/localnerve/jam-build-configurator/internal/utils"
)

// FitBox handles POST /api/camera/fit
// @Summary Frame a bounding box
// @Description Compute a camera position framing a box. Inverted extents clamp to zero.
// @Tags Camera
// @Accept json
// @Produce json
// @Param body body object true "Box {min, max}, fov and margin"
// @Success 200 {object} types.CameraFitResult
// @Failure 400 {object} utils.ErrorResponseStruct
// @Router /camera/fit [post]
func FitBox(c *fiber.Ctx) error {
	var body struct {
		Box *struct {
			Min mgl64.Vec3 `json:"min"`
			Max mgl64.Vec3 `json:"max"`
		} `json:"box"`
		Fov    types.FlexFloat64 `json:"fov"`
		Margin types.FlexFloat64 `json:"margin"`
	}

	if err := c.BodyParser(&body); err != nil || body.Box == nil {
		return utils.ErrorResponse(c, "Invalid input", fiber.StatusBadRequest, "configurator.validation.input")
	}

	box := types.BoundingBox{Min: body.Box.Min, Max: body.Box.Max, Valid: true}
	return utils.SuccessResponse(c, services.ComputeFit(box, body.Fov.Float64(), body.Margin.Float64()), fiber.StatusOK)
}
