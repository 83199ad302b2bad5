// sessions.go
//
// Rules engine and configuration service for the jam-build 3D product configurator
// Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC
//
// This file is part of jam-build-configurator.
// jam-build-configurator is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any later version.
// jam-build-configurator is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY;
// without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
// See the GNU Affero General Public License for more details.
// You should have received a copy of the GNU Affero General Public License along with jam-build-configurator.
// If not, see <https://www.gnu.org/licenses/>.
// Additional terms under GNU AGPL version 3 section 7:
// a) The reasonable legal notice of original copyright and author attribution must be preserved
//    by including the string: "Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC"
//    in this material, copies, or source code of derived works.

package handlers

import (
	"bytes"

	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/jam-build-configurator/internal/services"
	"github.com/localnerve/jam-build-configurator/internal/types"
	"github.com/localnerve/jam-build-configurator/internal/utils"
)

// SessionHandler handles viewer session routes
type SessionHandler struct {
	Sessions *services.SessionStore
}

// CreateSession handles POST /api/sessions
// @Summary Open a configurator session
// @Description Open a session on a model and apply its initial visibility
// @Tags Sessions
// @Accept json
// @Produce json
// @Param body body object true "Model name"
// @Success 201 {object} services.SessionState
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /sessions [post]
func (h *SessionHandler) CreateSession(c *fiber.Ctx) error {
	var body struct {
		Model string `json:"model"`
	}

	if err := c.BodyParser(&body); err != nil || body.Model == "" {
		return utils.ErrorResponse(c, "Invalid input", fiber.StatusBadRequest, "configurator.validation.input")
	}

	state, err := h.Sessions.Create(c.UserContext(), body.Model)
	if err != nil {
		return serviceError(c, err, "createSession")
	}
	return utils.SuccessResponse(c, state, fiber.StatusCreated)
}

// GetSession handles GET /api/sessions/:id
// @Summary Get session state
// @Tags Sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} services.SessionState
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /sessions/{id} [get]
func (h *SessionHandler) GetSession(c *fiber.Ctx) error {
	state, err := h.Sessions.State(c.Params("id"))
	if err != nil {
		return serviceError(c, err, "getSession")
	}
	return utils.SuccessResponse(c, state, fiber.StatusOK)
}

// SetSelection handles POST /api/sessions/:id/selection
// @Summary Change the selection
// @Description Replace door count, door types and open flags, then apply the resolved visibility
// @Tags Sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param body body types.Selection true "Selection"
// @Success 200 {object} services.SessionState
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /sessions/{id}/selection [post]
func (h *SessionHandler) SetSelection(c *fiber.Ctx) error {
	var sel types.Selection
	if err := c.BodyParser(&sel); err != nil {
		return utils.ErrorResponse(c, "Invalid input", fiber.StatusBadRequest, "configurator.validation.input")
	}

	state, err := h.Sessions.Select(c.Params("id"), sel)
	if err != nil {
		return serviceError(c, err, "setSelection")
	}
	return utils.SuccessResponse(c, state, fiber.StatusOK)
}

// SwapDoor handles POST /api/sessions/:id/swap
// @Summary Swap a door slot finish
// @Tags Sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param body body object true "Slot and direction (toGlass or toSolid)"
// @Success 200 {object} services.SessionState
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /sessions/{id}/swap [post]
func (h *SessionHandler) SwapDoor(c *fiber.Ctx) error {
	var body struct {
		Slot      int                    `json:"slot"`
		Direction services.SwapDirection `json:"direction"`
	}

	if err := c.BodyParser(&body); err != nil {
		return utils.ErrorResponse(c, "Invalid input", fiber.StatusBadRequest, "configurator.validation.input")
	}

	state, err := h.Sessions.Swap(c.Params("id"), body.Slot, body.Direction)
	if err != nil {
		return serviceError(c, err, "swapDoor")
	}
	return utils.SuccessResponse(c, state, fiber.StatusOK)
}

// FitCamera handles POST /api/sessions/:id/fit
// @Summary Frame the visible parts
// @Tags Sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param body body object false "Optional fov and margin"
// @Success 200 {object} types.CameraFitResult
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /sessions/{id}/fit [post]
func (h *SessionHandler) FitCamera(c *fiber.Ctx) error {
	var body struct {
		Fov    types.FlexFloat64 `json:"fov"`
		Margin types.FlexFloat64 `json:"margin"`
	}
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&body); err != nil {
			return utils.ErrorResponse(c, "Invalid input", fiber.StatusBadRequest, "configurator.validation.input")
		}
	}

	result, err := h.Sessions.Fit(c.Params("id"), body.Fov.Float64(), body.Margin.Float64())
	if err != nil {
		return serviceError(c, err, "fitCamera")
	}
	return utils.SuccessResponse(c, result, fiber.StatusOK)
}

// ExportScene handles GET /api/sessions/:id/scene.glb
// @Summary Export the configured scene
// @Description Export one asset group of the session scene as binary glTF
// @Tags Sessions
// @Produce octet-stream
// @Param id path string true "Session ID"
// @Param group query string false "Asset group, defaults to the first"
// @Success 200 {file} binary
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /sessions/{id}/scene.glb [get]
func (h *SessionHandler) ExportScene(c *fiber.Ctx) error {
	var buf bytes.Buffer
	if err := h.Sessions.Export(c.Params("id"), c.Query("group"), &buf); err != nil {
		return serviceError(c, err, "exportScene")
	}
	c.Set(fiber.HeaderContentType, "model/gltf-binary")
	return c.Status(fiber.StatusOK).Send(buf.Bytes())
}

// DeleteSession handles DELETE /api/sessions/:id
// @Summary Close a session
// @Tags Sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 204 "No Content"
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /sessions/{id} [delete]
func (h *SessionHandler) DeleteSession(c *fiber.Ctx) error {
	if err := h.Sessions.Delete(c.Params("id")); err != nil {
		return serviceError(c, err, "deleteSession")
	}
	return c.SendStatus(fiber.StatusNoContent)
}
