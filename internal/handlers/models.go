// models.go
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
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/jam-build-configurator/internal/configdoc"
	"github.com/localnerve/jam-build-configurator/internal/services"
	"github.com/localnerve/jam-build-configurator/internal/types"
	"github.com/localnerve/jam-build-configurator/internal/utils"
)

// ModelHandler handles configurator document routes
type ModelHandler struct {
	Store services.ConfigStore
}

// ModelResponse is a stored document with its version
type ModelResponse struct {
	Model    string             `json:"model"`
	Version  string             `json:"version"`
	Document configdoc.Document `json:"document"`
}

// ListModels handles GET /api/models
// @Summary List models
// @Description List every stored configurator model with its version
// @Tags Models
// @Produce json
// @Success 200 {array} services.ConfigSummary
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /models [get]
func (h *ModelHandler) ListModels(c *fiber.Ctx) error {
	list, err := h.Store.ListConfigs(c.UserContext())
	if err != nil {
		return serviceError(c, err, "listModels")
	}
	return utils.SuccessResponse(c, list, fiber.StatusOK)
}

// GetModel handles GET /api/models/:model
// @Summary Get model document
// @Description Get the configuration document of a model
// @Tags Models
// @Produce json
// @Param model path string true "Model name"
// @Success 200 {object} ModelResponse
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /models/{model} [get]
func (h *ModelHandler) GetModel(c *fiber.Ctx) error {
	model := c.Params("model")

	doc, version, err := h.Store.LoadConfig(c.UserContext(), model)
	if err != nil {
		return serviceError(c, err, "getModel")
	}
	return utils.SuccessResponse(c, ModelResponse{
		Model:    model,
		Version:  fmt.Sprintf("%d", version),
		Document: doc,
	}, fiber.StatusOK)
}

// SaveModel handles POST /api/models/:model
// @Summary Save model document
// @Description Create or replace the configuration document of a model
// @Tags Models
// @Accept json
// @Produce json
// @Param model path string true "Model name"
// @Param body body object true "Version and document"
// @Success 200 {object} utils.SuccessResponseStruct
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 409 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /models/{model} [post]
func (h *ModelHandler) SaveModel(c *fiber.Ctx) error {
	model := c.Params("model")

	var body struct {
		Version  types.FlexUint64    `json:"version"`
		Document *configdoc.Document `json:"document"`
	}

	if err := c.BodyParser(&body); err != nil || body.Document == nil || model == "" {
		return utils.ErrorResponse(c, "Invalid input", fiber.StatusBadRequest, "configurator.validation.input")
	}

	doc := *body.Document
	doc.Normalize()
	if report := configdoc.Validate(doc, nil); !report.OK() {
		return utils.ValidationErrorResponse(c, "Invalid document", report)
	}

	newVersion, err := h.Store.SaveConfig(c.UserContext(), model, doc, body.Version.Uint64())
	if err != nil {
		return serviceError(c, err, "saveModel")
	}
	return utils.MutationSuccessResponse(c, newVersion, 1)
}

// SaveRule handles POST /api/models/:model/rules
// @Summary Upsert one rule bucket
// @Description Replace the show/hide bucket for a door count and door type
// @Tags Models
// @Accept json
// @Produce json
// @Param model path string true "Model name"
// @Param body body object true "Version, doorCount, doorType and bucket"
// @Success 200 {object} utils.SuccessResponseStruct
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 409 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /models/{model}/rules [post]
func (h *ModelHandler) SaveRule(c *fiber.Ctx) error {
	model := c.Params("model")

	var body struct {
		Version   types.FlexUint64 `json:"version"`
		DoorCount int              `json:"doorCount"`
		DoorType  types.DoorType   `json:"doorType"`
		Bucket    configdoc.Bucket `json:"bucket"`
		Remove    bool             `json:"remove"`
	}

	if err := c.BodyParser(&body); err != nil || body.DoorCount < 1 || !body.DoorType.Valid() {
		return utils.ErrorResponse(c, "Invalid input", fiber.StatusBadRequest, "configurator.validation.input")
	}

	doc, version, err := h.Store.LoadConfig(c.UserContext(), model)
	if err != nil {
		return serviceError(c, err, "saveRule")
	}
	if version != body.Version.Uint64() {
		return utils.VersionErrorResponse(c)
	}

	if body.Remove {
		doc = doc.WithoutRule(body.DoorCount, body.DoorType)
	} else {
		doc = doc.WithRule(body.DoorCount, body.DoorType, body.Bucket)
	}
	if report := configdoc.Validate(doc, nil); !report.OK() {
		return utils.ValidationErrorResponse(c, "Invalid rule", report)
	}

	newVersion, err := h.Store.SaveConfig(c.UserContext(), model, doc, version)
	if err != nil {
		return serviceError(c, err, "saveRule")
	}
	return utils.MutationSuccessResponse(c, newVersion, 1)
}

// DeleteModel handles DELETE /api/models/:model
// @Summary Delete model
// @Description Delete a model document and its revisions
// @Tags Models
// @Accept json
// @Produce json
// @Param model path string true "Model name"
// @Param body body object true "Version check"
// @Success 200 {object} utils.SuccessResponseStruct
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 409 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /models/{model} [delete]
func (h *ModelHandler) DeleteModel(c *fiber.Ctx) error {
	model := c.Params("model")

	var body struct {
		Version types.FlexUint64 `json:"version"`
	}

	if err := c.BodyParser(&body); err != nil {
		return utils.ErrorResponse(c, "Invalid input", fiber.StatusBadRequest, "configurator.validation.input")
	}

	if err := h.Store.DeleteConfig(c.UserContext(), model, body.Version.Uint64()); err != nil {
		return serviceError(c, err, "deleteModel")
	}
	return utils.MutationSuccessResponse(c, 0, 1)
}

// GetRevisions handles GET /api/models/:model/revisions
// @Summary List model revisions
// @Description List the archived versions of a model, newest first
// @Tags Models
// @Produce json
// @Param model path string true "Model name"
// @Success 200 {array} services.RevisionSummary
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /models/{model}/revisions [get]
func (h *ModelHandler) GetRevisions(c *fiber.Ctx) error {
	revisions, err := h.Store.Revisions(c.UserContext(), c.Params("model"))
	if err != nil {
		return serviceError(c, err, "getRevisions")
	}
	return utils.SuccessResponse(c, revisions, fiber.StatusOK)
}

// ValidateModel handles POST /api/models/:model/validate
// @Summary Validate model references
// @Description Report structural problems and part names the document references that are not in the given part list
// @Tags Models
// @Accept json
// @Produce json
// @Param model path string true "Model name"
// @Param parts query string false "Comma-separated known part names"
// @Param body body object false "Known part names"
// @Success 200 {object} configdoc.Report
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /models/{model}/validate [post]
func (h *ModelHandler) ValidateModel(c *fiber.Ctx) error {
	doc, _, err := h.Store.LoadConfig(c.UserContext(), c.Params("model"))
	if err != nil {
		return serviceError(c, err, "validateModel")
	}

	var body struct {
		Parts types.FlexNames `json:"parts"`
	}
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&body); err != nil {
			return utils.ErrorResponse(c, "Invalid input", fiber.StatusBadRequest, "configurator.validation.input")
		}
	}

	// No part list means a structural check only
	known := append([]string(body.Parts), parseQueryList(c, "parts")...)

	report := configdoc.Validate(doc, known)
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"ok":       report.OK(),
		"missing":  report.Missing,
		"problems": report.Problems,
	})
}
