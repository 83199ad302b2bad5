// config_store.go
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

package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/localnerve/jam-build-configurator/internal/configdoc"
	"github.com/localnerve/jam-build-configurator/internal/models"
	"github.com/localnerve/jam-build-configurator/internal/types"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
	"gorm.io/hints"
)

// ConfigStore persists configurator documents by model name
type ConfigStore interface {
	LoadConfig(ctx context.Context, model string) (configdoc.Document, uint64, error)
	SaveConfig(ctx context.Context, model string, doc configdoc.Document, version uint64) (uint64, error)
	ListConfigs(ctx context.Context) ([]ConfigSummary, error)
	DeleteConfig(ctx context.Context, model string, version uint64) error
	Revisions(ctx context.Context, model string) ([]RevisionSummary, error)
}

// ConfigSummary is one row of the model listing
type ConfigSummary struct {
	Model     string    `json:"model"`
	Version   uint64    `json:"version"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// RevisionSummary describes one archived document version
type RevisionSummary struct {
	Version   uint64    `json:"version"`
	CreatedAt time.Time `json:"createdAt"`
}

// GormConfigStore is the GORM backed ConfigStore
type GormConfigStore struct {
	DB *gorm.DB
}

// NewConfigStore creates a GORM backed store
func NewConfigStore(db *gorm.DB) *GormConfigStore {
	return &GormConfigStore{DB: db}
}

func (s *GormConfigStore) quiet(ctx context.Context) *gorm.DB {
	return s.DB.WithContext(ctx).Session(&gorm.Session{Logger: s.DB.Logger.LogMode(logger.Silent)})
}

// LoadConfig returns the normalized document and its version
func (s *GormConfigStore) LoadConfig(ctx context.Context, model string) (configdoc.Document, uint64, error) {
	var row models.ModelDocument
	if err := s.quiet(ctx).Where("model_name = ?", model).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return configdoc.Document{}, 0, fmt.Errorf("model %q: %w", model, types.ErrNotFound)
		}
		return configdoc.Document{}, 0, err
	}

	doc, err := configdoc.ParseJSON(row.Document.Bytes())
	if err != nil {
		return configdoc.Document{}, 0, fmt.Errorf("model %q: %w", model, err)
	}
	return doc, row.DocumentVersion, nil
}

// SaveConfig upserts the document for a model. version must be the current
// version (0 for a new model). Saving an identical document keeps the version.
func (s *GormConfigStore) SaveConfig(ctx context.Context, model string, doc configdoc.Document, version uint64) (uint64, error) {
	doc.Name = model
	doc.Normalize()
	payload, err := json.Marshal(doc)
	if err != nil {
		return 0, err
	}

	var newVersion uint64
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Lock and check version
		var row models.ModelDocument
		if err := tx.Session(&gorm.Session{Logger: tx.Logger.LogMode(logger.Silent)}).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("model_name = ?", model).
			First(&row).Error; err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			if version != 0 {
				return types.ErrVersion
			}
			row = models.ModelDocument{
				ModelName:       model,
				DocumentVersion: 1,
				Document:        models.NewDocumentJSON(payload),
			}
			newVersion = 1
			return tx.Create(&row).Error
		}

		if row.DocumentVersion != version {
			return types.ErrVersion
		}
		if row.Document.Same(payload) {
			newVersion = row.DocumentVersion
			return nil
		}

		// Archive the replaced document
		if err := tx.Create(&models.ModelRevision{
			ModelID:         row.ModelID,
			DocumentVersion: row.DocumentVersion,
			Document:        row.Document,
		}).Error; err != nil {
			return err
		}

		newVersion = row.DocumentVersion + 1
		result := tx.Model(&row).Where("document_version = ?", row.DocumentVersion).
			Updates(map[string]interface{}{
				"document":         models.NewDocumentJSON(payload),
				"document_version": newVersion,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("%w - Failed to update model due to concurrent modification", types.ErrVersion)
		}
		return nil
	})

	return newVersion, err
}

// ListConfigs lists stored models ordered by name
func (s *GormConfigStore) ListConfigs(ctx context.Context) ([]ConfigSummary, error) {
	var rows []models.ModelDocument
	if err := s.quiet(ctx).
		Clauses(hints.Comment("select", "configurator:list_configs")).
		Select("model_name", "document_version", "updated_at").
		Order("model_name").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]ConfigSummary, 0, len(rows))
	for _, r := range rows {
		out = append(out, ConfigSummary{Model: r.ModelName, Version: r.DocumentVersion, UpdatedAt: r.UpdatedAt})
	}
	return out, nil
}

// DeleteConfig removes a model and its revisions
func (s *GormConfigStore) DeleteConfig(ctx context.Context, model string, version uint64) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row models.ModelDocument
		if err := tx.Session(&gorm.Session{Logger: tx.Logger.LogMode(logger.Silent)}).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("model_name = ?", model).
			First(&row).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("model %q: %w", model, types.ErrNotFound)
			}
			return err
		}

		if row.DocumentVersion != version {
			return types.ErrVersion
		}

		// Not every dialect enforces the cascade
		if err := tx.Where("model_id = ?", row.ModelID).Delete(&models.ModelRevision{}).Error; err != nil {
			return err
		}
		return tx.Delete(&row).Error
	})
}

// Revisions lists the archived versions of a model, newest first
func (s *GormConfigStore) Revisions(ctx context.Context, model string) ([]RevisionSummary, error) {
	var row models.ModelDocument
	err := s.quiet(ctx).
		Preload("Revisions", func(db *gorm.DB) *gorm.DB {
			return db.Order("document_version DESC")
		}).
		Where("model_name = ?", model).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("model %q: %w", model, types.ErrNotFound)
		}
		return nil, err
	}

	out := make([]RevisionSummary, 0, len(row.Revisions))
	for _, r := range row.Revisions {
		out = append(out, RevisionSummary{Version: r.DocumentVersion, CreatedAt: r.CreatedAt})
	}
	return out, nil
}

// SeedPresets saves every preset whose model is not stored yet
func SeedPresets(ctx context.Context, store ConfigStore, presets []configdoc.Document) (int, error) {
	seeded := 0
	for _, p := range presets {
		_, _, err := store.LoadConfig(ctx, p.Name)
		if err == nil {
			continue
		}
		if !errors.Is(err, types.ErrNotFound) {
			return seeded, err
		}
		if _, err := store.SaveConfig(ctx, p.Name, p, 0); err != nil {
			return seeded, fmt.Errorf("seed %s: %w", p.Name, err)
		}
		log.Printf("Seeded model %s", p.Name)
		seeded++
	}
	return seeded, nil
}
