package versioning

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mlfoundry/catalog-backend/internal/domain"
)

// subtypeTables maps an entity kind to its live and revision tables, in
// the order purge clears them.
var subtypeTables = map[string]struct {
	live     string
	revision string
}{
	domain.EntityTypeDataset:      {live: "datasets", revision: "dataset_revisions"},
	domain.EntityTypeTrainedModel: {live: "trained_models", revision: "trained_model_revisions"},
	domain.EntityTypeTask:         {live: "tasks", revision: "task_revisions"},
}

// Purge removes the entity and every trace of its version history in one
// transaction: tags, hash rows, subtype and base revisions, then the live
// rows. The raw deletes bypass the substrate callbacks, so purging leaves
// no delete snapshots behind.
func (vs *versionService) Purge(ctx context.Context, tx *gorm.DB, entityID uuid.UUID) error {
	const op = "versioning.Purge"

	err := vs.inTransaction(ctx, tx, func(tx *gorm.DB) error {
		entity, err := vs.entityRepo.GetByID(ctx, tx, entityID)
		if err != nil {
			return NewError(CodeInternal, op, "load entity", err)
		}
		if entity == nil {
			return NewError(CodeNotFound, op,
				fmt.Sprintf("entity %s does not exist", entityID), nil)
		}

		// Lock the hash rows so a concurrent checkpoint cannot anchor a
		// new version while the history is being torn down.
		hashRows, err := vs.versionHashRepo.ListByEntityID(ctx, tx, entityID, true)
		if err != nil {
			return NewError(CodeInternal, op, "lock version hashes", err)
		}
		for _, row := range hashRows {
			rev, err := vs.revisionRepo.GetByTransactionID(ctx, tx, entityID, row.TransactionID)
			if err != nil {
				return NewError(CodeInternal, op, "verify version anchor", err)
			}
			if rev == nil {
				return NewError(CodeInternal, op,
					fmt.Sprintf("version %s has no raw snapshot behind it, refusing to purge", row.ContentHash), nil)
			}
		}

		tables, ok := subtypeTables[entity.EntityType]
		if !ok {
			return NewError(CodeInternal, op,
				fmt.Sprintf("entity %s has untracked type %q", entityID, entity.EntityType), nil)
		}

		steps := []string{
			"DELETE FROM entity_version_tags WHERE entity_id = ?",
			"DELETE FROM entity_version_hashes WHERE entity_id = ?",
			"DELETE FROM " + tables.revision + " WHERE entity_id = ?",
			"DELETE FROM entity_revisions WHERE entity_id = ?",
			"DELETE FROM " + tables.live + " WHERE entity_id = ?",
			"DELETE FROM entities WHERE id = ?",
		}
		for _, step := range steps {
			if err := tx.WithContext(ctx).Exec(step, entityID).Error; err != nil {
				return NewError(CodeInternal, op, "purge step failed", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	vs.log.Info("entity purged", "entity_id", entityID)
	return nil
}
