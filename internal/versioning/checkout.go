package versioning

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mlfoundry/catalog-backend/internal/domain"
)

// CheckoutVersion rewrites the live rows with the field values snapshotted
// at the reference and records the result as a checkpoint. The restore is
// a tracked save, so it appends a raw revision of its own; identical
// content then dedups onto the referenced version's hash row.
func (vs *versionService) CheckoutVersion(ctx context.Context, tx *gorm.DB, entityID uuid.UUID, ref string) (*Checkpoint, error) {
	const op = "versioning.CheckoutVersion"

	var result *Checkpoint
	err := vs.inTransaction(ctx, tx, func(tx *gorm.DB) error {
		res, err := vs.resolveRef(ctx, tx, entityID, ref)
		if err != nil {
			return err
		}
		base, err := vs.revisionRepo.GetByTransactionID(ctx, tx, entityID, res.TransactionID)
		if err != nil {
			return NewError(CodeInternal, op, "read base revision", err)
		}
		if base == nil {
			return NewError(CodeInternal, op,
				fmt.Sprintf("resolved transaction %d has no base snapshot", res.TransactionID), nil)
		}

		asset, err := vs.loadLiveAsset(ctx, tx, entityID, base.EntityType)
		if err != nil {
			return err
		}
		asset.Entity.Name = base.Name
		asset.Entity.AssetOrigin = base.AssetOrigin
		asset.Entity.IsPrivate = base.IsPrivate
		asset.Entity.Metadata = base.Metadata
		asset.Entity.CollectionID = base.CollectionID
		if err := vs.restoreSubtype(ctx, tx, asset, res.TransactionID); err != nil {
			return err
		}

		cp, err := vs.Checkpoint(ctx, tx, asset, nil)
		if err != nil {
			return err
		}
		result = cp
		return nil
	})
	if err != nil {
		return nil, err
	}

	vs.log.Info("version checked out",
		"entity_id", entityID,
		"ref", ref,
		"content_hash", result.VersionHash.ContentHash)
	return result, nil
}

// loadLiveAsset fetches the current entity and subtype rows for an
// in-place restore.
func (vs *versionService) loadLiveAsset(ctx context.Context, tx *gorm.DB, entityID uuid.UUID, kind string) (*Asset, error) {
	const op = "versioning.CheckoutVersion"

	entity, err := vs.entityRepo.GetByID(ctx, tx, entityID)
	if err != nil {
		return nil, NewError(CodeInternal, op, "load entity", err)
	}
	if entity == nil {
		return nil, NewError(CodeNotFound, op,
			fmt.Sprintf("entity %s does not exist", entityID), nil)
	}

	asset := &Asset{Entity: entity}
	switch kind {
	case domain.EntityTypeDataset:
		row, err := vs.datasetRepo.GetByEntityID(ctx, tx, entityID)
		if err != nil {
			return nil, NewError(CodeInternal, op, "load dataset row", err)
		}
		if row == nil {
			return nil, NewError(CodeInternal, op,
				fmt.Sprintf("entity %s has no live dataset row", entityID), nil)
		}
		asset.Dataset = row
	case domain.EntityTypeTrainedModel:
		row, err := vs.trainedModelRepo.GetByEntityID(ctx, tx, entityID)
		if err != nil {
			return nil, NewError(CodeInternal, op, "load trained model row", err)
		}
		if row == nil {
			return nil, NewError(CodeInternal, op,
				fmt.Sprintf("entity %s has no live trained model row", entityID), nil)
		}
		asset.TrainedModel = row
	case domain.EntityTypeTask:
		row, err := vs.taskRepo.GetByEntityID(ctx, tx, entityID)
		if err != nil {
			return nil, NewError(CodeInternal, op, "load task row", err)
		}
		if row == nil {
			return nil, NewError(CodeInternal, op,
				fmt.Sprintf("entity %s has no live task row", entityID), nil)
		}
		asset.Task = row
	default:
		return nil, NewError(CodeInternal, op,
			fmt.Sprintf("entity %s has untracked type %q", entityID, kind), nil)
	}
	return asset, nil
}

// restoreSubtype copies the kind-specific snapshot at the transaction onto
// the live subtype row.
func (vs *versionService) restoreSubtype(ctx context.Context, tx *gorm.DB, asset *Asset, transactionID int64) error {
	const op = "versioning.CheckoutVersion"

	switch {
	case asset.Dataset != nil:
		rev, err := vs.revisionRepo.GetDatasetRevision(ctx, tx, asset.Entity.ID, transactionID)
		if err != nil {
			return NewError(CodeInternal, op, "read dataset snapshot", err)
		}
		if rev == nil {
			return NewError(CodeInternal, op,
				fmt.Sprintf("transaction %d has no dataset snapshot", transactionID), nil)
		}
		asset.Dataset.DataPath = rev.DataPath
		asset.Dataset.Format = rev.Format
		asset.Dataset.MetadataVersion = rev.MetadataVersion
		asset.Dataset.DatasetMetadata = rev.DatasetMetadata
		asset.Dataset.LongDescription = rev.LongDescription
		asset.Dataset.PreviewType = rev.PreviewType
	case asset.TrainedModel != nil:
		rev, err := vs.revisionRepo.GetTrainedModelRevision(ctx, tx, asset.Entity.ID, transactionID)
		if err != nil {
			return NewError(CodeInternal, op, "read trained model snapshot", err)
		}
		if rev == nil {
			return NewError(CodeInternal, op,
				fmt.Sprintf("transaction %d has no trained model snapshot", transactionID), nil)
		}
		asset.TrainedModel.ModelPath = rev.ModelPath
		asset.TrainedModel.Framework = rev.Framework
		asset.TrainedModel.MetadataVersion = rev.MetadataVersion
		asset.TrainedModel.ModelMetadata = rev.ModelMetadata
		asset.TrainedModel.LongDescription = rev.LongDescription
		asset.TrainedModel.ModelAttributes = rev.ModelAttributes
	case asset.Task != nil:
		rev, err := vs.revisionRepo.GetTaskRevision(ctx, tx, asset.Entity.ID, transactionID)
		if err != nil {
			return NewError(CodeInternal, op, "read task snapshot", err)
		}
		if rev == nil {
			return NewError(CodeInternal, op,
				fmt.Sprintf("transaction %d has no task snapshot", transactionID), nil)
		}
		asset.Task.Workflow = rev.Workflow
		asset.Task.Version = rev.Version
		asset.Task.Description = rev.Description
		asset.Task.HasFileUploads = rev.HasFileUploads
	}
	return nil
}
