package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/mlfoundry/catalog-backend/internal/data/repos"
	types "github.com/mlfoundry/catalog-backend/internal/domain"
	"github.com/mlfoundry/catalog-backend/internal/platform/logger"
	"github.com/mlfoundry/catalog-backend/internal/versioning"
)

// AssetService is the catalog-facing layer over the version engine: it
// owns the live asset rows and hands checkpoint, history and purge work
// to the VersionService.
type AssetService interface {
	CreateDataset(ctx context.Context, in CreateDatasetInput) (*versioning.Asset, *versioning.Checkpoint, error)
	CreateTrainedModel(ctx context.Context, in CreateTrainedModelInput) (*versioning.Asset, *versioning.Checkpoint, error)
	CreateTask(ctx context.Context, in CreateTaskInput) (*versioning.Asset, *versioning.Checkpoint, error)
	UpdateDataset(ctx context.Context, in UpdateDatasetInput) (*versioning.Asset, error)
	UpdateTrainedModel(ctx context.Context, in UpdateTrainedModelInput) (*versioning.Asset, error)
	UpdateTask(ctx context.Context, in UpdateTaskInput) (*versioning.Asset, error)
	// CheckpointEntity records the current live field state as a version.
	CheckpointEntity(ctx context.Context, entityID uuid.UUID, tags []string) (*versioning.Checkpoint, error)
	// DeleteEntity purges the entity and its entire version history.
	DeleteEntity(ctx context.Context, entityID uuid.UUID) error
	// FindByTag lists the entities that have a version tagged tagName.
	FindByTag(ctx context.Context, tagName string) ([]*types.Entity, error)
	// GetAsset loads the live entity and subtype rows.
	GetAsset(ctx context.Context, entityID uuid.UUID) (*versioning.Asset, error)
	// CreateCollection registers a named grouping for entities.
	CreateCollection(ctx context.Context, name, description string) (*types.Collection, error)
	GetCollectionByName(ctx context.Context, name string) (*types.Collection, error)
}

type CreateDatasetInput struct {
	Name            string
	AssetOrigin     string
	IsPrivate       bool
	Metadata        datatypes.JSON
	CollectionID    *uuid.UUID
	DataPath        string
	Format          string
	MetadataVersion string
	DatasetMetadata datatypes.JSON
	LongDescription string
	PreviewType     string
	Tags            []string
}

type CreateTrainedModelInput struct {
	Name            string
	AssetOrigin     string
	IsPrivate       bool
	Metadata        datatypes.JSON
	CollectionID    *uuid.UUID
	ModelPath       string
	Framework       string
	MetadataVersion string
	ModelMetadata   datatypes.JSON
	LongDescription string
	ModelAttributes datatypes.JSON
	Tags            []string
}

type CreateTaskInput struct {
	Name           string
	AssetOrigin    string
	IsPrivate      bool
	Metadata       datatypes.JSON
	CollectionID   *uuid.UUID
	Workflow       datatypes.JSON
	Version        string
	Description    string
	HasFileUploads bool
	Tags           []string
}

// Update inputs use pointers for optional fields; nil leaves the stored
// value untouched. Updates write a raw revision only, checkpointing stays
// an explicit separate step.
type UpdateDatasetInput struct {
	EntityID        uuid.UUID
	Name            *string
	IsPrivate       *bool
	Metadata        datatypes.JSON
	DataPath        *string
	Format          *string
	MetadataVersion *string
	DatasetMetadata datatypes.JSON
	LongDescription *string
	PreviewType     *string
}

type UpdateTrainedModelInput struct {
	EntityID        uuid.UUID
	Name            *string
	IsPrivate       *bool
	Metadata        datatypes.JSON
	ModelPath       *string
	Framework       *string
	MetadataVersion *string
	ModelMetadata   datatypes.JSON
	LongDescription *string
	ModelAttributes datatypes.JSON
}

type UpdateTaskInput struct {
	EntityID       uuid.UUID
	Name           *string
	IsPrivate      *bool
	Metadata       datatypes.JSON
	Workflow       datatypes.JSON
	Version        *string
	Description    *string
	HasFileUploads *bool
}

type assetService struct {
	db  *gorm.DB
	log *logger.Logger

	versions versioning.VersionService

	entityRepo       repos.EntityRepo
	datasetRepo      repos.DatasetRepo
	trainedModelRepo repos.TrainedModelRepo
	taskRepo         repos.TaskRepo
	collectionRepo   repos.CollectionRepo
}

func NewAssetService(
	db *gorm.DB,
	baseLog *logger.Logger,
	versions versioning.VersionService,
	entityRepo repos.EntityRepo,
	datasetRepo repos.DatasetRepo,
	trainedModelRepo repos.TrainedModelRepo,
	taskRepo repos.TaskRepo,
	collectionRepo repos.CollectionRepo,
) AssetService {
	serviceLog := baseLog.With("service", "AssetService")
	return &assetService{
		db:               db,
		log:              serviceLog,
		versions:         versions,
		entityRepo:       entityRepo,
		datasetRepo:      datasetRepo,
		trainedModelRepo: trainedModelRepo,
		taskRepo:         taskRepo,
		collectionRepo:   collectionRepo,
	}
}

func (as *assetService) CreateDataset(ctx context.Context, in CreateDatasetInput) (*versioning.Asset, *versioning.Checkpoint, error) {
	if in.Name == "" {
		return nil, nil, fmt.Errorf("dataset name is required")
	}
	if in.DataPath == "" || in.Format == "" {
		return nil, nil, fmt.Errorf("dataset data_path and format are required")
	}

	asset := &versioning.Asset{
		Entity: &types.Entity{
			Name:         in.Name,
			EntityType:   types.EntityTypeDataset,
			AssetOrigin:  in.AssetOrigin,
			IsPrivate:    in.IsPrivate,
			Metadata:     orEmptyJSON(in.Metadata),
			CollectionID: in.CollectionID,
		},
	}
	cp, err := as.createAsset(ctx, asset, in.Tags, func(tx *gorm.DB) error {
		asset.Dataset = &types.Dataset{
			EntityID:        asset.Entity.ID,
			DataPath:        in.DataPath,
			Format:          in.Format,
			MetadataVersion: in.MetadataVersion,
			DatasetMetadata: in.DatasetMetadata,
			LongDescription: in.LongDescription,
			PreviewType:     in.PreviewType,
		}
		_, err := as.datasetRepo.Create(ctx, tx, []*types.Dataset{asset.Dataset})
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return asset, cp, nil
}

func (as *assetService) CreateTrainedModel(ctx context.Context, in CreateTrainedModelInput) (*versioning.Asset, *versioning.Checkpoint, error) {
	if in.Name == "" {
		return nil, nil, fmt.Errorf("model name is required")
	}
	if in.ModelPath == "" {
		return nil, nil, fmt.Errorf("model model_path is required")
	}

	asset := &versioning.Asset{
		Entity: &types.Entity{
			Name:         in.Name,
			EntityType:   types.EntityTypeTrainedModel,
			AssetOrigin:  in.AssetOrigin,
			IsPrivate:    in.IsPrivate,
			Metadata:     orEmptyJSON(in.Metadata),
			CollectionID: in.CollectionID,
		},
	}
	cp, err := as.createAsset(ctx, asset, in.Tags, func(tx *gorm.DB) error {
		asset.TrainedModel = &types.TrainedModel{
			EntityID:        asset.Entity.ID,
			ModelPath:       in.ModelPath,
			Framework:       in.Framework,
			MetadataVersion: in.MetadataVersion,
			ModelMetadata:   in.ModelMetadata,
			LongDescription: in.LongDescription,
			ModelAttributes: in.ModelAttributes,
		}
		_, err := as.trainedModelRepo.Create(ctx, tx, []*types.TrainedModel{asset.TrainedModel})
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return asset, cp, nil
}

func (as *assetService) CreateTask(ctx context.Context, in CreateTaskInput) (*versioning.Asset, *versioning.Checkpoint, error) {
	if in.Name == "" {
		return nil, nil, fmt.Errorf("task name is required")
	}
	if len(in.Workflow) == 0 {
		return nil, nil, fmt.Errorf("task workflow is required")
	}

	asset := &versioning.Asset{
		Entity: &types.Entity{
			Name:         in.Name,
			EntityType:   types.EntityTypeTask,
			AssetOrigin:  in.AssetOrigin,
			IsPrivate:    in.IsPrivate,
			Metadata:     orEmptyJSON(in.Metadata),
			CollectionID: in.CollectionID,
		},
	}
	cp, err := as.createAsset(ctx, asset, in.Tags, func(tx *gorm.DB) error {
		asset.Task = &types.Task{
			EntityID:       asset.Entity.ID,
			Workflow:       in.Workflow,
			Version:        in.Version,
			Description:    in.Description,
			HasFileUploads: in.HasFileUploads,
		}
		_, err := as.taskRepo.Create(ctx, tx, []*types.Task{asset.Task})
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return asset, cp, nil
}

// createAsset inserts the live rows and records the initial checkpoint in
// one transaction, so a new asset starts with a single raw revision that
// its first version anchors to.
func (as *assetService) createAsset(ctx context.Context, asset *versioning.Asset, tags []string, createSubtype func(tx *gorm.DB) error) (*versioning.Checkpoint, error) {
	var cp *versioning.Checkpoint
	err := as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := as.entityRepo.Create(ctx, tx, []*types.Entity{asset.Entity}); err != nil {
			return fmt.Errorf("create entity: %w", err)
		}
		if err := createSubtype(tx); err != nil {
			return fmt.Errorf("create subtype row: %w", err)
		}
		var err error
		cp, err = as.versions.Checkpoint(ctx, tx, asset, tags)
		return err
	})
	if err != nil {
		as.log.Error("create asset failed", "name", asset.Entity.Name, "error", err)
		return nil, err
	}
	as.log.Info("asset created",
		"entity_id", asset.Entity.ID,
		"entity_type", asset.Entity.EntityType,
		"content_hash", cp.VersionHash.ContentHash)
	return cp, nil
}

func (as *assetService) UpdateDataset(ctx context.Context, in UpdateDatasetInput) (*versioning.Asset, error) {
	var asset *versioning.Asset
	err := as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		asset, err = as.loadAsset(ctx, tx, in.EntityID)
		if err != nil {
			return err
		}
		if asset.Dataset == nil {
			return fmt.Errorf("entity %s is not a dataset", in.EntityID)
		}

		applyEntityUpdates(asset.Entity, in.Name, in.IsPrivate, in.Metadata)
		if in.DataPath != nil {
			asset.Dataset.DataPath = *in.DataPath
		}
		if in.Format != nil {
			asset.Dataset.Format = *in.Format
		}
		if in.MetadataVersion != nil {
			asset.Dataset.MetadataVersion = *in.MetadataVersion
		}
		if in.DatasetMetadata != nil {
			asset.Dataset.DatasetMetadata = in.DatasetMetadata
		}
		if in.LongDescription != nil {
			asset.Dataset.LongDescription = *in.LongDescription
		}
		if in.PreviewType != nil {
			asset.Dataset.PreviewType = *in.PreviewType
		}

		if err := as.entityRepo.Save(ctx, tx, asset.Entity); err != nil {
			return fmt.Errorf("save entity: %w", err)
		}
		return as.datasetRepo.Save(ctx, tx, asset.Dataset)
	})
	if err != nil {
		as.log.Error("update dataset failed", "entity_id", in.EntityID, "error", err)
		return nil, err
	}
	return asset, nil
}

func (as *assetService) UpdateTrainedModel(ctx context.Context, in UpdateTrainedModelInput) (*versioning.Asset, error) {
	var asset *versioning.Asset
	err := as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		asset, err = as.loadAsset(ctx, tx, in.EntityID)
		if err != nil {
			return err
		}
		if asset.TrainedModel == nil {
			return fmt.Errorf("entity %s is not a trained model", in.EntityID)
		}

		applyEntityUpdates(asset.Entity, in.Name, in.IsPrivate, in.Metadata)
		if in.ModelPath != nil {
			asset.TrainedModel.ModelPath = *in.ModelPath
		}
		if in.Framework != nil {
			asset.TrainedModel.Framework = *in.Framework
		}
		if in.MetadataVersion != nil {
			asset.TrainedModel.MetadataVersion = *in.MetadataVersion
		}
		if in.ModelMetadata != nil {
			asset.TrainedModel.ModelMetadata = in.ModelMetadata
		}
		if in.LongDescription != nil {
			asset.TrainedModel.LongDescription = *in.LongDescription
		}
		if in.ModelAttributes != nil {
			asset.TrainedModel.ModelAttributes = in.ModelAttributes
		}

		if err := as.entityRepo.Save(ctx, tx, asset.Entity); err != nil {
			return fmt.Errorf("save entity: %w", err)
		}
		return as.trainedModelRepo.Save(ctx, tx, asset.TrainedModel)
	})
	if err != nil {
		as.log.Error("update trained model failed", "entity_id", in.EntityID, "error", err)
		return nil, err
	}
	return asset, nil
}

func (as *assetService) UpdateTask(ctx context.Context, in UpdateTaskInput) (*versioning.Asset, error) {
	var asset *versioning.Asset
	err := as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		asset, err = as.loadAsset(ctx, tx, in.EntityID)
		if err != nil {
			return err
		}
		if asset.Task == nil {
			return fmt.Errorf("entity %s is not a task", in.EntityID)
		}

		applyEntityUpdates(asset.Entity, in.Name, in.IsPrivate, in.Metadata)
		if in.Workflow != nil {
			asset.Task.Workflow = in.Workflow
		}
		if in.Version != nil {
			asset.Task.Version = *in.Version
		}
		if in.Description != nil {
			asset.Task.Description = *in.Description
		}
		if in.HasFileUploads != nil {
			asset.Task.HasFileUploads = *in.HasFileUploads
		}

		if err := as.entityRepo.Save(ctx, tx, asset.Entity); err != nil {
			return fmt.Errorf("save entity: %w", err)
		}
		return as.taskRepo.Save(ctx, tx, asset.Task)
	})
	if err != nil {
		as.log.Error("update task failed", "entity_id", in.EntityID, "error", err)
		return nil, err
	}
	return asset, nil
}

func (as *assetService) CheckpointEntity(ctx context.Context, entityID uuid.UUID, tags []string) (*versioning.Checkpoint, error) {
	asset, err := as.GetAsset(ctx, entityID)
	if err != nil {
		return nil, err
	}
	return as.versions.Checkpoint(ctx, nil, asset, tags)
}

func (as *assetService) DeleteEntity(ctx context.Context, entityID uuid.UUID) error {
	return as.versions.Purge(ctx, nil, entityID)
}

func (as *assetService) FindByTag(ctx context.Context, tagName string) ([]*types.Entity, error) {
	entities, err := as.entityRepo.GetByTagName(ctx, nil, tagName)
	if err != nil {
		as.log.Error("find by tag failed", "tag", tagName, "error", err)
		return nil, fmt.Errorf("find entities by tag: %w", err)
	}
	return entities, nil
}

func (as *assetService) GetAsset(ctx context.Context, entityID uuid.UUID) (*versioning.Asset, error) {
	return as.loadAsset(ctx, nil, entityID)
}

func (as *assetService) CreateCollection(ctx context.Context, name, description string) (*types.Collection, error) {
	if name == "" {
		return nil, fmt.Errorf("collection name is required")
	}
	collection := &types.Collection{Name: name, Description: description}
	if _, err := as.collectionRepo.Create(ctx, nil, []*types.Collection{collection}); err != nil {
		as.log.Error("create collection failed", "name", name, "error", err)
		return nil, fmt.Errorf("create collection: %w", err)
	}
	return collection, nil
}

func (as *assetService) GetCollectionByName(ctx context.Context, name string) (*types.Collection, error) {
	collection, err := as.collectionRepo.GetByName(ctx, nil, name)
	if err != nil {
		return nil, fmt.Errorf("load collection: %w", err)
	}
	if collection == nil {
		return nil, versioning.NewError(versioning.CodeNotFound, "services.GetCollectionByName",
			fmt.Sprintf("collection %q does not exist", name), nil)
	}
	return collection, nil
}

func (as *assetService) loadAsset(ctx context.Context, tx *gorm.DB, entityID uuid.UUID) (*versioning.Asset, error) {
	entity, err := as.entityRepo.GetByID(ctx, tx, entityID)
	if err != nil {
		return nil, fmt.Errorf("load entity: %w", err)
	}
	if entity == nil {
		return nil, versioning.NewError(versioning.CodeNotFound, "services.GetAsset",
			fmt.Sprintf("entity %s does not exist", entityID), nil)
	}

	asset := &versioning.Asset{Entity: entity}
	switch entity.EntityType {
	case types.EntityTypeDataset:
		asset.Dataset, err = as.datasetRepo.GetByEntityID(ctx, tx, entityID)
	case types.EntityTypeTrainedModel:
		asset.TrainedModel, err = as.trainedModelRepo.GetByEntityID(ctx, tx, entityID)
	case types.EntityTypeTask:
		asset.Task, err = as.taskRepo.GetByEntityID(ctx, tx, entityID)
	default:
		return nil, fmt.Errorf("entity %s has unknown type %q", entityID, entity.EntityType)
	}
	if err != nil {
		return nil, fmt.Errorf("load %s row: %w", entity.EntityType, err)
	}
	return asset, nil
}

func applyEntityUpdates(entity *types.Entity, name *string, isPrivate *bool, metadata datatypes.JSON) {
	if name != nil {
		entity.Name = *name
	}
	if isPrivate != nil {
		entity.IsPrivate = *isPrivate
	}
	if metadata != nil {
		entity.Metadata = metadata
	}
}

func orEmptyJSON(v datatypes.JSON) datatypes.JSON {
	if len(v) == 0 {
		return datatypes.JSON([]byte(`{}`))
	}
	return v
}
