package versioning

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mlfoundry/catalog-backend/internal/data/repos"
	"github.com/mlfoundry/catalog-backend/internal/platform/logger"
)

// VersionService is the version-history engine for catalog assets:
// checkpointing, tagging, reference resolution, history reads and
// transactional purge.
type VersionService interface {
	// Checkpoint records the asset's current field state as a named
	// version. Identical content dedups onto the existing version row;
	// the live rows are committed either way.
	Checkpoint(ctx context.Context, tx *gorm.DB, asset *Asset, tags []string) (*Checkpoint, error)
	// Tag attaches a tag to an existing version, resolved by reference.
	Tag(ctx context.Context, tx *gorm.DB, entityID uuid.UUID, ref, tagName string) error
	// Resolve maps a hash, tag or ~index reference onto the history.
	Resolve(ctx context.Context, tx *gorm.DB, entityID uuid.UUID, ref string) (*Resolution, error)
	// GetVersionData returns the snapshotted field values at a reference.
	GetVersionData(ctx context.Context, tx *gorm.DB, entityID uuid.UUID, ref string) (*VersionData, error)
	// CompareVersions resolves two references and reports the fields
	// whose snapshotted values differ.
	CompareVersions(ctx context.Context, tx *gorm.DB, entityID uuid.UUID, leftRef, rightRef string) (*VersionComparison, error)
	// CheckoutVersion restores the live rows to the snapshot at a
	// reference and checkpoints the result. Restoring a checkpointed
	// version dedups onto its existing hash row.
	CheckoutVersion(ctx context.Context, tx *gorm.DB, entityID uuid.UUID, ref string) (*Checkpoint, error)
	// ListHistory pages through the history, newest first.
	ListHistory(ctx context.Context, tx *gorm.DB, entityID uuid.UUID, opts HistoryOptions) (*HistoryPage, error)
	// Purge removes the entity, its live subtype row and every trace of
	// its version history in one transaction.
	Purge(ctx context.Context, tx *gorm.DB, entityID uuid.UUID) error
}

type versionService struct {
	db        *gorm.DB
	log       *logger.Logger
	substrate *Substrate

	entityRepo       repos.EntityRepo
	datasetRepo      repos.DatasetRepo
	trainedModelRepo repos.TrainedModelRepo
	taskRepo         repos.TaskRepo
	versionHashRepo  repos.VersionHashRepo
	revisionRepo     repos.RevisionRepo
}

func NewVersionService(
	db *gorm.DB,
	baseLog *logger.Logger,
	substrate *Substrate,
	entityRepo repos.EntityRepo,
	datasetRepo repos.DatasetRepo,
	trainedModelRepo repos.TrainedModelRepo,
	taskRepo repos.TaskRepo,
	versionHashRepo repos.VersionHashRepo,
	revisionRepo repos.RevisionRepo,
) VersionService {
	serviceLog := baseLog.With("service", "VersionService")
	return &versionService{
		db:               db,
		log:              serviceLog,
		substrate:        substrate,
		entityRepo:       entityRepo,
		datasetRepo:      datasetRepo,
		trainedModelRepo: trainedModelRepo,
		taskRepo:         taskRepo,
		versionHashRepo:  versionHashRepo,
		revisionRepo:     revisionRepo,
	}
}

// inTransaction runs fn inside tx when the caller supplied one, otherwise
// wraps fn in its own database transaction.
func (vs *versionService) inTransaction(ctx context.Context, tx *gorm.DB, fn func(tx *gorm.DB) error) error {
	if tx != nil {
		return fn(tx)
	}
	return vs.db.WithContext(ctx).Transaction(fn)
}

func (vs *versionService) Resolve(ctx context.Context, tx *gorm.DB, entityID uuid.UUID, ref string) (*Resolution, error) {
	transaction := tx
	if transaction == nil {
		transaction = vs.db
	}

	res, err := vs.resolveRef(ctx, transaction, entityID, ref)
	if err != nil {
		vs.log.Debug("resolve reference failed", "entity_id", entityID, "ref", ref, "error", err)
		return nil, err
	}
	return res, nil
}

// saveAsset persists the live entity and subtype rows through the
// tracked models so the substrate snapshots them.
func (vs *versionService) saveAsset(ctx context.Context, tx *gorm.DB, asset *Asset) error {
	if err := vs.entityRepo.Save(ctx, tx, asset.Entity); err != nil {
		return err
	}
	switch {
	case asset.Dataset != nil:
		return vs.datasetRepo.Save(ctx, tx, asset.Dataset)
	case asset.TrainedModel != nil:
		return vs.trainedModelRepo.Save(ctx, tx, asset.TrainedModel)
	case asset.Task != nil:
		return vs.taskRepo.Save(ctx, tx, asset.Task)
	}
	return nil
}
