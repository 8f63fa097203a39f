package repos

import (
	"gorm.io/gorm"

	"github.com/mlfoundry/catalog-backend/internal/data/repos/catalog"
	"github.com/mlfoundry/catalog-backend/internal/data/repos/versioning"
	"github.com/mlfoundry/catalog-backend/internal/platform/logger"
)

type EntityRepo = catalog.EntityRepo
type DatasetRepo = catalog.DatasetRepo
type TrainedModelRepo = catalog.TrainedModelRepo
type TaskRepo = catalog.TaskRepo
type CollectionRepo = catalog.CollectionRepo

type VersionHashRepo = versioning.VersionHashRepo
type RevisionRepo = versioning.RevisionRepo

func NewEntityRepo(db *gorm.DB, baseLog *logger.Logger) EntityRepo {
	return catalog.NewEntityRepo(db, baseLog)
}
func NewDatasetRepo(db *gorm.DB, baseLog *logger.Logger) DatasetRepo {
	return catalog.NewDatasetRepo(db, baseLog)
}
func NewTrainedModelRepo(db *gorm.DB, baseLog *logger.Logger) TrainedModelRepo {
	return catalog.NewTrainedModelRepo(db, baseLog)
}
func NewTaskRepo(db *gorm.DB, baseLog *logger.Logger) TaskRepo {
	return catalog.NewTaskRepo(db, baseLog)
}
func NewCollectionRepo(db *gorm.DB, baseLog *logger.Logger) CollectionRepo {
	return catalog.NewCollectionRepo(db, baseLog)
}

func NewVersionHashRepo(db *gorm.DB, baseLog *logger.Logger) VersionHashRepo {
	return versioning.NewVersionHashRepo(db, baseLog)
}
func NewRevisionRepo(db *gorm.DB, baseLog *logger.Logger) RevisionRepo {
	return versioning.NewRevisionRepo(db, baseLog)
}
