package versioning

import (
	"fmt"

	"github.com/mlfoundry/catalog-backend/internal/domain"
)

// Asset pairs an entity with exactly one kind-specific record. The subtype
// row carries the fields that distinguish a dataset from a model or task;
// the entity row carries the shared catalog metadata.
type Asset struct {
	Entity       *domain.Entity
	Dataset      *domain.Dataset
	TrainedModel *domain.TrainedModel
	Task         *domain.Task
}

// Kind returns the entity type of the populated subtype, or "" when the
// asset is empty or ambiguous.
func (a *Asset) Kind() string {
	n := 0
	kind := ""
	if a.Dataset != nil {
		n++
		kind = domain.EntityTypeDataset
	}
	if a.TrainedModel != nil {
		n++
		kind = domain.EntityTypeTrainedModel
	}
	if a.Task != nil {
		n++
		kind = domain.EntityTypeTask
	}
	if n != 1 {
		return ""
	}
	return kind
}

func (a *Asset) validate() error {
	if a == nil || a.Entity == nil {
		return fmt.Errorf("asset has no entity")
	}
	kind := a.Kind()
	if kind == "" {
		return fmt.Errorf("asset must carry exactly one subtype record")
	}
	if a.Entity.EntityType != kind {
		return fmt.Errorf("entity type %q does not match subtype %q", a.Entity.EntityType, kind)
	}
	return nil
}

// DatasetFields lists the dataset columns that participate in content
// hashing. The preview columns stay out: a regenerated preview is not a
// new version of the data.
var DatasetFields = []string{
	"data_path",
	"format",
	"metadata_version",
	"dataset_metadata",
	"long_description",
}

// TrainedModelFields lists the trained-model columns that participate in
// content hashing.
var TrainedModelFields = []string{
	"model_path",
	"framework",
	"metadata_version",
	"model_metadata",
	"long_description",
	"model_attributes",
}

// TaskFields lists the workflow-task columns that participate in content
// hashing.
var TaskFields = []string{
	"workflow",
	"version",
	"description",
	"has_file_uploads",
}

// FieldsForKind returns the hashed subtype field list for a tracked
// entity type.
func FieldsForKind(kind string) []string {
	switch kind {
	case domain.EntityTypeDataset:
		return DatasetFields
	case domain.EntityTypeTrainedModel:
		return TrainedModelFields
	case domain.EntityTypeTask:
		return TaskFields
	default:
		return nil
	}
}

// FieldState flattens the asset into the hashable field map: the shared
// entity columns plus the subtype columns for the asset's kind. JSON
// columns are kept as raw bytes and decoded by the canonicalizer.
func (a *Asset) FieldState() (map[string]any, error) {
	if err := a.validate(); err != nil {
		return nil, err
	}
	state := map[string]any{
		"name":         a.Entity.Name,
		"entity_type":  a.Entity.EntityType,
		"asset_origin": a.Entity.AssetOrigin,
		"is_private":   a.Entity.IsPrivate,
		"metadata":     []byte(a.Entity.Metadata),
	}
	switch a.Kind() {
	case domain.EntityTypeDataset:
		d := a.Dataset
		state["data_path"] = d.DataPath
		state["format"] = d.Format
		state["metadata_version"] = d.MetadataVersion
		state["dataset_metadata"] = []byte(d.DatasetMetadata)
		state["long_description"] = d.LongDescription
	case domain.EntityTypeTrainedModel:
		m := a.TrainedModel
		state["model_path"] = m.ModelPath
		state["framework"] = m.Framework
		state["metadata_version"] = m.MetadataVersion
		state["model_metadata"] = []byte(m.ModelMetadata)
		state["long_description"] = m.LongDescription
		state["model_attributes"] = []byte(m.ModelAttributes)
	case domain.EntityTypeTask:
		t := a.Task
		state["workflow"] = []byte(t.Workflow)
		state["version"] = t.Version
		state["description"] = t.Description
		state["has_file_uploads"] = t.HasFileUploads
	}
	return state, nil
}
