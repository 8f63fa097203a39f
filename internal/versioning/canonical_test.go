package versioning

import (
	"regexp"
	"testing"

	"gorm.io/datatypes"

	"github.com/mlfoundry/catalog-backend/internal/domain"
)

var hexHashRe = regexp.MustCompile(`^[0-9a-f]{64}$`)

func datasetAsset(mutate func(*Asset)) *Asset {
	a := &Asset{
		Entity: &domain.Entity{
			Name:        "imagenet-mini",
			EntityType:  domain.EntityTypeDataset,
			AssetOrigin: "ingest",
			IsPrivate:   false,
			Metadata:    datatypes.JSON([]byte(`{"rows": 1000, "license": "cc0"}`)),
		},
		Dataset: &domain.Dataset{
			DataPath:        "s3://assets/imagenet-mini",
			Format:          "parquet",
			MetadataVersion: "1.0",
			DatasetMetadata: datatypes.JSON([]byte(`{"split": ["train", "val"]}`)),
			LongDescription: "A small imagenet sample.",
			PreviewType:     "table",
		},
	}
	if mutate != nil {
		mutate(a)
	}
	return a
}

func hashAsset(t *testing.T, a *Asset) string {
	t.Helper()
	state, err := a.FieldState()
	if err != nil {
		t.Fatalf("field state: %v", err)
	}
	h, err := HashFieldState(state)
	if err != nil {
		t.Fatalf("hash field state: %v", err)
	}
	return h
}

func TestHashFieldStateShape(t *testing.T) {
	h := hashAsset(t, datasetAsset(nil))
	if !hexHashRe.MatchString(h) {
		t.Fatalf("hash %q is not 64 lowercase hex chars", h)
	}
}

func TestHashIgnoresJSONKeyOrder(t *testing.T) {
	a := datasetAsset(nil)
	b := datasetAsset(func(b *Asset) {
		b.Entity.Metadata = datatypes.JSON([]byte(`{"license": "cc0", "rows": 1000}`))
	})
	if hashAsset(t, a) != hashAsset(t, b) {
		t.Fatalf("key order changed the hash")
	}
}

func TestHashNormalizesNumberSpelling(t *testing.T) {
	a := datasetAsset(nil)
	b := datasetAsset(func(b *Asset) {
		b.Entity.Metadata = datatypes.JSON([]byte(`{"rows": 1000.0, "license": "cc0"}`))
	})
	if hashAsset(t, a) != hashAsset(t, b) {
		t.Fatalf("1000 and 1000.0 hashed differently")
	}
}

func TestHashChangesOnSemanticChange(t *testing.T) {
	a := datasetAsset(nil)
	b := datasetAsset(func(b *Asset) {
		b.Dataset.Format = "csv"
	})
	if hashAsset(t, a) == hashAsset(t, b) {
		t.Fatalf("distinct field values produced the same hash")
	}
}

func TestHashIgnoresPreviewType(t *testing.T) {
	a := datasetAsset(nil)
	b := datasetAsset(func(b *Asset) {
		b.Dataset.PreviewType = "image"
	})
	if hashAsset(t, a) != hashAsset(t, b) {
		t.Fatalf("a preview change minted a new content hash")
	}
	if _, ok := mustFieldState(t, a)["preview_type"]; ok {
		t.Fatalf("preview_type should stay out of the hashed field state")
	}
}

func mustFieldState(t *testing.T, a *Asset) map[string]any {
	t.Helper()
	state, err := a.FieldState()
	if err != nil {
		t.Fatalf("field state: %v", err)
	}
	return state
}

func TestHashDispatchesOnKind(t *testing.T) {
	task := &Asset{
		Entity: &domain.Entity{
			Name:       "retrain-weekly",
			EntityType: domain.EntityTypeTask,
		},
		Task: &domain.Task{
			Workflow: datatypes.JSON([]byte(`{"steps": [{"run": "train"}]}`)),
			Version:  "2",
		},
	}
	model := &Asset{
		Entity: &domain.Entity{
			Name:       "retrain-weekly",
			EntityType: domain.EntityTypeTrainedModel,
		},
		TrainedModel: &domain.TrainedModel{
			ModelPath: "s3://models/retrain-weekly",
			Framework: "pytorch",
		},
	}
	if hashAsset(t, task) == hashAsset(t, model) {
		t.Fatalf("different kinds with the same name hashed identically")
	}
}

func TestFieldStateRejectsAmbiguousAsset(t *testing.T) {
	a := datasetAsset(func(a *Asset) {
		a.Task = &domain.Task{Workflow: datatypes.JSON([]byte(`{}`))}
	})
	if _, err := a.FieldState(); err == nil {
		t.Fatalf("expected error for asset with two subtype records")
	}
}

func TestFieldStateRejectsKindMismatch(t *testing.T) {
	a := datasetAsset(func(a *Asset) {
		a.Entity.EntityType = domain.EntityTypeTask
	})
	if _, err := a.FieldState(); err == nil {
		t.Fatalf("expected error for entity type / subtype mismatch")
	}
}
