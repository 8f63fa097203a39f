package versioning

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mlfoundry/catalog-backend/internal/domain"
)

const defaultHistoryLimit = 50

// HistoryOptions controls history pagination and payload shape.
type HistoryOptions struct {
	// Skip is the number of newest revisions to pass over.
	Skip int
	// Limit caps the page size; zero or negative uses the default of 50.
	Limit int
	// IncludeChangeset attaches the kind-specific field values snapshotted
	// at each revision.
	IncludeChangeset bool
}

// HistoryItem is one raw revision of an entity, newest first within a
// page.
type HistoryItem struct {
	TransactionID int64          `json:"transaction_id"`
	Index         int64          `json:"index"`
	Operation     string         `json:"operation"`
	ContentHash   *string        `json:"content_hash,omitempty"`
	Tags          []string       `json:"tags"`
	CreatedAt     time.Time      `json:"created_at"`
	Changeset     map[string]any `json:"changeset,omitempty"`
}

// HistoryPage is one page of an entity's history plus the total raw
// revision count.
type HistoryPage struct {
	Items []HistoryItem `json:"items"`
	Total int64         `json:"total"`
}

// VersionData is the full snapshot of an entity at one resolved version.
type VersionData struct {
	EntityID      uuid.UUID      `json:"entity_id"`
	TransactionID int64          `json:"transaction_id"`
	Index         int64          `json:"index"`
	ContentHash   *string        `json:"content_hash,omitempty"`
	Tags          []string       `json:"tags"`
	Operation     string         `json:"operation"`
	CreatedAt     time.Time      `json:"created_at"`
	Name          string         `json:"name"`
	EntityType    string         `json:"entity_type"`
	AssetOrigin   string         `json:"asset_origin"`
	IsPrivate     bool           `json:"is_private"`
	Metadata      map[string]any `json:"metadata"`
	Fields        map[string]any `json:"fields"`
}

func (vs *versionService) ListHistory(ctx context.Context, tx *gorm.DB, entityID uuid.UUID, opts HistoryOptions) (*HistoryPage, error) {
	const op = "versioning.ListHistory"

	transaction := tx
	if transaction == nil {
		transaction = vs.db
	}

	skip := opts.Skip
	if skip < 0 {
		skip = 0
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = defaultHistoryLimit
	}

	total, err := vs.revisionRepo.CountByEntityID(ctx, transaction, entityID)
	if err != nil {
		return nil, NewError(CodeInternal, op, "count revisions", err)
	}

	page := &HistoryPage{Items: []HistoryItem{}, Total: total}
	if total == 0 {
		return page, nil
	}

	revs, err := vs.revisionRepo.ListPageDesc(ctx, transaction, entityID, skip, limit)
	if err != nil {
		return nil, NewError(CodeInternal, op, "read revision page", err)
	}
	if len(revs) == 0 {
		return page, nil
	}

	txIDs := make([]int64, 0, len(revs))
	for _, rev := range revs {
		txIDs = append(txIDs, rev.TransactionID)
	}

	hashRows, err := vs.versionHashRepo.ListByEntityID(ctx, transaction, entityID, false)
	if err != nil {
		return nil, NewError(CodeInternal, op, "read version hashes", err)
	}
	hashByTxID := make(map[int64]*domain.EntityVersionHash, len(hashRows))
	hashIDs := make([]uuid.UUID, 0, len(hashRows))
	for _, row := range hashRows {
		hashByTxID[row.TransactionID] = row
		hashIDs = append(hashIDs, row.ID)
	}

	tags, err := vs.versionHashRepo.ListTagsByVersionHashIDs(ctx, transaction, hashIDs)
	if err != nil {
		return nil, NewError(CodeInternal, op, "read version tags", err)
	}
	tagsByHashID := make(map[uuid.UUID][]string)
	for _, tag := range tags {
		tagsByHashID[tag.VersionHashID] = append(tagsByHashID[tag.VersionHashID], tag.TagName)
	}

	ledger, err := vs.revisionRepo.GetLedgerByIDs(ctx, transaction, txIDs)
	if err != nil {
		return nil, NewError(CodeInternal, op, "read ledger rows", err)
	}
	issuedAtByTxID := make(map[int64]time.Time, len(ledger))
	for _, row := range ledger {
		issuedAtByTxID[row.ID] = row.IssuedAt
	}

	var changesets map[int64]map[string]any
	if opts.IncludeChangeset {
		changesets, err = vs.subtypeChangesets(ctx, transaction, entityID, revs[0].EntityType, txIDs)
		if err != nil {
			return nil, err
		}
	}

	for position, rev := range revs {
		item := HistoryItem{
			TransactionID: rev.TransactionID,
			Index:         total - int64(skip) - int64(position) - 1,
			Operation:     rev.OperationType.String(),
			Tags:          []string{},
		}
		// Anchored items carry the hash row's timestamp; the ledger
		// issued_at covers uncheckpointed revisions.
		if hashRow, ok := hashByTxID[rev.TransactionID]; ok {
			h := hashRow.ContentHash
			item.ContentHash = &h
			if names := tagsByHashID[hashRow.ID]; names != nil {
				item.Tags = names
			}
			item.CreatedAt = hashRow.CreatedAt
		}
		if item.CreatedAt.IsZero() {
			item.CreatedAt = issuedAtByTxID[rev.TransactionID]
		}
		if changesets != nil {
			item.Changeset = changesets[rev.TransactionID]
		}
		page.Items = append(page.Items, item)
	}
	return page, nil
}

func (vs *versionService) GetVersionData(ctx context.Context, tx *gorm.DB, entityID uuid.UUID, ref string) (*VersionData, error) {
	const op = "versioning.GetVersionData"

	transaction := tx
	if transaction == nil {
		transaction = vs.db
	}

	res, err := vs.resolveRef(ctx, transaction, entityID, ref)
	if err != nil {
		return nil, err
	}

	base, err := vs.revisionRepo.GetByTransactionID(ctx, transaction, entityID, res.TransactionID)
	if err != nil {
		return nil, NewError(CodeInternal, op, "read base revision", err)
	}
	if base == nil {
		return nil, NewError(CodeInternal, op,
			fmt.Sprintf("resolved transaction %d has no base snapshot", res.TransactionID), nil)
	}

	fields, err := vs.subtypeFields(ctx, transaction, entityID, base.EntityType, res.TransactionID)
	if err != nil {
		return nil, err
	}

	metadata, err := decodeJSONMap(base.Metadata)
	if err != nil {
		return nil, NewError(CodeInternal, op, "decode snapshot metadata", err)
	}

	tags := []string{}
	var createdAt time.Time
	if res.Hash != nil {
		hashRow, err := vs.versionHashRepo.FindByContentHash(ctx, transaction, entityID, *res.Hash)
		if err != nil {
			return nil, NewError(CodeInternal, op, "read version tags", err)
		}
		if hashRow != nil {
			createdAt = hashRow.CreatedAt
			tagRows, err := vs.versionHashRepo.ListTagsByVersionHashIDs(ctx, transaction, []uuid.UUID{hashRow.ID})
			if err != nil {
				return nil, NewError(CodeInternal, op, "read version tags", err)
			}
			for _, tag := range tagRows {
				tags = append(tags, tag.TagName)
			}
		}
	}
	if createdAt.IsZero() {
		ledger, err := vs.revisionRepo.GetLedgerByIDs(ctx, transaction, []int64{res.TransactionID})
		if err != nil {
			return nil, NewError(CodeInternal, op, "read ledger row", err)
		}
		if len(ledger) > 0 {
			createdAt = ledger[0].IssuedAt
		}
	}

	return &VersionData{
		EntityID:      entityID,
		TransactionID: res.TransactionID,
		Index:         res.Index,
		ContentHash:   res.Hash,
		Tags:          tags,
		Operation:     base.OperationType.String(),
		CreatedAt:     createdAt,
		Name:          base.Name,
		EntityType:    base.EntityType,
		AssetOrigin:   base.AssetOrigin,
		IsPrivate:     base.IsPrivate,
		Metadata:      metadata,
		Fields:        fields,
	}, nil
}

// subtypeFields projects the kind-specific snapshot at one transaction
// into the field map GetVersionData exposes.
func (vs *versionService) subtypeFields(ctx context.Context, tx *gorm.DB, entityID uuid.UUID, kind string, transactionID int64) (map[string]any, error) {
	const op = "versioning.GetVersionData"

	switch kind {
	case domain.EntityTypeDataset:
		rev, err := vs.revisionRepo.GetDatasetRevision(ctx, tx, entityID, transactionID)
		if err != nil {
			return nil, NewError(CodeInternal, op, "read dataset snapshot", err)
		}
		if rev == nil {
			return map[string]any{}, nil
		}
		return datasetRevisionFields(rev)
	case domain.EntityTypeTrainedModel:
		rev, err := vs.revisionRepo.GetTrainedModelRevision(ctx, tx, entityID, transactionID)
		if err != nil {
			return nil, NewError(CodeInternal, op, "read trained model snapshot", err)
		}
		if rev == nil {
			return map[string]any{}, nil
		}
		return trainedModelRevisionFields(rev)
	case domain.EntityTypeTask:
		rev, err := vs.revisionRepo.GetTaskRevision(ctx, tx, entityID, transactionID)
		if err != nil {
			return nil, NewError(CodeInternal, op, "read task snapshot", err)
		}
		if rev == nil {
			return map[string]any{}, nil
		}
		return taskRevisionFields(rev)
	default:
		return map[string]any{}, nil
	}
}

// subtypeChangesets bulk-loads the kind-specific snapshots for a page of
// transactions, one query per page rather than one per row.
func (vs *versionService) subtypeChangesets(ctx context.Context, tx *gorm.DB, entityID uuid.UUID, kind string, txIDs []int64) (map[int64]map[string]any, error) {
	const op = "versioning.ListHistory"

	out := make(map[int64]map[string]any, len(txIDs))
	switch kind {
	case domain.EntityTypeDataset:
		revs, err := vs.revisionRepo.ListDatasetRevisionsByTransactionIDs(ctx, tx, entityID, txIDs)
		if err != nil {
			return nil, NewError(CodeInternal, op, "read dataset snapshots", err)
		}
		for _, rev := range revs {
			fields, err := datasetRevisionFields(rev)
			if err != nil {
				return nil, NewError(CodeInternal, op, "decode dataset snapshot", err)
			}
			out[rev.TransactionID] = fields
		}
	case domain.EntityTypeTrainedModel:
		revs, err := vs.revisionRepo.ListTrainedModelRevisionsByTransactionIDs(ctx, tx, entityID, txIDs)
		if err != nil {
			return nil, NewError(CodeInternal, op, "read trained model snapshots", err)
		}
		for _, rev := range revs {
			fields, err := trainedModelRevisionFields(rev)
			if err != nil {
				return nil, NewError(CodeInternal, op, "decode trained model snapshot", err)
			}
			out[rev.TransactionID] = fields
		}
	case domain.EntityTypeTask:
		revs, err := vs.revisionRepo.ListTaskRevisionsByTransactionIDs(ctx, tx, entityID, txIDs)
		if err != nil {
			return nil, NewError(CodeInternal, op, "read task snapshots", err)
		}
		for _, rev := range revs {
			fields, err := taskRevisionFields(rev)
			if err != nil {
				return nil, NewError(CodeInternal, op, "decode task snapshot", err)
			}
			out[rev.TransactionID] = fields
		}
	}
	return out, nil
}

func datasetRevisionFields(rev *domain.DatasetRevision) (map[string]any, error) {
	meta, err := decodeJSONValue(rev.DatasetMetadata)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"data_path":        rev.DataPath,
		"format":           rev.Format,
		"metadata_version": rev.MetadataVersion,
		"dataset_metadata": meta,
		"long_description": rev.LongDescription,
		"preview_type":     rev.PreviewType,
	}, nil
}

func trainedModelRevisionFields(rev *domain.TrainedModelRevision) (map[string]any, error) {
	meta, err := decodeJSONValue(rev.ModelMetadata)
	if err != nil {
		return nil, err
	}
	attrs, err := decodeJSONValue(rev.ModelAttributes)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"model_path":       rev.ModelPath,
		"framework":        rev.Framework,
		"metadata_version": rev.MetadataVersion,
		"model_metadata":   meta,
		"long_description": rev.LongDescription,
		"model_attributes": attrs,
	}, nil
}

func taskRevisionFields(rev *domain.TaskRevision) (map[string]any, error) {
	workflow, err := decodeJSONValue(rev.Workflow)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"workflow":         workflow,
		"version":          rev.Version,
		"description":      rev.Description,
		"has_file_uploads": rev.HasFileUploads,
	}, nil
}

func decodeJSONMap(raw []byte) (map[string]any, error) {
	v, err := decodeJSONValue(raw)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, nil
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("expected a JSON object, got %T", v)
	}
	return m, nil
}

func decodeJSONValue(raw []byte) (any, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	return jsonTree(raw)
}
