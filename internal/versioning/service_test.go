package versioning_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/mlfoundry/catalog-backend/internal/data/repos"
	"github.com/mlfoundry/catalog-backend/internal/data/repos/testutil"
	types "github.com/mlfoundry/catalog-backend/internal/domain"
	"github.com/mlfoundry/catalog-backend/internal/versioning"
)

func newVersionService(t *testing.T) (versioning.VersionService, *gorm.DB) {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	svc := versioning.NewVersionService(
		db,
		log,
		versioning.NewSubstrate(log),
		repos.NewEntityRepo(db, log),
		repos.NewDatasetRepo(db, log),
		repos.NewTrainedModelRepo(db, log),
		repos.NewTaskRepo(db, log),
		repos.NewVersionHashRepo(db, log),
		repos.NewRevisionRepo(db, log),
	)
	return svc, db
}

// createDatasetAsset inserts the live rows in their own transaction, so
// the asset starts with one raw revision no checkpoint covers.
func createDatasetAsset(t *testing.T, ctx context.Context, db *gorm.DB, name string) *versioning.Asset {
	t.Helper()
	entity := &types.Entity{
		ID:          uuid.New(),
		Name:        name,
		EntityType:  types.EntityTypeDataset,
		AssetOrigin: "ingest",
		Metadata:    datatypes.JSON([]byte(`{"rows": 100}`)),
	}
	dataset := &types.Dataset{
		EntityID: entity.ID,
		DataPath: "s3://assets/" + name,
		Format:   "parquet",
	}
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(entity).Error; err != nil {
			return err
		}
		return tx.Create(dataset).Error
	})
	if err != nil {
		t.Fatalf("create asset rows: %v", err)
	}
	return &versioning.Asset{Entity: entity, Dataset: dataset}
}

func TestVersionLifecycle(t *testing.T) {
	ctx := context.Background()
	svc, db := newVersionService(t)

	asset := createDatasetAsset(t, ctx, db, "lifecycle-ds")
	entityID := asset.Entity.ID
	cleanupEntity(t, db, entityID)

	// Checkpoint 1: the initial content, tagged v1.
	cp1, err := svc.Checkpoint(ctx, nil, asset, []string{"v1"})
	if err != nil {
		t.Fatalf("first checkpoint: %v", err)
	}
	if cp1.Deduplicated {
		t.Fatalf("first checkpoint should not dedup")
	}
	h1 := cp1.VersionHash.ContentHash
	if asset.Entity.CurrentVersionHash != h1 {
		t.Fatalf("expected live entity to point at %s, got %s", h1, asset.Entity.CurrentVersionHash)
	}

	// Checkpoint 2: changed content, tagged prod.
	asset.Dataset.Format = "csv"
	asset.Dataset.LongDescription = "converted to csv"
	cp2, err := svc.Checkpoint(ctx, nil, asset, []string{"prod"})
	if err != nil {
		t.Fatalf("second checkpoint: %v", err)
	}
	h2 := cp2.VersionHash.ContentHash
	if h2 == h1 {
		t.Fatalf("changed content should produce a new hash")
	}

	// Checkpoint 3: revert to the v1 field values. Content dedups onto
	// the first version, but the live rows still commit.
	asset.Dataset.Format = "parquet"
	asset.Dataset.LongDescription = ""
	cp3, err := svc.Checkpoint(ctx, nil, asset, nil)
	if err != nil {
		t.Fatalf("revert checkpoint: %v", err)
	}
	if !cp3.Deduplicated {
		t.Fatalf("reverted content should dedup onto the existing version")
	}
	if cp3.VersionHash.ContentHash != h1 {
		t.Fatalf("dedup should land on %s, got %s", h1, cp3.VersionHash.ContentHash)
	}
	liveDataset, err := repos.NewDatasetRepo(db, testutil.Logger(t)).GetByEntityID(ctx, nil, entityID)
	if err != nil {
		t.Fatalf("read live dataset: %v", err)
	}
	if liveDataset.Format != "parquet" {
		t.Fatalf("live row should carry the reverted value, got %q", liveDataset.Format)
	}

	// Raw history: create, checkpoint v1, checkpoint prod, revert save.
	assertHistoryAndResolution(t, ctx, svc, entityID, h1, h2)
	assertVersionData(t, ctx, svc, entityID, h1, h2)
	assertTagging(t, ctx, svc, entityID, h1, h2)
	assertPurge(t, ctx, svc, db, entityID)
}

func assertHistoryAndResolution(t *testing.T, ctx context.Context, svc versioning.VersionService, entityID uuid.UUID, h1, h2 string) {
	t.Helper()

	res, err := svc.Resolve(ctx, nil, entityID, "prod")
	if err != nil {
		t.Fatalf("resolve prod: %v", err)
	}
	if res.Hash == nil || *res.Hash != h2 || res.Index != 2 {
		t.Fatalf("prod should resolve to %s at index 2, got %+v", h2, res)
	}

	res, err = svc.Resolve(ctx, nil, entityID, "v1")
	if err != nil {
		t.Fatalf("resolve v1: %v", err)
	}
	if res.Hash == nil || *res.Hash != h1 || res.Index != 1 {
		t.Fatalf("v1 should resolve to %s at index 1, got %+v", h1, res)
	}

	res, err = svc.Resolve(ctx, nil, entityID, h1)
	if err != nil {
		t.Fatalf("resolve by hash: %v", err)
	}
	if res.Index != 1 {
		t.Fatalf("hash %s should resolve to index 1, got %d", h1, res.Index)
	}

	// The revert save is the newest raw revision and no checkpoint
	// anchors to it, so its hash is nil.
	res, err = svc.Resolve(ctx, nil, entityID, "~-1")
	if err != nil {
		t.Fatalf("resolve ~-1: %v", err)
	}
	if res.Index != 3 || res.Hash != nil {
		t.Fatalf("~-1 should land on index 3 with no hash, got %+v", res)
	}

	res, err = svc.Resolve(ctx, nil, entityID, "~0")
	if err != nil {
		t.Fatalf("resolve ~0: %v", err)
	}
	if res.Index != 0 || res.Hash != nil {
		t.Fatalf("~0 should land on the uncheckpointed create, got %+v", res)
	}

	if _, err = svc.Resolve(ctx, nil, entityID, "~4"); !versioning.IsNotFound(err) {
		t.Fatalf("~4 should be out of range, got %v", err)
	}
	if _, err = svc.Resolve(ctx, nil, entityID, "~-5"); !versioning.IsNotFound(err) {
		t.Fatalf("~-5 should be out of range, got %v", err)
	}
	if _, err = svc.Resolve(ctx, nil, entityID, "~x"); !versioning.IsInvalidReference(err) {
		t.Fatalf("~x should be an invalid reference, got %v", err)
	}
	if _, err = svc.Resolve(ctx, nil, entityID, "~+3"); !versioning.IsInvalidReference(err) {
		t.Fatalf("~+3 should be an invalid reference, got %v", err)
	}
	if _, err = svc.Resolve(ctx, nil, entityID, "no-such-tag"); !versioning.IsNotFound(err) {
		t.Fatalf("unknown tag should be not found, got %v", err)
	}

	page, err := svc.ListHistory(ctx, nil, entityID, versioning.HistoryOptions{IncludeChangeset: true})
	if err != nil {
		t.Fatalf("list history: %v", err)
	}
	if page.Total != 4 || len(page.Items) != 4 {
		t.Fatalf("expected 4 revisions, got total=%d items=%d", page.Total, len(page.Items))
	}
	newest := page.Items[0]
	if newest.Index != 3 || newest.ContentHash != nil {
		t.Fatalf("newest item should be the uncheckpointed revert, got %+v", newest)
	}
	second := page.Items[1]
	if second.Index != 2 || second.ContentHash == nil || *second.ContentHash != h2 {
		t.Fatalf("expected h2 at index 2, got %+v", second)
	}
	if len(second.Tags) != 1 || second.Tags[0] != "prod" {
		t.Fatalf("expected tag prod on index 2, got %v", second.Tags)
	}
	if second.Changeset == nil || second.Changeset["format"] != "csv" {
		t.Fatalf("expected changeset with csv format, got %v", second.Changeset)
	}
	oldest := page.Items[3]
	if oldest.Index != 0 || oldest.Operation != "insert" {
		t.Fatalf("oldest item should be the insert, got %+v", oldest)
	}
	if newest.CreatedAt.IsZero() {
		t.Fatalf("expected created_at from the ledger")
	}

	paged, err := svc.ListHistory(ctx, nil, entityID, versioning.HistoryOptions{Skip: 1, Limit: 2})
	if err != nil {
		t.Fatalf("list history page: %v", err)
	}
	if len(paged.Items) != 2 || paged.Items[0].Index != 2 || paged.Items[1].Index != 1 {
		t.Fatalf("expected indexes 2,1 on skip=1 limit=2, got %+v", paged.Items)
	}
}

func assertVersionData(t *testing.T, ctx context.Context, svc versioning.VersionService, entityID uuid.UUID, h1, h2 string) {
	t.Helper()

	// The live rows were reverted, but the prod snapshot keeps the values
	// recorded when it was checkpointed.
	data, err := svc.GetVersionData(ctx, nil, entityID, "prod")
	if err != nil {
		t.Fatalf("get prod version data: %v", err)
	}
	if data.Fields["format"] != "csv" || data.Fields["long_description"] != "converted to csv" {
		t.Fatalf("prod snapshot should keep the checkpointed values, got %v", data.Fields)
	}
	for _, field := range versioning.FieldsForKind(types.EntityTypeDataset) {
		if _, ok := data.Fields[field]; !ok {
			t.Fatalf("snapshot is missing dataset field %q: %v", field, data.Fields)
		}
	}
	if data.ContentHash == nil || *data.ContentHash != h2 {
		t.Fatalf("prod snapshot should report hash %s, got %+v", h2, data.ContentHash)
	}
	if data.EntityType != types.EntityTypeDataset || data.Name == "" {
		t.Fatalf("snapshot should carry the base fields, got %+v", data)
	}
	if len(data.Tags) != 1 || data.Tags[0] != "prod" {
		t.Fatalf("snapshot should carry its tags, got %v", data.Tags)
	}
	if data.Operation != "update" || data.CreatedAt.IsZero() {
		t.Fatalf("snapshot should carry operation and timestamp, got op=%q created_at=%v",
			data.Operation, data.CreatedAt)
	}

	data, err = svc.GetVersionData(ctx, nil, entityID, "v1")
	if err != nil {
		t.Fatalf("get v1 version data: %v", err)
	}
	if data.Fields["format"] != "parquet" {
		t.Fatalf("v1 snapshot should keep the original format, got %v", data.Fields)
	}
	if data.ContentHash == nil || *data.ContentHash != h1 {
		t.Fatalf("v1 snapshot should report hash %s, got %+v", h1, data.ContentHash)
	}

	// Round trip: the hashed subset of the reconstructed snapshot hashes
	// back to the version it was resolved from.
	state := map[string]any{
		"name":         data.Name,
		"entity_type":  data.EntityType,
		"asset_origin": data.AssetOrigin,
		"is_private":   data.IsPrivate,
		"metadata":     data.Metadata,
	}
	for _, k := range versioning.FieldsForKind(types.EntityTypeDataset) {
		state[k] = data.Fields[k]
	}
	recomputed, err := versioning.HashFieldState(state)
	if err != nil {
		t.Fatalf("recompute hash: %v", err)
	}
	if recomputed != h1 {
		t.Fatalf("reconstructed snapshot hashes to %s, want %s", recomputed, h1)
	}

	// An index reference works too, even without a checkpoint behind it.
	data, err = svc.GetVersionData(ctx, nil, entityID, "~0")
	if err != nil {
		t.Fatalf("get ~0 version data: %v", err)
	}
	if data.ContentHash != nil || data.Fields["format"] != "parquet" {
		t.Fatalf("~0 snapshot should be the raw create, got %+v", data)
	}
}

func assertTagging(t *testing.T, ctx context.Context, svc versioning.VersionService, entityID uuid.UUID, h1, h2 string) {
	t.Helper()

	// Re-tagging the same version with the same name is a no-op.
	if err := svc.Tag(ctx, nil, entityID, h1, "v1"); err != nil {
		t.Fatalf("idempotent re-tag: %v", err)
	}

	// Pointing an existing tag at a different version is refused.
	err := svc.Tag(ctx, nil, entityID, h2, "v1")
	if !versioning.IsDuplicateTag(err) {
		t.Fatalf("expected duplicate tag error, got %v", err)
	}

	// A fresh tag via a tag reference lands on the same version row.
	if err := svc.Tag(ctx, nil, entityID, "prod", "stable"); err != nil {
		t.Fatalf("tag via tag reference: %v", err)
	}
	res, err := svc.Resolve(ctx, nil, entityID, "stable")
	if err != nil {
		t.Fatalf("resolve stable: %v", err)
	}
	if res.Hash == nil || *res.Hash != h2 {
		t.Fatalf("stable should point at %s, got %+v", h2, res)
	}

	// Tagging a revision no checkpoint covers is refused.
	err = svc.Tag(ctx, nil, entityID, "~-1", "latest")
	if !versioning.IsNotFound(err) {
		t.Fatalf("expected not found when tagging an uncheckpointed revision, got %v", err)
	}
}

func assertPurge(t *testing.T, ctx context.Context, svc versioning.VersionService, db *gorm.DB, entityID uuid.UUID) {
	t.Helper()

	if err := svc.Purge(ctx, nil, entityID); err != nil {
		t.Fatalf("purge: %v", err)
	}

	counts := map[string]string{
		"entities":              "id = ?",
		"datasets":              "entity_id = ?",
		"entity_revisions":      "entity_id = ?",
		"dataset_revisions":     "entity_id = ?",
		"entity_version_hashes": "entity_id = ?",
		"entity_version_tags":   "entity_id = ?",
	}
	for table, where := range counts {
		var n int64
		if err := db.Table(table).Where(where, entityID).Count(&n).Error; err != nil {
			t.Fatalf("count %s: %v", table, err)
		}
		if n != 0 {
			t.Fatalf("expected zero %s rows after purge, got %d", table, n)
		}
	}

	if err := svc.Purge(ctx, nil, entityID); !versioning.IsNotFound(err) {
		t.Fatalf("second purge should be not found, got %v", err)
	}
}

func TestCompareAndCheckout(t *testing.T) {
	ctx := context.Background()
	svc, db := newVersionService(t)

	asset := createDatasetAsset(t, ctx, db, "compare-ds")
	entityID := asset.Entity.ID
	cleanupEntity(t, db, entityID)

	cp1, err := svc.Checkpoint(ctx, nil, asset, []string{"v1"})
	if err != nil {
		t.Fatalf("first checkpoint: %v", err)
	}
	h1 := cp1.VersionHash.ContentHash

	asset.Dataset.Format = "csv"
	asset.Dataset.LongDescription = "converted to csv"
	if _, err := svc.Checkpoint(ctx, nil, asset, []string{"prod"}); err != nil {
		t.Fatalf("second checkpoint: %v", err)
	}

	cmp, err := svc.CompareVersions(ctx, nil, entityID, "v1", "prod")
	if err != nil {
		t.Fatalf("compare versions: %v", err)
	}
	if cmp.Left.Index != 1 || cmp.Right.Index != 2 {
		t.Fatalf("expected indexes 1 and 2, got %+v", cmp)
	}
	format, ok := cmp.Differences["format"]
	if !ok || format.Left != "parquet" || format.Right != "csv" {
		t.Fatalf("expected format diff parquet/csv, got %+v", cmp.Differences)
	}
	if _, ok := cmp.Differences["long_description"]; !ok {
		t.Fatalf("expected long_description to differ, got %v", cmp.Differences)
	}
	if _, ok := cmp.Differences["data_path"]; ok {
		t.Fatalf("data_path did not change, got %+v", cmp.Differences["data_path"])
	}

	// Comparing a version with itself reports nothing.
	same, err := svc.CompareVersions(ctx, nil, entityID, "prod", "prod")
	if err != nil {
		t.Fatalf("compare prod with itself: %v", err)
	}
	if len(same.Differences) != 0 {
		t.Fatalf("expected an empty diff, got %v", same.Differences)
	}

	// Checkout restores the live rows and dedups onto the referenced
	// version.
	cp, err := svc.CheckoutVersion(ctx, nil, entityID, "v1")
	if err != nil {
		t.Fatalf("checkout v1: %v", err)
	}
	if !cp.Deduplicated || cp.VersionHash.ContentHash != h1 {
		t.Fatalf("checkout should dedup onto %s, got %+v", h1, cp)
	}
	liveDataset, err := repos.NewDatasetRepo(db, testutil.Logger(t)).GetByEntityID(ctx, nil, entityID)
	if err != nil {
		t.Fatalf("read live dataset: %v", err)
	}
	if liveDataset.Format != "parquet" || liveDataset.LongDescription != "" {
		t.Fatalf("live row should carry the restored values, got %+v", liveDataset)
	}

	// The restore itself is one more raw revision: create, v1, prod,
	// checkout.
	page, err := svc.ListHistory(ctx, nil, entityID, versioning.HistoryOptions{})
	if err != nil {
		t.Fatalf("list history: %v", err)
	}
	if page.Total != 4 {
		t.Fatalf("expected 4 revisions after checkout, got %d", page.Total)
	}
}

func TestOrphanedAnchorRefused(t *testing.T) {
	ctx := context.Background()
	svc, db := newVersionService(t)

	asset := createDatasetAsset(t, ctx, db, "orphan-ds")
	entityID := asset.Entity.ID
	cleanupEntity(t, db, entityID)

	cp, err := svc.Checkpoint(ctx, nil, asset, []string{"v1"})
	if err != nil {
		t.Fatalf("checkpoint: %v", err)
	}

	// A hash row anchored past every snapshot: older revisions exist,
	// but none was captured at the anchor transaction itself.
	orphan := &types.EntityVersionHash{
		EntityID:      entityID,
		TransactionID: cp.VersionHash.TransactionID + 1,
		ContentHash:   strings.Repeat("0f", 32),
	}
	if err := db.WithContext(ctx).Create(orphan).Error; err != nil {
		t.Fatalf("seed orphaned hash row: %v", err)
	}

	if _, err := svc.Resolve(ctx, nil, entityID, orphan.ContentHash); !versioning.IsInternal(err) {
		t.Fatalf("resolving an orphaned anchor should fail, got %v", err)
	}
	if err := svc.Purge(ctx, nil, entityID); !versioning.IsInternal(err) {
		t.Fatalf("purge should refuse an orphaned anchor, got %v", err)
	}

	// The intact version is still resolvable.
	res, err := svc.Resolve(ctx, nil, entityID, "v1")
	if err != nil {
		t.Fatalf("resolve v1: %v", err)
	}
	if res.Hash == nil || *res.Hash != cp.VersionHash.ContentHash {
		t.Fatalf("v1 should still resolve, got %+v", res)
	}
}

func TestCheckpointRaceLandsOnWinner(t *testing.T) {
	ctx := context.Background()
	svc, db := newVersionService(t)

	asset := createDatasetAsset(t, ctx, db, "race-ds")
	entityID := asset.Entity.ID
	cleanupEntity(t, db, entityID)

	// Two transactions checkpoint identical content concurrently. The
	// second misses the dedup lookup while the first is uncommitted,
	// loses the (entity_id, content_hash) insert once the first commits,
	// and must land on the winner's row with its tag applied.
	winner := db.WithContext(ctx).Begin()
	if winner.Error != nil {
		t.Fatalf("begin winner transaction: %v", winner.Error)
	}
	cpWinner, err := svc.Checkpoint(ctx, winner, asset, []string{"winner"})
	if err != nil {
		winner.Rollback()
		t.Fatalf("winner checkpoint: %v", err)
	}

	loserEntity := *asset.Entity
	loserDataset := *asset.Dataset
	loserAsset := &versioning.Asset{Entity: &loserEntity, Dataset: &loserDataset}

	type outcome struct {
		cp  *versioning.Checkpoint
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		loser := db.WithContext(ctx).Begin()
		if loser.Error != nil {
			done <- outcome{err: loser.Error}
			return
		}
		cp, err := svc.Checkpoint(ctx, loser, loserAsset, []string{"challenger"})
		if err != nil {
			loser.Rollback()
			done <- outcome{err: err}
			return
		}
		done <- outcome{cp: cp, err: loser.Commit().Error}
	}()

	// Let the loser pass its dedup lookup and block on the winner's row
	// locks before the winner commits.
	time.Sleep(200 * time.Millisecond)
	if err := winner.Commit().Error; err != nil {
		t.Fatalf("commit winner: %v", err)
	}

	got := <-done
	if got.err != nil {
		t.Fatalf("racing checkpoint: %v", got.err)
	}
	if got.cp.VersionHash.ID != cpWinner.VersionHash.ID {
		t.Fatalf("loser should land on the winner's row %s, got %s",
			cpWinner.VersionHash.ID, got.cp.VersionHash.ID)
	}

	for _, tag := range []string{"winner", "challenger"} {
		res, err := svc.Resolve(ctx, nil, entityID, tag)
		if err != nil {
			t.Fatalf("resolve %s: %v", tag, err)
		}
		if res.Hash == nil || *res.Hash != cpWinner.VersionHash.ContentHash {
			t.Fatalf("tag %s should point at the winner's content, got %+v", tag, res)
		}
	}
}

func TestHistoryTimestampPrefersAnchorRow(t *testing.T) {
	ctx := context.Background()
	svc, db := newVersionService(t)
	tx := testutil.Tx(t, db)

	entityID := uuid.New()
	anchoredAt := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	checkpointed := testutil.SeedLedger(t, ctx, tx, 9801)
	testutil.SeedEntityRevision(t, ctx, tx, entityID, checkpointed.ID, types.OperationInsert)
	hashRow := &types.EntityVersionHash{
		EntityID:      entityID,
		TransactionID: checkpointed.ID,
		ContentHash:   strings.Repeat("ab", 32),
		CreatedAt:     anchoredAt,
	}
	if err := tx.WithContext(ctx).Create(hashRow).Error; err != nil {
		t.Fatalf("seed hash row: %v", err)
	}

	raw := testutil.SeedLedger(t, ctx, tx, 9802)
	testutil.SeedEntityRevision(t, ctx, tx, entityID, raw.ID, types.OperationUpdate)

	page, err := svc.ListHistory(ctx, tx, entityID, versioning.HistoryOptions{})
	if err != nil {
		t.Fatalf("list history: %v", err)
	}
	if len(page.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(page.Items))
	}
	anchored := page.Items[1]
	if anchored.ContentHash == nil || !anchored.CreatedAt.Equal(anchoredAt) {
		t.Fatalf("anchored item should carry the hash row's timestamp, got %+v", anchored)
	}
	uncheckpointed := page.Items[0]
	if uncheckpointed.ContentHash != nil || uncheckpointed.CreatedAt.IsZero() {
		t.Fatalf("uncheckpointed item should fall back to the ledger timestamp, got %+v", uncheckpointed)
	}
	if uncheckpointed.CreatedAt.Equal(anchoredAt) {
		t.Fatalf("uncheckpointed item must not reuse the anchor timestamp")
	}
}

func TestCheckpointTaskAsset(t *testing.T) {
	ctx := context.Background()
	svc, db := newVersionService(t)

	entity := &types.Entity{
		ID:         uuid.New(),
		Name:       "nightly-eval",
		EntityType: types.EntityTypeTask,
		Metadata:   datatypes.JSON([]byte(`{}`)),
	}
	task := &types.Task{
		EntityID: entity.ID,
		Workflow: datatypes.JSON([]byte(`{"steps": [{"run": "eval"}]}`)),
		Version:  "1",
	}
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(entity).Error; err != nil {
			return err
		}
		return tx.Create(task).Error
	})
	if err != nil {
		t.Fatalf("create task rows: %v", err)
	}
	cleanupEntity(t, db, entity.ID)

	asset := &versioning.Asset{Entity: entity, Task: task}
	cp, err := svc.Checkpoint(ctx, nil, asset, []string{"baseline"})
	if err != nil {
		t.Fatalf("checkpoint task: %v", err)
	}

	data, err := svc.GetVersionData(ctx, nil, entity.ID, "baseline")
	if err != nil {
		t.Fatalf("get task version data: %v", err)
	}
	if data.Fields["version"] != "1" {
		t.Fatalf("expected task snapshot fields, got %v", data.Fields)
	}
	if data.ContentHash == nil || *data.ContentHash != cp.VersionHash.ContentHash {
		t.Fatalf("expected baseline to resolve to the checkpointed hash")
	}
}
