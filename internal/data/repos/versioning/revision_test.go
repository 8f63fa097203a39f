package versioning_test

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/mlfoundry/catalog-backend/internal/data/repos/testutil"
	"github.com/mlfoundry/catalog-backend/internal/data/repos/versioning"
	types "github.com/mlfoundry/catalog-backend/internal/domain"
)

func TestRevisionRepoCountsAndPaging(t *testing.T) {
	ctx := context.Background()
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	repo := versioning.NewRevisionRepo(db, testutil.Logger(t))

	entityID := uuid.New()
	var txIDs []int64
	for i := 0; i < 3; i++ {
		ledger := testutil.SeedLedger(t, ctx, tx, int64(9400+i))
		testutil.SeedEntityRevision(t, ctx, tx, entityID, ledger.ID, types.OperationUpdate)
		txIDs = append(txIDs, ledger.ID)
	}

	total, err := repo.CountByEntityID(ctx, tx, entityID)
	if err != nil {
		t.Fatalf("count revisions: %v", err)
	}
	if total != 3 {
		t.Fatalf("expected 3 revisions, got %d", total)
	}

	upTo, err := repo.CountUpTo(ctx, tx, entityID, txIDs[1])
	if err != nil {
		t.Fatalf("count up to: %v", err)
	}
	if upTo != 2 {
		t.Fatalf("expected 2 revisions up to tx %d, got %d", txIDs[1], upTo)
	}

	page, err := repo.ListPageDesc(ctx, tx, entityID, 1, 2)
	if err != nil {
		t.Fatalf("list page: %v", err)
	}
	if len(page) != 2 {
		t.Fatalf("expected 2 revisions in page, got %d", len(page))
	}
	if page[0].TransactionID != txIDs[1] || page[1].TransactionID != txIDs[0] {
		t.Fatalf("expected descending page skipping newest, got %d then %d",
			page[0].TransactionID, page[1].TransactionID)
	}
}

func TestRevisionRepoIndexLookups(t *testing.T) {
	ctx := context.Background()
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	repo := versioning.NewRevisionRepo(db, testutil.Logger(t))

	entityID := uuid.New()
	var txIDs []int64
	for i := 0; i < 3; i++ {
		ledger := testutil.SeedLedger(t, ctx, tx, int64(9500+i))
		testutil.SeedEntityRevision(t, ctx, tx, entityID, ledger.ID, types.OperationUpdate)
		txIDs = append(txIDs, ledger.ID)
	}

	got, ok, err := repo.TransactionIDAt(ctx, tx, entityID, 1)
	if err != nil {
		t.Fatalf("transaction id at index: %v", err)
	}
	if !ok || got != txIDs[1] {
		t.Fatalf("expected tx %d at index 1, got %d (ok=%v)", txIDs[1], got, ok)
	}

	_, ok, err = repo.TransactionIDAt(ctx, tx, entityID, 3)
	if err != nil {
		t.Fatalf("transaction id past end: %v", err)
	}
	if ok {
		t.Fatalf("expected no revision at index 3")
	}

	latest, ok, err := repo.LatestTransactionID(ctx, tx, entityID)
	if err != nil {
		t.Fatalf("latest transaction id: %v", err)
	}
	if !ok || latest != txIDs[2] {
		t.Fatalf("expected latest tx %d, got %d (ok=%v)", txIDs[2], latest, ok)
	}
}

func TestRevisionRepoSubtypeSnapshots(t *testing.T) {
	ctx := context.Background()
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	repo := versioning.NewRevisionRepo(db, testutil.Logger(t))

	entityID := uuid.New()
	l1 := testutil.SeedLedger(t, ctx, tx, 9601)
	l2 := testutil.SeedLedger(t, ctx, tx, 9602)
	testutil.SeedDatasetRevision(t, ctx, tx, entityID, l1.ID, "s3://assets/v1")
	testutil.SeedDatasetRevision(t, ctx, tx, entityID, l2.ID, "s3://assets/v2")

	rev, err := repo.GetDatasetRevision(ctx, tx, entityID, l1.ID)
	if err != nil {
		t.Fatalf("get dataset revision: %v", err)
	}
	if rev == nil || rev.DataPath != "s3://assets/v1" {
		t.Fatalf("expected snapshot with v1 path, got %+v", rev)
	}

	bulk, err := repo.ListDatasetRevisionsByTransactionIDs(ctx, tx, entityID, []int64{l1.ID, l2.ID})
	if err != nil {
		t.Fatalf("bulk dataset revisions: %v", err)
	}
	if len(bulk) != 2 {
		t.Fatalf("expected 2 snapshots, got %d", len(bulk))
	}

	ledger, err := repo.GetLedgerByIDs(ctx, tx, []int64{l1.ID, l2.ID})
	if err != nil {
		t.Fatalf("get ledger rows: %v", err)
	}
	if len(ledger) != 2 {
		t.Fatalf("expected 2 ledger rows, got %d", len(ledger))
	}
	for _, row := range ledger {
		if row.IssuedAt.IsZero() {
			t.Fatalf("expected issued_at to be set on ledger row %d", row.ID)
		}
	}
}
