package db

import (
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/hpungsan/vaultd/internal/content"
	"github.com/hpungsan/vaultd/internal/errors"
)

func testDB(t *testing.T) *sql.DB {
	t.Helper()
	database, err := Init(t.TempDir())
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return database
}

func stage(t *testing.T, database *sql.DB, id string, stagedAt time.Time) *Contribution {
	t.Helper()
	c := &Contribution{
		ID:             id,
		OriginalLength: 64,
		Sanitised:      "Aave v3 liquidation threshold raised to " + RedactedSuffix,
		StrippedTerms:  []string{"my portfolio"},
		Report:         []content.PatternMatch{{Pattern: "personal_reference", Count: 1}},
		Classifications: []content.Classification{
			{Category: "defi", Confidence: 0.667, MatchedTerms: []string{"liquidation"}},
		},
		StagedAt: stagedAt,
	}
	if err := StageContribution(database, c); err != nil {
		t.Fatalf("StageContribution failed: %v", err)
	}
	return c
}

// RedactedSuffix keeps the staged fixture obviously sanitised.
const RedactedSuffix = "[redacted]"

func TestCounters_IncrementAndRead(t *testing.T) {
	database := testDB(t)

	counters, err := GetCounters(database)
	if err != nil {
		t.Fatal(err)
	}
	if counters != (Counters{}) {
		t.Errorf("fresh counters = %+v, want zeros", counters)
	}

	for i := 0; i < 3; i++ {
		if err := IncrementCounter(database, CounterQueries); err != nil {
			t.Fatal(err)
		}
	}
	if err := IncrementCounter(database, CounterApproved); err != nil {
		t.Fatal(err)
	}

	counters, err = GetCounters(database)
	if err != nil {
		t.Fatal(err)
	}
	if counters.Queries != 3 || counters.Approved != 1 || counters.Staged != 0 {
		t.Errorf("counters = %+v", counters)
	}
}

func TestStage_RoundTrip(t *testing.T) {
	database := testDB(t)
	stagedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	staged := stage(t, database, "01ARZ3NDEKTSV4RRFFQ69G5FAV", stagedAt)

	got, err := GetContribution(database, staged.ID)
	if err != nil {
		t.Fatalf("GetContribution failed: %v", err)
	}
	if got.Status != StatusPending {
		t.Errorf("status = %s, want pending", got.Status)
	}
	if got.Sanitised != staged.Sanitised || got.OriginalLength != 64 {
		t.Errorf("record = %+v", got)
	}
	if len(got.StrippedTerms) != 1 || got.StrippedTerms[0] != "my portfolio" {
		t.Errorf("stripped = %v", got.StrippedTerms)
	}
	if len(got.Report) != 1 || got.Report[0].Pattern != "personal_reference" {
		t.Errorf("report = %+v", got.Report)
	}
	if len(got.Classifications) != 1 || got.Classifications[0].Category != "defi" {
		t.Errorf("classifications = %+v", got.Classifications)
	}
	if !got.StagedAt.Equal(stagedAt) {
		t.Errorf("staged_at = %v, want %v", got.StagedAt, stagedAt)
	}
	if got.ApprovedAt != nil {
		t.Error("pending record should have no approved_at")
	}

	counters, _ := GetCounters(database)
	if counters.Staged != 1 {
		t.Errorf("staged counter = %d, want 1", counters.Staged)
	}
}

func TestListPending_NewestFirstCapped(t *testing.T) {
	database := testDB(t)
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 25; i++ {
		stage(t, database, fmt.Sprintf("id-%03d", i), base.Add(time.Duration(i)*time.Minute))
	}

	items, total, err := ListPending(database)
	if err != nil {
		t.Fatal(err)
	}
	if total != 25 {
		t.Errorf("total = %d, want 25", total)
	}
	if len(items) != 20 {
		t.Errorf("page = %d items, want 20", len(items))
	}
	if items[0].ID != "id-024" {
		t.Errorf("first item = %s, want the newest", items[0].ID)
	}
}

func TestApprove_Lifecycle(t *testing.T) {
	database := testDB(t)
	staged := stage(t, database, "approve-me", time.Now().UTC())

	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	approved, err := ApproveContribution(database, staged.ID, now)
	if err != nil {
		t.Fatalf("ApproveContribution failed: %v", err)
	}
	if approved.Status != StatusApproved {
		t.Errorf("status = %s", approved.Status)
	}
	if approved.ApprovedAt == nil || !approved.ApprovedAt.Equal(now) {
		t.Errorf("approved_at = %v, want %v", approved.ApprovedAt, now)
	}

	counters, _ := GetCounters(database)
	if counters.Approved != 1 {
		t.Errorf("approved counter = %d, want 1", counters.Approved)
	}

	// A record leaves the pending set on approval.
	if _, total, _ := ListPending(database); total != 0 {
		t.Errorf("pending total = %d after approval, want 0", total)
	}

	// Approving twice does not double-count.
	if _, err := ApproveContribution(database, staged.ID, now); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("second approval = %v, want ErrNotFound", err)
	}
	counters, _ = GetCounters(database)
	if counters.Approved != 1 {
		t.Errorf("approved counter after double approve = %d, want 1", counters.Approved)
	}
}

func TestReject_DeletesOutright(t *testing.T) {
	database := testDB(t)
	staged := stage(t, database, "reject-me", time.Now().UTC())

	if err := RejectContribution(database, staged.ID); err != nil {
		t.Fatalf("RejectContribution failed: %v", err)
	}
	if _, err := GetContribution(database, staged.ID); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("rejected record still readable: %v", err)
	}
	if err := RejectContribution(database, staged.ID); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("second reject = %v, want ErrNotFound", err)
	}

	// Rejection never touches the approved counter.
	counters, _ := GetCounters(database)
	if counters.Approved != 0 {
		t.Errorf("approved counter = %d, want 0", counters.Approved)
	}
}

func TestApprove_UnknownID(t *testing.T) {
	database := testDB(t)
	if _, err := ApproveContribution(database, "ghost", time.Now()); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}
