package audit

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

type stubRepo struct {
	windowEntries []Entry
	allEntries    []Entry
	lastLimit     int
	lastOffset    int
	lastFilters   Filters
}

func (s *stubRepo) Window(ctx context.Context, filters Filters, limit, offset int) ([]Entry, error) {
	s.lastFilters = filters
	s.lastLimit = limit
	s.lastOffset = offset
	if limit < len(s.windowEntries) {
		return s.windowEntries[:limit], nil
	}
	return s.windowEntries, nil
}

func (s *stubRepo) All(ctx context.Context, filters Filters) ([]Entry, error) {
	s.lastFilters = filters
	return s.allEntries, nil
}

func mockEntry(ts, action, actor string) Entry {
	at, _ := time.Parse(time.RFC3339, ts)
	return Entry{ID: uuid.New(), Action: action, ActorID: actor, At: at}
}

func TestTimelinePaging(t *testing.T) {
	repo := &stubRepo{windowEntries: []Entry{
		mockEntry("2026-08-10T10:00:00Z", ActionRoleAssigned, "owner"),
		mockEntry("2026-08-09T09:00:00Z", ActionTrainerRemoved, "owner"),
		mockEntry("2026-08-08T08:00:00Z", ActionRoleAssigned, "root"),
	}}
	svc := NewService(repo)

	result, err := svc.Timeline(context.Background(), Filters{Page: 1, PageSize: 2})
	if err != nil {
		t.Fatalf("timeline: %v", err)
	}
	if len(result.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(result.Entries))
	}
	if !result.Paging.HasNext {
		t.Fatalf("expected hasNext true")
	}
	if result.Paging.NextPage != 2 {
		t.Fatalf("expected next page 2, got %d", result.Paging.NextPage)
	}
	if repo.lastLimit != 3 {
		t.Fatalf("expected probe limit 3, got %d", repo.lastLimit)
	}
	if repo.lastOffset != 0 {
		t.Fatalf("expected offset 0, got %d", repo.lastOffset)
	}
}

func TestTimelineClampsPageSize(t *testing.T) {
	repo := &stubRepo{}
	svc := NewService(repo)

	if _, err := svc.Timeline(context.Background(), Filters{PageSize: 500}); err != nil {
		t.Fatalf("timeline: %v", err)
	}
	if repo.lastLimit != maxPageSize+1 {
		t.Fatalf("expected clamped limit %d, got %d", maxPageSize+1, repo.lastLimit)
	}
}

func TestExportReturnsAllEntries(t *testing.T) {
	repo := &stubRepo{allEntries: []Entry{
		mockEntry("2026-08-10T10:00:00Z", ActionOwnershipTransferred, "owner"),
		mockEntry("2026-08-09T09:00:00Z", ActionRoleAssigned, "owner"),
	}}
	svc := NewService(repo)

	entries, err := svc.Export(context.Background(), Filters{ActorID: "owner"})
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if repo.lastFilters.ActorID != "owner" {
		t.Fatalf("expected actor filter forwarded")
	}
}

func TestWriteCSV(t *testing.T) {
	exporter := NewExporter()
	entry := mockEntry("2026-08-10T10:00:00Z", ActionRoleAssigned, "owner")
	entry.TargetID = "member"
	entry.OldRole = "user"
	entry.NewRole = "trainer"
	entry.ClubID = "club-1"

	data, err := exporter.WriteCSV([]Entry{entry})
	if err != nil {
		t.Fatalf("write csv: %v", err)
	}
	out := string(data)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected header + 1 row, got %d lines", len(lines))
	}
	if !strings.HasPrefix(lines[0], "id,at,action") {
		t.Fatalf("unexpected header: %s", lines[0])
	}
	for _, want := range []string{"role.assigned", "owner", "member", "trainer", "2026-08-10T10:00:00Z"} {
		if !strings.Contains(lines[1], want) {
			t.Fatalf("expected %q in csv row %q", want, lines[1])
		}
	}
}
