package store

import (
	"context"
	"testing"

	"github.com/dukerupert/barakah/internal/database"
	"github.com/dukerupert/barakah/internal/model"
)

type testStores struct {
	families *FamilyStore
	members  *MemberStore
	items    *CustomItemStore
	entries  *EntryStore
	progress *ProgressStore
	prayers  *PrayerTimesStore
}

func setupTestDB(t *testing.T) testStores {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return testStores{
		families: NewFamilyStore(db),
		members:  NewMemberStore(db),
		items:    NewCustomItemStore(db),
		entries:  NewEntryStore(db),
		progress: NewProgressStore(db),
		prayers:  NewPrayerTimesStore(db),
	}
}

func createMember(t *testing.T, s testStores, familyName, name string) *model.Member {
	t.Helper()
	ctx := context.Background()
	f, err := s.families.Create(ctx, model.Family{Name: familyName})
	if err != nil {
		t.Fatalf("create family: %v", err)
	}
	m, err := s.members.Create(ctx, f.ID, name, model.RoleAdult)
	if err != nil {
		t.Fatalf("create member: %v", err)
	}
	return m
}

func ptr[T any](v T) *T { return &v }
