package resume

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"resumekit/internal/database"
	"resumekit/internal/library"
)

const testUserID uint = 1

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:resume-%d?mode=memory&cache=shared&_fk=1", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}

	t.Cleanup(func() {
		sqlDB, err := db.DB()
		if err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func idRefs(ids ...uint) *[]Ref {
	refs := make([]Ref, 0, len(ids))
	for _, id := range ids {
		refs = append(refs, Ref{ID: id})
	}
	return &refs
}

func inlineRef(t *testing.T, v any) Ref {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal inline ref: %v", err)
	}
	return Ref{Inline: data}
}

func seedExperiences(t *testing.T, lib *library.Store, roles ...string) []uint {
	t.Helper()
	ids := make([]uint, 0, len(roles))
	for _, role := range roles {
		exp, err := lib.CreateExperience(context.Background(), testUserID, library.ExperienceInput{
			Role: role, Company: "Acme", Start: "2020", End: "2022",
		})
		if err != nil {
			t.Fatalf("seed experience %s: %v", role, err)
		}
		ids = append(ids, exp.ID)
	}
	return ids
}

func TestCreatePreservesPartitionOrder(t *testing.T) {
	db := setupTestDB(t)
	store := NewStore(db)
	lib := library.NewStore(db)
	ctx := context.Background()

	ids := seedExperiences(t, lib, "E1", "E2", "E3")

	view, err := store.Create(ctx, testUserID, Payload{
		Name:        "Jane",
		Title:       "Engineer",
		Experiences: idRefs(ids[2], ids[0], ids[1]),
	})
	if err != nil {
		t.Fatalf("create resume: %v", err)
	}

	want := []string{"E3", "E1", "E2"}
	if len(view.Experiences) != 3 {
		t.Fatalf("expected 3 experiences, got %d", len(view.Experiences))
	}
	for i, w := range want {
		if view.Experiences[i].Role != w {
			t.Fatalf("position %d: expected %s, got %s", i, w, view.Experiences[i].Role)
		}
	}
}

func TestGetBreaksOrdTiesByEntityID(t *testing.T) {
	db := setupTestDB(t)
	store := NewStore(db)
	lib := library.NewStore(db)
	ctx := context.Background()

	ids := seedExperiences(t, lib, "A", "B")

	view, err := store.Create(ctx, testUserID, Payload{
		Name: "Jane", Title: "Engineer",
		Experiences: idRefs(ids[1], ids[0]),
	})
	if err != nil {
		t.Fatalf("create resume: %v", err)
	}

	// Flatten the ord column so only the entity id can decide the order.
	if err := db.Exec("UPDATE resume_experiences SET ord = 0 WHERE resume_id = ?", view.ID).Error; err != nil {
		t.Fatalf("flatten ord: %v", err)
	}

	view, err = store.Get(ctx, testUserID, view.ID)
	if err != nil {
		t.Fatalf("get resume: %v", err)
	}
	if view.Experiences[0].Role != "A" || view.Experiences[1].Role != "B" {
		t.Fatalf("expected id ascending on tie, got %s, %s", view.Experiences[0].Role, view.Experiences[1].Role)
	}
}

func TestCreateMintsInlineEntities(t *testing.T) {
	db := setupTestDB(t)
	store := NewStore(db)
	lib := library.NewStore(db)
	ctx := context.Background()

	existing := seedExperiences(t, lib, "Existing")

	refs := []Ref{
		{ID: existing[0]},
		inlineRef(t, library.ExperienceInput{
			Role: "Minted", Company: "NewCo", Start: "2023", End: "2024",
			Bullets: []string{"shipped it"},
		}),
	}
	skillRefs := []Ref{inlineRef(t, library.SkillInput{Name: "Go"})}

	view, err := store.Create(ctx, testUserID, Payload{
		Name: "Jane", Title: "Engineer",
		Experiences: &refs,
		Skills:      &skillRefs,
	})
	if err != nil {
		t.Fatalf("create resume: %v", err)
	}

	if len(view.Experiences) != 2 {
		t.Fatalf("expected 2 experiences, got %d", len(view.Experiences))
	}
	if view.Experiences[1].Role != "Minted" {
		t.Fatalf("expected minted experience second, got %s", view.Experiences[1].Role)
	}
	if view.Experiences[1].ID == 0 || view.Experiences[1].ID == existing[0] {
		t.Fatalf("expected fresh id for inline experience, got %d", view.Experiences[1].ID)
	}
	if len(view.Experiences[1].Bullets) != 1 || view.Experiences[1].Bullets[0] != "shipped it" {
		t.Fatalf("expected bullets to round-trip, got %v", view.Experiences[1].Bullets)
	}

	// The minted skill lands in the library like any other.
	skills, err := lib.ListSkills(ctx, testUserID)
	if err != nil {
		t.Fatalf("list skills: %v", err)
	}
	if len(skills) != 1 || skills[0].Name != "Go" {
		t.Fatalf("expected minted skill in library, got %v", skills)
	}
	if len(view.Skills) != 1 || view.Skills[0] != skills[0].ID {
		t.Fatalf("expected view to reference minted skill, got %v", view.Skills)
	}
}

func TestCreateRollsBackWhenInlineEntityIsInvalid(t *testing.T) {
	db := setupTestDB(t)
	store := NewStore(db)
	ctx := context.Background()

	refs := []Ref{
		inlineRef(t, library.ExperienceInput{Role: "Good", Company: "X", Start: "2020", End: "2021"}),
		inlineRef(t, library.ExperienceInput{Company: "X", Start: "2020", End: "2021"}), // no role
	}

	_, err := store.Create(ctx, testUserID, Payload{
		Name: "Jane", Title: "Engineer",
		Experiences: &refs,
	})
	if !errors.Is(err, ErrMalformedInline) {
		t.Fatalf("expected ErrMalformedInline, got %v", err)
	}

	var expCount, joinCount, resumeCount int64
	db.Model(&database.Experience{}).Count(&expCount)
	db.Model(&database.ResumeExperience{}).Count(&joinCount)
	db.Model(&database.Resume{}).Count(&resumeCount)
	if expCount != 0 || joinCount != 0 || resumeCount != 0 {
		t.Fatalf("expected full rollback, got %d experiences, %d joins, %d resumes",
			expCount, joinCount, resumeCount)
	}
}

func TestCreateRejectsUnknownBareID(t *testing.T) {
	db := setupTestDB(t)
	store := NewStore(db)
	ctx := context.Background()

	_, err := store.Create(ctx, testUserID, Payload{
		Name: "Jane", Title: "Engineer",
		Skills: idRefs(999),
	})
	if !errors.Is(err, ErrUnknownEntity) {
		t.Fatalf("expected ErrUnknownEntity, got %v", err)
	}

	var resumeCount, joinCount int64
	db.Model(&database.Resume{}).Count(&resumeCount)
	db.Model(&database.ResumeSkill{}).Count(&joinCount)
	if resumeCount != 0 || joinCount != 0 {
		t.Fatalf("expected full rollback, got %d resumes, %d joins", resumeCount, joinCount)
	}
}

func TestUpdateFailureKeepsPreviousAssociations(t *testing.T) {
	db := setupTestDB(t)
	store := NewStore(db)
	lib := library.NewStore(db)
	ctx := context.Background()

	ids := seedExperiences(t, lib, "Keep")
	view, err := store.Create(ctx, testUserID, Payload{
		Name: "Jane", Title: "Engineer",
		Experiences: idRefs(ids[0]),
	})
	if err != nil {
		t.Fatalf("create resume: %v", err)
	}

	bad := []Ref{inlineRef(t, library.ExperienceInput{Company: "X", Start: "2020", End: "2021"})}
	_, err = store.Update(ctx, testUserID, view.ID, Payload{
		Name: "Jane", Title: "Engineer",
		Experiences: &bad,
	})
	if !errors.Is(err, ErrMalformedInline) {
		t.Fatalf("expected ErrMalformedInline, got %v", err)
	}

	view, err = store.Get(ctx, testUserID, view.ID)
	if err != nil {
		t.Fatalf("get resume: %v", err)
	}
	if len(view.Experiences) != 1 || view.Experiences[0].Role != "Keep" {
		t.Fatalf("expected original association intact, got %v", view.Experiences)
	}
}

func TestUpdateAbsentPartitionIsKeptEmptyPartitionIsCleared(t *testing.T) {
	db := setupTestDB(t)
	store := NewStore(db)
	lib := library.NewStore(db)
	ctx := context.Background()

	skill, err := lib.CreateSkill(ctx, testUserID, library.SkillInput{Name: "Go"})
	if err != nil {
		t.Fatalf("create skill: %v", err)
	}

	view, err := store.Create(ctx, testUserID, Payload{
		Name: "Jane", Title: "Engineer",
		Skills: idRefs(skill.ID),
	})
	if err != nil {
		t.Fatalf("create resume: %v", err)
	}

	// Absent skills field: base fields change, the partition stays.
	view, err = store.Update(ctx, testUserID, view.ID, Payload{
		Name: "Jane", Title: "Staff Engineer",
	})
	if err != nil {
		t.Fatalf("update resume: %v", err)
	}
	if view.Title != "Staff Engineer" {
		t.Fatalf("expected title update, got %s", view.Title)
	}
	if len(view.Skills) != 1 || view.Skills[0] != skill.ID {
		t.Fatalf("expected skill partition untouched, got %v", view.Skills)
	}

	// Explicit empty array clears it.
	empty := []Ref{}
	view, err = store.Update(ctx, testUserID, view.ID, Payload{
		Name: "Jane", Title: "Staff Engineer",
		Skills: &empty,
	})
	if err != nil {
		t.Fatalf("clear skills: %v", err)
	}
	if len(view.Skills) != 0 {
		t.Fatalf("expected skill partition cleared, got %v", view.Skills)
	}
}

func TestDeletedLibraryEntityDisappearsFromAllResumes(t *testing.T) {
	db := setupTestDB(t)
	store := NewStore(db)
	lib := library.NewStore(db)
	ctx := context.Background()

	ids := seedExperiences(t, lib, "Shared", "Solo")

	first, err := store.Create(ctx, testUserID, Payload{
		Name: "Jane", Title: "Engineer",
		Experiences: idRefs(ids[0], ids[1]),
	})
	if err != nil {
		t.Fatalf("create first resume: %v", err)
	}
	second, err := store.Create(ctx, testUserID, Payload{
		Name: "Jane", Title: "Consultant",
		Experiences: idRefs(ids[0]),
	})
	if err != nil {
		t.Fatalf("create second resume: %v", err)
	}

	if err := lib.DeleteExperience(ctx, testUserID, ids[0]); err != nil {
		t.Fatalf("delete shared experience: %v", err)
	}

	firstView, err := store.Get(ctx, testUserID, first.ID)
	if err != nil {
		t.Fatalf("get first resume: %v", err)
	}
	if len(firstView.Experiences) != 1 || firstView.Experiences[0].Role != "Solo" {
		t.Fatalf("expected only Solo left in first resume, got %v", firstView.Experiences)
	}

	secondView, err := store.Get(ctx, testUserID, second.ID)
	if err != nil {
		t.Fatalf("get second resume: %v", err)
	}
	if len(secondView.Experiences) != 0 {
		t.Fatalf("expected second resume emptied, got %v", secondView.Experiences)
	}
}

func TestSnapshotsSurviveLibraryEdits(t *testing.T) {
	db := setupTestDB(t)
	store := NewStore(db)
	lib := library.NewStore(db)
	ctx := context.Background()

	contact, err := lib.CreateContact(ctx, testUserID, library.ContactInput{
		Type: "email", Value: "old@example.com",
	})
	if err != nil {
		t.Fatalf("create contact: %v", err)
	}

	view, err := store.Create(ctx, testUserID, Payload{
		Name: "Jane", Title: "Engineer",
		Contact: &ContactSnapshot{Type: contact.Type, Value: contact.Value},
		Socials: []SocialSnapshot{{Label: "GitHub", URL: "https://github.com/jane"}},
	})
	if err != nil {
		t.Fatalf("create resume: %v", err)
	}

	// Editing or deleting the library row never reaches the copy in the resume.
	if _, err := lib.UpdateContact(ctx, testUserID, contact.ID, library.ContactInput{
		Type: "email", Value: "new@example.com",
	}); err != nil {
		t.Fatalf("update contact: %v", err)
	}
	if err := lib.DeleteContact(ctx, testUserID, contact.ID); err != nil {
		t.Fatalf("delete contact: %v", err)
	}

	view, err = store.Get(ctx, testUserID, view.ID)
	if err != nil {
		t.Fatalf("get resume: %v", err)
	}
	if view.Contact == nil || view.Contact.Value != "old@example.com" {
		t.Fatalf("expected snapshot to keep old value, got %+v", view.Contact)
	}
	if len(view.Socials) != 1 || view.Socials[0].URL != "https://github.com/jane" {
		t.Fatalf("expected socials snapshot intact, got %v", view.Socials)
	}
}

func TestDeleteResumeLeavesLibraryIntact(t *testing.T) {
	db := setupTestDB(t)
	store := NewStore(db)
	lib := library.NewStore(db)
	ctx := context.Background()

	ids := seedExperiences(t, lib, "Kept")
	view, err := store.Create(ctx, testUserID, Payload{
		Name: "Jane", Title: "Engineer",
		Experiences: idRefs(ids[0]),
	})
	if err != nil {
		t.Fatalf("create resume: %v", err)
	}

	if err := store.Delete(ctx, testUserID, view.ID); err != nil {
		t.Fatalf("delete resume: %v", err)
	}

	var joinCount int64
	db.Model(&database.ResumeExperience{}).Count(&joinCount)
	if joinCount != 0 {
		t.Fatalf("expected join rows cascaded, got %d", joinCount)
	}

	exps, err := lib.ListExperiences(ctx, testUserID)
	if err != nil {
		t.Fatalf("list experiences: %v", err)
	}
	if len(exps) != 1 {
		t.Fatalf("expected library entity to survive, got %d rows", len(exps))
	}

	if err := store.Delete(ctx, testUserID, view.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestGetIsScopedToOwner(t *testing.T) {
	db := setupTestDB(t)
	store := NewStore(db)
	ctx := context.Background()

	view, err := store.Create(ctx, testUserID, Payload{Name: "Jane", Title: "Engineer"})
	if err != nil {
		t.Fatalf("create resume: %v", err)
	}

	if _, err := store.Get(ctx, 99, view.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for foreign owner, got %v", err)
	}
	if _, err := store.Update(ctx, 99, view.ID, Payload{Name: "X", Title: "Y"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on foreign update, got %v", err)
	}
}

func TestCreateRequiresNameAndTitle(t *testing.T) {
	store := NewStore(setupTestDB(t))
	ctx := context.Background()

	if _, err := store.Create(ctx, testUserID, Payload{Title: "Engineer"}); !errors.Is(err, ErrMissingField) {
		t.Fatalf("expected ErrMissingField for name, got %v", err)
	}
	if _, err := store.Create(ctx, testUserID, Payload{Name: "Jane"}); !errors.Is(err, ErrMissingField) {
		t.Fatalf("expected ErrMissingField for title, got %v", err)
	}
}

func TestListOrdersByUpdatedAtDesc(t *testing.T) {
	db := setupTestDB(t)
	store := NewStore(db)
	ctx := context.Background()

	older, err := store.Create(ctx, testUserID, Payload{Name: "Jane", Title: "Older"})
	if err != nil {
		t.Fatalf("create older resume: %v", err)
	}
	newer, err := store.Create(ctx, testUserID, Payload{Name: "Jane", Title: "Newer"})
	if err != nil {
		t.Fatalf("create newer resume: %v", err)
	}

	// Force distinct timestamps; sqlite stores sub-second precision but the
	// two creates can still land in the same tick.
	if err := db.Exec("UPDATE resumes SET updated_at = ? WHERE id = ?",
		time.Now().Add(-time.Hour), older.ID).Error; err != nil {
		t.Fatalf("backdate older resume: %v", err)
	}

	summaries, err := store.List(ctx, testUserID)
	if err != nil {
		t.Fatalf("list resumes: %v", err)
	}
	if len(summaries) != 2 {
		t.Fatalf("expected 2 summaries, got %d", len(summaries))
	}
	if summaries[0].ID != newer.ID || summaries[1].ID != older.ID {
		t.Fatalf("expected newest first, got %v", summaries)
	}
}
