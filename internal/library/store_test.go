package library

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"resumekit/internal/database"
)

const testUserID uint = 1

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:library-%d?mode=memory&cache=shared&_fk=1", time.Now().UnixNano())
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

func TestCreateSkillIsIdempotentByName(t *testing.T) {
	db := setupTestDB(t)
	store := NewStore(db)
	ctx := context.Background()

	first, err := store.CreateSkill(ctx, testUserID, SkillInput{Name: "Go"})
	if err != nil {
		t.Fatalf("create skill: %v", err)
	}
	second, err := store.CreateSkill(ctx, testUserID, SkillInput{Name: "Go"})
	if err != nil {
		t.Fatalf("create skill again: %v", err)
	}

	if first.ID != second.ID {
		t.Fatalf("expected same id, got %d and %d", first.ID, second.ID)
	}

	var count int64
	if err := db.Model(&database.Skill{}).Where("name = ?", "Go").Count(&count).Error; err != nil {
		t.Fatalf("count skills: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected exactly 1 row named Go, got %d", count)
	}
}

func TestCreateSkillRequiresName(t *testing.T) {
	store := NewStore(setupTestDB(t))

	_, err := store.CreateSkill(context.Background(), testUserID, SkillInput{})
	if !errors.Is(err, ErrMissingField) {
		t.Fatalf("expected ErrMissingField, got %v", err)
	}
}

func TestSkillNamesAreScopedPerUser(t *testing.T) {
	store := NewStore(setupTestDB(t))
	ctx := context.Background()

	mine, err := store.CreateSkill(ctx, 1, SkillInput{Name: "SQL"})
	if err != nil {
		t.Fatalf("create skill for user 1: %v", err)
	}
	theirs, err := store.CreateSkill(ctx, 2, SkillInput{Name: "SQL"})
	if err != nil {
		t.Fatalf("create skill for user 2: %v", err)
	}

	if mine.ID == theirs.ID {
		t.Fatalf("expected distinct rows per user, both got id %d", mine.ID)
	}
}

func TestDeleteCategoryNullsSkillReferences(t *testing.T) {
	db := setupTestDB(t)
	store := NewStore(db)
	ctx := context.Background()

	category, err := store.CreateCategory(ctx, testUserID, CategoryInput{Name: "Languages", Ord: 1})
	if err != nil {
		t.Fatalf("create category: %v", err)
	}

	for _, name := range []string{"Go", "Rust", "Python"} {
		if _, err := store.CreateSkill(ctx, testUserID, SkillInput{Name: name, CategoryID: &category.ID}); err != nil {
			t.Fatalf("create skill %s: %v", name, err)
		}
	}

	if err := store.DeleteCategory(ctx, testUserID, category.ID); err != nil {
		t.Fatalf("delete category: %v", err)
	}

	skills, err := store.ListSkills(ctx, testUserID)
	if err != nil {
		t.Fatalf("list skills: %v", err)
	}
	if len(skills) != 3 {
		t.Fatalf("expected skills to survive category delete, got %d", len(skills))
	}
	for _, skill := range skills {
		if skill.CategoryID != nil {
			t.Fatalf("expected nil category_id on %s, got %v", skill.Name, *skill.CategoryID)
		}
	}
}

func TestCreateCategoryRejectsDuplicateName(t *testing.T) {
	store := NewStore(setupTestDB(t))
	ctx := context.Background()

	if _, err := store.CreateCategory(ctx, testUserID, CategoryInput{Name: "Tools"}); err != nil {
		t.Fatalf("create category: %v", err)
	}
	_, err := store.CreateCategory(ctx, testUserID, CategoryInput{Name: "Tools"})
	if !errors.Is(err, ErrDuplicateName) {
		t.Fatalf("expected ErrDuplicateName, got %v", err)
	}
}

func TestListSkillsOrdersByCategoryThenName(t *testing.T) {
	store := NewStore(setupTestDB(t))
	ctx := context.Background()

	first, err := store.CreateCategory(ctx, testUserID, CategoryInput{Name: "Languages", Ord: 1})
	if err != nil {
		t.Fatalf("create category: %v", err)
	}
	second, err := store.CreateCategory(ctx, testUserID, CategoryInput{Name: "Tools", Ord: 2})
	if err != nil {
		t.Fatalf("create category: %v", err)
	}

	seed := []SkillInput{
		{Name: "Vim", CategoryID: &second.ID},
		{Name: "Go", CategoryID: &first.ID},
		{Name: "Uncategorized"},
		{Name: "Docker", CategoryID: &second.ID},
	}
	for _, in := range seed {
		if _, err := store.CreateSkill(ctx, testUserID, in); err != nil {
			t.Fatalf("create skill %s: %v", in.Name, err)
		}
	}

	skills, err := store.ListSkills(ctx, testUserID)
	if err != nil {
		t.Fatalf("list skills: %v", err)
	}

	got := make([]string, 0, len(skills))
	for _, s := range skills {
		got = append(got, s.Name)
	}
	want := []string{"Go", "Docker", "Vim", "Uncategorized"}
	if len(got) != len(want) {
		t.Fatalf("expected %d skills, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected order %v, got %v", want, got)
		}
	}
}

func TestExperienceValidation(t *testing.T) {
	store := NewStore(setupTestDB(t))
	ctx := context.Background()

	_, err := store.CreateExperience(ctx, testUserID, ExperienceInput{Company: "X", Start: "2020", End: "2021"})
	if !errors.Is(err, ErrMissingField) {
		t.Fatalf("expected ErrMissingField for missing role, got %v", err)
	}

	_, err = store.CreateExperience(ctx, testUserID, ExperienceInput{
		Role: "Dev", Company: "X", Start: "2020", End: "2021", WorkType: "freelance",
	})
	if !errors.Is(err, ErrInvalidField) {
		t.Fatalf("expected ErrInvalidField for work_type, got %v", err)
	}
}

func TestListExperiencesNewestFirst(t *testing.T) {
	store := NewStore(setupTestDB(t))
	ctx := context.Background()

	for _, role := range []string{"First", "Second", "Third"} {
		if _, err := store.CreateExperience(ctx, testUserID, ExperienceInput{
			Role: role, Company: "X", Start: "2020", End: "2021",
		}); err != nil {
			t.Fatalf("create experience %s: %v", role, err)
		}
	}

	exps, err := store.ListExperiences(ctx, testUserID)
	if err != nil {
		t.Fatalf("list experiences: %v", err)
	}
	if len(exps) != 3 {
		t.Fatalf("expected 3 experiences, got %d", len(exps))
	}
	if exps[0].Role != "Third" || exps[2].Role != "First" {
		t.Fatalf("expected newest first, got %s..%s", exps[0].Role, exps[2].Role)
	}
}

func TestDeleteMissingEntityReturnsNotFound(t *testing.T) {
	store := NewStore(setupTestDB(t))
	ctx := context.Background()

	if err := store.DeleteSkill(ctx, testUserID, 42); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for skill, got %v", err)
	}
	if err := store.DeleteProject(ctx, testUserID, 42); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for project, got %v", err)
	}
}

func TestDeleteIsScopedToOwner(t *testing.T) {
	store := NewStore(setupTestDB(t))
	ctx := context.Background()

	social, err := store.CreateSocial(ctx, 1, SocialInput{Label: "GitHub", URL: "https://github.com/x"})
	if err != nil {
		t.Fatalf("create social: %v", err)
	}

	if err := store.DeleteSocial(ctx, 2, social.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for foreign owner, got %v", err)
	}
	if err := store.DeleteSocial(ctx, 1, social.ID); err != nil {
		t.Fatalf("delete own social: %v", err)
	}
}

func TestContactTypeValidation(t *testing.T) {
	store := NewStore(setupTestDB(t))
	ctx := context.Background()

	_, err := store.CreateContact(ctx, testUserID, ContactInput{Type: "fax", Value: "123"})
	if !errors.Is(err, ErrInvalidField) {
		t.Fatalf("expected ErrInvalidField, got %v", err)
	}

	contact, err := store.CreateContact(ctx, testUserID, ContactInput{Type: "email", Value: "a@b.c", Label: "Work"})
	if err != nil {
		t.Fatalf("create contact: %v", err)
	}
	if contact.ID == 0 {
		t.Fatal("expected contact id to be assigned")
	}
}
