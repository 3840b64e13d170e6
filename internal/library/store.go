// Package library owns the reusable résumé components (skills, categories,
// experiences, education, projects, contacts, socials). Entities live
// independently of any résumé; the resume package references them through
// ordered join tables.
package library

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"resumekit/internal/database"
)

var (
	// ErrNotFound 表示目标实体不存在（或不属于该用户）。
	ErrNotFound = errors.New("entity not found")
	// ErrMissingField 表示创建/更新载荷缺少必填字段。
	ErrMissingField = errors.New("missing required field")
	// ErrInvalidField 表示字段取值不在允许范围内。
	ErrInvalidField = errors.New("invalid field value")
	// ErrDuplicateName 表示名称唯一约束冲突（技能以外的实体不做幂等合并）。
	ErrDuplicateName = errors.New("name already exists")
)

var workTypes = map[string]bool{"": true, "remote": true, "on-site": true, "hybrid": true}

var contactTypes = map[string]bool{
	"email": true, "phone": true, "website": true,
	"linkedin": true, "github": true, "location": true,
}

// Store 提供各类库实体的用户级 CRUD。
type Store struct {
	db *gorm.DB
}

// NewStore 构造 Store。传入事务句柄即可让全部操作加入该事务。
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// SkillInput 是技能的创建/更新载荷。
type SkillInput struct {
	Name       string `json:"name"`
	CategoryID *uint  `json:"category_id"`
}

// CategoryInput 是技能分类的创建/更新载荷。
type CategoryInput struct {
	Name string `json:"name"`
	Ord  int    `json:"ord"`
}

// ExperienceInput 是工作经历的创建/更新载荷。
type ExperienceInput struct {
	Role     string   `json:"role"`
	Company  string   `json:"company"`
	Location string   `json:"location"`
	WorkType string   `json:"work_type"`
	Start    string   `json:"start"`
	End      string   `json:"end"`
	Bullets  []string `json:"bullets"`
}

// EducationInput 是教育经历的创建载荷。
type EducationInput struct {
	Institution string `json:"institution"`
	Degree      string `json:"degree"`
	End         string `json:"end"`
}

// ProjectInput 是项目的创建/更新载荷。
type ProjectInput struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Link        string   `json:"link"`
	Bullets     []string `json:"bullets"`
}

// ContactInput 是联系方式的创建/更新载荷。
type ContactInput struct {
	Type  string `json:"type"`
	Value string `json:"value"`
	Label string `json:"label"`
}

// SocialInput 是社交链接的创建载荷。
type SocialInput struct {
	Label string `json:"label"`
	URL   string `json:"url"`
}

// Validate 校验技能载荷。
func (in SkillInput) Validate() error {
	if in.Name == "" {
		return fmt.Errorf("%w: name", ErrMissingField)
	}
	return nil
}

// Validate 校验工作经历载荷。
func (in ExperienceInput) Validate() error {
	switch {
	case in.Role == "":
		return fmt.Errorf("%w: role", ErrMissingField)
	case in.Company == "":
		return fmt.Errorf("%w: company", ErrMissingField)
	case in.Start == "":
		return fmt.Errorf("%w: start", ErrMissingField)
	case in.End == "":
		return fmt.Errorf("%w: end", ErrMissingField)
	}
	if !workTypes[in.WorkType] {
		return fmt.Errorf("%w: work_type %q", ErrInvalidField, in.WorkType)
	}
	return nil
}

// Validate 校验教育经历载荷。
func (in EducationInput) Validate() error {
	switch {
	case in.Institution == "":
		return fmt.Errorf("%w: institution", ErrMissingField)
	case in.Degree == "":
		return fmt.Errorf("%w: degree", ErrMissingField)
	}
	return nil
}

// Validate 校验项目载荷。
func (in ProjectInput) Validate() error {
	if in.Name == "" {
		return fmt.Errorf("%w: name", ErrMissingField)
	}
	return nil
}

// Validate 校验联系方式载荷。
func (in ContactInput) Validate() error {
	switch {
	case in.Type == "":
		return fmt.Errorf("%w: type", ErrMissingField)
	case in.Value == "":
		return fmt.Errorf("%w: value", ErrMissingField)
	}
	if !contactTypes[in.Type] {
		return fmt.Errorf("%w: type %q", ErrInvalidField, in.Type)
	}
	return nil
}

// Validate 校验社交链接载荷。
func (in SocialInput) Validate() error {
	switch {
	case in.Label == "":
		return fmt.Errorf("%w: label", ErrMissingField)
	case in.URL == "":
		return fmt.Errorf("%w: url", ErrMissingField)
	}
	return nil
}

// CreateSkill 创建技能，按 (用户, 名称) 幂等：
// 名称已存在时直接返回已有行，支持“输入名称即得到对应技能”的快捷添加。
func (s *Store) CreateSkill(ctx context.Context, userID uint, in SkillInput) (database.Skill, error) {
	if err := in.Validate(); err != nil {
		return database.Skill{}, err
	}

	var existing database.Skill
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND name = ?", userID, in.Name).
		First(&existing).Error
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return database.Skill{}, fmt.Errorf("lookup skill by name: %w", err)
	}

	skill := database.Skill{UserID: userID, Name: in.Name, CategoryID: in.CategoryID}
	if err := s.db.WithContext(ctx).Create(&skill).Error; err != nil {
		// 与并发创建撞上唯一索引时回落到已有行，保持幂等语义。
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			if err := s.db.WithContext(ctx).
				Where("user_id = ? AND name = ?", userID, in.Name).
				First(&existing).Error; err == nil {
				return existing, nil
			}
		}
		return database.Skill{}, fmt.Errorf("create skill: %w", err)
	}
	return skill, nil
}

// ListSkills 返回用户全部技能，按分类顺序、再按名称排序；未分类的排在最后。
func (s *Store) ListSkills(ctx context.Context, userID uint) ([]database.Skill, error) {
	var skills []database.Skill
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("category_id IS NULL").
		Order("category_id").
		Order("name").
		Find(&skills).Error
	if err != nil {
		return nil, fmt.Errorf("list skills: %w", err)
	}
	return skills, nil
}

// UpdateSkill 更新技能名称与分类；category_id 传 nil 表示清除分类。
func (s *Store) UpdateSkill(ctx context.Context, userID, id uint, in SkillInput) (database.Skill, error) {
	if err := in.Validate(); err != nil {
		return database.Skill{}, err
	}

	skill, err := s.findSkill(ctx, userID, id)
	if err != nil {
		return database.Skill{}, err
	}

	updates := map[string]any{"name": in.Name, "category_id": in.CategoryID}
	if err := s.db.WithContext(ctx).Model(&skill).Updates(updates).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return database.Skill{}, ErrDuplicateName
		}
		return database.Skill{}, fmt.Errorf("update skill: %w", err)
	}
	return s.findSkill(ctx, userID, id)
}

// DeleteSkill 删除技能；引用它的简历关联行由外键级联清除。
func (s *Store) DeleteSkill(ctx context.Context, userID, id uint) error {
	return s.deleteOwned(ctx, &database.Skill{}, userID, id, "delete skill")
}

func (s *Store) findSkill(ctx context.Context, userID, id uint) (database.Skill, error) {
	var skill database.Skill
	err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&skill).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return database.Skill{}, ErrNotFound
	}
	if err != nil {
		return database.Skill{}, fmt.Errorf("lookup skill: %w", err)
	}
	return skill, nil
}

// CreateCategory 创建技能分类；同名分类返回 ErrDuplicateName。
func (s *Store) CreateCategory(ctx context.Context, userID uint, in CategoryInput) (database.SkillCategory, error) {
	if in.Name == "" {
		return database.SkillCategory{}, fmt.Errorf("%w: name", ErrMissingField)
	}
	category := database.SkillCategory{UserID: userID, Name: in.Name, Ord: in.Ord}
	if err := s.db.WithContext(ctx).Create(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return database.SkillCategory{}, ErrDuplicateName
		}
		return database.SkillCategory{}, fmt.Errorf("create skill category: %w", err)
	}
	return category, nil
}

// ListCategories 返回用户全部技能分类，按显示顺序排序。
func (s *Store) ListCategories(ctx context.Context, userID uint) ([]database.SkillCategory, error) {
	var categories []database.SkillCategory
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("ord").
		Order("name").
		Find(&categories).Error
	if err != nil {
		return nil, fmt.Errorf("list skill categories: %w", err)
	}
	return categories, nil
}

// UpdateCategory 更新分类名称与显示顺序。
func (s *Store) UpdateCategory(ctx context.Context, userID, id uint, in CategoryInput) (database.SkillCategory, error) {
	if in.Name == "" {
		return database.SkillCategory{}, fmt.Errorf("%w: name", ErrMissingField)
	}

	var category database.SkillCategory
	err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&category).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return database.SkillCategory{}, ErrNotFound
	}
	if err != nil {
		return database.SkillCategory{}, fmt.Errorf("lookup skill category: %w", err)
	}

	updates := map[string]any{"name": in.Name, "ord": in.Ord}
	if err := s.db.WithContext(ctx).Model(&category).Updates(updates).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return database.SkillCategory{}, ErrDuplicateName
		}
		return database.SkillCategory{}, fmt.Errorf("update skill category: %w", err)
	}
	return category, nil
}

// DeleteCategory 删除分类。引用它的技能不被删除，其 category_id 由外键置空。
func (s *Store) DeleteCategory(ctx context.Context, userID, id uint) error {
	return s.deleteOwned(ctx, &database.SkillCategory{}, userID, id, "delete skill category")
}

// CreateExperience 创建工作经历。
func (s *Store) CreateExperience(ctx context.Context, userID uint, in ExperienceInput) (database.Experience, error) {
	if err := in.Validate(); err != nil {
		return database.Experience{}, err
	}

	exp := database.Experience{
		UserID:   userID,
		Role:     in.Role,
		Company:  in.Company,
		Location: in.Location,
		WorkType: in.WorkType,
		Start:    in.Start,
		End:      in.End,
		Bullets:  marshalBullets(in.Bullets),
	}
	if err := s.db.WithContext(ctx).Create(&exp).Error; err != nil {
		return database.Experience{}, fmt.Errorf("create experience: %w", err)
	}
	return exp, nil
}

// ListExperiences 返回用户全部工作经历，新建的排在前面。
func (s *Store) ListExperiences(ctx context.Context, userID uint) ([]database.Experience, error) {
	var exps []database.Experience
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id DESC").
		Find(&exps).Error
	if err != nil {
		return nil, fmt.Errorf("list experiences: %w", err)
	}
	return exps, nil
}

// UpdateExperience 覆盖一条工作经历的全部字段。
func (s *Store) UpdateExperience(ctx context.Context, userID, id uint, in ExperienceInput) (database.Experience, error) {
	if err := in.Validate(); err != nil {
		return database.Experience{}, err
	}

	var exp database.Experience
	err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&exp).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return database.Experience{}, ErrNotFound
	}
	if err != nil {
		return database.Experience{}, fmt.Errorf("lookup experience: %w", err)
	}

	updates := map[string]any{
		"role":      in.Role,
		"company":   in.Company,
		"location":  in.Location,
		"work_type": in.WorkType,
		"start":     in.Start,
		"end":       in.End,
		"bullets":   marshalBullets(in.Bullets),
	}
	if err := s.db.WithContext(ctx).Model(&exp).Updates(updates).Error; err != nil {
		return database.Experience{}, fmt.Errorf("update experience: %w", err)
	}
	return exp, nil
}

// DeleteExperience 删除工作经历，所有简历中对它的引用随外键级联消失。
func (s *Store) DeleteExperience(ctx context.Context, userID, id uint) error {
	return s.deleteOwned(ctx, &database.Experience{}, userID, id, "delete experience")
}

// CreateEducation 创建教育经历。
func (s *Store) CreateEducation(ctx context.Context, userID uint, in EducationInput) (database.Education, error) {
	if err := in.Validate(); err != nil {
		return database.Education{}, err
	}

	edu := database.Education{
		UserID:      userID,
		Institution: in.Institution,
		Degree:      in.Degree,
		End:         in.End,
	}
	if err := s.db.WithContext(ctx).Create(&edu).Error; err != nil {
		return database.Education{}, fmt.Errorf("create education: %w", err)
	}
	return edu, nil
}

// ListEducation 返回用户全部教育经历，新建的排在前面。
func (s *Store) ListEducation(ctx context.Context, userID uint) ([]database.Education, error) {
	var edus []database.Education
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id DESC").
		Find(&edus).Error
	if err != nil {
		return nil, fmt.Errorf("list education: %w", err)
	}
	return edus, nil
}

// DeleteEducation 删除教育经历。
func (s *Store) DeleteEducation(ctx context.Context, userID, id uint) error {
	return s.deleteOwned(ctx, &database.Education{}, userID, id, "delete education")
}

// CreateProject 创建项目。
func (s *Store) CreateProject(ctx context.Context, userID uint, in ProjectInput) (database.Project, error) {
	if err := in.Validate(); err != nil {
		return database.Project{}, err
	}

	project := database.Project{
		UserID:      userID,
		Name:        in.Name,
		Description: in.Description,
		Link:        in.Link,
		Bullets:     marshalBullets(in.Bullets),
	}
	if err := s.db.WithContext(ctx).Create(&project).Error; err != nil {
		return database.Project{}, fmt.Errorf("create project: %w", err)
	}
	return project, nil
}

// ListProjects 返回用户全部项目，新建的排在前面。
func (s *Store) ListProjects(ctx context.Context, userID uint) ([]database.Project, error) {
	var projects []database.Project
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id DESC").
		Find(&projects).Error
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	return projects, nil
}

// UpdateProject 覆盖一个项目的全部字段。
func (s *Store) UpdateProject(ctx context.Context, userID, id uint, in ProjectInput) (database.Project, error) {
	if err := in.Validate(); err != nil {
		return database.Project{}, err
	}

	var project database.Project
	err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&project).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return database.Project{}, ErrNotFound
	}
	if err != nil {
		return database.Project{}, fmt.Errorf("lookup project: %w", err)
	}

	updates := map[string]any{
		"name":        in.Name,
		"description": in.Description,
		"link":        in.Link,
		"bullets":     marshalBullets(in.Bullets),
	}
	if err := s.db.WithContext(ctx).Model(&project).Updates(updates).Error; err != nil {
		return database.Project{}, fmt.Errorf("update project: %w", err)
	}
	return project, nil
}

// DeleteProject 删除项目。
func (s *Store) DeleteProject(ctx context.Context, userID, id uint) error {
	return s.deleteOwned(ctx, &database.Project{}, userID, id, "delete project")
}

// CreateContact 创建联系方式。
func (s *Store) CreateContact(ctx context.Context, userID uint, in ContactInput) (database.Contact, error) {
	if err := in.Validate(); err != nil {
		return database.Contact{}, err
	}

	contact := database.Contact{UserID: userID, Type: in.Type, Value: in.Value, Label: in.Label}
	if err := s.db.WithContext(ctx).Create(&contact).Error; err != nil {
		return database.Contact{}, fmt.Errorf("create contact: %w", err)
	}
	return contact, nil
}

// ListContacts 返回用户全部联系方式，新建的排在前面。
func (s *Store) ListContacts(ctx context.Context, userID uint) ([]database.Contact, error) {
	var contacts []database.Contact
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id DESC").
		Find(&contacts).Error
	if err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}
	return contacts, nil
}

// UpdateContact 覆盖一条联系方式。
func (s *Store) UpdateContact(ctx context.Context, userID, id uint, in ContactInput) (database.Contact, error) {
	if err := in.Validate(); err != nil {
		return database.Contact{}, err
	}

	var contact database.Contact
	err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&contact).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return database.Contact{}, ErrNotFound
	}
	if err != nil {
		return database.Contact{}, fmt.Errorf("lookup contact: %w", err)
	}

	updates := map[string]any{"type": in.Type, "value": in.Value, "label": in.Label}
	if err := s.db.WithContext(ctx).Model(&contact).Updates(updates).Error; err != nil {
		return database.Contact{}, fmt.Errorf("update contact: %w", err)
	}
	return contact, nil
}

// DeleteContact 删除联系方式。已写入简历的快照不受影响。
func (s *Store) DeleteContact(ctx context.Context, userID, id uint) error {
	return s.deleteOwned(ctx, &database.Contact{}, userID, id, "delete contact")
}

// CreateSocial 创建社交链接。
func (s *Store) CreateSocial(ctx context.Context, userID uint, in SocialInput) (database.Social, error) {
	if err := in.Validate(); err != nil {
		return database.Social{}, err
	}

	social := database.Social{UserID: userID, Label: in.Label, URL: in.URL}
	if err := s.db.WithContext(ctx).Create(&social).Error; err != nil {
		return database.Social{}, fmt.Errorf("create social: %w", err)
	}
	return social, nil
}

// ListSocials 返回用户全部社交链接，新建的排在前面。
func (s *Store) ListSocials(ctx context.Context, userID uint) ([]database.Social, error) {
	var socials []database.Social
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id DESC").
		Find(&socials).Error
	if err != nil {
		return nil, fmt.Errorf("list socials: %w", err)
	}
	return socials, nil
}

// DeleteSocial 删除社交链接。已写入简历的快照不受影响。
func (s *Store) DeleteSocial(ctx context.Context, userID, id uint) error {
	return s.deleteOwned(ctx, &database.Social{}, userID, id, "delete social")
}

func (s *Store) deleteOwned(ctx context.Context, model any, userID, id uint, op string) error {
	result := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(model)
	if result.Error != nil {
		return fmt.Errorf("%s: %w", op, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func marshalBullets(bullets []string) datatypes.JSON {
	if bullets == nil {
		bullets = []string{}
	}
	data, err := json.Marshal(bullets)
	if err != nil {
		return datatypes.JSON([]byte("[]"))
	}
	return datatypes.JSON(data)
}
