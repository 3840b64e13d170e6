// Package resume owns the Resume base row and the four ordered join-table
// partitions that reference library entities. Writes replace whole partitions
// inside a single transaction; reads assemble the nested aggregate view.
package resume

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"resumekit/internal/database"
	"resumekit/internal/library"
)

var (
	// ErrNotFound 表示简历不存在（或不属于该用户）。
	ErrNotFound = errors.New("resume not found")
	// ErrMalformedInline 表示分区数组中的内联对象不合法，整个聚合写入被拒绝。
	ErrMalformedInline = errors.New("malformed inline entity")
	// ErrUnknownEntity 表示分区数组中的裸 ID 指向不存在的库实体。
	ErrUnknownEntity = errors.New("unknown entity reference")
	// ErrMissingField 表示简历基础字段缺失。
	ErrMissingField = errors.New("missing required field")
)

// Store 提供简历聚合的事务化读写。
type Store struct {
	db *gorm.DB
}

// NewStore 构造 Store。
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Create 写入一份新简历：基础行、联系方式/社交快照，以及按载荷顺序编号的
// 四个关联分区。任何内联对象创建失败都会回滚全部写入。
func (s *Store) Create(ctx context.Context, userID uint, p Payload) (*View, error) {
	if err := validateBase(p); err != nil {
		return nil, err
	}

	var resumeID uint
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := database.Resume{
			UserID:       userID,
			Name:         p.Name,
			Label:        p.Label,
			Title:        p.Title,
			Summary:      p.Summary,
			Contact:      marshalContact(p.Contact),
			Socials:      marshalSocials(p.Socials),
			AccentColor:  p.AccentColor,
			SidebarTitle: p.SidebarTitle,
			SidebarText:  p.SidebarText,
		}
		if err := tx.Create(&row).Error; err != nil {
			return fmt.Errorf("insert resume: %w", err)
		}
		resumeID = row.ID

		return s.replacePartitions(ctx, tx, userID, resumeID, p, true)
	})
	if err != nil {
		return nil, err
	}

	return s.Get(ctx, userID, resumeID)
}

// Update 无条件覆盖基础行；四个关联分区只有在载荷中出现时才被整体替换
// （缺席 = 保持不动，空表 = 清空）。整个序列在一个事务内执行。
func (s *Store) Update(ctx context.Context, userID, id uint, p Payload) (*View, error) {
	if err := validateBase(p); err != nil {
		return nil, err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row database.Resume
		err := tx.Where("id = ? AND user_id = ?", id, userID).First(&row).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("lookup resume: %w", err)
		}

		updates := map[string]any{
			"name":          p.Name,
			"label":         p.Label,
			"title":         p.Title,
			"summary":       p.Summary,
			"contact":       marshalContact(p.Contact),
			"socials":       marshalSocials(p.Socials),
			"accent_color":  p.AccentColor,
			"sidebar_title": p.SidebarTitle,
			"sidebar_text":  p.SidebarText,
		}
		if err := tx.Model(&row).Updates(updates).Error; err != nil {
			return fmt.Errorf("update resume: %w", err)
		}

		return s.replacePartitions(ctx, tx, userID, id, p, false)
	})
	if err != nil {
		return nil, err
	}

	return s.Get(ctx, userID, id)
}

// Delete 删除简历基础行，关联行由外键级联清除；库实体不受影响。
func (s *Store) Delete(ctx context.Context, userID, id uint) error {
	result := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&database.Resume{})
	if result.Error != nil {
		return fmt.Errorf("delete resume: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// List 返回用户全部简历摘要，最近更新的在前。
func (s *Store) List(ctx context.Context, userID uint) ([]Summary, error) {
	var rows []database.Resume
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("updated_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list resumes: %w", err)
	}

	summaries := make([]Summary, 0, len(rows))
	for _, r := range rows {
		summaries = append(summaries, Summary{
			ID:        r.ID,
			Name:      r.Name,
			Label:     r.Label,
			Title:     r.Title,
			UpdatedAt: r.UpdatedAt,
		})
	}
	return summaries, nil
}

// Get 装配完整聚合视图：基础行快照字段原样返回，四个分区按 ord 升序
// （并列时按实体 ID）联表取回；指向已消失实体的关联行被跳过而不是报错。
func (s *Store) Get(ctx context.Context, userID, id uint) (*View, error) {
	var row database.Resume
	err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lookup resume: %w", err)
	}

	view := &View{
		ID:           row.ID,
		Name:         row.Name,
		Label:        row.Label,
		Title:        row.Title,
		Summary:      row.Summary,
		Contact:      unmarshalContact(row.Contact),
		Socials:      unmarshalSocials(row.Socials),
		AccentColor:  row.AccentColor,
		SidebarTitle: row.SidebarTitle,
		SidebarText:  row.SidebarText,
		UpdatedAt:    row.UpdatedAt,
	}

	if view.Skills, err = s.assembleSkillIDs(ctx, id); err != nil {
		return nil, err
	}
	if view.Experiences, err = s.assembleExperiences(ctx, id); err != nil {
		return nil, err
	}
	if view.Education, err = s.assembleEducation(ctx, id); err != nil {
		return nil, err
	}
	if view.Projects, err = s.assembleProjects(ctx, id); err != nil {
		return nil, err
	}

	return view, nil
}

// replacePartitions 按载荷替换关联分区。create 模式下缺席的分区视为空。
func (s *Store) replacePartitions(ctx context.Context, tx *gorm.DB, userID, resumeID uint, p Payload, create bool) error {
	lib := library.NewStore(tx)

	if p.Skills != nil || create {
		if err := s.replaceSkills(ctx, tx, lib, userID, resumeID, deref(p.Skills)); err != nil {
			return err
		}
	}
	if p.Experiences != nil || create {
		if err := s.replaceExperiences(ctx, tx, lib, userID, resumeID, deref(p.Experiences)); err != nil {
			return err
		}
	}
	if p.Education != nil || create {
		if err := s.replaceEducation(ctx, tx, lib, userID, resumeID, deref(p.Education)); err != nil {
			return err
		}
	}
	if p.Projects != nil || create {
		if err := s.replaceProjects(ctx, tx, lib, userID, resumeID, deref(p.Projects)); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) replaceSkills(ctx context.Context, tx *gorm.DB, lib *library.Store, userID, resumeID uint, refs []Ref) error {
	if err := tx.Where("resume_id = ?", resumeID).Delete(&database.ResumeSkill{}).Error; err != nil {
		return fmt.Errorf("clear skill partition: %w", err)
	}
	for i, ref := range refs {
		skillID := ref.ID
		if ref.IsInline() {
			var in library.SkillInput
			if err := json.Unmarshal(ref.Inline, &in); err != nil {
				return fmt.Errorf("%w: skills[%d]: %w", ErrMalformedInline, i, err)
			}
			skill, err := lib.CreateSkill(ctx, userID, in)
			if err != nil {
				return inlineErr("skills", i, err)
			}
			skillID = skill.ID
		}
		join := database.ResumeSkill{ResumeID: resumeID, SkillID: skillID, Ord: i}
		if err := tx.Omit(clause.Associations).Create(&join).Error; err != nil {
			return joinErr("skills", i, skillID, err)
		}
	}
	return nil
}

func (s *Store) replaceExperiences(ctx context.Context, tx *gorm.DB, lib *library.Store, userID, resumeID uint, refs []Ref) error {
	if err := tx.Where("resume_id = ?", resumeID).Delete(&database.ResumeExperience{}).Error; err != nil {
		return fmt.Errorf("clear experience partition: %w", err)
	}
	for i, ref := range refs {
		expID := ref.ID
		if ref.IsInline() {
			var in library.ExperienceInput
			if err := json.Unmarshal(ref.Inline, &in); err != nil {
				return fmt.Errorf("%w: experiences[%d]: %w", ErrMalformedInline, i, err)
			}
			exp, err := lib.CreateExperience(ctx, userID, in)
			if err != nil {
				return inlineErr("experiences", i, err)
			}
			expID = exp.ID
		}
		join := database.ResumeExperience{ResumeID: resumeID, ExperienceID: expID, Ord: i}
		if err := tx.Omit(clause.Associations).Create(&join).Error; err != nil {
			return joinErr("experiences", i, expID, err)
		}
	}
	return nil
}

func (s *Store) replaceEducation(ctx context.Context, tx *gorm.DB, lib *library.Store, userID, resumeID uint, refs []Ref) error {
	if err := tx.Where("resume_id = ?", resumeID).Delete(&database.ResumeEducation{}).Error; err != nil {
		return fmt.Errorf("clear education partition: %w", err)
	}
	for i, ref := range refs {
		eduID := ref.ID
		if ref.IsInline() {
			var in library.EducationInput
			if err := json.Unmarshal(ref.Inline, &in); err != nil {
				return fmt.Errorf("%w: education[%d]: %w", ErrMalformedInline, i, err)
			}
			edu, err := lib.CreateEducation(ctx, userID, in)
			if err != nil {
				return inlineErr("education", i, err)
			}
			eduID = edu.ID
		}
		join := database.ResumeEducation{ResumeID: resumeID, EducationID: eduID, Ord: i}
		if err := tx.Omit(clause.Associations).Create(&join).Error; err != nil {
			return joinErr("education", i, eduID, err)
		}
	}
	return nil
}

func (s *Store) replaceProjects(ctx context.Context, tx *gorm.DB, lib *library.Store, userID, resumeID uint, refs []Ref) error {
	if err := tx.Where("resume_id = ?", resumeID).Delete(&database.ResumeProject{}).Error; err != nil {
		return fmt.Errorf("clear project partition: %w", err)
	}
	for i, ref := range refs {
		projectID := ref.ID
		if ref.IsInline() {
			var in library.ProjectInput
			if err := json.Unmarshal(ref.Inline, &in); err != nil {
				return fmt.Errorf("%w: projects[%d]: %w", ErrMalformedInline, i, err)
			}
			project, err := lib.CreateProject(ctx, userID, in)
			if err != nil {
				return inlineErr("projects", i, err)
			}
			projectID = project.ID
		}
		join := database.ResumeProject{ResumeID: resumeID, ProjectID: projectID, Ord: i}
		if err := tx.Omit(clause.Associations).Create(&join).Error; err != nil {
			return joinErr("projects", i, projectID, err)
		}
	}
	return nil
}

func (s *Store) assembleSkillIDs(ctx context.Context, resumeID uint) ([]uint, error) {
	var ids []uint
	err := s.db.WithContext(ctx).
		Table("resume_skills").
		Joins("JOIN skills ON skills.id = resume_skills.skill_id").
		Where("resume_skills.resume_id = ?", resumeID).
		Order("resume_skills.ord, resume_skills.skill_id").
		Pluck("resume_skills.skill_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("assemble skills: %w", err)
	}
	if ids == nil {
		ids = []uint{}
	}
	return ids, nil
}

func (s *Store) assembleExperiences(ctx context.Context, resumeID uint) ([]ExperienceView, error) {
	var rows []database.Experience
	err := s.db.WithContext(ctx).
		Table("experiences").
		Select("experiences.*").
		Joins("JOIN resume_experiences ON resume_experiences.experience_id = experiences.id").
		Where("resume_experiences.resume_id = ?", resumeID).
		Order("resume_experiences.ord, resume_experiences.experience_id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("assemble experiences: %w", err)
	}

	views := make([]ExperienceView, 0, len(rows))
	for _, r := range rows {
		views = append(views, ExperienceView{
			ID:       r.ID,
			Role:     r.Role,
			Company:  r.Company,
			Location: r.Location,
			WorkType: r.WorkType,
			Start:    r.Start,
			End:      r.End,
			Bullets:  parseBullets(r.Bullets),
		})
	}
	return views, nil
}

func (s *Store) assembleEducation(ctx context.Context, resumeID uint) ([]EducationView, error) {
	var rows []database.Education
	err := s.db.WithContext(ctx).
		Table("education").
		Select("education.*").
		Joins("JOIN resume_education ON resume_education.education_id = education.id").
		Where("resume_education.resume_id = ?", resumeID).
		Order("resume_education.ord, resume_education.education_id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("assemble education: %w", err)
	}

	views := make([]EducationView, 0, len(rows))
	for _, r := range rows {
		views = append(views, EducationView{
			ID:          r.ID,
			Institution: r.Institution,
			Degree:      r.Degree,
			End:         r.End,
		})
	}
	return views, nil
}

func (s *Store) assembleProjects(ctx context.Context, resumeID uint) ([]ProjectView, error) {
	var rows []database.Project
	err := s.db.WithContext(ctx).
		Table("projects").
		Select("projects.*").
		Joins("JOIN resume_projects ON resume_projects.project_id = projects.id").
		Where("resume_projects.resume_id = ?", resumeID).
		Order("resume_projects.ord, resume_projects.project_id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("assemble projects: %w", err)
	}

	views := make([]ProjectView, 0, len(rows))
	for _, r := range rows {
		views = append(views, ProjectView{
			ID:          r.ID,
			Name:        r.Name,
			Description: r.Description,
			Link:        r.Link,
			Bullets:     parseBullets(r.Bullets),
		})
	}
	return views, nil
}

func validateBase(p Payload) error {
	switch {
	case p.Name == "":
		return fmt.Errorf("%w: name", ErrMissingField)
	case p.Title == "":
		return fmt.Errorf("%w: title", ErrMissingField)
	}
	return nil
}

// inlineErr 将库实体创建失败归类：载荷问题是 MalformedInline，其余原样上抛。
func inlineErr(partition string, i int, err error) error {
	if errors.Is(err, library.ErrMissingField) || errors.Is(err, library.ErrInvalidField) {
		return fmt.Errorf("%w: %s[%d]: %w", ErrMalformedInline, partition, i, err)
	}
	return fmt.Errorf("create inline %s[%d]: %w", partition, i, err)
}

// joinErr 将关联行写入失败归类：外键冲突说明裸 ID 不存在，属于载荷问题。
func joinErr(partition string, i int, entityID uint, err error) error {
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return fmt.Errorf("%w: %s[%d]: id %d", ErrUnknownEntity, partition, i, entityID)
	}
	return fmt.Errorf("insert %s join row: %w", partition, err)
}

func deref(refs *[]Ref) []Ref {
	if refs == nil {
		return nil
	}
	return *refs
}

func marshalContact(c *ContactSnapshot) datatypes.JSON {
	if c == nil {
		return nil
	}
	data, err := json.Marshal(c)
	if err != nil {
		return nil
	}
	return datatypes.JSON(data)
}

func marshalSocials(socials []SocialSnapshot) datatypes.JSON {
	if socials == nil {
		socials = []SocialSnapshot{}
	}
	data, err := json.Marshal(socials)
	if err != nil {
		return datatypes.JSON([]byte("[]"))
	}
	return datatypes.JSON(data)
}

func unmarshalContact(data datatypes.JSON) *ContactSnapshot {
	if len(data) == 0 {
		return nil
	}
	var c ContactSnapshot
	if err := json.Unmarshal(data, &c); err != nil {
		return nil
	}
	return &c
}

func unmarshalSocials(data datatypes.JSON) []SocialSnapshot {
	socials := []SocialSnapshot{}
	if len(data) == 0 {
		return socials
	}
	_ = json.Unmarshal(data, &socials)
	return socials
}

func parseBullets(data datatypes.JSON) []string {
	bullets := []string{}
	if len(data) == 0 {
		return bullets
	}
	_ = json.Unmarshal(data, &bullets)
	return bullets
}
