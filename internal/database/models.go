package database

import (
	"time"

	"gorm.io/datatypes"
)

// User 表示系统中的账号信息。
type User struct {
	ID           uint `gorm:"primarykey"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Username     string `gorm:"uniqueIndex;size:64"`
	Email        string `gorm:"size:255"`
	PasswordHash string `gorm:"size:255"`
}

// SkillCategory 表示技能分类，Ord 决定分组的展示顺序。
type SkillCategory struct {
	ID     uint   `gorm:"primarykey"`
	UserID uint   `gorm:"uniqueIndex:idx_skill_categories_owner_name"`
	Name   string `gorm:"uniqueIndex:idx_skill_categories_owner_name;size:255"`
	Ord    int
}

// Skill 表示技能库中的一个条目。
// CategoryID 是弱引用：分类被删除时置空，不级联删除技能本身。
type Skill struct {
	ID         uint   `gorm:"primarykey"`
	UserID     uint   `gorm:"uniqueIndex:idx_skills_owner_name"`
	Name       string `gorm:"uniqueIndex:idx_skills_owner_name;size:255"`
	CategoryID *uint
	Category   *SkillCategory `gorm:"constraint:OnDelete:SET NULL"`
}

// Experience 表示一段工作经历。Bullets 为 JSON 编码的字符串数组。
type Experience struct {
	ID       uint `gorm:"primarykey"`
	UserID   uint `gorm:"index"`
	Role     string
	Company  string
	Location string
	WorkType string `gorm:"size:32"` // remote / on-site / hybrid
	Start    string `gorm:"size:64"`
	End      string `gorm:"size:64"`
	Bullets  datatypes.JSON
}

// Education 表示一条教育经历。
type Education struct {
	ID          uint `gorm:"primarykey"`
	UserID      uint `gorm:"index"`
	Institution string
	Degree      string
	End         string `gorm:"size:64"`
}

// TableName 保持与历史 schema 一致的单数表名。
func (Education) TableName() string { return "education" }

// Project 表示一个项目条目。
type Project struct {
	ID          uint `gorm:"primarykey"`
	UserID      uint `gorm:"index"`
	Name        string
	Description string
	Link        string
	Bullets     datatypes.JSON
}

// Contact 表示一种联系方式。
type Contact struct {
	ID     uint   `gorm:"primarykey"`
	UserID uint   `gorm:"index"`
	Type   string `gorm:"size:32"` // email / phone / website / linkedin / github / location
	Value  string
	Label  string
}

// Social 表示一个社交链接。
type Social struct {
	ID     uint `gorm:"primarykey"`
	UserID uint `gorm:"index"`
	Label  string
	URL    string
}

// Resume 表示一份组合出的简历文档。
// Contact 与 Socials 是写入时拷贝的快照（JSON），不跟随库内条目变化；
// 技能、经历、教育、项目四类通过关联表保持实时引用。
type Resume struct {
	ID           uint `gorm:"primarykey"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
	UserID       uint `gorm:"index"`
	Name         string
	Label        string
	Title        string
	Summary      string
	Contact      datatypes.JSON
	Socials      datatypes.JSON
	AccentColor  string `gorm:"size:32"`
	SidebarTitle string
	SidebarText  string
}

// ResumeSkill 是简历与技能的有序关联行。
// 复合主键 (resume_id, skill_id)；Ord 仅决定本简历内的显示顺序。
type ResumeSkill struct {
	ResumeID uint `gorm:"primaryKey"`
	SkillID  uint `gorm:"primaryKey"`
	Ord      int
	Resume   Resume `gorm:"constraint:OnDelete:CASCADE"`
	Skill    Skill  `gorm:"constraint:OnDelete:CASCADE"`
}

// ResumeExperience 是简历与工作经历的有序关联行。
type ResumeExperience struct {
	ResumeID     uint `gorm:"primaryKey"`
	ExperienceID uint `gorm:"primaryKey"`
	Ord          int
	Resume       Resume     `gorm:"constraint:OnDelete:CASCADE"`
	Experience   Experience `gorm:"constraint:OnDelete:CASCADE"`
}

// ResumeEducation 是简历与教育经历的有序关联行。
type ResumeEducation struct {
	ResumeID    uint `gorm:"primaryKey"`
	EducationID uint `gorm:"primaryKey"`
	Ord         int
	Resume      Resume    `gorm:"constraint:OnDelete:CASCADE"`
	Education   Education `gorm:"constraint:OnDelete:CASCADE"`
}

// TableName 保持与历史 schema 一致的表名。
func (ResumeEducation) TableName() string { return "resume_education" }

// ResumeProject 是简历与项目的有序关联行。
type ResumeProject struct {
	ResumeID  uint `gorm:"primaryKey"`
	ProjectID uint `gorm:"primaryKey"`
	Ord       int
	Resume    Resume  `gorm:"constraint:OnDelete:CASCADE"`
	Project   Project `gorm:"constraint:OnDelete:CASCADE"`
}
