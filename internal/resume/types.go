package resume

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Ref 是区分“引用已有实体”与“内联新建实体”的标签联合：
// JSON 数字被解析为 ID，JSON 对象被原样保留，待写入时解析为对应的创建载荷。
type Ref struct {
	ID     uint
	Inline json.RawMessage
}

// UnmarshalJSON 按首字符区分数字与对象两种形态。
func (r *Ref) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return fmt.Errorf("empty ref element")
	}
	if trimmed[0] == '{' {
		r.ID = 0
		r.Inline = append(json.RawMessage(nil), trimmed...)
		return nil
	}
	r.Inline = nil
	return json.Unmarshal(trimmed, &r.ID)
}

// MarshalJSON 使 Ref 可以原样回显（主要方便测试与日志）。
func (r Ref) MarshalJSON() ([]byte, error) {
	if r.Inline != nil {
		return r.Inline, nil
	}
	return json.Marshal(r.ID)
}

// IsInline 报告该元素是否为内联对象。
func (r Ref) IsInline() bool { return r.Inline != nil }

// ContactSnapshot 是写入简历时拷贝的联系方式快照。
type ContactSnapshot struct {
	Type  string `json:"type"`
	Value string `json:"value"`
	Label string `json:"label,omitempty"`
}

// SocialSnapshot 是写入简历时拷贝的社交链接快照。
type SocialSnapshot struct {
	Label string `json:"label"`
	URL   string `json:"url"`
}

// Payload 是创建/更新简历的载荷。
// 四个关联分区使用指针切片以区分“缺席”（nil，保持原关联不动）
// 与“显式空表”（清空该分区）。
type Payload struct {
	Name         string           `json:"name"`
	Label        string           `json:"label"`
	Title        string           `json:"title"`
	Summary      string           `json:"summary"`
	Contact      *ContactSnapshot `json:"contact"`
	Socials      []SocialSnapshot `json:"socials"`
	AccentColor  string           `json:"accent_color"`
	SidebarTitle string           `json:"sidebar_title"`
	SidebarText  string           `json:"sidebar_text"`
	Skills       *[]Ref           `json:"skills"`
	Experiences  *[]Ref           `json:"experiences"`
	Education    *[]Ref           `json:"education"`
	Projects     *[]Ref           `json:"projects"`
}

// ExperienceView 是装配结果中的工作经历条目。
type ExperienceView struct {
	ID       uint     `json:"id"`
	Role     string   `json:"role"`
	Company  string   `json:"company"`
	Location string   `json:"location,omitempty"`
	WorkType string   `json:"work_type,omitempty"`
	Start    string   `json:"start"`
	End      string   `json:"end"`
	Bullets  []string `json:"bullets"`
}

// EducationView 是装配结果中的教育经历条目。
type EducationView struct {
	ID          uint   `json:"id"`
	Institution string `json:"institution"`
	Degree      string `json:"degree"`
	End         string `json:"end"`
}

// ProjectView 是装配结果中的项目条目。
type ProjectView struct {
	ID          uint     `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Link        string   `json:"link,omitempty"`
	Bullets     []string `json:"bullets"`
}

// View 是读取路径返回的完整聚合。
// 技能只返回裸 ID，由客户端对照单独拉取的技能列表解析名称。
type View struct {
	ID           uint             `json:"id"`
	Name         string           `json:"name"`
	Label        string           `json:"label"`
	Title        string           `json:"title"`
	Summary      string           `json:"summary"`
	Contact      *ContactSnapshot `json:"contact"`
	Socials      []SocialSnapshot `json:"socials"`
	AccentColor  string           `json:"accent_color"`
	SidebarTitle string           `json:"sidebar_title,omitempty"`
	SidebarText  string           `json:"sidebar_text,omitempty"`
	UpdatedAt    time.Time        `json:"updated_at"`
	Skills       []uint           `json:"skills"`
	Experiences  []ExperienceView `json:"experiences"`
	Education    []EducationView  `json:"education"`
	Projects     []ProjectView    `json:"projects"`
}

// Summary 是列表页使用的简历摘要。
type Summary struct {
	ID        uint      `json:"id"`
	Name      string    `json:"name"`
	Label     string    `json:"label"`
	Title     string    `json:"title"`
	UpdatedAt time.Time `json:"updated_at"`
}
