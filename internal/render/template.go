// Package render 将装配好的简历聚合渲染为可打印的 HTML 文档，
// 供 pdf 包交给无头浏览器输出。
package render

import (
	"fmt"
	"html/template"
	"strings"

	"resumekit/internal/resume"
)

// documentTemplateString 是简历文档的 Go HTML 模板。
// 版面为 Letter 纸型设计：主栏 + 侧栏，强调色由简历自带的 accent_color 决定。
const documentTemplateString = `
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <style>
        :root { --accent: {{.Accent}}; }
        * { box-sizing: border-box; }
        body {
            margin: 0;
            padding: 0;
            font-family: 'Helvetica Neue', Arial, sans-serif;
            font-size: 10pt;
            color: #1a1a1a;
        }
        .page {
            width: 816px;  /* Letter @ 96 DPI */
            min-height: 1056px;
            display: flex;
        }
        .main { flex: 1; padding: 40px 32px; }
        .sidebar {
            width: 232px;
            padding: 40px 24px;
            background: #f6f6f6;
            border-left: 3px solid var(--accent);
        }
        h1 { margin: 0; font-size: 22pt; }
        h2 {
            font-size: 11pt;
            text-transform: uppercase;
            letter-spacing: 1px;
            color: var(--accent);
            border-bottom: 1px solid var(--accent);
            padding-bottom: 2px;
            margin: 18px 0 8px;
        }
        .title { font-size: 12pt; color: var(--accent); margin: 2px 0 10px; }
        .contact { font-size: 9pt; color: #444; }
        .entry { margin-bottom: 10px; }
        .entry-head { display: flex; justify-content: space-between; }
        .entry-role { font-weight: bold; }
        .entry-dates { color: #666; font-size: 9pt; }
        .entry-sub { font-style: italic; color: #444; font-size: 9pt; }
        ul { margin: 4px 0 0; padding-left: 18px; }
        li { margin-bottom: 2px; }
        .skills li { list-style: none; margin-left: -18px; }
        .socials { font-size: 9pt; word-break: break-all; }
        @media print {
            .page { width: 100%; min-height: auto; }
        }
    </style>
</head>
<body>
    <div class="page">
        <div class="main">
            <h1>{{.View.Name}}</h1>
            <div class="title">{{.View.Title}}</div>
            {{if .View.Contact}}
            <div class="contact">
                {{if .View.Contact.Label}}{{.View.Contact.Label}}: {{end}}{{.View.Contact.Value}}
            </div>
            {{end}}

            {{if .View.Summary}}
            <h2>Summary</h2>
            <p>{{.View.Summary}}</p>
            {{end}}

            {{if .View.Experiences}}
            <h2>Experience</h2>
            {{range .View.Experiences}}
            <div class="entry">
                <div class="entry-head">
                    <span class="entry-role">{{.Role}}</span>
                    <span class="entry-dates">{{.Start}} – {{.End}}</span>
                </div>
                <div class="entry-sub">{{.Company}}{{if .Location}} | {{.Location}}{{end}}{{if .WorkType}} ({{.WorkType}}){{end}}</div>
                {{if .Bullets}}
                <ul>{{range .Bullets}}<li>{{.}}</li>{{end}}</ul>
                {{end}}
            </div>
            {{end}}
            {{end}}

            {{if .View.Projects}}
            <h2>Projects</h2>
            {{range .View.Projects}}
            <div class="entry">
                <div class="entry-head">
                    <span class="entry-role">{{.Name}}</span>
                    {{if .Link}}<span class="entry-dates">{{.Link}}</span>{{end}}
                </div>
                {{if .Description}}<div class="entry-sub">{{.Description}}</div>{{end}}
                {{if .Bullets}}
                <ul>{{range .Bullets}}<li>{{.}}</li>{{end}}</ul>
                {{end}}
            </div>
            {{end}}
            {{end}}

            {{if .View.Education}}
            <h2>Education</h2>
            {{range .View.Education}}
            <div class="entry">
                <div class="entry-head">
                    <span class="entry-role">{{.Degree}}</span>
                    <span class="entry-dates">{{.End}}</span>
                </div>
                <div class="entry-sub">{{.Institution}}</div>
            </div>
            {{end}}
            {{end}}
        </div>
        <div class="sidebar">
            {{if .SkillNames}}
            <h2>Skills</h2>
            <ul class="skills">{{range .SkillNames}}<li>{{.}}</li>{{end}}</ul>
            {{end}}

            {{if .View.Socials}}
            <h2>Links</h2>
            <div class="socials">
                {{range .View.Socials}}<div>{{.Label}}: {{.URL}}</div>{{end}}
            </div>
            {{end}}

            {{if .View.SidebarTitle}}
            <h2>{{.View.SidebarTitle}}</h2>
            <p>{{.View.SidebarText}}</p>
            {{end}}
        </div>
    </div>
</body>
</html>
`

var documentTemplate = template.Must(template.New("resume").Parse(documentTemplateString))

type documentData struct {
	View       *resume.View
	SkillNames []string
	Accent     template.CSS
}

const defaultAccentColor = "#2563eb"

// Document 将聚合视图渲染为完整的 HTML 文档。
// 聚合里技能只有裸 ID，调用方传入 id→名称 的索引；解析不到的 ID 被跳过。
func Document(view *resume.View, skillNames map[uint]string) (string, error) {
	names := make([]string, 0, len(view.Skills))
	for _, id := range view.Skills {
		if name, ok := skillNames[id]; ok {
			names = append(names, name)
		}
	}

	accent := view.AccentColor
	if !validAccent(accent) {
		accent = defaultAccentColor
	}

	var sb strings.Builder
	err := documentTemplate.Execute(&sb, documentData{
		View:       view,
		SkillNames: names,
		Accent:     template.CSS(accent),
	})
	if err != nil {
		return "", fmt.Errorf("render resume document: %w", err)
	}
	return sb.String(), nil
}

// validAccent 只接受 #rgb / #rrggbb 形式，避免把任意字符串注入样式表。
func validAccent(color string) bool {
	if len(color) != 4 && len(color) != 7 {
		return false
	}
	if color[0] != '#' {
		return false
	}
	for _, r := range color[1:] {
		switch {
		case r >= '0' && r <= '9':
		case r >= 'a' && r <= 'f':
		case r >= 'A' && r <= 'F':
		default:
			return false
		}
	}
	return true
}
