package render

import (
	"strings"
	"testing"

	"resumekit/internal/resume"
)

func sampleView() *resume.View {
	return &resume.View{
		ID:      1,
		Name:    "Jane Doe",
		Title:   "Software Engineer",
		Summary: "Builds things.",
		Contact: &resume.ContactSnapshot{Type: "email", Value: "jane@example.com"},
		Socials: []resume.SocialSnapshot{{Label: "GitHub", URL: "https://github.com/jane"}},
		Skills:  []uint{1, 2, 99},
		Experiences: []resume.ExperienceView{
			{ID: 1, Role: "Engineer", Company: "Acme", Start: "2020", End: "2022", Bullets: []string{"Did work"}},
		},
		Education: []resume.EducationView{
			{ID: 1, Institution: "State U", Degree: "BSc", End: "2019"},
		},
	}
}

func TestDocumentRendersAggregate(t *testing.T) {
	html, err := Document(sampleView(), map[uint]string{1: "Go", 2: "SQL"})
	if err != nil {
		t.Fatalf("render document: %v", err)
	}

	for _, want := range []string{
		"Jane Doe", "Software Engineer", "jane@example.com",
		"Engineer", "Acme", "Did work",
		"State U", "BSc",
		"Go", "SQL",
		"https://github.com/jane",
	} {
		if !strings.Contains(html, want) {
			t.Fatalf("expected rendered document to contain %q", want)
		}
	}
}

func TestDocumentSkipsUnresolvableSkillIDs(t *testing.T) {
	html, err := Document(sampleView(), map[uint]string{1: "Go"})
	if err != nil {
		t.Fatalf("render document: %v", err)
	}
	if !strings.Contains(html, "<li>Go</li>") {
		t.Fatal("expected resolvable skill to render")
	}
	if strings.Count(html, "<li>") != 2 { // one skill plus one experience bullet
		t.Fatalf("expected unknown skill ids to be skipped, got:\n%s", html)
	}
}

func TestDocumentEscapesUserContent(t *testing.T) {
	view := sampleView()
	view.Name = `<script>alert("x")</script>`

	html, err := Document(view, nil)
	if err != nil {
		t.Fatalf("render document: %v", err)
	}
	if strings.Contains(html, "<script>alert") {
		t.Fatal("expected html escaping of user content")
	}
}

func TestDocumentFallsBackOnInvalidAccent(t *testing.T) {
	view := sampleView()
	view.AccentColor = "red; } body { display: none"

	html, err := Document(view, nil)
	if err != nil {
		t.Fatalf("render document: %v", err)
	}
	if !strings.Contains(html, defaultAccentColor) {
		t.Fatal("expected fallback accent color")
	}
	if strings.Contains(html, "display: none") {
		t.Fatal("expected invalid accent to be rejected")
	}

	view.AccentColor = "#c0ffee"
	html, err = Document(view, nil)
	if err != nil {
		t.Fatalf("render document: %v", err)
	}
	if !strings.Contains(html, "#c0ffee") {
		t.Fatal("expected valid accent to pass through")
	}
}

func TestValidAccent(t *testing.T) {
	valid := []string{"#fff", "#2563eb", "#ABCDEF"}
	invalid := []string{"", "#", "2563eb", "#25 3eb", "#gggggg", "#12345"}

	for _, c := range valid {
		if !validAccent(c) {
			t.Errorf("expected %q to be valid", c)
		}
	}
	for _, c := range invalid {
		if validAccent(c) {
			t.Errorf("expected %q to be invalid", c)
		}
	}
}
