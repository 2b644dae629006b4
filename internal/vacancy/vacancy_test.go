package vacancy

import (
	"reflect"
	"testing"
)

func TestNewAnalysis(t *testing.T) {
	t.Parallel()

	info := &Info{
		JobTitle:            " Go Engineer ",
		CompanyName:         "Acme",
		SeniorityLevel:      "senior",
		RemoteWork:          "yes",
		RequiredSkills:      []string{"Go", " ", "SQL", "Kubernetes", "gRPC", "Kafka", "Redis"},
		Technologies:        []string{"Postgres"},
		KeyResponsibilities: []string{"Build services", ""},
	}

	a := NewAnalysis(info)

	if a.Info.JobTitle != "Go Engineer" {
		t.Fatalf("expected trimmed title, got %q", a.Info.JobTitle)
	}
	if want := []string{"Go", "SQL", "Kubernetes", "gRPC", "Kafka"}; !reflect.DeepEqual(a.Summary.KeySkills, want) {
		t.Fatalf("unexpected key skills: %v", a.Summary.KeySkills)
	}
	if len(a.Context.TechnicalFocus.RequiredSkills) != 6 {
		t.Fatalf("context must carry every required skill, got %v", a.Context.TechnicalFocus.RequiredSkills)
	}
	if !reflect.DeepEqual(a.Context.ExperienceExpectations.KeyResponsibilities, []string{"Build services"}) {
		t.Fatalf("unexpected responsibilities: %v", a.Context.ExperienceExpectations.KeyResponsibilities)
	}
	if a.Context.Logistics.RemoteWork != "yes" || a.Context.RoleOverview.Company != "Acme" {
		t.Fatalf("unexpected context: %+v", a.Context)
	}
	if a.Context.Logistics.Benefits == nil || a.Context.CompanyContext.Challenges == nil {
		t.Fatal("context lists must be empty, not nil")
	}
}

func TestSummaryDoesNotAlias(t *testing.T) {
	t.Parallel()

	info := &Info{RequiredSkills: []string{"Go", "SQL"}}
	s := info.Summary()
	s.KeySkills[0] = "changed"
	if info.RequiredSkills[0] != "Go" {
		t.Fatal("summary shares its slice with the vacancy")
	}
}

func TestClone(t *testing.T) {
	t.Parallel()

	var nilInfo *Info
	if nilInfo.Clone() != nil {
		t.Fatal("expected nil clone of nil info")
	}

	info := &Info{JobTitle: "Dev", Benefits: []string{"gym"}}
	c := info.Clone()
	c.Benefits[0] = "changed"
	if info.Benefits[0] != "gym" || !reflect.DeepEqual(c.JobTitle, info.JobTitle) {
		t.Fatal("clone shares state with the original")
	}
}
