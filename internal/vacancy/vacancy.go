package vacancy

import (
	"slices"
	"strings"
)

const summaryListLimit = 5

// Info is the structured form of a job posting.
type Info struct {
	JobTitle              string   `json:"job_title" yaml:"job_title" mapstructure:"job_title"`
	CompanyName           string   `json:"company_name" yaml:"company_name" mapstructure:"company_name"`
	Department            string   `json:"department,omitempty" yaml:"department,omitempty" mapstructure:"department"`
	SeniorityLevel        string   `json:"seniority_level" yaml:"seniority_level" mapstructure:"seniority_level"`
	EmploymentType        string   `json:"employment_type,omitempty" yaml:"employment_type,omitempty" mapstructure:"employment_type"`
	Location              string   `json:"location,omitempty" yaml:"location,omitempty" mapstructure:"location"`
	RemoteWork            string   `json:"remote_work,omitempty" yaml:"remote_work,omitempty" mapstructure:"remote_work"`
	RequiredSkills        []string `json:"required_skills" yaml:"required_skills" mapstructure:"required_skills"`
	PreferredSkills       []string `json:"preferred_skills,omitempty" yaml:"preferred_skills,omitempty" mapstructure:"preferred_skills"`
	EducationRequirements []string `json:"education_requirements,omitempty" yaml:"education_requirements,omitempty" mapstructure:"education_requirements"`
	ExperienceYears       string   `json:"experience_years,omitempty" yaml:"experience_years,omitempty" mapstructure:"experience_years"`
	Certifications        []string `json:"certifications,omitempty" yaml:"certifications,omitempty" mapstructure:"certifications"`
	KeyResponsibilities   []string `json:"key_responsibilities" yaml:"key_responsibilities" mapstructure:"key_responsibilities"`
	TeamSize              string   `json:"team_size,omitempty" yaml:"team_size,omitempty" mapstructure:"team_size"`
	ReportingTo           string   `json:"reporting_to,omitempty" yaml:"reporting_to,omitempty" mapstructure:"reporting_to"`
	Technologies          []string `json:"technologies" yaml:"technologies" mapstructure:"technologies"`
	IndustrySector        string   `json:"industry_sector,omitempty" yaml:"industry_sector,omitempty" mapstructure:"industry_sector"`
	CompanyCulture        []string `json:"company_culture,omitempty" yaml:"company_culture,omitempty" mapstructure:"company_culture"`
	Benefits              []string `json:"benefits,omitempty" yaml:"benefits,omitempty" mapstructure:"benefits"`
	GrowthOpportunities   []string `json:"growth_opportunities,omitempty" yaml:"growth_opportunities,omitempty" mapstructure:"growth_opportunities"`
	Challenges            []string `json:"challenges,omitempty" yaml:"challenges,omitempty" mapstructure:"challenges"`
}

func (i *Info) Clone() *Info {
	if i == nil {
		return nil
	}
	c := *i
	c.RequiredSkills = slices.Clone(i.RequiredSkills)
	c.PreferredSkills = slices.Clone(i.PreferredSkills)
	c.EducationRequirements = slices.Clone(i.EducationRequirements)
	c.Certifications = slices.Clone(i.Certifications)
	c.KeyResponsibilities = slices.Clone(i.KeyResponsibilities)
	c.Technologies = slices.Clone(i.Technologies)
	c.CompanyCulture = slices.Clone(i.CompanyCulture)
	c.Benefits = slices.Clone(i.Benefits)
	c.GrowthOpportunities = slices.Clone(i.GrowthOpportunities)
	c.Challenges = slices.Clone(i.Challenges)
	return &c
}

// Normalize trims every field and drops blank list entries.
func (i *Info) Normalize() {
	i.JobTitle = strings.TrimSpace(i.JobTitle)
	i.CompanyName = strings.TrimSpace(i.CompanyName)
	i.Department = strings.TrimSpace(i.Department)
	i.SeniorityLevel = strings.TrimSpace(i.SeniorityLevel)
	i.EmploymentType = strings.TrimSpace(i.EmploymentType)
	i.Location = strings.TrimSpace(i.Location)
	i.RemoteWork = strings.TrimSpace(i.RemoteWork)
	i.ExperienceYears = strings.TrimSpace(i.ExperienceYears)
	i.TeamSize = strings.TrimSpace(i.TeamSize)
	i.ReportingTo = strings.TrimSpace(i.ReportingTo)
	i.IndustrySector = strings.TrimSpace(i.IndustrySector)

	for _, list := range []*[]string{
		&i.RequiredSkills, &i.PreferredSkills, &i.EducationRequirements, &i.Certifications,
		&i.KeyResponsibilities, &i.Technologies, &i.CompanyCulture, &i.Benefits,
		&i.GrowthOpportunities, &i.Challenges,
	} {
		*list = compact(*list)
	}
}

// Context groups vacancy details the way question generation consumes them.
type Context struct {
	RoleOverview           RoleOverview           `json:"role_overview" yaml:"role_overview"`
	TechnicalFocus         TechnicalFocus         `json:"technical_focus" yaml:"technical_focus"`
	ExperienceExpectations ExperienceExpectations `json:"experience_expectations" yaml:"experience_expectations"`
	CompanyContext         CompanyContext         `json:"company_context" yaml:"company_context"`
	Logistics              Logistics              `json:"logistics" yaml:"logistics"`
}

type RoleOverview struct {
	Title      string `json:"title" yaml:"title"`
	Company    string `json:"company" yaml:"company"`
	Seniority  string `json:"seniority" yaml:"seniority"`
	Department string `json:"department,omitempty" yaml:"department,omitempty"`
}

type TechnicalFocus struct {
	RequiredSkills  []string `json:"required_skills" yaml:"required_skills"`
	PreferredSkills []string `json:"preferred_skills" yaml:"preferred_skills"`
	Technologies    []string `json:"technologies" yaml:"technologies"`
	Certifications  []string `json:"certifications" yaml:"certifications"`
}

type ExperienceExpectations struct {
	YearsRequired       string   `json:"years_required,omitempty" yaml:"years_required,omitempty"`
	KeyResponsibilities []string `json:"key_responsibilities" yaml:"key_responsibilities"`
	TeamSize            string   `json:"team_size,omitempty" yaml:"team_size,omitempty"`
	ReportingTo         string   `json:"reporting_to,omitempty" yaml:"reporting_to,omitempty"`
}

type CompanyContext struct {
	Industry            string   `json:"industry,omitempty" yaml:"industry,omitempty"`
	CultureValues       []string `json:"culture_values" yaml:"culture_values"`
	GrowthOpportunities []string `json:"growth_opportunities" yaml:"growth_opportunities"`
	Challenges          []string `json:"challenges" yaml:"challenges"`
}

type Logistics struct {
	Location       string   `json:"location,omitempty" yaml:"location,omitempty"`
	RemoteWork     string   `json:"remote_work,omitempty" yaml:"remote_work,omitempty"`
	EmploymentType string   `json:"employment_type,omitempty" yaml:"employment_type,omitempty"`
	Benefits       []string `json:"benefits" yaml:"benefits"`
}

func (i *Info) Context() Context {
	return Context{
		RoleOverview: RoleOverview{
			Title:      i.JobTitle,
			Company:    i.CompanyName,
			Seniority:  i.SeniorityLevel,
			Department: i.Department,
		},
		TechnicalFocus: TechnicalFocus{
			RequiredSkills:  orEmpty(i.RequiredSkills),
			PreferredSkills: orEmpty(i.PreferredSkills),
			Technologies:    orEmpty(i.Technologies),
			Certifications:  orEmpty(i.Certifications),
		},
		ExperienceExpectations: ExperienceExpectations{
			YearsRequired:       i.ExperienceYears,
			KeyResponsibilities: orEmpty(i.KeyResponsibilities),
			TeamSize:            i.TeamSize,
			ReportingTo:         i.ReportingTo,
		},
		CompanyContext: CompanyContext{
			Industry:            i.IndustrySector,
			CultureValues:       orEmpty(i.CompanyCulture),
			GrowthOpportunities: orEmpty(i.GrowthOpportunities),
			Challenges:          orEmpty(i.Challenges),
		},
		Logistics: Logistics{
			Location:       i.Location,
			RemoteWork:     i.RemoteWork,
			EmploymentType: i.EmploymentType,
			Benefits:       orEmpty(i.Benefits),
		},
	}
}

// Summary is a short description of a vacancy for display.
type Summary struct {
	Title        string   `json:"title" yaml:"title"`
	Company      string   `json:"company" yaml:"company"`
	Seniority    string   `json:"seniority" yaml:"seniority"`
	KeySkills    []string `json:"key_skills" yaml:"key_skills"`
	Technologies []string `json:"technologies" yaml:"technologies"`
}

func (i *Info) Summary() Summary {
	return Summary{
		Title:        i.JobTitle,
		Company:      i.CompanyName,
		Seniority:    i.SeniorityLevel,
		KeySkills:    head(i.RequiredSkills, summaryListLimit),
		Technologies: head(i.Technologies, summaryListLimit),
	}
}

// Analysis is the result of analyzing a job description.
type Analysis struct {
	Info    *Info   `json:"vacancy_info" yaml:"vacancy_info"`
	Context Context `json:"interview_context" yaml:"interview_context"`
	Summary Summary `json:"summary" yaml:"summary"`
}

// NewAnalysis normalizes info and derives the context and summary from it.
func NewAnalysis(info *Info) *Analysis {
	info.Normalize()
	return &Analysis{
		Info:    info,
		Context: info.Context(),
		Summary: info.Summary(),
	}
}

func head(values []string, n int) []string {
	if len(values) > n {
		values = values[:n]
	}
	return orEmpty(slices.Clone(values))
}

func orEmpty(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

func compact(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
