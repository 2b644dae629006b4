package headhunter

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

type Named struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
}

type Salary struct {
	From     int    `json:"from,omitempty"`
	To       int    `json:"to,omitempty"`
	Currency string `json:"currency,omitempty"`
	Gross    bool   `json:"gross,omitempty"`
}

type Employer struct {
	ID           string `json:"id,omitempty"`
	Name         string `json:"name,omitempty"`
	URL          string `json:"url,omitempty"`
	AlternateURL string `json:"alternate_url,omitempty"`
	Trusted      bool   `json:"trusted,omitempty"`
}

type Vacancy struct {
	ID                string   `json:"id,omitempty"`
	Name              string   `json:"name,omitempty"`
	Area              Named    `json:"area,omitempty"`
	Salary            *Salary  `json:"salary,omitempty"`
	Experience        Named    `json:"experience,omitempty"`
	Schedule          Named    `json:"schedule,omitempty"`
	Employment        Named    `json:"employment,omitempty"`
	Employer          Employer `json:"employer,omitempty"`
	Description       string   `json:"description,omitempty"`
	KeySkills         []Named  `json:"key_skills,omitempty"`
	ProfessionalRoles []Named  `json:"professional_roles,omitempty"`
	AlternateURL      string   `json:"alternate_url,omitempty"`
	PublishedAt       string   `json:"published_at,omitempty"`
	Archived          bool     `json:"archived,omitempty"`
}

// JobDescription renders the vacancy as plain text suitable for analysis.
func (v *Vacancy) JobDescription() string {
	var b strings.Builder

	line := func(label, value string) {
		if value = strings.TrimSpace(value); value != "" {
			fmt.Fprintf(&b, "%s: %s\n", label, value)
		}
	}

	line("Position", v.Name)
	line("Company", v.Employer.Name)
	line("Location", v.Area.Name)
	line("Experience", v.Experience.Name)
	line("Employment", v.Employment.Name)
	line("Schedule", v.Schedule.Name)
	if v.Salary != nil {
		line("Salary", v.Salary.String())
	}

	if len(v.KeySkills) > 0 {
		skills := make([]string, 0, len(v.KeySkills))
		for _, s := range v.KeySkills {
			if name := strings.TrimSpace(s.Name); name != "" {
				skills = append(skills, name)
			}
		}
		line("Key skills", strings.Join(skills, ", "))
	}

	if text := StripHTML(v.Description); text != "" {
		b.WriteString("\n")
		b.WriteString(text)
		b.WriteString("\n")
	}

	return strings.TrimSpace(b.String())
}

func (s *Salary) String() string {
	switch {
	case s.From > 0 && s.To > 0:
		return strings.TrimSpace(fmt.Sprintf("%d-%d %s", s.From, s.To, s.Currency))
	case s.From > 0:
		return strings.TrimSpace(fmt.Sprintf("from %d %s", s.From, s.Currency))
	case s.To > 0:
		return strings.TrimSpace(fmt.Sprintf("up to %d %s", s.To, s.Currency))
	default:
		return ""
	}
}

var blockTags = map[string]bool{
	"p": true, "br": true, "li": true, "ul": true, "ol": true,
	"div": true, "h1": true, "h2": true, "h3": true, "h4": true, "tr": true,
}

// StripHTML converts vacancy markup to text. Block elements become line
// breaks and list items are prefixed with "- ".
func StripHTML(s string) string {
	z := html.NewTokenizer(strings.NewReader(s))
	var b strings.Builder

	for {
		switch z.Next() {
		case html.ErrorToken:
			return tidy(b.String())
		case html.TextToken:
			b.WriteString(collapse(string(z.Text())))
		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			tag := string(name)
			if blockTags[tag] {
				b.WriteString("\n")
			}
			if tag == "li" {
				b.WriteString("- ")
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			if blockTags[string(name)] {
				b.WriteString("\n")
			}
		}
	}
}

// collapse squeezes whitespace runs to one space, keeping a space at either
// edge so adjacent inline elements stay separated.
func collapse(s string) string {
	text := strings.Join(strings.Fields(s), " ")
	if text == "" {
		if s != "" {
			return " "
		}
		return ""
	}
	if strings.TrimLeft(s, " \t\r\n") != s {
		text = " " + text
	}
	if strings.TrimRight(s, " \t\r\n") != s {
		text += " "
	}
	return text
}

func tidy(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		l = strings.Join(strings.Fields(l), " ")
		if l != "" && l != "-" {
			out = append(out, l)
		}
	}
	return strings.Join(out, "\n")
}
