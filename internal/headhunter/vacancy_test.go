package headhunter

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
)

const vacancyJSON = `{
  "id": "123",
  "name": "Go Developer",
  "area": {"id": "1", "name": "Moscow"},
  "salary": {"from": 200000, "to": 300000, "currency": "RUR"},
  "experience": {"id": "between3And6", "name": "3-6 years"},
  "schedule": {"id": "remote", "name": "Remote"},
  "employment": {"id": "full", "name": "Full time"},
  "employer": {"id": "emp1", "name": "Acme"},
  "description": "<p>We build <b>payments</b>.</p><ul><li>Go</li><li>Postgres &amp; Kafka</li></ul>",
  "key_skills": [{"name": "Go"}, {"name": "SQL"}]
}`

func TestGetVacancy(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		gzip bool
	}{
		{name: "plain"},
		{name: "gzip", gzip: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/vacancies/123" {
					http.NotFound(w, r)
					return
				}
				if r.Header.Get("User-Agent") != userAgent {
					t.Errorf("unexpected user agent %q", r.Header.Get("User-Agent"))
				}
				if r.Header.Get("Authorization") != "Bearer secret" {
					t.Errorf("unexpected authorization %q", r.Header.Get("Authorization"))
				}

				if !tt.gzip {
					w.Write([]byte(vacancyJSON))
					return
				}
				var buf bytes.Buffer
				zw := gzip.NewWriter(&buf)
				zw.Write([]byte(vacancyJSON))
				zw.Close()
				w.Header().Set("Content-Encoding", "gzip")
				w.Write(buf.Bytes())
			}))
			defer srv.Close()

			c := New(zap.NewNop(), "secret")
			c.APIURL = srv.URL
			c.HTTPClient = &http.Client{Transport: &http.Transport{DisableCompression: true}}

			v, err := c.GetVacancy(context.Background(), "123")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if v.Name != "Go Developer" || v.Employer.Name != "Acme" || len(v.KeySkills) != 2 {
				t.Fatalf("unexpected vacancy: %+v", v)
			}
		})
	}
}

func TestGetVacancyErrors(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "" {
			t.Errorf("anonymous client sent authorization")
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	c := New(nil, "")
	c.APIURL = srv.URL

	_, err := c.GetVacancy(context.Background(), "404")
	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 status error, got %v", err)
	}

	if _, err := c.GetVacancy(context.Background(), " "); err == nil {
		t.Fatal("expected error for empty id")
	}
}

func TestJobDescription(t *testing.T) {
	t.Parallel()

	v := &Vacancy{
		Name:        "Go Developer",
		Employer:    Employer{Name: "Acme"},
		Area:        Named{Name: "Moscow"},
		Experience:  Named{Name: "3-6 years"},
		Employment:  Named{Name: "Full time"},
		Schedule:    Named{Name: "Remote"},
		Salary:      &Salary{From: 200000, Currency: "RUR"},
		KeySkills:   []Named{{Name: "Go"}, {Name: " "}, {Name: "SQL"}},
		Description: "<p>We build <b>payments</b>.</p><ul><li>Go</li><li>Postgres &amp; Kafka</li></ul>",
	}

	want := `Position: Go Developer
Company: Acme
Location: Moscow
Experience: 3-6 years
Employment: Full time
Schedule: Remote
Salary: from 200000 RUR
Key skills: Go, SQL

We build payments.
- Go
- Postgres & Kafka`

	if got := v.JobDescription(); got != want {
		t.Fatalf("unexpected description:\n%s\nwant:\n%s", got, want)
	}
}

func TestStripHTML(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"":                               "",
		"plain text":                     "plain text",
		"<p>one</p><p>two</p>":           "one\ntwo",
		"line<br/>break":                 "line\nbreak",
		"<strong>Go</strong> and   Rust": "Go and Rust",
		"<ul><li>a</li><li></li></ul>":   "- a",
	}

	for in, want := range tests {
		if got := StripHTML(in); got != want {
			t.Fatalf("StripHTML(%q) = %q, want %q", in, got, want)
		}
	}
}
