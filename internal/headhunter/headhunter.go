package headhunter

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	apiURL    = "https://api.hh.ru"
	userAgent = "spigell/interview-coach (spigelly@gmail.com)"
)

// Client reads public vacancy data from the HeadHunter API. A token is
// optional; anonymous requests work for published vacancies.
type Client struct {
	token      string
	logger     *zap.Logger
	HTTPClient *http.Client
	UserAgent  string
	APIURL     string
}

func New(logger *zap.Logger, token string) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		token:  strings.TrimSpace(token),
		APIURL: apiURL,
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger:    logger,
		UserAgent: userAgent,
	}
}

// GetVacancy fetches the full vacancy with the given id.
func (c *Client) GetVacancy(ctx context.Context, id string) (*Vacancy, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("vacancy id is required")
	}

	var v Vacancy
	if err := c.getJSON(ctx, c.APIURL+"/vacancies/"+url.PathEscape(id), nil, &v); err != nil {
		return nil, fmt.Errorf("get vacancy %s: %w", id, err)
	}

	c.logger.Debug("got vacancy from HH.ru",
		zap.String("vacancy_id", v.ID),
		zap.String("name", v.Name),
	)
	return &v, nil
}
