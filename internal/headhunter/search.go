package headhunter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"reflect"
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"
)

const (
	SearchPath       = "/vacancies"
	SkillSuggestPath = "/suggests/skill_set"
)

type SearchParams struct {
	Text string `yaml:"text"`
	// hhparam is custom tag for reflect. Please see below.
	Areas       []int    `hhparam:"area"`
	Clusters    bool     `yaml:"clusters"`
	OrderBy     string   `yaml:"order_by" mapstructure:"order_by"`
	Employer    uint     `yaml:"employer_id" mapstructure:"employer_id"`
	SearchField string   `yaml:"search_field" mapstructure:"search_field"`
	Schedules   []string `hhparam:"schedule"`
	PerPage     string   `yaml:"per_page" mapstructure:"per_page"`
	Experience  string   `yaml:"experience"`
	Period      uint     `yaml:"period"`
}

// Search returns vacancies from all result pages.
func (c *Client) Search(ctx context.Context, params *SearchParams) (*Vacancies, error) {
	var vacancies []*Vacancy

	if params == nil {
		params = &SearchParams{}
	}

	// Set per_page max as possible. It should be faster.
	if params.PerPage == "" {
		params.PerPage = perPage
	}

	q := buildParams(params)
	apiURLSearch := fmt.Sprintf("%s%s", c.APIURL, SearchPath)

	items, err := c.GetItems(ctx, apiURLSearch, q)
	if err != nil {
		return nil, err
	}

	cfg := &mapstructure.DecoderConfig{
		Metadata: nil,
		Result:   &vacancies,
		TagName:  "json",
	}
	decoder, err := mapstructure.NewDecoder(cfg)
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(items); err != nil {
		return nil, fmt.Errorf("decoding vacancies: %w", err)
	}

	return &Vacancies{
		Items: vacancies,
	}, nil
}

// GetVacancy returns the full vacancy together with the payload it was decoded from.
func (c *Client) GetVacancy(ctx context.Context, id string) (*Vacancy, json.RawMessage, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, nil, fmt.Errorf("vacancy id is required")
	}

	data, err := c.getRaw(ctx, fmt.Sprintf("%s%s/%s", c.APIURL, SearchPath, url.PathEscape(id)), nil)
	if err != nil {
		return nil, nil, fmt.Errorf("get vacancy %s: %w", id, err)
	}

	var vacancy Vacancy
	if err := json.Unmarshal(data, &vacancy); err != nil {
		return nil, nil, fmt.Errorf("decoding vacancy %s: %w", id, err)
	}

	return &vacancy, json.RawMessage(data), nil
}

type skillSuggestions struct {
	Items []struct {
		ID   string `json:"id"`
		Text string `json:"text"`
	} `json:"items"`
}

// SuggestSkills returns the skill names hh.ru suggests for the text.
func (c *Client) SuggestSkills(ctx context.Context, text string) ([]string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}

	q := url.Values{}
	q.Set("text", text)

	var suggestions skillSuggestions
	if err := c.getJSON(ctx, fmt.Sprintf("%s%s", c.APIURL, SkillSuggestPath), q, &suggestions); err != nil {
		return nil, fmt.Errorf("suggest skills: %w", err)
	}

	skills := make([]string, 0, len(suggestions.Items))
	for _, item := range suggestions.Items {
		if name := strings.TrimSpace(item.Text); name != "" {
			skills = append(skills, name)
		}
	}

	return skills, nil
}

func buildParams(params *SearchParams) url.Values {
	q := url.Values{}
	fields := reflect.VisibleFields(reflect.TypeOf(*params))
	for _, field := range fields {
		// Our custom tag is using here.
		key := field.Tag.Get("hhparam")
		if key == "" {
			// Failover to default tag if our tag do not exist.
			key = field.Tag.Get("yaml")
		}
		kind := field.Type.Kind()
		switch kind {
		case reflect.Slice:

			s := reflect.ValueOf(params).Elem().Field(field.Index[0]).Interface()
			switch v := s.(type) {
			case []int:
				for _, value := range v {
					q.Add(key, strconv.Itoa(value))
				}

			case []string:
				for _, value := range v {
					q.Add(key, value)
				}
			}

		default:
			value := fmt.Sprintf("%v", reflect.ValueOf(params).Elem().Field(field.Index[0]).Interface())
			if value != "" && value != "0" && value != "false" {
				q.Set(key, value)
			}
		}
	}

	return q
}
