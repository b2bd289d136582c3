package filtering

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/jobpilot/internal/headhunter"
)

// employersFilter drops vacancies of blocked employers, matched by hh.ru employer id.
type employersFilter struct {
	toggle
	blocked []string
}

func NewEmployers() Filter {
	return &employersFilter{}
}

func (f *employersFilter) Name() string { return "employers" }

func (f *employersFilter) Validate(cfg *Config) error {
	f.blocked = f.blocked[:0]
	if cfg == nil {
		return nil
	}

	seen := make(map[string]struct{}, len(cfg.Employers))
	for _, raw := range cfg.Employers {
		id := strings.TrimSpace(raw)
		if _, dup := seen[id]; id == "" || dup {
			continue
		}
		seen[id] = struct{}{}
		f.blocked = append(f.blocked, id)
	}
	return nil
}

func (f *employersFilter) Apply(_ context.Context, deps Deps, v *headhunter.Vacancies) (*headhunter.Vacancies, Step, error) {
	drop := keep
	if len(f.blocked) > 0 {
		drop = func(v *headhunter.Vacancies) []string {
			return v.Exclude(headhunter.VacancyEmployerIDField, f.blocked)
		}
	}

	step := dropVacancies(deps, f.Name(), v, drop, zap.Strings("employers", f.blocked))
	return v, step, nil
}

func (f *employersFilter) Status() Status {
	var details map[string]string
	if len(f.blocked) > 0 {
		details = map[string]string{"employers": strings.Join(f.blocked, ",")}
	}
	return f.status(f.Name(), details)
}
