package filtering

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/jobpilot/internal/headhunter"
)

// excludeFileFilter drops vacancies listed in the exclude file written by `sync-hh --append-exclude`.
// A missing file excludes nothing.
type excludeFileFilter struct {
	toggle
	path string
}

func NewExcludeFile() Filter {
	return &excludeFileFilter{}
}

func (f *excludeFileFilter) Name() string { return "exclude_file" }

func (f *excludeFileFilter) Validate(cfg *Config) error {
	f.path = ""
	if cfg != nil {
		f.path = strings.TrimSpace(cfg.ExcludeFile)
	}
	return nil
}

func (f *excludeFileFilter) Apply(_ context.Context, deps Deps, v *headhunter.Vacancies) (*headhunter.Vacancies, Step, error) {
	if f.path == "" {
		return v, dropVacancies(deps, f.Name(), v, keep), nil
	}

	listed, err := headhunter.GetExcludedVacanciesFromFile(f.path)
	if err != nil {
		return nil, Step{}, fmt.Errorf("reading %s: %w", f.path, err)
	}

	ids := listed.VacanciesIDs()
	step := dropVacancies(deps, f.Name(), v, func(v *headhunter.Vacancies) []string {
		return v.Exclude(headhunter.VacancyIDField, ids)
	}, zap.String("path", f.path))

	return v, step, nil
}

func (f *excludeFileFilter) Status() Status {
	var details map[string]string
	if f.path != "" {
		details = map[string]string{"path": f.path}
	}
	return f.status(f.Name(), details)
}
