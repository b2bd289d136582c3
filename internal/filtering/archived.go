package filtering

import (
	"context"

	"github.com/spigell/jobpilot/internal/headhunter"
)

// archivedFilter drops vacancies hh.ru has closed.
type archivedFilter struct {
	toggle
}

func NewArchived() Filter {
	return &archivedFilter{}
}

func (f *archivedFilter) Name() string { return "archived" }

func (f *archivedFilter) Validate(*Config) error { return nil }

func (f *archivedFilter) Apply(_ context.Context, deps Deps, v *headhunter.Vacancies) (*headhunter.Vacancies, Step, error) {
	step := dropVacancies(deps, f.Name(), v, (*headhunter.Vacancies).ExcludeArchived)
	return v, step, nil
}

func (f *archivedFilter) Status() Status {
	return f.status(f.Name(), nil)
}
