package filtering

import (
	"go.uber.org/zap"

	"github.com/spigell/jobpilot/internal/headhunter"
)

// dropVacancies runs drop on v, logs the removed ids and reports the counts.
func dropVacancies(deps Deps, name string, v *headhunter.Vacancies, drop func(*headhunter.Vacancies) []string, fields ...zap.Field) Step {
	before := v.Len()
	removed := drop(v)

	if len(removed) > 0 {
		deps.Logger.Debug("vacancies excluded", append(fields,
			zap.String("filter", name),
			zap.Strings("vacancies", removed),
		)...)
	}

	return Step{Initial: before, Dropped: len(removed), Left: v.Len()}
}

func keep(*headhunter.Vacancies) []string { return nil }
