package filtering

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/jobpilot/internal/headhunter"
)

func vacancies() *headhunter.Vacancies {
	return &headhunter.Vacancies{Items: []*headhunter.Vacancy{
		{ID: "1", Employer: headhunter.Employer{ID: "spam"}},
		{ID: "2", Archived: true},
		{ID: "3", Employer: headhunter.Employer{ID: "good"}},
		{ID: "4", Employer: headhunter.Employer{ID: "good"}},
	}}
}

func ids(v *headhunter.Vacancies) []string {
	out := make([]string, 0, v.Len())
	for _, item := range v.Items {
		out = append(out, item.ID)
	}
	return out
}

func TestRunDefaultFilters(t *testing.T) {
	path := filepath.Join(t.TempDir(), "exclude.json")
	excluded := (&headhunter.Vacancies{Items: []*headhunter.Vacancy{{ID: "4"}}}).ToExcluded()
	require.NoError(t, excluded.ToFile(path))

	core, logs := observer.New(zapcore.InfoLevel)
	cfg := &Config{Employers: []string{"spam", " "}, ExcludeFile: path}

	left, err := Run(context.Background(), cfg, Deps{Logger: zap.New(core)}, Default(), vacancies())
	require.NoError(t, err)

	assert.Equal(t, []string{"3"}, ids(left))

	steps := logs.FilterMessage("filter step").All()
	require.Len(t, steps, 3)
	assert.Equal(t, "archived", steps[0].ContextMap()["name"])
	assert.Equal(t, int64(1), steps[0].ContextMap()["dropped"])
	assert.Equal(t, "employers", steps[1].ContextMap()["name"])
	assert.Equal(t, "exclude_file", steps[2].ContextMap()["name"])
	assert.Equal(t, int64(1), steps[2].ContextMap()["left"])
}

func TestRunWithoutConfig(t *testing.T) {
	left, err := Run(context.Background(), nil, Deps{}, Default(), vacancies())
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "3", "4"}, ids(left))
}

func TestDisableByName(t *testing.T) {
	steps := Default()
	DisableByName(steps, "archived", "keep archived vacancies")

	core, logs := observer.New(zapcore.InfoLevel)
	left, err := Run(context.Background(), &Config{}, Deps{Logger: zap.New(core)}, steps, vacancies())
	require.NoError(t, err)

	assert.Len(t, left.Items, 4)
	assert.Equal(t, 1, logs.FilterMessage("filter disabled").Len())

	statuses := Describe(steps)
	require.Len(t, statuses, 3)
	assert.False(t, statuses[0].Enabled)
	assert.Equal(t, "keep archived vacancies", statuses[0].Reason)
	assert.True(t, statuses[1].Enabled)
}

func TestDescribeDetails(t *testing.T) {
	steps := Default()
	_, err := Run(context.Background(), &Config{Employers: []string{"a", "b"}, ExcludeFile: "/tmp/none.json"}, Deps{}, steps, &headhunter.Vacancies{})
	require.NoError(t, err)

	statuses := Describe(steps)
	assert.Equal(t, "a,b", statuses[1].Details["employers"])
	assert.Equal(t, "/tmp/none.json", statuses[2].Details["path"])
}

type failingFilter struct{ toggle }

func (f *failingFilter) Name() string { return "failing" }

func (f *failingFilter) Validate(*Config) error { return errors.New("bad config") }

func (f *failingFilter) Apply(context.Context, Deps, *headhunter.Vacancies) (*headhunter.Vacancies, Step, error) {
	return nil, Step{}, nil
}

func TestRunValidationError(t *testing.T) {
	_, err := Run(context.Background(), nil, Deps{}, []Filter{NewArchived(), &failingFilter{}}, vacancies())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failing: bad config")

	steps := []Filter{&failingFilter{}}
	DisableByName(steps, "failing", "off")
	_, err = Run(context.Background(), nil, Deps{}, steps, vacancies())
	assert.NoError(t, err)
}

func TestExcludeFileBroken(t *testing.T) {
	path := filepath.Join(t.TempDir(), "exclude.json")
	require.NoError(t, writeFile(path, "{not json"))

	_, err := Run(context.Background(), &Config{ExcludeFile: path}, Deps{}, []Filter{NewExcludeFile()}, vacancies())
	assert.ErrorContains(t, err, "exclude_file")
}

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o600)
}

func TestEmployersDeduplicatesAndLogs(t *testing.T) {
	f := NewEmployers()
	require.NoError(t, f.Validate(&Config{Employers: []string{" spam ", "spam", "", "other"}}))

	core, logs := observer.New(zapcore.DebugLevel)
	left, step, err := f.Apply(context.Background(), Deps{Logger: zap.New(core)}, vacancies())
	require.NoError(t, err)

	assert.Equal(t, Step{Initial: 4, Dropped: 1, Left: 3}, step)
	assert.Equal(t, []string{"2", "3", "4"}, ids(left))
	assert.Equal(t, "spam,other", Describe([]Filter{f})[0].Details["employers"])

	excluded := logs.FilterMessage("vacancies excluded").All()
	require.Len(t, excluded, 1)
	assert.Equal(t, "employers", excluded[0].ContextMap()["filter"])
}

func TestExcludeFileMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.json")

	left, err := Run(context.Background(), &Config{ExcludeFile: path}, Deps{}, []Filter{NewExcludeFile()}, vacancies())
	require.NoError(t, err)
	assert.Len(t, left.Items, 4)
}
