package ai

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spigell/jobpilot/internal/models"
)

func TestFailedMatch(t *testing.T) {
	result := FailedMatch(errors.New(`quota "exceeded"`))

	assert.Equal(t, 0.0, result.Score)
	var analysis string
	require.NoError(t, json.Unmarshal(result.Analysis, &analysis))
	assert.Equal(t, `quota "exceeded"`, analysis)
}

func TestEmptyResumeIsNotNil(t *testing.T) {
	empty := EmptyResume()

	data, err := json.Marshal(empty)
	require.NoError(t, err)
	assert.JSONEq(t, `{"skills":[],"experience":[],"education":[]}`, string(data))
}

func TestFieldsOf(t *testing.T) {
	resume := &models.Resume{
		Skills:     []string{"Go"},
		Experience: []models.Record{{"title": "Engineer"}},
	}
	job := &models.Job{Title: "SRE", Company: "Acme", Requirements: "Linux", RequiredSkills: []string{"Go"}}

	assert.Equal(t, ResumeFields{Skills: []string{"Go"}, Experience: []models.Record{{"title": "Engineer"}}}, ResumeFieldsOf(resume))
	assert.Equal(t, JobFields{Title: "SRE", Company: "Acme", Requirements: "Linux", RequiredSkills: []string{"Go"}}, JobFieldsOf(job))
}

func TestDisabled(t *testing.T) {
	cause := errors.New("no api key")
	a := Disabled(cause)

	_, err := a.ParseResume(context.Background(), "text")
	var analysisErr *AnalysisError
	require.ErrorAs(t, err, &analysisErr)
	assert.Equal(t, OpParseResume, analysisErr.Op)
	assert.ErrorIs(t, err, cause)

	_, err = a.ScoreMatch(context.Background(), ResumeFields{}, JobFields{})
	assert.ErrorIs(t, err, cause)

	_, err = a.GenerateCoverLetter(context.Background(), ResumeFields{}, JobFields{})
	assert.EqualError(t, err, "cover_letter: no api key")
}
