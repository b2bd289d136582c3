package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/jobpilot/internal/models"
)

var errNoResumes = errors.New("no resumes found")

var reanalyzeCmd = &cobra.Command{
	Use:   "reanalyze",
	Short: "Extract and analyze a stored resume again",
	Run: func(cmd *cobra.Command, _ []string) {
		ctx := context.Background()

		a, err := newApplication(ctx)
		if err != nil {
			newLogger().Fatal("initializing", zap.Error(err))
		}
		defer a.Close()

		id, _ := cmd.Flags().GetInt64("resume")
		user, _ := cmd.Flags().GetInt64("user")

		if id == 0 {
			id, err = pickResume(ctx, a, user)
			if err != nil {
				a.logger.Fatal("choosing a resume", zap.Error(err))
			}
		}

		resume, err := a.service.ProcessResumeUpload(ctx, id)
		if err != nil {
			a.logger.Fatal("processing resume", zap.Int64("resume_id", id), zap.Error(err))
		}

		a.logger.Info("resume reanalyzed",
			zap.Int64("resume_id", resume.ID),
			zap.Bool("processed", resume.Processed()),
			zap.Strings("skills", resume.Skills),
		)
	},
}

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Score a resume against a job and store the match",
	Run: func(cmd *cobra.Command, _ []string) {
		ctx := context.Background()

		a, err := newApplication(ctx)
		if err != nil {
			newLogger().Fatal("initializing", zap.Error(err))
		}
		defer a.Close()

		jobID, _ := cmd.Flags().GetInt64("job")
		resumeID, _ := cmd.Flags().GetInt64("resume")
		user, _ := cmd.Flags().GetInt64("user")

		if resumeID == 0 {
			resumeID, err = pickResume(ctx, a, user)
			if err != nil {
				a.logger.Fatal("choosing a resume", zap.Error(err))
			}
		}

		match, err := a.service.RequestMatch(ctx, jobID, resumeID, user)
		if err != nil {
			a.logger.Fatal("matching resume", zap.Error(err))
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(match); err != nil {
			a.logger.Fatal("printing match", zap.Error(err))
		}
	},
}

func init() {
	rootCmd.AddCommand(reanalyzeCmd)
	rootCmd.AddCommand(matchCmd)

	reanalyzeCmd.Flags().Int64P("resume", "r", 0, "resume id. A picker is shown when unset")
	reanalyzeCmd.Flags().Int64P("user", "u", 0, "only offer resumes of this user in the picker")

	matchCmd.Flags().Int64P("job", "J", 0, "job id")
	matchCmd.Flags().Int64P("resume", "r", 0, "resume id. A picker is shown when unset")
	matchCmd.Flags().Int64P("user", "u", 0, "owner of the resume")
	matchCmd.MarkFlagRequired("job")
	matchCmd.MarkFlagRequired("user")
}

// pickResume asks the user to choose one of the stored resumes.
func pickResume(ctx context.Context, a *application, userID int64) (int64, error) {
	resumes, err := a.store.ListResumes(ctx, userID)
	if err != nil {
		return 0, err
	}
	if len(resumes) == 0 {
		return 0, errNoResumes
	}

	items := make([]string, 0, len(resumes))
	for _, r := range resumes {
		items = append(items, resumeLabel(r))
	}

	prompt := promptui.Select{
		Label: "Choose a resume and press ENTER",
		Items: items,
	}

	_, selected, err := prompt.Run()
	if err != nil {
		return 0, err
	}

	return strconv.ParseInt(strings.Split(selected, " ")[0], 10, 64)
}

func resumeLabel(r *models.Resume) string {
	state := "not processed"
	if r.Processed() {
		state = fmt.Sprintf("%d skills", len(r.Skills))
	}
	return fmt.Sprintf("%d %s / user %d / %s", r.ID, r.Title, r.UserID, state)
}
