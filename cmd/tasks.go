package cmd

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"taskproxy/internal/bootstrap"
	"taskproxy/internal/bootstrap/logging"
	"taskproxy/internal/errs"
	"taskproxy/internal/usecase/tasks"
)

var tasksCmd = &cobra.Command{
	Use:   "tasks",
	Short: "One-shot task operations against the upstream API",
}

var tasksApplyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Apply for a job task",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *tasks.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		jobID, _ := cmd.Flags().GetString("job")
		payload, err := svc.Apply(ctx, jobID)
		if err != nil {
			return errs.Wrap(err, "apply for task")
		}
		return printJSON(cmd, payload)
	}),
}

var tasksSubmitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Submit task proof and record the submission",
	RunE: withApp(func(cmd *cobra.Command, app *bootstrap.App, svc *tasks.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		if err := app.InitSchema(ctx); err != nil {
			return errs.Wrap(err, "initialize schema")
		}

		userID, _ := cmd.Flags().GetString("user")
		jobID, _ := cmd.Flags().GetString("job")
		proof, _ := cmd.Flags().GetString("proof")

		result, err := svc.Submit(ctx, tasks.SubmitInput{UserID: userID, JobID: jobID, JobProof: proof})
		if err != nil {
			// The upstream reply is still worth showing when only the local
			// record could not be written.
			if len(result.Submitted) > 0 {
				_ = printJSON(cmd, result.Submitted)
			}
			return errs.Wrap(err, "submit task proof")
		}

		return printJSON(cmd, map[string]any{
			"submitted": json.RawMessage(result.Submitted),
			"record":    result.Record,
		})
	}),
}

var tasksListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded submissions for a user with reconciled statuses",
	RunE: withApp(func(cmd *cobra.Command, app *bootstrap.App, svc *tasks.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		if err := app.InitSchema(ctx); err != nil {
			return errs.Wrap(err, "initialize schema")
		}

		userID, _ := cmd.Flags().GetString("user")
		list, err := svc.ListUserTasks(ctx, userID)
		if err != nil {
			return errs.Wrap(err, "list user tasks")
		}
		return printJSON(cmd, list)
	}),
}

func printJSON(cmd *cobra.Command, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errs.Wrap(err, "encode output")
	}
	if _, err := fmt.Fprintln(cmd.OutOrStdout(), string(out)); err != nil {
		return errs.Wrap(err, "write output")
	}
	return nil
}

func init() {
	rootCmd.AddCommand(tasksCmd)

	tasksApplyCmd.Flags().String("job", "", "Job identifier")
	_ = tasksApplyCmd.MarkFlagRequired("job")
	tasksCmd.AddCommand(tasksApplyCmd)

	tasksSubmitCmd.Flags().String("user", "", "User identifier")
	tasksSubmitCmd.Flags().String("job", "", "Job identifier")
	tasksSubmitCmd.Flags().String("proof", "", "Proof of task completion")
	_ = tasksSubmitCmd.MarkFlagRequired("user")
	_ = tasksSubmitCmd.MarkFlagRequired("job")
	_ = tasksSubmitCmd.MarkFlagRequired("proof")
	tasksCmd.AddCommand(tasksSubmitCmd)

	tasksListCmd.Flags().String("user", "", "User identifier")
	_ = tasksListCmd.MarkFlagRequired("user")
	tasksCmd.AddCommand(tasksListCmd)
}
