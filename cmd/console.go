package cmd

import (
	"log/slog"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"taskproxy/internal/bootstrap"
	"taskproxy/internal/bootstrap/logging"
	"taskproxy/internal/errs"
	"taskproxy/internal/usecase/taskconsole"
	"taskproxy/internal/usecase/tasks"
)

// consoleCmd represents the console command
var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Interactive submission status console",
	RunE: withApp(func(cmd *cobra.Command, app *bootstrap.App, svc *tasks.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		if err := app.InitSchema(ctx); err != nil {
			return errs.Wrap(err, "initialize schema")
		}

		userID, _ := cmd.Flags().GetString("user")
		interval, _ := cmd.Flags().GetDuration("refresh-interval")

		model := taskconsole.NewModel(ctx, svc, taskconsole.Options{
			UserID:          userID,
			RefreshInterval: interval,
		})

		program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
		if _, err := program.Run(); err != nil {
			return errs.Wrap(err, "run task console")
		}
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(consoleCmd)
	consoleCmd.Flags().String("user", "", "User identifier to watch")
	_ = consoleCmd.MarkFlagRequired("user")
	consoleCmd.Flags().Duration("refresh-interval", 5*time.Second, "How often to re-query task statuses")
}
