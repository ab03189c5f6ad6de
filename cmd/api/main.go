package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/taskmaster/kanban/cmd/api/commands"
)

// @title Kanban API
// @version 1.0
// @description Boards, lists and tasks with drag-and-drop ordering, invitations, notifications and due-date reminders.

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	rootCmd := &cobra.Command{
		Use:          "kanban",
		Short:        "Kanban API Server",
		Long:         `Kanban is a collaborative task board: boards hold ordered lists of ordered tasks, members are invited by the owner, and assignees are notified over WebSocket, email and chat webhooks.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(commands.NewServeCommand())
	rootCmd.AddCommand(commands.NewMigrateCommand())
	rootCmd.AddCommand(commands.NewRemindCommand())
	rootCmd.AddCommand(commands.NewUserCommand())
	rootCmd.AddCommand(commands.NewVersionCommand())

	if err := rootCmd.Execute(); err != nil {
		log.Printf("Command execution failed: %v", err)
		os.Exit(1)
	}
}
