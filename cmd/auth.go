package main

import (
	"context"
	"fmt"

	"github.com/duskmoth/sidestage/internal/models"
	"github.com/duskmoth/sidestage/internal/repositories"
	"github.com/urfave/cli/v3"
)

// AuthRegister creates a user and prints their session token.
//
// Attendees normally get a session from the web frontend; this exists so
// organizers can mint tokens for the CLI and TUI.
func (r *Runner) AuthRegister(ctx context.Context, cmd *cli.Command) error {
	name := cmd.String("name")

	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	user := models.NewUser(0, name)
	if err := repositories.NewUserRepository(db).Create(user); err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	token, err := repositories.NewSessionRepository(db).Create(user.ID())
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	r.logger.Info("user created", "id", user.ID(), "name", name)

	r.writePlain("✓ User created\n")
	r.writePlain("  ID:    %s\n", user.ID())
	r.writePlain("  Token: %s\n\n", token)
	r.writePlain("Export it for other commands: export SIDESTAGE_TOKEN=%s\n", token)

	return nil
}
