// Command guestbook-gateway runs the message-intake gateway and its
// operator tooling (schema migration, gallery moderation, daily limit
// override).
package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/thermalpress/guestbook-gateway/internal/app"
	"github.com/thermalpress/guestbook-gateway/internal/moderation"
	"github.com/thermalpress/guestbook-gateway/internal/settings"
	"github.com/thermalpress/guestbook-gateway/internal/store"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

var flagConfig = &cli.StringFlag{
	Name:  "config",
	Value: "config.yaml",
	Usage: "Path to the gateway config file (missing file uses defaults)",
}

func main() {
	cliApp := &cli.App{
		Name:           "guestbook-gateway",
		Usage:          "rate-limited guestbook intake gateway for a thermal printer",
		DefaultCommand: "serve",
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "run the HTTP gateway",
				Flags: []cli.Flag{flagConfig},
				Action: func(cCtx *cli.Context) error {
					ctx, stop := signal.NotifyContext(cCtx.Context, os.Interrupt, syscall.SIGTERM)
					defer stop()
					return app.RunServer(ctx, cCtx.String(flagConfig.Name))
				},
			},
			{
				Name:  "migrate",
				Usage: "create or update the database schema and exit",
				Flags: []cli.Flag{flagConfig},
				Action: func(cCtx *cli.Context) error {
					return app.Migrate(cCtx.Context, cCtx.String(flagConfig.Name))
				},
			},
			{
				Name:  "pending",
				Usage: "list messages awaiting gallery approval",
				Flags: []cli.Flag{flagConfig},
				Action: func(cCtx *cli.Context) error {
					_, conn, errOpen := app.OpenStore(cCtx.String(flagConfig.Name))
					if errOpen != nil {
						return errOpen
					}
					moderator := moderation.NewModerator(store.NewMessageStore(conn))
					summary, errSummary := moderator.PendingSummary(cCtx.Context)
					if errSummary != nil {
						return errSummary
					}
					fmt.Print(summary)
					return nil
				},
			},
			{
				Name:      "approve",
				Usage:     "approve a pending message for the gallery",
				ArgsUsage: "<id>",
				Flags: []cli.Flag{
					flagConfig,
					&cli.StringFlag{
						Name:  "commentary",
						Usage: "moderator note shown alongside the message (skips the prompt)",
					},
					&cli.BoolFlag{
						Name:  "yes",
						Usage: "approve without the confirmation prompt",
					},
				},
				Action: approveAction,
			},
			{
				Name:  "recent",
				Usage: "list the most recently accepted messages (debug)",
				Flags: []cli.Flag{
					flagConfig,
					&cli.IntFlag{Name: "n", Value: 20, Usage: "number of messages to show"},
				},
				Action: recentAction,
			},
			{
				Name:  "limit",
				Usage: "show, set, or clear the runtime daily limit override",
				Flags: []cli.Flag{
					flagConfig,
					&cli.IntFlag{Name: "set", Usage: "store a daily limit override"},
					&cli.BoolFlag{Name: "clear", Usage: "remove the override"},
				},
				Action: limitAction,
			},
		},
	}

	if errRun := cliApp.Run(os.Args); errRun != nil {
		log.WithError(errRun).Fatal("exiting")
	}
}

// approveAction reviews one pending message and approves it, prompting for
// commentary and confirmation unless overridden by flags.
func approveAction(cCtx *cli.Context) error {
	rawID := strings.TrimSpace(cCtx.Args().First())
	if rawID == "" {
		return errors.New("approve: message id required")
	}
	id, errParse := strconv.ParseUint(rawID, 10, 64)
	if errParse != nil {
		return fmt.Errorf("approve: invalid id %q", rawID)
	}

	_, conn, errOpen := app.OpenStore(cCtx.String(flagConfig.Name))
	if errOpen != nil {
		return errOpen
	}
	moderator := moderation.NewModerator(store.NewMessageStore(conn))

	row, errShow := moderator.Show(cCtx.Context, id)
	if errShow != nil {
		if errors.Is(errShow, store.ErrNotPending) {
			fmt.Printf("No pending message with ID %d.\n", id)
			return nil
		}
		return errShow
	}

	fmt.Printf("\n--- Message %d ---\n", row.ID)
	for _, line := range strings.Split(row.Message, "\n") {
		fmt.Printf("  %s\n", line)
	}
	fmt.Println("---")

	reader := bufio.NewReader(os.Stdin)
	commentary := cCtx.String("commentary")
	if commentary == "" && !cCtx.Bool("yes") {
		fmt.Print("Commentary (leave blank for none): ")
		input, _ := reader.ReadString('\n')
		commentary = strings.TrimSpace(input)
	}

	if !cCtx.Bool("yes") {
		fmt.Printf("Approve message %d? [y/N] ", row.ID)
		confirm, _ := reader.ReadString('\n')
		if strings.ToLower(strings.TrimSpace(confirm)) != "y" {
			fmt.Println("Cancelled.")
			return nil
		}
	}

	if errApprove := moderator.Approve(cCtx.Context, id, commentary); errApprove != nil {
		if errors.Is(errApprove, store.ErrNotPending) {
			fmt.Printf("No pending message with ID %d.\n", id)
			return nil
		}
		return errApprove
	}
	fmt.Printf("Message %d approved.\n", id)
	return nil
}

// recentAction prints the newest accepted messages for debugging.
func recentAction(cCtx *cli.Context) error {
	_, conn, errOpen := app.OpenStore(cCtx.String(flagConfig.Name))
	if errOpen != nil {
		return errOpen
	}
	messages := store.NewMessageStore(conn)

	rows, errList := messages.ListRecent(cCtx.Context, cCtx.Int("n"))
	if errList != nil {
		return errList
	}
	if len(rows) == 0 {
		fmt.Println("No messages.")
		return nil
	}
	for _, row := range rows {
		status := "pending"
		if row.GalleryApproved {
			status = "approved"
		}
		fmt.Printf("%4d  %s  %-8s  %s\n",
			row.ID,
			row.SubmittedAt.UTC().Format("2006-01-02 15:04"),
			status,
			moderation.FirstLine(row.Message, 60))
	}
	return nil
}

// limitAction manages the DB-backed daily limit override.
func limitAction(cCtx *cli.Context) error {
	cfg, conn, errOpen := app.OpenStore(cCtx.String(flagConfig.Name))
	if errOpen != nil {
		return errOpen
	}

	switch {
	case cCtx.Bool("clear"):
		if errClear := settings.ClearDailyLimitOverride(cCtx.Context, conn); errClear != nil {
			return errClear
		}
		fmt.Printf("Override cleared; daily limit is %d.\n", cfg.DailyLimit)
	case cCtx.IsSet("set"):
		limit := cCtx.Int("set")
		if errSet := settings.SetDailyLimitOverride(cCtx.Context, conn, limit); errSet != nil {
			return errSet
		}
		fmt.Printf("Daily limit override set to %d.\n", limit)
	default:
		if errRefresh := settings.RefreshSnapshot(cCtx.Context, conn); errRefresh != nil {
			return errRefresh
		}
		fmt.Printf("Effective daily limit: %d.\n", settings.DailyLimit(cfg.DailyLimit))
	}
	return nil
}
