package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/groupwarden/groupwarden/internal/audit"
	"github.com/groupwarden/groupwarden/internal/bot"
	"github.com/groupwarden/groupwarden/internal/bus"
	"github.com/groupwarden/groupwarden/internal/commands"
	"github.com/groupwarden/groupwarden/internal/config"
	"github.com/groupwarden/groupwarden/internal/gateway"
	"github.com/groupwarden/groupwarden/internal/moderation"
	"github.com/groupwarden/groupwarden/internal/scheduler"
	"github.com/groupwarden/groupwarden/internal/settings"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the moderation bot",
	Run:   runBot,
}

func runBot(cmd *cobra.Command, args []string) {
	printHeader("GroupWarden")
	fmt.Println("Starting GroupWarden...")

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Config error: %v\n", err)
		os.Exit(1)
	}

	store, err := settings.Open(cfg.Paths.SettingsPath, cfg.SuperAdmin)
	if err != nil {
		fmt.Printf("Settings error: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	eventBus := bus.New()
	gw := gateway.NewWhatsApp(cfg.WhatsApp, eventBus)
	if err := gw.Start(ctx); err != nil {
		fmt.Printf("Gateway error: %v\n", err)
		os.Exit(1)
	}
	defer gw.Stop()

	auditPub := audit.NewPublisher(cfg.Audit)
	defer auditPub.Close()

	ledger := moderation.NewLedger(store)
	cooldowns := moderation.NewCooldowns(store)
	activity := moderation.NewActivity(store)
	pipeline := moderation.NewPipeline(store, ledger, cooldowns, gw, auditPub)
	dispatcher := commands.New(commands.Deps{
		Store:     store,
		Ledger:    ledger,
		Cooldowns: cooldowns,
		Activity:  activity,
		Gateway:   gw,
		Scheduler: scheduler.New(),
		Audit:     auditPub,
	})

	b := bot.New(eventBus, store, activity, pipeline, dispatcher, gw)

	done := make(chan error, 1)
	go func() { done <- b.Run(ctx) }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		fmt.Printf("\nReceived %v, shutting down...\n", sig)
		cancel()
		<-done
	case err := <-done:
		if err != nil {
			fmt.Printf("Moderation loop error: %v\n", err)
			os.Exit(1)
		}
	}
}
