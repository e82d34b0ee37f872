package main

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/dvloznov/nett/internal/apiclient"
	"github.com/dvloznov/nett/internal/appstate"
	"github.com/dvloznov/nett/internal/config"
	"github.com/dvloznov/nett/internal/logger"
	"github.com/dvloznov/nett/internal/notify"
	"github.com/dvloznov/nett/internal/table"
	"github.com/rs/zerolog"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	log := logger.New()
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	log = logger.NewWithLevel(cfg.LogLevel)

	var run func(*session, []string) error
	switch os.Args[1] {
	case "transactions":
		run = runTransactions
	case "rename":
		run = runRename
	case "recategorize":
		run = runRecategorize
	case "subcategorize":
		run = runSubcategorize
	case "delete":
		run = runDelete
	case "export":
		run = runExport
	case "budgets":
		run = runBudgets
	case "categories":
		run = runCategories
	case "onboarding":
		run = runOnboarding
	case "help", "-h", "--help":
		printUsage()
		return
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}

	s, err := newSession(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to start")
	}
	defer s.sink.Close()

	if err := run(s, os.Args[2:]); err != nil {
		s.fail(err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("nett CLI")
	fmt.Println("\nUsage:")
	fmt.Println("  cli <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  transactions   List transactions with search, filters, sort and paging")
	fmt.Println("  rename         Rename a transaction")
	fmt.Println("  recategorize   Move a transaction to another category")
	fmt.Println("  subcategorize  Change a transaction's subcategory")
	fmt.Println("  delete         Delete one or more transactions")
	fmt.Println("  export         Export the filtered transactions as CSV")
	fmt.Println("  budgets        Show budgets and their periods")
	fmt.Println("  categories     List, add, rename or delete categories and subcategories")
	fmt.Println("  onboarding     Run or reset the setup wizard")
	fmt.Println("  help           Show this help message")
	fmt.Println("\nRun 'cli <command> -h' for more information on a command.")
}

// session is what every command shares: the API client, the notification
// sinks and the UI state store.
type session struct {
	cfg    *config.Config
	log    zerolog.Logger
	client *apiclient.Client
	alert  *notify.Alert
	sink   notify.Sink
	state  *appstate.Store
}

func newSession(cfg *config.Config, log zerolog.Logger) (*session, error) {
	client, err := apiclient.New(cfg.APIURL)
	if err != nil {
		return nil, fmt.Errorf("newSession: %w", err)
	}

	alert := notify.NewAlert()
	sinks := notify.Multi{alert, notify.NewLogSink(log)}
	remote, err := remoteSinks(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("newSession: %w", err)
	}
	sinks = append(sinks, remote...)

	state := appstate.NewStore()
	state.Subscribe(func(st appstate.State) {
		if st.Error.Message != "" {
			log.Debug().Str("error_type", st.Error.Type).Str("error_message", st.Error.Message).Msg("UI error state updated")
		}
	})

	return &session{
		cfg:    cfg,
		log:    log,
		client: client,
		alert:  alert,
		sink:   sinks,
		state:  state,
	}, nil
}

// remoteSinks builds the chat sinks that are configured. Chat channels only
// hear about failures.
func remoteSinks(cfg *config.Config, log zerolog.Logger) ([]notify.Sink, error) {
	var sinks []notify.Sink
	if cfg.DiscordEnabled() {
		d, err := notify.NewDiscordSink(cfg.DiscordBotToken, cfg.DiscordChannelID, log)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, notify.Threshold{Min: notify.SeverityError, Sink: d})
	}
	if cfg.TelegramEnabled() {
		t, err := notify.NewTelegramSink(cfg.TelegramToken, cfg.TelegramChatID, log)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, notify.Threshold{Min: notify.SeverityError, Sink: t})
	}
	return sinks, nil
}

// commandContext returns a context carrying the session logger.
func (s *session) commandContext(timeout time.Duration) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	return logger.WithContext(ctx, s.log), cancel
}

// openTable loads categories and transactions into a new table engine.
func (s *session) openTable(ctx context.Context, opts table.Options) (*table.Engine, error) {
	if opts.SearchDebounce == 0 {
		opts.SearchDebounce = s.cfg.SearchDebounce
	}
	engine, err := table.New(ctx, s.client, s.sink, opts)
	if err != nil {
		return nil, fmt.Errorf("openTable: %w", err)
	}
	if err := engine.LoadCategories(ctx); err != nil {
		engine.Close()
		return nil, fmt.Errorf("openTable: %w", err)
	}
	txns, err := s.client.ListTransactions(ctx)
	if err != nil {
		engine.Close()
		return nil, fmt.Errorf("openTable: %w", err)
	}
	engine.SetTransactions(txns)
	return engine, nil
}

// fail records err in the UI state and prints the message the user should see.
func (s *session) fail(err error) {
	msg := userMessage(err)
	if open, alertMsg, severity := s.alert.State(); open && severity == notify.SeverityError {
		msg = alertMsg
	}
	s.state.Dispatch(appstate.SetState{Patch: appstate.Patch{
		Error: &appstate.Error{Message: msg, Type: "CLI_ERROR"},
	}})
	s.log.Debug().Err(err).Msg("Command failed")
	fmt.Fprintln(os.Stderr, msg)
}

// userMessage turns err into the line shown to the user. Failures talking to
// the API get the server's display message or a generic network message.
func userMessage(err error) string {
	var apiErr *apiclient.APIError
	var urlErr *url.Error
	if errors.As(err, &apiErr) || errors.As(err, &urlErr) {
		return apiclient.DisplayMessage(err)
	}
	return "Error: " + err.Error()
}

// report prints the alert left by the last table operation.
func (s *session) report() {
	if open, msg, _ := s.alert.State(); open {
		fmt.Println(msg)
	}
}
