package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/cardroom/cardroom/internal/audit"
	"github.com/cardroom/cardroom/internal/config"
	"github.com/cardroom/cardroom/internal/coordinator"
	"github.com/cardroom/cardroom/internal/store"
)

// InitCmd creates the session record and seats the initial players. Seat
// assignment is normally the lobby's job; this command stands in for it.
type InitCmd struct {
	Config  string   `short:"c" default:"cardroom.hcl" help:"Path to HCL configuration file"`
	Players []string `short:"p" help:"Initial players as name:stack pairs" default:"alice:200,bob:200"`
}

func (cmd *InitCmd) Run() error {
	cfg, err := config.Load(cmd.Config)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx := context.Background()
	st := store.NewRedis(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	defer st.Close()
	if err := st.Ping(ctx); err != nil {
		return fmt.Errorf("connecting to record store: %w", err)
	}

	sess, err := newSeatedSession(cfg.Room.Name, cmd.Players)
	if err != nil {
		return err
	}
	if err := st.Create(ctx, sess); err != nil {
		return err
	}
	fmt.Printf("room %s created with %d seats\n", cfg.Room.Name, len(sess.Seats))
	return nil
}

// RunCmd joins a room as a coordinating client: it polls the shared
// session, takes the leader lease when free and drives hands forward.
type RunCmd struct {
	Config   string `short:"c" default:"cardroom.hcl" help:"Path to HCL configuration file"`
	ClientID string `help:"Stable client identity (defaults to a fresh ULID)"`
	Debug    bool   `short:"d" help:"Debug logging"`
	AuditLog string `default:"" help:"File for the JSON audit stream (defaults to stderr)"`
}

func (cmd *RunCmd) Run() error {
	cfg, err := config.Load(cmd.Config)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	level := log.InfoLevel
	if cmd.Debug {
		level = log.DebugLevel
	}
	logger := log.NewWithOptions(os.Stderr, log.Options{Level: level})

	auditWriter := os.Stderr
	if cmd.AuditLog != "" {
		f, err := os.OpenFile(cmd.AuditLog, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("opening audit log: %w", err)
		}
		defer f.Close()
		auditWriter = f
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	st := store.NewRedis(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	defer st.Close()
	if err := st.Ping(ctx); err != nil {
		return fmt.Errorf("connecting to record store: %w", err)
	}

	coord := coordinator.New(st, logger, coordinator.Options{
		Room:         cfg.Room.Name,
		ClientID:     cmd.ClientID,
		Rules:        cfg.Rules(),
		PollInterval: cfg.PollInterval(),
		LeaseTTL:     cfg.LeaseTTL(),
		Audit:        audit.New(auditWriter),
	})

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return coord.Run(ctx)
	})
	group.Go(func() error {
		// View refresh only: log committed changes as they land. The poll
		// loop stays authoritative whether or not notifications arrive.
		updates, err := st.Watch(ctx, cfg.Room.Name)
		if err != nil {
			return err
		}
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-updates:
				sess, _, err := st.Load(ctx, cfg.Room.Name)
				if err != nil {
					logger.Warn("refresh failed", "error", err)
					continue
				}
				logger.Info("session updated",
					"stage", sess.Stage, "hand", sess.HandNum,
					"pot", sess.Pot, "turn", sess.CurrentTurn)
			}
		}
	})

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// LogCmd prints a room's append-only action log, oldest first.
type LogCmd struct {
	Config string `short:"c" default:"cardroom.hcl" help:"Path to HCL configuration file"`
}

func (cmd *LogCmd) Run() error {
	cfg, err := config.Load(cmd.Config)
	if err != nil {
		return err
	}

	ctx := context.Background()
	st := store.NewRedis(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	defer st.Close()

	records, err := st.Actions(ctx, cfg.Room.Name)
	if err != nil {
		return err
	}
	for _, rec := range records {
		fmt.Printf("%s hand=%d seat=%d %s %d\n",
			rec.At.Format("15:04:05.000"), rec.Hand, rec.Seat, rec.Kind, rec.Amount)
	}
	return nil
}

func parsePlayers(specs []string) ([]string, []int, error) {
	var names []string
	var stacks []int
	for _, spec := range specs {
		for _, part := range strings.Split(spec, ",") {
			name, stackStr, ok := strings.Cut(strings.TrimSpace(part), ":")
			if !ok {
				return nil, nil, fmt.Errorf("invalid player spec %q, want name:stack", part)
			}
			var stack int
			if _, err := fmt.Sscanf(stackStr, "%d", &stack); err != nil || stack <= 0 {
				return nil, nil, fmt.Errorf("invalid stack in player spec %q", part)
			}
			names = append(names, name)
			stacks = append(stacks, stack)
		}
	}
	return names, stacks, nil
}
