package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/charmbracelet/log"

	"github.com/cardroom/cardroom/internal/coordinator"
	"github.com/cardroom/cardroom/internal/game"
	"github.com/cardroom/cardroom/internal/store"
)

// SimulateCmd plays hands locally over the in-memory store with scripted
// players. It exercises the whole coordination path without Redis.
type SimulateCmd struct {
	Hands      int      `default:"10" help:"Number of hands to play"`
	Players    []string `short:"p" help:"Players as name:stack pairs" default:"alice:200,bob:200,carol:200"`
	SmallBlind int      `default:"1" help:"Small blind"`
	BigBlind   int      `default:"2" help:"Big blind"`
	EntryFee   int      `default:"0" help:"Entry fee per hand"`
	Seed       int64    `default:"0" help:"RNG seed (0 for random)"`
	Verbose    bool     `short:"d" help:"Debug logging"`
}

func (cmd *SimulateCmd) Run() error {
	seed := cmd.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	level := log.WarnLevel
	if cmd.Verbose {
		level = log.DebugLevel
	}
	logger := log.NewWithOptions(os.Stderr, log.Options{Level: level})

	rules := game.Rules{
		SmallBlind:  cmd.SmallBlind,
		BigBlind:    cmd.BigBlind,
		EntryFee:    cmd.EntryFee,
		MinPlayers:  2,
		TurnTimeout: 30 * time.Second,
	}
	if err := rules.Validate(); err != nil {
		return err
	}

	ctx := context.Background()
	st := store.NewMemory(nil)

	sess, err := newSeatedSession("sim", cmd.Players)
	if err != nil {
		return err
	}
	if len(sess.Seats) < 2 {
		return fmt.Errorf("need at least two players")
	}
	if err := st.Create(ctx, sess); err != nil {
		return err
	}

	coord := coordinator.New(st, logger, coordinator.Options{
		Room:  "sim",
		Rules: rules,
		RNG:   rng,
	})
	client := coordinator.NewClient(st, logger, "sim", rules, nil, nil)

	fmt.Printf("simulating %d hands, seed %d\n\n", cmd.Hands, seed)

	for hand := 1; hand <= cmd.Hands; hand++ {
		coord.Tick(ctx) // starts the hand

		view, err := client.View(ctx)
		if err != nil {
			return err
		}
		if view.Stage == game.Ended {
			fmt.Println("table down to one funded player, stopping")
			break
		}
		if view.HandNum != hand {
			return fmt.Errorf("hand %d did not start (stage %s)", hand, view.Stage)
		}

		for steps := 0; view.Stage.Betting() && steps < 200; steps++ {
			if view.CurrentTurn != game.NoTurn {
				req := scriptedRequest(view, rng, rules.BigBlind)
				if err := client.Act(ctx, req); err != nil {
					return fmt.Errorf("hand %d seat %d %s: %w", hand, req.Seat, req.Kind, err)
				}
			} else {
				coord.Tick(ctx) // all-in runout
			}
			if view, err = client.View(ctx); err != nil {
				return err
			}
		}

		fmt.Printf("hand %d: board=%v winners=%v\n", hand, view.Board, view.Winners)
		for _, seat := range view.Seats {
			fmt.Printf("  seat %d %-8s stack=%d\n", seat.Index, seat.PlayerID, seat.Stack)
		}
		fmt.Println()
	}
	return nil
}

// scriptedRequest picks a plausible action for the acting seat: mostly
// passive, occasionally aggressive, folding a share of the time it faces a
// bet.
func scriptedRequest(sess *game.Session, rng *rand.Rand, bigBlind int) game.Request {
	seat := sess.CurrentTurn
	if sess.CanCheck(seat) {
		if rng.Intn(4) == 0 {
			if sess.MaxStreetBet() == 0 {
				return game.Request{Seat: seat, Kind: game.ReqBet, Amount: bigBlind}
			}
			return game.Request{Seat: seat, Kind: game.ReqRaise, Amount: bigBlind}
		}
		return game.Request{Seat: seat, Kind: game.ReqCheck}
	}
	switch rng.Intn(6) {
	case 0:
		return game.Request{Seat: seat, Kind: game.ReqFold}
	case 1:
		return game.Request{Seat: seat, Kind: game.ReqRaise, Amount: bigBlind}
	default:
		return game.Request{Seat: seat, Kind: game.ReqCall}
	}
}

// newSeatedSession builds a lobby session with the given name:stack players
// seated in order.
func newSeatedSession(room string, players []string) (*game.Session, error) {
	sess := game.NewSession(room)
	names, stacks, err := parsePlayers(players)
	if err != nil {
		return nil, err
	}
	for i, name := range names {
		if _, err := sess.Sit(i, name, stacks[i]); err != nil {
			return nil, err
		}
	}
	return sess, nil
}
