package main

import (
	"fmt"

	"github.com/cardroom/cardroom/poker"
)

// EvalCmd ranks a hand of five to seven cards given as card codes.
type EvalCmd struct {
	Cards string `arg:"" help:"Cards as codes, e.g. 'AsKsQsJsTs9h2c'"`
}

func (cmd *EvalCmd) Run() error {
	cards, err := poker.ParseCards(cmd.Cards)
	if err != nil {
		return err
	}
	if len(cards) < 5 || len(cards) > 7 {
		return fmt.Errorf("need five to seven cards, got %d", len(cards))
	}

	score := poker.Evaluate7(cards)
	fmt.Printf("%s\n", score)
	return nil
}
