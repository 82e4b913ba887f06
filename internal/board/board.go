// Package board wraps the chess rules library behind the small surface the
// room needs: move legality, canonical notation and terminal detection.
package board

import (
	"errors"
	"strings"

	nchess "github.com/corentings/chess/v2"
)

var (
	ErrInvalidFormat = errors.New("invalid move format")
	ErrIllegalMove   = errors.New("illegal move")
)

const maxMoveLen = 10

// Move is an accepted, canonicalized move.
type Move struct {
	SAN string
	UCI string
}

// Board owns one game position. It is not safe for concurrent use; each
// board is private to a single room.
type Board struct {
	game *nchess.Game
}

func New() *Board {
	return &Board{game: nchess.NewGame()}
}

// TryApply validates a move given in coordinate (e2e4) or algebraic (Nf3)
// notation and applies it. On success both canonical forms are returned.
func (b *Board) TryApply(move string) (*Move, error) {
	raw := strings.TrimSpace(move)
	if raw == "" || len(raw) > maxMoveLen {
		return nil, ErrInvalidFormat
	}

	pos := b.game.Position()
	uci := strings.ToLower(raw)

	var applied *Move
	if mv, err := (nchess.UCINotation{}).Decode(pos, uci); err == nil {
		if err := b.game.Move(mv, nil); err != nil {
			return nil, ErrIllegalMove
		}
		applied = &Move{
			SAN: nchess.AlgebraicNotation{}.Encode(pos, mv),
			UCI: uci,
		}
	} else {
		if err := b.game.PushNotationMove(raw, nchess.AlgebraicNotation{}, nil); err != nil {
			return nil, ErrIllegalMove
		}
		last := b.lastMove()
		if last == nil {
			return nil, ErrIllegalMove
		}
		applied = &Move{
			SAN: nchess.AlgebraicNotation{}.Encode(pos, last),
			UCI: last.String(),
		}
	}

	b.claimEligibleDraws()
	return applied, nil
}

func (b *Board) lastMove() *nchess.Move {
	moves := b.game.Moves()
	if len(moves) == 0 {
		return nil
	}
	return moves[len(moves)-1]
}

// claimEligibleDraws converts claimable draw conditions into an outcome.
// The coordinator plays the referee, so threefold repetition and the
// fifty-move rule end the game without a player claim.
func (b *Board) claimEligibleDraws() {
	if b.game.Outcome() != nchess.NoOutcome {
		return
	}
	for _, m := range b.game.EligibleDraws() {
		if m == nchess.ThreefoldRepetition || m == nchess.FiftyMoveRule {
			_ = b.game.Draw(m)
			return
		}
	}
}

// SideToMove returns "w" or "b".
func (b *Board) SideToMove() string {
	if b.game.Position().Turn() == nchess.White {
		return "w"
	}
	return "b"
}

func (b *Board) FEN() string { return b.game.FEN() }

// PGN returns the movetext of the game so far.
func (b *Board) PGN() string { return strings.TrimSpace(b.game.String()) }

// MoveCount returns the number of applied half-moves.
func (b *Board) MoveCount() int { return len(b.game.Moves()) }

// Position exposes the underlying position for rendering.
func (b *Board) Position() *nchess.Position { return b.game.Position() }

// Terminal reports whether the game has ended by rule, with the winning
// color ("white", "black" or "draw") and a stable reason string.
func (b *Board) Terminal() (winner, reason string, over bool) {
	switch b.game.Outcome() {
	case nchess.WhiteWon:
		winner = "white"
	case nchess.BlackWon:
		winner = "black"
	case nchess.Draw:
		winner = "draw"
	default:
		return "", "", false
	}
	return winner, methodReason(b.game.Method()), true
}

func methodReason(m nchess.Method) string {
	switch m {
	case nchess.Checkmate:
		return "checkmate"
	case nchess.Stalemate:
		return "stalemate"
	case nchess.ThreefoldRepetition, nchess.FivefoldRepetition:
		return "threefold repetition"
	case nchess.FiftyMoveRule, nchess.SeventyFiveMoveRule:
		return "fifty move rule"
	case nchess.InsufficientMaterial:
		return "insufficient material"
	default:
		return "draw"
	}
}
