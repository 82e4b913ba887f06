package board

import (
	"errors"
	"strings"
	"testing"
)

func TestTryApply_UCI_SAN_Mixed(t *testing.T) {
	b := New()

	// UCI by white
	mv, err := b.TryApply("e2e4")
	if err != nil {
		t.Fatalf("TryApply UCI: %v", err)
	}
	if mv.SAN != "e4" || mv.UCI != "e2e4" {
		t.Fatalf("unexpected canonical forms: san=%q uci=%q", mv.SAN, mv.UCI)
	}

	// SAN by black
	mv2, err := b.TryApply("Nc6")
	if err != nil {
		t.Fatalf("TryApply SAN: %v", err)
	}
	if mv2.UCI != "b8c6" {
		t.Fatalf("SAN move not canonicalized to uci: %q", mv2.UCI)
	}

	if b.MoveCount() != 2 {
		t.Fatalf("expected 2 half-moves, got %d", b.MoveCount())
	}
	if b.SideToMove() != "w" {
		t.Fatalf("expected white to move, got %q", b.SideToMove())
	}
}

func TestTryApply_Rejections(t *testing.T) {
	b := New()

	if _, err := b.TryApply(""); !errors.Is(err, ErrInvalidFormat) {
		t.Fatalf("empty move: got %v", err)
	}
	if _, err := b.TryApply("e2e4e5e6e7e8"); !errors.Is(err, ErrInvalidFormat) {
		t.Fatalf("oversized move: got %v", err)
	}
	if _, err := b.TryApply("e2e5"); !errors.Is(err, ErrIllegalMove) {
		t.Fatalf("illegal uci: got %v", err)
	}
	if _, err := b.TryApply("Qh5"); !errors.Is(err, ErrIllegalMove) {
		t.Fatalf("illegal san: got %v", err)
	}
	if b.MoveCount() != 0 {
		t.Fatalf("rejected moves must not mutate the game, count=%d", b.MoveCount())
	}
}

func TestTerminal_FoolsMate(t *testing.T) {
	b := New()
	for _, m := range []string{"f3", "e5", "g4", "Qh4#"} {
		if _, err := b.TryApply(m); err != nil {
			t.Fatalf("move %q: %v", m, err)
		}
	}
	winner, reason, over := b.Terminal()
	if !over {
		t.Fatalf("expected game over")
	}
	if winner != "black" || reason != "checkmate" {
		t.Fatalf("unexpected verdict: winner=%q reason=%q", winner, reason)
	}
	if !strings.Contains(b.PGN(), "Qh4#") {
		t.Fatalf("pgn missing mating move: %q", b.PGN())
	}
	if _, err := b.TryApply("a3"); !errors.Is(err, ErrIllegalMove) {
		t.Fatalf("move after mate should be illegal, got %v", err)
	}
}

func TestTerminal_Stalemate(t *testing.T) {
	b := New()
	// Fastest known stalemate (Sam Loyd, 10 half-moves).
	moves := []string{"e3", "a5", "Qh5", "Ra6", "Qxa5", "h5", "h4", "Rah6", "Qxc7", "f6", "Qxd7+", "Kf7", "Qxb7", "Qd3", "Qxb8", "Qh7", "Qxc8", "Kg6", "Qe6"}
	for _, m := range moves {
		if _, err := b.TryApply(m); err != nil {
			t.Fatalf("move %q: %v", m, err)
		}
	}
	winner, reason, over := b.Terminal()
	if !over || winner != "draw" || reason != "stalemate" {
		t.Fatalf("expected stalemate draw, got winner=%q reason=%q over=%v", winner, reason, over)
	}
}
