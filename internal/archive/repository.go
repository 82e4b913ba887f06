// Package archive persists finished games to Postgres. The coordinator
// works without it; signing failures or a missing DATABASE_URL never block
// gameplay.
package archive

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"github.com/celebiasallll/coffychess/internal/coordinator"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(databaseURL string) (*Repository, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(16)
	db.SetMaxIdleConns(8)
	db.SetConnMaxLifetime(30 * time.Minute)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}
	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

// SaveResult upserts one finished game keyed by room id.
func (r *Repository) SaveResult(ctx context.Context, rec *coordinator.GameRecord) error {
	if r == nil || r.db == nil || rec == nil {
		return nil
	}

	q := `INSERT INTO games (
	    room_id, game_id, white_wallet, black_wallet, stake,
	    result, result_reason, pgn_result, pgn,
	    signature_white, signature_black, ended_at
	  ) VALUES (
	    $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12
	  ) ON CONFLICT (room_id) DO UPDATE SET
	    result=EXCLUDED.result,
	    result_reason=EXCLUDED.result_reason,
	    pgn_result=EXCLUDED.pgn_result,
	    pgn=EXCLUDED.pgn,
	    signature_white=EXCLUDED.signature_white,
	    signature_black=EXCLUDED.signature_black,
	    ended_at=EXCLUDED.ended_at`

	_, err := r.db.ExecContext(ctx, q,
		rec.RoomID,
		rec.GameID,
		rec.WhiteWallet,
		rec.BlackWallet,
		rec.Stake,
		rec.Winner,
		rec.Reason,
		mapResultToPGN(rec.Winner),
		rec.PGN,
		rec.SignatureWhite,
		rec.SignatureBlack,
		rec.EndedAt,
	)
	return err
}

func mapResultToPGN(winner string) string {
	switch strings.ToLower(strings.TrimSpace(winner)) {
	case "white":
		return "1-0"
	case "black":
		return "0-1"
	case "draw":
		return "1/2-1/2"
	default:
		return "*"
	}
}
