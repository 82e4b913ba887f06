// Package coordinator owns the global registries: live rooms and
// wallet→session bindings. It routes create/join/reconnect/list requests
// and runs the optimistic-admission verification tasks.
package coordinator

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/celebiasallll/coffychess/internal/ethutil"
	"github.com/celebiasallll/coffychess/internal/obslog"
	"github.com/celebiasallll/coffychess/internal/room"
	"github.com/celebiasallll/coffychess/pkg/gamedto"
)

// ReconnectChallenge is the constant message a player signs to prove
// wallet ownership when resuming a session. Signature-based, not
// wallet-string-based: knowing an address in play must not be enough to
// hijack its seat.
const ReconnectChallenge = "Reconnecting to CoffeeChess"

// StakeVerifier is the escrow admission gate. Verify returns nil when the
// wallet's stake checks out on-chain.
type StakeVerifier interface {
	Verify(ctx context.Context, gameID uint64, wallet string) error
}

// Archiver persists finished games. Optional.
type Archiver interface {
	SaveResult(ctx context.Context, rec *GameRecord) error
}

// GameRecord is the archive row for one finished game.
type GameRecord struct {
	RoomID         string
	GameID         uint64
	WhiteWallet    string
	BlackWallet    string
	Stake          uint64
	Winner         string
	Reason         string
	PGN            string
	SignatureWhite string
	SignatureBlack string
	EndedAt        time.Time
}

type session struct {
	wallet       string // lower-case
	roomID       string
	subscriberID string
}

type Coordinator struct {
	mu       sync.RWMutex
	rooms    map[string]*room.Room
	sessions map[string]*session // wallet → binding
	bySub    map[string]string   // subscriberID → wallet
	seq      uint64

	verifier StakeVerifier // nil → admission without on-chain checks
	signer   room.Signer
	archiver Archiver
	bcast    room.Broadcaster

	roomCfg           room.Config
	defaultTimeBudget time.Duration

	ctx context.Context
}

func New(ctx context.Context, verifier StakeVerifier, signer room.Signer, archiver Archiver, bcast room.Broadcaster, roomCfg room.Config, defaultTimeBudget time.Duration) *Coordinator {
	if defaultTimeBudget <= 0 {
		defaultTimeBudget = 300 * time.Second
	}
	return &Coordinator{
		rooms:             make(map[string]*room.Room),
		sessions:          make(map[string]*session),
		bySub:             make(map[string]string),
		verifier:          verifier,
		signer:            signer,
		archiver:          archiver,
		bcast:             bcast,
		roomCfg:           roomCfg,
		defaultTimeBudget: defaultTimeBudget,
		ctx:               ctx,
	}
}

// CreateRoom admits the creator optimistically and kicks off background
// stake verification. The creator plays white.
func (c *Coordinator) CreateRoom(req gamedto.CreateRoomRequest, subscriberID string) (*room.Room, error) {
	wallet, err := ethutil.NormalizeAddress(req.WalletAddress)
	if err != nil {
		return nil, gamedto.Err(gamedto.CodeInvalidRequest)
	}

	budget := c.defaultTimeBudget
	if req.TimeLimit > 0 {
		budget = time.Duration(req.TimeLimit) * time.Minute
	}

	c.mu.Lock()
	if c.liveRoomOfLocked(wallet) != nil {
		c.mu.Unlock()
		return nil, gamedto.Err(gamedto.CodeAlreadyInGame)
	}
	c.seq++
	id := fmt.Sprintf("room-%d", c.seq)
	r := room.New(id, req.GameID, req.Stake, budget, wallet, subscriberID,
		c.signer, c.bcast, c.roomCfg, c.removeRoom, c.archiveResult)
	c.rooms[id] = r
	c.bindLocked(wallet, id, subscriberID)
	c.mu.Unlock()

	obslog.L().Info("room_created",
		zap.String("room_id", id),
		zap.Uint64("game_id", req.GameID),
		zap.String("wallet", wallet),
		zap.Uint64("stake", req.Stake),
	)
	c.verifyAsync(r, wallet)
	return r, nil
}

// JoinRoom seats the second player, by room id or by on-chain game id.
func (c *Coordinator) JoinRoom(req gamedto.JoinRoomRequest, subscriberID string) (*room.Room, error) {
	wallet, err := ethutil.NormalizeAddress(req.WalletAddress)
	if err != nil {
		return nil, gamedto.Err(gamedto.CodeInvalidRequest)
	}

	c.mu.Lock()
	if c.liveRoomOfLocked(wallet) != nil {
		c.mu.Unlock()
		return nil, gamedto.Err(gamedto.CodeAlreadyInGame)
	}
	var r *room.Room
	if req.RoomID != "" {
		r = c.rooms[req.RoomID]
	} else {
		r = c.openRoomByGameIDLocked(req.GameID)
	}
	if r == nil {
		c.mu.Unlock()
		return nil, gamedto.Err(gamedto.CodeRoomNotFound)
	}
	// Bind before seating so a concurrent join by the same wallet trips
	// the single-wallet check above; rolled back if the seat is refused.
	c.bindLocked(wallet, r.ID(), subscriberID)
	c.mu.Unlock()

	// Room performs its own admission checks (full/started/self-play)
	// under its serialization lock.
	if err := r.Join(wallet, subscriberID); err != nil {
		c.mu.Lock()
		c.unbindLocked(wallet, subscriberID)
		c.mu.Unlock()
		return nil, err
	}

	c.verifyAsync(r, wallet)
	return r, nil
}

// Reconnect authenticates the wallet with a signature over the constant
// challenge and rebinds the session to a fresh subscriber handle.
func (c *Coordinator) Reconnect(req gamedto.ReconnectRequest, newSubscriberID string) (*gamedto.RoomSnapshot, error) {
	wallet, err := ethutil.NormalizeAddress(req.WalletAddress)
	if err != nil {
		return nil, gamedto.Err(gamedto.CodeInvalidRequest)
	}

	c.mu.RLock()
	s := c.sessions[wallet]
	var r *room.Room
	if s != nil {
		r = c.rooms[s.roomID]
	}
	c.mu.RUnlock()

	if s == nil {
		return nil, gamedto.Err(gamedto.CodeNoActiveSession)
	}
	if r == nil {
		return nil, gamedto.Err(gamedto.CodeRoomNoLongerExists)
	}

	sig, err := ethutil.SigFromHex(req.Signature)
	if err != nil {
		return nil, gamedto.Err(gamedto.CodeInvalidSignature)
	}
	digest := ethutil.PersonalHash([]byte(ReconnectChallenge))
	recovered, err := ethutil.RecoverAddress(digest, sig)
	if err != nil {
		return nil, gamedto.Err(gamedto.CodeInvalidSignature)
	}
	if !strings.EqualFold(recovered, wallet) {
		obslog.L().Warn("reconnect_signature_mismatch",
			zap.String("claimed", wallet),
			zap.String("recovered", recovered),
		)
		return nil, gamedto.Err(gamedto.CodeSignatureMismatch)
	}

	snap, err := r.Reconnect(wallet, newSubscriberID)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	if old := c.sessions[wallet]; old != nil {
		delete(c.bySub, old.subscriberID)
	}
	c.bindLocked(wallet, r.ID(), newSubscriberID)
	c.mu.Unlock()
	return snap, nil
}

// Disconnect routes a dropped transport handle to its room, if any.
func (c *Coordinator) Disconnect(subscriberID string) {
	c.mu.RLock()
	wallet := c.bySub[subscriberID]
	var r *room.Room
	if s := c.sessions[wallet]; s != nil && s.subscriberID == subscriberID {
		r = c.rooms[s.roomID]
	}
	c.mu.RUnlock()
	if r != nil {
		r.Disconnect(subscriberID)
	}
}

// RoomBySubscriber resolves the caller's room for in-game messages.
func (c *Coordinator) RoomBySubscriber(subscriberID string) (*room.Room, string) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	wallet := c.bySub[subscriberID]
	if wallet == "" {
		return nil, ""
	}
	s := c.sessions[wallet]
	if s == nil || s.subscriberID != subscriberID {
		return nil, ""
	}
	return c.rooms[s.roomID], wallet
}

// FindRoomByGameID returns the one open room bound to the on-chain id.
func (c *Coordinator) FindRoomByGameID(gameID uint64) *room.Room {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.openRoomByGameIDLocked(gameID)
}

func (c *Coordinator) Room(id string) *room.Room {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.rooms[id]
}

// ListOpenRooms returns joinable rooms for the lobby.
func (c *Coordinator) ListOpenRooms() []gamedto.RoomSummary {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]gamedto.RoomSummary, 0, len(c.rooms))
	for _, r := range c.rooms {
		if r.Open() {
			out = append(out, r.Summary())
		}
	}
	return out
}

// Counts reports live room and session totals for the health endpoint.
func (c *Coordinator) Counts() (rooms, sessions int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.rooms), len(c.sessions)
}

// verifyAsync runs the escrow admission gate in the background. Denial
// tears the room down with a gameCancelled broadcast; success marks the
// wallet's stake verified on the room.
func (c *Coordinator) verifyAsync(r *room.Room, wallet string) {
	if c.verifier == nil {
		// Development mode: no escrow configured, admit unconditionally.
		r.MarkStakeVerified(wallet)
		return
	}
	go func() {
		if err := c.verifier.Verify(c.ctx, r.GameID(), wallet); err != nil {
			obslog.L().Warn("stake_verification_failed",
				zap.String("room_id", r.ID()),
				zap.String("wallet", wallet),
				zap.Error(err),
			)
			r.Cancel(gamedto.CodeStakeVerificationFailed)
			return
		}
		r.MarkStakeVerified(wallet)
	}()
}

// removeRoom is the room's onClose hook: drop the registry entry and any
// session still bound to it.
func (c *Coordinator) removeRoom(r *room.Room) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.rooms, r.ID())
	for wallet, s := range c.sessions {
		if s.roomID == r.ID() {
			delete(c.bySub, s.subscriberID)
			delete(c.sessions, wallet)
		}
	}
	obslog.L().Info("room_removed", zap.String("room_id", r.ID()))
}

func (c *Coordinator) archiveResult(r *room.Room, v *gamedto.GameEndedPayload) {
	if c.archiver == nil {
		return
	}
	sum := r.Summary()
	rec := &GameRecord{
		RoomID:         sum.RoomID,
		GameID:         sum.GameID,
		Stake:          sum.Stake,
		Winner:         v.Winner,
		Reason:         v.Reason,
		PGN:            v.PGN,
		SignatureWhite: v.SignatureWhite,
		SignatureBlack: v.SignatureBlack,
		EndedAt:        time.Now(),
	}
	rec.WhiteWallet, rec.BlackWallet = r.Wallets()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.archiver.SaveResult(ctx, rec); err != nil {
		obslog.L().Error("archive_save_failed", zap.String("room_id", sum.RoomID), zap.Error(err))
	}
}

// --- locked helpers ---

func (c *Coordinator) bindLocked(wallet, roomID, subscriberID string) {
	c.sessions[wallet] = &session{wallet: wallet, roomID: roomID, subscriberID: subscriberID}
	c.bySub[subscriberID] = wallet
}

// unbindLocked drops a binding only if it is still the one we created;
// a reconnect may have rebound the wallet in the meantime.
func (c *Coordinator) unbindLocked(wallet, subscriberID string) {
	if s := c.sessions[wallet]; s != nil && s.subscriberID == subscriberID {
		delete(c.sessions, wallet)
	}
	delete(c.bySub, subscriberID)
}

func (c *Coordinator) liveRoomOfLocked(wallet string) *room.Room {
	s := c.sessions[wallet]
	if s == nil {
		return nil
	}
	r := c.rooms[s.roomID]
	if r == nil || !r.Live() {
		return nil
	}
	return r
}

func (c *Coordinator) openRoomByGameIDLocked(gameID uint64) *room.Room {
	for _, r := range c.rooms {
		if r.GameID() == gameID && r.Open() {
			return r
		}
	}
	return nil
}
