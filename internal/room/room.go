// Package room implements the match aggregate: two staked wallets, a board,
// clocks, the draw-offer protocol and the terminal verdict. All state
// transitions of one room are serialized under a single mutex; timers and
// the clock goroutine re-enter through the same lock.
package room

import (
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/celebiasallll/coffychess/internal/board"
	"github.com/celebiasallll/coffychess/internal/ethutil"
	"github.com/celebiasallll/coffychess/internal/obslog"
	"github.com/celebiasallll/coffychess/pkg/gamedto"
)

// Broadcaster delivers an event to one subscriber handle. Implementations
// must not block; the gateway backs this with per-client queues.
type Broadcaster interface {
	Send(subscriberID string, ev gamedto.Event)
}

// Signer produces escrow-compatible verdict signatures. May be nil, in
// which case games still end, just without claimable signatures.
type Signer interface {
	SignWin(gameID uint64, winner string) (string, error)
	SignDraw(gameID uint64, white, black string) (string, string, error)
}

// Config carries the room timers. Zero values fall back to production
// defaults; tests shrink them.
type Config struct {
	TickInterval    time.Duration
	DrawOfferTTL    time.Duration
	ReconnectWindow time.Duration
	CleanupDelay    time.Duration
	VerdictMaxWait  time.Duration
}

func (c Config) withDefaults() Config {
	if c.TickInterval <= 0 {
		c.TickInterval = time.Second
	}
	if c.DrawOfferTTL <= 0 {
		c.DrawOfferTTL = 30 * time.Second
	}
	if c.ReconnectWindow <= 0 {
		c.ReconnectWindow = 60 * time.Second
	}
	if c.CleanupDelay <= 0 {
		c.CleanupDelay = 30 * time.Second
	}
	if c.VerdictMaxWait <= 0 {
		c.VerdictMaxWait = 30 * time.Second
	}
	return c
}

type Player struct {
	Wallet       string // lower-case
	Color        string // "white" | "black"
	SubscriberID string
	Connected    bool
}

type Room struct {
	mu sync.Mutex

	id         string
	gameID     uint64
	stake      uint64
	timeBudget time.Duration

	players []*Player
	bd      *board.Board
	moves   []board.Move

	whiteLeft    time.Duration
	blackLeft    time.Duration
	clockStarted bool

	chat []gamedto.ChatEntry

	drawOfferer string
	drawTimer   *time.Timer

	verifiedWallets map[string]bool
	verified        bool
	verifiedCh      chan struct{}
	denied          bool
	deniedCh        chan struct{}

	started   bool
	ended     bool
	cancelled bool
	verdict   *gamedto.GameEndedPayload

	reconnectTimers map[string]*time.Timer

	signer  Signer
	bcast   Broadcaster
	cfg     Config
	onClose func(*Room)
	onFinal func(*Room, *gamedto.GameEndedPayload)

	tickStop  chan struct{}
	closeOnce sync.Once

	createdAt time.Time
}

// New creates a room with its creator seated as white. The clock does not
// run until the first move; the room is not started until a second player
// joins.
func New(id string, gameID, stake uint64, timeBudget time.Duration, creator, subscriberID string, signer Signer, bcast Broadcaster, cfg Config, onClose func(*Room), onFinal func(*Room, *gamedto.GameEndedPayload)) *Room {
	cfg = cfg.withDefaults()
	r := &Room{
		id:              id,
		gameID:          gameID,
		stake:           stake,
		timeBudget:      timeBudget,
		bd:              board.New(),
		whiteLeft:       timeBudget,
		blackLeft:       timeBudget,
		verifiedWallets: make(map[string]bool),
		verifiedCh:      make(chan struct{}),
		deniedCh:        make(chan struct{}),
		reconnectTimers: make(map[string]*time.Timer),
		signer:          signer,
		bcast:           bcast,
		cfg:             cfg,
		onClose:         onClose,
		onFinal:         onFinal,
		tickStop:        make(chan struct{}),
		createdAt:       time.Now(),
	}
	r.players = append(r.players, &Player{
		Wallet:       strings.ToLower(creator),
		Color:        "white",
		SubscriberID: subscriberID,
		Connected:    true,
	})
	return r
}

func (r *Room) ID() string     { return r.id }
func (r *Room) GameID() uint64 { return r.gameID }

// Join seats the second player as black, marks the game started and pushes
// startGame to both sides. The clock goroutine starts here but does not
// decrement until the first move lands.
func (r *Room) Join(wallet, subscriberID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.ended || r.cancelled {
		return gamedto.Err(gamedto.CodeRoomNotFound)
	}
	if len(r.players) >= 2 {
		return gamedto.Err(gamedto.CodeRoomFull)
	}
	if r.started {
		return gamedto.Err(gamedto.CodeAlreadyStarted)
	}
	w := strings.ToLower(wallet)
	if w == r.players[0].Wallet {
		return gamedto.Err(gamedto.CodeSelfPlay)
	}

	r.players = append(r.players, &Player{
		Wallet:       w,
		Color:        "black",
		SubscriberID: subscriberID,
		Connected:    true,
	})
	r.started = true

	for i, p := range r.players {
		r.bcast.Send(p.SubscriberID, gamedto.Event{
			Type: gamedto.EvStartGame,
			Data: gamedto.StartGamePayload{
				PlayerNumber: i + 1,
				Color:        p.Color,
				Opponent:     r.opponentLocked(p).Wallet,
				Timers:       r.timersLocked(),
				GameID:       r.gameID,
				Meta:         gamedto.RoomMeta{RoomID: r.id, Stake: r.stake},
				ChatHistory:  append([]gamedto.ChatEntry(nil), r.chat...),
			},
		})
	}

	obslog.L().Info("room_started",
		zap.String("room_id", r.id),
		zap.Uint64("game_id", r.gameID),
		zap.String("white", r.players[0].Wallet),
		zap.String("black", w),
	)
	go r.runClock()
	return nil
}

// ApplyMove validates and applies one move for the calling wallet.
func (r *Room) ApplyMove(wallet, move string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p := r.playerLocked(wallet)
	if p == nil {
		return gamedto.Err(gamedto.CodeNotParticipant)
	}
	if r.ended || r.cancelled {
		return gamedto.Err(gamedto.CodeGameOver)
	}
	if !r.started {
		return gamedto.Err(gamedto.CodeNotYourTurn)
	}
	if (r.bd.SideToMove() == "w") != (p.Color == "white") {
		return gamedto.Err(gamedto.CodeNotYourTurn)
	}

	mv, err := r.bd.TryApply(move)
	if err != nil {
		if err == board.ErrInvalidFormat {
			return gamedto.Err(gamedto.CodeInvalidMoveFormat)
		}
		return gamedto.Err(gamedto.CodeIllegalMove)
	}
	r.moves = append(r.moves, *mv)
	r.clockStarted = true

	playerNum := 1
	if p.Color == "black" {
		playerNum = 2
	}
	r.broadcastLocked(gamedto.Event{
		Type: gamedto.EvMoveAccepted,
		Data: gamedto.MoveAcceptedPayload{
			Move:      mv.SAN,
			UCI:       mv.UCI,
			FEN:       r.bd.FEN(),
			PGN:       r.bd.PGN(),
			Turn:      r.bd.SideToMove(),
			PlayerNum: playerNum,
		},
	})

	if winner, reason, over := r.bd.Terminal(); over {
		r.endLocked(winner, reason)
	}
	return nil
}

// OfferDraw records a pending offer with expiry. Invalid transitions are
// silent no-ops so clients cannot probe game state through the protocol.
func (r *Room) OfferDraw(wallet string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p := r.playerLocked(wallet)
	if p == nil || !r.started || r.ended || r.cancelled || r.drawOfferer != "" {
		return
	}
	r.drawOfferer = p.Wallet
	r.drawTimer = time.AfterFunc(r.cfg.DrawOfferTTL, func() { r.expireDrawOffer(p.Wallet) })

	if opp := r.opponentLocked(p); opp != nil && opp.Connected {
		r.bcast.Send(opp.SubscriberID, gamedto.Event{Type: gamedto.EvDrawOffered})
	}
	obslog.L().Info("draw_offered", zap.String("room_id", r.id), zap.String("wallet", p.Wallet))
}

// AcceptDraw ends the game by mutual agreement. Only the non-offering
// player may accept.
func (r *Room) AcceptDraw(wallet string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p := r.playerLocked(wallet)
	if p == nil || r.ended || r.cancelled || r.drawOfferer == "" || r.drawOfferer == p.Wallet {
		return
	}
	r.clearDrawOfferLocked()
	r.endLocked("draw", "mutual agreement")
}

// DeclineDraw clears a pending offer and notifies the offerer.
func (r *Room) DeclineDraw(wallet string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p := r.playerLocked(wallet)
	if p == nil || r.ended || r.cancelled || r.drawOfferer == "" || r.drawOfferer == p.Wallet {
		return
	}
	offerer := r.playerByWalletLocked(r.drawOfferer)
	r.clearDrawOfferLocked()
	if offerer != nil && offerer.Connected {
		r.bcast.Send(offerer.SubscriberID, gamedto.Event{Type: gamedto.EvDrawDeclined})
	}
}

func (r *Room) expireDrawOffer(offererWallet string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ended || r.cancelled || r.drawOfferer != offererWallet {
		return
	}
	r.drawOfferer = ""
	r.drawTimer = nil
	if p := r.playerByWalletLocked(offererWallet); p != nil && p.Connected {
		r.bcast.Send(p.SubscriberID, gamedto.Event{Type: gamedto.EvDrawDeclined})
	}
}

// Resign forfeits the game for the calling wallet.
func (r *Room) Resign(wallet string) error {
	r.mu.Lock()

	p := r.playerLocked(wallet)
	if p == nil {
		r.mu.Unlock()
		return gamedto.Err(gamedto.CodeNotParticipant)
	}
	if r.ended || r.cancelled {
		r.mu.Unlock()
		return gamedto.Err(gamedto.CodeGameOver)
	}
	if !r.started {
		// Lone creator abandoning the lobby tears the room down.
		r.mu.Unlock()
		r.Cancel("creator resigned")
		return nil
	}
	r.endLocked(opponentColor(p.Color), "resignation")
	r.mu.Unlock()
	return nil
}

// Chat sanitizes and appends a message to the bounded ring and fans it out.
func (r *Room) Chat(wallet, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p := r.playerLocked(wallet)
	if p == nil {
		return gamedto.Err(gamedto.CodeNotParticipant)
	}
	clean := sanitizeChat(text)
	if clean == "" {
		return nil
	}
	entry := gamedto.ChatEntry{
		Sender:      p.Wallet,
		SenderShort: ethutil.ShortAddress(p.Wallet),
		Message:     clean,
		Timestamp:   time.Now().UnixMilli(),
	}
	r.chat = append(r.chat, entry)
	if len(r.chat) > chatRingSize {
		r.chat = r.chat[len(r.chat)-chatRingSize:]
	}
	r.broadcastLocked(gamedto.Event{Type: gamedto.EvChatMessage, Data: entry})
	return nil
}

// Disconnect marks the player behind a transport handle as gone and arms
// the forfeit deadline.
func (r *Room) Disconnect(subscriberID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var p *Player
	for _, cand := range r.players {
		if cand.SubscriberID == subscriberID {
			p = cand
			break
		}
	}
	if p == nil || !p.Connected || r.ended || r.cancelled {
		return
	}
	p.Connected = false
	if opp := r.opponentLocked(p); opp != nil && opp.Connected {
		r.bcast.Send(opp.SubscriberID, gamedto.Event{
			Type: gamedto.EvOpponentDisconnected,
			Data: gamedto.NoticePayload{Message: "opponent disconnected, waiting for reconnect"},
		})
	}
	wallet := p.Wallet
	r.reconnectTimers[wallet] = time.AfterFunc(r.cfg.ReconnectWindow, func() { r.forfeit(wallet) })
	obslog.L().Info("player_disconnected", zap.String("room_id", r.id), zap.String("wallet", wallet))
}

// Reconnect rebinds a wallet to a fresh transport handle and returns the
// full state snapshot, including the cached verdict when the game already
// ended.
func (r *Room) Reconnect(wallet, newSubscriberID string) (*gamedto.RoomSnapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p := r.playerLocked(wallet)
	if p == nil {
		return nil, gamedto.Err(gamedto.CodeNotParticipant)
	}
	p.SubscriberID = newSubscriberID
	p.Connected = true
	if t, ok := r.reconnectTimers[p.Wallet]; ok {
		t.Stop()
		delete(r.reconnectTimers, p.Wallet)
	}
	if opp := r.opponentLocked(p); opp != nil && opp.Connected {
		r.bcast.Send(opp.SubscriberID, gamedto.Event{
			Type: gamedto.EvOpponentReconnected,
			Data: gamedto.NoticePayload{Message: "opponent reconnected"},
		})
	}
	obslog.L().Info("player_reconnected", zap.String("room_id", r.id), zap.String("wallet", p.Wallet))
	return r.snapshotLocked(p), nil
}

// forfeit fires when the reconnect window closes. Reconnects that took the
// lock first have already disarmed the timer or flipped Connected back.
func (r *Room) forfeit(wallet string) {
	r.mu.Lock()
	p := r.playerByWalletLocked(wallet)
	if p == nil || p.Connected || r.ended || r.cancelled {
		r.mu.Unlock()
		return
	}
	delete(r.reconnectTimers, wallet)
	if !r.started {
		r.mu.Unlock()
		r.Cancel("creator disconnected")
		return
	}
	r.endLocked(opponentColor(p.Color), "disconnect")
	r.mu.Unlock()
}

// MarkStakeVerified records one successful escrow check. The room is
// verified once both seated wallets pass.
func (r *Room) MarkStakeVerified(wallet string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.verified || r.cancelled {
		return
	}
	r.verifiedWallets[strings.ToLower(wallet)] = true
	if len(r.verifiedWallets) >= 2 {
		r.verified = true
		close(r.verifiedCh)
		obslog.L().Info("room_verified", zap.String("room_id", r.id), zap.Uint64("game_id", r.gameID))
	}
}

// Cancel tears the room down after a verification denial (or an abandoned
// lobby) and broadcasts gameCancelled.
func (r *Room) Cancel(reason string) {
	r.mu.Lock()
	if r.ended || r.cancelled {
		// A denial landing here cannot change the outcome, but finalize
		// may still be blocked waiting for verification to resolve.
		r.markDeniedLocked()
		r.mu.Unlock()
		return
	}
	r.markDeniedLocked()
	r.cancelled = true
	r.clockStarted = false
	r.clearDrawOfferLocked()
	r.stopReconnectTimersLocked()
	r.broadcastLocked(gamedto.Event{
		Type: gamedto.EvGameCancelled,
		Data: gamedto.GameCancelledPayload{Reason: reason},
	})
	r.mu.Unlock()

	obslog.L().Warn("room_cancelled", zap.String("room_id", r.id), zap.String("reason", reason))
	r.close()
}

// endLocked performs the terminal transition exactly once: latch ended,
// stop the clock, cache the verdict shell and hand off to finalize for
// signing and the gameEnded broadcast.
func (r *Room) endLocked(winner, reason string) {
	if r.ended {
		return
	}
	r.ended = true
	r.clockStarted = false
	r.clearDrawOfferLocked()
	r.stopReconnectTimersLocked()

	scores := gamedto.Scores{White: 500, Black: 500}
	winnerAddr := ""
	switch winner {
	case "white":
		scores = gamedto.Scores{White: 1000, Black: 0}
		winnerAddr = r.walletOfColorLocked("white")
	case "black":
		scores = gamedto.Scores{White: 0, Black: 1000}
		winnerAddr = r.walletOfColorLocked("black")
	}
	if winnerAddr != "" {
		if cs, err := ethutil.ChecksumAddress(winnerAddr); err == nil {
			winnerAddr = cs
		}
	}
	r.verdict = &gamedto.GameEndedPayload{
		Winner:        winner,
		Reason:        reason,
		PGN:           r.bd.PGN(),
		GameID:        r.gameID,
		WinnerAddress: winnerAddr,
		Scores:        scores,
	}
	obslog.L().Info("game_ended",
		zap.String("room_id", r.id),
		zap.Uint64("game_id", r.gameID),
		zap.String("winner", winner),
		zap.String("reason", reason),
	)
	go r.finalize()
}

// finalize waits for stake verification (bounded), signs the verdict and
// broadcasts gameEnded. Signatures are cached on the room so reconnecting
// clients retrieve bit-identical copies until garbage collection.
func (r *Room) finalize() {
	verified := r.waitVerified()

	r.mu.Lock()
	v := r.verdict
	white := r.walletOfColorLocked("white")
	black := r.walletOfColorLocked("black")
	r.mu.Unlock()

	if verified && r.signer != nil {
		var err error
		var sigWhite, sigBlack string
		if v.Winner == "draw" {
			sigWhite, sigBlack, err = r.signer.SignDraw(r.gameID, white, black)
		} else if v.WinnerAddress != "" {
			var sig string
			sig, err = r.signer.SignWin(r.gameID, v.WinnerAddress)
			if v.Winner == "white" {
				sigWhite = sig
			} else {
				sigBlack = sig
			}
		}
		if err != nil {
			obslog.L().Error("verdict_sign_failed", zap.String("room_id", r.id), zap.Error(err))
		} else {
			r.mu.Lock()
			r.verdict.SignatureWhite = sigWhite
			r.verdict.SignatureBlack = sigBlack
			r.mu.Unlock()
		}
	} else if !verified {
		obslog.L().Warn("verdict_unsigned",
			zap.String("room_id", r.id),
			zap.Uint64("game_id", r.gameID),
			zap.String("reason", "stake verification not confirmed"),
		)
	}

	r.mu.Lock()
	payload := *r.verdict
	r.broadcastLocked(gamedto.Event{Type: gamedto.EvGameEnded, Data: payload})
	r.mu.Unlock()

	if r.onFinal != nil {
		r.onFinal(r, &payload)
	}
	time.AfterFunc(r.cfg.CleanupDelay, r.close)
}

func (r *Room) waitVerified() bool {
	r.mu.Lock()
	verified, denied := r.verified, r.denied
	okCh, badCh := r.verifiedCh, r.deniedCh
	r.mu.Unlock()
	if verified {
		return true
	}
	if denied {
		return false
	}
	select {
	case <-okCh:
		return true
	case <-badCh:
		return false
	case <-time.After(r.cfg.VerdictMaxWait):
		return false
	}
}

// runClock ticks at 1 Hz, decrementing the side to move once the first
// move has been made. The tick that crosses zero ends the game and must
// not decrement further.
func (r *Room) runClock() {
	t := time.NewTicker(r.cfg.TickInterval)
	defer t.Stop()
	for {
		select {
		case <-r.tickStop:
			return
		case <-t.C:
		}

		r.mu.Lock()
		if r.ended || r.cancelled {
			r.mu.Unlock()
			return
		}
		if !r.clockStarted {
			r.mu.Unlock()
			continue
		}
		var expired string
		if r.bd.SideToMove() == "w" {
			r.whiteLeft -= r.cfg.TickInterval
			if r.whiteLeft <= 0 {
				r.whiteLeft = 0
				expired = "white"
			}
		} else {
			r.blackLeft -= r.cfg.TickInterval
			if r.blackLeft <= 0 {
				r.blackLeft = 0
				expired = "black"
			}
		}
		r.broadcastLocked(gamedto.Event{Type: gamedto.EvTimerUpdate, Data: r.timersLocked()})
		if expired != "" {
			r.endLocked(opponentColor(expired), "timeout")
			r.mu.Unlock()
			return
		}
		r.mu.Unlock()
	}
}

func (r *Room) close() {
	r.closeOnce.Do(func() {
		close(r.tickStop)
		r.mu.Lock()
		r.clearDrawOfferLocked()
		r.stopReconnectTimersLocked()
		r.mu.Unlock()
		if r.onClose != nil {
			r.onClose(r)
		}
	})
}

// --- Read-side accessors used by the coordinator and gateway ---

func (r *Room) Started() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.started
}

// Live reports whether the room still binds its players (not ended, not
// cancelled). The single-wallet rule keys off this.
func (r *Room) Live() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return !r.ended && !r.cancelled
}

// Open reports whether the room is joinable.
func (r *Room) Open() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return !r.started && !r.ended && !r.cancelled && len(r.players) < 2
}

func (r *Room) HasPlayer(wallet string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.playerLocked(wallet) != nil
}

func (r *Room) FEN() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.bd.FEN()
}

func (r *Room) Summary() gamedto.RoomSummary {
	r.mu.Lock()
	defer r.mu.Unlock()
	return gamedto.RoomSummary{
		RoomID:    r.id,
		GameID:    r.gameID,
		Stake:     r.stake,
		TimeLimit: int(r.timeBudget / time.Second),
		Creator:   r.players[0].Wallet,
		Players:   len(r.players),
		Started:   r.started,
	}
}

// Wallets returns the seated wallets by color; black is empty before the
// second player joins.
func (r *Room) Wallets() (white, black string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.walletOfColorLocked("white"), r.walletOfColorLocked("black")
}

// Verdict returns the cached terminal payload, or nil while the game runs.
func (r *Room) Verdict() *gamedto.GameEndedPayload {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.verdict == nil {
		return nil
	}
	v := *r.verdict
	return &v
}

// --- locked helpers ---

func (r *Room) playerLocked(wallet string) *Player {
	return r.playerByWalletLocked(strings.ToLower(strings.TrimSpace(wallet)))
}

func (r *Room) playerByWalletLocked(lower string) *Player {
	for _, p := range r.players {
		if p.Wallet == lower {
			return p
		}
	}
	return nil
}

func (r *Room) opponentLocked(p *Player) *Player {
	for _, cand := range r.players {
		if cand != p {
			return cand
		}
	}
	return nil
}

func (r *Room) walletOfColorLocked(color string) string {
	for _, p := range r.players {
		if p.Color == color {
			return p.Wallet
		}
	}
	return ""
}

func (r *Room) timersLocked() gamedto.Timers {
	return gamedto.Timers{
		White: int(r.whiteLeft / time.Second),
		Black: int(r.blackLeft / time.Second),
	}
}

func (r *Room) broadcastLocked(ev gamedto.Event) {
	for _, p := range r.players {
		if p.Connected {
			r.bcast.Send(p.SubscriberID, ev)
		}
	}
}

func (r *Room) snapshotLocked(p *Player) *gamedto.RoomSnapshot {
	snap := &gamedto.RoomSnapshot{
		RoomID:      r.id,
		GameID:      r.gameID,
		Color:       p.Color,
		FEN:         r.bd.FEN(),
		PGN:         r.bd.PGN(),
		Turn:        r.bd.SideToMove(),
		Timers:      r.timersLocked(),
		ChatHistory: append([]gamedto.ChatEntry(nil), r.chat...),
		Ended:       r.ended,
	}
	if opp := r.opponentLocked(p); opp != nil {
		snap.Opponent = opp.Wallet
	}
	if r.verdict != nil {
		v := *r.verdict
		snap.Verdict = &v
	}
	return snap
}

// markDeniedLocked latches verification as resolved-negative so finalize
// stops waiting. A no-op once the room verified.
func (r *Room) markDeniedLocked() {
	if r.denied || r.verified {
		return
	}
	r.denied = true
	close(r.deniedCh)
}

func (r *Room) clearDrawOfferLocked() {
	if r.drawTimer != nil {
		r.drawTimer.Stop()
		r.drawTimer = nil
	}
	r.drawOfferer = ""
}

func (r *Room) stopReconnectTimersLocked() {
	for w, t := range r.reconnectTimers {
		t.Stop()
		delete(r.reconnectTimers, w)
	}
}

func opponentColor(color string) string {
	if color == "white" {
		return "black"
	}
	return "white"
}
