package room

import (
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/celebiasallll/coffychess/pkg/gamedto"
)

const (
	walletWhite = "0xAB5801a7D398351b8bE11C439e05C5B3259aeC9B"
	walletBlack = "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"
)

type recorder struct {
	mu     sync.Mutex
	events map[string][]gamedto.Event
}

func newRecorder() *recorder {
	return &recorder{events: make(map[string][]gamedto.Event)}
}

func (rec *recorder) Send(subscriberID string, ev gamedto.Event) {
	rec.mu.Lock()
	rec.events[subscriberID] = append(rec.events[subscriberID], ev)
	rec.mu.Unlock()
}

func (rec *recorder) last(subscriberID, evType string) *gamedto.Event {
	rec.mu.Lock()
	defer rec.mu.Unlock()
	evs := rec.events[subscriberID]
	for i := len(evs) - 1; i >= 0; i-- {
		if evs[i].Type == evType {
			ev := evs[i]
			return &ev
		}
	}
	return nil
}

// wait polls for an event type to show up for a subscriber.
func (rec *recorder) wait(t *testing.T, subscriberID, evType string, timeout time.Duration) *gamedto.Event {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if ev := rec.last(subscriberID, evType); ev != nil {
			return ev
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("no %q event for %s within %v", evType, subscriberID, timeout)
	return nil
}

type stubSigner struct{}

func (stubSigner) SignWin(gameID uint64, winner string) (string, error) {
	return fmt.Sprintf("win:%d:%s", gameID, winner), nil
}

func (stubSigner) SignDraw(gameID uint64, white, black string) (string, string, error) {
	return fmt.Sprintf("draw:%d:%s", gameID, white), fmt.Sprintf("draw:%d:%s", gameID, black), nil
}

func testConfig() Config {
	return Config{
		TickInterval:    10 * time.Millisecond,
		DrawOfferTTL:    60 * time.Millisecond,
		ReconnectWindow: 60 * time.Millisecond,
		CleanupDelay:    time.Hour,
		VerdictMaxWait:  200 * time.Millisecond,
	}
}

func newTestRoom(t *testing.T, cfg Config, rec *recorder) *Room {
	t.Helper()
	r := New("room-t", 7, 100, time.Minute, walletWhite, "sub-w", stubSigner{}, rec, cfg, nil, nil)
	t.Cleanup(r.close)
	return r
}

func verifyBoth(r *Room) {
	r.MarkStakeVerified(walletWhite)
	r.MarkStakeVerified(walletBlack)
}

func TestJoin_StartsGame(t *testing.T) {
	rec := newRecorder()
	r := newTestRoom(t, testConfig(), rec)

	if !r.Open() {
		t.Fatalf("fresh room must be open")
	}
	if err := r.Join(walletWhite, "sub-x"); gamedto.CodeOf(err) != gamedto.CodeSelfPlay {
		t.Fatalf("self-play join: got %v", err)
	}
	if err := r.Join(walletBlack, "sub-b"); err != nil {
		t.Fatalf("Join: %v", err)
	}
	if err := r.Join("0x0000000000000000000000000000000000000001", "sub-c"); gamedto.CodeOf(err) != gamedto.CodeRoomFull {
		t.Fatalf("third join: got %v", err)
	}

	for _, sub := range []string{"sub-w", "sub-b"} {
		ev := rec.wait(t, sub, gamedto.EvStartGame, time.Second)
		p := ev.Data.(gamedto.StartGamePayload)
		if p.GameID != 7 || p.Meta.Stake != 100 {
			t.Fatalf("bad start payload for %s: %+v", sub, p)
		}
	}
	white, black := r.Wallets()
	if white != strings.ToLower(walletWhite) || black != strings.ToLower(walletBlack) {
		t.Fatalf("wallets not seated by color: %q %q", white, black)
	}
}

func TestApplyMove_TurnOrderAndVerdict(t *testing.T) {
	rec := newRecorder()
	r := newTestRoom(t, testConfig(), rec)
	verifyBoth(r)
	if err := r.Join(walletBlack, "sub-b"); err != nil {
		t.Fatalf("Join: %v", err)
	}

	if err := r.ApplyMove("0x0000000000000000000000000000000000000002", "e4"); gamedto.CodeOf(err) != gamedto.CodeNotParticipant {
		t.Fatalf("stranger move: got %v", err)
	}
	if err := r.ApplyMove(walletBlack, "e5"); gamedto.CodeOf(err) != gamedto.CodeNotYourTurn {
		t.Fatalf("out-of-turn move: got %v", err)
	}
	if err := r.ApplyMove(walletWhite, "e2e4e2e4e2e4"); gamedto.CodeOf(err) != gamedto.CodeInvalidMoveFormat {
		t.Fatalf("oversized move: got %v", err)
	}
	if err := r.ApplyMove(walletWhite, "e2e5"); gamedto.CodeOf(err) != gamedto.CodeIllegalMove {
		t.Fatalf("illegal move: got %v", err)
	}

	// Fool's mate, alternating notations.
	script := []struct{ wallet, move string }{
		{walletWhite, "f2f3"},
		{walletBlack, "e5"},
		{walletWhite, "g4"},
		{walletBlack, "d8h4"},
	}
	for _, s := range script {
		if err := r.ApplyMove(s.wallet, s.move); err != nil {
			t.Fatalf("move %q: %v", s.move, err)
		}
	}

	ev := rec.wait(t, "sub-w", gamedto.EvGameEnded, 2*time.Second)
	v := ev.Data.(gamedto.GameEndedPayload)
	if v.Winner != "black" || v.Reason != "checkmate" {
		t.Fatalf("verdict: %+v", v)
	}
	if v.Scores.White != 0 || v.Scores.Black != 1000 {
		t.Fatalf("scores: %+v", v.Scores)
	}
	if !strings.EqualFold(v.WinnerAddress, walletBlack) {
		t.Fatalf("winner address: %q", v.WinnerAddress)
	}
	if v.SignatureBlack == "" || v.SignatureWhite != "" {
		t.Fatalf("win signature must bind only the winner: %+v", v)
	}

	if err := r.ApplyMove(walletWhite, "a3"); gamedto.CodeOf(err) != gamedto.CodeGameOver {
		t.Fatalf("move after end: got %v", err)
	}
}

func TestResign(t *testing.T) {
	rec := newRecorder()
	r := newTestRoom(t, testConfig(), rec)
	verifyBoth(r)
	if err := r.Join(walletBlack, "sub-b"); err != nil {
		t.Fatalf("Join: %v", err)
	}
	if err := r.Resign(walletBlack); err != nil {
		t.Fatalf("Resign: %v", err)
	}
	ev := rec.wait(t, "sub-b", gamedto.EvGameEnded, 2*time.Second)
	v := ev.Data.(gamedto.GameEndedPayload)
	if v.Winner != "white" || v.Reason != "resignation" {
		t.Fatalf("verdict: %+v", v)
	}
	if v.SignatureWhite == "" {
		t.Fatalf("expected win signature for white")
	}
}

func TestResign_LoneCreatorCancels(t *testing.T) {
	rec := newRecorder()
	r := newTestRoom(t, testConfig(), rec)
	if err := r.Resign(walletWhite); err != nil {
		t.Fatalf("Resign: %v", err)
	}
	ev := rec.wait(t, "sub-w", gamedto.EvGameCancelled, time.Second)
	if ev.Data.(gamedto.GameCancelledPayload).Reason == "" {
		t.Fatalf("cancellation without reason")
	}
	if r.Live() {
		t.Fatalf("cancelled room still live")
	}
}

func TestDrawOffer_AcceptEndsInDraw(t *testing.T) {
	rec := newRecorder()
	r := newTestRoom(t, testConfig(), rec)
	verifyBoth(r)
	if err := r.Join(walletBlack, "sub-b"); err != nil {
		t.Fatalf("Join: %v", err)
	}

	r.OfferDraw(walletWhite)
	rec.wait(t, "sub-b", gamedto.EvDrawOffered, time.Second)

	// The offerer cannot accept their own offer.
	r.AcceptDraw(walletWhite)
	if !r.Live() {
		t.Fatalf("self-accept must be a no-op")
	}

	r.AcceptDraw(walletBlack)
	ev := rec.wait(t, "sub-w", gamedto.EvGameEnded, 2*time.Second)
	v := ev.Data.(gamedto.GameEndedPayload)
	if v.Winner != "draw" || v.Reason != "mutual agreement" {
		t.Fatalf("verdict: %+v", v)
	}
	if v.Scores.White != 500 || v.Scores.Black != 500 {
		t.Fatalf("scores: %+v", v.Scores)
	}
	if v.SignatureWhite == "" || v.SignatureBlack == "" {
		t.Fatalf("draw needs a signature per player: %+v", v)
	}
}

func TestDrawOffer_DeclineAndExpiry(t *testing.T) {
	rec := newRecorder()
	r := newTestRoom(t, testConfig(), rec)
	verifyBoth(r)
	if err := r.Join(walletBlack, "sub-b"); err != nil {
		t.Fatalf("Join: %v", err)
	}

	r.OfferDraw(walletWhite)
	r.DeclineDraw(walletBlack)
	rec.wait(t, "sub-w", gamedto.EvDrawDeclined, time.Second)
	if !r.Live() {
		t.Fatalf("declined draw must not end the game")
	}

	// A second offer left alone expires and reads as declined.
	r.OfferDraw(walletBlack)
	rec.wait(t, "sub-b", gamedto.EvDrawDeclined, time.Second)

	// After expiry a fresh offer is possible again.
	r.OfferDraw(walletBlack)
	rec.wait(t, "sub-w", gamedto.EvDrawOffered, time.Second)
}

func TestClock_TimeoutForfeit(t *testing.T) {
	rec := newRecorder()
	cfg := testConfig()
	r := New("room-t", 7, 100, 50*time.Millisecond, walletWhite, "sub-w", stubSigner{}, rec, cfg, nil, nil)
	t.Cleanup(r.close)
	verifyBoth(r)
	if err := r.Join(walletBlack, "sub-b"); err != nil {
		t.Fatalf("Join: %v", err)
	}

	// Clock must not run before the first move.
	time.Sleep(100 * time.Millisecond)
	if rec.last("sub-w", gamedto.EvGameEnded) != nil {
		t.Fatalf("clock ran before the first move")
	}

	if err := r.ApplyMove(walletWhite, "e4"); err != nil {
		t.Fatalf("move: %v", err)
	}
	// Black never moves; black's clock drains.
	ev := rec.wait(t, "sub-w", gamedto.EvGameEnded, 2*time.Second)
	v := ev.Data.(gamedto.GameEndedPayload)
	if v.Winner != "white" || v.Reason != "timeout" {
		t.Fatalf("verdict: %+v", v)
	}

	final := rec.last("sub-w", gamedto.EvTimerUpdate)
	if final == nil {
		t.Fatalf("no timer updates broadcast")
	}
	if timers := final.Data.(gamedto.Timers); timers.Black != 0 {
		t.Fatalf("expired clock must read zero, got %+v", timers)
	}
}

func TestDisconnect_ForfeitAfterWindow(t *testing.T) {
	rec := newRecorder()
	r := newTestRoom(t, testConfig(), rec)
	verifyBoth(r)
	if err := r.Join(walletBlack, "sub-b"); err != nil {
		t.Fatalf("Join: %v", err)
	}

	r.Disconnect("sub-b")
	rec.wait(t, "sub-w", gamedto.EvOpponentDisconnected, time.Second)

	ev := rec.wait(t, "sub-w", gamedto.EvGameEnded, 2*time.Second)
	v := ev.Data.(gamedto.GameEndedPayload)
	if v.Winner != "white" || v.Reason != "disconnect" {
		t.Fatalf("verdict: %+v", v)
	}
}

func TestDisconnect_ReconnectInsideWindow(t *testing.T) {
	rec := newRecorder()
	cfg := testConfig()
	cfg.ReconnectWindow = 500 * time.Millisecond
	r := newTestRoom(t, cfg, rec)
	verifyBoth(r)
	if err := r.Join(walletBlack, "sub-b"); err != nil {
		t.Fatalf("Join: %v", err)
	}
	if err := r.ApplyMove(walletWhite, "e4"); err != nil {
		t.Fatalf("move: %v", err)
	}
	if err := r.Chat(walletWhite, "good luck"); err != nil {
		t.Fatalf("chat: %v", err)
	}

	r.Disconnect("sub-b")
	snap, err := r.Reconnect(walletBlack, "sub-b2")
	if err != nil {
		t.Fatalf("Reconnect: %v", err)
	}
	if snap.Color != "black" || snap.Turn != "b" || snap.Ended {
		t.Fatalf("snapshot: %+v", snap)
	}
	if !strings.Contains(snap.PGN, "e4") || len(snap.ChatHistory) != 1 {
		t.Fatalf("snapshot missing history: %+v", snap)
	}
	rec.wait(t, "sub-w", gamedto.EvOpponentReconnected, time.Second)

	// The forfeit timer was disarmed.
	time.Sleep(600 * time.Millisecond)
	if !r.Live() {
		t.Fatalf("reconnected player was still forfeited")
	}

	// Moves route to the new subscriber handle.
	if err := r.ApplyMove(walletBlack, "e5"); err != nil {
		t.Fatalf("move after reconnect: %v", err)
	}
	rec.wait(t, "sub-b2", gamedto.EvMoveAccepted, time.Second)
}

func TestReconnect_AfterEndReturnsVerdict(t *testing.T) {
	rec := newRecorder()
	r := newTestRoom(t, testConfig(), rec)
	verifyBoth(r)
	if err := r.Join(walletBlack, "sub-b"); err != nil {
		t.Fatalf("Join: %v", err)
	}
	if err := r.Resign(walletBlack); err != nil {
		t.Fatalf("Resign: %v", err)
	}
	rec.wait(t, "sub-w", gamedto.EvGameEnded, 2*time.Second)

	snap, err := r.Reconnect(walletBlack, "sub-b2")
	if err != nil {
		t.Fatalf("Reconnect: %v", err)
	}
	if !snap.Ended || snap.Verdict == nil {
		t.Fatalf("post-game snapshot must carry the verdict: %+v", snap)
	}
	if snap.Verdict.SignatureWhite == "" {
		t.Fatalf("cached verdict lost its signature")
	}
}

func TestUnverifiedRoom_EndsUnsigned(t *testing.T) {
	rec := newRecorder()
	cfg := testConfig()
	cfg.VerdictMaxWait = 50 * time.Millisecond
	r := newTestRoom(t, cfg, rec)
	if err := r.Join(walletBlack, "sub-b"); err != nil {
		t.Fatalf("Join: %v", err)
	}
	if err := r.Resign(walletBlack); err != nil {
		t.Fatalf("Resign: %v", err)
	}

	ev := rec.wait(t, "sub-w", gamedto.EvGameEnded, 2*time.Second)
	v := ev.Data.(gamedto.GameEndedPayload)
	if v.SignatureWhite != "" || v.SignatureBlack != "" {
		t.Fatalf("unverified game must not carry signatures: %+v", v)
	}
}

func TestLateDenial_ShortCircuitsVerdictWait(t *testing.T) {
	rec := newRecorder()
	cfg := testConfig()
	cfg.VerdictMaxWait = 5 * time.Second
	r := newTestRoom(t, cfg, rec)
	if err := r.Join(walletBlack, "sub-b"); err != nil {
		t.Fatalf("Join: %v", err)
	}
	if err := r.Resign(walletBlack); err != nil {
		t.Fatalf("Resign: %v", err)
	}

	// The verification denial lands after the game already ended. The
	// unsigned gameEnded must go out immediately, not after VerdictMaxWait.
	r.Cancel(gamedto.CodeStakeVerificationFailed)
	ev := rec.wait(t, "sub-w", gamedto.EvGameEnded, time.Second)
	v := ev.Data.(gamedto.GameEndedPayload)
	if v.Winner != "white" {
		t.Fatalf("winner: %+v", v)
	}
	if v.SignatureWhite != "" || v.SignatureBlack != "" {
		t.Fatalf("denied game must not carry signatures: %+v", v)
	}
}

func TestCancel_StakeDenied(t *testing.T) {
	rec := newRecorder()
	r := newTestRoom(t, testConfig(), rec)
	if err := r.Join(walletBlack, "sub-b"); err != nil {
		t.Fatalf("Join: %v", err)
	}

	r.Cancel(gamedto.CodeStakeVerificationFailed)
	ev := rec.wait(t, "sub-b", gamedto.EvGameCancelled, time.Second)
	if ev.Data.(gamedto.GameCancelledPayload).Reason != gamedto.CodeStakeVerificationFailed {
		t.Fatalf("cancel reason: %+v", ev.Data)
	}
	if err := r.ApplyMove(walletWhite, "e4"); gamedto.CodeOf(err) != gamedto.CodeGameOver {
		t.Fatalf("move after cancel: got %v", err)
	}
}

func TestChat_SanitizedAndBounded(t *testing.T) {
	rec := newRecorder()
	r := newTestRoom(t, testConfig(), rec)
	verifyBoth(r)
	if err := r.Join(walletBlack, "sub-b"); err != nil {
		t.Fatalf("Join: %v", err)
	}

	if err := r.Chat(walletWhite, "<script>hi</script>"); err != nil {
		t.Fatalf("chat: %v", err)
	}
	ev := rec.wait(t, "sub-b", gamedto.EvChatMessage, time.Second)
	entry := ev.Data.(gamedto.ChatEntry)
	if strings.ContainsAny(entry.Message, "<>&") {
		t.Fatalf("markup not stripped: %q", entry.Message)
	}
	if entry.SenderShort == entry.Sender {
		t.Fatalf("sender not shortened: %q", entry.SenderShort)
	}

	// Whitespace-only messages are dropped silently.
	if err := r.Chat(walletBlack, "   "); err != nil {
		t.Fatalf("blank chat: %v", err)
	}
	rec.mu.Lock()
	var chats int
	for _, e := range rec.events["sub-w"] {
		if e.Type == gamedto.EvChatMessage {
			chats++
		}
	}
	rec.mu.Unlock()
	if chats != 1 {
		t.Fatalf("expected exactly one broadcast chat message, got %d", chats)
	}
}
