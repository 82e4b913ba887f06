package gamedto

// Event is the server → client frame. Data holds one of the payload structs
// below depending on Type.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// Event type names.
const (
	EvStartGame            = "startGame"
	EvMoveAccepted         = "moveAccepted"
	EvMoveRejected         = "moveRejected"
	EvTimerUpdate          = "timerUpdate"
	EvDrawOffered          = "drawOffered"
	EvDrawDeclined         = "drawDeclined"
	EvChatMessage          = "chatMessage"
	EvOpponentDisconnected = "opponentDisconnected"
	EvOpponentReconnected  = "opponentReconnected"
	EvGameCancelled        = "gameCancelled"
	EvGameEnded            = "gameEnded"
	EvError                = "error"

	EvRoomCreated  = "roomCreated"
	EvRoomList     = "roomList"
	EvRoomFound    = "roomFound"
	EvRoomInfo     = "roomInfo"
	EvReconnected  = "reconnected"
	EvUsernameInfo = "usernameInfo"
	EvUsernameSet  = "usernameSet"
	EvPong         = "pong"
)

type Timers struct {
	White int `json:"white"` // seconds remaining
	Black int `json:"black"`
}

type StartGamePayload struct {
	PlayerNumber int         `json:"playerNumber"`
	Color        string      `json:"color"`
	Opponent     string      `json:"opponent"`
	Timers       Timers      `json:"timers"`
	GameID       uint64      `json:"gameId"`
	Meta         RoomMeta    `json:"meta"`
	ChatHistory  []ChatEntry `json:"chatHistory"`
}

type RoomMeta struct {
	RoomID string `json:"roomId"`
	Stake  uint64 `json:"stake"`
}

type MoveAcceptedPayload struct {
	Move      string `json:"move"` // canonical SAN
	UCI       string `json:"uci"`
	FEN       string `json:"fen"`
	PGN       string `json:"pgn"`
	Turn      string `json:"turn"` // "w" | "b"
	PlayerNum int    `json:"playerNum"`
}

type MoveRejectedPayload struct {
	Reason string `json:"reason"`
}

type ChatEntry struct {
	Sender      string `json:"sender"`      // full wallet
	SenderShort string `json:"senderShort"` // 0xabcd…ef12
	Message     string `json:"message"`
	Timestamp   int64  `json:"timestamp"` // unix ms
}

type NoticePayload struct {
	Message string `json:"message"`
}

type GameCancelledPayload struct {
	Reason string `json:"reason"`
}

type Scores struct {
	White int `json:"white"`
	Black int `json:"black"`
}

type GameEndedPayload struct {
	Winner         string `json:"winner"` // "white" | "black" | "draw"
	Reason         string `json:"reason"`
	PGN            string `json:"pgn"`
	GameID         uint64 `json:"gameId"`
	WinnerAddress  string `json:"winnerAddress,omitempty"`
	Scores         Scores `json:"scores"`
	SignatureWhite string `json:"signatureWhite,omitempty"`
	SignatureBlack string `json:"signatureBlack,omitempty"`
}

type ErrorPayload struct {
	Request string `json:"request,omitempty"`
	Message string `json:"message"`
}

type RoomCreatedPayload struct {
	RoomID string `json:"roomId"`
	Color  string `json:"color"`
}

// RoomSummary is the open-room listing entry.
type RoomSummary struct {
	RoomID    string `json:"roomId"`
	GameID    uint64 `json:"gameId"`
	Stake     uint64 `json:"stake"`
	TimeLimit int    `json:"timeLimit"` // seconds per player
	Creator   string `json:"creator"`
	Players   int    `json:"players"`
	Started   bool   `json:"started"`
}

// RoomSnapshot is the full state a reconnecting client needs to resume.
type RoomSnapshot struct {
	RoomID      string            `json:"roomId"`
	GameID      uint64            `json:"gameId"`
	Color       string            `json:"color"`
	Opponent    string            `json:"opponent"`
	FEN         string            `json:"fen"`
	PGN         string            `json:"pgn"`
	Turn        string            `json:"turn"`
	Timers      Timers            `json:"timers"`
	ChatHistory []ChatEntry       `json:"chatHistory"`
	Ended       bool              `json:"ended"`
	Verdict     *GameEndedPayload `json:"verdict,omitempty"`
}

type UsernameInfoPayload struct {
	WalletAddress string `json:"walletAddress"`
	Username      string `json:"username,omitempty"`
	Registered    bool   `json:"registered"`
}
