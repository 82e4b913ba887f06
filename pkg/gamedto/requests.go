package gamedto

// Client → server request payloads. Field names match the web client's
// message catalog and must stay camelCase.

type CreateRoomRequest struct {
	GameID        uint64 `json:"gameId"`
	Stake         uint64 `json:"stake"`
	WalletAddress string `json:"walletAddress"`
	TimeLimit     int    `json:"timeLimit"` // minutes per player; 0 → server default
}

type JoinRoomRequest struct {
	RoomID        string `json:"roomId"`
	GameID        uint64 `json:"gameId"`
	WalletAddress string `json:"walletAddress"`
}

type MakeMoveRequest struct {
	Move string `json:"move"` // coordinate (e2e4) or SAN (Nf3)
}

type ChatRequest struct {
	Message string `json:"message"`
}

type ReconnectRequest struct {
	WalletAddress string `json:"walletAddress"`
	Signature     string `json:"signature"` // personal_sign of the reconnect challenge
}

type FindRoomRequest struct {
	GameID uint64 `json:"gameId"`
}

type RoomInfoRequest struct {
	RoomID string `json:"roomId"`
}

type CheckUsernameRequest struct {
	WalletAddress string `json:"walletAddress"`
}

type SetUsernameRequest struct {
	WalletAddress string `json:"walletAddress"`
	Username      string `json:"username"`
}
