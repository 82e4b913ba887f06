package gateway

import (
	"context"
	"encoding/json"
	"errors"

	"go.uber.org/zap"

	"github.com/celebiasallll/coffychess/internal/ethutil"
	"github.com/celebiasallll/coffychess/internal/obslog"
	"github.com/celebiasallll/coffychess/internal/ratelimit"
	"github.com/celebiasallll/coffychess/internal/username"
	"github.com/celebiasallll/coffychess/pkg/gamedto"
)

// envelope is the client → server frame.
type envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Request type names. These match the web client's message catalog.
const (
	reqCreateRoom  = "createRoom"
	reqJoinRoom    = "joinRoom"
	reqMakeMove    = "makeMove"
	reqOfferDraw   = "offerDraw"
	reqAcceptDraw  = "acceptDraw"
	reqDeclineDraw = "declineDraw"
	reqResign      = "resign"
	reqChatMessage = "chatMessage"
	reqReconnect   = "reconnect"
	reqListRooms   = "listRooms"
	reqFindRoom    = "findRoomByGameId"
	reqGetRoomInfo = "getRoomInfo"
	reqCheckHandle = "checkUsername"
	reqSetHandle   = "setUsername"
	reqPing        = "ping"
)

func bucketFor(reqType string) string {
	switch reqType {
	case reqMakeMove:
		return ratelimit.BucketMove
	case reqChatMessage:
		return ratelimit.BucketChat
	case reqCheckHandle, reqSetHandle:
		return ratelimit.BucketUsername
	default:
		return ratelimit.BucketGeneral
	}
}

func (s *Server) dispatch(ctx context.Context, c *Client, env envelope) {
	if env.Type == reqPing {
		s.hub.Send(c.ID, gamedto.Event{Type: gamedto.EvPong})
		return
	}

	// Limit per wallet once the subscriber is seated, per connection before.
	subject := c.ID
	if _, wallet := s.coord.RoomBySubscriber(c.ID); wallet != "" {
		subject = wallet
	}
	if !s.limiter.Allow(ctx, subject, bucketFor(env.Type)) {
		s.sendErr(c, env.Type, gamedto.CodeTooManyRequests)
		return
	}

	switch env.Type {
	case reqCreateRoom:
		s.onCreateRoom(c, env.Data)
	case reqJoinRoom:
		s.onJoinRoom(c, env.Data)
	case reqMakeMove:
		s.onMakeMove(c, env.Data)
	case reqOfferDraw:
		s.onDrawAction(c, env.Type)
	case reqAcceptDraw:
		s.onDrawAction(c, env.Type)
	case reqDeclineDraw:
		s.onDrawAction(c, env.Type)
	case reqResign:
		s.onResign(c)
	case reqChatMessage:
		s.onChat(c, env.Data)
	case reqReconnect:
		s.onReconnect(c, env.Data)
	case reqListRooms:
		s.onListRooms(c)
	case reqFindRoom:
		s.onFindRoom(c, env.Data)
	case reqGetRoomInfo:
		s.onRoomInfo(c, env.Data)
	case reqCheckHandle:
		s.onCheckUsername(c, env.Data)
	case reqSetHandle:
		s.onSetUsername(c, env.Data)
	default:
		obslog.L().Debug("unknown_request", zap.String("type", env.Type))
		s.sendErr(c, env.Type, gamedto.CodeInvalidRequest)
	}
}

func (s *Server) onCreateRoom(c *Client, raw json.RawMessage) {
	var req gamedto.CreateRoomRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		s.sendErr(c, reqCreateRoom, gamedto.CodeInvalidRequest)
		return
	}
	r, err := s.coord.CreateRoom(req, c.ID)
	if err != nil {
		s.sendErr(c, reqCreateRoom, gamedto.CodeOf(err))
		return
	}
	s.hub.Send(c.ID, gamedto.Event{
		Type: gamedto.EvRoomCreated,
		Data: gamedto.RoomCreatedPayload{RoomID: r.ID(), Color: "white"},
	})
}

func (s *Server) onJoinRoom(c *Client, raw json.RawMessage) {
	var req gamedto.JoinRoomRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		s.sendErr(c, reqJoinRoom, gamedto.CodeInvalidRequest)
		return
	}
	// The room broadcasts startGame to both seats on success.
	if _, err := s.coord.JoinRoom(req, c.ID); err != nil {
		s.sendErr(c, reqJoinRoom, gamedto.CodeOf(err))
	}
}

func (s *Server) onMakeMove(c *Client, raw json.RawMessage) {
	var req gamedto.MakeMoveRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		s.sendErr(c, reqMakeMove, gamedto.CodeInvalidRequest)
		return
	}
	r, wallet := s.coord.RoomBySubscriber(c.ID)
	if r == nil {
		s.sendErr(c, reqMakeMove, gamedto.CodeNoActiveSession)
		return
	}
	if err := r.ApplyMove(wallet, req.Move); err != nil {
		s.hub.Send(c.ID, gamedto.Event{
			Type: gamedto.EvMoveRejected,
			Data: gamedto.MoveRejectedPayload{Reason: gamedto.CodeOf(err)},
		})
	}
}

func (s *Server) onDrawAction(c *Client, reqType string) {
	r, wallet := s.coord.RoomBySubscriber(c.ID)
	if r == nil {
		s.sendErr(c, reqType, gamedto.CodeNoActiveSession)
		return
	}
	switch reqType {
	case reqOfferDraw:
		r.OfferDraw(wallet)
	case reqAcceptDraw:
		r.AcceptDraw(wallet)
	case reqDeclineDraw:
		r.DeclineDraw(wallet)
	}
}

func (s *Server) onResign(c *Client) {
	r, wallet := s.coord.RoomBySubscriber(c.ID)
	if r == nil {
		s.sendErr(c, reqResign, gamedto.CodeNoActiveSession)
		return
	}
	if err := r.Resign(wallet); err != nil {
		s.sendErr(c, reqResign, gamedto.CodeOf(err))
	}
}

func (s *Server) onChat(c *Client, raw json.RawMessage) {
	var req gamedto.ChatRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		s.sendErr(c, reqChatMessage, gamedto.CodeInvalidRequest)
		return
	}
	r, wallet := s.coord.RoomBySubscriber(c.ID)
	if r == nil {
		s.sendErr(c, reqChatMessage, gamedto.CodeNoActiveSession)
		return
	}
	if err := r.Chat(wallet, req.Message); err != nil {
		s.sendErr(c, reqChatMessage, gamedto.CodeOf(err))
	}
}

func (s *Server) onReconnect(c *Client, raw json.RawMessage) {
	var req gamedto.ReconnectRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		s.sendErr(c, reqReconnect, gamedto.CodeInvalidRequest)
		return
	}
	snap, err := s.coord.Reconnect(req, c.ID)
	if err != nil {
		s.sendErr(c, reqReconnect, gamedto.CodeOf(err))
		return
	}
	s.hub.Send(c.ID, gamedto.Event{Type: gamedto.EvReconnected, Data: snap})
}

func (s *Server) onListRooms(c *Client) {
	s.hub.Send(c.ID, gamedto.Event{
		Type: gamedto.EvRoomList,
		Data: map[string]any{"rooms": s.coord.ListOpenRooms()},
	})
}

func (s *Server) onFindRoom(c *Client, raw json.RawMessage) {
	var req gamedto.FindRoomRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		s.sendErr(c, reqFindRoom, gamedto.CodeInvalidRequest)
		return
	}
	r := s.coord.FindRoomByGameID(req.GameID)
	if r == nil {
		s.sendErr(c, reqFindRoom, gamedto.CodeRoomNotFound)
		return
	}
	s.hub.Send(c.ID, gamedto.Event{Type: gamedto.EvRoomFound, Data: r.Summary()})
}

func (s *Server) onRoomInfo(c *Client, raw json.RawMessage) {
	var req gamedto.RoomInfoRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		s.sendErr(c, reqGetRoomInfo, gamedto.CodeInvalidRequest)
		return
	}
	r := s.coord.Room(req.RoomID)
	if r == nil {
		s.sendErr(c, reqGetRoomInfo, gamedto.CodeRoomNotFound)
		return
	}
	s.hub.Send(c.ID, gamedto.Event{Type: gamedto.EvRoomInfo, Data: r.Summary()})
}

func (s *Server) onCheckUsername(c *Client, raw json.RawMessage) {
	var req gamedto.CheckUsernameRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		s.sendErr(c, reqCheckHandle, gamedto.CodeInvalidRequest)
		return
	}
	wallet, err := ethutil.NormalizeAddress(req.WalletAddress)
	if err != nil {
		s.sendErr(c, reqCheckHandle, gamedto.CodeInvalidRequest)
		return
	}
	handle, ok := s.users.Get(wallet)
	s.hub.Send(c.ID, gamedto.Event{
		Type: gamedto.EvUsernameInfo,
		Data: gamedto.UsernameInfoPayload{WalletAddress: wallet, Username: handle, Registered: ok},
	})
}

func (s *Server) onSetUsername(c *Client, raw json.RawMessage) {
	var req gamedto.SetUsernameRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		s.sendErr(c, reqSetHandle, gamedto.CodeInvalidRequest)
		return
	}
	wallet, err := ethutil.NormalizeAddress(req.WalletAddress)
	if err != nil {
		s.sendErr(c, reqSetHandle, gamedto.CodeInvalidRequest)
		return
	}
	if err := s.users.Set(wallet, req.Username); err != nil {
		s.sendErr(c, reqSetHandle, usernameCode(err))
		return
	}
	s.hub.Send(c.ID, gamedto.Event{
		Type: gamedto.EvUsernameSet,
		Data: gamedto.UsernameInfoPayload{WalletAddress: wallet, Username: req.Username, Registered: true},
	})
}

func usernameCode(err error) string {
	switch {
	case errors.Is(err, username.ErrAlreadyRegistered):
		return gamedto.CodeAlreadyRegistered
	case errors.Is(err, username.ErrInvalidFormat):
		return gamedto.CodeInvalidFormat
	case errors.Is(err, username.ErrTaken):
		return gamedto.CodeTaken
	default:
		return gamedto.CodeInvalidRequest
	}
}

func (s *Server) sendErr(c *Client, reqType, code string) {
	s.hub.Send(c.ID, gamedto.Event{
		Type: gamedto.EvError,
		Data: gamedto.ErrorPayload{Request: reqType, Message: code},
	})
}
