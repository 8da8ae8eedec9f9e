package server

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/youthloop/carboncity/internal/game"
)

// Request types accepted over the websocket.
const (
	typeStartSession  = "start_session"
	typePerformAction = "perform_action"
	typeGetSession    = "get_session"
	typeEndSession    = "end_session"
	typeReloadRules   = "reload_rules"
	typeReloadCatalog = "reload_catalog"
)

type request struct {
	Type      string       `json:"type"`
	RequestID string       `json:"requestId,omitempty"`
	UserID    string       `json:"userId,omitempty"`
	SessionID string       `json:"sessionId,omitempty"`
	Action    *game.Action `json:"action,omitempty"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type sessionView struct {
	SessionID    string       `json:"sessionId"`
	OwnerID      string       `json:"ownerId,omitempty"`
	Score        int64        `json:"totalScore"`
	Level        int          `json:"newLevel"`
	Status       string       `json:"status"`
	State        *game.State  `json:"state"`
	SessionEnded bool         `json:"sessionEnded"`
	Ending       *game.Ending `json:"ending,omitempty"`
}

type response struct {
	Type         string       `json:"type"`
	RequestID    string       `json:"requestId,omitempty"`
	Success      bool         `json:"success"`
	Error        *errorBody   `json:"error,omitempty"`
	Session      *sessionView `json:"session,omitempty"`
	PointsEarned int          `json:"pointsEarned,omitempty"`
	Message      string       `json:"message,omitempty"`
}

func (s *Server) handle(ctx context.Context, req *request) *response {
	resp := &response{Type: req.Type, RequestID: req.RequestID}

	ownerID, err := parseOwner(req.UserID)
	if err != nil {
		return fail(resp, &game.Error{Code: game.CodeInvalidAction, Message: "invalid userId"})
	}

	switch req.Type {
	case typeStartSession:
		session, err := s.game.Start(ctx, ownerID)
		if err != nil {
			return s.failErr(resp, err)
		}
		resp.Session = viewOf(session)

	case typePerformAction:
		sessionID, action, ferr := parseActionRequest(req)
		if ferr != nil {
			return fail(resp, ferr)
		}
		result, err := s.game.PerformAction(ctx, ownerID, sessionID, *action)
		if err != nil {
			return s.failErr(resp, err)
		}
		resp.Session = viewOf(result.Session)
		resp.PointsEarned = result.PointsEarned
		resp.Message = result.Message

	case typeGetSession:
		sessionID, ferr := parseSessionID(req.SessionID)
		if ferr != nil {
			return fail(resp, ferr)
		}
		session, err := s.game.GetSessionByID(ctx, ownerID, sessionID)
		if err != nil {
			return s.failErr(resp, err)
		}
		resp.Session = viewOf(session)

	case typeEndSession:
		sessionID, ferr := parseSessionID(req.SessionID)
		if ferr != nil {
			return fail(resp, ferr)
		}
		session, err := s.game.EndSession(ctx, ownerID, sessionID)
		if err != nil {
			return s.failErr(resp, err)
		}
		resp.Session = viewOf(session)

	case typeReloadRules:
		reloadCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		if err := s.rules.Reload(reloadCtx); err != nil {
			return s.failErr(resp, err)
		}
		resp.Message = "rule configuration reloaded"

	case typeReloadCatalog:
		reloadCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		if err := s.catalog.Reload(reloadCtx); err != nil {
			return s.failErr(resp, err)
		}
		resp.Message = "card catalog reloaded"

	default:
		return fail(resp, &game.Error{Code: game.CodeInvalidAction, Message: "unknown request type " + req.Type})
	}

	resp.Success = true
	return resp
}

func (s *Server) failErr(resp *response, err error) *response {
	var gameErr *game.Error
	if errors.As(err, &gameErr) {
		return fail(resp, gameErr)
	}
	s.logger.Error("request failed", zap.String("type", resp.Type), zap.Error(err))
	return fail(resp, &game.Error{Code: "INTERNAL", Message: "internal error"})
}

func fail(resp *response, err *game.Error) *response {
	resp.Success = false
	resp.Error = &errorBody{Code: string(err.Code), Message: err.Message}
	return resp
}

func parseOwner(userID string) (*uuid.UUID, error) {
	if userID == "" {
		return nil, nil
	}
	id, err := uuid.Parse(userID)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func parseSessionID(raw string) (uuid.UUID, *game.Error) {
	if raw == "" {
		return uuid.Nil, &game.Error{Code: game.CodeInvalidAction, Message: "sessionId is required"}
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, &game.Error{Code: game.CodeInvalidAction, Message: "invalid sessionId"}
	}
	return id, nil
}

func parseActionRequest(req *request) (uuid.UUID, *game.Action, *game.Error) {
	sessionID, ferr := parseSessionID(req.SessionID)
	if ferr != nil {
		return uuid.Nil, nil, ferr
	}
	if req.Action == nil {
		return uuid.Nil, nil, &game.Error{Code: game.CodeInvalidAction, Message: "action is required"}
	}
	return sessionID, req.Action, nil
}

// viewOf shapes a session for the wire. The service hands out detached
// snapshots, so the view can be marshaled after the session lock is released.
func viewOf(session *game.Session) *sessionView {
	view := &sessionView{
		SessionID:    session.ID.String(),
		Score:        session.Score,
		Level:        session.Level,
		Status:       string(session.Status),
		State:        session.State,
		SessionEnded: session.State.SessionEnded,
		Ending:       session.State.Ending,
	}
	if session.OwnerID != nil {
		view.OwnerID = session.OwnerID.String()
	}
	return view
}
