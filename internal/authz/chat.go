package authz

import (
	"context"
	"errors"

	"github.com/clubforge/clubforge/internal/directory"
)

// decideChat validates chat access: participants only.
func (e *Engine) decideChat(ctx context.Context, p Principal, ref ResourceRef, action Action) (Decision, error) {
	chat, err := e.dir.GetChat(ctx, ref.ID)
	if err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			return Deny(ReasonResourceNotFound), nil
		}
		return Decision{}, storeErr("load chat", err)
	}

	switch action {
	case ActionViewChat, ActionSendMessage:
		if chat.HasParticipant(p.ID) {
			return Allow(), nil
		}
		return Deny(ReasonNotChatParticipant), nil
	}

	return Deny(ReasonUnauthorized), nil
}
