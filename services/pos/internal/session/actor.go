package session

import (
	"time"

	"github.com/appetiteclub/appetite/pkg/enums/station"
	"github.com/appetiteclub/appetite/services/pos/internal/order"
	"github.com/appetiteclub/appetite/services/pos/internal/poserr"
	"github.com/appetiteclub/appetite/services/pos/internal/pricing"
	"github.com/appetiteclub/apt"
	"github.com/asynkron/protoactor-go/actor"
)

// draftActor owns the draft of one waiter session. Every message is handled
// to completion before the next one is taken from the mailbox.
type draftActor struct {
	id       string
	draft    *order.Draft
	rates    pricing.Rates
	stations station.Mapper
	idle     time.Duration
	onStop   func(id string, pid *actor.PID)
	logger   apt.Logger
}

func (a *draftActor) Receive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		if a.idle > 0 {
			ctx.SetReceiveTimeout(a.idle)
		}
		a.logger.Debug("session started", "session_id", a.id)

	case *actor.ReceiveTimeout:
		a.logger.Info("session idle, discarding draft", "session_id", a.id)
		ctx.Stop(ctx.Self())

	case *actor.Stopped:
		if a.onStop != nil {
			a.onStop(a.id, ctx.Self())
		}

	case *startDraft:
		d, err := order.NewDraft(a.id, msg.opts, a.rates, a.stations)
		if err != nil {
			ctx.Respond(&reply{err: err})
			return
		}
		a.draft = d
		ctx.Respond(&reply{draft: d.Clone()})

	case *snapshot:
		if a.draft == nil {
			ctx.Respond(&reply{err: a.noDraft("session.Draft")})
			return
		}
		ctx.Respond(&reply{draft: a.draft.Clone()})

	case *addItem:
		if a.draft == nil {
			ctx.Respond(&reply{err: a.noDraft("session.AddItem")})
			return
		}
		line, err := a.draft.AddItem(msg.item, msg.quantity, msg.selections, msg.notes)
		ctx.Respond(&reply{draft: a.draft.Clone(), line: line, err: err})

	case *removeItem:
		if a.draft == nil {
			ctx.Respond(&reply{err: a.noDraft("session.RemoveItem")})
			return
		}
		err := a.draft.RemoveItem(msg.lineID)
		ctx.Respond(&reply{draft: a.draft.Clone(), err: err})

	case *setQuantity:
		if a.draft == nil {
			ctx.Respond(&reply{err: a.noDraft("session.SetQuantity")})
			return
		}
		err := a.draft.SetQuantity(msg.lineID, msg.quantity)
		ctx.Respond(&reply{draft: a.draft.Clone(), err: err})

	case *setDiscount:
		if a.draft == nil {
			ctx.Respond(&reply{err: a.noDraft("session.SetDiscount")})
			return
		}
		err := a.draft.SetDiscount(msg.percent)
		ctx.Respond(&reply{draft: a.draft.Clone(), err: err})

	case *discard:
		a.draft = nil
		ctx.Respond(&reply{})

	case *submit:
		a.handleSubmit(ctx, msg)
	}
}

// handleSubmit hands a copy of the draft to fn. The session draft is only
// cleared once fn succeeds, so a failed submit leaves it as it was.
func (a *draftActor) handleSubmit(ctx actor.Context, msg *submit) {
	if a.draft == nil {
		ctx.Respond(&reply{err: a.noDraft("session.Submit")})
		return
	}

	saved := a.draft.Clone()
	o, err := msg.fn(msg.ctx, a.draft.Clone())
	if err != nil {
		a.draft = saved
		a.logger.Info("submit failed, draft kept", "session_id", a.id, "error", err)
		ctx.Respond(&reply{draft: saved.Clone(), err: err})
		return
	}

	a.draft = nil
	ctx.Respond(&reply{order: o})
}

func (a *draftActor) noDraft(op string) error {
	return poserr.NotFound(op, "draft for session", a.id)
}
