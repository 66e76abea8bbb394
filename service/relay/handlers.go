package relay

import (
	"relaygate/logger"
)

// joinHandler registers the session under the supplied user ID. The ID
// is trusted as-is; authentication happens upstream of the relay.
type joinHandler struct{}

func (joinHandler) Event() string { return EventJoin }

func (joinHandler) Handle(ctx *Context, f *Frame, c *Client) error {
	p, err := f.DecodeJoin()
	if err != nil || p.UserID == "" {
		// Malformed join: never register an undefined key.
		logger.Debugf("[relay] join without userId conn=%s err=%v", c.ConnID, err)
		return nil
	}

	ctx.S.Registry().Record(p.UserID, c)
	c.identify(p.UserID)
	ctx.S.Metrics().IdentifiedUsers.Set(float64(ctx.S.Registry().Len()))
	logger.Infof("[relay] join user=%s conn=%s", p.UserID, c.ConnID)
	return nil
}

// messageHandler routes one message: forward to the receiver's session
// if online, then always echo the identical payload back to the sender.
type messageHandler struct{}

func (messageHandler) Event() string { return EventMessage }

func (messageHandler) Handle(ctx *Context, f *Frame, c *Client) error {
	m := ctx.S.Metrics()

	receiverID := ""
	if p, err := f.DecodeMessage(); err == nil {
		receiverID = p.ReceiverID
	}

	// Forward. A missing or unknown receiver is not an error: the
	// message is silently dropped on the receiver side.
	if receiverID != "" {
		if peer, ok := ctx.S.Registry().Lookup(receiverID); ok {
			if peer.enqueue(f.Raw()) {
				m.RelayedTotal.Inc()
			} else {
				m.DroppedTotal.Inc()
				logger.Warnf("[relay] send queue full, drop for user=%s conn=%s", receiverID, peer.ConnID)
			}
		} else {
			m.DroppedTotal.Inc()
		}
	} else {
		m.DroppedTotal.Inc()
	}

	// Mandatory sender echo, regardless of whether forwarding happened.
	if c.enqueue(f.Raw()) {
		m.EchoedTotal.Inc()
	} else {
		m.DroppedTotal.Inc()
	}
	return nil
}

// leaveHandler deregisters the supplied user ID. The session stays
// open and reverts to anonymous.
type leaveHandler struct{}

func (leaveHandler) Event() string { return EventLeave }

func (leaveHandler) Handle(ctx *Context, f *Frame, c *Client) error {
	p, err := f.DecodeLeave()
	if err != nil || p.UserID == "" {
		logger.Debugf("[relay] leave without userId conn=%s err=%v", c.ConnID, err)
		return nil
	}

	ctx.S.Registry().Remove(p.UserID)
	if c.UserID() == p.UserID {
		c.anonymize()
	}
	ctx.S.Metrics().IdentifiedUsers.Set(float64(ctx.S.Registry().Len()))
	logger.Infof("[relay] leave user=%s conn=%s", p.UserID, c.ConnID)
	return nil
}
