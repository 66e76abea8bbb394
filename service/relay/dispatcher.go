package relay

// Handler processes one named client event.
type Handler interface {
	Event() string
	Handle(ctx *Context, f *Frame, c *Client) error
}

// Context carries the server into handlers.
type Context struct {
	S *Server
}

type Dispatcher struct {
	handlers map[string]Handler
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{handlers: make(map[string]Handler)}
}

func (d *Dispatcher) Register(h Handler) { d.handlers[h.Event()] = h }

// Get returns the handler for an event name, or nil when the event is
// unknown. Unknown events are skipped, never an error for the session.
func (d *Dispatcher) Get(event string) Handler {
	return d.handlers[event]
}
