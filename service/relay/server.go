package relay

import (
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"relaygate/config"
	"relaygate/logger"
	"relaygate/tools/safe"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// The calling origin is configurable downstream; accept all.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Server owns the listening endpoint's behavior: it accepts sessions,
// interprets the join/message/leave events, and uses the Registry to
// decide where a message goes. State lives for the process lifetime
// and is rebuilt empty on restart.
type Server struct {
	cfg     config.Config
	reg     *Registry
	disp    *Dispatcher
	metrics *Metrics
}

func NewServer(cfg config.Config) *Server {
	s := &Server{
		cfg:     cfg,
		reg:     NewRegistry(),
		disp:    NewDispatcher(),
		metrics: NewMetrics(),
	}
	s.disp.Register(joinHandler{})
	s.disp.Register(messageHandler{})
	s.disp.Register(leaveHandler{})
	return s
}

func (s *Server) Registry() *Registry { return s.reg }
func (s *Server) Metrics() *Metrics   { return s.metrics }

// Routes mounts the relay endpoints on a gin engine.
func (s *Server) Routes(r *gin.Engine) {
	r.GET(s.cfg.WSPath, s.HandleWS)
	r.GET("/health", s.HandleHealth)
	r.GET("/metrics", gin.WrapH(s.metrics.Handler()))
}

// HandleHealth is a liveness probe; it never depends on session state.
func (s *Server) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// HandleWS upgrades the request and runs the session until the
// transport drops. Per-session errors end that session only; the
// accept loop keeps serving others.
func (s *Server) HandleWS(c *gin.Context) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Infof("[relay] upgrade failed: %v", err)
		return
	}

	cl := newClient(ws, s.cfg.SendQueueSize)
	s.metrics.OpenSessions.Inc()
	logger.Infof("[relay] session open conn=%s remote=%s", cl.ConnID, ws.RemoteAddr())

	safe.Go("relay-writer", func() {
		cl.writePump(s.cfg.PingInterval, s.cfg.WriteWait)
	})

	s.readLoop(cl)

	// Transport disconnect: deregister every mapping pointing at this
	// session, whatever identity it last held.
	s.reg.RemoveClient(cl)
	s.metrics.IdentifiedUsers.Set(float64(s.reg.Len()))
	s.metrics.OpenSessions.Dec()
	cl.close()
	logger.Infof("[relay] session closed conn=%s user=%s", cl.ConnID, cl.UserID())
}

func (s *Server) readLoop(cl *Client) {
	ws := cl.ws
	ws.SetReadLimit(1 << 20)
	_ = ws.SetReadDeadline(time.Now().Add(s.cfg.PongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(s.cfg.PongWait))
	})

	for {
		mt, data, err := ws.ReadMessage()
		if err != nil {
			switch {
			case websocket.IsCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseNoStatusReceived):
				logger.Infof("[relay] peer closed conn=%s err=%v", cl.ConnID, err)
			default:
				if ne, ok := err.(net.Error); ok && ne.Timeout() {
					logger.Infof("[relay] read timeout conn=%s err=%v", cl.ConnID, err)
				} else {
					logger.Infof("[relay] read err conn=%s err=%v", cl.ConnID, err)
				}
			}
			return
		}
		if mt != websocket.TextMessage && mt != websocket.BinaryMessage {
			continue
		}

		f, perr := ParseFrame(data)
		if perr != nil {
			sample := data
			if len(sample) > 256 {
				sample = sample[:256]
			}
			logger.Debugf("[relay] bad frame conn=%s err=%v sample=%q", cl.ConnID, perr, sample)
			continue
		}

		h := s.disp.Get(f.Event)
		if h == nil {
			logger.Debugf("[relay] no handler for event=%q conn=%s", f.Event, cl.ConnID)
			continue
		}

		safe.Run("relay-dispatch", func() {
			if err := h.Handle(&Context{S: s}, f, cl); err != nil {
				logger.Errorf("[relay] handle event=%q conn=%s err=%v", f.Event, cl.ConnID, err)
			}
		})
	}
}
