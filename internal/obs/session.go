package obs

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	werrors "github.com/Vasu1712/sceneitem-widget/internal/errors"
	"github.com/Vasu1712/sceneitem-widget/internal/logging"
)

const sendBuffer = 64

var errNotConnected = fmt.Errorf("not connected")

// SessionOptions configures a Session.
type SessionOptions struct {
	URL              string
	Password         string
	RequestTimeout   time.Duration
	ReconnectBackoff time.Duration
}

type result struct {
	data json.RawMessage
	err  error
}

// connection is one websocket connection with its pumps.
type connection struct {
	ws   *websocket.Conn
	send chan []byte
	done chan struct{}
	once sync.Once
}

// Session is a request/response and event connection to an obs-websocket
// server. It is shared: any number of callers may issue requests and register
// event handlers concurrently.
type Session struct {
	opts   SessionOptions
	dialer *websocket.Dialer
	hub    *Hub
	logger *logrus.Entry

	mu      sync.Mutex
	conn    *connection
	pending map[string]chan result // message-id -> waiting caller
}

// NewSession creates a Session. Call Connect, then Run to keep it connected.
func NewSession(opts SessionOptions) *Session {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 5 * time.Second
	}
	if opts.ReconnectBackoff <= 0 {
		opts.ReconnectBackoff = 2 * time.Second
	}
	return &Session{
		opts:    opts,
		dialer:  websocket.DefaultDialer,
		hub:     NewHub(),
		logger:  logging.NewLogger("obs"),
		pending: make(map[string]chan result),
	}
}

// Hub returns the session's event subscription registry.
func (s *Session) Hub() *Hub {
	return s.hub
}

// Connected reports whether a connection is currently open.
func (s *Session) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn != nil
}

// Connect dials the server and authenticates when the server asks for it.
func (s *Session) Connect(ctx context.Context) error {
	ws, _, err := s.dialer.DialContext(ctx, s.opts.URL, nil)
	if err != nil {
		return werrors.Transport("dial", err).WithDetail("url", s.opts.URL)
	}

	c := &connection{
		ws:   ws,
		send: make(chan []byte, sendBuffer),
		done: make(chan struct{}),
	}

	s.mu.Lock()
	if s.conn != nil {
		s.mu.Unlock()
		ws.Close()
		return nil
	}
	s.conn = c
	s.mu.Unlock()

	go s.readPump(c)
	go s.writePump(c)

	if err := s.authenticate(ctx); err != nil {
		s.drop(c, err)
		return err
	}

	s.logger.WithField("url", s.opts.URL).Info("Connected to control service")
	return nil
}

func (s *Session) authenticate(ctx context.Context) error {
	var status authRequiredResponse
	if err := s.Call(ctx, RequestGetAuthRequired, nil, &status); err != nil {
		return err
	}
	if !status.AuthRequired {
		return nil
	}
	if s.opts.Password == "" {
		return werrors.Unauthorized("control service requires a password")
	}

	auth := authResponse(s.opts.Password, status.Salt, status.Challenge)
	if err := s.Call(ctx, RequestAuthenticate, map[string]interface{}{"auth": auth}, nil); err != nil {
		if _, ok := err.(*StatusError); ok {
			return werrors.Unauthorized(fmt.Sprintf("authentication rejected: %v", err))
		}
		return err
	}
	return nil
}

// Run keeps the session connected until ctx is cancelled, redialing after
// ReconnectBackoff whenever the connection drops. Event subscriptions are
// kept across reconnects.
func (s *Session) Run(ctx context.Context) {
	for {
		s.mu.Lock()
		c := s.conn
		s.mu.Unlock()

		if c != nil {
			select {
			case <-c.done:
				s.logger.Warn("Control service connection lost")
			case <-ctx.Done():
				s.Close()
				return
			}
		}

		select {
		case <-time.After(s.opts.ReconnectBackoff):
		case <-ctx.Done():
			s.Close()
			return
		}

		if err := s.Connect(ctx); err != nil {
			s.logger.WithError(err).Warn("Reconnect failed")
		}
	}
}

// Close drops the current connection, failing every pending request.
func (s *Session) Close() {
	s.mu.Lock()
	c := s.conn
	s.mu.Unlock()

	if c != nil {
		s.drop(c, errNotConnected)
	}
}

// Call sends one request and waits for its response, decoding it into out
// when out is non-nil. Status errors are returned as *StatusError, everything
// else as a TRANSPORT_ERROR.
func (s *Session) Call(ctx context.Context, requestType string, args map[string]interface{}, out interface{}) error {
	id := uuid.NewString()
	data, err := encodeRequest(requestType, id, args)
	if err != nil {
		return werrors.Wrap(err, werrors.ErrCodeInternal, fmt.Sprintf("encode %s", requestType))
	}

	ch := make(chan result, 1)

	s.mu.Lock()
	c := s.conn
	if c == nil {
		s.mu.Unlock()
		return werrors.Transport(requestType, errNotConnected)
	}
	s.pending[id] = ch
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.pending, id)
		s.mu.Unlock()
	}()

	ctx, cancel := context.WithTimeout(ctx, s.opts.RequestTimeout)
	defer cancel()

	select {
	case c.send <- data:
	case <-c.done:
		return werrors.Transport(requestType, errNotConnected)
	case <-ctx.Done():
		return werrors.Transport(requestType, ctx.Err())
	}

	var res result
	select {
	case res = <-ch:
	case <-ctx.Done():
		return werrors.Transport(requestType, ctx.Err())
	}
	if res.err != nil {
		return werrors.Transport(requestType, res.err)
	}

	var env envelope
	if err := json.Unmarshal(res.data, &env); err != nil {
		return werrors.Transport(requestType, err)
	}
	if env.Status == statusError {
		return &StatusError{RequestType: requestType, Message: env.Error}
	}

	if out != nil {
		if err := json.Unmarshal(res.data, out); err != nil {
			return werrors.Transport(requestType, fmt.Errorf("decode response: %w", err))
		}
	}
	return nil
}

// readPump routes responses to their callers and events to the hub.
func (s *Session) readPump(c *connection) {
	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.WithError(err).Warn("Control service read error")
			}
			s.drop(c, err)
			return
		}

		var env envelope
		if err := json.Unmarshal(data, &env); err != nil {
			s.logger.WithError(err).Debug("Ignoring undecodable message")
			continue
		}

		switch {
		case env.MessageID != "":
			s.mu.Lock()
			ch, ok := s.pending[env.MessageID]
			s.mu.Unlock()
			if ok {
				select {
				case ch <- result{data: data}:
				default:
				}
			}
		case env.UpdateType != "":
			s.hub.Dispatch(env.UpdateType, data)
		}
	}
}

// writePump is the connection's only writer.
func (s *Session) writePump(c *connection) {
	for {
		select {
		case msg := <-c.send:
			if err := c.ws.WriteMessage(websocket.TextMessage, msg); err != nil {
				s.logger.WithError(err).Warn("Control service write error")
				s.drop(c, err)
				return
			}
		case <-c.done:
			return
		}
	}
}

// drop closes c once and fails every request still waiting on it.
func (s *Session) drop(c *connection, cause error) {
	c.once.Do(func() {
		close(c.done)
		c.ws.Close()

		s.mu.Lock()
		if s.conn == c {
			s.conn = nil
		}
		pending := s.pending
		s.pending = make(map[string]chan result)
		s.mu.Unlock()

		for _, ch := range pending {
			select {
			case ch <- result{err: cause}:
			default:
			}
		}
	})
}
