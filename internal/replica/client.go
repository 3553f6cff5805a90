package replica

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/coder/websocket"
	"go.uber.org/zap"

	"github.com/TeamExile/psychic-waddle/internal/protocol"
)

// ErrRejected reports a join refused by the authority, typically because
// the session is full.
var ErrRejected = errors.New("join rejected")

const (
	dialTimeout     = 5 * time.Second
	writeTimeout    = 3 * time.Second
	predictInterval = 50 * time.Millisecond
)

type clientMsg interface{ isClientMsg() }

type frame struct{ b protocol.Broadcast }
type tick struct{ dt time.Duration }
type setInput struct{ v protocol.Vec }
type shoot struct{ dir protocol.Vec }
type action struct{ name string }
type inspect struct{ reply chan Snapshot }

func (frame) isClientMsg()    {}
func (tick) isClientMsg()     {}
func (setInput) isClientMsg() {}
func (shoot) isClientMsg()    {}
func (action) isClientMsg()   {}
func (inspect) isClientMsg()  {}

// Snapshot is a consistent copy of the replica for callers outside the
// actor goroutine.
type Snapshot struct {
	You       string
	OwnEntity string
	Avatars   int
	Hazards   int
	Predicted protocol.Vec
}

// Client drives one participant: a dialed websocket, the replica state
// and the prediction loop, all owned by a single actor goroutine.
type Client struct {
	log   *zap.Logger
	state *State
	conn  *websocket.Conn
	inbox chan clientMsg

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// Dial connects to the authority at target:port, performs the join
// handshake and starts the replica loops. Rejection surfaces here as
// ErrRejected; nothing runs afterwards.
func Dial(parent context.Context, target string, port int, name string, pres Presentation, log *zap.Logger) (*Client, error) {
	url := fmt.Sprintf("ws://%s:%d/ws", target, port)

	dialCtx, cancel := context.WithTimeout(parent, dialTimeout)
	defer cancel()
	conn, _, err := websocket.Dial(dialCtx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}

	// The first frame settles the join: Welcome or Rejected.
	readCtx, cancelRead := context.WithTimeout(parent, dialTimeout)
	_, data, err := conn.Read(readCtx)
	cancelRead()
	if err != nil {
		conn.Close(websocket.StatusProtocolError, "no welcome")
		return nil, fmt.Errorf("awaiting welcome: %w", err)
	}
	first, err := protocol.DecodeBroadcast(data)
	if err != nil {
		conn.Close(websocket.StatusProtocolError, "bad welcome")
		return nil, err
	}
	if first.Type == protocol.EvtRejected {
		conn.Close(websocket.StatusNormalClosure, "rejected")
		return nil, fmt.Errorf("%w: %s", ErrRejected, first.Error)
	}

	ctx, cancelAll := context.WithCancel(parent)
	c := &Client{
		log:    log,
		state:  NewState(pres, log),
		conn:   conn,
		inbox:  make(chan clientMsg, 64),
		ctx:    ctx,
		cancel: cancelAll,
		done:   make(chan struct{}),
	}
	if err := c.state.Apply(first); err != nil {
		conn.Close(websocket.StatusProtocolError, "bad welcome")
		cancelAll()
		return nil, err
	}

	go c.readLoop()
	go c.loop()

	// Ask for our identity; the answer comes back as a variable write.
	c.send(protocol.Command{Type: protocol.CmdIdentify, Name: name})
	return c, nil
}

// SetInput hands the current movement vector to the prediction loop.
func (c *Client) SetInput(v protocol.Vec) {
	select {
	case c.inbox <- setInput{v: v}:
	case <-c.ctx.Done():
	}
}

// Shoot plays a shot: the local prediction is the caller's, the command
// goes out for everyone else's replay.
func (c *Client) Shoot(dir protocol.Vec) {
	select {
	case c.inbox <- shoot{dir: dir}:
	case <-c.ctx.Done():
	}
}

// Trigger reports a discrete action (jump, crouch) for cosmetic relay.
func (c *Client) Trigger(name string) {
	select {
	case c.inbox <- action{name: name}:
	case <-c.ctx.Done():
	}
}

// Inspect returns a consistent snapshot of the replica.
func (c *Client) Inspect() (Snapshot, error) {
	reply := make(chan Snapshot, 1)
	select {
	case c.inbox <- inspect{reply: reply}:
	case <-c.ctx.Done():
		return Snapshot{}, c.ctx.Err()
	}
	select {
	case s := <-reply:
		return s, nil
	case <-c.ctx.Done():
		return Snapshot{}, c.ctx.Err()
	}
}

// Close tears the participant down. In-flight commands are simply lost;
// the authority cleans up when the transport drops.
func (c *Client) Close() {
	c.cancel()
	<-c.done
}

// Done closes when the client has fully stopped, whether by Close or by
// the authority going away.
func (c *Client) Done() <-chan struct{} { return c.done }

func (c *Client) readLoop() {
	for {
		_, data, err := c.conn.Read(c.ctx)
		if err != nil {
			c.cancel()
			return
		}
		b, err := protocol.DecodeBroadcast(data)
		if err != nil {
			c.log.Debug("undecodable broadcast", zap.Error(err))
			continue
		}
		select {
		case c.inbox <- frame{b: b}:
		case <-c.ctx.Done():
			return
		}
	}
}

func (c *Client) loop() {
	defer close(c.done)
	defer c.conn.Close(websocket.StatusNormalClosure, "bye")

	ticker := time.NewTicker(predictInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.ctx.Done():
			return

		case <-ticker.C:
			for _, cmd := range c.state.Step(predictInterval) {
				c.send(cmd)
			}

		case m := <-c.inbox:
			switch msg := m.(type) {
			case frame:
				if err := c.state.Apply(msg.b); err != nil {
					c.log.Debug("broadcast not applied", zap.Error(err))
				}
			case setInput:
				c.state.SetInput(msg.v)
			case shoot:
				c.send(c.state.Shoot(msg.dir))
			case action:
				c.send(protocol.Command{Type: protocol.CmdAction, Action: msg.name})
			case inspect:
				msg.reply <- Snapshot{
					You:       c.state.You(),
					OwnEntity: c.state.OwnEntity(),
					Avatars:   len(c.state.avatars),
					Hazards:   len(c.state.hazards),
					Predicted: c.state.predicted,
				}
			}
		}
	}
}

// send writes one command frame. Failures are ignored: commands are
// at-most-once by contract and per-tick state re-issues itself.
func (c *Client) send(cmd protocol.Command) {
	payload, err := protocol.EncodeCommand(cmd)
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(c.ctx, writeTimeout)
	defer cancel()
	_ = c.conn.Write(ctx, websocket.MessageText, payload)
}
