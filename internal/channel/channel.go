package channel

import (
	"barcodedrop/internal/models"
	"barcodedrop/internal/providers"
	"barcodedrop/internal/structures"
	"context"
	"sync"
	"time"
)

// Handler receives channel events. Calls come from the channel's reader
// goroutine, one at a time, and never after Close returns.
type Handler interface {
	OnOpen()
	OnMessage(msg models.ChannelMessage) error
}

type ChannelInterface interface {
	Start(handler Handler)
	OnVisible()
	Close()
	State() State
}

type Channel struct {
	url            string
	disabled       bool
	backoff        Backoff
	connectTimeout time.Duration
	dialer         Dialer
	logger         providers.Logger
	metrics        providers.MetricsProviderInterface

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu       sync.Mutex
	handler  Handler
	state    State
	started  bool
	stopped  bool
	attempt  int
	connGen  uint64
	retryGen uint64
	timer    *time.Timer
	conn     Conn
}

func NewChannel(conf *structures.Config, dialer Dialer, logger providers.Logger, metrics providers.MetricsProviderInterface) (ChannelInterface, error) {
	c := &Channel{
		disabled: conf.Channel.Disabled,
		backoff: Backoff{
			Min:    conf.Channel.MinDelay,
			Max:    conf.Channel.MaxDelay,
			Factor: conf.Channel.GrowthFactor,
		},
		connectTimeout: conf.Channel.ConnectTimeout,
		dialer:         dialer,
		logger:         logger,
		metrics:        metrics,
	}
	if c.connectTimeout <= 0 {
		c.connectTimeout = DefaultConnectTimeout
	}
	if !c.disabled {
		target, err := BuildURL(conf.Channel.URL, conf.Username)
		if err != nil {
			return nil, err
		}
		c.url = target
	}
	c.ctx, c.cancel = context.WithCancel(context.Background())
	return c, nil
}

func (c *Channel) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Start begins connecting. With the channel disabled it moves to Disabled and
// never dials.
func (c *Channel) Start(handler Handler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started || c.stopped {
		return
	}
	c.started = true
	c.handler = handler

	if c.disabled {
		c.setStateLocked(Disabled)
		c.logger.Infof(providers.TypeChannel, "Live channel disabled, running REST-only")
		return
	}
	c.connectLocked()
}

// OnVisible reconnects immediately when the channel is down, skipping the
// pending backoff delay.
func (c *Channel) OnVisible() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.started || c.stopped || !c.state.canReconnect() {
		return
	}
	c.stopTimerLocked()
	c.logger.Infof(providers.TypeChannel, "Became visible while %s, reconnecting now", c.state)
	c.connectLocked()
}

// Close tears the channel down and waits for the reader goroutine.
func (c *Channel) Close() {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return
	}
	c.stopped = true
	c.stopTimerLocked()
	c.cancel()
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
	}
	if c.state != Disabled {
		c.setStateLocked(Closed)
	}
	c.mu.Unlock()

	c.wg.Wait()
}

func (c *Channel) connectLocked() {
	c.setStateLocked(Connecting)
	c.connGen++
	c.wg.Add(1)
	go c.run(c.connGen)
}

func (c *Channel) run(gen uint64) {
	defer c.wg.Done()

	dialCtx, cancel := context.WithTimeout(c.ctx, c.connectTimeout)
	conn, err := c.dialer.Dial(dialCtx, c.url)
	cancel()

	c.mu.Lock()
	if c.stopped || gen != c.connGen {
		c.mu.Unlock()
		if conn != nil {
			_ = conn.Close()
		}
		return
	}
	if err != nil {
		c.setStateLocked(Errored)
		delay := c.scheduleRetryLocked()
		c.mu.Unlock()
		c.logger.Warnf(providers.TypeChannel, "Connect failed: %v, retrying in %s", err, delay)
		return
	}
	c.conn = conn
	c.attempt = 0
	c.setStateLocked(Open)
	handler := c.handler
	c.mu.Unlock()

	c.logger.Infof(providers.TypeChannel, "Live channel open")
	handler.OnOpen()

	for {
		data, err := conn.ReadMessage()
		if err != nil {
			c.mu.Lock()
			if c.stopped || gen != c.connGen {
				c.mu.Unlock()
				return
			}
			_ = conn.Close()
			c.conn = nil
			c.setStateLocked(Closed)
			delay := c.scheduleRetryLocked()
			c.mu.Unlock()
			c.logger.Warnf(providers.TypeChannel, "Live channel closed: %v, reconnecting in %s", err, delay)
			return
		}
		if c.isStopped() {
			return
		}
		c.dispatch(handler, data)
	}
}

func (c *Channel) isStopped() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stopped
}

func (c *Channel) dispatch(handler Handler, data []byte) {
	msg, err := models.DecodeChannelMessage(data)
	if err != nil {
		c.metrics.IncProtocolErrors()
		c.logger.Errorf(providers.TypeChannel, "Dropping channel message: %v", err)
		return
	}
	if err := handler.OnMessage(msg); err != nil {
		c.metrics.IncProtocolErrors()
		c.logger.Errorf(providers.TypeChannel, "Dropping %s message: %v", msg.Kind.Label(), err)
		return
	}
	c.metrics.IncChannelMessages(msg.Kind.Label())
}

func (c *Channel) scheduleRetryLocked() time.Duration {
	delay := c.backoff.Delay(c.attempt)
	c.attempt++
	c.retryGen++
	gen := c.retryGen
	c.metrics.IncReconnects()

	c.timer = time.AfterFunc(delay, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.stopped || gen != c.retryGen {
			return
		}
		c.timer = nil
		c.connectLocked()
	})
	return delay
}

func (c *Channel) stopTimerLocked() {
	c.retryGen++
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

func (c *Channel) setStateLocked(s State) {
	if c.state == s {
		return
	}
	c.logger.Debugf(providers.TypeChannel, "State %s -> %s", c.state, s)
	c.state = s
	c.metrics.SetChannelState(int(s))
}
