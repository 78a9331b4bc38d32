// internal/writer/mqtt/client.go
package mqtt

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tamzrod/uss-master/internal/config"
	"github.com/tamzrod/uss-master/internal/poller"
)

const (
	connectTimeout = 10 * time.Second
	publishTimeout = 5 * time.Second
	paramTimeout   = 60 * time.Second
)

// Commander is the bus surface driven by MQTT commands.
type Commander interface {
	SetSetpoint(value uint16, slave int)
	SetCtlFlag(flags uint16, slave int)
	ClearCtlFlag(flags uint16, slave int)
	Submit(ctx context.Context, req poller.ParamRequest) (poller.ParamResult, error)
}

// ParamHook observes parameter writes requested over MQTT.
type ParamHook func(slave int, res poller.ParamResult)

type publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
}

// Slave identifies one slave on the topic tree.
type Slave struct {
	Name    string
	Address byte
}

// Client publishes slave telemetry and serves commands for one bus.
//
// Topics, below <prefix>/<bus>:
//
//	online                       "1" / "0" (retained, last will)
//	<slave>/status               telemetry JSON (retained)
//	<slave>/cmd/setpoint         decimal or 0x-hex word
//	<slave>/cmd/control          {"set":[...],"clear":[...]}
//	<slave>/cmd/param            {"number":n,"type":"word|dword|float","value":v}
//	<slave>/param/result         result JSON of a cmd/param
type Client struct {
	client paho.Client
	pub    publisher

	root   string
	qos    byte
	slaves []Slave
	topics []string // per slave topic segment

	cmd     Commander
	hookMu  sync.Mutex
	onParam ParamHook
	log     *zap.Logger

	now func() time.Time
}

func newClient(pub publisher, cfg config.MQTTConfig, busID string, slaves []Slave, cmd Commander, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	c := &Client{
		pub:    pub,
		root:   strings.TrimSuffix(cfg.TopicPrefix, "/") + "/" + topicSegment(busID),
		qos:    cfg.QoS,
		slaves: slaves,
		cmd:    cmd,
		log:    log,
		now:    time.Now,
	}
	for _, s := range slaves {
		c.topics = append(c.topics, topicSegment(s.Name))
	}
	return c
}

// Connect connects to the broker and subscribes to the command topics.
// Subscriptions are renewed on every reconnect.
func Connect(cfg config.MQTTConfig, busID string, slaves []Slave, cmd Commander, log *zap.Logger) (*Client, error) {
	id := cfg.ClientID
	if id == "" {
		id = "uss-" + uuid.NewString()
	}

	c := newClient(nil, cfg, busID, slaves, cmd, log)
	if err := c.checkTopics(); err != nil {
		return nil, err
	}

	opts := paho.NewClientOptions()
	opts.AddBroker(cfg.Broker).
		SetClientID(id).
		SetAutoReconnect(true).
		SetCleanSession(true).
		SetWill(c.root+"/online", "0", cfg.QoS, true)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}
	opts.SetOnConnectHandler(c.onConnect)
	opts.SetConnectionLostHandler(func(_ paho.Client, err error) {
		c.log.Warn("mqtt connection lost", zap.Error(err))
	})

	c.client = paho.NewClient(opts)
	c.pub = c.client

	token := c.client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return nil, fmt.Errorf("mqtt: connect %s: timeout", cfg.Broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt: connect %s: %w", cfg.Broker, err)
	}

	c.log.Info("mqtt connected",
		zap.String("broker", cfg.Broker),
		zap.String("client_id", id),
		zap.String("root", c.root),
	)
	return c, nil
}

// SetParamHook registers a hook for parameter results.
func (c *Client) SetParamHook(h ParamHook) {
	c.hookMu.Lock()
	c.onParam = h
	c.hookMu.Unlock()
}

func (c *Client) paramHook() ParamHook {
	c.hookMu.Lock()
	defer c.hookMu.Unlock()
	return c.onParam
}

func (c *Client) onConnect(pc paho.Client) {
	filter := c.root + "/+/cmd/+"
	pc.Subscribe(filter, c.qos, func(_ paho.Client, msg paho.Message) {
		c.handle(msg.Topic(), msg.Payload())
	})
	pc.Publish(c.root+"/online", c.qos, true, "1")
	c.log.Debug("mqtt subscribed", zap.String("filter", filter))
}

// Close publishes the offline marker and disconnects.
func (c *Client) Close() error {
	if c.client == nil {
		return nil
	}
	c.client.Publish(c.root+"/online", c.qos, true, "0").WaitTimeout(publishTimeout)
	c.client.Disconnect(250)
	return nil
}

func (c *Client) publish(topic string, retained bool, payload []byte) error {
	token := c.pub.Publish(topic, c.qos, retained, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("mqtt: publish %s: timeout", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt: publish %s: %w", topic, err)
	}
	return nil
}

func (c *Client) slaveTopic(slave int) (string, error) {
	if slave < 0 || slave >= len(c.topics) {
		return "", errors.New("mqtt: unknown slave")
	}
	return c.root + "/" + c.topics[slave], nil
}

func topicSegment(s string) string { return config.TopicSegment(s) }

// checkTopics rejects slaves sharing a topic level; their telemetry
// would overwrite each other and commands would reach only one.
func (c *Client) checkTopics() error {
	seen := make(map[string]int, len(c.topics))
	for i, seg := range c.topics {
		if prev, ok := seen[seg]; ok {
			return fmt.Errorf("mqtt: slaves %d and %d share topic %q", prev, i, c.root+"/"+seg)
		}
		seen[seg] = i
	}
	return nil
}
