// Package mqtt connects a map session to an MQTT broker: trigger point
// events are reported outward and operator commands are accepted inward.
package mqtt

import (
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"github.com/AaronLay10/GameMap/internal/events"
)

// Publisher sends a payload to a topic.
type Publisher interface {
	Publish(topic string, payload []byte) error
}

// Subscriber registers a handler for a topic.
type Subscriber interface {
	Subscribe(topic string, handler paho.MessageHandler) error
}

// Client wraps the Paho MQTT client.
type Client struct {
	client    paho.Client
	brokerURL string
	mu        sync.Mutex
}

// NewClient creates a new MQTT client but does not connect.
func NewClient(brokerURL, clientID string) *Client {
	c := &Client{brokerURL: brokerURL}

	opts := paho.NewClientOptions().
		AddBroker(brokerURL).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetKeepAlive(30 * time.Second).
		SetOnConnectHandler(func(paho.Client) {
			events.Emit("info", "mqtt.connected", "", map[string]interface{}{"broker": brokerURL})
		}).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			events.Emit("warn", "mqtt.disconnected", "connection lost", map[string]interface{}{
				"broker": brokerURL,
				"error":  err.Error(),
			})
		})

	c.client = paho.NewClient(opts)
	return c
}

// BrokerURL returns the broker the client was created for.
func (c *Client) BrokerURL() string { return c.brokerURL }

// Connect attempts to connect to the broker.
// Returns an error if connection fails, but does not block indefinitely.
func (c *Client) Connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	token := c.client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return &ConnectTimeoutError{}
	}
	return token.Error()
}

// Subscribe subscribes to a topic with the given handler.
func (c *Client) Subscribe(topic string, handler paho.MessageHandler) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	token := c.client.Subscribe(topic, 1, handler)
	if !token.WaitTimeout(10 * time.Second) {
		return &SubscribeTimeoutError{Topic: topic}
	}
	return token.Error()
}

// Publish sends payload to topic at QoS 1.
func (c *Client) Publish(topic string, payload []byte) error {
	token := c.client.Publish(topic, 1, false, payload)
	if !token.WaitTimeout(10 * time.Second) {
		return &PublishTimeoutError{Topic: topic}
	}
	return token.Error()
}

// Disconnect cleanly disconnects from the broker.
func (c *Client) Disconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.client.Disconnect(1000)
}

// IsConnected returns true if the client is connected.
func (c *Client) IsConnected() bool {
	return c.client.IsConnected()
}

// ConnectTimeoutError indicates connection timed out.
type ConnectTimeoutError struct{}

func (e *ConnectTimeoutError) Error() string {
	return "mqtt connect timeout"
}

// SubscribeTimeoutError indicates subscription timed out.
type SubscribeTimeoutError struct {
	Topic string
}

func (e *SubscribeTimeoutError) Error() string {
	return "mqtt subscribe timeout: " + e.Topic
}

// PublishTimeoutError indicates a publish was not acknowledged in time.
type PublishTimeoutError struct {
	Topic string
}

func (e *PublishTimeoutError) Error() string {
	return "mqtt publish timeout: " + e.Topic
}

// StartWithRetry attempts to connect and subscribe, logging errors but not
// crashing. Returns true if connected.
func (c *Client) StartWithRetry(topic string, handler paho.MessageHandler) bool {
	if err := c.Connect(); err != nil {
		Logger().Warn("mqtt connect failed", zap.String("broker", c.brokerURL), zap.Error(err))
		return false
	}

	if err := c.Subscribe(topic, handler); err != nil {
		Logger().Warn("mqtt subscribe failed", zap.String("topic", topic), zap.Error(err))
		return false
	}

	Logger().Info("mqtt connected", zap.String("broker", c.brokerURL), zap.String("topic", topic))
	return true
}

// EventsTopic is where trigger point events for contentID are published.
func EventsTopic(contentID string) string {
	return "gamemap/" + contentID + "/events"
}

// CommandsTopic is where operator commands for contentID are accepted.
func CommandsTopic(contentID string) string {
	return "gamemap/" + contentID + "/commands"
}
