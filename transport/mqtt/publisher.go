package mqtt

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/wricardo/mcp-training/vectorrace/game/engine"
	"github.com/wricardo/mcp-training/vectorrace/logging"
)

// Quality-of-Service (at least once) for MQTT messages
const QOS = 1

// DefaultTopic is the topic prefix used when none is configured
const DefaultTopic = "vectorrace"

// Time allowed for in-flight messages when disconnecting, in milliseconds
const quiesce = 250

// Messages waiting for the sender before Publish blocks
const queueSize = 256

var log = logging.For("mqtt")

// Client is the part of paho.Client the publisher needs
type Client interface {
	IsConnected() bool
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
	Disconnect(quiesce uint)
}

// Publisher publishes race frames and announcements to an MQTT broker.
// Frames go to <prefix>/<session>/frame as retained messages so a late
// subscriber sees the current grid; announcements go to
// <prefix>/<session>/events. A single sender delivers messages in the
// order they were published.
type Publisher struct {
	client Client
	prefix string
	queue  chan outbound
	wg     sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

type outbound struct {
	topic    string
	data     []byte
	retained bool
}

// Frame is the payload of frame messages
type Frame struct {
	Session string            `json:"session"`
	Grid    []string          `json:"grid"`
	Cars    []engine.CarState `json:"cars"`
	Time    int64             `json:"time"`
}

// Event is the payload of event messages
type Event struct {
	Session string `json:"session"`
	Text    string `json:"text"`
	Time    int64  `json:"time"`
}

// Connect dials the broker and returns a publisher on it
func Connect(broker, clientID, prefix string) (*Publisher, error) {
	opts := paho.NewClientOptions()
	opts.AddBroker(broker)
	opts.SetClientID(clientID)
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetConnectionLostHandler(func(c paho.Client, err error) {
		log.Errorf("connection to MQTT broker lost: %v. Trying to reconnect ...", err)
	})
	opts.SetOnConnectHandler(func(c paho.Client) {
		log.Notice("connected to MQTT broker")
	})

	log.Noticef("connecting to MQTT broker at %s as %s", broker, clientID)

	client := paho.NewClient(opts)
	token := client.Connect()
	if token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("cannot connect to MQTT broker %s: %w", broker, token.Error())
	}
	return NewPublisher(client, prefix), nil
}

// NewPublisher creates a publisher on an already connected client
func NewPublisher(client Client, prefix string) *Publisher {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		prefix = DefaultTopic
	}
	p := &Publisher{
		client: client,
		prefix: prefix,
		queue:  make(chan outbound, queueSize),
	}
	go p.send()
	return p
}

func (p *Publisher) send() {
	for msg := range p.queue {
		token := p.client.Publish(msg.topic, QOS, msg.retained, msg.data)
		if token.Wait() && token.Error() != nil {
			log.Errorf("failed to publish message to %s: %v", msg.topic, token.Error())
		}
		p.wg.Done()
	}
}

// Topic returns the topic of a session channel
func (p *Publisher) Topic(sessionID, channel string) string {
	return p.prefix + "/" + strings.ToLower(sessionID) + "/" + channel
}

// Publish queues a JSON payload for the sender. Messages published while the
// broker is unreachable or after Close are dropped.
func (p *Publisher) Publish(topic string, payload interface{}, retained bool) {
	if !p.client.IsConnected() {
		log.Debugf("not connected, dropping message for %s", topic)
		return
	}

	data, err := json.Marshal(payload)
	if err != nil {
		log.Errorf("failed to encode message for %s: %v", topic, err)
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		log.Debugf("publisher closed, dropping message for %s", topic)
		return
	}
	p.wg.Add(1)
	p.queue <- outbound{topic: topic, data: data, retained: retained}
}

// Flush waits until every queued message has been handed to the broker
func (p *Publisher) Flush() {
	p.wg.Wait()
}

// Close flushes and disconnects from the broker
func (p *Publisher) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.queue)
	p.mu.Unlock()

	p.Flush()
	p.client.Disconnect(quiesce)
}

// SessionUI returns a UI collaborator publishing the frames and
// announcements of one race session. It never waits for input.
func (p *Publisher) SessionUI(sessionID string) engine.UI {
	return &sessionUI{publisher: p, sessionID: sessionID}
}

type sessionUI struct {
	publisher *Publisher
	sessionID string
}

func (u *sessionUI) Render(view engine.RaceView) {
	cars := make([]engine.CarState, 0, len(view.Cars))
	for _, car := range view.Cars {
		cars = append(cars, car.State())
	}
	u.publisher.Publish(u.publisher.Topic(u.sessionID, "frame"), Frame{
		Session: u.sessionID,
		Grid:    view.Track.Render(view.Cars),
		Cars:    cars,
		Time:    time.Now().Unix(),
	}, true)
}

func (u *sessionUI) Automatic() bool { return true }

func (u *sessionUI) WaitForAdvance() error { return nil }

func (u *sessionUI) Announce(message string) {
	u.publisher.Publish(u.publisher.Topic(u.sessionID, "events"), Event{
		Session: u.sessionID,
		Text:    message,
		Time:    time.Now().Unix(),
	}, false)
}
