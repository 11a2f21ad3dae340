// Package publish mirrors slider events to an MQTT broker.
package publish

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/itohio/gain/pkg/config"
	"github.com/itohio/gain/pkg/frame"
	"github.com/itohio/gain/pkg/ingest"
	"github.com/itohio/gain/pkg/volume"
	"github.com/rs/zerolog"
)

// Timeout bounds how long a publish may hold up the ingest loop.
const Timeout = time.Second

// Client is the part of mqtt.Client the publisher uses.
type Client interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	Disconnect(quiesce uint)
}

// Message is the JSON payload published for every slider event.
type Message struct {
	ID    uint8   `json:"id"`
	Value uint16  `json:"value"`
	Level float64 `json:"level"`
}

// Publisher is an ingest.Handler that publishes events to MQTT.
// Publishing failures are logged and never returned.
type Publisher struct {
	client Client
	prefix string
	log    zerolog.Logger
}

// Ensure Publisher implements ingest.Handler.
var _ ingest.Handler = (*Publisher)(nil)

// Connect dials the broker described by cfg.
func Connect(cfg config.MQTTConfig, log zerolog.Logger) (*Publisher, error) {
	opts := mqtt.NewClientOptions().AddBroker(cfg.Broker).SetClientID(cfg.ClientID)
	opts.SetKeepAlive(2 * time.Second)
	opts.SetPingTimeout(1 * time.Second)
	opts.SetAutoReconnect(true)
	opts.OnConnect = func(mqtt.Client) {
		log.Info().Str("broker", cfg.Broker).Str("client_id", cfg.ClientID).Msg("connected to MQTT broker")
	}
	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		log.Warn().Err(err).Str("broker", cfg.Broker).Msg("MQTT connection lost")
	}

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return nil, fmt.Errorf("failed to connect to MQTT broker %s: timeout", cfg.Broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker %s: %w", cfg.Broker, err)
	}

	return New(client, cfg.TopicPrefix, log), nil
}

// New creates a Publisher over an existing client.
func New(client Client, prefix string, log zerolog.Logger) *Publisher {
	return &Publisher{client: client, prefix: prefix, log: log}
}

// SliderTopic returns the topic events of slider id are published on.
func (p *Publisher) SliderTopic(id uint8) string {
	return p.prefix + "/slider/" + strconv.Itoa(int(id))
}

// StatusTopic returns the retained topic holding the connection state.
func (p *Publisher) StatusTopic() string {
	return p.prefix + "/status"
}

// Handle publishes ev with the level it maps to under snap.
func (p *Publisher) Handle(ev frame.Event, snap *config.Snapshot) error {
	general := snap.Config.General
	msg := Message{
		ID:    ev.ID,
		Value: ev.Value,
		Level: volume.Level(ev.Value, general.VolumeStep, general.InvertDirection),
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		p.log.Warn().Err(err).Uint8("slider", ev.ID).Msg("failed to marshal MQTT payload")
		return nil
	}

	p.publish(p.SliderTopic(ev.ID), false, payload)
	return nil
}

// PublishState publishes the ingest connection state as a retained message.
func (p *Publisher) PublishState(s ingest.State) {
	p.publish(p.StatusTopic(), true, []byte(s.String()))
}

func (p *Publisher) publish(topic string, retained bool, payload []byte) {
	token := p.client.Publish(topic, 0, retained, payload)
	if !token.WaitTimeout(Timeout) {
		p.log.Warn().Str("topic", topic).Msg("MQTT publish timed out")
		return
	}
	if err := token.Error(); err != nil {
		p.log.Warn().Err(err).Str("topic", topic).Msg("failed to publish packet")
	}
}

// Close disconnects from the broker.
func (p *Publisher) Close() {
	p.client.Disconnect(250)
}
