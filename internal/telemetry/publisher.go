// Package telemetry streams per-frame diagnostic results to an MQTT
// broker so a dashboard or historian can watch instruments in the field.
package telemetry

import (
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/et-diagnostics/vibrascope/internal/engine"
	"github.com/et-diagnostics/vibrascope/internal/monitoring"
)

// Config carries broker connection settings.
type Config struct {
	BrokerURL string // e.g. tcp://broker:1883
	Topic     string // e.g. vibrascope/<device>/result
	Username  string
	Password  string
	DeviceID  string // defaults to a generated ID
}

// Publisher sends diagnostic results on an MQTT topic. Publishing is
// fire-and-forget at QoS 0; a slow broker must not stall the frame loop.
type Publisher struct {
	client   mqtt.Client
	topic    string
	deviceID string
}

// payload is the wire shape. The full Result is embedded so a consumer
// sees exactly what the instrument computed.
type payload struct {
	DeviceID      string        `json:"device_id"`
	TimestampUnix int64         `json:"timestamp_unix"`
	Result        engine.Result `json:"result"`
}

// New connects to the broker. Connection loss is logged and recovered
// by the client's auto-reconnect.
func New(cfg Config) (*Publisher, error) {
	if cfg.DeviceID == "" {
		cfg.DeviceID = fmt.Sprintf("vibrascope-%s", uuid.NewString()[:8])
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.BrokerURL)
	opts.SetClientID(cfg.DeviceID)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}
	opts.SetKeepAlive(60 * time.Second)
	opts.SetConnectTimeout(10 * time.Second)
	opts.SetAutoReconnect(true)
	opts.SetMaxReconnectInterval(30 * time.Second)
	opts.OnConnect = func(mqtt.Client) {
		monitoring.Logf("telemetry: connected to %s", cfg.BrokerURL)
	}
	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		monitoring.Logf("telemetry: connection lost: %v", err)
	}

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return nil, fmt.Errorf("telemetry: connect timeout to %s", cfg.BrokerURL)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("telemetry: connect failed: %w", err)
	}

	return &Publisher{client: client, topic: cfg.Topic, deviceID: cfg.DeviceID}, nil
}

// Publish sends one result. Marshal errors are returned; broker errors
// surface through the connection-lost callback instead.
func (p *Publisher) Publish(at time.Time, res engine.Result) error {
	body, err := encodePayload(p.deviceID, at, res)
	if err != nil {
		return err
	}
	p.client.Publish(p.topic, 0, false, body)
	return nil
}

// Close flushes in-flight messages and disconnects.
func (p *Publisher) Close() {
	if p.client.IsConnected() {
		p.client.Disconnect(1000)
	}
}

func encodePayload(deviceID string, at time.Time, res engine.Result) ([]byte, error) {
	return json.Marshal(payload{
		DeviceID:      deviceID,
		TimestampUnix: at.Unix(),
		Result:        res,
	})
}
