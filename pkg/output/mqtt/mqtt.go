package mqtt

import (
	"encoding/json"
	"fmt"
	"strings"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/esdalmaijer/MPyDev/pkg/biopac"
	"github.com/esdalmaijer/MPyDev/pkg/config"
	"github.com/esdalmaijer/MPyDev/pkg/output"
)

const (
	DefaultServer   = "tcp://localhost:1883"
	DefaultClientID = "biopac-client"
	// DefaultTopic carries a %d formatter filled with the channel number.
	DefaultTopic = "biopac/channel/%d"
)

type MQTTOutput struct {
	client mqtt.Client
	topic  string
}

func NewMQTT(cfg config.MQTTConfig) (output.Output, error) {
	if cfg.Server == "" {
		cfg.Server = DefaultServer
	}
	if cfg.ClientID == "" {
		cfg.ClientID = DefaultClientID
	}
	if cfg.Topic == "" {
		cfg.Topic = DefaultTopic
	}
	opts := mqtt.NewClientOptions().AddBroker(cfg.Server).SetClientID(cfg.ClientID)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}
	client := mqtt.NewClient(opts)
	token := client.Connect()
	if token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("mqtt connect: %w", token.Error())
	}
	return &MQTTOutput{client: client, topic: cfg.Topic}, nil
}

func (m *MQTTOutput) Publish(readings []biopac.Reading) error {
	for _, r := range readings {
		topic := m.topic
		if strings.Contains(topic, "%d") {
			topic = fmt.Sprintf(topic, r.Channel)
		}
		b, err := json.Marshal(r)
		if err != nil {
			return err
		}
		token := m.client.Publish(topic, 0, false, b)
		token.Wait()
		if token.Error() != nil {
			return token.Error()
		}
	}
	return nil
}

func (m *MQTTOutput) Close() error {
	if m.client != nil {
		m.client.Disconnect(250)
	}
	return nil
}
