package mqtt

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"os"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/atelio/fieldops/core/logger"
	coremetrics "github.com/atelio/fieldops/core/metrics"
	"github.com/atelio/fieldops/core/workload"
	infralogger "github.com/atelio/fieldops/infra/logger"
)

// Config holds the MQTT connection settings for the advisory publisher.
type Config struct {
	Enabled         bool   `json:"enabled"`
	Broker          string `json:"broker"`
	ClientID        string `json:"client_id"`
	Username        string `json:"username"`
	Password        string `json:"password"`
	UseTLS          bool   `json:"use_tls"`
	ClientCert      string `json:"client_cert"`
	ClientKey       string `json:"client_key"`
	CABundle        string `json:"ca_bundle"`
	QoS             byte   `json:"qos"`
	SuggestionTopic string `json:"suggestion_topic"`
	TriageTopic     string `json:"triage_topic"`
	MaxRetries      int    `json:"max_retries"`
	BackoffMS       int    `json:"backoff_ms"`

	TLSConfig *tls.Config `json:"-"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.ClientID == "" {
		c.ClientID = "fieldops-advisories"
	}
	if c.SuggestionTopic == "" {
		c.SuggestionTopic = "fieldops/advisories/support"
	}
	if c.TriageTopic == "" {
		c.TriageTopic = "fieldops/advisories/triage"
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	if c.BackoffMS <= 0 {
		c.BackoffMS = 100
	}
}

// Validate checks mandatory fields when the publisher is enabled.
func (c Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Broker == "" {
		return fmt.Errorf("mqtt broker is required")
	}
	return nil
}

// LoadTLSConfig loads the TLS configuration from the file paths in the config.
func (c Config) LoadTLSConfig() (*tls.Config, error) {
	if c.TLSConfig != nil {
		return c.TLSConfig, nil
	}
	if c.ClientCert == "" || c.ClientKey == "" || c.CABundle == "" {
		return nil, fmt.Errorf("tls config requires client_cert, client_key and ca_bundle")
	}
	cert, err := tls.LoadX509KeyPair(c.ClientCert, c.ClientKey)
	if err != nil {
		return nil, fmt.Errorf("load cert: %w", err)
	}
	caBytes, err := os.ReadFile(c.CABundle)
	if err != nil {
		return nil, fmt.Errorf("read ca: %w", err)
	}
	pool := x509.NewCertPool()
	pool.AppendCertsFromPEM(caBytes)
	return &tls.Config{Certificates: []tls.Certificate{cert}, RootCAs: pool, MinVersion: tls.VersionTLS12}, nil
}

type pahoClient interface {
	IsConnected() bool
	Connect() paho.Token
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
}

// PahoClient implements AdvisoryPublisher using Eclipse Paho.
type PahoClient struct {
	cli        pahoClient
	cfg        Config
	logger     logger.Logger
	maxRetries int
	backoff    time.Duration
}

var newMQTTClient = func(opts *paho.ClientOptions) pahoClient {
	return paho.NewClient(opts)
}

// NewPahoClient connects to the MQTT broker.
func NewPahoClient(cfg Config) (*PahoClient, error) {
	cfg.SetDefaults()
	opts, err := NewClientOptions(cfg)
	if err != nil {
		return nil, err
	}
	log := infralogger.New("mqtt_client")
	opts.OnConnect = func(paho.Client) {
		log.Infof("MQTT connected")
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		log.Errorf("connection lost: %v", err)
	}
	opts.OnReconnecting = func(_ paho.Client, _ *paho.ClientOptions) {
		log.Warnf("reconnecting to MQTT broker")
	}
	c := newMQTTClient(opts)
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	return &PahoClient{
		cli:        c,
		cfg:        cfg,
		logger:     log,
		maxRetries: cfg.MaxRetries,
		backoff:    time.Duration(cfg.BackoffMS) * time.Millisecond,
	}, nil
}

// NewClientOptions builds mqtt client options from Config.
func NewClientOptions(cfg Config) (*paho.ClientOptions, error) {
	opts := paho.NewClientOptions().AddBroker(cfg.Broker).SetClientID(cfg.ClientID)
	opts.AutoReconnect = true
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}
	if cfg.UseTLS {
		tlsCfg, err := cfg.LoadTLSConfig()
		if err != nil {
			return nil, err
		}
		opts.SetTLSConfig(tlsCfg)
	}
	return opts, nil
}

// PublishSuggestion publishes one support advisory as JSON.
func (p *PahoClient) PublishSuggestion(orderID string, sg workload.SupportSuggestion) error {
	msg := struct {
		AdvisoryID   string `json:"advisory_id"`
		OrderID      string `json:"order_id"`
		Suggested    bool   `json:"suggested"`
		TechnicianID string `json:"technician_id,omitempty"`
		Reason       string `json:"reason,omitempty"`
		Timestamp    int64  `json:"timestamp"`
	}{
		AdvisoryID:   uuid.NewString(),
		OrderID:      orderID,
		Suggested:    sg.Suggested,
		TechnicianID: sg.TechnicianID,
		Reason:       sg.Reason,
		Timestamp:    time.Now().UnixMilli(),
	}
	return p.publish(p.cfg.SuggestionTopic, msg)
}

// PublishTriage publishes the tier counts of one triage pass as JSON.
func (p *PahoClient) PublishTriage(ev coremetrics.TriageEvent) error {
	msg := struct {
		TierCounts map[string]int `json:"tier_counts"`
		Orders     int            `json:"orders"`
		Timestamp  int64          `json:"timestamp"`
	}{
		TierCounts: ev.TierCounts,
		Orders:     ev.Orders,
		Timestamp:  ev.Time.UnixMilli(),
	}
	return p.publish(p.cfg.TriageTopic, msg)
}

func (p *PahoClient) publish(topic string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var publishErr error
	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		token := p.cli.Publish(topic, p.cfg.QoS, false, payload)
		token.Wait()
		publishErr = token.Error()
		if publishErr == nil {
			p.logger.Debugf("published advisory to %s", topic)
			return nil
		}
		p.logger.Errorf("publish attempt %d failed: %v", attempt+1, publishErr)
		time.Sleep(p.backoff * time.Duration(1<<attempt))
	}
	return publishErr
}

// Disconnect gracefully closes the MQTT connection.
func (p *PahoClient) Disconnect() {
	if p.cli != nil && p.cli.IsConnected() {
		p.cli.Disconnect(250)
	}
}
