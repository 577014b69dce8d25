package mqtt

import (
	"strings"
	"testing"

	"github.com/nerrad567/bvmctl/internal/infrastructure/config"
)

// testConfig returns a valid MQTT configuration for option-building tests.
func testConfig() config.MQTTConfig {
	return config.MQTTConfig{
		Broker: config.MQTTBrokerConfig{
			Host:     "127.0.0.1",
			Port:     1883,
			ClientID: "bvmctl-test",
			TLS:      false,
		},
		QoS: 1,
		Reconnect: config.MQTTReconnectConfig{
			InitialDelay: 1,
			MaxDelay:     5,
		},
	}
}

func TestCloseNil(t *testing.T) {
	client := &Client{}
	err := client.Close()
	if err != nil {
		t.Errorf("Close() on nil client error = %v, want nil", err)
	}
}

// =============================================================================
// Option Building Tests
// =============================================================================

func TestBuildClientOptions(t *testing.T) {
	cfg := testConfig()
	opts := buildClientOptions(cfg)

	servers := opts.Servers
	if len(servers) != 1 {
		t.Fatalf("expected 1 broker, got %d", len(servers))
	}
	if got := servers[0].String(); got != "tcp://127.0.0.1:1883" {
		t.Errorf("broker URL = %q, want tcp://127.0.0.1:1883", got)
	}
	if opts.ClientID != "bvmctl-test" {
		t.Errorf("ClientID = %q", opts.ClientID)
	}
}

func TestBuildClientOptionsTLS(t *testing.T) {
	cfg := testConfig()
	cfg.Broker.TLS = true
	opts := buildClientOptions(cfg)

	if got := opts.Servers[0].Scheme; got != "ssl" {
		t.Errorf("broker scheme = %q, want ssl", got)
	}
}

func TestBuildClientOptionsAuth(t *testing.T) {
	cfg := testConfig()
	cfg.Auth.Username = "user"
	cfg.Auth.Password = "pass"
	opts := buildClientOptions(cfg)

	if opts.Username != "user" || opts.Password != "pass" {
		t.Error("credentials not applied to client options")
	}
}

func TestConfigureLWT(t *testing.T) {
	cfg := testConfig()
	opts := buildClientOptions(cfg)
	configureLWT(opts, cfg.Broker.ClientID)

	if !opts.WillEnabled {
		t.Fatal("LWT not enabled")
	}
	if opts.WillTopic != "bvmctl/system/status" {
		t.Errorf("will topic = %q", opts.WillTopic)
	}
	if !strings.Contains(string(opts.WillPayload), `"status":"offline"`) {
		t.Errorf("will payload = %q, missing offline status", opts.WillPayload)
	}
	if !opts.WillRetained {
		t.Error("will message should be retained")
	}
}

func TestStatusPayloads(t *testing.T) {
	online := buildOnlinePayload("bvmctl-test")
	if !strings.Contains(online, `"status":"online"`) || !strings.Contains(online, "bvmctl-test") {
		t.Errorf("online payload = %q", online)
	}

	offline := buildOfflinePayload("bvmctl-test")
	if !strings.Contains(offline, `"status":"offline"`) || !strings.Contains(offline, "graceful_shutdown") {
		t.Errorf("offline payload = %q", offline)
	}
}

// =============================================================================
// Topics Tests
// =============================================================================

func TestTopicBuilders(t *testing.T) {
	tests := []struct {
		name     string
		builder  func() string
		expected string
	}{
		{
			name:     "State",
			builder:  Topics{}.State,
			expected: "bvmctl/state",
		},
		{
			name:     "CommandToggle",
			builder:  func() string { return Topics{}.Command("toggle") },
			expected: "bvmctl/command/toggle",
		},
		{
			name:     "CommandKnob",
			builder:  func() string { return Topics{}.Command("knob") },
			expected: "bvmctl/command/knob",
		},
		{
			name:     "LinkStats",
			builder:  Topics{}.LinkStats,
			expected: "bvmctl/link/stats",
		},
		{
			name:     "SystemStatus",
			builder:  Topics{}.SystemStatus,
			expected: "bvmctl/system/status",
		},
		{
			name:     "AllCommands",
			builder:  Topics{}.AllCommands,
			expected: "bvmctl/command/+",
		},
		{
			name:     "AllTopics",
			builder:  Topics{}.AllTopics,
			expected: "bvmctl/#",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.builder(); got != tt.expected {
				t.Errorf("topic = %q, want %q", got, tt.expected)
			}
		})
	}
}

// =============================================================================
// Handler Wrapping Tests
// =============================================================================

type recordingLogger struct {
	errors []string
	warns  []string
}

func (l *recordingLogger) Error(msg string, _ ...any) { l.errors = append(l.errors, msg) }
func (l *recordingLogger) Warn(msg string, _ ...any)  { l.warns = append(l.warns, msg) }

func TestSubscriptionTracking(t *testing.T) {
	c := &Client{subscriptions: make(map[string]subscription)}

	c.subMu.Lock()
	c.subscriptions["bvmctl/command/+"] = subscription{topic: "bvmctl/command/+", qos: 1}
	c.subMu.Unlock()

	if !c.HasSubscription("bvmctl/command/+") {
		t.Error("HasSubscription() = false, want true")
	}
	if c.HasSubscription("bvmctl/state") {
		t.Error("HasSubscription() = true for untracked topic")
	}
	if c.SubscriptionCount() != 1 {
		t.Errorf("SubscriptionCount() = %d, want 1", c.SubscriptionCount())
	}
}

func TestSetLogger(t *testing.T) {
	c := &Client{subscriptions: make(map[string]subscription)}
	logger := &recordingLogger{}
	c.SetLogger(logger)

	if got := c.getLogger(); got != logger {
		t.Error("getLogger() did not return the set logger")
	}
}
