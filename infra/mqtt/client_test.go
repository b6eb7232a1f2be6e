package mqtt

import (
	"encoding/json"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeToken struct {
	err error
}

func (t *fakeToken) Wait() bool                     { return true }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return true }
func (t *fakeToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
func (t *fakeToken) Error() error { return t.err }

type fakeClient struct {
	connected bool
	published map[string][]byte
}

func (f *fakeClient) IsConnected() bool { return f.connected }
func (f *fakeClient) Connect() paho.Token {
	f.connected = true
	return &fakeToken{}
}
func (f *fakeClient) Disconnect(uint) { f.connected = false }
func (f *fakeClient) Publish(topic string, _ byte, _ bool, payload interface{}) paho.Token {
	if f.published == nil {
		f.published = make(map[string][]byte)
	}
	f.published[topic] = payload.([]byte)
	return &fakeToken{}
}

func withFakeClient(t *testing.T) *fakeClient {
	t.Helper()
	fc := &fakeClient{}
	orig := newMQTTClient
	newMQTTClient = func(*paho.ClientOptions) pahoClient { return fc }
	t.Cleanup(func() { newMQTTClient = orig })
	return fc
}

func TestPahoPublisher_PublishesEvents(t *testing.T) {
	fc := withFakeClient(t)
	pub, err := NewPahoPublisher(Config{Broker: "tcp://localhost:1883", ClientID: "test"})
	require.NoError(t, err)
	defer pub.Close()

	run := RunEvent{RunID: "run-1", ScheduledCount: 4, SuccessRate: 0.8}
	require.NoError(t, pub.PublishRun(run))

	payload, ok := fc.published[defaultRunTopic]
	require.True(t, ok, "run event should land on the default run topic")
	var got RunEvent
	require.NoError(t, json.Unmarshal(payload, &got))
	assert.Equal(t, "run-1", got.RunID)
	assert.Equal(t, 4, got.ScheduledCount)

	require.NoError(t, pub.PublishPlan(PlanEvent{RunID: "run-1", PlanID: "plan-9", Status: "scheduled"}))
	_, ok = fc.published[defaultPlanTopic+"/plan-9"]
	assert.True(t, ok, "plan event topic should carry the plan ID")
}

func TestPahoPublisher_CloseDisconnects(t *testing.T) {
	fc := withFakeClient(t)
	pub, err := NewPahoPublisher(Config{Broker: "tcp://localhost:1883", ClientID: "test"})
	require.NoError(t, err)

	pub.Close()
	assert.False(t, fc.connected)
}

func TestLoadTLSConfig_RequiresAllFiles(t *testing.T) {
	_, err := Config{UseTLS: true}.LoadTLSConfig()
	assert.Error(t, err)
}

func TestMockPublisherRecords(t *testing.T) {
	m := NewMockPublisher()
	require.NoError(t, m.PublishRun(RunEvent{RunID: "r"}))
	require.NoError(t, m.PublishPlan(PlanEvent{PlanID: "p"}))
	assert.Len(t, m.Runs, 1)
	assert.Len(t, m.Plans, 1)
}
