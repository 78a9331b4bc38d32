// internal/writer/mqtt/client_test.go
package mqtt

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/require"

	"github.com/tamzrod/uss-master/internal/config"
	"github.com/tamzrod/uss-master/internal/poller"
	"github.com/tamzrod/uss-master/internal/status"
	"github.com/tamzrod/uss-master/internal/uss"
)

type published struct {
	topic    string
	retained bool
	payload  []byte
}

type fakePublisher struct {
	mu   sync.Mutex
	msgs []published
	sent chan published
}

func newFakePublisher() *fakePublisher {
	return &fakePublisher{sent: make(chan published, 16)}
}

func (f *fakePublisher) Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token {
	p := published{topic: topic, retained: retained, payload: payload.([]byte)}
	f.mu.Lock()
	f.msgs = append(f.msgs, p)
	f.mu.Unlock()
	f.sent <- p
	return &paho.DummyToken{}
}

type fakeCommander struct {
	mu       sync.Mutex
	setpoint map[int]uint16
	ctl      map[int]uint16
	reqs     []poller.ParamRequest
	outcome  uss.Outcome
}

func newFakeCommander() *fakeCommander {
	return &fakeCommander{setpoint: map[int]uint16{}, ctl: map[int]uint16{}}
}

func (f *fakeCommander) SetSetpoint(value uint16, slave int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.setpoint[slave] = value
}

func (f *fakeCommander) SetCtlFlag(flags uint16, slave int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ctl[slave] |= flags
}

func (f *fakeCommander) ClearCtlFlag(flags uint16, slave int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ctl[slave] &^= flags
}

func (f *fakeCommander) Submit(ctx context.Context, req poller.ParamRequest) (poller.ParamResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reqs = append(f.reqs, req)
	return poller.ParamResult{Request: req, Outcome: f.outcome}, nil
}

func testClient(pub publisher, cmd Commander) *Client {
	c := newClient(pub, config.MQTTConfig{TopicPrefix: "plant/"}, "line-1", []Slave{
		{Name: "pump 1", Address: 3},
		{Name: "fan", Address: 4},
	}, cmd, nil)
	c.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }
	return c
}

func TestTopics(t *testing.T) {
	c := testClient(newFakePublisher(), newFakeCommander())
	require.Equal(t, "plant/line-1", c.root)

	topic, err := c.slaveTopic(0)
	require.NoError(t, err)
	require.Equal(t, "plant/line-1/pump_1", topic)

	_, err = c.slaveTopic(2)
	require.Error(t, err)
}

func TestCheckTopics_RejectsSharedTopic(t *testing.T) {
	require.NoError(t, testClient(newFakePublisher(), newFakeCommander()).checkTopics())

	c := newClient(newFakePublisher(), config.MQTTConfig{TopicPrefix: "plant"}, "line-1", []Slave{
		{Name: "pump 1", Address: 3},
		{Name: "pump/1", Address: 4},
	}, newFakeCommander(), nil)
	require.ErrorContains(t, c.checkTopics(), "plant/line-1/pump_1")
}

func TestWriteStatus_PublishesRetainedTelemetry(t *testing.T) {
	pub := newFakePublisher()
	c := testClient(pub, newFakeCommander())

	err := c.WriteStatus(1, status.Snapshot{
		Health:      status.HealthFault,
		StatusWord:  uss.StatusFault | uss.StatusReady,
		ActualValue: 0x1234,
	})
	require.NoError(t, err)

	require.Len(t, pub.msgs, 1)
	msg := pub.msgs[0]
	require.Equal(t, "plant/line-1/fan/status", msg.topic)
	require.True(t, msg.retained)

	var tm Telemetry
	require.NoError(t, json.Unmarshal(msg.payload, &tm))
	require.Equal(t, 1, tm.Slave)
	require.Equal(t, byte(4), tm.Address)
	require.Equal(t, "fault", tm.Health)
	require.Equal(t, uint16(0x1234), tm.ActualValue)
	require.True(t, tm.Flags["fault"])
	require.True(t, tm.Flags["ready"])
	require.False(t, tm.Flags["op_enabled"])

	require.Error(t, c.WriteStatus(9, status.Snapshot{}))
}

func TestHandle_Setpoint(t *testing.T) {
	cmd := newFakeCommander()
	c := testClient(newFakePublisher(), cmd)

	c.handle("plant/line-1/fan/cmd/setpoint", []byte("0x2000"))
	c.handle("plant/line-1/pump_1/cmd/setpoint", []byte(" 100 "))
	c.handle("plant/line-1/fan/cmd/setpoint", []byte("70000")) // out of range, dropped

	require.Equal(t, uint16(0x2000), cmd.setpoint[1])
	require.Equal(t, uint16(100), cmd.setpoint[0])
}

func TestHandle_Control(t *testing.T) {
	cmd := newFakeCommander()
	cmd.ctl[0] = uss.CtlOff2
	c := testClient(newFakePublisher(), cmd)

	c.handle("plant/line-1/pump_1/cmd/control", []byte(`{"set":["on_off1","enable"],"clear":["off2"]}`))
	require.Equal(t, uss.CtlOnOff1|uss.CtlEnable, cmd.ctl[0])

	// unknown flag rejects the whole command
	c.handle("plant/line-1/pump_1/cmd/control", []byte(`{"set":["jog"]}`))
	require.Equal(t, uss.CtlOnOff1|uss.CtlEnable, cmd.ctl[0])
}

func TestHandle_IgnoresForeignTopics(t *testing.T) {
	cmd := newFakeCommander()
	c := testClient(newFakePublisher(), cmd)

	c.handle("other/line-1/fan/cmd/setpoint", []byte("1"))
	c.handle("plant/line-1/ghost/cmd/setpoint", []byte("1"))
	c.handle("plant/line-1/fan/status", []byte("1"))
	c.handle("plant/line-1/fan/cmd/reboot", []byte("1"))

	require.Empty(t, cmd.setpoint)
}

func TestHandle_ParamPublishesResult(t *testing.T) {
	pub := newFakePublisher()
	cmd := newFakeCommander()
	cmd.outcome = uss.OutcomeIllegalParameter
	c := testClient(pub, cmd)

	type hookCall struct {
		slave int
		res   poller.ParamResult
	}
	hooked := make(chan hookCall, 1)
	c.SetParamHook(func(slave int, res poller.ParamResult) {
		hooked <- hookCall{slave, res}
	})

	c.handle("plant/line-1/fan/cmd/param", []byte(`{"number":1120,"type":"float","value":1.5}`))

	var msg published
	select {
	case msg = <-pub.sent:
	case <-time.After(2 * time.Second):
		t.Fatal("no param result published")
	}
	require.Equal(t, "plant/line-1/fan/param/result", msg.topic)

	var reply paramReply
	require.NoError(t, json.Unmarshal(msg.payload, &reply))
	require.Equal(t, -3, reply.Outcome)
	require.Equal(t, "illegal parameter", reply.Result)
	require.NotEmpty(t, reply.Error)

	call := <-hooked
	require.Equal(t, 1, call.slave)
	require.Equal(t, poller.ParamRequest{Slave: 1, Number: 1120, Kind: poller.ParamFloat, Value: 1.5}, call.res.Request)
}

func TestHandle_ParamValidation(t *testing.T) {
	cmd := newFakeCommander()
	c := testClient(newFakePublisher(), cmd)

	c.handle("plant/line-1/fan/cmd/param", []byte(`{"number":700,"type":"word","value":1.5}`))
	c.handle("plant/line-1/fan/cmd/param", []byte(`not json`))

	time.Sleep(50 * time.Millisecond)
	cmd.mu.Lock()
	defer cmd.mu.Unlock()
	require.Empty(t, cmd.reqs)
}
