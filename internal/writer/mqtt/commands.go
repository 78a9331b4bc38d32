// internal/writer/mqtt/commands.go
package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/tamzrod/uss-master/internal/config"
	"github.com/tamzrod/uss-master/internal/poller"
	"github.com/tamzrod/uss-master/internal/uss"
)

type controlCommand struct {
	Set   []string `json:"set"`
	Clear []string `json:"clear"`
}

type paramCommand struct {
	Number uint16  `json:"number"`
	Type   string  `json:"type"`
	Value  float64 `json:"value"`
}

type paramReply struct {
	Number  uint16  `json:"number"`
	Type    string  `json:"type"`
	Value   float64 `json:"value"`
	Outcome int     `json:"outcome"`
	Result  string  `json:"result"`
	Error   string  `json:"error,omitempty"`
}

// handle dispatches one command message. Malformed commands are
// logged and dropped.
func (c *Client) handle(topic string, payload []byte) {
	rest := strings.TrimPrefix(topic, c.root+"/")
	parts := strings.Split(rest, "/")
	if rest == topic || len(parts) != 3 || parts[1] != "cmd" {
		c.log.Debug("mqtt topic ignored", zap.String("topic", topic))
		return
	}

	slave := -1
	for i, seg := range c.topics {
		if seg == parts[0] {
			slave = i
			break
		}
	}
	if slave < 0 {
		c.log.Warn("mqtt command for unknown slave", zap.String("topic", topic))
		return
	}

	var err error
	switch parts[2] {
	case "setpoint":
		err = c.handleSetpoint(slave, payload)
	case "control":
		err = c.handleControl(slave, payload)
	case "param":
		err = c.handleParam(slave, payload)
	default:
		err = fmt.Errorf("unknown command %q", parts[2])
	}

	if err != nil {
		c.log.Warn("mqtt command rejected",
			zap.String("topic", topic),
			zap.Error(err),
		)
	}
}

func (c *Client) handleSetpoint(slave int, payload []byte) error {
	v, err := strconv.ParseUint(strings.TrimSpace(string(payload)), 0, 16)
	if err != nil {
		return fmt.Errorf("setpoint: %w", err)
	}
	c.cmd.SetSetpoint(uint16(v), slave)
	c.log.Info("setpoint changed", zap.Int("slave", slave), zap.Uint64("value", v))
	return nil
}

func (c *Client) handleControl(slave int, payload []byte) error {
	var cmd controlCommand
	if err := json.Unmarshal(payload, &cmd); err != nil {
		return fmt.Errorf("control: %w", err)
	}

	set, err := flagWord(cmd.Set)
	if err != nil {
		return err
	}
	clr, err := flagWord(cmd.Clear)
	if err != nil {
		return err
	}

	if clr != 0 {
		c.cmd.ClearCtlFlag(clr, slave)
	}
	if set != 0 {
		c.cmd.SetCtlFlag(set, slave)
	}
	c.log.Info("control flags changed",
		zap.Int("slave", slave),
		zap.Uint16("set", set),
		zap.Uint16("clear", clr),
	)
	return nil
}

func flagWord(names []string) (uint16, error) {
	var w uint16
	for _, n := range names {
		f, ok := config.ControlFlags[n]
		if !ok {
			return 0, fmt.Errorf("control: unknown flag %q", n)
		}
		w |= f
	}
	return w, nil
}

// handleParam validates the request and runs it on the scan loop without
// blocking the MQTT router.
func (c *Client) handleParam(slave int, payload []byte) error {
	var cmd paramCommand
	if err := json.Unmarshal(payload, &cmd); err != nil {
		return fmt.Errorf("param: %w", err)
	}

	pc := config.ParameterConfig{Number: cmd.Number, Type: cmd.Type, Value: cmd.Value}
	if err := config.ValidateParameter(pc); err != nil {
		return err
	}
	kind, err := poller.ParseParamKind(cmd.Type)
	if err != nil {
		return err
	}

	req := poller.ParamRequest{Slave: slave, Number: cmd.Number, Kind: kind, Value: cmd.Value}
	go c.runParam(slave, cmd, req)
	return nil
}

func (c *Client) runParam(slave int, cmd paramCommand, req poller.ParamRequest) {
	ctx, cancel := context.WithTimeout(context.Background(), paramTimeout)
	defer cancel()

	reply := paramReply{Number: cmd.Number, Type: cmd.Type, Value: cmd.Value}

	res, err := c.cmd.Submit(ctx, req)
	if err != nil {
		res.Outcome = uss.OutcomeNoResponse
	} else {
		err = res.Failure()
		if hook := c.paramHook(); hook != nil {
			hook(slave, res)
		}
	}

	reply.Outcome = int(res.Outcome)
	reply.Result = res.Outcome.String()
	if err != nil {
		reply.Error = err.Error()
	}

	b, _ := json.Marshal(reply)
	topic, _ := c.slaveTopic(slave)
	if err := c.publish(topic+"/param/result", false, b); err != nil {
		c.log.Warn("param result publish failed", zap.Error(err))
	}
}
