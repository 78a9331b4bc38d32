// internal/uss/param.go
package uss

import "math"

// paramChannel holds the in-flight parameter request of one slave.
// PKE == ParamValueEmpty means idle.
type paramChannel struct {
	req PKW
}

func newParamChannel() paramChannel {
	return paramChannel{req: PKW{PKE: ParamValueEmpty}}
}

func (c *paramChannel) pending() bool {
	return c.req.PKE != ParamValueEmpty
}

func (c *paramChannel) clear() {
	c.req = PKW{PKE: ParamValueEmpty}
}

// requestWord overwrites any pending request (last write wins).
func (c *paramChannel) requestWord(param, value uint16) {
	c.req = PKW{
		PKE:    (param & PKEParamMask) | AKChwPWE,
		PWELow: value,
	}
}

func (c *paramChannel) requestDword(param uint16, value uint32) {
	c.req = PKW{
		PKE:     (param & PKEParamMask) | AKChdPWE,
		PWEHigh: uint16(value >> 16),
		PWELow:  uint16(value),
	}
}

func (c *paramChannel) requestFloat(param uint16, value float32) {
	c.requestDword(param, math.Float32bits(value))
}

// outbound returns the PKW area to transmit: the pending request,
// or an all-zero no-task area.
func (c *paramChannel) outbound() PKW {
	if c.pending() {
		return c.req
	}
	return PKW{PKE: AKNoTask}
}

// resolve interprets the slave's acknowledgment and returns to idle,
// whatever the outcome.
func (c *paramChannel) resolve(resp PKW) Outcome {
	c.clear()
	return ackOutcome(resp)
}

func ackOutcome(resp PKW) Outcome {
	switch resp.AK() {
	case AKNoResp:
		return OutcomeNoResponse
	case AKNoRights:
		return OutcomeAccessDenied
	case AKCantExecute:
		// error number travels in the low value word; 0 = illegal PNU
		if resp.PWELow == 0 {
			return OutcomeIllegalParameter
		}
		return Outcome(resp.PWELow)
	}
	return OutcomeSuccess
}
