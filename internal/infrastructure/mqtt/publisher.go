package mqtt

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/fractalxaos/radmond/internal/record"
)

// Status payload values for the retained availability topic.
const (
	StatusOnline  = "online"
	StatusOffline = "offline"
)

// measurement is the JSON shape published for each converted record.
type measurement struct {
	Time     int64   `json:"time"`
	Mode     string  `json:"mode"`
	CPM      int     `json:"cpm"`
	CPS      int     `json:"cps"`
	USvPerHr float64 `json:"usv_per_hr"`
}

// Publisher emits measurement records and monitor availability on the
// agent's MQTT topics.
type Publisher struct {
	client *Client
}

// NewPublisher wraps a connected client.
func NewPublisher(client *Client) *Publisher {
	return &Publisher{client: client}
}

// PublishMeasurement publishes one converted record as JSON on the
// measurement topic. The record must have passed conversion; raw device
// fields are rejected.
func (p *Publisher) PublishMeasurement(rec record.Fields) error {
	payload, err := buildMeasurementPayload(rec)
	if err != nil {
		return err
	}
	return p.client.Publish(p.client.topics.Measurement(), payload, byte(p.client.cfg.QoS), false)
}

// PublishStatus publishes the monitor's availability as a retained
// message on the status topic.
func (p *Publisher) PublishStatus(online bool) error {
	status := StatusOffline
	if online {
		status = StatusOnline
	}
	return p.client.PublishRetained(p.client.topics.Status(), []byte(status))
}

// buildMeasurementPayload marshals a converted record. Every field is
// required; a record that skipped conversion fails here rather than
// producing a partial payload.
func buildMeasurementPayload(rec record.Fields) ([]byte, error) {
	epoch, ok := rec.Epoch()
	if !ok {
		return nil, fmt.Errorf("%w: record has no epoch timestamp", ErrPublishFailed)
	}
	mode, ok := rec.Mode()
	if !ok {
		return nil, fmt.Errorf("%w: record has no mode", ErrPublishFailed)
	}
	cpm, ok := rec.CPM()
	if !ok {
		return nil, fmt.Errorf("%w: record has no CPM reading", ErrPublishFailed)
	}
	cps, ok := rec.CPS()
	if !ok {
		return nil, fmt.Errorf("%w: record has no CPS reading", ErrPublishFailed)
	}
	doseStr, ok := rec.DoseRate()
	if !ok {
		return nil, fmt.Errorf("%w: record has no dose rate", ErrPublishFailed)
	}
	dose, err := strconv.ParseFloat(doseStr, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed dose rate %q", ErrPublishFailed, doseStr)
	}

	return json.Marshal(measurement{
		Time:     epoch,
		Mode:     mode,
		CPM:      cpm,
		CPS:      cps,
		USvPerHr: dose,
	})
}
