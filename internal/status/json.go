package status

import (
	"encoding/json"
	"time"

	"github.com/sweeney/helium/internal/telemetry"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string                    `json:"event,omitempty"`
	Reason        string                    `json:"reason,omitempty"`
	FlightID      string                    `json:"flight_id"`
	Mode          string                    `json:"mode"`
	ModeSince     string                    `json:"mode_since"`
	GPSOwner      string                    `json:"gps_owner"`
	UptimeSeconds int64                     `json:"uptime_seconds"`
	StartTime     string                    `json:"start_time"`
	Timestamp     string                    `json:"timestamp"`
	MQTT          MQTTStatus                `json:"mqtt"`
	Counts        CountsJSON                `json:"transition_counts"`
	Sentences     SentencesJSON             `json:"sentences"`
	Jobs          []JobJSON                 `json:"jobs"`
	Sensors       *telemetry.SensorSnapshot `json:"sensors,omitempty"`
	Fix           *telemetry.FixSnapshot    `json:"fix,omitempty"`
	Network       *NetworkJSON              `json:"network,omitempty"`
	Config        ConfigJSON                `json:"config"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
	Buffered  int    `json:"buffered"`
}

// CountsJSON is the JSON representation of mode transition counts.
type CountsJSON struct {
	Launch  int `json:"launch"`
	Ascent  int `json:"ascent"`
	Descent int `json:"descent"`
}

// SentencesJSON counts NMEA sentences decoded per type.
type SentencesJSON struct {
	ByType map[string]int `json:"by_type"`
	Errors int            `json:"errors"`
}

// JobJSON is one scheduler job.
type JobJSON struct {
	ID         string `json:"id"`
	IntervalMs int64  `json:"interval_ms"`
	LastRun    string `json:"last_run,omitempty"`
	Runs       int    `json:"runs"`
	Failures   int    `json:"failures"`
}

// NetworkJSON is the JSON representation of network info.
type NetworkJSON struct {
	Type       string `json:"type"`
	IP         string `json:"ip"`
	Status     string `json:"status"`
	Gateway    string `json:"gateway"`
	WifiStatus string `json:"wifi_status"`
	SSID       string `json:"ssid"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	PollMs       int64  `json:"poll_ms"`
	HeartbeatMs  int64  `json:"heartbeat_ms"`
	ListenMs     int64  `json:"gps_listen_ms"`
	GrantMs      int64  `json:"gps_grant_interval_ms"`
	TrendSamples int    `json:"trend_samples"`
	Broker       string `json:"broker"`
	HTTPAddr     string `json:"http_addr"`
	StorePath    string `json:"store_path"`
}

func buildInner(snap Snapshot) StatusInner {
	owner := snap.GPSOwner
	if owner == "" {
		owner = "UNKNOWN"
	}
	sentences := snap.Sentences
	if sentences == nil {
		sentences = map[string]int{}
	}

	inner := StatusInner{
		FlightID:      snap.FlightID,
		Mode:          snap.Mode.String(),
		GPSOwner:      owner,
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker, Buffered: snap.MQTTBuffered},
		Counts: CountsJSON{
			Launch:  snap.Counts.Launch,
			Ascent:  snap.Counts.Ascent,
			Descent: snap.Counts.Descent,
		},
		Sentences: SentencesJSON{ByType: sentences, Errors: snap.SentenceErrors},
		Jobs:      make([]JobJSON, 0, len(snap.Jobs)),
		Sensors:   snap.Sensors,
		Fix:       snap.Fix,
		Config: ConfigJSON{
			PollMs:       snap.Config.PollMs,
			HeartbeatMs:  snap.Config.HeartbeatMs,
			ListenMs:     snap.Config.ListenMs,
			GrantMs:      snap.Config.GrantMs,
			TrendSamples: snap.Config.TrendSamples,
			Broker:       snap.Config.Broker,
			HTTPAddr:     snap.Config.HTTPAddr,
			StorePath:    snap.Config.StorePath,
		},
	}
	if !snap.ModeSince.IsZero() {
		inner.ModeSince = snap.ModeSince.UTC().Format(time.RFC3339)
	}
	for _, j := range snap.Jobs {
		jj := JobJSON{
			ID:         string(j.ID),
			IntervalMs: j.Interval.Milliseconds(),
			Runs:       j.Runs,
			Failures:   j.Failures,
		}
		if j.Runs > 0 {
			jj.LastRun = j.LastRun.UTC().Format(time.RFC3339)
		}
		inner.Jobs = append(inner.Jobs, jj)
	}
	return inner
}

func buildNetwork(snap Snapshot, inner *StatusInner) {
	if snap.Network != nil {
		inner.Network = &NetworkJSON{
			Type:       snap.Network.Type,
			IP:         snap.Network.IP,
			Status:     snap.Network.Status,
			Gateway:    snap.Network.Gateway,
			WifiStatus: snap.Network.WifiStatus,
			SSID:       snap.Network.SSID,
		}
	}
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	inner := buildInner(snap)
	buildNetwork(snap, &inner)

	data, _ := json.MarshalIndent(StatusJSON{Status: inner}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason
	buildNetwork(snap, &inner)

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
