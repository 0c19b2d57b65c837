package irrigation

import (
	"time"

	"github.com/oshokin/irrigation/internal/clock"
	domain "github.com/oshokin/irrigation/internal/domain/irrigation"
)

// okResponse is the body of every successful legacy command.
type okResponse struct {
	OK bool `json:"ok"`
}

// legacyInfo is the /get_info body.
type legacyInfo struct {
	Time       string         `json:"time"`
	ManualMode bool           `json:"manual_mode"`
	Aspersores []legacyDevice `json:"aspersores"`
}

// legacyDevice is one entry of legacyInfo.Aspersores.
type legacyDevice struct {
	Name     string `json:"name"`
	Pin      int    `json:"pin"`
	On       bool   `json:"on"`
	InitTime uint32 `json:"init_time"`
	Duration uint32 `json:"duration"`
}

// StatusResponse is the /api/v1/status body.
type StatusResponse struct {
	Time        time.Time        `json:"time"`
	Epoch       int64            `json:"epoch"`
	ClockOffset int64            `json:"clock_offset"`
	Mode        string           `json:"mode"`
	ManualMode  bool             `json:"manual_mode"`
	Devices     []DeviceResponse `json:"devices"`
}

// DeviceResponse describes one valve in StatusResponse.
type DeviceResponse struct {
	Name            string `json:"name"`
	Pin             int    `json:"pin"`
	On              bool   `json:"on"`
	Start           string `json:"start"`
	StartSeconds    uint32 `json:"start_seconds"`
	DurationSeconds uint32 `json:"duration_seconds"`
}

// ScheduleRequest is the /api/v1/devices/{name}/schedule body.
type ScheduleRequest struct {
	StartSeconds    uint32 `json:"start_seconds"`
	DurationSeconds uint32 `json:"duration_seconds"`
}

// ClockSyncRequest is the /api/v1/clock/sync body.
type ClockSyncRequest struct {
	Epoch int64 `json:"epoch"`
}

// ClockSyncResponse reports the new offset.
type ClockSyncResponse struct {
	Offset int64 `json:"offset"`
}

// ModeResponse reports the mode after a toggle.
type ModeResponse struct {
	Mode       string `json:"mode"`
	ManualMode bool   `json:"manual_mode"`
}

// DeviceToggleResponse reports a valve after a toggle.
type DeviceToggleResponse struct {
	Name string `json:"name"`
	On   bool   `json:"on"`
}

// errorResponse is the body of every failed /api/v1 request.
type errorResponse struct {
	Error string `json:"error"`
}

func toLegacyInfo(s domain.Snapshot) legacyInfo {
	info := legacyInfo{
		Time:       s.Time.Format(time.RFC3339),
		ManualMode: s.ManualMode,
		Aspersores: make([]legacyDevice, 0, len(s.Devices)),
	}

	for _, d := range s.Devices {
		info.Aspersores = append(info.Aspersores, legacyDevice{
			Name:     d.Name,
			Pin:      d.Pin,
			On:       d.IsOn,
			InitTime: d.Schedule.StartOffsetSeconds,
			Duration: d.Schedule.DurationSeconds,
		})
	}

	return info
}

func toStatusResponse(s domain.Snapshot) StatusResponse {
	resp := StatusResponse{
		Time:        s.Time,
		Epoch:       s.Time.Unix(),
		ClockOffset: s.ClockOffset,
		Mode:        domain.Mode(s.ManualMode).String(),
		ManualMode:  s.ManualMode,
		Devices:     make([]DeviceResponse, 0, len(s.Devices)),
	}

	for _, d := range s.Devices {
		resp.Devices = append(resp.Devices, DeviceResponse{
			Name:            d.Name,
			Pin:             d.Pin,
			On:              d.IsOn,
			Start:           clock.FormatTimeOfDay(d.Schedule.StartOffsetSeconds),
			StartSeconds:    d.Schedule.StartOffsetSeconds,
			DurationSeconds: d.Schedule.DurationSeconds,
		})
	}

	return resp
}
