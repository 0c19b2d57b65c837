package irrigation

import (
	"errors"
	"fmt"
	"math"
	"time"

	"google.golang.org/protobuf/types/known/structpb"

	domain "github.com/oshokin/irrigation/internal/domain/irrigation"
)

// Struct field names of the snapshot and schedule messages.
const (
	fieldTime            = "time"
	fieldClockOffset     = "clock_offset"
	fieldManualMode      = "manual_mode"
	fieldDevices         = "devices"
	fieldName            = "name"
	fieldPin             = "pin"
	fieldOn              = "on"
	fieldStartSeconds    = "start_seconds"
	fieldDurationSeconds = "duration_seconds"
)

var errMalformedMessage = errors.New("malformed message")

// SnapshotToStruct encodes a snapshot.
func SnapshotToStruct(s domain.Snapshot) *structpb.Struct {
	devices := make([]*structpb.Value, 0, len(s.Devices))

	for _, d := range s.Devices {
		devices = append(devices, structpb.NewStructValue(&structpb.Struct{
			Fields: map[string]*structpb.Value{
				fieldName:            structpb.NewStringValue(d.Name),
				fieldPin:             structpb.NewNumberValue(float64(d.Pin)),
				fieldOn:              structpb.NewBoolValue(d.IsOn),
				fieldStartSeconds:    structpb.NewNumberValue(float64(d.Schedule.StartOffsetSeconds)),
				fieldDurationSeconds: structpb.NewNumberValue(float64(d.Schedule.DurationSeconds)),
			},
		}))
	}

	return &structpb.Struct{
		Fields: map[string]*structpb.Value{
			fieldTime:        structpb.NewStringValue(s.Time.Format(time.RFC3339)),
			fieldClockOffset: structpb.NewNumberValue(float64(s.ClockOffset)),
			fieldManualMode:  structpb.NewBoolValue(s.ManualMode),
			fieldDevices:     structpb.NewListValue(&structpb.ListValue{Values: devices}),
		},
	}
}

// SnapshotFromStruct decodes a snapshot produced by SnapshotToStruct.
func SnapshotFromStruct(msg *structpb.Struct) (domain.Snapshot, error) {
	fields := msg.GetFields()

	at, err := time.Parse(time.RFC3339, fields[fieldTime].GetStringValue())
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("%w: time: %w", errMalformedMessage, err)
	}

	offset, err := integer(fields, fieldClockOffset, math.MinInt64, math.MaxInt64)
	if err != nil {
		return domain.Snapshot{}, err
	}

	snapshot := domain.Snapshot{
		Time:        at,
		ClockOffset: offset,
		ManualMode:  fields[fieldManualMode].GetBoolValue(),
	}

	for i, v := range fields[fieldDevices].GetListValue().GetValues() {
		device, err := deviceFromStruct(v.GetStructValue())
		if err != nil {
			return domain.Snapshot{}, fmt.Errorf("device #%d: %w", i, err)
		}

		snapshot.Devices = append(snapshot.Devices, device)
	}

	return snapshot, nil
}

// ScheduleRequest encodes an UpdateSchedule request.
func ScheduleRequest(name string, startOffsetSeconds, durationSeconds uint32) *structpb.Struct {
	return &structpb.Struct{
		Fields: map[string]*structpb.Value{
			fieldName:            structpb.NewStringValue(name),
			fieldStartSeconds:    structpb.NewNumberValue(float64(startOffsetSeconds)),
			fieldDurationSeconds: structpb.NewNumberValue(float64(durationSeconds)),
		},
	}
}

// parseScheduleRequest decodes an UpdateSchedule request.
func parseScheduleRequest(msg *structpb.Struct) (name string, start, duration uint32, err error) {
	fields := msg.GetFields()

	name = fields[fieldName].GetStringValue()
	if name == "" {
		return "", 0, 0, fmt.Errorf("%w: %s is required", errMalformedMessage, fieldName)
	}

	startValue, err := integer(fields, fieldStartSeconds, 0, math.MaxUint32)
	if err != nil {
		return "", 0, 0, err
	}

	durationValue, err := integer(fields, fieldDurationSeconds, 0, math.MaxUint32)
	if err != nil {
		return "", 0, 0, err
	}

	return name, uint32(startValue), uint32(durationValue), nil
}

func deviceFromStruct(msg *structpb.Struct) (domain.DeviceState, error) {
	fields := msg.GetFields()

	pin, err := integer(fields, fieldPin, 0, math.MaxInt32)
	if err != nil {
		return domain.DeviceState{}, err
	}

	start, err := integer(fields, fieldStartSeconds, 0, math.MaxUint32)
	if err != nil {
		return domain.DeviceState{}, err
	}

	duration, err := integer(fields, fieldDurationSeconds, 0, math.MaxUint32)
	if err != nil {
		return domain.DeviceState{}, err
	}

	return domain.DeviceState{
		Name: fields[fieldName].GetStringValue(),
		Pin:  int(pin),
		IsOn: fields[fieldOn].GetBoolValue(),
		Schedule: domain.Schedule{
			StartOffsetSeconds: uint32(start),
			DurationSeconds:    uint32(duration),
		},
	}, nil
}

// integer reads a whole number field within [lo, hi]. A missing field reads as zero.
func integer(fields map[string]*structpb.Value, name string, lo, hi int64) (int64, error) {
	value, ok := fields[name]
	if !ok {
		return 0, nil
	}

	n, ok := value.GetKind().(*structpb.Value_NumberValue)
	if !ok {
		return 0, fmt.Errorf("%w: %s must be a number", errMalformedMessage, name)
	}

	f := n.NumberValue

	// float64(math.MaxInt64) rounds up to 2^63, which int64 cannot hold.
	tooHigh := f > float64(hi)
	if hi == math.MaxInt64 {
		tooHigh = f >= 0x1p63
	}

	if f != math.Trunc(f) || f < float64(lo) || tooHigh {
		return 0, fmt.Errorf("%w: %s = %v is out of range", errMalformedMessage, name, f)
	}

	return int64(f), nil
}
