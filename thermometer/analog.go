package thermometer

import (
	"strconv"
	"strings"

	"github.com/brandondube/thermod/comm"
)

// ChannelReader reads raw ADC counts from N channels.  AnalogSensor
// converts each count to a voltage via a known reference, then to a
// temperature via a CalFunc, before reducing across channels with an
// OutlierPolicy.
type ChannelReader interface {
	ReadChannels() ([]float64, error)
}

// AnalogSensor is the analog-channel variant from spec section 4.1.
type AnalogSensor struct {
	Channels   ChannelReader
	VRef       float64 // reference voltage, volts
	Resolution uint    // ADC bit depth, e.g. 12 for a 12-bit converter
	Cal        CalFunc
	Outlier    OutlierPolicy
}

// NewAnalogSensor builds an AnalogSensor with identity calibration and the
// default outlier policy.
func NewAnalogSensor(channels ChannelReader, vref float64, resolution uint) AnalogSensor {
	return AnalogSensor{
		Channels:   channels,
		VRef:       vref,
		Resolution: resolution,
		Cal:        Identity,
		Outlier:    DefaultOutlierPolicy(),
	}
}

// Temperature reads all channels, converts each count to a voltage and then
// a calibrated temperature, and reduces across channels with the outlier
// policy.  Pointer receiver: see FilesystemSensor.Temperature.
func (a *AnalogSensor) Temperature() (float64, error) {
	counts, err := a.Channels.ReadChannels()
	if err != nil {
		return 0, wrapSensorErr(err, "reading analog channels")
	}
	if len(counts) == 0 {
		return 0, sensorErr("no analog channels available to reduce")
	}

	fullScale := float64(uint64(1)<<a.Resolution) - 1
	cal := a.Cal
	if cal == nil {
		cal = Identity
	}

	readings := make([]float64, len(counts))
	for i, c := range counts {
		volts := (c / fullScale) * a.VRef
		readings[i] = cal(volts)
	}
	return a.Outlier.Reduce(readings)
}

// LocalADCFunc adapts a bench/test-wired in-process sampling function
// (e.g. a simulated or directly memory-mapped ADC) to ChannelReader.
type LocalADCFunc func() ([]float64, error)

// ReadChannels satisfies ChannelReader.
func (f LocalADCFunc) ReadChannels() ([]float64, error) { return f() }

// SerialADC reads channel counts from a serial-attached ADC board that
// replies to a single query command with a comma-separated list of raw
// counts, one per channel.
type SerialADC struct {
	Device  comm.RemoteDevice
	Command []byte
}

// NewSerialADC wires a comm.RemoteDevice to a ChannelReader.
func NewSerialADC(dev comm.RemoteDevice, command []byte) *SerialADC {
	return &SerialADC{Device: dev, Command: command}
}

// ReadChannels opens the connection if needed, sends Command, and parses
// the ASCII CSV reply into raw ADC counts.
func (s *SerialADC) ReadChannels() ([]float64, error) {
	resp, err := s.Device.OpenSendRecvClose(s.Command)
	if err != nil {
		return nil, wrapSensorErr(err, "querying serial ADC board")
	}
	fields := strings.Split(strings.TrimSpace(string(resp)), ",")
	out := make([]float64, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return nil, wrapSensorErr(err, "parsing serial ADC reply")
		}
		out = append(out, v)
	}
	return out, nil
}
