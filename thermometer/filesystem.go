package thermometer

import (
	"encoding/hex"
	"io/ioutil"
	"regexp"
	"strconv"
	"strings"

	"github.com/snksoft/crc"
)

// w1Line1 matches the first line of a w1_slave file: the raw bytes in hex
// (the last of which is the device's onboard CRC-8), then "crc=" and the
// same byte again, then "YES" or "NO".
//
//	ab 01 4b 46 7f ff 0c 10 20 : crc=20 YES
var w1Line1 = regexp.MustCompile(`^((?:[0-9a-f]{2} ){9}): crc=[0-9a-f]{2} (YES|NO)`)

// w1Line2 matches the second line, holding the parsed millidegree reading.
//
//	ab 01 4b 46 7f ff 0c 10 20 t=26687
var w1Line2 = regexp.MustCompile(`t=(-?\d+)`)

// FilesystemSensor reads one or more 1-wire device files and reports the
// reading in celsius.  Multiple Paths are reduced through Outlier.
type FilesystemSensor struct {
	Paths   []string
	Outlier OutlierPolicy
}

// NewFilesystemSensor builds a FilesystemSensor with the default outlier
// policy.
func NewFilesystemSensor(paths ...string) FilesystemSensor {
	return FilesystemSensor{Paths: paths, Outlier: DefaultOutlierPolicy()}
}

// Temperature reads every configured device file, validates its CRC and
// integrity marker, and reduces the surviving readings through the outlier
// policy.  Pointer receiver: the outlier policy's "warned once" state is
// mutated across calls.
func (f *FilesystemSensor) Temperature() (float64, error) {
	var readings []float64
	for _, path := range f.Paths {
		v, err := readW1Slave(path)
		if err != nil {
			continue
		}
		readings = append(readings, v)
	}
	if len(readings) == 0 {
		return 0, sensorErr("no 1-wire device file produced a valid reading")
	}
	return f.Outlier.Reduce(readings)
}

func readW1Slave(path string) (float64, error) {
	blob, err := ioutil.ReadFile(path)
	if err != nil {
		return 0, wrapSensorErr(err, "reading 1-wire device file "+path)
	}
	lines := strings.Split(strings.TrimSpace(string(blob)), "\n")
	if len(lines) < 2 {
		return 0, sensorErr("1-wire device file " + path + " is truncated")
	}

	m1 := w1Line1.FindStringSubmatch(lines[0])
	if m1 == nil {
		return 0, sensorErr("1-wire device file " + path + " has a malformed scratchpad line")
	}
	rawBytes, err := decodeHexBytes(m1[1])
	if err != nil {
		return 0, wrapSensorErr(err, "decoding 1-wire scratchpad bytes")
	}
	if !validW1CRC(rawBytes) {
		return 0, sensorErr("1-wire device file " + path + " failed CRC-8 validation")
	}
	if m1[2] != "YES" {
		return 0, sensorErr("1-wire device file " + path + " reported a failed integrity marker")
	}

	m2 := w1Line2.FindStringSubmatch(lines[1])
	if m2 == nil {
		return 0, sensorErr("1-wire device file " + path + " is missing the t= reading")
	}
	milli, err := strconv.Atoi(m2[1])
	if err != nil {
		return 0, wrapSensorErr(err, "parsing millidegree reading")
	}
	return float64(milli) / 1000, nil
}

// decodeHexBytes turns "ab 01 4b 46 7f ff 0c 10 20 " into its 9 raw bytes.
func decodeHexBytes(s string) ([]byte, error) {
	fields := strings.Fields(s)
	out := make([]byte, 0, len(fields))
	for _, f := range fields {
		b, err := hex.DecodeString(f)
		if err != nil {
			return nil, err
		}
		out = append(out, b...)
	}
	return out, nil
}

// validW1CRC recomputes the Maxim/Dallas CRC-8 (the polynomial every
// DS18B20-family part uses for its 9-byte scratchpad) over the first 8
// bytes and compares it against the 9th.
func validW1CRC(scratchpad []byte) bool {
	if len(scratchpad) != 9 {
		return false
	}
	got := crc.CalculateCRC(crc.CRC8MAXIM, scratchpad[:8])
	return byte(got) == scratchpad[8]
}
