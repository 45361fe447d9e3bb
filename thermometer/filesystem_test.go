package thermometer

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"
)

func writeW1File(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "w1_slave")
	if err := ioutil.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestReadW1SlaveValid(t *testing.T) {
	// a DS18B20 w1_slave sample whose scratchpad CRC-8 (0x94) checks out.
	path := writeW1File(t, "4e 01 4b 46 7f ff 0e 10 94 : crc=94 YES\n4e 01 4b 46 7f ff 0e 10 94 t=20875\n")
	v, err := readW1Slave(path)
	if err != nil {
		t.Fatal(err)
	}
	if v != 20.875 {
		t.Errorf("expected 20.875, got %f", v)
	}
}

func TestReadW1SlaveBadIntegrityMarker(t *testing.T) {
	path := writeW1File(t, "4e 01 4b 46 7f ff 0e 10 94 : crc=94 NO\n4e 01 4b 46 7f ff 0e 10 94 t=20875\n")
	if _, err := readW1Slave(path); err == nil {
		t.Error("expected a NO integrity marker to be rejected")
	}
}

func TestReadW1SlaveBadCRC(t *testing.T) {
	path := writeW1File(t, "4e 01 4b 46 7f ff 0e 10 00 : crc=00 YES\n4e 01 4b 46 7f ff 0e 10 00 t=20875\n")
	if _, err := readW1Slave(path); err == nil {
		t.Error("expected a corrupted scratchpad to fail CRC validation")
	}
}

func TestFilesystemSensorOutlierAcrossDevices(t *testing.T) {
	pathA := writeW1File(t, "4e 01 4b 46 7f ff 0e 10 94 : crc=94 YES\n4e 01 4b 46 7f ff 0e 10 94 t=20875\n")
	pathB := writeW1File(t, "4e 01 4b 46 7f ff 0e 10 94 : crc=94 YES\n4e 01 4b 46 7f ff 0e 10 94 t=21125\n")
	fs := NewFilesystemSensor(pathA, pathB)
	v, err := fs.Temperature()
	if err != nil {
		t.Fatal(err)
	}
	if v != 21.0 {
		t.Errorf("expected mean-of-two 21.0, got %f", v)
	}
}

func TestFilesystemSensorNoReadableDevices(t *testing.T) {
	fs := NewFilesystemSensor(filepath.Join(os.TempDir(), "does-not-exist-w1-slave"))
	if _, err := fs.Temperature(); err == nil {
		t.Error("expected an error when no device file is readable")
	}
}
