// Command thermoctl is a small CLI client for the thermod control surface:
// it reads settings and status, applies settings changes, and long-polls
// the monitor endpoint from a terminal.
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"
)

var addr = flag.String("addr", "http://localhost:8080", "thermod control surface address")

func usage() {
	fmt.Fprintln(os.Stderr, `thermoctl is a CLI client for the thermod control surface.

Usage:
	thermoctl [-addr http://host:port] <command> [args...]

Commands:
	get                  print the current settings
	set key=value ...    apply one or more settings fields, in order
	status               print a one-shot heating status
	watch                long-poll and print status updates as they arrive`)
}

func main() {
	flag.Usage = usage
	flag.Parse()
	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(1)
	}

	c := &client{base: strings.TrimRight(*addr, "/"), hc: http.Client{Timeout: longPollTimeout}}

	var err error
	switch args[0] {
	case "get":
		err = cmdGet(c)
	case "set":
		err = cmdSet(c, args[1:])
	case "status":
		err = cmdStatus(c)
	case "watch":
		err = cmdWatch(c)
	default:
		usage()
		os.Exit(1)
	}
	if err != nil {
		log.Fatal(err)
	}
}

func cmdGet(c *client) error {
	var settings map[string]interface{}
	if err := c.getJSON("/settings", &settings); err != nil {
		return err
	}
	return printJSON(settings)
}

// cmdSet parses key=value pairs and posts them as one ordered JSON object,
// preserving the command-line order so the server applies them in the same
// order a human typed them.
func cmdSet(c *client, pairs []string) error {
	if len(pairs) == 0 {
		return fmt.Errorf("set requires at least one key=value pair")
	}
	var b strings.Builder
	b.WriteByte('{')
	for i, pair := range pairs {
		parts := strings.SplitN(pair, "=", 2)
		if len(parts) != 2 {
			return fmt.Errorf("malformed pair %q, expected key=value", pair)
		}
		key, val := parts[0], parts[1]
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, "%q:%s", key, jsonValue(val))
	}
	b.WriteByte('}')

	var resp map[string]interface{}
	if err := c.postJSON("/settings", []byte(b.String()), &resp); err != nil {
		return err
	}
	return printJSON(resp)
}

// jsonValue renders val as a JSON scalar: a number or "null" pass through
// unquoted, everything else is quoted as a string, matching the control
// surface's field types (mode is a string, t0/tmin/tmax/differential and
// grace_time are numbers or null).
func jsonValue(val string) string {
	if val == "null" {
		return "null"
	}
	if _, err := strconv.ParseFloat(val, 64); err == nil {
		return val
	}
	blob, _ := json.Marshal(val)
	return string(blob)
}

func cmdStatus(c *client) error {
	var st heatingStatus
	if err := c.getJSON("/status/heating", &st); err != nil {
		return err
	}
	printStatus(st)
	return nil
}

func cmdWatch(c *client) error {
	sp, err := newSpinner("waiting for next update")
	if err != nil {
		return err
	}
	defer sp.Stop()

	for {
		sp.Start()
		var st heatingStatus
		if err := c.getJSON("/monitor", &st); err != nil {
			sp.Stop()
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				continue // longPollTimeout elapsed with no update; poll again
			}
			return err
		}
		sp.Stop()
		printStatus(st)
	}
}

func printStatus(st heatingStatus) {
	onText := "off"
	paint := color.New(color.FgRed).SprintFunc()
	if st.ActuatorOn {
		onText = "on"
		paint = color.New(color.FgGreen).SprintFunc()
	}
	fmt.Printf("%s  mode=%s sense=%s actuator=%s current=%.2f target=%.2f\n",
		st.Timestamp, st.Mode, st.Sense, paint(onText), st.CurrentTemperature, st.TargetTemperature)
	if st.Error != "" {
		color.New(color.FgYellow).Printf("  %s: %s\n", st.Error, st.Explain)
	}
}

func printJSON(v interface{}) error {
	blob, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(blob))
	return nil
}
