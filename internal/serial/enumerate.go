package serial

import (
	"fmt"
	"slices"
	"strings"

	"go.bug.st/serial/enumerator"
)

// PortInfo describes a serial port found on the system.
type PortInfo struct {
	Name         string `json:"name"`
	USB          bool   `json:"usb"`
	VID          string `json:"vid,omitempty"`
	PID          string `json:"pid,omitempty"`
	SerialNumber string `json:"serial_number,omitempty"`
	Product      string `json:"product,omitempty"`
}

// Board returns a short label for the USB bridge, empty for non-USB ports.
func (p PortInfo) Board() string {
	if !p.USB {
		return ""
	}
	if name, ok := knownBridges[strings.ToLower(p.VID+":"+p.PID)]; ok {
		return name
	}
	return p.Product
}

// USB bridges commonly found on development boards.
var knownBridges = map[string]string{
	"303a:1001": "Espressif USB-Serial-JTAG",
	"303a:0002": "Espressif USB CDC",
	"10c4:ea60": "Silicon Labs CP210x",
	"1a86:7523": "WCH CH340",
	"1a86:55d4": "WCH CH9102",
	"0403:6001": "FTDI FT232R",
	"0403:6010": "FTDI FT2232",
	"2341:0043": "Arduino Uno",
}

// listDetailed is replaced in tests.
var listDetailed = enumerator.GetDetailedPortsList

// ListPorts enumerates the serial ports of the system, sorted by name.
func ListPorts() ([]PortInfo, error) {
	details, err := listDetailed()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate serial ports: %w", err)
	}
	ports := make([]PortInfo, 0, len(details))
	for _, d := range details {
		ports = append(ports, PortInfo{
			Name:         d.Name,
			USB:          d.IsUSB,
			VID:          d.VID,
			PID:          d.PID,
			SerialNumber: d.SerialNumber,
			Product:      d.Product,
		})
	}
	slices.SortFunc(ports, func(a, b PortInfo) int {
		return strings.Compare(a.Name, b.Name)
	})
	return ports, nil
}

// Discover returns the only USB serial port present. It fails with ErrPortNotFound when
// there is none and ErrAmbiguousPort when there are several.
func Discover() (string, error) {
	ports, err := ListPorts()
	if err != nil {
		return "", err
	}
	return pickPort(ports)
}

func pickPort(ports []PortInfo) (string, error) {
	var usb []string
	for _, p := range ports {
		if p.USB {
			usb = append(usb, p.Name)
		}
	}
	switch len(usb) {
	case 0:
		return "", fmt.Errorf("%w: no USB serial ports detected, pass --port", ErrPortNotFound)
	case 1:
		return usb[0], nil
	default:
		return "", fmt.Errorf("%w: %s; pass --port", ErrAmbiguousPort, strings.Join(usb, ", "))
	}
}
