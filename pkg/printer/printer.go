package printer

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/spf13/afero"
)

// Printer sends raw ESC/POS data to a thermal printer.
type Printer interface {
	// Print sends raw ESC/POS bytes to the printer.
	Print(ctx context.Context, data []byte) error
	// Close releases the printer connection/handle.
	Close() error
	// IsConnected returns true if the printer connection is active.
	IsConnected() bool
}

// ErrNoPrinter is returned by the null printer.
var ErrNoPrinter = errors.New("printer: no printer configured")

// Options selects and configures a printer.
type Options struct {
	Type    string // "usb", "network" or "none"
	USBPath string // e.g. /dev/usb/lp0
	Address string // e.g. 192.168.1.100:9100
	// Timeout bounds dialing and writing to a network printer; 0 means 5s.
	Timeout time.Duration
}

const defaultNetworkTimeout = 5 * time.Second

// usbPrinter writes each ticket to a character device such as /dev/usb/lp0.

type usbPrinter struct {
	fs   afero.Fs
	path string
}

// NewUSBPrinter creates a printer that writes to a device file on fs.
func NewUSBPrinter(fs afero.Fs, devicePath string) Printer {
	return &usbPrinter{fs: fs, path: devicePath}
}

func (p *usbPrinter) Print(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f, err := p.fs.OpenFile(p.path, os.O_WRONLY, 0)
	if err != nil {
		return fmt.Errorf("printer: failed to open USB device %s: %w", p.path, err)
	}
	defer f.Close()

	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("printer: failed to write to USB device %s: %w", p.path, err)
	}
	return nil
}

func (p *usbPrinter) Close() error { return nil }

func (p *usbPrinter) IsConnected() bool {
	_, err := p.fs.Stat(p.path)
	return err == nil
}

// networkPrinter dials a raw TCP port (usually 9100) for every ticket.
type networkPrinter struct {
	address string
	timeout time.Duration
}

// NewNetworkPrinter creates a printer reached at address, which must include
// the port. A non-positive timeout means 5s.
func NewNetworkPrinter(address string, timeout time.Duration) Printer {
	if timeout <= 0 {
		timeout = defaultNetworkTimeout
	}
	return &networkPrinter{address: address, timeout: timeout}
}

func (p *networkPrinter) Print(ctx context.Context, data []byte) error {
	dialer := net.Dialer{Timeout: p.timeout}
	conn, err := dialer.DialContext(ctx, "tcp", p.address)
	if err != nil {
		return fmt.Errorf("printer: failed to connect to %s: %w", p.address, err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * p.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	_ = conn.SetWriteDeadline(deadline)

	if _, err := conn.Write(data); err != nil {
		return fmt.Errorf("printer: failed to write to %s: %w", p.address, err)
	}
	return nil
}

func (p *networkPrinter) Close() error { return nil }

func (p *networkPrinter) IsConnected() bool {
	conn, err := net.DialTimeout("tcp", p.address, p.timeout/2)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

type nullPrinter struct{}

// NewNullPrinter is used when the counter has no printer; every Print fails
// with ErrNoPrinter.
func NewNullPrinter() Printer { return nullPrinter{} }

func (nullPrinter) Print(context.Context, []byte) error { return ErrNoPrinter }
func (nullPrinter) Close() error                        { return nil }
func (nullPrinter) IsConnected() bool                   { return false }

// New creates the Printer selected by opts. USB devices are opened on fs.
func New(opts Options, fs afero.Fs) (Printer, error) {
	switch opts.Type {
	case "usb":
		if opts.USBPath == "" {
			return nil, errors.New("printer: PRINTER_USB_PATH is required for a usb printer")
		}
		return NewUSBPrinter(fs, opts.USBPath), nil
	case "network":
		if opts.Address == "" {
			return nil, errors.New("printer: PRINTER_ADDRESS is required for a network printer")
		}
		return NewNetworkPrinter(opts.Address, opts.Timeout), nil
	case "none", "":
		return NewNullPrinter(), nil
	default:
		return nil, fmt.Errorf("printer: unknown printer type %q (use usb, network, or none)", opts.Type)
	}
}
