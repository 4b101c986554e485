// Package serial reads already column-mapped, comma-separated lines off a
// live datalogger serial connection and feeds them to the same RecordSet
// builder the batch CSV path uses (internal/ingest). It owns the transport
// and line framing only; TOA5 header parsing remains out of scope, so the
// caller supplies the column order once when opening the port.
package serial

import (
	"bufio"
	"context"
	"fmt"
	"strings"
	"time"

	"go.bug.st/serial"

	"github.com/nhg-hydromet/weatherqc/internal/ingest"
)

// PortOptions describes the serial connection parameters. Fields mirror the
// shape a config JSON would supply; Normalize fills in sensible datalogger
// defaults for anything left zero.
type PortOptions struct {
	BaudRate int    `json:"baud_rate"`
	DataBits int    `json:"data_bits"`
	StopBits int    `json:"stop_bits"`
	Parity   string `json:"parity"`
}

// Normalize validates the options and applies defaults for unset fields.
func (o PortOptions) Normalize() (PortOptions, error) {
	opts := o
	if opts.BaudRate <= 0 {
		opts.BaudRate = 19200
	}
	if opts.DataBits == 0 {
		opts.DataBits = 8
	}
	if opts.DataBits < 5 || opts.DataBits > 8 {
		return opts, fmt.Errorf("serial: invalid data bits %d: must be between 5 and 8", opts.DataBits)
	}
	if opts.StopBits == 0 {
		opts.StopBits = 1
	}
	if opts.StopBits != 1 && opts.StopBits != 2 {
		return opts, fmt.Errorf("serial: invalid stop bits %d: supported values are 1 or 2", opts.StopBits)
	}

	parity := strings.ToUpper(strings.TrimSpace(opts.Parity))
	if parity == "" {
		parity = "N"
	}
	switch parity {
	case "N", "NONE":
		parity = "N"
	case "E", "EVEN":
		parity = "E"
	case "O", "ODD":
		parity = "O"
	default:
		return opts, fmt.Errorf("serial: unsupported parity %q: expected N, E, or O", opts.Parity)
	}
	opts.Parity = parity
	return opts, nil
}

// mode converts normalized options into go.bug.st/serial's connection mode.
func (o PortOptions) mode() (*serial.Mode, error) {
	opts, err := o.Normalize()
	if err != nil {
		return nil, err
	}
	m := &serial.Mode{BaudRate: opts.BaudRate, DataBits: opts.DataBits, StopBits: serial.StopBits(opts.StopBits)}
	switch opts.Parity {
	case "N":
		m.Parity = serial.NoParity
	case "E":
		m.Parity = serial.EvenParity
	case "O":
		m.Parity = serial.OddParity
	}
	return m, nil
}

// Port reads comma-separated data lines off a datalogger's serial
// connection, maps them onto a fixed column order, and delivers them as
// ingest.Rows.
type Port struct {
	port    serial.Port
	columns []string // positional column names, TIMESTAMP/RECORD included
}

// Open opens portName with opts and expects every subsequent line to carry
// len(columns) comma-separated fields in that order, the way a Campbell
// Scientific logger's "print" table output does once its header has already
// been stripped by the caller.
func Open(portName string, opts PortOptions, columns []string) (*Port, error) {
	mode, err := opts.mode()
	if err != nil {
		return nil, err
	}
	p, err := serial.Open(portName, mode)
	if err != nil {
		return nil, fmt.Errorf("serial: open %s: %w", portName, err)
	}
	return &Port{port: p, columns: columns}, nil
}

// Close closes the underlying serial port.
func (p *Port) Close() error {
	return p.port.Close()
}

// Stream scans lines off the port until ctx is cancelled or the port
// returns an error, delivering one ingest.Row per well-formed line to rows.
// Malformed lines (wrong field count, bad timestamp) are dropped with a
// diagnostic-style error sent to errs rather than stopping the stream,
// matching a live feed's "don't lose the whole session over one bad line"
// requirement.
func (p *Port) Stream(ctx context.Context, rows chan<- ingest.Row, errs chan<- error) error {
	scanner := bufio.NewScanner(p.port)
	tsIdx, recIdx := -1, -1
	for i, name := range p.columns {
		switch strings.ToUpper(name) {
		case "TIMESTAMP":
			tsIdx = i
		case "RECORD":
			recIdx = i
		}
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		if !scanner.Scan() {
			return scanner.Err()
		}
		row, err := p.parseLine(scanner.Text(), tsIdx, recIdx)
		if err != nil {
			select {
			case errs <- err:
			case <-ctx.Done():
				return nil
			}
			continue
		}
		select {
		case rows <- row:
		case <-ctx.Done():
			return nil
		}
	}
}

func (p *Port) parseLine(line string, tsIdx, recIdx int) (ingest.Row, error) {
	fields := strings.Split(line, ",")
	if len(fields) != len(p.columns) {
		return ingest.Row{}, fmt.Errorf("serial: line has %d fields, want %d", len(fields), len(p.columns))
	}
	if tsIdx == -1 {
		return ingest.Row{}, fmt.Errorf("serial: no TIMESTAMP column configured")
	}

	ts, err := time.Parse(ingest.TimestampLayout, strings.TrimSpace(fields[tsIdx]))
	if err != nil {
		return ingest.Row{}, fmt.Errorf("serial: bad timestamp %q: %w", fields[tsIdx], err)
	}

	row := ingest.Row{Timestamp: ts, Columns: make(map[string]string, len(p.columns))}
	if recIdx != -1 {
		row.Record = strings.TrimSpace(fields[recIdx])
	}
	for i, name := range p.columns {
		if i == tsIdx || i == recIdx {
			continue
		}
		row.Columns[name] = strings.TrimSpace(fields[i])
	}
	return row, nil
}
