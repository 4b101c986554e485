package serial

import "testing"

func TestPortOptionsNormalizeDefaults(t *testing.T) {
	opts, err := PortOptions{}.Normalize()
	if err != nil {
		t.Fatal(err)
	}
	if opts.BaudRate != 19200 || opts.DataBits != 8 || opts.StopBits != 1 || opts.Parity != "N" {
		t.Fatalf("got %+v, want datalogger defaults", opts)
	}
}

func TestPortOptionsNormalizeRejectsBadParity(t *testing.T) {
	if _, err := (PortOptions{Parity: "X"}).Normalize(); err == nil {
		t.Fatal("expected an error for an unsupported parity value")
	}
}

func TestParseLine(t *testing.T) {
	p := &Port{columns: []string{"TIMESTAMP", "RECORD", "AirT_C_Avg", "BattV_Avg"}}
	row, err := p.parseLine("2024-01-01 00:00:00,5,21.3,12.6", 0, 1)
	if err != nil {
		t.Fatal(err)
	}
	if row.Record != "5" {
		t.Errorf("Record = %q, want 5", row.Record)
	}
	if row.Columns["AirT_C_Avg"] != "21.3" || row.Columns["BattV_Avg"] != "12.6" {
		t.Errorf("Columns = %v, unexpected", row.Columns)
	}
	if _, ok := row.Columns["TIMESTAMP"]; ok {
		t.Error("TIMESTAMP should not appear as a data column")
	}
}

func TestParseLineRejectsWrongFieldCount(t *testing.T) {
	p := &Port{columns: []string{"TIMESTAMP", "RECORD", "AirT_C_Avg"}}
	if _, err := p.parseLine("2024-01-01 00:00:00,5", 0, 1); err == nil {
		t.Fatal("expected an error for a short line")
	}
}
