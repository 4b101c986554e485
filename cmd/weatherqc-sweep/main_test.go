package main

import (
	"strings"
	"testing"

	"github.com/nhg-hydromet/weatherqc/internal/config"
	"github.com/nhg-hydromet/weatherqc/internal/fsutil"
)

const sampleCSV = "TIMESTAMP,RECORD,BattV_Avg\n" +
	"2024-01-01 00:00:00,1,13.2\n" +
	"2024-01-01 00:15:00,2,13.1\n" +
	"2024-01-01 00:30:00,3,13.0\n"

func emptyTestBundle() config.Bundle {
	return config.Bundle{
		Thresholds: config.ThresholdMap{},
		Groups:     config.InstrumentGroups{},
		Deployment: config.Deployments{},
		Rules:      config.DefaultDependencyRules(),
		Aliases:    config.DefaultAliasMap(),
	}
}

func TestSweepOneSummarizesEachChannel(t *testing.T) {
	fs := fsutil.NewMemoryFileSystem()
	if err := fs.WriteFile("/in/station.csv", []byte(sampleCSV), 0o644); err != nil {
		t.Fatal(err)
	}

	summaries, err := sweepOne(fs, "/in/station.csv", emptyTestBundle())
	if err != nil {
		t.Fatal(err)
	}
	if len(summaries) != 1 {
		t.Fatalf("got %d summaries, want 1", len(summaries))
	}
	if summaries[0].Channel != "BattV_Avg" {
		t.Errorf("Channel = %q, want %q", summaries[0].Channel, "BattV_Avg")
	}
	if summaries[0].PresentCount != 3 {
		t.Errorf("PresentCount = %d, want 3", summaries[0].PresentCount)
	}
	if !strings.Contains(summaries[0].String(), "BattV_Avg") {
		t.Errorf("String() = %q, want it to mention the channel name", summaries[0].String())
	}
}

func TestSweepOneRejectsEmptyFile(t *testing.T) {
	fs := fsutil.NewMemoryFileSystem()
	if err := fs.WriteFile("/in/empty.csv", []byte(""), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := sweepOne(fs, "/in/empty.csv", emptyTestBundle()); err == nil {
		t.Fatal("expected an error for an empty CSV")
	}
}
