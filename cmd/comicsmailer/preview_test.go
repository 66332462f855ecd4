package main

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestRecordRows(t *testing.T) {
	records := []string{
		"001,TP,Batman #5,$3.99",
		"002,gm,Batman Funko",
		"header line",
		"005,TP,Superman #1",
	}

	got := recordRows(records, []string{"Batman", "man #"})
	want := []recordRow{
		{Code: "001", Type: "TP", Title: "Batman #5", Comic: true, Watched: []string{"Batman", "man #"}},
		{Code: "002", Type: "gm", Title: "Batman Funko", Watched: []string{"Batman"}},
		{Title: "header line"},
		{Code: "005", Type: "TP", Title: "Superman #1", Comic: true, Watched: []string{"man #"}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("recordRows mismatch (-want +got):\n%s", diff)
	}
}

func TestRenderRecords(t *testing.T) {
	out := renderRecords(recordRows([]string{"001,TP,Batman #5"}, []string{"batman"}))
	for _, want := range []string{"Code", "Watched", "Batman #5", "yes", "batman"} {
		if !strings.Contains(out, want) {
			t.Errorf("rendered table missing %q:\n%s", want, out)
		}
	}
}
