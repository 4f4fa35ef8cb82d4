package transportargs

import (
	"reflect"
	"testing"
)

func TestScanSimple(t *testing.T) {
	res, err := Scan([]string{"ssh", "myhost", "cat"})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if res.Host != "myhost" {
		t.Fatalf("Host = %q, want myhost", res.Host)
	}
	if !reflect.DeepEqual(res.Command, []string{"cat"}) {
		t.Fatalf("Command = %v", res.Command)
	}
	if !reflect.DeepEqual(res.TransportArgv, []string{"ssh", "myhost"}) {
		t.Fatalf("TransportArgv = %v", res.TransportArgv)
	}
}

func TestScanValueFlagSeparateToken(t *testing.T) {
	res, err := Scan([]string{"ssh", "-p", "2222", "myhost", "sha256sum"})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	want := []string{"ssh", "-p", "2222", "myhost"}
	if !reflect.DeepEqual(res.TransportArgv, want) {
		t.Fatalf("TransportArgv = %v, want %v", res.TransportArgv, want)
	}
	if !reflect.DeepEqual(res.Command, []string{"sha256sum"}) {
		t.Fatalf("Command = %v", res.Command)
	}
}

func TestScanValueFlagInline(t *testing.T) {
	res, err := Scan([]string{"ssh", "-p2222", "myhost", "echo", "abc"})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if !reflect.DeepEqual(res.TransportArgv, []string{"ssh", "-p2222", "myhost"}) {
		t.Fatalf("TransportArgv = %v", res.TransportArgv)
	}
	if !reflect.DeepEqual(res.Command, []string{"echo", "abc"}) {
		t.Fatalf("Command = %v", res.Command)
	}
}

func TestScanClusteredNoValueFlags(t *testing.T) {
	res, err := Scan([]string{"ssh", "-vvv", "-46", "myhost", "yes"})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	want := []string{"ssh", "-vvv", "-46", "myhost"}
	if !reflect.DeepEqual(res.TransportArgv, want) {
		t.Fatalf("TransportArgv = %v, want %v", res.TransportArgv, want)
	}
}

func TestScanClusteredValueFlagLast(t *testing.T) {
	// -v (no value) then -p (value, from the next token since it's last in cluster)
	res, err := Scan([]string{"ssh", "-vp", "2222", "myhost", "cat"})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	want := []string{"ssh", "-vp", "2222", "myhost"}
	if !reflect.DeepEqual(res.TransportArgv, want) {
		t.Fatalf("TransportArgv = %v, want %v", res.TransportArgv, want)
	}
}

func TestScanOptionKeyValue(t *testing.T) {
	res, err := Scan([]string{"ssh", "-o", "StrictHostKeyChecking=no", "myhost", "cat"})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(res.Options) != 1 || res.Options[0].Key != "StrictHostKeyChecking" || res.Options[0].Value != "no" {
		t.Fatalf("Options = %+v", res.Options)
	}
}

func TestScanOptionInline(t *testing.T) {
	res, err := Scan([]string{"ssh", "-oBatchMode=yes", "myhost", "cat"})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(res.Options) != 1 || res.Options[0].Key != "BatchMode" || res.Options[0].Value != "yes" {
		t.Fatalf("Options = %+v", res.Options)
	}
}

func TestScanMissingCommandErrors(t *testing.T) {
	if _, err := Scan([]string{"ssh", "myhost"}); err == nil {
		t.Fatalf("expected error for missing command")
	}
}

func TestScanMissingHostErrors(t *testing.T) {
	if _, err := Scan([]string{"ssh", "-v", "-v"}); err == nil {
		t.Fatalf("expected error for missing host")
	}
}
