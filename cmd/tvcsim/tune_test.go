package main

import (
	"testing"
)

func TestParseRange(t *testing.T) {
	got, err := parseRange("0:1:3")
	if err != nil || len(got) != 3 || got[1] != 0.5 {
		t.Errorf("lo:hi:n -> %v, %v", got, err)
	}
	got, err = parseRange("1, 2.5,4")
	if err != nil || len(got) != 3 || got[1] != 2.5 {
		t.Errorf("list -> %v, %v", got, err)
	}
	if got, err := parseRange(""); err != nil || got != nil {
		t.Errorf("empty -> %v, %v", got, err)
	}
	for _, bad := range []string{"a:b:c", "0:1:0", "1,x"} {
		if _, err := parseRange(bad); err == nil {
			t.Errorf("%q should fail", bad)
		}
	}
}
