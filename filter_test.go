package metrics

import "testing"

func TestNewPrefixFilter(t *testing.T) {
	f := NewPrefixFilter([]string{"krakend.router.", "krakend.proxy."}, []string{"krakend.router.tls"})

	for name, want := range map[string]bool{
		"krakend.router.connected":         true,
		"krakend.proxy.latency":            true,
		"krakend.router.tls_version.count": false,
		"krakend.service.runtime.NumGC":    false,
		"other":                            false,
	} {
		if have := f(name, nil); have != want {
			t.Errorf("unexpected result for %s. have: %v, want: %v", name, have, want)
		}
	}
}

func TestNewPrefixFilter_excludeOnly(t *testing.T) {
	f := NewPrefixFilter(nil, []string{"krakend.service."})
	if !f("krakend.router.connected", nil) {
		t.Error("the metric should be accepted")
	}
	if f("krakend.service.runtime.NumGC", nil) {
		t.Error("the metric should be rejected")
	}
}

func TestNewPrefixFilter_empty(t *testing.T) {
	f := NewPrefixFilter(nil, nil)
	if !f("anything", 42) {
		t.Error("an empty filter should accept everything")
	}
}
