package alert

import (
	"strings"
	"testing"

	"sysmond/internal/stats"
)

func TestThresholdRulesCoverAllMetrics(t *testing.T) {
	rules := ThresholdRules(stats.DefaultThresholds())

	wantIDs := []string{
		"cpu-warning", "cpu-critical",
		"memory-warning", "memory-critical",
		"disk-warning", "disk-critical",
	}
	if len(rules) != len(wantIDs) {
		t.Fatalf("len(rules) = %d, want %d", len(rules), len(wantIDs))
	}
	for i, id := range wantIDs {
		if rules[i].ID != id {
			t.Errorf("rules[%d].ID = %s, want %s", i, rules[i].ID, id)
		}
	}
}

func TestThresholdRuleBoundaries(t *testing.T) {
	thresholds := stats.Thresholds{
		CPUWarning: 70, CPUCritical: 90,
		MemoryWarning: 80, MemoryCritical: 95,
		DiskWarning: 80, DiskCritical: 95,
	}
	rules := ThresholdRules(thresholds)
	byID := make(map[string]Rule, len(rules))
	for _, r := range rules {
		byID[r.ID] = r
	}

	cases := []struct {
		rule   string
		point  stats.DataPoint
		firing bool
	}{
		{"cpu-warning", stats.DataPoint{CPUPercent: 69.9}, false},
		{"cpu-warning", stats.DataPoint{CPUPercent: 70}, true},
		{"cpu-critical", stats.DataPoint{CPUPercent: 89.9}, false},
		{"cpu-critical", stats.DataPoint{CPUPercent: 90}, true},
		{"memory-warning", stats.DataPoint{MemoryPercent: 80}, true},
		{"memory-critical", stats.DataPoint{MemoryPercent: 94}, false},
		{"disk-warning", stats.DataPoint{DiskPercent: map[string]float64{"/": 50, "/var": 85}}, true},
		{"disk-warning", stats.DataPoint{DiskPercent: map[string]float64{"/": 50}}, false},
		{"disk-critical", stats.DataPoint{}, false},
	}

	for _, tc := range cases {
		rule, ok := byID[tc.rule]
		if !ok {
			t.Fatalf("rule %s missing", tc.rule)
		}
		if got := rule.Predicate(tc.point); got != tc.firing {
			t.Errorf("%s firing on %+v = %t, want %t", tc.rule, tc.point, got, tc.firing)
		}
	}
}

func TestThresholdRuleMessagesNameTheMetric(t *testing.T) {
	rules := ThresholdRules(stats.DefaultThresholds())
	point := stats.DataPoint{
		CPUPercent:    95,
		MemoryPercent: 97,
		DiskPercent:   map[string]float64{"/var": 96},
	}

	for _, rule := range rules {
		msg := rule.Message(point)
		metric := strings.SplitN(rule.ID, "-", 2)[0]
		if !strings.Contains(msg, metric) {
			t.Errorf("message for %s does not mention %q: %s", rule.ID, metric, msg)
		}
	}
}

func TestWorstDisk(t *testing.T) {
	mount, pct := worstDisk(stats.DataPoint{
		DiskPercent: map[string]float64{"/": 40, "/var": 92, "/home": 60},
	})
	if mount != "/var" || pct != 92 {
		t.Errorf("worstDisk() = %s, %v, want /var, 92", mount, pct)
	}

	mount, pct = worstDisk(stats.DataPoint{})
	if mount != "" || pct != 0 {
		t.Errorf("worstDisk() on empty point = %s, %v, want empty, 0", mount, pct)
	}
}
