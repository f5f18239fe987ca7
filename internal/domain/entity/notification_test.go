package entity

import "testing"

func TestNewChannelContext_SuccessRate(t *testing.T) {
	tests := []struct {
		name    string
		total   int64
		success int64
		want    float64
	}{
		{name: "no activity reports perfect rate", total: 0, success: 0, want: 100},
		{name: "seven of ten", total: 10, success: 7, want: 70.00},
		{name: "all failed", total: 5, success: 0, want: 0},
		{name: "all succeeded", total: 5, success: 5, want: 100},
		{name: "rounded to two decimals", total: 3, success: 1, want: 33.33},
		{name: "rounds half up", total: 3, success: 2, want: 66.67},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewChannelContext(tt.total, tt.success, 0)
			if got.SuccessRate != tt.want {
				t.Errorf("SuccessRate = %v, want %v", got.SuccessRate, tt.want)
			}
		})
	}
}

func TestNewChannelContext_CarriesAggregates(t *testing.T) {
	ctx := NewChannelContext(12, 9, 243.5)

	if ctx.TotalTriggersToday != 12 {
		t.Errorf("TotalTriggersToday = %d, want 12", ctx.TotalTriggersToday)
	}
	if ctx.AvgResponseTimeMs != 243.5 {
		t.Errorf("AvgResponseTimeMs = %v, want 243.5", ctx.AvgResponseTimeMs)
	}
	if ctx.SuccessRate != 75.00 {
		t.Errorf("SuccessRate = %v, want 75.00", ctx.SuccessRate)
	}
}
