package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRegisterAndCount(t *testing.T) {
	reg := prometheus.NewRegistry()
	if err := Register(reg); err != nil {
		t.Fatalf("Register: %v", err)
	}
	// registering twice is tolerated
	if err := Register(reg); err != nil {
		t.Fatalf("second Register: %v", err)
	}

	IncPackageStart("selenium")
	IncPackageStart("selenium")
	IncPackageStartFailure("selenium")
	IncStalePurged()
	SetRunningPackages(3)

	if got := testutil.ToFloat64(packageStarts.WithLabelValues("selenium")); got != 2 {
		t.Fatalf("package starts = %v", got)
	}
	if got := testutil.ToFloat64(packageStartFailures.WithLabelValues("selenium")); got != 1 {
		t.Fatalf("start failures = %v", got)
	}
	if got := testutil.ToFloat64(runningPackages); got != 3 {
		t.Fatalf("running gauge = %v", got)
	}
}
