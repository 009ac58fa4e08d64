package metrics

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCollectorSnapshot(t *testing.T) {
	c := New()
	c.Record(200, 10*time.Millisecond)
	c.Record(500, 30*time.Millisecond)
	c.Record(429, 2*time.Millisecond)

	snap := c.Snapshot()
	assert.Equal(t, uint64(3), snap["requestsTotal"])
	assert.Equal(t, uint64(1), snap["errorsTotal"])
	assert.Equal(t, uint64(1), snap["rateLimitedTotal"])
	assert.Equal(t, float64(14), snap["avgDurationMs"])
}

func TestCollectorPayrollAndSweepCounters(t *testing.T) {
	c := New()
	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.RecordPayrollRun(3, 1, 0)
		}()
	}
	wg.Wait()
	c.RecordContractSweep(2, 5, 1)

	snap := c.Snapshot()
	assert.Equal(t, uint64(10), snap["payrollRunsTotal"])
	assert.Equal(t, uint64(30), snap["payslipsCreatedTotal"])
	assert.Equal(t, uint64(10), snap["payslipsSkippedTotal"])
	assert.Equal(t, uint64(2), snap["contractsExpiredTotal"])
	assert.Equal(t, uint64(5), snap["remindersSentTotal"])
	assert.Equal(t, uint64(1), snap["sweepFailuresTotal"])
}
