package predictor

import "sync"

// retrainCounter tracks learning samples accumulated since the last
// successful retraining run. At most one retraining is in flight at a time;
// concurrent threshold crossings coalesce into a single run.
type retrainCounter struct {
	mu        sync.Mutex
	count     int
	threshold int
	inFlight  bool
}

func newRetrainCounter(threshold int) *retrainCounter {
	return &retrainCounter{threshold: threshold}
}

// increment adds one sample and reports whether the caller should start a
// retraining run. It returns false while a run is already in flight.
func (c *retrainCounter) increment() (count int, shouldRetrain bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.count++
	if c.count >= c.threshold && !c.inFlight {
		c.inFlight = true
		return c.count, true
	}
	return c.count, false
}

// finish clears the in-flight flag. The counter resets only on success so a
// failed run is re-attempted on the next sample.
func (c *retrainCounter) finish(success bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.inFlight = false
	if success {
		c.count = 0
	}
}

func (c *retrainCounter) pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.count
}
