package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestTriggerLabel(t *testing.T) {
	assert.Equal(t, "system", TriggerLabel(true))
	assert.Equal(t, "user", TriggerLabel(false))
}

func TestObserveStorage(t *testing.T) {
	success := StorageOperations.WithLabelValues("save_batch", "success")
	failure := StorageOperations.WithLabelValues("save_batch", "error")
	beforeOK := testutil.ToFloat64(success)
	beforeErr := testutil.ToFloat64(failure)

	ObserveStorage("save_batch", nil)
	ObserveStorage("save_batch", errors.New("connection reset"))

	assert.Equal(t, beforeOK+1, testutil.ToFloat64(success))
	assert.Equal(t, beforeErr+1, testutil.ToFloat64(failure))
}
