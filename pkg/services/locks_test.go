package services

import (
	"sync"
	"testing"

	"github.com/dukex/flowgate/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlowLocks_ReleasesEntries(t *testing.T) {
	var locks flowLocks

	unlockA := locks.lock("a")
	unlockB := locks.lock("b")
	assert.Equal(t, 2, locks.held())

	unlockA()
	unlockB()
	assert.Equal(t, 0, locks.held())
}

func TestFlowLocks_Serializes(t *testing.T) {
	var (
		locks   flowLocks
		wg      sync.WaitGroup
		counter int
	)

	for range 50 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			unlock := locks.lock("flow")
			defer unlock()

			current := counter
			counter = current + 1
		}()
	}

	wg.Wait()

	assert.Equal(t, 50, counter)
	assert.Equal(t, 0, locks.held())
}

func TestFlow_ConcurrentEditsAreKept(t *testing.T) {
	service, _ := newFlowService(t)
	flow := createFlow(t, service, models.EnvironmentDev)

	const editors = 20

	var wg sync.WaitGroup

	errs := make(chan error, editors)

	for range editors {
		wg.Add(1)

		go func() {
			defer wg.Done()

			_, err := service.AddNode(t.Context(), flow.ID, AddNodeRequest{Type: models.NodeTypeSMS})
			errs <- err
		}()
	}

	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	stored, err := service.FetchByID(t.Context(), flow.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Nodes, editors+1)
	assert.Equal(t, 0, service.locks.held())
}
