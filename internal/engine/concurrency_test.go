package engine

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/gcp-budget-notifier/internal/notify"
	"github.com/donaldgifford/gcp-budget-notifier/internal/secrets"
	"github.com/donaldgifford/gcp-budget-notifier/internal/secrets/secretstest"
	"github.com/donaldgifford/gcp-budget-notifier/internal/store"
	domain "github.com/donaldgifford/gcp-budget-notifier/pkg/types"
)

// overlapStore widens each Load and records how many invocations were
// loading at once.
type overlapStore struct {
	store.Store
	active atomic.Int32
	peak   atomic.Int32
}

func (s *overlapStore) Open(ctx context.Context, key domain.StateKey) (store.Record, error) {
	rec, err := s.Store.Open(ctx, key)
	if err != nil {
		return nil, err
	}
	return &overlapRecord{Record: rec, s: s}, nil
}

type overlapRecord struct {
	store.Record
	s *overlapStore
}

func (r *overlapRecord) Load(ctx context.Context) (*domain.AlertState, error) {
	n := r.s.active.Add(1)
	defer r.s.active.Add(-1)

	for {
		p := r.s.peak.Load()
		if n <= p || r.s.peak.CompareAndSwap(p, n) {
			break
		}
	}
	time.Sleep(20 * time.Millisecond)

	return r.Record.Load(ctx)
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []string
}

func (n *recordingNotifier) Send(_ context.Context, msg notify.Message) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, msg.Text)
	return nil
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sent)
}

func TestHandle_OverlappingDeliveriesForOneBudget(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	backing := store.NewSecretStore(secrets.NewManager(secretstest.New(), quietLogger()), "my-project")
	tracked := &overlapStore{Store: backing}
	notifier := &recordingNotifier{}
	eng := NewEngine(tracked, &fakeConnector{notifier: notifier},
		WithLogger(quietLogger()),
		WithChannel("#billing"),
	)

	var (
		wg       sync.WaitGroup
		notified atomic.Int32
	)
	for _, fraction := range []float64{0.9, 0.5} {
		wg.Add(1)
		go func() {
			defer wg.Done()

			inv := invocation(t1, fraction)
			inv.ID = fmt.Sprintf("inv-%v", fraction)

			res, err := eng.Handle(ctx, inv)
			if !assert.NoError(t, err) {
				return
			}
			if res.Outcome == OutcomeNotified {
				notified.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), tracked.peak.Load(), "deliveries for one budget must not overlap")
	assert.Equal(t, int(notified.Load()), notifier.count())

	state, err := eng.State(ctx, testKey)
	require.NoError(t, err)
	assert.InDelta(t, 90.0, state.LastThreshold, 1e-9, "threshold never drops within an interval")

	// Redelivery of either alert is now a repeat.
	for _, fraction := range []float64{0.9, 0.5} {
		res, err := eng.Handle(ctx, invocation(t1, fraction))
		require.NoError(t, err)
		assert.Equal(t, OutcomeSuppressed, res.Outcome, "redelivery of %v", fraction)
	}
	assert.Equal(t, int(notified.Load()), notifier.count())
	assert.Zero(t, eng.locks.held())
}

func TestHandle_StaleSaveSuppresses(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	stored := &domain.AlertState{LastInterval: t1, LastThreshold: 90}

	f.store.EXPECT().Open(mock.Anything, testKey).Return(f.record, nil)
	f.record.EXPECT().Load(mock.Anything).Return(nil, store.ErrNotFound).Once()
	f.record.EXPECT().Save(mock.Anything, stateWith(50)).Return("", store.ErrStale)
	f.record.EXPECT().Load(mock.Anything).Return(stored, nil).Once()

	res, err := f.engine.Handle(context.Background(), invocation(t1, 0.5))
	require.NoError(t, err)

	assert.Equal(t, OutcomeSuppressed, res.Outcome)
	assert.Empty(t, res.Text)
	assert.InDelta(t, 90.0, res.State.LastThreshold, 1e-9)
	f.notifier.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}
