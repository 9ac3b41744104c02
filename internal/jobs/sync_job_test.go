package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DavidDuveau/openjoconde-sub000/internal/apperrors"
	"github.com/DavidDuveau/openjoconde-sub000/internal/constants"
	gormModels "github.com/DavidDuveau/openjoconde-sub000/internal/models/gorm"
)

type mockSynchronizer struct {
	calls           atomic.Int32
	synchronizeFunc func(ctx context.Context, syncType string) (*gormModels.SyncLog, error)
}

func (m *mockSynchronizer) Synchronize(ctx context.Context, syncType string) (*gormModels.SyncLog, error) {
	m.calls.Add(1)
	return m.synchronizeFunc(ctx, syncType)
}

func TestSyncJob_Run(t *testing.T) {
	boom := errors.New("download failed")
	tests := []struct {
		name    string
		run     *gormModels.SyncLog
		err     error
		wantErr error
	}{
		{"completed", &gormModels.SyncLog{ID: uuid.New(), Status: constants.SyncStatusCompleted}, nil, nil},
		{"unchanged", nil, nil, nil},
		{"already running", nil, fmt.Errorf("%w: busy", apperrors.ErrConflict), nil},
		{"failed", &gormModels.SyncLog{ID: uuid.New(), Status: constants.SyncStatusFailed}, boom, boom},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &mockSynchronizer{synchronizeFunc: func(ctx context.Context, syncType string) (*gormModels.SyncLog, error) {
				assert.Equal(t, constants.SyncTypeAutomatic, syncType)
				return tt.run, tt.err
			}}

			err := NewSyncJob(m).Run(context.Background())
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSyncJob_RunScheduled(t *testing.T) {
	m := &mockSynchronizer{synchronizeFunc: func(ctx context.Context, syncType string) (*gormModels.SyncLog, error) {
		return nil, nil
	}}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		NewSyncJob(m).RunScheduled(ctx, 10*time.Millisecond)
		close(done)
	}()

	require.Eventually(t, func() bool { return m.calls.Load() >= 3 }, 2*time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop")
	}
}

func TestInitializeJobs_Disabled(t *testing.T) {
	m := &mockSynchronizer{}
	job := InitializeJobs(context.Background(), m, 0)
	require.NotNil(t, job)

	time.Sleep(20 * time.Millisecond)
	assert.EqualValues(t, 0, m.calls.Load())
}
