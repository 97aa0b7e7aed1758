package streaming_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"watchwise/internal/backend"
	"watchwise/internal/mocks"
	"watchwise/models"
	"watchwise/services/streaming"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func services() []models.Service {
	return []models.Service{
		{Code: "netflix", Name: "Netflix", Active: true},
		{Code: "hulu", Name: "Hulu", Active: false},
	}
}

func TestLoadAndActive(t *testing.T) {
	ctrl := gomock.NewController(t)
	api := mocks.NewMockAPI(ctrl)
	api.EXPECT().ListServices(gomock.Any()).Return(services(), nil)

	svc := streaming.NewService(api)
	require.NoError(t, svc.Load(context.Background(), streaming.LoadOptions{}))

	active := svc.Active()
	require.Len(t, active, 1)
	assert.Equal(t, "netflix", active[0].Code)
	assert.False(t, svc.Snapshot().Loading)
}

func TestLoadFailureMessages(t *testing.T) {
	ctrl := gomock.NewController(t)
	api := mocks.NewMockAPI(ctrl)
	gomock.InOrder(
		api.EXPECT().ListServices(gomock.Any()).Return(services(), nil),
		api.EXPECT().ListServices(gomock.Any()).Return(nil, &backend.Error{Kind: backend.KindStatus, Status: http.StatusServiceUnavailable}),
		api.EXPECT().ListServices(gomock.Any()).Return(nil, &backend.Error{Kind: backend.KindTransport, Err: errors.New("dial")}),
	)
	svc := streaming.NewService(api)
	ctx := context.Background()

	require.NoError(t, svc.Load(ctx, streaming.LoadOptions{}))
	require.Error(t, svc.Load(ctx, streaming.LoadOptions{Silent: true}))
	snap := svc.Snapshot()
	assert.Len(t, snap.Services, 2, "silent failure keeps services")
	assert.Equal(t, "Failed to load your services.", snap.Error)

	require.Error(t, svc.Load(ctx, streaming.LoadOptions{}))
	snap = svc.Snapshot()
	assert.Empty(t, snap.Services)
	assert.Equal(t, "Unable to load your services. Please retry.", snap.Error)
}

func TestToggleIsOptimistic(t *testing.T) {
	ctrl := gomock.NewController(t)
	api := mocks.NewMockAPI(ctrl)
	api.EXPECT().ListServices(gomock.Any()).Return(services(), nil)
	api.EXPECT().ToggleServices(gomock.Any(), []models.ServiceToggle{{Code: "hulu", Active: true}}).
		Return(&backend.Error{Kind: backend.KindStatus, Status: http.StatusBadRequest})

	svc := streaming.NewService(api)
	ctx := context.Background()
	require.NoError(t, svc.Load(ctx, streaming.LoadOptions{}))

	require.Error(t, svc.Toggle(ctx, " HULU ", true))
	assert.Len(t, svc.Active(), 2, "flip stays after failure")
	assert.Equal(t, "Failed to update your services.", svc.Snapshot().ActionError)
}

func TestToggleUnknownService(t *testing.T) {
	svc := streaming.NewService(mocks.NewMockAPI(gomock.NewController(t)))
	assert.ErrorIs(t, svc.Toggle(context.Background(), "peacock", true), streaming.ErrServiceNotFound)
}

func TestOnlyLatestToggleWritesError(t *testing.T) {
	ctrl := gomock.NewController(t)
	api := mocks.NewMockAPI(ctrl)
	api.EXPECT().ListServices(gomock.Any()).Return(services(), nil)

	release := make(chan struct{})
	started := make(chan struct{})
	api.EXPECT().ToggleServices(gomock.Any(), []models.ServiceToggle{{Code: "netflix", Active: false}}).
		DoAndReturn(func(context.Context, []models.ServiceToggle) error {
			close(started)
			<-release
			return &backend.Error{Kind: backend.KindTransport, Err: errors.New("timeout")}
		})
	api.EXPECT().ToggleServices(gomock.Any(), []models.ServiceToggle{{Code: "netflix", Active: true}}).Return(nil)

	svc := streaming.NewService(api)
	ctx := context.Background()
	require.NoError(t, svc.Load(ctx, streaming.LoadOptions{}))

	done := make(chan error, 1)
	go func() { done <- svc.Toggle(ctx, "netflix", false) }()
	<-started
	require.NoError(t, svc.Toggle(ctx, "netflix", true))
	close(release)
	require.Error(t, <-done)

	assert.Empty(t, svc.Snapshot().ActionError, "superseded toggle must not report")
	assert.Len(t, svc.Active(), 1)
}

func TestPendingToggleSurvivesLoad(t *testing.T) {
	ctrl := gomock.NewController(t)
	api := mocks.NewMockAPI(ctrl)
	api.EXPECT().ListServices(gomock.Any()).Return(services(), nil).Times(2)

	release := make(chan struct{})
	started := make(chan struct{})
	api.EXPECT().ToggleServices(gomock.Any(), gomock.Any()).DoAndReturn(func(context.Context, []models.ServiceToggle) error {
		close(started)
		<-release
		return nil
	})

	svc := streaming.NewService(api)
	ctx := context.Background()
	require.NoError(t, svc.Load(ctx, streaming.LoadOptions{}))

	done := make(chan error, 1)
	go func() { done <- svc.Toggle(ctx, "hulu", true) }()
	<-started
	require.NoError(t, svc.Load(ctx, streaming.LoadOptions{Silent: true}))
	assert.Len(t, svc.Active(), 2)
	close(release)
	require.NoError(t, <-done)
}
