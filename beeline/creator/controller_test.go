package creator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/beeline/server/internal/client"
)

type fakeAPI struct {
	createErr error
	getErr    error
	deleteErr error

	created []string
	deleted []string
	session *client.Session
}

func (a *fakeAPI) CreateSession(ctx context.Context, code string) (*client.Session, error) {
	if a.createErr != nil {
		return nil, a.createErr
	}

	a.created = append(a.created, code)
	if a.session == nil {
		a.session = &client.Session{
			Code:      "AB12CD",
			CreatedAt: time.Now().UnixMilli(),
			ExpiresAt: time.Now().Add(24 * time.Hour).UnixMilli(),
		}
	}

	return a.session, nil
}

func (a *fakeAPI) GetSession(ctx context.Context, code string) (*client.Session, error) {
	if a.getErr != nil {
		return nil, a.getErr
	}

	return &client.Session{Code: code}, nil
}

func (a *fakeAPI) DeleteSession(ctx context.Context, code string) error {
	a.deleted = append(a.deleted, code)
	return a.deleteErr
}

type fakeFeed struct {
	code       string
	connectErr error
	connected  bool
	closed     bool

	snapshots chan client.Snapshot
	ended     chan client.SessionEnded
}

func newFakeFeed(code string) *fakeFeed {
	return &fakeFeed{
		code:      code,
		snapshots: make(chan client.Snapshot, 4),
		ended:     make(chan client.SessionEnded, 1),
	}
}

func (f *fakeFeed) Connect() error {
	if f.connectErr != nil {
		return f.connectErr
	}

	f.connected = true
	return nil
}

func (f *fakeFeed) Snapshots() <-chan client.Snapshot { return f.snapshots }
func (f *fakeFeed) Ended() <-chan client.SessionEnded { return f.ended }
func (f *fakeFeed) Close()                            { f.closed = true }

func newTestController(api *fakeAPI) (*Controller, *fakeFeed) {
	feed := newFakeFeed("")

	controller := NewController(api, func(code string) Feed {
		feed.code = code
		return feed
	})

	return controller, feed
}

func TestControllerCreate(t *testing.T) {
	api := &fakeAPI{}
	controller, feed := newTestController(api)

	session, err := controller.Create(t.Context())
	require.NoError(t, err)
	assert.Equal(t, "AB12CD", session.Code)
	assert.True(t, feed.connected)
	assert.Equal(t, "AB12CD", feed.code)

	active, ok := controller.Session()
	require.True(t, ok)
	assert.Equal(t, "AB12CD", active.Code)
}

func TestControllerCreateWhileActive(t *testing.T) {
	api := &fakeAPI{}
	controller, _ := newTestController(api)

	_, err := controller.Create(t.Context())
	require.NoError(t, err)

	_, err = controller.Create(t.Context())
	assert.ErrorIs(t, err, ErrActiveSession)
}

func TestControllerCreateFeedFailureRollsBack(t *testing.T) {
	api := &fakeAPI{}
	feed := newFakeFeed("")
	feed.connectErr = errors.New("dial failed")

	controller := NewController(api, func(code string) Feed { return feed })

	_, err := controller.Create(t.Context())
	require.Error(t, err)

	// the orphaned session is destroyed rather than left to expire
	assert.Equal(t, []string{"AB12CD"}, api.deleted)

	_, ok := controller.Session()
	assert.False(t, ok)
}

func TestControllerResume(t *testing.T) {
	api := &fakeAPI{}
	controller, feed := newTestController(api)

	session, err := controller.Resume(t.Context(), "EF34GH")
	require.NoError(t, err)
	assert.Equal(t, "EF34GH", session.Code)
	assert.True(t, feed.connected)
}

func TestControllerResumeGoneSession(t *testing.T) {
	api := &fakeAPI{getErr: client.ErrSessionNotFound}
	controller, _ := newTestController(api)

	_, err := controller.Resume(t.Context(), "ZZ99ZZ")
	assert.ErrorIs(t, err, ErrSessionGone)

	_, ok := controller.Session()
	assert.False(t, ok)
}

func TestControllerSnapshots(t *testing.T) {
	api := &fakeAPI{}
	controller, feed := newTestController(api)

	assert.Nil(t, controller.Snapshots())

	_, err := controller.Create(t.Context())
	require.NoError(t, err)

	feed.snapshots <- client.Snapshot{
		Sequence: 1,
		Users:    []client.User{{ID: "u1", Lat: 51.5, Lng: -0.1}},
	}

	select {
	case snapshot := <-controller.Snapshots():
		assert.Equal(t, uint64(1), snapshot.Sequence)
		require.Len(t, snapshot.Users, 1)
		assert.Equal(t, "u1", snapshot.Users[0].ID)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for snapshot")
	}
}

func TestControllerEnd(t *testing.T) {
	api := &fakeAPI{}
	controller, feed := newTestController(api)

	_, err := controller.Create(t.Context())
	require.NoError(t, err)

	require.NoError(t, controller.End(t.Context()))
	assert.Equal(t, []string{"AB12CD"}, api.deleted)
	assert.True(t, feed.closed)

	_, ok := controller.Session()
	assert.False(t, ok)

	assert.ErrorIs(t, controller.End(t.Context()), ErrNoSession)
}

func TestControllerEndToleratesGoneSession(t *testing.T) {
	api := &fakeAPI{deleteErr: client.ErrSessionNotFound}
	controller, _ := newTestController(api)

	_, err := controller.Create(t.Context())
	require.NoError(t, err)

	// already swept server-side; local teardown still completes
	require.NoError(t, controller.End(t.Context()))

	_, ok := controller.Session()
	assert.False(t, ok)
}

func TestControllerClosePreservesSession(t *testing.T) {
	api := &fakeAPI{}
	controller, feed := newTestController(api)

	_, err := controller.Create(t.Context())
	require.NoError(t, err)

	controller.Close()
	assert.True(t, feed.closed)
	assert.Empty(t, api.deleted)

	// the code is resumable after a plain close
	feed.closed = false
	feed.connected = false

	session, err := controller.Resume(t.Context(), "AB12CD")
	require.NoError(t, err)
	assert.Equal(t, "AB12CD", session.Code)
	assert.True(t, feed.connected)
}
