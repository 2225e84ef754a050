package reservation

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"reservations/internal/database"
	"reservations/internal/domain"
	"reservations/internal/pkg/clock"
	"reservations/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newSQLiteService wires the service to a private in-memory SQLite database.
func newSQLiteService(t *testing.T) *Service {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := database.Connect(fmt.Sprintf("file:reservation_service_test_%s?mode=memory&cache=shared", name))
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })
	require.NoError(t, repository.Migrate(context.Background(), db))

	return NewService(repository.NewReservationRepository(db), clock.NewManual(serviceNow), nil)
}

// newSharedFileServices starts n services, each with its own connection pool,
// on one SQLite file, the way separate API processes share a database.
func newSharedFileServices(t *testing.T, n int) []*Service {
	t.Helper()

	path := filepath.Join(t.TempDir(), "shared.db")
	services := make([]*Service, 0, n)
	for i := 0; i < n; i++ {
		db, err := database.Connect(path)
		require.NoError(t, err)
		t.Cleanup(func() { _ = database.Close(db) })
		if i == 0 {
			require.NoError(t, repository.Migrate(context.Background(), db))
		}
		services = append(services, NewService(repository.NewReservationRepository(db), clock.NewManual(serviceNow), nil))
	}
	return services
}

func request(roomID int64, user, start, end string) CreateReservationRequest {
	return CreateReservationRequest{RoomID: roomID, UserName: user, StartTime: start, EndTime: end}
}

func TestService_ConcurrentOverlappingCreates_OneWins(t *testing.T) {
	svc := newSQLiteService(t)
	ctx := context.Background()

	const workers = 16
	var (
		wg        sync.WaitGroup
		succeeded atomic.Int32
		conflicts atomic.Int32
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			start := fmt.Sprintf("2030-01-01T10:%02d:00Z", i)
			_, err := svc.Create(ctx, request(1, fmt.Sprintf("user-%d", i), start, "2030-01-01T11:30:00Z"))
			switch {
			case err == nil:
				succeeded.Add(1)
			case assert.ErrorIs(t, err, ErrConflict):
				conflicts.Add(1)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), succeeded.Load())
	assert.Equal(t, int32(workers-1), conflicts.Load())

	rs, err := svc.ListByRoom(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, rs, 1)
}

func TestService_ConcurrentCreates_DifferentRoomsIndependent(t *testing.T) {
	svc := newSQLiteService(t)
	ctx := context.Background()

	const rooms = 8
	var wg sync.WaitGroup
	errs := make([]error, rooms)
	for i := 0; i < rooms; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Create(ctx, request(int64(i+1), "alice", "2030-01-01T10:00:00Z", "2030-01-01T11:00:00Z"))
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		assert.NoError(t, err, "room %d", i+1)
	}
	all, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, rooms)
}

func TestService_BackToBackReservationsAllowed(t *testing.T) {
	svc := newSQLiteService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, request(1, "alice", "2030-01-01T10:00:00Z", "2030-01-01T11:00:00Z"))
	require.NoError(t, err)
	_, err = svc.Create(ctx, request(1, "bob", "2030-01-01T11:00:00Z", "2030-01-01T12:00:00Z"))
	require.NoError(t, err)
	_, err = svc.Create(ctx, request(1, "carol", "2030-01-01T09:00:00Z", "2030-01-01T10:00:00Z"))
	require.NoError(t, err)

	rs, err := svc.ListByRoom(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, rs, 3)
}

func TestService_StrictOverlapRejected(t *testing.T) {
	svc := newSQLiteService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, request(1, "alice", "2030-01-01T10:00:00Z", "2030-01-01T11:00:00Z"))
	require.NoError(t, err)

	cases := []struct {
		name       string
		start, end string
	}{
		{name: "identical", start: "2030-01-01T10:00:00Z", end: "2030-01-01T11:00:00Z"},
		{name: "contained", start: "2030-01-01T10:15:00Z", end: "2030-01-01T10:45:00Z"},
		{name: "containing", start: "2030-01-01T09:00:00Z", end: "2030-01-01T12:00:00Z"},
		{name: "overlaps start", start: "2030-01-01T09:30:00Z", end: "2030-01-01T10:01:00Z"},
		{name: "overlaps end", start: "2030-01-01T10:59:00Z", end: "2030-01-01T11:30:00Z"},
		{name: "other offset", start: "2030-01-01T12:30:00+02:00", end: "2030-01-01T13:30:00+02:00"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(ctx, request(1, "bob", tc.start, tc.end))
			var conflict *ConflictError
			require.ErrorAs(t, err, &conflict)
			assert.Equal(t, int64(1), conflict.RoomID)
			assert.True(t, conflict.Conflicting.Start.Equal(time.Date(2030, 1, 1, 10, 0, 0, 0, time.UTC)))
		})
	}

	// Same interval in another room is unaffected.
	_, err = svc.Create(ctx, request(2, "bob", "2030-01-01T10:00:00Z", "2030-01-01T11:00:00Z"))
	assert.NoError(t, err)
}

func TestService_ListOrderedByStart(t *testing.T) {
	svc := newSQLiteService(t)
	ctx := context.Background()

	for _, hour := range []int{12, 9, 15} {
		start := fmt.Sprintf("2030-01-01T%02d:00:00Z", hour)
		end := fmt.Sprintf("2030-01-01T%02d:30:00Z", hour)
		_, err := svc.Create(ctx, request(1, fmt.Sprintf("h%d", hour), start, end))
		require.NoError(t, err)
	}

	rs, err := svc.ListByRoom(ctx, 1)
	require.NoError(t, err)
	require.Len(t, rs, 3)
	assert.Equal(t, []int{9, 12, 15}, []int{rs[0].StartTime.Hour(), rs[1].StartTime.Hour(), rs[2].StartTime.Hour()})

	empty, err := svc.ListByRoom(ctx, 99)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestService_RoundTrip(t *testing.T) {
	svc := newSQLiteService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, request(3, "  Zoë  ", "2030-01-01T12:00:00+02:00", "2030-01-01T13:00:00+02:00"))
	require.NoError(t, err)

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "  Zoë  ", got.UserName)
	assert.Equal(t, int64(3), got.RoomID)
	assert.True(t, got.StartTime.Equal(time.Date(2030, 1, 1, 10, 0, 0, 0, time.UTC)))
	assert.True(t, got.EndTime.Equal(time.Date(2030, 1, 1, 11, 0, 0, 0, time.UTC)))

	rs, err := svc.ListByRoom(ctx, 3)
	require.NoError(t, err)
	require.Len(t, rs, 1)
	assert.Equal(t, created.ID, rs[0].ID)
}

func TestService_DeleteFreesInterval(t *testing.T) {
	svc := newSQLiteService(t)
	ctx := context.Background()

	first, err := svc.Create(ctx, request(1, "alice", "2030-01-01T10:00:00Z", "2030-01-01T11:00:00Z"))
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, first.ID))
	assert.ErrorIs(t, svc.Delete(ctx, first.ID), ErrNotFound)

	_, err = svc.Get(ctx, first.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	second, err := svc.Create(ctx, request(1, "bob", "2030-01-01T10:00:00Z", "2030-01-01T11:00:00Z"))
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestService_CancelledCreateReleasesRoom(t *testing.T) {
	svc := newSQLiteService(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := svc.Create(ctx, request(1, "alice", "2030-01-01T10:00:00Z", "2030-01-01T11:00:00Z"))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrConflict)

	_, err = svc.Create(context.Background(), request(1, "bob", "2030-01-01T10:00:00Z", "2030-01-01T11:00:00Z"))
	assert.NoError(t, err)
}

func TestService_SharedDatabase_DistinctRoomsNeverConflict(t *testing.T) {
	services := newSharedFileServices(t, 6)
	ctx := context.Background()

	const rounds = 10
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		failures []error
	)
	for round := 0; round < rounds; round++ {
		for i, svc := range services {
			wg.Add(1)
			go func(svc *Service, roomID int64) {
				defer wg.Done()
				if _, err := svc.Create(ctx, request(roomID, "alice", "2030-01-01T10:00:00Z", "2030-01-01T11:00:00Z")); err != nil {
					mu.Lock()
					failures = append(failures, err)
					mu.Unlock()
				}
			}(svc, int64(round*len(services)+i+1))
		}
		wg.Wait()
	}

	assert.Empty(t, failures)
	all, err := services[0].List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, rounds*len(services))
}

func TestService_SharedDatabase_SameRoomOneWins(t *testing.T) {
	services := newSharedFileServices(t, 6)
	ctx := context.Background()

	var (
		wg        sync.WaitGroup
		succeeded atomic.Int32
		conflicts atomic.Int32
	)
	for i, svc := range services {
		wg.Add(1)
		go func(svc *Service, i int) {
			defer wg.Done()
			start := fmt.Sprintf("2030-01-01T10:%02d:00Z", i)
			_, err := svc.Create(ctx, request(1, fmt.Sprintf("user-%d", i), start, "2030-01-01T11:30:00Z"))
			switch {
			case err == nil:
				succeeded.Add(1)
			case assert.ErrorIs(t, err, ErrConflict):
				conflicts.Add(1)
			}
		}(svc, i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), succeeded.Load())
	assert.Equal(t, int32(len(services)-1), conflicts.Load())

	rs, err := services[0].ListByRoom(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, rs, 1)
}

var _ domain.ReservationStore = (*repository.ReservationRepository)(nil)
