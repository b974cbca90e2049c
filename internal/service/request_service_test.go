package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fuelsoyo/internal/models"
	"fuelsoyo/internal/store"
)

// conflictingBackend fails every compare-and-swap on one table.
type conflictingBackend struct {
	store.Backend
	table string
}

func (b conflictingBackend) Swap(ctx context.Context, table, id string, version int64, data []byte) (store.Row, error) {
	if table == b.table {
		return store.Row{}, store.ErrConflict
	}
	return b.Backend.Swap(ctx, table, id, version, data)
}

func validRequest() SubmitRequestInput {
	return SubmitRequestInput{
		StationName: "Novo Posto Kwanda",
		Address:     "Base do Kwanda",
		ManagerName: "Pedro Lopes",
		Phone:       "+244 900 000 000",
		Email:       "pedro@kwanda.ao",
	}
}

func TestSubmit_NotifiesAdmins(t *testing.T) {
	f := newFixture(t)

	req, err := f.requests.Submit(f.ctx, validRequest())
	require.NoError(t, err)
	assert.Equal(t, models.RequestPending, req.Status)

	notes := f.notifications(t)
	require.Len(t, notes, 1)
	assert.Equal(t, models.TargetAdmin, notes[0].Target)
	assert.Equal(t, "Nova Solicitação de Posto", notes[0].Title)
	assert.Equal(t, "Solicitação recebida de Pedro Lopes para o posto Novo Posto Kwanda.", notes[0].Message)
	assert.Equal(t, models.SeverityInfo, notes[0].Severity)
	assert.Equal(t, "/admin", notes[0].Link)

	pending, err := f.requests.Pending(f.ctx)
	require.NoError(t, err)
	assert.Len(t, pending, 1)
	assert.Empty(t, f.emailLogs(t))
}

func TestSubmit_Validation(t *testing.T) {
	f := newFixture(t)

	in := validRequest()
	in.Email = "not-an-email"
	in.ManagerName = ""
	_, err := f.requests.Submit(f.ctx, in)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "must be a valid email", verr.Fields["email"])
	assert.Equal(t, "is required", verr.Fields["managerName"])
}

func TestApprove_CreatesStationAndAnnounces(t *testing.T) {
	f := newFixture(t)
	req, err := f.requests.Submit(f.ctx, validRequest())
	require.NoError(t, err)
	f.random.ints = []int{77}

	st, err := f.requests.Approve(f.ctx, req.ID, "")
	require.NoError(t, err)
	assert.Equal(t, "NOV0077", st.StationCode)
	assert.Equal(t, models.MapPoint{X: 50, Y: 50}, st.Coords)
	assert.Equal(t, "08:00 - 18:00", st.OpenHours)
	assert.Equal(t, "Pedro Lopes", st.Manager)
	assert.Equal(t, "https://picsum.photos/seed/"+req.ID+"/800/400", st.ImageURL)
	assert.False(t, st.Status.Gasoline)
	assert.False(t, st.Status.Diesel)

	stored, err := f.requestRepo.GetByID(f.ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RequestApproved, stored.Status)
	assert.Equal(t, st.ID, stored.StationID)
	require.NotNil(t, stored.DecidedAt)

	all, err := f.stations.List(f.ctx)
	require.NoError(t, err)
	assert.Len(t, all, 5)

	logs := f.emailLogs(t)
	require.Len(t, logs, 2)
	assert.Equal(t, "Novo Posto em Soyo: Novo Posto Kwanda", logs[0].Subject)

	var announced *models.AppNotification
	for _, n := range f.notifications(t) {
		if n.Target == models.TargetAllUsers {
			announced = &n
		}
	}
	require.NotNil(t, announced)
	assert.Equal(t, "Novo Posto Cadastrado!", announced.Title)
	assert.Equal(t, models.SeveritySuccess, announced.Severity)
}

func TestApprove_CustomImageAndDecidedRequest(t *testing.T) {
	f := newFixture(t)
	req, err := f.requests.Submit(f.ctx, validRequest())
	require.NoError(t, err)

	st, err := f.requests.Approve(f.ctx, req.ID, "https://img.example/a.png")
	require.NoError(t, err)
	assert.Equal(t, "https://img.example/a.png", st.ImageURL)

	_, err = f.requests.Approve(f.ctx, req.ID, "")
	assert.ErrorIs(t, err, ErrRequestDecided)
	_, err = f.requests.Reject(f.ctx, req.ID)
	assert.ErrorIs(t, err, ErrRequestDecided)

	all, err := f.stations.List(f.ctx)
	require.NoError(t, err)
	assert.Len(t, all, 5, "second approval must not add a station")
}

func TestApprove_ConcurrentCreatesOneStation(t *testing.T) {
	f := newFixture(t)
	req, err := f.requests.Submit(f.ctx, validRequest())
	require.NoError(t, err)
	f.random.ints = make([]int, 100)
	for i := range f.random.ints {
		f.random.ints[i] = i
	}

	const workers = 10
	start := make(chan struct{})
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, errs[i] = f.requests.Approve(f.ctx, req.ID, "")
		}()
	}
	close(start)
	wg.Wait()

	var ok int
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.True(t, errors.Is(err, ErrRequestDecided) || errors.Is(err, store.ErrConflict), "unexpected error: %v", err)
	}
	assert.Equal(t, 1, ok)

	all, err := f.stations.List(f.ctx)
	require.NoError(t, err)
	assert.Len(t, all, 5, "losing approvals must remove their station")

	stored, err := f.requestRepo.GetByID(f.ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RequestApproved, stored.Status)
	_, err = f.stations.GetByID(f.ctx, stored.StationID)
	assert.NoError(t, err)
}

func TestApprove_RollsBackStationWhenRequestUpdateFails(t *testing.T) {
	f := newFixtureWithBackend(t, conflictingBackend{Backend: store.NewMemoryBackend(), table: store.TableRequests})
	req, err := f.requests.Submit(f.ctx, validRequest())
	require.NoError(t, err)
	f.random.ints = []int{77}

	_, err = f.requests.Approve(f.ctx, req.ID, "")
	assert.ErrorIs(t, err, store.ErrConflict)

	all, err := f.stations.List(f.ctx)
	require.NoError(t, err)
	assert.Len(t, all, 4)
	_, err = f.stationRepo.GetByCode(f.ctx, "NOV0077")
	assert.ErrorIs(t, err, ErrStationNotFound)

	// The rolled back code is free again.
	err = f.stationRepo.Create(f.ctx, &models.Station{ID: "reuse", Name: "Novo", StationCode: "NOV0077"})
	assert.NoError(t, err)
}

func TestApprove_UnknownRequest(t *testing.T) {
	f := newFixture(t)

	_, err := f.requests.Approve(f.ctx, "missing", "")
	assert.ErrorIs(t, err, ErrRequestNotFound)
}

func TestReject_HasNoSideEffects(t *testing.T) {
	f := newFixture(t)
	req, err := f.requests.Submit(f.ctx, validRequest())
	require.NoError(t, err)

	rejected, err := f.requests.Reject(f.ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RequestRejected, rejected.Status)
	assert.NotNil(t, rejected.DecidedAt)

	assert.Empty(t, f.emailLogs(t))
	assert.Len(t, f.notifications(t), 1, "only the submission notice")

	list, err := f.requests.List(f.ctx, models.RequestRejected)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = f.requests.List(f.ctx, "bogus")
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
}
