package service

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fuelsoyo/internal/models"
)

func TestLogin(t *testing.T) {
	f := newFixture(t)

	session, err := f.auth.Login(f.ctx, "ADMIN@fuelsoyo.com", demoPassword)
	require.NoError(t, err)
	assert.Equal(t, "u1", session.User.ID)
	assert.Equal(t, models.RoleAdmin, session.User.Role)

	claims, err := f.tokens.ValidateToken(session.Token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, models.RoleAdmin, claims.Role)

	_, err = f.auth.Login(f.ctx, "admin@fuelsoyo.com", "nope")
	assert.ErrorIs(t, err, ErrWrongPassword)

	_, err = f.auth.Login(f.ctx, "ghost@fuelsoyo.com", demoPassword)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestRegister_Driver(t *testing.T) {
	f := newFixture(t)

	session, err := f.auth.Register(f.ctx, RegisterInput{
		Name:            "Nova Motorista",
		Email:           "nova@example.com",
		Password:        "segredo",
		ConfirmPassword: "segredo",
		Role:            models.RoleDriver,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, session.Token)
	assert.Empty(t, session.User.Favorites)
	require.NotNil(t, session.User.Preferences)
	assert.True(t, session.User.Preferences.Email)
	assert.True(t, session.User.Preferences.WhatsApp)
	assert.Empty(t, f.notifications(t), "drivers do not notify admins")

	_, err = f.auth.Login(f.ctx, "nova@example.com", "segredo")
	require.NoError(t, err)

	_, err = f.auth.Register(f.ctx, RegisterInput{Name: "X", Email: "NOVA@example.com", Password: "segredo", Role: models.RoleDriver})
	assert.ErrorIs(t, err, ErrEmailInUse)
}

func TestRegister_ConcurrentSameEmail(t *testing.T) {
	f := newFixture(t)
	const workers = 20

	start := make(chan struct{})
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, errs[i] = f.auth.Register(f.ctx, RegisterInput{
				Name:     "Dup",
				Email:    "dup@x.ao",
				Password: "segredo",
				Role:     models.RoleDriver,
			})
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
		assert.ErrorIs(t, err, ErrEmailInUse)
	}
	assert.Equal(t, 1, ok)

	users, err := f.userRepo.List(f.ctx)
	require.NoError(t, err)
	var stored int
	for _, u := range users {
		if strings.EqualFold(u.Email, "dup@x.ao") {
			stored++
		}
	}
	assert.Equal(t, 1, stored)
}

func TestRegister_SeededEmailIsTaken(t *testing.T) {
	f := newFixture(t)

	_, err := f.auth.Register(f.ctx, RegisterInput{Name: "X", Email: " Motorista@Gmail.com ", Password: "segredo", Role: models.RoleDriver})
	assert.ErrorIs(t, err, ErrEmailInUse)
}

func TestRegister_Operator(t *testing.T) {
	f := newFixture(t)
	in := RegisterInput{Name: "Op Galp", Email: "op@galp.ao", Password: "segredo", Role: models.RoleOperator}

	_, err := f.auth.Register(f.ctx, in)
	assert.ErrorIs(t, err, ErrStationCodeRequired)

	in.StationCode = "NOPE999"
	_, err = f.auth.Register(f.ctx, in)
	assert.ErrorIs(t, err, ErrInvalidStationCode)

	in.StationCode = "galp003"
	session, err := f.auth.Register(f.ctx, in)
	require.NoError(t, err)
	assert.Equal(t, "3", session.User.StationID)

	notes := f.notifications(t)
	require.Len(t, notes, 1)
	assert.Equal(t, models.TargetAdmin, notes[0].Target)
	assert.Equal(t, "Op Galp criou uma conta de operador.", notes[0].Message)
}

func TestRegister_Validation(t *testing.T) {
	f := newFixture(t)

	_, err := f.auth.Register(f.ctx, RegisterInput{
		Name:            "A",
		Email:           "a@example.com",
		Password:        "12345",
		ConfirmPassword: "54321",
		Role:            models.RoleAdmin,
	})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "must be at least 6 characters", verr.Fields["password"])
	assert.Contains(t, verr.Fields, "confirmPassword")
	assert.Contains(t, verr.Fields, "role")
}

func TestToggleFavorite_IsInvolutive(t *testing.T) {
	f := newFixture(t)

	favs, err := f.auth.ToggleFavorite(f.ctx, "u3", "3")
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2", "3"}, favs)

	favs, err = f.auth.ToggleFavorite(f.ctx, "u3", "3")
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2"}, favs)

	_, err = f.auth.ToggleFavorite(f.ctx, "u3", "404")
	assert.ErrorIs(t, err, ErrStationNotFound)
}

func TestToggleFavorite_RemovesDeletedStation(t *testing.T) {
	f := newFixture(t)

	favs, err := f.auth.ToggleFavorite(f.ctx, "u3", "3")
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2", "3"}, favs)

	deleted, err := f.stations.Delete(f.ctx, "3")
	require.NoError(t, err)
	require.True(t, deleted)

	favs, err = f.auth.ToggleFavorite(f.ctx, "u3", "3")
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2"}, favs)

	_, err = f.auth.ToggleFavorite(f.ctx, "u3", "3")
	assert.ErrorIs(t, err, ErrStationNotFound, "a deleted station cannot be added back")
}

func TestMeAndPreferences(t *testing.T) {
	f := newFixture(t)

	me, err := f.auth.UpdatePreferences(f.ctx, "u4", models.Preferences{Email: false, WhatsApp: true})
	require.NoError(t, err)
	assert.False(t, me.Preferences.Email)

	me, err = f.auth.Me(f.ctx, "u4")
	require.NoError(t, err)
	assert.Equal(t, "Cliente Teste", me.Name)
	assert.True(t, me.Preferences.WhatsApp)

	_, err = f.auth.Me(f.ctx, "ghost")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestTokenService_RejectsExpiredAndForeignTokens(t *testing.T) {
	issuer := NewTokenService("secret", time.Minute)
	issuer.now = func() time.Time { return time.Now().Add(-time.Hour) }
	token, _, err := issuer.GenerateToken("u1", models.RoleAdmin)
	require.NoError(t, err)

	_, err = NewTokenService("secret", time.Minute).ValidateToken(token)
	assert.Error(t, err)

	fresh, _, err := NewTokenService("other", time.Minute).GenerateToken("u1", models.RoleAdmin)
	require.NoError(t, err)
	_, err = NewTokenService("secret", time.Minute).ValidateToken(fresh)
	assert.Error(t, err)
}
