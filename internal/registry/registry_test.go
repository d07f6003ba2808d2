package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"voicechat-service/internal/common/clock"
	"voicechat-service/internal/models"
)

func newTestRegistry() *Registry {
	return New(clock.New(), zap.NewNop())
}

func intPtr(v int) *int { return &v }

func TestRegisterAssignsIdentity(t *testing.T) {
	reg := newTestRegistry()

	p := reg.Register(intPtr(25), "DE")
	require.NotEmpty(t, p.ID)
	assert.True(t, p.Connected)
	assert.Equal(t, models.CallStatusIdle, p.CallStatus)
	assert.Equal(t, "DE", p.Country)

	got := reg.Get(p.ID)
	require.NotNil(t, got)
	assert.Equal(t, p.ID, got.ID)
}

func TestGetUnknownReturnsNil(t *testing.T) {
	reg := newTestRegistry()
	assert.Nil(t, reg.Get("missing"))
	assert.Nil(t, reg.Update("missing", Update{}))
	assert.Nil(t, reg.Remove("missing"))
}

func TestUpdateMergesPartialFields(t *testing.T) {
	reg := newTestRegistry()
	p := reg.Register(nil, "")

	status := models.CallStatusInCall
	partner := "other"
	level := 0.42
	updated := reg.Update(p.ID, Update{CallStatus: &status, PartnerID: &partner, AudioLevel: &level})
	require.NotNil(t, updated)
	assert.Equal(t, models.CallStatusInCall, updated.CallStatus)
	assert.Equal(t, "other", updated.PartnerID)
	assert.Equal(t, 0.42, updated.AudioLevel)

	muted := true
	reg.Update(p.ID, Update{Muted: &muted})
	assert.Equal(t, models.CallStatusInCall, reg.Get(p.ID).CallStatus)
	assert.True(t, reg.Get(p.ID).Muted)
}

func TestRemoveEvictsFromWaitingPool(t *testing.T) {
	reg := newTestRegistry()
	p := reg.Register(nil, "")
	reg.AddWaiting(p.ID)
	require.True(t, reg.IsWaiting(p.ID))

	removed := reg.Remove(p.ID)
	require.NotNil(t, removed)
	assert.False(t, reg.IsWaiting(p.ID))
	assert.Nil(t, reg.Get(p.ID))
}

func TestAddWaitingIsIdempotent(t *testing.T) {
	reg := newTestRegistry()
	p := reg.Register(nil, "")

	reg.AddWaiting(p.ID)
	reg.AddWaiting(p.ID)

	ids := reg.ListWaiting(models.CallFilters{})
	assert.Len(t, ids, 1)
}

func TestAddWaitingUnknownParticipantIgnored(t *testing.T) {
	reg := newTestRegistry()
	reg.AddWaiting("ghost")
	assert.False(t, reg.IsWaiting("ghost"))
}

func TestListWaitingAppliesFilters(t *testing.T) {
	reg := newTestRegistry()
	young := reg.Register(intPtr(19), "DE")
	old := reg.Register(intPtr(64), "FR")
	unknown := reg.Register(nil, "")
	for _, p := range []*models.Participant{young, old, unknown} {
		reg.AddWaiting(p.ID)
	}

	ids := reg.ListWaiting(models.CallFilters{MinAge: intPtr(18), MaxAge: intPtr(30)})
	// The participant with no age is permissive, not excluded.
	assert.ElementsMatch(t, []string{young.ID, unknown.ID}, ids)

	ids = reg.ListWaiting(models.CallFilters{Countries: []string{"FR"}})
	assert.ElementsMatch(t, []string{old.ID, unknown.ID}, ids)
}

func TestMatchesFiltersPermissiveOnMissing(t *testing.T) {
	withAge := &models.Participant{Age: intPtr(40), Country: "US"}
	withoutAttrs := &models.Participant{}

	// Bound present, attribute present: enforced.
	assert.False(t, MatchesFilters(withAge, models.CallFilters{MaxAge: intPtr(30)}))
	assert.True(t, MatchesFilters(withAge, models.CallFilters{MinAge: intPtr(30)}))
	assert.False(t, MatchesFilters(withAge, models.CallFilters{Countries: []string{"DE"}}))

	// Attribute absent: the bound is skipped.
	assert.True(t, MatchesFilters(withoutAttrs, models.CallFilters{MinAge: intPtr(30), MaxAge: intPtr(40)}))
	assert.True(t, MatchesFilters(withoutAttrs, models.CallFilters{Countries: []string{"DE"}}))

	// Bound absent: nothing enforced.
	assert.True(t, MatchesFilters(withAge, models.CallFilters{}))
}
