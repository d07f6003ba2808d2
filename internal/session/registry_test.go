package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"voicechat-service/internal/common/clock"
)

func newTestRegistry(clk clock.Clock) *Registry {
	return New(time.Hour, clk, zap.NewNop())
}

func TestCreateAndLookup(t *testing.T) {
	reg := newTestRegistry(clock.New())

	s := reg.Create("a", "b")
	require.NotNil(t, s)
	assert.True(t, s.Active)
	assert.Equal(t, "b", s.Partner("a"))
	assert.Equal(t, "a", s.Partner("b"))
	assert.Equal(t, "", s.Partner("c"))

	assert.Equal(t, s, reg.Get(s.ID))
	assert.Equal(t, s, reg.GetByParticipant("a"))
	assert.Equal(t, s, reg.GetByParticipant("b"))
	assert.Nil(t, reg.GetByParticipant("c"))
}

func TestCreateRejectsSameParticipant(t *testing.T) {
	reg := newTestRegistry(clock.New())
	assert.Nil(t, reg.Create("a", "a"))
}

func TestEndStampsAndClearsIndex(t *testing.T) {
	reg := newTestRegistry(clock.New())
	s := reg.Create("a", "b")

	ended := reg.End(s.ID)
	require.NotNil(t, ended)
	assert.False(t, ended.Active)
	require.NotNil(t, ended.EndedAt)

	assert.Nil(t, reg.GetByParticipant("a"))
	assert.Nil(t, reg.GetByParticipant("b"))

	// Ending twice is a no-op.
	assert.Nil(t, reg.End(s.ID))
	assert.Nil(t, reg.End("missing"))
}

func TestAppendMessageOrderedLog(t *testing.T) {
	reg := newTestRegistry(clock.New())
	s := reg.Create("a", "b")

	m1 := reg.AppendMessage(s.ID, "a", "hello")
	m2 := reg.AppendMessage(s.ID, "b", "hi")
	require.NotNil(t, m1)
	require.NotNil(t, m2)

	require.Len(t, s.Messages, 2)
	assert.Equal(t, "hello", s.Messages[0].Content)
	assert.Equal(t, "hi", s.Messages[1].Content)
	assert.Equal(t, s.ID, m1.SessionID)
}

func TestAppendMessageRejectedOnEndedOrMissing(t *testing.T) {
	reg := newTestRegistry(clock.New())
	s := reg.Create("a", "b")
	reg.End(s.ID)

	assert.Nil(t, reg.AppendMessage(s.ID, "a", "late"))
	assert.Nil(t, reg.AppendMessage("missing", "a", "void"))
}

func TestPartnerOf(t *testing.T) {
	reg := newTestRegistry(clock.New())
	s := reg.Create("a", "b")

	assert.Equal(t, "b", reg.PartnerOf(s.ID, "a"))
	assert.Equal(t, "", reg.PartnerOf(s.ID, "x"))
	assert.Equal(t, "", reg.PartnerOf("missing", "a"))
}

func TestCountsAndListActive(t *testing.T) {
	reg := newTestRegistry(clock.New())
	s1 := reg.Create("a", "b")
	reg.Create("c", "d")
	reg.End(s1.ID)

	assert.Equal(t, 1, reg.ActiveCount())
	assert.Equal(t, 2, reg.TotalCount())
	assert.Len(t, reg.ListActive(), 1)
}

func TestGarbageCollectRespectsRetention(t *testing.T) {
	clk := clock.NewFake(time.Now())
	reg := newTestRegistry(clk)
	s := reg.Create("a", "b")
	reg.End(s.ID)

	clk.Advance(30 * time.Minute)
	assert.Equal(t, 0, reg.GarbageCollect())
	assert.NotNil(t, reg.Get(s.ID))

	clk.Advance(31 * time.Minute)
	assert.Equal(t, 1, reg.GarbageCollect())
	assert.Nil(t, reg.Get(s.ID))

	// Active sessions are never collected.
	active := reg.Create("c", "d")
	clk.Advance(5 * time.Hour)
	assert.Equal(t, 0, reg.GarbageCollect())
	assert.NotNil(t, reg.Get(active.ID))
}
