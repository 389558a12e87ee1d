package audit_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gosuda/atlasdash/internal/audit"
	"github.com/gosuda/atlasdash/internal/domain"
)

func TestIsUUID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want bool
	}{
		{"6f1c2a9e-3b4d-4c5e-8f70-1a2b3c4d5e6f", true},
		{"6F1C2A9E-3B4D-4C5E-8F70-1A2B3C4D5E6F", true},
		{"lobby", false},
		{"", false},
		{"6f1c2a9e3b4d4c5e8f701a2b3c4d5e6f", false},
		{"6f1c2a9e-3b4d-4c5e-8f70-1a2b3c4d5e6f-extra", false},
		{"gggggggg-3b4d-4c5e-8f70-1a2b3c4d5e6f", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, audit.IsUUID(tt.in))
		})
	}
}

func TestResolver_Resolve(t *testing.T) {
	t.Parallel()

	api := newFakeAtlas(
		&domain.Server{ID: lobbyID, Name: "lobby", Type: domain.ServerTypeStatic},
		&domain.Server{ID: arenaID, Name: "arena-1", Type: domain.ServerTypeDynamic},
		&domain.Server{ID: "9d1e6c1b-0000-4000-8000-000000000001", Name: "proxy", Type: "PROXY"},
	)
	r := audit.NewResolver(api)
	ctx := context.Background()

	tests := []struct {
		name      string
		locator   string
		wantID    string
		canonical string
		static    bool
	}{
		{"static by name", "lobby", lobbyID, "lobby", true},
		{"static by id", lobbyID, lobbyID, "lobby", true},
		{"dynamic by name", "arena-1", arenaID, arenaID, false},
		{"dynamic by id", arenaID, arenaID, arenaID, false},
		{"unknown type counts as static", "proxy", "9d1e6c1b-0000-4000-8000-000000000001", "proxy", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			out := r.Resolve(ctx, tt.locator)
			require.False(t, out.IsDegraded(), out.Reason())
			assert.Equal(t, tt.wantID, out.Value().ID)
			assert.Equal(t, tt.static, out.Value().Static)
			assert.Equal(t, tt.canonical, out.Value().Canonical())
		})
	}
}

func TestResolver_ResolveDegraded(t *testing.T) {
	t.Parallel()

	api := newFakeAtlas()
	api.getErr = errAtlasDown
	r := audit.NewResolver(api)

	out := r.Resolve(context.Background(), "lobby")
	assert.True(t, out.IsDegraded())
	assert.Contains(t, out.Reason(), errAtlasDown.Error())
	assert.Equal(t, "lobby", out.Value().Canonical())
}

func TestResolver_ResolveServerID(t *testing.T) {
	t.Parallel()

	api := newFakeAtlas(&domain.Server{ID: lobbyID, Name: "lobby", Type: domain.ServerTypeStatic})
	r := audit.NewResolver(api)
	ctx := context.Background()

	id, err := r.ResolveServerID(ctx, "lobby")
	require.NoError(t, err)
	assert.Equal(t, lobbyID, id)

	// UUID-shaped ids pass through without a lookup, even unknown ones.
	id, err = r.ResolveServerID(ctx, arenaID)
	require.NoError(t, err)
	assert.Equal(t, arenaID, id)

	_, err = r.ResolveServerID(ctx, "ghost")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestLogAction_StaticServerStableUnderIDChurn(t *testing.T) {
	t.Parallel()

	h := newHarness(t)

	require.NoError(t, h.startServer(h.ctx, "lobby"))

	// Redeploy: same name, new durable id.
	h.atlas.set(func(f *fakeAtlas) {
		f.servers[0].ID = "11111111-2222-4333-8444-555555555555"
		f.files[f.servers[0].ID] = map[string]string{}
	})
	require.NoError(t, h.startServer(h.ctx, "lobby"))

	logs := h.entries(t, audit.ActionStartServer)
	require.Len(t, logs, 2)
	assert.Equal(t, "lobby", logs[0].ResourceID)
	assert.Equal(t, logs[0].ResourceID, logs[1].ResourceID)

	assert.Equal(t, "11111111-2222-4333-8444-555555555555", logs[0].Details["serverId"])
	assert.Equal(t, lobbyID, logs[1].Details["serverId"])
	assert.Equal(t, "lobby", logs[1].Details["serverName"])
	assert.Equal(t, "STATIC", logs[1].Details["serverType"])
}

func TestLogAction_DynamicServerStableUnderRename(t *testing.T) {
	t.Parallel()

	h := newHarness(t)

	require.NoError(t, h.startServer(h.ctx, "arena-1"))

	h.atlas.set(func(f *fakeAtlas) { f.servers[1].Name = "arena-7" })
	require.NoError(t, h.startServer(h.ctx, "arena-7"))

	logs := h.entries(t, audit.ActionStartServer)
	require.Len(t, logs, 2)
	for _, l := range logs {
		assert.Equal(t, arenaID, l.ResourceID)
		assert.Equal(t, "DYNAMIC", l.Details["serverType"])
	}
	assert.Equal(t, "arena-7", logs[0].Details["serverName"])
	assert.Equal(t, "arena-1", logs[1].Details["serverName"])
}

func TestLogAction_IdentityFallback(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.atlas.set(func(f *fakeAtlas) { f.getErr = errAtlasDown })

	out := h.svc.LogAction(h.ctx, audit.Record{
		Action:       audit.ActionRestartServer,
		ResourceType: domain.ResourceServer,
		ResourceID:   "ignored",
		Details:      map[string]any{"server": "arena-1"},
		Success:      true,
	})
	require.True(t, out.IsDegraded())
	require.NotNil(t, out.Value(), "the entry is still written")
	assert.Equal(t, "arena-1", out.Value().ResourceID)
	assert.NotContains(t, out.Value().Details, "serverId")

	stored := h.latest(t, audit.ActionRestartServer)
	assert.Equal(t, "arena-1", stored.ResourceID)
}

func TestLogAction_FileResourceIsEnriched(t *testing.T) {
	t.Parallel()

	h := newHarness(t)

	out := h.svc.LogAction(h.ctx, audit.Record{
		Action:       audit.ActionCreateServerFolder,
		ResourceType: domain.ResourceFile,
		Details:      map[string]any{"server": "arena-1", "path": "/plugins"},
		Success:      true,
	})
	require.False(t, out.IsDegraded(), out.Reason())
	assert.Equal(t, arenaID, out.Value().ResourceID)
	assert.Equal(t, "arena-1", out.Value().Details["serverName"])
}
