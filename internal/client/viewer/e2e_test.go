package viewer

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/dmitrijs2005/deckviewer/internal/client/apitest"
	"github.com/dmitrijs2005/deckviewer/internal/client/client"
	"github.com/dmitrijs2005/deckviewer/internal/client/loader"
	"github.com/dmitrijs2005/deckviewer/internal/client/models"
	"github.com/dmitrijs2005/deckviewer/internal/client/render"
	"github.com/dmitrijs2005/deckviewer/internal/client/tour"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEndToEnd_OverHTTP(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()
	srv.Document = render.BuildPDF(5)
	srv.AddDeck("board-q3", models.DeckPreferences{HasPassword: true, RequireEmail: true})
	srv.CreateFailures = 1
	srv.UpdateHandler = func(req models.UpdateSessionRequest) (int, string) {
		if req.Email != "" && req.Password != "secret" {
			return http.StatusUnauthorized, "Invalid credentials"
		}
		return http.StatusOK, ""
	}

	api, err := client.NewDeckClient(srv.URL, client.WithRetry(1, time.Millisecond), client.WithUserAgent("e2e"))
	require.NoError(t, err)
	defer api.Close()

	v := New(Deps{
		Client:   api,
		Loader:   loader.New(loader.Mux{"http": &loader.HTTPSource{}}),
		TourFlag: tour.NewMemoryStore(true),
	}, Options{
		Slug:      "board-q3",
		UserAgent: "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36",
	})
	ctx := context.Background()

	require.NoError(t, v.Open(ctx), "the first failure is retried")
	require.NoError(t, v.SubmitPassword(ctx, "secret"))
	require.NoError(t, v.SubmitEmail(ctx, "viewer@example.com"))

	require.Eventually(t, func() bool { return v.View().Phase == PhaseReady }, waitFor, time.Millisecond)
	view := v.View()
	assert.Equal(t, 5, view.NumPages)
	assert.Equal(t, 100, view.Progress)

	v.Close(ctx)

	updates := srv.Updates()
	require.Len(t, updates, 2)
	assert.Equal(t, "viewer@example.com", updates[0].Email)
	assert.Equal(t, "secret", updates[0].Password)
	assert.Equal(t, "sess-1", updates[0].SessionID)
	require.NotNil(t, updates[1].TimeSpent, "final flush on close")

	var creates []apitest.Call
	for _, c := range srv.Calls() {
		if c.Method == http.MethodPost {
			creates = append(creates, c)
		}
	}
	require.Len(t, creates, 2)
	assert.Equal(t, "e2e", creates[1].UserAgent)
	assert.Contains(t, string(creates[1].Body), `"browser":"Chrome"`)
}
