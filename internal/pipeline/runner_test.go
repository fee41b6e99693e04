package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mhdb/internal/config"
	"mhdb/internal/dataset"
	"mhdb/internal/logger"
	"mhdb/internal/models"
	"mhdb/internal/payload"
	"mhdb/internal/store"
)

const capsPage = `<html><body><div class="services">
<h2>Counseling and Consultation Service</h2>
<p>Confidential counseling for students in crisis or under stress.</p>
<p>Call (614) 292-5766 or write ccs@osu.edu</p>
</div></body></html>`

type fixture struct {
	cfg      *config.Config
	storeURL string
	dir      string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	pages := http.NewServeMux()
	pages.HandleFunc("/caps", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(capsPage))
	})

	pageSrv := httptest.NewServer(pages)
	t.Cleanup(pageSrv.Close)

	st, err := store.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	storeSrv := httptest.NewServer(store.NewServer(store.ServerOptions{
		Store:  st,
		Logger: logger.NewLogger("error"),
		APIKey: "secret",
	}).Handler())
	t.Cleanup(storeSrv.Close)

	dir := t.TempDir()

	targets := models.TargetSet{
		Colleges: []models.Target{
			{
				Name:             "Ohio State University",
				Location:         "Columbus, OH",
				Latitude:         models.Coord(40.0076),
				Longitude:        models.Coord(-83.03),
				Website:          "https://www.osu.edu",
				MentalHealthURLs: []string{pageSrv.URL + "/caps", pageSrv.URL + "/missing"},
			},
			{Name: "Kent State University", Source: models.SourceManual},
			{
				Name:             "Broken University",
				Location:         "Nowhere, OH",
				Latitude:         models.Coord(41),
				Longitude:        models.Coord(-82),
				Website:          "https://broken.example.edu",
				MentalHealthURLs: []string{pageSrv.URL + "/missing"},
			},
		},
		States: []string{"OH"},
	}

	writeJSON(t, filepath.Join(dir, "targets.json"), targets)
	writeJSON(t, filepath.Join(dir, "manual.json"), []models.Institution{{
		Name:      "Kent State University",
		Location:  "Kent, OH",
		Latitude:  models.Coord(41.1493),
		Longitude: models.Coord(-81.3415),
		Website:   "https://www.kent.edu",
		Resources: []models.Resource{
			{ServiceName: "Psychological Services", ContactPhone: "330-672-2487"},
		},
	}})

	cfg := config.Default()
	cfg.Scraper.TargetsPath = filepath.Join(dir, "targets.json")
	cfg.Scraper.PageDelayMs = 0
	cfg.Scraper.InstitutionDelayMs = 0
	cfg.Scraper.Retry.MaxAttempts = 1
	cfg.Output.Path = filepath.Join(dir, "out", "scraped.json")
	cfg.Output.SeedPath = filepath.Join(dir, "manual.json")
	cfg.Output.MetricsPath = filepath.Join(dir, "run.prom")
	cfg.Store.BaseURL = storeSrv.URL + store.APIPrefix
	cfg.Store.APIKey = "secret"

	return &fixture{cfg: cfg, storeURL: storeSrv.URL, dir: dir}
}

func writeJSON(t *testing.T, path string, v any) {
	t.Helper()

	data, err := json.Marshal(v)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0644))
}

func newTestRunner(t *testing.T, cfg *config.Config, confirm ConfirmFunc) *Runner {
	t.Helper()

	r, err := New(Options{Config: cfg, Logger: logger.NewLogger("error"), Confirm: confirm})
	require.NoError(t, err)

	return r
}

func TestRunner_Run(t *testing.T) {
	f := newFixture(t)

	asked := 0
	r := newTestRunner(t, f.cfg, func(_ context.Context, n int) (bool, error) {
		asked = n
		return true, nil
	})

	sum, err := r.Run(context.Background(), true)
	require.NoError(t, err)

	assert.Equal(t, r.RunID(), sum.RunID)
	assert.Equal(t, 3, sum.Targets)
	assert.Equal(t, 1, sum.Skipped)
	assert.Equal(t, 2, sum.Scraped)
	assert.Equal(t, 1, sum.Seeded)
	assert.Equal(t, 2, sum.Accepted)
	assert.Equal(t, 2, sum.Resources)
	assert.Equal(t, 2, asked)
	assert.Equal(t, []string{"Broken University"}, sum.FailedInstitutions)

	require.Len(t, sum.Rejected, 1)
	assert.Equal(t, "Broken University", sum.Rejected[0].Institution.Name)

	require.NotNil(t, sum.Import)
	assert.Equal(t, 2, sum.Import.Colleges)
	assert.Equal(t, 2, sum.Import.Resources)

	require.NoError(t, dataset.VerifyFile(f.cfg.Output.Path, sum.SnapshotDigest))

	saved, err := dataset.LoadInstitutions(f.cfg.Output.Path)
	require.NoError(t, err)
	require.Len(t, saved, 2)
	assert.Equal(t, "Kent State University", saved[0].Name)
	assert.Equal(t, "Ohio State University", saved[1].Name)
	assert.Equal(t, "Counseling and Consultation Service", saved[1].Resources[0].ServiceName)
	assert.Equal(t, "ccs@osu.edu", saved[1].Resources[0].ContactEmail)

	prom, err := os.ReadFile(f.cfg.Output.MetricsPath)
	require.NoError(t, err)
	assert.Contains(t, string(prom), `mhdb_institutions_total{outcome="rejected"} 1`)
}

func TestRunner_RunTwiceKeepsStoreCount(t *testing.T) {
	f := newFixture(t)

	for range 2 {
		sum, err := newTestRunner(t, f.cfg, nil).Run(context.Background(), true)
		require.NoError(t, err)
		assert.Equal(t, 2, sum.Import.Colleges)
	}
}

func TestRunner_Declined(t *testing.T) {
	f := newFixture(t)

	r := newTestRunner(t, f.cfg, func(context.Context, int) (bool, error) { return false, nil })

	sum, err := r.Run(context.Background(), true)
	require.ErrorIs(t, err, ErrDeclined)
	assert.Equal(t, "Cancelled", Category(err))
	assert.Nil(t, sum.Import)

	_, err = dataset.LoadInstitutions(f.cfg.Output.Path)
	assert.NoError(t, err, "snapshot is written before the import")
}

func TestRunner_StoreUnreachable(t *testing.T) {
	f := newFixture(t)

	closed := httptest.NewServer(http.NotFoundHandler())
	closed.Close()
	f.cfg.Store.BaseURL = closed.URL + store.APIPrefix

	_, err := newTestRunner(t, f.cfg, nil).Run(context.Background(), true)
	require.Error(t, err)
	assert.Equal(t, "Store unreachable", Category(err))
}

func TestRunner_WrongAPIKey(t *testing.T) {
	f := newFixture(t)
	f.cfg.Store.APIKey = "wrong"

	_, err := newTestRunner(t, f.cfg, nil).Run(context.Background(), true)
	require.Error(t, err)
	assert.Equal(t, "Store rejected payload", Category(err))
}

func TestRunner_ScrapeOnly(t *testing.T) {
	f := newFixture(t)
	f.cfg.Store.BaseURL = "http://127.0.0.1:1/api"

	sum, err := newTestRunner(t, f.cfg, nil).Run(context.Background(), false)
	require.NoError(t, err)
	assert.Nil(t, sum.Import)
	assert.NotEmpty(t, sum.Tables())
}

func TestRunner_Cancelled(t *testing.T) {
	f := newFixture(t)
	f.cfg.Scraper.InstitutionDelayMs = 60_000

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestRunner(t, f.cfg, nil).Run(ctx, true)
	require.Error(t, err)
	assert.Equal(t, "Interrupted", Category(err))
}

func TestRunner_MissingTargets(t *testing.T) {
	f := newFixture(t)
	f.cfg.Scraper.TargetsPath = filepath.Join(f.dir, "nope.json")

	_, err := newTestRunner(t, f.cfg, nil).Run(context.Background(), false)
	require.ErrorIs(t, err, dataset.ErrNotFound)
	assert.Equal(t, "Load error", Category(err))
}

func TestRunner_MalformedSeed(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, os.WriteFile(f.cfg.Output.SeedPath, []byte(`[{"name":"Ohio State","latitude":"39.99"}]`), 0644))

	_, err := newTestRunner(t, f.cfg, nil).Run(context.Background(), false)
	require.ErrorIs(t, err, dataset.ErrMalformed)
	assert.Equal(t, "Load error", Category(err))
}

func TestRunner_MalformedTargets(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, os.WriteFile(f.cfg.Scraper.TargetsPath, []byte(`{"colleges":[{"name":"X",},,]}`), 0644))

	_, err := newTestRunner(t, f.cfg, nil).Run(context.Background(), false)
	require.ErrorIs(t, err, dataset.ErrMalformed)
	assert.Equal(t, "Load error", Category(err))
}

func TestRunner_ImportNothingSkipsConfirm(t *testing.T) {
	f := newFixture(t)

	asked := false
	r := newTestRunner(t, f.cfg, func(context.Context, int) (bool, error) {
		asked = true
		return true, nil
	})

	_, err := r.Import(context.Background(), nil)
	require.ErrorIs(t, err, payload.ErrNothingToImport)
	assert.False(t, asked)
}

func TestNew_UnknownPolicy(t *testing.T) {
	cfg := config.Default()
	cfg.Validation.Policy = "medium"

	_, err := New(Options{Config: cfg, Logger: logger.NewLogger("error")})
	require.ErrorIs(t, err, ErrConfig)
	assert.Equal(t, "Configuration error", Category(err))
}

func TestCategory_Default(t *testing.T) {
	assert.Equal(t, "Error", Category(fmt.Errorf("boom")))
}
