package server

import (
	"log/slog"
	"net/http"

	"github.com/bjarke-xyz/ams-gateway/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// ApplicationStore is the read side of the client application store.
type ApplicationStore interface {
	Applications() []domain.Application
	Application(applicationID string) (domain.Application, bool)
	ApplicationLogo(application domain.Application) string
	ExistMeme(name string, ticker string) bool
}

type storeViews struct {
	logger  *slog.Logger
	store   ApplicationStore
	apiHost string
}

// StoreRoutes exposes read-only views of a client store. apiHost is used to
// build per-chain application urls.
func StoreRoutes(logger *slog.Logger, store ApplicationStore, apiHost string) *chi.Mux {
	v := &storeViews{logger: logger, store: store, apiHost: apiHost}
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/up", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("up!"))
	})
	r.Get("/applications", v.handleListApplications)
	r.Get("/applications/{application-id}", v.handleGetApplication)
	r.Get("/applications/{application-id}/logo", v.handleApplicationLogo)
	r.Get("/applications/{application-id}/url", v.handleApplicationURL)
	r.Get("/memes/exists", v.handleExistMeme)
	return r
}

type applicationView struct {
	domain.Application
	AccountDescription string `json:"accountDescription"`
	OwnerID            string `json:"ownerId,omitempty"`
	LogoPath           string `json:"logoPath"`
}

func (v *storeViews) view(app domain.Application) applicationView {
	ownerID, _ := domain.AccountOwner(app)
	return applicationView{
		Application:        app,
		AccountDescription: domain.AccountDescription(app),
		OwnerID:            ownerID,
		LogoPath:           v.store.ApplicationLogo(app),
	}
}

func (v *storeViews) handleListApplications(w http.ResponseWriter, r *http.Request) {
	applications := v.store.Applications()
	views := make([]applicationView, 0, len(applications))
	for _, app := range applications {
		views = append(views, v.view(app))
	}
	jsonResponse(w, http.StatusOK, views)
}

func (v *storeViews) application(w http.ResponseWriter, r *http.Request) (domain.Application, bool) {
	applicationID := chi.URLParam(r, "application-id")
	app, ok := v.store.Application(applicationID)
	if !ok {
		v.logger.Debug("application not in store", "applicationId", applicationID)
		http.Error(w, domain.ErrNotFound.Error(), http.StatusNotFound)
	}
	return app, ok
}

func (v *storeViews) handleGetApplication(w http.ResponseWriter, r *http.Request) {
	app, ok := v.application(w, r)
	if !ok {
		return
	}
	jsonResponse(w, http.StatusOK, v.view(app))
}

func (v *storeViews) handleApplicationLogo(w http.ResponseWriter, r *http.Request) {
	app, ok := v.application(w, r)
	if !ok {
		return
	}
	http.Redirect(w, r, v.store.ApplicationLogo(app), http.StatusFound)
}

func (v *storeViews) handleApplicationURL(w http.ResponseWriter, r *http.Request) {
	app, ok := v.application(w, r)
	if !ok {
		return
	}
	endpoint := r.URL.Query().Get("endpoint")
	if endpoint == "" {
		endpoint = "ams"
	}
	url, ok := domain.ApplicationURL(v.apiHost, endpoint, app)
	if !ok {
		http.Error(w, "application has no owner", http.StatusNotFound)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"url": url})
}

func (v *storeViews) handleExistMeme(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	exists := v.store.ExistMeme(query.Get("name"), query.Get("ticker"))
	jsonResponse(w, http.StatusOK, map[string]bool{"exists": exists})
}
