package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/dgnsrekt/pagegate/internal/authz"
	"github.com/dgnsrekt/pagegate/internal/cdp"
	"github.com/dgnsrekt/pagegate/internal/controller"
	"github.com/dgnsrekt/pagegate/internal/relay"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type Service interface {
	Tabs() []controller.TabContext
	ActivateTab(ctx context.Context, tabID string) error
	ToggleTab(ctx context.Context, tabID string) (authz.Status, error)
	Pages() []authz.Page
	ResolvePage(rawURL string) (controller.ResolvedPage, error)
	SetPageConfig(ctx context.Context, rawURL string, cfg authz.PageConfig) (string, error)
	Settings() authz.Settings
	UpdateSettings(ctx context.Context, st authz.Settings) (authz.Settings, error)
	SyncLookup(handle string) ([]byte, bool)
}

type tabIDInput struct {
	TabID string `path:"tab_id" doc:"Browser target id of the tab"`
}

type tabStatusOutput struct {
	Body struct {
		TabID  string `json:"tab_id"`
		Status string `json:"status"`
	}
}

// NewServer builds the daemon's HTTP surface: the operator API under
// /api/v1, the agent-facing sync/port/event routes, and the docs pages.
// port handles WebSocket upgrades for the injector message port.
func NewServer(svc Service, broker *relay.Broker, port http.Handler) http.Handler {
	router := chi.NewMux()
	router.Use(middleware.RequestID)
	router.Use(requestLogger)
	router.Use(middleware.Recoverer)

	cfg := huma.DefaultConfig("Pagegate Control API", "1.0.0")
	cfg.DocsPath = ""
	api := humachi.New(router, cfg)

	router.Get("/docs", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		if _, err := w.Write([]byte(docsHTML)); err != nil {
			slog.Debug("docs response write failed", "error", err)
		}
	})
	router.Get("/docs/agent", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		if _, err := w.Write([]byte(agentDocsHTML)); err != nil {
			slog.Debug("agent docs response write failed", "error", err)
		}
	})

	registerTabHandlers(api, svc)
	registerPageHandlers(api, svc)
	registerSettingsHandlers(api, svc)
	registerAgentRoutes(router, svc, broker, port)

	return router
}

func mapErr(err error) error {
	if err == nil {
		return nil
	}
	var coded *cdp.CodedError
	if errors.As(err, &coded) {
		switch coded.Code {
		case cdp.CodeValidation:
			return huma.Error400BadRequest(coded.Message)
		case cdp.CodeTabNotFound:
			return huma.Error404NotFound(coded.Message)
		case cdp.CodeCDPUnavailable, cdp.CodeReloadFailure:
			return huma.Error502BadGateway(coded.Message)
		default:
			return huma.Error500InternalServerError(fmt.Sprintf("%s: %s", coded.Code, coded.Message))
		}
	}
	return huma.Error500InternalServerError(err.Error())
}
