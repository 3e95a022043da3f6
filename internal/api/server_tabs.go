package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/dgnsrekt/pagegate/internal/controller"
)

func registerTabHandlers(api huma.API, svc Service) {
	type tabsOutput struct {
		Body struct {
			Tabs []controller.TabContext `json:"tabs"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "list-tabs", Method: http.MethodGet, Path: "/api/v1/tabs", Summary: "List tracked tabs with their gating context", Tags: []string{"Tabs"}},
		func(ctx context.Context, input *struct{}) (*tabsOutput, error) {
			out := &tabsOutput{}
			out.Body.Tabs = svc.Tabs()
			if out.Body.Tabs == nil {
				out.Body.Tabs = []controller.TabContext{}
			}
			return out, nil
		})

	huma.Register(api, huma.Operation{OperationID: "activate-tab", Method: http.MethodPost, Path: "/api/v1/tabs/{tab_id}/activate", Summary: "Re-run the gating pipeline for a tab", Description: "Fetches the tab's live URL and settles it through classify, reflect and sync, as if the tab had just been focused.", Tags: []string{"Tabs"}},
		func(ctx context.Context, input *tabIDInput) (*tabStatusOutput, error) {
			if err := svc.ActivateTab(ctx, input.TabID); err != nil {
				return nil, mapErr(err)
			}
			out := &tabStatusOutput{}
			out.Body.TabID = input.TabID
			out.Body.Status = "activated"
			return out, nil
		})

	huma.Register(api, huma.Operation{OperationID: "toggle-tab", Method: http.MethodPost, Path: "/api/v1/tabs/{tab_id}/toggle", Summary: "Toggle gating for the page a tab is on", Description: "Whitelisted pages become blacklisted, everything else becomes whitelisted. The tab is hard-reloaded so the page restarts under the new classification.", Tags: []string{"Tabs"}},
		func(ctx context.Context, input *tabIDInput) (*tabStatusOutput, error) {
			status, err := svc.ToggleTab(ctx, input.TabID)
			if err != nil {
				return nil, mapErr(err)
			}
			out := &tabStatusOutput{}
			out.Body.TabID = input.TabID
			out.Body.Status = string(status)
			return out, nil
		})
}
