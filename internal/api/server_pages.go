package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/dgnsrekt/pagegate/internal/controller"
)

func registerPageHandlers(api huma.API, svc Service) {
	type pageEntry struct {
		URL       string `json:"url"`
		Status    string `json:"status"`
		HasConfig bool   `json:"has_config"`
	}
	type pagesOutput struct {
		Body struct {
			Pages []pageEntry `json:"pages"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "list-pages", Method: http.MethodGet, Path: "/api/v1/pages", Summary: "List every classified page", Tags: []string{"Pages"}},
		func(ctx context.Context, input *struct{}) (*pagesOutput, error) {
			out := &pagesOutput{}
			out.Body.Pages = []pageEntry{}
			for _, p := range svc.Pages() {
				out.Body.Pages = append(out.Body.Pages, pageEntry{URL: p.URL, Status: string(p.Status), HasConfig: p.HasConfig})
			}
			return out, nil
		})

	type resolveInput struct {
		URL string `query:"url" required:"true" doc:"Raw URL to canonicalize and resolve"`
	}
	type resolveOutput struct {
		Body controller.ResolvedPage
	}
	huma.Register(api, huma.Operation{OperationID: "resolve-page", Method: http.MethodGet, Path: "/api/v1/pages/resolve", Summary: "Canonicalize and resolve one URL", Description: "Ineligible URLs (unsupported scheme, malformed) come back with eligible=false rather than an error.", Tags: []string{"Pages"}},
		func(ctx context.Context, input *resolveInput) (*resolveOutput, error) {
			page, err := svc.ResolvePage(input.URL)
			if err != nil {
				return nil, mapErr(err)
			}
			out := &resolveOutput{}
			out.Body = page
			return out, nil
		})

	type configInput struct {
		Body struct {
			URL    string         `json:"url" doc:"Page URL; canonicalized before storing"`
			Config map[string]any `json:"config" doc:"Opaque per-page agent config blob"`
		}
	}
	type configOutput struct {
		Body struct {
			URL    string `json:"url"`
			Status string `json:"status"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "set-page-config", Method: http.MethodPut, Path: "/api/v1/pages/config", Summary: "Store the per-page config blob for a URL", Description: "The blob travels to agents inside the sync envelope on the next pipeline settle. Storing config never changes the page's classification.", Tags: []string{"Pages"}},
		func(ctx context.Context, input *configInput) (*configOutput, error) {
			canonical, err := svc.SetPageConfig(ctx, input.Body.URL, input.Body.Config)
			if err != nil {
				return nil, mapErr(err)
			}
			out := &configOutput{}
			out.Body.URL = canonical
			out.Body.Status = "stored"
			return out, nil
		})
}
