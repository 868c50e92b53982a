package rest

import (
	"net/http"

	"github.com/sarpt/query-list-changes/internal/common"
)

const (
	collectionsPath = "/rest/collections"
)

// Handler returns http.Handler responsible for REST handling subtree.
func (s *Server) Handler() http.Handler {
	allHandlers := map[string]common.MethodHandlers{
		collectionsPath: {
			http.MethodGet: s.getCollectionsHandler,
		},
	}

	mux := http.NewServeMux()
	for path, methodHandlers := range allHandlers {
		cfg := common.PathHandlerConfig{
			AllowCORS:      s.allowCORS,
			MethodHandlers: methodHandlers,
		}
		mux.HandleFunc(path, common.PathHandler(cfg))
	}

	return mux
}
