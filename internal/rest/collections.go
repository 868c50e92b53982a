package rest

import (
	"encoding/json"
	"fmt"
	"net/http"
)

const (
	collectionArg = "collection"
)

type getCollectionsResponse struct {
	Collections map[string]any `json:"collections"`
}

// getCollectionsHandler responds with items of all collections, or only of those selected with "collection" arguments.
func (s *Server) getCollectionsHandler(res http.ResponseWriter, req *http.Request) {
	selected := req.URL.Query()[collectionArg]

	collectionsResponse := getCollectionsResponse{
		Collections: map[string]any{},
	}

	s.lock.RLock()
	if len(selected) == 0 {
		for variant, snapshot := range s.collections {
			collectionsResponse.Collections[variant] = snapshot()
		}
	}
	for _, variant := range selected {
		snapshot, ok := s.collections[variant]
		if !ok {
			continue
		}

		collectionsResponse.Collections[variant] = snapshot()
	}
	s.lock.RUnlock()

	response, err := json.Marshal(&collectionsResponse)
	if err != nil {
		s.errLog.Printf("could not encode collections: %s\n", err)
		res.WriteHeader(http.StatusInternalServerError)
		res.Write([]byte(fmt.Sprintln("could not prepare output")))

		return
	}

	res.Header().Set("Content-Type", "application/json")
	res.WriteHeader(http.StatusOK)
	res.Write(response)
}
