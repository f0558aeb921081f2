package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mindvault/backend/internal/server/middleware"
	"github.com/mindvault/backend/pkg/common"
)

// SearchHandler runs one hybrid retrieval request. Text and embedding
// are each optional, but at least one must be present; the store
// rejects a request carrying neither.
func SearchHandler(c echo.Context) error {
	type searchBody struct {
		Text                    string            `json:"text"`
		Embedding               []float32         `json:"embedding"`
		Tags                    []string          `json:"tags"`
		BoostTags               []string          `json:"boost_tags"`
		Entities                []string          `json:"entities"`
		Domains                 []string          `json:"domains"`
		DateRange               *common.DateRange `json:"date_range"`
		Limit                   int               `json:"limit"`
		Offset                  int               `json:"offset"`
		IncludeAllThreadMatches bool              `json:"include_all_thread_matches"`
	}

	type searchResponse struct {
		Message string               `json:"message"`
		Result  *common.SearchResult `json:"result,omitempty"`
	}

	data := new(searchBody)
	if err := c.Bind(data); err != nil {
		return invalidBody(c)
	}

	ctx := c.Request().Context()
	storage := c.(*middleware.AppContext).App.Storage

	result, err := storage.Search(ctx, common.SearchQuery{
		Text:                    data.Text,
		Embedding:               data.Embedding,
		Tags:                    data.Tags,
		BoostTags:               data.BoostTags,
		Entities:                data.Entities,
		Domains:                 data.Domains,
		DateRange:               data.DateRange,
		Limit:                   data.Limit,
		Offset:                  data.Offset,
		IncludeAllThreadMatches: data.IncludeAllThreadMatches,
	})
	if err != nil {
		return storeError(c, err)
	}

	return c.JSON(http.StatusOK, searchResponse{
		Message: "OK",
		Result:  &result,
	})
}
