package http

import (
	"net/http"

	"github.com/DRSN-tech/furniture-recs/internal/usecase"
	"github.com/DRSN-tech/furniture-recs/pkg/e"
	"github.com/DRSN-tech/furniture-recs/pkg/logger"
)

type AnalyticsHandler struct {
	analyticsUsecase usecase.AnalyticsUC
	logger           logger.Logger
}

func NewAnalyticsHandler(analyticsUsecase usecase.AnalyticsUC, logger logger.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{analyticsUsecase: analyticsUsecase, logger: logger}
}

// summary
//
//	@Summary		Сводка по каталогу
//	@Description	Количество товаров, средняя цена и топ-10 брендов
//	@Tags			analytics
//	@Produce		json
//	@Success		200	{object}	AnalyticsResponse
//	@Router			/api/analytics [get]
func (h *AnalyticsHandler) summary(w http.ResponseWriter, r *http.Request) {
	WriteSuccess(w, http.StatusOK, toAnalyticsResponse(h.analyticsUsecase.Summary(r.Context())))
}

// popularQueries
//
//	@Summary		Популярные запросы
//	@Tags			analytics
//	@Produce		json
//	@Param			limit	query		int	false	"Количество запросов (1-100)"	default(10)
//	@Success		200		{object}	QueriesResponse
//	@Failure		400		{object}	ErrorResponse	"Некорректный limit"
//	@Router			/api/analytics/queries [get]
func (h *AnalyticsHandler) popularQueries(w http.ResponseWriter, r *http.Request) {
	limit, err := parseBoundedInt(r, "limit", defaultQueriesLimit, usecase.MaxTopK, e.ErrInvalidLimit)
	if err != nil {
		h.logger.Warnf("%d %s", http.StatusBadRequest, err.Error())
		WriteError(w, err)
		return
	}

	queries, err := h.analyticsUsecase.PopularQueries(r.Context(), limit)
	if err != nil {
		h.logger.Errorf(err, "popular queries")
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, toQueriesResponse(queries))
}

// status
//
//	@Summary	Статус сервиса
//	@Tags		service
//	@Produce	json
//	@Success	200	{object}	StatusResponse
//	@Router		/ [get]
func status(w http.ResponseWriter, _ *http.Request) {
	WriteSuccess(w, http.StatusOK, StatusResponse{Message: "Furniture API", Status: "running"})
}
