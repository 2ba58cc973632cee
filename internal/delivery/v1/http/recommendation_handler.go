package http

import (
	"encoding/json"
	"net/http"

	"github.com/DRSN-tech/furniture-recs/internal/usecase"
	"github.com/DRSN-tech/furniture-recs/pkg/e"
	"github.com/DRSN-tech/furniture-recs/pkg/logger"
	"github.com/jimlawless/whereami"
)

type RecommendationHandler struct {
	recUsecase usecase.RecommendationUC
	logger     logger.Logger
}

func NewRecommendationHandler(recUsecase usecase.RecommendationUC, logger logger.Logger) *RecommendationHandler {
	return &RecommendationHandler{recUsecase: recUsecase, logger: logger}
}

// recommend
//
//	@Summary		Рекомендации по текстовому запросу
//	@Description	Ищет ближайшие товары в векторном индексе и добавляет к каждому AI-описание
//	@Tags			recommendations
//	@Produce		json
//	@Param			query	query		string	true	"Текст запроса"
//	@Param			top_k	query		int		false	"Количество товаров (1-100)"	default(5)
//	@Success		200		{object}	RecommendResponse
//	@Failure		400		{object}	ErrorResponse	"Некорректные параметры"
//	@Failure		502		{object}	ErrorResponse	"Ошибка векторного поиска"
//	@Router			/api/recommend [get]
func (h *RecommendationHandler) recommend(w http.ResponseWriter, r *http.Request) {
	if !r.URL.Query().Has("query") {
		h.logger.Warnf("%d %s", http.StatusBadRequest, e.ErrMissingQuery.Error())
		WriteError(w, e.ErrMissingQuery)
		return
	}
	query := r.URL.Query().Get("query")

	topK, err := parseBoundedInt(r, "top_k", usecase.DefaultTopK, usecase.MaxTopK, e.ErrInvalidTopK)
	if err != nil {
		h.logger.Warnf("%d %s", http.StatusBadRequest, err.Error())
		WriteError(w, err)
		return
	}

	res, err := h.recUsecase.Recommend(r.Context(), usecase.NewRecommendReq(query, topK))
	if err != nil {
		h.logger.Errorf(err, "recommend failed for query %q", query)
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, toRecommendResponse(res))
}

// chat
//
//	@Summary		Чат-поиск
//	@Description	Возвращает три ближайших товара и короткий ответ. История диалога принимается, но не используется
//	@Tags			recommendations
//	@Accept			json
//	@Produce		json
//	@Param			request	body		ChatRequest	true	"Сообщение пользователя"
//	@Success		200		{object}	ChatResponse
//	@Failure		400		{object}	ErrorResponse	"Некорректное тело запроса"
//	@Failure		502		{object}	ErrorResponse	"Ошибка векторного поиска"
//	@Router			/api/chat [post]
func (h *RecommendationHandler) chat(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxChatBodySize)

	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warnf("%d %s: %v", http.StatusBadRequest, e.ErrBadRequestBody.Error(), err)
		WriteError(w, e.Wrap(whereami.WhereAmI(), e.ErrBadRequestBody))
		return
	}

	if req.Message == nil {
		h.logger.Warnf("%d %s", http.StatusBadRequest, e.ErrEmptyMessage.Error())
		WriteError(w, e.ErrEmptyMessage)
		return
	}

	res, err := h.recUsecase.Chat(r.Context(), usecase.NewChatReq(*req.Message))
	if err != nil {
		h.logger.Errorf(err, "chat failed for message %q", *req.Message)
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, toChatResponse(res))
}
