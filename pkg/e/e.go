package e

import "fmt"

var (
	// Ошибки каталога и конвейера извлечения
	ErrCatalogData = fmt.Errorf("catalog data error")

	// Ошибки векторного индекса
	ErrIndexConfig = fmt.Errorf("vector index configuration error")
	ErrUpsert      = fmt.Errorf("vector index upsert failed")
	ErrQuery       = fmt.Errorf("vector search failed")
	ErrDimension   = fmt.Errorf("vector dimension mismatch")

	// Ошибки внешних моделей
	ErrEncode     = fmt.Errorf("text encoding failed")
	ErrGeneration = fmt.Errorf("description generation failed")

	// 400 Bad Request
	ErrStatusBadRequest = fmt.Errorf("bad request")
	ErrInvalidTopK      = fmt.Errorf("top_k must be an integer between 1 and 100")
	ErrInvalidLimit     = fmt.Errorf("limit must be an integer between 1 and 100")
	ErrEmptyMessage     = fmt.Errorf("message is required")
	ErrMissingQuery     = fmt.Errorf("query is required")
	ErrBadRequestBody   = fmt.Errorf("request body must be valid JSON")

	// 500 Internal Server Error
	ErrInternalServerError = fmt.Errorf("internal server error")

	// Хранилища
	ErrTransactionNotFound = fmt.Errorf("transaction not found in context")

	// Конфигурация
	ErrIncorrectEnvVariable = fmt.Errorf("incorrect environment variable")
	ErrMissingEnvVariable   = fmt.Errorf("missing required environment variable")
)

// Wrap оборачивает ошибку
func Wrap(msg string, err error) error {
	return fmt.Errorf("%s: %w", msg, err)
}
