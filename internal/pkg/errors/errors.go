package errors

import "errors"

// Общие ошибки приложения
var (
	// ErrNotFound используется, когда комната или игрок не найдены.
	ErrNotFound = errors.New("record not found")

	// ErrValidation используется для ошибок валидации входных данных.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidTransition используется, когда операция машины состояний вызвана
	// из неподходящего статуса комнаты (например, advance во время answering).
	ErrInvalidTransition = errors.New("invalid session state transition")

	// ErrAlreadyAnswered используется, когда игрок повторно отвечает на вопрос,
	// на который у него уже записан настоящий ответ.
	ErrAlreadyAnswered = errors.New("question already answered")

	// ErrTimeExpired используется, когда игрок отвечает на вопрос, по которому
	// sweep уже записал ему timeout-ответ, либо когда раунд уже закрыт.
	ErrTimeExpired = errors.New("time expired for this question")

	// ErrQuestionIndexOutOfRange используется при обращении к вопросу вне диапазона [1, N].
	ErrQuestionIndexOutOfRange = errors.New("question index out of range")

	// ErrStoreConflict используется при проигранной compare-and-set гонке на статусе сессии.
	// Вызывающий код обычно трактует это как "переход уже выполнен другим наблюдателем".
	ErrStoreConflict = errors.New("session status changed concurrently")
)
