package repository

import "errors"

// Ошибки уровня репозиториев, различимые сервисным слоем
var (
	// ErrDuplicateResponse возвращается при нарушении уникального индекса
	// (player_id, question_index). Сервис транслирует её в AlreadyAnswered
	// или TimeExpired в зависимости от того, что уже записано.
	ErrDuplicateResponse = errors.New("response already exists for this player and question")

	// ErrSessionStatusChanged возвращается, когда compare-and-set обновление статуса
	// не затронуло ни одной строки: статус сессии уже изменил другой наблюдатель.
	ErrSessionStatusChanged = errors.New("session status precondition failed")
)
