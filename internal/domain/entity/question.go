package entity

// Question представляет один вопрос из банка вопросов.
// Банк поставляется извне (файл с наборами) и неизменен в течение жизни сессии,
// поэтому Question не является GORM-сущностью.
type Question struct {
	Index         int      `json:"index"`
	Prompt        string   `json:"prompt"`
	Options       []string `json:"options"`
	CorrectOption int      `json:"-"` // Скрыто от клиента до фазы revealing
	PointValue    int      `json:"point_value"`
	Explanation   string   `json:"explanation,omitempty"`
	Source        string   `json:"source,omitempty"`
	SourceURL     string   `json:"source_url,omitempty"`
}

// IsCorrect проверяет, является ли выбранный вариант правильным
func (q *Question) IsCorrect(selectedOption int) bool {
	return selectedOption == q.CorrectOption
}

// IsValidOption проверяет, является ли выбранный вариант допустимым
func (q *Question) IsValidOption(selectedOption int) bool {
	return selectedOption >= 0 && selectedOption < len(q.Options)
}

// Points возвращает количество очков за ответ
func (q *Question) Points(isCorrect bool) int {
	if !isCorrect {
		return 0
	}
	return q.PointValue
}

// OptionsCount возвращает количество вариантов ответа
func (q *Question) OptionsCount() int {
	return len(q.Options)
}
