package questionbank

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"sort"

	"github.com/yourusername/quizroom-api/internal/domain/entity"
	apperrors "github.com/yourusername/quizroom-api/internal/pkg/errors"
)

// setFile описывает формат одного набора в файле банка
type setFile struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Questions []questionFile `json:"questions"`
}

// questionFile описывает формат вопроса в файле банка.
// correct_option читается из файла, но не отдается наружу через entity JSON.
type questionFile struct {
	Prompt        string   `json:"prompt"`
	Options       []string `json:"options"`
	CorrectOption int      `json:"correct_option"`
	PointValue    int      `json:"point_value"`
	Explanation   string   `json:"explanation"`
	Source        string   `json:"source"`
	SourceURL     string   `json:"source_url"`
}

// FileBank реализует repository.QuestionBank поверх JSON-файла с наборами.
// Банк загружается один раз при старте и дальше только читается, поэтому
// структура безопасна для параллельного доступа без блокировок.
type FileBank struct {
	sets   map[string][]entity.Question
	setIDs []string
}

// Load читает банк вопросов из JSON-файла
func Load(path string) (*FileBank, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read question bank file %s: %w", path, err)
	}

	var files []setFile
	if err := json.Unmarshal(data, &files); err != nil {
		return nil, fmt.Errorf("failed to parse question bank file %s: %w", path, err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("question bank file %s contains no sets", path)
	}

	bank := &FileBank{sets: make(map[string][]entity.Question)}
	for _, sf := range files {
		if sf.ID == "" {
			return nil, fmt.Errorf("question set without id in %s", path)
		}
		if len(sf.Questions) == 0 {
			return nil, fmt.Errorf("question set %q is empty", sf.ID)
		}
		questions := make([]entity.Question, 0, len(sf.Questions))
		for i, qf := range sf.Questions {
			if qf.CorrectOption < 0 || qf.CorrectOption >= len(qf.Options) {
				return nil, fmt.Errorf("set %q question %d: correct_option %d out of options range", sf.ID, i+1, qf.CorrectOption)
			}
			questions = append(questions, entity.Question{
				Index:         i + 1, // 1-based, как current_question в сессии
				Prompt:        qf.Prompt,
				Options:       qf.Options,
				CorrectOption: qf.CorrectOption,
				PointValue:    qf.PointValue,
				Explanation:   qf.Explanation,
				Source:        qf.Source,
				SourceURL:     qf.SourceURL,
			})
		}
		bank.sets[sf.ID] = questions
		bank.setIDs = append(bank.setIDs, sf.ID)
	}

	sort.Strings(bank.setIDs)
	log.Printf("[QuestionBank] Загружено наборов: %d, всего вопросов: %d", len(bank.setIDs), bank.totalQuestions())
	return bank, nil
}

// SetIDs возвращает идентификаторы наборов в стабильном порядке
func (b *FileBank) SetIDs() []string {
	ids := make([]string, len(b.setIDs))
	copy(ids, b.setIDs)
	return ids
}

// Question возвращает вопрос набора по 1-based индексу
func (b *FileBank) Question(setID string, index int) (*entity.Question, error) {
	questions, ok := b.sets[setID]
	if !ok {
		return nil, fmt.Errorf("question set %q: %w", setID, apperrors.ErrNotFound)
	}
	if index < 1 || index > len(questions) {
		return nil, fmt.Errorf("%w: index %d, set %q has %d questions",
			apperrors.ErrQuestionIndexOutOfRange, index, setID, len(questions))
	}
	q := questions[index-1]
	return &q, nil
}

// Len возвращает количество вопросов в наборе
func (b *FileBank) Len(setID string) int {
	return len(b.sets[setID])
}

// Set возвращает копию всех вопросов набора
func (b *FileBank) Set(setID string) ([]entity.Question, error) {
	questions, ok := b.sets[setID]
	if !ok {
		return nil, fmt.Errorf("question set %q: %w", setID, apperrors.ErrNotFound)
	}
	out := make([]entity.Question, len(questions))
	copy(out, questions)
	return out, nil
}

func (b *FileBank) totalQuestions() int {
	total := 0
	for _, qs := range b.sets {
		total += len(qs)
	}
	return total
}
