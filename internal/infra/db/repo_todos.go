package db

import (
	"context"
	"errors"
	"fmt"

	"todod/internal/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type TodoRepository struct {
	db *gorm.DB
}

func NewTodoRepository(db *gorm.DB) *TodoRepository {
	return &TodoRepository{db: db}
}

func (r *TodoRepository) Create(ctx context.Context, todo domain.Todo) (domain.Todo, error) {
	if r.db == nil {
		return domain.Todo{}, errDBUnavailable
	}
	model := todoModelFrom(todo)
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		return domain.Todo{}, translate("create todo", err)
	}
	return model.toDomain(), nil
}

func (r *TodoRepository) List(ctx context.Context) ([]domain.Todo, error) {
	if r.db == nil {
		return nil, errDBUnavailable
	}
	var models []TodoModel
	if err := r.db.WithContext(ctx).Find(&models).Error; err != nil {
		return nil, translate("list todos", err)
	}
	out := make([]domain.Todo, 0, len(models))
	for _, m := range models {
		out = append(out, m.toDomain())
	}
	return out, nil
}

func (r *TodoRepository) Get(ctx context.Context, id int64) (domain.Todo, error) {
	if r.db == nil {
		return domain.Todo{}, errDBUnavailable
	}
	var model TodoModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return domain.Todo{}, translate("get todo", err)
	}
	return model.toDomain(), nil
}

func (r *TodoRepository) Update(ctx context.Context, todo domain.Todo) (domain.Todo, error) {
	if r.db == nil {
		return domain.Todo{}, errDBUnavailable
	}
	var model TodoModel
	res := r.db.WithContext(ctx).
		Model(&model).
		Clauses(clause.Returning{}).
		Where("id = ?", todo.ID).
		Update("content", todo.Content)
	if res.Error != nil {
		return domain.Todo{}, translate("update todo", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.Todo{}, domain.ErrNotFound
	}
	return model.toDomain(), nil
}

func (r *TodoRepository) Delete(ctx context.Context, id int64) error {
	if r.db == nil {
		return errDBUnavailable
	}
	res := r.db.WithContext(ctx).Delete(&TodoModel{}, "id = ?", id)
	if res.Error != nil {
		return translate("delete todo", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func translate(op string, err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return domain.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%s: %w", op, domain.ErrConflict)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
