package queries

import (
	"context"

	"github.com/sallamaty/rounds-console/internal/resource"
	"github.com/sallamaty/rounds-console/pkg/models"
)

// Edit pairs a record id with its replacement payload
type Edit[In any] struct {
	ID    int64
	Input In
}

// CRUD is the mutation set of a plainly editable collection
type CRUD[T, In any] struct {
	Create *resource.Mutation[In, T]
	Update *resource.Mutation[Edit[In], T]
	Delete *resource.Mutation[int64, struct{}]
}

type validator interface {
	Validate() error
}

// NewCRUD builds a CRUD set. Inputs implementing Validate are checked before
// the request is sent.
func NewCRUD[T, In any](
	create func(ctx context.Context, in In) (*T, error),
	update func(ctx context.Context, id int64, in In) (*T, error),
	del func(ctx context.Context, id int64) error,
) CRUD[T, In] {
	return CRUD[T, In]{
		Create: resource.NewMutation(func(ctx context.Context, in In) (T, error) {
			if err := validate(in); err != nil {
				var zero T
				return zero, err
			}
			return deref(create(ctx, in))
		}),
		Update: resource.NewMutation(func(ctx context.Context, e Edit[In]) (T, error) {
			if err := validate(e.Input); err != nil {
				var zero T
				return zero, err
			}
			return deref(update(ctx, e.ID, e.Input))
		}),
		Delete: resource.NewMutation(func(ctx context.Context, id int64) (struct{}, error) {
			return struct{}{}, del(ctx, id)
		}),
	}
}

func validate(v any) error {
	if val, ok := v.(validator); ok {
		return val.Validate()
	}
	return nil
}

func deref[T any](v *T, err error) (T, error) {
	if err != nil || v == nil {
		var zero T
		return zero, err
	}
	return *v, nil
}

// Departments, users, categories, items and round types

func (q *Queries) DepartmentMutations() CRUD[models.Department, models.Department] {
	c := q.client
	return NewCRUD(c.CreateDepartment, c.UpdateDepartment, c.DeleteDepartment)
}

func (q *Queries) UserMutations() CRUD[models.User, models.UserInput] {
	c := q.client
	return NewCRUD(c.CreateUser, c.UpdateUser, c.DeleteUser)
}

func (q *Queries) CategoryMutations() CRUD[models.EvaluationCategory, models.EvaluationCategory] {
	c := q.client
	return NewCRUD(c.CreateCategory, c.UpdateCategory, c.DeleteCategory)
}

func (q *Queries) ItemMutations() CRUD[models.EvaluationItem, models.EvaluationItem] {
	c := q.client
	return NewCRUD(c.CreateItem, c.UpdateItem, c.DeleteItem)
}

func (q *Queries) RoundTypeMutations() CRUD[models.RoundType, models.RoundType] {
	c := q.client
	return NewCRUD(c.CreateRoundType, c.UpdateRoundType, c.DeleteRoundType)
}

// RoundMutations is the mutation set of the rounds screens
type RoundMutations struct {
	Create   *resource.Mutation[models.RoundInput, models.Round]
	Update   *resource.Mutation[Edit[models.RoundInput], models.Round]
	Delete   *resource.Mutation[int64, struct{}]
	Finalize *resource.Mutation[Edit[models.FinalizeRequest], models.Round]
}

// RoundMutations builds the round mutation set. Echoed records are
// normalized like listed ones.
func (q *Queries) RoundMutations() RoundMutations {
	c := q.client
	crud := NewCRUD(
		func(ctx context.Context, in models.RoundInput) (*models.Round, error) {
			return normalizeRound(c.CreateRound(ctx, in))
		},
		func(ctx context.Context, id int64, in models.RoundInput) (*models.Round, error) {
			return normalizeRound(c.UpdateRound(ctx, id, in))
		},
		c.DeleteRound,
	)

	return RoundMutations{
		Create: crud.Create,
		Update: crud.Update,
		Delete: crud.Delete,
		Finalize: resource.NewMutation(func(ctx context.Context, e Edit[models.FinalizeRequest]) (models.Round, error) {
			if err := e.Input.Validate(); err != nil {
				return models.Round{}, err
			}
			return deref(normalizeRound(c.FinalizeEvaluations(ctx, e.ID, e.Input)))
		}),
	}
}

// CapaMutations is the mutation set of the CAPA screens
type CapaMutations struct {
	Create *resource.Mutation[models.CapaInput, models.Capa]
	Update *resource.Mutation[Edit[models.CapaPatch], models.Capa]
	Delete *resource.Mutation[int64, struct{}]
}

// CapaMutations builds the CAPA mutation set. Updates are partial.
func (q *Queries) CapaMutations() CapaMutations {
	c := q.client
	crud := NewCRUD(
		func(ctx context.Context, in models.CapaInput) (*models.Capa, error) {
			return normalizeCapa(c.CreateCapa(ctx, in))
		},
		func(ctx context.Context, id int64, patch models.CapaPatch) (*models.Capa, error) {
			return normalizeCapa(c.UpdateCapa(ctx, id, patch))
		},
		c.DeleteCapa,
	)
	return CapaMutations{Create: crud.Create, Update: crud.Update, Delete: crud.Delete}
}

func normalizeRound(r *models.RoundRecord, err error) (*models.Round, error) {
	if err != nil {
		return nil, err
	}
	round := r.Normalize()
	return &round, nil
}

func normalizeCapa(r *models.CapaRecord, err error) (*models.Capa, error) {
	if err != nil {
		return nil, err
	}
	capa := r.Normalize()
	return &capa, nil
}
