package repo

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"conecta-ongs/internal/domain"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

var ErrDuplicateVolunteer = errors.New("volunteer already registered")

type VolunteerRepo interface {
	Create(ctx context.Context, v *domain.Volunteer) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Volunteer, error)
	List(ctx context.Context, limit, offset int) ([]domain.Volunteer, error)
}

type volunteerRow struct {
	ID           uuid.UUID `db:"id"`
	FullName     string    `db:"full_name"`
	BirthDate    time.Time `db:"birth_date"`
	CPF          string    `db:"cpf"`
	Mobile       string    `db:"mobile"`
	CEP          string    `db:"cep"`
	Street       string    `db:"street"`
	Neighborhood string    `db:"neighborhood"`
	City         string    `db:"city"`
	State        string    `db:"state"`
	Number       string    `db:"number"`
	Email        string    `db:"email"`
	Gender       string    `db:"gender"`
	CreatedAt    time.Time `db:"created_at"`
}

func toVolunteerRow(v *domain.Volunteer) volunteerRow {
	return volunteerRow{
		ID:           v.ID,
		FullName:     v.FullName,
		BirthDate:    v.BirthDate,
		CPF:          v.CPF,
		Mobile:       v.Mobile,
		CEP:          v.CEP,
		Street:       v.Address.Street,
		Neighborhood: v.Address.Neighborhood,
		City:         v.Address.City,
		State:        v.Address.State,
		Number:       v.Number,
		Email:        v.Email,
		Gender:       string(v.Gender),
		CreatedAt:    v.CreatedAt,
	}
}

func (r volunteerRow) toDomain() domain.Volunteer {
	return domain.Volunteer{
		ID:        r.ID,
		FullName:  r.FullName,
		BirthDate: r.BirthDate,
		CPF:       r.CPF,
		Mobile:    r.Mobile,
		CEP:       r.CEP,
		Address: domain.Address{
			Street:       r.Street,
			Neighborhood: r.Neighborhood,
			City:         r.City,
			State:        r.State,
		},
		Number:    r.Number,
		Email:     r.Email,
		Gender:    domain.Gender(r.Gender),
		CreatedAt: r.CreatedAt,
	}
}

const volunteerColumns = `id, full_name, birth_date, cpf, mobile, cep, street, neighborhood, city, state, number, email, gender, created_at`

type volunteerRepo struct {
	db *sqlx.DB
}

func NewVolunteerRepo(db *sqlx.DB) VolunteerRepo {
	return &volunteerRepo{db: db}
}

func (r *volunteerRepo) Create(ctx context.Context, v *domain.Volunteer) error {
	query := `INSERT INTO volunteers (` + volunteerColumns + `)
		VALUES (:id, :full_name, :birth_date, :cpf, :mobile, :cep, :street, :neighborhood, :city, :state, :number, :email, :gender, :created_at)`

	if _, err := r.db.NamedExecContext(ctx, query, toVolunteerRow(v)); err != nil {
		if strings.Contains(err.Error(), "volunteers_cpf_idx") {
			return ErrDuplicateVolunteer
		}
		return errors.Wrap(err, "insert volunteer")
	}
	return nil
}

func (r *volunteerRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.Volunteer, error) {
	var row volunteerRow
	err := r.db.GetContext(ctx, &row, `SELECT `+volunteerColumns+` FROM volunteers WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return nil, nil // not found
	}
	if err != nil {
		return nil, errors.Wrap(err, "find volunteer")
	}
	v := row.toDomain()
	return &v, nil
}

func (r *volunteerRepo) List(ctx context.Context, limit, offset int) ([]domain.Volunteer, error) {
	var rows []volunteerRow
	err := r.db.SelectContext(ctx, &rows,
		`SELECT `+volunteerColumns+` FROM volunteers ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, errors.Wrap(err, "list volunteers")
	}

	volunteers := make([]domain.Volunteer, 0, len(rows))
	for _, row := range rows {
		volunteers = append(volunteers, row.toDomain())
	}
	return volunteers, nil
}
