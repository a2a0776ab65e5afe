package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"klimr/backend/internal/model"
)

// PersonRepository 人员数据访问接口
type PersonRepository interface {
	Create(ctx context.Context, person *model.Person) error
	// GetByID 预加载学生、教师身份
	GetByID(ctx context.Context, id string) (*model.Person, error)
	List(ctx context.Context) ([]model.Person, error)
	Update(ctx context.Context, person *model.Person) error
	Delete(ctx context.Context, id string, deletedBy string) error
}

type personRepo struct {
	db *gorm.DB
}

// NewPersonRepo 创建 PersonRepository 实例
func NewPersonRepo(db *gorm.DB) PersonRepository {
	return &personRepo{db: db}
}

func (r *personRepo) Create(ctx context.Context, person *model.Person) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(person).Error
}

func (r *personRepo) GetByID(ctx context.Context, id string) (*model.Person, error) {
	var person model.Person
	err := r.db.WithContext(ctx).
		Preload("Students").
		Preload("Teachers").
		Where("person_id = ?", id).
		First(&person).Error
	if err != nil {
		return nil, err
	}
	return &person, nil
}

func (r *personRepo) List(ctx context.Context) ([]model.Person, error) {
	var persons []model.Person
	err := r.db.WithContext(ctx).
		Order("last_name ASC, first_name ASC").
		Find(&persons).Error
	return persons, err
}

func (r *personRepo) Update(ctx context.Context, person *model.Person) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(person).Error
}

func (r *personRepo) Delete(ctx context.Context, id string, deletedBy string) error {
	return r.db.WithContext(ctx).
		Model(&model.Person{}).
		Where("person_id = ?", id).
		Updates(map[string]interface{}{
			"deleted_by": deletedBy,
			"deleted_at": gorm.Expr("NOW()"),
		}).Error
}

// ── 账号 ──

// AccountRepository 登录账号数据访问接口
type AccountRepository interface {
	Create(ctx context.Context, account *model.Account) error
	GetByID(ctx context.Context, id string) (*model.Account, error)
	GetByUsername(ctx context.Context, username string) (*model.Account, error)
	GetByExternalSubject(ctx context.Context, subject string) (*model.Account, error)
	UpdateLastLogin(ctx context.Context, id string, at time.Time) error
	SetPassword(ctx context.Context, id string, hash string) error
	// SetExternalSubject 绑定或解除（nil）外部身份
	SetExternalSubject(ctx context.Context, id string, subject *string) error
}

type accountRepo struct {
	db *gorm.DB
}

// NewAccountRepo 创建 AccountRepository 实例
func NewAccountRepo(db *gorm.DB) AccountRepository {
	return &accountRepo{db: db}
}

func (r *accountRepo) Create(ctx context.Context, account *model.Account) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(account).Error
}

func (r *accountRepo) GetByID(ctx context.Context, id string) (*model.Account, error) {
	return r.first(ctx, "account_id = ?", id)
}

func (r *accountRepo) GetByUsername(ctx context.Context, username string) (*model.Account, error) {
	return r.first(ctx, "username = ?", username)
}

func (r *accountRepo) GetByExternalSubject(ctx context.Context, subject string) (*model.Account, error) {
	return r.first(ctx, "external_subject = ?", subject)
}

func (r *accountRepo) first(ctx context.Context, query string, arg interface{}) (*model.Account, error) {
	var account model.Account
	err := r.db.WithContext(ctx).
		Preload("Person").
		Where(query, arg).
		First(&account).Error
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *accountRepo) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&model.Account{}).
		Where("account_id = ?", id).
		Update("last_login_at", at).Error
}

func (r *accountRepo) SetPassword(ctx context.Context, id string, hash string) error {
	return r.db.WithContext(ctx).
		Model(&model.Account{}).
		Where("account_id = ?", id).
		Updates(map[string]interface{}{
			"password_hash": hash,
			"updated_at":    gorm.Expr("NOW()"),
		}).Error
}

func (r *accountRepo) SetExternalSubject(ctx context.Context, id string, subject *string) error {
	return r.db.WithContext(ctx).
		Model(&model.Account{}).
		Where("account_id = ?", id).
		Updates(map[string]interface{}{
			"external_subject": subject,
			"updated_at":       gorm.Expr("NOW()"),
		}).Error
}
