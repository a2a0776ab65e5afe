package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"klimr/backend/internal/model"
)

// preloadState 学期状态详情所需的全部关联
func preloadState(db *gorm.DB, prefix string) *gorm.DB {
	return db.
		Preload(prefix+"Semester").
		Preload(prefix+"Praepostor.Person").
		Preload(prefix+"Subgroups", func(db *gorm.DB) *gorm.DB {
			return db.Order("subgroups.name ASC")
		}).
		Preload(prefix + "Subgroups.Students.Person").
		Preload(prefix + "Subgroups.Teachers.Person").
		Preload(prefix + "Subgroups.Disciplines")
}

// GroupRepository 班级数据访问接口
type GroupRepository interface {
	Create(ctx context.Context, group *model.Group) error
	GetByID(ctx context.Context, id string) (*model.Group, error)
	// GetWithStates 预加载专业方向与全部学期状态（含子组成员）
	GetWithStates(ctx context.Context, id string) (*model.Group, error)
	// ListWithStates 预加载专业方向与学期状态（不含成员）；ids 为空时返回全部
	ListWithStates(ctx context.Context, ids []string) ([]model.Group, error)
	// LockForUpdate 对班级行加行锁（SELECT ... FOR UPDATE），仅在事务内有意义
	LockForUpdate(ctx context.Context, id string) error
	Delete(ctx context.Context, id string, deletedBy string) error
}

type groupRepo struct {
	db *gorm.DB
}

// NewGroupRepo 创建 GroupRepository 实例
func NewGroupRepo(db *gorm.DB) GroupRepository {
	return &groupRepo{db: db}
}

func (r *groupRepo) Create(ctx context.Context, group *model.Group) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(group).Error
}

func (r *groupRepo) GetByID(ctx context.Context, id string) (*model.Group, error) {
	var group model.Group
	err := r.db.WithContext(ctx).
		Preload("Course").
		Where("group_id = ?", id).
		First(&group).Error
	if err != nil {
		return nil, err
	}
	return &group, nil
}

func (r *groupRepo) GetWithStates(ctx context.Context, id string) (*model.Group, error) {
	var group model.Group
	err := preloadState(r.db.WithContext(ctx).Preload("Course").Preload("States"), "States.").
		Where("group_id = ?", id).
		First(&group).Error
	if err != nil {
		return nil, err
	}
	return &group, nil
}

func (r *groupRepo) ListWithStates(ctx context.Context, ids []string) ([]model.Group, error) {
	q := r.db.WithContext(ctx).
		Preload("Course").
		Preload("States").
		Preload("States.Semester")
	if len(ids) > 0 {
		q = q.Where("group_id IN ?", ids)
	}
	var groups []model.Group
	err := q.Order("created_at ASC").Find(&groups).Error
	return groups, err
}

func (r *groupRepo) LockForUpdate(ctx context.Context, id string) error {
	var group model.Group
	return r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("group_id").
		Where("group_id = ?", id).
		First(&group).Error
}

func (r *groupRepo) Delete(ctx context.Context, id string, deletedBy string) error {
	return r.db.WithContext(ctx).
		Model(&model.Group{}).
		Where("group_id = ?", id).
		Updates(map[string]interface{}{
			"deleted_by": deletedBy,
			"deleted_at": gorm.Expr("NOW()"),
		}).Error
}

// ── 学期状态 ──

// GroupStateRepository 班级学期状态数据访问接口
// 状态只追加；删除仅随班级级联
type GroupStateRepository interface {
	// Create 只写入状态本身，子组由 SubgroupRepository 写入
	Create(ctx context.Context, state *model.GroupSemesterState) error
	GetByID(ctx context.Context, id string) (*model.GroupSemesterState, error)
	ExistsForSemester(ctx context.Context, groupID, semesterID string) (bool, error)
	CountBySemester(ctx context.Context, semesterID string) (int64, error)
	// DeleteByGroup 删除班级的全部状态；子组及其关联由外键级联删除
	DeleteByGroup(ctx context.Context, groupID string) error
}

type groupStateRepo struct {
	db *gorm.DB
}

// NewGroupStateRepo 创建 GroupStateRepository 实例
func NewGroupStateRepo(db *gorm.DB) GroupStateRepository {
	return &groupStateRepo{db: db}
}

func (r *groupStateRepo) Create(ctx context.Context, state *model.GroupSemesterState) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(state).Error
}

func (r *groupStateRepo) GetByID(ctx context.Context, id string) (*model.GroupSemesterState, error) {
	var state model.GroupSemesterState
	err := preloadState(r.db.WithContext(ctx), "").
		Where("state_id = ?", id).
		First(&state).Error
	if err != nil {
		return nil, err
	}
	return &state, nil
}

func (r *groupStateRepo) ExistsForSemester(ctx context.Context, groupID, semesterID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.GroupSemesterState{}).
		Where("group_id = ? AND semester_id = ?", groupID, semesterID).
		Count(&count).Error
	return count > 0, err
}

func (r *groupStateRepo) CountBySemester(ctx context.Context, semesterID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.GroupSemesterState{}).
		Where("semester_id = ?", semesterID).
		Count(&count).Error
	return count, err
}

func (r *groupStateRepo) DeleteByGroup(ctx context.Context, groupID string) error {
	return r.db.WithContext(ctx).
		Where("group_id = ?", groupID).
		Delete(&model.GroupSemesterState{}).Error
}

// ── 子组 ──

// SubgroupRepository 子组数据访问接口
// 关联（学生、教师、科目）只通过 id 引用
type SubgroupRepository interface {
	// Create 写入子组及其关联行
	Create(ctx context.Context, subgroup *model.Subgroup) error
	GetByID(ctx context.Context, id string) (*model.Subgroup, error)
	// Replace 更新名称/主子组标记并整体替换关联
	Replace(ctx context.Context, subgroup *model.Subgroup) error
}

type subgroupRepo struct {
	db *gorm.DB
}

// NewSubgroupRepo 创建 SubgroupRepository 实例
func NewSubgroupRepo(db *gorm.DB) SubgroupRepository {
	return &subgroupRepo{db: db}
}

func (r *subgroupRepo) Create(ctx context.Context, subgroup *model.Subgroup) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(subgroup).Error; err != nil {
			return err
		}
		return r.writeLinks(tx, subgroup, insertLinks)
	})
}

func (r *subgroupRepo) GetByID(ctx context.Context, id string) (*model.Subgroup, error) {
	var subgroup model.Subgroup
	err := r.db.WithContext(ctx).
		Preload("Students.Person").
		Preload("Teachers.Person").
		Preload("Disciplines").
		Where("subgroup_id = ?", id).
		First(&subgroup).Error
	if err != nil {
		return nil, err
	}
	return &subgroup, nil
}

func (r *subgroupRepo) Replace(ctx context.Context, subgroup *model.Subgroup) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&model.Subgroup{}).
			Where("subgroup_id = ?", subgroup.SubgroupID).
			Updates(map[string]interface{}{
				"name":       subgroup.Name,
				"is_primary": subgroup.Primary,
				"updated_by": subgroup.UpdatedBy,
				"updated_at": gorm.Expr("NOW()"),
			}).Error
		if err != nil {
			return err
		}
		return r.writeLinks(tx, subgroup, replaceLinks)
	})
}

func (r *subgroupRepo) writeLinks(tx *gorm.DB, sg *model.Subgroup, write func(*gorm.DB, linkTable, string, []string) error) error {
	if err := write(tx, subgroupStudents, sg.SubgroupID, studentIDs(sg.Students)); err != nil {
		return err
	}
	if err := write(tx, subgroupTeachers, sg.SubgroupID, teacherIDs(sg.Teachers)); err != nil {
		return err
	}
	return write(tx, subgroupDisciplines, sg.SubgroupID, disciplineIDs(sg.Disciplines))
}
