//go:build integration

package repository_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"klimr/backend/internal/model"
	"klimr/backend/internal/repository"
	"klimr/backend/pkg/database"
	pkgerrors "klimr/backend/pkg/errors"
)

// ═══════════════════════════════════════════════════════════
// Test Setup
// ═══════════════════════════════════════════════════════════

var testDB *gorm.DB

func TestMain(m *testing.M) {
	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		dsn = "host=localhost port=5433 user=klimr password=klimr dbname=klimr_test sslmode=disable TimeZone=UTC"
	}

	var err error
	testDB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "无法连接测试数据库: %v\n", err)
		os.Exit(1)
	}

	// 使用与生产相同的迁移文件建表
	sqlDB, err := testDB.DB()
	if err != nil {
		fmt.Fprintf(os.Stderr, "获取 sql.DB 失败: %v\n", err)
		os.Exit(1)
	}
	if err := database.RunMigrations(sqlDB, zap.NewNop()); err != nil {
		fmt.Fprintf(os.Stderr, "迁移失败: %v\n", err)
		os.Exit(1)
	}

	os.Exit(m.Run())
}

type fixture struct {
	repo    *repository.Repository
	dept    *model.Department
	course  *model.Course
	autumn  *model.Semester
	spring  *model.Semester
	student *model.Student
	group   *model.Group
}

func date(s string) time.Time {
	d, _ := time.Parse("2006-01-02", s)
	return d
}

func semester(start string) *model.Semester {
	s := date(start)
	return &model.Semester{
		StartOn:       s,
		TestWeekOn:    s.AddDate(0, 3, 0),
		TestWeekEndOn: s.AddDate(0, 3, 7),
		SessionOn:     s.AddDate(0, 4, 0),
		SessionEndOn:  s.AddDate(0, 5, 0),
	}
}

// setupFixture 创建院系、专业方向、两个学期、学生与一个零状态班级，测试结束后物理删除
func setupFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	f := &fixture{repo: repository.NewRepository(testDB)}
	suffix := uuid.NewString()[:8]

	dept := &model.Department{Name: "数学学院-" + suffix}
	mustCreate(t, f.repo.Department.Create(ctx, dept))
	f.dept = dept
	f.course = &model.Course{Name: "应用数学", DepartmentID: dept.DepartmentID}
	mustCreate(t, f.repo.Course.Create(ctx, f.course))

	// 学期 start_on 唯一：使用远期年份避免与其他数据冲突
	year := 2200 + time.Now().Nanosecond()%500
	f.autumn = semester(fmt.Sprintf("%d-09-01", year))
	f.spring = semester(fmt.Sprintf("%d-02-08", year+1))
	mustCreate(t, f.repo.Semester.Create(ctx, f.autumn))
	mustCreate(t, f.repo.Semester.Create(ctx, f.spring))

	person := &model.Person{FirstName: "Ivan", LastName: "Brovtsin"}
	mustCreate(t, f.repo.Person.Create(ctx, person))
	f.student = &model.Student{PersonID: person.PersonID}
	mustCreate(t, f.repo.Student.Create(ctx, f.student))

	f.group = &model.Group{CourseID: f.course.CourseID}
	mustCreate(t, f.repo.Group.Create(ctx, f.group))

	t.Cleanup(func() {
		db := testDB.Unscoped()
		db.Where("group_id = ?", f.group.GroupID).Delete(&model.GroupSemesterState{})
		db.Where("group_id = ?", f.group.GroupID).Delete(&model.Group{})
		db.Where("student_id = ?", f.student.StudentID).Delete(&model.Student{})
		db.Where("person_id = ?", person.PersonID).Delete(&model.Person{})
		db.Where("semester_id IN ?", []string{f.autumn.SemesterID, f.spring.SemesterID}).Delete(&model.Semester{})
		db.Where("course_id = ?", f.course.CourseID).Delete(&model.Course{})
		db.Where("department_id = ?", dept.DepartmentID).Delete(&model.Department{})
	})
	return f
}

func mustCreate(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("准备数据失败: %v", err)
	}
}

func (f *fixture) addState(t *testing.T, sem *model.Semester, name string) *model.GroupSemesterState {
	t.Helper()
	ctx := context.Background()
	st := &model.GroupSemesterState{GroupID: f.group.GroupID, SemesterID: sem.SemesterID, Name: name}
	mustCreate(t, f.repo.GroupState.Create(ctx, st))
	sg := &model.Subgroup{
		StateID:  st.StateID,
		Name:     name,
		Primary:  true,
		Students: []model.Student{{StudentID: f.student.StudentID}},
	}
	mustCreate(t, f.repo.Subgroup.Create(ctx, sg))
	return st
}

// ═══════════════════════════════════════════════════════════
// Group timeline
// ═══════════════════════════════════════════════════════════

func TestGroupRepo_GetWithStates_LoadsRoster(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	got, err := f.repo.Group.GetWithStates(ctx, f.group.GroupID)
	if err != nil {
		t.Fatalf("GetWithStates 失败: %v", err)
	}
	if len(got.States) != 0 {
		t.Fatalf("新建班级应为零状态，实际=%d", len(got.States))
	}

	f.addState(t, f.spring, "MA-21")
	f.addState(t, f.autumn, "MA-11")

	got, err = f.repo.Group.GetWithStates(ctx, f.group.GroupID)
	if err != nil {
		t.Fatalf("GetWithStates 失败: %v", err)
	}
	if len(got.States) != 2 {
		t.Fatalf("期望 2 个状态，实际=%d", len(got.States))
	}
	for _, st := range got.States {
		if st.Semester == nil {
			t.Errorf("状态 %s 未预加载学期", st.Name)
		}
		if len(st.Subgroups) != 1 || len(st.Subgroups[0].Students) != 1 {
			t.Fatalf("状态 %s 子组成员未加载: %+v", st.Name, st.Subgroups)
		}
		if p := st.Subgroups[0].Students[0].Person; p == nil || p.LastName != "Brovtsin" {
			t.Errorf("学生姓名未加载: %+v", p)
		}
	}

	exists, err := f.repo.GroupState.ExistsForSemester(ctx, f.group.GroupID, f.autumn.SemesterID)
	if err != nil || !exists {
		t.Errorf("期望秋季学期已有状态，err=%v", err)
	}
}

func TestGroupRepo_DeleteCascadesStates(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()
	st := f.addState(t, f.autumn, "MA-11")

	if err := f.repo.GroupState.DeleteByGroup(ctx, f.group.GroupID); err != nil {
		t.Fatalf("DeleteByGroup 失败: %v", err)
	}
	if _, err := f.repo.GroupState.GetByID(ctx, st.StateID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("期望状态已删除，实际: %v", err)
	}
	var subgroups int64
	testDB.Model(&model.Subgroup{}).Where("state_id = ?", st.StateID).Count(&subgroups)
	if subgroups != 0 {
		t.Errorf("子组应随状态级联删除，实际剩余 %d", subgroups)
	}
}

// ═══════════════════════════════════════════════════════════
// Constraints
// ═══════════════════════════════════════════════════════════

func TestSemesterRepo_OptimisticLock(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	stale := *f.autumn
	f.autumn.SessionEndOn = f.autumn.SessionEndOn.AddDate(0, 0, 1)
	if err := f.repo.Semester.Update(ctx, f.autumn); err != nil {
		t.Fatalf("首次更新应成功: %v", err)
	}

	stale.SessionEndOn = stale.SessionEndOn.AddDate(0, 0, 2)
	if err := f.repo.Semester.Update(ctx, &stale); !errors.Is(err, pkgerrors.ErrOptimisticLock) {
		t.Errorf("期望 ErrOptimisticLock，实际: %v", err)
	}
}

func TestSemesterRepo_FindOverlapping(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	span := semester(f.autumn.StartOn.AddDate(0, 1, 0).Format("2006-01-02"))
	found, err := f.repo.Semester.FindOverlapping(ctx, span.StartOn, span.SessionEndOn, "")
	if err != nil {
		t.Fatalf("FindOverlapping 失败: %v", err)
	}
	if len(found) == 0 {
		t.Error("期望找到相交的学期")
	}

	found, err = f.repo.Semester.FindOverlapping(ctx, f.autumn.StartOn, f.autumn.SessionEndOn, f.autumn.SemesterID)
	if err != nil {
		t.Fatalf("FindOverlapping 失败: %v", err)
	}
	for _, s := range found {
		if s.SemesterID == f.autumn.SemesterID {
			t.Error("excludeID 指定的学期不应返回")
		}
	}
}

func TestDepartmentRepo_DuplicateNameTranslated(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	dup := &model.Department{Name: f.dept.Name}
	err := f.repo.Department.Create(ctx, dup)
	if !pkgerrors.IsDuplicate(err) {
		t.Errorf("期望唯一约束冲突，实际: %v", err)
	}
}

func TestRunInTx_Rollback(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()
	sentinel := errors.New("abort")

	var stateID string
	err := f.repo.RunInTx(ctx, func(tx *repository.Repository) error {
		st := &model.GroupSemesterState{GroupID: f.group.GroupID, SemesterID: f.autumn.SemesterID, Name: "MA-11"}
		if err := tx.GroupState.Create(ctx, st); err != nil {
			return err
		}
		stateID = st.StateID
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("期望返回 sentinel，实际: %v", err)
	}
	if _, err := f.repo.GroupState.GetByID(ctx, stateID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("事务回滚后状态不应存在，实际: %v", err)
	}
}

func TestGroupRepo_LockForUpdate(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	if err := f.repo.Group.LockForUpdate(ctx, uuid.NewString()); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("不存在的班级期望 ErrRecordNotFound，实际: %v", err)
	}

	err := f.repo.RunInTx(ctx, func(tx *repository.Repository) error {
		if err := tx.Group.LockForUpdate(ctx, f.group.GroupID); err != nil {
			return err
		}
		// 持锁期间，另一事务在超时前拿不到同一行锁
		waitCtx, cancel := context.WithTimeout(ctx, 300*time.Millisecond)
		defer cancel()
		other := f.repo.RunInTx(waitCtx, func(tx2 *repository.Repository) error {
			return tx2.Group.LockForUpdate(waitCtx, f.group.GroupID)
		})
		if other == nil {
			t.Error("持锁期间第二个事务不应取得行锁")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("加锁事务应成功: %v", err)
	}

	// 锁释放后可再次获取
	if err := f.repo.RunInTx(ctx, func(tx *repository.Repository) error {
		return tx.Group.LockForUpdate(ctx, f.group.GroupID)
	}); err != nil {
		t.Errorf("释放后加锁应成功: %v", err)
	}
}
