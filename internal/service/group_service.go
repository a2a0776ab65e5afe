package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"klimr/backend/config"
	"klimr/backend/internal/dto"
	"klimr/backend/internal/model"
	"klimr/backend/internal/registry"
	"klimr/backend/internal/repository"
)

// ── 班级模块业务错误 ──

var (
	ErrGroupNotFound          = errors.New("班级不存在")
	ErrGroupHasNoState        = errors.New("班级尚无学期状态")
	ErrGroupStateNotFound     = errors.New("班级学期状态不存在")
	ErrDuplicateSemesterState = errors.New("该班级在此学期已有状态")
	ErrPraepostorNotMember    = errors.New("班长必须是本学期子组成员")
	ErrSubgroupNotFound       = errors.New("子组不存在")
	ErrNoStateOnDate          = errors.New("该日期没有生效的班级状态")
)

// GroupService 班级及其学期状态业务接口
type GroupService interface {
	List(ctx context.Context) ([]dto.GroupShortResponse, error)
	Create(ctx context.Context, req *dto.CreateGroupRequest, callerID string) (*dto.GroupShortResponse, error)
	Delete(ctx context.Context, groupID string, callerID string) error

	// GetLatest 班级最新状态详情；零状态返回 ErrGroupHasNoState
	GetLatest(ctx context.Context, groupID string) (*dto.GroupStateResponse, error)
	ListStates(ctx context.Context, groupID string) ([]dto.GroupStateResponse, error)
	GetState(ctx context.Context, groupID, stateID string) (*dto.GroupStateResponse, error)
	AsOf(ctx context.Context, groupID, date string) (*dto.GroupStateResponse, error)
	// CreateState 在同一事务中创建状态及其全部子组
	CreateState(ctx context.Context, groupID string, req *dto.CreateGroupStateRequest, callerID string) (*dto.GroupStateResponse, error)

	AddSubgroup(ctx context.Context, groupID, stateID string, req *dto.SubgroupInput, callerID string) (*dto.SubgroupResponse, error)
	ReplaceSubgroup(ctx context.Context, groupID, stateID, subgroupID string, req *dto.SubgroupInput, callerID string) (*dto.SubgroupResponse, error)
}

type groupService struct {
	cfg    *config.RegistryConfig
	repo   *repository.Repository
	logger *zap.Logger
}

// NewGroupService 创建 GroupService 实例
func NewGroupService(cfg *config.RegistryConfig, repo *repository.Repository, logger *zap.Logger) GroupService {
	return &groupService{cfg: cfg, repo: repo, logger: logger}
}

// ────────────────────── 班级 ──────────────────────

func (s *groupService) List(ctx context.Context) ([]dto.GroupShortResponse, error) {
	groups, err := s.repo.Group.ListWithStates(ctx, nil)
	if err != nil {
		s.logger.Error("列出班级失败", zap.Error(err))
		return nil, err
	}
	result := make([]dto.GroupShortResponse, 0, len(groups))
	for i := range groups {
		result = append(result, toGroupShort(&groups[i]))
	}
	return result, nil
}

func (s *groupService) Create(ctx context.Context, req *dto.CreateGroupRequest, callerID string) (*dto.GroupShortResponse, error) {
	var v validationCollector
	if err := checkRefs(ctx, s.repo.Refs, &v, repository.RefCourse, "course_id", req.CourseID); err != nil {
		return nil, err
	}
	if req.InitialState != nil {
		if err := s.checkStateRequest(ctx, &v, "initial_state.", req.InitialState); err != nil {
			return nil, err
		}
	}
	if err := v.err(); err != nil {
		return nil, err
	}
	if req.InitialState != nil {
		if err := checkPraepostor(req.InitialState); err != nil {
			return nil, err
		}
	}

	group := &model.Group{CourseID: req.CourseID}
	group.Stamp(callerID)
	err := s.repo.RunInTx(ctx, func(txRepo *repository.Repository) error {
		if err := txRepo.Group.Create(ctx, group); err != nil {
			return err
		}
		if req.InitialState == nil {
			return nil
		}
		_, err := createStateTx(ctx, txRepo, group.GroupID, req.InitialState, callerID)
		return err
	})
	if err != nil {
		s.logger.Error("创建班级失败", zap.Error(err))
		return nil, err
	}

	s.logger.Info("班级已创建", zap.String("group_id", group.GroupID), zap.Bool("with_state", req.InitialState != nil))

	groups, err := s.repo.Group.ListWithStates(ctx, []string{group.GroupID})
	if err != nil || len(groups) == 0 {
		s.logger.Error("查询新建班级失败", zap.String("group_id", group.GroupID), zap.Error(err))
		return nil, fmt.Errorf("查询新建班级失败: %w", err)
	}
	short := toGroupShort(&groups[0])
	return &short, nil
}

func (s *groupService) Delete(ctx context.Context, groupID string, callerID string) error {
	if _, err := s.getGroup(ctx, groupID); err != nil {
		return err
	}
	err := s.repo.RunInTx(ctx, func(txRepo *repository.Repository) error {
		if err := txRepo.GroupState.DeleteByGroup(ctx, groupID); err != nil {
			return err
		}
		return txRepo.Group.Delete(ctx, groupID, callerID)
	})
	if err != nil {
		s.logger.Error("删除班级失败", zap.String("group_id", groupID), zap.Error(err))
		return err
	}
	return nil
}

// ────────────────────── 学期状态 ──────────────────────

func (s *groupService) GetLatest(ctx context.Context, groupID string) (*dto.GroupStateResponse, error) {
	return s.stateDetail(ctx, groupID, func(tl *registry.Timeline) (*model.GroupSemesterState, error) {
		latest, err := tl.Latest()
		if errors.Is(err, registry.ErrNoState) {
			return nil, ErrGroupHasNoState
		}
		return latest, err
	})
}

func (s *groupService) GetState(ctx context.Context, groupID, stateID string) (*dto.GroupStateResponse, error) {
	return s.stateDetail(ctx, groupID, func(tl *registry.Timeline) (*model.GroupSemesterState, error) {
		state, ok := tl.Find(stateID)
		if !ok {
			return nil, ErrGroupStateNotFound
		}
		return state, nil
	})
}

func (s *groupService) AsOf(ctx context.Context, groupID, date string) (*dto.GroupStateResponse, error) {
	day, err := parseDate("date", date)
	if err != nil {
		return nil, err
	}
	return s.stateDetail(ctx, groupID, func(tl *registry.Timeline) (*model.GroupSemesterState, error) {
		state, err := tl.AsOf(day)
		if errors.Is(err, registry.ErrNoState) {
			return nil, ErrNoStateOnDate
		}
		return state, err
	})
}

func (s *groupService) ListStates(ctx context.Context, groupID string) ([]dto.GroupStateResponse, error) {
	group, tl, err := s.loadTimeline(ctx, groupID)
	if err != nil {
		return nil, err
	}
	cal, err := s.calendar(ctx)
	if err != nil {
		return nil, err
	}
	states := tl.States()
	result := make([]dto.GroupStateResponse, 0, len(states))
	for _, st := range states {
		result = append(result, toGroupStateResponse(group, st, cal))
	}
	return result, nil
}

func (s *groupService) CreateState(ctx context.Context, groupID string, req *dto.CreateGroupStateRequest, callerID string) (*dto.GroupStateResponse, error) {
	if _, err := s.getGroup(ctx, groupID); err != nil {
		return nil, err
	}

	var v validationCollector
	if err := s.checkStateRequest(ctx, &v, "", req); err != nil {
		return nil, err
	}
	if err := v.err(); err != nil {
		return nil, err
	}
	if err := checkPraepostor(req); err != nil {
		return nil, err
	}

	var stateID string
	err := s.repo.RunInTx(ctx, func(txRepo *repository.Repository) error {
		// 同一班级的并发创建在此排队，重复检查与写入处于同一事务
		if err := txRepo.Group.LockForUpdate(ctx, groupID); err != nil {
			return err
		}
		if !s.cfg.AllowDuplicateStates {
			exists, err := txRepo.GroupState.ExistsForSemester(ctx, groupID, req.SemesterID)
			if err != nil {
				return err
			}
			if exists {
				return ErrDuplicateSemesterState
			}
		}
		state, err := createStateTx(ctx, txRepo, groupID, req, callerID)
		if err != nil {
			return err
		}
		stateID = state.StateID
		return nil
	})
	switch {
	case errors.Is(err, ErrDuplicateSemesterState):
		return nil, err
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, ErrGroupNotFound
	case err != nil:
		s.logger.Error("创建班级学期状态失败", zap.String("group_id", groupID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("班级学期状态已创建",
		zap.String("group_id", groupID),
		zap.String("state_id", stateID),
		zap.Int("subgroups", len(req.Subgroups)),
	)
	return s.GetState(ctx, groupID, stateID)
}

// createStateTx 写入状态及其子组；调用方负责事务
func createStateTx(ctx context.Context, txRepo *repository.Repository, groupID string, req *dto.CreateGroupStateRequest, callerID string) (*model.GroupSemesterState, error) {
	state := &model.GroupSemesterState{
		GroupID:      groupID,
		SemesterID:   req.SemesterID,
		Name:         req.Name,
		PraepostorID: req.PraepostorID,
	}
	state.Stamp(callerID)
	if err := txRepo.GroupState.Create(ctx, state); err != nil {
		return nil, err
	}
	for i := range req.Subgroups {
		sg := subgroupFromInput(&req.Subgroups[i])
		sg.StateID = state.StateID
		sg.Stamp(callerID)
		if err := txRepo.Subgroup.Create(ctx, sg); err != nil {
			return nil, fmt.Errorf("创建子组 %q 失败: %w", sg.Name, err)
		}
	}
	return state, nil
}

// ────────────────────── 子组 ──────────────────────

func (s *groupService) AddSubgroup(ctx context.Context, groupID, stateID string, req *dto.SubgroupInput, callerID string) (*dto.SubgroupResponse, error) {
	state, err := s.getStateOfGroup(ctx, groupID, stateID)
	if err != nil {
		return nil, err
	}

	var v validationCollector
	if err := s.checkSubgroupRefs(ctx, &v, "", []dto.SubgroupInput{*req}); err != nil {
		return nil, err
	}
	for _, existing := range state.Subgroups {
		if existing.Name == req.Name {
			v.add("name", "subgroup name already used in this state")
		}
	}
	if err := v.err(); err != nil {
		return nil, err
	}

	sg := subgroupFromInput(req)
	sg.StateID = state.StateID
	sg.Stamp(callerID)
	if err := s.repo.Subgroup.Create(ctx, sg); err != nil {
		s.logger.Error("创建子组失败", zap.String("state_id", stateID), zap.Error(err))
		return nil, err
	}
	return s.subgroupDetail(ctx, sg.SubgroupID)
}

func (s *groupService) ReplaceSubgroup(ctx context.Context, groupID, stateID, subgroupID string, req *dto.SubgroupInput, callerID string) (*dto.SubgroupResponse, error) {
	state, err := s.getStateOfGroup(ctx, groupID, stateID)
	if err != nil {
		return nil, err
	}
	current, err := s.repo.Subgroup.GetByID(ctx, subgroupID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubgroupNotFound
		}
		s.logger.Error("查询子组失败", zap.String("subgroup_id", subgroupID), zap.Error(err))
		return nil, err
	}
	if current.StateID != state.StateID {
		return nil, ErrSubgroupNotFound
	}

	var v validationCollector
	if err := s.checkSubgroupRefs(ctx, &v, "", []dto.SubgroupInput{*req}); err != nil {
		return nil, err
	}
	for _, other := range state.Subgroups {
		if other.SubgroupID != subgroupID && other.Name == req.Name {
			v.add("name", "subgroup name already used in this state")
		}
	}
	if err := v.err(); err != nil {
		return nil, err
	}

	sg := subgroupFromInput(req)
	sg.SubgroupID = subgroupID
	sg.StateID = state.StateID
	sg.UpdatedBy = &callerID
	if err := s.repo.Subgroup.Replace(ctx, sg); err != nil {
		s.logger.Error("替换子组失败", zap.String("subgroup_id", subgroupID), zap.Error(err))
		return nil, err
	}
	return s.subgroupDetail(ctx, subgroupID)
}

func (s *groupService) subgroupDetail(ctx context.Context, subgroupID string) (*dto.SubgroupResponse, error) {
	sg, err := s.repo.Subgroup.GetByID(ctx, subgroupID)
	if err != nil {
		s.logger.Error("查询子组失败", zap.String("subgroup_id", subgroupID), zap.Error(err))
		return nil, err
	}
	resp := toSubgroupResponse(sg)
	return &resp, nil
}

// ────────────────────── 内部辅助 ──────────────────────

func (s *groupService) getGroup(ctx context.Context, groupID string) (*model.Group, error) {
	group, err := s.repo.Group.GetByID(ctx, groupID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrGroupNotFound
		}
		s.logger.Error("查询班级失败", zap.String("group_id", groupID), zap.Error(err))
		return nil, err
	}
	return group, nil
}

// getStateOfGroup 读取状态并确认其属于该班级
func (s *groupService) getStateOfGroup(ctx context.Context, groupID, stateID string) (*model.GroupSemesterState, error) {
	if _, err := s.getGroup(ctx, groupID); err != nil {
		return nil, err
	}
	state, err := s.repo.GroupState.GetByID(ctx, stateID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrGroupStateNotFound
		}
		s.logger.Error("查询班级学期状态失败", zap.String("state_id", stateID), zap.Error(err))
		return nil, err
	}
	if state.GroupID != groupID {
		return nil, ErrGroupStateNotFound
	}
	return state, nil
}

func (s *groupService) loadTimeline(ctx context.Context, groupID string) (*model.Group, *registry.Timeline, error) {
	group, err := s.repo.Group.GetWithStates(ctx, groupID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrGroupNotFound
		}
		s.logger.Error("查询班级状态失败", zap.String("group_id", groupID), zap.Error(err))
		return nil, nil, err
	}
	return group, registry.NewTimeline(group.GroupID, group.States), nil
}

func (s *groupService) calendar(ctx context.Context) (*registry.Calendar, error) {
	semesters, err := s.repo.Semester.List(ctx)
	if err != nil {
		s.logger.Error("列出学期失败", zap.Error(err))
		return nil, err
	}
	return registry.NewCalendar(semesters), nil
}

// stateDetail 加载时间线，用 pick 选出状态并组装详情
func (s *groupService) stateDetail(ctx context.Context, groupID string, pick func(*registry.Timeline) (*model.GroupSemesterState, error)) (*dto.GroupStateResponse, error) {
	group, tl, err := s.loadTimeline(ctx, groupID)
	if err != nil {
		return nil, err
	}
	state, err := pick(tl)
	if err != nil {
		return nil, err
	}
	cal, err := s.calendar(ctx)
	if err != nil {
		return nil, err
	}
	resp := toGroupStateResponse(group, state, cal)
	return &resp, nil
}

// checkStateRequest 校验状态请求引用的学期、学生、教师、科目
func (s *groupService) checkStateRequest(ctx context.Context, v *validationCollector, prefix string, req *dto.CreateGroupStateRequest) error {
	if len(req.Subgroups) == 0 {
		v.add(prefix+"subgroups", "at least one subgroup is required")
	}
	if err := checkRefs(ctx, s.repo.Refs, v, repository.RefSemester, prefix+"semester_id", req.SemesterID); err != nil {
		return err
	}
	names := make(map[string]bool, len(req.Subgroups))
	for _, sg := range req.Subgroups {
		if names[sg.Name] {
			v.add(prefix+"subgroups", "duplicate subgroup name: "+sg.Name)
		}
		names[sg.Name] = true
	}
	return s.checkSubgroupRefs(ctx, v, prefix+"subgroups.", req.Subgroups)
}

func (s *groupService) checkSubgroupRefs(ctx context.Context, v *validationCollector, prefix string, inputs []dto.SubgroupInput) error {
	var students, teachers, disciplines []string
	for _, in := range inputs {
		students = append(students, in.StudentIDs...)
		teachers = append(teachers, in.TeacherIDs...)
		disciplines = append(disciplines, in.DisciplineIDs...)
	}
	if err := checkRefs(ctx, s.repo.Refs, v, repository.RefStudent, prefix+"student_ids", students...); err != nil {
		return err
	}
	if err := checkRefs(ctx, s.repo.Refs, v, repository.RefTeacher, prefix+"teacher_ids", teachers...); err != nil {
		return err
	}
	return checkRefs(ctx, s.repo.Refs, v, repository.RefDiscipline, prefix+"discipline_ids", disciplines...)
}

// checkPraepostor 班长必须出现在本次创建的某个子组中
func checkPraepostor(req *dto.CreateGroupStateRequest) error {
	if req.PraepostorID == nil || *req.PraepostorID == "" {
		req.PraepostorID = nil
		return nil
	}
	for _, sg := range req.Subgroups {
		for _, id := range sg.StudentIDs {
			if id == *req.PraepostorID {
				return nil
			}
		}
	}
	return ErrPraepostorNotMember
}

func subgroupFromInput(in *dto.SubgroupInput) *model.Subgroup {
	return &model.Subgroup{
		Name:        in.Name,
		Primary:     in.Primary,
		Students:    studentRefs(in.StudentIDs),
		Teachers:    teacherRefs(in.TeacherIDs),
		Disciplines: disciplineRefs(in.DisciplineIDs),
	}
}

// ── 组装响应 ──

// toGroupShort 班级列表项；零状态时名称为 null，首学期为占位标签
func toGroupShort(g *model.Group) dto.GroupShortResponse {
	tl := registry.NewTimeline(g.GroupID, g.States)
	short := dto.GroupShortResponse{
		ID:            g.GroupID,
		Name:          groupName(tl),
		Course:        toCourseShort(g.Course),
		FirstSemester: tl.FirstSemesterLabel(),
	}
	if latest, err := tl.Latest(); err == nil {
		short.LastSemester = toSemesterResponse(latest.Semester)
	}
	return short
}

// toGroupRef 班级引用，名称取自最新状态
func toGroupRef(g *model.Group) dto.GroupRef {
	return dto.GroupRef{ID: g.GroupID, Name: groupName(registry.NewTimeline(g.GroupID, g.States))}
}

func groupName(tl *registry.Timeline) *string {
	name, err := tl.Name()
	if err != nil {
		return nil
	}
	return &name
}

func toGroupStateResponse(g *model.Group, st *model.GroupSemesterState, cal *registry.Calendar) dto.GroupStateResponse {
	resp := dto.GroupStateResponse{
		ID:        st.StateID,
		GroupID:   g.GroupID,
		Name:      st.Name,
		Semester:  toSemesterResponse(st.Semester),
		Course:    toCourseShort(g.Course),
		Year:      cal.YearNumber(st),
		Subgroups: make([]dto.SubgroupResponse, 0, len(st.Subgroups)),
	}
	if st.Praepostor != nil {
		brief := toStudentBrief(st.Praepostor)
		resp.Praepostor = &brief
	}

	roster := registry.BuildRoster(st)
	resp.RosterKind = string(roster.Kind)
	if roster.Kind == registry.RosterMulti {
		primaries := make([]dto.SubgroupRosterResponse, 0, len(roster.Subgroups))
		for _, sg := range roster.Subgroups {
			primaries = append(primaries, dto.SubgroupRosterResponse{
				ID:       sg.SubgroupID,
				Name:     sg.Name,
				Students: toStudentBriefs(sg.Students),
			})
		}
		resp.PrimarySubgroups = &primaries
	} else {
		students := toStudentBriefs(roster.Students)
		resp.Students = &students
	}

	for i := range st.Subgroups {
		resp.Subgroups = append(resp.Subgroups, toSubgroupResponse(&st.Subgroups[i]))
	}
	return resp
}

func toSubgroupResponse(sg *model.Subgroup) dto.SubgroupResponse {
	return dto.SubgroupResponse{
		ID:          sg.SubgroupID,
		Name:        sg.Name,
		Primary:     sg.Primary,
		Students:    toStudentBriefs(sg.Students),
		Teachers:    teacherShorts(sg.Teachers),
		Disciplines: disciplineShorts(sg.Disciplines),
	}
}
