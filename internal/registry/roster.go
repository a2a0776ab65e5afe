package registry

import "klimr/backend/internal/model"

// RosterKind 名单形态
type RosterKind string

const (
	// RosterEmpty 没有主子组：退化情况，返回空名单而不是错误
	RosterEmpty RosterKind = "empty"
	// RosterSingle 恰好一个主子组：成员平铺为 students
	RosterSingle RosterKind = "single"
	// RosterMulti 多个主子组：每个主子组按名称分别给出成员
	RosterMulti RosterKind = "multi"
)

// SubgroupRoster 一个主子组及其成员
type SubgroupRoster struct {
	SubgroupID string
	Name       string
	Students   []model.Student
}

// Roster 某学期状态的名单
// Kind 为 RosterSingle/RosterEmpty 时只使用 Students；为 RosterMulti 时只使用 Subgroups
type Roster struct {
	Kind      RosterKind
	Students  []model.Student
	Subgroups []SubgroupRoster
}

// BuildRoster 按主子组数量决定名单形态；非主子组不计入
// 子组的 Students 需预加载
func BuildRoster(state *model.GroupSemesterState) Roster {
	var primaries []*model.Subgroup
	for i := range state.Subgroups {
		if state.Subgroups[i].Primary {
			primaries = append(primaries, &state.Subgroups[i])
		}
	}

	switch len(primaries) {
	case 0:
		return Roster{Kind: RosterEmpty, Students: []model.Student{}}
	case 1:
		return Roster{Kind: RosterSingle, Students: nonNil(primaries[0].Students)}
	default:
		subgroups := make([]SubgroupRoster, 0, len(primaries))
		for _, sg := range primaries {
			subgroups = append(subgroups, SubgroupRoster{
				SubgroupID: sg.SubgroupID,
				Name:       sg.Name,
				Students:   nonNil(sg.Students),
			})
		}
		return Roster{Kind: RosterMulti, Subgroups: subgroups}
	}
}

// Members 名单中全部学生（去重），不区分形态
func (r Roster) Members() []model.Student {
	if r.Kind != RosterMulti {
		return r.Students
	}
	seen := make(map[string]bool)
	var out []model.Student
	for _, sg := range r.Subgroups {
		for _, st := range sg.Students {
			if seen[st.StudentID] {
				continue
			}
			seen[st.StudentID] = true
			out = append(out, st)
		}
	}
	return out
}

func nonNil(students []model.Student) []model.Student {
	if students == nil {
		return []model.Student{}
	}
	return students
}
