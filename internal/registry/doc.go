// Package registry 实现班级的时间版本模型。
//
// 班级（Group）本身只是稳定身份，名称、班长与成员都挂在按学期排列的
// GroupSemesterState 上。本包把这些状态组织成按学期 start_on 排好序的
// Timeline，"当前"与"某日生效"查询均为下标访问或二分查找，不依赖每次查询时
// 的数据库排序。
//
// 学年编号由 Calendar 计算：早于该学期开始日期的学期数整除 2 再加 1。
// 这里假定每学年恰好两个学期；数据缺口导致学期数为奇数时结果向下取整，
// 属于已知近似。
package registry
