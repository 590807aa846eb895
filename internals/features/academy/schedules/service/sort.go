package service

import (
	"sort"

	scheduleModel "academy_backend/internals/features/academy/schedules/model"
)

// SortClasses returns a copy ordered by creation time, then name, then id.
func SortClasses(classes []scheduleModel.ClassModel) []scheduleModel.ClassModel {
	out := append([]scheduleModel.ClassModel(nil), classes...)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.ClassCreatedAt.Equal(b.ClassCreatedAt) {
			return a.ClassCreatedAt.Before(b.ClassCreatedAt)
		}
		if a.ClassName != b.ClassName {
			return a.ClassName < b.ClassName
		}
		return a.ClassID.String() < b.ClassID.String()
	})
	return out
}
